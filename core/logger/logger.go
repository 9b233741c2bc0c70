// Package logger provides structured logging for Kayan login modules.
//
// It wraps Uber's zap logger behind a single global instance. Hosts call
// InitLogger once at startup; library code calls L(), which falls back to a
// no-op logger until then so modules can be used without any logging setup.
//
//	logger.InitLogger("debug") // Options: debug, info, warn, error
//	logger.L().Info("module initialised", zap.String("module", "local"))
//
// Modules built with debug=true log their lifecycle through ForModule;
// otherwise ForModule returns a no-op logger.
package logger

import (
	"sync/atomic"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var global atomic.Pointer[zap.Logger]

// InitLogger builds the global production logger at the given level.
// Unknown levels fall back to info.
func InitLogger(level string) {
	var zapLevel zapcore.Level
	if err := zapLevel.UnmarshalText([]byte(level)); err != nil {
		zapLevel = zap.InfoLevel
	}

	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(zapLevel)
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	log, err := cfg.Build()
	if err != nil {
		panic(err)
	}
	SetLogger(log)
}

// SetLogger replaces the global logger.
func SetLogger(l *zap.Logger) {
	global.Store(l)
}

// L returns the global logger, or a no-op logger if none was set.
func L() *zap.Logger {
	if l := global.Load(); l != nil {
		return l
	}
	return zap.NewNop()
}

// ForModule returns a named child of the global logger when debug is set and
// a no-op logger otherwise.
func ForModule(name string, debug bool) *zap.Logger {
	if !debug {
		return zap.NewNop()
	}
	return L().Named(name)
}
