package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestForModule(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	SetLogger(zap.New(core))
	t.Cleanup(func() { SetLogger(nil) })

	ForModule("quiet", false).Debug("hidden")
	ForModule("loud", true).Debug("shown")

	entries := logs.All()
	if assert.Len(t, entries, 1) {
		assert.Equal(t, "shown", entries[0].Message)
		assert.Equal(t, "loud", entries[0].LoggerName)
	}
}

func TestLWithoutInit(t *testing.T) {
	SetLogger(nil)
	assert.NotNil(t, L())
}

func TestInitLoggerBadLevel(t *testing.T) {
	InitLogger("nonsense")
	t.Cleanup(func() { SetLogger(nil) })
	assert.True(t, L().Core().Enabled(zap.InfoLevel))
	assert.False(t, L().Core().Enabled(zap.DebugLevel))
}
