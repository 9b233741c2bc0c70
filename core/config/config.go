// Package config loads host configuration for Kayan login modules.
//
// Configuration is read with Viper from a YAML, JSON or TOML file and may be
// overridden from the environment. A file names the log level and the login
// modules to build, each with its own option map:
//
//	log_level: info
//	modules:
//	  - name: local
//	    type: file
//	    options:
//	      pwdFile: /etc/kayan/passwd
//	      maxFailures: "5"
//	  - name: sql
//	    type: db
//	    options:
//	      dbDriver: postgres
//	      dbURL: postgres://db/auth
//
// # Environment Variables
//
//   - LOG_LEVEL: Logging level (debug, info, warn, error). Default: info
//
// # Example Usage
//
//	cfg, err := config.LoadConfig("/etc/kayan/login.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	m, err := module.DefaultRegistry().Build(cfg.Modules[0])
package config

import (
	"fmt"
	"strings"

	"github.com/getkayan/kayan-login/core/domain"
	"github.com/spf13/viper"
)

type Config struct {
	LogLevel string                `mapstructure:"log_level"`
	Modules  []domain.ModuleConfig `mapstructure:"modules"`
}

// Module returns the module entry with the given name.
func (c *Config) Module(name string) (domain.ModuleConfig, bool) {
	for _, m := range c.Modules {
		if m.Name == name {
			return m, true
		}
	}
	return domain.ModuleConfig{}, false
}

// LoadConfig reads path, if given, and applies environment overrides.
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	v.SetDefault("log_level", "info")

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("%w: reading %s: %v", domain.ErrConfig, path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrConfig, err)
	}

	seen := make(map[string]bool, len(cfg.Modules))
	for i, m := range cfg.Modules {
		if m.Type == "" {
			return nil, fmt.Errorf("%w: module %d has no type", domain.ErrConfig, i)
		}
		if m.Name == "" {
			cfg.Modules[i].Name = m.Type
		}
		if seen[cfg.Modules[i].Name] {
			return nil, fmt.Errorf("%w: duplicate module name %q", domain.ErrConfig, cfg.Modules[i].Name)
		}
		seen[cfg.Modules[i].Name] = true
	}
	return &cfg, nil
}
