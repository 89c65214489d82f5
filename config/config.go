// Package config loads the FoundryMesh configuration from a YAML file with
// FOUNDRYMESH_* environment overrides, via viper. All defaults are safe for
// local development.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/yadejumobi/foundrymesh/core"
	"github.com/yadejumobi/foundrymesh/server"
	"github.com/yadejumobi/foundrymesh/trace"
)

// Orchestration bounds and retention policy.
type Orchestration struct {
	MaxHandoffs       int           `mapstructure:"max_handoffs"`
	MaxRounds         int           `mapstructure:"max_rounds"`
	MaxConcurrentRuns int           `mapstructure:"max_concurrent_runs"`
	Retention         time.Duration `mapstructure:"retention"`
	DefaultTimeout    time.Duration `mapstructure:"default_timeout"`
}

// Config is the full process configuration.
type Config struct {
	Server        server.Config          `mapstructure:"server"`
	Orchestration Orchestration          `mapstructure:"orchestration"`
	Tracing       trace.OTLPConfig       `mapstructure:"tracing"`
	Agents        []core.AgentDescriptor `mapstructure:"agents"`
	LogLevel      string                 `mapstructure:"log_level"`
	LogFormat     string                 `mapstructure:"log_format"`
}

// Load reads the configuration file at path and unmarshals it. An empty
// path loads defaults plus environment overrides only.
func Load(path string) (*Config, error) {
	v := viper.New()

	v.SetDefault("server.host", "localhost")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "120s")
	v.SetDefault("orchestration.max_handoffs", 5)
	v.SetDefault("orchestration.max_rounds", 3)
	v.SetDefault("orchestration.max_concurrent_runs", 32)
	v.SetDefault("orchestration.retention", "1h")
	v.SetDefault("orchestration.default_timeout", "10s")
	v.SetDefault("tracing.enabled", false)
	v.SetDefault("tracing.sample_rate", 1.0)
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "json")

	v.SetEnvPrefix("FOUNDRYMESH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	return &cfg, nil
}
