// SPDX-License-Identifier: Apache-2.0

// Package config loads settings from an optional YAML file and the environment.
package config

import (
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Log    LogConfig    `yaml:"log" mapstructure:"log"`
	Review ReviewConfig `yaml:"review" mapstructure:"review"`
	Export ExportConfig `yaml:"export" mapstructure:"export"`
	Server ServerConfig `yaml:"server" mapstructure:"server"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// ReviewConfig configures the reviewing session.
type ReviewConfig struct {
	// Actor is recorded on audit entries when a tool call names no reviewer.
	Actor string `yaml:"actor" mapstructure:"actor"`
}

// ExportConfig configures audit log export.
type ExportConfig struct {
	TimeLayout     string `yaml:"time_layout" mapstructure:"time_layout"`
	Location       string `yaml:"location" mapstructure:"location"`
	FilenamePrefix string `yaml:"filename_prefix" mapstructure:"filename_prefix"`
}

// TimeLocation resolves Location ("Local", "UTC" or an IANA name).
func (c ExportConfig) TimeLocation() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Location)
	if err != nil {
		return nil, eris.Wrapf(err, "config: export location %q", c.Location)
	}
	return loc, nil
}

// ServerConfig identifies the MCP server to clients.
type ServerConfig struct {
	Name    string `yaml:"name" mapstructure:"name"`
	Version string `yaml:"version" mapstructure:"version"`
}

// Load reads configuration from file and environment. An empty path searches
// the working directory for config.yaml; a missing file is not an error.
func Load(path string) (*Config, error) {
	v := viper.New()

	// Config file
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	// Environment
	v.SetEnvPrefix("MEDAUDIT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("review.actor", "Current CPC Professional")
	v.SetDefault("export.time_layout", "1/2/2006, 3:04:05 PM")
	v.SetDefault("export.location", "Local")
	v.SetDefault("export.filename_prefix", "audit_log_")
	v.SetDefault("server.name", "coding-audit")
	v.SetDefault("server.version", "0.1.0")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok || path != "" {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// InitLogger initializes the global zap logger. Logs go to stderr because
// stdout carries the MCP stdio transport.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}
	zapCfg.OutputPaths = []string{"stderr"}
	zapCfg.ErrorOutputPaths = []string{"stderr"}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
