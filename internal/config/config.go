// Package config loads server settings from an optional YAML file and
// PHIQ_-prefixed environment variables, with sane defaults baked in.
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Config is the process configuration for the API server and CLI.
type Config struct {
	// Addr is the HTTP listen address.
	Addr string `mapstructure:"addr"`

	// DefaultFranchise is assigned to rows when the export has no
	// franchise column.
	DefaultFranchise string `mapstructure:"default_franchise"`

	// RulesFile optionally overrides the built-in rule tables.
	RulesFile string `mapstructure:"rules_file"`

	// MaxUploadBytes caps the accepted upload size.
	MaxUploadBytes int64 `mapstructure:"max_upload_bytes"`
}

// Load reads configuration. path may be empty, in which case defaults and
// environment variables apply.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetDefault("addr", ":8080")
	v.SetDefault("default_franchise", "PHIQ")
	v.SetDefault("rules_file", "")
	v.SetDefault("max_upload_bytes", int64(64<<20))

	v.SetEnvPrefix("PHIQ")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("config: reading %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config: decoding: %w", err)
	}
	return &cfg, nil
}
