// Package config provides configuration loading for the joinspace CLI.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// Config holds the application configuration. Explicit flags always win
// over a config file, which always wins over these defaults.
type Config struct {
	Output             string `mapstructure:"output"`
	SemicolonSeparated bool   `mapstructure:"semicolon_separated"`
	StopOnError        bool   `mapstructure:"stop_on_error"`
	MaxLevel           int    `mapstructure:"max_level"`
	Dialect            string `mapstructure:"dialect"`
	Verbose            bool   `mapstructure:"verbose"`
	Validate           bool   `mapstructure:"validate"`
	Schema             string `mapstructure:"schema"`
}

// DefaultConfig returns a configuration with default values.
func DefaultConfig() *Config {
	return &Config{
		Output:             "joinspace-output.csv",
		SemicolonSeparated: false,
		StopOnError:        false,
		MaxLevel:           20,
		Dialect:            "generic",
		Verbose:            false,
		Validate:           false,
		Schema:             "",
	}
}

// Load loads configuration from an optional file and environment
// variables prefixed JOINSPACE_, layered over DefaultConfig.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		home, err := os.UserHomeDir()
		if err == nil {
			v.AddConfigPath(filepath.Join(home, ".joinspace"))
		}
		v.AddConfigPath(".")
		v.SetConfigName("joinspace")
		v.SetConfigType("yaml")
	}

	v.SetEnvPrefix("JOINSPACE")
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error parsing config: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	d := DefaultConfig()
	v.SetDefault("output", d.Output)
	v.SetDefault("semicolon_separated", d.SemicolonSeparated)
	v.SetDefault("stop_on_error", d.StopOnError)
	v.SetDefault("max_level", d.MaxLevel)
	v.SetDefault("dialect", d.Dialect)
	v.SetDefault("verbose", d.Verbose)
	v.SetDefault("validate", d.Validate)
	v.SetDefault("schema", d.Schema)
}
