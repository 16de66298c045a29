// Package config resolves vqb settings from flags, environment variables
// and an optional YAML config file.
//
// Precedence, highest first: explicitly set flags, VQB_* environment
// variables, the config file, defaults.
package config

import (
	"errors"
	"fmt"
	"slices"

	"github.com/spf13/viper"
)

// EnvPrefix prefixes the environment variables read by AutomaticEnv
// (VQB_DB, VQB_BACKEND, ...).
const EnvPrefix = "VQB"

// DefaultConfigName is the config file searched for when none is given:
// vqb.yaml in the search paths.
const DefaultConfigName = "vqb"

// Keys shared by the flags, the environment and the config file.
const (
	KeyDB      = "db"
	KeyBackend = "backend"
	KeyFormat  = "format"
	KeyVerbose = "verbose"
)

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// Config holds the resolved settings.
type Config struct {
	// DBPath is the SQLite file holding saved pipelines.
	DBPath string `mapstructure:"db"`

	// Backend is the translator used when a command does not name one.
	Backend string `mapstructure:"backend"`

	// Format is the output format: "text" or "json".
	Format string `mapstructure:"format"`

	// Verbose enables debug logging.
	Verbose bool `mapstructure:"verbose"`
}

// New returns a viper instance with the defaults and environment binding
// applied. Callers bind their flags to it before calling Load.
func New() *viper.Viper {
	v := viper.New()

	v.SetDefault(KeyDB, "vqb.db")
	v.SetDefault(KeyBackend, "mongo36")
	v.SetDefault(KeyFormat, "text")
	v.SetDefault(KeyVerbose, false)

	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()

	return v
}

// Load reads the config file and resolves the settings.
//
// With file set, that file must exist. Otherwise vqb.yaml is looked up in
// searchPaths (the working directory when none is given) and a missing
// file is not an error.
func Load(v *viper.Viper, file string, searchPaths ...string) (Config, error) {
	if file != "" {
		v.SetConfigFile(file)
	} else {
		if len(searchPaths) == 0 {
			searchPaths = []string{"."}
		}
		v.SetConfigName(DefaultConfigName)
		v.SetConfigType("yaml")
		for _, p := range searchPaths {
			v.AddConfigPath(p)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if file != "" || !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks the resolved settings.
func (c Config) Validate() error {
	if !slices.Contains(ValidFormats, c.Format) {
		return fmt.Errorf("invalid format %q: must be one of %v", c.Format, ValidFormats)
	}
	if c.Backend == "" {
		return errors.New("backend must not be empty")
	}
	if c.DBPath == "" {
		return errors.New("db path must not be empty")
	}
	return nil
}
