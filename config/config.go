package config

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/spf13/cast"
	"github.com/spf13/viper"

	"github.com/cineamoquery/cineamoquery/cineamo"
)

// knownKeys maps settable configuration keys to the coercion applied to a
// raw command-line value before it is persisted.
var knownKeys = map[string]func(string) (any, error){
	"api.base_url": func(s string) (any, error) { return s, nil },
	"api.timeout": func(s string) (any, error) {
		d, err := time.ParseDuration(s)
		if err != nil {
			return nil, err
		}
		// Stored as a string; the duration decode hook parses it on load.
		return d.String(), nil
	},
	"api.per_page":   func(s string) (any, error) { return cast.ToIntE(s) },
	"output.format":  func(s string) (any, error) { return s, nil },
	"logging.level":  func(s string) (any, error) { return s, nil },
	"logging.format": func(s string) (any, error) { return s, nil },
	"logging.color":  func(s string) (any, error) { return cast.ToBoolE(s) },
}

// KnownKeys returns the settable configuration keys, sorted.
func KnownKeys() []string {
	keys := make([]string, 0, len(knownKeys))
	for key := range knownKeys {
		keys = append(keys, key)
	}
	slices.Sort(keys)
	return keys
}

// Load loads the configuration, layering defaults, the config file (if one
// exists), and CINEAMO_* environment variables. Running without a config
// file is fine; the defaults cover everything.
func Load(configPath string) (*Config, error) {
	v, err := newViper(configPath)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	// Validate configuration
	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// Get returns the effective value of a known key, with defaults, config file
// and environment applied.
func Get(configPath, key string) (any, error) {
	if _, ok := knownKeys[key]; !ok {
		return nil, fmt.Errorf("unknown config key: %s", key)
	}

	v, err := newViper(configPath)
	if err != nil {
		return nil, err
	}
	return v.Get(key), nil
}

// Set persists one key to the config file, creating the file and its
// directory when missing. Only explicitly set keys end up in the file;
// defaults stay out of it. Returns the path written.
func Set(configPath, key, value string) (string, error) {
	coerce, ok := knownKeys[key]
	if !ok {
		return "", fmt.Errorf("unknown config key: %s", key)
	}
	coerced, err := coerce(value)
	if err != nil {
		return "", fmt.Errorf("invalid value for %s: %w", key, err)
	}

	path := configPath
	if path == "" {
		if path, err = DefaultPath(); err != nil {
			return "", err
		}
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("toml")
	if err := v.ReadInConfig(); err != nil {
		if !os.IsNotExist(err) {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return "", fmt.Errorf("error reading config: %w", err)
			}
		}
	}

	v.Set(key, coerced)

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := v.WriteConfigAs(path); err != nil {
		return "", fmt.Errorf("failed to write config: %w", err)
	}
	return path, nil
}

// DefaultPath returns the user-level config file path.
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("failed to locate user config directory: %w", err)
	}
	return filepath.Join(dir, "cineamoquery", "config.toml"), nil
}

func newViper(configPath string) (*viper.Viper, error) {
	v := viper.New()

	// Set default values
	setDefaults(v)

	v.SetEnvPrefix("CINEAMO")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	// The documented variable names predate the sectioned key layout.
	v.BindEnv("api.base_url", "CINEAMO_BASE_URL")
	v.BindEnv("api.timeout", "CINEAMO_TIMEOUT")

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("error reading config: %w", err)
		}
		return v, nil
	}

	// Look for config in standard locations
	v.SetConfigName("config")
	v.SetConfigType("toml")

	if dir, err := os.UserConfigDir(); err == nil {
		v.AddConfigPath(filepath.Join(dir, "cineamoquery"))
	}
	v.AddConfigPath(".")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config: %w", err)
		}
	}
	return v, nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// API defaults
	v.SetDefault("api.base_url", cineamo.DefaultBaseURL)
	v.SetDefault("api.timeout", cineamo.DefaultTimeout)
	v.SetDefault("api.per_page", 10)

	// Output defaults
	v.SetDefault("output.format", "table")

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
	v.SetDefault("logging.color", true)
}

// validate checks if the configuration is valid
func validate(cfg *Config) error {
	if cfg.API.BaseURL == "" {
		return fmt.Errorf("api.base_url is required")
	}

	if cfg.API.Timeout <= 0 {
		return fmt.Errorf("api.timeout must be positive")
	}

	if cfg.API.PerPage <= 0 {
		return fmt.Errorf("api.per_page must be positive")
	}

	// Validate logging level
	validLevels := map[string]bool{
		"trace": true,
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLevels[cfg.Logging.Level] {
		return fmt.Errorf("invalid logging level: %s", cfg.Logging.Level)
	}

	// Validate logging format
	validFormats := map[string]bool{
		"console": true,
		"json":    true,
	}
	if !validFormats[cfg.Logging.Format] {
		return fmt.Errorf("invalid logging format: %s", cfg.Logging.Format)
	}

	// Validate output format
	validOutputs := map[string]bool{
		"table": true,
		"json":  true,
	}
	if !validOutputs[cfg.Output.Format] {
		return fmt.Errorf("invalid output format: %s", cfg.Output.Format)
	}

	return nil
}
