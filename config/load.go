package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	toml "github.com/pelletier/go-toml/v2"
	"github.com/spf13/viper"

	"github.com/wasmforge-dev/wasmforge/infrastructure/modcache"
)

// DefaultPath returns the per-user configuration file location,
// $XDG_CONFIG_HOME/wasmforge/config.toml or the platform equivalent.
func DefaultPath() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("locate user config dir: %w", err)
	}
	return filepath.Join(base, "wasmforge", "config.toml"), nil
}

// Load reads and validates the configuration file at path. Keys absent
// from the file take their default values; the modules list has no
// default and may be empty.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := validateStruct(&cfg); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return &cfg, nil
}

// LoadOrCreate loads the file at path, writing the default configuration
// there first when the file does not exist yet.
func LoadOrCreate(path string) (*Config, error) {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		cfg := Default()
		if err := cfg.Save(path); err != nil {
			return nil, err
		}
		return &cfg, nil
	}
	return Load(path)
}

// Save writes the configuration as TOML, creating parent directories as
// needed.
func (c *Config) Save(path string) error {
	data, err := toml.Marshal(c)
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config dir %s: %w", dir, err)
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write config %s: %w", path, err)
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.name", "wasmforge")
	v.SetDefault("server.version", "0.1.0")
	v.SetDefault("server.default_host", "127.0.0.1")
	v.SetDefault("cache.directory", modcache.DefaultDir())
	v.SetDefault("cache.max_size_mb", 100)
	v.SetDefault("cache.ttl_hours", 24)
}
