// Package config loads commitcanvas settings from a TOML file.
//
// Configuration is resolved in order: built-in defaults, then the config
// file (explicit path or the default location under the user config dir),
// then command-line flags applied by the caller.
package config

import (
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"

	apperrors "github.com/matzehuels/commitcanvas/pkg/errors"
)

// Config holds all settings for the CLI and server.
type Config struct {
	// Workers is the goroutine count used when linking history.
	Workers int `toml:"workers"`

	// Format is the default render format (dot, svg, png).
	Format string `toml:"format"`

	// Detailed includes scores and subjects in rendered node labels.
	Detailed bool `toml:"detailed"`

	Cache  CacheConfig  `toml:"cache"`
	Server ServerConfig `toml:"server"`
}

// CacheConfig selects and configures the cache backend.
type CacheConfig struct {
	// Backend is "file", "redis", or "none".
	Backend string `toml:"backend"`

	// Dir is the cache directory for the file backend. Empty means the
	// default location under the user cache dir.
	Dir string `toml:"dir"`

	// TTLHours bounds entry lifetime. Zero means no expiration.
	TTLHours int `toml:"ttl_hours"`

	// RedisAddr is the host:port for the redis backend.
	RedisAddr string `toml:"redis_addr"`

	// RedisPassword is optional.
	RedisPassword string `toml:"redis_password"`

	// RedisDB selects the logical redis database.
	RedisDB int `toml:"redis_db"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	// Addr is the listen address, e.g. ":8080".
	Addr string `toml:"addr"`

	// MongoURI enables the MongoDB store when set. Empty selects the
	// in-memory store.
	MongoURI string `toml:"mongo_uri"`

	// MongoDatabase defaults to "commitcanvas" when empty.
	MongoDatabase string `toml:"mongo_database"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Workers:  4,
		Format:   "svg",
		Detailed: false,
		Cache: CacheConfig{
			Backend:  "file",
			TTLHours: 0,
		},
		Server: ServerConfig{
			Addr: ":8080",
		},
	}
}

// DefaultPath returns the default config file location, or "" when the user
// config dir cannot be determined.
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "commitcanvas", "config.toml")
}

// DefaultCacheDir returns the default file-cache directory, or "" when the
// user cache dir cannot be determined.
func DefaultCacheDir() string {
	dir, err := os.UserCacheDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "commitcanvas")
}

// Load reads the config file at path on top of the defaults. When path is
// empty the default location is tried; a missing file is not an error and
// yields the defaults.
func Load(path string) (Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		path = DefaultPath()
	}
	if path == "" {
		return cfg, nil
	}

	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		if os.IsNotExist(err) && !explicit {
			return cfg, nil
		}
		return cfg, apperrors.Wrap(apperrors.ErrCodeInvalidFormat, err, "parse config %s", path)
	}
	return cfg, cfg.Validate()
}

// Validate checks field values after decoding.
func (c Config) Validate() error {
	if c.Workers < 1 {
		return apperrors.New(apperrors.ErrCodeInvalidInput, "workers must be at least 1")
	}
	switch c.Format {
	case "dot", "svg", "png":
	default:
		return apperrors.New(apperrors.ErrCodeInvalidInput, "unknown format: %s", c.Format)
	}
	switch c.Cache.Backend {
	case "file", "redis", "none":
	default:
		return apperrors.New(apperrors.ErrCodeInvalidInput, "unknown cache backend: %s", c.Cache.Backend)
	}
	if c.Cache.Backend == "redis" && c.Cache.RedisAddr == "" {
		return apperrors.New(apperrors.ErrCodeInvalidInput, "redis backend requires redis_addr")
	}
	return nil
}
