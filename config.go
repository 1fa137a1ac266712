package main

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
	"github.com/caarlos0/env/v11"
	"github.com/dustin/go-humanize"
	"github.com/rs/zerolog/log"
)

// serverIdent mirrors the original's `format!("{}/{}", SERVER_NAME,
// SERVER_VERSION)`, baked into the config default since Go has no
// build-time CARGO_PKG_VERSION equivalent wired in here.
const serverIdent = "rtiles/0.1.0"

// ConfigStorage holds storage and client-cache parameters.
type ConfigStorage struct {
	Root      string `toml:"root" env:"STORAGE_ROOT"`
	MaxAgeSec int    `toml:"max_age" env:"STORAGE_MAX_AGE"` // Cache-Control max-age, seconds
	CacheSize int64  `toml:"cache_size" env:"STORAGE_CACHE_SIZE"`
}

// Config holds every configuration parameter for the server.
type Config struct {
	Ident      string        `toml:"ident" env:"IDENT"`
	CLIColors  bool          `toml:"cli_colors" env:"CLI_COLORS"`
	ListenAddr string        `toml:"listen_addr" env:"LISTEN_ADDR"`
	BasePath   string        `toml:"base_path" env:"BASE_PATH"`
	Storage    ConfigStorage `toml:"storage"`
	Access     AccessConfig  `toml:"access"`
}

// DefaultConfig returns the zero-value-safe defaults, applied before the
// TOML decode so a partial or absent rtiles.toml still yields a fully
// populated config.
func DefaultConfig() Config {
	return Config{
		Ident:      serverIdent,
		CLIColors:  false,
		ListenAddr: ":8090",
		BasePath:   "/3d",
		Storage: ConfigStorage{
			Root:      "data",
			MaxAgeSec: 30 * 60,
			CacheSize: 500,
		},
		Access: DefaultAccessConfig(),
	}
}

// LoadConfig builds a Config from defaults, overlaid by path (if it
// exists) via TOML, then overlaid by environment variables prefixed
// RTILES_. A missing config file is not an error; a malformed one is.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	if _, err := os.Stat(path); err == nil {
		if _, err := toml.DecodeFile(path, &cfg); err != nil {
			return Config{}, fmt.Errorf("config: parsing %s: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return Config{}, fmt.Errorf("config: stat %s: %w", path, err)
	}

	opts := env.Options{Prefix: "RTILES_"}
	if err := env.ParseWithOptions(&cfg, opts); err != nil {
		return Config{}, fmt.Errorf("config: parsing environment: %w", err)
	}

	return cfg, nil
}

// Print logs the resolved configuration at startup.
func (c *Config) Print() {
	log.Info().
		Str("ident", c.Ident).
		Str("listen_addr", c.ListenAddr).
		Str("base_path", c.BasePath).
		Str("storage.root", c.Storage.Root).
		Int("storage.max_age", c.Storage.MaxAgeSec).
		Str("storage.cache_size", humanize.IBytes(uint64(c.Storage.CacheSize)*1024*1024)).
		Str("access.server", c.Access.Server).
		Dur("access.cache_ttl", c.Access.cacheTTL()).
		Dur("access.cache_tti", c.Access.cacheTTI()).
		Msg("resolved configuration")
}

// bodyCacheConfig derives the BodyCacheConfig used to size the in-memory
// body cache from storage.cache_size (megabytes).
func (c *Config) bodyCacheConfig() BodyCacheConfig {
	return BodyCacheConfig{SizeMB: c.Storage.CacheSize}
}
