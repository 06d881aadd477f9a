// Package config loads pixelfind settings from an optional YAML file and
// PIXELFIND_* environment variables.
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/cwbudde/pixelfind/internal/pixel"
)

// EnvPrefix is prepended to every environment override, e.g.
// PIXELFIND_SERVER_ADDR for server.addr.
const EnvPrefix = "PIXELFIND"

// Server settings for `pixelfind serve`.
type Server struct {
	Addr      string `mapstructure:"addr"`
	CacheSize int    `mapstructure:"cache_size"`
}

// Match settings shared by the CLI and the server.
type Match struct {
	Mask  string `mapstructure:"mask"`  // 0xRRGGBBAA
	Limit int    `mapstructure:"limit"` // 0 = unlimited
}

// Approx tunes the approximate position search.
type Approx struct {
	GridLimit int   `mapstructure:"grid_limit"`
	Iters     int   `mapstructure:"iters"`
	Pop       int   `mapstructure:"pop"`
	Seed      int64 `mapstructure:"seed"`
}

// Config holds runtime configuration.
type Config struct {
	LogLevel string `mapstructure:"log_level"`
	StoreDir string `mapstructure:"store_dir"`
	Server   Server `mapstructure:"server"`
	Match    Match  `mapstructure:"match"`
	Approx   Approx `mapstructure:"approx"`

	mask uint32
}

// DefaultConfig returns a Config populated with standard defaults.
func DefaultConfig() *Config {
	return &Config{
		LogLevel: "info",
		StoreDir: "./data",
		Server:   Server{Addr: ":8080", CacheSize: 64},
		Match:    Match{Mask: "0xffffffff", Limit: 100},
		Approx:   Approx{GridLimit: 4096, Iters: 200, Pop: 30, Seed: 42},
		mask:     pixel.FullMask,
	}
}

func setDefaults(v *viper.Viper) {
	d := DefaultConfig()
	v.SetDefault("log_level", d.LogLevel)
	v.SetDefault("store_dir", d.StoreDir)
	v.SetDefault("server.addr", d.Server.Addr)
	v.SetDefault("server.cache_size", d.Server.CacheSize)
	v.SetDefault("match.mask", d.Match.Mask)
	v.SetDefault("match.limit", d.Match.Limit)
	v.SetDefault("approx.grid_limit", d.Approx.GridLimit)
	v.SetDefault("approx.iters", d.Approx.Iters)
	v.SetDefault("approx.pop", d.Approx.Pop)
	v.SetDefault("approx.seed", d.Approx.Seed)
}

// Load reads configuration from path, or from pixelfind.yaml in the working
// directory when path is empty. A missing default file is not an error; a
// missing explicit file is.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("pixelfind")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate normalizes values to safe ranges. It fails on an unknown log
// level or a mask that does not parse.
func (c *Config) Validate() error {
	d := DefaultConfig()

	c.LogLevel = strings.ToLower(strings.TrimSpace(c.LogLevel))
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	case "":
		c.LogLevel = d.LogLevel
	default:
		return fmt.Errorf("config: unknown log_level %q", c.LogLevel)
	}
	if c.StoreDir == "" {
		c.StoreDir = d.StoreDir
	}
	if c.Server.Addr == "" {
		c.Server.Addr = d.Server.Addr
	}
	if c.Server.CacheSize <= 0 {
		c.Server.CacheSize = d.Server.CacheSize
	}

	if c.Match.Mask == "" {
		c.Match.Mask = d.Match.Mask
	}
	mask, err := pixel.ParseMask(c.Match.Mask)
	if err != nil {
		return fmt.Errorf("config: match.mask: %w", err)
	}
	c.mask = mask
	if c.Match.Limit < 0 {
		c.Match.Limit = 0
	}

	if c.Approx.GridLimit < 0 {
		c.Approx.GridLimit = 0
	}
	if c.Approx.Iters <= 0 {
		c.Approx.Iters = d.Approx.Iters
	}
	if c.Approx.Pop <= 0 {
		c.Approx.Pop = d.Approx.Pop
	}
	return nil
}

// MaskValue returns the packed match mask. Valid after Validate.
func (c *Config) MaskValue() uint32 {
	return c.mask
}
