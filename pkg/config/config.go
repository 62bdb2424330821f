// Package config loads the globe configuration.
//
// Settings come from three layers, later ones winning:
//
//  1. built-in defaults ([Default])
//  2. a TOML file, by default $XDG_CONFIG_HOME/globe/config.toml
//  3. environment variables (MAPBOX_TOKEN, OPENAI_API_KEY, GLOBE_REDIS_ADDR)
//
// Command-line flags are applied on top by the CLI.
//
// Both credentials are optional. Without a map token the map-backed
// features are disabled; without an intel API key descriptions come from
// the offline templates.
package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	gerrors "github.com/matzehuels/globe/pkg/errors"
)

const appName = "globe"

// Environment variables read by ApplyEnv.
const (
	EnvMapToken  = "MAPBOX_TOKEN"
	EnvIntelKey  = "OPENAI_API_KEY"
	EnvRedisAddr = "GLOBE_REDIS_ADDR"
)

// Geocoder providers.
const (
	GeocoderMapbox    = "mapbox"
	GeocoderNominatim = "nominatim"
)

// Cache backends.
const (
	CacheFile  = "file"
	CacheRedis = "redis"
	CacheNone  = "none"
)

// Duration is a time.Duration written as a string ("30m") in TOML.
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// Config is the full configuration.
type Config struct {
	Map       MapConfig       `toml:"map"`
	Intel     IntelConfig     `toml:"intel"`
	Geocoder  GeocoderConfig  `toml:"geocoder"`
	Cache     CacheConfig     `toml:"cache"`
	Server    ServerConfig    `toml:"server"`
	Workspace WorkspaceConfig `toml:"workspace"`
}

// MapConfig configures the map surface.
type MapConfig struct {
	Token      string  `toml:"token"`
	Style      string  `toml:"style"`
	Width      float64 `toml:"width"`
	Height     float64 `toml:"height"`
	PixelRatio float64 `toml:"pixel_ratio"`
	Origin     string  `toml:"origin"`
}

// IntelConfig configures place descriptions.
type IntelConfig struct {
	APIKey       string   `toml:"api_key"`
	Model        string   `toml:"model"`
	BaseURL      string   `toml:"base_url"`
	OfflineDelay Duration `toml:"offline_delay"`
}

// GeocoderConfig selects the geocoding service.
type GeocoderConfig struct {
	Provider        string `toml:"provider"`
	NominatimServer string `toml:"nominatim_server"`
}

// CacheConfig selects the cache backend.
type CacheConfig struct {
	Backend       string `toml:"backend"`
	Dir           string `toml:"dir"`
	RedisAddr     string `toml:"redis_addr"`
	RedisPassword string `toml:"redis_password"`
	RedisDB       int    `toml:"redis_db"`
	Prefix        string `toml:"prefix"`
}

// ServerConfig configures `globe serve`.
type ServerConfig struct {
	Addr            string   `toml:"addr"`
	IdleTTL         Duration `toml:"idle_ttl"`
	CleanupInterval Duration `toml:"cleanup_interval"`

	// MaxHeaderBytes caps uploaded header images.
	MaxHeaderBytes int64 `toml:"max_header_bytes"`
}

// WorkspaceConfig holds defaults for new workspaces.
type WorkspaceConfig struct {
	MarkerColor string `toml:"marker_color"`

	// EmojiFont is a TrueType or OpenType file, such as Noto Emoji, used
	// for emoji markers in place of the built-in symbol font.
	EmojiFont string `toml:"emoji_font"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Map: MapConfig{
			Style:      "mapbox/satellite-streets-v12",
			Width:      1280,
			Height:     800,
			PixelRatio: 2,
		},
		Intel: IntelConfig{
			Model:        "gpt-4o-mini",
			OfflineDelay: Duration{450 * time.Millisecond},
		},
		Geocoder: GeocoderConfig{
			Provider: GeocoderMapbox,
		},
		Cache: CacheConfig{
			Backend: CacheFile,
			Prefix:  "globe:",
		},
		Server: ServerConfig{
			Addr:            ":8080",
			IdleTTL:         Duration{30 * time.Minute},
			CleanupInterval: Duration{time.Minute},
			MaxHeaderBytes:  8 << 20,
		},
		Workspace: WorkspaceConfig{
			MarkerColor: "#ff5b5b",
		},
	}
}

// Path returns the default config file path.
func Path() (string, error) {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, appName, "config.toml"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", appName, "config.toml"), nil
}

// Load reads the file at path over the defaults and applies the
// environment. An empty path uses Path(); a missing file is not an error.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		p, err := Path()
		if err == nil {
			path = p
		}
	}
	if path != "" {
		if _, err := toml.DecodeFile(path, &cfg); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
	}
	cfg.ApplyEnv(os.Getenv)
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Decode reads TOML from r over the defaults. The environment is not
// consulted.
func Decode(r io.Reader) (Config, error) {
	cfg := Default()
	if _, err := toml.NewDecoder(r).Decode(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	return cfg, cfg.Validate()
}

// ApplyEnv overrides settings from the environment. Empty variables are
// ignored.
func (c *Config) ApplyEnv(getenv func(string) string) {
	if v := strings.TrimSpace(getenv(EnvMapToken)); v != "" {
		c.Map.Token = v
	}
	if v := strings.TrimSpace(getenv(EnvIntelKey)); v != "" {
		c.Intel.APIKey = v
	}
	if v := strings.TrimSpace(getenv(EnvRedisAddr)); v != "" {
		c.Cache.RedisAddr = v
		c.Cache.Backend = CacheRedis
	}
}

// Validate checks enumerations and sizes.
func (c Config) Validate() error {
	switch c.Geocoder.Provider {
	case GeocoderMapbox, GeocoderNominatim:
	default:
		return gerrors.New(gerrors.ErrCodeInvalidInput, "unknown geocoder %q (want mapbox or nominatim)", c.Geocoder.Provider)
	}
	switch c.Cache.Backend {
	case CacheFile, CacheNone:
	case CacheRedis:
		if c.Cache.RedisAddr == "" {
			return gerrors.New(gerrors.ErrCodeInvalidInput, "redis cache needs redis_addr")
		}
	default:
		return gerrors.New(gerrors.ErrCodeInvalidInput, "unknown cache backend %q (want file, redis or none)", c.Cache.Backend)
	}
	if c.Map.Width <= 0 || c.Map.Height <= 0 {
		return gerrors.New(gerrors.ErrCodeInvalidInput, "map size must be positive, got %vx%v", c.Map.Width, c.Map.Height)
	}
	if c.Workspace.MarkerColor != "" {
		if err := gerrors.ValidateColor(c.Workspace.MarkerColor); err != nil {
			return err
		}
	}
	return nil
}

// MapEnabled reports whether a map token is configured.
func (c Config) MapEnabled() bool { return c.Map.Token != "" }

// Redacted returns a copy with secrets masked, for display.
func (c Config) Redacted() Config {
	c.Map.Token = redact(c.Map.Token)
	c.Intel.APIKey = redact(c.Intel.APIKey)
	c.Cache.RedisPassword = redact(c.Cache.RedisPassword)
	return c
}

func redact(s string) string {
	if s == "" {
		return ""
	}
	if len(s) <= 8 {
		return "****"
	}
	return s[:4] + "****"
}

// Encode writes c as TOML.
func (c Config) Encode(w io.Writer) error {
	return toml.NewEncoder(w).Encode(c)
}
