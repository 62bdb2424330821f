// Package cli implements the globe command-line interface.
package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/globe/pkg/buildinfo"
	"github.com/matzehuels/globe/pkg/cache"
	"github.com/matzehuels/globe/pkg/config"
	"github.com/matzehuels/globe/pkg/fonts"
	"github.com/matzehuels/globe/pkg/geocode"
	"github.com/matzehuels/globe/pkg/integrations/mapbox"
	"github.com/matzehuels/globe/pkg/integrations/nominatim"
	"github.com/matzehuels/globe/pkg/intel"
	"github.com/matzehuels/globe/pkg/observability"
)

// =============================================================================
// Constants
// =============================================================================

// appName is the application name used for directories and display.
const appName = "globe"

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	configPath string
	noCache    bool
	cfg        *config.Config
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{Logger: newLogger(w, level)}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          appName,
		Short:        "globe annotates a 3D globe and exports infographics",
		Long:         `globe serves an annotated globe workspace over HTTP: search places, read AI descriptions, place markers and legend items, sketch routes and export the composed view as a PNG infographic.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cmd.SetContext(withLogger(cmd.Context(), c.Logger))
			return nil
		},
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().StringVar(&c.configPath, "config", "", "config file (default $XDG_CONFIG_HOME/globe/config.toml)")
	root.PersistentFlags().BoolVar(&c.noCache, "no-cache", false, "disable the response cache")

	root.AddCommand(c.serveCommand())
	root.AddCommand(c.describeCommand())
	root.AddCommand(c.searchCommand())
	root.AddCommand(c.reverseCommand())
	root.AddCommand(c.exportCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.configCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// =============================================================================
// Service Factories
// =============================================================================

// config loads the configuration once per process.
func (c *CLI) config() (config.Config, error) {
	if c.cfg != nil {
		return *c.cfg, nil
	}
	cfg, err := config.Load(c.configPath)
	if err != nil {
		return config.Config{}, err
	}
	if cfg.Workspace.EmojiFont != "" {
		if err := fonts.LoadEmoji(cfg.Workspace.EmojiFont); err != nil {
			c.Logger.Warn("using built-in emoji font", "path", cfg.Workspace.EmojiFont, "err", err)
		}
	}
	c.cfg = &cfg
	return cfg, nil
}

// newCache opens the configured cache backend. A file cache that cannot be
// created degrades to no caching.
func (c *CLI) newCache(ctx context.Context, cfg config.Config) (cache.Cache, error) {
	if c.noCache {
		return cache.NewNullCache(), nil
	}
	switch cfg.Cache.Backend {
	case config.CacheNone:
		return cache.NewNullCache(), nil
	case config.CacheRedis:
		return cache.NewRedisCache(ctx, cache.RedisConfig{
			Addr:     cfg.Cache.RedisAddr,
			Password: cfg.Cache.RedisPassword,
			DB:       cfg.Cache.RedisDB,
			Prefix:   cfg.Cache.Prefix,
		})
	}
	dir, err := cacheDir(cfg)
	if err != nil {
		return cache.NewNullCache(), nil
	}
	fc, err := cache.NewFileCache(dir)
	if err != nil {
		c.Logger.Warn("cache disabled", "dir", dir, "err", err)
		return cache.NewNullCache(), nil
	}
	return fc, nil
}

// services bundles what most commands need.
type services struct {
	cfg       config.Config
	cache     cache.Cache
	mapbox    *mapbox.Client
	geocoder  geocode.Geocoder
	describer intel.Describer
}

func (s *services) Close() error { return s.cache.Close() }

func (c *CLI) services(ctx context.Context) (*services, error) {
	cfg, err := c.config()
	if err != nil {
		return nil, err
	}
	store, err := c.newCache(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if c.Logger.GetLevel() <= log.DebugLevel {
		observability.NewLogHooks(c.Logger).Register()
	}

	s := &services{cfg: cfg, cache: store}
	s.mapbox = mapbox.NewClient(store, cfg.Map.Token, cache.TTLGeocode)

	var g geocode.Geocoder
	switch {
	case cfg.Geocoder.Provider == config.GeocoderNominatim:
		g = geocode.NewNominatim(nominatim.NewClient(store, cfg.Geocoder.NominatimServer, cache.TTLGeocode))
	case cfg.MapEnabled():
		g = geocode.NewMapbox(s.mapbox)
	}
	if g != nil {
		s.geocoder = geocode.NewCached(g, store, cache.NewDefaultKeyer(), cache.TTLGeocode)
	}

	s.describer = intel.New(intel.Config{
		APIKey:       cfg.Intel.APIKey,
		Model:        cfg.Intel.Model,
		BaseURL:      cfg.Intel.BaseURL,
		OfflineDelay: cfg.Intel.OfflineDelay.Duration,
		Cache:        store,
		Keyer:        cache.NewDefaultKeyer(),
		Logger:       c.Logger,
	})
	return s, nil
}

// =============================================================================
// Paths
// =============================================================================

// cacheDir returns the configured cache directory, or the XDG default
// (~/.cache/globe/).
func cacheDir(cfg config.Config) (string, error) {
	if cfg.Cache.Dir != "" {
		return cfg.Cache.Dir, nil
	}
	return cache.DefaultDir()
}

// requireGeocoder fails when neither a map token nor Nominatim is
// configured.
func (s *services) requireGeocoder() error {
	if s.geocoder == nil {
		return fmt.Errorf("no geocoder: set %s or use geocoder.provider = %q", config.EnvMapToken, config.GeocoderNominatim)
	}
	return nil
}
