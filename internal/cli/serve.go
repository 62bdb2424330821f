package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/matzehuels/globe/internal/server"
	"github.com/matzehuels/globe/pkg/mapview"
	"github.com/matzehuels/globe/pkg/mapview/memory"
	"github.com/matzehuels/globe/pkg/mapview/static"
	"github.com/matzehuels/globe/pkg/workspace"
)

// serveOptions holds flags for the serve command.
type serveOptions struct {
	addr      string
	memoryMap bool
	markers   bool
}

// serveCommand creates the serve command.
func (c *CLI) serveCommand() *cobra.Command {
	opts := serveOptions{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the workspace HTTP API",
		Long: `Serve the workspace HTTP API.

Without a map token the server starts with the map disabled: map routes
answer 503 and only descriptions and the info panel work. Use --memory-map
to run against a blank in-memory surface instead, which is handy for
trying out annotations and exports offline.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runServe(cmd.Context(), opts)
		},
	}

	cmd.Flags().StringVar(&opts.addr, "addr", "", "listen address (default from config, :8080)")
	cmd.Flags().BoolVar(&opts.memoryMap, "memory-map", false, "use an in-memory map surface when no token is set")
	cmd.Flags().BoolVar(&opts.markers, "markers", false, "place markers on map clicks by default")

	return cmd
}

func (c *CLI) runServe(ctx context.Context, opts serveOptions) error {
	svc, err := c.services(ctx)
	if err != nil {
		return err
	}
	defer svc.Close()

	cfg := svc.cfg
	mapEnabled := cfg.MapEnabled() || opts.memoryMap
	if !cfg.MapEnabled() {
		if opts.memoryMap {
			c.Logger.Warn("no map token; using an in-memory surface")
		} else {
			c.Logger.Warn("no map token; map features disabled")
		}
	}

	viewOpts := mapview.DefaultOptions()
	viewOpts.Token = cfg.Map.Token
	viewOpts.Style = cfg.Map.Style
	viewOpts.Width = cfg.Map.Width
	viewOpts.Height = cfg.Map.Height
	viewOpts.PixelRatio = cfg.Map.PixelRatio
	viewOpts.Origin = cfg.Map.Origin

	factory := func(_ context.Context, id string) (*workspace.Workspace, error) {
		var p mapview.Provider
		if cfg.MapEnabled() {
			sp := static.New(svc.mapbox, c.Logger)
			if err := sp.Initialize(viewOpts); err != nil {
				return nil, err
			}
			p = sp
		} else {
			mp, err := memory.New(viewOpts)
			if err != nil {
				return nil, err
			}
			p = mp
		}
		return workspace.New(workspace.Deps{
			ID:             id,
			Provider:       p,
			MapDisabled:    !mapEnabled,
			Geocoder:       svc.geocoder,
			Describer:      svc.describer,
			Logger:         c.Logger,
			MarkerColor:    cfg.Workspace.MarkerColor,
			MarkersEnabled: opts.markers,
		})
	}

	registry := workspace.NewRegistry(factory, cfg.Server.IdleTTL.Duration, c.Logger)

	addr := cfg.Server.Addr
	if opts.addr != "" {
		addr = opts.addr
	}
	srv := server.New(server.Config{
		Addr:            addr,
		CleanupInterval: cfg.Server.CleanupInterval.Duration,
		MaxUploadBytes:  cfg.Server.MaxHeaderBytes,
		MapEnabled:      mapEnabled,
	}, registry, svc.describer, c.Logger)

	c.Logger.Info("listening", "addr", addr, "map", mapEnabled, "describer", svc.describer.Source())
	return srv.ListenAndServe(ctx)
}
