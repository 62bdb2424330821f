package cli

import (
	"context"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/matzehuels/globe/pkg/compositor"
	"github.com/matzehuels/globe/pkg/errors"
	"github.com/matzehuels/globe/pkg/mapview"
	"github.com/matzehuels/globe/pkg/mapview/memory"
	"github.com/matzehuels/globe/pkg/mapview/static"
	"github.com/matzehuels/globe/pkg/workspace"
)

// exportOptions holds flags for the export command.
type exportOptions struct {
	scene  string
	output string
	live   bool
}

// exportCommand creates the export command.
func (c *CLI) exportCommand() *cobra.Command {
	opts := exportOptions{}

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Compose a scene file into a PNG infographic",
		Long: `Compose a scene file into a PNG infographic.

The scene lists the camera, markers, legend items, drawings and an optional
header image. Its "base" image stands in for the map. With --live and a map
token the map is fetched from Mapbox instead.`,
		Example: `  globe export --scene trip.json
  globe export --scene trip.json --live -o trip.png`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runExport(cmd.Context(), opts)
		},
	}

	cmd.Flags().StringVarP(&opts.scene, "scene", "s", "", "scene file (required)")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output PNG (default: generated name)")
	cmd.Flags().BoolVar(&opts.live, "live", false, "render the map through Mapbox")
	cmd.MarkFlagRequired("scene")

	return cmd
}

func (c *CLI) runExport(ctx context.Context, opts exportOptions) error {
	logger := loggerFromContext(ctx)
	prog := newProgress(logger)

	scene, err := workspace.LoadScene(opts.scene)
	if err != nil {
		return err
	}

	provider, release, err := c.sceneProvider(ctx, scene, opts.live)
	if err != nil {
		return err
	}
	defer release()

	ws, err := workspace.New(workspace.Deps{
		Provider: provider,
		Logger:   logger,
	})
	if err != nil {
		return err
	}
	defer ws.Close()

	if err := scene.Apply(ws); err != nil {
		return err
	}

	type exported struct {
		res   *compositor.Result
		stats compositor.Stats
	}
	out, err := spin(ctx, "Composing...", func(ctx context.Context) (exported, error) {
		res, stats, err := ws.Export(ctx)
		return exported{res, stats}, err
	})
	if err != nil {
		return err
	}

	path := opts.output
	if path == "" {
		path = out.res.Filename
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	if err := os.WriteFile(path, out.res.PNG, 0o644); err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "write %s", path)
	}

	prog.done("Exported infographic")
	printFile(path)
	printExport(out.res, out.stats)
	return nil
}

// sceneProvider returns the surface a scene renders on: Mapbox when live,
// otherwise an in-memory surface painted with the scene's base image. The
// returned func releases the services a live surface holds.
func (c *CLI) sceneProvider(ctx context.Context, scene *workspace.SceneFile, live bool) (mapview.Provider, func(), error) {
	opts := scene.Options()

	if live {
		svc, err := c.services(ctx)
		if err != nil {
			return nil, nil, err
		}
		opts.Token = svc.cfg.Map.Token
		opts.Style = svc.cfg.Map.Style
		opts.Origin = svc.cfg.Map.Origin
		p := static.New(svc.mapbox, c.Logger)
		if err := p.Initialize(opts); err != nil {
			svc.Close()
			return nil, nil, err
		}
		return p, func() { svc.Close() }, nil
	}

	p, err := memory.New(opts)
	if err != nil {
		return nil, nil, err
	}
	base, err := scene.BaseImage()
	if err != nil {
		return nil, nil, err
	}
	if base != nil {
		p.SetBase(base)
	}
	return p, func() {}, nil
}
