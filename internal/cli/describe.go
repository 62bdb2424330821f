package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/globe/pkg/errors"
	"github.com/matzehuels/globe/pkg/intel"
)

// describeOptions holds flags for the describe command.
type describeOptions struct {
	lat  float64
	lng  float64
	mode string
	all  bool
}

// describeCommand creates the describe command.
func (c *CLI) describeCommand() *cobra.Command {
	opts := describeOptions{}

	cmd := &cobra.Command{
		Use:   "describe <place>",
		Short: "Describe a place in one of four modes",
		Long: `Describe a place as facts, a story, travel tips or lore.

Without an API key the offline templates are used.`,
		Example: `  globe describe "Kyoto, Japan" --lat 35.0116 --lng 135.7681
  globe describe Reykjavik --mode lore
  globe describe Lisbon --all`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			place := ""
			if len(args) == 1 {
				place = args[0]
			}
			return c.runDescribe(cmd.Context(), place, opts)
		},
	}

	cmd.Flags().Float64Var(&opts.lat, "lat", 0, "latitude of the place")
	cmd.Flags().Float64Var(&opts.lng, "lng", 0, "longitude of the place")
	cmd.Flags().StringVarP(&opts.mode, "mode", "m", string(intel.ModeFacts), "facts, story, travel or lore")
	cmd.Flags().BoolVar(&opts.all, "all", false, "describe in every mode")

	cmd.RegisterFlagCompletionFunc("mode", func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
		modes := make([]string, len(intel.Modes))
		for i, m := range intel.Modes {
			modes[i] = string(m)
		}
		return modes, cobra.ShellCompDirectiveNoFileComp
	})

	return cmd
}

func (c *CLI) runDescribe(ctx context.Context, place string, opts describeOptions) error {
	if strings.TrimSpace(place) != "" {
		if err := errors.ValidatePlaceName(place); err != nil {
			return err
		}
	}
	if err := errors.ValidateLngLat(opts.lng, opts.lat); err != nil {
		return err
	}
	modes := intel.Modes
	if !opts.all {
		m, err := intel.ValidateMode(opts.mode)
		if err != nil {
			return err
		}
		modes = []intel.Mode{m}
	}

	svc, err := c.services(ctx)
	if err != nil {
		return err
	}
	defer svc.Close()

	texts, err := spin(ctx, fmt.Sprintf("Describing %s...", placeLabel(place, opts)), func(ctx context.Context) ([]string, error) {
		return describeModes(ctx, svc.describer, place, opts, modes)
	})
	if err != nil {
		return err
	}

	for i, text := range texts {
		if i > 0 {
			fmt.Println()
		}
		fmt.Println(renderDescription(text))
	}
	fmt.Println()
	printDetail("source: %s", svc.describer.Source())
	return nil
}

// describeModes describes place in each mode concurrently, keeping the
// order of modes.
func describeModes(ctx context.Context, d intel.Describer, place string, opts describeOptions, modes []intel.Mode) ([]string, error) {
	texts := make([]string, len(modes))
	g, ctx := errgroup.WithContext(ctx)
	for i, m := range modes {
		g.Go(func() error {
			texts[i] = d.Describe(ctx, intel.Request{Place: place, Lat: opts.lat, Lng: opts.lng, Mode: m})
			return ctx.Err()
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return texts, nil
}

func placeLabel(place string, opts describeOptions) string {
	return intel.Request{Place: place, Lat: opts.lat, Lng: opts.lng}.Name()
}
