package cli

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/matzehuels/globe/pkg/errors"
	"github.com/matzehuels/globe/pkg/geo"
	"github.com/matzehuels/globe/pkg/geocode"
	"github.com/matzehuels/globe/pkg/intel"
)

// searchOptions holds flags for the search command.
type searchOptions struct {
	interactive bool
	mode        string
}

// searchCommand creates the search command.
func (c *CLI) searchCommand() *cobra.Command {
	opts := searchOptions{}

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search places by name",
		Long: `Search places by name with the configured geocoder.

With --interactive the results open in a picker and the chosen place is
described.`,
		Example: `  globe search "mount fuji"
  globe search paris -i --mode travel`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runSearch(cmd.Context(), strings.Join(args, " "), opts)
		},
	}

	cmd.Flags().BoolVarP(&opts.interactive, "interactive", "i", false, "pick a result and describe it")
	cmd.Flags().StringVarP(&opts.mode, "mode", "m", string(intel.ModeFacts), "description mode for the picked place")

	return cmd
}

func (c *CLI) runSearch(ctx context.Context, query string, opts searchOptions) error {
	if err := errors.ValidateQuery(query); err != nil {
		return err
	}
	mode, err := intel.ValidateMode(opts.mode)
	if err != nil {
		return err
	}

	svc, err := c.services(ctx)
	if err != nil {
		return err
	}
	defer svc.Close()
	if err := svc.requireGeocoder(); err != nil {
		return err
	}

	features, err := spin(ctx, fmt.Sprintf("Searching %q...", query), func(ctx context.Context) ([]geocode.Feature, error) {
		return svc.geocoder.Search(ctx, query)
	})
	if err != nil {
		return err
	}
	loggerFromContext(ctx).Debug("search", "query", query, "results", len(features), "geocoder", svc.geocoder.Name())

	if len(features) == 0 {
		printWarning("No places found for %q", query)
		return nil
	}

	if !opts.interactive {
		for i, f := range features {
			printFeature(i, f)
		}
		return nil
	}

	final, err := tea.NewProgram(NewFeaturePicker(features), tea.WithContext(ctx)).Run()
	if err != nil {
		return err
	}
	picked := final.(FeaturePicker).Selected
	if picked == nil {
		return nil
	}

	summary := intel.Summarize(picked, mode)
	fmt.Println(renderDescription(fmt.Sprintf("**%s**\n\n%s", summary.Title, summary.Body)))
	fmt.Println()

	text, err := spin(ctx, "Describing...", func(ctx context.Context) (string, error) {
		return svc.describer.Describe(ctx, intel.Request{
			Place: picked.DisplayName(),
			Lat:   picked.Center.Lat,
			Lng:   picked.Center.Lng,
			Mode:  mode,
		}), ctx.Err()
	})
	if err != nil {
		return err
	}
	fmt.Println(renderDescription(text))
	return nil
}

// reverseCommand creates the reverse command.
func (c *CLI) reverseCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "reverse <lng> <lat>",
		Short:   "Name the place at a coordinate",
		Example: `  globe reverse 139.6917 35.6895`,
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			pos, err := parseLngLat(args[0], args[1])
			if err != nil {
				return err
			}
			return c.runReverse(cmd.Context(), pos)
		},
	}
}

func (c *CLI) runReverse(ctx context.Context, pos geo.LngLat) error {
	svc, err := c.services(ctx)
	if err != nil {
		return err
	}
	defer svc.Close()

	name, err := spin(ctx, "Looking up...", func(ctx context.Context) (string, error) {
		return geocode.ReverseOrFallback(ctx, svc.geocoder, pos), ctx.Err()
	})
	if err != nil {
		return err
	}
	printKeyValue("Place", name)
	printKeyValue("Coordinates", pos.String())
	return nil
}

// parseLngLat parses and validates a coordinate given as two arguments.
func parseLngLat(lngArg, latArg string) (geo.LngLat, error) {
	lng, err := strconv.ParseFloat(lngArg, 64)
	if err != nil {
		return geo.LngLat{}, errors.New(errors.ErrCodeInvalidCoordinate, "invalid longitude %q", lngArg)
	}
	lat, err := strconv.ParseFloat(latArg, 64)
	if err != nil {
		return geo.LngLat{}, errors.New(errors.ErrCodeInvalidCoordinate, "invalid latitude %q", latArg)
	}
	if err := errors.ValidateLngLat(lng, lat); err != nil {
		return geo.LngLat{}, err
	}
	return geo.LngLat{Lng: lng, Lat: lat}, nil
}
