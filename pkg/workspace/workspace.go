// Package workspace is the composition root for one user's globe.
//
// A [Workspace] owns the map provider and everything layered on it: the
// annotation store, the drawing engine, the info panel, the search
// suggester and the header image. Every user-facing action of the globe
// is a method here, and the HTTP API and the CLI are thin shells over
// those methods.
//
// A workspace serialises its compound operations with one mutex. Network
// calls (geocoding, descriptions) run outside of it. Export snapshots the
// visible state under the mutex and encodes without holding it, so editing
// can continue while a PNG is produced.
//
// [Registry] keeps live workspaces in memory, keyed by UUID, and evicts
// those left idle for longer than its TTL.
package workspace

import (
	"context"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/matzehuels/globe/pkg/annotation"
	"github.com/matzehuels/globe/pkg/compositor"
	"github.com/matzehuels/globe/pkg/drawing"
	"github.com/matzehuels/globe/pkg/errors"
	"github.com/matzehuels/globe/pkg/geo"
	"github.com/matzehuels/globe/pkg/geocode"
	"github.com/matzehuels/globe/pkg/intel"
	"github.com/matzehuels/globe/pkg/mapview"
)

// Deps are the collaborators of a workspace.
type Deps struct {
	// ID names the workspace. A random UUID is used when empty.
	ID string

	// Provider is the map surface. It must already be initialised.
	Provider mapview.Provider

	// MapDisabled marks a workspace created without a map token. Map
	// operations then fail with errors.ErrCodeMapDisabled while the info
	// panel keeps working.
	MapDisabled bool

	// Geocoder may be nil: searches then return nothing and reverse
	// lookups fall back to coordinates.
	Geocoder geocode.Geocoder

	// Describer defaults to the offline templates.
	Describer intel.Describer

	Exporter *compositor.Exporter
	Clock    *annotation.Clock
	Logger   *log.Logger

	// MarkerColor is the initial color for new markers and drawings.
	MarkerColor string

	// MarkersEnabled lets map clicks and selections place markers.
	MarkersEnabled bool

	// SuggestDelay overrides geocode.SuggestDelay.
	SuggestDelay time.Duration
}

// Workspace is one user's globe.
type Workspace struct {
	id          string
	created     time.Time
	mapDisabled bool

	provider  mapview.Provider
	store     *annotation.Store
	engine    *drawing.Engine
	geocoder  geocode.Geocoder
	describer intel.Describer
	panel     *intel.Panel
	suggester *geocode.Suggester
	exporter  *compositor.Exporter
	logger    *log.Logger

	ctx    context.Context
	cancel context.CancelFunc
	stop   func()

	mu             sync.Mutex
	markerColor    string
	markersEnabled bool
	header         *compositor.HeaderImage
	selected       *geocode.Feature
	clicks         uint64
}

// New builds a workspace and seeds the default legend item.
func New(deps Deps) (*Workspace, error) {
	if deps.Provider == nil {
		return nil, errors.New(errors.ErrCodeInvalidInput, "workspace needs a map provider")
	}
	color := deps.MarkerColor
	if color == "" {
		color = annotation.DefaultMarkerColor
	}
	if err := errors.ValidateColor(color); err != nil {
		return nil, err
	}
	if deps.ID == "" {
		deps.ID = uuid.NewString()
	}
	if deps.Logger == nil {
		deps.Logger = log.Default()
	}
	if deps.Describer == nil {
		deps.Describer = intel.NewOffline(intel.DefaultOfflineDelay)
	}
	if deps.Exporter == nil {
		deps.Exporter = compositor.NewExporter(deps.Logger)
	}
	if deps.Clock == nil {
		deps.Clock = annotation.NewClock(nil)
	}
	logger := deps.Logger.With("workspace", shortID(deps.ID))

	ctx, cancel := context.WithCancel(context.Background())
	w := &Workspace{
		id:             deps.ID,
		created:        time.Now(),
		mapDisabled:    deps.MapDisabled,
		provider:       deps.Provider,
		store:          annotation.NewStore(deps.Provider, deps.Clock),
		engine:         drawing.NewEngine(deps.Provider, deps.Clock, logger),
		geocoder:       deps.Geocoder,
		describer:      deps.Describer,
		panel:          intel.NewPanel(deps.Describer, logger),
		exporter:       deps.Exporter,
		logger:         logger,
		ctx:            ctx,
		cancel:         cancel,
		markerColor:    color,
		markersEnabled: deps.MarkersEnabled,
	}
	w.suggester = geocode.NewSuggester(ctx, w.searcher(), deps.SuggestDelay, logger, nil)
	w.stop = w.engine.Subscribe(func(ev drawing.Event) {
		logger.Debug("drawing", "event", ev.Kind, "id", ev.DrawingID)
	})

	if !w.mapDisabled {
		if _, err := w.store.AddLegendItem(annotation.Style{
			Color: annotation.DefaultLegendColor,
			Label: annotation.DefaultLegendLabel,
		}); err != nil {
			cancel()
			return nil, err
		}
	}
	return w, nil
}

// searcher returns the geocoder or, when there is none, one that finds
// nothing.
func (w *Workspace) searcher() geocode.Geocoder {
	if w.geocoder != nil {
		return w.geocoder
	}
	return noGeocoder{}
}

type noGeocoder struct{}

func (noGeocoder) Name() string { return "none" }

func (noGeocoder) Search(context.Context, string) ([]geocode.Feature, error) { return nil, nil }

func (noGeocoder) Reverse(context.Context, geo.LngLat) (string, error) {
	return "", errors.New(errors.ErrCodeUnsupported, "no geocoder configured")
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// ID returns the workspace id.
func (w *Workspace) ID() string { return w.id }

// Created returns the creation time.
func (w *Workspace) Created() time.Time { return w.created }

// MapEnabled reports whether map operations are available.
func (w *Workspace) MapEnabled() bool { return !w.mapDisabled }

// Provider returns the map surface.
func (w *Workspace) Provider() mapview.Provider { return w.provider }

func (w *Workspace) requireMap() error {
	if w.mapDisabled {
		return errors.New(errors.ErrCodeMapDisabled, "map is disabled: no map token configured")
	}
	return nil
}

// Close stops background work. In-flight descriptions are waited for.
func (w *Workspace) Close() error {
	w.cancel()
	w.stop()
	w.panel.Stop()
	w.panel.Wait()
	return nil
}

// Info summarises a workspace.
type Info struct {
	ID             string    `json:"id"`
	Created        time.Time `json:"created"`
	MapEnabled     bool      `json:"map_enabled"`
	MarkerColor    string    `json:"marker_color"`
	MarkersEnabled bool      `json:"markers_enabled"`
	Markers        int       `json:"markers"`
	LegendItems    int       `json:"legend_items"`
	Drawings       int       `json:"drawings"`
	ActiveDrawing  int64     `json:"active_drawing,omitempty"`
	HasHeader      bool      `json:"has_header"`
	Source         string    `json:"describer"`
}

// Info returns a summary of the workspace.
func (w *Workspace) Info() Info {
	w.mu.Lock()
	defer w.mu.Unlock()
	active, _ := w.engine.Active()
	return Info{
		ID:             w.id,
		Created:        w.created,
		MapEnabled:     !w.mapDisabled,
		MarkerColor:    w.markerColor,
		MarkersEnabled: w.markersEnabled,
		Markers:        len(w.store.Markers()),
		LegendItems:    len(w.store.LegendItems()),
		Drawings:       len(w.engine.Drawings()),
		ActiveDrawing:  active,
		HasHeader:      w.header != nil,
		Source:         w.describer.Source(),
	}
}
