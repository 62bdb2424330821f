// Package intel produces descriptive text about places.
//
// A [Describer] answers "tell me about this place" in one of four modes.
// It never fails: network and API errors are turned into a fixed message so
// callers can always show something. Three describers are provided:
//
//   - [Remote] asks the OpenAI chat completions API
//   - [Offline] fills deterministic templates after a short delay and is
//     used when no API key is configured
//   - [Cached] stores another describer's answers in a cache.Cache
//
// [Panel] is the info panel state built on top of a describer. It tags each
// request with a generation so that only the latest request's answer is
// ever shown, no matter in which order the answers arrive.
package intel

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/globe/pkg/cache"
	"github.com/matzehuels/globe/pkg/errors"
	"github.com/matzehuels/globe/pkg/integrations/openai"
)

// Mode selects the kind of description.
type Mode string

const (
	ModeFacts  Mode = "facts"
	ModeStory  Mode = "story"
	ModeTravel Mode = "travel"
	ModeLore   Mode = "lore"
)

// Modes lists every mode in display order.
var Modes = []Mode{ModeFacts, ModeStory, ModeTravel, ModeLore}

// ParseMode maps s onto a mode, case-insensitively. Unknown values select
// ModeFacts.
func ParseMode(s string) Mode {
	m := Mode(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Modes {
		if m == known {
			return m
		}
	}
	return ModeFacts
}

// ValidateMode is the strict form of ParseMode used at API boundaries.
func ValidateMode(s string) (Mode, error) {
	m := Mode(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Modes {
		if m == known {
			return m, nil
		}
	}
	return "", errors.New(errors.ErrCodeInvalidMode, "unknown mode %q (want facts, story, travel or lore)", s)
}

// Fixed answers.
const (
	FailureText = "AI lookup failed. Try again later."
	EmptyText   = "No response."
)

// Request identifies one description.
type Request struct {
	Place string  `json:"place"`
	Lat   float64 `json:"lat"`
	Lng   float64 `json:"lng"`
	Mode  Mode    `json:"mode"`
}

// Name returns Place, or the coordinates when Place is empty.
func (r Request) Name() string {
	if p := strings.TrimSpace(r.Place); p != "" {
		return p
	}
	return r.Coordinates()
}

// Coordinates formats the position as "lat, lng" with four decimals.
func (r Request) Coordinates() string {
	return fmt.Sprintf("%.4f, %.4f", r.Lat, r.Lng)
}

func (r Request) normalized() Request {
	r.Mode = ParseMode(string(r.Mode))
	return r
}

// Describer produces text about a place.
type Describer interface {
	// Describe always returns displayable text.
	Describe(ctx context.Context, req Request) string

	// Source names the describer in logs and cache keys.
	Source() string
}

// Config selects and configures a describer.
type Config struct {
	// APIKey enables the remote describer. Without it the offline
	// templates are used.
	APIKey  string
	Model   string
	BaseURL string

	// OfflineDelay overrides DefaultOfflineDelay. Negative disables it.
	OfflineDelay time.Duration

	// Cache, when set, stores remote answers for CacheTTL
	// (cache.TTLDescription when zero).
	Cache    cache.Cache
	Keyer    cache.Keyer
	CacheTTL time.Duration

	Logger *log.Logger
}

// New returns the describer for cfg: Remote when an API key is configured
// (wrapped in Cached when a cache is given), Offline otherwise.
func New(cfg Config) Describer {
	if cfg.APIKey == "" {
		delay := cfg.OfflineDelay
		if delay == 0 {
			delay = DefaultOfflineDelay
		}
		return NewOffline(max(delay, 0))
	}

	client := openai.NewClient(cfg.APIKey)
	if cfg.BaseURL != "" {
		client = client.WithBaseURL(cfg.BaseURL)
	}
	var d Describer = NewRemote(client, cfg.Model, cfg.Logger)
	if cfg.Cache != nil {
		d = NewCached(d, cfg.Cache, cfg.Keyer, cfg.CacheTTL, cfg.Model)
	}
	return d
}
