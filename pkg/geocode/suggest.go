package geocode

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/bep/debounce"
	"github.com/charmbracelet/log"
)

// SuggestDelay is the quiet period after the last keystroke before a
// search is issued.
const SuggestDelay = 250 * time.Millisecond

// Suggestions are the results of one query.
type Suggestions struct {
	Query      string    `json:"query"`
	Generation uint64    `json:"generation"`
	Features   []Feature `json:"features"`
	Loading    bool      `json:"loading"`
}

// Suggester debounces search-as-you-type. Every call to Type starts a new
// generation and restarts the delay; a search result is only kept if no
// newer keystroke arrived while it was in flight. Errors are absorbed into
// an empty result list.
type Suggester struct {
	geocoder  Geocoder
	debounced func(func())
	logger    *log.Logger
	onResult  func(Suggestions)

	mu     sync.Mutex
	ctx    context.Context
	gen    uint64
	latest Suggestions
}

// NewSuggester returns a suggester over g. Searches run with ctx, so
// cancelling it stops in-flight lookups. onResult, when non-nil, is called
// with every accepted result.
func NewSuggester(ctx context.Context, g Geocoder, delay time.Duration, logger *log.Logger, onResult func(Suggestions)) *Suggester {
	if delay <= 0 {
		delay = SuggestDelay
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Suggester{
		geocoder:  g,
		debounced: debounce.New(delay),
		logger:    logger,
		onResult:  onResult,
		ctx:       ctx,
	}
}

// Type records the current contents of the search box and returns its
// generation. An empty query clears the suggestions immediately.
func (s *Suggester) Type(query string) uint64 {
	query = strings.TrimSpace(query)

	s.mu.Lock()
	s.gen++
	gen := s.gen
	if query == "" {
		s.latest = Suggestions{Generation: gen}
		res := s.latest
		s.mu.Unlock()
		// Supersede any pending search.
		s.debounced(func() {})
		s.deliver(res)
		return gen
	}
	s.latest = Suggestions{Query: query, Generation: gen, Loading: true}
	s.mu.Unlock()

	s.debounced(func() { s.fetch(gen, query) })
	return gen
}

func (s *Suggester) fetch(gen uint64, query string) {
	if s.current() != gen {
		return
	}
	features, err := s.geocoder.Search(s.ctx, query)
	if err != nil {
		s.logger.Debug("suggestions failed", "query", query, "err", err)
		features = nil
	}

	s.mu.Lock()
	if gen != s.gen {
		s.mu.Unlock()
		s.logger.Debug("dropping stale suggestions", "query", query, "generation", gen)
		return
	}
	s.latest = Suggestions{Query: query, Generation: gen, Features: features}
	res := s.latest
	s.mu.Unlock()
	s.deliver(res)
}

func (s *Suggester) current() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.gen
}

func (s *Suggester) deliver(res Suggestions) {
	if s.onResult != nil {
		s.onResult(res)
	}
}

// Latest returns the suggestions for the most recent query. Loading is set
// while its search has not completed.
func (s *Suggester) Latest() Suggestions {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.latest
}

// Clear drops the current suggestions, as after selecting one.
func (s *Suggester) Clear() {
	s.Type("")
}
