package intel

import (
	"context"
	"sync"

	"github.com/charmbracelet/log"
)

// Place is the subject of the info panel.
type Place struct {
	Name string  `json:"name"`
	Lat  float64 `json:"lat"`
	Lng  float64 `json:"lng"`
}

// Content is what the panel shows.
type Content struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

// PanelState is a snapshot of the panel.
type PanelState struct {
	Open       bool     `json:"open"`
	Loading    bool     `json:"loading"`
	Mode       Mode     `json:"mode"`
	Place      *Place   `json:"place,omitempty"`
	Content    *Content `json:"content,omitempty"`
	Generation uint64   `json:"generation"`
}

// Panel is the info panel: the place it shows, the current mode and the
// answer for that pair.
//
// Each Open, SetMode and Close starts a new generation. A request's answer
// is applied only if its generation is still current when it arrives, so
// a slow answer for an earlier place or mode can never overwrite a newer
// one. Requests run in their own goroutines, detached from the caller's
// context cancellation.
type Panel struct {
	describer Describer
	logger    *log.Logger
	onChange  func(PanelState)

	mu      sync.Mutex
	mode    Mode
	open    bool
	place   *Place
	loading bool
	content *Content
	gen     uint64
	stopped bool
	wg      sync.WaitGroup
}

// NewPanel returns a closed panel in facts mode.
func NewPanel(d Describer, logger *log.Logger) *Panel {
	if logger == nil {
		logger = log.Default()
	}
	return &Panel{describer: d, logger: logger, mode: ModeFacts}
}

// OnChange registers fn to be called after every state change, including
// applied answers. It replaces any previous function.
func (p *Panel) OnChange(fn func(PanelState)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.onChange = fn
}

// Open shows place and requests its description in the current mode. It
// returns the request's generation.
func (p *Panel) Open(ctx context.Context, place Place) uint64 {
	p.mu.Lock()
	if p.stopped {
		gen := p.gen
		p.mu.Unlock()
		return gen
	}
	p.open = true
	p.place = &place
	return p.requestLocked(ctx)
}

// SetMode switches the mode. When the panel is open the description is
// requested again for the new mode.
func (p *Panel) SetMode(ctx context.Context, m Mode) uint64 {
	p.mu.Lock()
	changed := p.mode != m
	p.mode = m
	if !p.open || p.place == nil || !changed {
		gen := p.gen
		p.mu.Unlock()
		return gen
	}
	return p.requestLocked(ctx)
}

// requestLocked starts a request for the current place and mode and
// releases the mutex. A stopped panel starts nothing.
func (p *Panel) requestLocked(ctx context.Context) uint64 {
	if p.stopped {
		gen := p.gen
		p.mu.Unlock()
		return gen
	}
	p.gen++
	gen := p.gen
	p.loading = true
	p.content = nil
	req := Request{Place: p.place.Name, Lat: p.place.Lat, Lng: p.place.Lng, Mode: p.mode}
	title := p.place.Name
	p.wg.Add(1)
	state, notify := p.stateLocked(), p.onChange
	p.mu.Unlock()

	if notify != nil {
		notify(state)
	}

	ctx = context.WithoutCancel(ctx)
	go func() {
		defer p.wg.Done()
		body := p.describer.Describe(ctx, req)
		p.apply(gen, Content{Title: title, Body: body})
	}()
	return gen
}

func (p *Panel) apply(gen uint64, c Content) {
	p.mu.Lock()
	if gen != p.gen {
		p.mu.Unlock()
		p.logger.Debug("discarding stale description", "generation", gen)
		return
	}
	p.loading = false
	p.content = &c
	state, notify := p.stateLocked(), p.onChange
	p.mu.Unlock()
	if notify != nil {
		notify(state)
	}
}

// Close hides the panel and discards any answer still in flight.
func (p *Panel) Close() {
	p.mu.Lock()
	p.gen++
	p.open = false
	p.place = nil
	p.loading = false
	p.content = nil
	state, notify := p.stateLocked(), p.onChange
	p.mu.Unlock()
	if notify != nil {
		notify(state)
	}
}

// Stop closes the panel for good. Later Open and SetMode calls start no
// requests, so Wait may be called once Stop has returned.
func (p *Panel) Stop() {
	p.mu.Lock()
	p.stopped = true
	p.mu.Unlock()
	p.Close()
}

// Mode returns the current mode.
func (p *Panel) Mode() Mode {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.mode
}

// State returns a snapshot of the panel.
func (p *Panel) State() PanelState {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.stateLocked()
}

func (p *Panel) stateLocked() PanelState {
	s := PanelState{
		Open:       p.open,
		Loading:    p.loading,
		Mode:       p.mode,
		Generation: p.gen,
	}
	if p.place != nil {
		pl := *p.place
		s.Place = &pl
	}
	if p.content != nil {
		c := *p.content
		s.Content = &c
	}
	return s
}

// Wait blocks until every request started so far has finished.
func (p *Panel) Wait() {
	p.wg.Wait()
}
