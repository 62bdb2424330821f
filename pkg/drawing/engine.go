package drawing

import (
	"fmt"
	"slices"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/globe/pkg/annotation"
	"github.com/matzehuels/globe/pkg/errors"
	"github.com/matzehuels/globe/pkg/geo"
	"github.com/matzehuels/globe/pkg/mapview"
)

// Engine owns all drawings of one workspace. It is safe for concurrent use.
type Engine struct {
	mu       sync.Mutex
	provider mapview.Provider
	clock    *annotation.Clock
	logger   *log.Logger

	drawings []*Drawing
	active   int64 // 0 when idle
	stroking bool

	observers map[int]Observer
	nextObs   int
	pending   []Event
}

// NewEngine returns an idle engine over provider. A nil clock uses the wall
// clock; a nil logger uses log.Default().
func NewEngine(provider mapview.Provider, clock *annotation.Clock, logger *log.Logger) *Engine {
	if clock == nil {
		clock = annotation.NewClock(nil)
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Engine{
		provider:  provider,
		clock:     clock,
		logger:    logger,
		observers: make(map[int]Observer),
	}
}

// Subscribe registers obs and returns a function removing it.
func (e *Engine) Subscribe(obs Observer) func() {
	e.mu.Lock()
	defer e.mu.Unlock()
	id := e.nextObs
	e.nextObs++
	e.observers[id] = obs
	return func() {
		e.mu.Lock()
		defer e.mu.Unlock()
		delete(e.observers, id)
	}
}

func (e *Engine) record(kind EventKind, id int64) {
	e.pending = append(e.pending, Event{Kind: kind, DrawingID: id})
}

// unlock releases the mutex and then delivers pending events.
func (e *Engine) unlock() {
	events := e.pending
	e.pending = nil
	obs := make([]Observer, 0, len(e.observers))
	keys := make([]int, 0, len(e.observers))
	for k := range e.observers {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	for _, k := range keys {
		obs = append(obs, e.observers[k])
	}
	e.mu.Unlock()

	for _, ev := range events {
		for _, o := range obs {
			o(ev)
		}
	}
}

func (e *Engine) find(id int64) (int, *Drawing) {
	i := slices.IndexFunc(e.drawings, func(d *Drawing) bool { return d.ID == id })
	if i < 0 {
		return -1, nil
	}
	return i, e.drawings[i]
}

func (e *Engine) render(d *Drawing) {
	if err := e.provider.SetLineGeometry(d.Layer, d.Coordinates()); err != nil {
		e.logger.Warn("set line geometry", "drawing", d.ID, "err", err)
	}
}

// =============================================================================
// State transitions
// =============================================================================

// Start creates a drawing with its line layer and activates it. An empty
// color selects DefaultColor; an empty label selects "Sketch N".
func (e *Engine) Start(color, label string) (Drawing, error) {
	if color == "" {
		color = DefaultColor
	}
	if err := errors.ValidateColor(color); err != nil {
		return Drawing{}, err
	}

	e.mu.Lock()
	defer e.unlock()

	id := e.clock.Next()
	if label == "" {
		label = fmt.Sprintf("Sketch %d", len(e.drawings)+1)
	}
	layer, err := e.provider.AddLineLayer(LayerID(id), color)
	if err != nil {
		return Drawing{}, err
	}
	d := &Drawing{ID: id, Color: color, Label: label, Layer: layer}
	e.drawings = append(e.drawings, d)
	e.record(EventCreated, id)
	e.activateLocked(id)
	e.logger.Debug("drawing started", "id", id, "color", color)
	return d.clone(), nil
}

// Edit activates an existing drawing, keeping its strokes.
func (e *Engine) Edit(id int64) error {
	e.mu.Lock()
	defer e.unlock()
	if _, d := e.find(id); d == nil {
		return errors.New(errors.ErrCodeDrawingNotFound, "drawing %d", id)
	}
	if e.active == id {
		return nil
	}
	e.activateLocked(id)
	return nil
}

func (e *Engine) activateLocked(id int64) {
	if e.active != 0 {
		e.finishLocked()
	}
	e.active = id
	e.provider.SetCameraGesturesEnabled(false)
	e.record(EventActivated, id)
}

// Finish returns the engine to idle. It is a no-op when already idle.
func (e *Engine) Finish() {
	e.mu.Lock()
	defer e.unlock()
	e.finishLocked()
}

func (e *Engine) finishLocked() {
	if e.active == 0 {
		return
	}
	id := e.active
	if e.stroking {
		e.stroking = false
		e.record(EventStrokeClosed, id)
	}
	e.active = 0
	e.provider.SetCameraGesturesEnabled(true)
	e.record(EventFinished, id)
}

// Active returns the active drawing id.
func (e *Engine) Active() (int64, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.active, e.active != 0
}

// =============================================================================
// Pointer input
// =============================================================================

// PointerDown opens a stroke at p when a drawing is active and button is
// the left button. It reports whether a stroke was opened.
func (e *Engine) PointerDown(button int, p geo.LngLat) bool {
	e.mu.Lock()
	defer e.unlock()
	if e.active == 0 || button != LeftButton {
		return false
	}
	_, d := e.find(e.active)
	if e.stroking {
		e.record(EventStrokeClosed, d.ID)
	}
	d.Strokes = append(d.Strokes, []geo.LngLat{p})
	e.stroking = true
	e.render(d)
	e.record(EventStrokeOpened, d.ID)
	return true
}

// PointerMove extends the open stroke. It reports whether a point was
// added.
func (e *Engine) PointerMove(p geo.LngLat) bool {
	e.mu.Lock()
	defer e.unlock()
	if e.active == 0 || !e.stroking {
		return false
	}
	_, d := e.find(e.active)
	last := len(d.Strokes) - 1
	d.Strokes[last] = append(d.Strokes[last], p)
	e.render(d)
	return true
}

// PointerUp closes the open stroke.
func (e *Engine) PointerUp() {
	e.mu.Lock()
	defer e.unlock()
	if !e.stroking {
		return
	}
	e.stroking = false
	e.record(EventStrokeClosed, e.active)
}

// =============================================================================
// Editing
// =============================================================================

// Undo removes the most recent stroke of drawing id. An open stroke on that
// drawing is closed first.
func (e *Engine) Undo(id int64) error {
	e.mu.Lock()
	defer e.unlock()
	_, d := e.find(id)
	if d == nil {
		return errors.New(errors.ErrCodeDrawingNotFound, "drawing %d", id)
	}
	if e.stroking && e.active == id {
		e.stroking = false
		e.record(EventStrokeClosed, id)
	}
	if len(d.Strokes) == 0 {
		return nil
	}
	d.Strokes = d.Strokes[:len(d.Strokes)-1]
	e.render(d)
	e.record(EventUndone, id)
	return nil
}

// Clear removes every stroke of drawing id but keeps the drawing.
func (e *Engine) Clear(id int64) error {
	e.mu.Lock()
	defer e.unlock()
	_, d := e.find(id)
	if d == nil {
		return errors.New(errors.ErrCodeDrawingNotFound, "drawing %d", id)
	}
	if e.stroking && e.active == id {
		e.stroking = false
		e.record(EventStrokeClosed, id)
	}
	d.Strokes = nil
	e.render(d)
	e.record(EventCleared, id)
	return nil
}

// Remove deletes drawing id and its layer. Removing the active drawing
// finishes it first.
func (e *Engine) Remove(id int64) error {
	e.mu.Lock()
	defer e.unlock()
	i, d := e.find(id)
	if d == nil {
		return errors.New(errors.ErrCodeDrawingNotFound, "drawing %d", id)
	}
	if e.active == id {
		e.finishLocked()
	}
	e.removeLocked(i, d)
	return nil
}

func (e *Engine) removeLocked(i int, d *Drawing) {
	if err := e.provider.RemoveLineLayer(d.Layer); err != nil {
		e.logger.Warn("remove line layer", "drawing", d.ID, "err", err)
	}
	e.drawings = slices.Delete(e.drawings, i, i+1)
	e.record(EventRemoved, d.ID)
}

// RemoveAll deletes every drawing and returns the engine to idle.
func (e *Engine) RemoveAll() {
	e.mu.Lock()
	defer e.unlock()
	e.finishLocked()
	for len(e.drawings) > 0 {
		e.removeLocked(0, e.drawings[0])
	}
}

// SetColor recolors drawing id and its layer.
func (e *Engine) SetColor(id int64, color string) error {
	if err := errors.ValidateColor(color); err != nil {
		return err
	}
	e.mu.Lock()
	defer e.unlock()
	_, d := e.find(id)
	if d == nil {
		return errors.New(errors.ErrCodeDrawingNotFound, "drawing %d", id)
	}
	if err := e.provider.SetLineColor(d.Layer, color); err != nil {
		return err
	}
	d.Color = color
	e.record(EventRecolored, id)
	return nil
}

// SetLabel renames drawing id.
func (e *Engine) SetLabel(id int64, label string) error {
	e.mu.Lock()
	defer e.unlock()
	_, d := e.find(id)
	if d == nil {
		return errors.New(errors.ErrCodeDrawingNotFound, "drawing %d", id)
	}
	d.Label = label
	e.record(EventRelabeled, id)
	return nil
}

// Drawings returns copies of all drawings in creation order.
func (e *Engine) Drawings() []Drawing {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]Drawing, len(e.drawings))
	for i, d := range e.drawings {
		out[i] = d.clone()
	}
	return out
}

// Get returns a copy of drawing id.
func (e *Engine) Get(id int64) (Drawing, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	_, d := e.find(id)
	if d == nil {
		return Drawing{}, false
	}
	return d.clone(), true
}
