package intel

import (
	"context"
	"fmt"
	"time"

	"github.com/matzehuels/globe/pkg/observability"
)

// DefaultOfflineDelay imitates the latency of a remote answer.
const DefaultOfflineDelay = 450 * time.Millisecond

// Offline describes places from fixed templates.
type Offline struct {
	Delay time.Duration
}

// NewOffline returns an offline describer that answers after delay.
func NewOffline(delay time.Duration) *Offline {
	return &Offline{Delay: delay}
}

func (o *Offline) Source() string { return "offline" }

// Describe waits for the delay, or until ctx is done, and returns the
// template text for req.
func (o *Offline) Describe(ctx context.Context, req Request) string {
	req = req.normalized()
	start := time.Now()
	observability.Intel().OnDescribeStart(ctx, o.Source(), string(req.Mode))
	if o.Delay > 0 {
		t := time.NewTimer(o.Delay)
		select {
		case <-t.C:
		case <-ctx.Done():
			t.Stop()
		}
	}
	observability.Intel().OnDescribeComplete(ctx, o.Source(), string(req.Mode), time.Since(start), nil)
	return Template(req)
}

// Template returns the offline text for req. It depends only on the mode,
// the name and, for facts, the coordinates.
func Template(req Request) string {
	name := req.Name()
	switch ParseMode(string(req.Mode)) {
	case ModeStory:
		return fmt.Sprintf("**A Short Tale — %s**\n\nAt dusk in %s, the horizon folded like paper and small lights led a stranger to an old harbor. "+
			"They found a single wooden boat with a name in a language no one spoke anymore.", name, name)
	case ModeTravel:
		return fmt.Sprintf("**Travel Tips — %s**\n\nHighlights: wander the older quarters, taste street food near the market. "+
			"Suggested stay: 2-3 days. Safety: standard urban caution.", name)
	case ModeLore:
		return fmt.Sprintf("**Lore — %s**\n\nOld voices say the hills around %s keep a ledger of promises — "+
			"if you whisper, the wind might repeat them.", name, name)
	default:
		return fmt.Sprintf("**%s**\n\n- Type: place\n- Coordinates: %s\n- Note: local fallback facts are limited.",
			name, req.Coordinates())
	}
}
