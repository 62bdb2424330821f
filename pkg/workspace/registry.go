package workspace

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/globe/pkg/errors"
)

// DefaultIdleTTL is how long an unused workspace is kept.
const DefaultIdleTTL = 30 * time.Minute

// Factory builds a workspace with the given id.
type Factory func(ctx context.Context, id string) (*Workspace, error)

type entry struct {
	ws       *Workspace
	lastUsed time.Time
}

// Registry holds the live workspaces of a server, keyed by UUID.
//
// Workspaces live in memory only. Each Get refreshes a workspace's idle
// timer; Cleanup closes those idle for longer than the TTL.
type Registry struct {
	factory Factory
	ttl     time.Duration
	logger  *log.Logger
	now     func() time.Time

	mu      sync.Mutex
	entries map[string]*entry
}

// NewRegistry returns an empty registry. A non-positive ttl selects
// DefaultIdleTTL.
func NewRegistry(factory Factory, ttl time.Duration, logger *log.Logger) *Registry {
	if ttl <= 0 {
		ttl = DefaultIdleTTL
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Registry{
		factory: factory,
		ttl:     ttl,
		logger:  logger,
		now:     time.Now,
		entries: make(map[string]*entry),
	}
}

// TTL returns the idle timeout.
func (r *Registry) TTL() time.Duration { return r.ttl }

// Create builds and registers a new workspace.
func (r *Registry) Create(ctx context.Context) (*Workspace, error) {
	id := uuid.NewString()
	ws, err := r.factory(ctx, id)
	if err != nil {
		return nil, err
	}
	r.mu.Lock()
	r.entries[ws.ID()] = &entry{ws: ws, lastUsed: r.now()}
	n := len(r.entries)
	r.mu.Unlock()
	r.logger.Info("workspace created", "id", ws.ID(), "live", n)
	return ws, nil
}

// Get returns a workspace and refreshes its idle timer.
func (r *Registry) Get(id string) (*Workspace, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, errors.New(errors.ErrCodeWorkspaceNotFound, "workspace %q not found", id)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.entries[id]
	if !ok {
		return nil, errors.New(errors.ErrCodeWorkspaceNotFound, "workspace %q not found", id)
	}
	e.lastUsed = r.now()
	return e.ws, nil
}

// Delete closes and removes a workspace.
func (r *Registry) Delete(id string) error {
	r.mu.Lock()
	e, ok := r.entries[id]
	delete(r.entries, id)
	r.mu.Unlock()
	if !ok {
		return errors.New(errors.ErrCodeWorkspaceNotFound, "workspace %q not found", id)
	}
	r.logger.Info("workspace deleted", "id", id)
	return e.ws.Close()
}

// Len returns the number of live workspaces.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

// IDs lists the live workspace ids in sorted order.
func (r *Registry) IDs() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	ids := make([]string, 0, len(r.entries))
	for id := range r.entries {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Cleanup closes workspaces idle for longer than the TTL and returns how
// many were removed.
func (r *Registry) Cleanup() int {
	now := r.now()
	var expired []*Workspace
	r.mu.Lock()
	for id, e := range r.entries {
		if now.Sub(e.lastUsed) > r.ttl {
			expired = append(expired, e.ws)
			delete(r.entries, id)
		}
	}
	r.mu.Unlock()

	for _, ws := range expired {
		ws.Close()
		r.logger.Debug("workspace expired", "id", ws.ID())
	}
	if len(expired) > 0 {
		r.logger.Info("expired idle workspaces", "count", len(expired))
	}
	return len(expired)
}

// Run calls Cleanup every interval until ctx is done.
func (r *Registry) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = time.Minute
	}
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			r.Cleanup()
		}
	}
}

// Close closes every workspace in parallel and empties the registry.
func (r *Registry) Close(ctx context.Context) error {
	r.mu.Lock()
	all := make([]*Workspace, 0, len(r.entries))
	for _, e := range r.entries {
		all = append(all, e.ws)
	}
	r.entries = make(map[string]*entry)
	r.mu.Unlock()

	g, _ := errgroup.WithContext(ctx)
	for _, ws := range all {
		g.Go(ws.Close)
	}
	return g.Wait()
}
