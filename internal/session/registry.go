package session

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
)

// ErrSessionNotFound is returned for unknown or expired session ids.
var ErrSessionNotFound = errors.New("session not found")

// Registry maps session ids to controllers. Sessions expire after ttl without access.
type Registry struct {
	deps  Deps
	ttl   time.Duration
	items *cache.Cache
}

// NewRegistry creates a registry whose idle sessions are purged every ttl/2.
func NewRegistry(deps Deps, ttl time.Duration) *Registry {
	deps = deps.withDefaults()
	r := &Registry{
		deps:  deps,
		ttl:   ttl,
		items: cache.New(ttl, ttl/2),
	}
	r.items.OnEvicted(func(string, interface{}) {
		deps.Metrics.ActiveSessions.Dec()
	})
	return r
}

// Create opens a new session for machineID.
func (r *Registry) Create(ctx context.Context, machineID int64) (*Controller, error) {
	id := uuid.NewString()
	c, err := Open(ctx, id, machineID, r.deps)
	if err != nil {
		return nil, err
	}
	r.items.Set(id, c, r.ttl)
	r.deps.Metrics.ActiveSessions.Inc()
	r.deps.Logger.Debug().Str("session_id", id).Int64("machine_id", machineID).Msg("session opened")
	return c, nil
}

// Get returns the session and extends its lifetime.
func (r *Registry) Get(id string) (*Controller, error) {
	v, ok := r.items.Get(id)
	if !ok {
		return nil, ErrSessionNotFound
	}
	c := v.(*Controller)
	// Replace fails if the session was closed or purged since the read.
	if err := r.items.Replace(id, c, r.ttl); err != nil {
		return nil, ErrSessionNotFound
	}
	return c, nil
}

// Delete closes a session.
func (r *Registry) Delete(id string) {
	r.items.Delete(id)
}

// Len returns the number of sessions, including expired ones not yet purged.
func (r *Registry) Len() int {
	return r.items.ItemCount()
}
