// Package element maps opaque element ids to backend node references.
//
// A Registry belongs to exactly one session. Ids are minted against the
// browsing context that produced them and are never reused, so every
// lookup ends in one of three deterministic outcomes: a live node, an
// unknown id, or a stale reference.
package element

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/shehryarbajwa/webdriver-mini/internal/backend"
	"github.com/shehryarbajwa/webdriver-mini/internal/wderr"
)

// ID is an opaque element handle as sent to clients.
type ID string

// Liveness asks the backend whether a node is still attached.
type Liveness interface {
	IsAttached(ctx context.Context, n backend.NodeRef) (bool, error)
}

type entry struct {
	node    backend.NodeRef
	context backend.Target
	stale   bool
}

type bindingKey struct {
	node    backend.NodeRef
	context backend.Target
}

// Registry is the element id side table of a session.
type Registry struct {
	mu      sync.Mutex
	entries map[ID]*entry
	known   map[bindingKey]ID
	newID   func() string
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		entries: make(map[ID]*entry),
		known:   make(map[bindingKey]ID),
		newID:   uuid.NewString,
	}
}

// Mint returns the id bound to node in ctx, allocating a fresh one the first
// time the pair is seen.
func (r *Registry) Mint(node backend.NodeRef, ctx backend.Target) ID {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := bindingKey{node: node, context: ctx}
	if id, ok := r.known[key]; ok {
		return id
	}
	id := ID(r.newID())
	r.entries[id] = &entry{node: node, context: ctx}
	r.known[key] = id
	return id
}

// MintAll mints ids for nodes, preserving order.
func (r *Registry) MintAll(nodes []backend.NodeRef, ctx backend.Target) []ID {
	ids := make([]ID, 0, len(nodes))
	for _, n := range nodes {
		ids = append(ids, r.Mint(n, ctx))
	}
	return ids
}

// Resolve returns the node bound to id. current is the session's active
// browsing context; an id minted in any other context is stale. The backend
// is consulted only to check that the node is still attached.
func (r *Registry) Resolve(ctx context.Context, id ID, current backend.Target, live Liveness) (backend.NodeRef, error) {
	r.mu.Lock()
	e, ok := r.entries[id]
	var node backend.NodeRef
	var stale bool
	if ok {
		node, stale = e.node, e.stale || e.context != current
	}
	r.mu.Unlock()

	if !ok {
		return "", wderr.New(wderr.NoSuchElement, "no element with id %s is known to this session", id)
	}
	if stale {
		return "", staleError(id)
	}
	if live == nil {
		return node, nil
	}

	attached, err := live.IsAttached(ctx, node)
	if err != nil {
		return "", wderr.FromBackend(fmt.Errorf("liveness check for %s: %w", id, err), wderr.Timeout)
	}
	if !attached {
		r.markStale(id)
		return "", staleError(id)
	}
	return node, nil
}

// InvalidateContext marks every id minted in ctx as stale. The records are
// kept so later lookups report staleness rather than an unknown id.
func (r *Registry) InvalidateContext(ctx backend.Target) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	n := 0
	for _, e := range r.entries {
		if e.context == ctx && !e.stale {
			e.stale = true
			delete(r.known, bindingKey{node: e.node, context: e.context})
			n++
		}
	}
	return n
}

// InvalidateWindow marks stale every id minted in w or any frame inside it.
func (r *Registry) InvalidateWindow(w backend.WindowHandle) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	n := 0
	for _, e := range r.entries {
		if e.context.Window == w && !e.stale {
			e.stale = true
			delete(r.known, bindingKey{node: e.node, context: e.context})
			n++
		}
	}
	return n
}

// InvalidateAll marks every id stale.
func (r *Registry) InvalidateAll() {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, e := range r.entries {
		e.stale = true
	}
	clear(r.known)
}

// Len returns the number of ids ever minted.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

func (r *Registry) markStale(id ID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if e, ok := r.entries[id]; ok && !e.stale {
		e.stale = true
		delete(r.known, bindingKey{node: e.node, context: e.context})
	}
}

func staleError(id ID) *wderr.Error {
	return wderr.New(wderr.StaleElementReference, "element %s is no longer attached to the current browsing context", id)
}
