// Package runtime owns the lobby's shared mutable state: the connection
// registry, the broadcast engine, and the admission arbiter. Everything
// else talks to connections through these three.
package runtime

import (
	"sort"
	"sync"

	"lobby-chat/contract"
	"lobby-chat/domain/chat"
)

// Registry is the single source of truth for who is online. It maps each
// permanent user id to at most one live connection. Constructed once per
// process; there is no other path to the connection set.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]contract.EventSink
}

func NewRegistry() *Registry {
	return &Registry{sessions: make(map[string]contract.EventSink)}
}

// Register installs sink as the live connection for userID and returns the
// connection it displaced, if any. The swap is atomic: of two concurrent
// Register calls for the same id, exactly one remains registered and the
// other is reported to that winner as evicted.
func (r *Registry) Register(userID string, sink contract.EventSink) contract.EventSink {
	r.mu.Lock()
	defer r.mu.Unlock()

	evicted := r.sessions[userID]
	r.sessions[userID] = sink
	if evicted == sink {
		return nil
	}
	return evicted
}

// Unregister removes the entry for userID only if sink is still the
// registered connection. A stale disconnect after an eviction therefore
// cannot clobber the newer registration.
func (r *Registry) Unregister(userID string, sink contract.EventSink) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	current, ok := r.sessions[userID]
	if !ok || current != sink {
		return false
	}
	delete(r.sessions, userID)
	return true
}

func (r *Registry) Lookup(userID string) (contract.EventSink, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	sink, ok := r.sessions[userID]
	return sink, ok
}

func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// Snapshot returns the live connections in a stable order (by user id).
// The slice is a copy; fan-out over it never observes a mid-unregister map.
func (r *Registry) Snapshot() []contract.EventSink {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]string, 0, len(r.sessions))
	for id := range r.sessions {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	sinks := make([]contract.EventSink, 0, len(ids))
	for _, id := range ids {
		sinks = append(sinks, r.sessions[id])
	}
	return sinks
}

// Identities lists who is online, for the REST surface.
func (r *Registry) Identities() []chat.Identity {
	snapshot := r.Snapshot()
	identities := make([]chat.Identity, 0, len(snapshot))
	for _, sink := range snapshot {
		identities = append(identities, sink.Identity())
	}
	return identities
}
