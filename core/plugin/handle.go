package plugin

import (
	"sync"

	"github.com/google/uuid"
)

// ProviderHandle refers to a provider registered through the API.
// The zero value is the null handle.
type ProviderHandle struct{ id uuid.UUID }

// IsZero reports whether h is the null handle.
func (h ProviderHandle) IsZero() bool { return h.id == uuid.Nil }

func (h ProviderHandle) String() string { return h.id.String() }

// ChannelHandle refers to a channel registered through the API.
// The zero value is the null handle.
type ChannelHandle struct{ id uuid.UUID }

// IsZero reports whether h is the null handle.
func (h ChannelHandle) IsZero() bool { return h.id == uuid.Nil }

func (h ChannelHandle) String() string { return h.id.String() }

// SubscriptionHandle refers to a subscription made through the API.
// The zero value is the null handle.
type SubscriptionHandle struct{ id uuid.UUID }

// IsZero reports whether h is the null handle.
func (h SubscriptionHandle) IsZero() bool { return h.id == uuid.Nil }

func (h SubscriptionHandle) String() string { return h.id.String() }

type handleEntry[T any] struct {
	owner *API
	value T
}

// handleTable maps opaque ids to objects and the plugin that created them.
type handleTable[T any] struct {
	mu      sync.RWMutex
	entries map[uuid.UUID]handleEntry[T]
}

func newHandleTable[T any]() *handleTable[T] {
	return &handleTable[T]{entries: make(map[uuid.UUID]handleEntry[T])}
}

func (t *handleTable[T]) add(owner *API, v T) uuid.UUID {
	id := uuid.New()
	t.mu.Lock()
	t.entries[id] = handleEntry[T]{owner: owner, value: v}
	t.mu.Unlock()
	return id
}

func (t *handleTable[T]) get(id uuid.UUID) (handleEntry[T], bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	e, ok := t.entries[id]
	return e, ok
}

// take removes id if owner created it.
func (t *handleTable[T]) take(id uuid.UUID, owner *API) (T, bool, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	var zero T
	e, ok := t.entries[id]
	if !ok {
		return zero, false, false
	}
	if e.owner != owner {
		return zero, true, false
	}
	delete(t.entries, id)
	return e.value, true, true
}

// takeOwned removes and returns every entry created by owner.
func (t *handleTable[T]) takeOwned(owner *API) []T {
	t.mu.Lock()
	defer t.mu.Unlock()

	var out []T
	for id, e := range t.entries {
		if e.owner == owner {
			out = append(out, e.value)
			delete(t.entries, id)
		}
	}
	return out
}

func (t *handleTable[T]) len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.entries)
}
