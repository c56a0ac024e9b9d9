package registry

import (
	"sort"
	"sync"
)

// Handle identifies an entry of a Roost. Handles are never reused.
type Handle uint64

// Cell holds the transient per-entry state that the poll loop swaps in and out
// on every pass, outside of the session value itself.
type Cell[S any] struct {
	value S
	taken bool
}

// Take removes the value from the cell. A second Take before Put returns the
// zero value and false.
func (c *Cell[S]) Take() (S, bool) {
	var zero S
	if c.taken {
		return zero, false
	}
	v := c.value
	c.value = zero
	c.taken = true
	return v, true
}

// Put stores a value back into the cell.
func (c *Cell[S]) Put(v S) {
	c.value = v
	c.taken = false
}

// Peek returns the stored value without taking it.
func (c *Cell[S]) Peek() S {
	return c.value
}

// entry is reference counted: one reference for arena membership and one per
// perch pointing at it. It is released when refs reaches zero.
type entry[S, P any] struct {
	cell Cell[S]
	peer P
	refs int
}

// Roost is a directory of sessions with shared ownership.
// Sessions enter with Add and become addressable by tag once perched.
// Safe for concurrent use.
type Roost[S, P any] struct {
	mu      sync.RWMutex
	next    Handle
	entries map[Handle]*entry[S, P]
	// members holds entries that still own their arena reference.
	members map[Handle]bool
	perches map[string]Handle
}

// New creates an empty Roost.
func New[S, P any]() *Roost[S, P] {
	return &Roost[S, P]{
		entries: make(map[Handle]*entry[S, P]),
		members: make(map[Handle]bool),
		perches: make(map[string]Handle),
	}
}

// Add allocates a new entry for p with the given initial transient state.
func (r *Roost[S, P]) Add(p P, initial S) Handle {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.next++
	h := r.next
	r.entries[h] = &entry[S, P]{
		cell: Cell[S]{value: initial},
		peer: p,
		refs: 1,
	}
	r.members[h] = true
	return h
}

// Perch binds tag to the entry behind h. An existing binding for tag is
// silently replaced (last write wins). Returns false if h is unknown.
func (r *Roost[S, P]) Perch(tag string, h Handle) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.entries[h]
	if !ok {
		return false
	}

	if prev, exists := r.perches[tag]; exists {
		if prev == h {
			return true
		}
		r.releaseLocked(prev)
	}

	e.refs++
	r.perches[tag] = h
	return true
}

// Find resolves a tag to its perched session.
func (r *Roost[S, P]) Find(tag string) (P, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var zero P
	h, ok := r.perches[tag]
	if !ok {
		return zero, false
	}
	e, ok := r.entries[h]
	if !ok {
		return zero, false
	}
	return e.peer, true
}

// Get returns the session behind h.
func (r *Roost[S, P]) Get(h Handle) (P, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.entries[h]
	if !ok {
		var zero P
		return zero, false
	}
	return e.peer, true
}

// State returns the transient state stored for h.
func (r *Roost[S, P]) State(h Handle) (S, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.entries[h]
	if !ok {
		var zero S
		return zero, false
	}
	return e.cell.Peek(), true
}

// Each calls fn for every member entry in insertion order.
// The set of entries is captured before the first call, so fn may add
// entries or perch tags without affecting the current pass.
func (r *Roost[S, P]) Each(fn func(h Handle, cell *Cell[S], p P)) {
	r.mu.RLock()
	snapshot := make([]*entry[S, P], 0, len(r.members))
	handles := make([]Handle, 0, len(r.members))
	for h := range r.members {
		handles = append(handles, h)
	}
	sort.Slice(handles, func(i, j int) bool { return handles[i] < handles[j] })
	for _, h := range handles {
		snapshot = append(snapshot, r.entries[h])
	}
	r.mu.RUnlock()

	for i, e := range snapshot {
		fn(handles[i], &e.cell, e.peer)
	}
}

// Tags returns every perched tag, sorted.
func (r *Roost[S, P]) Tags() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	tags := make([]string, 0, len(r.perches))
	for tag := range r.perches {
		tags = append(tags, tag)
	}
	sort.Strings(tags)
	return tags
}

// TagOf returns the tag currently perched on h, if any.
func (r *Roost[S, P]) TagOf(h Handle) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for tag, ph := range r.perches {
		if ph == h {
			return tag, true
		}
	}
	return "", false
}

// Len returns the number of member entries.
func (r *Roost[S, P]) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.members)
}

// Prune drops every reference held on entries whose state is dead: the arena
// reference and all perches pointing at them. Returns the number of entries
// released.
func (r *Roost[S, P]) Prune(dead func(state S, p P) bool) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	doomed := make(map[Handle]bool)
	for h, e := range r.entries {
		if dead(e.cell.Peek(), e.peer) {
			doomed[h] = true
		}
	}
	if len(doomed) == 0 {
		return 0
	}

	released := 0
	for tag, h := range r.perches {
		if doomed[h] {
			delete(r.perches, tag)
			if r.releaseLocked(h) {
				released++
			}
		}
	}
	for h := range doomed {
		if r.members[h] {
			delete(r.members, h)
			if r.releaseLocked(h) {
				released++
			}
		}
	}
	return released
}

// releaseLocked drops one reference from h and deletes the entry when no
// reference remains. Reports whether the entry was released.
func (r *Roost[S, P]) releaseLocked(h Handle) bool {
	e, ok := r.entries[h]
	if !ok {
		return false
	}
	e.refs--
	if e.refs <= 0 {
		delete(r.entries, h)
		return true
	}
	return false
}
