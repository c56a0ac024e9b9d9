package history

// Stack is a bounded LIFO store that sheds its older half instead of growing
// or rejecting writes once it is nearly full.
//
// Items are kept most-recent-last. Stack is not safe for concurrent use; the
// engine owns it from a single goroutine.
type Stack[T any] struct {
	items []T
	cap   int
}

// New creates an empty stack bounded by capacity.
// Capacities below 2 are raised to 2.
func New[T any](capacity int) *Stack[T] {
	if capacity < 2 {
		capacity = 2
	}
	return &Stack[T]{
		items: make([]T, 0, capacity),
		cap:   capacity,
	}
}

// From creates a stack holding items (oldest first), applying the same
// eviction rule as repeated pushes would.
func From[T any](capacity int, items ...T) *Stack[T] {
	s := New[T](capacity)
	for _, it := range items {
		s.Push(it)
	}
	return s
}

// Push appends item as the most recent entry.
// When at most one free slot remains, the older half is dropped first.
func (s *Stack[T]) Push(item T) {
	if s.cap-len(s.items) <= 1 {
		keep := s.cap / 2
		drop := len(s.items) - keep
		n := copy(s.items, s.items[drop:])
		clear(s.items[n:])
		s.items = s.items[:n]
	}
	s.items = append(s.items, item)
}

// Pop removes and returns the most recent entry.
func (s *Stack[T]) Pop() (T, bool) {
	var zero T
	if len(s.items) == 0 {
		return zero, false
	}
	last := len(s.items) - 1
	item := s.items[last]
	s.items[last] = zero
	s.items = s.items[:last]
	return item, true
}

// Peek returns the most recent entry without removing it.
func (s *Stack[T]) Peek() (T, bool) {
	if len(s.items) == 0 {
		var zero T
		return zero, false
	}
	return s.items[len(s.items)-1], true
}

// Clear drops every entry.
func (s *Stack[T]) Clear() {
	clear(s.items)
	s.items = s.items[:0]
}

// Len returns the number of entries held. A nil Stack is empty.
func (s *Stack[T]) Len() int {
	if s == nil {
		return 0
	}
	return len(s.items)
}

// Cap returns the capacity bound.
func (s *Stack[T]) Cap() int {
	return s.cap
}

// Items returns a copy of the entries, oldest first.
func (s *Stack[T]) Items() []T {
	out := make([]T, len(s.items))
	copy(out, s.items)
	return out
}
