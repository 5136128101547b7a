package analytics

// Ring is a fixed-capacity FIFO buffer. It is not synchronized; the
// Tracker serializes all access under its own lock.
type Ring[T any] struct {
	items    []T
	head     int // next write position
	size     int
	capacity int
}

// NewRing creates a ring with the given capacity.
func NewRing[T any](capacity int) *Ring[T] {
	if capacity <= 0 {
		capacity = 100
	}
	return &Ring[T]{
		items:    make([]T, capacity),
		capacity: capacity,
	}
}

// Add appends an item, evicting the oldest when full.
func (r *Ring[T]) Add(item T) {
	r.items[r.head] = item
	r.head = (r.head + 1) % r.capacity

	if r.size < r.capacity {
		r.size++
	}
}

// Items returns the buffered items oldest first.
func (r *Ring[T]) Items() []T {
	if r.size == 0 {
		return []T{}
	}

	out := make([]T, r.size)
	if r.size < r.capacity {
		copy(out, r.items[:r.size])
	} else {
		copy(out, r.items[r.head:])
		copy(out[r.capacity-r.head:], r.items[:r.head])
	}
	return out
}

// Size returns the current item count.
func (r *Ring[T]) Size() int {
	return r.size
}

// Clear drops all items.
func (r *Ring[T]) Clear() {
	var zero T
	for i := range r.items {
		r.items[i] = zero
	}
	r.head = 0
	r.size = 0
}
