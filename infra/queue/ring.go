package queue

import (
	"fmt"
	"sync/atomic"
)

// Ring is a lock-free single-producer/single-consumer ring buffer.
//
// Exactly one goroutine may call Push and exactly one (possibly different)
// goroutine may call Pop for the ring's entire lifetime. The atomic
// load/store pairing on head and tail is sufficient for that case only:
// there is no CAS, so concurrent producers or consumers race on slot
// contents. Push and Pop never block; a full push or empty pop fails
// immediately and any wait policy belongs to the caller.
type Ring[T any] struct {
	// head and tail sit on separate cache lines to avoid false sharing
	// between the producer and consumer cores.
	head atomic.Uint64
	_    [56]byte
	tail atomic.Uint64
	_    [56]byte

	// One slot more than the logical capacity so that empty (head == tail)
	// and full ((tail+1) mod len == head) are distinguishable without a
	// separate counter.
	slots []T
}

// New allocates a ring with the given logical capacity.
func New[T any](capacity int) (*Ring[T], error) {
	if capacity <= 0 {
		return nil, fmt.Errorf("queue: capacity must be positive, got %d", capacity)
	}
	return &Ring[T]{slots: make([]T, capacity+1)}, nil
}

// Push writes one item. It returns false, without modifying state, when
// the ring is full; that is the backpressure signal to the producer.
func (r *Ring[T]) Push(v T) bool {
	t := r.tail.Load()
	h := r.head.Load()

	next := (t + 1) % uint64(len(r.slots))
	if next == h {
		return false
	}

	r.slots[t] = v
	r.tail.Store(next) // publishes the slot write to the consumer
	return true
}

// Pop reads one item. The second return is false when the ring is empty;
// callers must branch on it before using the value.
func (r *Ring[T]) Pop() (T, bool) {
	var zero T

	h := r.head.Load()
	t := r.tail.Load()

	if h == t {
		return zero, false
	}

	v := r.slots[h]
	r.slots[h] = zero
	r.head.Store((h + 1) % uint64(len(r.slots))) // frees the slot for the producer
	return v, true
}

// IsEmpty is an advisory snapshot; it may be stale the instant it returns
// under concurrent use. A hint, not a lock.
func (r *Ring[T]) IsEmpty() bool {
	return r.head.Load() == r.tail.Load()
}

// Len returns the number of items currently buffered (advisory).
func (r *Ring[T]) Len() int {
	n := uint64(len(r.slots))
	h := r.head.Load()
	t := r.tail.Load()
	return int((t + n - h) % n)
}

// Cap returns the logical capacity.
func (r *Ring[T]) Cap() int {
	return len(r.slots) - 1
}
