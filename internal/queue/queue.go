package queue

import (
	"errors"
	"fmt"
)

var (
	// ErrNegativeCapacity is returned when a queue is created or resized with
	// a capacity below zero.
	ErrNegativeCapacity = errors.New("queue: negative capacity")

	// ErrIndexOutOfRange is returned by Get for indexes outside [0, Size()).
	ErrIndexOutOfRange = errors.New("queue: index out of range")
)

// Queue is a growable array of recycled elements.
//
// Elements are created by the factory passed to New and are never destroyed
// individually. See the package documentation for the slot model.
type Queue[T any] struct {
	data    []*T
	size    int
	factory func() *T
}

// New creates a queue with maxInitial pre-allocated elements and size zero.
//
// Parameters:
//   - maxInitial: Number of slots to allocate up front. Zero is allowed.
//   - factory: Constructs one default element. If nil, new(T) is used.
//
// Returns ErrNegativeCapacity when maxInitial < 0.
func New[T any](maxInitial int, factory func() *T) (*Queue[T], error) {
	if maxInitial < 0 {
		return nil, fmt.Errorf("%w: %d", ErrNegativeCapacity, maxInitial)
	}
	if factory == nil {
		factory = func() *T { return new(T) }
	}

	q := &Queue[T]{factory: factory}
	q.data = make([]*T, maxInitial)
	for i := range q.data {
		q.data[i] = factory()
	}
	return q, nil
}

// Size returns the number of active elements.
func (q *Queue[T]) Size() int {
	return q.size
}

// MaxSize returns the number of allocated slots.
func (q *Queue[T]) MaxSize() int {
	return len(q.data)
}

// Reset marks every element as inactive. Slot contents are left as they are
// and will be overwritten by later calls to Add or Grow.
func (q *Queue[T]) Reset() {
	q.size = 0
}

// Add copies value into the next slot, growing the queue if it is full.
func (q *Queue[T]) Add(value T) {
	*q.Grow() = value
}

// Grow activates the next slot and returns it for in-place modification.
//
// When the queue is full the slot array doubles (or becomes one slot long when
// empty). The returned element may hold values from a previous use of the
// slot, so callers must overwrite every field they care about.
func (q *Queue[T]) Grow() *T {
	if q.size == len(q.data) {
		next := 2 * q.size
		if next == 0 {
			next = 1
		}
		q.setCapacity(next)
	}
	e := q.data[q.size]
	q.size++
	return e
}

// Get returns the live element at index.
//
// The pointer refers to the slot itself; it observes later writes to that slot
// and should be fetched again after Reset and refill.
func (q *Queue[T]) Get(index int) (*T, error) {
	if index < 0 || index >= q.size {
		return nil, fmt.Errorf("%w: index %d, size %d", ErrIndexOutOfRange, index, q.size)
	}
	return q.data[index], nil
}

// Tail returns the last active element, or nil when the queue is empty.
func (q *Queue[T]) Tail() *T {
	if q.size == 0 {
		return nil
	}
	return q.data[q.size-1]
}

// RemoveTail deactivates the last element and returns it. The element stays in
// its slot and is reused by the next Add. Returns nil when the queue is empty.
func (q *Queue[T]) RemoveTail() *T {
	if q.size == 0 {
		return nil
	}
	q.size--
	return q.data[q.size]
}

// Resize changes the number of allocated slots to newCapacity.
//
// Slots below min(newCapacity, MaxSize()) keep their element instances and new
// slots are filled by the factory.
//
// NOTE: if newCapacity is smaller than Size(), the size is clamped to
// newCapacity and the active elements beyond it are silently dropped. Callers
// that shrink a queue in use must account for that loss.
func (q *Queue[T]) Resize(newCapacity int) error {
	if newCapacity < 0 {
		return fmt.Errorf("%w: %d", ErrNegativeCapacity, newCapacity)
	}
	q.setCapacity(newCapacity)
	if q.size > newCapacity {
		q.size = newCapacity
	}
	return nil
}

// Each calls fn for every active element in index order.
func (q *Queue[T]) Each(fn func(i int, e *T)) {
	for i := 0; i < q.size; i++ {
		fn(i, q.data[i])
	}
}

// ToSlice copies the active elements into dst (reusing its storage) and
// returns it.
func (q *Queue[T]) ToSlice(dst []T) []T {
	dst = dst[:0]
	for i := 0; i < q.size; i++ {
		dst = append(dst, *q.data[i])
	}
	return dst
}

func (q *Queue[T]) setCapacity(capacity int) {
	if capacity == len(q.data) {
		return
	}
	data := make([]*T, capacity)
	n := copy(data, q.data)
	for i := n; i < capacity; i++ {
		data[i] = q.factory()
	}
	q.data = data
}
