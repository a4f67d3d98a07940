// Package recycle provides a thread-safe pool of reusable scratch objects.
//
// Unlike queue.Queue, which recycles a fixed run of slots owned by a single
// detector, a Stack hands out whole objects (image buffers, detectors) that
// callers hold for a while and then give back.
package recycle

import "sync"

// Stack is a LIFO pool of released objects of one type.
//
// Pop returns the most recently recycled object, or a new one from the factory
// when the pool is empty. Stack is safe for concurrent use by multiple
// goroutines; every operation holds a single mutex for its whole body except
// the factory call on a pool miss.
type Stack[T any] struct {
	mu      sync.Mutex
	list    []T
	factory func() T
}

// New creates an empty pool that constructs objects with factory. A nil
// factory makes Pop return the zero value of T when the pool is empty.
func New[T any](factory func() T) *Stack[T] {
	if factory == nil {
		factory = func() T {
			var zero T
			return zero
		}
	}
	return &Stack[T]{factory: factory}
}

// Pop removes and returns the most recently recycled object. If the pool is
// empty a new object is created with the factory.
func (s *Stack[T]) Pop() T {
	s.mu.Lock()
	n := len(s.list)
	if n == 0 {
		s.mu.Unlock()
		return s.factory()
	}
	obj := s.list[n-1]
	var zero T
	s.list[n-1] = zero
	s.list = s.list[:n-1]
	s.mu.Unlock()
	return obj
}

// Recycle hands obj back to the pool. The caller must not use obj afterwards.
// No check is made that obj came from this pool.
func (s *Stack[T]) Recycle(obj T) {
	s.mu.Lock()
	s.list = append(s.list, obj)
	s.mu.Unlock()
}

// Purge discards every pooled object. Objects currently held by callers are
// not affected and may still be recycled later.
func (s *Stack[T]) Purge() {
	s.mu.Lock()
	s.list = nil
	s.mu.Unlock()
}

// Len returns the number of objects waiting in the pool.
func (s *Stack[T]) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.list)
}
