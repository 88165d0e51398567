// Package pool provides a pool of reusable (usually native, expensive
// to allocate) buffers with explicit lifetime tracking.
//
// Every buffer handed out by a Pool is tracked as either "in use" or
// "free" until it is destroyed or the pool is reset. The pool is not
// safe for concurrent use: the owner is expected to serialize calls.
package pool

import (
	"fmt"
)

type Pool[T any] struct {
	// CollectThreshold is the amount of in-use buffers above which Collect
	// deallocates the free ones.
	CollectThreshold int

	AllocFunc func() (*T, error)
	FreeFunc  func(*T)

	// ResetFunc is optional; it is called when a buffer is returned to the pool.
	ResetFunc func(*T)

	inUse map[*T]struct{}
	free  map[*T]struct{}
}

func New[T any](
	collectThreshold int,
	allocFunc func() (*T, error),
	freeFunc func(*T),
	resetFunc func(*T),
) *Pool[T] {
	return &Pool[T]{
		CollectThreshold: collectThreshold,
		AllocFunc:        allocFunc,
		FreeFunc:         freeFunc,
		ResetFunc:        resetFunc,
		inUse:            map[*T]struct{}{},
		free:             map[*T]struct{}{},
	}
}

func (p *Pool[T]) String() string {
	return fmt.Sprintf("Pool[%T](in_use:%d, free:%d)", (*T)(nil), len(p.inUse), len(p.free))
}

// Count returns the total amount of tracked buffers.
func (p *Pool[T]) Count() int {
	return len(p.inUse) + len(p.free)
}

func (p *Pool[T]) InUse() int {
	return len(p.inUse)
}

func (p *Pool[T]) Free() int {
	return len(p.free)
}

func (p *Pool[T]) IsInUse(item *T) bool {
	_, ok := p.inUse[item]
	return ok
}

// Acquire returns a free buffer (allocating a new one if there are
// no free buffers) and marks it as in use.
func (p *Pool[T]) Acquire() (*T, error) {
	if len(p.free) == 0 && p.Count() == len(p.inUse) {
		item, err := p.AllocFunc()
		if err != nil {
			return nil, fmt.Errorf("unable to allocate a new buffer: %w", err)
		}
		if item == nil {
			return nil, fmt.Errorf("the allocation function returned nil")
		}
		p.inUse[item] = struct{}{}
		return item, nil
	}

	for item := range p.free {
		delete(p.free, item)
		p.inUse[item] = struct{}{}
		return item, nil
	}
	panic("unreachable: the free set is empty, while the counters say otherwise")
}

// Release returns an in-use buffer to the free set. It returns false
// if the buffer is not tracked as in use (in this case nothing is changed).
func (p *Pool[T]) Release(item *T) bool {
	if _, ok := p.inUse[item]; !ok {
		return false
	}
	delete(p.inUse, item)
	if p.ResetFunc != nil {
		p.ResetFunc(item)
	}
	p.free[item] = struct{}{}
	return true
}

// Destroy immediately deallocates an in-use buffer and stops tracking it.
func (p *Pool[T]) Destroy(item *T) bool {
	if _, ok := p.inUse[item]; !ok {
		return false
	}
	delete(p.inUse, item)
	p.FreeFunc(item)
	return true
}

// Collect deallocates all the free buffers if the amount of in-use
// buffers exceeds CollectThreshold. Returns the amount of deallocated buffers.
func (p *Pool[T]) Collect() int {
	if len(p.inUse) <= p.CollectThreshold {
		return 0
	}
	count := len(p.free)
	for item := range p.free {
		delete(p.free, item)
		p.FreeFunc(item)
	}
	return count
}

// Reset deallocates every tracked buffer: both free and in-use ones.
// Any references to in-use buffers held by the caller become invalid.
func (p *Pool[T]) Reset() {
	for item := range p.inUse {
		delete(p.inUse, item)
		p.FreeFunc(item)
	}
	for item := range p.free {
		delete(p.free, item)
		p.FreeFunc(item)
	}
}
