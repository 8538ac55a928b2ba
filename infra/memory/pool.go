package memory

import "sync"

// Pool is a typed object pool for hot-path allocations. The gateway draws
// order objects from it and the service returns the ones that never rest
// in a book; resting orders stay owned by the book until the GC takes them.
type Pool[T any] struct {
	p *sync.Pool
}

func NewPool[T any](ctor func() *T) *Pool[T] {
	return &Pool[T]{
		p: &sync.Pool{
			New: func() any { return ctor() },
		},
	}
}

func (p *Pool[T]) Get() *T {
	return p.p.Get().(*T)
}

func (p *Pool[T]) Put(v *T) {
	p.p.Put(v)
}
