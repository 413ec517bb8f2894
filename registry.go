package mediasoup

import (
	"sync"
	"weak"
)

// registry indexes entities by id without keeping them alive. Entries whose
// entity has been collected read as absent and are purged lazily.
type registry[T any] struct {
	mu sync.Mutex
	m  map[string]weak.Pointer[T]
}

// Insert adds v under id, unless a live entity already holds it.
func (r *registry[T]) Insert(id string, v *T) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.m == nil {
		r.m = make(map[string]weak.Pointer[T])
	}
	if wp, ok := r.m[id]; ok && wp.Value() != nil {
		return false
	}
	r.m[id] = weak.Make(v)
	return true
}

func (r *registry[T]) Get(id string) *T {
	r.mu.Lock()
	defer r.mu.Unlock()

	wp, ok := r.m[id]
	if !ok {
		return nil
	}
	v := wp.Value()
	if v == nil {
		delete(r.m, id)
	}
	return v
}

// Remove deletes id if it still refers to v.
func (r *registry[T]) Remove(id string, v *T) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if wp, ok := r.m[id]; ok && (wp.Value() == v || wp.Value() == nil) {
		delete(r.m, id)
	}
}

// Values returns the live entities.
func (r *registry[T]) Values() []*T {
	r.mu.Lock()
	defer r.mu.Unlock()

	values := make([]*T, 0, len(r.m))
	for id, wp := range r.m {
		if v := wp.Value(); v != nil {
			values = append(values, v)
		} else {
			delete(r.m, id)
		}
	}
	return values
}

func (r *registry[T]) Len() int {
	return len(r.Values())
}
