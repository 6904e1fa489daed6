// Package registry provides a dense, deterministically ordered key-value
// store used for bodies, force generators, motion drivers and collidables.
// Items live in a contiguous slice indexed through an id map; removal swaps
// in the last item so iteration stays cache friendly and reproducible for a
// given operation sequence.
package registry

// Registry maps monotonically assigned ids to items of type T.
type Registry[T any] struct {
	next  uint64
	ids   []uint64
	items []T
	index map[uint64]int
}

// New returns an empty registry.
func New[T any]() *Registry[T] {
	return &Registry[T]{index: make(map[uint64]int)}
}

// Add stores an item and returns its id.
func (r *Registry[T]) Add(item T) uint64 {
	if r.index == nil {
		r.index = make(map[uint64]int)
	}
	id := r.next
	r.next++
	r.index[id] = len(r.items)
	r.ids = append(r.ids, id)
	r.items = append(r.items, item)
	return id
}

// Get returns a pointer to the item with the given id.
func (r *Registry[T]) Get(id uint64) (*T, bool) {
	i, ok := r.index[id]
	if !ok {
		return nil, false
	}
	return &r.items[i], true
}

// Remove deletes the item with the given id, swapping the last item into its
// slot. Reports whether the id was present.
func (r *Registry[T]) Remove(id uint64) bool {
	i, ok := r.index[id]
	if !ok {
		return false
	}
	last := len(r.items) - 1
	if i != last {
		r.items[i] = r.items[last]
		r.ids[i] = r.ids[last]
		r.index[r.ids[i]] = i
	}
	r.items = r.items[:last]
	r.ids = r.ids[:last]
	delete(r.index, id)
	return true
}

// Len returns the number of stored items.
func (r *Registry[T]) Len() int {
	return len(r.items)
}

// ForEach visits every item in storage order.
func (r *Registry[T]) ForEach(fn func(id uint64, item *T)) {
	for i := range r.items {
		fn(r.ids[i], &r.items[i])
	}
}
