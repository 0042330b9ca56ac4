package arena

import (
	"fmt"

	"fortio.org/safecast"
)

// Slab is a growable table of T owned by an Arena. Elements are addressed by
// int32 index; pointers returned by At are only valid until the next Alloc
// or AllocN, which may move the backing array.
type Slab[T any] struct {
	items []T
}

// NewSlab creates a Slab whose contents are discarded on every a.Reset.
func NewSlab[T any](a *Arena) *Slab[T] {
	s := &Slab[T]{}
	a.track(s)
	return s
}

// Alloc appends v and returns its index.
func (s *Slab[T]) Alloc(v T) int32 {
	s.items = append(s.items, v)
	return index(len(s.items) - 1)
}

// AllocN reserves n contiguous zero values and returns the index of the
// first one.
func (s *Slab[T]) AllocN(n int) int32 {
	first := len(s.items)
	if n <= 0 {
		return index(first)
	}
	// the last slot of the run must be addressable too
	if _, err := safecast.Conv[int32](first + n - 1); err != nil {
		panic(fmt.Errorf("arena: slab overflow: %w", err))
	}
	if cap(s.items)-first < n {
		s.Grow(n)
	}
	s.items = s.items[:first+n]
	clear(s.items[first:])
	return index(first)
}

// At returns a pointer to element i.
func (s *Slab[T]) At(i int32) *T {
	return &s.items[i]
}

// Get returns a copy of element i.
func (s *Slab[T]) Get(i int32) T {
	return s.items[i]
}

// Set overwrites element i.
func (s *Slab[T]) Set(i int32, v T) {
	s.items[i] = v
}

// Range returns the elements in [first, first+n). The slice aliases the slab
// and must not be appended to.
func (s *Slab[T]) Range(first, n int32) []T {
	return s.items[first : first+n : first+n]
}

// Len returns the number of live elements.
func (s *Slab[T]) Len() int {
	return len(s.items)
}

// Cap returns the reserved capacity.
func (s *Slab[T]) Cap() int {
	return cap(s.items)
}

// Grow makes room for at least n more elements without another allocation.
func (s *Slab[T]) Grow(n int) {
	if n <= 0 || cap(s.items)-len(s.items) >= n {
		return
	}
	grown := make([]T, len(s.items), len(s.items)+n)
	copy(grown, s.items)
	s.items = grown
}

func (s *Slab[T]) reset() {
	s.items = s.items[:0]
}

func index(i int) int32 {
	slot, err := safecast.Conv[int32](i)
	if err != nil {
		panic(fmt.Errorf("arena: slab overflow: %w", err))
	}
	return slot
}
