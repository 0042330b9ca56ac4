// Package arena provides the per-pipeline memory region used by a single
// transpiler instance.
//
// An Arena hands out byte regions bump-style from a list of chunks and owns a
// set of typed Slabs. Reset rewinds every chunk and slab without releasing
// the reserved memory, so a long-lived transpiler reaches a steady state
// after a few calls and stops allocating for its syntax trees and scoping
// tables.
//
// Nothing obtained from an Arena may be used after Reset. Types built on top
// of the arena record the Generation they were created in and check it on
// access.
package arena

// DefaultChunkSize is the size of the first byte chunk and the minimum size
// of every chunk added later.
const DefaultChunkSize = 64 << 10

type resetter interface {
	reset()
}

// Arena is a reusable memory region. It is not safe for concurrent use.
type Arena struct {
	chunks    [][]byte
	cur       int // index of the chunk currently bumped
	off       int // bump offset inside chunks[cur]
	chunkSize int
	gen       uint64
	slabs     []resetter
}

// Option configures an Arena.
type Option func(*Arena)

// WithChunkSize overrides DefaultChunkSize.
func WithChunkSize(n int) Option {
	return func(a *Arena) {
		if n > 0 {
			a.chunkSize = n
		}
	}
}

// New creates an empty Arena. No memory is reserved until the first Alloc.
func New(opts ...Option) *Arena {
	a := &Arena{chunkSize: DefaultChunkSize, gen: 1}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Alloc returns a slice of n bytes carved from the arena. The contents are
// unspecified; callers overwrite them.
func (a *Arena) Alloc(n int) []byte {
	if n <= 0 {
		return nil
	}
	for a.cur < len(a.chunks) {
		c := a.chunks[a.cur]
		if len(c)-a.off >= n {
			b := c[a.off : a.off+n : a.off+n]
			a.off += n
			return b
		}
		a.cur++
		a.off = 0
	}
	size := max(a.chunkSize, n)
	a.chunks = append(a.chunks, make([]byte, size))
	a.cur = len(a.chunks) - 1
	a.off = n
	return a.chunks[a.cur][:n:n]
}

// Reset invalidates every allocation made since the previous Reset. Reserved
// chunks and slab capacity are kept for reuse.
func (a *Arena) Reset() {
	a.cur = 0
	a.off = 0
	a.gen++
	for _, s := range a.slabs {
		s.reset()
	}
}

// Generation identifies the current allocation epoch. It changes on every
// Reset.
func (a *Arena) Generation() uint64 {
	return a.gen
}

// Reserved reports the number of bytes held by byte chunks.
func (a *Arena) Reserved() int {
	n := 0
	for _, c := range a.chunks {
		n += len(c)
	}
	return n
}

// Used reports the number of chunk bytes handed out since the last Reset.
func (a *Arena) Used() int {
	n := 0
	for i := 0; i < a.cur && i < len(a.chunks); i++ {
		n += len(a.chunks[i])
	}
	return n + a.off
}

// Chunks reports how many byte chunks the arena has reserved.
func (a *Arena) Chunks() int {
	return len(a.chunks)
}

func (a *Arena) track(s resetter) {
	a.slabs = append(a.slabs, s)
}
