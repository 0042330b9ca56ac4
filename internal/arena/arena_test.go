package arena

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAllocBumpsWithinChunk(t *testing.T) {
	t.Parallel()
	a := New(WithChunkSize(16))

	b1 := a.Alloc(4)
	b2 := a.Alloc(4)
	require.Len(t, b1, 4)
	require.Len(t, b2, 4)
	assert.Equal(t, 1, a.Chunks())
	assert.Equal(t, 8, a.Used())

	// Writing to one allocation must not bleed into the next.
	copy(b1, "abcd")
	copy(b2, "wxyz")
	assert.Equal(t, "abcd", string(b1))
	assert.Equal(t, "wxyz", string(b2))
}

func TestAllocCapsSlices(t *testing.T) {
	t.Parallel()
	a := New(WithChunkSize(16))

	b1 := a.Alloc(4)
	b2 := a.Alloc(4)
	b1 = append(b1, 'X')
	copy(b2, "wxyz")
	assert.Equal(t, "wxyz", string(b2))
	assert.Equal(t, 5, len(b1))
}

func TestAllocOversizedGetsOwnChunk(t *testing.T) {
	t.Parallel()
	a := New(WithChunkSize(16))

	a.Alloc(8)
	big := a.Alloc(100)
	require.Len(t, big, 100)
	assert.Equal(t, 2, a.Chunks())
	assert.Equal(t, 116, a.Reserved())
}

func TestAllocZero(t *testing.T) {
	t.Parallel()
	a := New()
	assert.Nil(t, a.Alloc(0))
	assert.Equal(t, 0, a.Chunks())
}

func TestResetKeepsReservedMemory(t *testing.T) {
	t.Parallel()
	a := New(WithChunkSize(16))

	a.Alloc(10)
	a.Alloc(10)
	reserved := a.Reserved()
	chunks := a.Chunks()

	gen := a.Generation()
	a.Reset()
	assert.Equal(t, gen+1, a.Generation())
	assert.Equal(t, 0, a.Used())
	assert.Equal(t, reserved, a.Reserved())

	// The same amount of work after a reset reuses the old chunks.
	a.Alloc(10)
	a.Alloc(10)
	assert.Equal(t, chunks, a.Chunks())
	assert.Equal(t, reserved, a.Reserved())
}

func TestSlabAllocAndReset(t *testing.T) {
	t.Parallel()
	a := New()
	s := NewSlab[int](a)

	i := s.Alloc(7)
	j := s.Alloc(9)
	assert.Equal(t, int32(0), i)
	assert.Equal(t, int32(1), j)
	assert.Equal(t, 9, s.Get(j))

	*s.At(i) = 11
	assert.Equal(t, 11, s.Get(i))

	capBefore := s.Cap()
	a.Reset()
	assert.Equal(t, 0, s.Len())
	assert.Equal(t, capBefore, s.Cap())
}

func TestSlabAllocNZeroesReusedSlots(t *testing.T) {
	t.Parallel()
	a := New()
	s := NewSlab[int](a)

	first := s.AllocN(3)
	for k := int32(0); k < 3; k++ {
		s.Set(first+k, 42)
	}
	a.Reset()

	first = s.AllocN(3)
	assert.Equal(t, []int{0, 0, 0}, s.Range(first, 3))
}

func TestSlabAllocNOverflow(t *testing.T) {
	t.Parallel()
	a := New()
	s := NewSlab[byte](a)
	s.Alloc(1)
	s.Alloc(2)

	// the run would end past the last int32 index; nothing is reserved
	assert.PanicsWithError(t, "arena: slab overflow: out of range", func() {
		s.AllocN(math.MaxInt32)
	})
	assert.Equal(t, 2, s.Len())
	assert.Less(t, s.Cap(), 1<<20)
}

func TestSlabGrow(t *testing.T) {
	t.Parallel()
	a := New()
	s := NewSlab[string](a)
	s.Alloc("a")
	s.Grow(100)
	assert.GreaterOrEqual(t, s.Cap(), 101)
	assert.Equal(t, "a", s.Get(0))
}
