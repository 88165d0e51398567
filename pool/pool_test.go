package pool

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"
)

type dummyBuffer struct {
	ID    int
	Dirty bool
	Freed bool
}

type dummyAllocator struct {
	Allocated []*dummyBuffer
	Freed     int
	FailNext  bool
}

func (a *dummyAllocator) alloc() (*dummyBuffer, error) {
	if a.FailNext {
		a.FailNext = false
		return nil, fmt.Errorf("out of memory")
	}
	b := &dummyBuffer{ID: len(a.Allocated)}
	a.Allocated = append(a.Allocated, b)
	return b, nil
}

func (a *dummyAllocator) free(b *dummyBuffer) {
	if b.Freed {
		panic(fmt.Sprintf("double free of buffer %d", b.ID))
	}
	b.Freed = true
	a.Freed++
}

func newTestPool(threshold int) (*Pool[dummyBuffer], *dummyAllocator) {
	a := &dummyAllocator{}
	p := New(threshold, a.alloc, a.free, func(b *dummyBuffer) { b.Dirty = false })
	return p, a
}

func requireConsistent(t *testing.T, p *Pool[dummyBuffer]) {
	t.Helper()
	require.Equal(t, p.InUse()+p.Free(), p.Count())
}

func TestPoolAcquireRelease(t *testing.T) {
	t.Parallel()
	p, a := newTestPool(10)

	b0, err := p.Acquire()
	require.NoError(t, err)
	b0.Dirty = true
	b1, err := p.Acquire()
	require.NoError(t, err)
	require.NotSame(t, b0, b1)
	require.Len(t, a.Allocated, 2)
	require.Equal(t, 2, p.InUse())
	requireConsistent(t, p)

	require.True(t, p.Release(b0))
	require.False(t, b0.Dirty, "the reset function is expected to be called")
	require.False(t, p.Release(b0), "double release must be rejected")
	require.Equal(t, 1, p.Free())
	requireConsistent(t, p)

	b2, err := p.Acquire()
	require.NoError(t, err)
	require.Same(t, b0, b2, "a free buffer is expected to be reused")
	require.Len(t, a.Allocated, 2)
	requireConsistent(t, p)

	require.False(t, p.Release(&dummyBuffer{}), "unknown buffers must be rejected")
}

func TestPoolAcquireAllocationError(t *testing.T) {
	t.Parallel()
	p, a := newTestPool(10)
	a.FailNext = true

	_, err := p.Acquire()
	require.Error(t, err)
	require.Zero(t, p.Count())

	_, err = p.Acquire()
	require.NoError(t, err)
	require.Equal(t, 1, p.Count())
}

func TestPoolDestroy(t *testing.T) {
	t.Parallel()
	p, a := newTestPool(10)

	b, err := p.Acquire()
	require.NoError(t, err)
	require.True(t, p.Destroy(b))
	require.True(t, b.Freed)
	require.Equal(t, 1, a.Freed)
	require.Zero(t, p.Count())
	require.False(t, p.Destroy(b))

	b, err = p.Acquire()
	require.NoError(t, err)
	require.True(t, p.Release(b))
	require.False(t, p.Destroy(b), "only in-use buffers may be destroyed")
	requireConsistent(t, p)
}

func TestPoolCollect(t *testing.T) {
	t.Parallel()
	p, a := newTestPool(2)

	var bufs []*dummyBuffer
	for range 5 {
		b, err := p.Acquire()
		require.NoError(t, err)
		bufs = append(bufs, b)
	}
	require.True(t, p.Release(bufs[0]))
	require.True(t, p.Release(bufs[1]))

	// 3 in use > threshold 2
	require.Equal(t, 2, p.Collect())
	require.Zero(t, p.Free())
	require.Equal(t, 3, p.InUse())
	require.Equal(t, 2, a.Freed)
	requireConsistent(t, p)

	require.True(t, p.Release(bufs[2]))
	// 2 in use == threshold
	require.Zero(t, p.Collect())
	require.Equal(t, 1, p.Free())
	for _, b := range bufs[2:] {
		require.False(t, b.Freed, "in-use buffers must never be deallocated by Collect")
	}
}

func TestPoolReset(t *testing.T) {
	t.Parallel()
	p, a := newTestPool(10)

	for i := range 4 {
		b, err := p.Acquire()
		require.NoError(t, err)
		if i%2 == 0 {
			require.True(t, p.Release(b))
		}
	}
	p.Reset()
	require.Zero(t, p.Count())
	require.Zero(t, p.InUse())
	require.Zero(t, p.Free())
	require.Equal(t, len(a.Allocated), a.Freed)
}

func TestPoolRandomized(t *testing.T) {
	t.Parallel()
	p, _ := newTestPool(8)
	rng := rand.New(rand.NewSource(0))

	owned := map[*dummyBuffer]struct{}{}
	for range 10000 {
		switch rng.Intn(5) {
		case 0, 1:
			b, err := p.Acquire()
			require.NoError(t, err)
			_, dup := owned[b]
			require.False(t, dup, "a buffer that is already in use was handed out again")
			require.False(t, b.Freed)
			owned[b] = struct{}{}
		case 2:
			for b := range owned {
				require.True(t, p.Release(b))
				delete(owned, b)
				break
			}
		case 3:
			for b := range owned {
				require.True(t, p.Destroy(b))
				delete(owned, b)
				break
			}
		case 4:
			p.Collect()
		}
		require.Equal(t, len(owned), p.InUse())
		requireConsistent(t, p)
	}

	p.Reset()
	require.Zero(t, p.Count())
}
