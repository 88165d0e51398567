package frame

import (
	"math/rand"
	"testing"

	"github.com/asticode/go-astiav"
	"github.com/stretchr/testify/require"
)

func TestBufferOrder(t *testing.T) {
	t.Parallel()
	b := NewBuffer()
	frames := map[int64]*astiav.Frame{}
	rng := rand.New(rand.NewSource(0))
	for _, pts := range rng.Perm(20) {
		f := &astiav.Frame{}
		frames[int64(pts)] = f
		require.Nil(t, b.Put(int64(pts), f))
	}
	require.Equal(t, 20, b.Len())

	pts, f, ok := b.Peek()
	require.True(t, ok)
	require.Zero(t, pts)
	require.Same(t, frames[0], f)

	for expected := range int64(20) {
		pts, f, ok := b.Pop()
		require.True(t, ok)
		require.Equal(t, expected, pts)
		require.Same(t, frames[expected], f)
	}
	_, _, ok = b.Pop()
	require.False(t, ok)
}

func TestBufferDuplicatePTS(t *testing.T) {
	t.Parallel()
	b := NewBuffer()
	f0, f1 := &astiav.Frame{}, &astiav.Frame{}
	require.Nil(t, b.Put(5, f0))
	require.Same(t, f0, b.Put(5, f1))
	require.Equal(t, 1, b.Len())

	_, f, ok := b.Pop()
	require.True(t, ok)
	require.Same(t, f1, f)
	require.Zero(t, b.Len())
}

func TestBufferClear(t *testing.T) {
	t.Parallel()
	b := NewBuffer()
	for pts := range int64(3) {
		b.Put(pts, &astiav.Frame{})
	}
	require.Len(t, b.Clear(), 3)
	require.Zero(t, b.Len())
	_, _, ok := b.Peek()
	require.False(t, ok)
}
