package frame

import (
	"fmt"

	"github.com/asticode/go-astiav"
	"github.com/go-ng/container/heap"
	"github.com/go-ng/xsort"
)

// Buffer is a set of decoded frames keyed and ordered by presentation
// timestamp. Frames are not owned by the Buffer: whatever is evicted or
// removed is handed back to the caller to release.
type Buffer struct {
	frames map[int64]*astiav.Frame
	order  xsort.OrderedAsc[int64]
}

func NewBuffer() *Buffer {
	return &Buffer{
		frames: map[int64]*astiav.Frame{},
	}
}

func (b *Buffer) String() string {
	if len(b.order) == 0 {
		return "FrameBuffer(empty)"
	}
	return fmt.Sprintf("FrameBuffer(len:%d, first_pts:%d)", len(b.order), b.order[0])
}

func (b *Buffer) Len() int {
	return len(b.order)
}

// Put adds the frame under the given PTS. If there already was a frame
// with the same PTS it is replaced and returned.
func (b *Buffer) Put(pts int64, f *astiav.Frame) (replaced *astiav.Frame) {
	if old, ok := b.frames[pts]; ok {
		b.frames[pts] = f
		return old
	}
	b.frames[pts] = f
	heap.Push(&b.order, pts)
	return nil
}

// Peek returns the frame with the lowest PTS without removing it.
func (b *Buffer) Peek() (int64, *astiav.Frame, bool) {
	if len(b.order) == 0 {
		return 0, nil, false
	}
	pts := b.order[0]
	return pts, b.frames[pts], true
}

// Pop removes and returns the frame with the lowest PTS.
func (b *Buffer) Pop() (int64, *astiav.Frame, bool) {
	if len(b.order) == 0 {
		return 0, nil, false
	}
	pts := heap.Pop(&b.order)
	f := b.frames[pts]
	delete(b.frames, pts)
	return pts, f, true
}

// Clear empties the buffer and returns the frames it contained.
func (b *Buffer) Clear() []*astiav.Frame {
	result := make([]*astiav.Frame, 0, len(b.frames))
	for _, f := range b.frames {
		result = append(result, f)
	}
	clear(b.frames)
	b.order = b.order[:0]
	return result
}
