package packet

import (
	"math/rand"
	"testing"

	"github.com/asticode/go-astiav"
	"github.com/stretchr/testify/require"
	"github.com/xaionaro-go/avplayback/types"
)

type dummyPacket struct {
	DTS int64
	PTS int64
	Seq int
}

func (p *dummyPacket) Dts() int64 { return p.DTS }
func (p *dummyPacket) Pts() int64 { return p.PTS }

func drain(q *Queue[*dummyPacket]) []*dummyPacket {
	var result []*dummyPacket
	for {
		item, ok := q.Dequeue()
		if !ok {
			return result
		}
		result = append(result, item)
	}
}

func TestQueueOrderDTSPTS(t *testing.T) {
	t.Parallel()
	q := NewQueue[*dummyPacket](types.PacketOrderDTSPTS, 4)

	q.Enqueue(&dummyPacket{DTS: 2, PTS: 5})
	q.Enqueue(&dummyPacket{DTS: 0, PTS: 1})
	q.Enqueue(&dummyPacket{DTS: 2, PTS: 3})
	q.Enqueue(&dummyPacket{DTS: 1, PTS: 9})
	q.Enqueue(&dummyPacket{DTS: 3, PTS: 0})
	require.Equal(t, 5, q.Count())
	require.True(t, q.IsFull())

	head, ok := q.Peek()
	require.True(t, ok)
	require.Equal(t, int64(0), head.DTS)

	var got [][2]int64
	for _, p := range drain(q) {
		got = append(got, [2]int64{p.DTS, p.PTS})
	}
	require.Equal(t, [][2]int64{{0, 1}, {1, 9}, {2, 3}, {2, 5}, {3, 0}}, got)
	require.Zero(t, q.Count())

	_, ok = q.Dequeue()
	require.False(t, ok)
	_, ok = q.Peek()
	require.False(t, ok)
}

func TestQueueOrderPTSDTS(t *testing.T) {
	t.Parallel()
	q := NewQueue[*dummyPacket](types.PacketOrderPTSDTS, 0)

	q.Enqueue(&dummyPacket{DTS: 0, PTS: 3})
	q.Enqueue(&dummyPacket{DTS: 1, PTS: 1})
	q.Enqueue(&dummyPacket{DTS: 2, PTS: 2})
	q.Enqueue(&dummyPacket{DTS: 0, PTS: 2})
	require.False(t, q.IsFull())

	var got [][2]int64
	for _, p := range drain(q) {
		got = append(got, [2]int64{p.PTS, p.DTS})
	}
	require.Equal(t, [][2]int64{{1, 1}, {2, 0}, {2, 2}, {3, 0}}, got)
}

func TestQueueEqualKeysKeepArrivalOrder(t *testing.T) {
	t.Parallel()
	q := NewQueue[*dummyPacket](types.PacketOrderDTSPTS, 0)
	for i := range 5 {
		q.Enqueue(&dummyPacket{DTS: 7, PTS: 7, Seq: i})
	}
	for i, p := range drain(q) {
		require.Equal(t, i, p.Seq)
	}
}

func TestQueueRandomizedIsSorted(t *testing.T) {
	t.Parallel()
	rng := rand.New(rand.NewSource(1))
	for _, order := range []types.PacketOrder{types.PacketOrderDTSPTS, types.PacketOrderPTSDTS} {
		q := NewQueue[*dummyPacket](order, 16)
		keys := func(p *dummyPacket) (int64, int64) {
			if order == types.PacketOrderPTSDTS {
				return p.PTS, p.DTS
			}
			return p.DTS, p.PTS
		}

		total := 0
		for round := range 50 {
			for range rng.Intn(40) {
				q.Enqueue(&dummyPacket{DTS: rng.Int63n(20), PTS: rng.Int63n(20)})
				total++
			}
			// dequeue only a part, so that enqueues keep hitting a non-empty queue
			var prev *dummyPacket
			for range rng.Intn(30) {
				p, ok := q.Dequeue()
				if !ok {
					break
				}
				total--
				if prev != nil {
					pp, ps := keys(prev)
					cp, cs := keys(p)
					require.True(t, pp < cp || (pp == cp && ps <= cs), "round %d: %v after %v", round, p, prev)
				}
				prev = p
			}
			require.Equal(t, total, q.Count())
		}

		remaining := drain(q)
		require.Len(t, remaining, total)
		for i := 1; i < len(remaining); i++ {
			pp, ps := keys(remaining[i-1])
			cp, cs := keys(remaining[i])
			require.True(t, pp < cp || (pp == cp && ps <= cs))
		}
	}
}

func TestQueueClear(t *testing.T) {
	t.Parallel()
	q := NewQueue[*dummyPacket](types.PacketOrderDTSPTS, 0)
	q.Enqueue(&dummyPacket{DTS: 3})
	q.Enqueue(&dummyPacket{DTS: 1})
	q.Enqueue(&dummyPacket{DTS: 2})

	items := q.Clear()
	require.Len(t, items, 3)
	require.Equal(t, int64(1), items[0].DTS)
	require.Equal(t, int64(3), items[2].DTS)
	require.Zero(t, q.Count())

	q.Enqueue(&dummyPacket{DTS: 0})
	require.Equal(t, 1, q.Count())
}

func TestQueueWithLibAVPackets(t *testing.T) {
	t.Parallel()
	p := NewPool(4)
	defer p.Reset()

	q := NewQueue[*astiav.Packet](types.PacketOrderDTSPTS, 4)
	for _, dts := range []int64{30, 10, 20} {
		pkt, err := p.Acquire()
		require.NoError(t, err)
		pkt.SetDts(dts)
		pkt.SetPts(dts)
		q.Enqueue(pkt)
	}

	for _, expected := range []int64{10, 20, 30} {
		pkt, ok := q.Dequeue()
		require.True(t, ok)
		require.Equal(t, expected, pkt.Dts())
		require.True(t, p.Release(pkt))
	}
	require.Equal(t, 3, p.Free())
}
