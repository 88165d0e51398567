package packet

import (
	"fmt"
	"slices"

	"github.com/xaionaro-go/avplayback/types"
)

// Timestamped is anything that has a decoding and a presentation
// timestamp; *astiav.Packet satisfies it.
type Timestamped interface {
	Dts() int64
	Pts() int64
}

type queueGroup[T Timestamped] struct {
	Key   int64
	Items []T
}

// Queue keeps packets of one stream ordered by (primary key, secondary key),
// where the keys are (DTS, PTS) or (PTS, DTS) depending on Order.
//
// Packets with the same primary key form a group; since packets usually
// arrive almost sorted, both the group lookup and the lookup inside a group
// are linear scans starting from the tail. The order of packets with
// completely equal keys is the order of their arrival, but only as a side
// effect of the scan direction.
//
// Queue is not safe for concurrent use.
type Queue[T Timestamped] struct {
	Order    types.PacketOrder
	Capacity int

	groups []queueGroup[T]
	count  int
}

func NewQueue[T Timestamped](
	order types.PacketOrder,
	capacity int,
) *Queue[T] {
	return &Queue[T]{
		Order:    order,
		Capacity: capacity,
		groups:   make([]queueGroup[T], 0, capacity),
	}
}

func (q *Queue[T]) String() string {
	return fmt.Sprintf("Queue(%s; count:%d; groups:%d)", q.Order, q.count, len(q.groups))
}

func (q *Queue[T]) keys(item T) (int64, int64) {
	switch q.Order {
	case types.PacketOrderPTSDTS:
		return item.Pts(), item.Dts()
	default:
		return item.Dts(), item.Pts()
	}
}

func (q *Queue[T]) secondaryKey(item T) int64 {
	_, s := q.keys(item)
	return s
}

// Count returns the amount of queued items.
func (q *Queue[T]) Count() int {
	return q.count
}

// IsFull reports if the amount of items reached Capacity. The queue
// never rejects items, Capacity is only advisory.
func (q *Queue[T]) IsFull() bool {
	return q.Capacity > 0 && q.count >= q.Capacity
}

func (q *Queue[T]) Enqueue(item T) {
	primary, secondary := q.keys(item)
	q.count++

	n := len(q.groups)
	switch {
	case n == 0 || primary > q.groups[n-1].Key:
		q.groups = append(q.groups, queueGroup[T]{Key: primary, Items: []T{item}})
		return
	case primary < q.groups[0].Key:
		q.groups = slices.Insert(q.groups, 0, queueGroup[T]{Key: primary, Items: []T{item}})
		return
	}

	for idx := n - 1; idx >= 0; idx-- {
		g := &q.groups[idx]
		switch {
		case g.Key == primary:
			q.insertIntoGroup(g, item, secondary)
			return
		case g.Key < primary:
			q.groups = slices.Insert(q.groups, idx+1, queueGroup[T]{Key: primary, Items: []T{item}})
			return
		}
	}
	panic("unreachable: the primary key is neither below the first group, nor above or equal to any group")
}

func (q *Queue[T]) insertIntoGroup(g *queueGroup[T], item T, secondary int64) {
	pos := len(g.Items)
	for pos > 0 && q.secondaryKey(g.Items[pos-1]) > secondary {
		pos--
	}
	g.Items = slices.Insert(g.Items, pos, item)
}

// Peek returns the smallest item without removing it.
func (q *Queue[T]) Peek() (T, bool) {
	if len(q.groups) == 0 {
		var zeroValue T
		return zeroValue, false
	}
	return q.groups[0].Items[0], true
}

// Dequeue removes and returns the smallest item.
func (q *Queue[T]) Dequeue() (T, bool) {
	var zeroValue T
	if len(q.groups) == 0 {
		return zeroValue, false
	}
	g := &q.groups[0]
	item := g.Items[0]
	g.Items[0] = zeroValue
	g.Items = g.Items[1:]
	if len(g.Items) == 0 {
		q.groups[0] = queueGroup[T]{}
		q.groups = q.groups[1:]
	}
	q.count--
	return item, true
}

// Clear empties the queue and returns the removed items (in the queue order),
// so that the caller could release them.
func (q *Queue[T]) Clear() []T {
	result := make([]T, 0, q.count)
	for _, g := range q.groups {
		result = append(result, g.Items...)
	}
	clear(q.groups)
	q.groups = q.groups[:0]
	q.count = 0
	return result
}
