// Package closuresignaler provides a one-shot signal that some resource
// (or a goroutine) is closed.
package closuresignaler

import (
	"context"
	"sync"

	"github.com/xaionaro-go/avplayback/logger"
)

type ClosureSignaler struct {
	closeOnce sync.Once
	c         chan struct{}
}

func New() *ClosureSignaler {
	return &ClosureSignaler{
		c: make(chan struct{}),
	}
}

func (c *ClosureSignaler) CloseChan() <-chan struct{} {
	return c.c
}

// Close closes the channel returned by CloseChan; it is safe to call it
// multiple times. Returns true only for the call that actually closed it.
func (c *ClosureSignaler) Close(ctx context.Context) bool {
	closed := false
	c.closeOnce.Do(func() {
		logger.Tracef(ctx, "closing the signal channel")
		close(c.c)
		closed = true
	})
	return closed
}

func (c *ClosureSignaler) IsClosed() bool {
	select {
	case <-c.c:
		return true
	default:
		return false
	}
}
