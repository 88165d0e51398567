package decoding

import (
	"context"

	"github.com/go-ng/xatomic"
	"github.com/xaionaro-go/avplayback/logger"
	"github.com/xaionaro-go/observability"
	"github.com/xaionaro-go/xcontext"
)

// EndOfStream returns a channel which is closed when the video stream of
// the current playback run is exhausted. Reset and Seek start a new run
// (and a new channel).
func (c *Context) EndOfStream() <-chan struct{} {
	return *xatomic.LoadPointer(&c.endOfStreamChan)
}

// raiseEndOfStream notifies about the end of the video stream, once per run.
// The notification is always delivered from another goroutine, since the
// handlers may want to stop the thread that called the advance.
func (c *ContextLocked) raiseEndOfStream(ctx context.Context) {
	if c.endOfStreamFired {
		return
	}
	c.endOfStreamFired = true
	ch := xatomic.LoadPointer(&c.endOfStreamChan)
	callback := c.Config.OnEndOfStream
	observability.Go(xcontext.DetachDone(ctx), func(ctx context.Context) {
		logger.Debugf(ctx, "end of stream")
		close(*ch)
		if callback != nil {
			callback(ctx)
		}
	})
}
