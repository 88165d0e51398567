package decoding

import (
	"context"
	"time"

	"github.com/asticode/go-astiav"
	"github.com/xaionaro-go/avplayback/frame"
	"github.com/xaionaro-go/xsync"
)

// WithCurrentVideoFrame calls fn with the currently installed frame (nil if
// there is none) and its presentation time. The frame must not be used
// after fn returns. It never waits for decoding, but fn delays the next
// frame swap, so it is expected to be quick.
func (c *Context) WithCurrentVideoFrame(
	ctx context.Context,
	fn func(f *astiav.Frame, t time.Duration),
) {
	c.currentFrameLocker.Do(xsync.WithNoLogging(ctx, true), func() {
		fn(c.currentFrame, c.currentFrameTime)
	})
}

// CopyCurrentVideoFrame copies the pixels of the current frame into dst
// (growing it if needed). Returns false if no frame is installed.
func (c *Context) CopyCurrentVideoFrame(
	ctx context.Context,
	dst []byte,
) (_ret []byte, _t time.Duration, _ok bool, _err error) {
	c.WithCurrentVideoFrame(ctx, func(f *astiav.Frame, t time.Duration) {
		if f == nil {
			_ret = dst[:0]
			return
		}
		_ret, _err = frame.CopyImage(f, dst)
		_t, _ok = t, _err == nil
	})
	return
}

// CurrentVideoFrameTime returns the presentation time of the current frame.
func (c *Context) CurrentVideoFrameTime(
	ctx context.Context,
) (time.Duration, bool) {
	return xsync.DoR2(xsync.WithNoLogging(ctx, true), &c.currentFrameLocker, func() (time.Duration, bool) {
		return c.currentFrameTime, c.currentFrame != nil
	})
}
