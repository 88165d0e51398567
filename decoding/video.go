package decoding

import (
	"context"
	"time"

	"github.com/asticode/go-astiav"
	"github.com/xaionaro-go/avplayback/avconv"
	"github.com/xaionaro-go/avplayback/codec"
	"github.com/xaionaro-go/avplayback/internal"
	"github.com/xaionaro-go/avplayback/logger"
)

// ReadVideoUntil installs the earliest decoded frame whose time is at or
// after t as the current frame, releasing all the frames before it.
// It does nothing if the current frame is already at or after t.
func (c *ContextLocked) ReadVideoUntil(
	ctx context.Context,
	t time.Duration,
) (_err error) {
	logger.Tracef(ctx, "ReadVideoUntil(%v)", t)
	defer func() { logger.Tracef(ctx, "/ReadVideoUntil(%v): %v", t, _err) }()
	if c.closed.Load() {
		return ErrClosed
	}
	v := c.video
	if v == nil {
		return nil
	}
	if c.currentFrame != nil && c.currentFrameTime >= t {
		return nil
	}
	defer c.collect(ctx)

	for {
		for v.Decoded.Len() < v.QueueThreshold && !v.EOF {
			if err := c.decodeVideoPacket(ctx); err != nil {
				return err
			}
		}

		pts, f, ok := v.Decoded.Pop()
		if !ok {
			logger.Debugf(ctx, "the video stream is exhausted")
			c.raiseEndOfStream(ctx)
			return nil
		}
		frameTime := v.timeOf(pts)
		if frameTime < t {
			logger.Tracef(ctx, "skipping the frame at %v", frameTime)
			v.FramePool.Release(f)
			continue
		}
		c.swapCurrentFrame(ctx, f, frameTime)
		return nil
	}
}

// decodeVideoPacket sends the next packet (or the flush request at the
// end of the container) to the decoder and collects all the frames
// it yields.
func (c *ContextLocked) decodeVideoPacket(ctx context.Context) error {
	v := c.video
	pkt, err := c.nextPacket(ctx, &v.streamState)
	if err != nil {
		return c.fail(ctx, "read a video packet", err)
	}
	if pkt == nil {
		if v.FlushSent {
			logger.Warnf(ctx, "the video decoder did not report the end of the stream after the flush")
			v.EOF = true
			return nil
		}
		v.FlushSent = true
	}
	defer func() {
		if pkt != nil {
			c.packetPool.Release(pkt)
		}
	}()

	err = v.Session.Decoder.SendPacket(ctx, pkt)
	if codec.IsAgain(err) {
		if err := c.receiveVideoFrames(ctx); err != nil {
			return err
		}
		err = v.Session.Decoder.SendPacket(ctx, pkt)
	}
	switch {
	case err == nil:
	case codec.IsEOF(err):
		logger.Debugf(ctx, "the video decoder is already drained")
	default:
		return c.fail(ctx, "send a video packet", err)
	}
	return c.receiveVideoFrames(ctx)
}

// receiveVideoFrames moves all the frames available in the decoder into
// the decoded frame buffer.
func (c *ContextLocked) receiveVideoFrames(ctx context.Context) error {
	v := c.video
	for {
		err := v.Session.Decoder.ReceiveFrame(ctx, v.scratch)
		switch {
		case err == nil:
		case codec.IsAgain(err):
			return nil
		case codec.IsEOF(err):
			logger.Debugf(ctx, "the video decoder is drained")
			v.EOF = true
			return nil
		default:
			return c.fail(ctx, "receive a video frame", err)
		}

		err = c.storeVideoFrame(ctx, v.scratch)
		v.scratch.Unref()
		if err != nil {
			return err
		}
	}
}

func (c *ContextLocked) storeVideoFrame(
	ctx context.Context,
	src *astiav.Frame,
) error {
	v := c.video
	pts := src.Pts()
	if avconv.IsNoPTS(pts) {
		pts = src.PktDts()
	}
	if avconv.IsNoPTS(pts) {
		logger.Warnf(ctx, "a decoded video frame has no timestamp; dropping it")
		return nil
	}

	dst, err := v.FramePool.Acquire()
	if err != nil {
		return c.fail(ctx, "allocate a video frame", err)
	}
	if err := v.Session.ConvertFrame(ctx, src, dst, v.Target); err != nil {
		v.FramePool.Destroy(dst)
		return c.fail(ctx, "convert a video frame", err)
	}
	dst.SetPts(pts)
	if replaced := v.Decoded.Put(pts, dst); replaced != nil {
		logger.Debugf(ctx, "a duplicate frame with PTS %d, replacing", pts)
		v.FramePool.Release(replaced)
	}
	return nil
}

// swapCurrentFrame installs the frame as the current one and releases
// the previous one. f may be nil.
func (c *ContextLocked) swapCurrentFrame(
	ctx context.Context,
	f *astiav.Frame,
	t time.Duration,
) {
	internal.Assert(ctx, f == nil || c.video.FramePool.IsInUse(f), "the installed frame is expected to be acquired from the pool", t)
	c.currentFrameLocker.ManualLock(ctx)
	old := c.currentFrame
	c.currentFrame = f
	c.currentFrameTime = t
	c.currentFrameLocker.ManualUnlock(ctx)

	if old != nil && c.video != nil {
		c.video.FramePool.Release(old)
	}
}
