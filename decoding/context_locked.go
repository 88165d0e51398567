package decoding

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/asticode/go-astiav"
	"github.com/go-ng/xatomic"
	"github.com/xaionaro-go/avplayback/avconv"
	"github.com/xaionaro-go/avplayback/codec"
	"github.com/xaionaro-go/avplayback/logger"
	"github.com/xaionaro-go/avplayback/types"
)

func (c *ContextLocked) String() string {
	return c.AsUnlocked().String()
}

// Advance decodes the audio and then the video up to the time t.
func (c *ContextLocked) Advance(
	ctx context.Context,
	sink types.AudioSink,
	t time.Duration,
	slack time.Duration,
) error {
	if err := c.ReadAudioUntil(ctx, sink, t, slack); err != nil {
		return err
	}
	return c.ReadVideoUntil(ctx, t)
}

// fail closes the context due to a fatal error, and returns the error
// to be reported to the caller.
func (c *ContextLocked) fail(
	ctx context.Context,
	op string,
	err error,
) error {
	decErr := codec.NewDecodeError(op, err)
	logger.Errorf(ctx, "%v; closing the decoding context", decErr)
	if err := c.closeLocked(ctx); err != nil {
		logger.Errorf(ctx, "unable to close the decoding context: %v", err)
	}
	return decErr
}

// collect deallocates the pooled buffers which are unlikely to be needed.
func (c *ContextLocked) collect(ctx context.Context) {
	if n := c.packetPool.Collect(); n > 0 {
		logger.Tracef(ctx, "deallocated %d packets", n)
	}
	if c.video != nil {
		if n := c.video.FramePool.Collect(); n > 0 {
			logger.Tracef(ctx, "deallocated %d frames", n)
		}
	}
}

// nextPacket returns the next packet of the stream, reading from the
// container if the queue is empty. Returns nil if there are no more packets.
func (c *ContextLocked) nextPacket(
	ctx context.Context,
	s *streamState,
) (*astiav.Packet, error) {
	if s.Queue.Count() == 0 {
		if err := c.fillQueue(ctx, s); err != nil {
			return nil, err
		}
	}
	pkt, ok := s.Queue.Dequeue()
	if !ok {
		return nil, nil
	}
	return pkt, nil
}

// fillQueue reads packets from the container until the queue of the
// given stream has at least QueueThreshold packets or the container
// is exhausted. Packets of the other selected stream are queued too.
func (c *ContextLocked) fillQueue(
	ctx context.Context,
	s *streamState,
) (_err error) {
	logger.Tracef(ctx, "fillQueue(%s)", s)
	defer func() { logger.Tracef(ctx, "/fillQueue(%s): %v", s, _err) }()

	for s.Queue.Count() < s.QueueThreshold && !c.sourceEOF {
		pkt, err := c.packetPool.Acquire()
		if err != nil {
			return fmt.Errorf("unable to acquire a packet: %w", err)
		}
		err = c.Source.ReadPacket(ctx, pkt)
		if err != nil {
			c.packetPool.Release(pkt)
			if errors.Is(err, io.EOF) {
				logger.Debugf(ctx, "reached the end of the container")
				c.sourceEOF = true
				return nil
			}
			return fmt.Errorf("unable to read a packet: %w", err)
		}

		dst := c.streamByIndex(pkt.StreamIndex())
		if dst == nil {
			c.packetPool.Release(pkt)
			continue
		}
		if dst.Queue.IsFull() && !dst.overflowWarned {
			logger.Warnf(ctx, "the packet queue of %s exceeded its capacity %d; the streams are probably interleaved too sparsely", dst, dst.Queue.Capacity)
			dst.overflowWarned = true
		}
		dst.Queue.Enqueue(pkt)
	}
	return nil
}

func (c *ContextLocked) streamByIndex(idx int) *streamState {
	if c.video != nil && c.video.Info.Index == idx {
		return &c.video.streamState
	}
	if c.audio != nil && c.audio.Info.Index == idx {
		return &c.audio.streamState
	}
	return nil
}

// Reset returns the context into the state right after it was opened:
// nothing is buffered, no frame is installed and the container is read
// from the start again.
func (c *ContextLocked) Reset(ctx context.Context) (_err error) {
	logger.Debugf(ctx, "Reset")
	defer func() { logger.Debugf(ctx, "/Reset: %v", _err) }()
	return c.Seek(ctx, 0)
}

// Seek drops everything buffered and repositions the container to the
// nearest point at or before t; the next advance to t skips the frames
// before it.
func (c *ContextLocked) Seek(
	ctx context.Context,
	t time.Duration,
) (_err error) {
	logger.Debugf(ctx, "Seek(%v)", t)
	defer func() { logger.Debugf(ctx, "/Seek(%v): %v", t, _err) }()
	if c.closed.Load() {
		return ErrClosed
	}
	c.resetState(ctx)
	if c.audio != nil {
		c.audio.discardBefore = t
	}
	if err := c.Source.SeekTo(ctx, t); err != nil {
		return c.fail(ctx, "seek the container", err)
	}
	return nil
}

// resetState drops all the buffered data and flags; it does not touch
// the container position.
func (c *ContextLocked) resetState(ctx context.Context) {
	logger.Tracef(ctx, "resetState")
	defer logger.Tracef(ctx, "/resetState")

	for _, s := range []*streamState{c.videoState(), c.audioState()} {
		if s == nil {
			continue
		}
		for _, pkt := range s.Queue.Clear() {
			c.packetPool.Release(pkt)
		}
	}
	if c.packetPool != nil {
		c.packetPool.Reset()
	}

	c.swapCurrentFrame(ctx, nil, avconv.NoDuration)
	if v := c.video; v != nil {
		v.Decoded.Clear()
		v.FramePool.Reset()
		v.scratch.Unref()
		v.resetFlags()
		v.Session.Decoder.FlushBuffers(ctx)
	}
	if a := c.audio; a != nil {
		a.resetAudio()
		a.Session.Decoder.FlushBuffers(ctx)
	}

	c.sourceEOF = false
	c.endOfStreamFired = false
	xatomic.StorePointer(&c.endOfStreamChan, ptr(make(chan struct{})))
}

func (c *ContextLocked) videoState() *streamState {
	if c.video == nil {
		return nil
	}
	return &c.video.streamState
}

func (c *ContextLocked) audioState() *streamState {
	if c.audio == nil {
		return nil
	}
	return &c.audio.streamState
}

// Close releases everything including the source. It is safe to call
// it multiple times.
func (c *ContextLocked) Close(ctx context.Context) error {
	return c.closeLocked(ctx)
}

func (c *ContextLocked) closeLocked(ctx context.Context) (_err error) {
	if c.closed.Swap(true) {
		return nil
	}
	logger.Debugf(ctx, "closeLocked")
	defer func() { logger.Debugf(ctx, "/closeLocked: %v", _err) }()

	c.resetState(ctx)

	var errs []error
	if v := c.video; v != nil {
		if err := v.Session.Close(ctx); err != nil {
			errs = append(errs, fmt.Errorf("unable to close the video session: %w", err))
		}
		v.scratch.Free()
	}
	if a := c.audio; a != nil {
		if err := a.Session.Close(ctx); err != nil {
			errs = append(errs, fmt.Errorf("unable to close the audio session: %w", err))
		}
		a.frame.Free()
	}
	if c.Source != nil {
		if err := c.Source.Close(ctx); err != nil {
			errs = append(errs, fmt.Errorf("unable to close the source: %w", err))
		}
	}
	return errors.Join(errs...)
}
