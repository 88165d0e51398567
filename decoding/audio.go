package decoding

import (
	"context"
	"time"

	"github.com/xaionaro-go/avplayback/avconv"
	"github.com/xaionaro-go/avplayback/codec"
	"github.com/xaionaro-go/avplayback/logger"
	"github.com/xaionaro-go/avplayback/types"
)

// ReadAudioUntil decodes the audio up to the time t+slack and submits
// the result to the sink as a single buffer. The first frame beyond that
// time stays buffered for the next call.
func (c *ContextLocked) ReadAudioUntil(
	ctx context.Context,
	sink types.AudioSink,
	t time.Duration,
	slack time.Duration,
) (_err error) {
	logger.Tracef(ctx, "ReadAudioUntil(%v, %v)", t, slack)
	defer func() { logger.Tracef(ctx, "/ReadAudioUntil(%v, %v): %v", t, slack, _err) }()
	if c.closed.Load() {
		return ErrClosed
	}
	a := c.audio
	if a == nil {
		return nil
	}
	limit := t + slack
	if a.hasFrame && a.frameTime > limit {
		return nil
	}
	defer c.collect(ctx)

	var buf []byte
	for {
		if !a.hasFrame {
			ok, err := c.decodeAudioFrame(ctx)
			if err != nil {
				return err
			}
			if !ok {
				break
			}
		}
		if a.frameTime > limit {
			break
		}

		if a.frameTime+frameDuration(a) > a.discardBefore {
			var err error
			buf, err = a.Session.ConvertFrame(ctx, a.frame, a.Target, buf)
			if err != nil {
				return c.fail(ctx, "convert an audio frame", err)
			}
		} else {
			logger.Tracef(ctx, "skipping the audio frame at %v", a.frameTime)
		}
		a.frame.Unref()
		a.hasFrame = false
	}
	if len(buf) == 0 {
		return nil
	}

	logger.Tracef(ctx, "submitting %d bytes of audio", len(buf))
	if err := sink.Submit(ctx, buf); err != nil {
		return c.fail(ctx, "submit audio", err)
	}
	if sink.State() == types.AudioSinkStateStopped {
		logger.Debugf(ctx, "starting the audio sink")
		if err := sink.Play(ctx); err != nil {
			return c.fail(ctx, "start the audio sink", err)
		}
	}
	return nil
}

func frameDuration(a *audioStream) time.Duration {
	rate := a.frame.SampleRate()
	if rate <= 0 {
		return 0
	}
	return time.Duration(a.frame.NbSamples()) * time.Second / time.Duration(rate)
}

// decodeAudioFrame decodes the next audio frame into a.frame. If the
// decoder still has frames of the packets sent before, they are used
// first. Returns false if the stream is exhausted.
func (c *ContextLocked) decodeAudioFrame(ctx context.Context) (bool, error) {
	a := c.audio
	dec := a.Session.Decoder
	rejected := 0
	for !a.EOF {
		if a.decoding {
			err := dec.ReceiveFrame(ctx, a.frame)
			switch {
			case err == nil:
				c.setAudioFrameTime(ctx)
				a.hasFrame = true
				return true, nil
			case codec.IsAgain(err):
				a.decoding = false
			case codec.IsEOF(err):
				logger.Debugf(ctx, "the audio decoder is drained")
				a.decoding = false
				a.EOF = true
				return false, nil
			default:
				return false, c.fail(ctx, "receive an audio frame", err)
			}
		}

		pkt, err := c.nextPacket(ctx, &a.streamState)
		if err != nil {
			return false, c.fail(ctx, "read an audio packet", err)
		}
		if pkt == nil {
			if a.FlushSent {
				logger.Warnf(ctx, "the audio decoder did not report the end of the stream after the flush")
				a.EOF = true
				return false, nil
			}
			a.FlushSent = true
		}

		err = dec.SendPacket(ctx, pkt)
		switch {
		case err == nil:
			rejected = 0
			if pkt != nil {
				c.packetPool.Release(pkt)
			}
		case codec.IsAgain(err):
			rejected++
			if rejected > 1 {
				if pkt != nil {
					c.packetPool.Release(pkt)
				}
				return false, c.fail(ctx, "send an audio packet", err)
			}
			// the decoder has pending frames, the packet goes back to be resent
			if pkt != nil {
				a.Queue.Enqueue(pkt)
			} else {
				a.FlushSent = false
			}
		case codec.IsEOF(err):
			if pkt != nil {
				c.packetPool.Release(pkt)
			}
		default:
			if pkt != nil {
				c.packetPool.Release(pkt)
			}
			return false, c.fail(ctx, "send an audio packet", err)
		}
		a.decoding = true
	}
	return false, nil
}

func (c *ContextLocked) setAudioFrameTime(ctx context.Context) {
	a := c.audio
	pts := a.frame.Pts()
	if avconv.IsNoPTS(pts) {
		pts = a.frame.PktDts()
	}
	if avconv.IsNoPTS(pts) {
		logger.Tracef(ctx, "an audio frame without a timestamp, assuming %v", a.nextTime)
		a.frameTime = a.nextTime
	} else {
		a.frameTime = a.timeOf(pts)
	}
	a.nextTime = a.frameTime + frameDuration(a)
}
