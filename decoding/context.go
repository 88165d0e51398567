// Package decoding synchronizes the decoding of a container to an
// external playback clock.
package decoding

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/asticode/go-astiav"
	"github.com/facebookincubator/go-belt"
	"github.com/xaionaro-go/avplayback/avconv"
	"github.com/xaionaro-go/avplayback/codec"
	"github.com/xaionaro-go/avplayback/frame"
	"github.com/xaionaro-go/avplayback/logger"
	"github.com/xaionaro-go/avplayback/packet"
	"github.com/xaionaro-go/avplayback/pool"
	"github.com/xaionaro-go/avplayback/types"
	"github.com/xaionaro-go/xsync"
	"go.uber.org/atomic"
)

const (
	// OutputPixelFormat is the pixel format of the output video frames.
	OutputPixelFormat = astiav.PixelFormatRgba
)

// legacyStartTimeFormats are the container formats whose per-stream start
// times are unreliable; for them all the streams start at the earliest one.
var legacyStartTimeFormats = []string{"mpeg", "mpegts", "mpegtsraw", "mpegvideo"}

// ContextLocked is a Context whose advance lock is already held by the caller.
type ContextLocked struct {
	locker xsync.Mutex
	Config Config
	Source Source

	packetPool *pool.Pool[astiav.Packet]
	video      *videoStream
	audio      *audioStream
	sourceEOF  bool

	currentFrameLocker xsync.Mutex
	currentFrame       *astiav.Frame
	currentFrameTime   time.Duration

	endOfStreamChan  *chan struct{}
	endOfStreamFired bool

	closed atomic.Bool
}

// Context decodes the first video and the first audio stream of
// a Source on demand, up to the requested presentation time.
//
// Advancing (ReadVideoUntil/ReadAudioUntil/Advance), Reset, Seek and Close
// are serialized by the advance lock; the current video frame is guarded
// by a separate lock, so reading it never waits for decoding.
type Context ContextLocked

// NewContext selects the streams of the source and opens the decoders.
// On failure the source is closed and a *codec.DecodeError is returned.
func NewContext(
	ctx context.Context,
	source Source,
	decoderFactory codec.DecoderFactory,
	cfg Config,
) (_ret *Context, _err error) {
	logger.Debugf(ctx, "NewContext")
	defer func() { logger.Debugf(ctx, "/NewContext: %v", _err) }()

	c := &Context{
		Config:           cfg,
		Source:           source,
		currentFrameTime: avconv.NoDuration,
		endOfStreamChan:  ptr(make(chan struct{})),
	}
	defer func() {
		if _err != nil {
			if err := c.asLocked().closeLocked(ctx); err != nil {
				logger.Errorf(ctx, "unable to close the partially initialized context: %v", err)
			}
		}
	}()

	if err := cfg.Options.Validate(); err != nil {
		return nil, codec.NewDecodeError("validate the options", err)
	}

	c.packetPool = packet.NewPool(cfg.PacketPoolCollectThreshold)

	var videoInfo, audioInfo *types.StreamInfo
	for _, stream := range source.Streams() {
		switch stream.MediaType {
		case astiav.MediaTypeVideo:
			if videoInfo == nil {
				videoInfo = ptr(stream)
				continue
			}
		case astiav.MediaTypeAudio:
			if audioInfo == nil {
				audioInfo = ptr(stream)
				continue
			}
		}
		logger.Debugf(ctx, "ignoring %s", stream)
	}
	if videoInfo == nil && audioInfo == nil {
		return nil, codec.NewDecodeError("select streams", fmt.Errorf("no audio or video streams found"))
	}
	startTimes := startTimes(ctx, source.FormatName(), videoInfo, audioInfo)

	if videoInfo != nil {
		v, err := c.newVideoStream(ctx, decoderFactory, *videoInfo, startTimes[videoInfo.Index])
		if err != nil {
			return nil, err
		}
		c.video = v
	}
	if audioInfo != nil {
		a, err := c.newAudioStream(ctx, decoderFactory, *audioInfo, startTimes[audioInfo.Index])
		if err != nil {
			return nil, err
		}
		c.audio = a
	}
	return c, nil
}

func (c *Context) newVideoStream(
	ctx context.Context,
	decoderFactory codec.DecoderFactory,
	info types.StreamInfo,
	startTime int64,
) (_ret *videoStream, _err error) {
	ctx = belt.WithField(ctx, "stream_index", info.Index)
	dec, err := decoderFactory.NewDecoder(ctx, info)
	if err != nil {
		return nil, codec.NewDecodeError("open the video decoder", err)
	}
	v := &videoStream{
		streamState: streamState{
			Info:           info,
			StartTime:      startTime,
			Queue:          packet.NewQueue[*astiav.Packet](c.Config.PacketOrder, c.Config.VideoPacketQueueCapacity),
			QueueThreshold: c.Config.VideoQueueSizeThreshold,
		},
		Session: codec.NewVideoSession(dec, info),
		Decoded: frame.NewBuffer(),
	}
	defer func() {
		if _err != nil {
			if err := v.Session.Close(ctx); err != nil {
				logger.Errorf(ctx, "unable to close the video session: %v", err)
			}
			if v.scratch != nil {
				v.scratch.Free()
			}
		}
	}()

	outRes := c.Config.VideoOutput
	if outRes.IsZero() {
		outRes = v.Session.Resolution()
	}
	if outRes.IsZero() {
		return nil, codec.NewDecodeError("open the video decoder", fmt.Errorf("the resolution of %s is unknown", info))
	}
	v.Target = codec.VideoTarget{
		Resolution:  outRes,
		PixelFormat: OutputPixelFormat,
		Method:      c.Config.ScalingMethod,
	}
	v.scratch = astiav.AllocFrame()
	if v.scratch == nil {
		return nil, codec.NewDecodeError("allocate a frame", fmt.Errorf("out of memory"))
	}
	v.FramePool = frame.NewVideoPool(ctx, c.Config.FramePoolCollectThreshold, outRes, OutputPixelFormat)
	logger.Debugf(ctx, "video: %s -> %s", v.Session, v.Target)
	return v, nil
}

func (c *Context) newAudioStream(
	ctx context.Context,
	decoderFactory codec.DecoderFactory,
	info types.StreamInfo,
	startTime int64,
) (*audioStream, error) {
	ctx = belt.WithField(ctx, "stream_index", info.Index)
	dec, err := decoderFactory.NewDecoder(ctx, info)
	if err != nil {
		return nil, codec.NewDecodeError("open the audio decoder", err)
	}
	a := &audioStream{
		streamState: streamState{
			Info:           info,
			StartTime:      startTime,
			Queue:          packet.NewQueue[*astiav.Packet](c.Config.PacketOrder, c.Config.AudioPacketQueueCapacity),
			QueueThreshold: c.Config.AudioQueueSizeThreshold,
		},
		Session: codec.NewAudioSession(dec, info),
		Target: types.PCMFormat{
			SampleFormat:  astiav.SampleFormatS16,
			SampleRate:    c.Config.AudioSampleRate,
			ChannelLayout: astiav.ChannelLayoutStereo,
		},
		frame: astiav.AllocFrame(),
	}
	if a.frame == nil {
		_ = a.Session.Close(ctx)
		return nil, codec.NewDecodeError("allocate a frame", fmt.Errorf("out of memory"))
	}
	logger.Debugf(ctx, "audio: %s -> %s", a.Session, a.Target)
	return a, nil
}

// startTimes returns the start offset (in stream time base units) of each
// of the given streams.
func startTimes(
	ctx context.Context,
	formatName string,
	streams ...*types.StreamInfo,
) map[int]int64 {
	result := map[int]int64{}
	for _, s := range streams {
		if s == nil {
			continue
		}
		if s.StartTime.IsSet() {
			result[s.Index] = s.StartTime.Get()
		}
	}

	isLegacy := slices.ContainsFunc(strings.Split(formatName, ","), func(name string) bool {
		return slices.Contains(legacyStartTimeFormats, strings.TrimSpace(name))
	})
	if !isLegacy {
		return result
	}

	earliest := avconv.NoDuration
	for _, s := range streams {
		if s == nil || !s.StartTime.IsSet() {
			continue
		}
		t := avconv.Duration(s.StartTime.Get(), s.TimeBase)
		if earliest == avconv.NoDuration || t < earliest {
			earliest = t
		}
	}
	if earliest == avconv.NoDuration {
		return result
	}
	logger.Debugf(ctx, "format '%s' requires the start time correction; using %v for all streams", formatName, earliest)
	for _, s := range streams {
		if s == nil {
			continue
		}
		result[s.Index] = avconv.FromDuration(earliest, s.TimeBase)
	}
	return result
}

func (c *Context) asLocked() *ContextLocked {
	return (*ContextLocked)(c)
}

func (c *ContextLocked) AsUnlocked() *Context {
	return (*Context)(c)
}

func (c *Context) String() string {
	return fmt.Sprintf("DecodingContext(video:%v, audio:%v)", c.video != nil, c.audio != nil)
}

// LockedDo runs fn with the advance lock held.
func (c *Context) LockedDo(
	ctx context.Context,
	fn func(context.Context, *ContextLocked) error,
) error {
	return xsync.DoR1(ctx, &c.locker, func() error {
		return fn(ctx, c.asLocked())
	})
}

func (c *Context) ReadVideoUntil(
	ctx context.Context,
	t time.Duration,
) error {
	return xsync.DoA2R1(xsync.WithNoLogging(ctx, true), &c.locker, c.asLocked().ReadVideoUntil, ctx, t)
}

func (c *Context) ReadAudioUntil(
	ctx context.Context,
	sink types.AudioSink,
	t time.Duration,
	slack time.Duration,
) error {
	return xsync.DoA4R1(xsync.WithNoLogging(ctx, true), &c.locker, c.asLocked().ReadAudioUntil, ctx, sink, t, slack)
}

func (c *Context) Advance(
	ctx context.Context,
	sink types.AudioSink,
	t time.Duration,
	slack time.Duration,
) error {
	return xsync.DoA4R1(xsync.WithNoLogging(ctx, true), &c.locker, c.asLocked().Advance, ctx, sink, t, slack)
}

func (c *Context) Reset(ctx context.Context) error {
	return xsync.DoA1R1(ctx, &c.locker, c.asLocked().Reset, ctx)
}

func (c *Context) Seek(ctx context.Context, t time.Duration) error {
	return xsync.DoA2R1(ctx, &c.locker, c.asLocked().Seek, ctx, t)
}

func (c *Context) Close(ctx context.Context) error {
	return xsync.DoA1R1(ctx, &c.locker, c.asLocked().Close, ctx)
}

func (c *Context) IsClosed() bool {
	return c.closed.Load()
}

func (c *Context) Options() Options {
	return c.Config.Options
}

func (c *Context) HasVideo() bool {
	return c.video != nil
}

func (c *Context) HasAudio() bool {
	return c.audio != nil
}

// Duration is the duration of the container; zero if unknown.
func (c *Context) Duration() time.Duration {
	return c.Source.Duration()
}

// FrameRate is the average frame rate of the video stream; zero if unknown.
func (c *Context) FrameRate() float64 {
	if c.video == nil {
		return 0
	}
	return c.video.Session.FrameRate().Float64()
}

// VideoResolution is the resolution of the output frames.
func (c *Context) VideoResolution() types.Resolution {
	if c.video == nil {
		return types.Resolution{}
	}
	return c.video.Target.Resolution
}

func (c *Context) NativeVideoResolution() types.Resolution {
	if c.video == nil {
		return types.Resolution{}
	}
	return c.video.Session.Resolution()
}

func (c *Context) VideoCodecName() string {
	if c.video == nil {
		return ""
	}
	return c.video.Session.CodecName()
}

func (c *Context) AudioCodecName() string {
	if c.audio == nil {
		return ""
	}
	return c.audio.Session.CodecName()
}

// AudioFormat is the format of the PCM submitted to the audio sink.
func (c *Context) AudioFormat() types.PCMFormat {
	if c.audio == nil {
		return types.PCMFormat{}
	}
	return c.audio.Target
}

func ptr[T any](v T) *T {
	return &v
}
