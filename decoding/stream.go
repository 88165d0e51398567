package decoding

import (
	"fmt"
	"time"

	"github.com/asticode/go-astiav"
	"github.com/xaionaro-go/avplayback/avconv"
	"github.com/xaionaro-go/avplayback/codec"
	"github.com/xaionaro-go/avplayback/frame"
	"github.com/xaionaro-go/avplayback/packet"
	"github.com/xaionaro-go/avplayback/pool"
	"github.com/xaionaro-go/avplayback/types"
)

// streamState is the part of the state shared by both the video and
// the audio stream.
type streamState struct {
	Info           types.StreamInfo
	StartTime      int64
	Queue          *packet.Queue[*astiav.Packet]
	QueueThreshold int

	// FlushSent is set when the end of the container was reached and the
	// decoder was asked to drain.
	FlushSent bool

	// EOF is set when the decoder is drained.
	EOF bool

	overflowWarned bool
}

func (s *streamState) String() string {
	return fmt.Sprintf("%s(queue:%d)", s.Info, s.Queue.Count())
}

func (s *streamState) timeOf(ts int64) time.Duration {
	return avconv.PresentationTime(ts, s.StartTime, s.Info.TimeBase)
}

func (s *streamState) resetFlags() {
	s.FlushSent = false
	s.EOF = false
	s.overflowWarned = false
}

type videoStream struct {
	streamState
	Session   *codec.VideoSession
	Target    codec.VideoTarget
	FramePool *pool.Pool[astiav.Frame]
	Decoded   *frame.Buffer

	// scratch is where the decoder writes frames before they
	// are converted into pooled output frames.
	scratch *astiav.Frame
}

type audioStream struct {
	streamState
	Session *codec.AudioSession
	Target  types.PCMFormat

	// frame is the decoded frame which is not consumed yet, if hasFrame.
	frame     *astiav.Frame
	hasFrame  bool
	frameTime time.Duration

	// decoding is set while the decoder may still yield frames for the
	// packets sent so far.
	decoding bool

	// nextTime is the expected time of the next frame; it is used for
	// frames without a timestamp.
	nextTime time.Duration

	// discardBefore is the time before which the decoded audio is dropped
	// (the container seeks to a point before the requested one).
	discardBefore time.Duration
}

func (a *audioStream) resetAudio() {
	a.resetFlags()
	if a.frame != nil {
		a.frame.Unref()
	}
	a.hasFrame = false
	a.frameTime = 0
	a.decoding = false
	a.nextTime = 0
	a.discardBefore = 0
}
