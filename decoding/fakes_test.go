package decoding

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/asticode/go-astiav"
	"github.com/xaionaro-go/avplayback/avconv"
	"github.com/xaionaro-go/avplayback/codec"
	"github.com/xaionaro-go/avplayback/types"
)

type dummyPacket struct {
	StreamIndex int
	PTS         int64
}

type dummySource struct {
	StreamsValue  []types.StreamInfo
	FormatNameStr string
	Packets       []dummyPacket

	Position    int
	SeekCalls   []time.Duration
	CloseCount  int
	ReadPackets int
}

var _ Source = (*dummySource)(nil)

func (s *dummySource) Streams() []types.StreamInfo { return s.StreamsValue }
func (s *dummySource) FormatName() string          { return s.FormatNameStr }
func (s *dummySource) Duration() time.Duration     { return 0 }

func (s *dummySource) ReadPacket(ctx context.Context, pkt *astiav.Packet) error {
	if s.Position >= len(s.Packets) {
		return io.EOF
	}
	p := s.Packets[s.Position]
	s.Position++
	s.ReadPackets++
	pkt.SetStreamIndex(p.StreamIndex)
	pkt.SetPts(p.PTS)
	pkt.SetDts(p.PTS)
	return nil
}

func (s *dummySource) SeekTo(ctx context.Context, t time.Duration) error {
	s.SeekCalls = append(s.SeekCalls, t)
	// the last packet at or before t, like a keyframe seek would do
	s.Position = 0
	for idx, p := range s.Packets {
		tb := s.StreamsValue[p.StreamIndex].TimeBase
		if avconv.Duration(p.PTS, tb) <= t {
			s.Position = idx
		}
	}
	return nil
}

func (s *dummySource) Close(ctx context.Context) error {
	s.CloseCount++
	return nil
}

// dummyDecoder yields FramesPerPacket frames per packet, with timestamps
// pkt.Pts()+i*FrameStep.
type dummyDecoder struct {
	Params          codec.Parameters
	FramesPerPacket int
	FrameStep       int64
	NbSamples       int

	// FailAtPacket makes the N-th (1-based) SendPacket call fail.
	FailAtPacket int

	Locker      sync.Mutex
	pending     []int64
	flushing    bool
	SentPackets []int64
	Flushes     int
	CloseCount  int
}

var _ codec.Decoder = (*dummyDecoder)(nil)

func (d *dummyDecoder) String() string { return fmt.Sprintf("dummyDecoder(%s)", d.Params.MediaType) }

func (d *dummyDecoder) SendPacket(ctx context.Context, pkt *astiav.Packet) error {
	d.Locker.Lock()
	defer d.Locker.Unlock()
	if pkt == nil {
		d.flushing = true
		return nil
	}
	if d.flushing {
		return astiav.ErrEof
	}
	if d.FailAtPacket > 0 && len(d.SentPackets)+1 == d.FailAtPacket {
		return astiav.ErrEinval
	}
	d.SentPackets = append(d.SentPackets, pkt.Pts())
	framesPerPacket := max(d.FramesPerPacket, 1)
	for i := range framesPerPacket {
		d.pending = append(d.pending, pkt.Pts()+int64(i)*d.FrameStep)
	}
	return nil
}

func (d *dummyDecoder) ReceiveFrame(ctx context.Context, f *astiav.Frame) error {
	d.Locker.Lock()
	defer d.Locker.Unlock()
	if len(d.pending) == 0 {
		if d.flushing {
			return astiav.ErrEof
		}
		return astiav.ErrEagain
	}
	pts := d.pending[0]
	d.pending = d.pending[1:]

	switch d.Params.MediaType {
	case astiav.MediaTypeVideo:
		f.SetWidth(d.Params.Width)
		f.SetHeight(d.Params.Height)
		f.SetPixelFormat(d.Params.PixelFormat)
		if err := f.AllocBuffer(0); err != nil {
			return err
		}
		if err := f.ImageFillBlack(); err != nil {
			return err
		}
	case astiav.MediaTypeAudio:
		f.SetSampleFormat(d.Params.SampleFormat)
		f.SetSampleRate(d.Params.SampleRate)
		f.SetChannelLayout(d.Params.ChannelLayout)
		f.SetNbSamples(d.NbSamples)
		if err := f.AllocBuffer(0); err != nil {
			return err
		}
	}
	f.SetPts(pts)
	return nil
}

func (d *dummyDecoder) FlushBuffers(ctx context.Context) {
	d.Locker.Lock()
	defer d.Locker.Unlock()
	d.pending = nil
	d.flushing = false
	d.Flushes++
}

func (d *dummyDecoder) Parameters() codec.Parameters { return d.Params }

func (d *dummyDecoder) Close(ctx context.Context) error {
	d.Locker.Lock()
	defer d.Locker.Unlock()
	d.CloseCount++
	return nil
}

type dummyDecoderFactory struct {
	Decoders map[astiav.MediaType]*dummyDecoder
	Err      map[astiav.MediaType]error
}

var _ codec.DecoderFactory = (*dummyDecoderFactory)(nil)

func (f *dummyDecoderFactory) String() string { return "dummyDecoderFactory" }

func (f *dummyDecoderFactory) NewDecoder(ctx context.Context, stream types.StreamInfo) (codec.Decoder, error) {
	if err := f.Err[stream.MediaType]; err != nil {
		return nil, err
	}
	d, ok := f.Decoders[stream.MediaType]
	if !ok {
		return nil, fmt.Errorf("no decoder for %s", stream.MediaType)
	}
	return d, nil
}

type dummySink struct {
	Locker    sync.Mutex
	Submitted [][]byte
	PlayCount int
	StateVal  types.AudioSinkState
}

var _ types.AudioSink = (*dummySink)(nil)

func (s *dummySink) Submit(ctx context.Context, pcm []byte) error {
	s.Locker.Lock()
	defer s.Locker.Unlock()
	s.Submitted = append(s.Submitted, pcm)
	return nil
}

func (s *dummySink) Play(ctx context.Context) error {
	s.Locker.Lock()
	defer s.Locker.Unlock()
	s.PlayCount++
	s.StateVal = types.AudioSinkStatePlaying
	return nil
}

func (s *dummySink) Pause(ctx context.Context) error {
	s.Locker.Lock()
	defer s.Locker.Unlock()
	s.StateVal = types.AudioSinkStatePaused
	return nil
}

func (s *dummySink) Stop(ctx context.Context) error {
	s.Locker.Lock()
	defer s.Locker.Unlock()
	s.StateVal = types.AudioSinkStateStopped
	return nil
}

func (s *dummySink) State() types.AudioSinkState {
	s.Locker.Lock()
	defer s.Locker.Unlock()
	return s.StateVal
}

func (s *dummySink) TotalBytes() int {
	s.Locker.Lock()
	defer s.Locker.Unlock()
	total := 0
	for _, buf := range s.Submitted {
		total += len(buf)
	}
	return total
}

const (
	testVideoWidth  = 32
	testVideoHeight = 16
	testFrameRate   = 32
	testFrameDur    = time.Second / testFrameRate
)

func videoStreamInfo(index int) types.StreamInfo {
	return types.StreamInfo{
		Index:        index,
		MediaType:    astiav.MediaTypeVideo,
		TimeBase:     astiav.NewRational(1, testFrameRate),
		AvgFrameRate: astiav.NewRational(testFrameRate, 1),
	}
}

func newVideoDecoder() *dummyDecoder {
	return &dummyDecoder{
		Params: codec.Parameters{
			MediaType:   astiav.MediaTypeVideo,
			CodecName:   "dummy-video",
			Width:       testVideoWidth,
			Height:      testVideoHeight,
			PixelFormat: astiav.PixelFormatYuv420P,
		},
	}
}

const (
	testSampleRate      = 8192
	testSamplesPerFrame = 256 // 31.25ms
	testFramesPerPacket = 4   // 125ms
	testAudioFrameBytes = testSamplesPerFrame * 2 * 2
)

func audioStreamInfo(index int) types.StreamInfo {
	return types.StreamInfo{
		Index:     index,
		MediaType: astiav.MediaTypeAudio,
		TimeBase:  astiav.NewRational(1, testSampleRate),
	}
}

func newAudioDecoder() *dummyDecoder {
	return &dummyDecoder{
		Params: codec.Parameters{
			MediaType:     astiav.MediaTypeAudio,
			CodecName:     "dummy-audio",
			SampleRate:    testSampleRate,
			SampleFormat:  astiav.SampleFormatS16,
			ChannelLayout: astiav.ChannelLayoutStereo,
		},
		FramesPerPacket: testFramesPerPacket,
		FrameStep:       testSamplesPerFrame,
		NbSamples:       testSamplesPerFrame,
	}
}

func videoPackets(streamIndex int, count int) []dummyPacket {
	result := make([]dummyPacket, 0, count)
	for i := range count {
		result = append(result, dummyPacket{StreamIndex: streamIndex, PTS: int64(i)})
	}
	return result
}

func audioPackets(streamIndex int, count int) []dummyPacket {
	result := make([]dummyPacket, 0, count)
	for i := range count {
		result = append(result, dummyPacket{StreamIndex: streamIndex, PTS: int64(i * testSamplesPerFrame * testFramesPerPacket)})
	}
	return result
}

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.VideoQueueSizeThreshold = 4
	cfg.AudioQueueSizeThreshold = 2
	cfg.AudioSampleRate = testSampleRate
	cfg.ScalingMethod = types.ScalingMethodPoint
	return cfg
}
