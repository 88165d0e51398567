package codec

import (
	"context"
	"fmt"

	"github.com/asticode/go-astiav"
	"github.com/xaionaro-go/avplayback/types"
)

// Decoder is a stateful packet-to-frame decoder. Errors follow the libav
// convention: astiav.ErrEagain and astiav.ErrEof are control flow, anything
// else is a failure.
type Decoder interface {
	fmt.Stringer

	// SendPacket feeds a compressed packet; a nil packet starts draining.
	SendPacket(ctx context.Context, pkt *astiav.Packet) error
	ReceiveFrame(ctx context.Context, f *astiav.Frame) error
	FlushBuffers(ctx context.Context)
	Parameters() Parameters
	Close(ctx context.Context) error
}

type DecoderFactory interface {
	fmt.Stringer

	NewDecoder(ctx context.Context, stream types.StreamInfo) (Decoder, error)
}

// Parameters are the native properties of the decoded stream.
type Parameters struct {
	MediaType astiav.MediaType
	CodecName string

	Width       int
	Height      int
	PixelFormat astiav.PixelFormat

	SampleRate    int
	SampleFormat  astiav.SampleFormat
	ChannelLayout astiav.ChannelLayout
}

func (p Parameters) Resolution() types.Resolution {
	return types.Resolution{
		Width:  uint32(p.Width),
		Height: uint32(p.Height),
	}
}

func (p Parameters) PCMFormat() types.PCMFormat {
	return types.PCMFormat{
		SampleFormat:  p.SampleFormat,
		SampleRate:    p.SampleRate,
		ChannelLayout: p.ChannelLayout,
	}
}

func (p Parameters) String() string {
	switch p.MediaType {
	case astiav.MediaTypeVideo:
		return fmt.Sprintf("%s:%dx%d:%s", p.CodecName, p.Width, p.Height, p.PixelFormat)
	case astiav.MediaTypeAudio:
		return fmt.Sprintf("%s:%s", p.CodecName, p.PCMFormat())
	default:
		return fmt.Sprintf("%s:%s", p.CodecName, p.MediaType)
	}
}
