package codec

import (
	"context"
	"fmt"

	"github.com/asticode/go-astiav"
	"github.com/xaionaro-go/avplayback/types"
	"github.com/xaionaro-go/xsync"
)

type LibAVDecoderFactoryParams struct {
	VideoCodecName Name
	AudioCodecName Name
	VideoOptions   types.DictionaryItems
	AudioOptions   types.DictionaryItems
	ThreadCount    int
	PostInitFunc   func(context.Context, *LibAVDecoder)
}

func DefaultLibAVDecoderFactoryParams() *LibAVDecoderFactoryParams {
	return &LibAVDecoderFactoryParams{}
}

type LibAVDecoderFactory struct {
	LibAVDecoderFactoryParams
	Locker        xsync.Mutex
	VideoDecoders []*LibAVDecoder
	AudioDecoders []*LibAVDecoder
}

var _ DecoderFactory = (*LibAVDecoderFactory)(nil)

func NewLibAVDecoderFactory(
	params *LibAVDecoderFactoryParams,
) *LibAVDecoderFactory {
	if params == nil {
		params = DefaultLibAVDecoderFactoryParams()
	}
	return &LibAVDecoderFactory{
		LibAVDecoderFactoryParams: *params,
	}
}

func (f *LibAVDecoderFactory) String() string {
	return "LibAVDecoderFactory"
}

func (f *LibAVDecoderFactory) NewDecoder(
	ctx context.Context,
	stream types.StreamInfo,
) (Decoder, error) {
	return xsync.DoA2R2(ctx, &f.Locker, f.newDecoder, ctx, stream)
}

func (f *LibAVDecoderFactory) newDecoder(
	ctx context.Context,
	stream types.StreamInfo,
) (_ret Decoder, _err error) {
	var params LibAVDecoderParams
	switch stream.MediaType {
	case astiav.MediaTypeAudio:
		params = LibAVDecoderParams{
			CodecName:     f.AudioCodecName,
			CustomOptions: f.AudioOptions,
			ThreadCount:   f.ThreadCount,
		}
	case astiav.MediaTypeVideo:
		params = LibAVDecoderParams{
			CodecName:     f.VideoCodecName,
			CustomOptions: f.VideoOptions,
			ThreadCount:   f.ThreadCount,
		}
	default:
		return nil, fmt.Errorf("only audio and video streams are supported by LibAVDecoderFactory, but %s is %s", stream, stream.MediaType)
	}

	d, err := NewLibAVDecoder(ctx, stream, params)
	if err != nil {
		return nil, err
	}
	switch stream.MediaType {
	case astiav.MediaTypeAudio:
		f.AudioDecoders = append(f.AudioDecoders, d)
	case astiav.MediaTypeVideo:
		f.VideoDecoders = append(f.VideoDecoders, d)
	}
	if fn := f.PostInitFunc; fn != nil {
		fn(ctx, d)
	}
	return d, nil
}
