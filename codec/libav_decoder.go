package codec

import (
	"context"
	"fmt"
	"strconv"

	"github.com/asticode/go-astiav"
	"github.com/asticode/go-astikit"
	"github.com/davecgh/go-spew/spew"
	"github.com/facebookincubator/go-belt"
	"github.com/xaionaro-go/avplayback/logger"
	"github.com/xaionaro-go/avplayback/types"
)

type LibAVDecoderParams struct {
	CodecName     Name
	CustomOptions types.DictionaryItems

	// ThreadCount is the amount of decoding threads; zero lets libav decide.
	ThreadCount int
}

// LibAVDecoder is a Decoder backed by an FFmpeg codec context.
type LibAVDecoder struct {
	codec        *astiav.Codec
	codecContext *astiav.CodecContext
	closer       *astikit.Closer
}

var _ Decoder = (*LibAVDecoder)(nil)

func NewLibAVDecoder(
	ctx context.Context,
	stream types.StreamInfo,
	params LibAVDecoderParams,
) (_ret *LibAVDecoder, _err error) {
	codecParameters := stream.CodecParameters
	if codecParameters == nil {
		return nil, fmt.Errorf("%s has no codec parameters", stream)
	}
	ctx = belt.WithField(ctx, "stream_index", stream.Index)
	ctx = belt.WithField(ctx, "codec_id", codecParameters.CodecID())
	logger.Debugf(ctx, "NewLibAVDecoder(ctx, %s, %#+v)", stream, params)
	defer func() { logger.Debugf(ctx, "/NewLibAVDecoder(ctx, %s, %#+v): %v", stream, params, _err) }()

	d := &LibAVDecoder{
		closer: astikit.NewCloser(),
	}
	defer func() {
		if _err != nil {
			logger.Debugf(ctx, "got an error, closing the decoder: %v", _err)
			_ = d.Close(ctx)
		}
	}()

	d.codec = findDecoderCodec(ctx, codecParameters.CodecID(), params.CodecName)
	if d.codec == nil {
		return nil, fmt.Errorf("unable to find a decoder using name '%s' or codec ID %v", params.CodecName, codecParameters.CodecID())
	}
	ctx = belt.WithField(ctx, "codec_name", d.codec.Name())

	d.codecContext = astiav.AllocCodecContext(d.codec)
	if d.codecContext == nil {
		return nil, fmt.Errorf("unable to allocate codec context")
	}
	d.closer.Add(d.codecContext.Free)

	if err := codecParameters.ToCodecContext(d.codecContext); err != nil {
		return nil, fmt.Errorf("codecParameters.ToCodecContext(...) returned error: %w", err)
	}
	d.codecContext.SetPktTimeBase(stream.TimeBase)

	opts := params.CustomOptions
	if params.ThreadCount > 0 {
		opts = append(types.DictionaryItems{{Key: "threads", Value: strconv.Itoa(params.ThreadCount)}}, opts...)
	}
	var options *astiav.Dictionary
	if opts = opts.Deduplicate(); len(opts) > 0 {
		options = astiav.NewDictionary()
		d.closer.Add(options.Free)
		for _, opt := range opts {
			if opt.Key == "sample_fmt" && stream.MediaType == astiav.MediaTypeAudio {
				sampleFormat, err := ParseSampleFormat(opt.Value)
				if err != nil {
					return nil, fmt.Errorf("unable to parse option 'sample_fmt': %w", err)
				}
				opt = types.DictionaryItem{Key: "request_sample_fmt", Value: sampleFormat.Name()}
			}
			logger.Debugf(ctx, "decoder option '%s' = '%s'", opt.Key, opt.Value)
			if err := options.Set(opt.Key, opt.Value, 0); err != nil {
				return nil, fmt.Errorf("unable to set option '%s' to '%s': %w", opt.Key, opt.Value, err)
			}
		}
	}

	if logger.FromCtx(ctx).Level() >= logger.LevelTrace {
		logger.Tracef(ctx, "stream: %s", spew.Sdump(stream))
	}

	if err := d.codecContext.Open(d.codec, options); err != nil {
		return nil, fmt.Errorf("unable to open codec context: %w", err)
	}
	return d, nil
}

func (d *LibAVDecoder) String() string {
	if d.codec == nil {
		return "LibAVDecoder(closed)"
	}
	return fmt.Sprintf("LibAVDecoder(%s)", d.codec.Name())
}

func (d *LibAVDecoder) CodecContext() *astiav.CodecContext {
	return d.codecContext
}

func (d *LibAVDecoder) SendPacket(
	ctx context.Context,
	pkt *astiav.Packet,
) error {
	if d.codecContext == nil {
		return fmt.Errorf("the decoder is closed")
	}
	return d.codecContext.SendPacket(pkt)
}

func (d *LibAVDecoder) ReceiveFrame(
	ctx context.Context,
	f *astiav.Frame,
) error {
	if d.codecContext == nil {
		return fmt.Errorf("the decoder is closed")
	}
	return d.codecContext.ReceiveFrame(f)
}

func (d *LibAVDecoder) FlushBuffers(ctx context.Context) {
	logger.Tracef(ctx, "FlushBuffers")
	if d.codecContext == nil {
		return
	}
	d.codecContext.FlushBuffers()
}

func (d *LibAVDecoder) Parameters() Parameters {
	if d.codecContext == nil {
		return Parameters{}
	}
	cc := d.codecContext
	return Parameters{
		MediaType:     cc.MediaType(),
		CodecName:     d.codec.Name(),
		Width:         cc.Width(),
		Height:        cc.Height(),
		PixelFormat:   cc.PixelFormat(),
		SampleRate:    cc.SampleRate(),
		SampleFormat:  cc.SampleFormat(),
		ChannelLayout: cc.ChannelLayout(),
	}
}

func (d *LibAVDecoder) Close(ctx context.Context) (_err error) {
	logger.Debugf(ctx, "Close")
	defer func() { logger.Debugf(ctx, "/Close: %v", _err) }()
	defer func() {
		d.codec = nil
		d.codecContext = nil
		d.closer = nil
	}()
	if d.closer == nil {
		return nil
	}
	belt.Flush(ctx) // we want to flush the logs before a SEGFAULT-risky operation:
	return d.closer.Close()
}
