package resampler

import (
	"context"
	"fmt"

	"github.com/asticode/go-astiav"
	"github.com/xaionaro-go/avplayback/internal"
	"github.com/xaionaro-go/avplayback/logger"
	"github.com/xaionaro-go/avplayback/types"
)

// Resampler converts decoded audio frames into packed PCM bytes of
// a fixed format.
type Resampler struct {
	SoftwareResampleContext *astiav.SoftwareResampleContext
	FormatInput             types.PCMFormat
	FormatOutput            types.PCMFormat
	ResampledFrame          *astiav.Frame
}

func New(
	ctx context.Context,
	in types.PCMFormat,
	out types.PCMFormat,
) (_ret *Resampler, _err error) {
	logger.Debugf(ctx, "New: %s -> %s", in, out)
	defer func() { logger.Debugf(ctx, "/New: %s -> %s: %v", in, out, _err) }()

	if out.SampleFormat.IsPlanar() {
		return nil, fmt.Errorf("the output sample format is expected to be packed, got %s", out.SampleFormat)
	}
	if out.SampleRate <= 0 || out.Channels() <= 0 {
		return nil, fmt.Errorf("invalid output format: %s", out)
	}

	swrCtx := astiav.AllocSoftwareResampleContext()
	if swrCtx == nil {
		return nil, fmt.Errorf("cannot alloc SoftwareResampleContext")
	}
	internal.SetFinalizerFree(ctx, swrCtx)

	resampledFrame := astiav.AllocFrame()
	if resampledFrame == nil {
		return nil, fmt.Errorf("cannot alloc the resampled frame")
	}
	internal.SetFinalizerFree(ctx, resampledFrame)

	return &Resampler{
		SoftwareResampleContext: swrCtx,
		FormatInput:             in,
		FormatOutput:            out,
		ResampledFrame:          resampledFrame,
	}, nil
}

func (r *Resampler) Close(ctx context.Context) (_err error) {
	logger.Debugf(ctx, "Close")
	defer func() { logger.Debugf(ctx, "/Close: %v", _err) }()

	// all of that will be automatically freed by finalizers
	r.SoftwareResampleContext = nil
	r.ResampledFrame = nil
	return nil
}

func (r *Resampler) String() string {
	return fmt.Sprintf("Resampler<%s -> %s>", r.FormatInput, r.FormatOutput)
}

// Convert resamples the frame and appends the resulting interleaved
// bytes to dst.
func (r *Resampler) Convert(
	ctx context.Context,
	in *astiav.Frame,
	dst []byte,
) (_ret []byte, _err error) {
	logger.Tracef(ctx, "Convert: %d", in.NbSamples())
	defer func() { logger.Tracef(ctx, "/Convert: %d: %v", in.NbSamples(), _err) }()

	if r.SoftwareResampleContext == nil {
		return dst, fmt.Errorf("the resampler is closed")
	}

	out := r.ResampledFrame
	defer out.Unref()
	out.SetChannelLayout(r.FormatOutput.ChannelLayout)
	out.SetSampleFormat(r.FormatOutput.SampleFormat)
	out.SetSampleRate(r.FormatOutput.SampleRate)

	if err := r.SoftwareResampleContext.ConvertFrame(in, out); err != nil {
		return dst, fmt.Errorf("cannot convert frame: %w", err)
	}
	if out.NbSamples() == 0 {
		return dst, nil
	}

	size, err := out.SamplesBufferSize(1)
	if err != nil {
		return dst, fmt.Errorf("unable to get sample buffer size: %w", err)
	}
	offset := len(dst)
	if cap(dst)-offset < size {
		grown := make([]byte, offset, offset+size+offset/2)
		copy(grown, dst)
		dst = grown
	}
	dst = dst[:offset+size]
	if _, err := out.SamplesCopyToBuffer(dst[offset:], 1); err != nil {
		return dst[:offset], fmt.Errorf("unable to copy samples to buffer: %w", err)
	}
	return dst, nil
}
