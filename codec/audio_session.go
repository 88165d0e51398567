package codec

import (
	"context"
	"errors"
	"fmt"

	"github.com/asticode/go-astiav"
	"github.com/xaionaro-go/avplayback/logger"
	"github.com/xaionaro-go/avplayback/resampler"
	"github.com/xaionaro-go/avplayback/types"
)

// AudioSession is a decoder of an audio stream together with the
// (lazily built) conversion into the output PCM format.
type AudioSession struct {
	Decoder Decoder
	Stream  types.StreamInfo

	resampler      *resampler.Resampler
	resamplerInput types.PCMFormat
}

func NewAudioSession(
	decoder Decoder,
	stream types.StreamInfo,
) *AudioSession {
	return &AudioSession{
		Decoder: decoder,
		Stream:  stream,
	}
}

func (s *AudioSession) String() string {
	return fmt.Sprintf("AudioSession(%s; %s)", s.Stream, s.Decoder.Parameters())
}

func (s *AudioSession) Channels() int {
	return s.Decoder.Parameters().ChannelLayout.Channels()
}

func (s *AudioSession) SampleRate() int {
	return s.Decoder.Parameters().SampleRate
}

// SampleWidth is the size of a single sample of a single channel in bytes.
func (s *AudioSession) SampleWidth() int {
	return s.Decoder.Parameters().SampleFormat.BytesPerSample()
}

func (s *AudioSession) PCMFormat() types.PCMFormat {
	return s.Decoder.Parameters().PCMFormat()
}

func (s *AudioSession) CodecName() string {
	return s.Decoder.Parameters().CodecName
}

// GetResampler returns a resampler from the given source format into the
// target one. The previously built resampler is reused if neither side changed.
func (s *AudioSession) GetResampler(
	ctx context.Context,
	in types.PCMFormat,
	target types.PCMFormat,
) (_ret *resampler.Resampler, _err error) {
	if s.resampler != nil && s.resamplerInput.Equal(in) && s.resampler.FormatOutput.Equal(target) {
		return s.resampler, nil
	}

	logger.Debugf(ctx, "GetResampler(ctx, %s, %s)", in, target)
	defer func() { logger.Debugf(ctx, "/GetResampler(ctx, %s, %s): %v %v", in, target, _ret, _err) }()

	if err := s.closeResampler(ctx); err != nil {
		logger.Errorf(ctx, "unable to close the previous resampler: %v", err)
	}
	r, err := resampler.New(ctx, in, target)
	if err != nil {
		return nil, NewDecodeError("create a resampler", err)
	}
	s.resampler = r
	s.resamplerInput = in
	return r, nil
}

// ConvertFrame resamples the decoded frame src into the target format
// and appends the result to dst.
func (s *AudioSession) ConvertFrame(
	ctx context.Context,
	src *astiav.Frame,
	target types.PCMFormat,
	dst []byte,
) ([]byte, error) {
	in := types.PCMFormat{
		SampleFormat:  src.SampleFormat(),
		SampleRate:    src.SampleRate(),
		ChannelLayout: src.ChannelLayout(),
	}
	r, err := s.GetResampler(ctx, in, target)
	if err != nil {
		return dst, err
	}
	dst, err = r.Convert(ctx, src, dst)
	if err != nil {
		return dst, NewDecodeError("resample a frame", err)
	}
	return dst, nil
}

func (s *AudioSession) closeResampler(ctx context.Context) error {
	if s.resampler == nil {
		return nil
	}
	err := s.resampler.Close(ctx)
	s.resampler = nil
	s.resamplerInput = types.PCMFormat{}
	return err
}

func (s *AudioSession) Close(ctx context.Context) error {
	var errs []error
	if err := s.closeResampler(ctx); err != nil {
		errs = append(errs, fmt.Errorf("unable to close the resampler: %w", err))
	}
	if err := s.Decoder.Close(ctx); err != nil {
		errs = append(errs, fmt.Errorf("unable to close the decoder: %w", err))
	}
	return errors.Join(errs...)
}
