package codec

import (
	"context"
	"errors"
	"fmt"

	"github.com/asticode/go-astiav"
	"github.com/xaionaro-go/avplayback/logger"
	"github.com/xaionaro-go/avplayback/scaler"
	"github.com/xaionaro-go/avplayback/types"
)

// VideoTarget is the geometry and pixel format decoded frames are
// converted into.
type VideoTarget struct {
	Resolution  types.Resolution
	PixelFormat astiav.PixelFormat
	Method      types.ScalingMethod
}

func (t VideoTarget) String() string {
	return fmt.Sprintf("%s:%s(%s)", t.Resolution, t.PixelFormat, t.Method)
}

type scalerKey struct {
	SourceResolution  types.Resolution
	SourcePixelFormat astiav.PixelFormat
	Target            VideoTarget
}

// VideoSession is a decoder of a video stream together with the
// (lazily built) conversion into the output format.
type VideoSession struct {
	Decoder Decoder
	Stream  types.StreamInfo

	scaler    scaler.Scaler
	scalerKey scalerKey
}

func NewVideoSession(
	decoder Decoder,
	stream types.StreamInfo,
) *VideoSession {
	return &VideoSession{
		Decoder: decoder,
		Stream:  stream,
	}
}

func (s *VideoSession) String() string {
	return fmt.Sprintf("VideoSession(%s; %s)", s.Stream, s.Decoder.Parameters())
}

func (s *VideoSession) Width() int {
	return s.Decoder.Parameters().Width
}

func (s *VideoSession) Height() int {
	return s.Decoder.Parameters().Height
}

func (s *VideoSession) Resolution() types.Resolution {
	return s.Decoder.Parameters().Resolution()
}

func (s *VideoSession) PixelFormat() astiav.PixelFormat {
	return s.Decoder.Parameters().PixelFormat
}

func (s *VideoSession) FrameRate() astiav.Rational {
	return s.Stream.AvgFrameRate
}

func (s *VideoSession) CodecName() string {
	return s.Decoder.Parameters().CodecName
}

// GetScaler returns a scaler from the given source format into the target.
// The previously built scaler is reused if neither side changed.
func (s *VideoSession) GetScaler(
	ctx context.Context,
	srcRes types.Resolution,
	srcPixFmt astiav.PixelFormat,
	target VideoTarget,
) (_ret scaler.Scaler, _err error) {
	key := scalerKey{
		SourceResolution:  srcRes,
		SourcePixelFormat: srcPixFmt,
		Target:            target,
	}
	if s.scaler != nil && s.scalerKey == key {
		return s.scaler, nil
	}

	logger.Debugf(ctx, "GetScaler(ctx, %s:%s, %s)", srcRes, srcPixFmt, target)
	defer func() { logger.Debugf(ctx, "/GetScaler(ctx, %s:%s, %s): %v %v", srcRes, srcPixFmt, target, _ret, _err) }()

	if err := s.closeScaler(ctx); err != nil {
		logger.Errorf(ctx, "unable to close the previous scaler: %v", err)
	}

	dstRes := target.Resolution
	if dstRes.IsZero() {
		dstRes = srcRes
	}
	sws, err := scaler.NewSoftware(ctx, srcRes, srcPixFmt, dstRes, target.PixelFormat, target.Method)
	if err != nil {
		return nil, NewDecodeError("create a scaler", err)
	}
	s.scaler = sws
	s.scalerKey = key
	return sws, nil
}

// ConvertFrame scales the decoded frame src into dst, which is expected to
// be allocated with the target geometry.
func (s *VideoSession) ConvertFrame(
	ctx context.Context,
	src *astiav.Frame,
	dst *astiav.Frame,
	target VideoTarget,
) error {
	srcRes := types.Resolution{Width: uint32(src.Width()), Height: uint32(src.Height())}
	sws, err := s.GetScaler(ctx, srcRes, src.PixelFormat(), target)
	if err != nil {
		return err
	}
	if err := sws.ScaleFrame(ctx, src, dst); err != nil {
		return NewDecodeError("scale a frame", err)
	}
	return nil
}

func (s *VideoSession) closeScaler(ctx context.Context) error {
	if s.scaler == nil {
		return nil
	}
	err := s.scaler.Close(ctx)
	s.scaler = nil
	s.scalerKey = scalerKey{}
	return err
}

func (s *VideoSession) Close(ctx context.Context) error {
	var errs []error
	if err := s.closeScaler(ctx); err != nil {
		errs = append(errs, fmt.Errorf("unable to close the scaler: %w", err))
	}
	if err := s.Decoder.Close(ctx); err != nil {
		errs = append(errs, fmt.Errorf("unable to close the decoder: %w", err))
	}
	return errors.Join(errs...)
}
