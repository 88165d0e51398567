package codec

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/asticode/go-astiav"
	"github.com/stretchr/testify/require"
	"github.com/xaionaro-go/avplayback/frame"
	"github.com/xaionaro-go/avplayback/scaler"
	"github.com/xaionaro-go/avplayback/types"
)

type dummyDecoder struct {
	Params     Parameters
	CloseCount int
}

var _ Decoder = (*dummyDecoder)(nil)

func (d *dummyDecoder) String() string { return "dummyDecoder" }
func (d *dummyDecoder) SendPacket(context.Context, *astiav.Packet) error {
	return astiav.ErrEagain
}
func (d *dummyDecoder) ReceiveFrame(context.Context, *astiav.Frame) error {
	return astiav.ErrEagain
}
func (d *dummyDecoder) FlushBuffers(context.Context) {}
func (d *dummyDecoder) Parameters() Parameters       { return d.Params }
func (d *dummyDecoder) Close(context.Context) error {
	d.CloseCount++
	return nil
}

func TestDecodeError(t *testing.T) {
	t.Parallel()

	err := NewDecodeError("decode", fmt.Errorf("unable to send: %w", astiav.ErrEio))
	require.NotZero(t, err.Code)
	require.ErrorIs(t, err, astiav.ErrEio)
	require.Contains(t, err.Error(), "decode")

	plain := NewDecodeError("open", errors.New("no such file"))
	require.Zero(t, plain.Code)

	require.Same(t, err, NewDecodeError("something else", fmt.Errorf("wrapped: %w", err)))

	require.True(t, IsAgain(fmt.Errorf("x: %w", astiav.ErrEagain)))
	require.False(t, IsAgain(astiav.ErrEof))
	require.True(t, IsEOF(astiav.ErrEof))
}

func TestVideoSessionScalerCache(t *testing.T) {
	ctx := context.Background()
	dec := &dummyDecoder{Params: Parameters{
		MediaType:   astiav.MediaTypeVideo,
		CodecName:   "dummy",
		Width:       32,
		Height:      16,
		PixelFormat: astiav.PixelFormatYuv420P,
	}}
	s := NewVideoSession(dec, types.StreamInfo{Index: 0, MediaType: astiav.MediaTypeVideo, AvgFrameRate: astiav.NewRational(25, 1)})
	require.Equal(t, 32, s.Width())
	require.Equal(t, 16, s.Height())
	require.Equal(t, "dummy", s.CodecName())
	require.Equal(t, 25.0, s.FrameRate().Float64())

	target := VideoTarget{
		Resolution:  types.Resolution{Width: 8, Height: 4},
		PixelFormat: astiav.PixelFormatRgba,
		Method:      types.ScalingMethodPoint,
	}
	s0, err := s.GetScaler(ctx, s.Resolution(), s.PixelFormat(), target)
	require.NoError(t, err)
	s1, err := s.GetScaler(ctx, s.Resolution(), s.PixelFormat(), target)
	require.NoError(t, err)
	require.Same(t, s0, s1)

	target.Method = types.ScalingMethodBilinear
	s2, err := s.GetScaler(ctx, s.Resolution(), s.PixelFormat(), target)
	require.NoError(t, err)
	require.NotSame(t, s0, s2)
	require.True(t, s0.(*scaler.Software).IsClosed())

	src, err := frame.NewBlankVideo(ctx, types.Resolution{Width: 64, Height: 32}, astiav.PixelFormatYuv420P)
	require.NoError(t, err)
	defer src.Free()
	dst, err := frame.NewBlankVideo(ctx, target.Resolution, target.PixelFormat)
	require.NoError(t, err)
	defer dst.Free()

	// the source geometry differs from the previous one, so the scaler is rebuilt
	require.NoError(t, s.ConvertFrame(ctx, src, dst, target))
	require.True(t, s2.(*scaler.Software).IsClosed())

	require.NoError(t, s.Close(ctx))
	require.Equal(t, 1, dec.CloseCount)
}

func TestVideoSessionNativeResolution(t *testing.T) {
	ctx := context.Background()
	dec := &dummyDecoder{Params: Parameters{MediaType: astiav.MediaTypeVideo, Width: 16, Height: 16, PixelFormat: astiav.PixelFormatYuv420P}}
	s := NewVideoSession(dec, types.StreamInfo{MediaType: astiav.MediaTypeVideo})
	defer s.Close(ctx)

	sws, err := s.GetScaler(ctx, s.Resolution(), s.PixelFormat(), VideoTarget{PixelFormat: astiav.PixelFormatRgba})
	require.NoError(t, err)
	require.Equal(t, types.Resolution{Width: 16, Height: 16}, sws.DestinationResolution())
}

func TestVideoSessionScalerError(t *testing.T) {
	ctx := context.Background()
	dec := &dummyDecoder{Params: Parameters{MediaType: astiav.MediaTypeVideo, PixelFormat: astiav.PixelFormatYuv420P}}
	s := NewVideoSession(dec, types.StreamInfo{MediaType: astiav.MediaTypeVideo})
	defer s.Close(ctx)

	_, err := s.GetScaler(ctx, s.Resolution(), s.PixelFormat(), VideoTarget{
		Resolution:  types.Resolution{Width: 8, Height: 8},
		PixelFormat: astiav.PixelFormatRgba,
	})
	var decErr *DecodeError
	require.ErrorAs(t, err, &decErr)
	require.Equal(t, "create a scaler", decErr.Op)
}

func newAudioFrame(t *testing.T, format types.PCMFormat, nbSamples int) *astiav.Frame {
	f := astiav.AllocFrame()
	t.Cleanup(f.Free)
	f.SetSampleFormat(format.SampleFormat)
	f.SetSampleRate(format.SampleRate)
	f.SetChannelLayout(format.ChannelLayout)
	f.SetNbSamples(nbSamples)
	require.NoError(t, f.AllocBuffer(0))
	return f
}

func TestAudioSessionConvert(t *testing.T) {
	ctx := context.Background()
	in := types.PCMFormat{
		SampleFormat:  astiav.SampleFormatFltp,
		SampleRate:    44100,
		ChannelLayout: astiav.ChannelLayoutStereo,
	}
	dec := &dummyDecoder{Params: Parameters{
		MediaType:     astiav.MediaTypeAudio,
		CodecName:     "dummy",
		SampleRate:    in.SampleRate,
		SampleFormat:  in.SampleFormat,
		ChannelLayout: in.ChannelLayout,
	}}
	s := NewAudioSession(dec, types.StreamInfo{MediaType: astiav.MediaTypeAudio})
	require.Equal(t, 2, s.Channels())
	require.Equal(t, 44100, s.SampleRate())
	require.Equal(t, 4, s.SampleWidth())

	target := types.PCMFormat{
		SampleFormat:  astiav.SampleFormatS16,
		SampleRate:    44100,
		ChannelLayout: astiav.ChannelLayoutStereo,
	}
	buf, err := s.ConvertFrame(ctx, newAudioFrame(t, in, 100), target, nil)
	require.NoError(t, err)
	require.Len(t, buf, 100*4)
	r0 := s.resampler

	buf, err = s.ConvertFrame(ctx, newAudioFrame(t, in, 50), target, buf)
	require.NoError(t, err)
	require.Len(t, buf, 150*4)
	require.Same(t, r0, s.resampler)

	in.SampleFormat = astiav.SampleFormatS16
	_, err = s.ConvertFrame(ctx, newAudioFrame(t, in, 10), target, nil)
	require.NoError(t, err)
	require.NotSame(t, r0, s.resampler)

	require.NoError(t, s.Close(ctx))
	require.Equal(t, 1, dec.CloseCount)
	require.Nil(t, s.resampler)
}
