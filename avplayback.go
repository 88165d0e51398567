// Package avplayback decodes media containers on demand, keeping the
// decoded video and audio in sync with an external playback clock.
//
// The typical usage:
//
//	decoder, err := avplayback.Open(ctx, url, secret.New(""), avplayback.DefaultConfig())
//	...
//	thread := decodethread.New(decoder, clock, sink, decodethread.DefaultConfig())
//	err = thread.Start(ctx)
//	...
//	decoder.WithCurrentVideoFrame(ctx, func(f *astiav.Frame, t time.Duration) { ... })
package avplayback

import (
	"context"

	"github.com/xaionaro-go/avplayback/codec"
	"github.com/xaionaro-go/avplayback/decoding"
	"github.com/xaionaro-go/avplayback/demuxer"
	"github.com/xaionaro-go/avplayback/logger"
	"github.com/xaionaro-go/secret"
)

type Config struct {
	Input    demuxer.InputConfig
	Decoders codec.LibAVDecoderFactoryParams
	Decoding decoding.Config
}

func DefaultConfig() Config {
	return Config{
		Decoders: *codec.DefaultLibAVDecoderFactoryParams(),
		Decoding: decoding.DefaultConfig(),
	}
}

// Open opens the container and the decoders of its first video and first
// audio stream.
func Open(
	ctx context.Context,
	url string,
	authKey secret.String,
	cfg Config,
) (_ret *decoding.Context, _err error) {
	logger.Debugf(ctx, "Open(ctx, '%s')", url)
	defer func() { logger.Debugf(ctx, "/Open(ctx, '%s'): %v", url, _err) }()

	input, err := demuxer.NewInputFromURL(ctx, url, authKey, cfg.Input)
	if err != nil {
		return nil, codec.NewDecodeError("open the input", err)
	}
	decoderFactory := codec.NewLibAVDecoderFactory(&cfg.Decoders)
	return decoding.NewContext(ctx, input, decoderFactory, cfg.Decoding)
}
