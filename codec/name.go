package codec

import (
	"context"

	"github.com/asticode/go-astiav"
	"github.com/xaionaro-go/avplayback/logger"
)

// Name is a libav decoder name (e.g. "h264", "libdav1d").
type Name string

func (n Name) Codec(
	ctx context.Context,
) (_ret *astiav.Codec) {
	logger.Tracef(ctx, "findDecoderByName(ctx, '%s')", n)
	defer func() { logger.Tracef(ctx, "/findDecoderByName(ctx, '%s'): %v", n, _ret) }()
	if n == "" {
		return nil
	}
	return astiav.FindDecoderByName(string(n))
}

func findDecoderCodec(
	ctx context.Context,
	codecID astiav.CodecID,
	codecName Name,
) *astiav.Codec {
	if r := codecName.Codec(ctx); r != nil {
		return r
	}
	if codecName != "" {
		logger.Warnf(ctx, "decoder '%s' is not found, falling back to the default one for %s", codecName, codecID)
	}
	return astiav.FindDecoder(codecID)
}
