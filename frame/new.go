package frame

import (
	"context"
	"fmt"

	"github.com/asticode/go-astiav"
	"github.com/xaionaro-go/avplayback/logger"
	"github.com/xaionaro-go/avplayback/types"
)

// NewBlankVideo allocates a frame with an image buffer of the given
// geometry, filled with black.
func NewBlankVideo(
	ctx context.Context,
	res types.Resolution,
	pixFmt astiav.PixelFormat,
) (_ret *astiav.Frame, _err error) {
	logger.Tracef(ctx, "NewBlankVideo(ctx, %s, %s)", res, pixFmt)
	defer func() { logger.Tracef(ctx, "/NewBlankVideo(ctx, %s, %s): %v", res, pixFmt, _err) }()

	if res.IsZero() {
		return nil, fmt.Errorf("the resolution is not set")
	}

	f := astiav.AllocFrame()
	if f == nil {
		return nil, fmt.Errorf("unable to allocate a frame")
	}
	defer func() {
		if _err != nil {
			f.Free()
		}
	}()

	f.SetWidth(int(res.Width))
	f.SetHeight(int(res.Height))
	f.SetPixelFormat(pixFmt)
	if err := f.AllocBuffer(0); err != nil {
		return nil, fmt.Errorf("unable to allocate frame buffer: %w", err)
	}
	if err := f.ImageFillBlack(); err != nil {
		return nil, fmt.Errorf("unable to fill frame with black color: %w", err)
	}
	return f, nil
}

// CopyImage copies the packed (align 1) image of the frame into dst,
// growing it if needed.
func CopyImage(
	f *astiav.Frame,
	dst []byte,
) ([]byte, error) {
	size, err := f.ImageBufferSize(1)
	if err != nil {
		return dst, fmt.Errorf("unable to get the image buffer size: %w", err)
	}
	if cap(dst) < size {
		dst = make([]byte, size)
	}
	dst = dst[:size]
	if _, err := f.ImageCopyToBuffer(dst, 1); err != nil {
		return dst, fmt.Errorf("unable to copy the image to the buffer: %w", err)
	}
	return dst, nil
}
