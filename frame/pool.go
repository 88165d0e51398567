// pool.go implements a pool for reusing preallocated video output frames.

package frame

import (
	"context"

	"github.com/asticode/go-astiav"
	"github.com/xaionaro-go/avplayback/pool"
	"github.com/xaionaro-go/avplayback/types"
)

// NewVideoPool returns a pool of frames of a fixed geometry. The image
// buffers survive Release, so a reused frame is overwritten in place.
func NewVideoPool(
	ctx context.Context,
	collectThreshold int,
	res types.Resolution,
	pixFmt astiav.PixelFormat,
) *pool.Pool[astiav.Frame] {
	return pool.New(
		collectThreshold,
		func() (*astiav.Frame, error) {
			return NewBlankVideo(ctx, res, pixFmt)
		},
		(*astiav.Frame).Free,
		func(f *astiav.Frame) {
			f.SetPts(astiav.NoPtsValue)
		},
	)
}
