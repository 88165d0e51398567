package scaler

import (
	"context"
	"fmt"

	"github.com/asticode/go-astiav"
	"github.com/xaionaro-go/avplayback/types"
)

// Scaler converts video frames from one geometry/pixel format into another.
type Scaler interface {
	fmt.Stringer
	Close(context.Context) error
	ScaleFrame(ctx context.Context, src *astiav.Frame, dst *astiav.Frame) error
	SourceResolution() types.Resolution
	SourcePixelFormat() astiav.PixelFormat
	DestinationResolution() types.Resolution
	DestinationPixelFormat() astiav.PixelFormat
	ScalingMethod() types.ScalingMethod
}
