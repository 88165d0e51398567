package internal

import (
	"context"
	"runtime"

	"github.com/xaionaro-go/avplayback/logger"
)

// SetFinalizerFree makes sure the libav object is freed even if
// the owner forgot to do that explicitly.
func SetFinalizerFree[T interface{ Free() }](
	ctx context.Context,
	freer T,
) {
	runtime.SetFinalizer(freer, func(freer T) {
		logger.Debugf(ctx, "freeing %T", freer)
		freer.Free()
	})
}
