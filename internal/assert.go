package internal

import (
	"context"

	"github.com/xaionaro-go/avplayback/logger"
)

// Assert panics (through the logger, so the failure is logged with the
// context fields) if mustBeTrue is false.
func Assert(
	ctx context.Context,
	mustBeTrue bool,
	extraArgs ...any,
) {
	if mustBeTrue {
		return
	}

	logger.Panic(ctx, "assertion failed", extraArgs)
}
