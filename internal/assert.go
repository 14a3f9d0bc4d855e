// Package internal contains helpers shared by avframeskip packages only.
package internal

import (
	"context"

	"github.com/xaionaro-go/avframeskip/logger"
)

// Assert panics (through the logger in ctx) when an internal invariant is broken.
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
