package ratio

import (
	"context"

	"github.com/xaionaro-go/avframeskip/internal"
)

func assert(
	ctx context.Context,
	mustBeTrue bool,
	extraArgs ...any,
) {
	internal.Assert(ctx, mustBeTrue, extraArgs...)
}
