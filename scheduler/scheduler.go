// Package scheduler defines the capability shared by the frame skipping strategies.
package scheduler

import (
	"context"
	"fmt"

	"github.com/xaionaro-go/avframeskip/types"
)

// Scheduler decides whether the next frame of a stream is kept.
//
// Implementations own small per-stream state and are not safe for
// concurrent use; the caller serializes calls.
type Scheduler interface {
	fmt.Stringer

	Mode() types.Mode
	Decide(ctx context.Context, sample types.Sample) (types.Decision, error)

	// KeepFraction is the expected fraction of kept frames over a long run.
	KeepFraction() types.Rational

	// Reset drops the per-stream state (as on stream stop).
	Reset(ctx context.Context)
}
