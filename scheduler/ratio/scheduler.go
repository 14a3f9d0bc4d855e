// scheduler.go implements the cyclic "skip x out of every y frames" scheduler.

// Package ratio provides the scheduler that drops frames following a
// fixed repeating pattern computed from a source/target frame rate pair.
package ratio

import (
	"context"
	"fmt"

	"github.com/xaionaro-go/avframeskip/logger"
	"github.com/xaionaro-go/avframeskip/scheduler"
	"github.com/xaionaro-go/avframeskip/types"
)

type Scheduler struct {
	SkipFrames  uint64
	TotalFrames uint64
	Pattern     Pattern
	Position    int
}

var _ scheduler.Scheduler = (*Scheduler)(nil)

func New() *Scheduler {
	return &Scheduler{}
}

func (s *Scheduler) String() string {
	return fmt.Sprintf("RatioScheduler(%d/%d)", s.SkipFrames, s.TotalFrames)
}

func (s *Scheduler) Mode() types.Mode {
	return types.ModeRatioBased
}

// Configure computes the pattern for the given rates and rewinds the cycle.
//
// On error the pattern is cleared, so every frame is kept.
func (s *Scheduler) Configure(
	ctx context.Context,
	sourceRate, targetRate float64,
) (_err error) {
	logger.Debugf(ctx, "Configure(%g, %g)", sourceRate, targetRate)
	defer func() { logger.Debugf(ctx, "/Configure(%g, %g): %v: %s", sourceRate, targetRate, _err, s.Pattern) }()

	skip, total, pattern, err := ComputeSkipPattern(sourceRate, targetRate)
	if err != nil {
		s.Reset(ctx)
		return fmt.Errorf("unable to compute the skip pattern: %w", err)
	}
	s.SkipFrames, s.TotalFrames = skip, total
	s.Pattern = pattern
	s.Position = 0
	if len(pattern) > 0 {
		assert(ctx, pattern.SkipCount() == skip, "the pattern must drop exactly skip frames", skip, pattern.String())
	}
	return nil
}

// ConfigureExplicit sets "skip x out of every y" directly, without
// reducing a rate pair.
func (s *Scheduler) ConfigureExplicit(
	ctx context.Context,
	skip, total uint64,
) {
	logger.Debugf(ctx, "ConfigureExplicit(%d, %d)", skip, total)
	s.SkipFrames, s.TotalFrames = skip, total
	s.Pattern = NewPattern(skip, total)
	s.Position = 0
}

// Next returns the decision for the current cycle position and advances it.
func (s *Scheduler) Next() types.Decision {
	if len(s.Pattern) == 0 {
		return types.DecisionKeep
	}
	isDropped := s.Pattern[s.Position]
	s.Position = (s.Position + 1) % len(s.Pattern)
	if isDropped {
		return types.DecisionDrop
	}
	return types.DecisionKeep
}

func (s *Scheduler) Decide(
	ctx context.Context,
	sample types.Sample,
) (types.Decision, error) {
	position := s.Position
	d := s.Next()
	logger.Tracef(ctx, "%s: position %d of %d: %s", sample, position, len(s.Pattern), d)
	return d, nil
}

func (s *Scheduler) KeepFraction() types.Rational {
	return s.Pattern.KeepFraction()
}

func (s *Scheduler) Reset(ctx context.Context) {
	logger.Debugf(ctx, "Reset")
	s.SkipFrames, s.TotalFrames = 0, 0
	s.Pattern = nil
	s.Position = 0
}
