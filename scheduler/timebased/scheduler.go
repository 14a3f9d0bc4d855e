// scheduler.go implements the deadline-driven scheduler.

// Package timebased provides the scheduler that keeps a frame only when
// its presentation timestamp has passed the next allowed frame slot
// derived from the target frame rate.
package timebased

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/xaionaro-go/avframeskip/logger"
	"github.com/xaionaro-go/avframeskip/scheduler"
	"github.com/xaionaro-go/avframeskip/types"
)

type Scheduler struct {
	// SourceFrameRate is used only to report the expected KeepFraction.
	SourceFrameRate types.Rational
	TargetFrameRate types.Rational

	// FrameInterval is 1/TargetFrameRate, in seconds.
	FrameInterval float64

	// Deadline is the presentation time (in seconds) after which the next
	// frame is kept.
	Deadline      float64
	IsInitialized bool
}

var _ scheduler.Scheduler = (*Scheduler)(nil)

func New(sourceFrameRate, targetFrameRate types.Rational) *Scheduler {
	s := &Scheduler{
		SourceFrameRate: sourceFrameRate,
	}
	s.SetTargetFrameRate(targetFrameRate)
	return s
}

func (s *Scheduler) String() string {
	return fmt.Sprintf("TimeBasedScheduler(%s fps)", s.TargetFrameRate)
}

func (s *Scheduler) Mode() types.Mode {
	return types.ModeTimeBased
}

// SetTargetFrameRate recomputes the frame interval; the next observed
// timestamp reseeds the deadline.
func (s *Scheduler) SetTargetFrameRate(targetFrameRate types.Rational) {
	s.TargetFrameRate = targetFrameRate
	if rate := targetFrameRate.Float64(); rate > 0 {
		s.FrameInterval = 1 / rate
	} else {
		s.FrameInterval = 0
	}
	s.IsInitialized = false
}

func (s *Scheduler) IsDisabled() bool {
	return !(s.TargetFrameRate.Float64() > 0)
}

// DecideAt decides on a frame presented at ts.
func (s *Scheduler) DecideAt(ts time.Duration) types.Decision {
	if s.IsDisabled() {
		return types.DecisionKeep
	}

	now := ts.Seconds()
	if !s.IsInitialized {
		s.Deadline = now + s.FrameInterval
		s.IsInitialized = true
		return types.DecisionKeep
	}

	if now <= s.Deadline {
		return types.DecisionDrop
	}

	multiplier := math.Max(1, math.Ceil((now-s.Deadline)/s.FrameInterval))
	s.Deadline += s.FrameInterval * multiplier
	return types.DecisionKeep
}

func (s *Scheduler) Decide(
	ctx context.Context,
	sample types.Sample,
) (types.Decision, error) {
	if s.IsDisabled() {
		return types.DecisionKeep, nil
	}
	if !sample.HasPTS() {
		return types.DecisionDrop, types.ErrNoTimestamp{}
	}
	d := s.DecideAt(sample.PTS)
	logger.Tracef(ctx, "%s: deadline %f: %s", sample, s.Deadline, d)
	return d, nil
}

func (s *Scheduler) KeepFraction() types.Rational {
	if s.IsDisabled() || !(s.SourceFrameRate.Float64() > s.TargetFrameRate.Float64()) {
		return types.Rational{Num: 1, Den: 1}
	}
	return s.TargetFrameRate.Mul(s.SourceFrameRate.Reverse())
}

func (s *Scheduler) Reset(ctx context.Context) {
	logger.Debugf(ctx, "Reset")
	s.Deadline = 0
	s.IsInitialized = false
}
