// engine.go implements the frame skip decision engine.

// Package skipper decides, frame by frame, which frames of a stream to
// drop so that its effective rate matches a target rate, and rewrites
// the declared frame duration of the thinned stream accordingly.
package skipper

import (
	"context"
	"fmt"
	"time"

	"github.com/go-ng/xatomic"
	"github.com/xaionaro-go/avframeskip/format"
	"github.com/xaionaro-go/avframeskip/logger"
	"github.com/xaionaro-go/avframeskip/metrics"
	"github.com/xaionaro-go/avframeskip/scheduler"
	"github.com/xaionaro-go/avframeskip/scheduler/ratio"
	"github.com/xaionaro-go/avframeskip/scheduler/timebased"
	"github.com/xaionaro-go/avframeskip/types"
	"github.com/xaionaro-go/xsync"
)

// Engine owns the skipping state of exactly one stream.
//
// A host is expected to call Evaluate from a single goroutine per
// stream; configuration changes and format queries may come from other
// goroutines.
type Engine struct {
	Mutex   xsync.Mutex
	Metrics *metrics.Metrics

	config       Config
	isRunning    bool
	scheduler    scheduler.Scheduler
	keepFraction xatomic.Value[types.Rational]
	counters     types.DecisionCounters
}

func New(
	ctx context.Context,
	cfg Config,
	opts ...Option,
) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	options := OptionsList(opts).Options()
	e := &Engine{
		Metrics: options.Metrics,
		config:  cfg,
	}
	s, err := newScheduler(ctx, cfg)
	if err != nil {
		logger.Debugf(ctx, "%v", err)
	}
	e.scheduler = s
	e.setKeepFraction(ctx, s.KeepFraction())
	return e, nil
}

func (e *Engine) String() string {
	return fmt.Sprintf("FrameSkipper(%s)", e.GetConfig(context.Background()))
}

func (e *Engine) GetConfig(ctx context.Context) Config {
	return xsync.DoR1(xsync.WithNoLogging(ctx, true), &e.Mutex, func() Config {
		return e.config
	})
}

func (e *Engine) IsRunning(ctx context.Context) bool {
	return xsync.DoR1(xsync.WithNoLogging(ctx, true), &e.Mutex, func() bool {
		return e.isRunning
	})
}

// newScheduler builds a scheduler for cfg. An invalid rate pair is not
// fatal: the returned scheduler keeps every frame and the error is
// returned alongside it.
func newScheduler(
	ctx context.Context,
	cfg Config,
) (scheduler.Scheduler, error) {
	switch cfg.Mode {
	case types.ModeRatioBased:
		r := ratio.New()
		if !cfg.hasRates() {
			r.ConfigureExplicit(ctx, cfg.SkipFrameNumber, cfg.TotalFrames)
			return r, nil
		}
		return r, r.Configure(ctx, cfg.SourceRate(), cfg.TargetRate())
	case types.ModeTimeBased:
		return timebased.New(cfg.SourceFrameRate, cfg.TargetFrameRate), nil
	default:
		assert(ctx, false, "unexpected mode", cfg.Mode)
		return nil, nil
	}
}

// activateScheduler makes s the scheduler consulted by Evaluate.
func (e *Engine) activateScheduler(
	ctx context.Context,
	s scheduler.Scheduler,
	configErr error,
) {
	if configErr != nil {
		logger.Warnf(ctx, "%v; keeping every frame", configErr)
		e.Metrics.RecordInvalidConfiguration(ctx, s.Mode())
	}
	e.scheduler = s
	e.setKeepFraction(ctx, s.KeepFraction())
	e.Metrics.RecordReconfiguration(ctx, s.Mode(), s.KeepFraction().Float64())
}

func (e *Engine) setKeepFraction(
	ctx context.Context,
	keepFraction types.Rational,
) {
	logger.Debugf(ctx, "keep fraction: %s", keepFraction)
	e.keepFraction.Store(keepFraction)
}

// Start prepares the active scheduler (in ModeRatioBased it computes the
// skip pattern for the configured rates) and resets the statistics.
func (e *Engine) Start(ctx context.Context) error {
	return xsync.DoA1R1(ctx, &e.Mutex, e.start, ctx)
}

func (e *Engine) start(ctx context.Context) (_err error) {
	logger.Debugf(ctx, "Start: %s", e.config)
	defer func() { logger.Debugf(ctx, "/Start: %s: %v", e.config, _err) }()
	if e.isRunning {
		return types.ErrAlreadyStarted{}
	}
	s, err := newScheduler(ctx, e.config)
	e.activateScheduler(ctx, s, err)
	e.counters.Reset()
	e.isRunning = true
	return nil
}

// Stop clears the skip pattern, rewinds the cycle and forgets the time
// anchor. Stopping a stopped engine is a no-op.
func (e *Engine) Stop(ctx context.Context) error {
	return xsync.DoA1R1(ctx, &e.Mutex, e.stop, ctx)
}

func (e *Engine) stop(ctx context.Context) error {
	logger.Debugf(ctx, "Stop")
	if !e.isRunning {
		return nil
	}
	e.scheduler.Reset(ctx)
	e.isRunning = false
	return nil
}

// SetConfig replaces the configuration and recomputes the keep fraction.
//
// While running, a rate change is applied at once (the skip pattern is
// recomputed and the cycle rewound, or the time anchor is reseeded),
// while a mode change is refused: it requires a Stop/Start boundary.
func (e *Engine) SetConfig(ctx context.Context, cfg Config) error {
	return xsync.DoA2R1(ctx, &e.Mutex, e.setConfig, ctx, cfg)
}

func (e *Engine) setConfig(ctx context.Context, cfg Config) (_err error) {
	logger.Debugf(ctx, "SetConfig: %s", cfg)
	defer func() { logger.Debugf(ctx, "/SetConfig: %s: %v", cfg, _err) }()
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if e.isRunning && cfg.Mode != e.config.Mode {
		return types.ErrModeSwitchWhileRunning{From: e.config.Mode, To: cfg.Mode}
	}
	e.config = cfg
	s, err := newScheduler(ctx, cfg)
	if e.isRunning {
		e.activateScheduler(ctx, s, err)
		return nil
	}
	if err != nil {
		logger.Debugf(ctx, "%v", err)
	}
	e.scheduler = s
	e.setKeepFraction(ctx, s.KeepFraction())
	return nil
}

// Evaluate decides whether the sample is delivered downstream.
//
// Control samples are always kept. An error is returned when the engine
// is not started or when the decision needs a timestamp the sample lacks.
func (e *Engine) Evaluate(
	ctx context.Context,
	sample types.Sample,
) (types.Decision, error) {
	return xsync.DoA2R2(xsync.WithNoLogging(ctx, true), &e.Mutex, e.evaluate, ctx, sample)
}

func (e *Engine) evaluate(
	ctx context.Context,
	sample types.Sample,
) (types.Decision, error) {
	if !e.isRunning {
		return types.DecisionKeep, types.ErrNotStarted{}
	}
	mode := e.scheduler.Mode()
	if sample.IsControl() {
		e.counters.Bypassed.Add(1)
		e.Metrics.RecordDecision(ctx, mode, metrics.DecisionBypass)
		return types.DecisionKeep, nil
	}

	d, err := e.scheduler.Decide(ctx, sample)
	if err != nil {
		e.counters.Failed.Add(1)
		e.Metrics.RecordDecision(ctx, mode, metrics.DecisionError)
		return d, fmt.Errorf("unable to decide on %s with %s: %w", sample, e.scheduler, err)
	}

	logger.Tracef(ctx, "%s: %s", sample, d)
	e.counters.Increment(d)
	if d.IsKeep() {
		e.Metrics.RecordDecision(ctx, mode, metrics.DecisionKeep)
	} else {
		e.Metrics.RecordDecision(ctx, mode, metrics.DecisionDrop)
	}
	return d, nil
}

// KeepFraction is the fraction of frames the current configuration keeps.
func (e *Engine) KeepFraction() types.Rational {
	return e.keepFraction.Load()
}

// DurationMultiplier is the inverse of KeepFraction.
func (e *Engine) DurationMultiplier() types.Rational {
	keepFraction := e.KeepFraction()
	if keepFraction.Num <= 0 || keepFraction.Den <= 0 {
		return types.Rational{Num: 1, Den: 1}
	}
	return keepFraction.Reverse()
}

// DeclaredFrameDuration scales the average frame duration of the source
// stream to the one of the thinned stream.
func (e *Engine) DeclaredFrameDuration(d time.Duration) time.Duration {
	return time.Duration(e.DurationMultiplier().ScaleInt64(int64(d)))
}

// AdjustFormat rewrites the average frame duration of a *format.VideoInfo
// or *format.VideoInfo2. Other descriptors are left untouched, and false
// is returned.
func (e *Engine) AdjustFormat(
	ctx context.Context,
	descriptor any,
) bool {
	ok := format.AdjustAverageTimePerFrame(descriptor, e.DeclaredFrameDuration)
	logger.Debugf(ctx, "AdjustFormat(%T): %t", descriptor, ok)
	return ok
}

func (e *Engine) GetStats() *types.DecisionStatistics {
	return ptr(e.counters.ToStats())
}
