package skipper

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/facebookincubator/go-belt"
	"github.com/facebookincubator/go-belt/pkg/runtime"
	"github.com/facebookincubator/go-belt/tool/logger/implementation/logrus"
	"github.com/stretchr/testify/require"
	"github.com/xaionaro-go/avframeskip/format"
	"github.com/xaionaro-go/avframeskip/logger"
	"github.com/xaionaro-go/avframeskip/metrics"
	"github.com/xaionaro-go/avframeskip/types"
	"github.com/xaionaro-go/observability"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func testCtx(t *testing.T) context.Context {
	runtime.DefaultCallerPCFilter = observability.CallerPCFilter(runtime.DefaultCallerPCFilter)
	l := logrus.Default().WithLevel(logger.LevelDebug)
	ctx := logger.CtxWithLogger(context.Background(), l)
	t.Cleanup(func() { belt.Flush(ctx) })
	return ctx
}

func rate(num int) types.Rational {
	return types.Rational{Num: num, Den: 1}
}

func newEngine(t *testing.T, ctx context.Context, cfg Config, opts ...Option) *Engine {
	e, err := New(ctx, cfg, opts...)
	require.NoError(t, err)
	return e
}

func evaluateAll(
	t *testing.T,
	ctx context.Context,
	e *Engine,
	samples ...types.Sample,
) []types.Decision {
	var result []types.Decision
	for _, s := range samples {
		d, err := e.Evaluate(ctx, s)
		require.NoError(t, err, s)
		result = append(result, d)
	}
	return result
}

func mediaSamples(n int) []types.Sample {
	var result []types.Sample
	for i := 0; i < n; i++ {
		result = append(result, types.MediaSample(time.Duration(i)*time.Second/30))
	}
	return result
}

func TestRatioBased30To24(t *testing.T) {
	ctx := testCtx(t)
	e := newEngine(t, ctx, Config{
		Mode:            types.ModeRatioBased,
		SourceFrameRate: rate(30),
		TargetFrameRate: rate(24),
	})
	require.Equal(t, types.Rational{Num: 4, Den: 5}, e.KeepFraction())
	require.Equal(t, types.Rational{Num: 5, Den: 4}, e.DurationMultiplier())
	require.Equal(t, 50*time.Millisecond, e.DeclaredFrameDuration(40*time.Millisecond))

	require.NoError(t, e.Start(ctx))
	decisions := evaluateAll(t, ctx, e, mediaSamples(30)...)
	for i, d := range decisions {
		require.Equal(t, i%5 != 4, d.IsKeep(), "frame #%d", i)
	}
	require.Equal(t, types.DecisionStatistics{Kept: 24, Dropped: 6}, *e.GetStats())
}

func TestRatioBasedExplicitPattern(t *testing.T) {
	ctx := testCtx(t)
	e := newEngine(t, ctx, Config{
		Mode:            types.ModeRatioBased,
		SkipFrameNumber: 1,
		TotalFrames:     3,
	})
	require.Equal(t, types.Rational{Num: 2, Den: 3}, e.KeepFraction())
	require.NoError(t, e.Start(ctx))
	require.Equal(t, []types.Decision{
		types.DecisionKeep, types.DecisionKeep, types.DecisionDrop,
		types.DecisionKeep, types.DecisionKeep, types.DecisionDrop,
	}, evaluateAll(t, ctx, e, mediaSamples(6)...))
}

func TestRatioBasedInvalidConfigurationKeepsEverything(t *testing.T) {
	ctx := testCtx(t)
	e := newEngine(t, ctx, Config{
		Mode:            types.ModeRatioBased,
		SourceFrameRate: rate(24),
		TargetFrameRate: rate(30),
	})
	require.NoError(t, e.Start(ctx))
	for _, d := range evaluateAll(t, ctx, e, mediaSamples(20)...) {
		require.Equal(t, types.DecisionKeep, d)
	}
	require.Equal(t, types.Rational{Num: 1, Den: 1}, e.KeepFraction())
	require.Equal(t, 40*time.Millisecond, e.DeclaredFrameDuration(40*time.Millisecond))
}

func TestRatioBasedEqualRates(t *testing.T) {
	ctx := testCtx(t)
	e := newEngine(t, ctx, Config{
		Mode:            types.ModeRatioBased,
		SourceFrameRate: rate(25),
		TargetFrameRate: rate(25),
	})
	require.NoError(t, e.Start(ctx))
	for _, d := range evaluateAll(t, ctx, e, mediaSamples(10)...) {
		require.Equal(t, types.DecisionKeep, d)
	}
	require.Equal(t, 1.0, e.KeepFraction().Float64())
}

func TestTimeBased(t *testing.T) {
	ctx := testCtx(t)
	e := newEngine(t, ctx, Config{
		Mode:            types.ModeTimeBased,
		SourceFrameRate: rate(100),
		TargetFrameRate: rate(30),
	})
	require.NoError(t, e.Start(ctx))

	var samples []types.Sample
	for _, ms := range []int64{0, 10, 40, 50, 70} {
		samples = append(samples, types.MediaSample(time.Duration(ms)*time.Millisecond))
	}
	require.Equal(t, []types.Decision{
		types.DecisionKeep,
		types.DecisionDrop,
		types.DecisionKeep,
		types.DecisionDrop,
		types.DecisionKeep,
	}, evaluateAll(t, ctx, e, samples...))
	require.Equal(t, types.Rational{Num: 3, Den: 10}, e.KeepFraction())
}

func TestTimeBasedDisabled(t *testing.T) {
	ctx := testCtx(t)
	e := newEngine(t, ctx, Config{
		Mode:            types.ModeTimeBased,
		SourceFrameRate: rate(30),
	})
	require.NoError(t, e.Start(ctx))
	for _, d := range evaluateAll(t, ctx, e, mediaSamples(10)...) {
		require.Equal(t, types.DecisionKeep, d)
	}
}

func TestTimeBasedNoTimestamp(t *testing.T) {
	ctx := testCtx(t)
	e := newEngine(t, ctx, Config{
		Mode:            types.ModeTimeBased,
		TargetFrameRate: rate(30),
	})
	require.NoError(t, e.Start(ctx))

	_, err := e.Evaluate(ctx, types.Sample{Kind: types.SampleKindMedia, PTS: types.NoPTS})
	require.Error(t, err)
	require.True(t, errors.As(err, &types.ErrNoTimestamp{}))
	require.Equal(t, uint64(1), e.GetStats().Failed)
}

func TestControlSamplesBypass(t *testing.T) {
	ctx := testCtx(t)
	for _, mode := range types.Modes() {
		t.Run(mode.String(), func(t *testing.T) {
			e := newEngine(t, ctx, Config{
				Mode:            mode,
				SourceFrameRate: rate(30),
				TargetFrameRate: rate(10),
			})
			require.NoError(t, e.Start(ctx))
			for i := 0; i < 10; i++ {
				d, err := e.Evaluate(ctx, types.ControlSample())
				require.NoError(t, err)
				require.Equal(t, types.DecisionKeep, d)
			}
			require.Equal(t, types.DecisionStatistics{Bypassed: 10}, *e.GetStats())
		})
	}
}

func TestStopStart(t *testing.T) {
	ctx := testCtx(t)

	t.Run("ratio", func(t *testing.T) {
		e := newEngine(t, ctx, Config{
			Mode:            types.ModeRatioBased,
			SourceFrameRate: rate(30),
			TargetFrameRate: rate(20),
		})
		require.NoError(t, e.Start(ctx))
		// "++-": stop in the middle of a cycle
		require.Equal(t, []types.Decision{types.DecisionKeep, types.DecisionKeep}, evaluateAll(t, ctx, e, mediaSamples(2)...))
		require.NoError(t, e.Stop(ctx))
		require.NoError(t, e.Stop(ctx))

		_, err := e.Evaluate(ctx, types.MediaSample(0))
		require.True(t, errors.As(err, &types.ErrNotStarted{}))

		require.NoError(t, e.Start(ctx))
		require.Equal(t, types.DecisionStatistics{}, *e.GetStats())
		require.Equal(t, []types.Decision{
			types.DecisionKeep, types.DecisionKeep, types.DecisionDrop,
		}, evaluateAll(t, ctx, e, mediaSamples(3)...))
		require.Equal(t, types.DecisionStatistics{Kept: 2, Dropped: 1}, *e.GetStats())
	})

	t.Run("time", func(t *testing.T) {
		e := newEngine(t, ctx, Config{
			Mode:            types.ModeTimeBased,
			TargetFrameRate: rate(10),
		})
		require.NoError(t, e.Start(ctx))
		require.Equal(t, []types.Decision{types.DecisionKeep, types.DecisionDrop}, evaluateAll(t, ctx, e,
			types.MediaSample(time.Second),
			types.MediaSample(time.Second+time.Millisecond),
		))
		require.NoError(t, e.Stop(ctx))
		require.NoError(t, e.Start(ctx))
		// the first decision after a restart is always "keep", even for an earlier timestamp
		require.Equal(t, []types.Decision{types.DecisionKeep}, evaluateAll(t, ctx, e, types.MediaSample(0)))
	})
}

func TestStartTwice(t *testing.T) {
	ctx := testCtx(t)
	e := newEngine(t, ctx, Config{})
	require.NoError(t, e.Start(ctx))
	require.True(t, e.IsRunning(ctx))
	err := e.Start(ctx)
	require.True(t, errors.As(err, &types.ErrAlreadyStarted{}))
}

func TestSetConfig(t *testing.T) {
	ctx := testCtx(t)
	e := newEngine(t, ctx, Config{
		Mode:            types.ModeRatioBased,
		SourceFrameRate: rate(30),
		TargetFrameRate: rate(15),
	})
	require.Equal(t, types.Rational{Num: 1, Den: 2}, e.KeepFraction())

	require.NoError(t, e.Start(ctx))
	require.Equal(t, []types.Decision{types.DecisionKeep}, evaluateAll(t, ctx, e, mediaSamples(1)...))

	// a rate change while running rewinds the cycle
	require.NoError(t, e.SetConfig(ctx, Config{
		Mode:            types.ModeRatioBased,
		SourceFrameRate: rate(30),
		TargetFrameRate: rate(10),
	}))
	require.Equal(t, types.Rational{Num: 1, Den: 3}, e.KeepFraction())
	require.Equal(t, []types.Decision{
		types.DecisionKeep, types.DecisionDrop, types.DecisionDrop,
	}, evaluateAll(t, ctx, e, mediaSamples(3)...))

	err := e.SetConfig(ctx, Config{Mode: types.ModeTimeBased, TargetFrameRate: rate(10)})
	require.True(t, errors.As(err, &types.ErrModeSwitchWhileRunning{}))
	require.Equal(t, types.ModeRatioBased, e.GetConfig(ctx).Mode)

	require.NoError(t, e.Stop(ctx))
	require.NoError(t, e.SetConfig(ctx, Config{Mode: types.ModeTimeBased, SourceFrameRate: rate(30), TargetFrameRate: rate(10)}))
	require.Equal(t, types.Rational{Num: 1, Den: 3}, e.KeepFraction())

	require.Error(t, e.SetConfig(ctx, Config{Mode: types.Mode(7)}))
	require.Error(t, e.SetConfig(ctx, Config{TargetFrameRate: types.Rational{Num: -1, Den: 1}}))
}

func TestNewInvalidConfig(t *testing.T) {
	ctx := testCtx(t)
	_, err := New(ctx, Config{Mode: types.Mode(3)})
	require.Error(t, err)
	_, err = New(ctx, Config{SourceFrameRate: types.Rational{Num: 30, Den: 0}})
	require.Error(t, err)
}

func TestAdjustFormat(t *testing.T) {
	ctx := testCtx(t)
	e := newEngine(t, ctx, Config{
		Mode:            types.ModeRatioBased,
		SourceFrameRate: rate(30),
		TargetFrameRate: rate(24),
	})

	vi := &format.VideoInfo{AvgTimePerFrame: 333333 * 100 * time.Nanosecond}
	require.True(t, e.AdjustFormat(ctx, vi))
	require.Equal(t, 41666625*time.Nanosecond, vi.AvgTimePerFrame)

	vi2 := &format.VideoInfo2{}
	vi2.AvgTimePerFrame = 40 * time.Millisecond
	require.True(t, e.AdjustFormat(ctx, vi2))
	require.Equal(t, 50*time.Millisecond, vi2.AvgTimePerFrame)

	require.False(t, e.AdjustFormat(ctx, &struct{ AvgTimePerFrame time.Duration }{}))
}

func newTestMetrics(t *testing.T) (*metrics.Metrics, *sdkmetric.ManualReader) {
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = mp.Shutdown(context.Background()) })
	m, err := metrics.New(mp)
	require.NoError(t, err)
	return m, reader
}

func sumCounter(
	t *testing.T,
	ctx context.Context,
	reader *sdkmetric.ManualReader,
	name string,
) int64 {
	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(ctx, &rm))
	var total int64
	for _, sm := range rm.ScopeMetrics {
		for _, mm := range sm.Metrics {
			if mm.Name != name {
				continue
			}
			for _, dp := range mm.Data.(metricdata.Sum[int64]).DataPoints {
				total += dp.Value
			}
		}
	}
	return total
}

func TestMetrics(t *testing.T) {
	ctx := testCtx(t)
	m, reader := newTestMetrics(t)

	e := newEngine(t, ctx, Config{
		Mode:            types.ModeRatioBased,
		SourceFrameRate: rate(30),
		TargetFrameRate: rate(24),
	}, OptionMetrics{Metrics: m})
	require.Zero(t, sumCounter(t, ctx, reader, "avframeskip.reconfigurations"))

	require.NoError(t, e.Start(ctx))
	evaluateAll(t, ctx, e, mediaSamples(10)...)
	evaluateAll(t, ctx, e, types.ControlSample())

	require.Equal(t, int64(11), sumCounter(t, ctx, reader, "avframeskip.frames"))
	require.Equal(t, int64(1), sumCounter(t, ctx, reader, "avframeskip.reconfigurations"))
	require.Zero(t, sumCounter(t, ctx, reader, "avframeskip.invalid_configurations"))
}

func TestMetricsInvalidConfigurationOncePerStart(t *testing.T) {
	ctx := testCtx(t)
	m, reader := newTestMetrics(t)

	e := newEngine(t, ctx, Config{
		Mode:            types.ModeRatioBased,
		SourceFrameRate: rate(24),
		TargetFrameRate: rate(30),
	}, OptionMetrics{Metrics: m})
	require.Zero(t, sumCounter(t, ctx, reader, "avframeskip.invalid_configurations"))

	require.NoError(t, e.Start(ctx))
	require.Equal(t, int64(1), sumCounter(t, ctx, reader, "avframeskip.invalid_configurations"))
	require.Equal(t, int64(1), sumCounter(t, ctx, reader, "avframeskip.reconfigurations"))

	require.NoError(t, e.Stop(ctx))
	require.NoError(t, e.Start(ctx))
	require.Equal(t, int64(2), sumCounter(t, ctx, reader, "avframeskip.invalid_configurations"))
	require.Equal(t, int64(2), sumCounter(t, ctx, reader, "avframeskip.reconfigurations"))

	// reconfiguring a running engine activates the new scheduler at once
	require.NoError(t, e.SetConfig(ctx, Config{
		Mode:            types.ModeRatioBased,
		SourceFrameRate: rate(30),
		TargetFrameRate: rate(24),
	}))
	require.Equal(t, int64(3), sumCounter(t, ctx, reader, "avframeskip.reconfigurations"))
	require.Equal(t, int64(2), sumCounter(t, ctx, reader, "avframeskip.invalid_configurations"))
}

func TestRatioBasedZeroTargetRateDisables(t *testing.T) {
	ctx := testCtx(t)
	e := newEngine(t, ctx, Config{
		Mode:            types.ModeRatioBased,
		SkipFrameNumber: 1,
		TotalFrames:     2,
		SourceFrameRate: rate(30),
		TargetFrameRate: rate(0),
	})
	require.Equal(t, types.Rational{Num: 1, Den: 1}, e.KeepFraction())

	require.NoError(t, e.Start(ctx))
	for _, d := range evaluateAll(t, ctx, e, mediaSamples(10)...) {
		require.Equal(t, types.DecisionKeep, d)
	}
	require.Equal(t, types.DecisionStatistics{Kept: 10}, *e.GetStats())
	require.Equal(t, types.Rational{Num: 1, Den: 1}, e.KeepFraction())
	require.Equal(t, 40*time.Millisecond, e.DeclaredFrameDuration(40*time.Millisecond))
}

func TestTimeBasedNTSCDeclaredFrameDuration(t *testing.T) {
	ctx := testCtx(t)
	e := newEngine(t, ctx, Config{
		Mode:            types.ModeTimeBased,
		SourceFrameRate: types.Rational{Num: 30000, Den: 1001},
		TargetFrameRate: rate(24),
	})
	require.Equal(t, types.Rational{Num: 1001, Den: 1250}, e.KeepFraction())
	require.Equal(t, types.Rational{Num: 1250, Den: 1001}, e.DurationMultiplier())

	require.Equal(t, 41666665*time.Nanosecond, e.DeclaredFrameDuration(33366666*time.Nanosecond))
	require.Equal(t, 13486513486513*time.Nanosecond, e.DeclaredFrameDuration(3*time.Hour))
}
