package main

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	_ "net/http/pprof"
	"os"
	"time"

	"github.com/facebookincubator/go-belt"
	"github.com/facebookincubator/go-belt/tool/logger/implementation/logrus"
	"github.com/spf13/pflag"
	"github.com/xaionaro-go/avframeskip/config"
	"github.com/xaionaro-go/avframeskip/logger"
	"github.com/xaionaro-go/avframeskip/metrics"
	"github.com/xaionaro-go/avframeskip/skipper"
	"github.com/xaionaro-go/avframeskip/types"
	"github.com/xaionaro-go/observability"
	"golang.org/x/sync/errgroup"
)

func main() {
	pflag.Usage = func() {
		fmt.Fprintf(os.Stderr, "syntax: %s [flags] <trace>...\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "each trace line is '<pts-seconds> [control]'; use '-' to read stdin\n")
		pflag.PrintDefaults()
	}

	loggerLevel := logger.LevelWarning
	pflag.Var(&loggerLevel, "log-level", "Log level")
	mode := types.ModeRatioBased
	pflag.Var(&mode, "mode", "frame skipping mode: ratio or time")
	configPath := pflag.String("config", "", "path to a YAML configuration file")
	sourceFPS := pflag.String("source-fps", "", "source frame rate, e.g. '30', '30000/1001' or '~29.97'")
	targetFPS := pflag.String("target-fps", "", "target frame rate; zero disables frame skipping")
	skipFrames := pflag.Uint64("skip", 0, "skip this many frames out of every --total frames (ratio mode without rates)")
	totalFrames := pflag.Uint64("total", 0, "the cycle length for --skip")
	frameDuration := pflag.Duration("frame-duration", 0, "the average frame duration of the source, to print the declared duration of the output")
	metricsAddr := pflag.String("metrics-listen-addr", "", "an address to serve Prometheus metrics on")
	netPprofAddr := pflag.String("net-pprof-listen-addr", "", "an address to listen for incoming net/pprof connections")
	pflag.Parse()
	if len(pflag.Args()) == 0 {
		pflag.Usage()
		os.Exit(1)
	}

	cfg := &config.Config{}
	if *configPath != "" {
		var err error
		cfg, err = config.Load(*configPath)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		if cfg.LogLevel != "" && !pflag.CommandLine.Changed("log-level") {
			loggerLevel, _ = logger.LevelFromString(cfg.LogLevel)
		}
	}

	l := logrus.Default().WithLevel(loggerLevel)
	ctx := logger.CtxWithLogger(context.Background(), l)
	logger.SetDefault(func() logger.Logger {
		return l
	})
	defer belt.Flush(ctx)

	if err := applyFlags(cfg, flagValues{
		Mode:        mode,
		SourceFPS:   *sourceFPS,
		TargetFPS:   *targetFPS,
		SkipFrames:  *skipFrames,
		TotalFrames: *totalFrames,
		MetricsAddr: *metricsAddr,
	}, pflag.CommandLine.Changed); err != nil {
		logger.Fatalf(ctx, "%v", err)
	}
	if err := config.Validate(cfg); err != nil {
		logger.Fatalf(ctx, "%v", err)
	}

	if *netPprofAddr != "" {
		observability.Go(ctx, func() { l.Error(http.ListenAndServe(*netPprofAddr, nil)) })
	}

	if cfg.Metrics.ListenAddr != "" {
		shutdown, err := metrics.InitPrometheus(ctx)
		if err != nil {
			logger.Fatalf(ctx, "%v", err)
		}
		defer shutdown(context.Background())
		mux := http.NewServeMux()
		mux.Handle("/metrics", metrics.Handler())
		observability.Go(ctx, func() { l.Error(http.ListenAndServe(cfg.Metrics.ListenAddr, mux)) })
	}

	outputs, err := run(ctx, cfg.FrameSkipping, pflag.Args(), *frameDuration)
	for idx, out := range outputs {
		if len(outputs) > 1 {
			fmt.Printf("== %s\n", pflag.Arg(idx))
		}
		os.Stdout.Write(out)
	}
	if err != nil {
		logger.Fatalf(ctx, "%v", err)
	}
}

type flagValues struct {
	Mode        types.Mode
	SourceFPS   string
	TargetFPS   string
	SkipFrames  uint64
	TotalFrames uint64
	MetricsAddr string
}

// applyFlags overrides the values of cfg with the flags that were set
// explicitly.
func applyFlags(
	cfg *config.Config,
	flags flagValues,
	isSet func(string) bool,
) error {
	if isSet("mode") {
		cfg.FrameSkipping.Mode = flags.Mode
	}
	for _, rate := range []struct {
		flag  string
		value string
		dst   *types.Rational
	}{
		{"source-fps", flags.SourceFPS, &cfg.FrameSkipping.SourceFrameRate},
		{"target-fps", flags.TargetFPS, &cfg.FrameSkipping.TargetFrameRate},
	} {
		if !isSet(rate.flag) {
			continue
		}
		r, err := types.RationalFromString(rate.value)
		if err != nil {
			return fmt.Errorf("--%s: %w", rate.flag, err)
		}
		*rate.dst = *r
	}
	if isSet("skip") {
		cfg.FrameSkipping.SkipFrameNumber = flags.SkipFrames
	}
	if isSet("total") {
		cfg.FrameSkipping.TotalFrames = flags.TotalFrames
	}
	if isSet("metrics-listen-addr") {
		cfg.Metrics.ListenAddr = flags.MetricsAddr
	}
	return nil
}

// run replays every trace through its own engine, concurrently, and
// returns the per-trace outputs in the order of paths.
func run(
	ctx context.Context,
	cfg skipper.Config,
	paths []string,
	frameDuration time.Duration,
) ([][]byte, error) {
	traces := make([][]types.Sample, len(paths))
	for idx, path := range paths {
		samples, err := readTrace(path)
		if err != nil {
			return nil, err
		}
		traces[idx] = samples
	}

	outputs := make([]bytes.Buffer, len(paths))
	errGroup, ctx := errgroup.WithContext(ctx)
	for idx, samples := range traces {
		out := &outputs[idx]
		errGroup.Go(func() error {
			return processTrace(ctx, cfg, samples, frameDuration, out)
		})
	}
	err := errGroup.Wait()
	result := make([][]byte, len(outputs))
	for idx := range outputs {
		result[idx] = outputs[idx].Bytes()
	}
	return result, err
}

func readTrace(path string) ([]types.Sample, error) {
	var r io.Reader = os.Stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("unable to open trace %q: %w", path, err)
		}
		defer f.Close()
		r = f
	}
	samples, err := parseTrace(r)
	if err != nil {
		return nil, fmt.Errorf("unable to parse trace %q: %w", path, err)
	}
	return samples, nil
}

func processTrace(
	ctx context.Context,
	cfg skipper.Config,
	samples []types.Sample,
	frameDuration time.Duration,
	out io.Writer,
) (_err error) {
	engine, err := skipper.New(ctx, cfg, skipper.OptionMetrics{Metrics: metrics.Default()})
	if err != nil {
		return err
	}
	if err := engine.Start(ctx); err != nil {
		return fmt.Errorf("unable to start %s: %w", engine, err)
	}
	defer func() {
		if err := engine.Stop(ctx); err != nil && _err == nil {
			_err = err
		}
	}()

	if err := replayTrace(ctx, engine, samples, out); err != nil {
		return err
	}
	writeSummary(engine, frameDuration, out)
	return nil
}
