package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/xaionaro-go/avframeskip/skipper"
	"github.com/xaionaro-go/avframeskip/types"
)

const (
	traceNoPTS   = "nopts"
	traceControl = "control"
)

// parseTrace reads one sample per line: "<pts-seconds> [control]".
// Empty lines are ignored and '#' starts a comment.
func parseTrace(r io.Reader) ([]types.Sample, error) {
	var samples []types.Sample
	scanner := bufio.NewScanner(r)
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := scanner.Text()
		if idx := strings.IndexByte(line, '#'); idx >= 0 {
			line = line[:idx]
		}
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}
		if len(fields) > 2 {
			return nil, fmt.Errorf("line %d: expected '<pts-seconds> [control]', got %q", lineNum, line)
		}

		pts, err := parsePTS(fields[0])
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNum, err)
		}
		sample := types.MediaSample(pts)
		if len(fields) == 2 {
			if fields[1] != traceControl {
				return nil, fmt.Errorf("line %d: unknown sample kind %q", lineNum, fields[1])
			}
			sample.Kind = types.SampleKindControl
		}
		samples = append(samples, sample)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("unable to read the trace: %w", err)
	}
	return samples, nil
}

func parsePTS(s string) (time.Duration, error) {
	if s == traceNoPTS {
		return types.NoPTS, nil
	}
	seconds, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("unable to parse the timestamp %q: %w", s, err)
	}
	if math.IsNaN(seconds) || math.IsInf(seconds, 0) {
		return 0, fmt.Errorf("the timestamp %q is not finite", s)
	}
	return time.Duration(math.Round(seconds * float64(time.Second))), nil
}

func formatPTS(pts time.Duration) string {
	if pts == types.NoPTS {
		return traceNoPTS
	}
	return strconv.FormatFloat(pts.Seconds(), 'f', -1, 64)
}

// replayTrace feeds the samples to a started engine and writes one line
// per decision. A sample the engine could not decide on is reported as
// dropped.
func replayTrace(
	ctx context.Context,
	engine *skipper.Engine,
	samples []types.Sample,
	out io.Writer,
) error {
	for _, sample := range samples {
		d, err := engine.Evaluate(ctx, sample)
		var notStarted types.ErrNotStarted
		switch {
		case errors.As(err, &notStarted):
			return err
		case err != nil:
			fmt.Fprintf(out, "%s\t%s\t# %v\n", formatPTS(sample.PTS), types.DecisionDrop, err)
		case sample.IsControl():
			fmt.Fprintf(out, "%s\t%s\t# %s\n", formatPTS(sample.PTS), d, traceControl)
		default:
			fmt.Fprintf(out, "%s\t%s\n", formatPTS(sample.PTS), d)
		}
	}
	return nil
}

func writeSummary(
	engine *skipper.Engine,
	frameDuration time.Duration,
	out io.Writer,
) {
	stats := engine.GetStats()
	keepFraction := engine.KeepFraction()
	fmt.Fprintf(out, "# evaluated: %s, kept: %s, dropped: %s, bypassed: %s, failed: %s\n",
		humanize.Comma(int64(stats.Evaluated())),
		humanize.Comma(int64(stats.Kept)),
		humanize.Comma(int64(stats.Dropped)),
		humanize.Comma(int64(stats.Bypassed)),
		humanize.Comma(int64(stats.Failed)),
	)
	fmt.Fprintf(out, "# keep fraction: %s (%s%%)\n", keepFraction, humanize.FtoaWithDigits(keepFraction.Float64()*100, 2))
	if frameDuration > 0 {
		fmt.Fprintf(out, "# declared frame duration: %v -> %v\n", frameDuration, engine.DeclaredFrameDuration(frameDuration))
	}
}
