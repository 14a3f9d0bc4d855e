// skip_frames.go implements a frame filter driven by a frame skip decision engine.

// Package skipframes plugs a skipper.Engine into an FFmpeg frame flow.
package skipframes

import (
	"context"
	"errors"
	"fmt"

	"github.com/asticode/go-astiav"
	"github.com/xaionaro-go/avframeskip/avconv"
	"github.com/xaionaro-go/avframeskip/logger"
	"github.com/xaionaro-go/avframeskip/skipper"
	"github.com/xaionaro-go/avframeskip/types"
)

const (
	skipFramesDebug = false
)

// Input is a decoded frame together with the properties of the stream it
// belongs to.
type Input struct {
	Frame     *astiav.Frame
	TimeBase  astiav.Rational
	MediaType astiav.MediaType
}

// Sample converts the frame into a sample the engine understands: only
// video frames are subject to skipping, anything else (including a nil
// frame, which signals a flush) is a control sample.
func (in Input) Sample() types.Sample {
	if in.Frame == nil || in.MediaType != astiav.MediaTypeVideo {
		return types.ControlSample()
	}
	return types.MediaSample(avconv.Duration(in.Frame.Pts(), in.TimeBase))
}

type Filter struct {
	Engine *skipper.Engine
}

var _ types.Condition[Input] = (*Filter)(nil)

func New(engine *skipper.Engine) *Filter {
	return &Filter{
		Engine: engine,
	}
}

func (f *Filter) String() string {
	return fmt.Sprintf("SkipFrames(%s)", f.Engine)
}

// Decide asks the engine about the frame. The duration of a kept video
// frame is stretched by the duration multiplier, so that the kept frames
// cover the time of the dropped ones.
func (f *Filter) Decide(
	ctx context.Context,
	in Input,
) (_ret types.Decision, _err error) {
	sample := in.Sample()
	if skipFramesDebug {
		logger.Tracef(ctx, "Decide: %s", sample)
		defer func() { logger.Tracef(ctx, "/Decide: %s: %s %v", sample, _ret, _err) }()
	}

	d, err := f.Engine.Evaluate(ctx, sample)
	if err != nil {
		return d, err
	}
	if !d.IsKeep() || sample.IsControl() {
		return d, nil
	}

	dur := in.Frame.Duration()
	if dur <= 0 {
		return d, nil
	}
	in.Frame.SetDuration(f.Engine.DurationMultiplier().ScaleInt64(dur))
	return d, nil
}

// Match reports whether the frame should be passed downstream. While
// the engine is not started every frame passes; a frame the engine
// failed to decide on (no timestamp) is dropped.
func (f *Filter) Match(
	ctx context.Context,
	in Input,
) bool {
	d, err := f.Decide(ctx, in)
	if err != nil {
		if errors.As(err, &types.ErrNotStarted{}) {
			logger.Tracef(ctx, "the engine is not started; passing the frame through")
			return true
		}
		logger.Errorf(ctx, "unable to decide on the frame: %v", err)
		return false
	}
	return d.IsKeep()
}

// AdjustStream rewrites the average frame rate of an output video stream
// to the rate of the thinned stream. It returns false if the stream is
// not a video stream or has no known frame rate.
func (f *Filter) AdjustStream(
	ctx context.Context,
	stream *astiav.Stream,
) bool {
	if stream == nil || stream.CodecParameters().MediaType() != astiav.MediaTypeVideo {
		return false
	}
	rate := avconv.Rational(stream.AvgFrameRate())
	if rate.Num <= 0 || rate.Den <= 0 {
		return false
	}
	newRate := rate.Mul(f.Engine.KeepFraction())
	logger.Debugf(ctx, "AdjustStream(%d): %s -> %s", stream.Index(), rate, newRate)
	stream.SetAvgFrameRate(avconv.ToRational(newRate))
	return true
}

// AdjustFormatContext calls AdjustStream for the stream with the given
// index.
func (f *Filter) AdjustFormatContext(
	ctx context.Context,
	fmtCtx *astiav.FormatContext,
	streamIndex int,
) bool {
	return f.AdjustStream(ctx, avconv.FindStreamByIndex(ctx, fmtCtx, streamIndex))
}
