// duration.go provides utilities for converting between FFmpeg timestamps and time.Duration.

// Package avconv provides conversion utilities between FFmpeg values and
// the frame skipping types.
package avconv

import (
	"math"
	"time"

	"github.com/asticode/go-astiav"
	"github.com/xaionaro-go/avframeskip/types"
)

func init() {
	if int64(types.NoPTS) != astiav.NoPtsValue {
		panic("types.NoPTS does not match AV_NOPTS_VALUE")
	}
}

// Duration converts a timestamp in timeBase units into a time.Duration.
// AV_NOPTS_VALUE is converted into types.NoPTS.
func Duration(t int64, timeBase astiav.Rational) time.Duration {
	if t == astiav.NoPtsValue {
		return types.NoPTS
	}
	if timeBase.Den() == 0 {
		return types.NoPTS
	}

	return time.Duration(float64(t) * timeBase.Float64() * float64(time.Second))
}

func FromDuration(d time.Duration, timeBase astiav.Rational) int64 {
	if d == types.NoPTS || timeBase.Num() == 0 {
		return astiav.NoPtsValue
	}

	return int64(math.Round(d.Seconds() / timeBase.Float64()))
}
