// Package format defines the video format descriptors whose declared
// average frame duration is rewritten for a decimated stream.
//
// Exactly two descriptor shapes are recognised: VideoInfo and VideoInfo2.
// Anything else is passed through untouched.
package format

import (
	"time"
)

// VideoInfo is the basic descriptor of an uncompressed video stream.
type VideoInfo struct {
	Width           int
	Height          int
	BitRate         uint64
	AvgTimePerFrame time.Duration
}

// VideoInfo2 extends VideoInfo with picture aspect ratio and interlacing
// information.
type VideoInfo2 struct {
	VideoInfo
	AspectRatioX   uint
	AspectRatioY   uint
	InterlaceFlags uint32
}

// AverageTimePerFrame returns a pointer to the average-frame-duration
// field of a recognised descriptor, or nil.
func AverageTimePerFrame(descriptor any) *time.Duration {
	switch d := descriptor.(type) {
	case *VideoInfo:
		if d == nil {
			return nil
		}
		return &d.AvgTimePerFrame
	case *VideoInfo2:
		if d == nil {
			return nil
		}
		return &d.AvgTimePerFrame
	default:
		return nil
	}
}

// AdjustAverageTimePerFrame rewrites the average frame duration of a
// recognised descriptor with adjust. It reports whether the descriptor
// was recognised.
func AdjustAverageTimePerFrame(
	descriptor any,
	adjust func(time.Duration) time.Duration,
) bool {
	avgTimePerFrame := AverageTimePerFrame(descriptor)
	if avgTimePerFrame == nil {
		return false
	}
	*avgTimePerFrame = adjust(*avgTimePerFrame)
	return true
}
