// sample.go defines Sample, the per-frame input of the frame skipping engine.

package types

import (
	"fmt"
	"math"
	"time"
)

const (
	// NoPTS marks a sample whose presentation timestamp could not be retrieved.
	NoPTS = time.Duration(math.MinInt64)
)

type SampleKind int

const (
	SampleKindUndefined = SampleKind(iota)
	SampleKindMedia
	SampleKindControl
)

func (k SampleKind) String() string {
	switch k {
	case SampleKindUndefined:
		return "undefined"
	case SampleKindMedia:
		return "media"
	case SampleKindControl:
		return "control"
	default:
		return fmt.Sprintf("SampleKind(%d)", int(k))
	}
}

type Sample struct {
	Kind SampleKind
	PTS  time.Duration
}

func MediaSample(pts time.Duration) Sample {
	return Sample{
		Kind: SampleKindMedia,
		PTS:  pts,
	}
}

func ControlSample() Sample {
	return Sample{
		Kind: SampleKindControl,
		PTS:  NoPTS,
	}
}

// IsControl reports whether the sample bypasses frame skipping. Only
// samples explicitly marked as media are subject to skipping.
func (s Sample) IsControl() bool {
	return s.Kind != SampleKindMedia
}

func (s Sample) HasPTS() bool {
	return s.PTS != NoPTS
}

func (s Sample) String() string {
	if !s.HasPTS() {
		return fmt.Sprintf("%s(pts:none)", s.Kind)
	}
	return fmt.Sprintf("%s(pts:%v)", s.Kind, s.PTS)
}
