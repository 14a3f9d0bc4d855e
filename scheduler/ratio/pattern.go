package ratio

import (
	"math"
	"strings"

	"github.com/xaionaro-go/avframeskip/types"
)

// Pattern is one cycle of skip decisions; true means the frame at that
// position of the cycle is dropped.
type Pattern []bool

// NewPattern spreads skip drops evenly over a cycle of total frames.
//
// Cycle positions are 1-indexed: for k in 1..skip the frame at
// round(k*total/skip) is dropped. The result is empty (nothing is
// dropped) unless 0 < skip < total.
func NewPattern(skip, total uint64) Pattern {
	if skip == 0 || skip >= total {
		return nil
	}

	pattern := make(Pattern, total)
	eachN := float64(total) / float64(skip)
	for k := uint64(1); k <= skip; k++ {
		position := uint64(math.Round(float64(k) * eachN))
		pattern[position-1] = true
	}
	return pattern
}

// ComputeSkipPattern is LowestRatio followed by NewPattern.
func ComputeSkipPattern(
	sourceRate, targetRate float64,
) (skip, total uint64, pattern Pattern, err error) {
	skip, total, err = LowestRatio(sourceRate, targetRate)
	if err != nil {
		return 0, 0, nil, err
	}
	return skip, total, NewPattern(skip, total), nil
}

func (p Pattern) SkipCount() uint64 {
	var count uint64
	for _, isDropped := range p {
		if isDropped {
			count++
		}
	}
	return count
}

func (p Pattern) KeepFraction() types.Rational {
	if len(p) == 0 {
		return types.Rational{Num: 1, Den: 1}
	}
	total := len(p)
	return types.Rational{
		Num: total - int(p.SkipCount()),
		Den: total,
	}.Reduce()
}

// String renders the cycle with '-' for a dropped frame and '+' for a kept one.
func (p Pattern) String() string {
	var sb strings.Builder
	for _, isDropped := range p {
		if isDropped {
			sb.WriteByte('-')
		} else {
			sb.WriteByte('+')
		}
	}
	return sb.String()
}
