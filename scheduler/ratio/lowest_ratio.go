// lowest_ratio.go reduces a source/target frame rate pair to the lowest "skip x out of every y" ratio.

package ratio

import (
	"math"

	"github.com/xaionaro-go/avframeskip/types"
)

const (
	// Epsilon is the tolerance under which the source and target rates are
	// considered equal.
	Epsilon = 0.0001

	// rates are supported with at most one decimal digit
	decimalScale = 10

	integerTolerance = 1e-6
)

// LowestRatio returns how many frames to skip out of every total frames
// to convert sourceRate to targetRate, in lowest terms.
//
// Equal rates yield (0, 0). A zero targetRate yields (1, 1).
func LowestRatio(
	sourceRate, targetRate float64,
) (skip, total uint64, _err error) {
	errInvalid := func(reason string) error {
		return types.ErrInvalidConfiguration{
			Source: sourceRate,
			Target: targetRate,
			Reason: reason,
		}
	}
	switch {
	case math.IsNaN(sourceRate) || math.IsNaN(targetRate) || math.IsInf(sourceRate, 0) || math.IsInf(targetRate, 0):
		return 0, 0, errInvalid("the rates must be finite")
	case sourceRate < 0 || targetRate < 0:
		return 0, 0, errInvalid("the rates must not be negative")
	case targetRate > sourceRate:
		return 0, 0, errInvalid("the target rate exceeds the source rate")
	}
	if sourceRate-targetRate < Epsilon {
		return 0, 0, nil
	}
	if targetRate == 0 {
		return 1, 1, nil
	}

	if !isInteger(sourceRate) || !isInteger(targetRate) {
		sourceRate *= decimalScale
		targetRate *= decimalScale
		if !isInteger(sourceRate) || !isInteger(targetRate) {
			return 0, 0, errInvalid("only rates with at most one decimal digit are supported")
		}
	}
	source, target := math.Round(sourceRate), math.Round(targetRate)

	gcd := greatestCommonDivisor(source, target)
	skip = uint64((source - target) / gcd)
	total = uint64(source / gcd)
	return skip, total, nil
}

func isInteger(v float64) bool {
	return math.Abs(v-math.Round(v)) < integerTolerance
}

// greatestCommonDivisor expects positive integral values.
//
// It replaces the larger value with its IEEE remainder modulo the smaller
// one; a negative remainder is corrected by adding the modulus back.
func greatestCommonDivisor(a, b float64) float64 {
	for {
		if a > b {
			a = math.Remainder(a, b)
			if a < 0 {
				a += b
			}
		} else {
			b = math.Remainder(b, a)
			if b < 0 {
				b += a
			}
		}
		if a <= 0 {
			return b
		}
		if b <= 0 {
			return a
		}
	}
}
