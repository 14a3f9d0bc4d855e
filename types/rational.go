// rational.go defines Rational, the exact representation of frame rates and fractions.

package types

import (
	"encoding/json"
	"fmt"
	"math"
	"math/big"
	"strconv"
	"strings"
)

type Rational struct {
	Num int
	Den int
}

func (r Rational) Reverse() Rational {
	return Rational{
		Num: r.Den,
		Den: r.Num,
	}
}

func (r Rational) Mul(other Rational) Rational {
	return Rational{
		Num: r.Num * other.Num,
		Den: r.Den * other.Den,
	}.Reduce()
}

// ScaleInt64 returns v*Num/Den truncated toward zero. The intermediate
// product does not overflow; a result outside the int64 range saturates.
func (r Rational) ScaleInt64(v int64) int64 {
	if r.Den == 0 {
		return v
	}
	result := big.NewInt(v)
	result.Mul(result, big.NewInt(int64(r.Num)))
	result.Quo(result, big.NewInt(int64(r.Den)))
	switch {
	case result.IsInt64():
		return result.Int64()
	case result.Sign() > 0:
		return math.MaxInt64
	default:
		return math.MinInt64
	}
}

// Reduce returns the same value in lowest terms with a positive denominator.
func (r Rational) Reduce() Rational {
	if r.Den == 0 {
		return r
	}
	if r.Den < 0 {
		r.Num, r.Den = -r.Num, -r.Den
	}
	if r.Num == 0 {
		return Rational{Num: 0, Den: 1}
	}
	gcd := int(big.NewInt(0).GCD(nil, nil, big.NewInt(int64(abs(r.Num))), big.NewInt(int64(r.Den))).Int64())
	return Rational{
		Num: r.Num / gcd,
		Den: r.Den / gcd,
	}
}

func (r Rational) IsZero() bool {
	return r.Num == 0 || r.Den == 0
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

func newNTSCRationalFromFloat64(f float64) *big.Rat {
	den := 1001 // common denominator for NTSC frame rates
	num := math.Ceil(f) * 1000
	r := big.NewRat(int64(num), int64(den))
	confirmValue, _ := r.Float64()
	if math.Abs(f-confirmValue) < 1e-2 {
		return r
	}
	return nil
}

// RationalFromApproxFloat64 snaps fps to an NTSC rate (N*1000/1001) when it
// is close enough to one.
func RationalFromApproxFloat64(fps float64) Rational {
	if float64(int(fps)) == fps {
		return Rational{Num: int(fps), Den: 1}
	}

	if rat := newNTSCRationalFromFloat64(fps); rat != nil {
		return Rational{
			Num: int(rat.Num().Int64()),
			Den: int(rat.Denom().Int64()),
		}
	}

	return RationalFromFloat64(fps)
}

func RationalFromFloat64(fps float64) Rational {
	if float64(int(fps)) == fps {
		return Rational{Num: int(fps), Den: 1}
	}
	return Rational{
		Num: int(math.Round(fps * 1000000)),
		Den: 1000000,
	}.Reduce()
}

func RationalFromString(s string) (*Rational, error) {
	var r Rational
	s = strings.TrimSpace(s)
	switch {
	case len(s) == 0:
		return nil, fmt.Errorf("unable to parse Rational from empty string")
	case strings.Contains(s, "/"):
		if _, err := fmt.Sscanf(s, "%d/%d", &r.Num, &r.Den); err != nil {
			return nil, fmt.Errorf("unable to parse Rational from %q: %w", s, err)
		}
	case s[0] == '~':
		fps, err := strconv.ParseFloat(s[1:], 64)
		if err != nil {
			return nil, fmt.Errorf("unable to parse Rational from %q: %w", s, err)
		}
		r = RationalFromApproxFloat64(fps)
	default:
		fps, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil, fmt.Errorf("unable to parse Rational from %q: %w", s, err)
		}
		r = RationalFromFloat64(fps)
	}
	if r.Den == 0 {
		return nil, fmt.Errorf("denominator cannot be zero")
	}
	return &r, nil
}

// Float64 returns zero for a zero denominator, so an unset rate reads as "disabled".
func (r Rational) Float64() float64 {
	if r.Den == 0 {
		return 0
	}
	return float64(r.Num) / float64(r.Den)
}

func (r Rational) String() string {
	return fmt.Sprintf("%d/%d", r.Num, r.Den)
}

func (r Rational) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.String())
}

func (r *Rational) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("unable to unmarshal Rational from JSON '%s': %w", b, err)
	}
	return r.UnmarshalText([]byte(s))
}

func (r Rational) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

func (r *Rational) UnmarshalText(b []byte) error {
	v, err := RationalFromString(string(b))
	if err != nil {
		return fmt.Errorf("unable to unmarshal Rational from string %q: %w", b, err)
	}
	*r = *v
	return nil
}
