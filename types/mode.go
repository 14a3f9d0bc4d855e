// mode.go defines Mode, the closed set of frame skipping strategies.

package types

import (
	"fmt"
	"strconv"
	"strings"
)

type Mode uint

const (
	// ModeRatioBased drops a fixed number of frames out of every cycle of
	// frames ("skip x every y").
	ModeRatioBased = Mode(0)

	// ModeTimeBased drops frames arriving before the next deadline derived
	// from the target frame rate.
	ModeTimeBased = Mode(1)

	endOfMode = Mode(2)
)

func Modes() []Mode {
	return []Mode{
		ModeRatioBased,
		ModeTimeBased,
	}
}

func (m Mode) IsValid() bool {
	return m < endOfMode
}

func (m Mode) String() string {
	switch m {
	case ModeRatioBased:
		return "ratio"
	case ModeTimeBased:
		return "time"
	default:
		return "Mode(" + strconv.FormatUint(uint64(m), 10) + ")"
	}
}

func ModeFromString(s string) (Mode, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for _, m := range Modes() {
		if s == m.String() || s == strconv.FormatUint(uint64(m), 10) {
			return m, nil
		}
	}
	switch s {
	case "ratio-based", "skip-x-every-y":
		return ModeRatioBased, nil
	case "time-based", "target-rate":
		return ModeTimeBased, nil
	}
	return 0, fmt.Errorf("unknown mode %q", s)
}

func (m Mode) MarshalText() ([]byte, error) {
	if !m.IsValid() {
		return nil, fmt.Errorf("invalid mode %d", uint(m))
	}
	return []byte(m.String()), nil
}

func (m *Mode) UnmarshalText(b []byte) error {
	v, err := ModeFromString(string(b))
	if err != nil {
		return err
	}
	*m = v
	return nil
}

// Set implements pflag.Value.
func (m *Mode) Set(s string) error {
	return m.UnmarshalText([]byte(s))
}

// Type implements pflag.Value.
func (m *Mode) Type() string {
	return "mode"
}
