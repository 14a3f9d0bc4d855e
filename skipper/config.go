package skipper

import (
	"errors"
	"fmt"

	"github.com/xaionaro-go/avframeskip/types"
)

type Config struct {
	Mode types.Mode `yaml:"mode"`

	// SkipFrameNumber and TotalFrames define "skip x out of every y"
	// directly; they are used in ModeRatioBased only when neither the
	// source nor the target rate is configured.
	SkipFrameNumber uint64 `yaml:"skip_frame_number"`
	TotalFrames     uint64 `yaml:"total_frames"`

	SourceFrameRate types.Rational `yaml:"source_frame_rate"`

	// TargetFrameRate of zero disables frame skipping.
	TargetFrameRate types.Rational `yaml:"target_frame_rate"`
}

func (cfg Config) Validate() error {
	var errs []error
	if !cfg.Mode.IsValid() {
		errs = append(errs, fmt.Errorf("mode %s is invalid; valid values: %v", cfg.Mode, types.Modes()))
	}
	for _, rate := range []struct {
		name  string
		value types.Rational
	}{
		{"source_frame_rate", cfg.SourceFrameRate},
		{"target_frame_rate", cfg.TargetFrameRate},
	} {
		switch {
		case rate.value.Den == 0 && rate.value.Num != 0:
			errs = append(errs, fmt.Errorf("%s %s has a zero denominator", rate.name, rate.value))
		case rate.value.Float64() < 0:
			errs = append(errs, fmt.Errorf("%s %s must not be negative", rate.name, rate.value))
		}
	}
	return errors.Join(errs...)
}

// SourceRate returns the source frame rate in frames per second.
func (cfg Config) SourceRate() float64 {
	return cfg.SourceFrameRate.Float64()
}

// TargetRate returns the target frame rate in frames per second.
func (cfg Config) TargetRate() float64 {
	return cfg.TargetFrameRate.Float64()
}

func (cfg Config) hasRates() bool {
	return cfg.SourceRate() > 0 || cfg.TargetRate() > 0
}

func (cfg Config) String() string {
	switch cfg.Mode {
	case types.ModeRatioBased:
		if cfg.hasRates() {
			return fmt.Sprintf("%s(%s -> %s fps)", cfg.Mode, cfg.SourceFrameRate, cfg.TargetFrameRate)
		}
		return fmt.Sprintf("%s(skip %d of %d)", cfg.Mode, cfg.SkipFrameNumber, cfg.TotalFrames)
	default:
		return fmt.Sprintf("%s(%s -> %s fps)", cfg.Mode, cfg.SourceFrameRate, cfg.TargetFrameRate)
	}
}
