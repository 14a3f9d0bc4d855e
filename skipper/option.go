package skipper

import (
	"github.com/xaionaro-go/avframeskip/metrics"
)

type Options struct {
	Metrics *metrics.Metrics
}

type Option interface {
	apply(*Options)
}

type OptionsList []Option

func (s OptionsList) apply(cfg *Options) {
	for _, opt := range s {
		opt.apply(cfg)
	}
}

func (s OptionsList) Options() Options {
	cfg := Options{}
	s.apply(&cfg)
	return cfg
}

// OptionMetrics makes the engine record its decisions into the given
// instruments. Without it nothing is recorded.
type OptionMetrics struct {
	*metrics.Metrics
}

func (opt OptionMetrics) apply(cfg *Options) {
	cfg.Metrics = opt.Metrics
}
