package types

import (
	"sync/atomic"
)

type DecisionStatistics struct {
	Kept     uint64 `json:",omitempty"`
	Dropped  uint64 `json:",omitempty"`
	Bypassed uint64 `json:",omitempty"`
	Failed   uint64 `json:",omitempty"`
}

// Evaluated is the amount of media samples a decision was made for.
func (s DecisionStatistics) Evaluated() uint64 {
	return s.Kept + s.Dropped
}

type DecisionCounters struct {
	Kept     atomic.Uint64
	Dropped  atomic.Uint64
	Bypassed atomic.Uint64
	Failed   atomic.Uint64
}

func (c *DecisionCounters) Increment(d Decision) {
	if d.IsKeep() {
		c.Kept.Add(1)
	} else {
		c.Dropped.Add(1)
	}
}

func (c *DecisionCounters) Reset() {
	c.Kept.Store(0)
	c.Dropped.Store(0)
	c.Bypassed.Store(0)
	c.Failed.Store(0)
}

func (c *DecisionCounters) ToStats() DecisionStatistics {
	return DecisionStatistics{
		Kept:     c.Kept.Load(),
		Dropped:  c.Dropped.Load(),
		Bypassed: c.Bypassed.Load(),
		Failed:   c.Failed.Load(),
	}
}
