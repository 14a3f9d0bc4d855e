// Package metrics provides the OpenTelemetry instruments of avframeskip.
//
// Metrics are recorded through the OpenTelemetry Metrics API. Tests should
// use [New] with their own [metric.MeterProvider]; [Default] binds to the
// global provider (a no-op one unless [InitPrometheus] was called).
package metrics

import (
	"context"
	"sync"

	"github.com/xaionaro-go/avframeskip/types"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "github.com/xaionaro-go/avframeskip"

const (
	DecisionKeep   = "keep"
	DecisionDrop   = "drop"
	DecisionBypass = "bypass"
	DecisionError  = "error"
)

type Metrics struct {
	// Frames counts samples by decision and mode.
	Frames metric.Int64Counter

	// Reconfigurations counts skip pattern / deadline recomputations.
	Reconfigurations metric.Int64Counter

	// InvalidConfigurations counts configurations degraded to keeping every frame.
	InvalidConfigurations metric.Int64Counter

	// KeepFraction is the fraction of frames the active configuration keeps.
	KeepFraction metric.Float64Gauge
}

func New(mp metric.MeterProvider) (*Metrics, error) {
	m := mp.Meter(meterName)
	var err error
	met := &Metrics{}

	if met.Frames, err = m.Int64Counter("avframeskip.frames",
		metric.WithDescription("Samples seen by the frame skipping engine, by decision and mode."),
	); err != nil {
		return nil, err
	}
	if met.Reconfigurations, err = m.Int64Counter("avframeskip.reconfigurations",
		metric.WithDescription("Recomputations of the skip pattern or the frame deadline."),
	); err != nil {
		return nil, err
	}
	if met.InvalidConfigurations, err = m.Int64Counter("avframeskip.invalid_configurations",
		metric.WithDescription("Configurations that were degraded to keeping every frame."),
	); err != nil {
		return nil, err
	}
	if met.KeepFraction, err = m.Float64Gauge("avframeskip.keep_fraction",
		metric.WithDescription("Fraction of frames kept by the active configuration."),
	); err != nil {
		return nil, err
	}
	return met, nil
}

var (
	defaultMetrics     *Metrics
	defaultMetricsOnce sync.Once
)

func Default() *Metrics {
	defaultMetricsOnce.Do(func() {
		var err error
		defaultMetrics, err = New(otel.GetMeterProvider())
		if err != nil {
			panic("metrics: failed to create default metrics: " + err.Error())
		}
	})
	return defaultMetrics
}

func modeAttr(mode types.Mode) attribute.KeyValue {
	return attribute.String("mode", mode.String())
}

func (m *Metrics) RecordDecision(ctx context.Context, mode types.Mode, decision string) {
	if m == nil {
		return
	}
	m.Frames.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("decision", decision),
			modeAttr(mode),
		),
	)
}

func (m *Metrics) RecordReconfiguration(ctx context.Context, mode types.Mode, keepFraction float64) {
	if m == nil {
		return
	}
	m.Reconfigurations.Add(ctx, 1, metric.WithAttributes(modeAttr(mode)))
	m.KeepFraction.Record(ctx, keepFraction, metric.WithAttributes(modeAttr(mode)))
}

func (m *Metrics) RecordInvalidConfiguration(ctx context.Context, mode types.Mode) {
	if m == nil {
		return
	}
	m.InvalidConfigurations.Add(ctx, 1, metric.WithAttributes(modeAttr(mode)))
}
