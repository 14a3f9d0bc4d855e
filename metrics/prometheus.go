package metrics

import (
	"context"
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	promexporter "go.opentelemetry.io/otel/exporters/prometheus"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

// InitPrometheus registers a global meter provider that is scraped through
// the default Prometheus registry (see Handler).
//
// Call it before Default. The returned function flushes and shuts the
// provider down.
func InitPrometheus(ctx context.Context) (shutdown func(context.Context) error, _err error) {
	exporter, err := promexporter.New()
	if err != nil {
		return nil, fmt.Errorf("unable to initialize the Prometheus exporter: %w", err)
	}

	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(exporter))
	otel.SetMeterProvider(mp)
	return mp.Shutdown, nil
}

func Handler() http.Handler {
	return promhttp.Handler()
}
