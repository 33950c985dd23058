package app

import (
	"context"
	"time"

	"github.com/YuminosukeSato/carprice/pkg/errors"
	"github.com/go-kit/kit/metrics"
	kitprometheus "github.com/go-kit/kit/metrics/prometheus"
	"github.com/prometheus/client_golang/prometheus"
)

var _ Service = (*metricsMiddleware)(nil)

type metricsMiddleware struct {
	counter metrics.Counter
	latency metrics.Histogram
	svc     Service
}

// MetricsMiddleware counts calls to svc and records their latency.
func MetricsMiddleware(counter metrics.Counter, latency metrics.Histogram, svc Service) Service {
	return &metricsMiddleware{
		counter: counter,
		latency: latency,
		svc:     svc,
	}
}

// MakeMetrics registers a request counter and a latency histogram, both
// labelled by method, on reg.
func MakeMetrics(reg prometheus.Registerer, namespace, subsystem string) (metrics.Counter, metrics.Histogram, error) {
	counterVec := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "request_count",
		Help:      "Number of requests received.",
	}, []string{"method"})
	latencyVec := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "request_latency_seconds",
		Help:      "Total duration of requests in seconds.",
	}, []string{"method"})

	if err := reg.Register(counterVec); err != nil {
		return nil, nil, errors.Wrap(err, "register request counter")
	}
	if err := reg.Register(latencyVec); err != nil {
		return nil, nil, errors.Wrap(err, "register latency histogram")
	}
	return kitprometheus.NewCounter(counterVec), kitprometheus.NewHistogram(latencyVec), nil
}

// WriteMetrics writes everything gathered by g to path in the Prometheus text
// format, for the node exporter textfile collector.
func WriteMetrics(path string, g prometheus.Gatherer) error {
	if err := prometheus.WriteToTextfile(path, g); err != nil {
		return errors.Wrapf(err, "write metrics %s", path)
	}
	return nil
}

func (mm *metricsMiddleware) Train(ctx context.Context) (Report, error) {
	defer func(begin time.Time) {
		mm.counter.With("method", "train").Add(1)
		mm.latency.With("method", "train").Observe(time.Since(begin).Seconds())
	}(time.Now())

	return mm.svc.Train(ctx)
}

func (mm *metricsMiddleware) Run(ctx context.Context, mode Mode) (Outcome, error) {
	defer func(begin time.Time) {
		mm.counter.With("method", "run").Add(1)
		mm.latency.With("method", "run").Observe(time.Since(begin).Seconds())
	}(time.Now())

	return mm.svc.Run(ctx, mode)
}

func (mm *metricsMiddleware) Predict(ctx context.Context, mileage float64) (float64, error) {
	defer func(begin time.Time) {
		mm.counter.With("method", "predict").Add(1)
		mm.latency.With("method", "predict").Observe(time.Since(begin).Seconds())
	}(time.Now())

	return mm.svc.Predict(ctx, mileage)
}
