package pipeline

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

const instrumentationName = "github.com/leaguelab/constraintd/internal/pipeline"

// Metrics holds pipeline metrics. Instruments are nil-safe.
type Metrics struct {
	meter     metric.Meter
	logger    *zap.Logger
	requests  metric.Int64Counter
	duration  metric.Float64Histogram
	fragments metric.Int64Counter
}

// NewMetrics creates a Metrics instance for the pipeline.
func NewMetrics(logger *zap.Logger) *Metrics {
	if logger == nil {
		logger = zap.NewNop()
	}
	m := &Metrics{
		meter:  otel.Meter(instrumentationName),
		logger: logger,
	}
	m.init()
	return m
}

func (m *Metrics) init() {
	var err error

	m.requests, err = m.meter.Int64Counter(
		"constraintd.pipeline.requests_total",
		metric.WithDescription("Total processed requests by outcome"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		m.logger.Warn("failed to create requests counter", zap.Error(err))
	}

	m.duration, err = m.meter.Float64Histogram(
		"constraintd.pipeline.request_duration_seconds",
		metric.WithDescription("End-to-end request processing duration in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.1, 0.5, 1.0, 2.5, 5.0, 10.0, 30.0, 60.0, 120.0),
	)
	if err != nil {
		m.logger.Warn("failed to create duration histogram", zap.Error(err))
	}

	m.fragments, err = m.meter.Int64Counter(
		"constraintd.pipeline.fragments_total",
		metric.WithDescription("Total processed fragments by variant and outcome"),
		metric.WithUnit("{fragment}"),
	)
	if err != nil {
		m.logger.Warn("failed to create fragments counter", zap.Error(err))
	}
}

// RecordRequest records one completed request.
func (m *Metrics) RecordRequest(ctx context.Context, duration time.Duration, outcome string) {
	attrs := metric.WithAttributes(attribute.String("outcome", outcome))
	if m.requests != nil {
		m.requests.Add(ctx, 1, attrs)
	}
	if m.duration != nil {
		m.duration.Record(ctx, duration.Seconds(), attrs)
	}
}

// RecordFragment records the outcome of one fragment.
func (m *Metrics) RecordFragment(ctx context.Context, status FragmentStatus) {
	if m.fragments == nil {
		return
	}
	outcome := "ok"
	if !status.OK {
		outcome = status.ErrorKind
	}
	m.fragments.Add(ctx, 1, metric.WithAttributes(
		attribute.String("variant", status.Variant),
		attribute.String("outcome", outcome),
	))
}
