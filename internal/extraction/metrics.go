package extraction

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"

	"github.com/leaguelab/constraintd/internal/schema"
)

const instrumentationName = "github.com/leaguelab/constraintd/internal/extraction"

// Metrics holds extraction metrics. Instruments are nil-safe.
type Metrics struct {
	meter    metric.Meter
	logger   *zap.Logger
	total    metric.Int64Counter
	duration metric.Float64Histogram
	errors   metric.Int64Counter
}

// NewMetrics creates a Metrics instance for extractors.
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

	m.total, err = m.meter.Int64Counter(
		"constraintd.extraction.extractions_total",
		metric.WithDescription("Total extraction calls by model and target variant"),
		metric.WithUnit("{extraction}"),
	)
	if err != nil {
		m.logger.Warn("failed to create extractions counter", zap.Error(err))
	}

	m.duration, err = m.meter.Float64Histogram(
		"constraintd.extraction.duration_seconds",
		metric.WithDescription("Extraction duration in seconds including provider retries"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0, 30.0, 60.0),
	)
	if err != nil {
		m.logger.Warn("failed to create duration histogram", zap.Error(err))
	}

	m.errors, err = m.meter.Int64Counter(
		"constraintd.extraction.errors_total",
		metric.WithDescription("Total failed extractions by model and target variant"),
		metric.WithUnit("{error}"),
	)
	if err != nil {
		m.logger.Warn("failed to create errors counter", zap.Error(err))
	}
}

// RecordExtraction records one extraction attempt.
func (m *Metrics) RecordExtraction(ctx context.Context, model string, variant schema.Variant, duration time.Duration, err error) {
	attrs := []attribute.KeyValue{
		attribute.String("model", model),
		attribute.String("variant", string(variant)),
	}

	if m.total != nil {
		m.total.Add(ctx, 1, metric.WithAttributes(attrs...))
	}
	if m.duration != nil {
		m.duration.Record(ctx, duration.Seconds(), metric.WithAttributes(attrs...))
	}
	if err != nil && m.errors != nil {
		m.errors.Add(ctx, 1, metric.WithAttributes(attrs...))
	}
}
