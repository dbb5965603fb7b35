package classifier

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"

	"github.com/leaguelab/constraintd/internal/schema"
)

const instrumentationName = "github.com/leaguelab/constraintd/internal/classifier"

// Metrics holds classification metrics. Instruments are nil-safe.
type Metrics struct {
	meter    metric.Meter
	logger   *zap.Logger
	total    metric.Int64Counter
	duration metric.Float64Histogram
}

// NewMetrics creates a Metrics instance for the classifier.
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
		"constraintd.classifier.classifications_total",
		metric.WithDescription("Total classifications by resulting variant and outcome"),
		metric.WithUnit("{classification}"),
	)
	if err != nil {
		m.logger.Warn("failed to create classifications counter", zap.Error(err))
	}

	m.duration, err = m.meter.Float64Histogram(
		"constraintd.classifier.duration_seconds",
		metric.WithDescription("Classification duration in seconds including embedding round trips"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.01, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0),
	)
	if err != nil {
		m.logger.Warn("failed to create duration histogram", zap.Error(err))
	}
}

// RecordClassification records one classification attempt.
func (m *Metrics) RecordClassification(ctx context.Context, variant schema.Variant, duration time.Duration, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	attrs := []attribute.KeyValue{
		attribute.String("variant", string(variant)),
		attribute.String("outcome", outcome),
	}

	if m.total != nil {
		m.total.Add(ctx, 1, metric.WithAttributes(attrs...))
	}
	if m.duration != nil {
		m.duration.Record(ctx, duration.Seconds(), metric.WithAttributes(attrs...))
	}
}
