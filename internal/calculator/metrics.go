package calculator

import (
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

// Metric instruments — initialized once via InitMetrics().
var (
	instructionCounter metric.Int64Counter
	evalHistogram      metric.Float64Histogram
	errorCounter       metric.Int64Counter
	domainErrorCounter metric.Int64Counter
	resultGauge        metric.Float64Gauge
)

// InitMetrics registers custom OTel metric instruments for the calculator domain.
// Call this once at startup (after observability.InitMetrics).
func InitMetrics() error {
	meter := otel.Meter("calculator")

	var err error

	instructionCounter, err = meter.Int64Counter("calculator.instructions.total",
		metric.WithDescription("Total number of instructions appended to session programs"),
		metric.WithUnit("{instruction}"),
	)
	if err != nil {
		return fmt.Errorf("creating instruction counter: %w", err)
	}

	evalHistogram, err = meter.Float64Histogram("calculator.evaluation.duration",
		metric.WithDescription("Duration of program evaluations in milliseconds"),
		metric.WithUnit("ms"),
		metric.WithExplicitBucketBoundaries(0.01, 0.05, 0.1, 0.5, 1, 5, 10),
	)
	if err != nil {
		return fmt.Errorf("creating evaluation histogram: %w", err)
	}

	errorCounter, err = meter.Int64Counter("calculator.errors.total",
		metric.WithDescription("Total number of rejected calculator requests"),
		metric.WithUnit("{error}"),
	)
	if err != nil {
		return fmt.Errorf("creating error counter: %w", err)
	}

	domainErrorCounter, err = meter.Int64Counter("calculator.domain_errors.total",
		metric.WithDescription("Total number of evaluations that reported a domain error"),
		metric.WithUnit("{error}"),
	)
	if err != nil {
		return fmt.Errorf("creating domain error counter: %w", err)
	}

	resultGauge, err = meter.Float64Gauge("calculator.last_result",
		metric.WithDescription("The last finite result produced by an evaluation"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return fmt.Errorf("creating result gauge: %w", err)
	}

	return nil
}
