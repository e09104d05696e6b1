package main

import (
	"context"

	"calculator-brain/internal/calculator"
	"calculator-brain/internal/observability"
	"calculator-brain/internal/session"
)

// initMetrics initialises all metric providers, application-specific metric
// instruments and Prometheus collectors.
func initMetrics(ctx context.Context, store *session.Store) (func(context.Context) error, error) {
	shutdown, err := observability.InitMetrics(ctx)
	if err != nil {
		return nil, err
	}

	if err := calculator.InitMetrics(); err != nil {
		return nil, err
	}

	if err := observability.RegisterCollectors(store.Collector()); err != nil {
		return nil, err
	}

	return shutdown, nil
}
