package database

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// RegisterMetrics exposes pool statistics as observable gauges on the given
// meter. The instruments are unregistered when the pool closes.
func (p *Pool) RegisterMetrics(meter metric.Meter) error {
	open, err := meter.Int64ObservableGauge("db.pool.open",
		metric.WithDescription("Open connections across all partitions"),
	)
	if err != nil {
		return fmt.Errorf("creating db.pool.open gauge: %w", err)
	}

	inUse, err := meter.Int64ObservableGauge("db.pool.in_use",
		metric.WithDescription("Connections currently checked out"),
	)
	if err != nil {
		return fmt.Errorf("creating db.pool.in_use gauge: %w", err)
	}

	idle, err := meter.Int64ObservableGauge("db.pool.idle",
		metric.WithDescription("Idle connections across all partitions"),
	)
	if err != nil {
		return fmt.Errorf("creating db.pool.idle gauge: %w", err)
	}

	waits, err := meter.Int64ObservableCounter("db.pool.wait_count",
		metric.WithDescription("Total checkouts that had to wait for a connection"),
	)
	if err != nil {
		return fmt.Errorf("creating db.pool.wait_count counter: %w", err)
	}

	attrs := metric.WithAttributes(attribute.Int("partitions", len(p.partitions)))
	reg, err := meter.RegisterCallback(func(_ context.Context, o metric.Observer) error {
		stats := p.Stats()
		o.ObserveInt64(open, int64(stats.Open), attrs)
		o.ObserveInt64(inUse, int64(stats.InUse), attrs)
		o.ObserveInt64(idle, int64(stats.Idle), attrs)
		o.ObserveInt64(waits, stats.WaitCount, attrs)
		return nil
	}, open, inUse, idle, waits)
	if err != nil {
		return fmt.Errorf("registering pool metrics callback: %w", err)
	}

	p.mu.Lock()
	p.unregisterMetrics = reg.Unregister
	p.mu.Unlock()
	return nil
}
