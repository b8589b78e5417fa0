// Package observability exposes the incremental-rebuild telemetry as
// OpenTelemetry instruments backed by a Prometheus scrape endpoint.
package observability

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/Sumatoshi-tech/bslcheck/pkg/rebuild"
)

const (
	metricOpensTotal       = "bslcheck.documents.opened.total"
	metricPlansTotal       = "bslcheck.rebuild.plans.total"
	metricFallbacksTotal   = "bslcheck.rebuild.fallbacks.total"
	metricRoutinesReplaced = "bslcheck.rebuild.routines.replaced.total"
	metricInnerReused      = "bslcheck.rebuild.inner.reused.total"
	metricInnerTotal       = "bslcheck.rebuild.inner.total"
	metricUpdateDuration   = "bslcheck.update.duration.seconds"

	attrReason = "reason"
)

// durationBucketBoundaries covers sub-millisecond single-routine updates up
// to multi-second full reparses of large modules.
var durationBucketBoundaries = []float64{0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5}

// Metrics holds the instruments for document updates. It implements the
// workspace Observer contract.
type Metrics struct {
	opensTotal       metric.Int64Counter
	plansTotal       metric.Int64Counter
	fallbacksTotal   metric.Int64Counter
	routinesReplaced metric.Int64Counter
	innerReused      metric.Int64Counter
	innerTotal       metric.Int64Counter
	updateDuration   metric.Float64Histogram
}

// NewMetrics creates the instruments from the given meter.
func NewMetrics(mt metric.Meter) (*Metrics, error) {
	opens, err := mt.Int64Counter(metricOpensTotal,
		metric.WithDescription("Documents opened or fully reparsed"),
		metric.WithUnit("{document}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricOpensTotal, err)
	}

	plans, err := mt.Int64Counter(metricPlansTotal,
		metric.WithDescription("Rebuild plans by decision reason"),
		metric.WithUnit("{plan}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricPlansTotal, err)
	}

	fallbacks, err := mt.Int64Counter(metricFallbacksTotal,
		metric.WithDescription("Selective rebuilds that fell back to the full tree"),
		metric.WithUnit("{rebuild}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricFallbacksTotal, err)
	}

	replaced, err := mt.Int64Counter(metricRoutinesReplaced,
		metric.WithDescription("Routines spliced in from reparsed trees"),
		metric.WithUnit("{routine}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricRoutinesReplaced, err)
	}

	reused, err := mt.Int64Counter(metricInnerReused,
		metric.WithDescription("Inner nodes of replaced routines matched by fingerprint"),
		metric.WithUnit("{node}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricInnerReused, err)
	}

	total, err := mt.Int64Counter(metricInnerTotal,
		metric.WithDescription("Inner nodes of replaced routines"),
		metric.WithUnit("{node}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricInnerTotal, err)
	}

	duration, err := mt.Float64Histogram(metricUpdateDuration,
		metric.WithDescription("Document update duration in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(durationBucketBoundaries...),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricUpdateDuration, err)
	}

	return &Metrics{
		opensTotal:       opens,
		plansTotal:       plans,
		fallbacksTotal:   fallbacks,
		routinesReplaced: replaced,
		innerReused:      reused,
		innerTotal:       total,
		updateDuration:   duration,
	}, nil
}

// ObserveOpen records a full parse of a newly opened document.
func (m *Metrics) ObserveOpen(_ string, duration time.Duration) {
	ctx := context.Background()

	m.opensTotal.Add(ctx, 1)
	m.updateDuration.Record(ctx, duration.Seconds())
}

// ObserveUpdate records one incremental update.
func (m *Metrics) ObserveUpdate(_ string, plan rebuild.Plan, res rebuild.Result, duration time.Duration) {
	ctx := context.Background()

	m.plansTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String(attrReason, string(plan.Reason)),
	))

	if res.FallbackUsed {
		m.fallbacksTotal.Add(ctx, 1)
	}

	m.routinesReplaced.Add(ctx, int64(res.Replaced))
	m.innerReused.Add(ctx, int64(res.InnerReused))
	m.innerTotal.Add(ctx, int64(res.InnerTotal))
	m.updateDuration.Record(ctx, duration.Seconds())
}
