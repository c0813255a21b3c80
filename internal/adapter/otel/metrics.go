package otel

import (
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "whippet"

// Metrics holds the whippet metric instruments.
type Metrics struct {
	TenantsCreated      metric.Int64Counter
	RootBootstraps      metric.Int64Counter
	GuardViolations     metric.Int64Counter
	AssignmentsGranted  metric.Int64Counter
	AssignmentsRevoked  metric.Int64Counter
	FilterQueryDuration metric.Float64Histogram
}

// NewMetrics creates all metric instruments on the global meter provider.
func NewMetrics() (*Metrics, error) {
	return NewMetricsFrom(otel.GetMeterProvider())
}

// NewMetricsFrom creates the instruments on the given provider.
func NewMetricsFrom(mp metric.MeterProvider) (*Metrics, error) {
	meter := mp.Meter(meterName)
	m := &Metrics{}
	var err error

	m.TenantsCreated, err = meter.Int64Counter("whippet.tenants.created",
		metric.WithDescription("Number of tenants created"))
	if err != nil {
		return nil, err
	}

	m.RootBootstraps, err = meter.Int64Counter("whippet.tenants.root_bootstraps",
		metric.WithDescription("Number of successful root tenant bootstraps"))
	if err != nil {
		return nil, err
	}

	m.GuardViolations, err = meter.Int64Counter("whippet.tenants.guard_violations",
		metric.WithDescription("Rejected attempts to deactivate, delete or re-establish the root tenant"))
	if err != nil {
		return nil, err
	}

	m.AssignmentsGranted, err = meter.Int64Counter("whippet.assignments.granted",
		metric.WithDescription("Number of user, role and group assignments granted"))
	if err != nil {
		return nil, err
	}

	m.AssignmentsRevoked, err = meter.Int64Counter("whippet.assignments.revoked",
		metric.WithDescription("Number of assignments revoked or soft-deleted"))
	if err != nil {
		return nil, err
	}

	m.FilterQueryDuration, err = meter.Float64Histogram("whippet.filter.duration_seconds",
		metric.WithDescription("Tenant-filtered repository query duration in seconds"))
	if err != nil {
		return nil, err
	}

	return m, nil
}
