package telemetry

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel/metric"
)

// ErrMeterNil is returned when metrics are built without a meter
var ErrMeterNil = errors.New("telemetry: meter is nil")

// Conversion outcomes
const (
	OutcomeConverted = "converted"
	OutcomeRejected  = "rejected"
	OutcomeFailed    = "failed"
)

// ConversionMetrics tracks lead conversions.
type ConversionMetrics struct {
	total    *Counter
	duration *Histogram
	leads    *Counter
}

// NewConversionMetrics registers the CRM business instruments on meter
func NewConversionMetrics(meter metric.Meter) (*ConversionMetrics, error) {
	if meter == nil {
		return nil, ErrMeterNil
	}
	total, err := NewCounter(meter, "crm_lead_conversions_total", "Lead conversion attempts by outcome", "{conversion}")
	if err != nil {
		return nil, err
	}
	duration, err := NewHistogram(meter, HistogramOpts{
		Name:        "crm_lead_conversion_duration_seconds",
		Description: "Latency of the lead conversion transaction",
		Unit:        "s",
		Boundaries:  DBDurationBuckets,
	})
	if err != nil {
		return nil, err
	}
	leads, err := NewCounter(meter, "crm_leads_created_total", "Leads captured", "{lead}")
	if err != nil {
		return nil, err
	}
	return &ConversionMetrics{total: total, duration: duration, leads: leads}, nil
}

// RecordConversion records one conversion attempt. reason is the error code on failure.
func (m *ConversionMetrics) RecordConversion(ctx context.Context, tenantID int64, outcome, reason string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.total.Inc(ctx, AttrTenantID.Int64(tenantID), AttrOutcome.String(outcome), AttrReason.String(reason))
	m.duration.RecordDuration(ctx, elapsed, AttrOutcome.String(outcome))
}

// RecordLeadCreated counts a captured lead
func (m *ConversionMetrics) RecordLeadCreated(ctx context.Context, tenantID int64) {
	if m == nil {
		return
	}
	m.leads.Inc(ctx, AttrTenantID.Int64(tenantID))
}
