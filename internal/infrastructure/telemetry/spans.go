package telemetry

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// TracerName is the instrumentation name of application spans
const TracerName = "crm-backend"

// Span attribute keys used by application services
const (
	SpanAttrTenantID      = "crm.tenant_id"
	SpanAttrUserID        = "crm.user_id"
	SpanAttrLeadID        = "crm.lead_id"
	SpanAttrCustomerID    = "crm.customer_id"
	SpanAttrOpportunityID = "crm.opportunity_id"
)

// StartServiceSpan starts an internal span named "{service}.{method}".
//
//	ctx, span := telemetry.StartServiceSpan(ctx, "lead_conversion", "convert")
//	defer span.End()
func StartServiceSpan(ctx context.Context, service, method string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return otel.GetTracerProvider().Tracer(TracerName).Start(ctx,
		fmt.Sprintf("%s.%s", service, method),
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(attrs...),
	)
}

// RecordError marks the span as failed
func RecordError(span trace.Span, err error) {
	if span == nil || err == nil {
		return
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}

// SetInt64 sets an int64 attribute when the pointer is set
func SetInt64(span trace.Span, key string, value *int64) {
	if span == nil || value == nil {
		return
	}
	span.SetAttributes(attribute.Int64(key, *value))
}

// TraceID returns the trace id of the current span, "" if none
func TraceID(ctx context.Context) string {
	id := trace.SpanFromContext(ctx).SpanContext().TraceID()
	if !id.IsValid() {
		return ""
	}
	return id.String()
}
