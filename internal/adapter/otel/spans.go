package otel

import (
	"context"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "whippet"

// StartTenantSpan starts a span for a tenant operation.
func StartTenantSpan(ctx context.Context, op string, tenantID uuid.UUID) (context.Context, trace.Span) {
	return otel.Tracer(tracerName).Start(ctx, "tenant."+op,
		trace.WithAttributes(attribute.String("tenant.id", tenantID.String())),
	)
}

// StartAssignmentSpan starts a span for an assignment mutation.
func StartAssignmentSpan(ctx context.Context, kind string, tenantID, principalID uuid.UUID) (context.Context, trace.Span) {
	return otel.Tracer(tracerName).Start(ctx, "assignment."+kind,
		trace.WithAttributes(
			attribute.String("tenant.id", tenantID.String()),
			attribute.String("principal.id", principalID.String()),
		),
	)
}

// EndSpan records err on the span, if any, and ends it.
func EndSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
