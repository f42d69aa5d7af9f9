package tracing

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	attrPrisonerNumbers = attribute.Key("prisoner.numbers")
	attrContactID       = attribute.Key("contact.id")
)

var tracer trace.Tracer

func SetTracer(t trace.Tracer) {
	tracer = t
}

// StartSpan starts a child span. Without a tracer it returns the span already
// in ctx, which is a no-op span when there is none.
func StartSpan(ctx context.Context, spanName string) (context.Context, trace.Span) {
	if tracer == nil {
		return ctx, trace.SpanFromContext(ctx)
	}
	return tracer.Start(ctx, spanName)
}

// SetPrisonerNumbers tags span with the prisoner identities an operation touches.
func SetPrisonerNumbers(span trace.Span, prisonerNumbers ...string) {
	span.SetAttributes(attrPrisonerNumbers.StringSlice(prisonerNumbers))
}

func SetContactID(span trace.Span, contactID int64) {
	span.SetAttributes(attrContactID.Int64(contactID))
}

// RecordError marks span failed. A nil err leaves it untouched.
func RecordError(span trace.Span, err error) {
	if err == nil {
		return
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}

// GetTraceID returns the id of the sampled trace in ctx, or "".
func GetTraceID(ctx context.Context) string {
	if tracer == nil {
		return ""
	}
	sc := trace.SpanContextFromContext(ctx)
	if !sc.IsValid() {
		return ""
	}
	return sc.TraceID().String()
}
