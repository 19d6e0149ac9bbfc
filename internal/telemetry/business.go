package telemetry

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// BusinessTracer provides span helpers for the domain operations worth
// watching in production: pool assembly, correlation generation, chart builds,
// feedback intake and share notifications.
type BusinessTracer struct {
	tracer trace.Tracer
}

// NewBusinessTracer creates a BusinessTracer on the global provider.
func NewBusinessTracer() *BusinessTracer {
	return &BusinessTracer{tracer: GetBusinessTracer()}
}

// TraceGeneration starts a span around a full engine generation attempt.
func (bt *BusinessTracer) TraceGeneration(ctx context.Context, sampleSize int) (context.Context, trace.Span) {
	ctx, span := bt.tracer.Start(ctx, "correlation_generation")
	span.SetAttributes(Int64Attribute("sample_size", int64(sampleSize)))
	return ctx, span
}

// RecordGenerationResult adds the accepted correlation's details to a span.
func (bt *BusinessTracer) RecordGenerationResult(span trace.Span, result GenerationResult) {
	span.SetAttributes(
		StringAttribute("correlation_id", result.CorrelationID),
		StringAttribute("method", result.Method),
		Float64Attribute("coefficient", result.Coefficient),
		Float64Attribute("p_value", result.PValue),
		Int64Attribute("overlap_points", int64(result.OverlapPoints)),
		Int64Attribute("duration_ms", result.Duration.Milliseconds()),
	)
	span.SetStatus(codes.Ok, "correlation accepted")
}

// TraceCollection starts a span around dataset pool assembly.
func (bt *BusinessTracer) TraceCollection(ctx context.Context, requested int) (context.Context, trace.Span) {
	ctx, span := bt.tracer.Start(ctx, "dataset_collection")
	span.SetAttributes(Int64Attribute("requested", int64(requested)))
	return ctx, span
}

// RecordCollectionMetrics records how a pool assembly went onto a span.
func (bt *BusinessTracer) RecordCollectionMetrics(span trace.Span, metrics CollectionMetrics) {
	span.SetAttributes(
		Int64Attribute("total", int64(metrics.Total)),
		Int64Attribute("real", int64(metrics.Real)),
		Int64Attribute("fallback", int64(metrics.Fallback)),
		Int64Attribute("synthetic", int64(metrics.Synthetic)),
		Int64Attribute("duration_ms", metrics.Duration.Milliseconds()),
	)
}

// TraceChartBuild starts a span around rebuilding a chart payload from a
// stored correlation record.
func (bt *BusinessTracer) TraceChartBuild(ctx context.Context, correlationID string) (context.Context, trace.Span) {
	ctx, span := bt.tracer.Start(ctx, "chart_build")
	span.SetAttributes(StringAttribute("correlation_id", correlationID))
	return ctx, span
}

// TraceFeedback starts a span around applying a rating.
func (bt *BusinessTracer) TraceFeedback(ctx context.Context, rating string) (context.Context, trace.Span) {
	ctx, span := bt.tracer.Start(ctx, "feedback_intake")
	span.SetAttributes(StringAttribute("rating", rating))
	return ctx, span
}

// TraceNotification starts a span around a share notification delivery.
func (bt *BusinessTracer) TraceNotification(ctx context.Context, channel string) (context.Context, trace.Span) {
	ctx, span := bt.tracer.Start(ctx, "share_notification")
	span.SetAttributes(StringAttribute("channel", channel))
	return ctx, span
}

// RecordNotificationResult records the outcome of a notification attempt.
func (bt *BusinessTracer) RecordNotificationResult(span trace.Span, success bool, err error) {
	span.SetAttributes(BoolAttribute("success", success))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return
	}
	span.SetStatus(codes.Ok, "notification delivered")
}

// GenerationResult carries the span attributes of an accepted correlation.
type GenerationResult struct {
	CorrelationID string
	Method        string
	Coefficient   float64
	PValue        float64
	OverlapPoints int
	Duration      time.Duration
}

// CollectionMetrics carries the span attributes of a pool assembly.
type CollectionMetrics struct {
	Total     int
	Real      int
	Fallback  int
	Synthetic int
	Duration  time.Duration
}
