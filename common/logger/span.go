package logger

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "grammar-police"

// Span is a started OTel span together with the context that carries it.
type Span struct {
	ctx  context.Context
	span trace.Span
}

// StartSpan starts a child span of whatever trace ctx carries.
//
//	sp := logger.StartSpan(ctx, "pipeline.run")
//	defer sp.End()
//	ctx = sp.Context()
func StartSpan(ctx context.Context, name string, opts ...trace.SpanStartOption) *Span {
	ctx, span := otel.Tracer(tracerName).Start(ctx, name, opts...)
	return &Span{ctx: ctx, span: span}
}

// StartLinkedSpan continues a trace whose ID travelled through the queue as a hex
// string. An empty or invalid ID starts a fresh trace.
func StartLinkedSpan(ctx context.Context, traceIDHex, name string, opts ...trace.SpanStartOption) *Span {
	traceID, err := trace.TraceIDFromHex(traceIDHex)
	if traceIDHex == "" || err != nil {
		return StartSpan(ctx, name, opts...)
	}

	remote := trace.NewSpanContext(trace.SpanContextConfig{
		TraceID:    traceID,
		TraceFlags: trace.FlagsSampled,
		Remote:     true,
	})
	opts = append(opts, trace.WithLinks(trace.Link{SpanContext: remote}))
	return StartSpan(trace.ContextWithRemoteSpanContext(ctx, remote), name, opts...)
}

func (s *Span) Context() context.Context {
	return s.ctx
}

func (s *Span) End() {
	if s.span != nil {
		s.span.End()
	}
}

// Fail records err on the span and marks it as errored.
func (s *Span) Fail(err error) {
	if s.span == nil || err == nil {
		return
	}
	s.span.RecordError(err)
	s.span.SetStatus(codes.Error, err.Error())
}

// TraceID returns the hex trace ID of the span, or "" when tracing is disabled.
func (s *Span) TraceID() string {
	if s.span == nil || !s.span.SpanContext().HasTraceID() {
		return ""
	}
	return s.span.SpanContext().TraceID().String()
}
