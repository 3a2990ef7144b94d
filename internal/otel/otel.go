package otel

import (
	"context"
	"sync"

	eventbus "github.com/unfoldgql/unfold/internal/eventbus"
	events "github.com/unfoldgql/unfold/internal/events"
	reqid "github.com/unfoldgql/unfold/internal/reqid"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/semconv/v1.17.0"
	"go.opentelemetry.io/otel/trace"
	"google.golang.org/grpc"
)

// Setup configures OpenTelemetry and attaches eventbus subscribers.
// If endpoint is empty, no telemetry is configured.
func Setup(endpoint, service string) (func(context.Context) error, error) {
	if endpoint == "" {
		return func(context.Context) error { return nil }, nil
	}
	exp, err := otlptracegrpc.New(context.Background(),
		otlptracegrpc.WithEndpoint(endpoint),
		otlptracegrpc.WithDialOption(grpc.WithInsecure()))
	if err != nil {
		return nil, err
	}
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exp),
		sdktrace.WithResource(resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceName(service),
		)),
	)
	otel.SetTracerProvider(tp)

	sub := &subscriber{tracer: otel.Tracer("unfold")}
	sub.register()

	return tp.Shutdown, nil
}

type subscriber struct {
	tracer       trace.Tracer
	sessionSpans sync.Map // rid -> trace.Span
}

func (s *subscriber) register() {
	eventbus.Subscribe(func(ctx context.Context, e events.SessionStart) {
		rid, _ := reqid.FromContext(ctx)
		_, span := s.tracer.Start(ctx, "graphql.incremental.session")
		span.SetAttributes(
			attribute.String("graphql.operation.name", e.OperationName),
			attribute.String("graphql.operation.type", e.OperationType),
		)
		s.sessionSpans.Store(rid, span)
	})

	eventbus.Subscribe(func(ctx context.Context, e events.ChunkMerged) {
		rid, _ := reqid.FromContext(ctx)
		parent := ctx
		if v, ok := s.sessionSpans.Load(rid); ok {
			parent = trace.ContextWithSpan(ctx, v.(trace.Span))
		}
		_, span := s.tracer.Start(parent, "graphql.incremental.chunk")
		span.SetAttributes(
			attribute.Int("graphql.chunk.sequence", e.Sequence),
			attribute.String("graphql.chunk.path", e.Path),
			attribute.String("graphql.chunk.label", e.Label),
			attribute.Bool("graphql.chunk.has_next", e.HasNext),
			attribute.Int("graphql.pending_count", e.Pending),
		)
		span.End()
	})

	eventbus.Subscribe(func(ctx context.Context, e events.SessionFinish) {
		rid, _ := reqid.FromContext(ctx)
		v, ok := s.sessionSpans.LoadAndDelete(rid)
		if !ok {
			return
		}
		span := v.(trace.Span)
		span.SetAttributes(
			attribute.Int("graphql.chunk_count", e.Chunks),
			attribute.Int("graphql.error_count", len(e.Errors)),
			attribute.Bool("graphql.aborted", e.Aborted),
		)
		for _, err := range e.Errors {
			span.RecordError(err)
		}
		span.End()
	})
}
