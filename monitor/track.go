package monitor

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("content-gateway/monitor")

// Track mede fn sob op, com sucesso ou falha, e abre um span com o mesmo nome.
// m nil só executa fn.
func Track(ctx context.Context, m *Monitor, op string, fn func(ctx context.Context) error) error {
	if m == nil {
		return fn(ctx)
	}

	ctx, span := tracer.Start(ctx, op, trace.WithAttributes(attribute.String("operation", op)))
	defer span.End()

	stop := m.StartTimer(op)
	err := fn(ctx)
	d := stop()

	span.SetAttributes(attribute.Int64("duration_ms", d.Milliseconds()))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return err
}

// Timed embrulha fn mantendo a assinatura; cada chamada é medida com Track.
func Timed[A, T any](m *Monitor, op string, fn func(context.Context, A) (T, error)) func(context.Context, A) (T, error) {
	return func(ctx context.Context, arg A) (T, error) {
		var out T
		err := Track(ctx, m, op, func(ctx context.Context) error {
			var err error
			out, err = fn(ctx, arg)
			return err
		})
		return out, err
	}
}
