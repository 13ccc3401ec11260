package kvstore

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/MartinaC181/MiGymApp-sub000/internal/observability/metrics"
	"github.com/MartinaC181/MiGymApp-sub000/internal/observability/tracing"
)

// Instrumented records a metric and a trace span for every call on the wrapped store
type Instrumented struct {
	next    Store
	backend string
	tracer  trace.Tracer
}

// Instrument wraps s; backend labels the metrics
func Instrument(s Store, backend string) *Instrumented {
	return &Instrumented{
		next:    s,
		backend: backend,
		tracer:  tracing.Tracer("kvstore"),
	}
}

func (i *Instrumented) observe(ctx context.Context, op, key string, fn func(context.Context) error) {
	ctx, span := i.tracer.Start(ctx, "kv."+op, trace.WithAttributes(
		attribute.String("kv.backend", i.backend),
		attribute.String("kv.key", key),
	))
	defer span.End()

	start := time.Now()
	err := fn(ctx)
	result := "ok"
	if err != nil {
		result = "error"
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	metrics.ObserveStoreOp(i.backend, op, result, time.Since(start))
}

func (i *Instrumented) Get(ctx context.Context, key string) (value string, ok bool, err error) {
	i.observe(ctx, "get", key, func(ctx context.Context) error {
		value, ok, err = i.next.Get(ctx, key)
		return err
	})
	return value, ok, err
}

func (i *Instrumented) Set(ctx context.Context, key, value string) (err error) {
	i.observe(ctx, "set", key, func(ctx context.Context) error {
		err = i.next.Set(ctx, key, value)
		return err
	})
	return err
}

func (i *Instrumented) Remove(ctx context.Context, key string) (err error) {
	i.observe(ctx, "remove", key, func(ctx context.Context) error {
		err = i.next.Remove(ctx, key)
		return err
	})
	return err
}

func (i *Instrumented) Keys(ctx context.Context) (keys []string, err error) {
	i.observe(ctx, "keys", "*", func(ctx context.Context) error {
		keys, err = i.next.Keys(ctx)
		return err
	})
	return keys, err
}

func (i *Instrumented) RemoveMany(ctx context.Context, keys []string) (err error) {
	i.observe(ctx, "remove_many", "*", func(ctx context.Context) error {
		err = i.next.RemoveMany(ctx, keys)
		return err
	})
	return err
}

func (i *Instrumented) Ping(ctx context.Context) error {
	return Ping(ctx, i.next)
}

func (i *Instrumented) Close() error {
	return Close(i.next)
}
