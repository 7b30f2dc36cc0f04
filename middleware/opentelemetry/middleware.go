package opentelemetry

import (
	"context"

	"github.com/coderi421/sqlobject"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const instrumentationName = "github.com/coderi421/sqlobject/middleware/opentelemetry"

type MiddlewareBuilder struct {
	Tracer trace.Tracer
}

func (m *MiddlewareBuilder) Build() sqlobject.Middleware {
	if m.Tracer == nil {
		m.Tracer = otel.GetTracerProvider().Tracer(instrumentationName)
	}
	return func(next sqlobject.Invoker) sqlobject.Invoker {
		return func(ctx context.Context, inv *sqlobject.Invocation) *sqlobject.Result {
			// span 的名字是 接口.方法，比如 dao.UserDao.Get
			ctx, span := m.Tracer.Start(ctx, inv.Type.String()+"."+inv.Method,
				trace.WithSpanKind(trace.SpanKindClient))
			defer span.End()

			span.SetAttributes(attribute.String("sqlobject.kind", inv.Kind.String()))
			if inv.SQL != "" {
				span.SetAttributes(attribute.String("db.statement", inv.SQL))
			}
			if inv.Capability != "" {
				span.SetAttributes(attribute.String("sqlobject.capability", inv.Capability))
			}
			if inv.Handle != nil {
				span.SetAttributes(attribute.String("sqlobject.handle", inv.Handle.ID()))
			}

			res := next(ctx, inv)
			if res.Err != nil {
				span.RecordError(res.Err)
				span.SetStatus(codes.Error, res.Err.Error())
			}
			return res
		}
	}
}
