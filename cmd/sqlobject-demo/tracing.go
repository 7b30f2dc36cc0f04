package main

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/jaeger"
	"go.opentelemetry.io/otel/exporters/zipkin"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

const serviceName = "sqlobject-demo"

const (
	defaultJaegerEndpoint = "http://localhost:14268/api/traces"
	defaultZipkinEndpoint = "http://localhost:9411/api/v2/spans"
)

// setupTracing 安装全局的 TracerProvider，返回的函数负责把剩下的 span 发出去
func setupTracing(exporter string, endpoint string) (func(ctx context.Context) error, error) {
	var exp sdktrace.SpanExporter
	switch exporter {
	case "", "none":
		return func(ctx context.Context) error { return nil }, nil
	case "jaeger":
		if endpoint == "" {
			endpoint = defaultJaegerEndpoint
		}
		e, err := jaeger.New(jaeger.WithCollectorEndpoint(jaeger.WithEndpoint(endpoint)))
		if err != nil {
			return nil, fmt.Errorf("create jaeger exporter: %w", err)
		}
		exp = e
	case "zipkin":
		if endpoint == "" {
			endpoint = defaultZipkinEndpoint
		}
		e, err := zipkin.New(endpoint)
		if err != nil {
			return nil, fmt.Errorf("create zipkin exporter: %w", err)
		}
		exp = e
	default:
		return nil, fmt.Errorf("unknown trace exporter %q", exporter)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exp),
		sdktrace.WithResource(resource.NewSchemaless(attribute.String("service.name", serviceName))),
	)
	otel.SetTracerProvider(tp)
	return tp.Shutdown, nil
}
