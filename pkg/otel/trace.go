package otel

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

// 重导出常用类型，业务代码只依赖本包
type (
	Span            = trace.Span
	Tracer          = trace.Tracer
	SpanKind        = trace.SpanKind
	SpanStartOption = trace.SpanStartOption
	Attribute       = attribute.KeyValue
	Code            = codes.Code
	HeaderCarrier   = propagation.HeaderCarrier
)

const (
	SpanKindInternal = trace.SpanKindInternal
	SpanKindServer   = trace.SpanKindServer
)

const (
	CodeUnset = codes.Unset
	CodeError = codes.Error
	CodeOk    = codes.Ok
)

// GetTracerProvider 全局 TracerProvider
func GetTracerProvider() trace.TracerProvider {
	return otel.GetTracerProvider()
}

// GetTextMapPropagator 全局传播器
func GetTextMapPropagator() propagation.TextMapPropagator {
	return otel.GetTextMapPropagator()
}

// SpanFromContext ctx 中的当前 Span，没有时返回 noop Span
func SpanFromContext(ctx context.Context) Span {
	return trace.SpanFromContext(ctx)
}

func WithSpanKind(kind SpanKind) SpanStartOption {
	return trace.WithSpanKind(kind)
}

func WithAttributes(attrs ...Attribute) SpanStartOption {
	return trace.WithAttributes(attrs...)
}

var (
	String = attribute.String
	Int    = attribute.Int
	Int64  = attribute.Int64
	Bool   = attribute.Bool
)
