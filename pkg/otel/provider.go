package otel

import (
	"context"
	"sync/atomic"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
	"go.opentelemetry.io/otel/trace"

	"github.com/lk2023060901/vfemart/pkg/config"
)

// TracerProvider 追踪提供者，未启用时 Tracer 返回全局 noop 实现
type TracerProvider struct {
	config   *Config
	provider *sdktrace.TracerProvider
	closed   atomic.Bool
}

// Option TracerProvider 选项
type Option func(*options)

type options struct {
	processors []sdktrace.SpanProcessor
}

// WithSpanProcessor 追加 SpanProcessor，noop 导出器下也会生效
func WithSpanProcessor(sp sdktrace.SpanProcessor) Option {
	return func(o *options) {
		o.processors = append(o.processors, sp)
	}
}

// New 创建追踪提供者，启用时同时设为全局 TracerProvider 与传播器
func New(cfg *Config, opts ...Option) (*TracerProvider, error) {
	newCfg, err := config.MergeConfig(DefaultConfig(), cfg)
	if err != nil {
		return nil, err
	}
	// MergeConfig 不会用 false 覆盖 true
	if cfg != nil && !cfg.Enabled {
		newCfg.Enabled = false
	}
	if err := newCfg.Validate(); err != nil {
		return nil, err
	}
	if !newCfg.Enabled {
		return &TracerProvider{config: newCfg}, nil
	}

	o := &options{}
	for _, opt := range opts {
		opt(o)
	}

	exporter, err := createExporter(context.Background(), newCfg)
	if err != nil {
		return nil, err
	}
	if exporter == nil && len(o.processors) == 0 {
		return &TracerProvider{config: newCfg}, nil
	}

	sdkOpts := []sdktrace.TracerProviderOption{
		sdktrace.WithResource(createResource(newCfg)),
		sdktrace.WithSampler(createSampler(newCfg.Sampler)),
	}
	if exporter != nil {
		sdkOpts = append(sdkOpts, sdktrace.WithBatcher(exporter,
			sdktrace.WithBatchTimeout(newCfg.BatchExport.BatchTimeout),
			sdktrace.WithExportTimeout(newCfg.BatchExport.ExportTimeout),
			sdktrace.WithMaxExportBatchSize(newCfg.BatchExport.BatchSize),
			sdktrace.WithMaxQueueSize(newCfg.BatchExport.MaxQueueSize),
		))
	}
	for _, sp := range o.processors {
		sdkOpts = append(sdkOpts, sdktrace.WithSpanProcessor(sp))
	}
	provider := sdktrace.NewTracerProvider(sdkOpts...)

	otel.SetTracerProvider(provider)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	return &TracerProvider{config: newCfg, provider: provider}, nil
}

func createResource(cfg *Config) *resource.Resource {
	attrs := []attribute.KeyValue{semconv.ServiceName(cfg.ServiceName)}
	for k, v := range cfg.Attributes {
		attrs = append(attrs, attribute.String(k, v))
	}
	return resource.NewWithAttributes(semconv.SchemaURL, attrs...)
}

func createSampler(cfg SamplerConfig) sdktrace.Sampler {
	switch cfg.Type {
	case SamplerTypeAlways:
		return sdktrace.AlwaysSample()
	case SamplerTypeNever:
		return sdktrace.NeverSample()
	case SamplerTypeRatio:
		return sdktrace.TraceIDRatioBased(cfg.Ratio)
	default:
		return sdktrace.ParentBased(sdktrace.AlwaysSample())
	}
}

// Tracer 获取 Tracer
func (p *TracerProvider) Tracer(name string, opts ...trace.TracerOption) trace.Tracer {
	if p.provider == nil {
		return otel.GetTracerProvider().Tracer(name, opts...)
	}
	return p.provider.Tracer(name, opts...)
}

// Shutdown 刷出剩余 Span 并关闭，重复调用返回 ErrProviderClosed
func (p *TracerProvider) Shutdown(ctx context.Context) error {
	if p.closed.Swap(true) {
		return ErrProviderClosed
	}
	if p.provider == nil {
		return nil
	}
	return p.provider.Shutdown(ctx)
}

// Close 以 ShutdownTimeout 为超时关闭
func (p *TracerProvider) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), p.config.ShutdownTimeout)
	defer cancel()
	return p.Shutdown(ctx)
}

// IsEnabled 是否真正产生 Span
func (p *TracerProvider) IsEnabled() bool {
	return p.config.Enabled && p.provider != nil
}

// Config 合并默认值后的配置
func (p *TracerProvider) Config() *Config {
	return p.config
}
