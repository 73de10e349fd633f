// Package otel OpenTelemetry 追踪初始化与常用类型
package otel

import "time"

// Config TracerProvider 配置
type Config struct {
	// Enabled 是否启用追踪
	Enabled bool `mapstructure:"enabled"`
	// ServiceName 服务名称
	ServiceName string `mapstructure:"service_name"`
	// Endpoint 导出器端点，OTLP HTTP 为 localhost:4318，gRPC 为 localhost:4317
	Endpoint string `mapstructure:"endpoint"`
	// ExporterType otlp-http、otlp-grpc、stdout、noop
	ExporterType ExporterType      `mapstructure:"exporter_type"`
	Sampler      SamplerConfig     `mapstructure:"sampler"`
	BatchExport  BatchExportConfig `mapstructure:"batch_export"`
	// Attributes 附加到 Resource 的属性
	Attributes      map[string]string `mapstructure:"attributes"`
	ShutdownTimeout time.Duration     `mapstructure:"shutdown_timeout"`
	// Insecure 不使用 TLS
	Insecure bool `mapstructure:"insecure"`
}

// ExporterType 导出器类型
type ExporterType string

const (
	ExporterTypeOTLPHTTP ExporterType = "otlp-http"
	ExporterTypeOTLPGRPC ExporterType = "otlp-grpc"
	// ExporterTypeStdout 调试用
	ExporterTypeStdout ExporterType = "stdout"
	// ExporterTypeNoop 创建 Span 但不导出
	ExporterTypeNoop ExporterType = "noop"
)

// SamplerConfig 采样配置
type SamplerConfig struct {
	// Type always、never、ratio、parent
	Type SamplerType `mapstructure:"type"`
	// Ratio 仅 ratio 采样有效，取值 [0, 1]
	Ratio float64 `mapstructure:"ratio"`
}

// SamplerType 采样类型
type SamplerType string

const (
	SamplerTypeAlways SamplerType = "always"
	SamplerTypeNever  SamplerType = "never"
	SamplerTypeRatio  SamplerType = "ratio"
	SamplerTypeParent SamplerType = "parent"
)

// BatchExportConfig 批量导出配置
type BatchExportConfig struct {
	BatchSize     int           `mapstructure:"batch_size"`
	ExportTimeout time.Duration `mapstructure:"export_timeout"`
	MaxQueueSize  int           `mapstructure:"max_queue_size"`
	BatchTimeout  time.Duration `mapstructure:"batch_timeout"`
}

// DefaultConfig 返回默认配置
func DefaultConfig() *Config {
	return &Config{
		Enabled:      true,
		ServiceName:  "vfe",
		Endpoint:     "localhost:4318",
		ExporterType: ExporterTypeOTLPHTTP,
		Sampler: SamplerConfig{
			Type:  SamplerTypeParent,
			Ratio: 1.0,
		},
		BatchExport: BatchExportConfig{
			BatchSize:     512,
			ExportTimeout: 30 * time.Second,
			MaxQueueSize:  2048,
			BatchTimeout:  5 * time.Second,
		},
		Attributes:      make(map[string]string),
		ShutdownTimeout: 5 * time.Second,
		Insecure:        true,
	}
}

// Validate 校验配置，未启用时不校验
func (c *Config) Validate() error {
	if !c.Enabled {
		return nil
	}
	if c.ServiceName == "" {
		return ErrInvalidServiceName
	}
	if c.Sampler.Type == SamplerTypeRatio && (c.Sampler.Ratio < 0 || c.Sampler.Ratio > 1) {
		return ErrInvalidSamplerRatio
	}
	switch c.ExporterType {
	case ExporterTypeOTLPHTTP, ExporterTypeOTLPGRPC, ExporterTypeStdout, ExporterTypeNoop:
		return nil
	default:
		return ErrUnsupportedExporter
	}
}
