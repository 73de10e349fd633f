package otel

import "github.com/cockroachdb/errors"

var (
	ErrInvalidServiceName  = errors.New("otel: invalid service name")
	ErrInvalidSamplerRatio = errors.New("otel: sampler ratio must be between 0 and 1")
	ErrProviderClosed      = errors.New("otel: provider is closed")
	ErrExporterFailed      = errors.New("otel: failed to create exporter")
	ErrUnsupportedExporter = errors.New("otel: unsupported exporter type")
)
