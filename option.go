package simrecon

import (
	"github.com/viant/afs"

	"github.com/visimlab/simrecon/model/types"
	"github.com/visimlab/simrecon/service/paths"
	"github.com/visimlab/simrecon/tracing"

	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// Option customises the service.
type Option func(s *Service)

// WithConfig replaces the default configuration.
func WithConfig(config *Config) Option {
	return func(s *Service) {
		if config != nil {
			s.config = config
		}
	}
}

// WithInvoker replaces the default shell-backed engine invoker.
func WithInvoker(invoker types.Invoker) Option {
	return func(s *Service) { s.invoker = invoker }
}

// WithStitcher supplies the channel stitcher used to combine per-channel
// reconstruction outputs.
func WithStitcher(stitcher types.Stitcher) Option {
	return func(s *Service) { s.stitcher = stitcher }
}

// WithChannelLister supplies the dataset channel lister.
func WithChannelLister(lister types.ChannelLister) Option {
	return func(s *Service) { s.lister = lister }
}

// WithFS overrides the file storage service.
func WithFS(fs afs.Service) Option {
	return func(s *Service) { s.fs = fs }
}

// WithAllocator overrides the output path allocator.
func WithAllocator(allocator *paths.Allocator) Option {
	return func(s *Service) { s.allocator = allocator }
}

// WithTracing configures OpenTelemetry tracing for the service. If outputFile is empty the
// stdout exporter is used; otherwise traces are written to the supplied file path. The function is
// safe to call multiple times, only the first successful initialisation wins.
func WithTracing(serviceName, serviceVersion, outputFile string) Option {
	return func(s *Service) {
		_ = tracing.Init(serviceName, serviceVersion, outputFile)
	}
}

// WithTracingExporter configures OpenTelemetry tracing using a custom SpanExporter. This enables
// integrations with exporters other than the built-in stdout exporter, for example OTLP, Jaeger or
// Zipkin. Safe to call multiple times, only the first successful initialisation wins.
func WithTracingExporter(serviceName, serviceVersion string, exporter sdktrace.SpanExporter) Option {
	return func(s *Service) {
		_ = tracing.InitWithExporter(serviceName, serviceVersion, exporter)
	}
}
