package ioc

import (
	"github.com/gotomicro/ego/core/econf"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/zipkin"
	"go.opentelemetry.io/otel/sdk/resource"
	"go.opentelemetry.io/otel/sdk/trace"
)

// InitZipkinTracer installs the global tracer provider. Callers own the
// returned provider and must Shutdown it on exit to flush pending spans.
func InitZipkinTracer() *trace.TracerProvider {
	type Config struct {
		URL         string `yaml:"url"`
		ServiceName string `yaml:"serviceName"`
	}
	var cfg Config
	err := econf.UnmarshalKey("zipkin", &cfg)
	if err != nil {
		panic(err)
	}
	exporter, err := zipkin.New(cfg.URL)
	if err != nil {
		panic(err)
	}
	tp := trace.NewTracerProvider(
		trace.WithBatcher(exporter),
		trace.WithResource(resource.NewSchemaless(
			attribute.String("service.name", cfg.ServiceName),
		)),
	)
	otel.SetTracerProvider(tp)
	return tp
}
