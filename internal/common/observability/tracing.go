package observability

import (
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/jaeger"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// WithJaeger exports spans to a Jaeger collector endpoint such as
// http://jaeger:14268/api/traces, sampling the given ratio of root spans.
func WithJaeger(endpoint string, sampleRatio float64) Option {
	return func(o *options) {
		o.jaegerEndpoint = endpoint
		if sampleRatio > 0 {
			o.sampleRatio = sampleRatio
		}
	}
}

// WithSpanProcessor adds a span processor, for example a span recorder in
// tests.
func WithSpanProcessor(sp sdktrace.SpanProcessor) Option {
	return func(o *options) { o.spanProcessors = append(o.spanProcessors, sp) }
}

func newTracerProvider(serviceName string, o options) (*sdktrace.TracerProvider, error) {
	if o.jaegerEndpoint == "" && len(o.spanProcessors) == 0 {
		return nil, nil
	}

	tpOpts := []sdktrace.TracerProviderOption{
		sdktrace.WithResource(resource.NewSchemaless(attribute.String("service.name", serviceName))),
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(o.sampleRatio))),
	}

	if o.jaegerEndpoint != "" {
		exporter, err := jaeger.New(jaeger.WithCollectorEndpoint(jaeger.WithEndpoint(o.jaegerEndpoint)))
		if err != nil {
			return nil, err
		}
		tpOpts = append(tpOpts, sdktrace.WithBatcher(exporter))
	}
	for _, sp := range o.spanProcessors {
		tpOpts = append(tpOpts, sdktrace.WithSpanProcessor(sp))
	}

	return sdktrace.NewTracerProvider(tpOpts...), nil
}
