package observability

import (
	"context"
	"time"

	promclient "github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/prometheus"
	otelmetric "go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/sdk/metric"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"

	"listing-workers/internal/common/logger"
)

// Instrument names use underscores so the Prometheus exporter exposes them
// unchanged next to the promauto collectors of the metrics package.
const (
	queryCounterName  = "listing_channel_queries"
	queryDurationName = "listing_channel_query_duration"
)

// Observability bundles the OpenTelemetry meter and tracer used by the
// listing service. A nil *Observability is valid and records nothing.
type Observability struct {
	meterProvider  *metric.MeterProvider
	tracerProvider *sdktrace.TracerProvider
	meter          otelmetric.Meter
	tracer         trace.Tracer
	queryCounter   otelmetric.Int64Counter
	queryDuration  otelmetric.Float64Histogram
}

type options struct {
	registerer     promclient.Registerer
	jaegerEndpoint string
	sampleRatio    float64
	spanProcessors []sdktrace.SpanProcessor
	logger         logger.Logger
}

type Option func(*options)

// WithRegisterer registers the Prometheus exporter somewhere other than the
// default registry.
func WithRegisterer(reg promclient.Registerer) Option {
	return func(o *options) { o.registerer = reg }
}

// WithLogger reports exporter and instrument setup failures. Without it they
// are dropped.
func WithLogger(log logger.Logger) Option {
	return func(o *options) { o.logger = log }
}

// New never fails: a component that cannot be set up is logged and left
// out, and the matching calls become no-ops.
func New(serviceName string, opts ...Option) *Observability {
	o := options{sampleRatio: 1, logger: logger.NewNoOpLogger()}
	for _, opt := range opts {
		opt(&o)
	}
	log := o.logger.WithFields(map[string]interface{}{"service": serviceName})

	obs := &Observability{tracer: otel.Tracer(serviceName)}

	var exporterOpts []prometheus.Option
	if o.registerer != nil {
		exporterOpts = append(exporterOpts, prometheus.WithRegisterer(o.registerer))
	}
	exporter, err := prometheus.New(exporterOpts...)
	if err != nil {
		log.Error("failed to create Prometheus exporter", map[string]interface{}{"error": err})
	} else {
		obs.meterProvider = metric.NewMeterProvider(metric.WithReader(exporter))
		otel.SetMeterProvider(obs.meterProvider)
		obs.meter = obs.meterProvider.Meter(serviceName)
		obs.createInstruments(log)
	}

	if tp, err := newTracerProvider(serviceName, o); err != nil {
		log.Error("failed to create tracer provider", map[string]interface{}{"error": err})
	} else if tp != nil {
		obs.tracerProvider = tp
		otel.SetTracerProvider(tp)
		obs.tracer = tp.Tracer(serviceName)
	}

	log.Info("observability initialized", map[string]interface{}{
		"metrics": obs.queryCounter != nil,
		"tracing": obs.tracerProvider != nil,
	})

	return obs
}

// createInstruments leaves both instruments nil unless both can be created,
// which disables RecordQuery.
func (o *Observability) createInstruments(log logger.Logger) {
	counter, err := o.meter.Int64Counter(
		queryCounterName,
		otelmetric.WithDescription("Number of listing queries processed per channel"),
	)
	if err != nil {
		log.Error("failed to create instrument", map[string]interface{}{"name": queryCounterName, "error": err})
		return
	}
	duration, err := o.meter.Float64Histogram(
		queryDurationName,
		otelmetric.WithDescription("Listing query duration per channel"),
		otelmetric.WithUnit("ms"),
	)
	if err != nil {
		log.Error("failed to create instrument", map[string]interface{}{"name": queryDurationName, "error": err})
		return
	}
	o.queryCounter = counter
	o.queryDuration = duration
}

func (o *Observability) RecordQuery(ctx context.Context, channel, outcome string, duration time.Duration) {
	if o == nil || o.queryCounter == nil {
		return
	}
	attrs := otelmetric.WithAttributes(
		attribute.String("channel", channel),
		attribute.String("outcome", outcome),
	)
	o.queryCounter.Add(ctx, 1, attrs)
	o.queryDuration.Record(ctx, float64(duration.Milliseconds()), attrs)
}

// StartSpan starts a span on the configured tracer. Without tracing it
// returns a non-recording span.
func (o *Observability) StartSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	if o == nil || o.tracer == nil {
		return ctx, trace.SpanFromContext(ctx)
	}
	return o.tracer.Start(ctx, name, trace.WithAttributes(attrs...))
}

func (o *Observability) Shutdown() {
	if o == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if o.meterProvider != nil {
		_ = o.meterProvider.Shutdown(ctx)
	}
	if o.tracerProvider != nil {
		_ = o.tracerProvider.Shutdown(ctx)
	}
}
