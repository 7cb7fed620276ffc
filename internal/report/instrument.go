package report

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var (
	generations = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "report_generations_total",
		Help: "Report generation attempts by provider and result.",
	}, []string{"provider", "result"})
	generationLatency = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "report_generation_seconds",
		Help:    "Report generation latency.",
		Buckets: []float64{0.25, 0.5, 1, 2, 5, 10, 20, 30, 60},
	}, []string{"provider"})
)

func init() {
	prometheus.MustRegister(generations, generationLatency)
}

type instrumented struct {
	next     Generator
	provider string
}

// Instrument records a span and metrics around every call to next.
func Instrument(next Generator, provider string) Generator {
	return &instrumented{next: next, provider: provider}
}

func (i *instrumented) Generate(ctx context.Context, s Snapshot) (string, error) {
	ctx, span := otel.Tracer("ims/report").Start(ctx, "report.generate",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("report.provider", i.provider),
			attribute.Int64("evaluation.id", int64(s.EvaluationID)),
		),
	)
	defer span.End()

	start := time.Now()
	text, err := i.next.Generate(ctx, s)
	generationLatency.WithLabelValues(i.provider).Observe(time.Since(start).Seconds())
	if err != nil {
		generations.WithLabelValues(i.provider, "error").Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, "generation failed")
		return "", err
	}
	generations.WithLabelValues(i.provider, "ok").Inc()
	return text, nil
}
