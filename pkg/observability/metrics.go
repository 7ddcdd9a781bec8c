package observability

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// FormMetrics are the domain counters exported next to the HTTP ones.
type FormMetrics struct {
	submitted metric.Int64Counter
	rejected  metric.Int64Counter
	generated metric.Int64Counter
}

// NewFormMetrics registers the counters on the global meter provider. With
// no provider installed they are no-ops.
func NewFormMetrics() *FormMetrics {
	meter := otel.Meter(tracerName)
	m := &FormMetrics{}
	var err error

	if m.submitted, err = meter.Int64Counter(
		"formora_responses_submitted_total",
		metric.WithDescription("Responses stored"),
		metric.WithUnit("{response}"),
	); err != nil {
		slog.Warn("metric registration failed", "metric", "formora_responses_submitted_total", "err", err)
	}
	if m.rejected, err = meter.Int64Counter(
		"formora_responses_rejected_total",
		metric.WithDescription("Submissions refused by validation or an inactive form"),
		metric.WithUnit("{response}"),
	); err != nil {
		slog.Warn("metric registration failed", "metric", "formora_responses_rejected_total", "err", err)
	}
	if m.generated, err = meter.Int64Counter(
		"formora_ai_requests_total",
		metric.WithDescription("AI generation and analysis calls by outcome"),
		metric.WithUnit("{request}"),
	); err != nil {
		slog.Warn("metric registration failed", "metric", "formora_ai_requests_total", "err", err)
	}
	return m
}

func (m *FormMetrics) ResponseSubmitted(ctx context.Context, formID string) {
	if m == nil || m.submitted == nil {
		return
	}
	m.submitted.Add(ctx, 1, metric.WithAttributes(attribute.String("form_id", formID)))
}

func (m *FormMetrics) ResponseRejected(ctx context.Context, reason string) {
	if m == nil || m.rejected == nil {
		return
	}
	m.rejected.Add(ctx, 1, metric.WithAttributes(attribute.String("reason", reason)))
}

// AIRequest records kind ("generate", "analyze") and whether the fallback
// was used.
func (m *FormMetrics) AIRequest(ctx context.Context, kind string, fallback bool) {
	if m == nil || m.generated == nil {
		return
	}
	m.generated.Add(ctx, 1, metric.WithAttributes(
		attribute.String("kind", kind),
		attribute.Bool("fallback", fallback),
	))
}
