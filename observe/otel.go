package observe

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/relaxsd/authority"
)

// scopeName identifies this instrumentation library to OpenTelemetry.
const scopeName = "github.com/relaxsd/authority/observe"

// OTel feeds engine events into OpenTelemetry metrics and traces. Each
// checked event becomes one span, backdated to when the check started, and
// one observation on each instrument. Rule and alias registrations count
// on dedicated instruments.
type OTel struct {
	tracer trace.Tracer

	checksTotal   metric.Int64Counter
	checkDuration metric.Float64Histogram
	rulesTotal    metric.Int64Counter
	aliasesTotal  metric.Int64Counter
}

// NewOTel builds a sink on the given providers. Pass the SDK's
// TracerProvider and MeterProvider (or noop providers to disable one
// signal).
func NewOTel(tp trace.TracerProvider, mp metric.MeterProvider) (*OTel, error) {
	meter := mp.Meter(scopeName)

	checksTotal, err := meter.Int64Counter("authority.checks",
		metric.WithDescription("Permission checks evaluated"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create checks counter: %w", err)
	}
	checkDuration, err := meter.Float64Histogram("authority.check.duration",
		metric.WithDescription("Permission check duration"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create duration histogram: %w", err)
	}
	rulesTotal, err := meter.Int64Counter("authority.rules",
		metric.WithDescription("Rules added to the engine"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create rules counter: %w", err)
	}
	aliasesTotal, err := meter.Int64Counter("authority.aliases",
		metric.WithDescription("Alias registrations"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create aliases counter: %w", err)
	}

	return &OTel{
		tracer:        tp.Tracer(scopeName),
		checksTotal:   checksTotal,
		checkDuration: checkDuration,
		rulesTotal:    rulesTotal,
		aliasesTotal:  aliasesTotal,
	}, nil
}

// Notify records the event. Unknown event names are ignored.
func (o *OTel) Notify(e authority.Event) {
	switch e.Name {
	case authority.EventChecked:
		o.recordCheck(e)
	case authority.EventRuleAdded:
		behavior, _ := e.Payload["behavior"].(string)
		o.rulesTotal.Add(context.Background(), 1,
			metric.WithAttributes(attribute.String("authority.behavior", behavior)))
	case authority.EventAliasAdded:
		o.aliasesTotal.Add(context.Background(), 1)
	}
}

// recordCheck emits the span and metric observations for one check. The
// engine notifies after the check completes, so the span is reconstructed
// retroactively: its start is backdated by the reported duration.
func (o *OTel) recordCheck(e authority.Event) {
	action, _ := e.Payload["action"].(string)
	resource, _ := e.Payload["resource"].(string)
	allowed, _ := e.Payload["allowed"].(bool)
	rule, _ := e.Payload["rule"].(string)
	duration, _ := e.Payload["duration"].(time.Duration)

	attrs := []attribute.KeyValue{
		attribute.String("authority.action", action),
		attribute.String("authority.resource", resource),
		attribute.Bool("authority.allowed", allowed),
	}
	if rule != "" {
		attrs = append(attrs, attribute.String("authority.rule", rule))
	}

	end := time.Now()
	_, span := o.tracer.Start(context.Background(), "authority.check",
		trace.WithTimestamp(end.Add(-duration)),
		trace.WithAttributes(attrs...),
	)
	span.End(trace.WithTimestamp(end))

	decision := "deny"
	if allowed {
		decision = "allow"
	}
	mattrs := metric.WithAttributes(
		attribute.String("authority.decision", decision),
		attribute.String("authority.action", action),
	)
	o.checksTotal.Add(context.Background(), 1, mattrs)
	o.checkDuration.Record(context.Background(), duration.Seconds(), mattrs)
}

var _ authority.EventSink = (*OTel)(nil)
