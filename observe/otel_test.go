package observe

import (
	"context"
	"testing"
	"time"

	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/relaxsd/authority"
)

func newTestOTel(t *testing.T) (*OTel, *tracetest.SpanRecorder, *sdkmetric.ManualReader) {
	t.Helper()

	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() {
		_ = tp.Shutdown(context.Background())
		_ = mp.Shutdown(context.Background())
	})

	sink, err := NewOTel(tp, mp)
	if err != nil {
		t.Fatalf("NewOTel: %v", err)
	}
	return sink, recorder, reader
}

func TestOTel_EmitsSpanPerCheck(t *testing.T) {
	sink, recorder, _ := newTestOTel(t)

	auth := authority.New("alice", authority.WithEventSink(sink))
	auth.Allow("read", "Article")
	auth.Can("read", authority.Type("Article"))
	auth.Can("delete", authority.Type("Article"))

	spans := recorder.Ended()
	if len(spans) != 2 {
		t.Fatalf("got %d spans, want 2", len(spans))
	}

	allow := spans[0]
	if allow.Name() != "authority.check" {
		t.Errorf("span name = %q, want authority.check", allow.Name())
	}
	attrs := make(map[attribute.Key]attribute.Value)
	for _, kv := range allow.Attributes() {
		attrs[kv.Key] = kv.Value
	}
	if got := attrs["authority.action"].AsString(); got != "read" {
		t.Errorf("action attribute = %q, want read", got)
	}
	if !attrs["authority.allowed"].AsBool() {
		t.Error("allowed attribute = false, want true")
	}
	if attrs["authority.rule"].AsString() == "" {
		t.Error("expected a rule attribute on the allowed check")
	}
	if allow.EndTime().Before(allow.StartTime()) {
		t.Error("span ends before it starts")
	}

	deny := spans[1]
	attrs = make(map[attribute.Key]attribute.Value)
	for _, kv := range deny.Attributes() {
		attrs[kv.Key] = kv.Value
	}
	if attrs["authority.allowed"].AsBool() {
		t.Error("default deny recorded as allowed")
	}
	if _, ok := attrs["authority.rule"]; ok {
		t.Error("default deny should carry no rule attribute")
	}
}

func TestOTel_BackdatesSpanByDuration(t *testing.T) {
	sink, recorder, _ := newTestOTel(t)

	const d = 250 * time.Millisecond
	sink.Notify(authority.Event{Name: authority.EventChecked, Payload: map[string]any{
		"action":   "read",
		"resource": "Article",
		"allowed":  true,
		"rule":     "r1",
		"duration": d,
	}})

	spans := recorder.Ended()
	if len(spans) != 1 {
		t.Fatalf("got %d spans, want 1", len(spans))
	}
	got := spans[0].EndTime().Sub(spans[0].StartTime())
	if got != d {
		t.Errorf("span duration = %v, want %v", got, d)
	}
}

func TestOTel_RecordsCheckMetrics(t *testing.T) {
	sink, _, reader := newTestOTel(t)

	auth := authority.New("alice", authority.WithEventSink(sink))
	auth.Allow("read", "Article")
	auth.Deny("read", "Secret")
	auth.Can("read", authority.Type("Article"))
	auth.Can("read", authority.Type("Secret"))

	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("Collect: %v", err)
	}

	sums := map[string]int64{} // decision -> count
	var rules int64
	for _, scope := range rm.ScopeMetrics {
		for _, m := range scope.Metrics {
			switch m.Name {
			case "authority.checks":
				sum, ok := m.Data.(metricdata.Sum[int64])
				if !ok {
					t.Fatalf("authority.checks data is %T, want Sum[int64]", m.Data)
				}
				for _, dp := range sum.DataPoints {
					if v, ok := dp.Attributes.Value("authority.decision"); ok {
						sums[v.AsString()] += dp.Value
					}
				}
			case "authority.rules":
				sum, ok := m.Data.(metricdata.Sum[int64])
				if !ok {
					t.Fatalf("authority.rules data is %T, want Sum[int64]", m.Data)
				}
				for _, dp := range sum.DataPoints {
					rules += dp.Value
				}
			}
		}
	}

	if sums["allow"] != 1 {
		t.Errorf("allow checks = %d, want 1", sums["allow"])
	}
	if sums["deny"] != 1 {
		t.Errorf("deny checks = %d, want 1", sums["deny"])
	}
	if rules != 2 {
		t.Errorf("rules added = %d, want 2", rules)
	}
}
