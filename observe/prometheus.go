// Package observe provides event sinks that feed authorization engine
// lifecycle events into logging and monitoring systems. Every sink
// implements authority.EventSink; combine several with
// authority.MultiSink.
package observe

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/relaxsd/authority"
)

// Metrics holds the Prometheus instruments fed by engine events.
// Register it as the engine's event sink.
type Metrics struct {
	ChecksTotal   *prometheus.CounterVec
	CheckDuration prometheus.Histogram
	RulesTotal    *prometheus.CounterVec
	AliasesTotal  prometheus.Counter
	UserChanges   prometheus.Counter
}

// NewMetrics creates and registers all instruments with the given
// registry.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	return &Metrics{
		ChecksTotal: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "authority",
				Name:      "checks_total",
				Help:      "Total permission checks evaluated",
			},
			[]string{"result"}, // result=allow/deny
		),
		CheckDuration: promauto.With(reg).NewHistogram(
			prometheus.HistogramOpts{
				Namespace: "authority",
				Name:      "check_duration_seconds",
				Help:      "Permission check duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
		),
		RulesTotal: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "authority",
				Name:      "rules_added_total",
				Help:      "Total rules added to the engine",
			},
			[]string{"behavior"}, // behavior=allow/deny
		),
		AliasesTotal: promauto.With(reg).NewCounter(
			prometheus.CounterOpts{
				Namespace: "authority",
				Name:      "aliases_added_total",
				Help:      "Total alias registrations",
			},
		),
		UserChanges: promauto.With(reg).NewCounter(
			prometheus.CounterOpts{
				Namespace: "authority",
				Name:      "user_changes_total",
				Help:      "Total principal changes",
			},
		),
	}
}

// Notify records the event on the matching instruments. Unknown event
// names are ignored so the sink stays compatible with engines that emit
// more than it tracks.
func (m *Metrics) Notify(e authority.Event) {
	switch e.Name {
	case authority.EventChecked:
		result := "deny"
		if allowed, ok := e.Payload["allowed"].(bool); ok && allowed {
			result = "allow"
		}
		m.ChecksTotal.WithLabelValues(result).Inc()
		if d, ok := e.Payload["duration"].(time.Duration); ok {
			m.CheckDuration.Observe(d.Seconds())
		}
	case authority.EventRuleAdded:
		behavior, _ := e.Payload["behavior"].(string)
		m.RulesTotal.WithLabelValues(behavior).Inc()
	case authority.EventAliasAdded:
		m.AliasesTotal.Inc()
	case authority.EventUserChanged:
		m.UserChanges.Inc()
	}
}

// Compile-time interface verification.
var _ authority.EventSink = (*Metrics)(nil)
