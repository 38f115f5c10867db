package observability

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

// PrometheusObserver counts events by type and severity.
type PrometheusObserver struct {
	events *prometheus.CounterVec
}

// NewPrometheusObserver creates the counter vector and registers it with reg.
// The metric is named <namespace>_events_total.
func NewPrometheusObserver(reg prometheus.Registerer, namespace string) (*PrometheusObserver, error) {
	events := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "events_total",
		Help:      "Diagnostic events emitted by the observed-value engine, by type and level",
	}, []string{"type", "level"})

	if reg != nil {
		if err := reg.Register(events); err != nil {
			return nil, fmt.Errorf("register events counter: %w", err)
		}
	}
	return &PrometheusObserver{events: events}, nil
}

func (p *PrometheusObserver) OnEvent(_ context.Context, event Event) {
	p.events.WithLabelValues(string(event.Type), event.Level.String()).Inc()
}

// Counter exposes the child counter for a type and level, mainly for tests.
func (p *PrometheusObserver) Counter(typ EventType, level Level) prometheus.Counter {
	return p.events.WithLabelValues(string(typ), level.String())
}
