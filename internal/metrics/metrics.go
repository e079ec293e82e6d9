// Package metrics registers the engine's Prometheus instrumentation.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	UsageEventsIngested *prometheus.CounterVec
	AlertsOpened        *prometheus.CounterVec
	WebhookDeliveries   *prometheus.CounterVec
}

func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		UsageEventsIngested: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "fleetline",
			Name:      "usage_events_ingested_total",
			Help:      "Raw usage events appended, by tenant.",
		}, []string{"tenant_id"}),
		AlertsOpened: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "fleetline",
			Name:      "alerts_opened_total",
			Help:      "First-time alert inserts, by tenant and severity.",
		}, []string{"tenant_id", "severity"}),
		WebhookDeliveries: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "fleetline",
			Name:      "webhook_deliveries_total",
			Help:      "Provider webhook deliveries, by provider and outcome.",
		}, []string{"provider", "outcome"}),
	}
}
