package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type instruments struct {
	sent      *prometheus.CounterVec
	delivered *prometheus.CounterVec
	failed    *prometheus.CounterVec
	latency   *prometheus.HistogramVec
}

func newInstruments(reg prometheus.Registerer) *instruments {
	factory := promauto.With(reg)
	return &instruments{
		sent: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "yapplr_notifications_sent_total",
			Help: "Notifications accepted into the delivery pipeline",
		}, []string{"type"}),
		delivered: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "yapplr_notifications_delivered_total",
			Help: "Notifications delivered to a provider",
		}, []string{"type", "provider"}),
		failed: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "yapplr_notifications_failed_total",
			Help: "Notification deliveries that failed",
		}, []string{"type", "provider"}),
		latency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "yapplr_notification_delivery_duration_seconds",
			Help:    "Delivery attempt latency by provider",
			Buckets: prometheus.DefBuckets,
		}, []string{"provider"}),
	}
}

func (in *instruments) observe(e Event) {
	switch e.Stage {
	case StageStart:
		in.sent.WithLabelValues(e.Type).Inc()
	case StageComplete:
		if e.Success {
			in.delivered.WithLabelValues(e.Type, e.Provider).Inc()
		} else {
			in.failed.WithLabelValues(e.Type, e.Provider).Inc()
		}
		if e.Provider != "" {
			in.latency.WithLabelValues(e.Provider).Observe(e.Latency.Seconds())
		}
	}
}
