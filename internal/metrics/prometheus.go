package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	ChannelsCreated = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "channels_created_total",
			Help: "Total number of channels created, by tenant and type",
		},
		[]string{"tenant", "type"},
	)

	ChannelConflicts = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "channel_conflicts_total",
			Help: "Total number of duplicate general channel attempts per tenant",
		},
		[]string{"tenant"},
	)

	MessagesAppended = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "messages_appended_total",
			Help: "Total number of messages appended per tenant",
		},
		[]string{"tenant"},
	)

	NotifyFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notify_failures_total",
			Help: "Total number of dropped notification events per tenant",
		},
		[]string{"tenant"},
	)

	EventsDelivered = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dispatch_events_delivered_total",
			Help: "Total number of events delivered by dispatch workers",
		},
		[]string{"tenant"},
	)

	DispatchActive = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "dispatch_active_workers",
			Help: "Number of active dispatch worker goroutines per tenant",
		},
		[]string{"tenant"},
	)

	QueueDepth = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "queue_depth",
			Help: "Current RabbitMQ event queue depth per tenant",
		},
		[]string{"tenant"},
	)
)

// Init registers metrics with Prometheus
func Init() {
	prometheus.MustRegister(ChannelsCreated)
	prometheus.MustRegister(ChannelConflicts)
	prometheus.MustRegister(MessagesAppended)
	prometheus.MustRegister(NotifyFailures)
	prometheus.MustRegister(EventsDelivered)
	prometheus.MustRegister(DispatchActive)
	prometheus.MustRegister(QueueDepth)
}

// Handler returns the Prometheus metrics HTTP handler
func Handler() http.Handler {
	return promhttp.Handler()
}
