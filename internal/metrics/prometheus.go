package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	MessagesCreated = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "messages_created_total",
			Help: "Total number of messages persisted, by source",
		},
		[]string{"source"},
	)

	IngestFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ingest_failures_total",
			Help: "Total number of queued payloads that could not be persisted",
		},
		[]string{"reason"},
	)

	WorkerActive = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "ingest_active_workers",
			Help: "Number of active ingest worker goroutines",
		},
	)

	QueueDepth = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "ingest_queue_depth",
			Help: "Current depth of the RabbitMQ ingest queue",
		},
	)
)

// Init registers metrics with Prometheus
func Init() {
	prometheus.MustRegister(MessagesCreated)
	prometheus.MustRegister(IngestFailures)
	prometheus.MustRegister(WorkerActive)
	prometheus.MustRegister(QueueDepth)
}

// Handler returns the Prometheus metrics HTTP handler
func Handler() http.Handler {
	return promhttp.Handler()
}
