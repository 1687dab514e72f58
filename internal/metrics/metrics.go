// Package metrics holds the Prometheus collectors of the service.
package metrics

import (
	"context"
	"net/http"
	"time"

	"quote-service/internal/task"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	registry        *prometheus.Registry
	tasks           *prometheus.CounterVec
	taskDuration    *prometheus.HistogramVec
	graphqlRequests *prometheus.CounterVec
	graphqlDuration *prometheus.HistogramVec
	uploads         *prometheus.CounterVec
	uploadDuration  prometheus.Histogram
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		tasks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "quote_tasks_total",
			Help: "Background quote tasks by final status.",
		}, []string{"kind", "status"}),
		taskDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "quote_task_duration_seconds",
			Help:    "Wall time of background quote tasks.",
			Buckets: []float64{0.5, 1, 2.5, 5, 10, 20, 40, 80},
		}, []string{"kind"}),
		graphqlRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "shopify_graphql_requests_total",
			Help: "Shopify GraphQL calls by api, operation and result.",
		}, []string{"api", "operation", "result"}),
		graphqlDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "shopify_graphql_request_duration_seconds",
			Help:    "Latency of Shopify GraphQL calls.",
			Buckets: prometheus.DefBuckets,
		}, []string{"api", "operation"}),
		uploads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pdf_uploads_total",
			Help: "Invoice PDF uploads by outcome.",
		}, []string{"outcome"}),
		uploadDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "pdf_upload_duration_seconds",
			Help:    "Time from staged upload request to a ready file URL.",
			Buckets: []float64{0.5, 1, 2, 4, 8, 15, 30},
		}),
	}
	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.tasks, m.taskDuration,
		m.graphqlRequests, m.graphqlDuration,
		m.uploads, m.uploadDuration,
	)
	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// ObserveGraphQL matches shopify.Observer.
func (m *Metrics) ObserveGraphQL(api, operation string, elapsed time.Duration, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.graphqlRequests.WithLabelValues(api, operation, result).Inc()
	m.graphqlDuration.WithLabelValues(api, operation).Observe(elapsed.Seconds())
}

// ObserveUpload matches upload.Observer.
func (m *Metrics) ObserveUpload(outcome string, elapsed time.Duration) {
	m.uploads.WithLabelValues(outcome).Inc()
	m.uploadDuration.Observe(elapsed.Seconds())
}

// Record implements task.Recorder. Only finished tasks are counted.
func (m *Metrics) Record(_ context.Context, o task.Outcome) error {
	if o.Status == task.StatusRunning {
		return nil
	}
	m.tasks.WithLabelValues(o.Kind, o.Status).Inc()
	m.taskDuration.WithLabelValues(o.Kind).Observe(o.Duration().Seconds())
	return nil
}
