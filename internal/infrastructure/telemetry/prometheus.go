package telemetry

import (
	"database/sql"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsNamespace prefixes every scraped series
const MetricsNamespace = "smartspace"

// AnalyticsCollector owns a private Prometheus registry with the HTTP,
// processor and ingestion series served on /metrics.
type AnalyticsCollector struct {
	registry *prometheus.Registry

	httpRequests   *prometheus.CounterVec
	httpDuration   *prometheus.HistogramVec
	cycles         *prometheus.CounterVec
	cycleDuration  prometheus.Histogram
	openConflicts  *prometheus.GaugeVec
	alertsRaised   *prometheus.CounterVec
	predictions    *prometheus.CounterVec
	sensorMessages *prometheus.CounterVec
	reports        *prometheus.CounterVec
	modelAccuracy  *prometheus.GaugeVec
}

// NewAnalyticsCollector creates and registers all series, including the Go
// runtime and process collectors.
func NewAnalyticsCollector() *AnalyticsCollector {
	c := &AnalyticsCollector{registry: prometheus.NewRegistry()}

	c.httpRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: MetricsNamespace,
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "Total HTTP requests by method, route and status.",
	}, []string{"method", "route", "status"})

	c.httpDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: MetricsNamespace,
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "HTTP request latency in seconds.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "route"})

	c.cycles = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: MetricsNamespace,
		Subsystem: "processor",
		Name:      "cycles_total",
		Help:      "Real-time processing cycles by company and result.",
	}, []string{"company", "result"})

	c.cycleDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: MetricsNamespace,
		Subsystem: "processor",
		Name:      "cycle_duration_seconds",
		Help:      "Duration of a real-time processing cycle.",
		Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
	})

	c.openConflicts = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: MetricsNamespace,
		Subsystem: "processor",
		Name:      "open_conflicts",
		Help:      "Open space conflicts after the latest cycle.",
	}, []string{"company"})

	c.alertsRaised = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: MetricsNamespace,
		Subsystem: "processor",
		Name:      "alerts_raised_total",
		Help:      "Alerts raised by the processor by severity.",
	}, []string{"severity"})

	c.predictions = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: MetricsNamespace,
		Subsystem: "analytics",
		Name:      "predictions_total",
		Help:      "Stored predictions by model type.",
	}, []string{"model"})

	c.modelAccuracy = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: MetricsNamespace,
		Subsystem: "analytics",
		Name:      "model_test_r2",
		Help:      "Held-out R² of the trained models.",
	}, []string{"model"})

	c.sensorMessages = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: MetricsNamespace,
		Subsystem: "mqtt",
		Name:      "messages_total",
		Help:      "Sensor messages received by result.",
	}, []string{"result"})

	c.reports = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: MetricsNamespace,
		Subsystem: "export",
		Name:      "reports_total",
		Help:      "Exported reports by type and format.",
	}, []string{"type", "format"})

	c.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		c.httpRequests,
		c.httpDuration,
		c.cycles,
		c.cycleDuration,
		c.openConflicts,
		c.alertsRaised,
		c.predictions,
		c.modelAccuracy,
		c.sensorMessages,
		c.reports,
	)
	return c
}

// RegisterDB exposes connection pool statistics of db
func (c *AnalyticsCollector) RegisterDB(db *sql.DB, name string) error {
	return c.registry.Register(collectors.NewDBStatsCollector(db, name))
}

// Handler serves the registry in the Prometheus exposition format
func (c *AnalyticsCollector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{EnableOpenMetrics: true})
}

// Registry exposes the underlying registry for tests
func (c *AnalyticsCollector) Registry() *prometheus.Registry {
	return c.registry
}

// ObserveHTTP records one finished request
func (c *AnalyticsCollector) ObserveHTTP(method, route string, status int, elapsed time.Duration) {
	c.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	c.httpDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

// ObserveCycle records the outcome of one processor cycle
func (c *AnalyticsCollector) ObserveCycle(companyID string, err error, elapsed time.Duration) {
	result := "success"
	if err != nil {
		result = "failure"
	}
	c.cycles.WithLabelValues(companyID, result).Inc()
	c.cycleDuration.Observe(elapsed.Seconds())
}

// SetOpenConflicts sets the open conflict gauge for a company
func (c *AnalyticsCollector) SetOpenConflicts(companyID string, n int) {
	c.openConflicts.WithLabelValues(companyID).Set(float64(n))
}

// AlertRaised counts an alert created by the processor
func (c *AnalyticsCollector) AlertRaised(severity string) {
	c.alertsRaised.WithLabelValues(severity).Inc()
}

// PredictionStored counts a stored prediction
func (c *AnalyticsCollector) PredictionStored(model string) {
	c.predictions.WithLabelValues(model).Inc()
}

// SetModelAccuracy publishes the held-out R² of a trained model
func (c *AnalyticsCollector) SetModelAccuracy(model string, r2 float64) {
	c.modelAccuracy.WithLabelValues(model).Set(r2)
}

// SensorMessage counts an ingested sensor message; result is "applied" or "rejected"
func (c *AnalyticsCollector) SensorMessage(result string) {
	c.sensorMessages.WithLabelValues(result).Inc()
}

// ReportExported counts a generated report
func (c *AnalyticsCollector) ReportExported(reportType, format string) {
	c.reports.WithLabelValues(reportType, format).Inc()
}
