package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "prizedesk"

// Metrics holds Prometheus collectors for the service.
// Every method is safe on a nil receiver so callers may run without metrics.
type Metrics struct {
	registry *prometheus.Registry

	OutputsRegistered   *prometheus.CounterVec
	PickupsConfirmed    *prometheus.CounterVec
	OutputsDeleted      *prometheus.CounterVec
	Distributions       *prometheus.CounterVec
	QuantityDistributed *prometheus.CounterVec
	StockAnomalies      *prometheus.GaugeVec
	PrizesPutOnAir      prometheus.Counter
	RequestCounter      *prometheus.CounterVec
	RequestDuration     *prometheus.HistogramVec
	RequestsInFlight    prometheus.Gauge
	DBConnPoolStats     *prometheus.GaugeVec
}

// New creates collectors on a private registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		OutputsRegistered: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "outputs", Name: "registered_total",
			Help: "Outputs registered, by output type.",
		}, []string{"type"}),
		PickupsConfirmed: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "outputs", Name: "pickups_confirmed_total",
			Help: "Pickups confirmed, split by whether they were late.",
		}, []string{"late"}),
		OutputsDeleted: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "outputs", Name: "deleted_total",
			Help: "Outputs deleted with stock returned, by prior status.",
		}, []string{"status"}),
		Distributions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "inventory", Name: "distributions_total",
			Help: "Distribution operations, by source kind and destination branch.",
		}, []string{"source", "branch"}),
		QuantityDistributed: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "inventory", Name: "quantity_distributed_total",
			Help: "Units moved by distributions, by source kind.",
		}, []string{"source"}),
		StockAnomalies: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace, Subsystem: "inventory", Name: "stock_anomalies",
			Help: "Rows violating 0 <= available <= total at the last audit.",
		}, []string{"table"}),
		PrizesPutOnAir: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "scheduler", Name: "prizes_put_on_air_total",
			Help: "Prizes put on air by the scheduler.",
		}),
		RequestCounter: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "http", Name: "requests_total",
			Help: "Total number of HTTP requests.",
		}, []string{"method", "route", "status"}),
		RequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace, Subsystem: "http", Name: "request_duration_seconds",
			Help: "HTTP request duration in seconds.", Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
		RequestsInFlight: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Subsystem: "http", Name: "requests_in_flight",
			Help: "HTTP requests currently being served.",
		}),
		DBConnPoolStats: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace, Subsystem: "db", Name: "connection_pool",
			Help: "Database connection pool statistics.",
		}, []string{"stat"}),
	}
}

// Registry exposes the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// GinMiddleware records request count, latency and in-flight requests per matched route.
func (m *Metrics) GinMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if m == nil {
			c.Next()
			return
		}
		m.RequestsInFlight.Inc()
		start := time.Now()
		c.Next()
		m.RequestsInFlight.Dec()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		method := c.Request.Method
		m.RequestDuration.WithLabelValues(method, route).Observe(time.Since(start).Seconds())
		m.RequestCounter.WithLabelValues(method, route, strconv.Itoa(c.Writer.Status())).Inc()
	}
}

// OutputRegistered counts one registration.
func (m *Metrics) OutputRegistered(outputType string) {
	if m == nil {
		return
	}
	m.OutputsRegistered.WithLabelValues(outputType).Inc()
}

// PickupConfirmed counts one delivery.
func (m *Metrics) PickupConfirmed(late bool) {
	if m == nil {
		return
	}
	m.PickupsConfirmed.WithLabelValues(strconv.FormatBool(late)).Inc()
}

// OutputDeleted counts one deletion.
func (m *Metrics) OutputDeleted(status string) {
	if m == nil {
		return
	}
	m.OutputsDeleted.WithLabelValues(status).Inc()
}

// Distributed counts one distribution of quantity units.
func (m *Metrics) Distributed(source, branch string, quantity int) {
	if m == nil {
		return
	}
	m.Distributions.WithLabelValues(source, branch).Inc()
	m.QuantityDistributed.WithLabelValues(source).Add(float64(quantity))
}

// SetStockAnomalies records the audit result for table.
func (m *Metrics) SetStockAnomalies(table string, n int) {
	if m == nil {
		return
	}
	m.StockAnomalies.WithLabelValues(table).Set(float64(n))
}

// PutOnAir counts prizes activated by the scheduler.
func (m *Metrics) PutOnAir(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.PrizesPutOnAir.Add(float64(n))
}

// RecordDBPoolStats records database connection pool statistics.
func (m *Metrics) RecordDBPoolStats(open, inUse, idle int, waitCount int64, waitDuration time.Duration) {
	if m == nil {
		return
	}
	m.DBConnPoolStats.WithLabelValues("open").Set(float64(open))
	m.DBConnPoolStats.WithLabelValues("in_use").Set(float64(inUse))
	m.DBConnPoolStats.WithLabelValues("idle").Set(float64(idle))
	m.DBConnPoolStats.WithLabelValues("wait_count").Set(float64(waitCount))
	m.DBConnPoolStats.WithLabelValues("wait_duration_ms").Set(float64(waitDuration.Milliseconds()))
}
