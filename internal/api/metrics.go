package api

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/platecost/platecost/internal/costing"
)

// Metrics holds the API's Prometheus collectors on a private registry.
type Metrics struct {
	registry *prometheus.Registry

	requestDuration *prometheus.HistogramVec
	recipesCosted   *prometheus.GaugeVec
	recipesFailed   *prometheus.GaugeVec
	lineRejections  *prometheus.CounterVec
}

// NewMetrics creates and registers the API collectors.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()

	requestDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "platecost_http_request_duration_seconds",
			Help:    "Duration of API requests",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route", "status"},
	)

	recipesCosted := prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "platecost_recipes_costed",
			Help: "Recipes costed in the last full costing pass",
		},
		[]string{"tenant"},
	)

	recipesFailed := prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "platecost_recipes_cost_unavailable",
			Help: "Recipes whose cost was unavailable in the last full costing pass",
		},
		[]string{"tenant"},
	)

	lineRejections := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "platecost_recipe_line_rejections_total",
			Help: "Recipe line saves rejected by the composition guard",
		},
		[]string{"kind"},
	)

	registry.MustRegister(
		requestDuration,
		recipesCosted,
		recipesFailed,
		lineRejections,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return &Metrics{
		registry:        registry,
		requestDuration: requestDuration,
		recipesCosted:   recipesCosted,
		recipesFailed:   recipesFailed,
		lineRejections:  lineRejections,
	}
}

// Middleware records the duration of every request by route template.
func (m *Metrics) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.requestDuration.
			WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).
			Observe(time.Since(start).Seconds())
	}
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() gin.HandlerFunc {
	return gin.WrapH(promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{}))
}

func (m *Metrics) observeBoard(tenant string, total, unavailable int) {
	m.recipesCosted.WithLabelValues(tenant).Set(float64(total - unavailable))
	m.recipesFailed.WithLabelValues(tenant).Set(float64(unavailable))
}

func (m *Metrics) observeRejection(kind costing.Kind) {
	m.lineRejections.WithLabelValues(string(kind)).Inc()
}
