package monitoring

import (
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	RequestCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests",
			Buckets: []float64{0.1, 0.5, 1, 2, 5},
		},
		[]string{"method", "endpoint"},
	)

	GradingRuns = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "grading_runs_total",
			Help: "Total number of graded test cases",
		},
		[]string{"language", "outcome"},
	)

	GradingDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "grading_execution_seconds",
			Help:    "Duration of a single test case evaluation",
			Buckets: []float64{0.001, 0.01, 0.05, 0.1, 0.5, 1, 2, 5},
		},
		[]string{"language"},
	)

	RuleFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "validator_rule_failures_total",
			Help: "Total number of failed HTML/CSS validation rules",
		},
		[]string{"rule"},
	)

	CacheLookups = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "grading_cache_lookups_total",
			Help: "Grading result cache lookups",
		},
		[]string{"result"},
	)
)

var registerOnce sync.Once

func Init() {
	registerOnce.Do(func() {
		prometheus.MustRegister(RequestCounter)
		prometheus.MustRegister(RequestDuration)
		prometheus.MustRegister(GradingRuns)
		prometheus.MustRegister(GradingDuration)
		prometheus.MustRegister(RuleFailures)
		prometheus.MustRegister(CacheLookups)
	})
}

func MetricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		duration := time.Since(start).Seconds()
		status := c.Writer.Status()

		RequestCounter.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			strconv.Itoa(status),
		).Inc()

		RequestDuration.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
		).Observe(duration)
	}
}

func PrometheusHandler() gin.HandlerFunc {
	h := promhttp.Handler()
	return func(c *gin.Context) {
		h.ServeHTTP(c.Writer, c.Request)
	}
}

// GradingObserver 将评测过程写入 prometheus 指标
type GradingObserver struct{}

func (GradingObserver) ObserveRun(language, outcome string, elapsed time.Duration) {
	GradingRuns.WithLabelValues(language, outcome).Inc()
	GradingDuration.WithLabelValues(language).Observe(elapsed.Seconds())
}

func (GradingObserver) ObserveRuleFailure(kind string) {
	RuleFailures.WithLabelValues(kind).Inc()
}

func ObserveCache(hit bool) {
	if hit {
		CacheLookups.WithLabelValues("hit").Inc()
		return
	}
	CacheLookups.WithLabelValues("miss").Inc()
}
