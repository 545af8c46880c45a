package monitoring

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestGradingObserver(t *testing.T) {
	before := testutil.ToFloat64(GradingRuns.WithLabelValues("javascript", "passed"))
	GradingObserver{}.ObserveRun("javascript", "passed", 5*time.Millisecond)
	assert.Equal(t, before+1, testutil.ToFloat64(GradingRuns.WithLabelValues("javascript", "passed")))

	rules := testutil.ToFloat64(RuleFailures.WithLabelValues("img-alt"))
	GradingObserver{}.ObserveRuleFailure("img-alt")
	assert.Equal(t, rules+1, testutil.ToFloat64(RuleFailures.WithLabelValues("img-alt")))
}

func TestMetricsEndpoint(t *testing.T) {
	Init()
	Init()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(MetricsMiddleware())
	r.GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, "pong") })
	r.GET("/metrics", PrometheusHandler())

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/ping", nil))
	ObserveCache(true)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `http_requests_total{endpoint="/ping",method="GET",status="200"}`)
	assert.Contains(t, w.Body.String(), "grading_cache_lookups_total")
}
