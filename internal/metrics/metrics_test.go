package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestDomainCounters(t *testing.T) {
	m := New()
	m.OutputRegistered("DRAW")
	m.OutputRegistered("DRAW")
	m.Distributed("master", "created", 5)
	m.Distributed("master", "merged", 3)
	m.SetStockAnomalies("prizes", 2)

	if got := testutil.ToFloat64(m.OutputsRegistered.WithLabelValues("DRAW")); got != 2 {
		t.Fatalf("outputs registered = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.QuantityDistributed.WithLabelValues("master")); got != 8 {
		t.Fatalf("quantity distributed = %v, want 8", got)
	}
	if got := testutil.ToFloat64(m.StockAnomalies.WithLabelValues("prizes")); got != 2 {
		t.Fatalf("anomalies = %v, want 2", got)
	}
}

func TestNilMetricsAreNoops(t *testing.T) {
	var m *Metrics
	m.OutputRegistered("GIFT")
	m.PickupConfirmed(true)
	m.Distributed("prize", "created", 1)
	m.SetStockAnomalies("prizes", 1)
	m.PutOnAir(3)
}

func TestGinMiddlewareAndHandler(t *testing.T) {
	gin.SetMode(gin.TestMode)
	m := New()
	r := gin.New()
	r.Use(m.GinMiddleware())
	r.GET("/v0/station/prizes", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/metrics", gin.WrapH(m.Handler()))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/v0/station/prizes", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if got := testutil.ToFloat64(m.RequestCounter.WithLabelValues("GET", "/v0/station/prizes", "200")); got != 1 {
		t.Fatalf("request counter = %v, want 1", got)
	}

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if !strings.Contains(w.Body.String(), "prizedesk_http_requests_total") {
		t.Fatalf("metrics output missing request counter")
	}
}
