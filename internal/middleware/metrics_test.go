package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"

	"github.com/config-registry/config-registry/internal/telemetry"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// series returns every collected sample of c whose labels include want
func series(c prometheus.Collector, want prometheus.Labels) []*dto.Metric {
	ch := make(chan prometheus.Metric, 64)
	c.Collect(ch)
	close(ch)

	var out []*dto.Metric
	for m := range ch {
		var dm dto.Metric
		if err := m.Write(&dm); err != nil {
			continue
		}
		have := map[string]string{}
		for _, lp := range dm.GetLabel() {
			have[lp.GetName()] = lp.GetValue()
		}
		match := true
		for k, v := range want {
			if have[k] != v {
				match = false
				break
			}
		}
		if match {
			out = append(out, &dm)
		}
	}
	return out
}

func counterValue(cv *prometheus.CounterVec, labels prometheus.Labels) float64 {
	var total float64
	for _, m := range series(cv, labels) {
		total += m.GetCounter().GetValue()
	}
	return total
}

func histogramCount(hv *prometheus.HistogramVec, labels prometheus.Labels) uint64 {
	var total uint64
	for _, m := range series(hv, labels) {
		total += m.GetHistogram().GetSampleCount()
	}
	return total
}

func serve(r *gin.Engine, method, target string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(method, target, nil))
	return w
}

func newMetricsRouter(status int) *gin.Engine {
	r := gin.New()
	r.Use(MetricsMiddleware())
	r.GET("/namespaces/:id", func(c *gin.Context) { c.Status(status) })
	return r
}

func TestMetricsMiddleware_CountsByRouteTemplate(t *testing.T) {
	labels := prometheus.Labels{"method": "GET", "path": "/namespaces/:id", "status": "200"}
	before := counterValue(telemetry.HTTPRequestsTotal, labels)

	serve(newMetricsRouter(http.StatusOK), http.MethodGet, "/namespaces/42")

	if got := counterValue(telemetry.HTTPRequestsTotal, labels) - before; got != 1 {
		t.Errorf("http_requests_total delta = %v, want 1", got)
	}
	if raw := series(telemetry.HTTPRequestsTotal, prometheus.Labels{"path": "/namespaces/42"}); len(raw) != 0 {
		t.Error("raw URL leaked into the path label")
	}
}

func TestMetricsMiddleware_ObservesDuration(t *testing.T) {
	labels := prometheus.Labels{"method": "GET", "path": "/namespaces/:id"}
	before := histogramCount(telemetry.HTTPRequestDuration, labels)

	serve(newMetricsRouter(http.StatusOK), http.MethodGet, "/namespaces/7")

	if after := histogramCount(telemetry.HTTPRequestDuration, labels); after != before+1 {
		t.Errorf("duration samples = %d, want %d", after, before+1)
	}
}

func TestMetricsMiddleware_RecordsHandlerStatus(t *testing.T) {
	labels := prometheus.Labels{"method": "GET", "path": "/namespaces/:id", "status": "409"}
	before := counterValue(telemetry.HTTPRequestsTotal, labels)

	serve(newMetricsRouter(http.StatusConflict), http.MethodGet, "/namespaces/1")

	if got := counterValue(telemetry.HTTPRequestsTotal, labels) - before; got != 1 {
		t.Errorf("409 delta = %v, want 1", got)
	}
}

func TestMetricsMiddleware_UnmatchedRoute(t *testing.T) {
	labels := prometheus.Labels{"method": "GET", "path": noRoute, "status": "404"}
	before := counterValue(telemetry.HTTPRequestsTotal, labels)

	r := gin.New()
	r.Use(MetricsMiddleware())
	serve(r, http.MethodGet, "/nowhere")

	if got := counterValue(telemetry.HTTPRequestsTotal, labels) - before; got != 1 {
		t.Errorf("%s delta = %v, want 1", noRoute, got)
	}
}
