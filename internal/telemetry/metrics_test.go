package telemetry

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YelzhanWeb/bulkplan/internal/app/session"
	"github.com/YelzhanWeb/bulkplan/internal/domain"
)

var _ session.Metrics = (*Metrics)(nil)

func TestMetricsCounters(t *testing.T) {
	m := New()

	m.CommandProcessed(domain.IntentDelayOrder, true)
	m.CommandProcessed(domain.IntentDelayOrder, true)
	m.CommandProcessed(domain.IntentUnknown, false)
	m.Transcription("ok")
	m.ScheduleSize(400)
	m.ScheduleReset()

	assert.Equal(t, 2.0, testutil.ToFloat64(m.Commands.WithLabelValues("delay_order", "true")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Commands.WithLabelValues("unknown", "false")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Transcriptions.WithLabelValues("ok")))
	assert.Equal(t, 400.0, testutil.ToFloat64(m.ScheduleOperations))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Resets))
}

func TestMiddlewareUsesRoutePattern(t *testing.T) {
	m := New()

	r := chi.NewRouter()
	r.Use(m.Middleware)
	r.Get("/orders/{id}/operations", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	r.Handle("/metrics", m.Handler())

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/orders/ORD-404/operations", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.HTTPRequests.WithLabelValues("GET", "/orders/{id}/operations", "404")))

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	body, _ := io.ReadAll(rec.Body)
	assert.Contains(t, string(body), "planner_http_requests_total")
}
