package ops

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iamvkosarev/mednote/internal/observability/metrics"
	"github.com/iamvkosarev/mednote/pkg/logging"
)

type healthFunc func(ctx context.Context) error

func (f healthFunc) Health(ctx context.Context) error { return f(ctx) }

func get(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestHealthz(t *testing.T) {
	router := NewRouter(Config{
		Logger:  logging.Discard(),
		Backend: healthFunc(func(context.Context) error { return nil }),
	})

	rec := get(t, router, "/healthz")
	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, "ok", body["backend"])
}

func TestHealthzBackendDown(t *testing.T) {
	router := NewRouter(Config{
		Logger:  logging.Discard(),
		Backend: healthFunc(func(context.Context) error { return errors.New("connection refused") }),
	})

	rec := get(t, router, "/healthz")
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "connection refused")
}

func TestHealthzWithoutBackend(t *testing.T) {
	rec := get(t, NewRouter(Config{Logger: logging.Discard()}), "/healthz")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"backend":"skipped"`)
}

func TestMetricsEndpoint(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.NewBackendMetrics(reg)
	m.ObserveRequest("diagnose", "ok", 0.2)

	router := NewRouter(Config{
		Logger:         logging.Discard(),
		MetricsHandler: promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
	})

	rec := get(t, router, "/metrics")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), `mednote_backend_requests_total{operation="diagnose",outcome="ok"} 1`))

	assert.Equal(t, http.StatusNotFound, get(t, NewRouter(Config{Logger: logging.Discard()}), "/metrics").Code)
}
