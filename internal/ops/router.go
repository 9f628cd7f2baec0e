package ops

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/iamvkosarev/mednote/pkg/logging"
)

const healthTimeout = 5 * time.Second

type HealthChecker interface {
	Health(ctx context.Context) error
}

type Config struct {
	Logger         *logging.Logger
	MetricsHandler http.Handler
	Backend        HealthChecker
}

// NewRouter exposes the client's metrics and a health probe that checks
// the MedNote backend.
func NewRouter(cfg Config) http.Handler {
	if cfg.Logger == nil {
		cfg.Logger = logging.Default()
	}
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	if cfg.MetricsHandler != nil {
		r.Handle("/metrics", cfg.MetricsHandler)
	}
	r.Get("/healthz", healthHandler(cfg.Backend, cfg.Logger))
	return r
}

func healthHandler(backend HealthChecker, logger *logging.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status := map[string]string{"status": "ok", "backend": "skipped"}
		code := http.StatusOK
		if backend != nil {
			ctx, cancel := context.WithTimeout(r.Context(), healthTimeout)
			defer cancel()
			if err := backend.Health(ctx); err != nil {
				logger.Warn("backend health check failed", "error", err)
				status = map[string]string{"status": "degraded", "backend": "unavailable", "error": err.Error()}
				code = http.StatusServiceUnavailable
			} else {
				status["backend"] = "ok"
			}
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(code)
		_ = json.NewEncoder(w).Encode(status)
	}
}
