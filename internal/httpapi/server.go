// Package httpapi exposes a read-only status surface for a running benchmark:
// liveness, store readiness, live progress, stored sessions and Prometheus
// metrics. It never writes to the store.
package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"llmbench/pkg/types"
)

// Service defines the methods required by the HTTP API layer.
type Service interface {
	Status() types.StatusResponse
	Sessions(ctx context.Context, limit int, incompleteOnly bool) ([]types.Session, error)
	Ready(ctx context.Context) error
}

// maxSessionsLimit caps ?limit on /sessions.
const maxSessionsLimit = 1000

func NewMux(svc Service) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("X-Content-Type-Options", "nosniff")
			next.ServeHTTP(w, r)
		})
	})
	if corsEnabled {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: corsAllowedOrigins,
			AllowedMethods: corsAllowedMethods,
			AllowedHeaders: corsAllowedHeaders,
			MaxAge:         300,
		}))
	}
	r.Use(RequestLogger)
	r.Use(MetricsMiddleware)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if err := svc.Ready(r.Context()); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte("store unavailable"))
			return
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ready"))
	})

	r.Get("/status", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, svc.Status())
	})

	r.Get("/sessions", func(w http.ResponseWriter, r *http.Request) {
		limit := 50
		if v := r.URL.Query().Get("limit"); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil || n < 0 {
				writeJSONError(w, http.StatusBadRequest, "invalid limit")
				return
			}
			limit = min(n, maxSessionsLimit)
		}
		incomplete := false
		if v := r.URL.Query().Get("incomplete"); v != "" {
			b, err := strconv.ParseBool(v)
			if err != nil {
				writeJSONError(w, http.StatusBadRequest, "invalid incomplete flag")
				return
			}
			incomplete = b
		}
		// Shutdown cancels in-flight store reads too.
		ctx, cancel := joinContexts(serverBaseCtx, r.Context())
		defer cancel()
		ss, err := svc.Sessions(ctx, limit, incomplete)
		if err != nil {
			if r.Context().Err() != nil {
				return
			}
			logRequestError(r, err)
			writeJSONError(w, http.StatusInternalServerError, "failed to list sessions")
			return
		}
		if ss == nil {
			ss = []types.Session{}
		}
		writeJSON(w, types.SessionsResponse{Sessions: ss})
	})

	r.Get("/metrics", promhttp.Handler().ServeHTTP)

	return r
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		writeJSONError(w, http.StatusInternalServerError, "failed to encode response")
	}
}
