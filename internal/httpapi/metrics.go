package httpapi

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
)

// unmatchedRoute labels every request chi could not route.
const unmatchedRoute = "unmatched"

// Routes whose traffic is not recorded.
var unobservedRoutes = map[string]bool{
	"/metrics": true,
}

var (
	statusRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "llmbench",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Status server requests by route and response code.",
		},
		[]string{"route", "code"},
	)

	statusRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "llmbench",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Status server response latency by route.",
			// store-backed reads on a local database
			Buckets: []float64{.0005, .001, .005, .01, .05, .1, .5, 1},
		},
		[]string{"route"},
	)
)

func init() {
	prometheus.MustRegister(statusRequestsTotal, statusRequestDuration)
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (sr *statusRecorder) WriteHeader(code int) {
	sr.status = code
	sr.ResponseWriter.WriteHeader(code)
}

// MetricsMiddleware counts status server requests per chi route pattern.
func MetricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sr := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()
		next.ServeHTTP(sr, r)
		// the pattern is only set once chi has routed the request
		route := routeLabel(r)
		if unobservedRoutes[route] {
			return
		}
		statusRequestsTotal.WithLabelValues(route, strconv.Itoa(sr.status)).Inc()
		statusRequestDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	})
}

func routeLabel(r *http.Request) string {
	if rc := chi.RouteContext(r.Context()); rc != nil {
		if p := rc.RoutePattern(); p != "" {
			return p
		}
	}
	return unmatchedRoute
}
