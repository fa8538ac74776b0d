package middleware

import (
	"net/http"
	"strconv"
	"time"

	chimid "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "wildlens_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route", "status"},
	)
	authAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wildlens_auth_attempts_total",
			Help: "Signup and login attempts by outcome",
		},
		[]string{"event", "success"},
	)
	scansCreated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "wildlens_scans_created_total",
			Help: "Scans stored",
		},
	)
)

// Prometheus records request duration labelled by route pattern rather than
// raw path, so species names and ids do not create new series.
func Prometheus(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := chimid.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		httpRequestDuration.
			WithLabelValues(r.Method, routePattern(r), strconv.Itoa(status)).
			Observe(time.Since(start).Seconds())
	})
}

// RecordAuthAttempt counts a signup or login outcome.
func RecordAuthAttempt(event string, success bool) {
	authAttempts.WithLabelValues(event, strconv.FormatBool(success)).Inc()
}

func RecordScanCreated() {
	scansCreated.Inc()
}
