// internal/middleware/metrics.go
//
// Request-counting middleware.
//
// Counts every response by method and status class.  Route labels are
// deliberately omitted: the path set is tiny and fixed, and unbounded
// label values (ids, category names) would bloat the series.

package middleware

import (
	"net/http"
	"strconv"

	"github.com/yanizio/waypost/internal/metrics"
)

// statusRecorder captures the status code written by the handler.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// Metrics increments the HTTP request counter for every response.
func Metrics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		metrics.HTTPRequestsTotal.
			WithLabelValues(r.Method, strconv.Itoa(rec.status)).
			Inc()
	})
}
