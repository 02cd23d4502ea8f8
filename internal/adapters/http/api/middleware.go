package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/okian/streak/pkg/metrics"
)

// MetricsMiddleware records request count, latency and failures under endpoint.
func MetricsMiddleware(next http.HandlerFunc, endpoint string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		status := strconv.Itoa(rec.status)
		metrics.RecordHTTPRequest(endpoint, r.Method, status)
		metrics.RecordHTTPRequestDuration(endpoint, r.Method, status, metrics.Since(start))

		if code := failureCode(rec.status); code != "" {
			metrics.RecordErrorByEndpoint(endpoint, r.Method, code)
			metrics.RecordErrorByComponent("http", code)
		}
	}
}

// failureCode returns the error code writeFailure uses for status, or "" for
// a success.
func failureCode(status int) string {
	switch {
	case status < http.StatusBadRequest:
		return ""
	case status == http.StatusNotFound:
		return "not_found"
	case status == http.StatusConflict:
		return "conflict"
	case status == http.StatusServiceUnavailable:
		return "store_unavailable"
	case status >= http.StatusInternalServerError:
		return "internal_error"
	default:
		return "bad_request"
	}
}

// statusRecorder captures the status code written by a handler.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// Unwrap lets http.ResponseController reach the underlying writer.
func (r *statusRecorder) Unwrap() http.ResponseWriter { return r.ResponseWriter }
