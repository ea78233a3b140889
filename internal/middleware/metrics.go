package middleware

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/mcoot/teamenforcer/internal/metrics"
)

// Metrics counts requests by matched route template. Raw paths never become labels.
func Metrics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		wrapped := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(wrapped, r)

		route := "unmatched"
		if current := mux.CurrentRoute(r); current != nil {
			if tmpl, err := current.GetPathTemplate(); err == nil {
				route = tmpl
			}
		}
		metrics.RecordRequest(route, r.Method, wrapped.status)
	})
}
