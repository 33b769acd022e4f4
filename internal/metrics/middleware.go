package metrics

import (
	"net/http"
	"strconv"
)

type responseWriter struct {
	http.ResponseWriter
	status int
}

func (w *responseWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

// RequestMiddleware counts requests by method and status class, and errors.
func RequestMiddleware(m *Metrics) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			wrap := &responseWriter{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(wrap, r)
			if m == nil {
				return
			}
			m.requestsTotal.WithLabelValues(r.Method, strconv.Itoa(wrap.status/100)+"xx").Inc()
			if wrap.status >= 400 {
				m.errorsTotal.Inc()
			}
		})
	}
}
