package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"

	"github.com/fpang/cartoonaf/internal/metrics"
)

// originVerifyHeader carries the shared secret the CDN adds to every request
// it forwards to the filter API.
const originVerifyHeader = "x-origin-verify"

// withOriginVerify guards the filter and gallery routes. With no secret
// configured every request passes, which is how local runs and the first
// deploy work before the CDN is wired.
func (s *Server) withOriginVerify(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.originVerifySecret != "" && r.Header.Get(originVerifyHeader) != s.originVerifySecret {
			log.Warn().
				Str("path", r.URL.Path).
				Str("requestId", middleware.GetReqID(r.Context())).
				Msg("Rejected filter API call without a valid origin secret")
			httpError(w, r, http.StatusForbidden, "forbidden", nil)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// withMetrics emits one EMF document per API call with RequestLatencyMs and
// RequestCount. Endpoint is the matched route pattern, or "unmatched".
func (s *Server) withMetrics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		endpoint := "unmatched"
		if rc := chi.RouteContext(r.Context()); rc != nil && rc.RoutePattern() != "" {
			endpoint = rc.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}

		metrics.NewWithWriter(s.metricsNamespace, s.metricsOut).
			Dimension("Endpoint", endpoint).
			Duration("RequestLatencyMs", time.Since(start)).
			Count("RequestCount").
			Property("method", r.Method).
			Property("statusCode", status).
			Flush()

		log.Debug().
			Str("method", r.Method).
			Str("endpoint", endpoint).
			Int("status", status).
			Dur("elapsed", time.Since(start)).
			Msg("Request served")
	})
}
