package logging

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
)

// RequestLogger stores a request-scoped logger in the context, read back
// with L, and logs each completed request: server errors at warn, the rest
// at debug. chi's RequestID middleware must run first.
func RequestLogger(logger Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			log := logger.With(
				String("request_id", middleware.GetReqID(r.Context())),
				String("method", r.Method),
				String("path", r.URL.Path),
			)

			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r.WithContext(ContextWithLogger(r.Context(), log)))

			status := ww.Status()
			if status == 0 {
				// Hijacked for a websocket, or nothing written.
				status = http.StatusOK
			}
			fields := []Field{
				Int("status", status),
				Int("bytes", ww.BytesWritten()),
				Duration("duration", time.Since(start)),
			}
			if status >= http.StatusInternalServerError {
				log.Warn("request failed", fields...)
				return
			}
			log.Debug("request completed", fields...)
		})
	}
}
