// Package middleware holds the HTTP middleware shared by all routes.
package middleware

import (
	"fmt"
	"net/http"
	"time"

	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// Logger logs every request and warns when handling exceeds
// slowThreshold. The handling time is also exposed to clients via the
// X-Process-Time-Ms header.
func Logger(logger *zap.Logger, slowThreshold time.Duration) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			ww := &timingWriter{
				WrapResponseWriter: chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor),
				start:              start,
			}

			next.ServeHTTP(ww, r)

			elapsed := time.Since(start)
			fields := []zap.Field{
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Int("bytes", ww.BytesWritten()),
				zap.Duration("duration", elapsed),
				zap.String("request_id", chimiddleware.GetReqID(r.Context())),
				zap.String("remote_addr", r.RemoteAddr),
			}

			if slowThreshold > 0 && elapsed > slowThreshold {
				logger.Warn("slow request",
					append(fields,
						zap.Duration("threshold", slowThreshold),
						zap.String("query", r.URL.RawQuery),
					)...)
				return
			}

			logger.Info("request completed", fields...)
		})
	}
}

// timingWriter stamps the processing time header just before the
// status line goes out; headers are immutable afterwards. Write is
// intercepted too, because a handler that never calls WriteHeader
// flushes the status line implicitly on its first write.
type timingWriter struct {
	chimiddleware.WrapResponseWriter
	start   time.Time
	stamped bool
}

func (t *timingWriter) WriteHeader(code int) {
	t.stamp()
	t.WrapResponseWriter.WriteHeader(code)
}

func (t *timingWriter) Write(b []byte) (int, error) {
	t.stamp()
	return t.WrapResponseWriter.Write(b)
}

func (t *timingWriter) stamp() {
	if t.stamped {
		return
	}
	t.stamped = true
	elapsed := float64(time.Since(t.start).Microseconds()) / 1000.0
	t.Header().Set("X-Process-Time-Ms", fmt.Sprintf("%.2f", elapsed))
}
