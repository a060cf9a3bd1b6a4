package mw

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/MrSnakeDoc/pulsepage/internal/logger"
)

// quietPaths are probed constantly and only logged at debug level.
var quietPaths = map[string]bool{"/healthz": true, "/readyz": true}

// Log writes one line per request. Server errors are logged at warn level.
func Log(loggerClient logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			fields := []logger.Field{
				logger.String("method", r.Method),
				logger.String("host", r.Host),
				logger.String("path", r.URL.Path),
				logger.Int("status", status),
				logger.Int("bytes", ww.BytesWritten()),
				logger.Duration("duration", time.Since(start)),
				logger.String("remote_ip", r.RemoteAddr),
				logger.String("user_agent", r.UserAgent()),
				logger.String("request_id", middleware.GetReqID(r.Context())),
			}

			switch {
			case status >= http.StatusInternalServerError:
				loggerClient.Warn("http_request", fields...)
			case quietPaths[r.URL.Path]:
				loggerClient.Debug("http_request", fields...)
			default:
				loggerClient.Info("http_request", fields...)
			}
		})
	}
}
