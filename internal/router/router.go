package router

import (
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/vista0212/kommunity-backend/internal/board"
	"github.com/vista0212/kommunity-backend/internal/media"
	"github.com/vista0212/kommunity-backend/internal/user"
	"github.com/vista0212/kommunity-backend/pkg/utilities"
)

// loggingResponseWriter wraps http.ResponseWriter to capture status and size.
type loggingResponseWriter struct {
	http.ResponseWriter
	status int
	size   int
}

func (lrw *loggingResponseWriter) WriteHeader(code int) {
	lrw.status = code
	lrw.ResponseWriter.WriteHeader(code)
}

func (lrw *loggingResponseWriter) Write(b []byte) (int, error) {
	if lrw.status == 0 {
		lrw.status = http.StatusOK
	}
	n, err := lrw.ResponseWriter.Write(b)
	lrw.size += n
	return n, err
}

// LoggingMiddleware logs each request with a correlation id using the
// provided sugared logger.
func LoggingMiddleware(logger *zap.SugaredLogger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			reqID := utilities.NewRequestID()
			lrw := &loggingResponseWriter{ResponseWriter: w}
			next.ServeHTTP(lrw, r)
			dur := time.Since(start)
			status := lrw.status
			if status == 0 {
				status = http.StatusOK
			}
			logger.Debugw("http request",
				"request_id", reqID,
				"method", r.Method,
				"path", r.URL.Path,
				"remote", r.RemoteAddr,
				"status", status,
				"duration_ms", float64(dur.Microseconds())/1000.0,
				"size", lrw.size,
			)
		})
	}
}

// SecurityHeadersMiddleware sets common HTTP security headers.
func SecurityHeadersMiddleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("X-Content-Type-Options", "nosniff")
			w.Header().Set("X-Frame-Options", "DENY")
			w.Header().Set("Referrer-Policy", "no-referrer-when-downgrade")
			if r.TLS != nil {
				w.Header().Set("Strict-Transport-Security", "max-age=2592000; includeSubDomains")
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RegisterRoutes mounts HTTP handlers using the standard library's
// http.ServeMux. Handlers resolve the bearer token themselves; routing stays
// plain wiring.
func RegisterRoutes(logger *zap.SugaredLogger, users *user.Handler, boards *board.Handler, uploads *media.Handler) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /kommunity-api/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	mux.HandleFunc("POST /kommunity-api/auth/register", users.Register)
	mux.HandleFunc("POST /kommunity-api/auth/login", users.Login)
	mux.HandleFunc("POST /kommunity-api/members", users.Provision)

	mux.HandleFunc("GET /kommunity-api/boards", boards.List)
	mux.HandleFunc("POST /kommunity-api/boards", boards.Post)
	mux.HandleFunc("DELETE /kommunity-api/boards/{id}", boards.Delete)
	mux.HandleFunc("POST /kommunity-api/boards/{id}/comments", boards.Comment)
	mux.HandleFunc("POST /kommunity-api/boards/{id}/like", boards.Like)
	mux.HandleFunc("POST /kommunity-api/boards/{id}/image", uploads.Upload)

	return LoggingMiddleware(logger)(SecurityHeadersMiddleware()(mux))
}
