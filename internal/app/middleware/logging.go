package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/docker/go-units"

	"github.com/thushan/lmsgate/internal/core/constants"
	"github.com/thushan/lmsgate/internal/logger"
	"github.com/thushan/lmsgate/internal/util"
)

// Context keys for request ID and logger
type contextKey string

const (
	RequestIDKey contextKey = "request_id"
	LoggerKey    contextKey = "logger"
)

// maxRequestIDLength caps caller supplied ids before they reach the logs
const maxRequestIDLength = 128

// IsInternalRequest reports whether path is one of the operational
// endpoints, which are logged at debug so probes don't flood the output
func IsInternalRequest(path string) bool {
	return strings.HasPrefix(path, "/internal/") || path == constants.DefaultVersionEndpoint
}

// responseWriter wraps http.ResponseWriter to capture response size and status
type responseWriter struct {
	http.ResponseWriter
	status int
	size   int64
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	size, err := rw.ResponseWriter.Write(b)
	rw.size += int64(size)
	return size, err
}

func (rw *responseWriter) WriteHeader(s int) {
	rw.status = s
	rw.ResponseWriter.WriteHeader(s)
}

func (rw *responseWriter) Unwrap() http.ResponseWriter {
	return rw.ResponseWriter
}

// GetLogger retrieves a logger with request ID from context
func GetLogger(ctx context.Context) *slog.Logger {
	if l, ok := ctx.Value(LoggerKey).(*slog.Logger); ok {
		return l
	}
	return slog.Default()
}

// GetRequestID retrieves the request ID from context
func GetRequestID(ctx context.Context) string {
	if requestID, ok := ctx.Value(RequestIDKey).(string); ok {
		return requestID
	}
	return ""
}

func requestIDFrom(r *http.Request) string {
	requestID := strings.TrimSpace(r.Header.Get(constants.HeaderXRequestID))
	if requestID == "" || len(requestID) > maxRequestIDLength {
		return util.GenerateRequestID()
	}
	return requestID
}

// EnhancedLoggingMiddleware tags every request with an id, exposes a
// request scoped logger through the context and logs start and completion
func EnhancedLoggingMiddleware(styledLogger logger.StyledLogger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			requestID := requestIDFrom(r)

			requestSize := r.ContentLength
			if requestSize < 0 {
				requestSize = 0
			}

			ctx := context.WithValue(r.Context(), RequestIDKey, requestID)
			baseLogger := styledLogger.GetUnderlying().With(constants.ContextRequestIdKey, requestID)
			ctx = context.WithValue(ctx, LoggerKey, baseLogger)

			w.Header().Set(constants.HeaderXLmsgateRequest, requestID)
			wrapped := &responseWriter{ResponseWriter: w, status: http.StatusOK}

			internal := IsInternalRequest(r.URL.Path)
			logFields := []any{
				"method", r.Method,
				"path", r.URL.Path,
				"remote_addr", r.RemoteAddr,
				"user_agent", r.UserAgent(),
				"request_bytes", requestSize,
			}
			if internal {
				baseLogger.Debug("Request started", logFields...)
			} else {
				baseLogger.Info("Request started", logFields...)
			}

			next.ServeHTTP(wrapped, r.WithContext(ctx))

			duration := time.Since(start)
			completionFields := []any{
				"method", r.Method,
				"path", r.URL.Path,
				"status", wrapped.status,
				"duration_ms", duration.Milliseconds(),
				"response_size", units.HumanSize(float64(wrapped.size)),
			}
			if internal {
				baseLogger.Debug("Request completed", completionFields...)
			} else {
				baseLogger.Info("Request completed", completionFields...)
			}
		})
	}
}

// AccessLoggingMiddleware writes a detailed access record to the log file only
func AccessLoggingMiddleware(styledLogger logger.StyledLogger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			wrapped := &responseWriter{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(wrapped, r)

			requestSize := r.ContentLength
			if requestSize < 0 {
				requestSize = 0
			}

			detailedCtx := context.WithValue(r.Context(), logger.DefaultDetailedCookie, true)
			styledLogger.GetUnderlying().InfoContext(detailedCtx, "Access log",
				"timestamp", start.Format(time.RFC3339),
				"request_id", wrapped.Header().Get(constants.HeaderXLmsgateRequest),
				"remote_addr", r.RemoteAddr,
				"method", r.Method,
				"path", r.URL.Path,
				"query", r.URL.RawQuery,
				"status", wrapped.status,
				"request_bytes", requestSize,
				"response_bytes", wrapped.size,
				"duration_ms", time.Since(start).Milliseconds(),
				"user_agent", r.UserAgent(),
				"content_type", r.Header.Get(constants.ContentTypeHeader),
				"accept", r.Header.Get(constants.HeaderAccept))
		})
	}
}
