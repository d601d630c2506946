package security

import (
	"net/http"

	"github.com/docker/go-units"

	"github.com/thushan/lmsgate/internal/config"
	"github.com/thushan/lmsgate/internal/logger"
	"github.com/thushan/lmsgate/internal/util"
)

// SizeLimiter rejects request bodies over the configured limit. Declared
// lengths are refused up front; chunked bodies are capped with
// http.MaxBytesReader and fail when the handler decodes them.
type SizeLimiter struct {
	logger      logger.StyledLogger
	maxBodySize int64
}

func NewSizeLimiter(limits config.ServerRequestLimits, log logger.StyledLogger) *SizeLimiter {
	return &SizeLimiter{
		maxBodySize: limits.MaxBodySize,
		logger:      log,
	}
}

func (sl *SizeLimiter) MaxBodySize() int64 {
	return sl.maxBodySize
}

func (sl *SizeLimiter) Middleware(next http.Handler) http.Handler {
	if sl.maxBodySize <= 0 {
		return next
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.ContentLength > sl.maxBodySize {
			sl.logger.Warn("Request rejected",
				"reason", "body too large",
				"content_length", units.HumanSize(float64(r.ContentLength)),
				"limit", units.HumanSize(float64(sl.maxBodySize)),
				"method", r.Method,
				"path", r.URL.Path,
				"remote_addr", r.RemoteAddr)

			util.WriteDetail(w, http.StatusRequestEntityTooLarge, "Request body too large")
			return
		}

		r.Body = http.MaxBytesReader(w, r.Body, sl.maxBodySize)
		next.ServeHTTP(w, r)
	})
}
