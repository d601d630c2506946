package security

/*
	Per-IP rate limiting for the LM Studio routes using token buckets.
	Limiters live in an xsync map keyed by client IP and are dropped by a
	background sweep once idle.

	References:
	- https://pkg.go.dev/golang.org/x/time/rate
	- https://datatracker.ietf.org/doc/draft-ietf-httpapi-ratelimit-headers/
*/

import (
	"net"
	"net/http"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/puzpuzpuz/xsync/v4"
	"golang.org/x/time/rate"

	"github.com/thushan/lmsgate/internal/config"
	"github.com/thushan/lmsgate/internal/core/constants"
	"github.com/thushan/lmsgate/internal/logger"
	"github.com/thushan/lmsgate/internal/util"
)

const limiterIdleTTL = 10 * time.Minute

type RateLimiter struct {
	logger        logger.StyledLogger
	limiters      *xsync.Map[string, *ipLimiter]
	cleanupTicker *time.Ticker
	stopCleanup   chan struct{}
	trustedCIDRs  []*net.IPNet

	requestsPerMinute int
	burstSize         int
	stopOnce          sync.Once
	trustProxyHeaders bool
}

type ipLimiter struct {
	limiter    *rate.Limiter
	lastAccess atomic.Int64
}

// RateLimitResult is the outcome of a single check
type RateLimitResult struct {
	ResetTime  time.Time
	Limit      int
	Remaining  int
	RetryAfter int
	Allowed    bool
}

func NewRateLimiter(limits config.ServerRateLimits, log logger.StyledLogger) *RateLimiter {
	burst := limits.BurstSize
	if burst <= 0 {
		burst = 1
	}

	rl := &RateLimiter{
		logger:            log,
		limiters:          xsync.NewMap[string, *ipLimiter](),
		stopCleanup:       make(chan struct{}),
		trustedCIDRs:      limits.TrustedProxyCIDRsParsed,
		requestsPerMinute: limits.PerIPRequestsPerMinute,
		burstSize:         burst,
		trustProxyHeaders: limits.TrustProxyHeaders,
	}

	if rl.Enabled() && limits.CleanupInterval > 0 {
		rl.cleanupTicker = time.NewTicker(limits.CleanupInterval)
		go rl.cleanupRoutine()
	}

	return rl
}

func (rl *RateLimiter) Enabled() bool {
	return rl.requestsPerMinute > 0
}

// Check consumes a token for clientIP if one is available
func (rl *RateLimiter) Check(clientIP string, now time.Time) RateLimitResult {
	if !rl.Enabled() {
		return RateLimitResult{Allowed: true, ResetTime: now.Add(time.Minute)}
	}

	entry, _ := rl.limiters.LoadOrCompute(clientIP, func() (*ipLimiter, bool) {
		return &ipLimiter{
			limiter: rate.NewLimiter(rate.Limit(float64(rl.requestsPerMinute)/60.0), rl.burstSize),
		}, false
	})
	entry.lastAccess.Store(now.UnixNano())

	reservation := entry.limiter.ReserveN(now, 1)
	if !reservation.OK() {
		return RateLimitResult{
			Limit:      rl.requestsPerMinute,
			RetryAfter: 60,
			ResetTime:  now.Add(time.Minute),
		}
	}

	if delay := reservation.DelayFrom(now); delay > 0 {
		reservation.CancelAt(now)
		return RateLimitResult{
			Limit:      rl.requestsPerMinute,
			RetryAfter: int(delay.Seconds()) + 1,
			ResetTime:  now.Add(delay),
		}
	}

	remaining := int(entry.limiter.TokensAt(now))
	if remaining < 0 {
		remaining = 0
	}
	return RateLimitResult{
		Allowed:   true,
		Limit:     rl.requestsPerMinute,
		Remaining: remaining,
		ResetTime: now.Add(time.Minute),
	}
}

func (rl *RateLimiter) Middleware(next http.Handler) http.Handler {
	if !rl.Enabled() {
		return next
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		clientIP := util.GetClientIP(r, rl.trustProxyHeaders, rl.trustedCIDRs)
		result := rl.Check(clientIP, time.Now())

		// always sent, not just on rejection
		w.Header().Set("X-RateLimit-Limit", strconv.Itoa(result.Limit))
		w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(result.Remaining))
		w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(result.ResetTime.Unix(), 10))

		if !result.Allowed {
			w.Header().Set(constants.HeaderRetryAfter, strconv.Itoa(result.RetryAfter))

			rl.logger.Warn("Rate limit exceeded",
				"client_ip", clientIP,
				"method", r.Method,
				"path", r.URL.Path,
				"limit", result.Limit,
				"retry_after", result.RetryAfter)

			util.WriteDetail(w, http.StatusTooManyRequests, "Too many requests")
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (rl *RateLimiter) cleanupRoutine() {
	for {
		select {
		case <-rl.stopCleanup:
			return
		case <-rl.cleanupTicker.C:
			rl.cleanupIdle(time.Now())
		}
	}
}

func (rl *RateLimiter) cleanupIdle(now time.Time) {
	cutoff := now.Add(-limiterIdleTTL).UnixNano()
	rl.limiters.Range(func(ip string, entry *ipLimiter) bool {
		if entry.lastAccess.Load() < cutoff {
			rl.limiters.Delete(ip)
		}
		return true
	})
}

// TrackedClients is the number of IPs currently holding a limiter
func (rl *RateLimiter) TrackedClients() int {
	return rl.limiters.Size()
}

func (rl *RateLimiter) Stop() {
	rl.stopOnce.Do(func() {
		if rl.cleanupTicker != nil {
			rl.cleanupTicker.Stop()
		}
		close(rl.stopCleanup)
	})
}
