package handlers

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/thushan/lmsgate/internal/adapter/security"
	"github.com/thushan/lmsgate/internal/app/middleware"
	"github.com/thushan/lmsgate/internal/config"
	"github.com/thushan/lmsgate/internal/core/ports"
	"github.com/thushan/lmsgate/internal/logger"
	"github.com/thushan/lmsgate/internal/router"
)

// Application holds all the dependencies needed for the HTTP handlers
type Application struct {
	Config         *config.Config
	logger         logger.StyledLogger
	client         ports.LMStudioClient
	authenticator  ports.Authenticator
	statsCollector ports.StatsCollector
	rateLimiter    *security.RateLimiter
	sizeLimiter    *security.SizeLimiter
	routeRegistry  *router.RouteRegistry
	server         *http.Server
	errCh          chan error
	StartTime      time.Time
}

// NewApplication wires the handlers to the LM Studio client. Server level
// settings (address, prefix, limits) are fixed for the process lifetime.
func NewApplication(
	cfg *config.Config,
	client ports.LMStudioClient,
	authenticator ports.Authenticator,
	statsCollector ports.StatsCollector,
	logger logger.StyledLogger,
) *Application {
	server := &http.Server{
		Addr:              cfg.Server.GetAddress(),
		ReadTimeout:       cfg.Server.ReadTimeout,
		ReadHeaderTimeout: cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       cfg.Server.IdleTimeout,
	}

	return &Application{
		Config:         cfg,
		logger:         logger,
		client:         client,
		authenticator:  authenticator,
		statsCollector: statsCollector,
		rateLimiter:    security.NewRateLimiter(cfg.Server.RateLimits, logger),
		sizeLimiter:    security.NewSizeLimiter(cfg.Server.RequestLimits, logger),
		routeRegistry:  router.NewRouteRegistry(logger),
		server:         server,
		errCh:          make(chan error, 1),
		StartTime:      time.Now(),
	}
}

// GetRouteRegistry returns the route registry for wiring up routes
func (a *Application) GetRouteRegistry() *router.RouteRegistry {
	return a.routeRegistry
}

// GetServer returns the HTTP server instance
func (a *Application) GetServer() *http.Server {
	return a.server
}

// Errors reports listener failures after Start has returned
func (a *Application) Errors() <-chan error {
	return a.errCh
}

// Handler builds the complete routing tree including middleware
func (a *Application) Handler() http.Handler {
	mux := http.NewServeMux()

	a.registerRoutes()
	a.routeRegistry.WireUp(mux, a.routeChain)

	var handler http.Handler = mux
	if a.Config.Server.RequestLogging {
		handler = middleware.AccessLoggingMiddleware(a.logger)(handler)
	}
	return middleware.EnhancedLoggingMiddleware(a.logger)(handler)
}

// routeChain returns the middleware for one route. Public routes are left
// alone, LM Studio routes are rate limited, authorised, then size limited
// so anonymous callers learn nothing about body limits.
func (a *Application) routeChain(info router.RouteInfo) func(http.Handler) http.Handler {
	if info.IsPublic() {
		return func(next http.Handler) http.Handler { return next }
	}

	requireRole := middleware.RequireRole(a.authenticator, info.Access)
	return func(next http.Handler) http.Handler {
		return a.rateLimiter.Middleware(requireRole(a.sizeLimiter.Middleware(next)))
	}
}

func (a *Application) Start() {
	a.startWebServer()
}

func (a *Application) Stop(ctx context.Context) error {
	defer a.rateLimiter.Stop()

	shutdownCtx, cancel := context.WithTimeout(ctx, a.Config.Server.ShutdownTimeout)
	defer cancel()

	if err := a.server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("HTTP server shutdown error: %w", err)
	}
	return nil
}
