package app

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/thushan/lmsgate/internal/adapter/auth"
	"github.com/thushan/lmsgate/internal/adapter/lmstudio"
	"github.com/thushan/lmsgate/internal/adapter/stats"
	"github.com/thushan/lmsgate/internal/app/handlers"
	"github.com/thushan/lmsgate/internal/config"
	"github.com/thushan/lmsgate/internal/logger"
	"github.com/thushan/lmsgate/internal/util"
	"github.com/thushan/lmsgate/pkg/container"
)

// Application owns the process lifetime: configuration, the shared LM
// Studio client and the web server
type Application struct {
	logger        logger.StyledLogger
	client        *lmstudio.Client
	authenticator *auth.KeyAuthenticator
	web           *handlers.Application
	config        atomic.Pointer[config.Config]
	ready         atomic.Bool
	StartTime     time.Time
}

// New loads configuration and builds every component. When a config file
// is in use it is watched; reloads update the upstream address, timeouts
// and API keys in place.
func New(startTime time.Time, logger logger.StyledLogger) (*Application, error) {
	app := &Application{
		logger:    logger,
		StartTime: startTime,
	}

	cfg, err := config.Load(app.reloadConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	app.config.Store(cfg)

	if cfg.Filename != "" {
		logger.Info("Loaded configuration", "file", cfg.Filename)
	} else {
		logger.Info("No configuration file found, using defaults and environment")
	}

	collector := stats.NewOperationCollector()
	app.client = lmstudio.NewClient(cfg.LMStudio, collector, logger)
	app.authenticator = auth.NewKeyAuthenticator(cfg.Auth)
	app.web = handlers.NewApplication(cfg, app.client, app.authenticator, collector, logger)

	app.reportAuth()
	app.warnLoopbackInContainer(cfg.LMStudio.BaseURL)
	app.ready.Store(true)

	return app, nil
}

// Start brings up the web server. Listener failures surface on Errors.
func (a *Application) Start(ctx context.Context) error {
	a.web.StartTime = a.StartTime
	a.web.Start()

	a.logger.Info("lmsgate started", "bind", a.web.GetServer().Addr)
	return nil
}

// Errors reports fatal server errors after Start
func (a *Application) Errors() <-chan error {
	return a.web.Errors()
}

// Stop shuts the server down and releases pooled upstream connections
func (a *Application) Stop(ctx context.Context) error {
	defer a.client.Close()

	if err := a.web.Stop(ctx); err != nil {
		return err
	}
	return nil
}

// Config returns the active configuration snapshot
func (a *Application) Config() *config.Config {
	return a.config.Load()
}

// reloadConfig is invoked by the config watcher. Invalid files are logged
// and the running configuration is kept.
func (a *Application) reloadConfig(cfg *config.Config, err error) {
	if !a.ready.Load() {
		return
	}
	if err != nil {
		a.logger.Error("Failed to reload configuration, keeping previous", "error", err)
		return
	}

	previous := a.config.Swap(cfg)

	a.client.UpdateConfig(cfg.LMStudio)
	a.warnLoopbackInContainer(cfg.LMStudio.BaseURL)
	a.authenticator.Update(cfg.Auth)

	if previous != nil && serverSettingsChanged(previous.Server, cfg.Server) {
		a.logger.Warn("Server settings changed, restart lmsgate to apply them",
			"host", cfg.Server.Host,
			"port", cfg.Server.Port,
			"route_prefix", cfg.Server.RoutePrefix)
	}

	a.logger.Info("Configuration reloaded", "file", cfg.Filename)
	a.reportAuth()
}

func (a *Application) reportAuth() {
	if !a.authenticator.Enabled() {
		a.logger.Warn("Authentication disabled, every caller is treated as an administrator")
		return
	}
	if a.authenticator.KeyCount() == 0 {
		a.logger.Warn("Authentication enabled but no API keys configured, LM Studio routes will reject every request")
		return
	}
	a.logger.InfoWithCount("API keys configured", a.authenticator.KeyCount())
}

// warnLoopbackInContainer flags the common container mistake, localhost
// there is the container itself rather than the machine running LM Studio
func (a *Application) warnLoopbackInContainer(baseURL string) {
	if !util.IsLoopbackURL(baseURL) || !container.IsContainerised() {
		return
	}
	a.logger.Warn("Running in a container with a loopback LM Studio address, use host.docker.internal or the host IP",
		"base_url", baseURL)
}

// serverSettingsChanged reports changes that only take effect on restart
func serverSettingsChanged(prev, next config.ServerConfig) bool {
	return prev.Host != next.Host ||
		prev.Port != next.Port ||
		prev.RoutePrefix != next.RoutePrefix ||
		prev.RequestLimits != next.RequestLimits ||
		prev.RateLimits.PerIPRequestsPerMinute != next.RateLimits.PerIPRequestsPerMinute ||
		prev.RateLimits.BurstSize != next.RateLimits.BurstSize
}
