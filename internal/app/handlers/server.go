package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/docker/go-units"
)

func (a *Application) startWebServer() {
	configServer := a.Config.Server

	a.logger.Info("Starting lmsgate Server...", "host", configServer.Host, "port", configServer.Port,
		"read_timeout", configServer.ReadTimeout, "write_timeout", configServer.WriteTimeout)

	if configServer.WriteTimeout > 0 && configServer.WriteTimeout < a.Config.LMStudio.LoadTimeout {
		a.logger.Warn("Write timeout is shorter than the load timeout, slow model loads will be cut off. (default: 0s)",
			"write_timeout", configServer.WriteTimeout,
			"load_timeout", a.Config.LMStudio.LoadTimeout)
	}

	if configServer.RequestLimits.MaxBodySize > 0 {
		a.logger.Info("Request size limits enabled",
			"max_body_size", units.HumanSize(float64(configServer.RequestLimits.MaxBodySize)))
	}

	if a.rateLimiter.Enabled() {
		a.logger.Info("Rate limiting enabled",
			"per_ip_limit", configServer.RateLimits.PerIPRequestsPerMinute,
			"burst_size", configServer.RateLimits.BurstSize,
			"trust_proxy", configServer.RateLimits.TrustProxyHeaders)
	}

	if configServer.RateLimits.TrustProxyHeaders && len(configServer.RateLimits.TrustedProxyCIDRs) > 0 {
		cidrsStr := strings.Join(configServer.RateLimits.TrustedProxyCIDRs, ", ")
		a.logger.Info("Configured Trusted Proxy CIDRS", "cidrs", cidrsStr)
	}

	a.logger.InfoWithEndpoint("Forwarding to LM Studio", a.client.BaseURL(),
		"list_timeout", a.Config.LMStudio.ListTimeout,
		"load_timeout", a.Config.LMStudio.LoadTimeout,
		"max_response_size", units.HumanSize(float64(a.Config.LMStudio.MaxResponseSize)))

	a.server.Handler = a.Handler()

	go func() {
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.Error("HTTP server error", "error", err)
			a.errCh <- err
		}
	}()

	a.logger.Info("Started lmsgate Server", "bind", a.server.Addr)
}
