package config

import (
	"fmt"
	"net"
	"net/url"
	"strings"
	"time"

	"github.com/thushan/lmsgate/internal/core/domain"
	"github.com/thushan/lmsgate/internal/util"
)

// Config holds all configuration for the application
type Config struct {
	Filename string         `yaml:"-" mapstructure:"-"`
	Auth     AuthConfig     `yaml:"auth" mapstructure:"auth"`
	LMStudio LMStudioConfig `yaml:"lmstudio" mapstructure:"lmstudio"`
	Server   ServerConfig   `yaml:"server" mapstructure:"server"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host            string              `yaml:"host" mapstructure:"host"`
	RoutePrefix     string              `yaml:"route_prefix" mapstructure:"route_prefix"`
	RateLimits      ServerRateLimits    `yaml:"rate_limits" mapstructure:"rate_limits"`
	RequestLimits   ServerRequestLimits `yaml:"request_limits" mapstructure:"request_limits"`
	Port            int                 `yaml:"port" mapstructure:"port"`
	ReadTimeout     time.Duration       `yaml:"read_timeout" mapstructure:"read_timeout"`
	WriteTimeout    time.Duration       `yaml:"write_timeout" mapstructure:"write_timeout"`
	IdleTimeout     time.Duration       `yaml:"idle_timeout" mapstructure:"idle_timeout"`
	ShutdownTimeout time.Duration       `yaml:"shutdown_timeout" mapstructure:"shutdown_timeout"`
	RequestLogging  bool                `yaml:"request_logging" mapstructure:"request_logging"`
}

// GetAddress returns the server address in host:port format
func (s *ServerConfig) GetAddress() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// ServerRequestLimits defines request size limits
type ServerRequestLimits struct {
	MaxBodySize int64 `yaml:"max_body_size" mapstructure:"max_body_size"`
}

// ServerRateLimits defines per-client rate limiting, zero disables it
type ServerRateLimits struct {
	TrustedProxyCIDRs       []string      `yaml:"trusted_proxy_cidrs" mapstructure:"trusted_proxy_cidrs"`
	TrustedProxyCIDRsParsed []*net.IPNet  `yaml:"-" mapstructure:"-"` // parsed once by Validate
	PerIPRequestsPerMinute  int           `yaml:"per_ip_requests_per_minute" mapstructure:"per_ip_requests_per_minute"`
	BurstSize               int           `yaml:"burst_size" mapstructure:"burst_size"`
	CleanupInterval         time.Duration `yaml:"cleanup_interval" mapstructure:"cleanup_interval"`
	TrustProxyHeaders       bool          `yaml:"trust_proxy_headers" mapstructure:"trust_proxy_headers"`
}

// LMStudioConfig describes the upstream daemon and how we talk to it
type LMStudioConfig struct {
	BaseURL             string        `yaml:"base_url" mapstructure:"base_url"`
	ListTimeout         time.Duration `yaml:"list_timeout" mapstructure:"list_timeout"`
	InfoTimeout         time.Duration `yaml:"info_timeout" mapstructure:"info_timeout"`
	LoadTimeout         time.Duration `yaml:"load_timeout" mapstructure:"load_timeout"`
	IdleConnTimeout     time.Duration `yaml:"idle_conn_timeout" mapstructure:"idle_conn_timeout"`
	MaxIdleConns        int           `yaml:"max_idle_conns" mapstructure:"max_idle_conns"`
	MaxIdleConnsPerHost int           `yaml:"max_idle_conns_per_host" mapstructure:"max_idle_conns_per_host"`
	MaxResponseSize     int64         `yaml:"max_response_size" mapstructure:"max_response_size"`
}

// AuthConfig holds the API keys callers present as bearer tokens
type AuthConfig struct {
	Keys    []APIKeyConfig `yaml:"keys" mapstructure:"keys"`
	Enabled bool           `yaml:"enabled" mapstructure:"enabled"`
}

// APIKeyConfig binds a key to a named caller and a role (user or admin)
type APIKeyConfig struct {
	Name string `yaml:"name" mapstructure:"name"`
	Key  string `yaml:"key" mapstructure:"key"`
	Role string `yaml:"role" mapstructure:"role"`
}

// Validate checks the values we cannot run without and normalises the rest
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return domain.NewConfigValidationError("server.port", c.Server.Port, "must be between 1 and 65535")
	}

	prefix := strings.TrimRight(strings.TrimSpace(c.Server.RoutePrefix), "/")
	if prefix != "" && !strings.HasPrefix(prefix, "/") {
		prefix = "/" + prefix
	}
	c.Server.RoutePrefix = prefix

	base, err := url.Parse(strings.TrimSpace(c.LMStudio.BaseURL))
	if err != nil {
		return domain.NewConfigValidationError("lmstudio.base_url", c.LMStudio.BaseURL, err.Error())
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return domain.NewConfigValidationError("lmstudio.base_url", c.LMStudio.BaseURL, "scheme must be http or https")
	}
	if base.Host == "" {
		return domain.NewConfigValidationError("lmstudio.base_url", c.LMStudio.BaseURL, "host is required")
	}
	c.LMStudio.BaseURL = strings.TrimRight(base.String(), "/")

	timeouts := map[string]time.Duration{
		"lmstudio.list_timeout": c.LMStudio.ListTimeout,
		"lmstudio.info_timeout": c.LMStudio.InfoTimeout,
		"lmstudio.load_timeout": c.LMStudio.LoadTimeout,
	}
	for field, value := range timeouts {
		if value <= 0 {
			return domain.NewConfigValidationError(field, value, "must be positive")
		}
	}

	cidrs, err := util.ParseTrustedCIDRs(c.Server.RateLimits.TrustedProxyCIDRs)
	if err != nil {
		return domain.NewConfigValidationError("server.rate_limits.trusted_proxy_cidrs", c.Server.RateLimits.TrustedProxyCIDRs, err.Error())
	}
	c.Server.RateLimits.TrustedProxyCIDRsParsed = cidrs

	for i, key := range c.Auth.Keys {
		field := fmt.Sprintf("auth.keys[%d]", i)
		if strings.TrimSpace(key.Key) == "" {
			return domain.NewConfigValidationError(field+".key", "", "must not be empty")
		}
		if _, ok := domain.ParseRole(key.Role); !ok {
			return domain.NewConfigValidationError(field+".role", key.Role, "must be user or admin")
		}
	}

	return nil
}
