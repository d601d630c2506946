package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/thushan/lmsgate/internal/core/constants"
)

const (
	DefaultPort = 19842
	DefaultHost = "localhost"

	DefaultListTimeout     = 10 * time.Second
	DefaultLoadTimeout     = 30 * time.Second
	DefaultMaxResponseSize = 10 * 1024 * 1024

	EnvPrefix     = "LMSGATE"
	EnvConfigFile = "LMSGATE_CONFIG_FILE"
	DotEnvFile    = ".env"
)

// DefaultConfig returns a configuration with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            DefaultHost,
			Port:            DefaultPort,
			RoutePrefix:     constants.DefaultRoutePrefix,
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    0, // load calls can run longer than any sane write timeout
			IdleTimeout:     120 * time.Second,
			ShutdownTimeout: 10 * time.Second,
			RequestLogging:  true,
			RequestLimits: ServerRequestLimits{
				MaxBodySize: 64 * 1024,
			},
			RateLimits: ServerRateLimits{
				PerIPRequestsPerMinute: 0,
				BurstSize:              10,
				CleanupInterval:        5 * time.Minute,
				TrustedProxyCIDRs:      []string{"127.0.0.0/8", "::1/128"},
			},
		},
		LMStudio: LMStudioConfig{
			BaseURL:             constants.DefaultLMStudioURL,
			ListTimeout:         DefaultListTimeout,
			InfoTimeout:         DefaultListTimeout,
			LoadTimeout:         DefaultLoadTimeout,
			IdleConnTimeout:     60 * time.Second,
			MaxIdleConns:        10,
			MaxIdleConnsPerHost: 5,
			MaxResponseSize:     DefaultMaxResponseSize,
		},
		Auth: AuthConfig{
			Enabled: true,
		},
	}
}

// setDefaults registers every key with viper, AutomaticEnv only resolves
// keys viper already knows about so env overrides need these in place.
func setDefaults(v *viper.Viper, cfg *Config) {
	v.SetDefault("server.host", cfg.Server.Host)
	v.SetDefault("server.port", cfg.Server.Port)
	v.SetDefault("server.route_prefix", cfg.Server.RoutePrefix)
	v.SetDefault("server.read_timeout", cfg.Server.ReadTimeout)
	v.SetDefault("server.write_timeout", cfg.Server.WriteTimeout)
	v.SetDefault("server.idle_timeout", cfg.Server.IdleTimeout)
	v.SetDefault("server.shutdown_timeout", cfg.Server.ShutdownTimeout)
	v.SetDefault("server.request_logging", cfg.Server.RequestLogging)
	v.SetDefault("server.request_limits.max_body_size", cfg.Server.RequestLimits.MaxBodySize)
	v.SetDefault("server.rate_limits.per_ip_requests_per_minute", cfg.Server.RateLimits.PerIPRequestsPerMinute)
	v.SetDefault("server.rate_limits.burst_size", cfg.Server.RateLimits.BurstSize)
	v.SetDefault("server.rate_limits.cleanup_interval", cfg.Server.RateLimits.CleanupInterval)
	v.SetDefault("server.rate_limits.trust_proxy_headers", cfg.Server.RateLimits.TrustProxyHeaders)
	v.SetDefault("server.rate_limits.trusted_proxy_cidrs", cfg.Server.RateLimits.TrustedProxyCIDRs)

	v.SetDefault("lmstudio.base_url", cfg.LMStudio.BaseURL)
	v.SetDefault("lmstudio.list_timeout", cfg.LMStudio.ListTimeout)
	v.SetDefault("lmstudio.info_timeout", cfg.LMStudio.InfoTimeout)
	v.SetDefault("lmstudio.load_timeout", cfg.LMStudio.LoadTimeout)
	v.SetDefault("lmstudio.idle_conn_timeout", cfg.LMStudio.IdleConnTimeout)
	v.SetDefault("lmstudio.max_idle_conns", cfg.LMStudio.MaxIdleConns)
	v.SetDefault("lmstudio.max_idle_conns_per_host", cfg.LMStudio.MaxIdleConnsPerHost)
	v.SetDefault("lmstudio.max_response_size", cfg.LMStudio.MaxResponseSize)

	v.SetDefault("auth.enabled", cfg.Auth.Enabled)
}

// Load reads configuration from an optional .env file, the config file and
// LMSGATE_* environment variables. When a config file is in use and onChange
// is set, the file is watched and onChange receives every reload. A reload
// that fails validation is reported with a nil config.
func Load(onChange func(*Config, error)) (*Config, error) {
	// local development convenience, missing file is fine
	_ = godotenv.Load(DotEnvFile)

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v, DefaultConfig())

	if configFile := os.Getenv(EnvConfigFile); configFile != "" {
		v.SetConfigFile(configFile)
	}

	usingFile := true
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		usingFile = false
	}

	cfg, err := decode(v)
	if err != nil {
		return nil, err
	}

	if usingFile && onChange != nil {
		v.OnConfigChange(func(e fsnotify.Event) {
			if !e.Has(fsnotify.Write) && !e.Has(fsnotify.Create) {
				return
			}
			onChange(decode(v))
		})
		v.WatchConfig()
	}

	return cfg, nil
}

func decode(v *viper.Viper) (*Config, error) {
	cfg := DefaultConfig()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}
	cfg.Filename = v.ConfigFileUsed()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
