package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/docker/go-units"

	"github.com/thushan/lmsgate/internal/app"
	"github.com/thushan/lmsgate/internal/env"
	"github.com/thushan/lmsgate/internal/logger"
	"github.com/thushan/lmsgate/internal/version"
	"github.com/thushan/lmsgate/pkg/format"
	"github.com/thushan/lmsgate/pkg/nerdstats"
	"github.com/thushan/lmsgate/pkg/profiler"
)

func main() {
	startTime := time.Now()
	vlog := log.New(log.Writer(), "", 0)
	if len(os.Args) > 1 && os.Args[1] == "--version" {
		version.PrintVersionInfo(true, vlog)
		os.Exit(0)
	} else {
		version.PrintVersionInfo(false, vlog)
	}

	lcfg := buildLoggerConfig()
	logInstance, styledLogger, cleanup, err := logger.NewWithTheme(lcfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialise logger: %v\n", err)
		os.Exit(1)
	}
	defer cleanup()

	slog.SetDefault(logInstance)

	styledLogger.Info("Initialising", "version", version.Version, "pid", os.Getpid())

	if addr := env.GetEnvOrDefault("LMSGATE_PROFILER_ADDR", ""); addr != "" {
		pprofServer := profiler.Start(addr, styledLogger)
		defer pprofServer.Close()
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	application, err := app.New(startTime, styledLogger)
	if err != nil {
		logger.FatalWithLogger(logInstance, "Failed to create application", "error", err)
	}

	if err := application.Start(ctx); err != nil {
		logger.FatalWithLogger(logInstance, "Failed to start application", "error", err)
	}

	select {
	case <-ctx.Done():
		styledLogger.Info("Shutdown signal received")
	case err := <-application.Errors():
		styledLogger.Error("Server stopped unexpectedly", "error", err)
	}

	if err := application.Stop(context.Background()); err != nil {
		styledLogger.Error("Error during shutdown", "error", err)
	}

	reportProcessStats(styledLogger, startTime)
	styledLogger.Info("lmsgate has shutdown")
}

// buildLoggerConfig creates logger config from environment variables with defaults
func buildLoggerConfig() *logger.Config {
	return &logger.Config{
		Level:      env.GetEnvOrDefault("LMSGATE_LOG_LEVEL", "info"),
		FileOutput: env.GetEnvBoolOrDefault("LMSGATE_FILE_OUTPUT", true),
		LogDir:     env.GetEnvOrDefault("LMSGATE_LOG_DIR", "./logs"),
		MaxSize:    env.GetEnvIntOrDefault("LMSGATE_MAX_SIZE", 100),
		MaxBackups: env.GetEnvIntOrDefault("LMSGATE_MAX_BACKUPS", 5),
		MaxAge:     env.GetEnvIntOrDefault("LMSGATE_MAX_AGE", 30),
		Theme:      env.GetEnvOrDefault("LMSGATE_THEME", "default"),
	}
}

func reportProcessStats(log logger.StyledLogger, startTime time.Time) {
	stats := nerdstats.Snapshot(startTime)
	log.Info("Process stats",
		"uptime", format.Duration(stats.Uptime),
		"heap_alloc", units.HumanSize(float64(stats.HeapAlloc)),
		"total_alloc", units.HumanSize(float64(stats.TotalAlloc)),
		"num_gc", stats.NumGC,
		"goroutines", stats.NumGoroutines)
}
