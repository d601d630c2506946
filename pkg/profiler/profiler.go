package profiler

import (
	"errors"
	"net/http"
	"net/http/pprof"
	"time"

	"github.com/thushan/lmsgate/internal/logger"
)

// Start serves pprof on its own mux at address until the returned
// server is shut down. Intended for local diagnosis only.
func Start(address string, log logger.StyledLogger) *http.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("/debug/pprof/", pprof.Index)
	mux.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
	mux.HandleFunc("/debug/pprof/profile", pprof.Profile)
	mux.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
	mux.HandleFunc("/debug/pprof/trace", pprof.Trace)

	server := &http.Server{
		Addr:              address,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("Profiler stopped", "error", err)
		}
	}()

	log.Warn("Profiler enabled, do not expose this address", "bind", address)
	return server
}
