package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/docker/go-units"

	"github.com/thushan/lmsgate/internal/core/domain"
	"github.com/thushan/lmsgate/internal/core/ports"
	"github.com/thushan/lmsgate/internal/util"
	"github.com/thushan/lmsgate/pkg/format"
	"github.com/thushan/lmsgate/pkg/nerdstats"
)

type ProcessStatus struct {
	GoVersion     string `json:"go_version"`
	HeapAlloc     string `json:"heap_alloc"`
	HeapSys       string `json:"heap_sys"`
	Goroutines    string `json:"goroutines_status"`
	NumGoroutines int    `json:"goroutines"`
	NumGC         uint32 `json:"num_gc"`
}

type StatusResponse struct {
	Operations map[domain.Operation]ports.OperationStats `json:"operations"`
	Process    ProcessStatus                             `json:"process"`
	Upstream   string                                    `json:"upstream"`
	Error      string                                    `json:"error,omitempty"`
	Tier       string                                    `json:"tier,omitempty"`
	Uptime     string                                    `json:"uptime"`
	Models     int                                       `json:"models"`
	LatencyMs  int64                                     `json:"latency_ms"`
	Reachable  bool                                      `json:"reachable"`
}

// statusHandler probes LM Studio with a listing call. It always answers
// 200, the probe outcome is in the body. A daemon that answers with an
// error status is still reachable.
func (a *Application) statusHandler(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	models, err := a.client.ListModels(r.Context())

	resp := StatusResponse{
		Upstream:  a.client.BaseURL(),
		LatencyMs: time.Since(start).Milliseconds(),
		Uptime:    format.Duration(time.Since(a.StartTime)),
		Reachable: true,
	}
	resp.Process = processStatus(nerdstats.Snapshot(a.StartTime))
	if a.statsCollector != nil {
		resp.Operations = a.statsCollector.GetStats()
	}

	if err != nil {
		var unreachableErr *domain.UnreachableError
		resp.Reachable = !errors.As(err, &unreachableErr)
		resp.Error = err.Error()
		resp.Tier = domain.Tier(err)
	} else {
		resp.Models = len(models)
	}

	_ = util.WriteJSON(w, http.StatusOK, resp)
}

func processStatus(ns *nerdstats.NerdStats) ProcessStatus {
	return ProcessStatus{
		GoVersion:     ns.GoVersion,
		HeapAlloc:     units.HumanSize(float64(ns.HeapAlloc)),
		HeapSys:       units.HumanSize(float64(ns.HeapSys)),
		NumGoroutines: ns.NumGoroutines,
		Goroutines:    ns.GetGoroutineHealthStatus(),
		NumGC:         ns.NumGC,
	}
}
