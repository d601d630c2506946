package nerdstats

import (
	"runtime"
	"time"
)

/*
	NerdStats is a small snapshot of Go runtime statistics, reported on
	the status endpoint and when the process shuts down.

	See: https://pkg.go.dev/runtime#MemStats for more details on the fields.
*/

type NerdStats struct {
	GoVersion     string        `json:"go_version"`
	Uptime        time.Duration `json:"-"`
	HeapAlloc     uint64        `json:"heap_alloc"`
	HeapSys       uint64        `json:"heap_sys"`
	TotalAlloc    uint64        `json:"total_alloc"`
	NumGoroutines int           `json:"goroutines"`
	NumGC         uint32        `json:"num_gc"`
}

func Snapshot(startTime time.Time) *NerdStats {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	return &NerdStats{
		GoVersion:     runtime.Version(),
		Uptime:        time.Since(startTime),
		HeapAlloc:     m.HeapAlloc,
		HeapSys:       m.HeapSys,
		TotalAlloc:    m.TotalAlloc,
		NumGoroutines: runtime.NumGoroutine(),
		NumGC:         m.NumGC,
	}
}

// GetGoroutineHealthStatus flags goroutine growth, this service should
// hold roughly one goroutine per in-flight request
func (ns *NerdStats) GetGoroutineHealthStatus() string {
	switch {
	case ns.NumGoroutines > 10000:
		return "critical"
	case ns.NumGoroutines > 1000:
		return "elevated"
	default:
		return "healthy"
	}
}
