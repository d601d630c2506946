package ports

import (
	"time"

	"github.com/thushan/lmsgate/internal/core/domain"
)

// OperationEvent is recorded once per forwarded call
type OperationEvent struct {
	Err       error
	Operation domain.Operation
	Latency   time.Duration
}

// OperationStats summarises one operation since startup
type OperationStats struct {
	Operation          domain.Operation `json:"operation"`
	TotalRequests      int64            `json:"total_requests"`
	SuccessfulRequests int64            `json:"successful_requests"`
	RejectedRequests   int64            `json:"rejected_requests"`
	UnreachableErrors  int64            `json:"unreachable_errors"`
	InternalErrors     int64            `json:"internal_errors"`
	AverageLatency     int64            `json:"avg_latency_ms"`
	P50Latency         int64            `json:"p50_latency_ms"`
	P95Latency         int64            `json:"p95_latency_ms"`
	P99Latency         int64            `json:"p99_latency_ms"`
}

type StatsCollector interface {
	Record(event OperationEvent)
	GetStats() map[domain.Operation]OperationStats
}
