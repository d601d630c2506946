package stats

import (
	"errors"

	"github.com/puzpuzpuz/xsync/v4"

	"github.com/thushan/lmsgate/internal/core/domain"
	"github.com/thushan/lmsgate/internal/core/ports"
)

// OperationCollector tracks outcomes of the forwarded LM Studio calls
type OperationCollector struct {
	operations *xsync.Map[domain.Operation, *operationData]
}

type operationData struct {
	totalRequests      *xsync.Counter
	successfulRequests *xsync.Counter
	rejectedRequests   *xsync.Counter
	unreachableErrors  *xsync.Counter
	internalErrors     *xsync.Counter

	// only successful calls count towards latency
	totalLatency *xsync.Counter
	latencies    *latencySampler
}

func NewOperationCollector() *OperationCollector {
	return &OperationCollector{
		operations: xsync.NewMap[domain.Operation, *operationData](),
	}
}

func (oc *OperationCollector) Record(event ports.OperationEvent) {
	data := oc.getOrInit(event.Operation)

	data.totalRequests.Inc()
	if event.Err == nil {
		data.successfulRequests.Inc()
		data.totalLatency.Add(event.Latency.Milliseconds())
		data.latencies.Add(event.Latency.Milliseconds())
		return
	}

	var upstreamErr *domain.UpstreamError
	var unreachableErr *domain.UnreachableError
	switch {
	case errors.As(event.Err, &upstreamErr):
		data.rejectedRequests.Inc()
	case errors.As(event.Err, &unreachableErr):
		data.unreachableErrors.Inc()
	default:
		data.internalErrors.Inc()
	}
}

func (oc *OperationCollector) GetStats() map[domain.Operation]ports.OperationStats {
	result := make(map[domain.Operation]ports.OperationStats)

	oc.operations.Range(func(op domain.Operation, data *operationData) bool {
		successful := data.successfulRequests.Value()

		var avgLatency int64
		if successful > 0 {
			avgLatency = data.totalLatency.Value() / successful
		}

		p50, p95, p99 := data.latencies.Percentiles()
		result[op] = ports.OperationStats{
			Operation:          op,
			TotalRequests:      data.totalRequests.Value(),
			SuccessfulRequests: successful,
			RejectedRequests:   data.rejectedRequests.Value(),
			UnreachableErrors:  data.unreachableErrors.Value(),
			InternalErrors:     data.internalErrors.Value(),
			AverageLatency:     avgLatency,
			P50Latency:         p50,
			P95Latency:         p95,
			P99Latency:         p99,
		}
		return true
	})

	return result
}

func (oc *OperationCollector) getOrInit(op domain.Operation) *operationData {
	data, _ := oc.operations.LoadOrCompute(op, func() (*operationData, bool) {
		return &operationData{
			totalRequests:      xsync.NewCounter(),
			successfulRequests: xsync.NewCounter(),
			rejectedRequests:   xsync.NewCounter(),
			unreachableErrors:  xsync.NewCounter(),
			internalErrors:     xsync.NewCounter(),
			totalLatency:       xsync.NewCounter(),
			latencies:          newLatencySampler(defaultLatencySamples),
		}, false
	})
	return data
}
