package stats

import (
	"math/rand/v2"
	"slices"
	"sync"
)

const defaultLatencySamples = 200

// latencySampler keeps a fixed size reservoir of latencies so percentiles
// stay cheap however long the process runs
type latencySampler struct {
	samples []int64
	size    int
	seen    int64
	mu      sync.Mutex
}

func newLatencySampler(size int) *latencySampler {
	if size <= 0 {
		size = defaultLatencySamples
	}
	return &latencySampler{
		size:    size,
		samples: make([]int64, 0, size),
	}
}

func (ls *latencySampler) Add(value int64) {
	ls.mu.Lock()
	defer ls.mu.Unlock()

	ls.seen++
	if len(ls.samples) < ls.size {
		ls.samples = append(ls.samples, value)
		return
	}

	// every value so far has an equal chance of being in the reservoir
	j := rand.Int64N(ls.seen) //nolint:gosec // sampling, not security
	if j < int64(ls.size) {
		ls.samples[j] = value
	}
}

// Percentiles returns p50, p95 and p99 of the sampled values
func (ls *latencySampler) Percentiles() (p50, p95, p99 int64) {
	ls.mu.Lock()
	sorted := slices.Clone(ls.samples)
	ls.mu.Unlock()

	if len(sorted) == 0 {
		return 0, 0, 0
	}
	slices.Sort(sorted)

	at := func(pct int) int64 {
		idx := len(sorted) * pct / 100
		if idx >= len(sorted) {
			idx = len(sorted) - 1
		}
		return sorted[idx]
	}
	return at(50), at(95), at(99)
}
