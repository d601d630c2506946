package stats

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLatencySampler_Empty(t *testing.T) {
	p50, p95, p99 := newLatencySampler(10).Percentiles()
	assert.Zero(t, p50)
	assert.Zero(t, p95)
	assert.Zero(t, p99)
}

func TestLatencySampler_Percentiles(t *testing.T) {
	ls := newLatencySampler(100)
	for i := int64(100); i >= 1; i-- {
		ls.Add(i)
	}

	p50, p95, p99 := ls.Percentiles()
	assert.Equal(t, int64(51), p50)
	assert.Equal(t, int64(96), p95)
	assert.Equal(t, int64(100), p99)
}

func TestLatencySampler_BoundedMemory(t *testing.T) {
	ls := newLatencySampler(20)
	for i := int64(0); i < 5000; i++ {
		ls.Add(i)
	}

	assert.Len(t, ls.samples, 20)
	assert.Equal(t, int64(5000), ls.seen)

	_, _, p99 := ls.Percentiles()
	assert.Less(t, p99, int64(5000))
}

func TestLatencySampler_DefaultSize(t *testing.T) {
	assert.Equal(t, defaultLatencySamples, newLatencySampler(0).size)
}
