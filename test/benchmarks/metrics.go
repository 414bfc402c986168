package benchmarks

import (
	"math"
	"slices"
	"time"
)

// Metrics acumula durações por operação para relatar percentis junto do
// ns/op médio do harness de benchmark.
type Metrics struct {
	durations []time.Duration
}

func NewMetrics() *Metrics {
	return &Metrics{}
}

func (m *Metrics) Record(d time.Duration) {
	m.durations = append(m.durations, d)
}

func (m *Metrics) P50() time.Duration { return m.percentile(0.50) }
func (m *Metrics) P99() time.Duration { return m.percentile(0.99) }

func (m *Metrics) Max() time.Duration {
	if len(m.durations) == 0 {
		return 0
	}
	return slices.Max(m.durations)
}

// percentile calcula por nearest-rank sobre uma cópia ordenada.
func (m *Metrics) percentile(p float64) time.Duration {
	n := len(m.durations)
	if n == 0 {
		return 0
	}
	sorted := slices.Sorted(slices.Values(m.durations))
	rank := int(math.Ceil(p*float64(n))) - 1
	return sorted[max(rank, 0)]
}
