package qhash

import (
	"sort"
	"sync"
	"time"

	"gonum.org/v1/gonum/stat"
)

type Metrics struct {
	mu          sync.RWMutex
	HashCount   int64
	ErrorCount  int64
	TotalTime   time.Duration
	LastHash    time.Time
	SuccessRate float64

	AverageLatency time.Duration
	P95Latency     time.Duration
	P99Latency     time.Duration

	// sliding window of the most recent latencies, in seconds
	latencyWindow []float64
	windowSize    int
}

func NewMetrics() *Metrics {
	return &Metrics{
		latencyWindow: make([]float64, 0, 1000),
		windowSize:    1000,
	}
}

func (m *Metrics) recordHash(startTime time.Time, success bool) {
	duration := time.Since(startTime)

	m.mu.Lock()
	defer m.mu.Unlock()

	m.HashCount++
	m.TotalTime += duration
	m.LastHash = time.Now()

	if !success {
		m.ErrorCount++
	}
	m.SuccessRate = float64(m.HashCount-m.ErrorCount) / float64(m.HashCount)

	m.updateLatencyPercentiles(duration)
}

func (m *Metrics) updateLatencyPercentiles(duration time.Duration) {
	m.latencyWindow = append(m.latencyWindow, duration.Seconds())
	if len(m.latencyWindow) > m.windowSize {
		m.latencyWindow = m.latencyWindow[1:]
	}

	sorted := make([]float64, len(m.latencyWindow))
	copy(sorted, m.latencyWindow)
	sort.Float64s(sorted)

	m.AverageLatency = seconds(stat.Mean(sorted, nil))
	m.P95Latency = seconds(stat.Quantile(0.95, stat.Empirical, sorted, nil))
	m.P99Latency = seconds(stat.Quantile(0.99, stat.Empirical, sorted, nil))
}

func (m *Metrics) ExportMetrics() map[string]interface{} {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return map[string]interface{}{
		"hash_count":   m.HashCount,
		"error_count":  m.ErrorCount,
		"success_rate": m.SuccessRate,
		"avg_latency":  m.AverageLatency.Microseconds(),
		"p95_latency":  m.P95Latency.Microseconds(),
		"p99_latency":  m.P99Latency.Microseconds(),
	}
}

func seconds(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}
