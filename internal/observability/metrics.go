package observability

import (
	"fmt"
	"sync"
	"time"
)

type routeStats struct {
	count   int64
	latency time.Duration
}

// Metrics keeps per-route request and error counters in memory.
type Metrics struct {
	mu       sync.Mutex
	requests map[string]*routeStats
	errors   map[string]int64
}

// NewMetrics initializes metrics storage.
func NewMetrics() *Metrics {
	return &Metrics{
		requests: make(map[string]*routeStats),
		errors:   make(map[string]int64),
	}
}

// RecordRequest counts a finished request under "METHOD path status".
func (m *Metrics) RecordRequest(path, method string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	key := fmt.Sprintf("%s %s %d", method, path, status)

	m.mu.Lock()
	defer m.mu.Unlock()
	stats, ok := m.requests[key]
	if !ok {
		stats = &routeStats{}
		m.requests[key] = stats
	}
	stats.count++
	stats.latency += duration
}

// RecordError counts a rendered error under "METHOD path CODE".
func (m *Metrics) RecordError(path, method, code string) {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errors[method+" "+path+" "+code]++
}

// MeanLatency returns the average latency recorded for a request key.
func (m *Metrics) MeanLatency(key string) time.Duration {
	if m == nil {
		return 0
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	stats, ok := m.requests[key]
	if !ok || stats.count == 0 {
		return 0
	}
	return stats.latency / time.Duration(stats.count)
}

// Snapshot copies the request and error counters.
func (m *Metrics) Snapshot() (requests, errors map[string]int64) {
	requests = make(map[string]int64)
	errors = make(map[string]int64)
	if m == nil {
		return requests, errors
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for k, s := range m.requests {
		requests[k] = s.count
	}
	for k, v := range m.errors {
		errors[k] = v
	}
	return requests, errors
}
