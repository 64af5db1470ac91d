package monitor

import (
	"runtime"
	"sort"
	"sync"
	"sync/atomic"
	"time"
)

// SystemMetrics tracks overall service performance.
type SystemMetrics struct {
	mu sync.RWMutex

	// Latency histograms
	APILatency     *LatencyHistogram
	EnforceLatency *LatencyHistogram
	DBLatency      *LatencyHistogram

	// Counters
	apiRequests    uint64
	apiErrors      uint64
	enforceChecks  uint64
	enforceBlocks  uint64
	enforceResizes uint64

	// Active per-user engines (updated periodically from main).
	activeAccounts int

	lastUpdate time.Time
}

// LatencyHistogram tracks latency samples with a sliding window. Stats are
// computed lazily and cached until the next sample arrives.
type LatencyHistogram struct {
	mu          sync.Mutex
	samples     []float64
	maxSize     int
	dirty       bool
	cachedStats LatencyStats
}

// NewSystemMetrics creates a new metrics instance.
func NewSystemMetrics() *SystemMetrics {
	return &SystemMetrics{
		APILatency:     NewLatencyHistogram(1000),
		EnforceLatency: NewLatencyHistogram(1000),
		DBLatency:      NewLatencyHistogram(1000),
		lastUpdate:     time.Now(),
	}
}

// NewLatencyHistogram creates a sliding window histogram.
func NewLatencyHistogram(size int) *LatencyHistogram {
	if size <= 0 {
		size = 1000
	}
	return &LatencyHistogram{
		samples: make([]float64, 0, size),
		maxSize: size,
		dirty:   true,
	}
}

// Record adds a latency sample in milliseconds.
func (h *LatencyHistogram) Record(latencyMs float64) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if len(h.samples) >= h.maxSize {
		// Shift window: remove oldest
		h.samples = h.samples[1:]
	}
	h.samples = append(h.samples, latencyMs)
	h.dirty = true
}

// RecordDuration converts duration to ms and records.
func (h *LatencyHistogram) RecordDuration(d time.Duration) {
	h.Record(float64(d.Nanoseconds()) / 1e6)
}

// Stats returns min, max, avg, p50, p95, p99.
func (h *LatencyHistogram) Stats() LatencyStats {
	h.mu.Lock()
	defer h.mu.Unlock()

	if !h.dirty && h.cachedStats.Count > 0 {
		return h.cachedStats
	}

	n := len(h.samples)
	if n == 0 {
		return LatencyStats{}
	}

	sorted := make([]float64, n)
	copy(sorted, h.samples)
	sort.Float64s(sorted)

	var sum float64
	min, max := sorted[0], sorted[n-1]
	for _, v := range sorted {
		sum += v
	}

	h.cachedStats = LatencyStats{
		Min:   min,
		Max:   max,
		Avg:   sum / float64(n),
		P50:   sorted[n/2],
		P95:   sorted[int(float64(n)*0.95)],
		P99:   sorted[int(float64(n)*0.99)],
		Count: n,
	}
	h.dirty = false

	return h.cachedStats
}

// LatencyStats holds computed latency statistics.
type LatencyStats struct {
	Min   float64 `json:"min"`
	Max   float64 `json:"max"`
	Avg   float64 `json:"avg"`
	P50   float64 `json:"p50"`
	P95   float64 `json:"p95"`
	P99   float64 `json:"p99"`
	Count int     `json:"count"`
}

// IncrementAPI increments the API request counter.
func (m *SystemMetrics) IncrementAPI() {
	atomic.AddUint64(&m.apiRequests, 1)
}

// IncrementAPIErrors increments the API error counter.
func (m *SystemMetrics) IncrementAPIErrors() {
	atomic.AddUint64(&m.apiErrors, 1)
}

// IncrementEnforceChecks counts admission gate evaluations.
func (m *SystemMetrics) IncrementEnforceChecks() {
	atomic.AddUint64(&m.enforceChecks, 1)
}

// IncrementEnforceBlocks counts blocked trades.
func (m *SystemMetrics) IncrementEnforceBlocks() {
	atomic.AddUint64(&m.enforceBlocks, 1)
}

// IncrementEnforceResizes counts trades trimmed to the risk budget.
func (m *SystemMetrics) IncrementEnforceResizes() {
	atomic.AddUint64(&m.enforceResizes, 1)
}

// SetActiveAccounts updates the active per-user engine count.
func (m *SystemMetrics) SetActiveAccounts(n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.activeAccounts = n
}

// MetricsSnapshot is a point-in-time view of system metrics.
type MetricsSnapshot struct {
	APILatency     LatencyStats `json:"api_latency"`
	EnforceLatency LatencyStats `json:"enforce_latency"`
	DBLatency      LatencyStats `json:"db_latency"`
	APIRequests    uint64       `json:"api_requests"`
	APIErrors      uint64       `json:"api_errors"`
	EnforceChecks  uint64       `json:"enforce_checks"`
	EnforceBlocks  uint64       `json:"enforce_blocks"`
	EnforceResizes uint64       `json:"enforce_resizes"`
	ActiveAccounts int          `json:"active_accounts"`
	GoroutineCount int          `json:"goroutine_count"`
	HeapAlloc      uint64       `json:"heap_alloc_bytes"`
	Timestamp      time.Time    `json:"timestamp"`
}

// GetSnapshot returns a point-in-time metrics snapshot.
func (m *SystemMetrics) GetSnapshot() MetricsSnapshot {
	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	m.mu.RLock()
	active := m.activeAccounts
	m.mu.RUnlock()

	return MetricsSnapshot{
		APILatency:     m.APILatency.Stats(),
		EnforceLatency: m.EnforceLatency.Stats(),
		DBLatency:      m.DBLatency.Stats(),
		APIRequests:    atomic.LoadUint64(&m.apiRequests),
		APIErrors:      atomic.LoadUint64(&m.apiErrors),
		EnforceChecks:  atomic.LoadUint64(&m.enforceChecks),
		EnforceBlocks:  atomic.LoadUint64(&m.enforceBlocks),
		EnforceResizes: atomic.LoadUint64(&m.enforceResizes),
		ActiveAccounts: active,
		GoroutineCount: runtime.NumGoroutine(),
		HeapAlloc:      memStats.HeapAlloc,
		Timestamp:      time.Now(),
	}
}

// Timer helps measure operation duration.
type Timer struct {
	start     time.Time
	histogram *LatencyHistogram
}

// NewTimer creates a timer that records to the given histogram.
func NewTimer(h *LatencyHistogram) *Timer {
	return &Timer{
		start:     time.Now(),
		histogram: h,
	}
}

// Stop records elapsed time to histogram.
func (t *Timer) Stop() time.Duration {
	elapsed := time.Since(t.start)
	if t.histogram != nil {
		t.histogram.RecordDuration(elapsed)
	}
	return elapsed
}
