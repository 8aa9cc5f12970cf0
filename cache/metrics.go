package cache

import (
	"sync"
	"time"
)

// Metrics collects hit, miss, eviction and error statistics for a Store.
type Metrics struct {
	mu sync.RWMutex

	hits      int64
	misses    int64
	evictions int64
	errors    int64

	bytesServed     int64 // served from disk
	bytesDownloaded int64 // fetched from the delegate
	bytesEvicted    int64

	startTime        time.Time
	lastHitTime      time.Time
	lastMissTime     time.Time
	lastEvictionTime time.Time
	lastErrorTime    time.Time
}

// MetricsSnapshot is a point-in-time copy of Metrics.
type MetricsSnapshot struct {
	Hits            int64
	Misses          int64
	Evictions       int64
	Errors          int64
	BytesServed     int64
	BytesDownloaded int64
	BytesEvicted    int64
	HitRate         float64
	Uptime          time.Duration

	LastHitTime      time.Time
	LastMissTime     time.Time
	LastEvictionTime time.Time
	LastErrorTime    time.Time
}

// NewMetrics creates a new Metrics instance.
func NewMetrics() *Metrics {
	return &Metrics{startTime: time.Now()}
}

// RecordHit records a request served from disk.
func (m *Metrics) RecordHit(bytesServed int64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.hits++
	m.bytesServed += bytesServed
	m.lastHitTime = time.Now()
}

// RecordMiss records a request that had to be fetched from the delegate.
func (m *Metrics) RecordMiss(bytesDownloaded int64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.misses++
	m.bytesDownloaded += bytesDownloaded
	m.lastMissTime = time.Now()
}

// RecordEviction records the removal of a cached file.
func (m *Metrics) RecordEviction(bytesEvicted int64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.evictions++
	m.bytesEvicted += bytesEvicted
	m.lastEvictionTime = time.Now()
}

// RecordError records a local cache I/O failure.
func (m *Metrics) RecordError() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.errors++
	m.lastErrorTime = time.Now()
}

// HitRate returns hits / (hits + misses), or 0 if nothing was requested.
func (m *Metrics) HitRate() float64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.calculateHitRate()
}

// calculateHitRate assumes m.mu is held.
func (m *Metrics) calculateHitRate() float64 {
	total := m.hits + m.misses
	if total == 0 {
		return 0
	}
	return float64(m.hits) / float64(total)
}

// Snapshot returns a copy of the current counters.
func (m *Metrics) Snapshot() MetricsSnapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return MetricsSnapshot{
		Hits:             m.hits,
		Misses:           m.misses,
		Evictions:        m.evictions,
		Errors:           m.errors,
		BytesServed:      m.bytesServed,
		BytesDownloaded:  m.bytesDownloaded,
		BytesEvicted:     m.bytesEvicted,
		HitRate:          m.calculateHitRate(),
		Uptime:           time.Since(m.startTime),
		LastHitTime:      m.lastHitTime,
		LastMissTime:     m.lastMissTime,
		LastEvictionTime: m.lastEvictionTime,
		LastErrorTime:    m.lastErrorTime,
	}
}
