package cache

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMetrics_Record(t *testing.T) {
	m := NewMetrics()

	m.RecordHit(10)
	m.RecordHit(5)
	m.RecordMiss(20)
	m.RecordEviction(7)
	m.RecordError()

	snap := m.Snapshot()
	assert.Equal(t, int64(2), snap.Hits)
	assert.Equal(t, int64(1), snap.Misses)
	assert.Equal(t, int64(1), snap.Evictions)
	assert.Equal(t, int64(1), snap.Errors)
	assert.Equal(t, int64(15), snap.BytesServed)
	assert.Equal(t, int64(20), snap.BytesDownloaded)
	assert.Equal(t, int64(7), snap.BytesEvicted)
	assert.InDelta(t, 2.0/3.0, snap.HitRate, 1e-9)
	assert.False(t, snap.LastHitTime.IsZero())
	assert.False(t, snap.LastErrorTime.IsZero())
}

func TestMetrics_HitRate(t *testing.T) {
	tests := []struct {
		name     string
		hits     int
		misses   int
		expected float64
	}{
		{name: "no requests", expected: 0},
		{name: "all hits", hits: 3, expected: 1},
		{name: "all misses", misses: 3, expected: 0},
		{name: "half", hits: 2, misses: 2, expected: 0.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewMetrics()
			for range tt.hits {
				m.RecordHit(1)
			}
			for range tt.misses {
				m.RecordMiss(1)
			}
			assert.InDelta(t, tt.expected, m.HitRate(), 1e-9)
		})
	}
}

func TestMetrics_Concurrent(t *testing.T) {
	m := NewMetrics()

	var wg sync.WaitGroup
	for range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			m.RecordHit(1)
			m.RecordMiss(1)
		}()
	}
	wg.Wait()

	snap := m.Snapshot()
	assert.Equal(t, int64(50), snap.Hits)
	assert.Equal(t, int64(50), snap.Misses)
}
