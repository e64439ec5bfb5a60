package llm

import (
	"sort"
	"sync"
	"time"
)

// Sample is one completed generation.
type Sample struct {
	Total      time.Duration
	FirstChunk time.Duration
	Bytes      int
}

type sample struct {
	timestamp    time.Time
	durationMs   int64
	firstChunkMs int64
	bytes        int
}

// StatsSnapshot is a point-in-time aggregate of generation samples.
type StatsSnapshot struct {
	Count           int     `json:"count"`
	MinMs           int64   `json:"min_ms"`
	MaxMs           int64   `json:"max_ms"`
	AvgMs           float64 `json:"avg_ms"`
	P50Ms           float64 `json:"p50_ms"`
	P95Ms           float64 `json:"p95_ms"`
	P99Ms           float64 `json:"p99_ms"`
	AvgFirstChunkMs float64 `json:"avg_first_chunk_ms"`
	TotalBytes      int64   `json:"total_bytes"`
}

// Stats tracks recent generation latencies within a rolling window.
type Stats struct {
	mu      sync.Mutex
	samples []sample
	maxAge  time.Duration
}

func NewStats(maxAge time.Duration) *Stats {
	if maxAge <= 0 {
		maxAge = time.Hour
	}
	return &Stats{
		samples: make([]sample, 0, 256),
		maxAge:  maxAge,
	}
}

func (s *Stats) Record(sm Sample) {
	now := time.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	s.pruneLocked(now)
	s.samples = append(s.samples, sample{
		timestamp:    now,
		durationMs:   max(sm.Total.Milliseconds(), 0),
		firstChunkMs: max(sm.FirstChunk.Milliseconds(), 0),
		bytes:        max(sm.Bytes, 0),
	})
}

func (s *Stats) Snapshot() StatsSnapshot {
	now := time.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	s.pruneLocked(now)
	if len(s.samples) == 0 {
		return StatsSnapshot{}
	}

	values := make([]int64, 0, len(s.samples))
	var sum, firstSum, bytes int64
	for _, sm := range s.samples {
		values = append(values, sm.durationMs)
		sum += sm.durationMs
		firstSum += sm.firstChunkMs
		bytes += int64(sm.bytes)
	}
	sort.Slice(values, func(i, j int) bool { return values[i] < values[j] })

	n := float64(len(values))
	return StatsSnapshot{
		Count:           len(values),
		MinMs:           values[0],
		MaxMs:           values[len(values)-1],
		AvgMs:           float64(sum) / n,
		P50Ms:           percentile(values, 50),
		P95Ms:           percentile(values, 95),
		P99Ms:           percentile(values, 99),
		AvgFirstChunkMs: float64(firstSum) / n,
		TotalBytes:      bytes,
	}
}

func (s *Stats) pruneLocked(now time.Time) {
	cutoff := now.Add(-s.maxAge)
	writeIdx := 0
	for _, sm := range s.samples {
		if !sm.timestamp.Before(cutoff) {
			s.samples[writeIdx] = sm
			writeIdx++
		}
	}
	s.samples = s.samples[:writeIdx]
}

func percentile(sortedValues []int64, pct float64) float64 {
	if len(sortedValues) == 0 {
		return 0
	}
	if pct <= 0 {
		return float64(sortedValues[0])
	}
	if pct >= 100 {
		return float64(sortedValues[len(sortedValues)-1])
	}

	index := (float64(len(sortedValues)-1) * pct) / 100.0
	lower := int(index)
	upper := lower + 1
	if upper >= len(sortedValues) {
		return float64(sortedValues[lower])
	}
	weight := index - float64(lower)
	lo := float64(sortedValues[lower])
	hi := float64(sortedValues[upper])
	return lo + ((hi - lo) * weight)
}
