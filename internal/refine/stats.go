package refine

import (
	"slices"
	"sync"
	"time"
)

type callSample struct {
	at     time.Time
	ms     int64
	failed bool
}

// StatsSnapshot aggregates the refine calls seen inside the window.
type StatsSnapshot struct {
	Count    int     `json:"count"`
	Failures int     `json:"failures"`
	Window   string  `json:"window"`
	MinMs    int64   `json:"min_ms"`
	MaxMs    int64   `json:"max_ms"`
	AvgMs    float64 `json:"avg_ms"`
	P50Ms    float64 `json:"p50_ms"`
	P95Ms    float64 `json:"p95_ms"`
	P99Ms    float64 `json:"p99_ms"`
}

// LLMStats keeps call latencies for a rolling window. Safe for concurrent use.
type LLMStats struct {
	mu      sync.Mutex
	window  time.Duration
	samples []callSample
	now     func() time.Time
}

func NewLLMStats(window time.Duration) *LLMStats {
	if window <= 0 {
		window = time.Hour
	}
	return &LLMStats{window: window, now: time.Now}
}

// Record adds a successful call.
func (s *LLMStats) Record(durationMs int64) { s.add(durationMs, false) }

// RecordFailure adds a call that ended in a transport or API error.
func (s *LLMStats) RecordFailure(durationMs int64) { s.add(durationMs, true) }

func (s *LLMStats) add(ms int64, failed bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	s.expire(now)
	s.samples = append(s.samples, callSample{at: now, ms: max(ms, 0), failed: failed})
}

// Snapshot summarizes the current window. Latency figures cover every call,
// failed ones included.
func (s *LLMStats) Snapshot() StatsSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.expire(s.now())

	snap := StatsSnapshot{Count: len(s.samples), Window: s.window.String()}
	if snap.Count == 0 {
		return snap
	}

	ms := make([]int64, len(s.samples))
	var sum int64
	for i, c := range s.samples {
		ms[i] = c.ms
		sum += c.ms
		if c.failed {
			snap.Failures++
		}
	}
	slices.Sort(ms)

	snap.MinMs = ms[0]
	snap.MaxMs = ms[len(ms)-1]
	snap.AvgMs = float64(sum) / float64(len(ms))
	snap.P50Ms = percentile(ms, 50)
	snap.P95Ms = percentile(ms, 95)
	snap.P99Ms = percentile(ms, 99)
	return snap
}

// expire drops samples older than the window. Samples are appended in time
// order, so the live ones form a suffix.
func (s *LLMStats) expire(now time.Time) {
	cutoff := now.Add(-s.window)
	i := 0
	for i < len(s.samples) && s.samples[i].at.Before(cutoff) {
		i++
	}
	if i > 0 {
		s.samples = slices.Delete(s.samples, 0, i)
	}
}

// percentile interpolates linearly between the closest ranks of sorted.
func percentile(sorted []int64, pct float64) float64 {
	switch {
	case len(sorted) == 0:
		return 0
	case pct <= 0:
		return float64(sorted[0])
	case pct >= 100:
		return float64(sorted[len(sorted)-1])
	}
	rank := float64(len(sorted)-1) * pct / 100
	lo := int(rank)
	if lo+1 >= len(sorted) {
		return float64(sorted[lo])
	}
	frac := rank - float64(lo)
	return float64(sorted[lo]) + (float64(sorted[lo+1])-float64(sorted[lo]))*frac
}
