package prefilter

import (
	"log/slog"
	"sync/atomic"
)

// Tracker wraps a Prefilter with effectiveness tracking.
//
// The tracker monitors the ratio of confirmed matches to candidates. A
// candidate is a haystack the prefilter let through; a confirm is one the
// regex then actually matched. When too few candidates confirm, the
// prefilter only adds a scan in front of the regex, so the tracker retires
// it.
//
// Algorithm:
//  1. Track candidates (prefilter hits) and confirms (regex matches)
//  2. After the warmup period, check the ratio every CheckInterval candidates
//  3. If ratio < MinEfficiency, retire the prefilter
//  4. Once retired, never re-enable (until Reset)
//
// A Tracker is safe for concurrent use, so one compiled rule can share it
// across goroutines.
//
// Example usage:
//
//	tracker := prefilter.NewTracker(pf)
//	if tracker.IsActive() && tracker.Find(haystack, 0) < 0 {
//	    return nil // cannot match
//	}
//	if matches := run(haystack); len(matches) > 0 {
//	    tracker.ConfirmMatch()
//	}
type Tracker struct {
	inner Prefilter

	candidates     atomic.Uint64
	confirms       atomic.Uint64
	lastCheckpoint atomic.Uint64
	active         atomic.Bool

	checkInterval uint64
	minEfficiency float64
	warmupPeriod  uint64
	logger        *slog.Logger
	name          string
}

// TrackerConfig holds configuration for the effectiveness tracker.
type TrackerConfig struct {
	// CheckInterval is how often to check effectiveness (in candidates).
	// Default: 64
	CheckInterval uint64

	// MinEfficiency is the minimum acceptable ratio of confirms/candidates.
	// Default: 0.1 (10%)
	MinEfficiency float64

	// WarmupPeriod is the minimum number of candidates before checking.
	// Default: 128
	WarmupPeriod uint64

	// Logger receives a debug record when the prefilter is retired.
	// Nil disables logging.
	Logger *slog.Logger

	// Name identifies the tracked prefilter in log records.
	Name string
}

// DefaultTrackerConfig returns the default tracker configuration.
func DefaultTrackerConfig() TrackerConfig {
	return TrackerConfig{
		CheckInterval: 64,
		MinEfficiency: 0.1,
		WarmupPeriod:  128,
	}
}

// NewTracker creates a tracker with the default config.
//
// Returns nil if the inner prefilter is nil.
func NewTracker(inner Prefilter) *Tracker {
	return NewTrackerWithConfig(inner, DefaultTrackerConfig())
}

// NewTrackerWithConfig creates a tracker with custom configuration.
//
// Returns nil if the inner prefilter is nil.
func NewTrackerWithConfig(inner Prefilter, config TrackerConfig) *Tracker {
	if inner == nil {
		return nil
	}
	t := &Tracker{
		inner:         inner,
		checkInterval: config.CheckInterval,
		minEfficiency: config.MinEfficiency,
		warmupPeriod:  config.WarmupPeriod,
		logger:        config.Logger,
		name:          config.Name,
	}
	t.active.Store(true)
	return t
}

// Find returns the next candidate position, or -1 if none was found.
//
// A retired tracker also returns -1; check IsActive first.
func (t *Tracker) Find(haystack []byte, start int) int {
	if !t.active.Load() {
		return -1
	}
	pos := t.inner.Find(haystack, start)
	if pos >= 0 {
		n := t.candidates.Add(1)
		t.checkEffectiveness(n)
	}
	return pos
}

// ConfirmMatch records that a candidate actually matched.
func (t *Tracker) ConfirmMatch() {
	t.confirms.Add(1)
}

// IsActive reports whether the prefilter is still in use.
func (t *Tracker) IsActive() bool {
	return t.active.Load()
}

// IsComplete delegates to the inner prefilter.
func (t *Tracker) IsComplete() bool {
	return t.inner.IsComplete()
}

// HeapBytes returns the memory used by the inner prefilter.
func (t *Tracker) HeapBytes() int {
	return t.inner.HeapBytes()
}

// Stats returns (candidates, confirms, efficiency, active).
func (t *Tracker) Stats() (candidates, confirms uint64, efficiency float64, active bool) {
	candidates = t.candidates.Load()
	confirms = t.confirms.Load()
	if candidates > 0 {
		efficiency = float64(confirms) / float64(candidates)
	}
	active = t.active.Load()
	return
}

// Reset clears statistics and re-enables the prefilter.
func (t *Tracker) Reset() {
	t.candidates.Store(0)
	t.confirms.Store(0)
	t.lastCheckpoint.Store(0)
	t.active.Store(true)
}

// Inner returns the underlying prefilter.
func (t *Tracker) Inner() Prefilter {
	return t.inner
}

// checkEffectiveness evaluates whether to retire the prefilter after the
// n-th candidate.
func (t *Tracker) checkEffectiveness(n uint64) {
	if n < t.warmupPeriod {
		return
	}
	last := t.lastCheckpoint.Load()
	if n-last < t.checkInterval || !t.lastCheckpoint.CompareAndSwap(last, n) {
		return
	}

	efficiency := float64(t.confirms.Load()) / float64(n)
	if efficiency < t.minEfficiency && t.active.CompareAndSwap(true, false) && t.logger != nil {
		t.logger.Debug("prefilter retired",
			slog.String("rule", t.name),
			slog.Uint64("candidates", n),
			slog.Float64("efficiency", efficiency))
	}
}
