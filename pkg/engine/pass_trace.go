package engine

import (
	"fmt"
	"sync"
	"time"

	"github.com/go-drift/ripple/pkg/core"
	"github.com/go-drift/ripple/pkg/host"
)

const (
	passTraceSamplesDefault   = 240
	defaultPassTraceThreshold = 16667 * time.Microsecond
)

// PassCounts captures the workload of a committed pass.
type PassCounts struct {
	Units    int `json:"units"`
	Ticks    int `json:"ticks"`
	Restarts int `json:"restarts"`
	Inserts  int `json:"inserts"`
	Updates  int `json:"updates"`
	Removes  int `json:"removes"`
	Moves    int `json:"moves"`
	Effects  int `json:"effects"`
	Cleanups int `json:"cleanups"`
}

// PassSample is a single committed pass.
type PassSample struct {
	Timestamp int64      `json:"ts"`
	Container string     `json:"container"`
	PassMs    float64    `json:"passMs"`
	CommitMs  float64    `json:"commitMs"`
	Counts    PassCounts `json:"counts"`
}

// PassTimeline is the debug server response shape.
type PassTimeline struct {
	Samples     []PassSample `json:"samples"`
	SlowPasses  int          `json:"slowPasses"`
	Superseded  int          `json:"superseded"`
	Failed      int          `json:"failed"`
	ThresholdMs float64      `json:"thresholdMs"`
}

// PassTrace stores recent pass samples in a ring buffer. It implements
// core.Observer and may be read from other goroutines while it records.
type PassTrace struct {
	mu         sync.RWMutex
	samples    []PassSample
	index      int
	count      int
	slow       int
	superseded int
	failed     int
	threshold  time.Duration
	now        func() time.Time
}

// NewPassTrace creates a trace keeping the last capacity passes. Passes
// longer than threshold are counted as slow.
func NewPassTrace(capacity int, threshold time.Duration) *PassTrace {
	if capacity <= 0 {
		capacity = passTraceSamplesDefault
	}
	if threshold <= 0 {
		threshold = defaultPassTraceThreshold
	}
	return &PassTrace{
		samples:   make([]PassSample, capacity),
		threshold: threshold,
		now:       time.Now,
	}
}

// Capacity returns the buffer capacity.
func (b *PassTrace) Capacity() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.samples)
}

// Threshold returns the slow pass threshold.
func (b *PassTrace) Threshold() time.Duration {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.threshold
}

func (b *PassTrace) PassStarted(host.Element) {}

func (b *PassTrace) PassCommitted(container host.Element, stats core.PassStats) {
	b.add(PassSample{
		Timestamp: b.now().UnixMilli(),
		Container: containerLabel(container),
		PassMs:    durationToMillis(stats.Duration),
		CommitMs:  durationToMillis(stats.CommitDuration),
		Counts: PassCounts{
			Units:    stats.Units,
			Ticks:    stats.Ticks,
			Restarts: stats.Restarts,
			Inserts:  stats.Inserts,
			Updates:  stats.Updates,
			Removes:  stats.Removes,
			Moves:    stats.Moves,
			Effects:  stats.Effects,
			Cleanups: stats.Cleanups,
		},
	}, stats.Duration)
}

func (b *PassTrace) PassAborted(_ host.Element, err error) {
	b.mu.Lock()
	if abortOutcome(err) == "superseded" {
		b.superseded++
	} else {
		b.failed++
	}
	b.mu.Unlock()
}

func (b *PassTrace) add(sample PassSample, d time.Duration) {
	b.mu.Lock()
	b.samples[b.index] = sample
	b.index = (b.index + 1) % len(b.samples)
	if b.count < len(b.samples) {
		b.count++
	}
	if d > b.threshold {
		b.slow++
	}
	b.mu.Unlock()
}

// Snapshot returns a chronological copy of samples and stats.
func (b *PassTrace) Snapshot() PassTimeline {
	b.mu.RLock()
	defer b.mu.RUnlock()

	timeline := PassTimeline{
		SlowPasses:  b.slow,
		Superseded:  b.superseded,
		Failed:      b.failed,
		ThresholdMs: durationToMillis(b.threshold),
	}
	if b.count == 0 {
		return timeline
	}

	result := make([]PassSample, b.count)
	if b.count < len(b.samples) {
		copy(result, b.samples[:b.count])
	} else {
		copy(result, b.samples[b.index:])
		copy(result[len(b.samples)-b.index:], b.samples[:b.index])
	}
	timeline.Samples = result
	return timeline
}

func durationToMillis(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}

// containerLabel names a container by tag and identity, e.g. "div@0xc000123".
func containerLabel(container host.Element) string {
	if container == nil {
		return ""
	}
	return fmt.Sprintf("%s@%p", container.TagName(), container)
}
