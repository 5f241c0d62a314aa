package engine

import (
	"context"
	rtmetrics "runtime/metrics"
	"sync"
	"time"

	"github.com/go-drift/ripple/pkg/core"
	"github.com/go-drift/ripple/pkg/host"
)

const (
	defaultRuntimeInterval = 5 * time.Second
	defaultRuntimeCapacity = 120
)

// Sources of a RuntimeSample.
const (
	SourceInterval = "interval"
	SourcePass     = "pass"
)

// RuntimeSample is the Go runtime state at one moment. Samples taken when a
// pass commits also carry what the runtime did while that pass ran, so slow
// passes can be matched against garbage collection.
type RuntimeSample struct {
	Timestamp  int64  `json:"ts"`
	Source     string `json:"source"`
	HeapBytes  uint64 `json:"heapBytes"`
	AllocBytes uint64 `json:"allocBytes"`
	GCCycles   uint64 `json:"gcCycles"`
	Goroutines uint64 `json:"goroutines"`

	PassMs         float64 `json:"passMs,omitempty"`
	PassUnits      int     `json:"passUnits,omitempty"`
	PassGCCycles   uint64  `json:"passGcCycles,omitempty"`
	PassAllocBytes uint64  `json:"passAllocBytes,omitempty"`
}

type runtimeReading struct {
	heap, allocs, gcs, goroutines uint64
}

var runtimeMetricNames = [...]string{
	"/memory/classes/heap/objects:bytes",
	"/gc/heap/allocs:bytes",
	"/gc/cycles/total:gc-cycles",
	"/sched/goroutines:goroutines",
}

func readRuntime() runtimeReading {
	var samples [len(runtimeMetricNames)]rtmetrics.Sample
	for i, name := range runtimeMetricNames {
		samples[i].Name = name
	}
	rtmetrics.Read(samples[:])
	value := func(i int) uint64 {
		if samples[i].Value.Kind() != rtmetrics.KindUint64 {
			return 0
		}
		return samples[i].Value.Uint64()
	}
	return runtimeReading{heap: value(0), allocs: value(1), gcs: value(2), goroutines: value(3)}
}

// RuntimeStats keeps recent runtime samples. Run samples on a fixed
// interval; as a core.Observer it adds a sample for every committed pass.
type RuntimeStats struct {
	mu       sync.Mutex
	samples  []RuntimeSample
	next     int
	full     bool
	interval time.Duration
	inFlight map[host.Element]runtimeReading

	read func() runtimeReading
	now  func() time.Time
}

// NewRuntimeStats keeps the last capacity samples and samples every
// interval while Run is active. Zero values pick 120 samples and 5s.
func NewRuntimeStats(capacity int, interval time.Duration) *RuntimeStats {
	if capacity <= 0 {
		capacity = defaultRuntimeCapacity
	}
	if interval <= 0 {
		interval = defaultRuntimeInterval
	}
	return &RuntimeStats{
		samples:  make([]RuntimeSample, capacity),
		interval: interval,
		inFlight: make(map[host.Element]runtimeReading),
		read:     readRuntime,
		now:      time.Now,
	}
}

// Interval returns the sampling interval of Run.
func (r *RuntimeStats) Interval() time.Duration {
	return r.interval
}

// Capacity returns how many samples are kept.
func (r *RuntimeStats) Capacity() int {
	return len(r.samples)
}

// Run samples immediately and then once per interval until ctx is done.
func (r *RuntimeStats) Run(ctx context.Context) {
	r.Sample()
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			r.Sample()
		case <-ctx.Done():
			return
		}
	}
}

// Sample records the current runtime state.
func (r *RuntimeStats) Sample() {
	r.add(r.sample(SourceInterval, r.read()))
}

func (r *RuntimeStats) PassStarted(container host.Element) {
	reading := r.read()
	r.mu.Lock()
	r.inFlight[container] = reading
	r.mu.Unlock()
}

func (r *RuntimeStats) PassCommitted(container host.Element, stats core.PassStats) {
	reading := r.read()
	r.mu.Lock()
	start, ok := r.inFlight[container]
	delete(r.inFlight, container)
	r.mu.Unlock()

	s := r.sample(SourcePass, reading)
	s.PassMs = durationToMillis(stats.Duration)
	s.PassUnits = stats.Units
	if ok {
		s.PassGCCycles = reading.gcs - start.gcs
		s.PassAllocBytes = reading.allocs - start.allocs
	}
	r.add(s)
}

func (r *RuntimeStats) PassAborted(container host.Element, _ error) {
	r.mu.Lock()
	delete(r.inFlight, container)
	r.mu.Unlock()
}

// Snapshot returns the kept samples, oldest first.
func (r *RuntimeStats) Snapshot() []RuntimeSample {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.full {
		return append([]RuntimeSample(nil), r.samples[:r.next]...)
	}
	out := make([]RuntimeSample, 0, len(r.samples))
	out = append(out, r.samples[r.next:]...)
	return append(out, r.samples[:r.next]...)
}

func (r *RuntimeStats) sample(source string, reading runtimeReading) RuntimeSample {
	return RuntimeSample{
		Timestamp:  r.now().UnixMilli(),
		Source:     source,
		HeapBytes:  reading.heap,
		AllocBytes: reading.allocs,
		GCCycles:   reading.gcs,
		Goroutines: reading.goroutines,
	}
}

func (r *RuntimeStats) add(s RuntimeSample) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.samples[r.next] = s
	r.next = (r.next + 1) % len(r.samples)
	if r.next == 0 {
		r.full = true
	}
}
