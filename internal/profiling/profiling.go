package profiling

import (
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"
)

// Per-frame CPU timings for render passes.

var (
	mu          sync.Mutex
	frameTotals = make(map[string]time.Duration)
	frameStart  time.Time
)

// Track returns a stop function that records the elapsed time under the given name.
// Usage: defer profiling.Track("render.shadows")()
func Track(name string) func() {
	start := time.Now()
	return func() {
		d := time.Since(start)
		mu.Lock()
		frameTotals[name] += d
		mu.Unlock()
	}
}

// ResetFrame clears the per-frame totals. Call at the start of each frame.
func ResetFrame() {
	mu.Lock()
	clear(frameTotals)
	frameStart = time.Now()
	mu.Unlock()
}

// FrameElapsed returns the time since the last ResetFrame.
func FrameElapsed() time.Duration {
	mu.Lock()
	defer mu.Unlock()
	if frameStart.IsZero() {
		return 0
	}
	return time.Since(frameStart)
}

// Snapshot returns a copy of the current per-frame totals.
func Snapshot() map[string]time.Duration {
	mu.Lock()
	defer mu.Unlock()
	out := make(map[string]time.Duration, len(frameTotals))
	for k, v := range frameTotals {
		out[k] = v
	}
	return out
}

// TopN formats the n most expensive entries of the current frame.
// Example: "render.forward:4.2ms, render.shadows:2.1ms"
func TopN(n int) string {
	type entry struct {
		name string
		dur  time.Duration
	}
	ss := Snapshot()
	list := make([]entry, 0, len(ss))
	for k, v := range ss {
		list = append(list, entry{name: k, dur: v})
	}
	slices.SortFunc(list, func(a, b entry) int {
		if a.dur != b.dur {
			if a.dur > b.dur {
				return -1
			}
			return 1
		}
		return strings.Compare(a.name, b.name)
	})
	n = min(n, len(list))
	parts := make([]string, 0, n)
	for _, e := range list[:n] {
		ms := float64(e.dur.Microseconds()) / 1000.0
		parts = append(parts, e.name+":"+strconv.FormatFloat(ms, 'f', 1, 64)+"ms")
	}
	return strings.Join(parts, ", ")
}
