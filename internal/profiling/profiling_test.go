package profiling

import (
	"strings"
	"testing"
	"time"
)

func TestTrackAccumulates(t *testing.T) {
	ResetFrame()
	stop := Track("render.queue")
	time.Sleep(time.Millisecond)
	stop()
	Track("render.queue")()

	ss := Snapshot()
	if ss["render.queue"] < time.Millisecond {
		t.Fatalf("render.queue: got %v, want >= 1ms", ss["render.queue"])
	}

	ResetFrame()
	if len(Snapshot()) != 0 {
		t.Fatalf("ResetFrame did not clear totals")
	}
}

func TestTopNOrdersByDuration(t *testing.T) {
	ResetFrame()
	mu.Lock()
	frameTotals["render.forward"] = 4200 * time.Microsecond
	frameTotals["render.shadows"] = 2100 * time.Microsecond
	frameTotals["render.queue"] = 300 * time.Microsecond
	mu.Unlock()

	got := TopN(2)
	if got != "render.forward:4.2ms, render.shadows:2.1ms" {
		t.Fatalf("TopN: got %q", got)
	}
	if strings.Count(TopN(10), ",") != 2 {
		t.Fatalf("TopN(10) should list all three entries: %q", TopN(10))
	}
}
