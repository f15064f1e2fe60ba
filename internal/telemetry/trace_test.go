package telemetry

import (
	"fmt"
	"strings"
	"testing"

	"github.com/skyhook-net/rohc/limits"
)

type recordingSink struct {
	lines []string
}

func (r *recordingSink) Trace(level int, cid uint16, line string) {
	r.lines = append(r.lines, line)
}

func TestTracerForwardsToSink(t *testing.T) {
	sink := &recordingSink{}
	tr := NewTracer(sink, 7)
	tr.Emit(1, "hello")
	tr.Emit(1, "world")

	if len(sink.lines) != 2 || sink.lines[0] != "hello" || sink.lines[1] != "world" {
		t.Errorf("sink received %v", sink.lines)
	}
}

func TestTracerTruncatesLongLines(t *testing.T) {
	tr := NewTracer(nil, 0)
	long := strings.Repeat("x", limits.MaxTraceLen+50)
	tr.Emit(0, long)

	hist := tr.History()
	if len(hist) != 1 || len(hist[0]) != limits.MaxTraceLen {
		t.Errorf("history[0] length = %d, want %d", len(hist[0]), limits.MaxTraceLen)
	}
}

func TestTracerEvictsOldestWhenFull(t *testing.T) {
	tr := NewTracer(nil, 0)
	for i := 0; i < defaultTraceCapacity+10; i++ {
		tr.Emit(0, fmt.Sprintf("line-%d", i))
	}
	hist := tr.History()
	if len(hist) != defaultTraceCapacity {
		t.Fatalf("history length = %d, want %d", len(hist), defaultTraceCapacity)
	}
	if hist[0] != "line-10" {
		t.Errorf("oldest retained = %q, want %q", hist[0], "line-10")
	}
	if hist[len(hist)-1] != fmt.Sprintf("line-%d", defaultTraceCapacity+9) {
		t.Errorf("newest retained = %q", hist[len(hist)-1])
	}
}

func TestTracerNilSinkDoesNotPanic(t *testing.T) {
	tr := NewTracer(nil, 1)
	tr.Emit(0, "no sink here")
}
