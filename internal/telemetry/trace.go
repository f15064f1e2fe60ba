package telemetry

import "github.com/skyhook-net/rohc/limits"

// defaultTraceCapacity bounds how many trace lines a Tracer retains in
// memory for later inspection (e.g. by a test harness after a fuzz run),
// independent of whatever the injected sink does with each line as it
// arrives.
const defaultTraceCapacity = 64

// Tracer forwards trace lines to an injected sink and keeps a bounded,
// fixed-length history. Lines are truncated to limits.MaxTraceLen, matching
// the MAX_TRACE_LEN this module's line-tracing ancestry used (the
// MAX_LAST_TRACES array-size/trace-length conflict in that code is not
// reproduced here: length and capacity are tracked as two separate,
// unambiguous values).
type Tracer struct {
	sink TraceSink
	cid  uint16
	buf  []string
	head int
	size int
}

// TraceSink is the minimal interface Tracer needs from a collaborator;
// interfaces.TraceSink satisfies it.
type TraceSink interface {
	Trace(level int, cid uint16, line string)
}

// NewTracer creates a Tracer for one context, forwarding every line to
// sink. A nil sink is valid and simply disables forwarding while the
// in-memory history still accumulates.
func NewTracer(sink TraceSink, cid uint16) *Tracer {
	return &Tracer{
		sink: sink,
		cid:  cid,
		buf:  make([]string, defaultTraceCapacity),
	}
}

// Emit truncates line to limits.MaxTraceLen, appends it to the bounded
// history (evicting the oldest entry once full), and forwards it to the
// sink if one was supplied.
func (t *Tracer) Emit(level int, line string) {
	if len(line) > limits.MaxTraceLen {
		line = line[:limits.MaxTraceLen]
	}
	idx := (t.head + t.size) % len(t.buf)
	if t.size < len(t.buf) {
		t.size++
	} else {
		t.head = (t.head + 1) % len(t.buf)
	}
	t.buf[idx] = line

	if t.sink != nil {
		t.sink.Trace(level, t.cid, line)
	}
}

// History returns the retained trace lines, oldest first.
func (t *Tracer) History() []string {
	out := make([]string, t.size)
	for i := 0; i < t.size; i++ {
		out[i] = t.buf[(t.head+i)%len(t.buf)]
	}
	return out
}
