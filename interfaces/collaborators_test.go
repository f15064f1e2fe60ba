package interfaces

import "testing"

func TestNopTraceSinkDoesNotPanic(t *testing.T) {
	var sink TraceSink = NopTraceSink{}
	sink.Trace(2, 5, "anything")
}

type fixedRandom struct{ v float64 }

func (f fixedRandom) Float64() float64 { return f.v }

func TestRandomSourceInterface(t *testing.T) {
	var r RandomSource = fixedRandom{v: 0.42}
	if got := r.Float64(); got != 0.42 {
		t.Errorf("Float64() = %v, want 0.42", got)
	}
}
