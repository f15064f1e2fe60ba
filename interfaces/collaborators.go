// Package interfaces defines the small set of collaborator abstractions an
// endpoint depends on without owning: where trace lines go, and where
// randomness comes from. Both are injected at endpoint creation (spec §9
// Design Notes) rather than reached through global mutable state, so a
// process can run many endpoints with independent trace sinks and seeds.
package interfaces

// TraceSink receives human-readable diagnostic lines from a compressor or
// decompressor endpoint. Implementations must not block for long: trace
// emission happens on the hot path of compress/decompress calls.
type TraceSink interface {
	// Trace records one diagnostic line at the given severity. level follows
	// the same ordering as typical structured loggers: 0=debug, 1=info,
	// 2=warn, 3=error.
	Trace(level int, cid uint16, line string)
}

// RandomSource supplies the randomness an endpoint needs: today, only for
// deciding whether to emit an optimistic ACK with the configured
// probability (spec §4.6 feedback generation). Swappable so tests can
// inject a deterministic sequence.
type RandomSource interface {
	// Float64 returns a pseudo-random value in [0.0, 1.0).
	Float64() float64
}

// NopTraceSink discards every trace line. It is the default when an
// endpoint is created without an explicit TraceSink.
type NopTraceSink struct{}

// Trace implements TraceSink by doing nothing.
func (NopTraceSink) Trace(level int, cid uint16, line string) {}
