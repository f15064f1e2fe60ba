package decomp

import "github.com/skyhook-net/rohc/tsscaled"

// Mode is the decompressor's feedback mode (spec §3, §4.6).
type Mode int

const (
	// ModeU (Unidirectional) never generates feedback.
	ModeU Mode = iota
	// ModeO (Bidirectional-Optimistic) generates feedback but the
	// compressor does not wait for it before advancing state.
	ModeO
	// ModeR (Bidirectional-Reliable) requires feedback acknowledgement
	// before some compressor transitions.
	ModeR
)

// Config holds the per-context tunables a Decompressor passes to every
// Context it creates. Like comp.Config, it mirrors the subset of the
// endpoint-level configuration this package needs without importing the
// root package, which owns Context construction from a user-facing Config
// and would otherwise form an import cycle.
type Config struct {
	// WlsbWindow is the W-LSB reference window width shared by the SN,
	// IP-ID, and scaled-TS sub-decoders.
	WlsbWindow int
	// OaRepetitions is how many times TS_STRIDE must be confirmed before
	// the scaled-TS decoder may accept TS_SCALED alone.
	OaRepetitions int
	// DowngradeK and DowngradeN are the failure-window thresholds driving
	// FC->SC and SC->NC downgrades (spec §4.8): if at least K of the last N
	// packets in a state failed CRC, the context drops one state down.
	DowngradeK int
	DowngradeN int
	// Mode selects whether and how this decompressor generates feedback.
	Mode Mode
	// AckProbability is the chance (in ModeO only; ModeR always acks) that
	// a successful decompression enqueues an ACK, spec §4.6 "governed by
	// k2/n2 window" - approximated here as a configured probability rather
	// than a second sliding window, since spec leaves the exact law
	// unspecified (see DESIGN.md).
	AckProbability float64
	// FeedbackBufferCap bounds the pending-feedback FIFO (spec §4.9): once
	// full, new feedback elements are dropped.
	FeedbackBufferCap int
	// CRCRepair enables the CRC-guided single-loss repair strategy of
	// spec §4.6/§4.8 (scenario S4). Disabled, a CRC failure always
	// discounts the packet rather than retrying neighboring SNs.
	CRCRepair bool
}

// DefaultConfig returns the decompressor defaults named in spec §6.
func DefaultConfig() Config {
	return Config{
		WlsbWindow:        4,
		OaRepetitions:     tsscaled.DefaultOaRepetitions,
		DowngradeK:        1,
		DowngradeN:        16,
		Mode:              ModeU,
		AckProbability:    0.1,
		FeedbackBufferCap: 16,
		CRCRepair:         true,
	}
}
