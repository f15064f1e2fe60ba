package comp

import "github.com/skyhook-net/rohc/tsscaled"

// Config holds the per-context tunables a Compressor passes to every
// Context it creates. It mirrors the subset of the endpoint-level
// configuration this package needs without importing the root package,
// which owns Context construction from a user-facing Config and would
// otherwise form an import cycle.
type Config struct {
	// WlsbWindow is the W-LSB reference window width shared by the SN,
	// IP-ID, and scaled-TS sub-encoders.
	WlsbWindow int
	// OaRepetitions is how many times TS_STRIDE must be confirmed before
	// the scaled-TS encoder may start sending TS_SCALED alone.
	OaRepetitions int
	// IRRefreshL is the number of consecutive packets a context must
	// spend in IR (or FO) before advancing to FO (or SO).
	IRRefreshL int
	// IRTimeoutPackets forces a refresh IR after this many packets since
	// the last one; 0 disables the timeout.
	IRTimeoutPackets int
}

// DefaultConfig returns the compressor defaults named in spec §6.
func DefaultConfig() Config {
	return Config{
		WlsbWindow:       4,
		OaRepetitions:    tsscaled.DefaultOaRepetitions,
		IRRefreshL:       3,
		IRTimeoutPackets: 1700,
	}
}
