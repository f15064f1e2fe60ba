package rohc

import (
	"errors"
	"fmt"
	"math/rand"

	"github.com/skyhook-net/rohc/comp"
	"github.com/skyhook-net/rohc/decomp"
	"github.com/skyhook-net/rohc/feedback"
	"github.com/skyhook-net/rohc/interfaces"
	"github.com/skyhook-net/rohc/limits"
	"github.com/skyhook-net/rohc/profile"
	"github.com/skyhook-net/rohc/rohcpacket"
	"github.com/skyhook-net/rohc/tsscaled"
)

// mathRandSource adapts the package-level math/rand generator (safe for
// concurrent use since Go 1.20) to interfaces.RandomSource, the default a
// Decompressor uses when a caller does not inject its own.
type mathRandSource struct{}

func (mathRandSource) Float64() float64 { return rand.Float64() }

func cidModeOf(t CIDType) rohcpacket.CIDMode {
	if t == LargeCID {
		return rohcpacket.LargeCID
	}
	return rohcpacket.SmallCID
}

func decompModeOf(m Mode) decomp.Mode {
	switch m {
	case Optimistic:
		return decomp.ModeO
	case Reliable:
		return decomp.ModeR
	default:
		return decomp.ModeU
	}
}

func newRegistry() *profile.Registry {
	r := profile.NewRegistry()
	r.Seal()
	return r
}

// Compressor is the public compressor-side endpoint: it turns uncompressed
// IP/UDP/RTP/ESP packets into ROHC-compressed bytes, one flow context at a
// time, and piggybacks any feedback the caller owes the peer decompressor
// about flows travelling the other direction.
type Compressor struct {
	inner *comp.Compressor
	cfg   *Config
}

// NewCompressor builds a Compressor from cfg, which is validated before any
// context is created. trace may be nil, in which case trace lines are
// discarded.
func NewCompressor(cfg *Config, trace interfaces.TraceSink) (*Compressor, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	inner := comp.New(newRegistry(), cfg.MaxCID, cidModeOf(cfg.CIDType), cfg.RTPPorts, comp.Config{
		WlsbWindow:       cfg.WlsbWindowWidth,
		OaRepetitions:    tsscaled.DefaultOaRepetitions,
		IRRefreshL:       3,
		IRTimeoutPackets: cfg.IRTimeoutPackets,
	}, trace)
	return &Compressor{inner: inner, cfg: cfg}, nil
}

// Compress compresses packet at logical time now (an opaque, caller-defined
// monotonic counter recorded as the context's CreatedAt/LastUsedAt; IR
// refresh counts packets instead). Any
// queued feedback elements are framed and prepended ahead of the compressed
// header chain, spec §4.9's piggyback mechanism.
func (c *Compressor) Compress(packet []byte, now int, pending []feedback.Pending) ([]byte, error) {
	if err := limits.ValidateUncompressedPacket(packet); err != nil {
		return nil, newError("compress", 0, KindMalformed, err)
	}
	out, err := c.inner.Compress(packet, now)
	if err != nil {
		return nil, newError("compress", 0, mapErrorKind(err), err)
	}
	prefix, err := buildPiggyback(pending)
	if err != nil {
		return nil, newError("compress", 0, KindMalformed, err)
	}
	return append(prefix, out...), nil
}

// Segment splits a compressed packet into MRRU fragments bounded by mtu
// bytes each (spec §6 MRRU segmentation). When packet already fits within
// mtu, Segment returns it unchanged as the only element.
func (c *Compressor) Segment(packet []byte, mtu int) [][]byte {
	if mtu <= 1 || len(packet) <= mtu {
		return [][]byte{packet}
	}
	chunk := mtu - 1
	var out [][]byte
	for offset := 0; offset < len(packet); offset += chunk {
		end := offset + chunk
		final := end >= len(packet)
		if final {
			end = len(packet)
		}
		out = append(out, rohcpacket.BuildSegment(rohcpacket.Segment{Final: final, Payload: packet[offset:end]}))
	}
	return out
}

// ApplyFeedback routes a decoded feedback acknowledgement to the context it
// concerns, if the context still exists.
func (c *Compressor) ApplyFeedback(cid uint16, ack feedback.AckType) {
	c.inner.ApplyFeedback(cid, ack)
}

// ContextCount reports how many flows currently hold a compressor context.
func (c *Compressor) ContextCount() int {
	return c.inner.ContextCount()
}

// Context returns the compressor-side context for cid, if any, mostly for
// tests and diagnostics.
func (c *Compressor) Context(cid uint16) (*comp.Context, bool) {
	return c.inner.Context(cid)
}

// FeedbackEvent is one feedback element a Decompressor recovered from a
// peer-piggybacked transmission, naming the CID (on the compressor side of
// this endpoint) it concerns.
type FeedbackEvent struct {
	CID uint16
	Ack feedback.AckType
}

// Decompressor is the public decompressor-side endpoint: it reconstructs
// uncompressed packets from ROHC-compressed bytes, reassembling MRRU
// segments and peeling off any piggybacked feedback before dispatching the
// remainder to the matching flow context.
type Decompressor struct {
	inner       *decomp.Decompressor
	reassembler *rohcpacket.Reassembler
	cfg         *Config
}

// NewDecompressor builds a Decompressor from cfg. trace may be nil. rng may
// be nil, in which case the package-level math/rand source (mathRandSource)
// drives ModeO's probabilistic ACK; tests can pass their own deterministic
// source.
func NewDecompressor(cfg *Config, trace interfaces.TraceSink, rng interfaces.RandomSource) (*Decompressor, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if rng == nil {
		rng = mathRandSource{}
	}
	inner := decomp.New(newRegistry(), cidModeOf(cfg.CIDType), decomp.Config{
		WlsbWindow:        cfg.WlsbWindowWidth,
		OaRepetitions:     tsscaled.DefaultOaRepetitions,
		DowngradeK:        cfg.DowngradeK,
		DowngradeN:        cfg.DowngradeN,
		Mode:              decompModeOf(cfg.Mode),
		AckProbability:    0.1,
		FeedbackBufferCap: 16,
		CRCRepair:         cfg.Features.CRCRepair,
	}, trace, rng)
	var reassembler *rohcpacket.Reassembler
	if cfg.MRRU > 0 {
		reassembler = rohcpacket.NewReassembler(cfg.MRRU)
	}
	return &Decompressor{inner: inner, reassembler: reassembler, cfg: cfg}, nil
}

// Decompress decodes one wire transmission, which may be an MRRU fragment,
// a feedback-only transmission, a feedback-prefixed compressed packet, or a
// plain compressed packet. packet is nil when data carried nothing but
// feedback, or when data was a non-final MRRU fragment still awaiting the
// rest of its segment.
func (d *Decompressor) Decompress(data []byte) (packet []byte, events []FeedbackEvent, err error) {
	if len(data) == 0 {
		return nil, nil, newError("decompress", 0, KindMalformed, limits.ErrEmpty)
	}

	events, data, err = extractFeedback(data)
	if err != nil {
		return nil, events, newError("decompress", 0, KindMalformed, err)
	}
	if len(data) == 0 {
		return nil, events, nil
	}

	if rohcpacket.ClassifyKind(data[0]) == rohcpacket.KindSegment {
		if d.reassembler == nil {
			return nil, events, newError("decompress", 0, KindMalformed, fmt.Errorf("rohc: received mrru segment but mrru is disabled"))
		}
		seg, perr := rohcpacket.ParseSegment(data)
		if perr != nil {
			return nil, events, newError("decompress", 0, KindMalformed, perr)
		}
		whole, done, aerr := d.reassembler.Add(*seg)
		if aerr != nil {
			return nil, events, newError("decompress", 0, KindMalformed, aerr)
		}
		if !done {
			return nil, events, nil
		}
		data = whole
		if len(data) == 0 {
			return nil, events, nil
		}
	}

	out, derr := d.inner.Decompress(data)
	if derr != nil {
		return nil, events, newError("decompress", cidHint(data, d.cfg), mapErrorKind(derr), derr)
	}
	return out, events, nil
}

// DrainFeedback removes and returns every feedback element this
// decompressor owes its peer compressor, for the caller to piggyback onto
// the next Compressor.Compress call travelling the reverse direction.
func (d *Decompressor) DrainFeedback() []feedback.Pending {
	return d.inner.DrainFeedback()
}

// ContextCount reports how many CIDs currently hold a decompressor context.
func (d *Decompressor) ContextCount() int {
	return d.inner.ContextCount()
}

// Context returns the decompressor-side context for cid, if any, mostly for
// tests and diagnostics.
func (d *Decompressor) Context(cid uint16) (*decomp.Context, bool) {
	return d.inner.Context(cid)
}

// extractFeedback peels every piggybacked feedback element off the front of
// data, returning the decoded events and whatever bytes remain (spec §4.9).
// A feedback element travelling under a non-zero small CID is preceded by
// its own add-CID octet, the same framing regular packets use.
func extractFeedback(data []byte) ([]FeedbackEvent, []byte, error) {
	var events []FeedbackEvent
	for len(data) > 0 {
		cur := data
		cid := uint16(0)
		cidLen := 0
		if c, ok := rohcpacket.IsAddCID(cur[0]); ok && len(cur) > 1 && cur[1]&0xF8 == 0xF0 {
			cid, cidLen = uint16(c), 1
			cur = cur[1:]
		}
		if len(cur) == 0 || cur[0]&0xF8 != 0xF0 {
			break
		}
		elem, n, ok, ferr := rohcpacket.IsFeedbackPrefix(cur)
		if ferr != nil {
			return events, data, ferr
		}
		if !ok {
			break
		}
		fb, perr := feedback.ParseFeedback2(elem, 16)
		if perr != nil {
			return events, data, perr
		}
		events = append(events, FeedbackEvent{CID: cid, Ack: fb.Ack})
		data = data[cidLen+n:]
	}
	return events, data, nil
}

// buildPiggyback frames every pending feedback element for transmission
// ahead of a compressed packet, prefixing an add-CID octet for any non-zero
// small CID.
func buildPiggyback(pending []feedback.Pending) ([]byte, error) {
	var out []byte
	for _, p := range pending {
		if p.CID != 0 && p.CID <= 15 {
			b, err := rohcpacket.BuildAddCID(uint8(p.CID))
			if err != nil {
				return nil, err
			}
			out = append(out, b)
		}
		framed, err := rohcpacket.BuildFeedbackPrefix(p.Data)
		if err != nil {
			return nil, err
		}
		out = append(out, framed...)
	}
	return out, nil
}

// cidHint recovers whatever CID a failed decompress attempt was addressed
// to, best-effort, purely for attaching to the returned *Error; parse
// failures that occur before the CID is even legible report 0.
func cidHint(data []byte, cfg *Config) uint16 {
	if len(data) == 0 {
		return 0
	}
	if c, ok := rohcpacket.IsAddCID(data[0]); ok {
		return uint16(c)
	}
	return 0
}

// mapErrorKind classifies an error from comp/decomp into the public Kind
// taxonomy by sentinel match, falling back to KindMalformed for anything
// neither package tags more specifically.
func mapErrorKind(err error) Kind {
	switch {
	case errors.Is(err, decomp.ErrCrcMismatch):
		return KindCrcMismatch
	case errors.Is(err, decomp.ErrNoContext):
		return KindNoContext
	case errors.Is(err, decomp.ErrUnknownProfile):
		return KindUnknownProfile
	default:
		return KindMalformed
	}
}
