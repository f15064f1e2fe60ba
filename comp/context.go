package comp

import (
	"github.com/skyhook-net/rohc/crc"
	"github.com/skyhook-net/rohc/feedback"
	"github.com/skyhook-net/rohc/ipheader"
	"github.com/skyhook-net/rohc/profile"
	"github.com/skyhook-net/rohc/rohcpacket"
	"github.com/skyhook-net/rohc/tsscaled"
	"github.com/skyhook-net/rohc/wlsb"
)

// State is one of the three compressor context states (spec §4.5).
type State int

const (
	StateIR State = iota
	StateFO
	StateSO
)

func (s State) String() string {
	switch s {
	case StateIR:
		return "IR"
	case StateFO:
		return "FO"
	case StateSO:
		return "SO"
	default:
		return "unknown"
	}
}

// Context is the per-CID compressor state machine: reference chains, the
// W-LSB/scaled-TS sub-encoders, confidence counters, and the current state.
type Context struct {
	CID     uint16
	CIDMode rohcpacket.CIDMode
	Profile profile.ID
	Key     profile.FlowKey
	State   State

	cfg Config

	staticChain []byte
	lastChain   *ipheader.Chain
	lastMarker  bool

	synthSN uint32
	snWidth int
	snEnc   *wlsb.Encoder

	ipidEnc *wlsb.Encoder

	isRTP bool
	tsEnc *tsscaled.Encoder

	irCount, foCount, soCount int
	packetsSinceIR            int
	CreatedAt, LastUsedAt     int
}

// NewContext creates a fresh context in StateIR. The first Compress call
// establishes the reference static/dynamic chains via an IR packet.
func NewContext(cid uint16, mode rohcpacket.CIDMode, id profile.ID, key profile.FlowKey, cfg Config, now int) *Context {
	snWidth := 16
	if id == profile.ESP {
		snWidth = 32
	}
	ctx := &Context{
		CID: cid, CIDMode: mode, Profile: id, Key: key, State: StateIR,
		cfg: cfg, snWidth: snWidth, isRTP: id == profile.RTP,
		CreatedAt: now, LastUsedAt: now,
	}
	ctx.snEnc = wlsb.NewEncoder(snWidth, wlsb.ConstantShift(0), cfg.WlsbWindow)
	if ctx.isRTP {
		ctx.tsEnc = tsscaled.NewEncoder(32, cfg.WlsbWindow, cfg.OaRepetitions)
	}
	return ctx
}

// sequenceFor returns this packet's logical SN for the context's profile:
// the RTP sequence number, the ESP sequence number, or (for profiles with
// no sequence field of their own) a synthetic counter the compressor
// maintains itself (spec §3, GLOSSARY "SN").
func (ctx *Context) sequenceFor(chain *ipheader.Chain) uint32 {
	switch ctx.Profile {
	case profile.RTP:
		return uint32(chain.RTP.SequenceNumber)
	case profile.ESP:
		return chain.ESP.SN
	default:
		ctx.synthSN++
		return ctx.synthSN
	}
}

// Compress builds the ROHC packet for chain, advancing context state. now
// is the caller's logical packet counter, stored as LastUsedAt; periodic IR
// refresh counts packets against IRTimeoutPackets and does not read now.
// A context running in LargeCID mode never advances past
// IR/IR-DYN: the UO-0/UO-1/UOR-2 wire formats have no large-CID
// representation, so buildCompressed is unreachable for such contexts.
func (ctx *Context) Compress(chain *ipheader.Chain, now int) ([]byte, error) {
	ctx.LastUsedAt = now
	static := ipheader.StaticBytes(chain)
	dynamic := ipheader.DynamicBytes(chain)
	sn := ctx.sequenceFor(chain)

	staticChanged := ctx.lastChain != nil && string(static) != string(ctx.staticChain)
	forceIR := ctx.cfg.IRTimeoutPackets > 0 && ctx.packetsSinceIR >= ctx.cfg.IRTimeoutPackets

	var out []byte
	var err error
	switch {
	case ctx.State == StateIR || staticChanged || forceIR || ctx.lastChain == nil:
		out, err = ctx.buildIR(static, dynamic, sn)
	case ctx.coarseDynamicChanged(chain) || !ctx.hasWireSN() || ctx.CIDMode == rohcpacket.LargeCID:
		// Profiles with no dynamic-chain sequence field of their own (spec
		// §3's synthetic SN is compressor-internal bookkeeping only) cannot
		// be represented by UO-0/UO-1/UOR-2, whose SN field a decompressor
		// must recover from the wire: always resend the full dynamic chain.
		// Large-CID contexts hit this same branch unconditionally: UO-0 and
		// UO-1/UOR-2's wire formats (rohcpacket.BuildUO0/BuildUO1/BuildUOR2)
		// have no large-CID form, so a context configured for LargeCID never
		// leaves IR/IR-DYN and stays there rather than erroring once its CID
		// exceeds 15.
		out, err = ctx.buildIRDyn(dynamic, sn)
	default:
		out, err = ctx.buildCompressed(chain, static, dynamic, sn)
	}
	if err != nil {
		return nil, err
	}

	ctx.staticChain = static
	ctx.lastChain = chain
	if ctx.isRTP {
		ctx.lastMarker = chain.RTP.Marker
	}
	ctx.snEnc.Add(sn, sn)
	if chain.V4 != nil {
		if ctx.ipidEnc == nil {
			ctx.ipidEnc = wlsb.NewEncoder(16, wlsb.ConstantShift(0), ctx.cfg.WlsbWindow)
		}
		ctx.ipidEnc.Add(uint32(chain.V4.ID), sn)
	}
	return out, nil
}

func (ctx *Context) computeCRC(kind crc.Kind, static, dynamic []byte) (byte, error) {
	buf := append(append([]byte{}, static...), dynamic...)
	return crc.ComputeDefault(kind, buf)
}

func (ctx *Context) buildIR(static, dynamic []byte, sn uint32) ([]byte, error) {
	crcByte, err := ctx.computeCRC(crc.CRC8, static, dynamic)
	if err != nil {
		return nil, err
	}
	ir := rohcpacket.IR{
		CID: ctx.CID, CIDMode: ctx.CIDMode, Profile: uint8(ctx.Profile), CRC: crcByte,
		Dynamic: true, StaticChain: static, DynamicChain: dynamic,
	}
	raw, err := rohcpacket.BuildIR(ir)
	if err != nil {
		return nil, err
	}

	if ctx.State != StateIR {
		ctx.State = StateIR
		ctx.irCount = 0
	}
	ctx.irCount++
	ctx.packetsSinceIR = 0
	ctx.snEnc.Reset()
	if ctx.ipidEnc != nil {
		ctx.ipidEnc.Reset()
	}
	if ctx.irCount >= ctx.cfg.IRRefreshL {
		ctx.State = StateFO
		ctx.foCount = 0
	}
	return raw, nil
}

func (ctx *Context) buildIRDyn(dynamic []byte, sn uint32) ([]byte, error) {
	crcByte, err := ctx.computeCRC(crc.CRC8, ctx.staticChain, dynamic)
	if err != nil {
		return nil, err
	}
	p := rohcpacket.IRDyn{
		CID: ctx.CID, CIDMode: ctx.CIDMode, Profile: uint8(ctx.Profile), CRC: crcByte,
		DynamicChain: dynamic,
	}
	raw, err := rohcpacket.BuildIRDyn(p)
	if err != nil {
		return nil, err
	}
	ctx.State = StateFO
	ctx.foCount = 0
	ctx.packetsSinceIR++
	return raw, nil
}

// hasWireSN reports whether this context's profile carries a sequence
// field inside its own dynamic chain (RTP SN, ESP SN), which is what
// UO-0/UO-1/UOR-2 encode as their SN field. Profiles without one (plain
// IP, UDP, UDP-Lite) only ever compress via IR-DYN.
func (ctx *Context) hasWireSN() bool {
	return ctx.isRTP || ctx.Profile == profile.ESP
}

// coarseDynamicChanged reports a dynamic-field change with no UO/UOR
// representation: TOS/TTL/DF (or TC/HL on IPv6), or the UDP checksum (spec
// §4.5 "Any -> FO on dynamic-field change that cannot be expressed as a
// UO-0/UO-1").
func (ctx *Context) coarseDynamicChanged(chain *ipheader.Chain) bool {
	if ctx.lastChain == nil {
		return false
	}
	switch {
	case chain.V4 != nil && ctx.lastChain.V4 != nil:
		if chain.V4.TOS != ctx.lastChain.V4.TOS || chain.V4.TTL != ctx.lastChain.V4.TTL || chain.V4.DF != ctx.lastChain.V4.DF {
			return true
		}
	case chain.V6 != nil && ctx.lastChain.V6 != nil:
		if chain.V6.TrafficClass != ctx.lastChain.V6.TrafficClass || chain.V6.HopLimit != ctx.lastChain.V6.HopLimit {
			return true
		}
	}
	if chain.UDP != nil && ctx.lastChain.UDP != nil && chain.UDP.Checksum != ctx.lastChain.UDP.Checksum {
		return true
	}
	return false
}

// buildCompressed picks the smallest UO-0/UO-1/UOR-2 packet that fits the
// required SN/IP-ID/TS bit counts, in the priority order spec §4.5 names,
// and advances FO->SO / SO confidence counters on success. Only reachable
// for SmallCID contexts; see Compress.
//
// Encode's returned k only tells us the *minimum* field width that would
// resolve a value unambiguously; the actual bits placed on the wire are
// always the full fixed-width field for whichever packet type is chosen
// (e.g. UO-0's SN field is always 4 bits), masked directly from the true
// value rather than truncated to k bits - a k-bit truncation would drop
// real high-order bits whenever k is less than the field width.
func (ctx *Context) buildCompressed(chain *ipheader.Chain, static, dynamic []byte, sn uint32) ([]byte, error) {
	snK, _, err := ctx.snEnc.Encode(sn)
	if err != nil {
		return nil, err
	}

	var ts tsscaled.Encoding
	var tsWire uint32
	if ctx.isRTP {
		ts, err = ctx.tsEnc.Update(chain.RTP.Timestamp, sn)
		if err != nil {
			return nil, err
		}
		if ts.State == tsscaled.StateSendScaled {
			tsWire = ts.Scaled
		} else {
			tsWire = chain.RTP.Timestamp
		}
	}

	ipidChanged := false
	var ipidK int
	if chain.V4 != nil && ctx.ipidEnc != nil {
		ipidK, _, err = ctx.ipidEnc.Encode(uint32(chain.V4.ID))
		if err != nil {
			return nil, err
		}
		ipidChanged = ipidK > 0
	}

	markerChanged := ctx.isRTP && chain.RTP.Marker != ctx.lastMarker

	var raw []byte
	switch {
	case ctx.State == StateSO && snK <= 4 && !ipidChanged && (!ctx.isRTP || (ts.Deducible && !markerChanged)):
		raw, err = ctx.buildUO0(static, dynamic, uint8(sn&0xF))
	case ctx.isRTP && !ipidChanged && snK <= 4 && ts.K <= 6:
		raw, err = ctx.buildUO1RTP(static, dynamic, uint8(sn&0xF), uint8(tsWire&0x3F), chain.RTP.Marker)
	case !ctx.isRTP && chain.V4 != nil && ipidK <= 6 && snK <= 5:
		raw, err = ctx.buildUO1IP(static, dynamic, uint8(sn&0x1F), uint8(chain.V4.ID&0x3F))
	case ctx.isRTP:
		raw, err = ctx.buildUOR2RTP(static, dynamic, sn, snK, tsWire, ts.K, chain.RTP.Marker)
	default:
		raw, err = ctx.buildUOR2(static, dynamic, sn, snK)
	}
	if err != nil {
		return nil, err
	}

	ctx.packetsSinceIR++
	switch ctx.State {
	case StateFO:
		ctx.foCount++
		if ctx.foCount >= ctx.cfg.IRRefreshL {
			ctx.State = StateSO
			ctx.soCount = 0
		}
	case StateSO:
		ctx.soCount++
	}
	return raw, nil
}

func (ctx *Context) buildUO0(static, dynamic []byte, snBits uint8) ([]byte, error) {
	crcByte, err := ctx.computeCRC(crc.CRC3, static, dynamic)
	if err != nil {
		return nil, err
	}
	return rohcpacket.BuildUO0(rohcpacket.UO0{CID: ctx.CID, CIDMode: ctx.CIDMode, SNBits: snBits, CRC: crcByte})
}

func (ctx *Context) buildUO1RTP(static, dynamic []byte, snBits, tsBits uint8, marker bool) ([]byte, error) {
	crcByte, err := ctx.computeCRC(crc.CRC3, static, dynamic)
	if err != nil {
		return nil, err
	}
	return rohcpacket.BuildUO1(rohcpacket.UO1{
		CID: ctx.CID, Variant: rohcpacket.UO1RTP,
		TSBits: tsBits, Marker: marker, SNBits: snBits, CRC: crcByte,
	})
}

func (ctx *Context) buildUO1IP(static, dynamic []byte, snBits, ipidBits uint8) ([]byte, error) {
	crcByte, err := ctx.computeCRC(crc.CRC3, static, dynamic)
	if err != nil {
		return nil, err
	}
	return rohcpacket.BuildUO1(rohcpacket.UO1{
		CID: ctx.CID, Variant: rohcpacket.UO1IP,
		IPIDBits: ipidBits, SNBits: snBits, CRC: crcByte,
	})
}

// uorExtension carries the full-width SN (and, for RTP, TS) whenever the
// W-LSB-selected bit count would overflow what UOR-2's fixed fields hold.
// This trades RFC 3095's bit-exact Extension 0-3 layouts for one opaque
// overflow block; see the packet-format codec's doc comment for why.
func uorExtension(snK int, sn uint32, isRTP bool, tsK int, tsFull uint32) []byte {
	if snK <= 5 && (!isRTP || tsK <= 7) {
		return nil
	}
	ext := []byte{byte(sn >> 8), byte(sn)}
	if isRTP {
		ext = append(ext, byte(tsFull>>24), byte(tsFull>>16), byte(tsFull>>8), byte(tsFull))
	}
	return ext
}

func (ctx *Context) buildUOR2(static, dynamic []byte, sn uint32, snK int) ([]byte, error) {
	crcByte, err := ctx.computeCRC(crc.CRC7, static, dynamic)
	if err != nil {
		return nil, err
	}
	ext := uorExtension(snK, sn, false, 0, 0)
	return rohcpacket.BuildUOR2(rohcpacket.UOR2{
		CID: ctx.CID, Variant: rohcpacket.UOR2Plain,
		SNBits: uint8(sn & 0x1F), CRC: crcByte, Ext: ext,
	})
}

func (ctx *Context) buildUOR2RTP(static, dynamic []byte, sn uint32, snK int, tsWire uint32, tsK int, marker bool) ([]byte, error) {
	crcByte, err := ctx.computeCRC(crc.CRC7, static, dynamic)
	if err != nil {
		return nil, err
	}
	ext := uorExtension(snK, sn, true, tsK, tsWire)
	return rohcpacket.BuildUOR2(rohcpacket.UOR2{
		CID: ctx.CID, Variant: rohcpacket.UOR2RTP,
		SNBits: uint8(sn & 0x1F), TSBits: uint8(tsWire & 0x7F), Marker: marker,
		CRC: crcByte, Ext: ext,
	})
}

// ApplyFeedback reacts to a FEEDBACK-2 element the peer decompressor sent
// back (spec §4.5: NACK forces ->FO, STATIC-NACK forces ->IR).
func (ctx *Context) ApplyFeedback(ack feedback.AckType) {
	switch ack {
	case feedback.AckNACK:
		if ctx.State == StateSO {
			ctx.State = StateFO
			ctx.foCount = 0
		}
	case feedback.AckStaticNACK:
		ctx.State = StateIR
		ctx.irCount = 0
	}
}

// Counters reports the context's confidence counters, mostly useful for
// tests and diagnostics.
func (ctx *Context) Counters() (ir, fo, so int) {
	return ctx.irCount, ctx.foCount, ctx.soCount
}
