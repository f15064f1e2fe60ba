package decomp

import (
	"fmt"

	"github.com/skyhook-net/rohc/crc"
	"github.com/skyhook-net/rohc/ipheader"
	"github.com/skyhook-net/rohc/profile"
	"github.com/skyhook-net/rohc/rohcpacket"
	"github.com/skyhook-net/rohc/tsscaled"
	"github.com/skyhook-net/rohc/wlsb"
)

// State is one of the three decompressor context states (spec §4.8).
type State int

const (
	// StateNC (No Context) accepts only IR; nothing about the flow is
	// known yet.
	StateNC State = iota
	// StateSC (Static Context) trusts the static chain but not the
	// dynamic one; only IR or IR-DYN are accepted until a dynamic chain is
	// reconfirmed.
	StateSC
	// StateFC (Full Context) accepts any packet type.
	StateFC
)

func (s State) String() string {
	switch s {
	case StateNC:
		return "NC"
	case StateSC:
		return "SC"
	case StateFC:
		return "FC"
	default:
		return "unknown"
	}
}

// tsTrack mirrors the compressor-side scaled-TS state machine
// (tsscaled.Encoder.Update) on decoded, CRC-confirmed (ts, sn) pairs, since
// this packet set never puts TS_STRIDE/TS_OFFSET on the wire: both ends
// derive the same stride independently from the same observed sequence.
type tsTrack struct {
	state             tsscaled.State
	stride, offset    uint32
	scaled            uint32
	haveOld           bool
	oldTS, oldSN      uint32
	strideRepeatCount int
	oaRepetitions     int
}

func newTSTrack(oaRepetitions int) *tsTrack {
	if oaRepetitions <= 0 {
		oaRepetitions = tsscaled.DefaultOaRepetitions
	}
	return &tsTrack{oaRepetitions: oaRepetitions}
}

// observe folds a confirmed (ts, sn) pair into the tracker, advancing state
// exactly the way the encoder's Update does.
func (t *tsTrack) observe(ts, sn uint32) {
	if !t.haveOld {
		t.state = tsscaled.StateInitTS
		t.haveOld, t.oldTS, t.oldSN = true, ts, sn
		return
	}
	delta := ts - t.oldTS
	if int32(delta) <= 0 {
		t.state = tsscaled.StateInitTS
		t.strideRepeatCount = 0
		t.oldTS, t.oldSN = ts, sn
		return
	}
	if t.state == tsscaled.StateInitTS || delta != t.stride {
		t.state = tsscaled.StateInitStride
		t.stride = delta
		t.strideRepeatCount = 0
	}
	switch t.state {
	case tsscaled.StateInitStride:
		t.offset = ts % t.stride
		t.scaled = (ts - t.offset) / t.stride
		t.strideRepeatCount++
		if t.strideRepeatCount >= t.oaRepetitions {
			t.state = tsscaled.StateSendScaled
		}
	case tsscaled.StateSendScaled:
		if t.stride == 0 || delta%t.stride != 0 {
			t.state = tsscaled.StateInitStride
			t.stride = delta
			t.strideRepeatCount = 0
			t.offset = ts % t.stride
			t.scaled = (ts - t.offset) / t.stride
			break
		}
		t.scaled = (ts - t.offset) / t.stride
	}
	t.oldTS, t.oldSN = ts, sn
}

// Context is the per-CID decompressor state machine: the static reference
// chain, W-LSB/scaled-TS sub-decoders, and the current state.
type Context struct {
	CID     uint16
	CIDMode rohcpacket.CIDMode
	Profile profile.ID
	State   State

	cfg Config

	staticChain []byte
	lastChain   *ipheader.Chain

	snWidth int
	snDec   *wlsb.Decoder

	ipidDec *wlsb.Decoder

	isRTP bool
	tsDec *tsscaled.Decoder
	ts    *tsTrack

	failHistory []bool // true = success, bounded to cfg.DowngradeN

	// RepairCount counts successful CRC-guided repairs (spec §4.6/§8 S4).
	RepairCount int
}

// NewContext creates a fresh decompressor context in StateNC.
func NewContext(cid uint16, mode rohcpacket.CIDMode, id profile.ID, cfg Config) *Context {
	snWidth := 16
	if id == profile.ESP {
		snWidth = 32
	}
	return &Context{
		CID: cid, CIDMode: mode, Profile: id, State: StateNC,
		cfg: cfg, snWidth: snWidth, isRTP: id == profile.RTP,
	}
}

func (ctx *Context) hasWireSN() bool {
	return ctx.isRTP || ctx.Profile == profile.ESP
}

func (ctx *Context) computeCRC(kind crc.Kind, static, dynamic []byte) (byte, error) {
	buf := append(append([]byte{}, static...), dynamic...)
	return crc.ComputeDefault(kind, buf)
}

// Decompress parses and decodes one ROHC packet for this context, given
// its classified Kind and the bytes starting at the packet's first
// discriminator octet (any add-CID prefix already identified by the
// caller but still present in data, as the rohcpacket Parse functions
// expect). It returns the reconstructed header chain and the number of
// bytes consumed.
func (ctx *Context) Decompress(kind rohcpacket.Kind, data []byte) (*ipheader.Chain, int, error) {
	switch kind {
	case rohcpacket.KindIR:
		return ctx.decompressIR(data)
	case rohcpacket.KindIRDyn:
		return ctx.decompressIRDyn(data)
	case rohcpacket.KindUO0:
		return ctx.decompressUO0(data)
	case rohcpacket.KindUO1:
		return ctx.decompressUO1(data)
	case rohcpacket.KindUOR2:
		return ctx.decompressUOR2(data)
	default:
		return nil, 0, fmt.Errorf("decomp: cid %d: unsupported packet kind %v", ctx.CID, kind)
	}
}

func (ctx *Context) decompressIR(data []byte) (*ipheader.Chain, int, error) {
	ir, n, err := rohcpacket.ParseIR(data, ctx.CIDMode)
	if err != nil {
		return nil, 0, err
	}
	if profile.ID(ir.Profile) != ctx.Profile {
		return nil, 0, fmt.Errorf("decomp: cid %d: IR profile %d does not match context profile %s", ctx.CID, ir.Profile, ctx.Profile)
	}

	hasUDP, hasESP, hasRTP, udpLite := profile.Shape(ctx.Profile)
	chain, _, err := ipheader.DecodeStaticBytes(ir.StaticChain, hasUDP, hasESP, hasRTP, udpLite)
	if err != nil {
		return nil, 0, err
	}
	if ir.Dynamic {
		if _, err := ipheader.DecodeDynamicBytes(ir.DynamicChain, chain); err != nil {
			return nil, 0, err
		}
	}

	crcByte, err := ctx.computeCRC(crc.CRC8, ir.StaticChain, ir.DynamicChain)
	if err != nil {
		return nil, 0, err
	}
	if crcByte != ir.CRC {
		ctx.recordOutcome(false)
		return nil, 0, fmt.Errorf("%w: IR header crc mismatch", ErrCrcMismatch)
	}

	ctx.staticChain = ir.StaticChain
	ctx.lastChain = chain
	ctx.seedDecoders(chain)
	// An IR carries both chains at once: there is nothing left for SC to
	// confirm, so a verified IR jumps straight to full context.
	ctx.State = StateFC
	ctx.recordOutcome(true)
	return chain, n, nil
}

func (ctx *Context) decompressIRDyn(data []byte) (*ipheader.Chain, int, error) {
	if ctx.State == StateNC {
		return nil, 0, fmt.Errorf("decomp: cid %d: IR-DYN received before any IR established static context", ctx.CID)
	}
	p, n, err := rohcpacket.ParseIRDyn(data, ctx.CIDMode)
	if err != nil {
		return nil, 0, err
	}
	if profile.ID(p.Profile) != ctx.Profile {
		return nil, 0, fmt.Errorf("decomp: cid %d: IR-DYN profile %d does not match context profile %s", ctx.CID, p.Profile, ctx.Profile)
	}

	chain := cloneChain(ctx.lastChain)
	if _, err := ipheader.DecodeDynamicBytes(p.DynamicChain, chain); err != nil {
		return nil, 0, err
	}

	crcByte, err := ctx.computeCRC(crc.CRC8, ctx.staticChain, p.DynamicChain)
	if err != nil {
		return nil, 0, err
	}
	if crcByte != p.CRC {
		ctx.recordOutcome(false)
		return nil, 0, fmt.Errorf("%w: IR-DYN header crc mismatch", ErrCrcMismatch)
	}

	ctx.lastChain = chain
	ctx.seedDecoders(chain)
	ctx.State = StateFC
	ctx.recordOutcome(true)
	return chain, n, nil
}

// seedDecoders (re)establishes every sub-decoder's reference from a
// just-confirmed chain, the decompressor-side mirror of what Reset+Add
// does on the compressor after an IR/IR-DYN.
func (ctx *Context) seedDecoders(chain *ipheader.Chain) {
	sn, haveSN := ctx.wireSN(chain)
	if haveSN {
		ctx.snDec = wlsb.NewDecoder(ctx.snWidth, wlsb.ConstantShift(0), ctx.cfg.WlsbWindow, sn)
	}
	if chain.V4 != nil {
		ctx.ipidDec = wlsb.NewDecoder(16, wlsb.ConstantShift(0), ctx.cfg.WlsbWindow, uint32(chain.V4.ID))
	}
	if ctx.isRTP {
		ctx.tsDec = tsscaled.NewDecoder(32, ctx.cfg.WlsbWindow, chain.RTP.Timestamp, uint32(chain.RTP.SequenceNumber))
		ctx.ts = newTSTrack(ctx.cfg.OaRepetitions)
		ctx.ts.observe(chain.RTP.Timestamp, uint32(chain.RTP.SequenceNumber))
	}
}

// wireSN extracts the sequence value a dynamic chain carries for this
// context's profile, if any.
func (ctx *Context) wireSN(chain *ipheader.Chain) (uint32, bool) {
	switch ctx.Profile {
	case profile.RTP:
		return uint32(chain.RTP.SequenceNumber), true
	case profile.ESP:
		return chain.ESP.SN, true
	default:
		return 0, false
	}
}

func cloneChain(c *ipheader.Chain) *ipheader.Chain {
	out := &ipheader.Chain{}
	if c.V4 != nil {
		v4 := *c.V4
		out.V4 = &v4
	}
	if c.V6 != nil {
		v6 := *c.V6
		out.V6 = &v6
	}
	if c.UDP != nil {
		u := *c.UDP
		out.UDP = &u
	}
	if c.ESP != nil {
		e := *c.ESP
		out.ESP = &e
	}
	if c.RTP != nil {
		r := *c.RTP
		r.CSRC = append([]uint32(nil), c.RTP.CSRC...)
		out.RTP = &r
	}
	out.Extensions = append([]ipheader.Extension(nil), c.Extensions...)
	return out
}

// candidate is a reconstructed set of per-packet field values a UO-0/UO-1
// /UOR-2 packet names, prior to CRC confirmation.
type candidate struct {
	sn     uint32
	ipid   *uint32
	ts     *uint32
	marker *bool
}

func (ctx *Context) reconstruct(c candidate) (*ipheader.Chain, error) {
	if ctx.lastChain == nil {
		return nil, fmt.Errorf("decomp: cid %d: no reference chain to reconstruct from", ctx.CID)
	}
	chain := cloneChain(ctx.lastChain)
	switch ctx.Profile {
	case profile.RTP:
		chain.RTP.SequenceNumber = uint16(c.sn)
		if c.ts != nil {
			chain.RTP.Timestamp = *c.ts
		}
		if c.marker != nil {
			chain.RTP.Marker = *c.marker
		}
	case profile.ESP:
		chain.ESP.SN = c.sn
	default:
		return nil, fmt.Errorf("decomp: cid %d: profile %s has no wire sequence field", ctx.CID, ctx.Profile)
	}
	if c.ipid != nil && chain.V4 != nil {
		chain.V4.ID = uint16(*c.ipid)
	}
	return chain, nil
}

func (ctx *Context) verify(kind crc.Kind, chain *ipheader.Chain, wantCRC uint8) (bool, error) {
	got, err := ctx.computeCRC(kind, ctx.staticChain, ipheader.DynamicBytes(chain))
	if err != nil {
		return false, err
	}
	return got == wantCRC, nil
}

// repair retries decode against a small set of neighboring SN candidates
// when the W-LSB-resolved SN failed CRC, per spec §4.8's CRC-guided repair:
// a single lost packet shifts every subsequent W-LSB reference by exactly
// its own SN delta, so +-1/+-2 covers the overwhelmingly common case.
func (ctx *Context) repair(kind crc.Kind, sn uint32, build func(sn uint32) (*ipheader.Chain, error), wantCRC uint8) (*ipheader.Chain, bool, error) {
	if !ctx.cfg.CRCRepair {
		return nil, false, nil
	}
	for _, delta := range []int64{1, -1, 2, -2} {
		cand := uint32(int64(sn) + delta)
		chain, err := build(cand)
		if err != nil {
			continue
		}
		ok, err := ctx.verify(kind, chain, wantCRC)
		if err != nil {
			return nil, false, err
		}
		if ok {
			return chain, true, nil
		}
	}
	return nil, false, nil
}

func (ctx *Context) decompressUO0(data []byte) (*ipheader.Chain, int, error) {
	if ctx.State != StateFC {
		return nil, 0, fmt.Errorf("decomp: cid %d: UO-0 requires full context", ctx.CID)
	}
	p, n, err := rohcpacket.ParseUO0(data)
	if err != nil {
		return nil, 0, err
	}
	sn, err := ctx.snDec.Decode(4, uint32(p.SNBits))
	if err != nil {
		return nil, 0, err
	}

	build := func(sn uint32) (*ipheader.Chain, error) {
		c := candidate{sn: sn}
		if ctx.isRTP {
			ts, err := ctx.tsDec.DeduceFromSN(sn)
			if err != nil {
				return nil, err
			}
			c.ts = &ts
		}
		return ctx.reconstruct(c)
	}

	chain, err := build(sn)
	if err != nil {
		return nil, 0, err
	}
	ok, err := ctx.verify(crc.CRC3, chain, p.CRC)
	if err != nil {
		return nil, 0, err
	}
	if !ok {
		repaired, found, err := ctx.repair(crc.CRC3, sn, build, p.CRC)
		if err != nil {
			return nil, 0, err
		}
		if !found {
			ctx.recordOutcome(false)
			return nil, 0, fmt.Errorf("%w: UO-0 crc mismatch", ErrCrcMismatch)
		}
		ctx.RepairCount++
		chain = repaired
		sn = ctx.lastSNFromChain(chain)
	}

	ctx.confirm(chain, sn)
	return chain, n, nil
}

func (ctx *Context) decompressUO1(data []byte) (*ipheader.Chain, int, error) {
	if ctx.State != StateFC {
		return nil, 0, fmt.Errorf("decomp: cid %d: UO-1 requires full context", ctx.CID)
	}
	variant := rohcpacket.UO1IP
	if ctx.isRTP {
		variant = rohcpacket.UO1RTP
	}
	p, n, err := rohcpacket.ParseUO1(data, variant, 0)
	if err != nil {
		return nil, 0, err
	}

	snWidth := 5
	if ctx.isRTP {
		snWidth = 4
	}
	sn, err := ctx.snDec.Decode(snWidth, uint32(p.SNBits))
	if err != nil {
		return nil, 0, err
	}

	var build func(sn uint32) (*ipheader.Chain, error)
	if ctx.isRTP {
		ts, err := ctx.decodeTS(6, uint32(p.TSBits))
		if err != nil {
			return nil, 0, err
		}
		marker := p.Marker
		build = func(sn uint32) (*ipheader.Chain, error) {
			return ctx.reconstruct(candidate{sn: sn, ts: &ts, marker: &marker})
		}
	} else {
		ipid, err := ctx.ipidDec.Decode(6, uint32(p.IPIDBits))
		if err != nil {
			return nil, 0, err
		}
		build = func(sn uint32) (*ipheader.Chain, error) {
			return ctx.reconstruct(candidate{sn: sn, ipid: &ipid})
		}
	}

	chain, err := build(sn)
	if err != nil {
		return nil, 0, err
	}
	ok, err := ctx.verify(crc.CRC3, chain, p.CRC)
	if err != nil {
		return nil, 0, err
	}
	if !ok {
		repaired, found, err := ctx.repair(crc.CRC3, sn, build, p.CRC)
		if err != nil {
			return nil, 0, err
		}
		if !found {
			ctx.recordOutcome(false)
			return nil, 0, fmt.Errorf("%w: UO-1 crc mismatch", ErrCrcMismatch)
		}
		ctx.RepairCount++
		chain = repaired
		sn = ctx.lastSNFromChain(chain)
	}

	ctx.confirm(chain, sn)
	return chain, n, nil
}

// uorExtLen returns the fixed overflow-carry length uorExtension (the
// compressor's packet-builder helper) uses for this context's profile: 2
// bytes of SN-only carry, or 2+4 bytes of SN+TS carry for RTP.
func (ctx *Context) uorExtLen() int {
	if ctx.isRTP {
		return 6
	}
	return 2
}

func (ctx *Context) decompressUOR2(data []byte) (*ipheader.Chain, int, error) {
	if ctx.State != StateFC {
		return nil, 0, fmt.Errorf("decomp: cid %d: UOR-2 requires full context", ctx.CID)
	}
	variant := rohcpacket.UOR2Plain
	if ctx.isRTP {
		variant = rohcpacket.UOR2RTP
	}
	p, n, err := rohcpacket.ParseUOR2(data, variant, ctx.uorExtLen())
	if err != nil {
		return nil, 0, err
	}

	sn := uint32(p.SNBits)
	if len(p.Ext) >= 2 {
		sn = uint32(p.Ext[0])<<8 | uint32(p.Ext[1])
	} else {
		sn, err = ctx.snDec.Decode(5, sn)
		if err != nil {
			return nil, 0, err
		}
	}

	var build func(sn uint32) (*ipheader.Chain, error)
	if ctx.isRTP {
		var ts uint32
		if len(p.Ext) >= 6 {
			ts = uint32(p.Ext[2])<<24 | uint32(p.Ext[3])<<16 | uint32(p.Ext[4])<<8 | uint32(p.Ext[5])
		} else {
			ts, err = ctx.decodeTS(7, uint32(p.TSBits))
			if err != nil {
				return nil, 0, err
			}
		}
		marker := p.Marker
		build = func(sn uint32) (*ipheader.Chain, error) {
			return ctx.reconstruct(candidate{sn: sn, ts: &ts, marker: &marker})
		}
	} else {
		build = func(sn uint32) (*ipheader.Chain, error) {
			return ctx.reconstruct(candidate{sn: sn})
		}
	}

	chain, err := build(sn)
	if err != nil {
		return nil, 0, err
	}
	ok, err := ctx.verify(crc.CRC7, chain, p.CRC)
	if err != nil {
		return nil, 0, err
	}
	if !ok {
		repaired, found, err := ctx.repair(crc.CRC7, sn, build, p.CRC)
		if err != nil {
			return nil, 0, err
		}
		if !found {
			ctx.recordOutcome(false)
			return nil, 0, fmt.Errorf("%w: UOR-2 crc mismatch", ErrCrcMismatch)
		}
		ctx.RepairCount++
		chain = repaired
		sn = ctx.lastSNFromChain(chain)
	}

	ctx.confirm(chain, sn)
	return chain, n, nil
}

// decodeTS resolves a k-bit TS field according to the locally-tracked
// scaled-TS state: raw W-LSB while no stride is confirmed yet, or
// TS_SCALED once ctx.ts has seen OaRepetitions consecutive matching
// deltas.
func (ctx *Context) decodeTS(k int, bits uint32) (uint32, error) {
	if ctx.ts != nil && ctx.ts.state == tsscaled.StateSendScaled {
		return ctx.tsDec.DecodeScaled(k, bits)
	}
	return ctx.tsDec.DecodeUnscaled(k, bits)
}

// lastSNFromChain recovers the SN a successful repair candidate used, from
// whichever field carries it for this profile.
func (ctx *Context) lastSNFromChain(chain *ipheader.Chain) uint32 {
	sn, _ := ctx.wireSN(chain)
	return sn
}

// confirm accepts chain as the new reference, advancing every sub-decoder
// and the confidence bookkeeping.
func (ctx *Context) confirm(chain *ipheader.Chain, sn uint32) {
	ctx.lastChain = chain
	if ctx.snDec != nil {
		ctx.snDec.UpdateRef(sn)
	}
	if ctx.ipidDec != nil && chain.V4 != nil {
		ctx.ipidDec.UpdateRef(uint32(chain.V4.ID))
	}
	if ctx.isRTP {
		ctx.ts.observe(chain.RTP.Timestamp, sn)
		if ctx.ts.stride != 0 {
			ctx.tsDec.SetStride(ctx.ts.stride, ctx.ts.offset)
		}
		ctx.tsDec.UpdateRef(chain.RTP.Timestamp, sn)
	}
	ctx.recordOutcome(true)
}

// recordOutcome folds a packet's CRC verdict into the bounded failure
// window and downgrades state once cfg.DowngradeK of the last
// cfg.DowngradeN outcomes failed (spec §4.8).
func (ctx *Context) recordOutcome(success bool) {
	n := ctx.cfg.DowngradeN
	if n <= 0 {
		n = 1
	}
	ctx.failHistory = append(ctx.failHistory, success)
	if len(ctx.failHistory) > n {
		ctx.failHistory = ctx.failHistory[len(ctx.failHistory)-n:]
	}
	if !success {
		failures := 0
		for _, ok := range ctx.failHistory {
			if !ok {
				failures++
			}
		}
		if failures >= ctx.cfg.DowngradeK {
			ctx.downgrade()
		}
	}
}

// downgrade drops the context one state down (FC->SC->NC) and clears the
// failure window, matching the compressor's analogous per-state counter
// reset on a transition.
func (ctx *Context) downgrade() {
	switch ctx.State {
	case StateFC:
		ctx.State = StateSC
	case StateSC:
		ctx.State = StateNC
	}
	ctx.failHistory = nil
}
