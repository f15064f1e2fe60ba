package decomp

import (
	"fmt"

	"github.com/skyhook-net/rohc/feedback"
	"github.com/skyhook-net/rohc/interfaces"
	"github.com/skyhook-net/rohc/ipheader"
	"github.com/skyhook-net/rohc/profile"
	"github.com/skyhook-net/rohc/rohcpacket"
)

// ErrNoContext and ErrUnknownProfile are returned when a packet names a CID
// this endpoint has no context for, or an IR names a profile the registry
// does not recognize (spec §7).
var (
	ErrNoContext      = fmt.Errorf("decomp: no context for cid")
	ErrUnknownProfile = fmt.Errorf("decomp: unknown profile")
)

// Decompressor owns one endpoint's decompressor-side contexts: a shared,
// immutable profile registry and one Context per CID a peer compressor has
// established. Like comp.Compressor, it is not internally parallel (spec
// §5): the caller must serialize all calls against a single instance.
type Decompressor struct {
	registry *profile.Registry
	cidMode  rohcpacket.CIDMode
	cfg      Config
	trace    interfaces.TraceSink
	rng      interfaces.RandomSource

	contexts map[uint16]*Context
	pending  *feedback.Buffer
}

// New creates a Decompressor. registry must already be sealed.
func New(registry *profile.Registry, mode rohcpacket.CIDMode, cfg Config, trace interfaces.TraceSink, rng interfaces.RandomSource) *Decompressor {
	if trace == nil {
		trace = interfaces.NopTraceSink{}
	}
	if cfg.FeedbackBufferCap <= 0 {
		cfg.FeedbackBufferCap = 16
	}
	return &Decompressor{
		registry: registry,
		cidMode:  mode,
		cfg:      cfg,
		trace:    trace,
		rng:      rng,
		contexts: make(map[uint16]*Context),
		pending:  feedback.NewBuffer(cfg.FeedbackBufferCap),
	}
}

// classify peeks the CID and packet Kind at the front of data without
// fully parsing it, except for IR/IR-DYN under LargeCID mode, where the CID
// is only recoverable by parsing the whole fixed header (spec §4.7's CID
// placement: "after add-CID octet, before profile-specific content" for
// small CIDs; embedded right after the first discriminator octet for
// large CIDs). IR/IR-DYN are the only packet types in this set with a
// large-CID wire form at all: rohcpacket.BuildUO0/BuildUO1/BuildUOR2 have
// none, and the compressor enforces this by never selecting them for a
// LargeCID context (comp.Context.Compress), so a LargeCID flow is always
// IR or IR-DYN on the wire.
func (d *Decompressor) classify(data []byte) (rohcpacket.Kind, uint16, error) {
	if len(data) == 0 {
		return 0, 0, fmt.Errorf("decomp: empty packet")
	}
	offset := 0
	var cid uint16
	if c, ok := rohcpacket.IsAddCID(data[0]); ok {
		cid = uint16(c)
		offset = 1
	}
	if offset >= len(data) {
		return 0, 0, fmt.Errorf("decomp: packet ends after add-CID octet")
	}
	kind := rohcpacket.ClassifyKind(data[offset])

	if d.cidMode == rohcpacket.LargeCID && offset == 0 {
		switch kind {
		case rohcpacket.KindIR:
			ir, _, err := rohcpacket.ParseIR(data, d.cidMode)
			if err != nil {
				return 0, 0, err
			}
			cid = ir.CID
		case rohcpacket.KindIRDyn:
			p, _, err := rohcpacket.ParseIRDyn(data, d.cidMode)
			if err != nil {
				return 0, 0, err
			}
			cid = p.CID
		}
	}
	return kind, cid, nil
}

// Decompress decodes one ROHC packet, which must not be an MRRU segment
// (the caller - the root endpoint - is responsible for reassembly before
// routing bytes here; spec §6). It returns the reconstructed uncompressed
// packet.
func (d *Decompressor) Decompress(data []byte) ([]byte, error) {
	kind, cid, err := d.classify(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	ctx, ok := d.contexts[cid]
	if !ok {
		if kind != rohcpacket.KindIR {
			d.trace.Trace(2, cid, fmt.Sprintf("decompressor: non-IR packet for unknown cid %d", cid))
			if d.cfg.Mode != ModeU {
				d.queueFeedback(cid, feedback.AckStaticNACK, 0)
			}
			return nil, fmt.Errorf("%w: cid %d", ErrNoContext, cid)
		}
		profID, ok := d.profileForIR(data)
		if !ok {
			return nil, fmt.Errorf("%w: ir names unregistered profile for cid %d", ErrUnknownProfile, cid)
		}
		ctx = NewContext(cid, d.cidMode, profID, d.cfg)
		d.contexts[cid] = ctx
		d.trace.Trace(0, cid, fmt.Sprintf("decompressor: created context cid=%d profile=%s", cid, profID))
	}

	chain, n, err := ctx.Decompress(kind, data)
	if err != nil {
		d.afterFailure(ctx)
		return nil, err
	}

	out, err := ipheader.Build(chain, len(data)-n)
	if err != nil {
		return nil, err
	}
	out = append(out, data[n:]...)

	d.afterSuccess(ctx, cid)
	d.trace.Trace(0, cid, fmt.Sprintf("decompressor: cid=%d state=%s accepted %d-byte %s", cid, ctx.State, n, kind))
	return out, nil
}

// profileForIR reads only as much of an IR as needed to learn its profile
// ID, leaving the full parse (and CRC check) to the newly created Context.
func (d *Decompressor) profileForIR(data []byte) (profile.ID, bool) {
	ir, _, err := rohcpacket.ParseIR(data, d.cidMode)
	if err != nil {
		return 0, false
	}
	id := profile.ID(ir.Profile)
	if _, ok := d.registry.ByID(id); !ok {
		return 0, false
	}
	return id, true
}

// afterSuccess emits an ACK per spec §4.6's bidirectional feedback policy
// once a packet was accepted.
func (d *Decompressor) afterSuccess(ctx *Context, cid uint16) {
	switch d.cfg.Mode {
	case ModeR:
		d.queueFeedback(cid, feedback.AckACK, ctx.lastSN())
	case ModeO:
		if d.rng != nil && d.rng.Float64() < d.cfg.AckProbability {
			d.queueFeedback(cid, feedback.AckACK, ctx.lastSN())
		}
	}
}

// afterFailure emits NACK or STATIC-NACK once a packet failed CRC, per spec
// §4.6/§4.8 (bidirectional modes only): STATIC-NACK once the context has
// nothing left to fall back on (NC), NACK while dynamic resync alone might
// still recover it (SC/FC).
func (d *Decompressor) afterFailure(ctx *Context) {
	if d.cfg.Mode == ModeU {
		return
	}
	if ctx.State == StateNC {
		d.queueFeedback(ctx.CID, feedback.AckStaticNACK, ctx.lastSN())
		return
	}
	d.queueFeedback(ctx.CID, feedback.AckNACK, ctx.lastSN())
}

func (d *Decompressor) modeByte() uint8 {
	switch d.cfg.Mode {
	case ModeO:
		return 1
	case ModeR:
		return 2
	default:
		return 0
	}
}

// queueFeedback builds a FEEDBACK-2 element and pushes it onto the pending
// FIFO (spec §4.9: full buffer drops the newest element).
func (d *Decompressor) queueFeedback(cid uint16, ack feedback.AckType, sn uint32) {
	fb := feedback.Feedback2{Ack: ack, Mode: d.modeByte(), SN: sn, SNWidth: 16, HasCRC: true}
	raw, err := fb.Marshal()
	if err != nil {
		d.trace.Trace(2, cid, fmt.Sprintf("decompressor: failed to build feedback: %v", err))
		return
	}
	if !d.pending.Push(feedback.Pending{CID: cid, Data: raw}) {
		d.trace.Trace(2, cid, "decompressor: pending feedback buffer full, dropping")
	}
}

// DrainFeedback removes and returns every queued feedback element, oldest
// first, for the caller (the root endpoint) to piggyback onto the next
// compressed packet travelling the reverse direction.
func (d *Decompressor) DrainFeedback() []feedback.Pending {
	return d.pending.DrainAll()
}

// Context returns the context for cid, if any, mostly for tests and
// diagnostics.
func (d *Decompressor) Context(cid uint16) (*Context, bool) {
	ctx, ok := d.contexts[cid]
	return ctx, ok
}

// ContextCount reports how many CIDs currently hold a context.
func (d *Decompressor) ContextCount() int {
	return len(d.contexts)
}

// lastSN reports the sequence number of the most recently confirmed chain,
// for attaching to outgoing feedback; 0 for profiles with no wire SN field.
func (ctx *Context) lastSN() uint32 {
	if ctx.lastChain == nil {
		return 0
	}
	sn, _ := ctx.wireSN(ctx.lastChain)
	return sn
}
