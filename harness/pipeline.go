package harness

import (
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/skyhook-net/rohc"
	"github.com/skyhook-net/rohc/feedback"
)

// DeliveryRecord describes what happened to one packet sent through a
// Pipeline, for test assertions and diagnostics.
type DeliveryRecord struct {
	Index      int
	PacketSize int
	WireSize   int
	Dropped    bool
	Err        error
}

// Pipeline carries packets from a Compressor to a Decompressor, optionally
// dropping specific send indices to simulate link loss, and records every
// attempt. It holds the feedback loop too: whatever the Decompressor queues
// is piggybacked onto the Compressor's next Send call automatically, the
// same reverse-direction wiring a real duplex link provides.
type Pipeline struct {
	mu sync.RWMutex

	comp   *rohc.Compressor
	decomp *rohc.Decompressor

	dropped map[int]bool
	sent    int
	log     []DeliveryRecord
}

// NewPipeline wires comp and decomp into a single-direction delivery path.
func NewPipeline(comp *rohc.Compressor, decomp *rohc.Decompressor) *Pipeline {
	return &Pipeline{
		comp:    comp,
		decomp:  decomp,
		dropped: make(map[int]bool),
	}
}

// DropAt marks zero-based send indices to be dropped before they reach the
// decompressor; the compressor still runs normally, so its context still
// advances as if the link were lossless.
func (p *Pipeline) DropAt(indices ...int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, i := range indices {
		p.dropped[i] = true
	}
}

// Send compresses packet, applies any configured drop for this send's
// index, and, unless dropped, feeds the wire bytes to the decompressor.
// Whatever feedback the decompressor now owes the peer is piggybacked onto
// this call's compressed output automatically and whatever feedback arrives
// embedded in the wire bytes is applied to the compressor's own contexts.
func (p *Pipeline) Send(packet []byte, now int) ([]byte, error) {
	p.mu.Lock()
	index := p.sent
	p.sent++
	drop := p.dropped[index]
	p.mu.Unlock()

	pending := p.decomp.DrainFeedback()
	wire, err := p.comp.Compress(packet, now, pending)
	if err != nil {
		p.record(DeliveryRecord{Index: index, PacketSize: len(packet), Err: err})
		return nil, err
	}

	if drop {
		logrus.WithFields(logrus.Fields{"index": index, "wire_size": len(wire)}).
			Warn("harness: dropping packet for simulated loss")
		p.record(DeliveryRecord{Index: index, PacketSize: len(packet), WireSize: len(wire), Dropped: true})
		return nil, nil
	}

	got, events, err := p.decomp.Decompress(wire)
	for _, ev := range events {
		p.comp.ApplyFeedback(ev.CID, ev.Ack)
	}
	p.record(DeliveryRecord{Index: index, PacketSize: len(packet), WireSize: len(wire), Err: err})
	return got, err
}

// SendRawWire feeds raw bytes directly to the decompressor, bypassing the
// compressor entirely. It exists for fuzz-style tests that want arbitrary,
// possibly malformed byte sequences reaching Decompress without a matching
// Compress call (spec §8 S6).
func (p *Pipeline) SendRawWire(wire []byte) ([]byte, []rohc.FeedbackEvent, error) {
	return p.decomp.Decompress(wire)
}

// ApplyFeedback exposes the compressor's feedback application directly, for
// tests that want to drive it without a full Send round trip.
func (p *Pipeline) ApplyFeedback(cid uint16, ack feedback.AckType) {
	p.comp.ApplyFeedback(cid, ack)
}

func (p *Pipeline) record(rec DeliveryRecord) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.log = append(p.log, rec)
}

// Log returns every delivery attempt recorded so far, oldest first.
func (p *Pipeline) Log() []DeliveryRecord {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make([]DeliveryRecord, len(p.log))
	copy(out, p.log)
	return out
}

// ClearLog discards every recorded delivery attempt without resetting the
// send counter or drop set.
func (p *Pipeline) ClearLog() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.log = nil
}
