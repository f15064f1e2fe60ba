package tsscaled

import (
	"fmt"

	"github.com/skyhook-net/rohc/bitio"
	"github.com/skyhook-net/rohc/wlsb"
)

// State is one of the three Scaled-TS encoder/decoder states (spec §4.4).
type State int

const (
	// StateInitTS means no usable stride has been established; the raw
	// timestamp is sent uncompressed (through W-LSB with a non-RTP shift).
	StateInitTS State = iota
	// StateInitStride means a candidate stride has been computed and must
	// be confirmed by OaRepetitions consecutive packets before the
	// compressor may start sending only TS_SCALED.
	StateInitStride
	// StateSendScaled means TS_SCALED is transmitted instead of the raw
	// timestamp.
	StateSendScaled
)

// DefaultOaRepetitions is the default number of times TS_STRIDE must be
// confirmed before entering StateSendScaled (spec §3 invariant 4, L=3).
const DefaultOaRepetitions = 3

// Encoding describes what a single Update call should cause the packet
// codec to transmit for the RTP timestamp field.
type Encoding struct {
	State     State
	K         int
	Bits      uint32
	Scaled    uint32 // the full TS_SCALED value, valid when State == StateSendScaled
	Stride    uint32 // valid when State == StateInitStride; TS_STRIDE to announce
	Offset    uint32 // valid alongside Stride; TS_OFFSET to announce
	Deducible bool   // true: decompressor can derive TS from SN alone, bits may be omitted
}

// Encoder implements the compressor side of the Scaled-TS state machine.
type Encoder struct {
	state         State
	width         int
	oaRepetitions int
	stride        uint32
	offset        uint32
	scaled        uint32

	haveOld bool
	oldTS   uint32
	oldSN   uint32

	strideRepeatCount int

	unscaledEnc *wlsb.Encoder // raw TS, shift -1 (non-RTP TS convention)
	scaledEnc   *wlsb.Encoder // TS_SCALED, RFC 4815 shift
}

// NewEncoder creates a Scaled-TS encoder. width is the bit width of the
// timestamp space (32 for RTP) and window is the W-LSB window width shared
// by both the unscaled and scaled sub-encoders.
func NewEncoder(width, window, oaRepetitions int) *Encoder {
	if oaRepetitions <= 0 {
		oaRepetitions = DefaultOaRepetitions
	}
	return &Encoder{
		width:         width,
		oaRepetitions: oaRepetitions,
		unscaledEnc:   wlsb.NewEncoder(width, wlsb.ConstantShift(-1), window),
		scaledEnc:     wlsb.NewEncoder(width, wlsb.RTPTimestampShift(), window),
	}
}

// Update feeds the next RTP (ts, sn) pair and returns the encoding to
// transmit. sn is the RTP sequence number, used both for window bookkeeping
// and for the SN-deducibility check.
func (e *Encoder) Update(ts, sn uint32) (Encoding, error) {
	if !e.haveOld {
		e.state = StateInitTS
		out, err := e.emitUnscaled(ts, sn)
		e.remember(ts, sn)
		return out, err
	}

	delta64 := int64(ts) - int64(e.oldTS)
	if delta64 <= 0 || uint64(delta64) > bitio.MaxSdvlValue {
		e.state = StateInitTS
		e.strideRepeatCount = 0
		out, err := e.emitUnscaled(ts, sn)
		e.remember(ts, sn)
		return out, err
	}
	delta := uint32(delta64)

	if e.state == StateInitTS || delta != e.stride {
		e.state = StateInitStride
		e.stride = delta
		e.strideRepeatCount = 0
	}

	var out Encoding
	var err error
	switch e.state {
	case StateInitStride:
		e.offset = ts % e.stride
		e.scaled = (ts - e.offset) / e.stride
		e.strideRepeatCount++
		out, err = e.emitUnscaled(ts, sn)
		out.Stride = e.stride
		out.Offset = e.offset
		if e.strideRepeatCount >= e.oaRepetitions {
			e.state = StateSendScaled
		}
	case StateSendScaled:
		if delta%e.stride != 0 {
			// Clock resync: the relationship between ts and stride broke.
			e.state = StateInitStride
			e.stride = delta
			e.strideRepeatCount = 0
			e.offset = ts % e.stride
			e.scaled = (ts - e.offset) / e.stride
			out, err = e.emitUnscaled(ts, sn)
			out.Stride = e.stride
			out.Offset = e.offset
			break
		}
		newScaled := (ts - e.offset) / e.stride
		scaledDelta := newScaled - e.scaled
		snDelta := sn - e.oldSN
		e.scaled = newScaled
		if scaledDelta == snDelta {
			out, err = e.emitScaled(newScaled, sn)
			out.Deducible = true
		} else {
			out, err = e.emitScaledFull(newScaled, sn)
		}
	default:
		err = fmt.Errorf("tsscaled: unreachable state %d", e.state)
	}

	e.remember(ts, sn)
	return out, err
}

func (e *Encoder) remember(ts, sn uint32) {
	e.haveOld = true
	e.oldTS = ts
	e.oldSN = sn
}

func (e *Encoder) emitUnscaled(ts, sn uint32) (Encoding, error) {
	k, bits, err := e.unscaledEnc.Encode(ts)
	if err != nil {
		return Encoding{}, err
	}
	e.unscaledEnc.Add(ts, sn)
	return Encoding{State: e.state, K: k, Bits: bits}, nil
}

func (e *Encoder) emitScaled(scaled, sn uint32) (Encoding, error) {
	k, bits, err := e.scaledEnc.Encode(scaled)
	if err != nil {
		return Encoding{}, err
	}
	e.scaledEnc.Add(scaled, sn)
	return Encoding{State: e.state, K: k, Bits: bits, Scaled: scaled}, nil
}

// emitScaledFull forces transmission of every TS_SCALED bit, per spec
// §4.4's "retransmit all TS bits for robustness" on an RTP TS jump.
func (e *Encoder) emitScaledFull(scaled, sn uint32) (Encoding, error) {
	e.scaledEnc.Add(scaled, sn)
	return Encoding{State: e.state, K: e.width, Bits: scaled, Scaled: scaled}, nil
}

// State reports the encoder's current state.
func (e *Encoder) State() State {
	return e.state
}

// Decoder implements the decompressor side of the Scaled-TS state machine.
// Unlike the encoder, it does not infer TS_STRIDE from deltas: the
// compressor announces TS_STRIDE/TS_OFFSET explicitly on the wire whenever
// it is in StateInitStride, and the decoder simply records it.
type Decoder struct {
	stride uint32
	offset uint32

	haveOld bool
	oldTS   uint32
	oldSN   uint32

	unscaledDec *wlsb.Decoder
	scaledDec   *wlsb.Decoder
}

// NewDecoder creates a Scaled-TS decoder seeded with the initial timestamp
// and sequence number established by the most recent IR.
func NewDecoder(width, window int, initialTS, initialSN uint32) *Decoder {
	return &Decoder{
		haveOld:     true,
		oldTS:       initialTS,
		oldSN:       initialSN,
		unscaledDec: wlsb.NewDecoder(width, wlsb.ConstantShift(-1), window, initialTS),
		scaledDec:   wlsb.NewDecoder(width, wlsb.RTPTimestampShift(), window, 0),
	}
}

// SetStride records a newly announced TS_STRIDE/TS_OFFSET pair.
func (d *Decoder) SetStride(stride, offset uint32) {
	d.stride = stride
	d.offset = offset
}

// DecodeUnscaled decodes a raw-timestamp field received while the
// compressor was in StateInitTS/StateInitStride.
func (d *Decoder) DecodeUnscaled(k int, bits uint32) (uint32, error) {
	return d.unscaledDec.Decode(k, bits)
}

// DecodeScaled decodes a TS_SCALED field and reconstructs the timestamp as
// offset + scaled*stride.
func (d *Decoder) DecodeScaled(k int, bits uint32) (uint32, error) {
	if d.stride == 0 {
		return 0, fmt.Errorf("tsscaled: DecodeScaled called before TS_STRIDE was announced")
	}
	scaled, err := d.scaledDec.Decode(k, bits)
	if err != nil {
		return 0, err
	}
	return d.offset + scaled*d.stride, nil
}

// DeduceFromSN reconstructs the timestamp from the SN delta alone, for
// packets where the compressor set the Deducible flag and omitted TS bits.
func (d *Decoder) DeduceFromSN(sn uint32) (uint32, error) {
	if d.stride == 0 {
		return 0, fmt.Errorf("tsscaled: DeduceFromSN called before TS_STRIDE was announced")
	}
	if !d.haveOld {
		return 0, fmt.Errorf("tsscaled: no reference timestamp to deduce from")
	}
	snDelta := sn - d.oldSN
	return d.oldTS + snDelta*d.stride, nil
}

// UpdateRef records a confirmed (ts, sn) pair as the new reference for both
// sub-decoders and the deducibility path.
func (d *Decoder) UpdateRef(ts, sn uint32) {
	d.unscaledDec.UpdateRef(ts)
	if d.stride != 0 {
		scaled := (ts - d.offset) / d.stride
		d.scaledDec.UpdateRef(scaled)
	}
	d.haveOld = true
	d.oldTS = ts
	d.oldSN = sn
}
