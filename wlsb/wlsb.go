package wlsb

import (
	"errors"
	"fmt"
)

// ErrAmbiguous indicates the codec was asked to decode against a
// zero-width value space, which would make the interpretation interval
// empty. Genuine callers never hit this; it guards misuse.
var ErrAmbiguous = errors.New("wlsb: ambiguous decode (degenerate interval)")

// ErrOutOfRange indicates the decoded value could not be resolved within
// the reference window, meaning the reference has drifted too far from the
// sender for the received k to disambiguate it (i.e. too many packets were
// lost for this window width).
var ErrOutOfRange = errors.New("wlsb: value out of interpretation range")

// ShiftFunc computes the interpretation-interval shift parameter p for a
// given candidate bit count k. Most profiles use a constant shift; the RTP
// timestamp profile's shift depends on k (RFC 4815).
type ShiftFunc func(k int) int

// ConstantShift returns a ShiftFunc that ignores k and always returns p.
func ConstantShift(p int) ShiftFunc {
	return func(int) int { return p }
}

// RTPTimestampShift implements the RFC 4815 p = 2^(k-2) - 1 shift used for
// RTP timestamps, falling back to 0 for k < 2 where the formula would be
// negative.
func RTPTimestampShift() ShiftFunc {
	return func(k int) int {
		if k < 2 {
			return 0
		}
		return (1 << uint(k-2)) - 1
	}
}

type refEntry struct {
	value uint32
	sn    uint32
}

// Encoder holds the compressor side of the W-LSB window: the most recent W
// (reference, sn) pairs not yet acknowledged as received.
type Encoder struct {
	width  int // n: value space is Z/2^width Z
	shift  ShiftFunc
	window int // W: maximum number of tracked references
	refs   []refEntry
}

// NewEncoder creates an encoder for values modulo 2^width, using shift for
// the interpretation interval and keeping at most window references.
func NewEncoder(width int, shift ShiftFunc, window int) *Encoder {
	return &Encoder{width: width, shift: shift, window: window}
}

func (e *Encoder) mod() uint64 {
	return uint64(1) << uint(e.width)
}

// Add records a newly transmitted (value, sn) pair as a reference the next
// Encode call must remain decodable against. Older entries are evicted once
// the window exceeds its configured width, and entries more than 2^width/2
// sequence numbers behind the newest are purged regardless of count (spec
// §4.3's "purges entries older than the newest sn minus 2^n/2").
func (e *Encoder) Add(value, sn uint32) {
	e.refs = append(e.refs, refEntry{value: value, sn: sn})
	if len(e.refs) > e.window {
		e.refs = e.refs[len(e.refs)-e.window:]
	}
	half := uint32(e.mod() / 2)
	kept := e.refs[:0]
	for _, r := range e.refs {
		if sn-r.sn <= half {
			kept = append(kept, r)
		}
	}
	e.refs = kept
}

// Reset clears all tracked references, e.g. after an IR packet re-syncs the
// context and the window should start fresh from the new reference.
func (e *Encoder) Reset() {
	e.refs = nil
}

// Encode returns the minimum k in [0, width] such that the interpretation
// interval built from every tracked reference (using k's shift) covers v,
// along with the low k bits of v. With no reference tracked yet, every bit
// of v is sent (k = width).
func (e *Encoder) Encode(v uint32) (k int, bits uint32, err error) {
	if len(e.refs) == 0 {
		return e.width, v, nil
	}
	mod := e.mod()
	for k = 0; k <= e.width; k++ {
		if e.coversAll(v, k, mod) {
			bits := uint32(uint64(v) & (uint64(1)<<uint(k) - 1))
			if k == e.width {
				bits = v
			}
			return k, bits, nil
		}
	}
	return e.width, v, nil
}

func (e *Encoder) coversAll(v uint32, k int, mod uint64) bool {
	p := e.shift(k)
	size := uint64(1) << uint(k)
	for _, r := range e.refs {
		if !inInterval(uint64(r.value), uint64(v), p, size, mod) {
			return false
		}
	}
	return true
}

// inInterval reports whether target lies in the modular interval
// [ref - p, ref + size - 1 - p] mod `mod`.
func inInterval(ref, target uint64, p int, size, mod uint64) bool {
	low := modSub(ref, p, mod)
	high := (low + size - 1) % mod
	if low <= high {
		return target >= low && target <= high
	}
	return target >= low || target <= high
}

// modSub computes (a - p) mod m for a in [0, m) and p possibly negative,
// returning a value in [0, m).
func modSub(a uint64, p int, m uint64) uint64 {
	if p >= 0 {
		d := uint64(p) % m
		if a >= d {
			return a - d
		}
		return a + m - d
	}
	return (a + uint64(-p)) % m
}

// Decoder holds the decompressor side: a single current reference value
// plus a bounded trace of recently-confirmed values (spec §3 invariant 2).
type Decoder struct {
	width  int
	shift  ShiftFunc
	window int
	trace  []uint32
}

// NewDecoder creates a decoder for values modulo 2^width with an initial
// reference value (typically established by the most recent IR).
func NewDecoder(width int, shift ShiftFunc, window int, initial uint32) *Decoder {
	return &Decoder{width: width, shift: shift, window: window, trace: []uint32{initial}}
}

func (d *Decoder) mod() uint64 {
	return uint64(1) << uint(d.width)
}

// Ref returns the current reference value (the most recently confirmed
// value, v_ref_d in spec §4.3).
func (d *Decoder) Ref() uint32 {
	return d.trace[len(d.trace)-1]
}

// UpdateRef records a newly confirmed value as the new reference, evicting
// the oldest trace entry once the bounded window is exceeded.
func (d *Decoder) UpdateRef(v uint32) {
	d.trace = append(d.trace, v)
	if len(d.trace) > d.window {
		d.trace = d.trace[len(d.trace)-d.window:]
	}
}

// Decode resolves the unique value v such that v mod 2^k == m and v falls
// within the interpretation interval built around the current reference.
func (d *Decoder) Decode(k int, m uint32) (uint32, error) {
	if d.width == 0 {
		return 0, ErrAmbiguous
	}
	if k < 0 || k > d.width {
		return 0, fmt.Errorf("wlsb: invalid k=%d for width=%d", k, d.width)
	}
	mod := d.mod()
	if k == d.width {
		return m, nil
	}
	p := d.shift(k)
	low := modSub(uint64(d.Ref()), p, mod)
	size := uint64(1) << uint(k)
	maskedLow := low & (size - 1)
	offset := (uint64(m) - maskedLow + size) % size
	candidate := (low + offset) % mod
	return uint32(candidate), nil
}
