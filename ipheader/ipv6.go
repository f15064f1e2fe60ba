package ipheader

import (
	"encoding/binary"
	"fmt"
)

// Next-header values for the extension types the walker understands.
// Anything else is treated as an upper-layer protocol and ends the chain.
const (
	NextHopByHop  = 0
	NextRouting   = 43
	NextFragment  = 44
	NextDestOpts  = 60
	NextAuth      = 51
	NextESP       = 50
	NextNoNext    = 59
	NextUDP       = 17
	NextUDPLite   = 136
	ipv6FixedSize = 40
)

// IPv6 holds the fixed 40-byte IPv6 header fields ROHC tracks: the static
// chain (version, flow label, addresses) and the dynamic chain (traffic
// class, hop limit).
type IPv6 struct {
	TrafficClass uint8
	FlowLabel    uint32 // 20 bits significant
	NextHeader   uint8  // first next-header value, before extension walking
	HopLimit     uint8
	Src          [16]byte
	Dst          [16]byte
}

// Extension describes one extension header found while walking an IPv6
// chain: its next-header type, its byte offset within the packet, and its
// total length including its own next-header and length octets.
type Extension struct {
	Type   uint8
	Offset int
	Length int
	Raw    []byte
}

// ParseIPv6 reads the fixed IPv6 header from the start of data.
func ParseIPv6(data []byte) (*IPv6, error) {
	if len(data) < ipv6FixedSize {
		return nil, fmt.Errorf("%w: buffer shorter than fixed IPv6 header", ErrMalformed)
	}
	if data[0]>>4 != 6 {
		return nil, fmt.Errorf("%w: version field is not 6", ErrMalformed)
	}
	vtf := binary.BigEndian.Uint32(data[0:4])
	h := &IPv6{
		TrafficClass: uint8((vtf >> 20) & 0xFF),
		FlowLabel:    vtf & 0x000FFFFF,
		NextHeader:   data[6],
		HopLimit:     data[7],
	}
	copy(h.Src[:], data[8:24])
	copy(h.Dst[:], data[24:40])
	return h, nil
}

// Marshal rebuilds the fixed 40-byte IPv6 header. payloadLen is the total
// length of everything after the fixed header, including extension headers.
func (h *IPv6) Marshal(payloadLen int) []byte {
	out := make([]byte, ipv6FixedSize)
	vtf := uint32(6)<<28 | uint32(h.TrafficClass)<<20 | (h.FlowLabel & 0x000FFFFF)
	binary.BigEndian.PutUint32(out[0:4], vtf)
	binary.BigEndian.PutUint16(out[4:6], uint16(payloadLen))
	out[6] = h.NextHeader
	out[7] = h.HopLimit
	copy(out[8:24], h.Src[:])
	copy(out[24:40], h.Dst[:])
	return out
}

// WalkExtensions follows the IPv6 next-header chain starting at the fixed
// header's NextHeader value, stopping at the first non-extension type (an
// upper-layer protocol) or at NextNoNext. Every step is bounds-checked
// against the length of data: a truncated or self-overlapping extension
// chain returns ErrMalformed rather than reading past the buffer. The
// original library this package's logic is modeled on walked this chain
// without verifying that each header's declared length actually fit inside
// the packet; this walker treats that check as mandatory.
func WalkExtensions(data []byte, firstNext uint8) ([]Extension, int, error) {
	var exts []Extension
	offset := ipv6FixedSize
	next := firstNext

	for {
		switch next {
		case NextHopByHop, NextRouting, NextDestOpts:
			if offset+2 > len(data) {
				return nil, 0, fmt.Errorf("%w: truncated extension header at offset %d", ErrMalformed, offset)
			}
			length := (int(data[offset+1]) + 1) * 8
			if offset+length > len(data) {
				return nil, 0, fmt.Errorf("%w: extension header length %d overruns buffer at offset %d", ErrMalformed, length, offset)
			}
			exts = append(exts, Extension{
				Type:   next,
				Offset: offset,
				Length: length,
				Raw:    data[offset : offset+length],
			})
			next = data[offset]
			offset += length

		case NextFragment:
			const fragLen = 8
			if offset+fragLen > len(data) {
				return nil, 0, fmt.Errorf("%w: truncated fragment header at offset %d", ErrMalformed, offset)
			}
			exts = append(exts, Extension{
				Type:   next,
				Offset: offset,
				Length: fragLen,
				Raw:    data[offset : offset+fragLen],
			})
			next = data[offset]
			offset += fragLen

		case NextAuth:
			if offset+2 > len(data) {
				return nil, 0, fmt.Errorf("%w: truncated auth header at offset %d", ErrMalformed, offset)
			}
			// AH's length field counts 32-bit words minus 2.
			length := (int(data[offset+1]) + 2) * 4
			if offset+length > len(data) {
				return nil, 0, fmt.Errorf("%w: auth header length %d overruns buffer at offset %d", ErrMalformed, length, offset)
			}
			exts = append(exts, Extension{
				Type:   next,
				Offset: offset,
				Length: length,
				Raw:    data[offset : offset+length],
			})
			next = data[offset]
			offset += length

		default:
			return exts, offset, nil
		}

		if offset > len(data) {
			return nil, 0, fmt.Errorf("%w: extension chain walked past buffer end", ErrMalformed)
		}
	}
}
