package ipheader

import (
	"fmt"
	"net"

	"golang.org/x/net/ipv4"
)

// IPv4 holds the fields ROHC's IP-ID/UDP/RTP profiles track for an IPv4
// header (spec §3): the static chain (version, addresses, protocol) and the
// dynamic chain (TOS, TTL, DF, IP-ID).
type IPv4 struct {
	TOS      uint8
	TTL      uint8
	Protocol uint8
	DF       bool
	ID       uint16
	Src      [4]byte
	Dst      [4]byte
	Options  []byte
}

// ParseIPv4 reads an IPv4 header from the start of data using
// golang.org/x/net/ipv4's header parser, and returns the header plus the
// total header length in bytes (including options).
func ParseIPv4(data []byte) (*IPv4, int, error) {
	h, err := ipv4.ParseHeader(data)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if h.Len > len(data) {
		return nil, 0, fmt.Errorf("%w: header length %d exceeds buffer %d", ErrMalformed, h.Len, len(data))
	}

	out := &IPv4{
		TOS:      uint8(h.TOS),
		TTL:      uint8(h.TTL),
		Protocol: uint8(h.Protocol),
		DF:       h.Flags&ipv4.DontFragment != 0,
		ID:       uint16(h.ID),
		Options:  append([]byte(nil), h.Options...),
	}
	copy(out.Src[:], h.Src.To4())
	copy(out.Dst[:], h.Dst.To4())
	return out, h.Len, nil
}

// Marshal rebuilds the 20+ byte IPv4 header for a payload of payloadLen
// bytes, recomputing the header checksum so the output is byte-identical to
// a freshly-built header with the same field values (spec §8 invariant 1:
// round-trip equality).
func (h *IPv4) Marshal(payloadLen int) ([]byte, error) {
	flags := ipv4.HeaderFlags(0)
	if h.DF {
		flags = ipv4.DontFragment
	}
	hdr := &ipv4.Header{
		Version:  4,
		Len:      20 + len(h.Options),
		TOS:      int(h.TOS),
		TotalLen: 20 + len(h.Options) + payloadLen,
		ID:       int(h.ID),
		Flags:    flags,
		TTL:      int(h.TTL),
		Protocol: int(h.Protocol),
		Src:      net.IP(h.Src[:]),
		Dst:      net.IP(h.Dst[:]),
		Options:  h.Options,
	}
	raw, err := hdr.Marshal()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	setIPv4Checksum(raw)
	return raw, nil
}

// setIPv4Checksum computes and writes the standard one's-complement IPv4
// header checksum (RFC 791 §3.1) into bytes [10:12] of header. This is pure
// arithmetic with no natural home in a third-party library: x/net/ipv4
// deliberately leaves checksum computation to the caller since raw sockets
// usually have the kernel fill it in.
func setIPv4Checksum(header []byte) {
	header[10] = 0
	header[11] = 0
	var sum uint32
	for i := 0; i+1 < len(header); i += 2 {
		sum += uint32(header[i])<<8 | uint32(header[i+1])
	}
	if len(header)%2 == 1 {
		sum += uint32(header[len(header)-1]) << 8
	}
	for sum>>16 != 0 {
		sum = (sum & 0xFFFF) + (sum >> 16)
	}
	csum := ^uint16(sum)
	header[10] = byte(csum >> 8)
	header[11] = byte(csum)
}
