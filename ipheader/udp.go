package ipheader

import (
	"encoding/binary"
	"fmt"
)

// UDP holds a UDP or UDP-Lite header (spec §3: UDP/ESP profile static and
// dynamic chains). Lite distinguishes the two wire formats: UDP-Lite
// repurposes the length field as a checksum coverage length and always
// computes a checksum, so CoverageLen is only meaningful when Lite is true.
type UDP struct {
	SrcPort     uint16
	DstPort     uint16
	Checksum    uint16
	Lite        bool
	CoverageLen uint16
}

const udpHeaderLen = 8

// ParseUDP reads an 8-byte UDP or UDP-Lite header from the start of data.
// lite tells the parser which of the two formats to expect, since both
// share the same wire layout and can only be told apart by the enclosing
// IP header's protocol number.
func ParseUDP(data []byte, lite bool) (*UDP, error) {
	if len(data) < udpHeaderLen {
		return nil, fmt.Errorf("%w: buffer shorter than UDP header", ErrMalformed)
	}
	u := &UDP{
		SrcPort:  binary.BigEndian.Uint16(data[0:2]),
		DstPort:  binary.BigEndian.Uint16(data[2:4]),
		Checksum: binary.BigEndian.Uint16(data[6:8]),
		Lite:     lite,
	}
	if lite {
		u.CoverageLen = binary.BigEndian.Uint16(data[4:6])
	}
	return u, nil
}

// Marshal rebuilds the 8-byte UDP/UDP-Lite header. length is the value to
// place in the length field for plain UDP (header + payload); for UDP-Lite
// it is ignored in favor of CoverageLen.
func (u *UDP) Marshal(length int) []byte {
	out := make([]byte, udpHeaderLen)
	binary.BigEndian.PutUint16(out[0:2], u.SrcPort)
	binary.BigEndian.PutUint16(out[2:4], u.DstPort)
	if u.Lite {
		binary.BigEndian.PutUint16(out[4:6], u.CoverageLen)
	} else {
		binary.BigEndian.PutUint16(out[4:6], uint16(length))
	}
	binary.BigEndian.PutUint16(out[6:8], u.Checksum)
	return out
}
