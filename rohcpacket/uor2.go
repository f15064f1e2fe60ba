package rohcpacket

import "fmt"

// UOR2Variant selects the plain or RTP-carrying UOR-2 sub-format.
type UOR2Variant int

const (
	UOR2Plain UOR2Variant = iota
	UOR2RTP
)

// UOR2 holds the fields of a UOR-2/UOR-2-RTP packet.
type UOR2 struct {
	CID     uint16
	Variant UOR2Variant
	SNBits  uint8 // low 5 bits significant
	TSBits  uint8 // RTP variant only, 7 bits significant
	Marker  bool  // RTP variant only
	CRC     uint8 // low 7 bits significant
	Ext     []byte
}

// BuildUOR2 serializes a UOR-2 packet.
func BuildUOR2(p UOR2) ([]byte, error) {
	prefix, err := writeCIDPrefix(SmallCID, p.CID)
	if err != nil {
		return nil, err
	}
	b1 := uor2Bits | (p.SNBits & 0x1F)
	x := byte(0)
	if len(p.Ext) > 0 {
		x = 1
	}

	var out []byte
	switch p.Variant {
	case UOR2Plain:
		out = append(prefix, b1, x<<7|p.CRC&0x7F)
	case UOR2RTP:
		marker := byte(0)
		if p.Marker {
			marker = 1
		}
		b2 := (p.TSBits&0x7F)<<1 | marker
		out = append(prefix, b1, b2, x<<7|p.CRC&0x7F)
	default:
		return nil, fmt.Errorf("rohcpacket: unknown UOR2Variant %d", p.Variant)
	}
	if x == 1 {
		out = append(out, p.Ext...)
	}
	return out, nil
}

// ParseUOR2 parses a UOR-2 packet for the given variant. extLen is the
// number of trailing extension bytes to consume when the X bit is set.
func ParseUOR2(data []byte, variant UOR2Variant, extLen int) (*UOR2, int, error) {
	offset := 0
	cid, n := readCIDPrefix(data)
	offset += n

	if offset >= len(data) {
		return nil, 0, fmt.Errorf("rohcpacket: truncated UOR-2 packet")
	}
	b1 := data[offset]
	if b1&uor2Mask != uor2Bits {
		return nil, 0, fmt.Errorf("rohcpacket: not a UOR-2 discriminator")
	}
	offset++

	p := &UOR2{CID: cid, Variant: variant, SNBits: b1 & 0x1F}

	switch variant {
	case UOR2Plain:
		if offset >= len(data) {
			return nil, 0, fmt.Errorf("rohcpacket: truncated UOR-2 packet")
		}
		last := data[offset]
		offset++
		p.CRC = last & 0x7F
		if last&0x80 != 0 && extLen > 0 {
			if offset+extLen > len(data) {
				return nil, 0, fmt.Errorf("rohcpacket: truncated UOR-2 extension")
			}
			p.Ext = data[offset : offset+extLen]
			offset += extLen
		}
	case UOR2RTP:
		if offset+2 > len(data) {
			return nil, 0, fmt.Errorf("rohcpacket: truncated UOR-2-RTP packet")
		}
		b2, b3 := data[offset], data[offset+1]
		offset += 2
		p.TSBits = (b2 >> 1) & 0x7F
		p.Marker = b2&0x01 != 0
		p.CRC = b3 & 0x7F
		if b3&0x80 != 0 && extLen > 0 {
			if offset+extLen > len(data) {
				return nil, 0, fmt.Errorf("rohcpacket: truncated UOR-2-RTP extension")
			}
			p.Ext = data[offset : offset+extLen]
			offset += extLen
		}
	default:
		return nil, 0, fmt.Errorf("rohcpacket: unknown UOR2Variant %d", variant)
	}

	return p, offset, nil
}
