package rohcpacket

import "fmt"

// Segment holds one MRRU segmentation fragment (spec §6 MRRU
// segmentation): a `1111111L` discriminator octet followed by the fragment
// payload, where L=0 marks a non-final fragment and L=1 marks the final
// one.
type Segment struct {
	Final   bool
	Payload []byte
}

// BuildSegment serializes a single MRRU segment.
func BuildSegment(s Segment) []byte {
	disc := byte(segByte)
	if s.Final {
		disc |= 0x01
	}
	return append([]byte{disc}, s.Payload...)
}

// ParseSegment parses a single MRRU segment.
func ParseSegment(data []byte) (*Segment, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("rohcpacket: empty segment")
	}
	if data[0]&segMask != segByte {
		return nil, fmt.Errorf("rohcpacket: byte 0x%02x is not a segment discriminator", data[0])
	}
	return &Segment{Final: data[0]&0x01 != 0, Payload: data[1:]}, nil
}

// Reassembler accumulates MRRU fragments up to a bounded size and yields
// the reconstructed packet once the final fragment arrives.
type Reassembler struct {
	mrru int
	buf  []byte
}

// NewReassembler creates a Reassembler bounded to mrru bytes.
func NewReassembler(mrru int) *Reassembler {
	return &Reassembler{mrru: mrru}
}

// Add feeds one fragment. It returns the reassembled packet and true once
// a final fragment completes a sequence; otherwise it returns nil, false.
// Exceeding the MRRU bound resets the in-progress reassembly and returns an
// error.
func (r *Reassembler) Add(s Segment) ([]byte, bool, error) {
	if len(r.buf)+len(s.Payload) > r.mrru {
		r.buf = nil
		return nil, false, fmt.Errorf("rohcpacket: reassembled segment exceeds mrru %d", r.mrru)
	}
	r.buf = append(r.buf, s.Payload...)
	if !s.Final {
		return nil, false, nil
	}
	out := r.buf
	r.buf = nil
	return out, true, nil
}

// Reset discards any in-progress reassembly.
func (r *Reassembler) Reset() {
	r.buf = nil
}
