package ipheader

import (
	"fmt"

	"github.com/pion/rtp"
)

// RTP holds the fields of an RTP header that ROHC's RTP profile tracks: the
// static chain (SSRC, payload type, extension/padding/CSRC presence) and
// the dynamic chain (marker, sequence number, timestamp, CSRC list).
type RTP struct {
	Marker         bool
	PayloadType    uint8
	SequenceNumber uint16
	Timestamp      uint32
	SSRC           uint32
	CSRC           []uint32
	Extension      bool
	Padding        bool
}

// ParseRTP unmarshals an RTP header using pion/rtp and returns the
// simplified view plus the header's encoded length in bytes.
func ParseRTP(data []byte) (*RTP, int, error) {
	var h rtp.Header
	n, err := h.Unmarshal(data)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return &RTP{
		Marker:         h.Marker,
		PayloadType:    h.PayloadType,
		SequenceNumber: h.SequenceNumber,
		Timestamp:      h.Timestamp,
		SSRC:           h.SSRC,
		CSRC:           append([]uint32(nil), h.CSRC...),
		Extension:      h.Extension,
		Padding:        h.Padding,
	}, n, nil
}

// Marshal rebuilds the RTP header via pion/rtp's encoder so the wire
// representation stays consistent with whatever version's header-extension
// handling this module depends on.
func (r *RTP) Marshal() ([]byte, error) {
	h := rtp.Header{
		Version:        2,
		Marker:         r.Marker,
		PayloadType:    r.PayloadType,
		SequenceNumber: r.SequenceNumber,
		Timestamp:      r.Timestamp,
		SSRC:           r.SSRC,
		CSRC:           r.CSRC,
		Extension:      r.Extension,
		Padding:        r.Padding,
	}
	raw, err := h.Marshal()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return raw, nil
}
