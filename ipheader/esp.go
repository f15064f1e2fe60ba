package ipheader

import (
	"encoding/binary"
	"fmt"
)

// ESP holds the fields of an Encapsulating Security Payload header that
// ROHC's ESP profile compresses: the Security Parameters Index, which is
// static for the life of a flow, and the sequence number, which increases
// monotonically and drives W-LSB encoding the same way RTP's SN does.
type ESP struct {
	SPI uint32
	SN  uint32
}

const espHeaderLen = 8

// ParseESP reads the 8-byte SPI+SN header at the start of an ESP payload.
// It does not touch the encrypted payload or trailer that follows.
func ParseESP(data []byte) (*ESP, error) {
	if len(data) < espHeaderLen {
		return nil, fmt.Errorf("%w: buffer shorter than ESP header", ErrMalformed)
	}
	return &ESP{
		SPI: binary.BigEndian.Uint32(data[0:4]),
		SN:  binary.BigEndian.Uint32(data[4:8]),
	}, nil
}

// Marshal rebuilds the 8-byte ESP SPI+SN header.
func (e *ESP) Marshal() []byte {
	out := make([]byte, espHeaderLen)
	binary.BigEndian.PutUint32(out[0:4], e.SPI)
	binary.BigEndian.PutUint32(out[4:8], e.SN)
	return out
}
