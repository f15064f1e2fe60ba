package rohcpacket

import (
	"fmt"

	"github.com/skyhook-net/rohc/bitio"
)

// CIDMode selects small or large CID encoding for a packet.
type CIDMode int

const (
	SmallCID CIDMode = iota
	LargeCID
)

// writeCIDPrefix returns the bytes that precede the packet-type
// discriminator for a small CID != 0 (the add-CID octet), or nil for a
// small CID == 0 or for large CID mode (whose CID is written after the
// discriminator's first octet by writeLargeCIDSuffix instead).
func writeCIDPrefix(mode CIDMode, cid uint16) ([]byte, error) {
	if mode != SmallCID || cid == 0 {
		return nil, nil
	}
	if cid > 15 {
		return nil, fmt.Errorf("rohcpacket: small cid %d exceeds 15", cid)
	}
	b, err := BuildAddCID(uint8(cid))
	if err != nil {
		return nil, err
	}
	return []byte{b}, nil
}

// writeLargeCIDSuffix returns the SDVL-encoded CID bytes to splice in right
// after a packet's first discriminator octet, when mode is LargeCID.
func writeLargeCIDSuffix(mode CIDMode, cid uint16) ([]byte, error) {
	if mode != LargeCID {
		return nil, nil
	}
	return bitio.EncodeSDVL(uint32(cid))
}

// readCIDPrefix consumes an optional add-CID octet from the start of data.
// Returns the CID (0 if absent), and the number of bytes consumed (0 or 1).
func readCIDPrefix(data []byte) (cid uint16, consumed int) {
	if len(data) == 0 {
		return 0, 0
	}
	if c, ok := IsAddCID(data[0]); ok {
		return uint16(c), 1
	}
	return 0, 0
}

// readLargeCIDSuffix decodes an SDVL CID starting at data, returning the
// CID and the number of bytes consumed.
func readLargeCIDSuffix(data []byte) (cid uint16, consumed int, err error) {
	v, n, err := bitio.DecodeSDVLBytes(data)
	if err != nil {
		return 0, 0, err
	}
	return uint16(v), n, nil
}
