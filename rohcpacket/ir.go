package rohcpacket

import (
	"fmt"

	"github.com/skyhook-net/rohc/bitio"
)

// IR holds the fields of a built or parsed IR/IR-DYN packet. StaticChain
// and DynamicChain are opaque byte slices this package does not interpret;
// building and parsing their contents is the compressor/decompressor's job
// (they know the profile). Each chain is prefixed with its own SDVL length
// so Parse can split the packet without guessing field boundaries -
// transport framing and chain content are deliberately decoupled.
type IR struct {
	CID          uint16
	CIDMode      CIDMode
	Profile      uint8
	CRC          uint8
	Dynamic      bool // true for IR with D=1, always true for IR-DYN
	StaticChain  []byte
	DynamicChain []byte
}

// BuildIR serializes an IR packet. If ir.Dynamic is false, DynamicChain is
// ignored and no D-bit dynamic chain is written.
func BuildIR(ir IR) ([]byte, error) {
	prefix, err := writeCIDPrefix(ir.CIDMode, ir.CID)
	if err != nil {
		return nil, err
	}
	var disc byte = irPattern
	if ir.Dynamic {
		disc |= 0x01
	}
	out := append(prefix, disc)

	suffix, err := writeLargeCIDSuffix(ir.CIDMode, ir.CID)
	if err != nil {
		return nil, err
	}
	out = append(out, suffix...)

	out = append(out, ir.Profile, ir.CRC)

	staticLen, err := bitio.EncodeSDVL(uint32(len(ir.StaticChain)))
	if err != nil {
		return nil, err
	}
	out = append(out, staticLen...)
	out = append(out, ir.StaticChain...)

	if ir.Dynamic {
		dynLen, err := bitio.EncodeSDVL(uint32(len(ir.DynamicChain)))
		if err != nil {
			return nil, err
		}
		out = append(out, dynLen...)
		out = append(out, ir.DynamicChain...)
	}

	return out, nil
}

// ParseIR parses an IR packet given its CID mode. It returns the decoded
// IR and the number of bytes consumed.
func ParseIR(data []byte, mode CIDMode) (*IR, int, error) {
	offset := 0
	cid, n := readCIDPrefix(data)
	offset += n

	if offset >= len(data) {
		return nil, 0, fmt.Errorf("rohcpacket: truncated IR packet")
	}
	disc := data[offset]
	if disc&irMask != irPattern {
		return nil, 0, fmt.Errorf("rohcpacket: byte 0x%02x is not an IR discriminator", disc)
	}
	dynamic := disc&0x01 != 0
	offset++

	if mode == LargeCID {
		lcid, n, err := readLargeCIDSuffix(data[offset:])
		if err != nil {
			return nil, 0, err
		}
		cid = lcid
		offset += n
	}

	if offset+2 > len(data) {
		return nil, 0, fmt.Errorf("rohcpacket: truncated IR packet (profile/crc)")
	}
	profileID := data[offset]
	crcByte := data[offset+1]
	offset += 2

	staticChain, n, err := readLengthPrefixedChain(data[offset:])
	if err != nil {
		return nil, 0, err
	}
	offset += n

	var dynChain []byte
	if dynamic {
		dynChain, n, err = readLengthPrefixedChain(data[offset:])
		if err != nil {
			return nil, 0, err
		}
		offset += n
	}

	return &IR{
		CID: cid, CIDMode: mode, Profile: profileID, CRC: crcByte,
		Dynamic: dynamic, StaticChain: staticChain, DynamicChain: dynChain,
	}, offset, nil
}

// IRDyn holds the fields of an IR-DYN packet.
type IRDyn struct {
	CID         uint16
	CIDMode     CIDMode
	Profile     uint8
	CRC         uint8
	DynamicChain []byte
}

// BuildIRDyn serializes an IR-DYN packet.
func BuildIRDyn(p IRDyn) ([]byte, error) {
	prefix, err := writeCIDPrefix(p.CIDMode, p.CID)
	if err != nil {
		return nil, err
	}
	out := append(prefix, irDynByte)

	suffix, err := writeLargeCIDSuffix(p.CIDMode, p.CID)
	if err != nil {
		return nil, err
	}
	out = append(out, suffix...)
	out = append(out, p.Profile, p.CRC)

	dynLen, err := bitio.EncodeSDVL(uint32(len(p.DynamicChain)))
	if err != nil {
		return nil, err
	}
	out = append(out, dynLen...)
	out = append(out, p.DynamicChain...)
	return out, nil
}

// ParseIRDyn parses an IR-DYN packet.
func ParseIRDyn(data []byte, mode CIDMode) (*IRDyn, int, error) {
	offset := 0
	cid, n := readCIDPrefix(data)
	offset += n

	if offset >= len(data) || data[offset] != irDynByte {
		return nil, 0, fmt.Errorf("rohcpacket: not an IR-DYN discriminator")
	}
	offset++

	if mode == LargeCID {
		lcid, n, err := readLargeCIDSuffix(data[offset:])
		if err != nil {
			return nil, 0, err
		}
		cid = lcid
		offset += n
	}

	if offset+2 > len(data) {
		return nil, 0, fmt.Errorf("rohcpacket: truncated IR-DYN packet")
	}
	profileID := data[offset]
	crcByte := data[offset+1]
	offset += 2

	dynChain, n, err := readLengthPrefixedChain(data[offset:])
	if err != nil {
		return nil, 0, err
	}
	offset += n

	return &IRDyn{CID: cid, CIDMode: mode, Profile: profileID, CRC: crcByte, DynamicChain: dynChain}, offset, nil
}

func readLengthPrefixedChain(data []byte) ([]byte, int, error) {
	length, n, err := bitio.DecodeSDVLBytes(data)
	if err != nil {
		return nil, 0, err
	}
	if n+int(length) > len(data) {
		return nil, 0, fmt.Errorf("rohcpacket: chain length %d overruns buffer", length)
	}
	return data[n : n+int(length)], n + int(length), nil
}
