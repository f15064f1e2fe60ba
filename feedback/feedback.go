package feedback

import (
	"fmt"

	"github.com/skyhook-net/rohc/crc"
)

// AckType is the FEEDBACK-2 acknowledgement kind (spec §4.9).
type AckType uint8

const (
	AckACK        AckType = 0
	AckNACK       AckType = 1
	AckStaticNACK AckType = 2
)

// OptionType identifies a FEEDBACK-2 TLV option.
type OptionType uint8

const (
	OptCRC        OptionType = 1
	OptReject     OptionType = 2
	OptSNNotValid OptionType = 3
	OptSN         OptionType = 4
	OptClock      OptionType = 5
	OptJitter     OptionType = 6
	OptLoss       OptionType = 7
)

// Option is one TLV entry following a FEEDBACK-2 first octet: a 4-bit type,
// a 4-bit length (number of data bytes), and that many data bytes.
type Option struct {
	Type OptionType
	Data []byte
}

// Feedback1 is the 1-byte ACK-only form: the low 8 bits of SN.
type Feedback1 struct {
	SNLow8 uint8
}

// Marshal encodes a Feedback1 element.
func (f Feedback1) Marshal() []byte {
	return []byte{f.SNLow8}
}

// ParseFeedback1 decodes a 1-byte Feedback1 element.
func ParseFeedback1(data []byte) (Feedback1, error) {
	if len(data) != 1 {
		return Feedback1{}, fmt.Errorf("feedback: FEEDBACK-1 must be exactly 1 byte, got %d", len(data))
	}
	return Feedback1{SNLow8: data[0]}, nil
}

// Feedback2 is the extensible ACK/NACK/STATIC-NACK form.
type Feedback2 struct {
	Ack  AckType
	Mode uint8 // 0=U, 1=O, 2=R
	SN   uint32
	// SNWidth selects how much of SN goes on the wire: n =
	// ceil((SNWidth-4)/8) chained SN options carry SN's low 8*n bits, most
	// significant first, and the header octet's 4-bit field carries the 4
	// bits just above them. The header field holds SN's top 4 of SNWidth
	// bits only when SNWidth-4 is a multiple of 8; for SNWidth 16 the two
	// options carry all 16 bits and the header field holds bits 19..16.
	SNWidth int
	Options []Option // any options besides SN/CRC (clock, jitter, loss, reject, sn-not-valid)
	HasCRC  bool
}

// snOptionCount returns ceil((width-4)/8), the number of chained one-byte SN
// options Marshal emits for width.
func snOptionCount(width int) int {
	remaining := width - 4
	if remaining <= 0 {
		return 0
	}
	return (remaining + 7) / 8
}

// Marshal encodes a Feedback2 element, appending any configured options and
// computing the CRC option (if HasCRC) over the whole element with the CRC
// data byte temporarily zeroed, per spec §4.9.
func (f Feedback2) Marshal() ([]byte, error) {
	if f.SNWidth <= 0 {
		f.SNWidth = 4
	}
	nOpts := snOptionCount(f.SNWidth)
	topNibble := uint8((f.SN >> uint((nOpts)*8)) & 0xF)

	out := []byte{byte(f.Ack)<<6 | (f.Mode&0x3)<<4 | topNibble&0xF}

	for i := nOpts - 1; i >= 0; i-- {
		b := uint8((f.SN >> uint(i*8)) & 0xFF)
		out = appendOption(out, Option{Type: OptSN, Data: []byte{b}})
	}
	for _, opt := range f.Options {
		out = appendOption(out, opt)
	}

	if f.HasCRC {
		out = appendOption(out, Option{Type: OptCRC, Data: []byte{0}})
		crcIdx := len(out) - 1 // the zeroed CRC data byte, just appended
		sum, err := crc.ComputeDefault(crc.CRC8, out)
		if err != nil {
			return nil, err
		}
		out[crcIdx] = sum
	}

	return out, nil
}

// appendOption appends opt's TLV encoding (4-bit type, 4-bit length, data)
// to out. Panics if len(opt.Data) > 15; no feedback option defined by this
// package ever carries more than one byte.
func appendOption(out []byte, opt Option) []byte {
	if len(opt.Data) > 15 {
		panic("feedback: option data exceeds 15 bytes")
	}
	out = append(out, byte(opt.Type)<<4|byte(len(opt.Data)))
	return append(out, opt.Data...)
}

// ParseFeedback2 decodes a FEEDBACK-2 element. snWidth must match whatever
// width the sender used to encode SN (the decompressor's profile context
// knows this).
func ParseFeedback2(data []byte, snWidth int) (Feedback2, error) {
	if len(data) < 1 {
		return Feedback2{}, fmt.Errorf("feedback: FEEDBACK-2 requires at least 1 byte")
	}
	if snWidth <= 0 {
		snWidth = 4
	}
	f := Feedback2{
		Ack:     AckType(data[0] >> 6),
		Mode:    (data[0] >> 4) & 0x3,
		SNWidth: snWidth,
		SN:      uint32(data[0] & 0xF),
	}

	nOpts := snOptionCount(snWidth)
	offset := 1
	snOptsSeen := 0
	for offset < len(data) {
		if offset+1 > len(data) {
			return Feedback2{}, fmt.Errorf("feedback: truncated option header at offset %d", offset)
		}
		optType := OptionType(data[offset] >> 4)
		length := int(data[offset] & 0xF)
		offset++
		if offset+length > len(data) {
			return Feedback2{}, fmt.Errorf("feedback: option data overruns buffer at offset %d", offset)
		}
		optData := data[offset : offset+length]
		offset += length

		switch optType {
		case OptSN:
			if snOptsSeen < nOpts && length == 1 {
				f.SN = f.SN<<8 | uint32(optData[0])
				snOptsSeen++
				continue
			}
			f.Options = append(f.Options, Option{Type: optType, Data: optData})
		case OptCRC:
			f.HasCRC = true
			f.Options = append(f.Options, Option{Type: optType, Data: optData})
		default:
			f.Options = append(f.Options, Option{Type: optType, Data: optData})
		}
	}

	return f, nil
}

// VerifyCRC recomputes the CRC-8 over raw (the exact bytes ParseFeedback2
// was given) with the CRC option's data byte zeroed, and reports whether it
// matches the CRC option actually carried. raw must be the same bytes
// passed to ParseFeedback2.
func VerifyCRC(raw []byte) (bool, error) {
	if len(raw) < 2 {
		return false, fmt.Errorf("feedback: element too short to carry a CRC option")
	}
	crcByteIdx := -1
	offset := 1
	for offset < len(raw) {
		optType := OptionType(raw[offset] >> 4)
		length := int(raw[offset] & 0xF)
		dataStart := offset + 1
		if dataStart+length > len(raw) {
			return false, fmt.Errorf("feedback: malformed option at offset %d", offset)
		}
		if optType == OptCRC && length == 1 {
			crcByteIdx = dataStart
		}
		offset = dataStart + length
	}
	if crcByteIdx < 0 {
		return false, fmt.Errorf("feedback: no CRC option present")
	}

	tmp := append([]byte(nil), raw...)
	carried := tmp[crcByteIdx]
	tmp[crcByteIdx] = 0
	sum, err := crc.ComputeDefault(crc.CRC8, tmp)
	if err != nil {
		return false, err
	}
	return sum == carried, nil
}
