package ipheader

import "fmt"

// StaticBytes returns the subset of a parsed Chain's fields spec §6 assigns
// to the STATIC CRC mask: IP version, source/destination address, the
// protocol/next-header byte, UDP ports, and RTP SSRC/payload type. These
// fields are frozen at context creation and never re-sent after the first
// IR, so they feed the CRC exactly as they appeared on that IR.
func StaticBytes(c *Chain) []byte {
	var out []byte
	switch {
	case c.V4 != nil:
		out = append(out, 4)
		out = append(out, c.V4.Src[:]...)
		out = append(out, c.V4.Dst[:]...)
		out = append(out, c.V4.Protocol)
	case c.V6 != nil:
		out = append(out, 6)
		out = append(out, c.V6.Src[:]...)
		out = append(out, c.V6.Dst[:]...)
		out = append(out, c.V6.NextHeader)
	}
	if c.UDP != nil {
		out = append(out, byte(c.UDP.SrcPort>>8), byte(c.UDP.SrcPort), byte(c.UDP.DstPort>>8), byte(c.UDP.DstPort))
	}
	if c.ESP != nil {
		out = append(out, byte(c.ESP.SPI>>24), byte(c.ESP.SPI>>16), byte(c.ESP.SPI>>8), byte(c.ESP.SPI))
	}
	if c.RTP != nil {
		out = append(out,
			byte(c.RTP.SSRC>>24), byte(c.RTP.SSRC>>16), byte(c.RTP.SSRC>>8), byte(c.RTP.SSRC),
			c.RTP.PayloadType)
	}
	return out
}

// DynamicBytes returns the subset of a parsed Chain's fields spec §6
// assigns to the DYNAMIC CRC mask: TOS/TC, TTL/HL, DF, IP-ID, UDP checksum,
// RTP marker/SN/TS/CSRC list, ESP SN. These fields change packet to packet
// and are re-sent (in full or as deltas) on every IR-DYN/UO/UOR packet.
func DynamicBytes(c *Chain) []byte {
	var out []byte
	switch {
	case c.V4 != nil:
		df := byte(0)
		if c.V4.DF {
			df = 1
		}
		out = append(out, c.V4.TOS, c.V4.TTL, df, byte(c.V4.ID>>8), byte(c.V4.ID))
	case c.V6 != nil:
		out = append(out, c.V6.TrafficClass, c.V6.HopLimit)
	}
	if c.UDP != nil {
		out = append(out, byte(c.UDP.Checksum>>8), byte(c.UDP.Checksum))
	}
	if c.ESP != nil {
		out = append(out, byte(c.ESP.SN>>24), byte(c.ESP.SN>>16), byte(c.ESP.SN>>8), byte(c.ESP.SN))
	}
	if c.RTP != nil {
		marker := byte(0)
		if c.RTP.Marker {
			marker = 1
		}
		out = append(out, marker,
			byte(c.RTP.SequenceNumber>>8), byte(c.RTP.SequenceNumber),
			byte(c.RTP.Timestamp>>24), byte(c.RTP.Timestamp>>16), byte(c.RTP.Timestamp>>8), byte(c.RTP.Timestamp))
		for _, csrc := range c.RTP.CSRC {
			out = append(out, byte(csrc>>24), byte(csrc>>16), byte(csrc>>8), byte(csrc))
		}
	}
	return out
}

// DecodeStaticBytes reconstructs the Chain skeleton StaticBytes encoded,
// given which transport sections the caller already knows are present from
// the profile carried on the wire (static-chain bytes alone are not
// self-describing past the IP version octet). It returns the number of
// bytes consumed.
func DecodeStaticBytes(data []byte, hasUDP, hasESP, hasRTP, udpLite bool) (*Chain, int, error) {
	if len(data) < 1 {
		return nil, 0, fmt.Errorf("%w: empty static chain", ErrMalformed)
	}
	c := &Chain{}
	offset := 1
	switch data[0] {
	case 4:
		if offset+4+4+1 > len(data) {
			return nil, 0, fmt.Errorf("%w: truncated ipv4 static chain", ErrMalformed)
		}
		v4 := &IPv4{}
		copy(v4.Src[:], data[offset:offset+4])
		offset += 4
		copy(v4.Dst[:], data[offset:offset+4])
		offset += 4
		v4.Protocol = data[offset]
		offset++
		c.V4 = v4
	case 6:
		if offset+16+16+1 > len(data) {
			return nil, 0, fmt.Errorf("%w: truncated ipv6 static chain", ErrMalformed)
		}
		v6 := &IPv6{}
		copy(v6.Src[:], data[offset:offset+16])
		offset += 16
		copy(v6.Dst[:], data[offset:offset+16])
		offset += 16
		v6.NextHeader = data[offset]
		offset++
		c.V6 = v6
	default:
		return nil, 0, fmt.Errorf("%w: unrecognized static IP version byte 0x%02x", ErrMalformed, data[0])
	}

	if hasUDP {
		if offset+4 > len(data) {
			return nil, 0, fmt.Errorf("%w: truncated static udp ports", ErrMalformed)
		}
		c.UDP = &UDP{
			SrcPort: uint16(data[offset])<<8 | uint16(data[offset+1]),
			DstPort: uint16(data[offset+2])<<8 | uint16(data[offset+3]),
			Lite:    udpLite,
		}
		offset += 4
	}
	if hasESP {
		if offset+4 > len(data) {
			return nil, 0, fmt.Errorf("%w: truncated static esp spi", ErrMalformed)
		}
		c.ESP = &ESP{SPI: be32(data[offset:])}
		offset += 4
	}
	if hasRTP {
		if offset+5 > len(data) {
			return nil, 0, fmt.Errorf("%w: truncated static rtp ssrc/pt", ErrMalformed)
		}
		c.RTP = &RTP{SSRC: be32(data[offset:]), PayloadType: data[offset+4]}
		offset += 5
	}
	return c, offset, nil
}

// DecodeDynamicBytes applies DynamicBytes-encoded fields onto a Chain whose
// V4/V6/UDP/ESP/RTP pointers were already populated by DecodeStaticBytes,
// returning the number of bytes consumed. Any RTP CSRC entries occupy the
// remainder of data in 4-byte groups, since RTP is always the last section.
func DecodeDynamicBytes(data []byte, c *Chain) (int, error) {
	offset := 0
	switch {
	case c.V4 != nil:
		if offset+5 > len(data) {
			return 0, fmt.Errorf("%w: truncated ipv4 dynamic chain", ErrMalformed)
		}
		c.V4.TOS = data[offset]
		c.V4.TTL = data[offset+1]
		c.V4.DF = data[offset+2] != 0
		c.V4.ID = uint16(data[offset+3])<<8 | uint16(data[offset+4])
		offset += 5
	case c.V6 != nil:
		if offset+2 > len(data) {
			return 0, fmt.Errorf("%w: truncated ipv6 dynamic chain", ErrMalformed)
		}
		c.V6.TrafficClass = data[offset]
		c.V6.HopLimit = data[offset+1]
		offset += 2
	}
	if c.UDP != nil {
		if offset+2 > len(data) {
			return 0, fmt.Errorf("%w: truncated udp checksum", ErrMalformed)
		}
		c.UDP.Checksum = uint16(data[offset])<<8 | uint16(data[offset+1])
		offset += 2
	}
	if c.ESP != nil {
		if offset+4 > len(data) {
			return 0, fmt.Errorf("%w: truncated esp sn", ErrMalformed)
		}
		c.ESP.SN = be32(data[offset:])
		offset += 4
	}
	if c.RTP != nil {
		if offset+7 > len(data) {
			return 0, fmt.Errorf("%w: truncated rtp dynamic fields", ErrMalformed)
		}
		c.RTP.Marker = data[offset]&0x01 != 0
		c.RTP.SequenceNumber = uint16(data[offset+1])<<8 | uint16(data[offset+2])
		c.RTP.Timestamp = be32(data[offset+3:])
		offset += 7
		rest := len(data) - offset
		if rest%4 != 0 {
			return 0, fmt.Errorf("%w: trailing rtp csrc bytes not a multiple of 4", ErrMalformed)
		}
		for rest > 0 {
			c.RTP.CSRC = append(c.RTP.CSRC, be32(data[offset:]))
			offset += 4
			rest -= 4
		}
	}
	return offset, nil
}

func be32(b []byte) uint32 {
	return uint32(b[0])<<24 | uint32(b[1])<<16 | uint32(b[2])<<8 | uint32(b[3])
}
