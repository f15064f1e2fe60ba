package ipheader

import "fmt"

// Protocol numbers used to decide what follows an IP header.
const (
	ProtoUDP     = 17
	ProtoESP     = 50
	ProtoUDPLite = 136
)

// Chain is the fully parsed header stack for one packet: exactly one of V4
// or V6 is set, followed by any IPv6 extensions, and then the transport
// header that the profile layer (C6) classifies against. RTP is only
// populated when UDP carries an RTP payload, which the caller decides based
// on port/profile configuration rather than anything in the wire format
// itself.
type Chain struct {
	V4         *IPv4
	V6         *IPv6
	Extensions []Extension
	UDP        *UDP
	ESP        *ESP
	RTP        *RTP

	// HeaderLen is the total number of bytes consumed by everything parsed
	// into this Chain, i.e. the offset at which the profile payload begins.
	HeaderLen int
}

// ParseOptions tells Parse how to interpret an otherwise-ambiguous UDP
// payload.
type ParseOptions struct {
	// RTPPorts, if non-empty, restricts RTP parsing to UDP packets whose
	// destination port appears in the set. An empty set means "always try
	// RTP after UDP", matching how profile classification works in C6 when
	// no port hint is configured.
	RTPPorts map[uint16]bool
}

// Parse walks data as an IP header chain and returns the parsed Chain.
func Parse(data []byte, opts ParseOptions) (*Chain, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty buffer", ErrMalformed)
	}

	c := &Chain{}
	var nextProto uint8
	var offset int

	switch data[0] >> 4 {
	case 4:
		v4, hlen, err := ParseIPv4(data)
		if err != nil {
			return nil, err
		}
		c.V4 = v4
		nextProto = v4.Protocol
		offset = hlen
	case 6:
		v6, err := ParseIPv6(data)
		if err != nil {
			return nil, err
		}
		c.V6 = v6
		exts, hlen, err := WalkExtensions(data, v6.NextHeader)
		if err != nil {
			return nil, err
		}
		c.Extensions = exts
		nextProto = lastExtensionNext(data, exts, v6.NextHeader)
		offset = hlen
	default:
		return nil, fmt.Errorf("%w: unrecognized IP version nibble", ErrMalformed)
	}

	switch nextProto {
	case ProtoUDP, ProtoUDPLite:
		lite := nextProto == ProtoUDPLite
		u, err := ParseUDP(data[offset:], lite)
		if err != nil {
			return nil, err
		}
		c.UDP = u
		offset += udpHeaderLen

		tryRTP := len(opts.RTPPorts) == 0 || opts.RTPPorts[u.DstPort]
		if tryRTP && offset < len(data) {
			if r, n, err := ParseRTP(data[offset:]); err == nil {
				c.RTP = r
				offset += n
			}
		}
	case ProtoESP:
		e, err := ParseESP(data[offset:])
		if err != nil {
			return nil, err
		}
		c.ESP = e
		offset += espHeaderLen
	default:
		return nil, fmt.Errorf("%w: protocol %d", ErrUnsupportedProtocol, nextProto)
	}

	c.HeaderLen = offset
	return c, nil
}

// lastExtensionNext returns the next-header value that terminated the
// extension walk: the upper-layer protocol if there were extensions, or the
// fixed header's NextHeader value if there were none.
func lastExtensionNext(data []byte, exts []Extension, firstNext uint8) uint8 {
	if len(exts) == 0 {
		return firstNext
	}
	last := exts[len(exts)-1]
	return last.Raw[0]
}

// Build serializes a Chain back into wire bytes, given the length of the
// upper-layer payload that follows (e.g. the ROHC-decompressed RTP/ESP
// payload).
func Build(c *Chain, payloadLen int) ([]byte, error) {
	var transport []byte
	transportLen := payloadLen

	if c.RTP != nil {
		rtpBytes, err := c.RTP.Marshal()
		if err != nil {
			return nil, err
		}
		transport = append(transport, rtpBytes...)
		transportLen += len(rtpBytes)
	}
	if c.UDP != nil {
		udpBytes := c.UDP.Marshal(udpHeaderLen + transportLen)
		transport = append(udpBytes, transport...)
		transportLen += udpHeaderLen
	}
	if c.ESP != nil {
		espBytes := c.ESP.Marshal()
		transport = append(espBytes, transport...)
		transportLen += espHeaderLen
	}

	var out []byte
	switch {
	case c.V4 != nil:
		raw, err := c.V4.Marshal(transportLen)
		if err != nil {
			return nil, err
		}
		out = raw
	case c.V6 != nil:
		extLen := 0
		for _, ext := range c.Extensions {
			extLen += ext.Length
		}
		out = c.V6.Marshal(transportLen + extLen)
		for _, ext := range c.Extensions {
			out = append(out, ext.Raw...)
		}
	default:
		return nil, fmt.Errorf("%w: chain has neither IPv4 nor IPv6 header", ErrMalformed)
	}

	out = append(out, transport...)
	return out, nil
}
