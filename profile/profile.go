package profile

import (
	"errors"

	"github.com/skyhook-net/rohc/ipheader"
)

// ID is a ROHC profile identifier, IANA-assigned (spec §6).
type ID uint16

const (
	Uncompressed ID = 0x0000
	RTP          ID = 0x0001
	UDP          ID = 0x0002
	ESP          ID = 0x0003
	IP           ID = 0x0004
	TCP          ID = 0x0006
	UDPLite      ID = 0x0008
)

func (id ID) String() string {
	switch id {
	case Uncompressed:
		return "uncompressed"
	case RTP:
		return "rtp"
	case UDP:
		return "udp"
	case ESP:
		return "esp"
	case IP:
		return "ip"
	case TCP:
		return "tcp"
	case UDPLite:
		return "udp-lite"
	default:
		return "unknown"
	}
}

// Shape reports which transport sections a profile's static/dynamic chain
// encoding carries, so a decompressor can reconstruct a Chain from the
// opaque byte slices an IR/IR-DYN packet delivers without re-deriving that
// knowledge from the wire bytes themselves.
func Shape(id ID) (hasUDP, hasESP, hasRTP, udpLite bool) {
	switch id {
	case RTP:
		return true, false, true, false
	case UDP:
		return true, false, false, false
	case UDPLite:
		return true, false, false, true
	case ESP:
		return false, true, false, false
	default:
		return false, false, false, false
	}
}

// ErrNoMatch means no registered profile's signature matched the chain.
var ErrNoMatch = errors.New("profile: no profile matches this header chain")

// FlowKey identifies a flow independent of CID, built from whichever fields
// spec §3 names for the matched profile: outer addresses, next protocol,
// and profile-specific fields (ports, SPI, flow label).
type FlowKey struct {
	Profile  ID
	SrcAddr  string // textual form of the outer (and, for ESP/IP, only) IP address
	DstAddr  string
	NextProt uint8
	SrcPort  uint16 // UDP/RTP only
	DstPort  uint16 // UDP/RTP only
	SPI      uint32 // ESP only
	FlowV6   uint32 // IPv6 flow label, if present
}

// Matcher decides whether a parsed chain belongs to a profile and, if so,
// derives its FlowKey. Order matters: the registry tries matchers most
// specific to least specific (RTP before plain UDP, for instance).
type Matcher interface {
	ID() ID
	Match(c *ipheader.Chain) (FlowKey, bool)
}

// Registry holds an ordered list of Matchers and performs classification.
// It is immutable after Seal is called, and may then be shared across
// endpoints without synchronization (spec §5 Shared resources).
type Registry struct {
	matchers []Matcher
	sealed   bool
}

// NewRegistry creates a Registry pre-populated with the standard IP/UDP/ESP
// /RTP/UDP-Lite matchers in most-specific-first order. TCP and Uncompressed
// are intentionally not pre-registered: TCP is optional per spec §1
// Non-goals, and Uncompressed is the fallback any caller can append last.
func NewRegistry() *Registry {
	r := &Registry{}
	r.Register(rtpMatcher{})
	r.Register(udpLiteMatcher{})
	r.Register(udpMatcher{})
	r.Register(espMatcher{})
	r.Register(ipMatcher{})
	return r
}

// Register appends m to the matcher list. Panics if called after Seal, to
// catch accidental registration races after an endpoint starts serving
// traffic.
func (r *Registry) Register(m Matcher) {
	if r.sealed {
		panic("profile: Register called on a sealed Registry")
	}
	r.matchers = append(r.matchers, m)
}

// Seal freezes the matcher order; subsequent Register calls panic.
func (r *Registry) Seal() {
	r.sealed = true
}

// Classify returns the first matching profile's ID and FlowKey.
func (r *Registry) Classify(c *ipheader.Chain) (ID, FlowKey, error) {
	for _, m := range r.matchers {
		if key, ok := m.Match(c); ok {
			return m.ID(), key, nil
		}
	}
	return 0, FlowKey{}, ErrNoMatch
}

// ByID looks up a registered matcher's profile without needing a chain,
// used when building an IR for a profile whose FlowKey is already known.
func (r *Registry) ByID(id ID) (Matcher, bool) {
	for _, m := range r.matchers {
		if m.ID() == id {
			return m, true
		}
	}
	return nil, false
}

func outerAddrs(c *ipheader.Chain) (src, dst string, flow uint32) {
	switch {
	case c.V4 != nil:
		return string(c.V4.Src[:]), string(c.V4.Dst[:]), 0
	case c.V6 != nil:
		return string(c.V6.Src[:]), string(c.V6.Dst[:]), c.V6.FlowLabel
	default:
		return "", "", 0
	}
}

type rtpMatcher struct{}

func (rtpMatcher) ID() ID { return RTP }
func (rtpMatcher) Match(c *ipheader.Chain) (FlowKey, bool) {
	if c.UDP == nil || c.RTP == nil {
		return FlowKey{}, false
	}
	src, dst, flow := outerAddrs(c)
	return FlowKey{
		Profile: RTP, SrcAddr: src, DstAddr: dst,
		NextProt: ipheader.ProtoUDP,
		SrcPort:  c.UDP.SrcPort, DstPort: c.UDP.DstPort,
		FlowV6: flow,
	}, true
}

type udpLiteMatcher struct{}

func (udpLiteMatcher) ID() ID { return UDPLite }
func (udpLiteMatcher) Match(c *ipheader.Chain) (FlowKey, bool) {
	if c.UDP == nil || !c.UDP.Lite {
		return FlowKey{}, false
	}
	src, dst, flow := outerAddrs(c)
	return FlowKey{
		Profile: UDPLite, SrcAddr: src, DstAddr: dst,
		NextProt: ipheader.ProtoUDPLite,
		SrcPort:  c.UDP.SrcPort, DstPort: c.UDP.DstPort,
		FlowV6: flow,
	}, true
}

type udpMatcher struct{}

func (udpMatcher) ID() ID { return UDP }
func (udpMatcher) Match(c *ipheader.Chain) (FlowKey, bool) {
	if c.UDP == nil {
		return FlowKey{}, false
	}
	src, dst, flow := outerAddrs(c)
	return FlowKey{
		Profile: UDP, SrcAddr: src, DstAddr: dst,
		NextProt: ipheader.ProtoUDP,
		SrcPort:  c.UDP.SrcPort, DstPort: c.UDP.DstPort,
		FlowV6: flow,
	}, true
}

type espMatcher struct{}

func (espMatcher) ID() ID { return ESP }
func (espMatcher) Match(c *ipheader.Chain) (FlowKey, bool) {
	if c.ESP == nil {
		return FlowKey{}, false
	}
	src, dst, flow := outerAddrs(c)
	return FlowKey{
		Profile: ESP, SrcAddr: src, DstAddr: dst,
		NextProt: ipheader.ProtoESP,
		SPI:      c.ESP.SPI, FlowV6: flow,
	}, true
}

type ipMatcher struct{}

func (ipMatcher) ID() ID { return IP }
func (ipMatcher) Match(c *ipheader.Chain) (FlowKey, bool) {
	if c.V4 == nil && c.V6 == nil {
		return FlowKey{}, false
	}
	src, dst, flow := outerAddrs(c)
	return FlowKey{Profile: IP, SrcAddr: src, DstAddr: dst, FlowV6: flow}, true
}
