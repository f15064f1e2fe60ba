package rohcpacket

import (
	"fmt"

	"github.com/skyhook-net/rohc/bitio"
)

// feedbackDisc and feedbackSizeMask implement the feedback-element framing
// spec §4.9 names ("typically piggy-backed into compressed output") without
// pinning down a byte layout: a leading 11110SSS octet where the low 3
// bits hold the element's size in bytes when that size is in [1,7], or 0 to
// mean "the size follows as an SDVL integer", the same discriminator/escape
// split RFC 3095 uses elsewhere in this packet set (e.g. SDVL's own prefix
// codes). A ROHC packet starting with this octet is disambiguated from
// every other packet type by feedbackMask: no other discriminator in this
// package sets the top nibble to 1111 while leaving bit 3 clear.
const (
	feedbackDisc byte = 0xF0 // 11110SSS, SSS = size in [1,7], or 0 for SDVL escape
	feedbackMask byte = 0xF8
)

// IsFeedbackPrefix reports whether data begins with a piggybacked feedback
// element and, if so, returns the feedback element's raw bytes plus the
// number of bytes the whole prefix (discriminator, any SDVL escape, and
// the element itself) consumed.
func IsFeedbackPrefix(data []byte) (feedback []byte, consumed int, ok bool, err error) {
	if len(data) == 0 || data[0]&feedbackMask != feedbackDisc {
		return nil, 0, false, nil
	}
	size := int(data[0] & 0x7)
	offset := 1
	if size == 0 {
		n, nbytes, derr := bitio.DecodeSDVLBytes(data[offset:])
		if derr != nil {
			return nil, 0, false, derr
		}
		size = int(n)
		offset += nbytes
	}
	if offset+size > len(data) {
		return nil, 0, false, fmt.Errorf("rohcpacket: feedback element of %d bytes overruns buffer", size)
	}
	return data[offset : offset+size], offset + size, true, nil
}

// BuildFeedbackPrefix frames one feedback element for piggyback onto the
// front of a compressed packet (or a standalone feedback-only
// transmission, which is simply this prefix with nothing following it).
func BuildFeedbackPrefix(element []byte) ([]byte, error) {
	if len(element) == 0 {
		return nil, fmt.Errorf("rohcpacket: cannot piggyback an empty feedback element")
	}
	if len(element) <= 7 {
		return append([]byte{feedbackDisc | byte(len(element))}, element...), nil
	}
	size, err := bitio.EncodeSDVL(uint32(len(element)))
	if err != nil {
		return nil, err
	}
	out := append([]byte{feedbackDisc}, size...)
	return append(out, element...), nil
}
