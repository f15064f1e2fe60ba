// Package limits centralizes the size and window bounds a ROHC endpoint
// must enforce on its own configuration and on packets crossing its
// boundary, so validation stays consistent across the factory, compressor,
// and decompressor.
package limits

import (
	"errors"
	"fmt"
)

const (
	// MaxSmallCID is the highest Context ID representable with a small CID
	// (1 byte, add-CID octet or none at all).
	MaxSmallCID = 15

	// MaxLargeCID is the highest Context ID representable with a large CID
	// (1-2 byte SDVL encoding).
	MaxLargeCID = 16383

	// MaxUncompressedPacket bounds the reconstructed header chain plus
	// payload a single endpoint call will process; larger inputs are
	// rejected before any parsing begins.
	MaxUncompressedPacket = 65535

	// MaxCompressedPacket bounds a single ROHC packet, excluding any MRRU
	// segmentation; this is the default link MTU assumption.
	MaxCompressedPacket = 1500

	// MaxWlsbWindow is the largest W-LSB window width a context may
	// configure (spec §6: 1-256, power of two).
	MaxWlsbWindow = 256

	// MaxMRRU bounds reassembled segment size; 0 disables segmentation.
	MaxMRRU = 65535

	// MaxRTPPortHints is the cap on configured UDP ports hinting RTP.
	MaxRTPPortHints = 15

	// MaxTraceLen is the retained length of a single trace line recorded
	// into the ring buffer a compressor/decompressor keeps for diagnostics.
	MaxTraceLen = 300
)

var (
	// ErrEmpty indicates an empty buffer was provided where content was required.
	ErrEmpty = errors.New("limits: empty input")

	// ErrTooLarge indicates input exceeds the applicable maximum size.
	ErrTooLarge = errors.New("limits: input too large")

	// ErrOutOfRange indicates a configuration value falls outside its valid bounds.
	ErrOutOfRange = errors.New("limits: value out of range")
)

// ValidateUncompressedPacket checks packet against MaxUncompressedPacket.
func ValidateUncompressedPacket(packet []byte) error {
	if len(packet) == 0 {
		return ErrEmpty
	}
	if len(packet) > MaxUncompressedPacket {
		return fmt.Errorf("%w: uncompressed size %d exceeds limit %d", ErrTooLarge, len(packet), MaxUncompressedPacket)
	}
	return nil
}

// ValidateCompressedPacket checks packet against MaxCompressedPacket.
func ValidateCompressedPacket(packet []byte) error {
	if len(packet) == 0 {
		return ErrEmpty
	}
	if len(packet) > MaxCompressedPacket {
		return fmt.Errorf("%w: compressed size %d exceeds limit %d", ErrTooLarge, len(packet), MaxCompressedPacket)
	}
	return nil
}

// ValidateCID checks a CID value against the bound implied by large.
func ValidateCID(cid uint16, large bool) error {
	max := uint16(MaxSmallCID)
	if large {
		max = MaxLargeCID
	}
	if cid > max {
		return fmt.Errorf("%w: cid %d exceeds max %d", ErrOutOfRange, cid, max)
	}
	return nil
}

// ValidateWlsbWindow checks a configured W-LSB window width: must be in
// [1, MaxWlsbWindow] and a power of two.
func ValidateWlsbWindow(w int) error {
	if w < 1 || w > MaxWlsbWindow {
		return fmt.Errorf("%w: wlsb window %d not in [1,%d]", ErrOutOfRange, w, MaxWlsbWindow)
	}
	if w&(w-1) != 0 {
		return fmt.Errorf("%w: wlsb window %d is not a power of two", ErrOutOfRange, w)
	}
	return nil
}

// ValidateMRRU checks a configured MRRU value.
func ValidateMRRU(mrru int) error {
	if mrru < 0 || mrru > MaxMRRU {
		return fmt.Errorf("%w: mrru %d not in [0,%d]", ErrOutOfRange, mrru, MaxMRRU)
	}
	return nil
}

// ValidateRTPPorts checks a configured list of RTP port hints.
func ValidateRTPPorts(ports []uint16) error {
	if len(ports) > MaxRTPPortHints {
		return fmt.Errorf("%w: %d rtp_ports entries exceeds limit %d", ErrTooLarge, len(ports), MaxRTPPortHints)
	}
	return nil
}
