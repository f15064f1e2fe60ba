package ipheader

import "errors"

// ErrMalformed indicates a truncated header, an unsupported IP version, or
// a length field that does not fit within the enclosing packet.
var ErrMalformed = errors.New("ipheader: malformed header")

// ErrUnsupportedProtocol indicates the next-header/protocol value is not one
// C5 knows how to walk past (it still stops cleanly; spec §7 Malformed is
// not raised merely for an unrecognized upper-layer protocol).
var ErrUnsupportedProtocol = errors.New("ipheader: unsupported next protocol")
