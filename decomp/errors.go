package decomp

import "errors"

// ErrCrcMismatch is wrapped into every CRC-validation failure this package
// returns (spec §7 KindCrcMismatch); the root package's errors.go maps it
// onto the public Kind/Error type.
var ErrCrcMismatch = errors.New("decomp: crc mismatch")

// ErrMalformed is wrapped into parse failures this package cannot attribute
// to a more specific sentinel (spec §7 KindMalformed).
var ErrMalformed = errors.New("decomp: malformed packet")
