// Package bitio implements big-endian bitfield reading and writing and the
// ROHC Self-Describing Variable-Length (SDVL) integer encoding (RFC 3095
// §4.5.6). Every multi-bit field in a ROHC packet is packed without byte
// alignment, so the codec layers above (wlsb, tsscaled, rohcpacket,
// feedback) drive everything through a Reader/Writer pair instead of
// touching byte slices directly.
package bitio
