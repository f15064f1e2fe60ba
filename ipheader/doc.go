// Package ipheader walks and rebuilds the header chains ROHC compresses:
// IPv4, IPv6 plus its extension headers, UDP/UDP-Lite, ESP, and RTP. It
// exposes the chain as a small set of typed structs so the profile,
// compressor and decompressor layers (C6-C8) never touch raw offsets
// themselves; only this package does pointer arithmetic into the packet
// buffer, and every step is bounds-checked against the declared header
// lengths (spec §9 Design Notes: the IPv6 extension walker is a mandatory
// bounds check, not best-effort).
package ipheader
