// Package wlsb implements Window-based Least Significant Bits encoding
// (RFC 3095 §4.5.1, spec §4.3). The encoder tracks a sliding window of
// recently-sent (reference, sequence) pairs and picks the smallest bit
// count k whose interpretation interval covers the new value for every
// reference still in flight; the decoder inverts a received k-bit field
// against its own single current reference.
package wlsb
