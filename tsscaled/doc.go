// Package tsscaled implements the RTP Scaled Timestamp encoder and decoder
// (RFC 3095 §4.5.3, spec §4.4): a three-state machine that discovers a
// constant RTP clock stride, transmits it a handful of times uncompressed,
// then compresses subsequent timestamps to a small TS_SCALED value carried
// through a wlsb.Encoder/Decoder pair.
package tsscaled
