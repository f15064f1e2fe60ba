// Package rohc implements the core of RFC 3095 RObust Header Compression: a
// compressor and decompressor pair that reduce IP/UDP/RTP/ESP/UDP-Lite
// header overhead on lossy, long-latency links by keeping synchronized
// per-flow context at both ends and transmitting only what changed.
//
// A typical caller creates one Compressor and one Decompressor per
// direction of traffic, feeds uncompressed packets to Compressor.Compress
// and compressed bytes to Decompressor.Decompress, and is responsible for
// getting the resulting bytes across its own transport - this package does
// no I/O of its own.
package rohc
