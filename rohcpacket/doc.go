// Package rohcpacket builds and parses the ROHC packet types named in spec
// §4.7: IR, IR-DYN, UO-0, the UO-1 family, and the UOR-2 family, plus their
// CID prefixes and MRRU segmentation framing. It extracts and inserts raw
// bitfields only - it does not run W-LSB encode/decode itself, and it does
// not decide which packet type to use. Those decisions belong to the
// compressor and decompressor context state machines (C7/C8), which know
// the profile, the current state, and the live W-LSB window.
package rohcpacket
