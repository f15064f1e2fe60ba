// Package comp implements the compressor side of the per-flow context
// state machine: IR (full header) -> FO (first-order deltas) -> SO
// (second-order, SN+CRC only), plus the packet-type selection that decides
// which of IR/IR-DYN/UO-0/UO-1*/UOR-2* to emit for a given packet.
package comp
