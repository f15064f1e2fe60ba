// Package profile matches a parsed header chain to a ROHC compression
// profile and maintains the Context ID table that maps a flow's identity to
// the small integer carried on the wire (spec §3 Flow identity, §6 Profile
// IDs). It does not itself drive compression or decompression state
// machines (C7/C8 own those); it answers two questions, "which profile does
// this packet belong to" and "which CID does this flow have."
package profile
