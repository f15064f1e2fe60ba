package rohcpacket

import (
	"bytes"
	"testing"
)

func TestUO0RoundTripNoCID(t *testing.T) {
	p := UO0{CIDMode: SmallCID, SNBits: 0xA, CRC: 0x5}
	raw, err := BuildUO0(p)
	if err != nil {
		t.Fatalf("BuildUO0: %v", err)
	}
	if len(raw) != 1 {
		t.Fatalf("expected 1-byte UO-0 packet, got %d", len(raw))
	}
	got, n, err := ParseUO0(raw)
	if err != nil {
		t.Fatalf("ParseUO0: %v", err)
	}
	if n != 1 || got.SNBits != 0xA || got.CRC != 0x5 || got.CID != 0 {
		t.Errorf("ParseUO0 = %+v, n=%d", got, n)
	}
}

func TestUO0RoundTripWithSmallCID(t *testing.T) {
	p := UO0{CIDMode: SmallCID, CID: 3, SNBits: 0x7, CRC: 0x2}
	raw, err := BuildUO0(p)
	if err != nil {
		t.Fatalf("BuildUO0: %v", err)
	}
	if len(raw) != 2 {
		t.Fatalf("expected 2-byte UO-0 packet with add-CID, got %d", len(raw))
	}
	got, n, err := ParseUO0(raw)
	if err != nil {
		t.Fatalf("ParseUO0: %v", err)
	}
	if n != 2 || got.CID != 3 || got.SNBits != 0x7 || got.CRC != 0x2 {
		t.Errorf("ParseUO0 = %+v, n=%d", got, n)
	}
}

func TestBuildUO0RejectsLargeCID(t *testing.T) {
	_, err := BuildUO0(UO0{CIDMode: LargeCID, CID: 100})
	if err == nil {
		t.Error("expected error for large CID UO-0")
	}
}

func TestParseUO0RejectsTopBitSet(t *testing.T) {
	_, _, err := ParseUO0([]byte{0x80})
	if err == nil {
		t.Error("expected error for discriminator with top bit set")
	}
}

func TestParseUO0Truncated(t *testing.T) {
	_, _, err := ParseUO0(nil)
	if err == nil {
		t.Error("expected error for empty buffer")
	}
}

func TestUO0MasksFields(t *testing.T) {
	p := UO0{CIDMode: SmallCID, SNBits: 0xFF, CRC: 0xFF}
	raw, err := BuildUO0(p)
	if err != nil {
		t.Fatalf("BuildUO0: %v", err)
	}
	if !bytes.Equal(raw, []byte{0x7F}) {
		t.Errorf("expected masked disc 0x7F, got %x", raw)
	}
}
