package ipheader

import "testing"

func TestUDPRoundTrip(t *testing.T) {
	u := &UDP{SrcPort: 5000, DstPort: 5001, Checksum: 0x1234}
	raw := u.Marshal(8 + 100)
	got, err := ParseUDP(raw, false)
	if err != nil {
		t.Fatalf("ParseUDP: %v", err)
	}
	if *got != *u {
		t.Errorf("round trip mismatch: got %+v, want %+v", got, u)
	}
}

func TestUDPLiteCoverageLenRoundTrip(t *testing.T) {
	u := &UDP{SrcPort: 1, DstPort: 2, Checksum: 0xBEEF, Lite: true, CoverageLen: 12}
	raw := u.Marshal(0)
	got, err := ParseUDP(raw, true)
	if err != nil {
		t.Fatalf("ParseUDP: %v", err)
	}
	if *got != *u {
		t.Errorf("round trip mismatch: got %+v, want %+v", got, u)
	}
}

func TestParseUDPTruncated(t *testing.T) {
	if _, err := ParseUDP([]byte{0, 0, 0}, false); err == nil {
		t.Fatal("expected error for truncated header")
	}
}
