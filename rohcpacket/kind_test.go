package rohcpacket

import "testing"

func TestClassifyKind(t *testing.T) {
	cases := []struct {
		b    byte
		want Kind
	}{
		{0xFC, KindIR}, {0xFD, KindIR},
		{0xF8, KindIRDyn},
		{0xFE, KindSegment}, {0xFF, KindSegment},
		{0x00, KindUO0}, {0x7F, KindUO0},
		{0xC0, KindUOR2}, {0xDF, KindUOR2},
		{0x80, KindUO1}, {0xBF, KindUO1},
	}
	for _, c := range cases {
		if got := ClassifyKind(c.b); got != c.want {
			t.Errorf("ClassifyKind(0x%02x) = %v, want %v", c.b, got, c.want)
		}
	}
}

func TestAddCIDRoundTrip(t *testing.T) {
	b, err := BuildAddCID(7)
	if err != nil {
		t.Fatalf("BuildAddCID: %v", err)
	}
	cid, ok := IsAddCID(b)
	if !ok || cid != 7 {
		t.Errorf("IsAddCID = (%d, %v), want (7, true)", cid, ok)
	}
}

func TestBuildAddCIDRejectsOutOfRange(t *testing.T) {
	if _, err := BuildAddCID(0); err == nil {
		t.Error("expected error for cid 0")
	}
	if _, err := BuildAddCID(16); err == nil {
		t.Error("expected error for cid 16")
	}
}
