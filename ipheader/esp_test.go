package ipheader

import "testing"

func TestESPRoundTrip(t *testing.T) {
	e := &ESP{SPI: 0xDEADBEEF, SN: 42}
	got, err := ParseESP(e.Marshal())
	if err != nil {
		t.Fatalf("ParseESP: %v", err)
	}
	if *got != *e {
		t.Errorf("round trip mismatch: got %+v, want %+v", got, e)
	}
}

func TestParseESPTruncated(t *testing.T) {
	if _, err := ParseESP([]byte{1, 2, 3}); err == nil {
		t.Fatal("expected error for truncated header")
	}
}
