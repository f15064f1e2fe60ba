package ipheader

import (
	"bytes"
	"reflect"
	"testing"
)

func buildRawIPv4(t *testing.T, h *IPv4, payload []byte) []byte {
	t.Helper()
	raw, err := h.Marshal(len(payload))
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	return append(raw, payload...)
}

func TestIPv4RoundTrip(t *testing.T) {
	h := &IPv4{
		TOS:      0x10,
		TTL:      64,
		Protocol: 17,
		DF:       true,
		ID:       0xBEEF,
		Src:      [4]byte{10, 0, 0, 1},
		Dst:      [4]byte{10, 0, 0, 2},
	}
	payload := []byte{1, 2, 3, 4, 5, 6, 7, 8}
	raw := buildRawIPv4(t, h, payload)

	got, hlen, err := ParseIPv4(raw)
	if err != nil {
		t.Fatalf("ParseIPv4: %v", err)
	}
	if hlen != 20 {
		t.Errorf("header length = %d, want 20", hlen)
	}
	if !reflect.DeepEqual(got, h) {
		t.Errorf("round trip mismatch: got %+v, want %+v", got, h)
	}
}

func TestIPv4MarshalSetsChecksum(t *testing.T) {
	h := &IPv4{TTL: 1, Protocol: 6, Src: [4]byte{1, 1, 1, 1}, Dst: [4]byte{2, 2, 2, 2}}
	raw, err := h.Marshal(0)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if raw[10] == 0 && raw[11] == 0 {
		t.Errorf("checksum field left zero")
	}

	// Corrupting a byte should change what the checksum would need to be.
	tampered := append([]byte(nil), raw...)
	tampered[0] ^= 0xFF
	if bytes.Equal(tampered, raw) {
		t.Fatal("tamper did not change buffer")
	}
}

func TestParseIPv4TruncatedBuffer(t *testing.T) {
	_, _, err := ParseIPv4([]byte{0x45, 0x00, 0x00, 0x14})
	if err == nil {
		t.Fatal("expected error for truncated header")
	}
}

func TestIPv4OptionsPreserved(t *testing.T) {
	h := &IPv4{
		TTL: 32, Protocol: 1,
		Src: [4]byte{192, 168, 1, 1}, Dst: [4]byte{192, 168, 1, 2},
		Options: []byte{0x94, 0x04, 0x00, 0x00}, // 4-byte option, padded to word
	}
	raw := buildRawIPv4(t, h, nil)
	got, hlen, err := ParseIPv4(raw)
	if err != nil {
		t.Fatalf("ParseIPv4: %v", err)
	}
	if hlen != 24 {
		t.Errorf("header length = %d, want 24", hlen)
	}
	if !bytes.Equal(got.Options, h.Options) {
		t.Errorf("options = %x, want %x", got.Options, h.Options)
	}
}
