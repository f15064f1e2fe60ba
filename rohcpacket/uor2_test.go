package rohcpacket

import "testing"

func TestUOR2PlainRoundTripNoExtension(t *testing.T) {
	p := UOR2{CID: 0, Variant: UOR2Plain, SNBits: 0x1A, CRC: 0x7F}
	raw, err := BuildUOR2(p)
	if err != nil {
		t.Fatalf("BuildUOR2: %v", err)
	}
	got, n, err := ParseUOR2(raw, UOR2Plain, 0)
	if err != nil {
		t.Fatalf("ParseUOR2: %v", err)
	}
	if n != len(raw) || got.SNBits != 0x1A || got.CRC != 0x7F {
		t.Errorf("got = %+v, n=%d", got, n)
	}
}

func TestUOR2PlainRoundTripWithExtension(t *testing.T) {
	p := UOR2{CID: 0, Variant: UOR2Plain, SNBits: 0x05, CRC: 0x12, Ext: []byte{0x01}}
	raw, err := BuildUOR2(p)
	if err != nil {
		t.Fatalf("BuildUOR2: %v", err)
	}
	got, n, err := ParseUOR2(raw, UOR2Plain, 1)
	if err != nil {
		t.Fatalf("ParseUOR2: %v", err)
	}
	if n != len(raw) || got.SNBits != 0x05 || got.CRC != 0x12 {
		t.Errorf("got = %+v, n=%d", got, n)
	}
	if string(got.Ext) != string(p.Ext) {
		t.Errorf("Ext = %v, want %v", got.Ext, p.Ext)
	}
}

func TestUOR2RTPRoundTrip(t *testing.T) {
	p := UOR2{CID: 0, Variant: UOR2RTP, SNBits: 0x0C, TSBits: 0x55, Marker: true, CRC: 0x33}
	raw, err := BuildUOR2(p)
	if err != nil {
		t.Fatalf("BuildUOR2: %v", err)
	}
	got, n, err := ParseUOR2(raw, UOR2RTP, 0)
	if err != nil {
		t.Fatalf("ParseUOR2: %v", err)
	}
	if n != len(raw) || got.SNBits != 0x0C || got.TSBits != 0x55 || !got.Marker || got.CRC != 0x33 {
		t.Errorf("got = %+v, n=%d", got, n)
	}
}

func TestUOR2WithSmallCIDPrefix(t *testing.T) {
	p := UOR2{CID: 12, Variant: UOR2Plain, SNBits: 0x01, CRC: 0x01}
	raw, err := BuildUOR2(p)
	if err != nil {
		t.Fatalf("BuildUOR2: %v", err)
	}
	got, n, err := ParseUOR2(raw, UOR2Plain, 0)
	if err != nil {
		t.Fatalf("ParseUOR2: %v", err)
	}
	if n != len(raw) || got.CID != 12 {
		t.Errorf("got = %+v, n=%d", got, n)
	}
}

func TestParseUOR2RejectsWrongDiscriminator(t *testing.T) {
	_, _, err := ParseUOR2([]byte{0x00, 0x00}, UOR2Plain, 0)
	if err == nil {
		t.Error("expected error for non-UOR-2 discriminator")
	}
}

func TestParseUOR2Truncated(t *testing.T) {
	_, _, err := ParseUOR2([]byte{0xC0}, UOR2Plain, 0)
	if err == nil {
		t.Error("expected error for truncated UOR-2 packet")
	}
	_, _, err = ParseUOR2([]byte{0xC0, 0x00}, UOR2RTP, 0)
	if err == nil {
		t.Error("expected error for truncated UOR-2-RTP packet")
	}
}
