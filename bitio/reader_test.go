package bitio

import "testing"

func TestReaderWriterRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		bits []int
		vals []uint32
	}{
		{"single byte split", []int{3, 5}, []uint32{0x5, 0x11}},
		{"crosses byte boundary", []int{4, 8, 4}, []uint32{0xA, 0xBC, 0xD}},
		{"32 bit field", []int{32}, []uint32{0xDEADBEEF}},
		{"many small fields", []int{1, 1, 1, 1, 1, 1, 1, 1}, []uint32{1, 0, 1, 1, 0, 0, 0, 1}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			w := NewWriter()
			for i, n := range tc.bits {
				if err := w.WriteBits(tc.vals[i], n); err != nil {
					t.Fatalf("WriteBits(%d, %d): %v", tc.vals[i], n, err)
				}
			}
			r := NewReader(w.Bytes())
			for i, n := range tc.bits {
				got, err := r.ReadBits(n)
				if err != nil {
					t.Fatalf("ReadBits(%d): %v", n, err)
				}
				if got != tc.vals[i] {
					t.Errorf("field %d: got %#x, want %#x", i, got, tc.vals[i])
				}
			}
		})
	}
}

func TestReaderTruncated(t *testing.T) {
	r := NewReader([]byte{0xFF})
	if _, err := r.ReadBits(16); err != ErrTruncated {
		t.Errorf("expected ErrTruncated, got %v", err)
	}
}

func TestReaderPeekDoesNotAdvance(t *testing.T) {
	r := NewReader([]byte{0xAB, 0xCD})
	peeked, err := r.PeekBits(8)
	if err != nil {
		t.Fatalf("PeekBits: %v", err)
	}
	if peeked != 0xAB {
		t.Errorf("got %#x, want 0xAB", peeked)
	}
	read, err := r.ReadBits(8)
	if err != nil {
		t.Fatalf("ReadBits: %v", err)
	}
	if read != 0xAB {
		t.Errorf("peek changed subsequent read: got %#x", read)
	}
}

func TestAlignByte(t *testing.T) {
	w := NewWriter()
	_ = w.WriteBits(0x5, 3)
	w.AlignByte()
	_ = w.WriteByte(0x42)
	data := w.Bytes()
	if len(data) != 2 {
		t.Fatalf("expected 2 bytes, got %d", len(data))
	}
	if data[1] != 0x42 {
		t.Errorf("got %#x, want 0x42", data[1])
	}
}

func TestWriteBitsOverflow(t *testing.T) {
	w := NewWriter()
	if err := w.WriteBits(0x10, 4); err == nil {
		t.Error("expected error for value not fitting in 4 bits")
	}
}
