package crc

import "testing"

func TestComputeDeterministic(t *testing.T) {
	data := []byte{0x01, 0x02, 0x03, 0x04, 0x05}
	for _, kind := range []Kind{CRC2, CRC3, CRC6, CRC7, CRC8} {
		a, err := ComputeDefault(kind, data)
		if err != nil {
			t.Fatalf("kind %d: %v", kind, err)
		}
		b, err := ComputeDefault(kind, data)
		if err != nil {
			t.Fatalf("kind %d: %v", kind, err)
		}
		if a != b {
			t.Errorf("kind %d: non-deterministic result %d vs %d", kind, a, b)
		}
		if int(a) >= 1<<Width(kind) {
			t.Errorf("kind %d: result %d exceeds width %d", kind, a, Width(kind))
		}
	}
}

func TestComputeSensitiveToInput(t *testing.T) {
	a, _ := ComputeDefault(CRC8, []byte{0x01, 0x02, 0x03})
	b, _ := ComputeDefault(CRC8, []byte{0x01, 0x02, 0x04})
	if a == b {
		t.Error("expected different CRC-8 results for different inputs")
	}
}

func TestComputeInitAffectsResult(t *testing.T) {
	data := []byte{0xAA, 0xBB}
	a, _ := Compute(CRC7, data, Init(CRC7))
	b, _ := Compute(CRC7, data, 0)
	if a == b {
		t.Error("expected different results for different init values")
	}
}

func TestComputeUnknownKind(t *testing.T) {
	if _, err := ComputeDefault(Kind(99), []byte{0x01}); err == nil {
		t.Error("expected error for unknown CRC kind")
	}
}

func TestFieldMaskHas(t *testing.T) {
	if !StaticMask.Has(FieldAddresses) {
		t.Error("StaticMask should include FieldAddresses")
	}
	if StaticMask.Has(FieldTTL) {
		t.Error("StaticMask should not include FieldTTL")
	}
	if !DynamicMask.Has(FieldTTL) {
		t.Error("DynamicMask should include FieldTTL")
	}
}
