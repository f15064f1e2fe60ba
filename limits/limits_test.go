package limits

import (
	"errors"
	"testing"
)

func TestValidateUncompressedPacket(t *testing.T) {
	if err := ValidateUncompressedPacket(nil); !errors.Is(err, ErrEmpty) {
		t.Errorf("empty: got %v, want ErrEmpty", err)
	}
	if err := ValidateUncompressedPacket(make([]byte, MaxUncompressedPacket+1)); !errors.Is(err, ErrTooLarge) {
		t.Errorf("oversize: got %v, want ErrTooLarge", err)
	}
	if err := ValidateUncompressedPacket([]byte{1, 2, 3}); err != nil {
		t.Errorf("valid input rejected: %v", err)
	}
}

func TestValidateCompressedPacket(t *testing.T) {
	if err := ValidateCompressedPacket(make([]byte, MaxCompressedPacket+1)); !errors.Is(err, ErrTooLarge) {
		t.Errorf("oversize: got %v, want ErrTooLarge", err)
	}
}

func TestValidateCID(t *testing.T) {
	if err := ValidateCID(MaxSmallCID, false); err != nil {
		t.Errorf("max small CID rejected: %v", err)
	}
	if err := ValidateCID(MaxSmallCID+1, false); !errors.Is(err, ErrOutOfRange) {
		t.Errorf("expected ErrOutOfRange for small CID overflow, got %v", err)
	}
	if err := ValidateCID(MaxLargeCID, true); err != nil {
		t.Errorf("max large CID rejected: %v", err)
	}
	if err := ValidateCID(MaxLargeCID+1, true); !errors.Is(err, ErrOutOfRange) {
		t.Errorf("expected ErrOutOfRange for large CID overflow, got %v", err)
	}
}

func TestValidateWlsbWindow(t *testing.T) {
	cases := []struct {
		w     int
		valid bool
	}{
		{0, false}, {1, true}, {4, true}, {5, false}, {256, true}, {257, false}, {512, false},
	}
	for _, c := range cases {
		err := ValidateWlsbWindow(c.w)
		if c.valid && err != nil {
			t.Errorf("window %d: unexpected error %v", c.w, err)
		}
		if !c.valid && err == nil {
			t.Errorf("window %d: expected error, got nil", c.w)
		}
	}
}

func TestValidateMRRU(t *testing.T) {
	if err := ValidateMRRU(0); err != nil {
		t.Errorf("0 (disabled) rejected: %v", err)
	}
	if err := ValidateMRRU(-1); !errors.Is(err, ErrOutOfRange) {
		t.Errorf("negative mrru: got %v, want ErrOutOfRange", err)
	}
	if err := ValidateMRRU(MaxMRRU + 1); !errors.Is(err, ErrOutOfRange) {
		t.Errorf("oversize mrru: got %v, want ErrOutOfRange", err)
	}
}

func TestValidateRTPPorts(t *testing.T) {
	ports := make([]uint16, MaxRTPPortHints+1)
	if err := ValidateRTPPorts(ports); !errors.Is(err, ErrTooLarge) {
		t.Errorf("got %v, want ErrTooLarge", err)
	}
	if err := ValidateRTPPorts(ports[:MaxRTPPortHints]); err != nil {
		t.Errorf("at-limit list rejected: %v", err)
	}
}
