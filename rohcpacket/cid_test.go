package rohcpacket

import "testing"

func TestWriteCIDPrefixSmallNonZero(t *testing.T) {
	prefix, err := writeCIDPrefix(SmallCID, 5)
	if err != nil {
		t.Fatalf("writeCIDPrefix: %v", err)
	}
	if len(prefix) != 1 {
		t.Fatalf("expected 1-byte prefix, got %d", len(prefix))
	}
	cid, n := readCIDPrefix(prefix)
	if cid != 5 || n != 1 {
		t.Errorf("readCIDPrefix = (%d, %d), want (5, 1)", cid, n)
	}
}

func TestWriteCIDPrefixSmallZero(t *testing.T) {
	prefix, err := writeCIDPrefix(SmallCID, 0)
	if err != nil {
		t.Fatalf("writeCIDPrefix: %v", err)
	}
	if len(prefix) != 0 {
		t.Errorf("expected no prefix for cid 0, got %v", prefix)
	}
}

func TestWriteCIDPrefixRejectsOutOfRange(t *testing.T) {
	if _, err := writeCIDPrefix(SmallCID, 16); err == nil {
		t.Error("expected error for small cid 16")
	}
}

func TestLargeCIDSuffixRoundTrip(t *testing.T) {
	suffix, err := writeLargeCIDSuffix(LargeCID, 1000)
	if err != nil {
		t.Fatalf("writeLargeCIDSuffix: %v", err)
	}
	cid, n, err := readLargeCIDSuffix(suffix)
	if err != nil {
		t.Fatalf("readLargeCIDSuffix: %v", err)
	}
	if cid != 1000 || n != len(suffix) {
		t.Errorf("readLargeCIDSuffix = (%d, %d), want (1000, %d)", cid, n, len(suffix))
	}
}

func TestWriteLargeCIDSuffixSkippedForSmallMode(t *testing.T) {
	suffix, err := writeLargeCIDSuffix(SmallCID, 3)
	if err != nil {
		t.Fatalf("writeLargeCIDSuffix: %v", err)
	}
	if suffix != nil {
		t.Errorf("expected nil suffix in SmallCID mode, got %v", suffix)
	}
}

func TestReadCIDPrefixEmpty(t *testing.T) {
	cid, n := readCIDPrefix(nil)
	if cid != 0 || n != 0 {
		t.Errorf("readCIDPrefix(nil) = (%d, %d), want (0, 0)", cid, n)
	}
}
