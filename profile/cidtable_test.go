package profile

import "testing"

func TestCIDTableAllocateReuse(t *testing.T) {
	tbl := NewCIDTable(3)
	k1 := FlowKey{Profile: UDP, SrcPort: 1}
	cid1, _, evicted := tbl.Allocate(k1)
	if evicted {
		t.Fatal("unexpected eviction on first allocation")
	}
	cid1Again, _, evicted := tbl.Allocate(k1)
	if evicted || cid1Again != cid1 {
		t.Errorf("re-allocating same key changed CID: %d vs %d", cid1, cid1Again)
	}
}

func TestCIDTableLookup(t *testing.T) {
	tbl := NewCIDTable(3)
	k := FlowKey{Profile: RTP, SrcPort: 7}
	cid, _, _ := tbl.Allocate(k)

	got, ok := tbl.Lookup(k)
	if !ok || got != cid {
		t.Errorf("Lookup = (%d, %v), want (%d, true)", got, ok, cid)
	}

	key, ok := tbl.ByCID(cid)
	if !ok || key != k {
		t.Errorf("ByCID = (%+v, %v), want (%+v, true)", key, ok, k)
	}
}

func TestCIDTableEvictsLRU(t *testing.T) {
	tbl := NewCIDTable(1) // capacity 2: CIDs 0,1
	k0 := FlowKey{SrcPort: 0}
	k1 := FlowKey{SrcPort: 1}
	k2 := FlowKey{SrcPort: 2}

	cid0, _, _ := tbl.Allocate(k0)
	_, _, _ = tbl.Allocate(k1)

	// Touch k0 so it's most-recently-used, making k1 the LRU victim.
	tbl.Lookup(k0)

	cid2, evictedCID, evicted := tbl.Allocate(k2)
	if !evicted {
		t.Fatal("expected eviction once table is full")
	}
	if _, ok := tbl.Lookup(k1); ok {
		t.Error("k1 should have been evicted")
	}
	if _, ok := tbl.Lookup(k0); !ok {
		t.Error("k0 should still be present")
	}
	if cid2 != evictedCID {
		t.Errorf("new cid %d should reuse evicted cid %d", cid2, evictedCID)
	}
	if cid0 == cid2 {
		t.Error("k0's cid should not have been reused")
	}
}

func TestCIDTableRelease(t *testing.T) {
	tbl := NewCIDTable(3)
	k := FlowKey{SrcPort: 9}
	cid, _, _ := tbl.Allocate(k)
	tbl.Release(cid)
	if _, ok := tbl.Lookup(k); ok {
		t.Error("expected key to be gone after Release")
	}
	if tbl.Len() != 0 {
		t.Errorf("Len() = %d, want 0", tbl.Len())
	}
}
