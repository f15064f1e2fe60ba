package feedback

import "testing"

func TestBufferFIFOOrder(t *testing.T) {
	b := NewBuffer(4)
	b.Push(Pending{CID: 1, Data: []byte{1}})
	b.Push(Pending{CID: 2, Data: []byte{2}})
	b.Push(Pending{CID: 3, Data: []byte{3}})

	first, ok := b.Pop()
	if !ok || first.CID != 1 {
		t.Fatalf("first pop = %+v", first)
	}
	second, ok := b.Pop()
	if !ok || second.CID != 2 {
		t.Fatalf("second pop = %+v", second)
	}
}

func TestBufferDropsNewestWhenFull(t *testing.T) {
	b := NewBuffer(2)
	if !b.Push(Pending{CID: 1}) {
		t.Fatal("first push should succeed")
	}
	if !b.Push(Pending{CID: 2}) {
		t.Fatal("second push should succeed")
	}
	if b.Push(Pending{CID: 3}) {
		t.Fatal("third push should be dropped (buffer full)")
	}
	if !b.Full() {
		t.Error("expected buffer to report full")
	}

	drained := b.DrainAll()
	if len(drained) != 2 || drained[0].CID != 1 || drained[1].CID != 2 {
		t.Errorf("unexpected contents after drop-newest: %+v", drained)
	}
}

func TestBufferPopEmpty(t *testing.T) {
	b := NewBuffer(1)
	if _, ok := b.Pop(); ok {
		t.Error("expected Pop on empty buffer to return false")
	}
}

func TestBufferReusesSlotsAfterPop(t *testing.T) {
	b := NewBuffer(2)
	b.Push(Pending{CID: 1})
	b.Push(Pending{CID: 2})
	b.Pop()
	if !b.Push(Pending{CID: 3}) {
		t.Fatal("expected room after popping one element")
	}
	if b.Len() != 2 {
		t.Errorf("Len() = %d, want 2", b.Len())
	}
}
