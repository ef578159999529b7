package vm

import "testing"

func TestHeapStoreLoadRoundTrip(t *testing.T) {
	h := NewHeap(make([]byte, 16))

	if err := h.StoreU64(0, 0x0102030405060708); err != nil {
		t.Fatalf("StoreU64: %v", err)
	}
	v, err := h.LoadU64(0)
	if err != nil {
		t.Fatalf("LoadU64: %v", err)
	}
	if v != 0x0102030405060708 {
		t.Errorf("got %x want %x", v, 0x0102030405060708)
	}

	if err := h.StoreU32(8, 0xdeadbeef); err != nil {
		t.Fatalf("StoreU32: %v", err)
	}
	u32, err := h.LoadU32(8)
	if err != nil {
		t.Fatalf("LoadU32: %v", err)
	}
	if u32 != 0xdeadbeef {
		t.Errorf("got %x want %x", u32, 0xdeadbeef)
	}
}

func TestHeapSignedLoadSignExtends(t *testing.T) {
	h := NewHeap(make([]byte, 8))
	if err := h.StoreU8(0, 0xff); err != nil {
		t.Fatalf("StoreU8: %v", err)
	}
	i8, err := h.LoadI8(0)
	if err != nil {
		t.Fatalf("LoadI8: %v", err)
	}
	if i8 != -1 {
		t.Errorf("got %d want -1", i8)
	}
}

func TestHeapBadAccess(t *testing.T) {
	h := NewHeap(make([]byte, 4))
	if _, err := h.LoadU64(0); err != ErrBadAccess {
		t.Errorf("expected ErrBadAccess, got %v", err)
	}
	if err := h.StoreU32(2, 1); err != ErrBadAccess {
		t.Errorf("expected ErrBadAccess, got %v", err)
	}
}

func TestHeapResizeGrowAndShrink(t *testing.T) {
	h := NewHeap(make([]byte, 4))
	if err := h.StoreU32(0, 0xaabbccdd); err != nil {
		t.Fatalf("StoreU32: %v", err)
	}

	if ok := h.Resize(1028); !ok {
		t.Fatal("Resize grow should succeed")
	}
	if h.Size() != 1028 {
		t.Errorf("got size %d want 1028", h.Size())
	}
	v, err := h.LoadU32(0)
	if err != nil || v != 0xaabbccdd {
		t.Errorf("growth should preserve overlapping bytes: got %x, %v", v, err)
	}
	b, err := h.LoadU8(1000)
	if err != nil || b != 0 {
		t.Errorf("new bytes should be zero-filled: got %d, %v", b, err)
	}

	if ok := h.Resize(2); !ok {
		t.Fatal("Resize shrink should succeed")
	}
	if h.Size() != 2 {
		t.Errorf("got size %d want 2", h.Size())
	}
}

func TestHeapCString(t *testing.T) {
	h := NewHeap([]byte("Hi\n\x00"))
	s, err := h.CString(0)
	if err != nil {
		t.Fatalf("CString: %v", err)
	}
	if s != "Hi\n" {
		t.Errorf("got %q want %q", s, "Hi\n")
	}
}

func TestHeapCStringUnterminated(t *testing.T) {
	h := NewHeap([]byte("no-terminator"))
	if _, err := h.CString(0); err != ErrBadAccess {
		t.Errorf("expected ErrBadAccess, got %v", err)
	}
}
