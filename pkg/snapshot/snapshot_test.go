package snapshot

import (
	"path/filepath"
	"testing"

	"github.com/haloforge/kioskvm/pkg/vm"
)

func TestSaveLoadRoundTrip(t *testing.T) {
	s := vm.State{
		PC:     42,
		Halted: false,
		Stack:  []vm.Value{1, 2, 3},
		Frames: []vm.FrameState{
			{ReturnPC: -1, Locals: []vm.Value{10, 20}},
			{ReturnPC: 7, Locals: []vm.Value{99}},
		},
		Heap: []byte{0xde, 0xad, 0xbe, 0xef, 0x00, 0x01},
	}

	path := filepath.Join(t.TempDir(), "state.kvmsnap")
	if err := Save(path, s); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if got.PC != s.PC || got.Halted != s.Halted {
		t.Errorf("meta mismatch: got pc=%d halted=%v, want pc=%d halted=%v", got.PC, got.Halted, s.PC, s.Halted)
	}
	if len(got.Stack) != len(s.Stack) {
		t.Fatalf("stack len = %d, want %d", len(got.Stack), len(s.Stack))
	}
	for i := range s.Stack {
		if got.Stack[i] != s.Stack[i] {
			t.Errorf("stack[%d] = %d, want %d", i, got.Stack[i], s.Stack[i])
		}
	}
	if len(got.Frames) != len(s.Frames) {
		t.Fatalf("frames len = %d, want %d", len(got.Frames), len(s.Frames))
	}
	for i, f := range s.Frames {
		gf := got.Frames[i]
		if gf.ReturnPC != f.ReturnPC {
			t.Errorf("frame[%d].ReturnPC = %d, want %d", i, gf.ReturnPC, f.ReturnPC)
		}
		if len(gf.Locals) != len(f.Locals) {
			t.Fatalf("frame[%d] locals len = %d, want %d", i, len(gf.Locals), len(f.Locals))
		}
		for j := range f.Locals {
			if gf.Locals[j] != f.Locals[j] {
				t.Errorf("frame[%d].locals[%d] = %d, want %d", i, j, gf.Locals[j], f.Locals[j])
			}
		}
	}
	if string(got.Heap) != string(s.Heap) {
		t.Errorf("heap = %x, want %x", got.Heap, s.Heap)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nonexistent.kvmsnap")); err == nil {
		t.Error("expected error loading a nonexistent snapshot")
	}
}
