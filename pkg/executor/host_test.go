package executor

import (
	"bytes"
	"encoding/binary"
	"testing"

	progimage "github.com/haloforge/kioskvm/pkg/image"
	"github.com/haloforge/kioskvm/pkg/syscall"
	"github.com/haloforge/kioskvm/pkg/vm"
)

func op(b vm.Op) []byte { return []byte{byte(b)} }

func u16imm(o vm.Op, v uint16) []byte {
	b := make([]byte, 3)
	b[0] = byte(o)
	binary.LittleEndian.PutUint16(b[1:], v)
	return b
}

func u64imm(o vm.Op, v uint64) []byte {
	b := make([]byte, 9)
	b[0] = byte(o)
	binary.LittleEndian.PutUint64(b[1:], v)
	return b
}

func u32imm(o vm.Op, v uint32) []byte {
	b := make([]byte, 5)
	b[0] = byte(o)
	binary.LittleEndian.PutUint32(b[1:], v)
	return b
}

func asm(parts ...[]byte) []byte {
	var out []byte
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}

// TestHelloStdout prints a data-section C-string via print_str.
func TestHelloStdout(t *testing.T) {
	data := append([]byte("hello, kiosk"), 0)
	code := asm(
		u64imm(vm.OpPushP32, 0), // address of the C-string
		u16imm(vm.OpSyscall, 6), // print_str
		op(vm.OpExit),
	)
	prog := &progimage.Program{
		Code:  code,
		Data:  data,
		Entry: 0,
		Funcs: vm.FuncTable{0: 0},
	}

	var out bytes.Buffer
	h := New(prog, Config{Stdout: &out, Permissions: syscall.NewPermissionSet()})
	if err := h.Run(); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if got := out.String(); got != "hello, kiosk" {
		t.Errorf("stdout = %q, want %q", got, "hello, kiosk")
	}
}

// TestHeapGrowth grows the heap via vm_resize_heap and checks the new
// region reads back zero-initialized: vm_heap_size -> s0;
// vm_resize_heap(s0+1024) -> true; vm_heap_size -> s0+1024; byte at s0
// reads as 0.
func TestHeapGrowth(t *testing.T) {
	const s0 = 16
	code := asm(
		u32imm(vm.OpPushU32, s0+1024), // absolute target size n
		u16imm(vm.OpSyscall, 17),      // vm_resize_heap(n) -> bool
		op(vm.OpPop),
		op(vm.OpExit),
	)
	prog := &progimage.Program{
		Code:  code,
		Data:  make([]byte, s0),
		Entry: 0,
		Funcs: vm.FuncTable{0: 0},
	}

	h := New(prog, Config{Permissions: syscall.NewPermissionSet()})
	if got := h.interp.Heap().Size(); got != s0 {
		t.Fatalf("initial heap size = %d, want %d", got, s0)
	}
	if err := h.Run(); err != nil {
		t.Fatalf("Run: %v", err)
	}
	got := h.interp.Heap().Size()
	if got != s0+1024 {
		t.Errorf("heap size after resize = %d, want %d", got, s0+1024)
	}
	b, err := h.interp.Heap().LoadU8(s0)
	if err != nil {
		t.Fatalf("LoadU8: %v", err)
	}
	if b != 0 {
		t.Errorf("byte at s0 = %d, want 0", b)
	}
}

// TestWindowCreateAndDrawFrame covers the window side of Host's
// syscall.Context methods, called directly: create a window, compute its
// pixel buffer length, and draw a frame of that length. The program is
// never run.
func TestWindowCreateAndDrawFrame(t *testing.T) {
	code := asm(
		u64imm(vm.OpPushP32, 0), // placeholder program; not executed
		op(vm.OpExit),
	)
	prog := &progimage.Program{
		Code:  code,
		Data:  append([]byte("w"), 0),
		Entry: 0,
		Funcs: vm.FuncTable{0: 0},
	}
	h := New(prog, Config{Permissions: syscall.NewPermissionSet(string(syscall.PermWindowDisplay))})

	wid, err := h.CreateWindow(4, 4, "w", 0)
	if err != nil {
		t.Fatalf("CreateWindow: %v", err)
	}
	plen, err := h.WindowPixelLen(wid)
	if err != nil {
		t.Fatalf("WindowPixelLen: %v", err)
	}
	if plen != 4*4*4 {
		t.Errorf("pixel len = %d, want %d", plen, 4*4*4)
	}
	if err := h.DrawFrame(wid, make([]byte, plen)); err != nil {
		t.Errorf("DrawFrame: %v", err)
	}
}

// TestStatus exercises the introspection surface used by cmd/kioskvm's
// -status flag.
func TestStatus(t *testing.T) {
	code := asm(
		u32imm(vm.OpPushU32, 7),
		op(vm.OpExit),
	)
	prog := &progimage.Program{
		Code:  code,
		Data:  nil,
		Entry: 0,
		Funcs: vm.FuncTable{0: 0},
	}
	h := New(prog, Config{Permissions: syscall.NewPermissionSet()})
	if err := h.Run(); err != nil {
		t.Fatalf("Run: %v", err)
	}
	st := h.Status()
	if st.StackDepth != 1 {
		t.Errorf("StackDepth = %d, want 1", st.StackDepth)
	}
}

// TestSaveLoadState covers Host.SaveState/LoadState, the methods behind
// vm_save_state/vm_load_state: checkpoint a Host before it runs and
// restore the checkpoint into a fresh Host's interpreter.
func TestSaveLoadState(t *testing.T) {
	prog := &progimage.Program{
		Code:  asm(op(vm.OpExit)),
		Data:  []byte{1, 2, 3, 4},
		Entry: 0,
		Funcs: vm.FuncTable{0: 0},
	}
	h := New(prog, Config{Permissions: syscall.NewPermissionSet()})
	if err := h.interp.Heap().StoreU8(0, 42); err != nil {
		t.Fatalf("seed heap: %v", err)
	}

	path := t.TempDir() + "/state.kvmsnap"
	if err := h.SaveState(path); err != nil {
		t.Fatalf("SaveState: %v", err)
	}

	h2 := New(prog, Config{Permissions: syscall.NewPermissionSet()})
	if err := h2.LoadState(path); err != nil {
		t.Fatalf("LoadState: %v", err)
	}
	b, err := h2.interp.Heap().LoadU8(0)
	if err != nil {
		t.Fatalf("LoadU8: %v", err)
	}
	if b != 42 {
		t.Errorf("restored heap byte = %d, want 42", b)
	}
}
