package syscall

import (
	"bytes"
	"errors"
	"io"
	"testing"

	"github.com/haloforge/kioskvm/pkg/vm"
)

type fakeContext struct {
	out bytes.Buffer
}

func (f *fakeContext) Stdout() io.Writer         { return &f.out }
func (f *fakeContext) ReadInt64() (int64, error) { return 0, nil }
func (f *fakeContext) NowMillis() uint64         { return 1000 }
func (f *fakeContext) ScheduleTimer(uint64, uint64) error { return nil }
func (f *fakeContext) CreateWindow(uint32, uint32, string, uint64) (uint32, error) {
	return 1, nil
}
func (f *fakeContext) WindowPixelLen(uint32) (uint64, error)  { return 16, nil }
func (f *fakeContext) OnKeydown(uint32, uint64) error         { return nil }
func (f *fakeContext) OnKeyup(uint32, uint64) error           { return nil }
func (f *fakeContext) OnMousemove(uint32, uint64) error       { return nil }
func (f *fakeContext) OnMousedown(uint32, uint64) error       { return nil }
func (f *fakeContext) OnMouseup(uint32, uint64) error         { return nil }
func (f *fakeContext) OnTextInput(uint32, uint64) error       { return nil }
func (f *fakeContext) DrawFrame(uint32, []byte) error         { return nil }
func (f *fakeContext) OpenAudioOutput(uint32, uint16, uint16, uint64) (uint32, error) {
	return 1, nil
}
func (f *fakeContext) SaveState(string) error { return nil }
func (f *fakeContext) LoadState(string) error { return nil }

func newFakeContext() *fakeContext { return &fakeContext{} }

func TestRegistryPrintI64(t *testing.T) {
	ctx := newFakeContext()
	r := NewRegistry(ctx, NewPermissionSet())
	sc, argc, ok := r.Lookup(5)
	if !ok {
		t.Fatal("print_i64 not registered")
	}
	if argc != 1 {
		t.Fatalf("argc = %d, want 1", argc)
	}
	if _, err := sc.Invoke(vm.NewHeap(nil), []vm.Value{42}); err != nil {
		t.Fatalf("Invoke: %v", err)
	}
	if got := ctx.out.String(); got != "42" {
		t.Errorf("stdout = %q, want %q", got, "42")
	}
}

func TestRegistryMemcpy(t *testing.T) {
	ctx := newFakeContext()
	r := NewRegistry(ctx, NewPermissionSet())
	sc, _, ok := r.Lookup(3)
	if !ok {
		t.Fatal("memcpy not registered")
	}
	h := vm.NewHeap(make([]byte, 16))
	if err := h.StoreU64(0, 0xfeedfacecafebabe); err != nil {
		t.Fatalf("seed: %v", err)
	}
	if _, err := sc.Invoke(h, []vm.Value{8, 0, 8}); err != nil {
		t.Fatalf("Invoke: %v", err)
	}
	got, err := h.LoadU64(8)
	if err != nil {
		t.Fatalf("LoadU64: %v", err)
	}
	if got != 0xfeedfacecafebabe {
		t.Errorf("copied value = %x, want %x", got, uint64(0xfeedfacecafebabe))
	}
}

func TestRegistryDeniesUnpermittedSyscall(t *testing.T) {
	ctx := newFakeContext()
	r := NewRegistry(ctx, NewPermissionSet()) // no window_display granted
	sc, _, ok := r.Lookup(1)                  // window_create
	if !ok {
		t.Fatal("window_create not registered")
	}
	h := vm.NewHeap(make([]byte, 8))
	_, err := sc.Invoke(h, []vm.Value{10, 10, 0, 0})
	if !errors.Is(err, vm.ErrDenied) {
		t.Fatalf("Invoke() = %v, want ErrDenied", err)
	}
}

func TestRegistryAllowsGrantedPermission(t *testing.T) {
	ctx := newFakeContext()
	r := NewRegistry(ctx, NewPermissionSet(string(PermWindowDisplay)))
	sc, _, ok := r.Lookup(1)
	if !ok {
		t.Fatal("window_create not registered")
	}
	h := vm.NewHeap(make([]byte, 8))
	wid, err := sc.Invoke(h, []vm.Value{10, 10, 0, 0})
	if err != nil {
		t.Fatalf("Invoke: %v", err)
	}
	if wid != 1 {
		t.Errorf("window id = %d, want 1", wid)
	}
}

func TestUnknownSyscallIndex(t *testing.T) {
	ctx := newFakeContext()
	r := NewRegistry(ctx, NewPermissionSet())
	if _, _, ok := r.Lookup(9999); ok {
		t.Error("expected Lookup to fail for unknown index")
	}
}

func TestResolveSyscallNameAliases(t *testing.T) {
	for _, name := range []string{"window_copy_pixels", "window_show", "window_draw_frame"} {
		idx, ok := ResolveSyscallName(name)
		if !ok || idx != 10 {
			t.Errorf("ResolveSyscallName(%q) = (%d, %v), want (10, true)", name, idx, ok)
		}
	}
}
