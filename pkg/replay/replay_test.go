package replay

import (
	"encoding/binary"
	"testing"

	"github.com/haloforge/kioskvm/pkg/eventlog"
	progimage "github.com/haloforge/kioskvm/pkg/image"
	"github.com/haloforge/kioskvm/pkg/scheduler"
	"github.com/haloforge/kioskvm/pkg/syscall"
	"github.com/haloforge/kioskvm/pkg/vm"
)

func u16imm(o vm.Op, v uint16) []byte {
	b := make([]byte, 3)
	b[0] = byte(o)
	binary.LittleEndian.PutUint16(b[1:], v)
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

// TestReplayReproducesCallbackDispatch builds a tiny program with a
// callback function that stores its argument to heap offset 0, then
// replays a single recorded keydown dispatch and checks the heap reflects
// it — without any live scheduler or timers involved.
func TestReplayReproducesCallbackDispatch(t *testing.T) {
	// Callback function placed right after main's wait; exit (offset 2):
	// push_u32 0 (heap addr); get_local 0; store_u32; ret.
	callback := asm(
		u32imm(vm.OpPushU32, 0), // addr
		[]byte{byte(vm.OpGetLocal), 0, 0},
		[]byte{byte(vm.OpStoreU32)},
		[]byte{byte(vm.OpRet)},
	)
	code := asm(
		[]byte{byte(vm.OpWait)},
		[]byte{byte(vm.OpExit)},
	)
	callbackOffset := uint64(len(code))
	code = append(code, callback...)

	prog := &progimage.Program{
		Code:  code,
		Data:  make([]byte, 4),
		Entry: 0,
		Funcs: vm.FuncTable{0: 0, callbackOffset: 1},
	}

	records := []eventlog.Record{
		{Event: scheduler.Event{Class: scheduler.ClassKeydown, WindowID: 1, Args: []vm.Value{99}}, Entry: callbackOffset},
	}

	res, err := Run(prog, syscall.NewPermissionSet(), records)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(res.Heap) < 4 {
		t.Fatalf("heap too small: %d", len(res.Heap))
	}
	got := binary.LittleEndian.Uint32(res.Heap[0:4])
	if got != 99 {
		t.Errorf("heap[0:4] = %d, want 99", got)
	}
}

func TestReplayEmptyLogRunsToExit(t *testing.T) {
	prog := &progimage.Program{
		Code:  asm([]byte{byte(vm.OpExit)}),
		Data:  nil,
		Entry: 0,
		Funcs: vm.FuncTable{0: 0},
	}
	res, err := Run(prog, syscall.NewPermissionSet(), nil)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(res.Heap) != 0 {
		t.Errorf("heap = %v, want empty", res.Heap)
	}
}
