package syscall

import (
	"errors"
	"io"

	"github.com/haloforge/kioskvm/pkg/vm"
)

// Syscall-layer errors not already covered by vm's fault sentinels.
var (
	ErrInvalidArgument = errors.New("invalid argument")
	ErrTooLarge        = errors.New("operand too large")
)

// MaxCopySize bounds memcpy/memset/hash operand sizes, a guard against a
// single syscall forcing an enormous allocation or scan.
const MaxCopySize = 64 * 1024 * 1024

// Context supplies the non-heap host capabilities a syscall may need:
// stream I/O, the clock, window management, audio output, and VM state
// persistence. It is closed over at registration time rather than
// threaded through every call.
type Context interface {
	Stdout() io.Writer
	ReadInt64() (int64, error)

	NowMillis() uint64
	ScheduleTimer(delayMs uint64, cb uint64) error

	CreateWindow(w, h uint32, title string, flags uint64) (uint32, error)
	WindowPixelLen(wid uint32) (uint64, error)
	OnKeydown(wid uint32, cb uint64) error
	OnKeyup(wid uint32, cb uint64) error
	OnMousemove(wid uint32, cb uint64) error
	OnMousedown(wid uint32, cb uint64) error
	OnMouseup(wid uint32, cb uint64) error
	OnTextInput(wid uint32, cb uint64) error
	DrawFrame(wid uint32, pixels []byte) error

	OpenAudioOutput(rate uint32, channels, format uint16, cb uint64) (uint32, error)

	SaveState(path string) error
	LoadState(path string) error
}

// Registry holds the numeric-indexed syscall table, each entry wrapped
// with a permission check against the caller's granted set.
type Registry struct {
	byIdx map[uint16]registered
}

type registered struct {
	sc   vm.Syscall
	argc int
}

// NewRegistry builds the full catalog against ctx, gating each entry by
// perms. Registration is split per subsystem
// (register{Memory,IO,Time,Window,Audio,Crypto,VMState}) so each group
// of syscalls lives next to the others it shares state with.
func NewRegistry(ctx Context, perms PermissionSet) *Registry {
	r := &Registry{byIdx: make(map[uint16]registered, len(Catalog))}
	r.registerMemory(ctx)
	r.registerIO(ctx)
	r.registerTime(ctx)
	r.registerWindow(ctx)
	r.registerAudio(ctx)
	r.registerCrypto(ctx)
	r.registerVMState(ctx)
	r.applyPermissions(perms)
	return r
}

// register installs the implementation for a catalog entry named by idx.
func (r *Registry) register(idx uint16, fn vm.SyscallFunc) {
	entry, ok := ByIdx[idx]
	if !ok {
		panic("syscall: register called for unknown catalog index")
	}
	r.byIdx[idx] = registered{sc: fn, argc: len(entry.Args)}
}

// applyPermissions wraps every registered entry with a permission check,
// done once after all subsystems register so the wrapping is uniform
// regardless of registration order.
func (r *Registry) applyPermissions(perms PermissionSet) {
	for idx, reg := range r.byIdx {
		entry := ByIdx[idx]
		inner := reg.sc
		reg.sc = vm.SyscallFunc(func(h *vm.Heap, args []vm.Value) (vm.Value, error) {
			if !perms.Allows(entry.Permission) {
				return 0, vm.ErrDenied
			}
			return inner.Invoke(h, args)
		})
		r.byIdx[idx] = reg
	}
}

// Lookup implements vm.SyscallTable.
func (r *Registry) Lookup(idx uint16) (vm.Syscall, int, bool) {
	reg, ok := r.byIdx[idx]
	if !ok {
		return nil, 0, false
	}
	return reg.sc, reg.argc, true
}
