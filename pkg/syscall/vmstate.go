package syscall

import "github.com/haloforge/kioskvm/pkg/vm"

// registerVMState installs the save-state syscalls (idx 23-24), letting a
// running program checkpoint and resume itself through pkg/snapshot
// (tar+zstd, see that package).
func (r *Registry) registerVMState(ctx Context) {
	r.register(23, func(h *vm.Heap, args []vm.Value) (vm.Value, error) {
		path, err := h.CString(args[0])
		if err != nil {
			return 0, err
		}
		if err := ctx.SaveState(path); err != nil {
			return 0, nil
		}
		return 1, nil
	})

	r.register(24, func(h *vm.Heap, args []vm.Value) (vm.Value, error) {
		path, err := h.CString(args[0])
		if err != nil {
			return 0, err
		}
		if err := ctx.LoadState(path); err != nil {
			return 0, nil
		}
		return 1, nil
	})
}
