package syscall

import "github.com/haloforge/kioskvm/pkg/vm"

func boolToValue(b bool) vm.Value {
	if b {
		return 1
	}
	return 0
}

// registerMemory installs the vm subsystem's heap-manipulation syscalls
// (idx 3, 4, 14, 16, 17): bounds-check then copy/fill against the single
// heap.
func (r *Registry) registerMemory(ctx Context) {
	r.register(3, func(h *vm.Heap, args []vm.Value) (vm.Value, error) {
		dst, src, n := args[0], args[1], args[2]
		if n == 0 {
			return 0, nil
		}
		if n > MaxCopySize {
			return 0, ErrTooLarge
		}
		data, err := h.CheckedSlice(src, n)
		if err != nil {
			return 0, err
		}
		buf := make([]byte, len(data))
		copy(buf, data)
		dstSlice, err := h.CheckedSlice(dst, n)
		if err != nil {
			return 0, err
		}
		copy(dstSlice, buf)
		return 0, nil
	})

	r.register(4, func(h *vm.Heap, args []vm.Value) (vm.Value, error) {
		dst, v, n := args[0], uint8(args[1]), args[2]
		if n == 0 {
			return 0, nil
		}
		if n > MaxCopySize {
			return 0, ErrTooLarge
		}
		dstSlice, err := h.CheckedSlice(dst, n)
		if err != nil {
			return 0, err
		}
		for i := range dstSlice {
			dstSlice[i] = v
		}
		return 0, nil
	})

	r.register(16, func(h *vm.Heap, args []vm.Value) (vm.Value, error) {
		dst, word, n := args[0], uint32(args[1]), args[2]
		if n == 0 {
			return 0, nil
		}
		if n > MaxCopySize/4 {
			return 0, ErrTooLarge
		}
		for i := uint64(0); i < n; i++ {
			if err := h.StoreU32(dst+i*4, word); err != nil {
				return 0, err
			}
		}
		return 0, nil
	})

	r.register(17, func(h *vm.Heap, args []vm.Value) (vm.Value, error) {
		return boolToValue(h.Resize(args[0])), nil
	})

	r.register(14, func(h *vm.Heap, args []vm.Value) (vm.Value, error) {
		return h.Size(), nil
	})
}
