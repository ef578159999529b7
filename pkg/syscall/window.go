package syscall

import "github.com/haloforge/kioskvm/pkg/vm"

// registerWindow installs the window subsystem's syscalls (idx 1, 9-13,
// 15, 19). Pixel data is BGRA8, row-major, stride = width*4;
// window_draw_frame reads exactly width*height*4 bytes from the pointer
// argument using the window's own recorded dimensions.
func (r *Registry) registerWindow(ctx Context) {
	r.register(1, func(h *vm.Heap, args []vm.Value) (vm.Value, error) {
		w, ht, titlePtr, flags := uint32(args[0]), uint32(args[1]), args[2], args[3]
		title, err := h.CString(titlePtr)
		if err != nil {
			return 0, err
		}
		wid, err := ctx.CreateWindow(w, ht, title, flags)
		if err != nil {
			return 0, err
		}
		return uint64(wid), nil
	})

	r.register(9, func(h *vm.Heap, args []vm.Value) (vm.Value, error) {
		return 0, ctx.OnKeydown(uint32(args[0]), args[1])
	})
	r.register(15, func(h *vm.Heap, args []vm.Value) (vm.Value, error) {
		return 0, ctx.OnKeyup(uint32(args[0]), args[1])
	})
	r.register(11, func(h *vm.Heap, args []vm.Value) (vm.Value, error) {
		return 0, ctx.OnMousemove(uint32(args[0]), args[1])
	})
	r.register(12, func(h *vm.Heap, args []vm.Value) (vm.Value, error) {
		return 0, ctx.OnMousedown(uint32(args[0]), args[1])
	})
	r.register(13, func(h *vm.Heap, args []vm.Value) (vm.Value, error) {
		return 0, ctx.OnMouseup(uint32(args[0]), args[1])
	})
	r.register(19, func(h *vm.Heap, args []vm.Value) (vm.Value, error) {
		return 0, ctx.OnTextInput(uint32(args[0]), args[1])
	})

	r.register(10, func(h *vm.Heap, args []vm.Value) (vm.Value, error) {
		wid, ptr := uint32(args[0]), args[1]
		n, err := ctx.WindowPixelLen(wid)
		if err != nil {
			return 0, err
		}
		pixels, err := h.CheckedSlice(ptr, n)
		if err != nil {
			return 0, err
		}
		return 0, ctx.DrawFrame(wid, pixels)
	})
}

// legacyDrawFrameNames resolves older window_copy_pixels/window_show names
// to the current window_draw_frame catalog index. No assembler or compiler
// front-end consumes this in-tree; kept here as the single point of truth
// for the alias, for whichever front-end eventually does.
var legacyDrawFrameNames = map[string]uint16{
	"window_copy_pixels": 10,
	"window_show":        10,
	"window_draw_frame":  10,
}

// ResolveSyscallName maps a syscall name, including the legacy
// window_copy_pixels/window_show aliases, to its numeric catalog index.
func ResolveSyscallName(name string) (uint16, bool) {
	if idx, ok := legacyDrawFrameNames[name]; ok {
		return idx, true
	}
	for _, e := range Catalog {
		if e.Name == name {
			return e.Idx, true
		}
	}
	return 0, false
}
