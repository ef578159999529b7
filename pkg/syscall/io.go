package syscall

import (
	"fmt"
	"math"

	"github.com/haloforge/kioskvm/pkg/vm"
)

// registerIO installs the io subsystem's stream syscalls (idx 5-8, 20):
// plain writes to the host's stdout and a line read from its stdin, with
// no compute metering since this VM has no compute budget.
func (r *Registry) registerIO(ctx Context) {
	r.register(5, func(h *vm.Heap, args []vm.Value) (vm.Value, error) {
		fmt.Fprintf(ctx.Stdout(), "%d", int64(args[0]))
		return 0, nil
	})

	r.register(6, func(h *vm.Heap, args []vm.Value) (vm.Value, error) {
		s, err := h.CString(args[0])
		if err != nil {
			return 0, err
		}
		fmt.Fprint(ctx.Stdout(), s)
		return 0, nil
	})

	r.register(7, func(h *vm.Heap, args []vm.Value) (vm.Value, error) {
		fmt.Fprintln(ctx.Stdout())
		return 0, nil
	})

	r.register(8, func(h *vm.Heap, args []vm.Value) (vm.Value, error) {
		v, err := ctx.ReadInt64()
		if err != nil {
			return 0, err
		}
		return uint64(v), nil
	})

	r.register(20, func(h *vm.Heap, args []vm.Value) (vm.Value, error) {
		f := math.Float32frombits(uint32(args[0]))
		fmt.Fprintf(ctx.Stdout(), "%g", f)
		return 0, nil
	})
}
