package syscall

import "github.com/haloforge/kioskvm/pkg/vm"

// registerTime installs the time subsystem's syscalls (idx 0, 2).
// time_delay_cb hands off to the scheduler via ctx.ScheduleTimer; the
// callback itself is a code offset validated by the scheduler on
// registration.
func (r *Registry) registerTime(ctx Context) {
	r.register(0, func(h *vm.Heap, args []vm.Value) (vm.Value, error) {
		return ctx.NowMillis(), nil
	})

	r.register(2, func(h *vm.Heap, args []vm.Value) (vm.Value, error) {
		delayMs, cb := args[0], args[1]
		return 0, ctx.ScheduleTimer(delayMs, cb)
	})
}
