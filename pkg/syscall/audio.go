package syscall

import "github.com/haloforge/kioskvm/pkg/vm"

// registerAudio installs the audio subsystem's syscall (idx 18).
// Interleaved-channel output, sample format I16 little-endian; the fill
// callback is dispatched by the scheduler when the host reports
// buffer-fill deadlines, not invoked directly here.
func (r *Registry) registerAudio(ctx Context) {
	r.register(18, func(h *vm.Heap, args []vm.Value) (vm.Value, error) {
		rate, channels, format, cb := uint32(args[0]), uint16(args[1]), uint16(args[2]), args[3]
		id, err := ctx.OpenAudioOutput(rate, channels, format, cb)
		if err != nil {
			return 0, err
		}
		return uint64(id), nil
	})
}
