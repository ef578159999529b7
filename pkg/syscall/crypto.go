package syscall

import (
	"github.com/haloforge/kioskvm/pkg/vm"
	"github.com/zeebo/blake3"
	"golang.org/x/crypto/sha3"
)

// registerCrypto installs the hashing syscalls (idx 21-22): blake3 and
// keccak256 digests computed over a checked heap slice and written back
// into the heap at the caller-supplied output address.
func (r *Registry) registerCrypto(ctx Context) {
	r.register(21, func(h *vm.Heap, args []vm.Value) (vm.Value, error) {
		ptr, n, out := args[0], args[1], args[2]
		if n > MaxCopySize {
			return 0, ErrTooLarge
		}
		data, err := h.CheckedSlice(ptr, n)
		if err != nil {
			return 0, err
		}
		sum := blake3.Sum256(data)
		return 0, writeDigest(h, out, sum[:])
	})

	r.register(22, func(h *vm.Heap, args []vm.Value) (vm.Value, error) {
		ptr, n, out := args[0], args[1], args[2]
		if n > MaxCopySize {
			return 0, ErrTooLarge
		}
		data, err := h.CheckedSlice(ptr, n)
		if err != nil {
			return 0, err
		}
		hasher := sha3.NewLegacyKeccak256()
		hasher.Write(data)
		return 0, writeDigest(h, out, hasher.Sum(nil))
	})
}

func writeDigest(h *vm.Heap, addr uint64, digest []byte) error {
	dst, err := h.CheckedSlice(addr, uint64(len(digest)))
	if err != nil {
		return err
	}
	copy(dst, digest)
	return nil
}
