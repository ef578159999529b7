package vm

import (
	"encoding/binary"
	"errors"
	"math"
)

// ErrBadAccess is returned when a load/store range exceeds the current
// heap size.
var ErrBadAccess = errors.New("heap access out of range")

// Heap is the VM's single contiguous, resizable byte array. It is the only
// mutable linear memory visible to bytecode; every load/store is bounds
// checked against the current size before it touches mem.
type Heap struct {
	mem []byte
}

// NewHeap creates a heap pre-populated with the program's data section
// (zero-initialized regions included, per the caller's data slice length).
func NewHeap(data []byte) *Heap {
	mem := make([]byte, len(data))
	copy(mem, data)
	return &Heap{mem: mem}
}

// Size reports the current heap size in bytes.
func (h *Heap) Size() uint64 {
	return uint64(len(h.mem))
}

// Resize grows or shrinks the heap to exactly n bytes. Growth zero-fills
// new bytes; shrink truncates. Resize never fails for this in-process
// heap — nothing bounds n except available memory — matching
// vm_resize_heap's "false only on failure" contract by always succeeding.
func (h *Heap) Resize(n uint64) bool {
	cur := uint64(len(h.mem))
	if n == cur {
		return true
	}
	if n < cur {
		h.mem = h.mem[:n]
		return true
	}
	grown := make([]byte, n)
	copy(grown, h.mem)
	h.mem = grown
	return true
}

// Bytes returns the live backing array, for snapshotting and restoring VM
// state (pkg/snapshot). Callers that mutate the returned slice mutate the
// heap directly.
func (h *Heap) Bytes() []byte {
	return h.mem
}

// CheckedSlice returns a contiguous live slice of the heap for syscalls
// that need direct byte access (e.g. pixel buffers, hash input).
func (h *Heap) CheckedSlice(addr, length uint64) ([]byte, error) {
	if length == 0 {
		return nil, nil
	}
	end := addr + length
	if end < addr || end > uint64(len(h.mem)) {
		return nil, ErrBadAccess
	}
	return h.mem[addr:end], nil
}

func (h *Heap) checkRange(addr, width uint64) error {
	end := addr + width
	if end < addr || end > uint64(len(h.mem)) {
		return ErrBadAccess
	}
	return nil
}

// LoadU8/LoadU16/LoadU32/LoadU64 read unsigned little-endian integers.
func (h *Heap) LoadU8(addr uint64) (uint8, error) {
	if err := h.checkRange(addr, 1); err != nil {
		return 0, err
	}
	return h.mem[addr], nil
}

func (h *Heap) LoadU16(addr uint64) (uint16, error) {
	if err := h.checkRange(addr, 2); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(h.mem[addr:]), nil
}

func (h *Heap) LoadU32(addr uint64) (uint32, error) {
	if err := h.checkRange(addr, 4); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(h.mem[addr:]), nil
}

func (h *Heap) LoadU64(addr uint64) (uint64, error) {
	if err := h.checkRange(addr, 8); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(h.mem[addr:]), nil
}

// LoadI8/LoadI16/LoadI32 read signed integers, sign-extended to int64 by
// the caller (Value is untyped; the opcode decides the interpretation).
func (h *Heap) LoadI8(addr uint64) (int8, error) {
	v, err := h.LoadU8(addr)
	return int8(v), err
}

func (h *Heap) LoadI16(addr uint64) (int16, error) {
	v, err := h.LoadU16(addr)
	return int16(v), err
}

func (h *Heap) LoadI32(addr uint64) (int32, error) {
	v, err := h.LoadU32(addr)
	return int32(v), err
}

func (h *Heap) LoadF32(addr uint64) (float32, error) {
	v, err := h.LoadU32(addr)
	return math.Float32frombits(v), err
}

func (h *Heap) LoadF64(addr uint64) (float64, error) {
	v, err := h.LoadU64(addr)
	return math.Float64frombits(v), err
}

func (h *Heap) StoreU8(addr uint64, v uint8) error {
	if err := h.checkRange(addr, 1); err != nil {
		return err
	}
	h.mem[addr] = v
	return nil
}

func (h *Heap) StoreU16(addr uint64, v uint16) error {
	if err := h.checkRange(addr, 2); err != nil {
		return err
	}
	binary.LittleEndian.PutUint16(h.mem[addr:], v)
	return nil
}

func (h *Heap) StoreU32(addr uint64, v uint32) error {
	if err := h.checkRange(addr, 4); err != nil {
		return err
	}
	binary.LittleEndian.PutUint32(h.mem[addr:], v)
	return nil
}

func (h *Heap) StoreU64(addr uint64, v uint64) error {
	if err := h.checkRange(addr, 8); err != nil {
		return err
	}
	binary.LittleEndian.PutUint64(h.mem[addr:], v)
	return nil
}

func (h *Heap) StoreF32(addr uint64, v float32) error {
	return h.StoreU32(addr, math.Float32bits(v))
}

func (h *Heap) StoreF64(addr uint64, v float64) error {
	return h.StoreU64(addr, math.Float64bits(v))
}

// CString reads a NUL-terminated string starting at addr. Running off the
// end of the heap before a terminator is BadAccess.
func (h *Heap) CString(addr uint64) (string, error) {
	i := addr
	for {
		b, err := h.LoadU8(i)
		if err != nil {
			return "", err
		}
		if b == 0 {
			break
		}
		i++
	}
	s, err := h.CheckedSlice(addr, i-addr)
	if err != nil {
		return "", err
	}
	return string(s), nil
}
