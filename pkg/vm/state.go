package vm

import "fmt"

// FrameState is the serializable form of a call frame, used by
// pkg/snapshot to checkpoint and resume a running interpreter for the
// vm_save_state/vm_load_state syscalls.
type FrameState struct {
	ReturnPC int
	Locals   []Value
}

// State is the serializable form of everything an Interpreter needs to
// resume execution: the operand stack, the frame stack, the program
// counter, the halted flag, and the heap contents. Code, entry point,
// funcs, and syscall/waiter wiring are supplied fresh by whatever loads
// the snapshot back in (they come from the program image, not the
// checkpoint).
type State struct {
	PC     int
	Halted bool
	Stack  []Value
	Frames []FrameState
	Heap   []byte
}

// Snapshot captures the interpreter's current state for pkg/snapshot to
// serialize. The returned Heap bytes are a copy; mutating them afterward
// has no effect on the running interpreter.
func (ip *Interpreter) Snapshot() State {
	frames := make([]FrameState, len(ip.frames))
	for i, f := range ip.frames {
		locals := make([]Value, len(f.locals))
		copy(locals, f.locals)
		frames[i] = FrameState{ReturnPC: f.returnPC, Locals: locals}
	}
	stack := make([]Value, len(ip.stack))
	copy(stack, ip.stack)
	heapBytes := make([]byte, len(ip.heap.Bytes()))
	copy(heapBytes, ip.heap.Bytes())
	return State{
		PC:     ip.pc,
		Halted: ip.halted,
		Stack:  stack,
		Frames: frames,
		Heap:   heapBytes,
	}
}

// Restore replaces the interpreter's stack, frames, pc, and heap contents
// with a previously captured State. The interpreter must already be
// constructed against the same program image (code/entry/funcs); Restore
// only reinstates the mutable runtime state, not the static image.
func (ip *Interpreter) Restore(s State) error {
	if len(s.Frames) == 0 {
		return fmt.Errorf("%w: snapshot has no frames", ErrBadDecode)
	}
	frames := make([]frame, len(s.Frames))
	for i, f := range s.Frames {
		locals := make([]Value, len(f.Locals))
		copy(locals, f.Locals)
		frames[i] = frame{returnPC: f.ReturnPC, locals: locals}
	}
	stack := make([]Value, len(s.Stack))
	copy(stack, s.Stack)

	ip.heap.Resize(uint64(len(s.Heap)))
	copy(ip.heap.Bytes(), s.Heap)

	ip.pc = s.PC
	ip.halted = s.Halted
	ip.stack = stack
	ip.frames = frames
	return nil
}
