// Package image implements the program image: the immutable code and data
// sections produced by loading a bytecode file, plus the label table read
// from that file. Jump/call targets and push_p32 operands are literal
// offsets in the code section; Load does not rewrite them from the labels.
package image

import "github.com/haloforge/kioskvm/pkg/vm"

// LabelKind distinguishes a code-offset label (jump/call target) from a
// heap-offset label (a data symbol like PIXEL_BUFFER).
type LabelKind uint8

const (
	LabelCode LabelKind = iota
	LabelData
)

// Label is a resolved symbol table entry.
type Label struct {
	Kind  LabelKind
	Value uint64
}

// Program is the immutable program image handed to the interpreter: code
// stream, initial heap content, entry point, and the function table used
// to size call frames.
type Program struct {
	Code    []byte
	Data    []byte
	Entry   uint64
	Labels  map[string]Label
	Funcs   vm.FuncTable
}

// NewHeap builds the initial heap for this program (the data section,
// zero-initialized regions included).
func (p *Program) NewHeap() *vm.Heap {
	return vm.NewHeap(p.Data)
}

// NewInterpreter builds an interpreter over this program's code and a
// fresh heap, wired to the given syscall table and scheduler waiter.
func (p *Program) NewInterpreter(syscalls vm.SyscallTable, waiter vm.Waiter) *vm.Interpreter {
	return vm.NewInterpreter(p.Code, p.NewHeap(), p.Entry, p.Funcs, syscalls, waiter)
}

// ResolveCallback validates that a callback token is a known code offset
// within this image; registration rejects anything else with BadLabel.
func (p *Program) ResolveCallback(entry uint64) bool {
	return entry < uint64(len(p.Code))
}
