// Package vm implements the stack-based bytecode interpreter: the operand
// stack, the locals/frame model, the resizable heap, and the fetch/decode/
// execute loop described by the instruction catalog below.
package vm

// Op is a single-byte opcode. Encoding is self-describing: each Op implies
// a fixed-size inline immediate (possibly none), looked up via ImmWidth.
type Op byte

// Push/pop/stack.
const (
	OpPushI8 Op = iota
	OpPushU32
	OpPushU64
	OpPushF32
	OpPushP32 // immediate is a literal 64-bit heap offset; image.Load does not rewrite it
	OpPop
	OpDup
	OpSwap
	OpGetLocal
	OpSetLocal
)

// Integer arithmetic. Signed ops wrap modulo 2^64; unsigned div/mod differ
// from signed only in how the operands are interpreted.
const (
	OpAddI64 Op = iota + 16
	OpSubI64
	OpMulI64
	OpDivI64
	OpModI64
	OpDivU64
	OpModU64
)

// Bitwise / shift.
const (
	OpAndI64 Op = iota + 32
	OpOrI64
	OpXorI64
	OpShlI64
	OpShrI64 // logical
	OpSarI64 // arithmetic
)

// Comparison. Each pushes 1 (true) or 0 (false).
const (
	OpLtI64 Op = iota + 48
	OpLeI64
	OpGtI64
	OpGeI64
	OpLtU64
	OpLeU64
	OpGtU64
	OpGeU64
	OpEqI64
	OpNeI64
	OpLtF32
	OpLeF32
	OpGtF32
	OpGeF32
	OpEqF32
	OpNeF32
	OpLtF64
	OpLeF64
	OpGtF64
	OpGeF64
	OpEqF64
	OpNeF64
)

// Memory. Operand order: address on top for loads; [addr, value] with value
// on top for stores. Widths are little-endian; signed loads sign-extend.
const (
	OpLoadU8 Op = iota + 80
	OpLoadU16
	OpLoadU32
	OpLoadU64
	OpLoadI8
	OpLoadI16
	OpLoadI32
	OpLoadF32
	OpLoadF64
	OpStoreU8
	OpStoreU16
	OpStoreU32
	OpStoreU64
	OpStoreF32
	OpStoreF64
)

// Control.
const (
	OpJmp Op = iota + 104
	OpJz
	OpJnz
	OpCall
	OpRet
	OpExit
)

// Syscall trap and scheduler yield.
const (
	OpSyscall Op = iota + 120
	OpWait
)

// immWidth is the number of inline immediate bytes each opcode carries.
var immWidth = map[Op]int{
	OpPushI8:  1,
	OpPushU32: 4,
	OpPushU64: 8,
	OpPushF32: 4,
	OpPushP32: 8, // a full 64-bit heap offset
	OpGetLocal: 2,
	OpSetLocal: 2,
	OpJmp:      4,
	OpJz:       4,
	OpJnz:      4,
	OpCall:     4,
	OpSyscall:  2,
}

// ImmWidth returns the number of inline immediate bytes following op, or 0
// if op carries no immediate. Decoding is self-describing: the interpreter
// never needs to know an opcode's semantics to know how far to advance pc.
func ImmWidth(op Op) (int, bool) {
	if w, ok := immWidth[op]; ok {
		return w, true
	}
	return 0, isKnownOp(op)
}

// isKnownOp reports whether op is a valid opcode (with or without an
// immediate), used to distinguish a zero-width known opcode from a
// genuinely undecodable byte.
func isKnownOp(op Op) bool {
	switch op {
	case OpPop, OpDup, OpSwap,
		OpAddI64, OpSubI64, OpMulI64, OpDivI64, OpModI64, OpDivU64, OpModU64,
		OpAndI64, OpOrI64, OpXorI64, OpShlI64, OpShrI64, OpSarI64,
		OpLtI64, OpLeI64, OpGtI64, OpGeI64, OpLtU64, OpLeU64, OpGtU64, OpGeU64,
		OpEqI64, OpNeI64,
		OpLtF32, OpLeF32, OpGtF32, OpGeF32, OpEqF32, OpNeF32,
		OpLtF64, OpLeF64, OpGtF64, OpGeF64, OpEqF64, OpNeF64,
		OpLoadU8, OpLoadU16, OpLoadU32, OpLoadU64,
		OpLoadI8, OpLoadI16, OpLoadI32,
		OpLoadF32, OpLoadF64,
		OpStoreU8, OpStoreU16, OpStoreU32, OpStoreU64,
		OpStoreF32, OpStoreF64,
		OpRet, OpExit, OpWait:
		return true
	}
	_, hasImm := immWidth[op]
	return hasImm
}

// String names an opcode for diagnostics.
func (o Op) String() string {
	if s, ok := opNames[o]; ok {
		return s
	}
	return "op(unknown)"
}

var opNames = map[Op]string{
	OpPushI8: "push_i8", OpPushU32: "push_u32", OpPushU64: "push_u64",
	OpPushF32: "push_f32", OpPushP32: "push_p32", OpPop: "pop", OpDup: "dup",
	OpSwap: "swap", OpGetLocal: "get_local", OpSetLocal: "set_local",
	OpAddI64: "add_i64", OpSubI64: "sub_i64", OpMulI64: "mul_i64",
	OpDivI64: "div_i64", OpModI64: "mod_i64", OpDivU64: "div_u64", OpModU64: "mod_u64",
	OpAndI64: "and_i64", OpOrI64: "or_i64", OpXorI64: "xor_i64",
	OpShlI64: "shl_i64", OpShrI64: "shr_i64", OpSarI64: "sar_i64",
	OpLtI64: "lt_i64", OpLeI64: "le_i64", OpGtI64: "gt_i64", OpGeI64: "ge_i64",
	OpLtU64: "lt_u64", OpLeU64: "le_u64", OpGtU64: "gt_u64", OpGeU64: "ge_u64",
	OpEqI64: "eq_i64", OpNeI64: "ne_i64",
	OpLtF32: "lt_f32", OpLeF32: "le_f32", OpGtF32: "gt_f32", OpGeF32: "ge_f32",
	OpEqF32: "eq_f32", OpNeF32: "ne_f32",
	OpLtF64: "lt_f64", OpLeF64: "le_f64", OpGtF64: "gt_f64", OpGeF64: "ge_f64",
	OpEqF64: "eq_f64", OpNeF64: "ne_f64",
	OpLoadU8: "load_u8", OpLoadU16: "load_u16", OpLoadU32: "load_u32", OpLoadU64: "load_u64",
	OpLoadI8: "load_i8", OpLoadI16: "load_i16", OpLoadI32: "load_i32",
	OpLoadF32: "load_f32", OpLoadF64: "load_f64",
	OpStoreU8: "store_u8", OpStoreU16: "store_u16", OpStoreU32: "store_u32", OpStoreU64: "store_u64",
	OpStoreF32: "store_f32", OpStoreF64: "store_f64",
	OpJmp: "jmp", OpJz: "jz", OpJnz: "jnz", OpCall: "call", OpRet: "ret", OpExit: "exit",
	OpSyscall: "syscall", OpWait: "wait",
}
