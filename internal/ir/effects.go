package ir

// Opcodes and their effect classes.
// Effects describe what an operation may do besides computing its result.

// Opcode is a Bril operation name
type Opcode string

const (
	// Core
	OpConst Opcode = "const"
	OpId    Opcode = "id"
	OpAdd   Opcode = "add"
	OpMul   Opcode = "mul"
	OpSub   Opcode = "sub"
	OpDiv   Opcode = "div"
	OpEq    Opcode = "eq"
	OpLt    Opcode = "lt"
	OpGt    Opcode = "gt"
	OpLe    Opcode = "le"
	OpGe    Opcode = "ge"
	OpNot   Opcode = "not"
	OpAnd   Opcode = "and"
	OpOr    Opcode = "or"
	OpJmp   Opcode = "jmp"
	OpBr    Opcode = "br"
	OpCall  Opcode = "call"
	OpRet   Opcode = "ret"
	OpPrint Opcode = "print"
	OpNop   Opcode = "nop"

	// Floating point
	OpFadd Opcode = "fadd"
	OpFmul Opcode = "fmul"
	OpFsub Opcode = "fsub"
	OpFdiv Opcode = "fdiv"
	OpFeq  Opcode = "feq"
	OpFlt  Opcode = "flt"
	OpFgt  Opcode = "fgt"
	OpFle  Opcode = "fle"
	OpFge  Opcode = "fge"

	// Memory
	OpAlloc  Opcode = "alloc"
	OpFree   Opcode = "free"
	OpStore  Opcode = "store"
	OpLoad   Opcode = "load"
	OpPtradd Opcode = "ptradd"

	// Characters
	OpCeq      Opcode = "ceq"
	OpClt      Opcode = "clt"
	OpCgt      Opcode = "cgt"
	OpCle      Opcode = "cle"
	OpCge      Opcode = "cge"
	OpChar2Int Opcode = "char2int"
	OpInt2Char Opcode = "int2char"

	// SSA and speculation
	OpPhi       Opcode = "phi"
	OpSpeculate Opcode = "speculate"
	OpCommit    Opcode = "commit"
	OpGuard     Opcode = "guard"
)

// Effect classifies what an operation does besides producing a value
type Effect int

const (
	EffectPure Effect = iota
	EffectControl
	EffectCall
	EffectMemoryRead
	EffectMemoryWrite
	EffectAllocate
	EffectIO
)

func (e Effect) String() string {
	switch e {
	case EffectPure:
		return "pure"
	case EffectControl:
		return "control"
	case EffectCall:
		return "call"
	case EffectMemoryRead:
		return "read"
	case EffectMemoryWrite:
		return "write"
	case EffectAllocate:
		return "allocate"
	case EffectIO:
		return "io"
	}
	return "unknown"
}

// Effect returns the effect class of the operation. Unknown opcodes are
// treated as calls so that no pass removes or merges them.
func (op Opcode) Effect() Effect {
	switch op {
	case OpConst, OpId, OpAdd, OpMul, OpSub, OpDiv, OpEq, OpLt, OpGt, OpLe, OpGe,
		OpNot, OpAnd, OpOr, OpFadd, OpFmul, OpFsub, OpFdiv, OpFeq, OpFlt, OpFgt,
		OpFle, OpFge, OpPtradd, OpCeq, OpClt, OpCgt, OpCle, OpCge, OpChar2Int,
		OpInt2Char, OpNop, OpPhi:
		return EffectPure
	case OpJmp, OpBr, OpRet, OpGuard, OpSpeculate, OpCommit:
		return EffectControl
	case OpLoad:
		return EffectMemoryRead
	case OpStore, OpFree:
		return EffectMemoryWrite
	case OpAlloc:
		return EffectAllocate
	case OpPrint:
		return EffectIO
	}
	return EffectCall
}

// HasSideEffects reports whether a value operation must be kept even when
// its result is unused.
func (op Opcode) HasSideEffects() bool {
	return op.Effect() != EffectPure
}

// IsValueNumberable reports whether two instances of the operation with
// the same arguments may be merged by value numbering. Phi results depend
// on the incoming edge. Copies are left alone so that a redundant
// computation rewritten into a copy stays a copy on the next run.
func (op Opcode) IsValueNumberable() bool {
	switch op {
	case OpPhi, OpNop, OpId:
		return false
	}
	return !op.HasSideEffects()
}

// IsTerminator reports whether the opcode ends a basic block
func (op Opcode) IsTerminator() bool {
	switch op {
	case OpJmp, OpBr, OpRet:
		return true
	}
	return false
}

// IsCommutative reports whether the argument order is irrelevant
func (op Opcode) IsCommutative() bool {
	switch op {
	case OpAdd, OpMul, OpEq, OpFadd, OpFmul, OpFeq, OpAnd, OpOr:
		return true
	}
	return false
}
