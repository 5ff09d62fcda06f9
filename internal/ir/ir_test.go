package ir

import (
	"testing"
)

func TestOpcodeClasses(t *testing.T) {
	for _, op := range []Opcode{OpJmp, OpBr, OpRet} {
		if !op.IsTerminator() {
			t.Errorf("%s should be a terminator", op)
		}
	}
	if OpPrint.IsTerminator() {
		t.Error("print is not a terminator")
	}

	for _, op := range []Opcode{OpAdd, OpMul, OpEq, OpFadd, OpFmul, OpFeq, OpAnd, OpOr} {
		if !op.IsCommutative() {
			t.Errorf("%s should be commutative", op)
		}
	}
	for _, op := range []Opcode{OpSub, OpDiv, OpLt, OpFsub} {
		if op.IsCommutative() {
			t.Errorf("%s should not be commutative", op)
		}
	}
}

func TestOpcodeEffects(t *testing.T) {
	tests := []struct {
		op          Opcode
		effect      Effect
		sideEffects bool
		numberable  bool
	}{
		{OpAdd, EffectPure, false, true},
		{OpConst, EffectPure, false, true},
		{OpId, EffectPure, false, false},
		{OpCall, EffectCall, true, false},
		{OpAlloc, EffectAllocate, true, false},
		{OpLoad, EffectMemoryRead, true, false},
		{OpStore, EffectMemoryWrite, true, false},
		{OpPrint, EffectIO, true, false},
		{OpPhi, EffectPure, false, false},
		{Opcode("mystery"), EffectCall, true, false},
	}

	for _, tt := range tests {
		if got := tt.op.Effect(); got != tt.effect {
			t.Errorf("%s.Effect() = %s, want %s", tt.op, got, tt.effect)
		}
		if got := tt.op.HasSideEffects(); got != tt.sideEffects {
			t.Errorf("%s.HasSideEffects() = %v, want %v", tt.op, got, tt.sideEffects)
		}
		if got := tt.op.IsValueNumberable(); got != tt.numberable {
			t.Errorf("%s.IsValueNumberable() = %v, want %v", tt.op, got, tt.numberable)
		}
	}
}

func TestUsesDefsTargets(t *testing.T) {
	add := &ValueOp{Op: OpAdd, Dest: "c", Type: NewType(TypeInt), Args: []string{"a", "b"}}
	br := &EffectOp{Op: OpBr, Args: []string{"c"}, Labels: []string{"t", "f"}}
	lbl := &Label{Name: "l"}

	if d, ok := Def(add); !ok || d != "c" {
		t.Errorf("Def(add) = %q, %v", d, ok)
	}
	if _, ok := Def(br); ok {
		t.Error("effect ops define nothing")
	}
	if got := Uses(add); len(got) != 2 || got[0] != "a" || got[1] != "b" {
		t.Errorf("Uses(add) = %v", got)
	}
	if Uses(lbl) != nil {
		t.Error("labels use nothing")
	}
	if !IsTerminator(br) || IsTerminator(add) || IsTerminator(lbl) {
		t.Error("IsTerminator misclassified an instruction")
	}
	if got := Targets(br); len(got) != 2 || got[0] != "t" || got[1] != "f" {
		t.Errorf("Targets(br) = %v", got)
	}
	if Targets(&EffectOp{Op: OpRet}) != nil {
		t.Error("ret has no targets")
	}
}

func TestCloneIsDeep(t *testing.T) {
	fn := &Function{
		Name: "f",
		Instrs: []Instruction{
			&ValueOp{Op: OpConst, Dest: "x", Type: NewType(TypeInt), Value: IntValue(1)},
			&EffectOp{Op: OpPrint, Args: []string{"x"}},
		},
	}
	m := &Module{Functions: []*Function{fn}}

	c := m.Clone()
	c.Functions[0].Instrs[0].(*ValueOp).Value.Int = 2
	c.Functions[0].Instrs[1].(*EffectOp).Args[0] = "y"

	if fn.Instrs[0].(*ValueOp).Value.Int != 1 {
		t.Error("clone shares literal with original")
	}
	if fn.Instrs[1].(*EffectOp).Args[0] != "x" {
		t.Error("clone shares args with original")
	}
	if m.Function("f") != fn || m.Function("g") != nil {
		t.Error("Function lookup failed")
	}
}

func TestVariables(t *testing.T) {
	fn := &Function{
		Name: "f",
		Args: []Param{{Name: "a", Type: NewType(TypeInt)}},
		Instrs: []Instruction{
			&ValueOp{Op: OpAdd, Dest: "b", Type: NewType(TypeInt), Args: []string{"a", "c"}},
			&Label{Name: "x"},
		},
	}

	vars := fn.Variables()
	if len(vars) != 3 || !vars["a"] || !vars["b"] || !vars["c"] {
		t.Errorf("Variables() = %v", vars)
	}
}

func TestTypeEqual(t *testing.T) {
	if !PtrTo(NewType(TypeInt)).Equal(PtrTo(NewType(TypeInt))) {
		t.Error("ptr<int> should equal ptr<int>")
	}
	if PtrTo(NewType(TypeInt)).Equal(PtrTo(NewType(TypeBool))) {
		t.Error("ptr<int> should not equal ptr<bool>")
	}
	var nilType *Type
	if !nilType.Equal(nil) || nilType.Equal(NewType(TypeInt)) {
		t.Error("nil type comparison")
	}
}
