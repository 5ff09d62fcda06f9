package ir

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"brilflow/internal/source"
)

// IR types and structures for Bril programs.
// A program is a list of functions, each a flat list of instructions in which
// labels mark the start of basic blocks.

// Module represents a whole Bril program
type Module struct {
	Functions []*Function
}

// Function represents a Bril function
type Function struct {
	Name   string
	Args   []Param
	Type   *Type // Return type, nil for functions without a result
	Instrs []Instruction
	Pos    source.Position
}

// Param is a named, typed function argument
type Param struct {
	Name string
	Type *Type
}

// Type is a Bril type: a base type such as int, or ptr<T>
type Type struct {
	Name  string // "int", "bool", "float", "char" or "ptr"
	Param *Type  // Element type when Name is "ptr"
}

// Base type names
const (
	TypeInt   = "int"
	TypeBool  = "bool"
	TypeFloat = "float"
	TypeChar  = "char"
	TypePtr   = "ptr"
)

// NewType returns a base type
func NewType(name string) *Type {
	return &Type{Name: name}
}

// PtrTo returns ptr<elem>
func PtrTo(elem *Type) *Type {
	return &Type{Name: TypePtr, Param: elem}
}

func (t *Type) String() string {
	if t == nil {
		return ""
	}
	if t.Param != nil {
		return fmt.Sprintf("%s<%s>", t.Name, t.Param.String())
	}
	return t.Name
}

// Equal reports whether two types are structurally identical
func (t *Type) Equal(o *Type) bool {
	if t == nil || o == nil {
		return t == o
	}
	return t.Name == o.Name && t.Param.Equal(o.Param)
}

// LiteralKind identifies the Go representation of a constant
type LiteralKind int

const (
	IntLiteral LiteralKind = iota
	FloatLiteral
	BoolLiteral
	CharLiteral
)

// Literal is the value of a const instruction
type Literal struct {
	Kind  LiteralKind
	Int   int64
	Float float64
	Bool  bool
	Char  rune
}

func IntValue(v int64) *Literal     { return &Literal{Kind: IntLiteral, Int: v} }
func FloatValue(v float64) *Literal { return &Literal{Kind: FloatLiteral, Float: v} }
func BoolValue(v bool) *Literal     { return &Literal{Kind: BoolLiteral, Bool: v} }
func CharValue(v rune) *Literal     { return &Literal{Kind: CharLiteral, Char: v} }

// IsFinite reports whether the literal is not a NaN or infinite float
func (l *Literal) IsFinite() bool {
	if l == nil || l.Kind != FloatLiteral {
		return true
	}
	return !math.IsNaN(l.Float) && !math.IsInf(l.Float, 0)
}

// String returns the literal as written in Bril text
func (l *Literal) String() string {
	if l == nil {
		return ""
	}
	switch l.Kind {
	case FloatLiteral:
		s := strconv.FormatFloat(l.Float, 'g', -1, 64)
		if !strings.ContainsAny(s, ".eEnN") {
			s += ".0"
		}
		return s
	case BoolLiteral:
		return strconv.FormatBool(l.Bool)
	case CharLiteral:
		return "'" + string(l.Char) + "'"
	default:
		return strconv.FormatInt(l.Int, 10)
	}
}

// Instruction is one of *Label, *ValueOp or *EffectOp
type Instruction interface {
	Position() source.Position
	String() string
	isInstruction()
}

// Label marks the start of a basic block
type Label struct {
	Name string
	Pos  source.Position
}

// ValueOp is an operation that defines Dest
type ValueOp struct {
	Op     Opcode
	Dest   string
	Type   *Type
	Args   []string
	Funcs  []string
	Labels []string
	Value  *Literal // Set for const
	Pos    source.Position
}

// EffectOp is an operation executed only for its effect
type EffectOp struct {
	Op     Opcode
	Args   []string
	Funcs  []string
	Labels []string
	Pos    source.Position
}

func (*Label) isInstruction()    {}
func (*ValueOp) isInstruction()  {}
func (*EffectOp) isInstruction() {}

func (i *Label) Position() source.Position    { return i.Pos }
func (i *ValueOp) Position() source.Position  { return i.Pos }
func (i *EffectOp) Position() source.Position { return i.Pos }

// Uses returns the variables read by an instruction
func Uses(instr Instruction) []string {
	switch i := instr.(type) {
	case *ValueOp:
		return i.Args
	case *EffectOp:
		return i.Args
	}
	return nil
}

// Def returns the variable defined by an instruction
func Def(instr Instruction) (string, bool) {
	if v, ok := instr.(*ValueOp); ok {
		return v.Dest, true
	}
	return "", false
}

// IsTerminator reports whether instr ends a basic block
func IsTerminator(instr Instruction) bool {
	e, ok := instr.(*EffectOp)
	return ok && e.Op.IsTerminator()
}

// Targets returns the labels a terminator may transfer control to, in order
func Targets(instr Instruction) []string {
	e, ok := instr.(*EffectOp)
	if !ok {
		return nil
	}
	switch e.Op {
	case OpJmp, OpBr:
		return e.Labels
	}
	return nil
}

// Clone returns a deep copy of an instruction
func Clone(instr Instruction) Instruction {
	switch i := instr.(type) {
	case *Label:
		c := *i
		return &c
	case *ValueOp:
		c := *i
		c.Args = cloneStrings(i.Args)
		c.Funcs = cloneStrings(i.Funcs)
		c.Labels = cloneStrings(i.Labels)
		if i.Value != nil {
			v := *i.Value
			c.Value = &v
		}
		return &c
	case *EffectOp:
		c := *i
		c.Args = cloneStrings(i.Args)
		c.Funcs = cloneStrings(i.Funcs)
		c.Labels = cloneStrings(i.Labels)
		return &c
	}
	return instr
}

// Clone returns a deep copy of the function
func (f *Function) Clone() *Function {
	c := *f
	c.Args = append([]Param(nil), f.Args...)
	c.Instrs = make([]Instruction, len(f.Instrs))
	for i, instr := range f.Instrs {
		c.Instrs[i] = Clone(instr)
	}
	return &c
}

// Clone returns a deep copy of the module
func (m *Module) Clone() *Module {
	c := &Module{Functions: make([]*Function, len(m.Functions))}
	for i, f := range m.Functions {
		c.Functions[i] = f.Clone()
	}
	return c
}

// Function returns the function with the given name, or nil
func (m *Module) Function(name string) *Function {
	for _, f := range m.Functions {
		if f.Name == name {
			return f
		}
	}
	return nil
}

// Variables returns every variable name appearing in the function
func (f *Function) Variables() map[string]bool {
	vars := make(map[string]bool)
	for _, a := range f.Args {
		vars[a.Name] = true
	}
	for _, instr := range f.Instrs {
		if d, ok := Def(instr); ok {
			vars[d] = true
		}
		for _, u := range Uses(instr) {
			vars[u] = true
		}
	}
	return vars
}

func cloneStrings(s []string) []string {
	if s == nil {
		return nil
	}
	return append([]string(nil), s...)
}
