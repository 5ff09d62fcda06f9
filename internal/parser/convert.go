package parser

import (
	"fmt"
	"strconv"
	"strings"

	"brilflow/grammar"
	"brilflow/internal/errors"
	"brilflow/internal/ir"
	"brilflow/internal/source"
)

// converter turns the participle parse tree into IR, one function at a time
type converter struct {
	fn *ir.Function
}

func convertProgram(p *grammar.Program) (*ir.Module, error) {
	m := &ir.Module{Functions: make([]*ir.Function, 0, len(p.Functions))}
	for _, f := range p.Functions {
		fn, err := convertFunction(f)
		if err != nil {
			return nil, err
		}
		m.Functions = append(m.Functions, fn)
	}
	return m, nil
}

func convertFunction(f *grammar.Function) (*ir.Function, error) {
	c := &converter{
		fn: &ir.Function{
			Name:   strings.TrimPrefix(f.Name, "@"),
			Type:   convertType(f.Return),
			Pos:    source.FromLexer(f.Pos),
			Instrs: make([]ir.Instruction, 0, len(f.Body)),
		},
	}
	for _, p := range f.Params {
		c.fn.Args = append(c.fn.Args, ir.Param{Name: p.Name, Type: convertType(p.Type)})
	}

	for _, item := range f.Body {
		if item.Label != nil {
			c.fn.Instrs = append(c.fn.Instrs, &ir.Label{
				Name: strings.TrimPrefix(*item.Label, "."),
				Pos:  source.FromLexer(item.Pos),
			})
			continue
		}
		instr, err := c.convertInstr(item.Instr)
		if err != nil {
			return nil, err
		}
		if err := ir.ValidateInstruction(c.fn.Name, instr); err != nil {
			return nil, err
		}
		c.fn.Instrs = append(c.fn.Instrs, instr)
	}
	return c.fn, nil
}

func convertType(t *grammar.Type) *ir.Type {
	if t == nil {
		return nil
	}
	return &ir.Type{Name: t.Name, Param: convertType(t.Param)}
}

func (c *converter) convertInstr(in *grammar.Instr) (ir.Instruction, error) {
	pos := source.FromLexer(in.Pos)
	op := ir.Opcode(in.Op)

	if in.Def != nil && op == ir.OpConst {
		typ := convertType(in.Def.Type)
		if len(in.Operands) != 1 {
			return nil, c.errorf(pos, "const takes exactly one literal, got %d operands", len(in.Operands))
		}
		lit, err := c.convertLiteral(in.Operands[0], typ)
		if err != nil {
			return nil, err
		}
		return &ir.ValueOp{Op: op, Dest: in.Def.Dest, Type: typ, Value: lit, Pos: pos}, nil
	}

	var args, funcs, labels []string
	for _, o := range in.Operands {
		switch {
		case o.Func != nil:
			funcs = append(funcs, strings.TrimPrefix(*o.Func, "@"))
		case o.Label != nil:
			labels = append(labels, strings.TrimPrefix(*o.Label, "."))
		case o.Ident != nil:
			args = append(args, *o.Ident)
		default:
			return nil, c.errorf(source.FromLexer(o.Pos), "literal operand is only allowed in const")
		}
	}

	if in.Def == nil {
		return &ir.EffectOp{Op: op, Args: args, Funcs: funcs, Labels: labels, Pos: pos}, nil
	}
	return &ir.ValueOp{
		Op:     op,
		Dest:   in.Def.Dest,
		Type:   convertType(in.Def.Type),
		Args:   args,
		Funcs:  funcs,
		Labels: labels,
		Pos:    pos,
	}, nil
}

func (c *converter) convertLiteral(o *grammar.Operand, typ *ir.Type) (*ir.Literal, error) {
	pos := source.FromLexer(o.Pos)
	switch typ.Name {
	case ir.TypeBool:
		if o.Ident != nil && (*o.Ident == "true" || *o.Ident == "false") {
			return ir.BoolValue(*o.Ident == "true"), nil
		}
	case ir.TypeFloat:
		text := o.Float
		if text == nil {
			text = o.Int
		}
		if text != nil {
			f, err := strconv.ParseFloat(*text, 64)
			if err != nil {
				return nil, c.errorf(pos, "invalid float literal %s", *text)
			}
			return ir.FloatValue(f), nil
		}
	case ir.TypeChar:
		if o.Char != nil {
			r, _, _, err := strconv.UnquoteChar(strings.Trim(*o.Char, "'"), '\'')
			if err != nil {
				return nil, c.errorf(pos, "invalid char literal %s", *o.Char)
			}
			return ir.CharValue(r), nil
		}
	default:
		if o.Int != nil {
			i, err := strconv.ParseInt(*o.Int, 10, 64)
			if err != nil {
				return nil, c.errorf(pos, "invalid integer literal %s", *o.Int)
			}
			return ir.IntValue(i), nil
		}
	}
	return nil, c.errorf(pos, "constant does not match type %s", typ)
}

func (c *converter) errorf(pos source.Position, format string, args ...interface{}) error {
	return &errors.ParseError{
		Pos:      pos,
		Function: c.fn.Name,
		Code:     errors.ErrorInvalidInstruction,
		Msg:      fmt.Sprintf(format, args...),
	}
}
