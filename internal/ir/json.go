package ir

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"brilflow/internal/errors"
	"brilflow/internal/source"
)

// Wire structures of the Bril JSON format. Pointer fields distinguish a
// missing key from its zero value.

type jsonModule struct {
	Functions []*jsonFunction `json:"functions"`
}

type jsonFunction struct {
	Name   *string       `json:"name"`
	Args   []jsonParam   `json:"args,omitempty"`
	Type   *Type         `json:"type,omitempty"`
	Instrs []jsonInstr   `json:"instrs"`
	Pos    *jsonPosition `json:"pos,omitempty"`
}

type jsonParam struct {
	Name string `json:"name"`
	Type *Type  `json:"type"`
}

type jsonInstr struct {
	Label  *string         `json:"label,omitempty"`
	Op     *string         `json:"op,omitempty"`
	Dest   *string         `json:"dest,omitempty"`
	Type   *Type           `json:"type,omitempty"`
	Args   []string        `json:"args,omitempty"`
	Funcs  []string        `json:"funcs,omitempty"`
	Labels []string        `json:"labels,omitempty"`
	Value  json.RawMessage `json:"value,omitempty"`
	Pos    *jsonPosition   `json:"pos,omitempty"`
}

type jsonPosition struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

// MarshalJSON encodes base types as strings and pointers as {"ptr": T}
func (t *Type) MarshalJSON() ([]byte, error) {
	if t.Param != nil {
		return json.Marshal(map[string]*Type{t.Name: t.Param})
	}
	return json.Marshal(t.Name)
}

// UnmarshalJSON accepts "int" or {"ptr": T}
func (t *Type) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err == nil {
		*t = Type{Name: name}
		return nil
	}
	var param map[string]*Type
	if err := json.Unmarshal(data, &param); err != nil {
		return fmt.Errorf("invalid type %s", data)
	}
	if len(param) != 1 {
		return fmt.Errorf("parameterized type must have exactly one key, got %d", len(param))
	}
	for k, v := range param {
		if v == nil {
			return fmt.Errorf("type %s has no parameter", k)
		}
		*t = Type{Name: k, Param: v}
	}
	return nil
}

// DecodeJSON reads a Bril JSON document. filename is only used in errors.
func DecodeJSON(r io.Reader, filename string) (*Module, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	return UnmarshalModule(data, filename)
}

// UnmarshalModule decodes and validates a Bril JSON document
func UnmarshalModule(data []byte, filename string) (*Module, error) {
	var doc jsonModule
	dec := json.NewDecoder(bytes.NewReader(data))
	if err := dec.Decode(&doc); err != nil {
		return nil, &errors.ParseError{
			Pos:  jsonOffset(filename, data, err),
			Code: errors.ErrorMalformedJSON,
			Msg:  "invalid Bril JSON",
			Err:  err,
		}
	}
	if doc.Functions == nil {
		return nil, &errors.ParseError{
			Pos:  source.Position{Filename: filename},
			Code: errors.ErrorMissingField,
			Msg:  `missing field "functions"`,
		}
	}

	m := &Module{Functions: make([]*Function, 0, len(doc.Functions))}
	for i, jf := range doc.Functions {
		fn, err := decodeFunction(jf, i, filename)
		if err != nil {
			return nil, err
		}
		m.Functions = append(m.Functions, fn)
	}
	return m, nil
}

func decodeFunction(jf *jsonFunction, index int, filename string) (*Function, error) {
	if jf == nil || jf.Name == nil {
		return nil, &errors.ParseError{
			Pos:  source.Position{Filename: filename},
			Code: errors.ErrorMissingField,
			Msg:  fmt.Sprintf(`function %d: missing field "name"`, index),
		}
	}
	fn := &Function{
		Name: *jf.Name,
		Type: jf.Type,
		Pos:  jf.Pos.toPosition(filename),
	}
	if jf.Instrs == nil {
		return nil, fn.missing(fn.Pos, "instrs")
	}
	for _, a := range jf.Args {
		if a.Name == "" || a.Type == nil {
			return nil, fn.missing(fn.Pos, "args")
		}
		fn.Args = append(fn.Args, Param{Name: a.Name, Type: a.Type})
	}

	fn.Instrs = make([]Instruction, 0, len(jf.Instrs))
	for i := range jf.Instrs {
		instr, err := fn.decodeInstr(&jf.Instrs[i], filename)
		if err != nil {
			return nil, err
		}
		fn.Instrs = append(fn.Instrs, instr)
	}
	return fn, nil
}

func (fn *Function) decodeInstr(ji *jsonInstr, filename string) (Instruction, error) {
	pos := ji.Pos.toPosition(filename)
	if ji.Label != nil {
		return &Label{Name: *ji.Label, Pos: pos}, nil
	}
	if ji.Op == nil {
		return nil, fn.missing(pos, "op")
	}
	op := Opcode(*ji.Op)

	if ji.Dest == nil {
		e := &EffectOp{Op: op, Args: ji.Args, Funcs: ji.Funcs, Labels: ji.Labels, Pos: pos}
		return e, ValidateInstruction(fn.Name, e)
	}
	if ji.Type == nil {
		return nil, fn.missing(pos, "type")
	}

	v := &ValueOp{
		Op:     op,
		Dest:   *ji.Dest,
		Type:   ji.Type,
		Args:   ji.Args,
		Funcs:  ji.Funcs,
		Labels: ji.Labels,
		Pos:    pos,
	}
	if op == OpConst {
		if ji.Value == nil {
			return nil, fn.missing(pos, "value")
		}
		lit, err := decodeLiteral(ji.Value, v.Type)
		if err != nil {
			return nil, &errors.ParseError{
				Pos:      pos,
				Function: fn.Name,
				Code:     errors.ErrorInvalidInstruction,
				Msg:      fmt.Sprintf("invalid constant for %s", v.Dest),
				Err:      err,
			}
		}
		v.Value = lit
	}
	return v, ValidateInstruction(fn.Name, v)
}

// ValidateInstruction checks the operand counts of control instructions
func ValidateInstruction(function string, instr Instruction) error {
	var (
		op     Opcode
		args   []string
		labels []string
	)
	switch i := instr.(type) {
	case *EffectOp:
		op, args, labels = i.Op, i.Args, i.Labels
	case *ValueOp:
		if i.Op.IsTerminator() {
			return &errors.ParseError{
				Pos:      i.Pos,
				Function: function,
				Code:     errors.ErrorInvalidInstruction,
				Msg:      fmt.Sprintf("%s cannot define a value", i.Op),
			}
		}
		return nil
	default:
		return nil
	}

	var msg string
	switch op {
	case OpJmp:
		if len(labels) != 1 {
			msg = fmt.Sprintf("jmp needs 1 label, got %d", len(labels))
		}
	case OpBr:
		if len(labels) != 2 || len(args) != 1 {
			msg = fmt.Sprintf("br needs 1 argument and 2 labels, got %d and %d", len(args), len(labels))
		}
	case OpRet:
		if len(args) > 1 {
			msg = fmt.Sprintf("ret takes at most 1 argument, got %d", len(args))
		}
	}
	if msg == "" {
		return nil
	}
	return &errors.ParseError{
		Pos:      instr.Position(),
		Function: function,
		Code:     errors.ErrorInvalidInstruction,
		Msg:      msg,
	}
}

func (fn *Function) missing(pos source.Position, field string) error {
	return &errors.ParseError{
		Pos:      pos,
		Function: fn.Name,
		Code:     errors.ErrorMissingField,
		Msg:      fmt.Sprintf("missing field %q", field),
	}
}

func decodeLiteral(raw json.RawMessage, typ *Type) (*Literal, error) {
	switch typ.Name {
	case TypeBool:
		var b bool
		if err := json.Unmarshal(raw, &b); err != nil {
			return nil, err
		}
		return BoolValue(b), nil
	case TypeFloat:
		var f float64
		if err := json.Unmarshal(raw, &f); err != nil {
			return nil, err
		}
		return FloatValue(f), nil
	case TypeChar:
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return nil, err
		}
		r := []rune(s)
		if len(r) != 1 {
			return nil, fmt.Errorf("char constant must be a single character, got %q", s)
		}
		return CharValue(r[0]), nil
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err != nil {
		return nil, err
	}
	i, err := strconv.ParseInt(n.String(), 10, 64)
	if err != nil {
		return nil, err
	}
	return IntValue(i), nil
}

func (p *jsonPosition) toPosition(filename string) source.Position {
	if p == nil {
		return source.Position{Filename: filename}
	}
	return source.Position{Filename: filename, Line: p.Row, Column: p.Col}
}

func jsonOffset(filename string, data []byte, err error) source.Position {
	pos := source.Position{Filename: filename}
	var offset int64
	switch e := err.(type) {
	case *json.SyntaxError:
		offset = e.Offset
	case *json.UnmarshalTypeError:
		offset = e.Offset
	default:
		return pos
	}
	if offset > int64(len(data)) {
		offset = int64(len(data))
	}
	pos.Offset = int(offset)
	pos.Line = 1 + bytes.Count(data[:offset], []byte("\n"))
	pos.Column = int(offset) - bytes.LastIndexByte(data[:offset], '\n')
	return pos
}

// EncodeJSON writes the module as indented Bril JSON
func EncodeJSON(w io.Writer, m *Module) error {
	doc, err := m.toJSON()
	if err != nil {
		return err
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(doc)
}

// MarshalJSON implements json.Marshaler
func (m *Module) MarshalJSON() ([]byte, error) {
	doc, err := m.toJSON()
	if err != nil {
		return nil, err
	}
	return json.Marshal(doc)
}

func (m *Module) toJSON() (*jsonModule, error) {
	doc := &jsonModule{Functions: make([]*jsonFunction, 0, len(m.Functions))}
	for _, fn := range m.Functions {
		name := fn.Name
		jf := &jsonFunction{
			Name:   &name,
			Type:   fn.Type,
			Instrs: make([]jsonInstr, 0, len(fn.Instrs)),
			Pos:    fromPosition(fn.Pos),
		}
		for _, a := range fn.Args {
			jf.Args = append(jf.Args, jsonParam{Name: a.Name, Type: a.Type})
		}
		for _, instr := range fn.Instrs {
			if v, ok := instr.(*ValueOp); ok && !v.Value.IsFinite() {
				return nil, fmt.Errorf("@%s: %s: float literal %s has no JSON encoding", fn.Name, v.Dest, v.Value)
			}
			jf.Instrs = append(jf.Instrs, encodeInstr(instr))
		}
		doc.Functions = append(doc.Functions, jf)
	}
	return doc, nil
}

func encodeInstr(instr Instruction) jsonInstr {
	switch i := instr.(type) {
	case *Label:
		name := i.Name
		return jsonInstr{Label: &name, Pos: fromPosition(i.Pos)}
	case *ValueOp:
		op, dest := string(i.Op), i.Dest
		ji := jsonInstr{
			Op:     &op,
			Dest:   &dest,
			Type:   i.Type,
			Args:   i.Args,
			Funcs:  i.Funcs,
			Labels: i.Labels,
			Pos:    fromPosition(i.Pos),
		}
		if i.Value != nil {
			ji.Value = encodeLiteral(i.Value)
		}
		return ji
	case *EffectOp:
		op := string(i.Op)
		return jsonInstr{
			Op:     &op,
			Args:   i.Args,
			Funcs:  i.Funcs,
			Labels: i.Labels,
			Pos:    fromPosition(i.Pos),
		}
	}
	panic(fmt.Sprintf("unexpected instruction %T", instr))
}

func encodeLiteral(l *Literal) json.RawMessage {
	switch l.Kind {
	case FloatLiteral:
		return json.RawMessage(strconv.FormatFloat(l.Float, 'g', -1, 64))
	case BoolLiteral:
		return json.RawMessage(strconv.FormatBool(l.Bool))
	case CharLiteral:
		b, _ := json.Marshal(string(l.Char))
		return b
	}
	return json.RawMessage(strconv.FormatInt(l.Int, 10))
}

func fromPosition(p source.Position) *jsonPosition {
	if !p.IsValid() {
		return nil
	}
	return &jsonPosition{Row: p.Line, Col: p.Column}
}
