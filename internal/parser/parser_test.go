package parser

import (
	stderrors "errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"brilflow/internal/errors"
	"brilflow/internal/ir"
)

const sample = `@main(cond: bool) {
  a: int = const 4;
  f: float = const 2;
  c: char = const 'q';
  t: bool = const true;
  p: ptr<int> = alloc a;
  r: int = call @helper a a;
  br cond .then .else;
.then:
  print r;
  jmp .end;
.else:
  free p;
.end:
  ret;
}

@helper(x: int, y: int): int {
  s: int = add x y;
  ret s;
}
`

func TestParseSource(t *testing.T) {
	m, err := ParseSource("sample.bril", sample)
	require.NoError(t, err)
	require.Len(t, m.Functions, 2)

	main := m.Functions[0]
	assert.Equal(t, "main", main.Name)
	require.Len(t, main.Args, 1)
	assert.Equal(t, "bool", main.Args[0].Type.String())
	assert.Nil(t, main.Type)
	require.Len(t, main.Instrs, 14)

	a := main.Instrs[0].(*ir.ValueOp)
	assert.Equal(t, ir.OpConst, a.Op)
	assert.Equal(t, ir.IntValue(4), a.Value)
	assert.Equal(t, 2, a.Pos.Line)

	assert.Equal(t, ir.FloatValue(2), main.Instrs[1].(*ir.ValueOp).Value)
	assert.Equal(t, ir.CharValue('q'), main.Instrs[2].(*ir.ValueOp).Value)
	assert.Equal(t, ir.BoolValue(true), main.Instrs[3].(*ir.ValueOp).Value)
	assert.Equal(t, "ptr<int>", main.Instrs[4].(*ir.ValueOp).Type.String())

	call := main.Instrs[5].(*ir.ValueOp)
	assert.Equal(t, []string{"helper"}, call.Funcs)
	assert.Equal(t, []string{"a", "a"}, call.Args)

	br := main.Instrs[6].(*ir.EffectOp)
	assert.Equal(t, []string{"cond"}, br.Args)
	assert.Equal(t, []string{"then", "else"}, br.Labels)

	lbl := main.Instrs[7].(*ir.Label)
	assert.Equal(t, "then", lbl.Name)

	helper := m.Functions[1]
	assert.Equal(t, "int", helper.Type.String())
}

func TestTextRoundTrip(t *testing.T) {
	m, err := ParseSource("sample.bril", sample)
	require.NoError(t, err)

	printed := ir.Print(m)
	again, err := ParseSource("printed.bril", printed)
	require.NoError(t, err)
	assert.Equal(t, printed, ir.Print(again))
}

func TestParseDetectsFormat(t *testing.T) {
	m, format, err := ReadModule(strings.NewReader(`  {"functions": [{"name": "f", "instrs": []}]}`), "f.json")
	require.NoError(t, err)
	assert.Equal(t, FormatJSON, format)
	assert.Equal(t, []string{"f"}, m.Names())

	m, format, err = ReadModule(strings.NewReader("@g {\n  nop;\n}\n"), "g.bril")
	require.NoError(t, err)
	assert.Equal(t, FormatText, format)
	assert.Equal(t, []string{"g"}, m.Names())
	assert.Equal(t, "text", format.String())
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		code string
		line int
	}{
		{
			name: "missing semicolon",
			src:  "@f {\n  x: int = const 1\n}",
			code: errors.ErrorSyntax,
			line: 3,
		},
		{
			name: "const type mismatch",
			src:  "@f {\n  x: bool = const 1;\n}",
			code: errors.ErrorInvalidInstruction,
			line: 2,
		},
		{
			name: "literal outside const",
			src:  "@f {\n  x: int = add a 1;\n}",
			code: errors.ErrorInvalidInstruction,
			line: 2,
		},
		{
			name: "br without labels",
			src:  "@f {\n  br c;\n}",
			code: errors.ErrorInvalidInstruction,
			line: 2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseSource("bad.bril", tt.src)
			require.Error(t, err)

			var pe *errors.ParseError
			require.True(t, stderrors.As(err, &pe), "expected *ParseError, got %T", err)
			assert.Equal(t, tt.code, pe.Code)
			assert.Equal(t, tt.line, pe.Pos.Line)
		})
	}
}

func TestExponentFloatsSurviveTextRoundTrip(t *testing.T) {
	m, format, err := Parse("floats.json", []byte(`{"functions": [{"name": "main", "instrs": [
  {"op": "const", "dest": "big", "type": "float", "value": 1e21},
  {"op": "const", "dest": "small", "type": "float", "value": 1e-7},
  {"op": "const", "dest": "neg", "type": "float", "value": -2.5e-12},
  {"op": "print", "args": ["big", "small", "neg"]}
]}]}`))
	require.NoError(t, err)
	require.Equal(t, FormatJSON, format)

	printed := ir.Print(m)
	assert.Contains(t, printed, "big: float = const 1e+21;")
	assert.Contains(t, printed, "small: float = const 1e-07;")

	again, err := ParseSource("floats.bril", printed)
	require.NoError(t, err)
	fn := again.Functions[0]
	assert.Equal(t, ir.FloatValue(1e21), fn.Instrs[0].(*ir.ValueOp).Value)
	assert.Equal(t, ir.FloatValue(1e-7), fn.Instrs[1].(*ir.ValueOp).Value)
	assert.Equal(t, ir.FloatValue(-2.5e-12), fn.Instrs[2].(*ir.ValueOp).Value)
	assert.Equal(t, printed, ir.Print(again))
}
