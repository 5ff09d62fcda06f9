package errors

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"brilflow/internal/source"
)

func TestErrorReporter(t *testing.T) {
	src := `@main {
  jmp .missing;
.done:
  ret;
}`

	reporter := NewErrorReporter("test.bril", src)

	err := (&UnknownTargetError{
		Function: "main",
		Block:    "b0",
		Target:   "missing",
		Pos:      source.Position{Line: 2, Column: 3},
	}).Diagnostic()
	formatted := reporter.FormatError(err)

	assert.Contains(t, formatted, "error["+ErrorUnknownTarget+"]")
	assert.Contains(t, formatted, "unknown label '.missing'")
	assert.Contains(t, formatted, "test.bril:2:3 in @main, block b0")
	assert.Contains(t, formatted, "jmp .missing;")
}

func TestErrorReporterShowsFunctionHeader(t *testing.T) {
	src := `@other {
  ret;
}
@main(n: int) {
  a: int = const 1;
  b: int = const 2;
  c: int = add a b;
.body:
  jmp .gone;
}`

	reporter := NewErrorReporter("test.bril", src)
	err := (&UnknownTargetError{
		Function: "main",
		Block:    "body",
		Target:   "gone",
		Pos:      source.Position{Line: 9, Column: 3},
	}).Diagnostic()
	formatted := reporter.FormatError(err)

	assert.Contains(t, formatted, "test.bril:9:3 in @main, block .body")
	assert.Contains(t, formatted, "@main(n: int) {")
	assert.NotContains(t, formatted, "@other")
	assert.Contains(t, formatted, "...")
	assert.Contains(t, formatted, ".body:")
	assert.NotContains(t, formatted, "b: int = const 2;")
}

func TestCompilerErrorWhere(t *testing.T) {
	tests := []struct {
		name string
		err  CompilerError
		want string
	}{
		{"none", CompilerError{}, ""},
		{"function", CompilerError{Function: "f"}, "@f"},
		{"label", CompilerError{Function: "f", Block: "loop"}, "@f, block .loop"},
		{"synthesized", CompilerError{Function: "f", Block: "b3"}, "@f, block b3"},
		{"bumped", CompilerError{Function: "f", Block: "b0.1"}, "@f, block b0.1"},
		{"label starting with b", CompilerError{Function: "f", Block: "body"}, "@f, block .body"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.Where())
		})
	}
}

func TestErrorReporterWithoutPosition(t *testing.T) {
	reporter := NewErrorReporter("prog.json", "")

	err := NewError(ErrorMissingField, "missing field \"op\"", source.Position{}).
		InFunction("f").
		Build()
	formatted := reporter.FormatError(err)

	assert.Contains(t, formatted, "prog.json in @f")
	assert.Contains(t, formatted, "missing field")
}

func TestDuplicateBlockNameDiagnostic(t *testing.T) {
	err := &DuplicateBlockNameError{
		Function: "main",
		Name:     "loop",
		Pos:      source.Position{Line: 5, Column: 1},
		First:    source.Position{Line: 2, Column: 1},
	}

	assert.Equal(t, "@main: duplicate block name .loop", err.Error())

	d := err.Diagnostic()
	assert.Equal(t, ErrorDuplicateBlockName, d.Code)
	assert.Equal(t, 5, d.Length)
	require.Len(t, d.Notes, 1)
	assert.Contains(t, d.Notes[0], "2:1")
}

func TestUnreachableDominanceInputError(t *testing.T) {
	err := &UnreachableDominanceInputError{
		Function: "f",
		Reason:   "blocks unreachable from entry",
		Blocks:   []string{"dead", "dead2"},
	}

	assert.Equal(t, "@f: blocks unreachable from entry: dead, dead2", err.Error())
	d := err.Diagnostic()
	assert.Equal(t, ErrorUnreachableDominanceInput, d.Code)
	assert.NotEmpty(t, d.HelpText)
}

func TestParseErrorUnwrap(t *testing.T) {
	cause := stderrors.New("unexpected end of input")
	err := &ParseError{
		Pos:  source.Position{Filename: "a.json"},
		Code: ErrorMalformedJSON,
		Msg:  "invalid document",
		Err:  cause,
	}

	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "a.json: invalid document: unexpected end of input", err.Error())
	assert.Equal(t, ErrorMalformedJSON, err.Diagnostic().Code)
}

func TestDiagnostics(t *testing.T) {
	joined := stderrors.Join(
		fmt.Errorf("wrapped: %w", &UnknownTargetError{Function: "a", Block: "b0", Target: "x"}),
		&DuplicateBlockNameError{Function: "b", Name: "l"},
		stderrors.New("plain"),
	)

	ds := Diagnostics(joined)
	require.Len(t, ds, 3)
	assert.Equal(t, ErrorUnknownTarget, ds[0].Code)
	assert.Equal(t, "a", ds[0].Function)
	assert.Equal(t, ErrorDuplicateBlockName, ds[1].Code)
	assert.Equal(t, ErrorPassFailed, ds[2].Code)

	assert.Nil(t, Diagnostics(nil))
}

func TestErrorCategories(t *testing.T) {
	assert.Equal(t, "Input", GetErrorCategory(ErrorSyntax))
	assert.Equal(t, "Control Flow", GetErrorCategory(ErrorUnknownTarget))
	assert.Equal(t, "Warning", GetErrorCategory(WarningUnreachableBlock))
	assert.True(t, IsWarning(WarningUnknownConfigKey))
	assert.False(t, IsWarning(ErrorPassFailed))
	assert.Equal(t, "Unknown error code", GetErrorDescription("E9999"))
}
