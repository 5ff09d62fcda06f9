package errors

import (
	stderrors "errors"
	"fmt"
	"strings"

	"brilflow/internal/source"
)

// Diagnosable is implemented by every error kind that can be shown to a user
// with a code and a source location.
type Diagnosable interface {
	error
	Diagnostic() CompilerError
}

// ParseError reports a malformed input document or a missing required field.
type ParseError struct {
	Pos      source.Position
	Function string
	Code     string
	Msg      string
	Err      error
}

func (e *ParseError) Error() string {
	var b strings.Builder
	if e.Pos.IsValid() || e.Pos.Filename != "" {
		b.WriteString(e.Pos.String())
		b.WriteString(": ")
	}
	if e.Function != "" {
		fmt.Fprintf(&b, "@%s: ", e.Function)
	}
	b.WriteString(e.Msg)
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *ParseError) Unwrap() error { return e.Err }

func (e *ParseError) Diagnostic() CompilerError {
	code := e.Code
	if code == "" {
		code = ErrorSyntax
	}
	b := NewError(code, e.Msg, e.Pos).InFunction(e.Function)
	if e.Err != nil {
		b = b.WithNote(e.Err.Error())
	}
	return b.Build()
}

// DuplicateBlockNameError reports two blocks in one function with the same label.
type DuplicateBlockNameError struct {
	Function string
	Name     string
	Pos      source.Position
	First    source.Position
}

func (e *DuplicateBlockNameError) Error() string {
	return fmt.Sprintf("@%s: duplicate block name .%s", e.Function, e.Name)
}

func (e *DuplicateBlockNameError) Diagnostic() CompilerError {
	b := NewError(ErrorDuplicateBlockName, fmt.Sprintf("label '.%s' is defined more than once", e.Name), e.Pos).
		InFunction(e.Function).
		WithLength(len(e.Name) + 1).
		WithSuggestion("rename one of the labels")
	if e.First.IsValid() {
		b = b.WithNote(fmt.Sprintf("first defined at %d:%d", e.First.Line, e.First.Column))
	}
	return b.Build()
}

// UnknownTargetError reports a jmp or br naming a label that has no block.
type UnknownTargetError struct {
	Function string
	Block    string
	Target   string
	Pos      source.Position
}

func (e *UnknownTargetError) Error() string {
	return fmt.Sprintf("@%s: block %s jumps to unknown label .%s", e.Function, e.Block, e.Target)
}

func (e *UnknownTargetError) Diagnostic() CompilerError {
	return NewError(ErrorUnknownTarget, fmt.Sprintf("unknown label '.%s'", e.Target), e.Pos).
		InFunction(e.Function).
		InBlock(e.Block).
		Build()
}

// UnreachableDominanceInputError reports a CFG that has no unique entry, or
// blocks the entry does not reach while unreachable blocks are rejected.
type UnreachableDominanceInputError struct {
	Function string
	Reason   string
	Blocks   []string
	Pos      source.Position
}

func (e *UnreachableDominanceInputError) Error() string {
	if len(e.Blocks) == 0 {
		return fmt.Sprintf("@%s: %s", e.Function, e.Reason)
	}
	return fmt.Sprintf("@%s: %s: %s", e.Function, e.Reason, strings.Join(e.Blocks, ", "))
}

func (e *UnreachableDominanceInputError) Diagnostic() CompilerError {
	b := NewError(ErrorUnreachableDominanceInput, e.Reason, e.Pos).InFunction(e.Function)
	if len(e.Blocks) > 0 {
		b = b.WithNote("blocks: " + strings.Join(e.Blocks, ", ")).
			WithHelp("set dominance.unreachable = \"exclude\" to analyze only reachable blocks")
	}
	return b.Build()
}

// AsDiagnostic finds the first Diagnosable error in err's tree.
func AsDiagnostic(err error) (CompilerError, bool) {
	var d Diagnosable
	if stderrors.As(err, &d) {
		return d.Diagnostic(), true
	}
	return CompilerError{}, false
}

// Diagnostics flattens err, including errors joined with errors.Join, into
// compiler errors. Errors without a diagnostic form get ErrorPassFailed.
func Diagnostics(err error) []CompilerError {
	if err == nil {
		return nil
	}
	if j, ok := err.(interface{ Unwrap() []error }); ok {
		var out []CompilerError
		for _, e := range j.Unwrap() {
			out = append(out, Diagnostics(e)...)
		}
		return out
	}
	if d, ok := AsDiagnostic(err); ok {
		return []CompilerError{d}
	}
	return []CompilerError{NewError(ErrorPassFailed, err.Error(), source.Position{}).Build()}
}
