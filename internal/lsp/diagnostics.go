package lsp

import (
	"fmt"
	"strings"

	protocol "github.com/tliron/glsp/protocol_3_16"

	"brilflow/internal/cfg"
	"brilflow/internal/dom"
	"brilflow/internal/errors"
	"brilflow/internal/ir"
	"brilflow/internal/source"
)

const diagnosticSource = "brilflow"

// CollectDiagnostics checks every function of a parsed module: its CFG
// must build, and blocks unreachable from the entry are flagged.
func CollectDiagnostics(m *ir.Module) []protocol.Diagnostic {
	diagnostics := []protocol.Diagnostic{}
	for _, fn := range m.Functions {
		g, err := cfg.Build(fn, cfg.Options{Entry: true})
		if err != nil {
			diagnostics = append(diagnostics, ConvertErrors(err)...)
			continue
		}
		a, err := dom.Analyze(g, dom.Options{Unreachable: dom.ExcludeUnreachable})
		if err != nil {
			diagnostics = append(diagnostics, ConvertErrors(err)...)
			continue
		}
		for _, name := range a.Unreachable {
			b := g.Blocks.Get(name)
			pos, length := blockPosition(b)
			warning := errors.NewWarning(errors.WarningUnreachableBlock,
				fmt.Sprintf("block %s is unreachable from the entry of @%s", name, fn.Name), pos).
				InFunction(fn.Name).
				InBlock(name).
				WithLength(length).
				Build()
			d := ConvertCompilerError(warning)
			d.Tags = []protocol.DiagnosticTag{protocol.DiagnosticTagUnnecessary}
			diagnostics = append(diagnostics, d)
		}
	}
	return diagnostics
}

// blockPosition returns where a block starts in the source and the width
// of its label, or of its first instruction when it has none.
func blockPosition(b *cfg.Block) (source.Position, int) {
	if b.Label != nil {
		return b.Label.Pos, len(b.Label.Name) + 1
	}
	if len(b.Instrs) > 0 {
		instr := b.Instrs[0]
		return instr.Position(), len(strings.TrimSuffix(instr.String(), ";"))
	}
	return source.Position{}, 1
}

// ConvertErrors transforms parse and CFG errors into LSP diagnostics for
// IDE display.
func ConvertErrors(err error) []protocol.Diagnostic {
	var diagnostics []protocol.Diagnostic
	for _, ce := range errors.Diagnostics(err) {
		diagnostics = append(diagnostics, ConvertCompilerError(ce))
	}
	return diagnostics
}

// ConvertCompilerError maps one structured error onto an LSP diagnostic.
// Positions are converted to 0-based indexing.
func ConvertCompilerError(ce errors.CompilerError) protocol.Diagnostic {
	line, char := 0, 0
	if ce.Position.IsValid() {
		line, char = ce.Position.Line-1, max(ce.Position.Column-1, 0)
	}
	length := max(ce.Length, 1)

	severity := protocol.DiagnosticSeverityError
	if ce.Level == errors.Warning {
		severity = protocol.DiagnosticSeverityWarning
	}

	message := ce.Message
	for _, note := range ce.Notes {
		message += "\nnote: " + note
	}
	if ce.HelpText != "" {
		message += "\nhelp: " + ce.HelpText
	}

	return protocol.Diagnostic{
		Range: protocol.Range{
			Start: protocol.Position{Line: uint32(line), Character: uint32(char)},
			End:   protocol.Position{Line: uint32(line), Character: uint32(char + length)},
		},
		Severity: ptrSeverity(severity),
		Code:     &protocol.IntegerOrString{Value: ce.Code},
		Source:   ptrString(diagnosticSource),
		Message:  message,
	}
}

func ptrSeverity(s protocol.DiagnosticSeverity) *protocol.DiagnosticSeverity {
	return &s
}

func ptrString(s string) *string {
	return &s
}
