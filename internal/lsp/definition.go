package lsp

import (
	"strings"

	protocol "github.com/tliron/glsp/protocol_3_16"

	"brilflow/internal/ir"
	"brilflow/internal/source"
)

// Definition resolves the label or function reference under the 0-based
// position to where it is declared.
func Definition(doc *Document, pos protocol.Position) *protocol.Location {
	if doc.Module == nil {
		return nil
	}
	line, column := int(pos.Line)+1, int(pos.Character)+1
	tokens := lexTokens(doc.Path, doc.Text)
	tok, _, ok := tokenAt(tokens, line, column)
	if !ok {
		return nil
	}

	switch tok.Type {
	case symbols["Func"]:
		if fn := doc.Module.Function(strings.TrimPrefix(tok.Value, "@")); fn != nil {
			return location(doc.URI, fn.Pos, len(fn.Name)+1)
		}
	case symbols["Label"]:
		fn := doc.FunctionAt(line)
		if fn == nil {
			return nil
		}
		name := strings.TrimPrefix(tok.Value, ".")
		for _, instr := range fn.Instrs {
			if l, ok := instr.(*ir.Label); ok && l.Name == name {
				return location(doc.URI, l.Pos, len(name)+1)
			}
		}
	}
	return nil
}

func location(uri protocol.DocumentUri, pos source.Position, length int) *protocol.Location {
	start := protocol.Position{Line: uint32(pos.Line - 1), Character: uint32(pos.Column - 1)}
	end := protocol.Position{Line: start.Line, Character: start.Character + uint32(length)}
	return &protocol.Location{URI: uri, Range: protocol.Range{Start: start, End: end}}
}
