package lsp

import (
	protocol "github.com/tliron/glsp/protocol_3_16"

	"brilflow/internal/ir"
	"brilflow/internal/parser"
)

// Document is the analyzed state of one open file
type Document struct {
	URI         protocol.DocumentUri
	Path        string
	Text        string
	Module      *ir.Module // nil when the text does not parse
	Diagnostics []protocol.Diagnostic
}

// NewDocument parses text and collects its diagnostics
func NewDocument(uri protocol.DocumentUri, path, text string) *Document {
	doc := &Document{URI: uri, Path: path, Text: text}
	m, err := parser.ParseSource(path, text)
	if err != nil {
		doc.Diagnostics = ConvertErrors(err)
		return doc
	}
	doc.Module = m
	doc.Diagnostics = CollectDiagnostics(m)
	return doc
}

// FunctionAt returns the function whose body holds the 1-based line
func (d *Document) FunctionAt(line int) *ir.Function {
	if d.Module == nil {
		return nil
	}
	var found *ir.Function
	for _, fn := range d.Module.Functions {
		if fn.Pos.Line > line {
			break
		}
		found = fn
	}
	return found
}

// LabelAt returns the label declared on the 1-based line and its function
func (d *Document) LabelAt(line int) (*ir.Function, *ir.Label) {
	fn := d.FunctionAt(line)
	if fn == nil {
		return nil, nil
	}
	for _, instr := range fn.Instrs {
		if l, ok := instr.(*ir.Label); ok && l.Pos.Line == line {
			return fn, l
		}
	}
	return nil, nil
}
