package parser

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"github.com/alecthomas/participle/v2"

	"brilflow/grammar"
	"brilflow/internal/errors"
	"brilflow/internal/ir"
	"brilflow/internal/source"
)

// Format identifies the surface syntax of a Bril document
type Format int

const (
	FormatText Format = iota
	FormatJSON
)

func (f Format) String() string {
	if f == FormatJSON {
		return "json"
	}
	return "text"
}

func ParseFile(path string) (*ir.Module, Format, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, FormatText, fmt.Errorf("failed to read file: %w", err)
	}
	return Parse(path, data)
}

// ReadModule reads a whole document from r and parses it as Bril JSON or
// Bril text, whichever the content looks like.
func ReadModule(r io.Reader, filename string) (*ir.Module, Format, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, FormatText, err
	}
	return Parse(filename, data)
}

// Parse detects the format from the first non-space byte: JSON documents
// start with '{'.
func Parse(filename string, data []byte) (*ir.Module, Format, error) {
	if trimmed := bytes.TrimLeft(data, " \t\r\n"); len(trimmed) > 0 && trimmed[0] == '{' {
		m, err := ir.UnmarshalModule(data, filename)
		return m, FormatJSON, err
	}
	m, err := ParseSource(filename, string(data))
	return m, FormatText, err
}

// ParseSource parses Bril text into a module
func ParseSource(sourceName string, src string) (*ir.Module, error) {
	program, err := grammar.ParseString(sourceName, src)
	if err != nil {
		return nil, syntaxError(sourceName, err)
	}
	return convertProgram(program)
}

func syntaxError(filename string, err error) error {
	if pe, ok := err.(participle.Error); ok {
		return &errors.ParseError{
			Pos:  source.FromLexer(pe.Position()),
			Code: errors.ErrorSyntax,
			Msg:  pe.Message(),
		}
	}
	return &errors.ParseError{
		Pos:  source.Position{Filename: filename},
		Code: errors.ErrorSyntax,
		Msg:  "invalid Bril text",
		Err:  err,
	}
}
