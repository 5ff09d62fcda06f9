package source

import (
	"fmt"

	"github.com/alecthomas/participle/v2/lexer"
)

// Position is a location in a Bril source file. Line and Column are 1-based;
// a zero Position means the location is unknown (for example JSON input).
type Position struct {
	Filename string
	Offset   int
	Line     int
	Column   int
}

// FromLexer converts a participle lexer position.
func FromLexer(p lexer.Position) Position {
	return Position{
		Filename: p.Filename,
		Offset:   p.Offset,
		Line:     p.Line,
		Column:   p.Column,
	}
}

// IsValid reports whether the position points into a source file.
func (p Position) IsValid() bool {
	return p.Line > 0
}

func (p Position) String() string {
	if !p.IsValid() {
		if p.Filename != "" {
			return p.Filename
		}
		return "-"
	}
	if p.Filename == "" {
		return fmt.Sprintf("%d:%d", p.Line, p.Column)
	}
	return fmt.Sprintf("%s:%d:%d", p.Filename, p.Line, p.Column)
}
