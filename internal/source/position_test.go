package source

import (
	"testing"

	"github.com/alecthomas/participle/v2/lexer"
	"github.com/stretchr/testify/assert"
)

func TestPositionString(t *testing.T) {
	tests := []struct {
		name string
		pos  Position
		want string
	}{
		{name: "unknown", pos: Position{}, want: "-"},
		{name: "file only", pos: Position{Filename: "a.json"}, want: "a.json"},
		{name: "no file", pos: Position{Line: 3, Column: 7}, want: "3:7"},
		{name: "full", pos: Position{Filename: "a.bril", Line: 3, Column: 7}, want: "a.bril:3:7"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.pos.String())
		})
	}
}

func TestFromLexer(t *testing.T) {
	p := FromLexer(lexer.Position{Filename: "x.bril", Offset: 10, Line: 2, Column: 4})

	assert.True(t, p.IsValid())
	assert.Equal(t, Position{Filename: "x.bril", Offset: 10, Line: 2, Column: 4}, p)
	assert.False(t, Position{}.IsValid())
}
