package grammar

import (
	"github.com/alecthomas/participle/v2/lexer"
)

var BrilLexer = lexer.MustStateful(lexer.Rules{
	"Root": {
		// Comments
		{"Comment", `#[^\n]*`, nil},

		// Function and label references (order matters)
		{"Func", `@[a-zA-Z_][a-zA-Z0-9_.]*`, nil},
		{"Label", `\.[a-zA-Z_][a-zA-Z0-9_.]*`, nil},

		// Literals
		{"Char", `'(\\.|[^'\\])'`, nil},
		{"Float", `-?[0-9]+(\.[0-9]*([eE][-+]?[0-9]+)?|[eE][-+]?[0-9]+)`, nil},
		{"Int", `-?[0-9]+`, nil},

		// Variables, opcodes and type names
		{"Ident", `[a-zA-Z_][a-zA-Z0-9_.]*`, nil},

		// Punctuation
		{"Punctuation", `[{}():;=,<>]`, nil},

		// Whitespace
		{"Whitespace", `[ \t\r\n]+`, nil},
	},
})
