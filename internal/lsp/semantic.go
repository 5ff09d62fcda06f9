package lsp

import (
	"sort"
	"strings"

	"github.com/alecthomas/participle/v2/lexer"

	"brilflow/grammar"
)

// SemanticTokenTypes is the legend of token types, indexed by TokenType
var SemanticTokenTypes = []string{
	"function",
	"parameter",
	"variable",
	"type",
	"keyword",
	"number",
	"string",
	"comment",
	"label",
}

// SemanticTokenModifiers is the legend of modifier bits
var SemanticTokenModifiers = []string{
	"declaration",
}

// SemanticToken represents a single LSP semantic token entry
// Line and StartChar are 0-based positions
// TokenType is an index into SemanticTokenTypes
// TokenModifiers is a bitmask based on SemanticTokenModifiers
type SemanticToken struct {
	Line           uint32
	StartChar      uint32
	Length         uint32
	TokenType      int
	TokenModifiers int
}

var symbols = grammar.BrilLexer.Symbols()

// lexTokens returns the non-whitespace tokens of text. Lexing stops at
// the first invalid character, so a broken file still gets the tokens
// before it.
func lexTokens(filename, text string) []lexer.Token {
	lex, err := grammar.BrilLexer.Lex(filename, strings.NewReader(text))
	if err != nil {
		return nil
	}
	var tokens []lexer.Token
	for {
		tok, err := lex.Next()
		if err != nil || tok.EOF() {
			return tokens
		}
		if tok.Type == symbols["Whitespace"] {
			continue
		}
		tokens = append(tokens, tok)
	}
}

// Where an identifier sits inside an instruction
type phase int

const (
	phaseStart    phase = iota // Before the destination or effect opcode
	phaseDest                  // After the destination, before its ':'
	phaseType                  // Between ':' and '='
	phaseOp                    // After '=', before the opcode
	phaseOperands              // After the opcode
)

// classifier assigns token types from the surrounding punctuation alone,
// which keeps highlighting alive while a file does not parse.
type classifier struct {
	tokens   []lexer.Token
	inBody   bool
	inParens bool
	phase    phase
}

func (c *classifier) next(i int) string {
	if i+1 < len(c.tokens) {
		return c.tokens[i+1].Value
	}
	return ""
}

func collectSemanticTokens(filename, text string) []SemanticToken {
	c := &classifier{tokens: lexTokens(filename, text)}
	var tokens []SemanticToken
	for i, tok := range c.tokens {
		typ, decl := c.classify(i, tok)
		if typ == "" {
			continue
		}
		tokens = append(tokens, makeToken(tok, typ, decl))
	}
	sort.SliceStable(tokens, func(i, j int) bool {
		if tokens[i].Line != tokens[j].Line {
			return tokens[i].Line < tokens[j].Line
		}
		return tokens[i].StartChar < tokens[j].StartChar
	})
	return tokens
}

func (c *classifier) classify(i int, tok lexer.Token) (string, bool) {
	switch tok.Type {
	case symbols["Comment"]:
		return "comment", false
	case symbols["Func"]:
		return "function", !c.inBody
	case symbols["Label"]:
		return "label", c.next(i) == ":"
	case symbols["Int"], symbols["Float"]:
		return "number", false
	case symbols["Char"]:
		return "string", false
	case symbols["Punctuation"]:
		c.punctuation(tok.Value)
		return "", false
	}

	// Identifiers
	if !c.inBody {
		if c.inParens && c.next(i) == ":" {
			return "parameter", true
		}
		return "type", false
	}
	switch c.phase {
	case phaseStart:
		if c.next(i) == ":" {
			c.phase = phaseDest
			return "variable", true
		}
		c.phase = phaseOperands
		return "keyword", false
	case phaseType:
		return "type", false
	case phaseOp:
		c.phase = phaseOperands
		return "keyword", false
	}
	if tok.Value == "true" || tok.Value == "false" {
		return "keyword", false
	}
	return "variable", false
}

func (c *classifier) punctuation(p string) {
	switch p {
	case "{":
		c.inBody = true
		c.phase = phaseStart
	case "}":
		c.inBody = false
	case "(":
		c.inParens = true
	case ")":
		c.inParens = false
	case ";":
		c.phase = phaseStart
	case ":":
		if c.phase == phaseDest {
			c.phase = phaseType
		}
	case "=":
		if c.phase == phaseType {
			c.phase = phaseOp
		}
	}
}

// makeToken creates a semantic token for a lexer token
func makeToken(tok lexer.Token, tokenType string, declaration bool) SemanticToken {
	modifiers := 0
	if declaration {
		modifiers = 1 << indexOf("declaration", SemanticTokenModifiers)
	}
	return SemanticToken{
		Line:           uint32(tok.Pos.Line - 1),   // LSP uses 0-based line numbers
		StartChar:      uint32(tok.Pos.Column - 1), // LSP uses 0-based column numbers
		Length:         uint32(len(tok.Value)),
		TokenType:      indexOf(tokenType, SemanticTokenTypes),
		TokenModifiers: modifiers,
	}
}

// encodeSemanticTokens packs tokens into the LSP wire format using
// delta-line, delta-start compression.
func encodeSemanticTokens(tokens []SemanticToken) []uint32 {
	data := []uint32{}
	var prevLine, prevStart uint32
	for _, token := range tokens {
		deltaLine := token.Line - prevLine
		var deltaStart uint32
		if deltaLine == 0 {
			deltaStart = token.StartChar - prevStart
		} else {
			deltaStart = token.StartChar
		}

		data = append(data, deltaLine, deltaStart, token.Length, uint32(token.TokenType), uint32(token.TokenModifiers))

		prevLine = token.Line
		prevStart = token.StartChar
	}
	return data
}

// tokenAt returns the token covering the 1-based line and column
func tokenAt(tokens []lexer.Token, line, column int) (lexer.Token, int, bool) {
	for i, tok := range tokens {
		if tok.Pos.Line == line && column >= tok.Pos.Column && column < tok.Pos.Column+len(tok.Value) {
			return tok, i, true
		}
	}
	return lexer.Token{}, 0, false
}

// indexOf returns the index of a string in a slice, or 0 if not found
func indexOf(target string, list []string) int {
	for i, v := range list {
		if v == target {
			return i
		}
	}
	return 0
}
