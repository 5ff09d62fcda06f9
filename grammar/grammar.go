package grammar

import (
	"github.com/alecthomas/participle/v2/lexer"
)

type Program struct {
	Pos       lexer.Position
	Functions []*Function `@@*`
}

type Function struct {
	Pos    lexer.Position
	Name   string   `@Func`
	Params []*Param `[ "(" [ @@ { "," @@ } ] ")" ]`
	Return *Type    `[ ":" @@ ]`
	Body   []*Item  `"{" @@* "}"`
}

type Param struct {
	Pos  lexer.Position
	Name string `@Ident ":"`
	Type *Type  `@@`
}

type Type struct {
	Name  string `@Ident`
	Param *Type  `[ "<" @@ ">" ]`
}

// Item is a label or an instruction inside a function body
type Item struct {
	Pos   lexer.Position
	Label *string `  @Label ":"`
	Instr *Instr  `| @@ ";"`
}

// Instr is a value operation when Def is set, an effect operation otherwise
type Instr struct {
	Pos      lexer.Position
	Def      *Def       `[ @@ ]`
	Op       string     `@Ident`
	Operands []*Operand `@@*`
}

type Def struct {
	Dest string `@Ident ":"`
	Type *Type  `@@ "="`
}

type Operand struct {
	Pos   lexer.Position
	Func  *string `  @Func`
	Label *string `| @Label`
	Float *string `| @Float`
	Int   *string `| @Int`
	Char  *string `| @Char`
	Ident *string `| @Ident`
}
