package ir

import (
	"fmt"
	"strings"
)

// Printer provides pretty-printing of Bril text
type Printer struct {
	indent int
	output strings.Builder
}

// NewPrinter creates a new Bril text printer
func NewPrinter() *Printer {
	return &Printer{indent: 0}
}

// Print returns the Bril text form of a module
func Print(m *Module) string {
	p := NewPrinter()
	for i, fn := range m.Functions {
		if i > 0 {
			p.writeLine("")
		}
		p.printFunction(fn)
	}
	return p.output.String()
}

// PrintFunction returns the Bril text form of a single function
func PrintFunction(fn *Function) string {
	p := NewPrinter()
	p.printFunction(fn)
	return p.output.String()
}

// Helper methods

func (p *Printer) writeIndent() {
	for i := 0; i < p.indent; i++ {
		p.output.WriteString("  ")
	}
}

func (p *Printer) writeLine(format string, args ...interface{}) {
	if format != "" {
		p.writeIndent()
	}
	p.output.WriteString(fmt.Sprintf(format, args...))
	p.output.WriteString("\n")
}

func (p *Printer) printFunction(fn *Function) {
	var header strings.Builder
	header.WriteString("@" + fn.Name)
	if len(fn.Args) > 0 {
		params := make([]string, len(fn.Args))
		for i, a := range fn.Args {
			params[i] = fmt.Sprintf("%s: %s", a.Name, a.Type)
		}
		header.WriteString("(" + strings.Join(params, ", ") + ")")
	}
	if fn.Type != nil {
		header.WriteString(": " + fn.Type.String())
	}
	p.writeLine("%s {", header.String())

	p.indent++
	for _, instr := range fn.Instrs {
		if l, ok := instr.(*Label); ok {
			// Labels are outdented to the function's level
			p.indent--
			p.writeLine("%s", l.String())
			p.indent++
			continue
		}
		p.writeLine("%s", instr.String())
	}
	p.indent--
	p.writeLine("}")
}

func (i *Label) String() string {
	return "." + i.Name + ":"
}

func (i *ValueOp) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s: %s = %s", i.Dest, i.Type, i.Op)
	if i.Op == OpConst && i.Value != nil {
		b.WriteString(" " + i.Value.String())
	}
	writeOperands(&b, i.Funcs, i.Args, i.Labels)
	b.WriteString(";")
	return b.String()
}

func (i *EffectOp) String() string {
	var b strings.Builder
	b.WriteString(string(i.Op))
	writeOperands(&b, i.Funcs, i.Args, i.Labels)
	b.WriteString(";")
	return b.String()
}

func writeOperands(b *strings.Builder, funcs, args, labels []string) {
	for _, f := range funcs {
		b.WriteString(" @" + f)
	}
	for _, a := range args {
		b.WriteString(" " + a)
	}
	for _, l := range labels {
		b.WriteString(" ." + l)
	}
}
