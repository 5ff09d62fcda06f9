package errors

import (
	"fmt"
	"strings"

	"github.com/fatih/color"

	"brilflow/internal/source"
)

// ErrorLevel represents the severity of an error
type ErrorLevel string

const (
	Error   ErrorLevel = "error"
	Warning ErrorLevel = "warning"
	Note    ErrorLevel = "note"
	Help    ErrorLevel = "help"
)

// CompilerError is a diagnostic tied to a place in a Bril program: a
// source position when the input was text, and always the function and
// block when they are known.
type CompilerError struct {
	Level       ErrorLevel
	Code        string          // Error code like E0601
	Message     string          // Primary error message
	Function    string          // Function the error belongs to, without '@'
	Block       string          // Block inside Function, if any
	Position    source.Position // Location in source
	Length      int             // Length of the problematic region
	Suggestions []Suggestion
	Notes       []string
	HelpText    string
}

// Suggestion is a proposed fix shown under the snippet
type Suggestion struct {
	Message string
}

// Where renders the program location of the error: "@fn, block .b".
// Synthesized block names are shown without the label dot.
func (e CompilerError) Where() string {
	if e.Function == "" {
		return ""
	}
	where := "@" + e.Function
	if e.Block != "" {
		where += ", block " + blockName(e.Block)
	}
	return where
}

func blockName(name string) string {
	if isSynthesized(name) {
		return name
	}
	return "." + name
}

// isSynthesized reports whether name has the b<index> form the CFG builder
// gives to blocks without a label.
func isSynthesized(name string) bool {
	if len(name) < 2 || name[0] != 'b' {
		return false
	}
	for _, r := range name[1:] {
		if (r < '0' || r > '9') && r != '.' {
			return false
		}
	}
	return true
}

// ErrorReporter formats diagnostics against the text of one input file.
// The text may be empty, as it is for JSON input.
type ErrorReporter struct {
	filename string
	lines    []string
}

// NewErrorReporter creates a new error reporter for a file
func NewErrorReporter(filename, source string) *ErrorReporter {
	er := &ErrorReporter{filename: filename}
	if source != "" {
		er.lines = strings.Split(source, "\n")
	}
	return er
}

var (
	bold  = color.New(color.Bold).SprintFunc()
	dim   = color.New(color.Faint).SprintFunc()
	cyan  = color.New(color.FgCyan).SprintFunc()
	blue  = color.New(color.FgBlue).SprintFunc()
	green = color.New(color.FgGreen).SprintFunc()
)

func levelColor(level ErrorLevel) func(...interface{}) string {
	switch level {
	case Warning:
		return color.New(color.FgYellow, color.Bold).SprintFunc()
	case Note:
		return color.New(color.FgBlue, color.Bold).SprintFunc()
	case Help:
		return color.New(color.FgGreen, color.Bold).SprintFunc()
	}
	return color.New(color.FgRed, color.Bold).SprintFunc()
}

// FormatError renders err as
//
//	error[E0601]: unknown label '.missing'
//	   --> prog.bril:2:3 in @main, block b0
//	    │
//	  1 │ @main {
//	  2 │   jmp .missing;
//	    │       ^^^^^^^^
//	    │ note: ...
func (er *ErrorReporter) FormatError(err CompilerError) string {
	var b strings.Builder
	paint := levelColor(err.Level)

	if err.Code != "" {
		fmt.Fprintf(&b, "%s[%s]: %s\n", paint(string(err.Level)), err.Code, err.Message)
	} else {
		fmt.Fprintf(&b, "%s: %s\n", paint(string(err.Level)), err.Message)
	}

	width := max(len(fmt.Sprint(err.Position.Line+1)), 3)
	gutter := strings.Repeat(" ", width)

	location := er.filename
	if err.Position.IsValid() {
		location = fmt.Sprintf("%s:%d:%d", er.filename, err.Position.Line, err.Position.Column)
	}
	if where := err.Where(); where != "" {
		location += " in " + where
	}
	fmt.Fprintf(&b, "%s %s %s\n", gutter, dim("-->"), location)
	fmt.Fprintf(&b, "%s %s\n", gutter, dim("│"))

	er.writeSnippet(&b, err, width, paint)

	for i, s := range err.Suggestions {
		lead := "      "
		if i == 0 {
			lead = "help: try"
		}
		fmt.Fprintf(&b, "%s %s %s\n", gutter, cyan(lead), s.Message)
	}
	for _, note := range err.Notes {
		fmt.Fprintf(&b, "%s %s %s %s\n", gutter, dim("│"), blue("note:"), note)
	}
	if err.HelpText != "" {
		fmt.Fprintf(&b, "%s %s %s %s\n", gutter, dim("│"), green("help:"), err.HelpText)
	}

	b.WriteString("\n")
	return b.String()
}

// writeSnippet prints the offending line with one line of context either
// side, preceded by the header of the enclosing function when that header
// is further up.
func (er *ErrorReporter) writeSnippet(b *strings.Builder, err CompilerError, width int, paint func(...interface{}) string) {
	line := err.Position.Line
	if line <= 0 || line > len(er.lines) {
		return
	}

	first := max(line-1, 1)
	if header := er.functionHeader(err.Function, line); header > 0 && header < first {
		er.writeLine(b, header, width, dim)
		if header < first-1 {
			fmt.Fprintf(b, "%s %s\n", dim(fmt.Sprintf("%*s", width, "...")), dim("│"))
		}
	}
	for n := first; n < line; n++ {
		er.writeLine(b, n, width, dim)
	}
	er.writeLine(b, line, width, bold)

	pad := strings.Repeat(" ", max(err.Position.Column-1, 0))
	fmt.Fprintf(b, "%s %s %s%s\n", strings.Repeat(" ", width), dim("│"), pad, paint(strings.Repeat("^", max(err.Length, 1))))

	if line < len(er.lines) {
		er.writeLine(b, line+1, width, dim)
	}
}

func (er *ErrorReporter) writeLine(b *strings.Builder, n, width int, number func(...interface{}) string) {
	fmt.Fprintf(b, "%s %s %s\n", number(fmt.Sprintf("%*d", width, n)), dim("│"), er.lines[n-1])
}

// functionHeader returns the 1-based line declaring @fn at or above line,
// or 0 when there is none.
func (er *ErrorReporter) functionHeader(fn string, line int) int {
	if fn == "" {
		return 0
	}
	decl := "@" + fn
	for n := line; n >= 1; n-- {
		text := strings.TrimSpace(er.lines[n-1])
		if !strings.HasPrefix(text, decl) {
			continue
		}
		if rest := text[len(decl):]; rest == "" || strings.ContainsAny(rest[:1], " ({:") {
			return n
		}
	}
	return 0
}
