package opt

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"brilflow/internal/ir"
	"brilflow/internal/parser"
)

func parseModule(t *testing.T, src string) *ir.Module {
	t.Helper()
	m, err := parser.ParseSource("test.bril", src)
	require.NoError(t, err)
	return m
}

func parseFunction(t *testing.T, src string) *ir.Function {
	t.Helper()
	m := parseModule(t, src)
	require.Len(t, m.Functions, 1)
	return m.Functions[0]
}

// body returns the instructions of fn as trimmed Bril text lines
func body(fn *ir.Function) []string {
	lines := make([]string, len(fn.Instrs))
	for i, instr := range fn.Instrs {
		lines[i] = strings.TrimSpace(instr.String())
	}
	return lines
}

func countEffects(fn *ir.Function) int {
	n := 0
	for _, instr := range fn.Instrs {
		if _, ok := instr.(*ir.EffectOp); ok {
			n++
		}
	}
	return n
}
