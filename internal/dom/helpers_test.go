package dom

import (
	"testing"

	"github.com/stretchr/testify/require"

	"brilflow/internal/cfg"
	"brilflow/internal/ir"
)

func buildGraph(t *testing.T, fn *ir.Function) *cfg.CFG {
	t.Helper()
	g, err := cfg.Build(fn, cfg.Options{Entry: true})
	require.NoError(t, err)
	return g
}
