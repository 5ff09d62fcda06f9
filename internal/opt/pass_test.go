package opt

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"brilflow/internal/errors"
	"brilflow/internal/ir"
)

const twoFunctions = `@main {
  x: int = const 4;
  y: int = const 4;
  z: int = add x y;
  w: int = add y x;
  print z;
}

@broken {
.a:
  v: int = const 1;
.a:
  ret;
}`

func TestPipelineRun(t *testing.T) {
	m := parseModule(t, twoFunctions)
	broken := ir.PrintFunction(m.Functions[1])

	report, err := NewOptimizationPipeline().Run(context.Background(), m)
	require.Error(t, err)

	var dup *errors.DuplicateBlockNameError
	require.ErrorAs(t, err, &dup)
	assert.Equal(t, "broken", dup.Function)

	// The failing function is left untouched, the other is optimized
	assert.Equal(t, broken, ir.PrintFunction(m.Functions[1]))
	assert.Equal(t, []string{
		"x: int = const 4;",
		"z: int = add x x;",
		"print z;",
	}, body(m.Functions[0]))

	require.Len(t, report.Functions, 2)
	assert.Equal(t, "main", report.Functions[0].Function)
	assert.NoError(t, report.Functions[0].Err)
	assert.Equal(t, 3, report.Functions[0].Changes["lvn"])
	assert.Equal(t, 2, report.Functions[0].Changes["dce"])
	assert.Error(t, report.Functions[1].Err)
	assert.Equal(t, 5, report.Total())
}

func TestPipelineRounds(t *testing.T) {
	src := `@main {
  a: int = const 1;
  b: int = const 1;
  c: int = add a b;
  print c;
}`
	m := parseModule(t, src)
	p, err := NewPipeline([]string{"lvn", "dce"})
	require.NoError(t, err)
	p.MaxRounds = 8

	report, err := p.Run(context.Background(), m)
	require.NoError(t, err)
	// The last round is the one that changed nothing
	assert.Equal(t, 2, report.Functions[0].Rounds)
	assert.Equal(t, []string{
		"a: int = const 1;",
		"c: int = add a a;",
		"print c;",
	}, body(m.Functions[0]))
}

func TestLookupPass(t *testing.T) {
	for _, name := range PassNames() {
		pass, err := LookupPass(name)
		require.NoError(t, err)
		assert.Equal(t, name, pass.Name())
		assert.NotEmpty(t, pass.Description())
	}

	_, err := LookupPass("gvn")
	assert.ErrorContains(t, err, `unknown pass "gvn"`)

	_, err = NewPipeline([]string{"lvn", "nope"})
	assert.Error(t, err)
}

func TestForEachFunctionCancelled(t *testing.T) {
	m := parseModule(t, twoFunctions)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	called := 0
	err := ForEachFunction(ctx, m, 1, func(context.Context, int, *ir.Function) error {
		called++
		return nil
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, called)
}

func TestForEachFunctionVisitsAll(t *testing.T) {
	src := ""
	for _, name := range []string{"a", "b", "c", "d", "e"} {
		src += "@" + name + " {\n  ret;\n}\n"
	}
	m := parseModule(t, src)

	seen := make([]string, len(m.Functions))
	err := ForEachFunction(context.Background(), m, 2, func(_ context.Context, i int, fn *ir.Function) error {
		seen[i] = fn.Name
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c", "d", "e"}, seen)
}
