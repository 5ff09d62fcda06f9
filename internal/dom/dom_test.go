package dom

import (
	stderrors "errors"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"brilflow/internal/cfg"
	"brilflow/internal/errors"
	"brilflow/internal/ir"
	"brilflow/internal/parser"
)

func parseFunction(t *testing.T, src string) *ir.Function {
	t.Helper()
	m, err := parser.ParseSource("test.bril", src)
	require.NoError(t, err)
	require.Len(t, m.Functions, 1)
	return m.Functions[0]
}

const diamond = `@main(cond: bool) {
.entry:
  jmp .b1;
.b1:
  br cond .b2 .b3;
.b2:
  jmp .b4;
.b3:
  jmp .b4;
.b4:
  ret;
}`

const loop = `@main {
.header:
  i: int = const 0;
.loop:
  c: bool = lt i i;
  br c .body .exit;
.body:
  br c .loop .latch;
.latch:
  jmp .loop;
.exit:
  ret;
}`

func TestDiamond(t *testing.T) {
	a, err := AnalyzeFunction(parseFunction(t, diamond), Options{})
	require.NoError(t, err)

	assert.Equal(t, "entry", a.Entry)
	assert.Equal(t, []string{"entry", "b1", "b2", "b3", "b4"}, a.Blocks)

	assert.Equal(t, map[string][]string{
		"entry": {"entry"},
		"b1":    {"b1", "entry"},
		"b2":    {"b1", "b2", "entry"},
		"b3":    {"b1", "b3", "entry"},
		"b4":    {"b1", "b4", "entry"},
	}, a.Dom)

	assert.Equal(t, []string{"b1", "b2", "b3", "b4", "entry"}, a.Dominates["entry"])
	assert.Equal(t, []string{"b2"}, a.Dominates["b2"])

	assert.Equal(t, map[string][]string{
		"entry": {},
		"b1":    {},
		"b2":    {"b4"},
		"b3":    {"b4"},
		"b4":    {},
	}, a.Frontier)

	assert.Equal(t, map[string][]string{
		"entry": {"b1"},
		"b1":    {"b2", "b3", "b4"},
		"b2":    {},
		"b3":    {},
		"b4":    {},
	}, a.Tree)
	assert.Equal(t, "b1", a.Idom["b4"])
	_, hasIdom := a.Idom["entry"]
	assert.False(t, hasIdom)

	assert.True(t, a.StrictlyDominates("b1", "b4"))
	assert.False(t, a.StrictlyDominates("b2", "b4"))
	assert.False(t, a.StrictlyDominates("b4", "b4"))
}

func TestLoopNeedsSynthesizedEntry(t *testing.T) {
	fn := parseFunction(t, `@main {
.top:
  i: int = const 0;
  br c .top .done;
.done:
  ret;
}`)

	a, err := AnalyzeFunction(fn, Options{})
	require.NoError(t, err)
	assert.Equal(t, "entry", a.Entry)
	assert.Equal(t, []string{"entry", "top"}, a.Dom["top"])
	assert.Equal(t, []string{"top"}, a.Frontier["top"])
	assert.Equal(t, []string{"top"}, a.Tree["entry"])
}

func TestLoopFrontier(t *testing.T) {
	a, err := AnalyzeFunction(parseFunction(t, loop), Options{})
	require.NoError(t, err)

	assert.Equal(t, []string{"loop"}, a.Frontier["loop"])
	assert.Equal(t, []string{"loop"}, a.Frontier["body"])
	assert.Equal(t, []string{"loop"}, a.Frontier["latch"])
	assert.Empty(t, a.Frontier["exit"])
	assert.Equal(t, []string{"body", "exit"}, a.Tree["loop"])
	assert.Equal(t, []string{"latch"}, a.Tree["body"])
}

func TestDominanceProperties(t *testing.T) {
	for name, src := range map[string]string{"diamond": diamond, "loop": loop} {
		t.Run(name, func(t *testing.T) {
			fn := parseFunction(t, src)
			a, err := AnalyzeFunction(fn, Options{})
			require.NoError(t, err)

			g := buildGraph(t, fn)

			// reflexivity
			for _, b := range a.Blocks {
				assert.Contains(t, a.Dom[b], b)
				assert.Contains(t, a.Dominates[b], b)
			}

			// entry dominated only by itself
			assert.Equal(t, []string{a.Entry}, a.Dom[a.Entry])

			// frontier membership law
			for _, d := range a.Blocks {
				for _, f := range a.Blocks {
					dominatesPred := slices.ContainsFunc(g.Preds[f], func(p string) bool {
						return a.IsDominator(d, p)
					})
					want := dominatesPred && !a.StrictlyDominates(d, f)
					assert.Equal(t, want, slices.Contains(a.Frontier[d], f), "DF(%s) contains %s", d, f)
				}
			}

			// tree shape: one parent for every block but the entry
			parents := map[string]int{}
			for p, children := range a.Tree {
				for _, c := range children {
					parents[c]++
					assert.Equal(t, p, a.Idom[c])
				}
			}
			for _, b := range a.Blocks {
				if b == a.Entry {
					assert.Zero(t, parents[b])
				} else {
					assert.Equal(t, 1, parents[b], "parents of %s", b)
				}
			}
		})
	}
}

func TestUnreachableBlocks(t *testing.T) {
	src := `@main {
  jmp .end;
.dead:
  jmp .end;
.end:
  ret;
}`

	_, err := AnalyzeFunction(parseFunction(t, src), Options{})
	var ue *errors.UnreachableDominanceInputError
	require.True(t, stderrors.As(err, &ue))
	assert.Equal(t, []string{"dead"}, ue.Blocks)

	a, err := AnalyzeFunction(parseFunction(t, src), Options{Unreachable: ExcludeUnreachable})
	require.NoError(t, err)
	assert.Equal(t, []string{"dead"}, a.Unreachable)
	assert.Equal(t, []string{"b0", "end"}, a.Blocks)
	// the edge from the unreachable block does not weaken dominance
	assert.Equal(t, []string{"b0", "end"}, a.Dom["end"])
	assert.NotContains(t, a.Dom, "dead")
	assert.Empty(t, a.Frontier["b0"])
}

func TestEntryWithPredecessors(t *testing.T) {
	fn := parseFunction(t, `@main {
.top:
  jmp .top;
}`)

	g, err := cfg.Build(fn, cfg.Options{})
	require.NoError(t, err)
	_, err = Analyze(g, Options{})
	var ue *errors.UnreachableDominanceInputError
	require.True(t, stderrors.As(err, &ue))
	assert.Contains(t, ue.Error(), "has predecessors")
}

func TestEmptyFunction(t *testing.T) {
	a, err := AnalyzeFunction(&ir.Function{Name: "empty"}, Options{})
	require.NoError(t, err)
	assert.Empty(t, a.Blocks)
	assert.Empty(t, a.Dom)
}

func TestParseUnreachableMode(t *testing.T) {
	m, err := ParseUnreachableMode("exclude")
	require.NoError(t, err)
	assert.Equal(t, ExcludeUnreachable, m)
	assert.Equal(t, "exclude", m.String())

	m, err = ParseUnreachableMode("")
	require.NoError(t, err)
	assert.Equal(t, RejectUnreachable, m)

	_, err = ParseUnreachableMode("ignore")
	assert.Error(t, err)
}
