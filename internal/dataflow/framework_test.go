package dataflow

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"brilflow/internal/cfg"
	"brilflow/internal/ir"
	"brilflow/internal/set"
)

// definedBefore is a forward may-analysis: the variables assigned on some
// path from the entry to a block.
func definedBefore() *Framework[set.Set[string]] {
	return &Framework[set.Set[string]]{
		Direction: Forward,
		Init:      func() set.Set[string] { return set.Of[string]() },
		Meet: func(acc, x set.Set[string]) set.Set[string] {
			acc.Union(x)
			return acc
		},
		Transfer: func(b *cfg.Block, in set.Set[string]) set.Set[string] {
			out := set.Of[string]()
			out.Union(in)
			for _, instr := range b.Instrs {
				if d, ok := ir.Def(instr); ok {
					out.Add(d)
				}
			}
			return out
		},
		Equal: func(a, b set.Set[string]) bool { return a.Equal(b) },
		Copy: func(x set.Set[string]) set.Set[string] {
			c := set.Of[string]()
			c.Union(x)
			return c
		},
	}
}

func TestForwardFramework(t *testing.T) {
	g := buildCFG(t, `@main(c: bool) {
  a: int = const 1;
  br c .left .right;
.left:
  b: int = const 2;
  jmp .join;
.right:
  d: int = const 3;
  jmp .join;
.join:
  print a;
}`)

	res := definedBefore().Solve(g)

	assert.Empty(t, res.In["b0"].Sorted())
	assert.Equal(t, []string{"a"}, res.Out["b0"].Sorted())
	assert.Equal(t, []string{"a", "b"}, res.Out["left"].Sorted())
	assert.Equal(t, []string{"a", "b", "d"}, res.In["join"].Sorted())
	assert.Equal(t, []string{"a", "b", "d"}, res.Out["join"].Sorted())

	again := definedBefore().SolveFrom(g, res)
	assert.Zero(t, again.Changes)
}

func TestWorklistDeduplicates(t *testing.T) {
	wl := newWorklist([]string{"a", "b"})
	wl.push("a")
	wl.push("c")

	var order []string
	for {
		n, ok := wl.pop()
		if !ok {
			break
		}
		order = append(order, n)
	}
	assert.Equal(t, []string{"a", "b", "c"}, order)

	wl.push("a")
	n, ok := wl.pop()
	assert.True(t, ok)
	assert.Equal(t, "a", n)
}

func TestDirectionString(t *testing.T) {
	assert.Equal(t, "forward", Forward.String())
	assert.Equal(t, "backward", Backward.String())
}
