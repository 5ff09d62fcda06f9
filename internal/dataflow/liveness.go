package dataflow

import (
	"slices"

	"golang.org/x/tools/container/intsets"

	"brilflow/internal/cfg"
	"brilflow/internal/ir"
)

// LiveResult maps each block to the variables live on entry and exit,
// sorted by name.
type LiveResult struct {
	Function string
	Blocks   []string
	In       map[string][]string
	Out      map[string][]string
	Result   *Result[*intsets.Sparse]
}

// liveness numbers a function's variables and holds per-block gen and kill
// sets over those numbers.
type liveness struct {
	vars  []string
	index map[string]int
	gen   map[*cfg.Block]*intsets.Sparse
	kill  map[*cfg.Block]*intsets.Sparse
}

func newLiveness(g *cfg.CFG) *liveness {
	lv := &liveness{
		index: make(map[string]int),
		gen:   make(map[*cfg.Block]*intsets.Sparse),
		kill:  make(map[*cfg.Block]*intsets.Sparse),
	}
	for _, b := range g.Blocks.Blocks() {
		gen, kill := new(intsets.Sparse), new(intsets.Sparse)
		for _, instr := range b.Instrs {
			for _, u := range ir.Uses(instr) {
				if x := lv.id(u); !kill.Has(x) {
					gen.Insert(x)
				}
			}
			if d, ok := ir.Def(instr); ok {
				kill.Insert(lv.id(d))
			}
		}
		lv.gen[b] = gen
		lv.kill[b] = kill
	}
	return lv
}

func (lv *liveness) id(name string) int {
	if x, ok := lv.index[name]; ok {
		return x
	}
	x := len(lv.vars)
	lv.vars = append(lv.vars, name)
	lv.index[name] = x
	return x
}

func (lv *liveness) names(s *intsets.Sparse) []string {
	out := make([]string, 0, s.Len())
	for _, x := range s.AppendTo(nil) {
		out = append(out, lv.vars[x])
	}
	slices.Sort(out)
	return out
}

func (lv *liveness) framework() *Framework[*intsets.Sparse] {
	return &Framework[*intsets.Sparse]{
		Direction: Backward,
		Init:      func() *intsets.Sparse { return new(intsets.Sparse) },
		Meet: func(acc, x *intsets.Sparse) *intsets.Sparse {
			acc.UnionWith(x)
			return acc
		},
		// in = gen ∪ (out − kill)
		Transfer: func(b *cfg.Block, out *intsets.Sparse) *intsets.Sparse {
			in := new(intsets.Sparse)
			in.Difference(out, lv.kill[b])
			in.UnionWith(lv.gen[b])
			return in
		},
		Equal: func(a, b *intsets.Sparse) bool { return a.Equals(b) },
		Copy: func(x *intsets.Sparse) *intsets.Sparse {
			c := new(intsets.Sparse)
			c.Copy(x)
			return c
		},
	}
}

// Liveness computes live variables for every block of g
func Liveness(g *cfg.CFG) *LiveResult {
	lv := newLiveness(g)
	return lv.result(g, lv.framework().Solve(g))
}

// LivenessFrom resumes live-variable analysis from an earlier result of
// Liveness on the same graph.
func LivenessFrom(g *cfg.CFG, prev *LiveResult) *LiveResult {
	lv := newLiveness(g)
	return lv.result(g, lv.framework().SolveFrom(g, prev.Result))
}

// LivenessOf builds the CFG of fn and computes live variables
func LivenessOf(fn *ir.Function) (*LiveResult, error) {
	g, err := cfg.Build(fn, cfg.Options{})
	if err != nil {
		return nil, err
	}
	return Liveness(g), nil
}

func (lv *liveness) result(g *cfg.CFG, res *Result[*intsets.Sparse]) *LiveResult {
	lr := &LiveResult{
		Function: g.Function,
		Blocks:   g.Names(),
		In:       make(map[string][]string, len(res.In)),
		Out:      make(map[string][]string, len(res.Out)),
		Result:   res,
	}
	for n, s := range res.In {
		lr.In[n] = lv.names(s)
	}
	for n, s := range res.Out {
		lr.Out[n] = lv.names(s)
	}
	return lr
}
