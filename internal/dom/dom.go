// Package dom computes dominator sets, dominance frontiers and dominator
// trees for a function's control flow graph.
package dom

import (
	"fmt"
	"slices"

	"github.com/tliron/commonlog"
	"golang.org/x/tools/container/intsets"

	"brilflow/internal/cfg"
	"brilflow/internal/errors"
	"brilflow/internal/ir"
	"brilflow/internal/set"
)

var log = commonlog.GetLogger("brilflow.dom")

// UnreachableMode decides what happens to blocks the entry cannot reach
type UnreachableMode int

const (
	// RejectUnreachable fails with UnreachableDominanceInputError
	RejectUnreachable UnreachableMode = iota
	// ExcludeUnreachable analyzes only reachable blocks
	ExcludeUnreachable
)

// ParseUnreachableMode accepts "reject" and "exclude"
func ParseUnreachableMode(s string) (UnreachableMode, error) {
	switch s {
	case "", "reject":
		return RejectUnreachable, nil
	case "exclude":
		return ExcludeUnreachable, nil
	}
	return RejectUnreachable, fmt.Errorf("unknown unreachable-block mode %q", s)
}

func (m UnreachableMode) String() string {
	if m == ExcludeUnreachable {
		return "exclude"
	}
	return "reject"
}

type Options struct {
	Unreachable UnreachableMode
}

// Analysis is the dominance information of one function. Every slice is
// sorted by block name; every analyzed block is a key of every map except
// Idom, which has no entry for the entry block.
type Analysis struct {
	Function string
	Entry    string
	Blocks   []string // Analyzed blocks in program order

	Dom       map[string][]string // Blocks that dominate the key
	Dominates map[string][]string // Blocks the key dominates
	Frontier  map[string][]string
	Idom      map[string]string
	Tree      map[string][]string // Immediate-dominator tree children

	Unreachable []string // Blocks left out in ExcludeUnreachable mode
}

// AnalyzeFunction builds fn's CFG with a synthesized entry and analyzes it
func AnalyzeFunction(fn *ir.Function, opts Options) (*Analysis, error) {
	g, err := cfg.Build(fn, cfg.Options{Entry: true})
	if err != nil {
		return nil, err
	}
	return Analyze(g, opts)
}

// Analyze computes dominance over g. The first block is the entry and must
// have no predecessors.
func Analyze(g *cfg.CFG, opts Options) (*Analysis, error) {
	a := &Analysis{
		Function:  g.Function,
		Entry:     g.Entry(),
		Dom:       map[string][]string{},
		Dominates: map[string][]string{},
		Frontier:  map[string][]string{},
		Idom:      map[string]string{},
		Tree:      map[string][]string{},
	}
	if a.Entry == "" {
		return a, nil
	}

	pos := g.Blocks.At(0).Instructions()[0].Position()
	if preds := g.Preds[a.Entry]; len(preds) > 0 {
		return nil, &errors.UnreachableDominanceInputError{
			Function: g.Function,
			Reason:   fmt.Sprintf("entry block %s has predecessors", a.Entry),
			Blocks:   preds,
			Pos:      pos,
		}
	}

	a.Blocks = g.Reachable()
	if len(a.Blocks) < g.Blocks.Len() {
		reachable := set.Of(a.Blocks...)
		for _, n := range g.Names() {
			if !reachable.Has(n) {
				a.Unreachable = append(a.Unreachable, n)
			}
		}
		if opts.Unreachable == RejectUnreachable {
			return nil, &errors.UnreachableDominanceInputError{
				Function: g.Function,
				Reason:   "blocks unreachable from entry",
				Blocks:   a.Unreachable,
				Pos:      pos,
			}
		}
		log.Debugf("%s: excluding unreachable blocks %v", g.Function, a.Unreachable)
	}

	s := newSolver(g, a.Blocks)
	s.solve()
	s.fill(a)
	log.Debugf("%s: dominance converged after %d rounds", g.Function, s.rounds)
	return a, nil
}

// solver runs the iterative dominator-set computation over bitsets indexed
// by position in the reachable block list; index 0 is the entry.
type solver struct {
	g      *cfg.CFG
	names  []string
	index  map[string]int
	dom    []*intsets.Sparse
	rounds int
}

func newSolver(g *cfg.CFG, names []string) *solver {
	s := &solver{
		g:     g,
		names: names,
		index: make(map[string]int, len(names)),
		dom:   make([]*intsets.Sparse, len(names)),
	}
	for i, n := range names {
		s.index[n] = i
	}
	return s
}

func (s *solver) solve() {
	var universe intsets.Sparse
	for i := range s.names {
		universe.Insert(i)
	}
	for i := range s.names {
		s.dom[i] = new(intsets.Sparse)
		if i == 0 {
			s.dom[i].Insert(0)
		} else {
			s.dom[i].Copy(&universe)
		}
	}

	// dom[b] = {b} ∪ ⋂ dom[p] over reachable predecessors p
	for changed := true; changed; {
		changed = false
		s.rounds++
		for i := 1; i < len(s.names); i++ {
			var next *intsets.Sparse
			for _, p := range s.g.Preds[s.names[i]] {
				j, ok := s.index[p]
				if !ok {
					continue
				}
				if next == nil {
					next = new(intsets.Sparse)
					next.Copy(s.dom[j])
				} else {
					next.IntersectionWith(s.dom[j])
				}
			}
			if next == nil {
				next = new(intsets.Sparse)
			}
			next.Insert(i)
			if !next.Equals(s.dom[i]) {
				s.dom[i] = next
				changed = true
			}
		}
	}
}

func (s *solver) fill(a *Analysis) {
	n := len(s.names)
	dominates := make([]intsets.Sparse, n)
	for b := 0; b < n; b++ {
		a.Dom[s.names[b]] = s.sorted(s.dom[b])
		for _, d := range s.dom[b].AppendTo(nil) {
			dominates[d].Insert(b)
		}
	}

	for d := 0; d < n; d++ {
		a.Dominates[s.names[d]] = s.sorted(&dominates[d])

		// Successors of dominated blocks that d does not strictly dominate
		var frontier intsets.Sparse
		for _, b := range dominates[d].AppendTo(nil) {
			for _, succ := range s.g.Succs[s.names[b]] {
				f, ok := s.index[succ]
				if !ok {
					continue
				}
				if f == d || !s.dom[f].Has(d) {
					frontier.Insert(f)
				}
			}
		}
		a.Frontier[s.names[d]] = s.sorted(&frontier)
		a.Tree[s.names[d]] = []string{}
	}

	// The immediate dominator is the strict dominator with the largest
	// dominator set: its set is dom[b] minus b itself.
	for b := 1; b < n; b++ {
		size := s.dom[b].Len()
		for _, c := range s.dom[b].AppendTo(nil) {
			if c != b && s.dom[c].Len() == size-1 {
				a.Idom[s.names[b]] = s.names[c]
				break
			}
		}
	}
	for _, b := range s.names[1:] {
		if p, ok := a.Idom[b]; ok {
			a.Tree[p] = append(a.Tree[p], b)
		}
	}
	for p := range a.Tree {
		slices.Sort(a.Tree[p])
	}
}

func (s *solver) sorted(x *intsets.Sparse) []string {
	out := make([]string, 0, x.Len())
	for _, i := range x.AppendTo(nil) {
		out = append(out, s.names[i])
	}
	slices.Sort(out)
	return out
}

// IsDominator reports whether d dominates b
func (a *Analysis) IsDominator(d, b string) bool {
	return slices.Contains(a.Dom[b], d)
}

// StrictlyDominates reports whether d dominates b and d != b
func (a *Analysis) StrictlyDominates(d, b string) bool {
	return d != b && a.IsDominator(d, b)
}
