// Package dataflow provides a worklist solver for monotone data-flow
// problems over a function's CFG, and live-variable analysis built on it.
package dataflow

import (
	"github.com/tliron/commonlog"

	"brilflow/internal/cfg"
)

var log = commonlog.GetLogger("brilflow.dataflow")

// Direction selects which way facts flow along CFG edges
type Direction int

const (
	Forward Direction = iota
	Backward
)

func (d Direction) String() string {
	if d == Backward {
		return "backward"
	}
	return "forward"
}

// Framework describes a data-flow problem ⟨S, Meet, Transfer⟩.
//
// For a forward problem a block's in-state is the meet of its predecessors'
// out-states and its out-state is Transfer(in). A backward problem swaps the
// roles of in and out and of predecessors and successors. Blocks on the
// boundary (no predecessors going forward, no successors going backward)
// keep their initial state.
//
// Meet may modify and return its first argument; it is only ever handed a
// copy. Transfer must not modify its argument.
type Framework[S any] struct {
	Direction Direction
	Init      func() S
	Meet      func(acc, x S) S
	Transfer  func(b *cfg.Block, x S) S
	Equal     func(a, b S) bool
	Copy      func(x S) S
}

// Result holds the fixed point of a framework on one CFG
type Result[S any] struct {
	In  map[string]S
	Out map[string]S

	// Relaxations counts how many times a block was taken off the worklist
	Relaxations int
	// Changes counts how many relaxations produced a new state
	Changes int
}

// Solve runs the worklist algorithm from the initial state
func (fw *Framework[S]) Solve(g *cfg.CFG) *Result[S] {
	res := &Result[S]{
		In:  make(map[string]S, g.Blocks.Len()),
		Out: make(map[string]S, g.Blocks.Len()),
	}
	for _, n := range g.Names() {
		res.In[n] = fw.Init()
		res.Out[n] = fw.Init()
	}
	return fw.solve(g, res)
}

// SolveFrom resumes the worklist algorithm from a previous result. Resuming
// from a fixed point changes nothing.
func (fw *Framework[S]) SolveFrom(g *cfg.CFG, prev *Result[S]) *Result[S] {
	res := &Result[S]{
		In:  make(map[string]S, g.Blocks.Len()),
		Out: make(map[string]S, g.Blocks.Len()),
	}
	for _, n := range g.Names() {
		if s, ok := prev.In[n]; ok {
			res.In[n] = fw.Copy(s)
		} else {
			res.In[n] = fw.Init()
		}
		if s, ok := prev.Out[n]; ok {
			res.Out[n] = fw.Copy(s)
		} else {
			res.Out[n] = fw.Init()
		}
	}
	return fw.solve(g, res)
}

func (fw *Framework[S]) solve(g *cfg.CFG, res *Result[S]) *Result[S] {
	// Facts flow from "sources" into a block and on to its "sinks"
	sources, sinks := g.Preds, g.Succs
	before, after := res.In, res.Out
	if fw.Direction == Backward {
		sources, sinks = g.Succs, g.Preds
		before, after = res.Out, res.In
	}

	wl := newWorklist(g.Names())
	for {
		name, ok := wl.pop()
		if !ok {
			break
		}
		res.Relaxations++

		if src := sources[name]; len(src) > 0 {
			acc := fw.Copy(after[src[0]])
			for _, s := range src[1:] {
				acc = fw.Meet(acc, after[s])
			}
			before[name] = acc
		}

		next := fw.Transfer(g.Blocks.Get(name), before[name])
		if fw.Equal(next, after[name]) {
			continue
		}
		after[name] = next
		res.Changes++
		for _, s := range sinks[name] {
			wl.push(s)
		}
	}

	log.Debugf("%s: %s analysis converged after %d relaxations", g.Function, fw.Direction, res.Relaxations)
	return res
}

// worklist is a FIFO queue holding each block at most once
type worklist struct {
	queue  []string
	queued map[string]bool
}

func newWorklist(names []string) *worklist {
	wl := &worklist{queued: make(map[string]bool, len(names))}
	for _, n := range names {
		wl.push(n)
	}
	return wl
}

func (wl *worklist) push(name string) {
	if wl.queued[name] {
		return
	}
	wl.queued[name] = true
	wl.queue = append(wl.queue, name)
}

func (wl *worklist) pop() (string, bool) {
	if len(wl.queue) == 0 {
		return "", false
	}
	name := wl.queue[0]
	wl.queue = wl.queue[1:]
	wl.queued[name] = false
	return name, true
}
