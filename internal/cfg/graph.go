package cfg

import (
	"brilflow/internal/ir"
)

// Options controls how Build shapes the graph
type Options struct {
	// Entry prepends a predecessor-free entry block when needed
	Entry bool
}

// CFG is the control flow graph of one function
type CFG struct {
	Function string
	Blocks   *BlockMap
	Preds    map[string][]string
	Succs    map[string][]string
}

// Build forms blocks, makes fall-through explicit and computes edges
func Build(fn *ir.Function, opts Options) (*CFG, error) {
	m, err := NewBlockMap(fn.Name, FormBlocks(fn.Instrs))
	if err != nil {
		return nil, err
	}
	AddTerminators(m)
	if opts.Entry {
		AddEntry(m)
	}
	preds, succs, err := Edges(m)
	if err != nil {
		return nil, err
	}
	return &CFG{
		Function: fn.Name,
		Blocks:   m,
		Preds:    preds,
		Succs:    succs,
	}, nil
}

// Names returns block names in program order
func (g *CFG) Names() []string { return g.Blocks.Names() }

// Entry returns the name of the first block, or "" for an empty function
func (g *CFG) Entry() string {
	if g.Blocks.Len() == 0 {
		return ""
	}
	return g.Blocks.names[0]
}

// Reachable returns the blocks reachable from the entry, in program order
func (g *CFG) Reachable() []string {
	entry := g.Entry()
	if entry == "" {
		return nil
	}
	seen := map[string]bool{entry: true}
	stack := []string{entry}
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for _, s := range g.Succs[n] {
			if !seen[s] {
				seen[s] = true
				stack = append(stack, s)
			}
		}
	}

	out := make([]string, 0, len(seen))
	for _, n := range g.Blocks.names {
		if seen[n] {
			out = append(out, n)
		}
	}
	return out
}

// Instructions flattens the graph back into the function's instruction stream
func (g *CFG) Instructions() []ir.Instruction {
	return g.Blocks.Instructions()
}
