package cfg

import (
	"fmt"
	"iter"
	"slices"

	"brilflow/internal/errors"
	"brilflow/internal/ir"
)

// BlockMap holds a function's blocks by name, in program order
type BlockMap struct {
	Function string
	names    []string
	blocks   map[string]*Block
}

// NewBlockMap names every block and indexes it. Unlabeled blocks are named
// b<position>; a name already used by a label gets a .<k> suffix.
func NewBlockMap(function string, blocks iter.Seq[*Block]) (*BlockMap, error) {
	var list []*Block
	labels := make(map[string]*Block)
	for b := range blocks {
		if b.Label != nil {
			if first, ok := labels[b.Label.Name]; ok {
				return nil, &errors.DuplicateBlockNameError{
					Function: function,
					Name:     b.Label.Name,
					Pos:      b.Label.Pos,
					First:    first.Label.Pos,
				}
			}
			labels[b.Label.Name] = b
		}
		list = append(list, b)
	}

	m := &BlockMap{
		Function: function,
		names:    make([]string, 0, len(list)),
		blocks:   make(map[string]*Block, len(list)),
	}
	for i, b := range list {
		if b.Label != nil {
			b.Name = b.Label.Name
		} else {
			b.Name = freshName(fmt.Sprintf("b%d", i), func(n string) bool {
				_, taken := labels[n]
				return taken || m.blocks[n] != nil
			})
		}
		m.names = append(m.names, b.Name)
		m.blocks[b.Name] = b
	}
	return m, nil
}

// freshName returns base, or base.k for the smallest k >= 1 that is free
func freshName(base string, taken func(string) bool) string {
	if !taken(base) {
		return base
	}
	for k := 1; ; k++ {
		if n := fmt.Sprintf("%s.%d", base, k); !taken(n) {
			return n
		}
	}
}

// Len returns the number of blocks
func (m *BlockMap) Len() int { return len(m.names) }

// Names returns block names in program order
func (m *BlockMap) Names() []string { return m.names }

// Get returns the named block, or nil
func (m *BlockMap) Get(name string) *Block { return m.blocks[name] }

// At returns the i-th block in program order
func (m *BlockMap) At(i int) *Block { return m.blocks[m.names[i]] }

// All iterates over blocks in program order
func (m *BlockMap) All() iter.Seq2[string, *Block] {
	return func(yield func(string, *Block) bool) {
		for _, n := range m.names {
			if !yield(n, m.blocks[n]) {
				return
			}
		}
	}
}

// Blocks returns the blocks in program order
func (m *BlockMap) Blocks() []*Block {
	out := make([]*Block, len(m.names))
	for i, n := range m.names {
		out[i] = m.blocks[n]
	}
	return out
}

// Instructions flattens the map back into an instruction stream
func (m *BlockMap) Instructions() []ir.Instruction {
	return Flatten(m.Blocks())
}

// AddTerminators makes fall-through explicit: every block but the last that
// does not end in a terminator gets a jmp to the next block. The last block
// keeps falling off the end of the function. Running it twice is a no-op.
func AddTerminators(m *BlockMap) {
	for i := 0; i < m.Len()-1; i++ {
		b := m.At(i)
		if b.Terminator() != nil {
			continue
		}
		next := m.At(i + 1)
		next.ensureLabel()
		b.Instrs = append(b.Instrs, &ir.EffectOp{
			Op:     ir.OpJmp,
			Labels: []string{next.Name},
		})
	}
}

// AddEntry prepends an empty entry block when the first block is the target
// of a jump, so that the entry has no predecessors. It reports whether a
// block was added.
func AddEntry(m *BlockMap) bool {
	if m.Len() == 0 {
		return false
	}
	first := m.At(0)
	if first.Label == nil || !isTarget(m, first.Name) {
		return false
	}

	name := "entry"
	for k := 1; m.blocks[name] != nil; k++ {
		name = fmt.Sprintf("entry%d", k)
	}

	entry := &Block{
		Name:  name,
		Label: &ir.Label{Name: name},
		Instrs: []ir.Instruction{
			&ir.EffectOp{Op: ir.OpJmp, Labels: []string{first.Name}},
		},
	}
	m.names = slices.Insert(m.names, 0, name)
	m.blocks[name] = entry
	return true
}

func isTarget(m *BlockMap, name string) bool {
	for _, b := range m.blocks {
		if t := b.Terminator(); t != nil && slices.Contains(ir.Targets(t), name) {
			return true
		}
	}
	return false
}

// Edges computes ordered, duplicate-free predecessor and successor lists
// for every block. Only labeled blocks can be jump targets.
func Edges(m *BlockMap) (preds, succs map[string][]string, err error) {
	preds = make(map[string][]string, m.Len())
	succs = make(map[string][]string, m.Len())
	for _, n := range m.names {
		preds[n] = []string{}
		succs[n] = []string{}
	}

	for name, b := range m.All() {
		t := b.Terminator()
		if t == nil {
			continue
		}
		for _, target := range ir.Targets(t) {
			tb := m.blocks[target]
			if tb == nil || tb.Label == nil {
				return nil, nil, &errors.UnknownTargetError{
					Function: m.Function,
					Block:    name,
					Target:   target,
					Pos:      t.Position(),
				}
			}
			if !slices.Contains(succs[name], target) {
				succs[name] = append(succs[name], target)
			}
			if !slices.Contains(preds[target], name) {
				preds[target] = append(preds[target], name)
			}
		}
	}
	return preds, succs, nil
}
