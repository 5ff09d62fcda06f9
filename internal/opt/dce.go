package opt

import (
	"brilflow/internal/cfg"
	"brilflow/internal/ir"
	"brilflow/internal/set"
)

// removable reports whether instr may be deleted when its result is dead
func removable(instr ir.Instruction) bool {
	op, ok := instr.(*ir.ValueOp)
	return ok && !op.Op.HasSideEffects()
}

// GlobalDCE deletes pure value operations whose destination is never
// read anywhere in the function, until nothing more can be deleted.
type GlobalDCE struct{}

func (p *GlobalDCE) Name() string {
	return "tdce"
}

func (p *GlobalDCE) Description() string {
	return "Removes pure instructions whose results are never used"
}

func (p *GlobalDCE) Apply(fn *ir.Function) (int, error) {
	removed := 0
	for {
		used := set.Set[string]{}
		for _, instr := range fn.Instrs {
			for _, u := range ir.Uses(instr) {
				used.Add(u)
			}
		}

		kept := fn.Instrs[:0]
		n := 0
		for _, instr := range fn.Instrs {
			if d, ok := ir.Def(instr); ok && !used.Has(d) && removable(instr) {
				n++
				continue
			}
			kept = append(kept, instr)
		}
		fn.Instrs = kept

		if n == 0 {
			return removed, nil
		}
		removed += n
	}
}

// LocalDCE deletes pure definitions overwritten later in the same block
// before being read.
type LocalDCE struct{}

func (p *LocalDCE) Name() string {
	return "ldce"
}

func (p *LocalDCE) Description() string {
	return "Removes definitions overwritten before use within a block"
}

func (p *LocalDCE) Apply(fn *ir.Function) (int, error) {
	blocks, err := cfg.NewBlockMap(fn.Name, cfg.FormBlocks(fn.Instrs))
	if err != nil {
		return 0, err
	}

	removed := 0
	for _, b := range blocks.Blocks() {
		for {
			n := dropOverwritten(b)
			if n == 0 {
				break
			}
			removed += n
		}
	}
	fn.Instrs = blocks.Instructions()
	return removed, nil
}

// dropOverwritten makes one pass over a block. Deletions are applied
// after the scan so indices stay valid while scanning.
func dropOverwritten(b *cfg.Block) int {
	pending := make(map[string]int) // Variable -> index of its unread definition
	dead := set.Set[int]{}

	for i, instr := range b.Instrs {
		for _, u := range ir.Uses(instr) {
			delete(pending, u)
		}
		d, ok := ir.Def(instr)
		if !ok {
			continue
		}
		if j, ok := pending[d]; ok && removable(b.Instrs[j]) {
			dead.Add(j)
		}
		pending[d] = i
	}

	if dead.Len() == 0 {
		return 0
	}
	kept := make([]ir.Instruction, 0, len(b.Instrs)-dead.Len())
	for i, instr := range b.Instrs {
		if !dead.Has(i) {
			kept = append(kept, instr)
		}
	}
	b.Instrs = kept
	return dead.Len()
}

// DeadCodeElimination alternates the global and local passes until
// neither removes anything.
type DeadCodeElimination struct{}

func (p *DeadCodeElimination) Name() string {
	return "dce"
}

func (p *DeadCodeElimination) Description() string {
	return "Removes unused and overwritten pure instructions"
}

func (p *DeadCodeElimination) Apply(fn *ir.Function) (int, error) {
	global, local := &GlobalDCE{}, &LocalDCE{}
	removed := 0
	for {
		g, err := global.Apply(fn)
		if err != nil {
			return removed, err
		}
		l, err := local.Apply(fn)
		if err != nil {
			return removed, err
		}
		if g+l == 0 {
			return removed, nil
		}
		removed += g + l
	}
}
