package cfg

import (
	"iter"

	"brilflow/internal/ir"
)

// Block is a maximal straight-line run of instructions. Instrs never
// contains labels and holds at most one terminator, as its last element.
type Block struct {
	Name   string
	Label  *ir.Label // Leading label, nil when the name was synthesized
	Instrs []ir.Instruction
}

// Terminator returns the block's final jmp, br or ret, or nil
func (b *Block) Terminator() ir.Instruction {
	if len(b.Instrs) == 0 {
		return nil
	}
	if last := b.Instrs[len(b.Instrs)-1]; ir.IsTerminator(last) {
		return last
	}
	return nil
}

// Instructions returns the block as an instruction stream, label first
func (b *Block) Instructions() []ir.Instruction {
	out := make([]ir.Instruction, 0, len(b.Instrs)+1)
	if b.Label != nil {
		out = append(out, b.Label)
	}
	return append(out, b.Instrs...)
}

// ensureLabel gives a block with a synthesized name a real label so that
// it can be the target of a jump.
func (b *Block) ensureLabel() {
	if b.Label == nil {
		b.Label = &ir.Label{Name: b.Name}
	}
}

// FormBlocks splits an instruction stream into basic blocks. A label starts
// a new block; a terminator ends the current one. Blocks holding only a
// label are kept. The sequence is lazy and single pass.
func FormBlocks(instrs []ir.Instruction) iter.Seq[*Block] {
	return func(yield func(*Block) bool) {
		cur := &Block{}
		flush := func() bool {
			if cur.Label == nil && len(cur.Instrs) == 0 {
				return true
			}
			ok := yield(cur)
			cur = &Block{}
			return ok
		}

		for _, instr := range instrs {
			if l, ok := instr.(*ir.Label); ok {
				if !flush() {
					return
				}
				cur.Label = l
				cur.Name = l.Name
				continue
			}
			cur.Instrs = append(cur.Instrs, instr)
			if ir.IsTerminator(instr) {
				if !flush() {
					return
				}
			}
		}
		flush()
	}
}

// Flatten turns blocks back into one instruction stream
func Flatten(blocks []*Block) []ir.Instruction {
	var out []ir.Instruction
	for _, b := range blocks {
		out = append(out, b.Instructions()...)
	}
	return out
}
