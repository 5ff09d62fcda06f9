package opt

import (
	"fmt"
	"slices"
	"strconv"
	"strings"

	"brilflow/internal/cfg"
	"brilflow/internal/ir"
)

// LocalValueNumbering removes redundant computations within each basic
// block. A computation whose canonical expression already has a value in
// the block becomes a copy of the variable holding that value, and every
// argument is renamed to the canonical holder of its value.
type LocalValueNumbering struct{}

func (p *LocalValueNumbering) Name() string {
	return "lvn"
}

func (p *LocalValueNumbering) Description() string {
	return "Replaces redundant computations in a block with copies"
}

// Apply numbers every block of fn. It returns the number of instructions
// whose text changed; running it again on its own output returns 0.
func (p *LocalValueNumbering) Apply(fn *ir.Function) (int, error) {
	blocks, err := cfg.NewBlockMap(fn.Name, cfg.FormBlocks(fn.Instrs))
	if err != nil {
		return 0, err
	}

	names := newNameSource(fn)
	changed := 0
	for _, b := range blocks.Blocks() {
		changed += numberBlock(b, names)
	}
	fn.Instrs = blocks.Instructions()
	return changed, nil
}

// variable names one definition of a source variable inside a block.
// Def 0 is the value the variable had on entry.
type variable struct {
	name string
	def  int
}

// valueTable is the per-block state of value numbering
type valueTable struct {
	exprs     map[string]int   // Canonical expression -> value number
	vars      map[variable]int // Renamed variable -> value number
	canonical map[int]string   // Value number -> emitted variable holding it
	defs      map[string]int   // Source variable -> definitions seen so far
	next      int
}

func newValueTable() *valueTable {
	return &valueTable{
		exprs:     make(map[string]int),
		vars:      make(map[variable]int),
		canonical: make(map[int]string),
		defs:      make(map[string]int),
	}
}

func (t *valueTable) current(name string) variable {
	return variable{name: name, def: t.defs[name]}
}

// lookup returns the value number of a variable read at this point.
// Variables not defined earlier in the block get a fresh value held by
// their own name.
func (t *valueTable) lookup(name string) int {
	v := t.current(name)
	if num, ok := t.vars[v]; ok {
		return num
	}
	num := t.fresh(name)
	t.vars[v] = num
	return num
}

func (t *valueTable) define(name string) variable {
	t.defs[name]++
	return t.current(name)
}

func (t *valueTable) fresh(holder string) int {
	num := t.next
	t.next++
	t.canonical[num] = holder
	return num
}

// expression returns the canonical key of a value operation over the
// given argument value numbers.
func expression(op *ir.ValueOp, args []int) string {
	var b strings.Builder
	b.WriteString(string(op.Op))
	if op.Op == ir.OpConst {
		fmt.Fprintf(&b, " %s %s", op.Type, op.Value)
		return b.String()
	}
	if op.Op.IsCommutative() {
		args = slices.Clone(args)
		slices.Sort(args)
	}
	for _, a := range args {
		b.WriteString(" " + strconv.Itoa(a))
	}
	return b.String()
}

func numberBlock(b *cfg.Block, names *nameSource) int {
	last := make(map[string]int)
	for i, instr := range b.Instrs {
		if d, ok := ir.Def(instr); ok {
			last[d] = i
		}
	}

	t := newValueTable()
	changed := 0
	for i, instr := range b.Instrs {
		before := instr.String()

		args := ir.Uses(instr)
		nums := make([]int, len(args))
		for j, a := range args {
			nums[j] = t.lookup(a)
		}
		for j := range args {
			args[j] = t.canonical[nums[j]]
		}

		op, ok := instr.(*ir.ValueOp)
		if !ok {
			if instr.String() != before {
				changed++
			}
			continue
		}

		dest := op.Dest
		if last[dest] != i {
			// A later definition overwrites the name, so this value
			// needs a name of its own.
			dest = names.fresh(dest)
		}
		renamed := t.define(op.Dest)
		op.Dest = dest

		var num int
		if op.Op.IsValueNumberable() {
			key := expression(op, nums)
			if existing, ok := t.exprs[key]; ok {
				num = existing
				op.Op = ir.OpId
				op.Args = []string{t.canonical[num]}
				op.Funcs = nil
				op.Labels = nil
				op.Value = nil
			} else {
				num = t.fresh(dest)
				t.exprs[key] = num
			}
		} else {
			num = t.fresh(dest)
		}
		t.vars[renamed] = num

		if op.String() != before {
			changed++
		}
	}
	return changed
}

// nameSource hands out variable names unused anywhere in a function
type nameSource struct {
	taken map[string]bool
}

func newNameSource(fn *ir.Function) *nameSource {
	return &nameSource{taken: fn.Variables()}
}

func (s *nameSource) fresh(base string) string {
	for k := 1; ; k++ {
		name := base + "." + strconv.Itoa(k)
		if !s.taken[name] {
			s.taken[name] = true
			return name
		}
	}
}
