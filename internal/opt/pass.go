// Package opt holds the function-level optimization passes and the
// pipeline that runs them over a module.
package opt

import (
	"context"
	"fmt"
	"strings"

	"github.com/tliron/commonlog"

	"brilflow/internal/ir"
)

var log = commonlog.GetLogger("brilflow.opt")

// OptimizationPass represents a single function-level transformation
type OptimizationPass interface {
	Name() string
	Description() string
	// Apply rewrites fn in place and returns the number of instructions
	// it changed or removed.
	Apply(fn *ir.Function) (int, error)
}

// Registered passes by command-line name
var passes = map[string]func() OptimizationPass{
	"lvn":  func() OptimizationPass { return &LocalValueNumbering{} },
	"tdce": func() OptimizationPass { return &GlobalDCE{} },
	"ldce": func() OptimizationPass { return &LocalDCE{} },
	"dce":  func() OptimizationPass { return &DeadCodeElimination{} },
}

// PassNames returns the names accepted by LookupPass
func PassNames() []string {
	return []string{"lvn", "tdce", "ldce", "dce"}
}

// LookupPass returns a new instance of the named pass
func LookupPass(name string) (OptimizationPass, error) {
	mk, ok := passes[name]
	if !ok {
		return nil, fmt.Errorf("unknown pass %q (known: %s)", name, strings.Join(PassNames(), ", "))
	}
	return mk(), nil
}

// OptimizationPipeline manages the sequence of optimization passes
type OptimizationPipeline struct {
	passes []OptimizationPass

	// Workers bounds how many functions are optimized at once; 0 means
	// one per CPU.
	Workers int
	// MaxRounds repeats the whole sequence until a round changes nothing,
	// at most this many times.
	MaxRounds int
}

// NewOptimizationPipeline creates a pipeline running LVN then DCE once
func NewOptimizationPipeline() *OptimizationPipeline {
	pipeline := &OptimizationPipeline{MaxRounds: 1}

	// Add optimization passes in order of execution
	pipeline.AddPass(&LocalValueNumbering{})
	pipeline.AddPass(&DeadCodeElimination{})

	return pipeline
}

// NewPipeline builds a pipeline from pass names
func NewPipeline(names []string) (*OptimizationPipeline, error) {
	pipeline := &OptimizationPipeline{MaxRounds: 1}
	for _, n := range names {
		pass, err := LookupPass(n)
		if err != nil {
			return nil, err
		}
		pipeline.AddPass(pass)
	}
	return pipeline, nil
}

// AddPass adds an optimization pass to the pipeline
func (p *OptimizationPipeline) AddPass(pass OptimizationPass) {
	p.passes = append(p.passes, pass)
}

// Passes returns the passes in execution order
func (p *OptimizationPipeline) Passes() []OptimizationPass {
	return p.passes
}

// FunctionReport records what the pipeline did to one function
type FunctionReport struct {
	Function string
	Rounds   int
	Changes  map[string]int // Pass name -> instructions changed
	Err      error
}

// Report is the outcome of a pipeline run, in module order
type Report struct {
	Functions []FunctionReport
}

// Total returns the number of instructions changed across all functions
func (r *Report) Total() int {
	total := 0
	for _, f := range r.Functions {
		for _, n := range f.Changes {
			total += n
		}
	}
	return total
}

// Run executes the passes over every function of m. Functions are
// processed concurrently and independently: a function whose pass fails
// is left unchanged and the others are still optimized. The returned
// error joins every per-function failure.
func (p *OptimizationPipeline) Run(ctx context.Context, m *ir.Module) (*Report, error) {
	rounds := p.MaxRounds
	if rounds < 1 {
		rounds = 1
	}
	report := &Report{Functions: make([]FunctionReport, len(m.Functions))}

	err := ForEachFunction(ctx, m, p.Workers, func(ctx context.Context, i int, fn *ir.Function) error {
		fr := &report.Functions[i]
		fr.Function = fn.Name
		fr.Changes = make(map[string]int, len(p.passes))

		work := fn.Clone()
		for fr.Rounds < rounds {
			if err := ctx.Err(); err != nil {
				fr.Err = err
				return err
			}
			fr.Rounds++
			changed := 0
			for _, pass := range p.passes {
				n, err := pass.Apply(work)
				if err != nil {
					fr.Err = fmt.Errorf("%s: %w", pass.Name(), err)
					return fr.Err
				}
				fr.Changes[pass.Name()] += n
				changed += n
				log.Debugf("%s: %s changed %d instructions", fn.Name, pass.Name(), n)
			}
			if changed == 0 {
				break
			}
		}

		m.Functions[i] = work
		return nil
	})

	log.Infof("optimized %d functions, %d instructions changed", len(m.Functions), report.Total())
	return report, err
}

// Apply runs a single pass over every function of m
func Apply(ctx context.Context, m *ir.Module, pass OptimizationPass, workers int) (*Report, error) {
	p := &OptimizationPipeline{Workers: workers, MaxRounds: 1}
	p.AddPass(pass)
	return p.Run(ctx, m)
}
