// Package driver maps brilflow commands onto the analyses and passes and
// writes their results.
package driver

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/tliron/commonlog"

	"brilflow/internal/config"
	"brilflow/internal/dataflow"
	"brilflow/internal/dom"
	"brilflow/internal/ir"
	"brilflow/internal/opt"
	"brilflow/internal/parser"
)

var log = commonlog.GetLogger("brilflow.driver")

// Command names one thing the driver can do with a module
type Command string

const (
	CmdLiveness Command = "liveness"
	CmdDom      Command = "dom"
	CmdFront    Command = "front"
	CmdTree     Command = "tree"
	CmdLVN      Command = "lvn"
	CmdDCE      Command = "dce"
	CmdTDCE     Command = "tdce"
	CmdOpt      Command = "opt"
	CmdFmt      Command = "fmt"
	CmdJSON     Command = "json"
)

var descriptions = map[Command]string{
	CmdLiveness: "print live-in and live-out variables of every block",
	CmdDom:      "print the dominators of every block",
	CmdFront:    "print the dominance frontier of every block",
	CmdTree:     "print the dominator tree",
	CmdLVN:      "run local value numbering",
	CmdDCE:      "run global and local dead code elimination",
	CmdTDCE:     "run global dead code elimination only",
	CmdOpt:      "run the configured optimization pipeline",
	CmdFmt:      "print the program as Bril text",
	CmdJSON:     "print the program as Bril JSON",
}

// Commands returns every command in help order
func Commands() []Command {
	return []Command{CmdLiveness, CmdDom, CmdFront, CmdTree, CmdLVN, CmdDCE, CmdTDCE, CmdOpt, CmdFmt, CmdJSON}
}

func (c Command) Description() string {
	return descriptions[c]
}

// ParseCommand validates a command name
func ParseCommand(name string) (Command, error) {
	c := Command(name)
	if _, ok := descriptions[c]; !ok {
		return "", fmt.Errorf("unknown command %q", name)
	}
	return c, nil
}

// IsTransform reports whether the command outputs a module
func (c Command) IsTransform() bool {
	switch c {
	case CmdLVN, CmdDCE, CmdTDCE, CmdOpt, CmdFmt, CmdJSON:
		return true
	}
	return false
}

// Input is a parsed document
type Input struct {
	Module   *ir.Module
	Format   parser.Format
	Filename string
}

// Driver runs commands with one configuration
type Driver struct {
	Config config.Config
}

func New(cfg config.Config) *Driver {
	return &Driver{Config: cfg}
}

// Run executes cmd on in and writes the result to w. A function whose
// analysis or pass fails is reported in the returned error; the results
// of the other functions are still written. Transforms leave failing
// functions unchanged.
func (d *Driver) Run(ctx context.Context, cmd Command, in Input, w io.Writer) error {
	log.Debugf("%s: running %s over %d functions", in.Filename, cmd, len(in.Module.Functions))

	switch cmd {
	case CmdLiveness:
		return d.liveness(in, w)
	case CmdDom, CmdFront, CmdTree:
		return d.dominance(cmd, in, w)
	case CmdFmt:
		return writeModule(w, in.Module, parser.FormatText)
	case CmdJSON:
		return writeModule(w, in.Module, parser.FormatJSON)
	case CmdLVN, CmdDCE, CmdTDCE, CmdOpt:
		return d.transform(ctx, cmd, in, w)
	}
	return fmt.Errorf("unknown command %q", cmd)
}

func passFor(cmd Command) opt.OptimizationPass {
	switch cmd {
	case CmdLVN:
		return &opt.LocalValueNumbering{}
	case CmdDCE:
		return &opt.DeadCodeElimination{}
	case CmdTDCE:
		return &opt.GlobalDCE{}
	}
	return nil
}

func (d *Driver) optimize(ctx context.Context, cmd Command, m *ir.Module) (*opt.Report, error) {
	if cmd != CmdOpt {
		return opt.Apply(ctx, m, passFor(cmd), d.Config.Workers)
	}
	p, err := d.Config.NewPipeline()
	if err != nil {
		return nil, err
	}
	return p.Run(ctx, m)
}

func (d *Driver) transform(ctx context.Context, cmd Command, in Input, w io.Writer) error {
	report, runErr := d.optimize(ctx, cmd, in.Module)
	if report == nil {
		return runErr
	}
	for _, f := range report.Functions {
		if f.Err == nil {
			log.Infof("@%s: %v in %d rounds", f.Function, f.Changes, f.Rounds)
		}
	}
	if err := writeModule(w, in.Module, d.outputFormat(in.Format, true)); err != nil {
		return errors.Join(runErr, err)
	}
	return runErr
}

func (d *Driver) liveness(in Input, w io.Writer) error {
	var results []*dataflow.LiveResult
	var errs []error
	for _, fn := range in.Module.Functions {
		res, err := dataflow.LivenessOf(fn)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		log.Debugf("@%s: liveness converged after %d relaxations", fn.Name, res.Result.Relaxations)
		results = append(results, res)
	}

	var err error
	if d.outputFormat(in.Format, false) == parser.FormatJSON {
		err = writeLivenessJSON(w, results)
	} else {
		err = writeLivenessText(w, results, len(in.Module.Functions) > 1)
	}
	return errors.Join(append(errs, err)...)
}

func (d *Driver) dominance(cmd Command, in Input, w io.Writer) error {
	mode, err := d.Config.UnreachableMode()
	if err != nil {
		return err
	}

	var results []*dom.Analysis
	var errs []error
	for _, fn := range in.Module.Functions {
		a, err := dom.AnalyzeFunction(fn, dom.Options{Unreachable: mode})
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if len(a.Unreachable) > 0 {
			log.Warningf("@%s: unreachable blocks left out: %v", fn.Name, a.Unreachable)
		}
		results = append(results, a)
	}

	if d.outputFormat(in.Format, false) == parser.FormatJSON {
		err = writeDominanceJSON(w, cmd, results)
	} else {
		err = writeDominanceText(w, cmd, results, len(in.Module.Functions) > 1)
	}
	return errors.Join(append(errs, err)...)
}

// outputFormat resolves the configured output. Analyses default to text;
// modules default to the format they were read in.
func (d *Driver) outputFormat(in parser.Format, module bool) parser.Format {
	switch d.Config.Output {
	case config.OutputJSON:
		return parser.FormatJSON
	case config.OutputText:
		return parser.FormatText
	}
	if module {
		return in
	}
	return parser.FormatText
}
