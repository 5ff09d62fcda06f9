// SPDX-License-Identifier: Apache-2.0
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/tliron/commonlog"
	_ "github.com/tliron/commonlog/simple"
	"nikand.dev/go/cli"
	"tlog.app/go/errors"

	"brilflow/internal/config"
	"brilflow/internal/driver"
	diag "brilflow/internal/errors"
	"brilflow/internal/parser"
	"brilflow/internal/source"
)

var log = commonlog.GetLogger("brilflow")

func main() {
	var commands []*cli.Command
	for _, cmd := range driver.Commands() {
		commands = append(commands, &cli.Command{
			Name:        string(cmd),
			Description: cmd.Description(),
			Action:      action(cmd),
			Args:        cli.Args{},
		})
	}

	app := &cli.Command{
		Name:        "brilflow",
		Description: "brilflow analyzes and optimizes Bril programs read from files or stdin",
		Flags: []*cli.Flag{
			cli.NewFlag("config", "", "configuration file (default $BRILFLOW_CONFIG, then ./brilflow.toml)"),
			cli.NewFlag("output", "", "output format: auto, json or text"),
			cli.NewFlag("unreachable", "", "dominance on unreachable blocks: reject or exclude"),
			cli.NewFlag("workers", 0, "functions optimized in parallel (0 = one per CPU)"),
			cli.NewFlag("verbose", 0, "log verbosity"),
		},
		Commands: commands,
	}

	cli.RunAndExit(app, os.Args, os.Environ())
}

func loadConfig(c *cli.Command) (config.Config, error) {
	path := c.String("config")
	if path == "" {
		wd, err := os.Getwd()
		if err != nil {
			return config.Config{}, errors.Wrap(err, "working directory")
		}
		path = config.Find(wd)
	}

	cfg, err := config.Load(path)
	if err != nil {
		return config.Config{}, errors.Wrap(err, "load config")
	}

	// Flags override the file
	if v := c.String("output"); v != "" {
		cfg.Output = v
	}
	if v := c.String("unreachable"); v != "" {
		cfg.Dominance.Unreachable = v
	}
	if v := c.Int("workers"); v != 0 {
		cfg.Workers = v
	}
	if v := c.Int("verbose"); v != 0 {
		cfg.Verbosity = v
	}
	if err := cfg.Validate(); err != nil {
		return config.Config{}, errors.Wrap(err, "flags")
	}
	return cfg, nil
}

func action(cmd driver.Command) func(c *cli.Command) error {
	return func(c *cli.Command) error {
		cfg, err := loadConfig(c)
		if err != nil {
			return err
		}

		commonlog.Configure(cfg.Verbosity, nil)
		if !cfg.Color {
			color.NoColor = true
		}
		for _, msg := range cfg.Warnings() {
			warning := diag.NewWarning(diag.WarningUnknownConfigKey, msg, source.Position{Filename: cfg.Path}).
				Build()
			fmt.Fprint(os.Stderr, diag.NewErrorReporter(cfg.Path, "").FormatError(warning))
		}

		inputs := c.Args
		if len(inputs) == 0 {
			inputs = []string{"-"}
		}

		ctx := context.Background()
		d := driver.New(cfg)
		failed := 0
		for _, name := range inputs {
			if err := process(ctx, d, cmd, name); err != nil {
				failed++
			}
		}

		if failed > 0 {
			return errors.New("%s failed for %d of %d inputs", cmd, failed, len(inputs))
		}
		return nil
	}
}

// process runs one command over one input. Diagnostics are printed to
// stderr; the returned error only signals that something failed.
func process(ctx context.Context, d *driver.Driver, cmd driver.Command, name string) error {
	startTime := time.Now()

	data, filename, err := readInput(name)
	if err != nil {
		color.Red("%v", err)
		return err
	}

	m, format, err := parser.Parse(filename, data)
	if err != nil {
		report(filename, data, err)
		return err
	}

	err = d.Run(ctx, cmd, driver.Input{Module: m, Format: format, Filename: filename}, os.Stdout)
	if err != nil {
		report(filename, data, err)
	}

	log.Infof("processed %s in %s", filename, formatDuration(time.Since(startTime)))
	return err
}

func readInput(name string) ([]byte, string, error) {
	if name == "-" {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return nil, "", errors.Wrap(err, "read stdin")
		}
		return data, "<stdin>", nil
	}
	data, err := os.ReadFile(name)
	if err != nil {
		return nil, "", errors.Wrap(err, "read %v", name)
	}
	return data, name, nil
}

func report(filename string, data []byte, err error) {
	reporter := diag.NewErrorReporter(filename, string(data))
	for _, ce := range diag.Diagnostics(err) {
		fmt.Fprint(os.Stderr, reporter.FormatError(ce))
	}
}

func formatDuration(d time.Duration) string {
	switch {
	case d >= time.Minute:
		return fmt.Sprintf("%.2fmin", d.Minutes())
	case d >= time.Second:
		return fmt.Sprintf("%.2fs", d.Seconds())
	case d >= time.Millisecond:
		return fmt.Sprintf("%.1fms", float64(d.Nanoseconds())/1000000.0)
	case d >= time.Microsecond:
		return fmt.Sprintf("%.1fμs", float64(d.Nanoseconds())/1000.0)
	default:
		return fmt.Sprintf("%dns", d.Nanoseconds())
	}
}
