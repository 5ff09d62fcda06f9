package driver

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"brilflow/internal/dataflow"
	"brilflow/internal/dom"
	"brilflow/internal/ir"
	"brilflow/internal/parser"
)

// Empty is printed for an empty set in text output
const Empty = "∅"

func formatSet(names []string) string {
	if len(names) == 0 {
		return Empty
	}
	return strings.Join(names, ", ")
}

func writeModule(w io.Writer, m *ir.Module, format parser.Format) error {
	if format == parser.FormatJSON {
		return ir.EncodeJSON(w, m)
	}
	_, err := io.WriteString(w, ir.Print(m))
	return err
}

func writeLivenessText(w io.Writer, results []*dataflow.LiveResult, headers bool) error {
	var b strings.Builder
	for _, res := range results {
		if headers {
			fmt.Fprintf(&b, "@%s\n", res.Function)
		}
		for _, name := range res.Blocks {
			fmt.Fprintf(&b, "%s:\n", name)
			fmt.Fprintf(&b, "  in:  %s\n", formatSet(res.In[name]))
			fmt.Fprintf(&b, "  out: %s\n", formatSet(res.Out[name]))
		}
	}
	_, err := io.WriteString(w, b.String())
	return err
}

type liveSets struct {
	In  []string `json:"in"`
	Out []string `json:"out"`
}

func writeLivenessJSON(w io.Writer, results []*dataflow.LiveResult) error {
	doc := make(map[string]map[string]liveSets, len(results))
	for _, res := range results {
		blocks := make(map[string]liveSets, len(res.Blocks))
		for _, name := range res.Blocks {
			blocks[name] = liveSets{In: nonNil(res.In[name]), Out: nonNil(res.Out[name])}
		}
		doc[res.Function] = blocks
	}
	return writeJSON(w, doc)
}

// dominanceMap selects what a dominance command prints
func dominanceMap(cmd Command, a *dom.Analysis) map[string][]string {
	switch cmd {
	case CmdFront:
		return a.Frontier
	case CmdTree:
		return a.Tree
	}
	return a.Dom
}

func writeDominanceText(w io.Writer, cmd Command, results []*dom.Analysis, headers bool) error {
	var b strings.Builder
	for _, a := range results {
		if headers {
			fmt.Fprintf(&b, "@%s\n", a.Function)
		}
		m := dominanceMap(cmd, a)
		for _, name := range a.Blocks {
			fmt.Fprintf(&b, "%s: %s\n", name, formatSet(m[name]))
		}
	}
	_, err := io.WriteString(w, b.String())
	return err
}

func writeDominanceJSON(w io.Writer, cmd Command, results []*dom.Analysis) error {
	doc := make(map[string]map[string][]string, len(results))
	for _, a := range results {
		m := dominanceMap(cmd, a)
		blocks := make(map[string][]string, len(a.Blocks))
		for _, name := range a.Blocks {
			blocks[name] = nonNil(m[name])
		}
		doc[a.Function] = blocks
	}
	return writeJSON(w, doc)
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
