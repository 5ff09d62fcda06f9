package lsp

import (
	"fmt"
	"strings"

	protocol "github.com/tliron/glsp/protocol_3_16"

	"brilflow/internal/dataflow"
	"brilflow/internal/dom"
	"brilflow/internal/ir"
)

// BlockHover describes the block introduced by the label on the given
// 0-based line: its live variables and its dominance facts. It returns
// nil when the line holds no label or the function does not analyze.
func BlockHover(doc *Document, pos protocol.Position) *protocol.Hover {
	line := int(pos.Line) + 1
	fn, label := doc.LabelAt(line)
	if label == nil {
		return nil
	}

	live, err := dataflow.LivenessOf(fn)
	if err != nil {
		log.Debugf("hover: liveness of @%s: %s", fn.Name, err)
		return nil
	}
	a, err := dom.AnalyzeFunction(fn, dom.Options{Unreachable: dom.ExcludeUnreachable})
	if err != nil {
		log.Debugf("hover: dominance of @%s: %s", fn.Name, err)
		return nil
	}

	start := protocol.Position{Line: pos.Line, Character: uint32(label.Pos.Column - 1)}
	end := protocol.Position{Line: pos.Line, Character: start.Character + uint32(len(label.Name)+1)}
	return &protocol.Hover{
		Contents: protocol.MarkupContent{
			Kind:  protocol.MarkupKindMarkdown,
			Value: describeBlock(fn, label.Name, live, a),
		},
		Range: &protocol.Range{Start: start, End: end},
	}
}

func describeBlock(fn *ir.Function, name string, live *dataflow.LiveResult, a *dom.Analysis) string {
	var b strings.Builder
	fmt.Fprintf(&b, "**.%s** in `@%s`\n\n", name, fn.Name)
	fmt.Fprintf(&b, "- live in: %s\n", codeList(live.In[name]))
	fmt.Fprintf(&b, "- live out: %s\n", codeList(live.Out[name]))

	if _, ok := a.Dom[name]; !ok {
		b.WriteString("- unreachable from the entry\n")
		return b.String()
	}
	fmt.Fprintf(&b, "- dominators: %s\n", codeList(a.Dom[name]))
	if idom, ok := a.Idom[name]; ok {
		fmt.Fprintf(&b, "- immediate dominator: `%s`\n", idom)
	}
	fmt.Fprintf(&b, "- dominance frontier: %s\n", codeList(a.Frontier[name]))
	return b.String()
}

func codeList(names []string) string {
	if len(names) == 0 {
		return "∅"
	}
	quoted := make([]string, len(names))
	for i, n := range names {
		quoted[i] = "`" + n + "`"
	}
	return strings.Join(quoted, ", ")
}
