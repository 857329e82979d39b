// Package production provides the observation sinks a Machine is wired with
// outside tests: Graphviz export, a text renderer, a trace recorder and a
// channel publisher.
package production

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/comalice/dfsm/internal/core"
	"github.com/comalice/dfsm/internal/primitives"
)

// ExportDOT generates Graphviz DOT source for the transition table. The
// current state, if any, is highlighted; terminal states are double circles.
func ExportDOT(table *core.Table, current string) string {
	var buf bytes.Buffer
	buf.WriteString(`digraph FSM {
  rankdir=LR;
  node [shape=box, fontsize=10, style=rounded];
  edge [fontsize=9];
  "__start" [shape=point];
`)

	for _, name := range table.States() {
		attrs := []string{fmt.Sprintf("label=%s", quote(name))}
		if table.IsTerminal(name) {
			attrs = append(attrs, "shape=doublecircle")
		}
		if name == current {
			attrs = append(attrs, "style=filled", "fillcolor=lightgreen")
		}
		fmt.Fprintf(&buf, "  %s [%s];\n", quote(name), strings.Join(attrs, " "))
	}

	fmt.Fprintf(&buf, "  \"__start\" -> %s;\n", quote(table.Initial()))
	for _, e := range collectEdges(table) {
		fmt.Fprintf(&buf, "  %s -> %s [label=%s];\n", quote(e.From), quote(e.To), quote(e.Label))
	}

	buf.WriteString("}\n")
	return buf.String()
}

// ExportJSON serializes the machine config in its canonical form.
func ExportJSON(config primitives.MachineConfig) ([]byte, error) {
	return json.MarshalIndent(config.Canonical(), "", "  ")
}

// Edge represents a transition edge.
type Edge struct {
	From  string
	To    string
	Label string
}

// collectEdges returns the reachable edges in state then declaration order.
// Shadowed duplicates (same state and event) are left out.
func collectEdges(table *core.Table) []Edge {
	var edges []Edge
	for _, name := range table.States() {
		state, _ := table.State(name)
		seen := make(map[string]bool)
		for _, tr := range state.Transitions {
			if seen[tr.Event] {
				continue
			}
			seen[tr.Event] = true
			edges = append(edges, Edge{From: name, To: tr.Target, Label: tr.Event})
		}
	}
	return edges
}

func quote(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `\"`) + `"`
}
