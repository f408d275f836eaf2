// Package graph renders the stage graph as a Mermaid flowchart.
package graph

import (
	"fmt"
	"strings"

	"github.com/whitehatjr1001/cine-brain/pkg/domain"
	"github.com/whitehatjr1001/cine-brain/pkg/dsl"
)

// Overlay marks the stage a session is parked at.
type Overlay struct {
	Current string
}

// GenerateMermaid produces a Mermaid flowchart for g with semantic shapes:
//   - entry: ((circle))
//   - gate (can suspend): [/parallelogram/]
//   - end: ([stadium])
//   - other stages: [rectangle]
//
// Goto targets are drawn dotted. Switch cases carry their label.
func GenerateMermaid(g *dsl.Graph, overlay *Overlay) string {
	var sb strings.Builder
	sb.WriteString("graph TD\n")

	for _, name := range g.Stages() {
		opener, closer := "[", "]"
		switch {
		case name == g.Entry():
			opener, closer = "((", "))"
		case g.IsGate(name):
			opener, closer = "[/", "/]"
		}
		fmt.Fprintf(&sb, "    %s%s\"%s\"%s\n", sanitizeID(name), opener, name, closer)
	}
	fmt.Fprintf(&sb, "    %s([\"end\"])\n", sanitizeID(domain.StageEnd))

	for _, e := range g.Edges() {
		arrow := "-->"
		if e.Jump {
			arrow = "-.->"
		}
		if e.Label != "" {
			label := strings.ReplaceAll(e.Label, "\"", "'")
			arrow = fmt.Sprintf("-- \"%s\" -->", label)
			if e.Jump {
				arrow = fmt.Sprintf("-. \"%s\" .->", label)
			}
		}
		fmt.Fprintf(&sb, "    %s %s %s\n", sanitizeID(e.From), arrow, sanitizeID(e.To))
	}

	if overlay != nil && overlay.Current != "" {
		sb.WriteString("\n    %% Overlay Styles\n")
		sb.WriteString("    classDef current fill:#ffeb3b,stroke:#fbc02d,stroke-width:4px,color:#000;\n")
		fmt.Fprintf(&sb, "    class %s current;\n", sanitizeID(overlay.Current))
	}
	return sb.String()
}

func sanitizeID(id string) string {
	return strings.NewReplacer(".", "_", "-", "_", "/", "_", "\\", "_").Replace(id)
}
