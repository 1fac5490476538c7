// Package graph renders dialog graphs as Mermaid flowcharts for
// visualization and documentation.
package graph

import (
	"fmt"
	"strings"

	"github.com/arborlabs/arbor/pkg/dialog"
)

// GenerateMermaid produces a Mermaid flowchart (graph TD) from a dialog
// graph. Scenes render as rectangles, the start scene as a circle, and
// dialog endings as a shared terminal node. Edges carry the answer text;
// dangling references render as dotted edges so broken links stand out in
// the diagram.
func GenerateMermaid(g *dialog.Graph, startID string) string {
	var sb strings.Builder
	sb.WriteString("graph TD\n")

	hasEnding := false
	for _, id := range g.SceneIDs() {
		sc, _ := g.Scene(id)
		safeID := sanitizeMermaidID(id)

		opener, closer := "[", "]"
		if id == startID {
			opener, closer = "((", "))"
		}
		sb.WriteString(fmt.Sprintf("    %s%s\"%s\"%s\n", safeID, opener, escapeLabel(id), closer))

		for _, a := range sc.Answers {
			label := escapeLabel(a.Text)
			switch {
			case a.NextID == "":
				hasEnding = true
				sb.WriteString(fmt.Sprintf("    %s -- \"%s\" --> __end\n", safeID, label))
			case !g.Has(a.NextID):
				sb.WriteString(fmt.Sprintf("    %s -. \"%s\" .-> %s\n", safeID, label, sanitizeMermaidID(a.NextID)))
			default:
				sb.WriteString(fmt.Sprintf("    %s -- \"%s\" --> %s\n", safeID, label, sanitizeMermaidID(a.NextID)))
			}
		}
	}

	if hasEnding {
		sb.WriteString("    __end((\"End\"))\n")
	}
	return sb.String()
}

func sanitizeMermaidID(id string) string {
	s := strings.ReplaceAll(id, ".", "_")
	s = strings.ReplaceAll(s, "-", "_")
	s = strings.ReplaceAll(s, "/", "_")
	s = strings.ReplaceAll(s, "\\", "_")
	s = strings.ReplaceAll(s, " ", "_")
	return s
}

func escapeLabel(s string) string {
	return strings.ReplaceAll(s, "\"", "'")
}
