package graph

import (
	"strings"
	"testing"

	"github.com/arborlabs/arbor/pkg/dialog"
)

func TestGenerateMermaid(t *testing.T) {
	g := dialog.New()
	if err := g.AddScene("start", "Open the door?"); err != nil {
		t.Fatal(err)
	}
	if err := g.AddScene("room-1", "A monster!"); err != nil {
		t.Fatal(err)
	}
	if err := g.AppendAnswer("start", "Yes", "room-1"); err != nil {
		t.Fatal(err)
	}
	if err := g.AppendAnswer("start", "No", ""); err != nil {
		t.Fatal(err)
	}
	if err := g.AppendAnswer("room-1", "Flee", "missing"); err != nil {
		t.Fatal(err)
	}

	out := GenerateMermaid(g, "start")

	if !strings.HasPrefix(out, "graph TD\n") {
		t.Errorf("missing header: %q", out)
	}
	// Start scene renders as a circle.
	if !strings.Contains(out, `start(("start"))`) {
		t.Errorf("start node not a circle:\n%s", out)
	}
	// Hyphenated IDs are sanitized.
	if !strings.Contains(out, `room_1["room-1"]`) {
		t.Errorf("room-1 node missing or unsanitized:\n%s", out)
	}
	// An ending answer points at the shared terminal node.
	if !strings.Contains(out, `start -- "No" --> __end`) {
		t.Errorf("ending edge missing:\n%s", out)
	}
	if !strings.Contains(out, "__end((\"End\"))") {
		t.Errorf("terminal node missing:\n%s", out)
	}
	// Dangling references render dotted.
	if !strings.Contains(out, `room_1 -. "Flee" .-> missing`) {
		t.Errorf("dangling edge not dotted:\n%s", out)
	}
}

func TestGenerateMermaid_NoEndings(t *testing.T) {
	g := dialog.New()
	if err := g.AddScene("a", "q"); err != nil {
		t.Fatal(err)
	}
	if err := g.AddScene("b", "q"); err != nil {
		t.Fatal(err)
	}
	if err := g.AppendAnswer("a", "loop", "b"); err != nil {
		t.Fatal(err)
	}
	if err := g.AppendAnswer("b", "back", "a"); err != nil {
		t.Fatal(err)
	}

	out := GenerateMermaid(g, "a")
	if strings.Contains(out, "__end") {
		t.Errorf("terminal node emitted for graph without endings:\n%s", out)
	}
}
