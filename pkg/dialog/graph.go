package dialog

import (
	"fmt"
	"strings"
)

// Answer is one selectable choice in a scene. NextID names the scene the
// choice leads to; an empty NextID means the answer ends the dialog.
// Answers are immutable once appended: edits are modeled as remove + add.
type Answer struct {
	Text   string `json:"text"`
	NextID string `json:"next_id,omitempty"`
}

// Scene is a node in the dialog graph: one question plus zero or more
// answers. Answer order is meaningful; it determines display and
// traversal order and survives save/load round-trips.
type Scene struct {
	ID       string   `json:"id"`
	Question string   `json:"question"`
	Answers  []Answer `json:"answers"`
}

// Graph is the aggregate owning all scenes of one dialog. Scene IDs are
// unique by construction and enumeration follows insertion order.
//
// Graph is not safe for concurrent use; it is designed for a single
// editing context at a time.
type Graph struct {
	scenes map[string]*Scene
	order  []string
}

// New creates an empty dialog graph.
func New() *Graph {
	return &Graph{scenes: make(map[string]*Scene)}
}

// AddScene inserts a new scene with the given question and no answers.
// The ID is caller-chosen (the graph never generates identifiers) and must
// be non-empty and unique.
func (g *Graph) AddScene(id, question string) error {
	if strings.TrimSpace(id) == "" {
		return ErrEmptyID
	}
	if _, exists := g.scenes[id]; exists {
		return fmt.Errorf("scene %q: %w", id, ErrDuplicateID)
	}
	g.scenes[id] = &Scene{ID: id, Question: question, Answers: []Answer{}}
	g.order = append(g.order, id)
	return nil
}

// Scene returns a copy of the scene with the given ID. The copy is a
// borrowed view for display; mutations go through the graph's operations.
func (g *Graph) Scene(id string) (Scene, bool) {
	sc, ok := g.scenes[id]
	if !ok {
		return Scene{}, false
	}
	out := *sc
	out.Answers = append([]Answer(nil), sc.Answers...)
	return out, true
}

// Has reports whether a scene with the given ID exists.
func (g *Graph) Has(id string) bool {
	_, ok := g.scenes[id]
	return ok
}

// SceneIDs returns all scene identifiers in insertion order.
func (g *Graph) SceneIDs() []string {
	return append([]string(nil), g.order...)
}

// Len returns the number of scenes in the graph.
func (g *Graph) Len() int {
	return len(g.scenes)
}

// SetQuestion replaces the question text of an existing scene.
func (g *Graph) SetQuestion(id, text string) error {
	sc, ok := g.scenes[id]
	if !ok {
		return fmt.Errorf("scene %q: %w", id, ErrSceneNotFound)
	}
	sc.Question = text
	return nil
}

// AppendAnswer adds an answer to the end of a scene's answer list.
// nextID may be empty (the answer ends the dialog) or name a scene that
// does not exist yet; forward references are legal and only flagged by
// Validate.
func (g *Graph) AppendAnswer(sceneID, text, nextID string) error {
	sc, ok := g.scenes[sceneID]
	if !ok {
		return fmt.Errorf("scene %q: %w", sceneID, ErrSceneNotFound)
	}
	if strings.TrimSpace(text) == "" {
		return ErrEmptyText
	}
	sc.Answers = append(sc.Answers, Answer{Text: text, NextID: nextID})
	return nil
}

// RemoveAnswer deletes the answer at index from a scene, preserving the
// order of the remaining answers.
func (g *Graph) RemoveAnswer(sceneID string, index int) error {
	sc, ok := g.scenes[sceneID]
	if !ok {
		return fmt.Errorf("scene %q: %w", sceneID, ErrSceneNotFound)
	}
	if index < 0 || index >= len(sc.Answers) {
		return fmt.Errorf("scene %q answer %d: %w", sceneID, index, ErrChoiceOutOfRange)
	}
	sc.Answers = append(sc.Answers[:index], sc.Answers[index+1:]...)
	return nil
}

// RemoveScene deletes a scene from the graph. Answers in other scenes that
// referenced it are left untouched; they become dangling and are surfaced
// by Validate, never silently repaired.
func (g *Graph) RemoveScene(id string) error {
	if _, ok := g.scenes[id]; !ok {
		return fmt.Errorf("scene %q: %w", id, ErrSceneNotFound)
	}
	delete(g.scenes, id)
	for i, other := range g.order {
		if other == id {
			g.order = append(g.order[:i], g.order[i+1:]...)
			break
		}
	}
	return nil
}

// Clone returns a deep copy of the graph.
func (g *Graph) Clone() *Graph {
	out := New()
	out.order = append([]string(nil), g.order...)
	for id, sc := range g.scenes {
		cp := *sc
		cp.Answers = append([]Answer(nil), sc.Answers...)
		out.scenes[id] = &cp
	}
	return out
}
