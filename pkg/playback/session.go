// Package playback implements the traversal state machine over a dialog
// graph. A session is either Active (has a current scene) or Ended; the
// caller polls Current and drives the machine with Choose.
//
// A session borrows the graph it was started from. Mutating the graph
// while a session is active is a precondition violation and is not
// guarded against.
package playback

import (
	"errors"
	"fmt"

	"github.com/arborlabs/arbor/pkg/dialog"
)

// ErrSessionEnded is returned when Choose is called after the session has
// reached its terminal state.
var ErrSessionEnded = errors.New("session has ended")

// ErrSessionNotFound is returned by session stores when the session ID
// does not exist.
var ErrSessionNotFound = errors.New("session not found")

// Choice is a selectable answer as presented to the player.
type Choice struct {
	Index int    `json:"index"`
	Text  string `json:"text"`
}

// View is the sole observable state of a session. An Ended view carries no
// question and no choices. An Active view over a zero-answer scene has a
// question but an empty choice list; that is a terminal display state,
// distinct from Ended.
type View struct {
	SceneID  string   `json:"scene_id,omitempty"`
	Question string   `json:"question,omitempty"`
	Choices  []Choice `json:"choices"`
	Ended    bool     `json:"ended"`
}

// State is the serializable snapshot of a session, used by session stores
// to resume playback across processes.
type State struct {
	Graph   string   `json:"graph,omitempty"`
	SceneID string   `json:"scene_id,omitempty"`
	Ended   bool     `json:"ended"`
	History []string `json:"history"`
}

// Session walks a dialog graph on behalf of one participant. It is
// single-threaded and purely synchronous.
type Session struct {
	graph   *dialog.Graph
	current string
	ended   bool
	history []string
}

// Start begins playback at startID. It fails with dialog.ErrSceneNotFound
// if the start scene is absent: a missing entry point is a caller error,
// while only traversal may legitimately reach the Ended state through a
// missing target.
func Start(g *dialog.Graph, startID string) (*Session, error) {
	if !g.Has(startID) {
		return nil, fmt.Errorf("start scene %q: %w", startID, dialog.ErrSceneNotFound)
	}
	return &Session{
		graph:   g,
		current: startID,
		history: []string{startID},
	}, nil
}

// Resume rebuilds a session from a snapshot. If the snapshot's current
// scene no longer resolves in the graph, the session degrades to Ended,
// the same contract as a dangling reference during traversal.
func Resume(g *dialog.Graph, st State) *Session {
	s := &Session{
		graph:   g,
		current: st.SceneID,
		ended:   st.Ended,
		history: append([]string(nil), st.History...),
	}
	if !s.ended && !g.Has(s.current) {
		s.ended = true
		s.current = ""
	}
	return s
}

// Ended reports whether the session reached its terminal state.
func (s *Session) Ended() bool {
	return s.ended
}

// Current returns the view of the active scene, or the terminal marker
// when the session has ended.
func (s *Session) Current() View {
	if s.ended {
		return View{Ended: true, Choices: []Choice{}}
	}
	sc, _ := s.graph.Scene(s.current)
	choices := make([]Choice, 0, len(sc.Answers))
	for i, a := range sc.Answers {
		choices = append(choices, Choice{Index: i, Text: a.Text})
	}
	return View{SceneID: sc.ID, Question: sc.Question, Choices: choices}
}

// Choose selects the answer at index in the current scene and advances the
// machine. An answer without a target ends the session; so does an answer
// whose target does not resolve (a dangling reference plays as an implicit
// ending, not a failure). On error the session is left unchanged.
func (s *Session) Choose(index int) error {
	if s.ended {
		return ErrSessionEnded
	}
	sc, _ := s.graph.Scene(s.current)
	if index < 0 || index >= len(sc.Answers) {
		return fmt.Errorf("choice %d (scene %q has %d answers): %w",
			index, s.current, len(sc.Answers), dialog.ErrChoiceOutOfRange)
	}

	next := sc.Answers[index].NextID
	if next == "" || !s.graph.Has(next) {
		s.ended = true
		s.current = ""
		return nil
	}

	s.current = next
	s.history = append(s.history, next)
	return nil
}

// History returns the scene IDs visited so far, in order.
func (s *Session) History() []string {
	return append([]string(nil), s.history...)
}

// Snapshot captures the session as a serializable state. The Graph field
// is left for the caller to fill in; the session does not know the name
// its graph is stored under.
func (s *Session) Snapshot() State {
	return State{
		SceneID: s.current,
		Ended:   s.ended,
		History: s.History(),
	}
}
