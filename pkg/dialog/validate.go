package dialog

import "fmt"

// Severity classifies a validation issue.
type Severity string

const (
	// SeverityError marks issues that break traversal guarantees, i.e.
	// dangling next_id references.
	SeverityError Severity = "error"
	// SeverityWarning marks suspicious but legal constructs, e.g. scenes
	// with no answers or scenes unreachable from the start.
	SeverityWarning Severity = "warning"
)

// Issue is a single finding from a validation scan. AnswerIndex is -1 for
// scene-scoped issues.
type Issue struct {
	Severity    Severity `json:"severity"`
	SceneID     string   `json:"scene_id"`
	AnswerIndex int      `json:"answer_index"`
	Message     string   `json:"message"`
}

func (i Issue) String() string {
	if i.AnswerIndex >= 0 {
		return fmt.Sprintf("%s: scene %q answer %d: %s", i.Severity, i.SceneID, i.AnswerIndex, i.Message)
	}
	return fmt.Sprintf("%s: scene %q: %s", i.Severity, i.SceneID, i.Message)
}

// Validate scans the graph without mutating it and reports every answer
// whose NextID does not resolve to an existing scene (error) and every
// scene with zero answers (warning; a zero-answer scene is a legal
// terminal state in playback, so it is only flagged, never rejected).
// Scenes are scanned in insertion order, answers in stored order.
func (g *Graph) Validate() []Issue {
	var issues []Issue
	for _, id := range g.order {
		sc := g.scenes[id]
		if len(sc.Answers) == 0 {
			issues = append(issues, Issue{
				Severity:    SeverityWarning,
				SceneID:     id,
				AnswerIndex: -1,
				Message:     "scene has no answers (terminal unless intended otherwise)",
			})
		}
		for i, a := range sc.Answers {
			if a.NextID == "" {
				continue
			}
			if _, ok := g.scenes[a.NextID]; !ok {
				issues = append(issues, Issue{
					Severity:    SeverityError,
					SceneID:     id,
					AnswerIndex: i,
					Message:     fmt.Sprintf("dangling reference to scene %q", a.NextID),
				})
			}
		}
	}
	return issues
}

// ValidateFrom runs Validate and additionally crawls the graph from
// startID, reporting every scene not reachable from it as a warning. A
// missing start scene is itself an error.
func (g *Graph) ValidateFrom(startID string) []Issue {
	issues := g.Validate()

	if _, ok := g.scenes[startID]; !ok {
		issues = append(issues, Issue{
			Severity:    SeverityError,
			SceneID:     startID,
			AnswerIndex: -1,
			Message:     "start scene not found",
		})
		return issues
	}

	visited := make(map[string]bool)
	queue := []string{startID}
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		if visited[current] {
			continue
		}
		visited[current] = true

		sc, ok := g.scenes[current]
		if !ok {
			// Dangling target, already reported by Validate.
			continue
		}
		for _, a := range sc.Answers {
			if a.NextID != "" && !visited[a.NextID] {
				queue = append(queue, a.NextID)
			}
		}
	}

	for _, id := range g.order {
		if !visited[id] {
			issues = append(issues, Issue{
				Severity:    SeverityWarning,
				SceneID:     id,
				AnswerIndex: -1,
				Message:     fmt.Sprintf("unreachable from start scene %q", startID),
			})
		}
	}
	return issues
}

// HasErrors reports whether any issue in the list has error severity.
func HasErrors(issues []Issue) bool {
	for _, i := range issues {
		if i.Severity == SeverityError {
			return true
		}
	}
	return false
}
