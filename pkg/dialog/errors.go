package dialog

import "errors"

// ErrDuplicateID is returned when adding a scene whose ID is already taken.
var ErrDuplicateID = errors.New("scene id already exists")

// ErrEmptyID is returned when a scene ID is empty or whitespace-only.
var ErrEmptyID = errors.New("scene id is empty")

// ErrSceneNotFound is returned when an operation targets a scene that does
// not exist in the graph.
var ErrSceneNotFound = errors.New("scene not found")

// ErrEmptyText is returned when an answer's display text is empty or
// whitespace-only.
var ErrEmptyText = errors.New("answer text is empty")

// ErrChoiceOutOfRange is returned when an answer index is out of bounds for
// the scene's answer list.
var ErrChoiceOutOfRange = errors.New("answer index out of range")

// ErrBadDocument is returned when a dialog document is structurally
// malformed (missing required field, wrong value type). Dangling next_id
// references are deliberately not document errors; see Validate.
var ErrBadDocument = errors.New("malformed dialog document")

// ErrDocumentNotFound is returned by graph stores when no document exists
// under the requested name.
var ErrDocumentNotFound = errors.New("dialog document not found")
