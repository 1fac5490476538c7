package dialog

import (
	"bytes"
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"
)

// Document is the portable representation of a dialog graph: a mapping
// from scene identifier to scene record, serialized as a single JSON (or
// YAML) object. Scene order matches the graph's insertion order and is
// preserved across round-trips via custom marshalling; answer order is
// preserved as-is.
//
// Unknown extra fields are ignored on read for forward compatibility.
// Dangling next_id references never fail a load or save; they are soft
// references checked only by Validate.
type Document struct {
	Scenes []SceneRecord
}

// SceneRecord is the wire form of a single scene.
type SceneRecord struct {
	ID       string         `json:"id" yaml:"id"`
	Question string         `json:"question" yaml:"question"`
	Answers  []AnswerRecord `json:"answers" yaml:"answers"`
}

// AnswerRecord is the wire form of a single answer. NextID is null (or
// absent) when the answer ends the dialog.
type AnswerRecord struct {
	Text   string  `json:"text" yaml:"text"`
	NextID *string `json:"next_id" yaml:"next_id"`
}

// rawScene mirrors SceneRecord with pointer fields so that missing keys
// are distinguishable from empty values during decoding.
type rawScene struct {
	ID       string      `json:"id" yaml:"id"`
	Question *string     `json:"question" yaml:"question"`
	Answers  []rawAnswer `json:"answers" yaml:"answers"`
}

type rawAnswer struct {
	Text   *string `json:"text" yaml:"text"`
	NextID *string `json:"next_id" yaml:"next_id"`
}

// Document produces the portable representation of the graph, scenes in
// insertion order and answers in stored order.
func (g *Graph) Document() *Document {
	doc := &Document{Scenes: make([]SceneRecord, 0, len(g.order))}
	for _, id := range g.order {
		sc := g.scenes[id]
		rec := SceneRecord{
			ID:       id,
			Question: sc.Question,
			Answers:  make([]AnswerRecord, 0, len(sc.Answers)),
		}
		for _, a := range sc.Answers {
			rec.Answers = append(rec.Answers, AnswerRecord{Text: a.Text, NextID: optionalRef(a.NextID)})
		}
		doc.Scenes = append(doc.Scenes, rec)
	}
	return doc
}

// FromDocument builds a graph from its portable representation. It fails
// with ErrBadDocument on structural problems (missing question, answer
// missing text, duplicate or mismatched scene IDs) but never on dangling
// references.
func FromDocument(doc *Document) (*Graph, error) {
	g := New()
	for _, rec := range doc.Scenes {
		if err := g.AddScene(rec.ID, rec.Question); err != nil {
			return nil, fmt.Errorf("%w: scene %q: %v", ErrBadDocument, rec.ID, err)
		}
		sc := g.scenes[rec.ID]
		for _, a := range rec.Answers {
			// Text emptiness is content, not structure; the loader stays
			// lenient so documents authored elsewhere keep loading.
			sc.Answers = append(sc.Answers, Answer{Text: a.Text, NextID: deref(a.NextID)})
		}
	}
	return g, nil
}

// Clone returns a deep copy of the document.
func (d *Document) Clone() *Document {
	out := &Document{Scenes: make([]SceneRecord, 0, len(d.Scenes))}
	for _, rec := range d.Scenes {
		cp := rec
		cp.Answers = make([]AnswerRecord, 0, len(rec.Answers))
		for _, a := range rec.Answers {
			ac := AnswerRecord{Text: a.Text}
			if a.NextID != nil {
				next := *a.NextID
				ac.NextID = &next
			}
			cp.Answers = append(cp.Answers, ac)
		}
		out.Scenes = append(out.Scenes, cp)
	}
	return out
}

// MarshalJSON writes the document as a single JSON object keyed by scene
// ID, emitting scenes in document order. encoding/json would not keep map
// key order, so the object is assembled by hand.
func (d *Document) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, rec := range d.Scenes {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(rec.ID)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		val, err := json.Marshal(rec)
		if err != nil {
			return nil, fmt.Errorf("scene %q: %w", rec.ID, err)
		}
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON reads the document from a JSON object, preserving the key
// order found in the input. It uses a token-level decode because plain map
// unmarshalling would scramble scene order.
func (d *Document) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrBadDocument, err)
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("%w: expected top-level object, got %v", ErrBadDocument, tok)
	}

	var scenes []SceneRecord
	seen := make(map[string]bool)
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return fmt.Errorf("%w: %v", ErrBadDocument, err)
		}
		key := keyTok.(string)

		var raw rawScene
		if err := dec.Decode(&raw); err != nil {
			return fmt.Errorf("%w: scene %q: %v", ErrBadDocument, key, err)
		}
		rec, err := sceneFromRaw(key, raw)
		if err != nil {
			return err
		}
		if seen[key] {
			return fmt.Errorf("%w: duplicate scene %q", ErrBadDocument, key)
		}
		seen[key] = true
		scenes = append(scenes, rec)
	}
	if _, err := dec.Token(); err != nil {
		return fmt.Errorf("%w: %v", ErrBadDocument, err)
	}

	d.Scenes = scenes
	return nil
}

// MarshalYAML mirrors MarshalJSON for YAML output, building an ordered
// mapping node so scene order survives the round-trip.
func (d *Document) MarshalYAML() (any, error) {
	root := &yaml.Node{Kind: yaml.MappingNode}
	for _, rec := range d.Scenes {
		keyNode := &yaml.Node{Kind: yaml.ScalarNode, Value: rec.ID}
		valNode := &yaml.Node{}
		if err := valNode.Encode(rec); err != nil {
			return nil, fmt.Errorf("scene %q: %w", rec.ID, err)
		}
		root.Content = append(root.Content, keyNode, valNode)
	}
	return root, nil
}

// UnmarshalYAML reads the document from a YAML mapping, preserving key
// order.
func (d *Document) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.MappingNode {
		return fmt.Errorf("%w: expected top-level mapping", ErrBadDocument)
	}

	var scenes []SceneRecord
	seen := make(map[string]bool)
	for i := 0; i+1 < len(value.Content); i += 2 {
		key := value.Content[i].Value
		var raw rawScene
		if err := value.Content[i+1].Decode(&raw); err != nil {
			return fmt.Errorf("%w: scene %q: %v", ErrBadDocument, key, err)
		}
		rec, err := sceneFromRaw(key, raw)
		if err != nil {
			return err
		}
		if seen[key] {
			return fmt.Errorf("%w: duplicate scene %q", ErrBadDocument, key)
		}
		seen[key] = true
		scenes = append(scenes, rec)
	}

	d.Scenes = scenes
	return nil
}

// sceneFromRaw checks structural requirements and converts a decoded scene
// into its record form. The map key wins as the scene identifier; a
// conflicting id field is a structural error, a missing one is tolerated.
func sceneFromRaw(key string, raw rawScene) (SceneRecord, error) {
	if raw.ID != "" && raw.ID != key {
		return SceneRecord{}, fmt.Errorf("%w: scene %q: id field %q does not match key", ErrBadDocument, key, raw.ID)
	}
	if raw.Question == nil {
		return SceneRecord{}, fmt.Errorf("%w: scene %q: missing question", ErrBadDocument, key)
	}

	rec := SceneRecord{
		ID:       key,
		Question: *raw.Question,
		Answers:  make([]AnswerRecord, 0, len(raw.Answers)),
	}
	for i, a := range raw.Answers {
		if a.Text == nil {
			return SceneRecord{}, fmt.Errorf("%w: scene %q answer %d: missing text", ErrBadDocument, key, i)
		}
		rec.Answers = append(rec.Answers, AnswerRecord{Text: *a.Text, NextID: a.NextID})
	}
	return rec, nil
}

func optionalRef(id string) *string {
	if id == "" {
		return nil
	}
	return &id
}

func deref(id *string) string {
	if id == nil {
		return ""
	}
	return *id
}
