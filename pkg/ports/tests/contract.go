// Package tests provides reusable contract suites that verify store
// adapters against the ports interfaces.
package tests

import (
	"context"
	"errors"
	"testing"

	"github.com/arborlabs/arbor/pkg/dialog"
	"github.com/arborlabs/arbor/pkg/playback"
	"github.com/arborlabs/arbor/pkg/ports"
)

// RunSessionStoreContract verifies that a SessionStore implementation
// honors the interface contract: not-found sentinel, round-trip fidelity
// and isolation of the stored state from later caller mutations.
func RunSessionStoreContract(t *testing.T, store ports.SessionStore) {
	t.Helper()
	ctx := context.Background()

	t.Run("LoadMissing", func(t *testing.T) {
		_, err := store.Load(ctx, "no-such-session")
		if !errors.Is(err, playback.ErrSessionNotFound) {
			t.Errorf("expected ErrSessionNotFound, got %v", err)
		}
	})

	t.Run("SaveLoadRoundTrip", func(t *testing.T) {
		state := &playback.State{
			Graph:   "demo",
			SceneID: "room1",
			History: []string{"start", "room1"},
		}
		if err := store.Save(ctx, "s1", state); err != nil {
			t.Fatalf("save: %v", err)
		}

		loaded, err := store.Load(ctx, "s1")
		if err != nil {
			t.Fatalf("load: %v", err)
		}
		if loaded.SceneID != "room1" || loaded.Graph != "demo" {
			t.Errorf("state mismatch: %+v", loaded)
		}
		if len(loaded.History) != 2 || loaded.History[0] != "start" {
			t.Errorf("history mismatch: %v", loaded.History)
		}
	})

	t.Run("StoredStateIsIsolated", func(t *testing.T) {
		state := &playback.State{SceneID: "a", History: []string{"a"}}
		if err := store.Save(ctx, "s2", state); err != nil {
			t.Fatalf("save: %v", err)
		}

		// Mutating the caller's copy must not leak into the store.
		state.SceneID = "mutated"
		state.History[0] = "mutated"

		loaded, err := store.Load(ctx, "s2")
		if err != nil {
			t.Fatalf("load: %v", err)
		}
		if loaded.SceneID != "a" || loaded.History[0] != "a" {
			t.Errorf("store leaked caller mutation: %+v", loaded)
		}
	})

	t.Run("List", func(t *testing.T) {
		ids, err := store.List(ctx)
		if err != nil {
			t.Fatalf("list: %v", err)
		}
		lookup := make(map[string]bool, len(ids))
		for _, id := range ids {
			lookup[id] = true
		}
		if !lookup["s1"] || !lookup["s2"] {
			t.Errorf("expected s1 and s2 in %v", ids)
		}
	})

	t.Run("Delete", func(t *testing.T) {
		if err := store.Delete(ctx, "s1"); err != nil {
			t.Fatalf("delete: %v", err)
		}
		if _, err := store.Load(ctx, "s1"); !errors.Is(err, playback.ErrSessionNotFound) {
			t.Errorf("expected ErrSessionNotFound after delete, got %v", err)
		}
	})
}

// RunGraphStoreContract verifies that a GraphStore implementation honors
// the interface contract.
func RunGraphStoreContract(t *testing.T, store ports.GraphStore) {
	t.Helper()
	ctx := context.Background()

	doc := testDocument(t)

	t.Run("LoadMissing", func(t *testing.T) {
		_, err := store.Load(ctx, "no-such-graph")
		if !errors.Is(err, dialog.ErrDocumentNotFound) {
			t.Errorf("expected ErrDocumentNotFound, got %v", err)
		}
	})

	t.Run("SaveLoadRoundTrip", func(t *testing.T) {
		if err := store.Save(ctx, "demo", doc); err != nil {
			t.Fatalf("save: %v", err)
		}

		loaded, err := store.Load(ctx, "demo")
		if err != nil {
			t.Fatalf("load: %v", err)
		}
		if len(loaded.Scenes) != len(doc.Scenes) {
			t.Fatalf("scene count mismatch: got %d, want %d", len(loaded.Scenes), len(doc.Scenes))
		}
		for i := range doc.Scenes {
			if loaded.Scenes[i].ID != doc.Scenes[i].ID {
				t.Errorf("scene order mismatch at %d: got %q, want %q",
					i, loaded.Scenes[i].ID, doc.Scenes[i].ID)
			}
		}
	})

	t.Run("Overwrite", func(t *testing.T) {
		g := dialog.New()
		if err := g.AddScene("only", "replaced"); err != nil {
			t.Fatal(err)
		}
		if err := store.Save(ctx, "demo", g.Document()); err != nil {
			t.Fatalf("save: %v", err)
		}
		loaded, err := store.Load(ctx, "demo")
		if err != nil {
			t.Fatalf("load: %v", err)
		}
		if len(loaded.Scenes) != 1 || loaded.Scenes[0].ID != "only" {
			t.Errorf("overwrite not applied: %+v", loaded.Scenes)
		}
	})

	t.Run("List", func(t *testing.T) {
		names, err := store.List(ctx)
		if err != nil {
			t.Fatalf("list: %v", err)
		}
		found := false
		for _, n := range names {
			if n == "demo" {
				found = true
			}
		}
		if !found {
			t.Errorf("expected demo in %v", names)
		}
	})

	t.Run("Delete", func(t *testing.T) {
		if err := store.Delete(ctx, "demo"); err != nil {
			t.Fatalf("delete: %v", err)
		}
		if _, err := store.Load(ctx, "demo"); !errors.Is(err, dialog.ErrDocumentNotFound) {
			t.Errorf("expected ErrDocumentNotFound after delete, got %v", err)
		}
		if err := store.Delete(ctx, "demo"); !errors.Is(err, dialog.ErrDocumentNotFound) {
			t.Errorf("expected ErrDocumentNotFound on double delete, got %v", err)
		}
	})
}

func testDocument(t *testing.T) *dialog.Document {
	t.Helper()
	g := dialog.New()
	for _, step := range []struct{ id, q string }{
		{"start", "Open the door?"},
		{"room1", "A monster!"},
	} {
		if err := g.AddScene(step.id, step.q); err != nil {
			t.Fatal(err)
		}
	}
	if err := g.AppendAnswer("start", "Yes", "room1"); err != nil {
		t.Fatal(err)
	}
	if err := g.AppendAnswer("start", "No", ""); err != nil {
		t.Fatal(err)
	}
	return g.Document()
}
