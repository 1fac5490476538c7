package arbor_test

import (
	"context"
	"errors"
	"testing"

	"github.com/arborlabs/arbor"
	"github.com/arborlabs/arbor/pkg/adapters/memory"
	"github.com/arborlabs/arbor/pkg/dialog"
	"github.com/arborlabs/arbor/pkg/playback"
)

func storyDocument(t *testing.T) *dialog.Document {
	t.Helper()

	g := dialog.New()
	if err := g.AddScene("intro", "A fork in the road. Which way?"); err != nil {
		t.Fatal(err)
	}
	if err := g.AddScene("cave", "The cave is dark. Light a torch?"); err != nil {
		t.Fatal(err)
	}
	if err := g.AppendAnswer("intro", "Into the cave", "cave"); err != nil {
		t.Fatal(err)
	}
	if err := g.AppendAnswer("intro", "Turn back", ""); err != nil {
		t.Fatal(err)
	}
	if err := g.AppendAnswer("cave", "Yes", ""); err != nil {
		t.Fatal(err)
	}
	return g.Document()
}

func TestService_Integration(t *testing.T) {
	ctx := context.Background()
	svc := arbor.New(memory.NewGraphStore())

	if err := svc.SaveGraph(ctx, "story", storyDocument(t)); err != nil {
		t.Fatalf("SaveGraph failed: %v", err)
	}

	names, err := svc.ListGraphs(ctx)
	if err != nil {
		t.Fatalf("ListGraphs failed: %v", err)
	}
	if len(names) != 1 || names[0] != "story" {
		t.Errorf("expected [story], got %v", names)
	}

	issues, err := svc.Validate(ctx, "story", "intro")
	if err != nil {
		t.Fatalf("Validate failed: %v", err)
	}
	if dialog.HasErrors(issues) {
		t.Errorf("expected a clean graph, got issues: %v", issues)
	}

	id, view, err := svc.StartSession(ctx, "story", "intro")
	if err != nil {
		t.Fatalf("StartSession failed: %v", err)
	}
	if id == "" {
		t.Fatal("expected a generated session ID")
	}
	if view.SceneID != "intro" || len(view.Choices) != 2 {
		t.Errorf("unexpected initial view: %+v", view)
	}

	view, err = svc.Choose(ctx, id, 0)
	if err != nil {
		t.Fatalf("Choose failed: %v", err)
	}
	if view.SceneID != "cave" || view.Ended {
		t.Errorf("expected active session at 'cave', got %+v", view)
	}

	// The session survives independently of the in-process object.
	view, err = svc.CurrentView(ctx, id)
	if err != nil {
		t.Fatalf("CurrentView failed: %v", err)
	}
	if view.SceneID != "cave" {
		t.Errorf("expected persisted position 'cave', got %q", view.SceneID)
	}

	view, err = svc.Choose(ctx, id, 0)
	if err != nil {
		t.Fatalf("Choose failed: %v", err)
	}
	if !view.Ended {
		t.Errorf("expected ended session, got %+v", view)
	}

	if _, err := svc.Choose(ctx, id, 0); !errors.Is(err, playback.ErrSessionEnded) {
		t.Errorf("expected ErrSessionEnded, got %v", err)
	}

	if err := svc.EndSession(ctx, id); err != nil {
		t.Fatalf("EndSession failed: %v", err)
	}
	if _, err := svc.CurrentView(ctx, id); !errors.Is(err, playback.ErrSessionNotFound) {
		t.Errorf("expected ErrSessionNotFound after EndSession, got %v", err)
	}
}

func TestService_StartSession_Errors(t *testing.T) {
	ctx := context.Background()
	svc := arbor.New(memory.NewGraphStore())

	if _, _, err := svc.StartSession(ctx, "nope", "intro"); !errors.Is(err, dialog.ErrDocumentNotFound) {
		t.Errorf("expected ErrDocumentNotFound, got %v", err)
	}

	if err := svc.SaveGraph(ctx, "story", storyDocument(t)); err != nil {
		t.Fatal(err)
	}
	if _, _, err := svc.StartSession(ctx, "story", "ghost"); !errors.Is(err, dialog.ErrSceneNotFound) {
		t.Errorf("expected ErrSceneNotFound, got %v", err)
	}
}

func TestService_Choose_OutOfRangeKeepsState(t *testing.T) {
	ctx := context.Background()
	svc := arbor.New(memory.NewGraphStore())
	if err := svc.SaveGraph(ctx, "story", storyDocument(t)); err != nil {
		t.Fatal(err)
	}

	id, _, err := svc.StartSession(ctx, "story", "intro")
	if err != nil {
		t.Fatal(err)
	}

	if _, err := svc.Choose(ctx, id, 99); !errors.Is(err, dialog.ErrChoiceOutOfRange) {
		t.Fatalf("expected ErrChoiceOutOfRange, got %v", err)
	}

	view, err := svc.CurrentView(ctx, id)
	if err != nil {
		t.Fatal(err)
	}
	if view.SceneID != "intro" || view.Ended {
		t.Errorf("bad choice must not move the session, got %+v", view)
	}
}

func TestService_DeleteGraph_EndsSessionsOnNextStep(t *testing.T) {
	ctx := context.Background()
	svc := arbor.New(memory.NewGraphStore())
	if err := svc.SaveGraph(ctx, "story", storyDocument(t)); err != nil {
		t.Fatal(err)
	}

	id, _, err := svc.StartSession(ctx, "story", "intro")
	if err != nil {
		t.Fatal(err)
	}
	if err := svc.DeleteGraph(ctx, "story"); err != nil {
		t.Fatal(err)
	}

	if _, err := svc.CurrentView(ctx, id); !errors.Is(err, dialog.ErrDocumentNotFound) {
		t.Errorf("expected ErrDocumentNotFound for orphaned session, got %v", err)
	}
}
