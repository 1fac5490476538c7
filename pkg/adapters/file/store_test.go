package file_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arborlabs/arbor/pkg/adapters/file"
	"github.com/arborlabs/arbor/pkg/dialog"
	"github.com/arborlabs/arbor/pkg/ports/tests"
)

func TestFileStore_Contract(t *testing.T) {
	tests.RunGraphStoreContract(t, file.New(t.TempDir()))
}

func TestFileStore_RejectsPathTraversal(t *testing.T) {
	store := file.New(t.TempDir())
	g := dialog.New()
	require.NoError(t, g.AddScene("start", "q"))

	for _, name := range []string{"", "../escape", "a/b", ".hidden"} {
		assert.Error(t, store.Save(context.Background(), name, g.Document()), "name %q", name)
	}
}

func TestFileStore_WritesIndentedJSON(t *testing.T) {
	dir := t.TempDir()
	store := file.New(dir)
	g := dialog.New()
	require.NoError(t, g.AddScene("start", "q"))
	require.NoError(t, store.Save(context.Background(), "demo", g.Document()))

	data, err := os.ReadFile(filepath.Join(dir, "demo.json"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "\n  ")
}

func TestFileStore_Watch(t *testing.T) {
	dir := t.TempDir()
	store := file.New(dir)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	events, err := store.Watch(ctx)
	require.NoError(t, err)

	g := dialog.New()
	require.NoError(t, g.AddScene("start", "q"))
	require.NoError(t, store.Save(ctx, "demo", g.Document()))

	select {
	case name := <-events:
		assert.Equal(t, "demo", name)
	case <-time.After(3 * time.Second):
		t.Fatal("timed out waiting for watch event")
	}

	cancel()
	// Channel must close once the context is done.
	select {
	case _, open := <-events:
		if open {
			// Drain a possible trailing event, then expect closure.
			select {
			case _, open = <-events:
				assert.False(t, open)
			case <-time.After(3 * time.Second):
				t.Fatal("channel not closed after cancel")
			}
		}
	case <-time.After(3 * time.Second):
		t.Fatal("channel not closed after cancel")
	}
}
