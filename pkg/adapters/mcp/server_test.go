package mcp

import (
	"context"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arborlabs/arbor"
	"github.com/arborlabs/arbor/internal/logging"
	"github.com/arborlabs/arbor/pkg/adapters/memory"
	"github.com/arborlabs/arbor/pkg/dialog"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()

	g := dialog.New()
	require.NoError(t, g.AddScene("intro", "Which way?"))
	require.NoError(t, g.AddScene("cave", "It is dark here."))
	require.NoError(t, g.AppendAnswer("intro", "Into the cave", "cave"))
	require.NoError(t, g.AppendAnswer("intro", "Give up", ""))
	require.NoError(t, g.AppendAnswer("cave", "Leave", "nowhere"))

	svc := arbor.New(memory.NewGraphStore())
	require.NoError(t, svc.SaveGraph(context.Background(), "story", g.Document()))

	return NewServer(svc, logging.NewNop())
}

func TestStartAndChooseTools(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()

	resp, err := s.handleStartSession(ctx, mcp.CallToolRequest{}, map[string]interface{}{
		"graph": "story",
		"start": "intro",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.SessionID)
	assert.Equal(t, "intro", resp.View.SceneID)
	assert.Len(t, resp.View.Choices, 2)

	// Index arrives as float64 from JSON-RPC clients.
	resp, err = s.handleChoose(ctx, mcp.CallToolRequest{}, map[string]interface{}{
		"session_id": resp.SessionID,
		"index":      float64(0),
	})
	require.NoError(t, err)
	assert.Equal(t, "cave", resp.View.SceneID)

	view, err := s.handleCurrentView(ctx, mcp.CallToolRequest{}, map[string]interface{}{
		"session_id": resp.SessionID,
	})
	require.NoError(t, err)
	assert.Equal(t, "cave", view.View.SceneID)
}

func TestStartTool_MissingArgs(t *testing.T) {
	s := newTestServer(t)

	_, err := s.handleStartSession(context.Background(), mcp.CallToolRequest{}, map[string]interface{}{
		"graph": "story",
	})
	assert.Error(t, err)
}

func TestValidateTool(t *testing.T) {
	s := newTestServer(t)

	resp, err := s.handleValidate(context.Background(), mcp.CallToolRequest{}, map[string]interface{}{
		"graph": "story",
	})
	require.NoError(t, err)

	// The cave exit points at a scene that does not exist.
	assert.False(t, resp.Valid)
	require.NotEmpty(t, resp.Issues)
	assert.Equal(t, dialog.SeverityError, resp.Issues[0].Severity)
	assert.Equal(t, "cave", resp.Issues[0].SceneID)
}
