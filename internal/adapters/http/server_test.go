package http

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arborlabs/arbor"
	"github.com/arborlabs/arbor/internal/logging"
	"github.com/arborlabs/arbor/pkg/adapters/memory"
)

const storyJSON = `{
  "intro": {
    "id": "intro",
    "question": "A fork in the road. Which way?",
    "answers": [
      {"text": "Into the cave", "next_id": "cave"},
      {"text": "Turn back", "next_id": null}
    ]
  },
  "cave": {
    "id": "cave",
    "question": "The cave is dark. Light a torch?",
    "answers": [
      {"text": "Yes", "next_id": null}
    ]
  }
}`

func newTestHandler(t *testing.T) http.Handler {
	t.Helper()
	svc := arbor.New(memory.NewGraphStore())
	return NewHandler(svc, logging.NewNop())
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body == "" {
		reader = bytes.NewReader(nil)
	} else {
		reader = bytes.NewReader([]byte(body))
	}
	req := httptest.NewRequest(method, path, reader)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func TestHealth(t *testing.T) {
	rr := do(t, newTestHandler(t), "GET", "/healthz", "")

	assert.Equal(t, http.StatusOK, rr.Code)

	var resp map[string]string
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, "ok", resp["status"])
	assert.NotEmpty(t, resp["version"])
}

func TestGraphLifecycle(t *testing.T) {
	h := newTestHandler(t)

	rr := do(t, h, "PUT", "/graphs/story", storyJSON)
	assert.Equal(t, http.StatusNoContent, rr.Code)

	rr = do(t, h, "GET", "/graphs/", "")
	assert.Equal(t, http.StatusOK, rr.Code)
	var list map[string][]string
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &list))
	assert.Equal(t, []string{"story"}, list["graphs"])

	rr = do(t, h, "GET", "/graphs/story", "")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"intro"`)

	rr = do(t, h, "DELETE", "/graphs/story", "")
	assert.Equal(t, http.StatusNoContent, rr.Code)

	rr = do(t, h, "GET", "/graphs/story", "")
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestSaveGraph_RejectsMalformedDocument(t *testing.T) {
	h := newTestHandler(t)

	// An answer without text is structurally invalid.
	rr := do(t, h, "PUT", "/graphs/bad", `{"a": {"question": "Q?", "answers": [{"next_id": null}]}}`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, rr.Body.String(), "invalid document")
}

func TestValidateGraph(t *testing.T) {
	h := newTestHandler(t)

	dangling := `{"a": {"question": "Q?", "answers": [{"text": "go", "next_id": "missing"}]}}`
	rr := do(t, h, "PUT", "/graphs/broken", dangling)
	require.Equal(t, http.StatusNoContent, rr.Code)

	rr = do(t, h, "POST", "/graphs/broken/validate", "")
	assert.Equal(t, http.StatusOK, rr.Code)

	var resp struct {
		Valid  bool `json:"valid"`
		Issues []struct {
			Severity string `json:"severity"`
			SceneID  string `json:"scene_id"`
		} `json:"issues"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.False(t, resp.Valid)
	require.Len(t, resp.Issues, 1)
	assert.Equal(t, "error", resp.Issues[0].Severity)
	assert.Equal(t, "a", resp.Issues[0].SceneID)
}

func TestMermaid(t *testing.T) {
	h := newTestHandler(t)
	require.Equal(t, http.StatusNoContent, do(t, h, "PUT", "/graphs/story", storyJSON).Code)

	rr := do(t, h, "GET", "/graphs/story/mermaid?start=intro", "")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.True(t, strings.HasPrefix(rr.Body.String(), "graph TD"))
	assert.Contains(t, rr.Body.String(), "intro")
}

func TestSessionFlow(t *testing.T) {
	h := newTestHandler(t)
	require.Equal(t, http.StatusNoContent, do(t, h, "PUT", "/graphs/story", storyJSON).Code)

	rr := do(t, h, "POST", "/sessions/", `{"graph": "story", "start": "intro"}`)
	require.Equal(t, http.StatusCreated, rr.Code)

	var created struct {
		SessionID string `json:"session_id"`
		View      struct {
			SceneID string `json:"scene_id"`
			Choices []struct {
				Index int    `json:"index"`
				Text  string `json:"text"`
			} `json:"choices"`
			Ended bool `json:"ended"`
		} `json:"view"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &created))
	assert.NotEmpty(t, created.SessionID)
	assert.Equal(t, "intro", created.View.SceneID)
	assert.Len(t, created.View.Choices, 2)

	rr = do(t, h, "POST", "/sessions/"+created.SessionID+"/choose", `{"index": 0}`)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"cave"`)

	// Out of range leaves the session in place.
	rr = do(t, h, "POST", "/sessions/"+created.SessionID+"/choose", `{"index": 42}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)

	rr = do(t, h, "GET", "/sessions/"+created.SessionID, "")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"cave"`)

	rr = do(t, h, "POST", "/sessions/"+created.SessionID+"/choose", `{"index": 0}`)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"ended":true`)

	// Choosing after the end conflicts.
	rr = do(t, h, "POST", "/sessions/"+created.SessionID+"/choose", `{"index": 0}`)
	assert.Equal(t, http.StatusConflict, rr.Code)

	rr = do(t, h, "DELETE", "/sessions/"+created.SessionID, "")
	assert.Equal(t, http.StatusNoContent, rr.Code)

	rr = do(t, h, "GET", "/sessions/"+created.SessionID, "")
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestStartSession_Errors(t *testing.T) {
	h := newTestHandler(t)
	require.Equal(t, http.StatusNoContent, do(t, h, "PUT", "/graphs/story", storyJSON).Code)

	rr := do(t, h, "POST", "/sessions/", `{"graph": "story"}`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = do(t, h, "POST", "/sessions/", `{"graph": "nope", "start": "intro"}`)
	assert.Equal(t, http.StatusNotFound, rr.Code)

	rr = do(t, h, "POST", "/sessions/", `{"graph": "story", "start": "ghost"}`)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	h := newTestHandler(t)
	require.Equal(t, http.StatusNoContent, do(t, h, "PUT", "/graphs/story", storyJSON).Code)
	require.Equal(t, http.StatusCreated, do(t, h, "POST", "/sessions/", `{"graph": "story", "start": "intro"}`).Code)

	rr := do(t, h, "GET", "/metrics", "")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "arbor_sessions_started_total 1")
}
