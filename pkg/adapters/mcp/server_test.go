package mcp

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/client"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/whitehatjr1001/cine-brain"
	"github.com/whitehatjr1001/cine-brain/internal/testutils"
	"github.com/whitehatjr1001/cine-brain/pkg/domain"
)

func newClient(t *testing.T) *client.Client {
	t.Helper()
	ctx := context.Background()
	eng, err := cinebrain.New(ctx, testutils.Config(),
		cinebrain.WithGenerator(testutils.ResearchGenerator("cast")),
		cinebrain.WithClassifier(testutils.Conversation()),
	)
	require.NoError(t, err)

	c, err := client.NewInProcessClient(NewServer(eng, nil).MCPServer())
	require.NoError(t, err)
	require.NoError(t, c.Start(ctx))
	_, err = c.Initialize(ctx, mcp.InitializeRequest{Params: mcp.InitializeParams{
		ProtocolVersion: mcp.LATEST_PROTOCOL_VERSION,
		ClientInfo:      mcp.Implementation{Name: "test", Version: "0"},
	}})
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = c.Close()
		_ = eng.Close()
	})
	return c
}

func call(t *testing.T, c *client.Client, tool string, args map[string]any) *mcp.CallToolResult {
	t.Helper()
	res, err := c.CallTool(context.Background(), mcp.CallToolRequest{
		Params: mcp.CallToolParams{Name: tool, Arguments: args},
	})
	require.NoError(t, err)
	return res
}

func turnResult(t *testing.T, res *mcp.CallToolResult) TurnResult {
	t.Helper()
	require.False(t, res.IsError, "tool returned an error: %v", res.Content)
	raw, err := json.Marshal(res.StructuredContent)
	require.NoError(t, err)
	var out TurnResult
	require.NoError(t, json.Unmarshal(raw, &out))
	return out
}

func TestTurnTools(t *testing.T) {
	c := newClient(t)

	out := turnResult(t, call(t, c, "run_turn", map[string]any{"message": "Research Heat"}))
	assert.NotEmpty(t, out.SessionID, "a session id is generated")
	assert.Equal(t, string(domain.OutcomeSuspended), out.Status)
	assert.Equal(t, "human_feedback", out.Stage)
	assert.Contains(t, out.Prompt, "[ACCEPTED]")

	out = turnResult(t, call(t, c, "resume_turn", map[string]any{"session_id": out.SessionID, "message": "[ACCEPTED]"}))
	assert.Equal(t, string(domain.OutcomeCompleted), out.Status)
	assert.Equal(t, "# Report\n\nAll done.", out.Artifact)

	res := call(t, c, "get_session", map[string]any{"session_id": out.SessionID})
	require.False(t, res.IsError)
	text, ok := mcp.AsTextContent(res.Content[0])
	require.True(t, ok)
	var cp domain.Checkpoint
	require.NoError(t, json.Unmarshal([]byte(text.Text), &cp))
	assert.Equal(t, out.SessionID, cp.SessionID)
}

func TestTurnTools_Errors(t *testing.T) {
	c := newClient(t)

	res := call(t, c, "resume_turn", map[string]any{"session_id": "", "message": "[ACCEPTED]"})
	assert.True(t, res.IsError)

	res = call(t, c, "resume_turn", map[string]any{"session_id": "ghost", "message": "[ACCEPTED]"})
	assert.True(t, res.IsError)

	res = call(t, c, "run_turn", map[string]any{"message": strings.Repeat("x", 5*1024*1024)})
	assert.True(t, res.IsError, "oversized input is rejected")

	res = call(t, c, "get_session", map[string]any{"session_id": "ghost"})
	assert.True(t, res.IsError)
}

func TestResources(t *testing.T) {
	c := newClient(t)
	ctx := context.Background()
	turnResult(t, call(t, c, "run_turn", map[string]any{"session_id": "s1", "message": "Research Heat"}))

	read := func(uri string) string {
		res, err := c.ReadResource(ctx, mcp.ReadResourceRequest{Params: mcp.ReadResourceParams{URI: uri}})
		require.NoError(t, err)
		require.Len(t, res.Contents, 1)
		text, ok := mcp.AsTextResourceContents(res.Contents[0])
		require.True(t, ok)
		return text.Text
	}

	var ids []string
	require.NoError(t, json.Unmarshal([]byte(read(SessionsURI)), &ids))
	assert.Equal(t, []string{"s1"}, ids)

	var graph struct {
		Entry string            `json:"entry"`
		Edges []json.RawMessage `json:"edges"`
	}
	require.NoError(t, json.Unmarshal([]byte(read(GraphURI)), &graph))
	assert.Equal(t, "inject_memory", graph.Entry)
	assert.NotEmpty(t, graph.Edges)
}
