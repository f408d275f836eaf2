package http

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/whitehatjr1001/cine-brain"
	"github.com/whitehatjr1001/cine-brain/internal/testutils"
	"github.com/whitehatjr1001/cine-brain/pkg/domain"
	"github.com/whitehatjr1001/cine-brain/pkg/observability"
)

func newServer(t *testing.T) *httptest.Server {
	t.Helper()
	metrics := observability.NewMetrics()
	eng, err := cinebrain.New(context.Background(), testutils.Config(),
		cinebrain.WithGenerator(testutils.ResearchGenerator("cast")),
		cinebrain.WithClassifier(testutils.Conversation()),
		cinebrain.WithMetrics(metrics),
	)
	require.NoError(t, err)
	srv := httptest.NewServer(NewHandler(eng, WithMetrics(metrics.Handler())))
	t.Cleanup(func() {
		srv.Close()
		_ = eng.Close()
	})
	return srv
}

func post(t *testing.T, url, message string) (*http.Response, TurnResponse) {
	t.Helper()
	body, _ := json.Marshal(TurnRequest{Message: message})
	resp, err := http.Post(url, "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	var out TurnResponse
	if resp.StatusCode == http.StatusOK {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	}
	return resp, out
}

func TestTurnLifecycle(t *testing.T) {
	srv := newServer(t)

	resp, out := post(t, srv.URL+"/sessions/s1/run", "Research Heat")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, domain.OutcomeSuspended, out.Outcome.Status)
	require.NotNil(t, out.Diff)
	assert.Equal(t, "s1", out.Diff.SessionID)
	assert.Len(t, out.Diff.Messages, 2, "the request and the presented plan")

	resp, _ = post(t, srv.URL+"/sessions/s1/run", "again")
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	resp, out = post(t, srv.URL+"/sessions/s1/resume", "[ACCEPTED]")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, domain.OutcomeCompleted, out.Outcome.Status)
	assert.Equal(t, "# Report\n\nAll done.", out.Outcome.Artifact)
	assert.Equal(t, "# Report\n\nAll done.", out.Diff.Changed["final_report"])

	resp, _ = post(t, srv.URL+"/sessions/s1/resume", "")
	assert.Equal(t, http.StatusConflict, resp.StatusCode, "not suspended anymore")

	resp, _ = post(t, srv.URL+"/sessions/nope/resume", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestCreateSession(t *testing.T) {
	srv := newServer(t)

	resp, out := post(t, srv.URL+"/sessions", "Research Heat")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, out.Outcome.SessionID, 36)
}

func TestSessionRoutes(t *testing.T) {
	srv := newServer(t)
	post(t, srv.URL+"/sessions/s1/run", "Research Heat")

	resp, err := http.Get(srv.URL + "/sessions")
	require.NoError(t, err)
	var list map[string][]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&list))
	resp.Body.Close()
	assert.Equal(t, []string{"s1"}, list["sessions"])

	resp, err = http.Get(srv.URL + "/sessions/s1")
	require.NoError(t, err)
	var cp domain.Checkpoint
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&cp))
	resp.Body.Close()
	assert.Equal(t, "human_feedback", cp.Stage)

	req, _ := http.NewRequest(http.MethodDelete, srv.URL+"/sessions/s1", nil)
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp, err = http.Get(srv.URL + "/sessions/s1")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestRejectsBadInput(t *testing.T) {
	srv := newServer(t)

	resp, err := http.Post(srv.URL+"/sessions/s1/run", "application/json", strings.NewReader("{"))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = post(t, srv.URL+"/sessions/s1/run", strings.Repeat("x", 5000))
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestInfoGraphMetrics(t *testing.T) {
	srv := newServer(t)

	resp, err := http.Get(srv.URL + "/info")
	require.NoError(t, err)
	var info map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&info))
	resp.Body.Close()
	assert.Equal(t, strings.TrimSpace(cinebrain.Version), info["version"])

	resp, err = http.Get(srv.URL + "/graph")
	require.NoError(t, err)
	var graph struct {
		Entry string           `json:"entry"`
		Edges []map[string]any `json:"edges"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&graph))
	resp.Body.Close()
	assert.Equal(t, "inject_memory", graph.Entry)
	assert.NotEmpty(t, graph.Edges)

	post(t, srv.URL+"/sessions/s1/run", "Research Heat")
	resp, err = http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	var buf bytes.Buffer
	_, _ = buf.ReadFrom(resp.Body)
	assert.Contains(t, buf.String(), `cinebrain_turns_total{status="suspended"} 1`)
}

func TestSubscribeEvents_Session(t *testing.T) {
	srv := newServer(t)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/sessions/s1/events?watch=messages", nil)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	reader := bufio.NewReader(resp.Body)
	line, err := reader.ReadString('\n')
	require.NoError(t, err)
	assert.Equal(t, "event: ping\n", line)
	_, _ = reader.ReadString('\n')
	_, _ = reader.ReadString('\n')

	go func() {
		resp, err := http.Post(srv.URL+"/sessions/s1/run", "application/json", strings.NewReader(`{"message": "Research Heat"}`))
		if err == nil {
			resp.Body.Close()
		}
	}()

	line, err = reader.ReadString('\n')
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(line, "data: "), line)
	var diff domain.StateDiff
	require.NoError(t, json.Unmarshal([]byte(strings.TrimPrefix(line, "data: ")), &diff))
	assert.Equal(t, "s1", diff.SessionID)
	assert.NotEmpty(t, diff.Messages)
}

func TestStreamManager_DropsForSlowClients(t *testing.T) {
	sm := NewStreamManager()
	ch, cancel := sm.Subscribe("s")
	for i := 0; i < 20; i++ {
		sm.Broadcast("s", "m")
	}
	assert.Len(t, ch, 10)
	cancel()
	sm.Broadcast("s", "after")
}
