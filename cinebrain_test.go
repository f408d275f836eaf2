package cinebrain_test

import (
	"context"
	"encoding/base64"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/whitehatjr1001/cine-brain"
	"github.com/whitehatjr1001/cine-brain/internal/testutils"
	memoryAdapter "github.com/whitehatjr1001/cine-brain/pkg/adapters/memory"
	"github.com/whitehatjr1001/cine-brain/pkg/domain"
	"github.com/whitehatjr1001/cine-brain/pkg/observability"
	"github.com/whitehatjr1001/cine-brain/pkg/ports"
	"github.com/whitehatjr1001/cine-brain/pkg/registry"
)

func newEngine(t *testing.T, gen ports.Generator, opts ...cinebrain.Option) *cinebrain.Engine {
	t.Helper()
	opts = append([]cinebrain.Option{
		cinebrain.WithGenerator(gen),
		cinebrain.WithClassifier(testutils.Conversation()),
	}, opts...)
	eng, err := cinebrain.New(context.Background(), testutils.Config(), opts...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = eng.Close() })
	return eng
}

func TestEngine_ResearchTurn(t *testing.T) {
	ctx := context.Background()
	metrics := observability.NewMetrics()
	eng := newEngine(t, testutils.ResearchGenerator("cast", "box office"), cinebrain.WithMetrics(metrics))

	out, err := eng.Run(ctx, "s1", "Research the film Heat")
	require.NoError(t, err)
	require.Equal(t, domain.OutcomeSuspended, out.Status)
	assert.Equal(t, "human_feedback", out.Stage)
	assert.Contains(t, out.Prompt, "[ACCEPTED]")

	_, err = eng.Run(ctx, "s1", "again")
	assert.ErrorIs(t, err, domain.ErrSessionSuspended)

	out, err = eng.Resume(ctx, "s1", "[ACCEPTED]")
	require.NoError(t, err)
	assert.Equal(t, domain.OutcomeCompleted, out.Status)
	assert.Equal(t, "# Report\n\nAll done.", out.Artifact)

	cp, err := eng.Inspect(ctx, "s1")
	require.NoError(t, err)
	require.NotNil(t, cp.State.Plan)
	for _, step := range cp.State.Plan.Steps {
		assert.Equal(t, domain.StepCompleted, step.Status)
		assert.Equal(t, "findings", step.ExecutionResult)
	}

	assert.Equal(t, 2, testutil.CollectAndCount(metrics.Registry(), "cinebrain_turns_total"),
		"one suspended and one completed series")
	assert.Equal(t, 1, testutil.CollectAndCount(metrics.Registry(), "cinebrain_suspensions_total"))
}

func TestEngine_SendResumesSuspendedSessions(t *testing.T) {
	ctx := context.Background()
	eng := newEngine(t, testutils.ResearchGenerator("cast"))

	out, err := eng.Send(ctx, "s2", "Who directed Heat?")
	require.NoError(t, err)
	require.Equal(t, domain.OutcomeSuspended, out.Status)

	out, err = eng.Send(ctx, "s2", "[accepted]")
	require.NoError(t, err)
	assert.Equal(t, domain.OutcomeCompleted, out.Status)
}

func TestEngine_Sessions(t *testing.T) {
	ctx := context.Background()
	gen := testutils.NewGenerator().On("coordinate", `{"handoff_to_planner": false, "reply": "Hello!"}`)
	eng := newEngine(t, gen)

	out, err := eng.Run(ctx, "chat", "hi")
	require.NoError(t, err)
	assert.Equal(t, "Hello!", out.Artifact)

	ids, err := eng.Sessions(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"chat"}, ids)

	require.NoError(t, eng.Delete(ctx, "chat"))
	_, err = eng.Inspect(ctx, "chat")
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
}

func TestEngine_WithoutCapabilities(t *testing.T) {
	eng, err := cinebrain.New(context.Background(), testutils.Config())
	require.NoError(t, err)
	defer eng.Close()

	out, err := eng.Run(context.Background(), "s", "hello")
	require.NoError(t, err)
	assert.Equal(t, domain.OutcomeCompleted, out.Status)
	assert.Equal(t, domain.WorkflowNone, out.State.Workflow)
	assert.Empty(t, out.Artifact)
	assert.Len(t, out.State.Messages, 1)
}

func TestEngine_FileStoreAndSQLiteMemory(t *testing.T) {
	dir := t.TempDir()
	cfg := testutils.Config()
	cfg.Store.Backend = "file"
	cfg.Store.Dir = filepath.Join(dir, "sessions")
	cfg.Memory.Backend = "sqlite"
	cfg.Memory.Path = filepath.Join(dir, "memory.db")

	extra := registry.Tool{
		Name: "trivia",
		Fn:   func(context.Context, map[string]any) (string, error) { return "fact", nil },
	}
	eng, err := cinebrain.New(context.Background(), cfg,
		cinebrain.WithGenerator(testutils.NewGenerator()),
		cinebrain.WithTools(extra),
	)
	require.NoError(t, err)

	names := []string{}
	for _, spec := range eng.Tools() {
		names = append(names, spec.Name)
	}
	assert.Equal(t, []string{"fetch_page", "memory_search", "trivia"}, names)
	assert.NotEmpty(t, eng.Graph().Stages())
	require.NoError(t, eng.Close())
}

func TestNew_RejectsInvalidConfig(t *testing.T) {
	cfg := testutils.Config()
	cfg.MaxStepNum = 0
	_, err := cinebrain.New(context.Background(), cfg)
	assert.ErrorContains(t, err, "max_step_num")
}

func TestEngine_ProtectedStore(t *testing.T) {
	ctx := context.Background()
	inner := memoryAdapter.NewStore()
	key := make([]byte, 32)
	for i := range key {
		key[i] = byte(i)
	}

	cfg := testutils.Config()
	cfg.Store.EncryptionKey = base64.StdEncoding.EncodeToString(key)
	cfg.Store.Redact = []string{"email"}
	eng, err := cinebrain.New(ctx, cfg,
		cinebrain.WithStore(inner),
		cinebrain.WithGenerator(testutils.ResearchGenerator("cast")),
		cinebrain.WithClassifier(testutils.Conversation()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = eng.Close() })

	_, err = eng.Run(ctx, "s1", "Research Heat and mail me at ann@example.com")
	require.NoError(t, err)

	raw, err := inner.Load(ctx, "s1")
	require.NoError(t, err)
	assert.NotEmpty(t, raw.Sealed)
	assert.Empty(t, raw.State.Messages)

	cp, err := eng.Inspect(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, "Research Heat and mail me at ***", cp.State.Messages[0].Content)

	cfg.Store.EncryptionKey = "not-a-key"
	_, err = cinebrain.New(ctx, cfg, cinebrain.WithStore(inner))
	assert.ErrorContains(t, err, "encryption key")
}

func TestEngine_CommandToolsFromCatalogue(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tools.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
tools:
  - name: fetch_page
    disabled: true
  - name: ratings
    description: Looks up local ratings
    command: ./ratings.sh
`), 0o600))

	cfg := testutils.Config()
	cfg.ToolsFile = path
	eng, err := cinebrain.New(context.Background(), cfg, cinebrain.WithGenerator(testutils.NewGenerator()))
	require.NoError(t, err)
	t.Cleanup(func() { _ = eng.Close() })

	descriptions := map[string]string{}
	for _, spec := range eng.Tools() {
		descriptions[spec.Name] = spec.Description
	}
	assert.Equal(t, "Looks up local ratings", descriptions["ratings"])
	assert.NotContains(t, descriptions, "fetch_page")
}

func TestEngine_InjectedClassifierIsBounded(t *testing.T) {
	cfg := testutils.Config()
	cfg.CapabilityTimeout = 20 * time.Millisecond
	stuck := ports.ClassifierFunc(func(ctx context.Context, _ domain.ConversationState) (domain.Route, error) {
		<-ctx.Done()
		return domain.RouteConversation, ctx.Err()
	})
	eng, err := cinebrain.New(context.Background(), cfg,
		cinebrain.WithGenerator(testutils.ResearchGenerator("cast")),
		cinebrain.WithClassifier(stuck),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = eng.Close() })

	out, err := eng.Run(context.Background(), "slow", "Research Heat")
	require.NoError(t, err)
	assert.Equal(t, domain.OutcomeCompleted, out.Status)
	assert.Equal(t, domain.WorkflowNone, out.State.Workflow)
	assert.Contains(t, strings.Join(out.State.Observations, "\n"), "routing failed")
}
