package capability_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/whitehatjr1001/cine-brain/internal/capability"
	"github.com/whitehatjr1001/cine-brain/pkg/domain"
	"github.com/whitehatjr1001/cine-brain/pkg/ports"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type slowGenerator struct{ delay time.Duration }

func (g slowGenerator) Generate(ctx context.Context, req ports.GenerateRequest) (*ports.Generation, error) {
	select {
	case <-time.After(g.delay):
		return &ports.Generation{Text: "late"}, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func TestGenerator_Timeout(t *testing.T) {
	g := capability.Generator(slowGenerator{delay: time.Second}, 20*time.Millisecond)

	_, err := g.Generate(context.Background(), ports.GenerateRequest{Purpose: "plan"})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrCapabilityUnavailable)
	assert.True(t, domain.IsTransient(err))
	assert.Contains(t, err.Error(), "generate plan")
}

func TestGenerator_PassThrough(t *testing.T) {
	g := capability.Generator(slowGenerator{}, time.Second)

	out, err := g.Generate(context.Background(), ports.GenerateRequest{})
	require.NoError(t, err)
	assert.Equal(t, "late", out.Text)
}

type stuckMemory struct{ release chan struct{} }

// Extract ignores its context entirely.
func (m stuckMemory) Extract(context.Context, string, string) (string, error) {
	<-m.release
	return "facts", nil
}

func (m stuckMemory) Store(context.Context, string, []string) error {
	return errors.New("write refused")
}

func TestMemory_BackendIgnoringContext(t *testing.T) {
	release := make(chan struct{})
	defer close(release)
	mem := capability.Memory(stuckMemory{release: release}, 20*time.Millisecond)

	start := time.Now()
	_, err := mem.Extract(context.Background(), "u", "hi")
	assert.ErrorIs(t, err, domain.ErrCapabilityUnavailable)
	assert.Less(t, time.Since(start), 500*time.Millisecond)

	err = mem.Store(context.Background(), "u", []string{"x"})
	assert.EqualError(t, err, "write refused")
	assert.NotErrorIs(t, err, domain.ErrCapabilityUnavailable)
}

func TestSteps_ParentCancellation(t *testing.T) {
	s := capability.Steps(ports.StepExecutorFunc(func(ctx context.Context, _ ports.StepTask) (string, error) {
		<-ctx.Done()
		return "", ctx.Err()
	}), time.Minute)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := s.ExecuteStep(ctx, ports.StepTask{})
	assert.ErrorIs(t, err, context.Canceled)
	assert.NotErrorIs(t, err, domain.ErrCapabilityUnavailable)
}

func TestClassifier_Timeout(t *testing.T) {
	slow := ports.ClassifierFunc(func(ctx context.Context, _ domain.ConversationState) (domain.Route, error) {
		<-ctx.Done()
		return domain.RouteVideo, ctx.Err()
	})
	c := capability.Classifier(slow, 20*time.Millisecond)

	route, err := c.Classify(context.Background(), domain.ConversationState{})
	assert.ErrorIs(t, err, domain.ErrCapabilityUnavailable)
	assert.Contains(t, err.Error(), "classify")
	assert.Equal(t, domain.RouteTerminal, route)
}

func TestClassifier_PassThrough(t *testing.T) {
	c := capability.Classifier(ports.ClassifierFunc(func(context.Context, domain.ConversationState) (domain.Route, error) {
		return domain.RouteAudio, nil
	}), time.Second)

	route, err := c.Classify(context.Background(), domain.ConversationState{})
	require.NoError(t, err)
	assert.Equal(t, domain.RouteAudio, route)
}
