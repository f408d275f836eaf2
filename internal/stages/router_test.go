package stages_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/whitehatjr1001/cine-brain/internal/stages"
	"github.com/whitehatjr1001/cine-brain/pkg/domain"
	"github.com/whitehatjr1001/cine-brain/pkg/ports"
)

func TestLLMClassifier(t *testing.T) {
	pending := domain.ConversationState{Messages: []domain.Message{domain.Human("make me a trailer")}}

	tests := []struct {
		name    string
		reply   string
		want    domain.Route
		wantErr error
	}{
		{"video", `{"route": "video", "reason": "asks for a clip"}`, domain.RouteVideo, nil},
		{"audio in fence", "```json\n{\"route\": \"Audio\"}\n```", domain.RouteAudio, nil},
		{"conversation", `{"route": "conversation"}`, domain.RouteConversation, nil},
		{"unknown label", `{"route": "image"}`, domain.RouteTerminal, nil},
		{"not json", "video please", domain.RouteTerminal, domain.ErrDecode},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gen := newGenerator().reply("route", tt.reply)
			route, err := stages.NewLLMClassifier(gen).Classify(context.Background(), pending)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				require.NoError(t, err)
			}
			assert.Equal(t, tt.want, route)
		})
	}
}

func TestLLMClassifier_AnsweredTurnIsTerminal(t *testing.T) {
	gen := newGenerator().reply("route", `{"route": "conversation"}`)
	state := domain.ConversationState{Messages: []domain.Message{domain.Human("hi"), domain.Assistant("hello")}}

	route, err := stages.NewLLMClassifier(gen).Classify(context.Background(), state)
	require.NoError(t, err)

	assert.Equal(t, domain.RouteTerminal, route)
	assert.Zero(t, gen.count("route"))
}

func TestLLMClassifier_GeneratorError(t *testing.T) {
	boom := errors.New("boom")
	gen := newGenerator().on("route", func(int, ports.GenerateRequest) (string, error) { return "", boom })
	state := domain.ConversationState{Messages: []domain.Message{domain.Human("hi")}}

	route, err := stages.NewLLMClassifier(gen).Classify(context.Background(), state)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, domain.RouteTerminal, route)
}
