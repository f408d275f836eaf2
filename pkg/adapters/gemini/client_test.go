package gemini_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/whitehatjr1001/cine-brain/pkg/adapters/gemini"
	"github.com/whitehatjr1001/cine-brain/pkg/domain"
	"github.com/whitehatjr1001/cine-brain/pkg/ports"
)

func newClient(t *testing.T, handler http.HandlerFunc) (*gemini.Client, string) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	dir := t.TempDir()
	c, err := gemini.New(context.Background(), gemini.Config{
		APIKey:    "test-key",
		BaseURL:   srv.URL,
		OutputDir: dir,
	})
	require.NoError(t, err)
	return c, dir
}

func TestGenerate(t *testing.T) {
	var body map[string]any
	c, _ := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.HasSuffix(r.URL.Path, "models/"+gemini.DefaultModel+":generateContent"), r.URL.Path)
		raw, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(raw, &body)
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"candidates": [{"content": {"role": "model", "parts": [{"text": "{\"route\": \"video\"}"}]}}]}`)
	})

	gen, err := c.Generate(context.Background(), ports.GenerateRequest{
		Purpose: "route",
		System:  "be brief",
		Prompt:  "make a trailer",
		Schema:  `{"type": "object"}`,
	})
	require.NoError(t, err)

	assert.Equal(t, `{"route": "video"}`, gen.Text)
	assert.Equal(t, gemini.DefaultModel, gen.Model)
	cfg, _ := body["generationConfig"].(map[string]any)
	assert.Equal(t, "application/json", cfg["responseMimeType"])
	assert.NotNil(t, body["systemInstruction"])
}

func TestGenerate_RateLimitIsTransient(t *testing.T) {
	c, _ := newClient(t, func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, `{"error": {"code": 429, "message": "slow down"}}`, http.StatusTooManyRequests)
	})

	_, err := c.Generate(context.Background(), ports.GenerateRequest{Purpose: "plan", Prompt: "x"})
	require.Error(t, err)
	assert.True(t, domain.IsTransient(err))
}

func TestGenerate_EmptyResponse(t *testing.T) {
	c, _ := newClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, `{"candidates": []}`)
	})

	_, err := c.Generate(context.Background(), ports.GenerateRequest{Purpose: "plan", Prompt: "x"})
	assert.ErrorContains(t, err, "empty response")
}

func TestSynthesize_Audio(t *testing.T) {
	c, dir := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Contains(t, r.URL.Path, gemini.DefaultSpeechModel)
		_, _ = io.WriteString(w, `{"candidates": [{"content": {"role": "model", "parts": [
			{"inlineData": {"mimeType": "audio/L16;codec=pcm;rate=24000", "data": "AAECAw=="}}]}}]}`)
	})

	path, err := c.Synthesize(context.Background(), ports.MediaRequest{Kind: ports.MediaAudio, SessionID: "s1", Prompt: "read this"})
	require.NoError(t, err)

	assert.Equal(t, dir, filepath.Dir(path))
	assert.True(t, strings.HasPrefix(filepath.Base(path), "s1-"))
	assert.Equal(t, ".wav", filepath.Ext(path))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Len(t, data, 48)
	assert.Equal(t, "RIFF", string(data[:4]))
	assert.Equal(t, "WAVE", string(data[8:12]))
	assert.Equal(t, []byte{0, 1, 2, 3}, data[44:])
}

func TestSynthesize_UnknownKind(t *testing.T) {
	c, _ := newClient(t, func(http.ResponseWriter, *http.Request) {})
	_, err := c.Synthesize(context.Background(), ports.MediaRequest{Kind: "hologram"})
	assert.Error(t, err)
}

func TestNew_RequiresKey(t *testing.T) {
	_, err := gemini.New(context.Background(), gemini.Config{})
	assert.ErrorIs(t, err, domain.ErrCapabilityUnavailable)
}
