package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) string {
	t.Helper()
	dir := t.TempDir()
	cfg := filepath.Join(dir, "cinebrain.yaml")
	require.NoError(t, os.WriteFile(cfg, []byte("log_level: error\nstore:\n  backend: memory\nmemory:\n  backend: none\n"), 0o644))

	buf := &bytes.Buffer{}
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs(append(args, "--config", cfg))
	require.NoError(t, rootCmd.Execute())
	return buf.String()
}

func TestVersionCommand(t *testing.T) {
	assert.True(t, strings.HasPrefix(execute(t, "version"), "cinebrain version "))
}

func TestGraphCommand(t *testing.T) {
	out := execute(t, "graph")
	assert.True(t, strings.HasPrefix(out, "graph TD\n"))
	assert.Contains(t, out, `inject_memory(("inject_memory"))`)
	assert.Contains(t, out, `human_feedback[/"human_feedback"/]`)
}

func TestValidateCommand(t *testing.T) {
	out := execute(t, "validate")
	assert.Contains(t, out, `entry "inject_memory"`)
	assert.Contains(t, out, "fetch_page")
}

func TestSessionLsCommand(t *testing.T) {
	assert.Contains(t, execute(t, "session", "ls"), "No sessions found.")
}
