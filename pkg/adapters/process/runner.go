// Package process runs allow-listed local commands as research tools.
//
// Tool arguments never reach the command line. Each argument is passed as an
// environment variable CINEBRAIN_ARG_<NAME>, so a model cannot inject flags.
package process

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os/exec"
	"sort"
	"strings"
	"time"

	"github.com/whitehatjr1001/cine-brain/internal/logging"
	"github.com/whitehatjr1001/cine-brain/pkg/registry"
)

// EnvPrefix prefixes the environment variables carrying tool arguments.
const EnvPrefix = "CINEBRAIN_ARG_"

// MaxOutput caps the stdout returned to the model.
const MaxOutput = 32 * 1024

// Runner builds registry tools that execute local processes.
type Runner struct {
	baseDir string
	timeout time.Duration
	logger  *slog.Logger
}

// RunnerOption configures the runner.
type RunnerOption func(*Runner)

// WithBaseDir sets the working directory for executed processes.
func WithBaseDir(dir string) RunnerOption {
	return func(r *Runner) {
		r.baseDir = dir
	}
}

// WithTimeout bounds every execution. Zero leaves the caller's context alone.
func WithTimeout(d time.Duration) RunnerOption {
	return func(r *Runner) {
		r.timeout = d
	}
}

// WithLogger sets a custom structured logger.
func WithLogger(logger *slog.Logger) RunnerOption {
	return func(r *Runner) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// NewRunner creates a new process runner.
func NewRunner(opts ...RunnerOption) *Runner {
	r := &Runner{logger: logging.NewNop()}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Tools turns command configs into registry tools.
func (r *Runner) Tools(configs ...Config) []registry.Tool {
	tools := make([]registry.Tool, 0, len(configs))
	for _, c := range configs {
		c := c
		desc := c.Description
		if desc == "" {
			desc = "Runs " + c.Command
		}
		tools = append(tools, registry.Tool{
			Name:        c.Name,
			Description: desc,
			Schema:      c.Schema,
			Fn: func(ctx context.Context, args map[string]any) (string, error) {
				return r.Execute(ctx, c, args)
			},
		})
	}
	return tools
}

// Execute runs the command of c with args in its environment and returns
// the trimmed stdout. A JSON document on stdout is re-encoded compactly.
func (r *Runner) Execute(ctx context.Context, c Config, args map[string]any) (string, error) {
	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, c.Command, c.Args...)
	cmd.Dir = r.baseDir
	cmd.Env = append(cmd.Environ(), environment(c.Environment, args)...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	err := cmd.Run()
	r.logger.Debug("process tool finished", "tool", c.Name, "duration", time.Since(start), "error", err)
	if err != nil {
		if ctx.Err() != nil {
			return "", fmt.Errorf("process %s: %w", c.Name, ctx.Err())
		}
		return "", fmt.Errorf("process %s failed: %w: %s", c.Name, err, strings.TrimSpace(stderr.String()))
	}

	out := strings.TrimSpace(stdout.String())
	if len(out) > MaxOutput {
		out = out[:MaxOutput]
	}
	if json.Valid([]byte(out)) && (strings.HasPrefix(out, "{") || strings.HasPrefix(out, "[")) {
		var buf bytes.Buffer
		if err := json.Compact(&buf, []byte(out)); err == nil {
			return buf.String(), nil
		}
	}
	return out, nil
}

// environment renders static variables and tool arguments as KEY=value
// pairs, sorted for a stable process environment.
func environment(static map[string]string, args map[string]any) []string {
	env := make([]string, 0, len(static)+len(args))
	for k, v := range static {
		env = append(env, k+"="+v)
	}
	for k, v := range args {
		var val string
		switch v := v.(type) {
		case nil:
		case string:
			val = v
		case int, int64, float64, bool, json.Number:
			val = fmt.Sprintf("%v", v)
		default:
			if raw, err := json.Marshal(v); err == nil {
				val = string(raw)
			} else {
				val = fmt.Sprintf("%v", v)
			}
		}
		env = append(env, EnvPrefix+strings.ToUpper(k)+"="+val)
	}
	sort.Strings(env)
	return env
}
