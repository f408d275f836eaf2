package memory

import (
	"context"
	"fmt"
	"strings"

	"github.com/mitchellh/mapstructure"
	"github.com/whitehatjr1001/cine-brain/pkg/ports"
	"github.com/whitehatjr1001/cine-brain/pkg/registry"
)

// ToolName is the name of the memory lookup tool.
const ToolName = "memory_search"

// Tool exposes Search to step execution. The user is taken from the step
// attached to the context, falling back to defaultUser.
func (m *Manager) Tool(defaultUser string) registry.Tool {
	return registry.Tool{
		Name:        ToolName,
		Description: "Look up facts remembered about the user from earlier conversations.",
		Schema: `{
			"type": "object",
			"required": ["query"],
			"properties": {"query": {"type": "string", "minLength": 1}},
			"additionalProperties": false
		}`,
		Fn: func(ctx context.Context, raw map[string]any) (string, error) {
			var args struct {
				Query string `mapstructure:"query"`
			}
			if err := mapstructure.Decode(raw, &args); err != nil {
				return "", fmt.Errorf("invalid arguments: %w", err)
			}
			user := defaultUser
			if task, ok := ports.TaskFrom(ctx); ok && task.UserID != "" {
				user = task.UserID
			}
			facts, err := m.Search(ctx, user, args.Query)
			if err != nil {
				return "", err
			}
			if len(facts) == 0 {
				return "No memories found.", nil
			}
			return "- " + strings.Join(facts, "\n- "), nil
		},
	}
}
