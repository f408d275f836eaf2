package process

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// Config declares a command exposed as a tool.
type Config struct {
	Name        string            `yaml:"name"`
	Description string            `yaml:"description"`
	Command     string            `yaml:"command"`
	Args        []string          `yaml:"args"`
	Environment map[string]string `yaml:"env"`
	// Schema is the JSON schema of the tool arguments.
	Schema string `yaml:"schema"`
}

// LoadTools reads the command tools of a YAML tool catalogue. Entries without
// a command are ignored; they adjust built-in tools instead.
func LoadTools(data []byte) ([]Config, error) {
	var doc struct {
		Tools []Config `yaml:"tools"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse tool catalogue: %w", err)
	}
	var out []Config
	for _, c := range doc.Tools {
		if c.Command == "" {
			continue
		}
		if c.Name == "" {
			return nil, fmt.Errorf("command tool %q has no name", c.Command)
		}
		out = append(out, c)
	}
	return out, nil
}
