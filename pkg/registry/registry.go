// Package registry holds the tools available to step execution and validates
// their arguments against JSON schemas before running them.
package registry

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/whitehatjr1001/cine-brain/internal/structured"
	"github.com/whitehatjr1001/cine-brain/pkg/ports"
	"gopkg.in/yaml.v3"
)

// ErrToolNotFound is returned when executing an unregistered tool.
var ErrToolNotFound = errors.New("tool not found")

// ToolFunction defines the signature for a tool implementation.
// Arguments have already been validated against the tool's schema.
type ToolFunction func(ctx context.Context, args map[string]any) (string, error)

// Tool is a named, described and schema-checked function.
type Tool struct {
	Name        string
	Description string
	// Schema is the JSON schema of the arguments. Empty means any object.
	Schema string
	Fn     ToolFunction
}

type entry struct {
	tool   Tool
	schema *structured.Schema
}

// Registry manages the available tools. It implements ports.ToolCatalog.
type Registry struct {
	mu    sync.RWMutex
	tools map[string]entry
}

// NewRegistry creates a new empty registry.
func NewRegistry() *Registry {
	return &Registry{
		tools: make(map[string]entry),
	}
}

// Register adds tools to the registry.
// If a tool with the same name exists, it is overwritten.
func (r *Registry) Register(tools ...Tool) error {
	compiled := make([]entry, 0, len(tools))
	for _, t := range tools {
		if t.Name == "" || t.Fn == nil {
			return fmt.Errorf("tool %q: name and function are required", t.Name)
		}
		raw := t.Schema
		if raw == "" {
			raw = `{"type": "object"}`
		}
		s, err := structured.Compile(t.Name, raw)
		if err != nil {
			return fmt.Errorf("tool %q: %w", t.Name, err)
		}
		t.Schema = raw
		compiled = append(compiled, entry{tool: t, schema: s})
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	for _, e := range compiled {
		r.tools[e.tool.Name] = e
	}
	return nil
}

// MustRegister is Register that panics on invalid schemas.
func (r *Registry) MustRegister(tools ...Tool) *Registry {
	if err := r.Register(tools...); err != nil {
		panic(err)
	}
	return r
}

// ExecuteTool validates args and runs the named tool.
func (r *Registry) ExecuteTool(ctx context.Context, name string, args map[string]any) (string, error) {
	r.mu.RLock()
	e, ok := r.tools[name]
	r.mu.RUnlock()

	if !ok {
		return "", fmt.Errorf("%w: %s", ErrToolNotFound, name)
	}
	if args == nil {
		args = map[string]any{}
	}
	doc, err := normalize(args)
	if err != nil {
		return "", fmt.Errorf("tool %q: invalid arguments: %w", name, err)
	}
	if err := e.schema.Validate(doc); err != nil {
		return "", fmt.Errorf("tool %q: invalid arguments: %w", name, err)
	}
	return e.tool.Fn(ctx, args)
}

// normalize round-trips args through JSON so the validator sees JSON types.
func normalize(args map[string]any) (any, error) {
	raw, err := json.Marshal(args)
	if err != nil {
		return nil, err
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var doc any
	if err := dec.Decode(&doc); err != nil {
		return nil, err
	}
	return doc, nil
}

// Tools lists the registered tools sorted by name.
func (r *Registry) Tools() []ports.ToolSpec {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]ports.ToolSpec, 0, len(r.tools))
	for _, e := range r.tools {
		out = append(out, ports.ToolSpec{Name: e.tool.Name, Description: e.tool.Description, Schema: e.tool.Schema})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Subset returns a registry holding only the named tools that exist.
func (r *Registry) Subset(names ...string) *Registry {
	r.mu.RLock()
	defer r.mu.RUnlock()
	sub := NewRegistry()
	for _, n := range names {
		if e, ok := r.tools[n]; ok {
			sub.tools[n] = e
		}
	}
	return sub
}

// CatalogEntry adjusts one tool from a YAML catalogue.
type CatalogEntry struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	Disabled    bool   `yaml:"disabled"`
}

// ApplyCatalog reads a YAML document of the form
//
//	tools:
//	  - name: web_search
//	    description: Search the web for film facts
//	  - name: fetch_page
//	    disabled: true
//
// and overrides descriptions or removes disabled tools.
func (r *Registry) ApplyCatalog(data []byte) error {
	var doc struct {
		Tools []CatalogEntry `yaml:"tools"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("failed to parse tool catalogue: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range doc.Tools {
		e, ok := r.tools[c.Name]
		if !ok {
			return fmt.Errorf("tool catalogue: %w: %s", ErrToolNotFound, c.Name)
		}
		if c.Disabled {
			delete(r.tools, c.Name)
			continue
		}
		if c.Description != "" {
			e.tool.Description = c.Description
			r.tools[c.Name] = e
		}
	}
	return nil
}
