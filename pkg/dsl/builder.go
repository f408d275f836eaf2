package dsl

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/whitehatjr1001/cine-brain/pkg/domain"
)

// ErrInvalidGraph is returned by Build when the graph is not well formed.
var ErrInvalidGraph = errors.New("invalid graph")

// Stage is a named unit of computation.
// It receives a copy of the state and returns a partial update plus a directive.
type Stage interface {
	Run(ctx context.Context, state domain.ConversationState) (domain.Result, error)
}

// StageFunc adapts a function to the Stage interface.
type StageFunc func(ctx context.Context, state domain.ConversationState) (domain.Result, error)

func (f StageFunc) Run(ctx context.Context, state domain.ConversationState) (domain.Result, error) {
	return f(ctx, state)
}

// Selector picks a branch key for a conditional transition.
type Selector func(state domain.ConversationState) string

// Edge is one declared transition, used for introspection.
type Edge struct {
	From  string `json:"from"`
	To    string `json:"to"`
	Label string `json:"label,omitempty"`
	// Jump marks a target reached through an explicit Goto rather than an edge.
	Jump bool `json:"jump,omitempty"`
}

// Builder manages the graph construction.
type Builder struct {
	entry  string
	stages map[string]*StageBuilder
	order  []string
}

// New creates a new graph builder.
func New() *Builder {
	return &Builder{
		stages: make(map[string]*StageBuilder),
	}
}

// Start sets the stage the executor enters first.
func (b *Builder) Start(name string) *Builder {
	b.entry = name
	return b
}

// Add registers a stage. Adding a name twice replaces the stage but keeps its transitions.
func (b *Builder) Add(name string, stage Stage) *StageBuilder {
	if sb, ok := b.stages[name]; ok {
		sb.stage = stage
		return sb
	}
	sb := &StageBuilder{name: name, stage: stage, builder: b}
	b.stages[name] = sb
	b.order = append(b.order, name)
	return sb
}

// Build validates the graph and freezes it.
func (b *Builder) Build() (*Graph, error) {
	var errs []error
	if b.entry == "" {
		errs = append(errs, errors.New("no start stage"))
	} else if _, ok := b.stages[b.entry]; !ok {
		errs = append(errs, fmt.Errorf("start stage %q is not registered", b.entry))
	}

	exists := func(name string) bool {
		if name == domain.StageEnd {
			return true
		}
		_, ok := b.stages[name]
		return ok
	}

	g := &Graph{
		entry:    b.entry,
		stages:   make(map[string]Stage, len(b.stages)),
		edges:    make(map[string]string),
		switches: make(map[string]*switchSpec),
		jumps:    make(map[string][]string),
		gates:    make(map[string]bool),
		order:    append([]string(nil), b.order...),
	}

	for _, name := range b.order {
		sb := b.stages[name]
		if name == domain.StageStart || name == domain.StageEnd {
			errs = append(errs, fmt.Errorf("stage name %q is reserved", name))
			continue
		}
		if sb.stage == nil {
			errs = append(errs, fmt.Errorf("stage %q has no implementation", name))
		}
		g.stages[name] = sb.stage
		g.gates[name] = sb.gate

		outgoing := 0
		if sb.next != "" {
			outgoing++
			if !exists(sb.next) {
				errs = append(errs, fmt.Errorf("stage %q: edge target %q is not registered", name, sb.next))
			}
			g.edges[name] = sb.next
		}
		if sb.sw != nil {
			outgoing++
			if sb.sw.selector == nil {
				errs = append(errs, fmt.Errorf("stage %q: switch has no selector", name))
			}
			if sb.sw.fallback == "" {
				errs = append(errs, fmt.Errorf("stage %q: switch has no default branch", name))
			} else if !exists(sb.sw.fallback) {
				errs = append(errs, fmt.Errorf("stage %q: default target %q is not registered", name, sb.sw.fallback))
			}
			for key, target := range sb.sw.cases {
				if !exists(target) {
					errs = append(errs, fmt.Errorf("stage %q: case %q target %q is not registered", name, key, target))
				}
			}
			g.switches[name] = sb.sw
		}
		if outgoing > 1 {
			errs = append(errs, fmt.Errorf("stage %q declares both an edge and a switch", name))
		}
		for _, target := range sb.jumps {
			if !exists(target) {
				errs = append(errs, fmt.Errorf("stage %q: jump target %q is not registered", name, target))
			}
		}
		g.jumps[name] = append([]string(nil), sb.jumps...)
		if outgoing == 0 && len(sb.jumps) == 0 {
			errs = append(errs, fmt.Errorf("stage %q has no outgoing transition", name))
		}
	}

	if len(errs) > 0 {
		return nil, fmt.Errorf("%w: %w", ErrInvalidGraph, errors.Join(errs...))
	}
	return g, nil
}

// StageBuilder provides a fluent API for configuring a stage's transitions.
type StageBuilder struct {
	name    string
	stage   Stage
	builder *Builder
	next    string
	sw      *switchSpec
	jumps   []string
	gate    bool
}

type switchSpec struct {
	selector Selector
	cases    map[string]string
	keys     []string
	fallback string
}

// Go adds an unconditional transition to the target stage.
func (s *StageBuilder) Go(target string) *StageBuilder {
	s.next = target
	return s
}

// Terminal routes the stage to the end of the run.
func (s *StageBuilder) Terminal() *StageBuilder {
	return s.Go(domain.StageEnd)
}

// Switch adds a conditional transition evaluated with selector.
// It must be completed with Default.
func (s *StageBuilder) Switch(selector Selector) *StageBuilder {
	s.sw = &switchSpec{selector: selector, cases: make(map[string]string)}
	return s
}

// Case maps a selector key to a target stage.
func (s *StageBuilder) Case(key, target string) *StageBuilder {
	if s.sw == nil {
		s.sw = &switchSpec{cases: make(map[string]string)}
	}
	if _, ok := s.sw.cases[key]; !ok {
		s.sw.keys = append(s.sw.keys, key)
	}
	s.sw.cases[key] = target
	return s
}

// Default sets the branch taken when no case matches.
func (s *StageBuilder) Default(target string) *StageBuilder {
	if s.sw == nil {
		s.sw = &switchSpec{cases: make(map[string]string)}
	}
	s.sw.fallback = target
	return s
}

// Jumps declares the targets the stage may reach through domain.Goto.
func (s *StageBuilder) Jumps(targets ...string) *StageBuilder {
	s.jumps = append(s.jumps, targets...)
	return s
}

// Interrupts marks the stage as one that may suspend for human input.
func (s *StageBuilder) Interrupts() *StageBuilder {
	s.gate = true
	return s
}

// Graph is a validated, immutable stage graph.
type Graph struct {
	entry    string
	stages   map[string]Stage
	order    []string
	edges    map[string]string
	switches map[string]*switchSpec
	jumps    map[string][]string
	gates    map[string]bool
}

// Entry returns the start stage.
func (g *Graph) Entry() string { return g.entry }

// Stage looks up a stage by name.
func (g *Graph) Stage(name string) (Stage, bool) {
	s, ok := g.stages[name]
	return s, ok
}

// Has reports whether name is a registered stage or the terminal stage.
func (g *Graph) Has(name string) bool {
	if name == domain.StageEnd {
		return true
	}
	_, ok := g.stages[name]
	return ok
}

// Stages returns stage names in registration order.
func (g *Graph) Stages() []string {
	return append([]string(nil), g.order...)
}

// IsGate reports whether the stage was declared as able to suspend.
func (g *Graph) IsGate(name string) bool {
	return g.gates[name]
}

// Next resolves the transition out of stage for the given state.
func (g *Graph) Next(stage string, state domain.ConversationState) (string, error) {
	if sw, ok := g.switches[stage]; ok {
		key := sw.selector(state)
		if target, ok := sw.cases[key]; ok {
			return target, nil
		}
		return sw.fallback, nil
	}
	if next, ok := g.edges[stage]; ok {
		return next, nil
	}
	return "", fmt.Errorf("stage %q has no edge to follow: %w", stage, domain.ErrUnknownStage)
}

// Edges lists every declared transition in a stable order.
func (g *Graph) Edges() []Edge {
	var out []Edge
	for _, name := range g.order {
		if next, ok := g.edges[name]; ok {
			out = append(out, Edge{From: name, To: next})
		}
		if sw, ok := g.switches[name]; ok {
			keys := append([]string(nil), sw.keys...)
			sort.Strings(keys)
			for _, k := range keys {
				out = append(out, Edge{From: name, To: sw.cases[k], Label: k})
			}
			out = append(out, Edge{From: name, To: sw.fallback, Label: "default"})
		}
		for _, j := range g.jumps[name] {
			out = append(out, Edge{From: name, To: j, Jump: true})
		}
	}
	return out
}
