package cinebrain

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/whitehatjr1001/cine-brain/internal/agent"
	"github.com/whitehatjr1001/cine-brain/internal/capability"
	"github.com/whitehatjr1001/cine-brain/internal/config"
	"github.com/whitehatjr1001/cine-brain/internal/logging"
	"github.com/whitehatjr1001/cine-brain/internal/memory"
	"github.com/whitehatjr1001/cine-brain/internal/runtime"
	"github.com/whitehatjr1001/cine-brain/internal/stages"
	fileAdapter "github.com/whitehatjr1001/cine-brain/pkg/adapters/file"
	"github.com/whitehatjr1001/cine-brain/pkg/adapters/gemini"
	memoryAdapter "github.com/whitehatjr1001/cine-brain/pkg/adapters/memory"
	"github.com/whitehatjr1001/cine-brain/pkg/adapters/process"
	redisAdapter "github.com/whitehatjr1001/cine-brain/pkg/adapters/redis"
	"github.com/whitehatjr1001/cine-brain/pkg/adapters/sqlite"
	"github.com/whitehatjr1001/cine-brain/pkg/adapters/web"
	"github.com/whitehatjr1001/cine-brain/pkg/domain"
	"github.com/whitehatjr1001/cine-brain/pkg/dsl"
	"github.com/whitehatjr1001/cine-brain/pkg/observability"
	"github.com/whitehatjr1001/cine-brain/pkg/persistence/middleware"
	"github.com/whitehatjr1001/cine-brain/pkg/ports"
	"github.com/whitehatjr1001/cine-brain/pkg/registry"
	"github.com/whitehatjr1001/cine-brain/pkg/session"
)

// Config is the engine configuration. See LoadConfig.
type Config = config.Config

// DefaultConfig returns the built-in configuration.
func DefaultConfig() Config {
	return config.Default()
}

// LoadConfig reads an optional YAML file and applies environment overrides.
func LoadConfig(path string) (Config, error) {
	return config.Load(path)
}

// Engine is the high-level entry point for CineBrain.
// It wires the configured capabilities into the stage graph and exposes the
// turn-level API used by the CLI, HTTP and MCP shells.
type Engine struct {
	runtime  *runtime.Engine
	sessions *session.Manager
	tools    *registry.Registry
	metrics  *observability.Metrics
	closers  []io.Closer
	logger   *slog.Logger

	// injected capabilities; nil means build from Config
	store      ports.CheckpointStore
	generator  ports.Generator
	classifier ports.Classifier
	memory     ports.MemoryService
	media      ports.MediaGenerator
	research   ports.StepExecutor
	resolution ports.StepExecutor
	extraTools []registry.Tool
	hooks      domain.LifecycleHooks
}

// Option defines a functional option for configuring the Engine.
type Option func(*Engine)

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(e *Engine) {
		e.hooks = e.hooks.Merge(hooks)
	}
}

// WithLogger sets a custom structured logger for the engine.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithMetrics records stage, tool and turn metrics into m.
func WithMetrics(m *observability.Metrics) Option {
	return func(e *Engine) {
		e.metrics = m
	}
}

// WithStore replaces the configured checkpoint store.
func WithStore(s ports.CheckpointStore) Option {
	return func(e *Engine) {
		e.store = s
	}
}

// WithGenerator replaces the Gemini text generator.
func WithGenerator(g ports.Generator) Option {
	return func(e *Engine) {
		e.generator = g
	}
}

// WithClassifier replaces the generator-backed router.
func WithClassifier(c ports.Classifier) Option {
	return func(e *Engine) {
		e.classifier = c
	}
}

// WithMemory replaces the SQLite-backed memory service.
func WithMemory(m ports.MemoryService) Option {
	return func(e *Engine) {
		e.memory = m
	}
}

// WithMedia replaces the Gemini media generator.
func WithMedia(m ports.MediaGenerator) Option {
	return func(e *Engine) {
		e.media = m
	}
}

// WithStepExecutor replaces the tool-calling agent of a team.
func WithStepExecutor(team domain.Team, s ports.StepExecutor) Option {
	return func(e *Engine) {
		switch domain.NormalizeTeam(team) {
		case domain.TeamResolution:
			e.resolution = s
		default:
			e.research = s
		}
	}
}

// WithTools registers additional tools for the research team.
func WithTools(tools ...registry.Tool) Option {
	return func(e *Engine) {
		e.extraTools = append(e.extraTools, tools...)
	}
}

// New builds an Engine from cfg. Capabilities that are not configured (no
// API key, memory backend "none") are left out and their stages degrade.
func New(ctx context.Context, cfg Config, opts ...Option) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	e := &Engine{}
	for _, opt := range opts {
		opt(e)
	}
	if e.logger == nil {
		e.logger = logging.NewNop()
	}

	ok := false
	defer func() {
		if !ok {
			_ = e.Close()
		}
	}()

	hooks := e.hooks.Merge(logging.Hooks(e.logger))
	if e.metrics != nil {
		hooks = hooks.Merge(e.metrics.Hooks())
	}

	store, locker, err := e.openStore(cfg.Store)
	if err != nil {
		return nil, err
	}
	if store, err = protectStore(store, cfg.Store); err != nil {
		return nil, err
	}

	var client *gemini.Client
	if cfg.GenAI.APIKey != "" && (e.generator == nil || e.media == nil) {
		client, err = gemini.New(ctx, gemini.Config{
			APIKey:      cfg.GenAI.APIKey,
			Model:       cfg.GenAI.Model,
			VideoModel:  cfg.GenAI.VideoModel,
			SpeechModel: cfg.GenAI.SpeechModel,
			Voice:       cfg.GenAI.Voice,
			OutputDir:   cfg.GenAI.OutputDir,
		}, gemini.WithLogger(e.logger.With("component", "gemini")))
		if err != nil {
			return nil, err
		}
	}

	var gen ports.Generator
	switch {
	case e.generator != nil:
		gen = capability.Generator(e.generator, cfg.CapabilityTimeout)
	case client != nil:
		gen = capability.Generator(client, cfg.CapabilityTimeout)
	default:
		e.logger.Warn("no generation capability configured; set GENAI_API_KEY")
	}

	var classifier ports.Classifier
	switch {
	case e.classifier != nil:
		classifier = capability.Classifier(e.classifier, cfg.CapabilityTimeout)
	case gen != nil:
		classifier = stages.NewLLMClassifier(gen)
	}

	var media ports.MediaGenerator
	switch {
	case e.media != nil:
		media = capability.Media(e.media, cfg.MediaTimeout)
	case client != nil:
		media = capability.Media(client, cfg.MediaTimeout)
	}

	mem, manager, err := e.openMemory(cfg, gen)
	if err != nil {
		return nil, err
	}

	e.tools, err = e.buildTools(cfg, manager)
	if err != nil {
		return nil, err
	}

	research := e.research
	if research == nil {
		research = agent.New(gen, e.tools,
			agent.WithMaxToolCalls(cfg.MaxToolCalls),
			agent.WithLifecycleHooks(hooks),
			agent.WithLogger(e.logger.With("team", string(domain.TeamResearch))),
		)
	}
	resolution := e.resolution
	if resolution == nil {
		resolution = agent.New(gen, e.tools.Subset(memory.ToolName),
			agent.WithMaxToolCalls(cfg.MaxToolCalls),
			agent.WithLifecycleHooks(hooks),
			agent.WithLogger(e.logger.With("team", string(domain.TeamResolution))),
		)
	}

	graph, err := stages.Build(stages.Deps{
		Generator:  gen,
		Classifier: classifier,
		Memory:     mem,
		Research:   capability.Steps(research, cfg.TeamTimeout),
		Resolution: capability.Steps(resolution, cfg.TeamTimeout),
		Media:      media,
		Settings: stages.Settings{
			MaxPlanIterations: cfg.MaxPlanIterations,
			MaxStepNum:        cfg.MaxStepNum,
			EnableDocSteps:    cfg.EnableDocSteps,
			AutoAcceptPlan:    cfg.AutoAcceptPlan,
			SummarizeAfter:    cfg.SummarizeAfter,
			RecentMessages:    stages.DefaultSettings().RecentMessages,
		},
		Logger: e.logger,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to build stage graph: %w", err)
	}

	sessionOpts := []session.Option{session.WithLogger(e.logger)}
	if locker != nil {
		sessionOpts = append(sessionOpts, session.WithLocker(locker, cfg.Store.LockTTL))
	}
	e.sessions = session.NewManager(store, sessionOpts...)

	e.runtime = runtime.NewEngine(graph, e.sessions,
		runtime.WithStageBudget(cfg.StageBudget),
		runtime.WithUserID(cfg.UserID),
		runtime.WithLifecycleHooks(hooks),
		runtime.WithLogger(e.logger),
	)
	ok = true
	return e, nil
}

func (e *Engine) openStore(cfg config.StoreConfig) (ports.CheckpointStore, ports.DistributedLocker, error) {
	if e.store != nil {
		return e.store, nil, nil
	}
	switch cfg.Backend {
	case "memory":
		return memoryAdapter.NewStore(), nil, nil
	case "redis":
		var opts []redisAdapter.Option
		if cfg.RedisPrefix != "" {
			opts = append(opts, redisAdapter.WithPrefix(cfg.RedisPrefix))
		}
		if cfg.TTL > 0 {
			opts = append(opts, redisAdapter.WithTTL(cfg.TTL))
		}
		store := redisAdapter.New(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, opts...)
		e.closers = append(e.closers, store)
		var locker ports.DistributedLocker
		if cfg.DistributedLock {
			locker = redisAdapter.NewLocker(store.Client(), strings.TrimSuffix(cfg.RedisPrefix, "session:")+"lock:")
		}
		return store, locker, nil
	default:
		return fileAdapter.New(cfg.Dir), nil, nil
	}
}

// protectStore wraps store with redaction and encryption as configured.
// Redaction runs first so masked text is what gets sealed.
func protectStore(store ports.CheckpointStore, cfg config.StoreConfig) (ports.CheckpointStore, error) {
	var mws []middleware.Middleware
	if len(cfg.Redact) > 0 {
		patterns := make([]string, len(cfg.Redact))
		for i, p := range cfg.Redact {
			if p == "email" {
				p = middleware.EmailPattern
			}
			patterns[i] = p
		}
		pii, err := middleware.NewPIIMiddleware(patterns)
		if err != nil {
			return nil, err
		}
		mws = append(mws, pii)
	}
	if cfg.EncryptionKey != "" {
		keys, err := middleware.ParseKeys(cfg.EncryptionKey, cfg.PreviousKeys...)
		if err != nil {
			return nil, err
		}
		enc, err := middleware.NewEncryptionMiddleware(keys)
		if err != nil {
			return nil, err
		}
		mws = append(mws, enc)
	}
	return middleware.Chain(store, mws...), nil
}

func (e *Engine) openMemory(cfg Config, gen ports.Generator) (ports.MemoryService, *memory.Manager, error) {
	if e.memory != nil {
		return capability.Memory(e.memory, cfg.CapabilityTimeout), nil, nil
	}
	if cfg.Memory.Backend != "sqlite" {
		return nil, nil, nil
	}
	db, err := sqlite.Open(cfg.Memory.Path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open memory store: %w", err)
	}
	e.closers = append(e.closers, db)
	manager := memory.NewManager(gen, db,
		memory.WithLimit(cfg.Memory.Limit),
		memory.WithLogger(e.logger.With("component", "memory")),
	)
	return capability.Memory(manager, cfg.CapabilityTimeout), manager, nil
}

func (e *Engine) buildTools(cfg Config, manager *memory.Manager) (*registry.Registry, error) {
	var searcher *web.Searcher
	if cfg.Serper.APIKey != "" {
		searcher = web.NewSearcher(cfg.Serper.APIKey,
			web.WithEndpoint(cfg.Serper.Endpoint),
			web.WithSearchLogger(e.logger.With("component", "search")),
		)
	}
	tools := registry.NewRegistry()
	if err := tools.Register(web.Tools(searcher, web.NewFetcher(nil))...); err != nil {
		return nil, err
	}
	if manager != nil {
		if err := tools.Register(manager.Tool(cfg.UserID)); err != nil {
			return nil, err
		}
	}
	if err := tools.Register(e.extraTools...); err != nil {
		return nil, err
	}
	if cfg.ToolsFile != "" {
		data, err := os.ReadFile(cfg.ToolsFile)
		if err != nil {
			return nil, fmt.Errorf("read tool catalogue: %w", err)
		}
		commands, err := process.LoadTools(data)
		if err != nil {
			return nil, err
		}
		runner := process.NewRunner(
			process.WithTimeout(cfg.CapabilityTimeout),
			process.WithLogger(e.logger.With("component", "process")),
		)
		if err := tools.Register(runner.Tools(commands...)...); err != nil {
			return nil, err
		}
		if err := tools.ApplyCatalog(data); err != nil {
			return nil, err
		}
	}
	return tools, nil
}

// Run starts a new turn of sessionID with message as the human input.
func (e *Engine) Run(ctx context.Context, sessionID, message string) (*domain.Outcome, error) {
	out, err := e.runtime.Run(ctx, sessionID, message)
	e.observe(out, err)
	return out, err
}

// Resume answers the suspension of sessionID. An empty message re-evaluates
// the gate without adding input.
func (e *Engine) Resume(ctx context.Context, sessionID, message string) (*domain.Outcome, error) {
	out, err := e.runtime.Resume(ctx, sessionID, message)
	e.observe(out, err)
	return out, err
}

// Send runs or resumes sessionID depending on whether it is suspended.
func (e *Engine) Send(ctx context.Context, sessionID, message string) (*domain.Outcome, error) {
	out, err := e.Run(ctx, sessionID, message)
	if errors.Is(err, domain.ErrSessionSuspended) {
		return e.Resume(ctx, sessionID, message)
	}
	return out, err
}

func (e *Engine) observe(out *domain.Outcome, err error) {
	if e.metrics == nil || err != nil || out == nil {
		return
	}
	e.metrics.ObserveOutcome(string(out.Status))
}

// Inspect returns the stored checkpoint of a session.
func (e *Engine) Inspect(ctx context.Context, sessionID string) (*domain.Checkpoint, error) {
	return e.runtime.Inspect(ctx, sessionID)
}

// Sessions lists the stored session ids.
func (e *Engine) Sessions(ctx context.Context) ([]string, error) {
	return e.sessions.List(ctx)
}

// Delete removes a session checkpoint.
func (e *Engine) Delete(ctx context.Context, sessionID string) error {
	return e.sessions.Delete(ctx, sessionID)
}

// Graph returns the stage graph for introspection.
func (e *Engine) Graph() *dsl.Graph {
	return e.runtime.Graph()
}

// Tools lists the tools available to the teams.
func (e *Engine) Tools() []ports.ToolSpec {
	return e.tools.Tools()
}

// Metrics returns the metrics registered with WithMetrics, or nil.
func (e *Engine) Metrics() *observability.Metrics {
	return e.metrics
}

// Close releases the store and memory connections.
func (e *Engine) Close() error {
	var errs []error
	for i := len(e.closers) - 1; i >= 0; i-- {
		errs = append(errs, e.closers[i].Close())
	}
	e.closers = nil
	return errors.Join(errs...)
}
