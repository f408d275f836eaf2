// Package config loads engine settings from an optional YAML file and the
// environment. Environment variables use the upper-cased key path
// (MAX_STEP_NUM, STORE_BACKEND, GENAI_API_KEY ...) and win over the file.
// String values of the form "$NAME" in the file are replaced by that variable.
package config

import (
	"errors"
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"
)

// DefaultPath is the config file looked up when none is given.
const DefaultPath = "cinebrain.yaml"

// Config holds every tunable of the engine and its adapters.
type Config struct {
	MaxPlanIterations int           `mapstructure:"max_plan_iterations"`
	MaxStepNum        int           `mapstructure:"max_step_num"`
	MaxToolCalls      int           `mapstructure:"max_tool_calls"`
	TeamTimeout       time.Duration `mapstructure:"team_timeout"`
	CapabilityTimeout time.Duration `mapstructure:"capability_timeout"`
	MediaTimeout      time.Duration `mapstructure:"media_timeout"`
	StageBudget       int           `mapstructure:"stage_budget"`
	EnableDocSteps    bool          `mapstructure:"enable_doc_steps"`
	AutoAcceptPlan    bool          `mapstructure:"auto_accept_plan"`
	UserID            string        `mapstructure:"user_id"`
	SummarizeAfter    int           `mapstructure:"summarize_after"`
	LogLevel          string        `mapstructure:"log_level"`
	// ToolsFile is an optional YAML tool catalogue (see registry.ApplyCatalog).
	ToolsFile string `mapstructure:"tools_file"`

	Store  StoreConfig  `mapstructure:"store"`
	Memory MemoryConfig `mapstructure:"memory"`
	GenAI  GenAIConfig  `mapstructure:"genai"`
	Serper SerperConfig `mapstructure:"serper"`
	HTTP   HTTPConfig   `mapstructure:"http"`
}

// StoreConfig selects the checkpoint backend.
type StoreConfig struct {
	Backend         string        `mapstructure:"backend"` // memory | file | redis
	Dir             string        `mapstructure:"dir"`
	RedisAddr       string        `mapstructure:"redis_addr"`
	RedisPassword   string        `mapstructure:"redis_password"`
	RedisDB         int           `mapstructure:"redis_db"`
	RedisPrefix     string        `mapstructure:"redis_prefix"`
	TTL             time.Duration `mapstructure:"ttl"`
	DistributedLock bool          `mapstructure:"distributed_lock"`
	LockTTL         time.Duration `mapstructure:"lock_ttl"`

	// EncryptionKey is a base64 AES-256 key. When set checkpoints are sealed
	// at rest; PreviousKeys still decrypt sessions written before a rotation.
	EncryptionKey string   `mapstructure:"encryption_key"`
	PreviousKeys  []string `mapstructure:"previous_keys"`
	// Redact lists patterns masked before a checkpoint is persisted.
	// "email" is shorthand for an e-mail address pattern.
	Redact []string `mapstructure:"redact"`
}

// MemoryConfig selects the long-term memory backend.
type MemoryConfig struct {
	Backend string `mapstructure:"backend"` // none | sqlite
	Path    string `mapstructure:"path"`
	Limit   int    `mapstructure:"limit"`
}

// GenAIConfig configures the Gemini-backed generation and media capabilities.
type GenAIConfig struct {
	APIKey      string `mapstructure:"api_key"`
	Model       string `mapstructure:"model"`
	VideoModel  string `mapstructure:"video_model"`
	SpeechModel string `mapstructure:"speech_model"`
	Voice       string `mapstructure:"voice"`
	OutputDir   string `mapstructure:"output_dir"`
}

// SerperConfig configures the web search tools.
type SerperConfig struct {
	APIKey   string `mapstructure:"api_key"`
	Endpoint string `mapstructure:"endpoint"`
}

// HTTPConfig configures the serve command.
type HTTPConfig struct {
	Addr string `mapstructure:"addr"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		MaxPlanIterations: 2,
		MaxStepNum:        5,
		MaxToolCalls:      10,
		TeamTimeout:       60 * time.Second,
		CapabilityTimeout: 30 * time.Second,
		MediaTimeout:      5 * time.Minute,
		StageBudget:       100,
		EnableDocSteps:    true,
		UserID:            "default_user",
		SummarizeAfter:    20,
		LogLevel:          "info",
		Store: StoreConfig{
			Backend:     "file",
			Dir:         ".cinebrain/sessions",
			RedisAddr:   "localhost:6379",
			RedisPrefix: "cinebrain:session:",
			LockTTL:     30 * time.Second,
		},
		Memory: MemoryConfig{
			Backend: "sqlite",
			Path:    ".cinebrain/memory.db",
			Limit:   5,
		},
		GenAI: GenAIConfig{
			Model:       "gemini-2.0-flash",
			VideoModel:  "veo-2.0-generate-001",
			SpeechModel: "gemini-2.5-flash-preview-tts",
			Voice:       "Kore",
			OutputDir:   ".cinebrain/media",
		},
		Serper: SerperConfig{
			Endpoint: "https://google.serper.dev/search",
		},
		HTTP: HTTPConfig{
			Addr: ":8080",
		},
	}
}

// aliases maps well-known provider variables onto config keys.
var aliases = map[string]string{
	"GOOGLE_API_KEY": "genai.api_key",
	"GEMINI_API_KEY": "genai.api_key",
	"SERPER_API_KEY": "serper.api_key",
	"REDIS_ADDR":     "store.redis_addr",
}

// Load reads path (DefaultPath when empty; a missing file is not an error)
// and applies environment overrides from the process environment.
func Load(path string) (Config, error) {
	return LoadWith(path, os.LookupEnv)
}

// LoadWith is Load with an injectable environment lookup.
func LoadWith(path string, lookup func(string) (string, bool)) (Config, error) {
	explicit := path != ""
	if !explicit {
		path = DefaultPath
	}

	raw := map[string]any{}
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return Config{}, fmt.Errorf("parse %s: %w", path, err)
		}
		if err := expandEnv(raw, lookup); err != nil {
			return Config{}, fmt.Errorf("expand %s: %w", path, err)
		}
	case errors.Is(err, os.ErrNotExist) && !explicit:
	default:
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	for _, key := range keys(reflect.TypeOf(Config{}), "") {
		if v, ok := lookup(envName(key)); ok {
			set(raw, key, v)
		}
	}
	for env, key := range aliases {
		if v, ok := lookup(env); ok {
			if _, already := lookup(envName(key)); !already {
				set(raw, key, v)
			}
		}
	}

	cfg := Default()
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &cfg,
		WeaklyTypedInput: true,
		ErrorUnused:      true,
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			secondsHook,
			mapstructure.StringToTimeDurationHookFunc(),
		),
	})
	if err != nil {
		return Config{}, err
	}
	if err := dec.Decode(raw); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	return cfg, cfg.Validate()
}

// Validate rejects settings the engine cannot run with.
func (c Config) Validate() error {
	var errs []error
	if c.MaxPlanIterations < 0 {
		errs = append(errs, errors.New("max_plan_iterations must be >= 0"))
	}
	if c.MaxStepNum < 1 {
		errs = append(errs, errors.New("max_step_num must be >= 1"))
	}
	if c.MaxToolCalls < 1 {
		errs = append(errs, errors.New("max_tool_calls must be >= 1"))
	}
	if c.StageBudget < 1 {
		errs = append(errs, errors.New("stage_budget must be >= 1"))
	}
	switch c.Store.Backend {
	case "memory", "file", "redis":
	default:
		errs = append(errs, fmt.Errorf("unknown store backend %q", c.Store.Backend))
	}
	if len(c.Store.PreviousKeys) > 0 && c.Store.EncryptionKey == "" {
		errs = append(errs, errors.New("store.previous_keys requires store.encryption_key"))
	}
	switch c.Memory.Backend {
	case "none", "sqlite":
	default:
		errs = append(errs, fmt.Errorf("unknown memory backend %q", c.Memory.Backend))
	}
	return errors.Join(errs...)
}

// secondsHook reads bare numbers as seconds for duration fields ("60" and 60 mean 60s).
func secondsHook(from, to reflect.Type, data any) (any, error) {
	if to != reflect.TypeOf(time.Duration(0)) {
		return data, nil
	}
	switch v := data.(type) {
	case int:
		return time.Duration(v) * time.Second, nil
	case int64:
		return time.Duration(v) * time.Second, nil
	case float64:
		return time.Duration(v * float64(time.Second)), nil
	case string:
		if n, err := strconv.ParseFloat(strings.TrimSpace(v), 64); err == nil {
			return time.Duration(n * float64(time.Second)), nil
		}
	}
	return data, nil
}

// keys lists the dotted mapstructure key of every leaf field.
func keys(t reflect.Type, prefix string) []string {
	var out []string
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		name := f.Tag.Get("mapstructure")
		if name == "" {
			continue
		}
		if prefix != "" {
			name = prefix + "." + name
		}
		if f.Type.Kind() == reflect.Struct && f.Type != reflect.TypeOf(time.Duration(0)) {
			out = append(out, keys(f.Type, name)...)
			continue
		}
		out = append(out, name)
	}
	return out
}

func envName(key string) string {
	return strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
}

// set writes v at a dotted key path, creating intermediate maps.
func set(m map[string]any, key string, v any) {
	parts := strings.Split(key, ".")
	for _, p := range parts[:len(parts)-1] {
		next, ok := m[p].(map[string]any)
		if !ok {
			next = map[string]any{}
			m[p] = next
		}
		m = next
	}
	m[parts[len(parts)-1]] = v
}

func expandEnv(m map[string]any, lookup func(string) (string, bool)) error {
	for k, v := range m {
		switch val := v.(type) {
		case map[string]any:
			if err := expandEnv(val, lookup); err != nil {
				return err
			}
		case string:
			if name, ok := strings.CutPrefix(val, "$"); ok && name != "" {
				env, found := lookup(name)
				if !found {
					return fmt.Errorf("environment variable %q referenced by %q is not set", name, k)
				}
				m[k] = env
			}
		}
	}
	return nil
}
