// Package stages implements the CineBrain stage graph: memory injection, routing,
// the conversation coordinator, planning, the human feedback gate, team dispatch,
// step execution, reporting and media synthesis.
package stages

import (
	"log/slog"

	"github.com/whitehatjr1001/cine-brain/internal/logging"
	"github.com/whitehatjr1001/cine-brain/pkg/domain"
	"github.com/whitehatjr1001/cine-brain/pkg/ports"
)

// Stage names.
const (
	InjectMemory   = "inject_memory"
	Router         = "router"
	Coordinator    = "coordinator"
	Planner        = "planner"
	HumanFeedback  = "human_feedback"
	TeamDispatch   = "team_dispatch"
	ResearchTeam   = "research_team"
	ResolutionTeam = "resolution_team"
	Reporter       = "reporter"
	Video          = "video"
	Audio          = "audio"
	StoreMemory    = "store_memory"
)

// Feedback markers recognized by the human feedback gate.
const (
	AcceptedMarker = "[ACCEPTED]"
	EditPlanMarker = "[EDIT_PLAN]"
)

// Settings are the tunables of the plan controller and its neighbours.
type Settings struct {
	MaxPlanIterations int
	MaxStepNum        int
	EnableDocSteps    bool
	AutoAcceptPlan    bool
	// SummarizeAfter triggers a summary refresh once the history grows past it.
	// Zero disables summaries.
	SummarizeAfter int
	// RecentMessages is how many trailing messages feed memory extraction and prompts.
	RecentMessages int
}

// DefaultSettings mirrors the configuration defaults.
func DefaultSettings() Settings {
	return Settings{
		MaxPlanIterations: 2,
		MaxStepNum:        5,
		EnableDocSteps:    true,
		SummarizeAfter:    20,
		RecentMessages:    3,
	}
}

// Deps are the capabilities the stages call into.
// Memory and Media are optional; a nil value degrades like an unavailable service.
type Deps struct {
	Generator  ports.Generator
	Classifier ports.Classifier
	Memory     ports.MemoryService
	Research   ports.StepExecutor
	Resolution ports.StepExecutor
	Media      ports.MediaGenerator
	Settings   Settings
	Logger     *slog.Logger
}

func (d Deps) logger() *slog.Logger {
	if d.Logger == nil {
		return logging.NewNop()
	}
	return d.Logger
}

func (d Deps) recent() int {
	if d.Settings.RecentMessages <= 0 {
		return 3
	}
	return d.Settings.RecentMessages
}

func (d Deps) userID(s domain.ConversationState) string {
	if s.UserID != "" {
		return s.UserID
	}
	return "default_user"
}

func say(text string) []domain.Message {
	return []domain.Message{domain.Assistant(text)}
}
