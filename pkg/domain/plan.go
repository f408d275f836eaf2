package domain

import "strings"

// StepType classifies the kind of work a step performs.
type StepType string

const (
	StepResearch      StepType = "research"
	StepCreative      StepType = "creative"
	StepAnalysis      StepType = "analysis"
	StepValidation    StepType = "validation"
	StepDocumentation StepType = "documentation"
)

// Valid reports whether t is one of the known step types.
func (t StepType) Valid() bool {
	switch t {
	case StepResearch, StepCreative, StepAnalysis, StepValidation, StepDocumentation:
		return true
	}
	return false
}

// StepStatus is monotonic: once completed or failed, a step never returns to pending.
type StepStatus string

const (
	StepPending   StepStatus = "pending"
	StepCompleted StepStatus = "completed"
	StepFailed    StepStatus = "failed"
)

// Team selects which step-execution workflow runs the plan.
type Team string

const (
	TeamResearch   Team = "research"
	TeamResolution Team = "resolution"
)

// NormalizeTeam maps any team label onto a known team.
// "resolution" (any case) selects the resolution team, everything else research.
func NormalizeTeam(raw Team) Team {
	if strings.ToLower(strings.TrimSpace(string(raw))) == string(TeamResolution) {
		return TeamResolution
	}
	return TeamResearch
}

// Step is one unit of plan work.
type Step struct {
	Title           string     `json:"title"`
	Description     string     `json:"description"`
	Type            StepType   `json:"step_type"`
	SuggestedTool   string     `json:"suggested_tool,omitempty"`
	ExecutionResult string     `json:"execution_res,omitempty"`
	Status          StepStatus `json:"status"`
}

// Plan is a bounded, ordered sequence of steps produced toward a goal.
type Plan struct {
	Title            string   `json:"project_title,omitempty"`
	Goal             string   `json:"goal"`
	ContextSummary   string   `json:"context_summary,omitempty"`
	HasEnoughContext bool     `json:"has_enough_context"`
	Steps            []Step   `json:"steps"`
	AssignedTeam     Team     `json:"assigned_team,omitempty"`
	Notes            []string `json:"notes,omitempty"`
}

// FallbackGoal is the goal of the deterministic plan substituted when planning fails.
const FallbackGoal = "manual review required"

// FallbackPlan returns the fixed single-step plan used when generation is unavailable.
func FallbackPlan(reason string) Plan {
	desc := "Review the request manually and summarize what is known."
	if reason != "" {
		desc += " Planner note: " + reason
	}
	return Plan{
		Goal: FallbackGoal,
		Steps: []Step{{
			Title:       "Manual review",
			Description: desc,
			Type:        StepAnalysis,
			Status:      StepPending,
		}},
	}
}

// Clone returns a deep copy of the plan.
func (p Plan) Clone() Plan {
	next := p
	next.Steps = append([]Step(nil), p.Steps...)
	next.Notes = append([]string(nil), p.Notes...)
	return next
}

// Truncate keeps at most max steps, preserving their original order.
// It reports how many steps were dropped.
func (p *Plan) Truncate(max int) int {
	if max < 0 || len(p.Steps) <= max {
		return 0
	}
	dropped := len(p.Steps) - max
	p.Steps = p.Steps[:max]
	return dropped
}

// NextPending returns the index of the first pending step, or -1.
func (p Plan) NextPending() int {
	for i, s := range p.Steps {
		if s.Status == StepPending || s.Status == "" {
			return i
		}
	}
	return -1
}

// Completed returns the steps that finished successfully, in plan order.
func (p Plan) Completed() []Step {
	var done []Step
	for _, s := range p.Steps {
		if s.Status == StepCompleted {
			done = append(done, s)
		}
	}
	return done
}

// GateState tracks the human feedback sub-state-machine.
type GateState string

const (
	GateAwaitingPlan      GateState = ""
	GateAwaitingUserInput GateState = "awaiting_user_input"
	GateApproved          GateState = "approved"
	GateRevision          GateState = "revision_requested"
)
