package structured

import "github.com/whitehatjr1001/cine-brain/pkg/domain"

// PlanSchema constrains generated plans.
var PlanSchema = MustCompile("plan", `{
  "type": "object",
  "required": ["goal", "has_enough_context", "steps"],
  "properties": {
    "project_title": {"type": "string"},
    "goal": {"type": "string", "minLength": 1},
    "context_summary": {"type": "string"},
    "has_enough_context": {"type": "boolean"},
    "assigned_team": {"type": "string"},
    "notes": {"type": "array", "items": {"type": "string"}},
    "steps": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["title", "description", "step_type"],
        "properties": {
          "title": {"type": "string", "minLength": 1},
          "description": {"type": "string"},
          "step_type": {"enum": ["research", "creative", "analysis", "validation", "documentation"]},
          "suggested_tool": {"type": "string"}
        }
      }
    }
  }
}`)

// RouteSchema constrains classifier output. Labels are mapped with domain.ParseRoute.
var RouteSchema = MustCompile("route", `{
  "type": "object",
  "required": ["route"],
  "properties": {
    "route": {"type": "string"},
    "reason": {"type": "string"}
  }
}`)

// RouteDecision is the decoded classifier output.
type RouteDecision struct {
	Route  string `json:"route"`
	Reason string `json:"reason,omitempty"`
}

// CoordinatorSchema constrains the direct-reply versus hand-off decision.
var CoordinatorSchema = MustCompile("coordinator", `{
  "type": "object",
  "required": ["handoff_to_planner"],
  "properties": {
    "handoff_to_planner": {"type": "boolean"},
    "reply": {"type": "string"}
  }
}`)

// CoordinatorDecision is the decoded coordinator output.
type CoordinatorDecision struct {
	Handoff bool   `json:"handoff_to_planner"`
	Reply   string `json:"reply,omitempty"`
}

// MemoryAnalysisSchema constrains the importance analysis run before memory search.
var MemoryAnalysisSchema = MustCompile("memory_analysis", `{
  "type": "object",
  "required": ["is_important"],
  "properties": {
    "is_important": {"type": "boolean"},
    "formatted_memory": {"type": "string"}
  }
}`)

// MemoryAnalysis is the decoded importance analysis.
type MemoryAnalysis struct {
	IsImportant     bool   `json:"is_important"`
	FormattedMemory string `json:"formatted_memory,omitempty"`
}

// AgentActionSchema constrains one turn of the tool-calling agent.
var AgentActionSchema = MustCompile("agent_action", `{
  "type": "object",
  "required": ["action"],
  "properties": {
    "action": {"enum": ["tool", "final"]},
    "tool": {"type": "string"},
    "args": {"type": "object"},
    "answer": {"type": "string"}
  },
  "if": {"properties": {"action": {"const": "tool"}}},
  "then": {"required": ["tool"]},
  "else": {"required": ["answer"]}
}`)

// AgentAction is one decoded agent decision.
type AgentAction struct {
	Action string         `json:"action"`
	Tool   string         `json:"tool,omitempty"`
	Args   map[string]any `json:"args,omitempty"`
	Answer string         `json:"answer,omitempty"`
}

// DecodePlan decodes a generated plan and normalizes step status and team.
func DecodePlan(text string) (domain.Plan, error) {
	p, err := Decode[domain.Plan](text, PlanSchema)
	if err != nil {
		return p, err
	}
	for i := range p.Steps {
		p.Steps[i].Status = domain.StepPending
		p.Steps[i].ExecutionResult = ""
	}
	if p.AssignedTeam != "" {
		p.AssignedTeam = domain.NormalizeTeam(p.AssignedTeam)
	}
	return p, nil
}
