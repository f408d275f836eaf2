package domain

import "strings"

// Route is the closed set of classification results produced by the router.
// The zero value is RouteTerminal so that an unset route never dispatches work.
type Route int

const (
	RouteTerminal Route = iota
	RouteConversation
	RouteVideo
	RouteAudio
)

// ParseRoute maps a free-form label onto a Route.
// Anything unrecognized or ambiguous maps to RouteTerminal.
func ParseRoute(label string) Route {
	switch strings.ToLower(strings.TrimSpace(label)) {
	case "conversation":
		return RouteConversation
	case "video":
		return RouteVideo
	case "audio":
		return RouteAudio
	default:
		return RouteTerminal
	}
}

func (r Route) String() string {
	switch r {
	case RouteConversation:
		return "conversation"
	case RouteVideo:
		return "video"
	case RouteAudio:
		return "audio"
	case RouteTerminal:
		return "terminal"
	}
	return "terminal"
}

// Workflow returns the workflow tag selected by the route.
// RouteTerminal selects no workflow.
func (r Route) Workflow() Workflow {
	switch r {
	case RouteConversation:
		return WorkflowConversation
	case RouteVideo:
		return WorkflowVideo
	case RouteAudio:
		return WorkflowAudio
	case RouteTerminal:
		return WorkflowNone
	}
	return WorkflowNone
}

// Workflow tags the active downstream capability in the state.
type Workflow string

const (
	WorkflowNone         Workflow = ""
	WorkflowConversation Workflow = "conversation"
	WorkflowVideo        Workflow = "video"
	WorkflowAudio        Workflow = "audio"
)
