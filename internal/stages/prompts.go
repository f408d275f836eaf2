package stages

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"

	"github.com/whitehatjr1001/cine-brain/pkg/domain"
)

var funcs = template.FuncMap{
	"inc": func(i int) int { return i + 1 },
}

var (
	routerTmpl = template.Must(template.New("router").Funcs(funcs).Parse(`You route requests for a film writing assistant.
Pick exactly one route for the latest user message:
- conversation: story ideas, dialogue, plot checks, research, box office questions, planning
- video: the user asks for a video clip to be generated
- audio: the user asks for narration or spoken audio
- none: nothing to do
{{if .Summary}}
# Summary
{{.Summary}}
{{end}}
# Recent conversation
{{.History}}

Answer with JSON {"route": "...", "reason": "..."}.`))

	coordinatorTmpl = template.Must(template.New("coordinator").Funcs(funcs).Parse(`You are CineBrain, a creative partner for screenwriters.
Reply directly to greetings, small talk and simple questions.
Hand off to the planner when the request needs research, analysis or several steps.
{{if .Memory}}
# What you know about the user
{{.Memory}}
{{end}}{{if .Summary}}
# Summary
{{.Summary}}
{{end}}
# Recent conversation
{{.History}}

Answer with JSON {"handoff_to_planner": bool, "reply": "..."}.`))

	plannerTmpl = template.Must(template.New("planner").Funcs(funcs).Parse(`Plan the work needed to answer the user's request.
Use at most {{.MaxSteps}} steps. Step types: research, creative, analysis, validation{{if .DocSteps}}, documentation{{end}}.
Set has_enough_context to true with no steps when the request can be answered right away.
Set assigned_team to "resolution" for consistency fixes and rewrites, otherwise "research".
{{if .Memory}}
# What you know about the user
{{.Memory}}
{{end}}{{if .Summary}}
# Summary
{{.Summary}}
{{end}}
# Recent conversation
{{.History}}
{{if .Previous}}
# Previous plan
{{.Previous}}
{{end}}{{if .Feedback}}
# Requested changes
{{.Feedback}}
{{end}}
Answer with JSON matching this schema:
{{.Schema}}`))

	reporterTmpl = template.Must(template.New("reporter").Funcs(funcs).Parse(`Write the final answer for the user in markdown.
# Goal
{{.Goal}}
{{if .ContextSummary}}
# Context
{{.ContextSummary}}
{{end}}
# Steps
{{range $i, $s := .Steps}}{{inc $i}}. {{$s.Title}} [{{$s.Status}}]
{{$s.ExecutionResult}}
{{end}}
# Observations
{{range .Observations}}- {{.}}
{{end}}
# Recent conversation
{{.History}}`))

	mediaTmpl = template.Must(template.New("media").Funcs(funcs).Parse(`Rewrite the request below as a single detailed {{.Kind}} generation prompt.
Describe mood, style{{if eq .Kind "video"}}, camera movement and lighting{{else}}, voice and pacing{{end}}.
Reply with the prompt only.

# Request
{{.Request}}`))

	summaryTmpl = template.Must(template.New("summary").Funcs(funcs).Parse(`{{if .Summary}}Extend this summary of the conversation with the new messages below.

# Summary
{{.Summary}}
{{else}}Summarize the conversation below in a short paragraph.
{{end}}
# Messages
{{.History}}`))
)

func render(t *template.Template, data any) (string, error) {
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render %s prompt: %w", t.Name(), err)
	}
	return strings.TrimSpace(buf.String()), nil
}

// history renders the last n messages as "role: content" lines.
func history(msgs []domain.Message, n int) string {
	start := len(msgs) - n
	if n <= 0 || start < 0 {
		start = 0
	}
	var b strings.Builder
	for _, m := range msgs[start:] {
		fmt.Fprintf(&b, "%s: %s\n", m.Role, m.Content)
	}
	return strings.TrimSpace(b.String())
}

// presentPlan renders the plan shown to the human at the feedback gate.
func presentPlan(p domain.Plan) string {
	var b strings.Builder
	if p.Title != "" {
		fmt.Fprintf(&b, "## %s\n\n", p.Title)
	}
	fmt.Fprintf(&b, "Goal: %s\n\n", p.Goal)
	for i, s := range p.Steps {
		fmt.Fprintf(&b, "%d. %s: %s\n", i+1, s.Title, s.Description)
	}
	fmt.Fprintf(&b, "\nReply %s to run this plan or %s followed by your changes.", AcceptedMarker, EditPlanMarker)
	return b.String()
}
