package stages

import (
	"github.com/whitehatjr1001/cine-brain/pkg/domain"
	"github.com/whitehatjr1001/cine-brain/pkg/dsl"
	"github.com/whitehatjr1001/cine-brain/pkg/ports"
)

// Builder wires every stage and transition of the CineBrain graph.
//
//	inject_memory → router
//	router: conversation → coordinator | video → video | audio → audio | default → end
//	coordinator → store_memory (jumps to planner)
//	planner → human_feedback (jumps to reporter, team_dispatch)
//	human_feedback suspends or jumps to team_dispatch, planner
//	team_dispatch: research → research_team | resolution → resolution_team | default → research_team
//	research_team, resolution_team → team_dispatch (jump to reporter)
//	reporter → end
//	video, audio → store_memory → router
func Builder(deps Deps) *dsl.Builder {
	b := dsl.New().Start(InjectMemory)

	b.Add(InjectMemory, &injectMemory{deps: deps}).Go(Router)

	b.Add(Router, &router{deps: deps}).
		Switch(selectWorkflow).
		Case(string(domain.WorkflowConversation), Coordinator).
		Case(string(domain.WorkflowVideo), Video).
		Case(string(domain.WorkflowAudio), Audio).
		Default(domain.StageEnd)

	b.Add(Coordinator, &coordinator{deps: deps}).Go(StoreMemory).Jumps(Planner)
	b.Add(Planner, &planner{deps: deps}).Go(HumanFeedback).Jumps(Reporter, TeamDispatch)
	b.Add(HumanFeedback, &humanFeedback{deps: deps}).Jumps(TeamDispatch, Planner).Interrupts()

	b.Add(TeamDispatch, teamDispatch{}).
		Switch(selectTeam).
		Case(string(domain.TeamResearch), ResearchTeam).
		Case(string(domain.TeamResolution), ResolutionTeam).
		Default(ResearchTeam)

	b.Add(ResearchTeam, &team{name: domain.TeamResearch, executor: deps.Research, deps: deps}).
		Go(TeamDispatch).Jumps(Reporter)
	b.Add(ResolutionTeam, &team{name: domain.TeamResolution, executor: deps.Resolution, deps: deps}).
		Go(TeamDispatch).Jumps(Reporter)

	b.Add(Reporter, &reporter{deps: deps}).Terminal()

	b.Add(Video, &media{kind: ports.MediaVideo, deps: deps}).Go(StoreMemory)
	b.Add(Audio, &media{kind: ports.MediaAudio, deps: deps}).Go(StoreMemory)
	b.Add(StoreMemory, &storeMemory{deps: deps}).Go(Router)

	return b
}

// Build returns the validated CineBrain graph.
func Build(deps Deps) (*dsl.Graph, error) {
	return Builder(deps).Build()
}
