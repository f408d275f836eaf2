package domain

// Reserved stage names.
const (
	StageStart = "__start__"
	StageEnd   = "__end__"
)

// Directive tells the executor how to leave a stage.
type Directive int

const (
	// DirectiveNext follows the stage's static or conditional edge.
	DirectiveNext Directive = iota
	// DirectiveGoto jumps to an explicit target stage.
	DirectiveGoto
	// DirectiveSuspend checkpoints the session and hands a prompt to the caller.
	// On resume the same stage is re-entered.
	DirectiveSuspend
	// DirectiveEnd stops the run at the terminal stage.
	DirectiveEnd
)

func (d Directive) String() string {
	switch d {
	case DirectiveNext:
		return "next"
	case DirectiveGoto:
		return "goto"
	case DirectiveSuspend:
		return "suspend"
	case DirectiveEnd:
		return "end"
	}
	return "unknown"
}

// Result is what a stage returns: a partial update plus a directive.
type Result struct {
	Update    Update
	Directive Directive
	Target    string
	Prompt    string
}

// Next continues along the stage's outgoing edges.
func Next(u Update) Result {
	return Result{Update: u, Directive: DirectiveNext}
}

// Goto continues at target regardless of declared edges.
func Goto(target string, u Update) Result {
	return Result{Update: u, Directive: DirectiveGoto, Target: target}
}

// Suspend asks the executor to persist a checkpoint and return prompt to the caller.
func Suspend(prompt string, u Update) Result {
	return Result{Update: u, Directive: DirectiveSuspend, Prompt: prompt}
}

// End terminates the run after applying u.
func End(u Update) Result {
	return Result{Update: u, Directive: DirectiveEnd}
}
