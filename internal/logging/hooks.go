package logging

import (
	"context"
	"log/slog"

	"github.com/whitehatjr1001/cine-brain/pkg/domain"
)

// Hooks returns lifecycle hooks that log stage, tool and suspension events at
// debug level. Stage errors are logged as warnings.
func Hooks(logger *slog.Logger) domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnStageEnter: func(ctx context.Context, e *domain.StageEvent) {
			logger.DebugContext(ctx, "stage_enter", "session_id", e.SessionID, "stage", e.Stage)
		},
		OnStageLeave: func(ctx context.Context, e *domain.StageEvent) {
			if e.Err != nil {
				logger.WarnContext(ctx, "stage_failed", "session_id", e.SessionID, "stage", e.Stage, "error", e.Err)
				return
			}
			logger.DebugContext(ctx, "stage_leave",
				"session_id", e.SessionID,
				"stage", e.Stage,
				"directive", e.Directive,
				"fields", e.Fields,
				"duration", e.Duration,
			)
		},
		OnToolCall: func(ctx context.Context, e *domain.ToolEvent) {
			logger.DebugContext(ctx, "tool_call", "session_id", e.SessionID, "step", e.Step, "tool_name", e.ToolName)
		},
		OnToolReturn: func(ctx context.Context, e *domain.ToolEvent) {
			logger.DebugContext(ctx, "tool_return", "session_id", e.SessionID, "tool_name", e.ToolName, "is_error", e.IsError)
		},
		OnSuspend: func(ctx context.Context, e *domain.SuspendEvent) {
			logger.InfoContext(ctx, "suspended", "session_id", e.SessionID, "stage", e.Stage)
		},
	}
}
