package workflow

import (
	"context"

	"eino_data_analyst/internal/core"

	"github.com/cloudwego/eino/callbacks"
)

func stepOf(info *callbacks.RunInfo) (core.Step, bool) {
	if info == nil {
		return "", false
	}
	switch step := core.Step(info.Name); step {
	case core.StepPlan, core.StepCode, core.StepExecute, core.StepRepair:
		return step, true
	}
	return "", false
}

// progressHandler forwards node start and finish events of one turn to notifier
func progressHandler(sessionID string, notifier core.Notifier) callbacks.Handler {
	return callbacks.NewHandlerBuilder().
		OnStartFn(func(ctx context.Context, info *callbacks.RunInfo, input callbacks.CallbackInput) context.Context {
			if step, ok := stepOf(info); ok {
				notifier.StepStarted(ctx, sessionID, step)
			}
			return ctx
		}).
		OnEndFn(func(ctx context.Context, info *callbacks.RunInfo, output callbacks.CallbackOutput) context.Context {
			if step, ok := stepOf(info); ok {
				notifier.StepFinished(ctx, sessionID, step, nil)
			}
			return ctx
		}).
		OnErrorFn(func(ctx context.Context, info *callbacks.RunInfo, err error) context.Context {
			if step, ok := stepOf(info); ok {
				notifier.StepFinished(ctx, sessionID, step, err)
			}
			return ctx
		}).
		Build()
}
