package nodes

import (
	"context"
	"fmt"
	"time"

	"eino_data_analyst/internal/core"
	"eino_data_analyst/src/logger"

	"github.com/rs/zerolog"
)

// ExecutorNode runs WorkingCode and folds the result into the session
type ExecutorNode struct {
	executor core.Executor
	log      zerolog.Logger
}

// NewExecutorNode creates a new executor node
func NewExecutorNode(executor core.Executor) *ExecutorNode {
	return &ExecutorNode{executor: executor, log: logger.For("executor_node")}
}

// GetName returns the node name
func (n *ExecutorNode) GetName() string {
	return string(core.StepExecute)
}

// Run executes the working code once and returns the raw result.
//
// On success LastOutput and Artifacts are replaced, LastError is cleared and the
// retry count resets. On an execution error LastError is set. A dataset that
// could not be loaded only records its text; LastError is left untouched.
// Exactly one assistant message is appended in every case.
func (n *ExecutorNode) Run(ctx context.Context, s *core.Session) core.ExecutionResult {
	attempt := s.RetryCount + 1
	start := time.Now()
	res := n.executor.Execute(ctx, s.WorkingCode, s.DatasetPath, s.ID)
	log := n.log.With().
		Str("session_id", s.ID).
		Int("attempt", attempt).
		Int64("duration_ms", time.Since(start).Milliseconds()).
		Logger()

	switch {
	case res.LoadFailed:
		s.LastOutput = res.TextOutput
		s.Artifacts = core.Artifacts{}
		s.AddMessage(core.MessageRoleAssistant, "Execution Output:\n"+res.TextOutput)
		log.Warn().Str("output", res.TextOutput).Msg("dataset could not be loaded")
	case res.Error != "":
		s.LastError = res.Error
		s.AddMessage(core.MessageRoleAssistant, fmt.Sprintf("Execution Error (Attempt %d): %s", attempt, res.Error))
		log.Warn().Str("error", res.Error).Msg("❌ execution failed")
	default:
		s.LastOutput = res.TextOutput
		s.LastError = ""
		s.RetryCount = 0
		s.Artifacts = core.Artifacts{StaticImage: res.StaticImage, Figures: res.Figures}
		s.AddMessage(core.MessageRoleAssistant, SuccessMessage(res))
		log.Info().
			Bool("image", len(res.StaticImage) > 0).
			Int("figures", len(res.Figures)).
			Msg("✅ execution succeeded")
	}
	return res
}

// SuccessMessage is the conversation entry for a successful execution
func SuccessMessage(res core.ExecutionResult) string {
	msg := "Execution Output:\n" + res.TextOutput
	if len(res.StaticImage) > 0 {
		msg += "\n(Image generated)"
	}
	if len(res.Figures) > 0 {
		msg += fmt.Sprintf("\n(%d interactive plot(s) generated)", len(res.Figures))
	}
	return msg
}
