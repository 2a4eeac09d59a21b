package nodes

import (
	"context"

	"eino_data_analyst/internal/core"
	"eino_data_analyst/internal/llm"
	"eino_data_analyst/src/logger"

	"github.com/rs/zerolog"
)

// DebuggerNode repairs WorkingCode after a failed execution
type DebuggerNode struct {
	generator core.Generator
	log       zerolog.Logger
}

// NewDebuggerNode creates a new debugger node
func NewDebuggerNode(generator core.Generator) *DebuggerNode {
	return &DebuggerNode{generator: generator, log: logger.For("debugger")}
}

// GetName returns the node name
func (n *DebuggerNode) GetName() string {
	return string(core.StepRepair)
}

// Run asks for a fix of WorkingCode given LastError and counts the repair attempt
func (n *DebuggerNode) Run(ctx context.Context, s *core.Session) (*core.Session, error) {
	n.log.Info().
		Str("session_id", s.ID).
		Int("attempt", s.RetryCount+1).
		Str("error", s.LastError).
		Msg("🔧 repairing code")

	out, err := n.generator.Generate(ctx, core.RoleDebugger, map[string]any{
		llm.FieldSummary: s.DatasetSummary,
		llm.FieldCode:    s.WorkingCode,
		llm.FieldError:   s.LastError,
	})
	if err != nil {
		return nil, err
	}

	code := StripFences(out)
	s.RetryCount++
	s.WorkingCode = code
	s.AddMessage(core.MessageRoleAssistant, "Debugger Fixed Code:\n"+CodeBlock(code))
	return s, nil
}
