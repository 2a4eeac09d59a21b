package nodes

import (
	"context"
	"strings"

	"eino_data_analyst/internal/core"
	"eino_data_analyst/internal/llm"
	"eino_data_analyst/src/logger"

	"github.com/rs/zerolog"
)

var fenceStripper = strings.NewReplacer("```javascript", "", "```js", "", "```", "")

// StripFences removes markdown code fences the model may wrap code in
func StripFences(text string) string {
	return strings.TrimSpace(fenceStripper.Replace(text))
}

// CodeBlock renders code as a fenced javascript block
func CodeBlock(code string) string {
	return "```javascript\n" + code + "\n```"
}

// CoderNode writes analysis code for the latest plan
type CoderNode struct {
	generator core.Generator
	log       zerolog.Logger
}

// NewCoderNode creates a new coder node
func NewCoderNode(generator core.Generator) *CoderNode {
	return &CoderNode{generator: generator, log: logger.For("coder")}
}

// GetName returns the node name
func (n *CoderNode) GetName() string {
	return string(core.StepCode)
}

// Run generates WorkingCode from the plan, the last message of the conversation
func (n *CoderNode) Run(ctx context.Context, s *core.Session) (*core.Session, error) {
	plan := ""
	if last := s.LastMessage(); last != nil {
		plan = last.Content
	}

	out, err := n.generator.Generate(ctx, core.RoleCoder, map[string]any{
		llm.FieldSummary: s.DatasetSummary,
		llm.FieldPlan:    plan,
	})
	if err != nil {
		return nil, err
	}

	code := StripFences(out)
	s.WorkingCode = code
	s.AddMessage(core.MessageRoleAssistant, "Generated Code:\n"+CodeBlock(code))

	n.log.Info().Str("session_id", s.ID).Int("code_length", len(code)).Msg("💻 code generated")
	return s, nil
}
