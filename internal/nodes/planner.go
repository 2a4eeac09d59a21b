package nodes

import (
	"context"
	"fmt"
	"strings"

	"eino_data_analyst/internal/core"
	"eino_data_analyst/internal/llm"
	"eino_data_analyst/src/logger"
	"eino_data_analyst/src/model"

	"github.com/rs/zerolog"
)

// NoHistory is sent to the planner on the first question of a session
const NoHistory = "No previous conversation"

// PlannerNode turns the current question into an analysis plan
type PlannerNode struct {
	generator     core.Generator
	historyTurns  int
	historyTokens int
	truncator     *llm.Truncator
	log           zerolog.Logger
}

// NewPlannerNode creates a new planner node. truncator may be nil, in which case
// history messages are passed through whole.
func NewPlannerNode(generator core.Generator, config model.WorkflowConfig, truncator *llm.Truncator) *PlannerNode {
	turns := config.HistoryTurns
	if turns <= 0 {
		turns = 6
	}
	return &PlannerNode{
		generator:     generator,
		historyTurns:  turns,
		historyTokens: config.HistoryTokens,
		truncator:     truncator,
		log:           logger.For("planner"),
	}
}

// GetName returns the node name
func (n *PlannerNode) GetName() string {
	return string(core.StepPlan)
}

// History formats up to the last historyTurns messages before the current query
func (n *PlannerNode) History(s *core.Session) string {
	if len(s.Messages) < 2 {
		return NoHistory
	}
	prior := s.Messages[:len(s.Messages)-1]
	if len(prior) > n.historyTurns {
		prior = prior[len(prior)-n.historyTurns:]
	}

	lines := make([]string, 0, len(prior))
	for _, m := range prior {
		role := "Assistant"
		if m.Role == core.MessageRoleUser {
			role = "User"
		}
		content := m.Content
		if n.truncator != nil {
			content = n.truncator.Truncate(content, n.historyTokens)
		}
		lines = append(lines, fmt.Sprintf("%s: %s", role, content))
	}
	return strings.Join(lines, "\n")
}

// Run appends a plan for the last user message and starts a fresh retry budget
func (n *PlannerNode) Run(ctx context.Context, s *core.Session) (*core.Session, error) {
	last := s.LastMessage()
	if last == nil || last.Role != core.MessageRoleUser {
		return nil, fmt.Errorf("no user question to plan for")
	}

	n.log.Info().Str("session_id", s.ID).Str("query", last.Content).Msg("🗺️ planning analysis")
	plan, err := n.generator.Generate(ctx, core.RolePlanner, map[string]any{
		llm.FieldSummary: s.DatasetSummary,
		llm.FieldHistory: n.History(s),
		llm.FieldQuery:   last.Content,
	})
	if err != nil {
		return nil, err
	}

	s.RetryCount = 0
	s.AddMessage(core.MessageRoleAssistant, plan)
	n.log.Debug().Str("session_id", s.ID).Str("plan", plan).Msg("plan generated")
	return s, nil
}
