package nodes

import (
	"context"
	"fmt"
	"time"

	"eino_data_analyst/internal/core"
	"eino_data_analyst/internal/llm"
	"eino_data_analyst/internal/table"
	"eino_data_analyst/src/logger"

	"github.com/rs/zerolog"
)

// SummarizerNode builds the dataset summary shared by every later step
type SummarizerNode struct {
	generator core.Generator
	log       zerolog.Logger
}

// NewSummarizerNode creates a new summarizer node
func NewSummarizerNode(generator core.Generator) *SummarizerNode {
	return &SummarizerNode{generator: generator, log: logger.For("summarizer")}
}

// GetName returns the node name
func (n *SummarizerNode) GetName() string {
	return "summarize"
}

// TechnicalSummary describes the dataset at path, or why it could not be read
func TechnicalSummary(path string) string {
	tbl, err := table.Load(path)
	if err != nil {
		return fmt.Sprintf("Error reading file: %v", err)
	}
	return table.Summarize(tbl, path)
}

// Run stores the technical summary on the session and appends the generated
// narrative as an assistant message. Sessions that already have a summary are left alone.
func (n *SummarizerNode) Run(ctx context.Context, s *core.Session) (*core.Session, error) {
	if s.DatasetSummary != "" {
		return s, nil
	}
	start := time.Now()

	technical := TechnicalSummary(s.DatasetPath)
	narrative, err := n.generator.Generate(ctx, core.RoleSummarizer, map[string]any{
		llm.FieldDataInfo: technical,
	})
	if err != nil {
		return nil, err
	}

	s.DatasetSummary = technical
	s.AddMessage(core.MessageRoleAssistant, narrative)

	n.log.Info().
		Str("session_id", s.ID).
		Int("summary_length", len(technical)).
		Dur("duration", time.Since(start)).
		Msg("📋 dataset summarized")
	return s, nil
}
