package workflow

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"eino_data_analyst/internal/core"
	"eino_data_analyst/internal/llm"
	"eino_data_analyst/internal/nodes"
	"eino_data_analyst/internal/storage"
	"eino_data_analyst/src/logger"
	"eino_data_analyst/src/model"

	"github.com/cloudwego/eino/compose"
	"github.com/rs/zerolog"
)

// RunnerConfig wires the collaborators of a Runner.
// Notifier, Metrics and Truncator are optional.
type RunnerConfig struct {
	Store     storage.Store
	Generator core.Generator
	Executor  core.Executor
	Workflow  model.WorkflowConfig
	Notifier  core.Notifier
	Metrics   *Metrics
	Truncator *llm.Truncator
}

// Runner processes user turns against stored sessions
type Runner struct {
	store      storage.Store
	workflow   *Workflow
	summarizer *nodes.SummarizerNode
	notifier   core.Notifier
	metrics    *Metrics
	log        zerolog.Logger
}

// NewRunner builds the workflow graph and returns a runner using it
func NewRunner(ctx context.Context, config RunnerConfig) (*Runner, error) {
	if config.Store == nil || config.Generator == nil || config.Executor == nil {
		return nil, fmt.Errorf("store, generator and executor are required")
	}

	wf, err := NewWorkflow(ctx, Steps{
		Planner:  nodes.NewPlannerNode(config.Generator, config.Workflow, config.Truncator),
		Coder:    nodes.NewCoderNode(config.Generator),
		Executor: nodes.NewExecutorNode(config.Executor),
		Debugger: nodes.NewDebuggerNode(config.Generator),
	}, config.Workflow.RetryLimit, config.Metrics)
	if err != nil {
		return nil, err
	}

	notifier := config.Notifier
	if notifier == nil {
		notifier = core.NopNotifier{}
	}

	return &Runner{
		store:      config.Store,
		workflow:   wf,
		summarizer: nodes.NewSummarizerNode(config.Generator),
		notifier:   notifier,
		metrics:    config.Metrics,
		log:        logger.For("workflow"),
	}, nil
}

// Summarize produces the dataset summary of a session once and returns it
func (r *Runner) Summarize(ctx context.Context, sessionID string) (string, error) {
	unlock, err := r.store.Lock(ctx, sessionID)
	if err != nil {
		return "", fmt.Errorf("failed to lock session: %w", err)
	}
	defer unlock()

	s, err := r.store.Get(ctx, sessionID)
	if err != nil {
		return "", err
	}
	if s.DatasetSummary != "" {
		return s.DatasetSummary, nil
	}
	if _, err := r.summarizer.Run(ctx, s); err != nil {
		return "", fmt.Errorf("failed to summarize dataset: %w", err)
	}
	if err := r.store.Put(ctx, s); err != nil {
		return "", err
	}
	return s.DatasetSummary, nil
}

// RunTurn answers one user message. Turns on the same session are serialized.
//
// Execution failures are reported in the result with Failed set. Generator
// failures are returned as errors and leave the stored session unchanged.
func (r *Runner) RunTurn(ctx context.Context, sessionID, text string) (*core.TurnResult, error) {
	if strings.TrimSpace(text) == "" {
		return nil, errors.New("user message cannot be empty")
	}
	start := time.Now()
	log := r.log.With().Str("session_id", sessionID).Logger()

	unlock, err := r.store.Lock(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to lock session: %w", err)
	}
	defer unlock()

	s, err := r.store.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	if s.DatasetSummary == "" {
		if _, err := r.summarizer.Run(ctx, s); err != nil {
			r.metrics.ObserveTurn(OutcomeError, time.Since(start))
			return nil, fmt.Errorf("failed to summarize dataset: %w", err)
		}
	}

	s.AddMessage(core.MessageRoleUser, text)
	log.Info().Str("query", text).Msg("🚀 starting analysis turn")

	out, st, err := r.workflow.run(ctx, s, compose.WithCallbacks(progressHandler(sessionID, r.notifier)))
	if err != nil {
		r.metrics.ObserveTurn(OutcomeError, time.Since(start))
		log.Error().Err(err).Interface("path", st.Path).Msg("analysis turn aborted")
		return nil, fmt.Errorf("analysis turn failed: %w", err)
	}

	result := &core.TurnResult{
		SessionID:  sessionID,
		Path:       append(st.Path, core.StepDone),
		RetryCount: out.RetryCount,
	}
	switch {
	case st.Last.LoadFailed:
		result.Failed = true
		result.ResponseText = st.Last.TextOutput
	case st.Last.Error != "":
		result.Failed = true
		result.ResponseText = out.LastError
	default:
		result.ResponseText = out.LastOutput
		result.StaticImage = out.Artifacts.StaticImage
		result.Figures = out.Artifacts.Figures
	}

	// Delivered artifacts are not sent again on the next turn.
	out.Artifacts = core.Artifacts{}
	if err := r.store.Put(ctx, out); err != nil {
		r.metrics.ObserveTurn(OutcomeError, time.Since(start))
		return nil, err
	}

	outcome := OutcomeSuccess
	if result.Failed {
		outcome = OutcomeFailed
	}
	r.metrics.ObserveTurn(outcome, time.Since(start))
	log.Info().
		Str("outcome", outcome).
		Int("executions", st.Executions).
		Int("retry_count", out.RetryCount).
		Dur("duration", time.Since(start)).
		Msg("✅ analysis turn finished")
	return result, nil
}
