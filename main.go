package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"eino_data_analyst/internal/config"
	"eino_data_analyst/internal/core"
	"eino_data_analyst/internal/executor"
	"eino_data_analyst/internal/llm"
	"eino_data_analyst/internal/storage"
	"eino_data_analyst/internal/workflow"
	"eino_data_analyst/src"
	"eino_data_analyst/src/logger"
	"eino_data_analyst/src/model"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

// logNotifier prints workflow progress to the log
type logNotifier struct {
	log zerolog.Logger
}

func (n logNotifier) StepStarted(_ context.Context, sessionID string, step core.Step) {
	n.log.Info().Str("session_id", sessionID).Str("step", string(step)).Msg("▶️ step started")
}

func (n logNotifier) StepFinished(_ context.Context, sessionID string, step core.Step, err error) {
	if err != nil {
		n.log.Warn().Err(err).Str("session_id", sessionID).Str("step", string(step)).Msg("step failed")
		return
	}
	n.log.Debug().Str("session_id", sessionID).Str("step", string(step)).Msg("step finished")
}

func newStore(ctx context.Context, cfg model.StorageConfig) (storage.Store, error) {
	switch strings.ToLower(cfg.Backend) {
	case "", "memory":
		return storage.NewMemoryStore(), nil
	case "redis":
		return storage.NewRedisStore(ctx, cfg)
	default:
		return nil, fmt.Errorf("unsupported storage backend '%s'", cfg.Backend)
	}
}

func serveMetrics(addr string, log zerolog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	go func() {
		log.Info().Str("addr", addr).Msg("📊 serving metrics")
		if err := http.ListenAndServe(addr, mux); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("metrics server stopped")
		}
	}()
}

func printResult(res *core.TurnResult) {
	fmt.Println()
	fmt.Println(res.ResponseText)
	if len(res.StaticImage) > 0 {
		fmt.Printf("\n[static image: %d bytes]\n", len(res.StaticImage))
	}
	for i, fig := range res.Figures {
		fmt.Printf("[interactive figure %d: %s]\n", i+1, fig.Insight.Title)
	}
	if res.Failed {
		fmt.Printf("(analysis failed after %d repair attempt(s))\n", res.RetryCount)
	}
	fmt.Println()
}

func run(ctx context.Context, datasetPath string) error {
	cfg, err := src.LoadConfig()
	if err != nil {
		return err
	}
	if err := logger.InitLogger(cfg.LogConfig); err != nil {
		return err
	}
	log := logger.For("main")

	prompts, err := config.BuildPrompts(cfg.PromptsFile)
	if err != nil {
		return err
	}
	chatModel, err := llm.NewChatModel(ctx, cfg.LLMConfig)
	if err != nil {
		return err
	}
	generator, err := llm.NewGenerator(ctx, chatModel, prompts)
	if err != nil {
		return err
	}
	truncator, err := llm.NewTruncator()
	if err != nil {
		return err
	}

	store, err := newStore(ctx, cfg.StorageConfig)
	if err != nil {
		return err
	}

	var metrics *workflow.Metrics
	if cfg.MetricsConfig.Addr != "" {
		metrics = workflow.NewMetrics(prometheus.DefaultRegisterer)
		serveMetrics(cfg.MetricsConfig.Addr, log)
	}

	runner, err := workflow.NewRunner(ctx, workflow.RunnerConfig{
		Store:     store,
		Generator: generator,
		Executor:  executor.NewEngine(cfg.ExecutorConfig),
		Workflow:  cfg.WorkflowConfig,
		Notifier:  logNotifier{log: logger.For("progress")},
		Metrics:   metrics,
		Truncator: truncator,
	})
	if err != nil {
		return err
	}

	id, err := uuid.NewV7()
	if err != nil {
		return fmt.Errorf("failed to generate session id: %w", err)
	}
	sessionID := id.String()
	if _, err := store.Create(ctx, sessionID, datasetPath); err != nil {
		return err
	}
	log.Info().Str("session_id", sessionID).Str("dataset", datasetPath).Msg("🚀 session created")

	summary, err := runner.Summarize(ctx, sessionID)
	if err != nil {
		return err
	}
	fmt.Printf("\n=== Dataset ===\n%s\n\n", summary)

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("question> ")
		if !scanner.Scan() {
			break
		}
		text := strings.TrimSpace(scanner.Text())
		switch text {
		case "":
			continue
		case "exit", "quit":
			return nil
		}

		res, err := runner.RunTurn(ctx, sessionID, text)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			fmt.Printf("Error: %v\n\n", err)
			continue
		}
		printResult(res)
	}
	return scanner.Err()
}

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, "usage: eino_data_analyst <dataset.csv|dataset.xlsx>")
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1]); err != nil && !errors.Is(err, context.Canceled) {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
