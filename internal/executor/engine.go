package executor

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"eino_data_analyst/internal/charts"
	"eino_data_analyst/internal/core"
	"eino_data_analyst/internal/plotting"
	"eino_data_analyst/internal/table"
	"eino_data_analyst/src/logger"
	"eino_data_analyst/src/model"

	"github.com/dop251/goja"
	"github.com/rs/zerolog"
)

// ResultNames are probed in order for a result table after execution
var ResultNames = []string{"result", "output_df", "df_result", "top", "summary"}

// Engine runs generated analysis code against a dataset.
// Every call gets its own runtime, namespace and figure state.
type Engine struct {
	uploadDir string
	timeout   time.Duration
	now       func() time.Time
	log       zerolog.Logger
}

// NewEngine creates an engine writing plots below cfg.UploadDir
func NewEngine(cfg model.ExecutorConfig) *Engine {
	return &Engine{
		uploadDir: cfg.UploadDir,
		timeout:   cfg.Timeout,
		now:       time.Now,
		log:       logger.For("executor"),
	}
}

// Execute loads the dataset, runs code and folds everything it produced into one result.
// Failures never escape as Go errors: they are reported in the result.
func (e *Engine) Execute(ctx context.Context, code, datasetPath, sessionID string) core.ExecutionResult {
	log := e.log.With().Str("session_id", sessionID).Logger()

	tbl, err := table.Load(datasetPath)
	if err != nil {
		if errors.Is(err, table.ErrUnsupportedFormat) {
			log.Warn().Str("dataset", datasetPath).Msg("unsupported dataset format")
			return core.ExecutionResult{TextOutput: UnsupportedFormat, LoadFailed: true}
		}
		log.Warn().Err(err).Str("dataset", datasetPath).Msg("could not load dataset")
		return core.ExecutionResult{TextOutput: CouldNotParse + err.Error(), LoadFailed: true}
	}

	vm := goja.New()
	ns, err := newNamespace(vm, tbl)
	if err != nil {
		return core.ExecutionResult{Error: ErrorPrefix + err.Error()}
	}

	start := time.Now()
	if err := e.run(ctx, vm, code); err != nil {
		log.Info().Err(err).Dur("duration", time.Since(start)).Msg("code execution failed")
		return core.ExecutionResult{Error: ErrorPrefix + describeError(err)}
	}
	log.Debug().Dur("duration", time.Since(start)).Msg("code executed")

	printed, insights := ExtractInsights(ns.out.String())
	figures := renderFigures(interactiveFigures(vm, ns, code), insights, log)
	resultTable := findResultTable(vm)

	var res core.ExecutionResult
	if figs := ns.figures.Figures(); len(figs) > 0 {
		png, err := e.renderStatic(figs)
		if err != nil {
			log.Warn().Err(err).Int("figures", len(figs)).Msg("failed to render static figures")
		} else {
			res.StaticImage = png
			path := PlotPath(e.uploadDir, sessionID, len(figs) > 1, e.now())
			if err := savePlot(path, png); err != nil {
				log.Warn().Err(err).Str("path", path).Msg("failed to persist plot")
			} else {
				res.StaticImagePath = path
				log.Info().Str("path", path).Int("figures", len(figs)).Msg("📈 plot saved")
			}
		}
		ns.figures.CloseAll()
	}

	res.Figures = figures
	res.TextOutput = resolveOutput(resultTable, printed, figures, len(res.StaticImage) > 0)
	return res
}

func (e *Engine) renderStatic(figs []*plotting.Figure) (png []byte, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("render panic: %v", r)
		}
	}()
	return plotting.Encode(figs)
}

// run executes code, converting panics, timeouts and cancellation into errors
func (e *Engine) run(ctx context.Context, vm *goja.Runtime, code string) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%v", r)
		}
	}()

	guard := &interrupter{vm: vm}
	defer guard.finish()

	if e.timeout > 0 {
		timer := time.AfterFunc(e.timeout, func() {
			guard.interrupt(fmt.Sprintf("execution timed out after %s", e.timeout))
		})
		defer timer.Stop()
	}
	stop := context.AfterFunc(ctx, func() {
		guard.interrupt(ctx.Err().Error())
	})
	defer stop()

	_, err = vm.RunString(code)
	return err
}

// interrupter stops a runtime until finish is called. Interrupts arriving
// later are dropped so the binding probes after the run are not cut short.
type interrupter struct {
	mu       sync.Mutex
	vm       *goja.Runtime
	finished bool
}

func (i *interrupter) interrupt(reason string) {
	i.mu.Lock()
	defer i.mu.Unlock()
	if !i.finished {
		i.vm.Interrupt(reason)
	}
}

func (i *interrupter) finish() {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.finished = true
	i.vm.ClearInterrupt()
}

func describeError(err error) string {
	var exception *goja.Exception
	if errors.As(err, &exception) {
		return exception.Value().String()
	}
	var interrupted *goja.InterruptedError
	if errors.As(err, &interrupted) {
		return fmt.Sprint(interrupted.Value())
	}
	return err.Error()
}

// interactiveFigures returns the figures still bound in the namespace in
// creation order, whatever kind of binding holds them.
func interactiveFigures(vm *goja.Runtime, ns *namespace, code string) []htmlRenderer {
	bound := make(map[*charts.Figure]bool)
	for _, name := range bindingNames(vm, code) {
		v := lookup(vm, name)
		if core.KindOf(v) != core.KindInteractiveFigure {
			continue
		}
		if fig, ok := v.(*charts.Figure); ok {
			bound[fig] = true
		}
	}

	var figs []htmlRenderer
	for _, fig := range ns.created {
		if bound[fig] {
			figs = append(figs, fig)
			delete(bound, fig)
		}
	}
	return figs
}

type htmlRenderer interface {
	RenderHTML(id string) (string, error)
}

// renderFigures pairs the n-th figure with the n-th insight. A figure that
// fails to render is dropped without shifting the pairing of later ones.
func renderFigures(figs []htmlRenderer, insights []core.Insight, log zerolog.Logger) []core.InteractiveFigure {
	var out []core.InteractiveFigure
	for i, fig := range figs {
		n := i + 1
		html, err := fig.RenderHTML(fmt.Sprintf("figure_%d", n))
		if err != nil {
			log.Warn().Err(err).Int("figure", n).Msg("could not render interactive figure")
			continue
		}
		insight := DefaultInsight(n)
		if n <= len(insights) {
			insight = insights[n-1]
		}
		out = append(out, core.InteractiveFigure{HTML: html, Insight: insight})
	}
	return out
}

// findResultTable returns the first conventional binding holding a table.
// Lexical bindings are visible to the probe as well as globals.
func findResultTable(vm *goja.Runtime) *table.Table {
	for _, name := range ResultNames {
		v := lookup(vm, name)
		if core.KindOf(v) != core.KindTable {
			continue
		}
		if t, ok := v.(*table.Table); ok {
			return t
		}
	}
	return nil
}
