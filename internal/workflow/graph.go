package workflow

import (
	"context"
	"fmt"
	"time"

	"eino_data_analyst/internal/core"
	"eino_data_analyst/internal/nodes"

	"github.com/cloudwego/eino/compose"
)

// Graph node names, one per workflow step
const (
	NodePlan    = string(core.StepPlan)
	NodeCode    = string(core.StepCode)
	NodeExecute = string(core.StepExecute)
	NodeRepair  = string(core.StepRepair)
)

// turnState is the graph local state of one turn
type turnState struct {
	Path       []core.Step
	Executions int
	Last       core.ExecutionResult
}

type turnStateKey struct{}

// Workflow is the compiled Plan → Code → Execute → (Repair → Execute)* graph
type Workflow struct {
	runnable   compose.Runnable[*core.Session, *core.Session]
	retryLimit int
}

// Steps bundles the nodes the workflow is built from
type Steps struct {
	Planner  *nodes.PlannerNode
	Coder    *nodes.CoderNode
	Executor *nodes.ExecutorNode
	Debugger *nodes.DebuggerNode
}

func record(ctx context.Context, step core.Step) error {
	return compose.ProcessState(ctx, func(_ context.Context, st *turnState) error {
		st.Path = append(st.Path, step)
		return nil
	})
}

// NewWorkflow compiles the analysis graph. retryLimit bounds repairs per turn.
func NewWorkflow(ctx context.Context, steps Steps, retryLimit int, metrics *Metrics) (*Workflow, error) {
	if retryLimit < 0 {
		retryLimit = core.DefaultRetryLimit
	}

	graph := compose.NewGraph[*core.Session, *core.Session](
		compose.WithGenLocalState(func(ctx context.Context) *turnState {
			if st, ok := ctx.Value(turnStateKey{}).(*turnState); ok {
				return st
			}
			return &turnState{}
		}),
	)

	generating := func(step core.Step, run func(context.Context, *core.Session) (*core.Session, error)) *compose.Lambda {
		return compose.InvokableLambda(func(ctx context.Context, s *core.Session) (*core.Session, error) {
			if err := record(ctx, step); err != nil {
				return nil, err
			}
			metrics.ObserveStep(step)
			return run(ctx, s)
		})
	}

	execute := compose.InvokableLambda(func(ctx context.Context, s *core.Session) (*core.Session, error) {
		if err := record(ctx, core.StepExecute); err != nil {
			return nil, err
		}
		metrics.ObserveStep(core.StepExecute)

		start := time.Now()
		res := steps.Executor.Run(ctx, s)
		metrics.ObserveExecution(res, time.Since(start))

		err := compose.ProcessState(ctx, func(_ context.Context, st *turnState) error {
			st.Executions++
			st.Last = res
			return nil
		})
		return s, err
	})

	if err := graph.AddLambdaNode(NodePlan, generating(core.StepPlan, steps.Planner.Run), compose.WithNodeName(NodePlan)); err != nil {
		return nil, fmt.Errorf("error adding plan node: %w", err)
	}
	if err := graph.AddLambdaNode(NodeCode, generating(core.StepCode, steps.Coder.Run), compose.WithNodeName(NodeCode)); err != nil {
		return nil, fmt.Errorf("error adding code node: %w", err)
	}
	if err := graph.AddLambdaNode(NodeExecute, execute, compose.WithNodeName(NodeExecute)); err != nil {
		return nil, fmt.Errorf("error adding execute node: %w", err)
	}
	if err := graph.AddLambdaNode(NodeRepair, generating(core.StepRepair, steps.Debugger.Run), compose.WithNodeName(NodeRepair)); err != nil {
		return nil, fmt.Errorf("error adding repair node: %w", err)
	}

	for _, edge := range [][2]string{
		{compose.START, NodePlan},
		{NodePlan, NodeCode},
		{NodeCode, NodeExecute},
		{NodeRepair, NodeExecute},
	} {
		if err := graph.AddEdge(edge[0], edge[1]); err != nil {
			return nil, fmt.Errorf("error adding edge %s -> %s: %w", edge[0], edge[1], err)
		}
	}

	// Repair only interprets execution errors; load failures end the turn.
	afterExecute := compose.NewGraphBranch(func(ctx context.Context, s *core.Session) (string, error) {
		next := compose.END
		err := compose.ProcessState(ctx, func(_ context.Context, st *turnState) error {
			if st.Last.Error != "" && !st.Last.LoadFailed && s.RetryCount < retryLimit {
				next = NodeRepair
			}
			return nil
		})
		return next, err
	}, map[string]bool{NodeRepair: true, compose.END: true})

	if err := graph.AddBranch(NodeExecute, afterExecute); err != nil {
		return nil, fmt.Errorf("error adding execute branch: %w", err)
	}

	runnable, err := graph.Compile(ctx,
		compose.WithGraphName("analysis_workflow"),
		compose.WithMaxRunSteps(2*retryLimit+10),
	)
	if err != nil {
		return nil, fmt.Errorf("error compiling workflow graph: %w", err)
	}

	return &Workflow{runnable: runnable, retryLimit: retryLimit}, nil
}

// run drives s through one turn and returns the turn's local state with it
func (w *Workflow) run(ctx context.Context, s *core.Session, opts ...compose.Option) (*core.Session, *turnState, error) {
	st := &turnState{}
	ctx = context.WithValue(ctx, turnStateKey{}, st)
	out, err := w.runnable.Invoke(ctx, s, opts...)
	if err != nil {
		return nil, st, err
	}
	return out, st, nil
}
