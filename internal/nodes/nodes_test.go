package nodes

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"eino_data_analyst/internal/core"
	"eino_data_analyst/internal/llm"
	"eino_data_analyst/src/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type call struct {
	role   core.Role
	fields map[string]any
}

type fakeGenerator struct {
	replies map[core.Role]string
	err     error
	calls   []call
}

func (f *fakeGenerator) Generate(ctx context.Context, role core.Role, fields map[string]any) (string, error) {
	f.calls = append(f.calls, call{role: role, fields: fields})
	if f.err != nil {
		return "", f.err
	}
	return f.replies[role], nil
}

type fakeExecutor struct {
	result core.ExecutionResult
	codes  []string
}

func (f *fakeExecutor) Execute(ctx context.Context, code, datasetPath, sessionID string) core.ExecutionResult {
	f.codes = append(f.codes, code)
	return f.result
}

func writeDataset(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "sales.csv")
	require.NoError(t, os.WriteFile(path, []byte("region,sales\nnorth,10\nsouth,25\n"), 0644))
	return path
}

func TestSummarizerStoresTechnicalSummaryOnce(t *testing.T) {
	gen := &fakeGenerator{replies: map[core.Role]string{core.RoleSummarizer: "Sales by region."}}
	node := NewSummarizerNode(gen)
	s := core.NewSession("s1", writeDataset(t))

	_, err := node.Run(context.Background(), s)
	require.NoError(t, err)

	assert.Contains(t, s.DatasetSummary, "TECHNICAL DATA OVERVIEW:")
	assert.Contains(t, s.DatasetSummary, "Rows: 2, Columns: 2")
	require.Len(t, s.Messages, 1)
	assert.Equal(t, "Sales by region.", s.Messages[0].Content)
	require.Len(t, gen.calls, 1)
	assert.Equal(t, s.DatasetSummary, gen.calls[0].fields[llm.FieldDataInfo])

	_, err = node.Run(context.Background(), s)
	require.NoError(t, err)
	assert.Len(t, gen.calls, 1)
	assert.Len(t, s.Messages, 1)
}

func TestSummarizerUnreadableDataset(t *testing.T) {
	gen := &fakeGenerator{replies: map[core.Role]string{core.RoleSummarizer: "n/a"}}
	s := core.NewSession("s1", filepath.Join(t.TempDir(), "data.parquet"))

	_, err := NewSummarizerNode(gen).Run(context.Background(), s)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(s.DatasetSummary, "Error reading file:"))
}

func TestSummarizerGeneratorFailure(t *testing.T) {
	gen := &fakeGenerator{err: errors.New("offline")}
	s := core.NewSession("s1", writeDataset(t))

	_, err := NewSummarizerNode(gen).Run(context.Background(), s)
	require.Error(t, err)
	assert.Empty(t, s.DatasetSummary)
	assert.Empty(t, s.Messages)
}

func TestPlannerHistoryWindow(t *testing.T) {
	node := NewPlannerNode(&fakeGenerator{}, model.WorkflowConfig{HistoryTurns: 2}, nil)
	s := core.NewSession("s1", "x.csv")
	assert.Equal(t, NoHistory, node.History(s))

	s.AddMessage(core.MessageRoleUser, "first")
	assert.Equal(t, NoHistory, node.History(s))

	s.AddMessage(core.MessageRoleAssistant, "answer one")
	s.AddMessage(core.MessageRoleUser, "second")
	s.AddMessage(core.MessageRoleAssistant, "answer two")
	s.AddMessage(core.MessageRoleUser, "current")

	assert.Equal(t, "User: second\nAssistant: answer two", node.History(s))
}

func TestPlannerTruncatesHistoryMessages(t *testing.T) {
	tr, err := llm.NewTruncator()
	require.NoError(t, err)
	node := NewPlannerNode(&fakeGenerator{}, model.WorkflowConfig{HistoryTurns: 6, HistoryTokens: 1}, tr)

	s := core.NewSession("s1", "x.csv")
	s.AddMessage(core.MessageRoleAssistant, "hello world")
	s.AddMessage(core.MessageRoleUser, "now")

	assert.Equal(t, "Assistant: hello...", node.History(s))
}

func TestPlannerRun(t *testing.T) {
	gen := &fakeGenerator{replies: map[core.Role]string{core.RolePlanner: "1. sort by sales"}}
	node := NewPlannerNode(gen, model.WorkflowConfig{}, nil)
	s := core.NewSession("s1", "x.csv")
	s.DatasetSummary = "summary"
	s.RetryCount = 3
	s.AddMessage(core.MessageRoleUser, "top region?")

	_, err := node.Run(context.Background(), s)
	require.NoError(t, err)

	assert.Equal(t, 0, s.RetryCount)
	assert.Equal(t, "1. sort by sales", s.LastMessage().Content)
	assert.Equal(t, core.MessageRoleAssistant, s.LastMessage().Role)
	require.Len(t, gen.calls, 1)
	assert.Equal(t, map[string]any{
		llm.FieldSummary: "summary",
		llm.FieldHistory: NoHistory,
		llm.FieldQuery:   "top region?",
	}, gen.calls[0].fields)
}

func TestPlannerRequiresUserQuestion(t *testing.T) {
	node := NewPlannerNode(&fakeGenerator{}, model.WorkflowConfig{}, nil)
	_, err := node.Run(context.Background(), core.NewSession("s1", "x.csv"))
	assert.Error(t, err)
}

func TestStripFences(t *testing.T) {
	assert.Equal(t, `print("a")`, StripFences("```javascript\nprint(\"a\")\n```"))
	assert.Equal(t, `print("a")`, StripFences("```js\nprint(\"a\")\n```"))
	assert.Equal(t, `print("a")`, StripFences("```\nprint(\"a\")\n```\n"))
	assert.Equal(t, `print("a")`, StripFences(`  print("a")  `))
}

func TestCoderRun(t *testing.T) {
	gen := &fakeGenerator{replies: map[core.Role]string{core.RoleCoder: "```javascript\nvar result = df.head(3)\n```"}}
	s := core.NewSession("s1", "x.csv")
	s.DatasetSummary = "summary"
	s.AddMessage(core.MessageRoleAssistant, "the plan")

	_, err := NewCoderNode(gen).Run(context.Background(), s)
	require.NoError(t, err)

	assert.Equal(t, "var result = df.head(3)", s.WorkingCode)
	assert.Equal(t, "Generated Code:\n```javascript\nvar result = df.head(3)\n```", s.LastMessage().Content)
	assert.Equal(t, "the plan", gen.calls[0].fields[llm.FieldPlan])
}

func TestDebuggerRun(t *testing.T) {
	gen := &fakeGenerator{replies: map[core.Role]string{core.RoleDebugger: "print(1)"}}
	s := core.NewSession("s1", "x.csv")
	s.WorkingCode = "print(x)"
	s.LastError = "Error executing code: ReferenceError: x is not defined"
	s.RetryCount = 1

	_, err := NewDebuggerNode(gen).Run(context.Background(), s)
	require.NoError(t, err)

	assert.Equal(t, 2, s.RetryCount)
	assert.Equal(t, "print(1)", s.WorkingCode)
	assert.Equal(t, "Debugger Fixed Code:\n```javascript\nprint(1)\n```", s.LastMessage().Content)
	assert.Equal(t, "print(x)", gen.calls[0].fields[llm.FieldCode])
	assert.Equal(t, s.LastError, gen.calls[0].fields[llm.FieldError])
}

func TestDebuggerGeneratorFailureLeavesCode(t *testing.T) {
	s := core.NewSession("s1", "x.csv")
	s.WorkingCode = "print(x)"

	_, err := NewDebuggerNode(&fakeGenerator{err: errors.New("offline")}).Run(context.Background(), s)
	require.Error(t, err)
	assert.Equal(t, "print(x)", s.WorkingCode)
	assert.Equal(t, 0, s.RetryCount)
}

func TestExecutorSuccess(t *testing.T) {
	exec := &fakeExecutor{result: core.ExecutionResult{
		TextOutput:  "hello",
		StaticImage: []byte{1},
		Figures:     []core.InteractiveFigure{{HTML: "<div>"}},
	}}
	s := core.NewSession("s1", "x.csv")
	s.WorkingCode = `print("hello")`
	s.LastError = "old"
	s.RetryCount = 2

	res := NewExecutorNode(exec).Run(context.Background(), s)

	assert.Equal(t, "hello", res.TextOutput)
	assert.Equal(t, []string{`print("hello")`}, exec.codes)
	assert.Empty(t, s.LastError)
	assert.Equal(t, 0, s.RetryCount)
	assert.Equal(t, "hello", s.LastOutput)
	assert.Equal(t, []byte{1}, s.Artifacts.StaticImage)
	assert.Len(t, s.Artifacts.Figures, 1)
	assert.Equal(t, "Execution Output:\nhello\n(Image generated)\n(1 interactive plot(s) generated)", s.LastMessage().Content)
}

func TestExecutorError(t *testing.T) {
	exec := &fakeExecutor{result: core.ExecutionResult{Error: "Error executing code: boom"}}
	s := core.NewSession("s1", "x.csv")
	s.RetryCount = 1
	s.Artifacts = core.Artifacts{StaticImage: []byte{9}}

	NewExecutorNode(exec).Run(context.Background(), s)

	assert.Equal(t, "Error executing code: boom", s.LastError)
	assert.Equal(t, 1, s.RetryCount)
	assert.Equal(t, []byte{9}, s.Artifacts.StaticImage)
	assert.Equal(t, "Execution Error (Attempt 2): Error executing code: boom", s.LastMessage().Content)
}

func TestExecutorLoadFailure(t *testing.T) {
	exec := &fakeExecutor{result: core.ExecutionResult{TextOutput: "Unsupported file format", LoadFailed: true}}
	s := core.NewSession("s1", "x.parquet")
	s.LastError = "previous turn error"

	NewExecutorNode(exec).Run(context.Background(), s)

	assert.Equal(t, "previous turn error", s.LastError)
	assert.Equal(t, "Unsupported file format", s.LastOutput)
	assert.Equal(t, "Execution Output:\nUnsupported file format", s.LastMessage().Content)
}
