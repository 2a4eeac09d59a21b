package executor

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"eino_data_analyst/internal/core"
	"eino_data_analyst/internal/table"
	"eino_data_analyst/src/model"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const salesCSV = "region,sales\nnorth,10\nsouth,25\neast,5\n"

var fixedNow = time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)

func newTestEngine(t *testing.T, timeout time.Duration) (*Engine, string) {
	t.Helper()
	dir := t.TempDir()
	dataset := filepath.Join(dir, "sales.csv")
	require.NoError(t, os.WriteFile(dataset, []byte(salesCSV), 0644))

	e := NewEngine(model.ExecutorConfig{UploadDir: dir, Timeout: timeout})
	e.now = func() time.Time { return fixedNow }
	return e, dataset
}

func TestExecutePrint(t *testing.T) {
	e, dataset := newTestEngine(t, 0)

	res := e.Execute(context.Background(), `print("hello")`, dataset, "s1")

	assert.Equal(t, "hello", res.TextOutput)
	assert.Empty(t, res.Error)
	assert.Nil(t, res.StaticImage)
	assert.Empty(t, res.Figures)
	assert.False(t, res.LoadFailed)
}

func TestExecuteUndefinedName(t *testing.T) {
	e, dataset := newTestEngine(t, 0)

	res := e.Execute(context.Background(), `print(x + 1)`, dataset, "s1")

	assert.Equal(t, "Error executing code: ReferenceError: x is not defined", strings.Split(res.Error, " at ")[0])
	assert.Empty(t, res.TextOutput)
}

func TestExecuteDiscardsPartialOutputOnError(t *testing.T) {
	e, dataset := newTestEngine(t, 0)

	res := e.Execute(context.Background(), `
print("partial")
plt.plot([1, 2], [3, 4])
throw new Error("boom")`, dataset, "s1")

	assert.True(t, strings.HasPrefix(res.Error, "Error executing code: Error: boom"))
	assert.Empty(t, res.TextOutput)
	assert.Nil(t, res.StaticImage)
}

func TestExecuteGoErrorsBecomeExecutionErrors(t *testing.T) {
	e, dataset := newTestEngine(t, 0)

	res := e.Execute(context.Background(), `df.col("profit").mean()`, dataset, "s1")

	assert.Contains(t, res.Error, "column 'profit' not found")
}

func TestResultTableWinsOverPrint(t *testing.T) {
	e, dataset := newTestEngine(t, 0)

	res := e.Execute(context.Background(), `
var result = df.sortBy("sales", false)
print("unrelated text")`, dataset, "s1")

	tbl, err := table.Load(dataset)
	require.NoError(t, err)
	sorted, err := tbl.SortBy("sales", false)
	require.NoError(t, err)

	require.Empty(t, res.Error)
	assert.Equal(t, sorted.Markdown(), res.TextOutput)
	assert.NotContains(t, res.TextOutput, "unrelated")
}

func TestResultTableProbeOrderAndLexicalBindings(t *testing.T) {
	e, dataset := newTestEngine(t, 0)

	res := e.Execute(context.Background(), `
const top = df.head(1)
let output_df = df.tail(1)`, dataset, "s1")

	require.Empty(t, res.Error)
	assert.Contains(t, res.TextOutput, "east")
	assert.NotContains(t, res.TextOutput, "north")
}

func TestEmptyResultTableFallsBackToPrint(t *testing.T) {
	e, dataset := newTestEngine(t, 0)

	res := e.Execute(context.Background(), `
var result = df.head(0)
print("nothing matched")`, dataset, "s1")

	require.Empty(t, res.Error)
	assert.Equal(t, "nothing matched", res.TextOutput)
}

func TestSingleStaticFigure(t *testing.T) {
	e, dataset := newTestEngine(t, 0)

	res := e.Execute(context.Background(), `
plt.bar(df.col("region"), df.col("sales"), {color: "#FF6B9D"})
plt.title("Sales")
plt.show()`, dataset, "s1")

	require.Empty(t, res.Error)
	require.NotEmpty(t, res.StaticImage)
	assert.Equal(t, ImageGenerated, res.TextOutput)

	want := filepath.Join(e.uploadDir, "plots", "s1", "plot_20240102_030405.png")
	assert.Equal(t, want, res.StaticImagePath)
	saved, err := os.ReadFile(want)
	require.NoError(t, err)
	assert.Equal(t, res.StaticImage, saved)
}

func TestMultipleStaticFiguresAreCombined(t *testing.T) {
	e, dataset := newTestEngine(t, 0)

	res := e.Execute(context.Background(), `
plt.figure()
plt.plot([1, 2, 3], [3, 1, 2])
plt.figure()
plt.hist(df.col("sales"), {bins: 3})
plt.figure()
plt.bar([0, 1], [4, 5])`, dataset, "s1")

	require.Empty(t, res.Error)
	require.NotEmpty(t, res.StaticImage)
	assert.Equal(t, filepath.Join(e.uploadDir, "plots", "s1", "plot_combined_20240102_030405.png"), res.StaticImagePath)
	assert.FileExists(t, res.StaticImagePath)
}

func TestInteractiveFiguresPairWithInsights(t *testing.T) {
	e, dataset := newTestEngine(t, 0)

	res := e.Execute(context.Background(), `
print("PLOT_INSIGHT_START")
print("Title: Sales by region")
print("**Key Finding:** South leads")
print("Details: South sells the most.")
print("PLOT_INSIGHT_END")
var fig1 = px.bar(df, {x: "region", y: "sales", color_discrete_sequence: ["#FF6B9D"]})
fig1.show()
var fig2 = px.line(df, {x: "region", y: "sales"})`, dataset, "s1")

	require.Empty(t, res.Error)
	require.Len(t, res.Figures, 2)
	assert.Equal(t, "Sales by region", res.Figures[0].Insight.Title)
	assert.Equal(t, "South leads", res.Figures[0].Insight.KeyFinding)
	assert.Equal(t, DefaultInsight(2), res.Figures[1].Insight)
	assert.Contains(t, res.Figures[0].HTML, "figure_1")

	assert.Equal(t, strings.Join([]string{
		VisualizationsHeader,
		"- Sales by region: South leads",
		"- Visualization 2: Data visualization",
	}, "\n"), res.TextOutput)
}

func TestFiguresFollowBindingOrder(t *testing.T) {
	e, dataset := newTestEngine(t, 0)

	res := e.Execute(context.Background(), `
var zeta = px.pie(df, {names: "region", values: "sales", title: "first"})
var alpha = px.bar(df, {x: "region", y: "sales", title: "second"})`, dataset, "s1")

	require.Empty(t, res.Error)
	require.Len(t, res.Figures, 2)
	assert.Contains(t, res.Figures[0].HTML, "first")
	assert.Contains(t, res.Figures[1].HTML, "second")
}

func TestLexicalFiguresPairWithInsights(t *testing.T) {
	e, dataset := newTestEngine(t, 0)

	res := e.Execute(context.Background(), `
print("PLOT_INSIGHT_START")
print("Title: Sales by region")
print("Key Finding: South leads")
print("PLOT_INSIGHT_END")
const bars = px.bar(df, {x: "region", y: "sales"})
let trend = px.line(df, {x: "region", y: "sales"})`, dataset, "s1")

	require.Empty(t, res.Error)
	require.Len(t, res.Figures, 2)
	assert.Equal(t, "Sales by region", res.Figures[0].Insight.Title)
	assert.Equal(t, "South leads", res.Figures[0].Insight.KeyFinding)
	assert.Equal(t, DefaultInsight(2), res.Figures[1].Insight)
	assert.True(t, strings.HasPrefix(res.TextOutput, VisualizationsHeader))
}

func TestFiguresFollowCreationOrder(t *testing.T) {
	e, dataset := newTestEngine(t, 0)

	res := e.Execute(context.Background(), `
var later
var first = px.bar(df, {x: "region", y: "sales", title: "created first"})
later = px.line(df, {x: "region", y: "sales", title: "created second"})`, dataset, "s1")

	require.Empty(t, res.Error)
	require.Len(t, res.Figures, 2)
	assert.Contains(t, res.Figures[0].HTML, "created first")
	assert.Contains(t, res.Figures[1].HTML, "created second")
}

func TestFigureBoundTwiceIsRenderedOnce(t *testing.T) {
	e, dataset := newTestEngine(t, 0)

	res := e.Execute(context.Background(), `
const fig = px.pie(df, {names: "region", values: "sales"})
var alias = fig`, dataset, "s1")

	require.Empty(t, res.Error)
	assert.Len(t, res.Figures, 1)
}

func TestUnboundFigureIsIgnored(t *testing.T) {
	e, dataset := newTestEngine(t, 0)

	res := e.Execute(context.Background(), `px.bar(df, {x: "region", y: "sales"}).show()`, dataset, "s1")

	require.Empty(t, res.Error)
	assert.Empty(t, res.Figures)
	assert.Equal(t, NoOutput, res.TextOutput)
}

type stubRenderer struct {
	html string
	err  error
}

func (s stubRenderer) RenderHTML(id string) (string, error) {
	return s.html + ":" + id, s.err
}

func TestRenderFailureKeepsInsightPairing(t *testing.T) {
	insights := []core.Insight{{Title: "one"}, {Title: "two"}, {Title: "three"}}
	figs := []htmlRenderer{
		stubRenderer{html: "a"},
		stubRenderer{err: errors.New("broken")},
		stubRenderer{html: "c"},
	}

	out := renderFigures(figs, insights, zerolog.Nop())

	require.Len(t, out, 2)
	assert.Equal(t, "a:figure_1", out[0].HTML)
	assert.Equal(t, "one", out[0].Insight.Title)
	assert.Equal(t, "c:figure_3", out[1].HTML)
	assert.Equal(t, "three", out[1].Insight.Title)
}

func TestResultTableFoundAfterTimedRun(t *testing.T) {
	e, dataset := newTestEngine(t, time.Hour)

	res := e.Execute(context.Background(), `const result = df.head(1)`, dataset, "s1")

	require.Empty(t, res.Error)
	assert.Contains(t, res.TextOutput, "north")
}

func TestNoOutput(t *testing.T) {
	e, dataset := newTestEngine(t, 0)

	res := e.Execute(context.Background(), `var total = np.sum(df.col("sales"))`, dataset, "s1")

	assert.Empty(t, res.Error)
	assert.Equal(t, NoOutput, res.TextOutput)
}

func TestNamespaceHelpers(t *testing.T) {
	e, dataset := newTestEngine(t, 0)

	res := e.Execute(context.Background(), `
print("mean:", np.mean(df.col("sales")))
print("columns:", df.columns().join(","))
var frame = pd.DataFrame({b: [1, 2], a: ["x", "y"]})
print(frame.columns().join(","))
console.log(np.round(2.456, 1))`, dataset, "s1")

	require.Empty(t, res.Error)
	assert.Equal(t, "mean: 13.333333333333334\ncolumns: region,sales\nb,a\n2.5", res.TextOutput)
}

func TestUnsupportedFormat(t *testing.T) {
	e, _ := newTestEngine(t, 0)
	path := filepath.Join(t.TempDir(), "data.parquet")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0644))

	res := e.Execute(context.Background(), `print("hi")`, path, "s1")

	assert.Equal(t, UnsupportedFormat, res.TextOutput)
	assert.True(t, res.LoadFailed)
	assert.Empty(t, res.Error)
}

func TestUnparseableTable(t *testing.T) {
	e, _ := newTestEngine(t, 0)
	path := filepath.Join(t.TempDir(), "broken.xlsx")
	require.NoError(t, os.WriteFile(path, []byte("not a workbook"), 0644))

	res := e.Execute(context.Background(), `print("hi")`, path, "s1")

	assert.True(t, strings.HasPrefix(res.TextOutput, CouldNotParse))
	assert.True(t, res.LoadFailed)
	assert.Empty(t, res.Error)
}

func TestTimeoutInterruptsExecution(t *testing.T) {
	e, dataset := newTestEngine(t, 50*time.Millisecond)

	res := e.Execute(context.Background(), `while (true) {}`, dataset, "s1")

	assert.Contains(t, res.Error, "execution timed out")
}

func TestCancelledContextInterruptsExecution(t *testing.T) {
	e, dataset := newTestEngine(t, 0)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res := e.Execute(ctx, `while (true) {}`, dataset, "s1")

	assert.Contains(t, res.Error, context.Canceled.Error())
}

func TestConcurrentExecutionsAreIsolated(t *testing.T) {
	e, dataset := newTestEngine(t, 0)

	var wg sync.WaitGroup
	results := make([]string, 8)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			code := fmt.Sprintf("var marker = %d\nplt.plot([1, 2], [%d, 1])\nprint(marker)", i, i)
			res := e.Execute(context.Background(), code, dataset, fmt.Sprintf("s%d", i))
			results[i] = res.TextOutput
			assert.NotEmpty(t, res.StaticImage)
		}(i)
	}
	wg.Wait()

	for i, out := range results {
		assert.Equal(t, fmt.Sprint(i), out)
	}
}
