package executor

import (
	"testing"

	"eino_data_analyst/internal/core"
	"eino_data_analyst/internal/table"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractInsightsWellFormedBlock(t *testing.T) {
	out := "before\nPLOT_INSIGHT_START\nTitle: Price Distribution\nKey Finding: Right-skewed\nDetails: Most items are cheap.\nPLOT_INSIGHT_END\nafter"

	text, insights := ExtractInsights(out)

	assert.Equal(t, "before\nafter", text)
	require.Len(t, insights, 1)
	assert.Equal(t, core.Insight{
		Title:      "Price Distribution",
		KeyFinding: "Right-skewed",
		Details:    "Most items are cheap.",
	}, insights[0])
}

func TestExtractInsightsCaseAndEmphasis(t *testing.T) {
	out := "PLOT_INSIGHT_START\n  **TITLE:** Revenue  \n**key finding:** **Up** 10%\nnoise line\nDETAILS:   steady growth\nPLOT_INSIGHT_END"

	text, insights := ExtractInsights(out)

	assert.Empty(t, text)
	require.Len(t, insights, 1)
	assert.Equal(t, "Revenue", insights[0].Title)
	assert.Equal(t, "Up 10%", insights[0].KeyFinding)
	assert.Equal(t, "steady growth", insights[0].Details)
}

func TestExtractInsightsUnterminatedBlock(t *testing.T) {
	out := "visible\nPLOT_INSIGHT_START\nTitle: Open\nstill inside"

	text, insights := ExtractInsights(out)

	assert.Equal(t, "visible", text)
	require.Len(t, insights, 1)
	assert.Equal(t, "Open", insights[0].Title)
}

func TestExtractInsightsKeepsOrder(t *testing.T) {
	out := "PLOT_INSIGHT_START\nTitle: one\nPLOT_INSIGHT_END\nmid\nPLOT_INSIGHT_START\nTitle: two\nPLOT_INSIGHT_END"

	text, insights := ExtractInsights(out)

	assert.Equal(t, "mid", text)
	require.Len(t, insights, 2)
	assert.Equal(t, "one", insights[0].Title)
	assert.Equal(t, "two", insights[1].Title)
}

func TestResolveOutputPrecedence(t *testing.T) {
	tbl, err := table.FromColumns([]string{"a"}, [][]any{{1, 2}})
	require.NoError(t, err)
	empty := tbl.Head(0)
	figs := []core.InteractiveFigure{
		{Insight: core.Insight{Title: "T", Details: "only details"}},
		{Insight: core.Insight{}},
	}

	assert.Equal(t, tbl.Markdown(), resolveOutput(tbl, "printed", figs, true))
	assert.Equal(t, "printed", resolveOutput(empty, "  printed \n", figs, true))
	assert.Equal(t, VisualizationsHeader+"\n- T: only details\n- Visualization: Interactive plot.", resolveOutput(nil, " ", figs, true))
	assert.Equal(t, ImageGenerated, resolveOutput(nil, "", nil, true))
	assert.Equal(t, NoOutput, resolveOutput(nil, "", nil, false))
}

func TestPlotPath(t *testing.T) {
	at := fixedNow
	assert.Equal(t, "up/plots/abc/plot_20240102_030405.png", PlotPath("up", "abc", false, at))
	assert.Equal(t, "up/plots/abc/plot_combined_20240102_030405.png", PlotPath("up", "abc", true, at))
}
