package executor

import (
	"strconv"
	"strings"

	"eino_data_analyst/internal/core"
)

// Markers delimiting an insight block in printed output
const (
	InsightStart = "PLOT_INSIGHT_START"
	InsightEnd   = "PLOT_INSIGHT_END"
)

var insightFields = []struct {
	prefix string
	set    func(*core.Insight, string)
}{
	{"title:", func(in *core.Insight, v string) { in.Title = v }},
	{"key finding:", func(in *core.Insight, v string) { in.KeyFinding = v }},
	{"details:", func(in *core.Insight, v string) { in.Details = v }},
}

// ExtractInsights removes insight blocks from output and returns the remaining
// text along with the parsed insights in order of appearance. A block without an
// end marker runs to the end of the output.
func ExtractInsights(output string) (string, []core.Insight) {
	var (
		kept     []string
		insights []core.Insight
		current  *core.Insight
	)
	for _, line := range strings.Split(output, "\n") {
		if current == nil {
			if strings.Contains(line, InsightStart) {
				current = &core.Insight{}
				continue
			}
			kept = append(kept, line)
			continue
		}
		if strings.Contains(line, InsightEnd) {
			insights = append(insights, *current)
			current = nil
			continue
		}
		parseInsightLine(current, line)
	}
	if current != nil {
		insights = append(insights, *current)
	}
	return strings.TrimSpace(strings.Join(kept, "\n")), insights
}

func parseInsightLine(in *core.Insight, line string) {
	plain := strings.TrimSpace(strings.ReplaceAll(strings.TrimSpace(line), "**", ""))
	lower := strings.ToLower(plain)
	for _, f := range insightFields {
		if strings.HasPrefix(lower, f.prefix) {
			f.set(in, strings.TrimSpace(plain[len(f.prefix):]))
			return
		}
	}
}

// DefaultInsight is paired with the n-th figure (1-based) when no insight was printed for it
func DefaultInsight(n int) core.Insight {
	return core.Insight{
		Title:      "Visualization " + strconv.Itoa(n),
		KeyFinding: "Data visualization",
		Details:    "Interactive plot for data analysis.",
	}
}
