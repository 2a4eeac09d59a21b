package executor

import (
	"strings"

	"eino_data_analyst/internal/core"
	"eino_data_analyst/internal/table"
)

// Fixed response texts
const (
	VisualizationsHeader = "📊 Generated visualizations:"
	ImageGenerated       = "📊 Visualization generated successfully!"
	NoOutput             = "Code executed successfully (no output)"
	UnsupportedFormat    = "Unsupported file format"
	CouldNotParse        = "Could not parse table: "
	ErrorPrefix          = "Error executing code: "
)

// resolveOutput picks the response text, highest precedence first:
// result table, printed text, figure descriptions, static image notice, fallback.
func resolveOutput(result *table.Table, printed string, figures []core.InteractiveFigure, hasImage bool) string {
	if result != nil && !result.Empty() {
		return result.Markdown()
	}
	if text := strings.TrimSpace(printed); text != "" {
		return text
	}
	if len(figures) > 0 {
		lines := []string{VisualizationsHeader}
		for _, f := range figures {
			lines = append(lines, "- "+describe(f.Insight))
		}
		return strings.Join(lines, "\n")
	}
	if hasImage {
		return ImageGenerated
	}
	return NoOutput
}

func describe(in core.Insight) string {
	title := in.Title
	if title == "" {
		title = "Visualization"
	}
	desc := in.KeyFinding
	if desc == "" {
		desc = in.Details
	}
	if desc == "" {
		desc = "Interactive plot."
	}
	return title + ": " + desc
}
