package table

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/go-gota/gota/series"
)

// SampleRows is how many leading rows the technical summary shows
const SampleRows = 5

// Summarize builds the technical overview of a dataset that every prompt receives:
// schema with non-null counts, the first rows and numeric statistics.
func Summarize(t *Table, path string) string {
	var sb strings.Builder
	sb.WriteString("TECHNICAL DATA OVERVIEW:\n")
	if path != "" {
		fmt.Fprintf(&sb, "File: %s\n", filepath.Base(path))
	}
	fmt.Fprintf(&sb, "Rows: %d, Columns: %d\n\n", t.Nrow(), t.Ncol())

	schema := [][]any{{}, {}, {}, {}}
	numeric := 0
	for i, name := range t.Columns() {
		col := &Column{s: t.df.Col(name)}
		schema[0] = append(schema[0], i)
		schema[1] = append(schema[1], name)
		schema[2] = append(schema[2], col.Count())
		schema[3] = append(schema[3], col.Dtype())
		if typ := col.s.Type(); typ == series.Int || typ == series.Float {
			numeric++
		}
	}
	if info, err := FromColumns([]string{"#", "Column", "Non-Null Count", "Dtype"}, schema); err == nil {
		sb.WriteString(Markdown(info))
		sb.WriteString("\n\n")
	}

	fmt.Fprintf(&sb, "SAMPLE DATA (First %d rows):\n", SampleRows)
	sb.WriteString(Markdown(t.Head(SampleRows)))

	if numeric > 0 {
		sb.WriteString("\n\nSTATISTICAL SUMMARY:\n")
		sb.WriteString(Markdown(t.Describe()))
	}
	return sb.String()
}
