package table

import (
	"strings"
	"unicode/utf8"

	"github.com/go-gota/gota/series"
)

// Markdown renders t as a pipe table without an index column.
// Numeric columns are right aligned, everything else left aligned.
func Markdown(t *Table) string {
	if t == nil || t.df.Ncol() == 0 {
		return ""
	}
	names := t.df.Names()
	types := t.df.Types()
	records := t.Records()[1:]

	widths := make([]int, len(names))
	for i, name := range names {
		widths[i] = utf8.RuneCountInString(escapeCell(name))
	}
	for _, row := range records {
		for i, cell := range row {
			if w := utf8.RuneCountInString(escapeCell(cell)); w > widths[i] {
				widths[i] = w
			}
		}
	}
	right := make([]bool, len(names))
	for i, typ := range types {
		right[i] = typ == series.Int || typ == series.Float
	}

	var sb strings.Builder
	writeRow(&sb, names, widths, right)
	sb.WriteString("\n|")
	for i, w := range widths {
		if right[i] {
			sb.WriteString(strings.Repeat("-", w+1) + ":|")
		} else {
			sb.WriteString(":" + strings.Repeat("-", w+1) + "|")
		}
	}
	for _, row := range records {
		sb.WriteString("\n")
		writeRow(&sb, row, widths, right)
	}
	return sb.String()
}

func writeRow(sb *strings.Builder, cells []string, widths []int, right []bool) {
	sb.WriteString("|")
	for i, cell := range cells {
		cell = escapeCell(cell)
		pad := strings.Repeat(" ", widths[i]-utf8.RuneCountInString(cell))
		if right[i] {
			sb.WriteString(" " + pad + cell + " |")
		} else {
			sb.WriteString(" " + cell + pad + " |")
		}
	}
}

func escapeCell(s string) string {
	s = strings.ReplaceAll(s, "\n", " ")
	return strings.ReplaceAll(s, "|", `\|`)
}
