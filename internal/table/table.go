package table

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"eino_data_analyst/internal/core"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
)

// Table is the in-memory dataset handed to generated code as df.
// Exported methods are visible to the runtime under their lower-camel names.
type Table struct {
	df dataframe.DataFrame
}

// New wraps a dataframe
func New(df dataframe.DataFrame) (*Table, error) {
	if df.Err != nil {
		return nil, df.Err
	}
	return &Table{df: df}, nil
}

// FromRecords builds a table from a header row followed by data rows
func FromRecords(records [][]string) (*Table, error) {
	if len(records) == 0 {
		return nil, fmt.Errorf("no header row")
	}
	width := len(records[0])
	for i, row := range records {
		if len(row) < width {
			padded := make([]string, width)
			copy(padded, row)
			records[i] = padded
		} else if len(row) > width {
			records[i] = row[:width]
		}
	}
	return New(dataframe.LoadRecords(records,
		dataframe.DetectTypes(true),
		dataframe.HasHeader(true),
		dataframe.NaNValues([]string{"", "NA", "NaN", "nan", "null", "NULL", "N/A"}),
	))
}

// FromColumns builds a table from named columns of equal length
func FromColumns(names []string, columns [][]any) (*Table, error) {
	if len(names) != len(columns) {
		return nil, fmt.Errorf("got %d names for %d columns", len(names), len(columns))
	}
	cols := make([]series.Series, 0, len(names))
	for i, name := range names {
		cols = append(cols, newSeries(name, columns[i]))
	}
	return New(dataframe.New(cols...))
}

// newSeries infers the narrowest gota type able to hold all values
func newSeries(name string, values []any) series.Series {
	var hasInt, hasFloat, hasBool, hasOther bool
	elems := make([]any, len(values))
	for i, v := range values {
		switch x := v.(type) {
		case nil:
		case int:
			hasInt = true
			elems[i] = x
		case int32:
			hasInt = true
			elems[i] = int(x)
		case int64:
			hasInt = true
			elems[i] = int(x)
		case float32:
			hasFloat = true
			elems[i] = float64(x)
		case float64:
			if x == math.Trunc(x) && math.Abs(x) < 1<<53 {
				hasInt = true
			} else {
				hasFloat = true
			}
			elems[i] = x
		case bool:
			hasBool = true
			elems[i] = x
		default:
			hasOther = true
			elems[i] = x
		}
	}

	typ := series.String
	switch {
	case hasOther, hasBool && (hasInt || hasFloat):
	case hasBool:
		typ = series.Bool
	case hasFloat:
		typ = series.Float
	case hasInt:
		typ = series.Int
		for i, v := range elems {
			if f, ok := v.(float64); ok {
				elems[i] = int(f)
			}
		}
	}
	if typ == series.String {
		for i, v := range elems {
			if v != nil {
				elems[i] = formatValue(v)
			}
		}
	}
	return series.New(elems, typ, name)
}

// Kind tags the value as a table for result detection
func (t *Table) Kind() core.Kind { return core.KindTable }

// DataFrame exposes the underlying dataframe
func (t *Table) DataFrame() dataframe.DataFrame { return t.df }

func (t *Table) Nrow() int { return t.df.Nrow() }

func (t *Table) Ncol() int { return t.df.Ncol() }

// Len is the number of rows
func (t *Table) Len() int { return t.df.Nrow() }

// Empty reports whether the table has no rows or no columns
func (t *Table) Empty() bool { return t == nil || t.df.Nrow() == 0 || t.df.Ncol() == 0 }

// Shape returns [rows, columns]
func (t *Table) Shape() []int { return []int{t.df.Nrow(), t.df.Ncol()} }

// Columns returns the column names in order
func (t *Table) Columns() []string { return t.df.Names() }

// Dtypes returns the column type names in order
func (t *Table) Dtypes() []string {
	types := t.df.Types()
	out := make([]string, len(types))
	for i, typ := range types {
		out[i] = string(typ)
	}
	return out
}

func (t *Table) hasColumn(name string) bool {
	for _, n := range t.df.Names() {
		if n == name {
			return true
		}
	}
	return false
}

func (t *Table) rows(idx []int) *Table {
	if len(idx) == 0 {
		cols := make([]series.Series, 0, t.df.Ncol())
		for i, name := range t.df.Names() {
			cols = append(cols, series.New([]string{}, t.df.Types()[i], name))
		}
		return &Table{df: dataframe.New(cols...)}
	}
	return &Table{df: t.df.Subset(idx)}
}

func span(from, to int) []int {
	idx := make([]int, 0, to-from)
	for i := from; i < to; i++ {
		idx = append(idx, i)
	}
	return idx
}

func count(n []int) int {
	if len(n) > 0 {
		return n[0]
	}
	return 5
}

// Head returns the first n rows (default 5)
func (t *Table) Head(n ...int) *Table {
	k := count(n)
	if k >= t.df.Nrow() {
		return t
	}
	if k < 0 {
		k = 0
	}
	return t.rows(span(0, k))
}

// Tail returns the last n rows (default 5)
func (t *Table) Tail(n ...int) *Table {
	k := count(n)
	total := t.df.Nrow()
	if k >= total {
		return t
	}
	if k < 0 {
		k = 0
	}
	return t.rows(span(total-k, total))
}

// Col returns a column by name
func (t *Table) Col(name string) (*Column, error) {
	if !t.hasColumn(name) {
		return nil, fmt.Errorf("column '%s' not found", name)
	}
	return &Column{s: t.df.Col(name)}, nil
}

// Select keeps the named columns in the given order
func (t *Table) Select(names ...string) (*Table, error) {
	for _, name := range names {
		if !t.hasColumn(name) {
			return nil, fmt.Errorf("column '%s' not found", name)
		}
	}
	return New(t.df.Select(names))
}

// Drop removes the named columns
func (t *Table) Drop(names ...string) (*Table, error) {
	for _, name := range names {
		if !t.hasColumn(name) {
			return nil, fmt.Errorf("column '%s' not found", name)
		}
	}
	return New(t.df.Drop(names))
}

// SortBy orders rows by a column, ascending unless told otherwise
func (t *Table) SortBy(name string, ascending ...bool) (*Table, error) {
	if !t.hasColumn(name) {
		return nil, fmt.Errorf("column '%s' not found", name)
	}
	order := dataframe.Sort(name)
	if len(ascending) > 0 && !ascending[0] {
		order = dataframe.RevSort(name)
	}
	return New(t.df.Arrange(order))
}

// Nlargest returns the n rows with the largest values in a column
func (t *Table) Nlargest(n int, name string) (*Table, error) {
	sorted, err := t.SortBy(name, false)
	if err != nil {
		return nil, err
	}
	return sorted.Head(n), nil
}

// Nsmallest returns the n rows with the smallest values in a column
func (t *Table) Nsmallest(n int, name string) (*Table, error) {
	sorted, err := t.SortBy(name, true)
	if err != nil {
		return nil, err
	}
	return sorted.Head(n), nil
}

var comparators = map[string]series.Comparator{
	"==": series.Eq,
	"!=": series.Neq,
	">":  series.Greater,
	">=": series.GreaterEq,
	"<":  series.Less,
	"<=": series.LessEq,
	"in": series.In,
}

// Filter keeps rows where column <op> value holds. Supported ops: == != > >= < <= in
func (t *Table) Filter(name, op string, value any) (*Table, error) {
	if !t.hasColumn(name) {
		return nil, fmt.Errorf("column '%s' not found", name)
	}
	cmp, ok := comparators[strings.ToLower(strings.TrimSpace(op))]
	if !ok {
		return nil, fmt.Errorf("unsupported comparison '%s'", op)
	}
	return New(t.df.Filter(dataframe.F{Colname: name, Comparator: cmp, Comparando: comparando(value)}))
}

// comparando narrows runtime numbers to the types gota converts
func comparando(v any) any {
	switch x := v.(type) {
	case int64:
		return int(x)
	case int32:
		return int(x)
	case float32:
		return float64(x)
	case []any:
		if len(x) == 0 {
			return []string{}
		}
		out := make([]string, len(x))
		for i, e := range x {
			out[i] = formatValue(e)
		}
		return out
	default:
		return v
	}
}

var aggregations = map[string]dataframe.AggregationType{
	"sum":    dataframe.Aggregation_SUM,
	"mean":   dataframe.Aggregation_MEAN,
	"median": dataframe.Aggregation_MEDIAN,
	"min":    dataframe.Aggregation_MIN,
	"max":    dataframe.Aggregation_MAX,
	"std":    dataframe.Aggregation_STD,
	"count":  dataframe.Aggregation_COUNT,
}

// GroupBy aggregates columns per distinct value of by. With no columns given every
// numeric column except by is aggregated. Groups come back sorted by key.
func (t *Table) GroupBy(by, agg string, names ...string) (*Table, error) {
	if !t.hasColumn(by) {
		return nil, fmt.Errorf("column '%s' not found", by)
	}
	typ, ok := aggregations[strings.ToLower(agg)]
	if !ok {
		return nil, fmt.Errorf("unsupported aggregation '%s'", agg)
	}
	if len(names) == 0 {
		for i, name := range t.df.Names() {
			kind := t.df.Types()[i]
			if name != by && (kind == series.Int || kind == series.Float) {
				names = append(names, name)
			}
		}
	}
	if len(names) == 0 {
		return nil, fmt.Errorf("no numeric columns to aggregate")
	}
	types := make([]dataframe.AggregationType, len(names))
	for i, name := range names {
		if !t.hasColumn(name) {
			return nil, fmt.Errorf("column '%s' not found", name)
		}
		types[i] = typ
	}

	groups := t.df.GroupBy(by)
	if groups.Err != nil {
		return nil, groups.Err
	}
	out := groups.Aggregation(types, names)
	if out.Err != nil {
		return nil, out.Err
	}
	for _, current := range out.Names() {
		if current == by {
			continue
		}
		if source := aggregatedFrom(current, names); source != "" {
			out = out.Rename(source, current)
		}
	}
	out = out.Arrange(dataframe.Sort(by))
	cols := append([]string{by}, names...)
	return New(out.Select(cols))
}

// aggregatedFrom maps an aggregation output column such as "sales_SUM" back to its source
func aggregatedFrom(current string, sources []string) string {
	best := ""
	for _, src := range sources {
		if strings.HasPrefix(current, src+"_") && len(src) > len(best) {
			best = src
		}
	}
	return best
}

// Describe returns summary statistics for every column
func (t *Table) Describe() *Table {
	return &Table{df: t.df.Describe()}
}

// ValueCounts counts occurrences of each distinct value in a column
func (t *Table) ValueCounts(name string) (*Table, error) {
	col, err := t.Col(name)
	if err != nil {
		return nil, err
	}
	return col.ValueCounts()
}

// Assign returns a copy with the column added or replaced
func (t *Table) Assign(name string, values []any) (*Table, error) {
	if len(values) != t.df.Nrow() {
		return nil, fmt.Errorf("length of values (%d) does not match length of table (%d)", len(values), t.df.Nrow())
	}
	return New(t.df.Mutate(newSeries(name, values)))
}

// Values returns the data rows as native values
func (t *Table) Values() [][]any {
	cols := make([]*Column, t.df.Ncol())
	for i := range cols {
		cols[i] = &Column{s: t.df.Col(t.df.Names()[i])}
	}
	out := make([][]any, t.df.Nrow())
	for r := range out {
		row := make([]any, len(cols))
		for c, col := range cols {
			row[c] = col.at(r)
		}
		out[r] = row
	}
	return out
}

// Rows returns the data rows keyed by column name
func (t *Table) Rows() []map[string]any {
	names := t.df.Names()
	values := t.Values()
	out := make([]map[string]any, len(values))
	for i, row := range values {
		m := make(map[string]any, len(names))
		for j, name := range names {
			m[name] = row[j]
		}
		out[i] = m
	}
	return out
}

// Records returns the header followed by the formatted data rows
func (t *Table) Records() [][]string {
	out := [][]string{t.df.Names()}
	for _, row := range t.Values() {
		rec := make([]string, len(row))
		for i, v := range row {
			rec[i] = formatValue(v)
		}
		out = append(out, rec)
	}
	return out
}

// Markdown renders the table as a pipe table without an index column
func (t *Table) Markdown() string { return Markdown(t) }

func (t *Table) String() string { return Markdown(t) }

// Column is a single named column of a table
type Column struct {
	s series.Series
}

func (c *Column) Name() string { return c.s.Name }

func (c *Column) Len() int { return c.s.Len() }

func (c *Column) Dtype() string { return string(c.s.Type()) }

func (c *Column) at(i int) any {
	e := c.s.Elem(i)
	if e.IsNA() {
		return nil
	}
	switch c.s.Type() {
	case series.Int:
		v, err := e.Int()
		if err != nil {
			return nil
		}
		return v
	case series.Float:
		return e.Float()
	case series.Bool:
		v, err := e.Bool()
		if err != nil {
			return nil
		}
		return v
	default:
		return e.String()
	}
}

// Values returns the column as native values; missing entries are null
func (c *Column) Values() []any {
	out := make([]any, c.s.Len())
	for i := range out {
		out[i] = c.at(i)
	}
	return out
}

// Floats returns the column as numbers; non-numeric entries are NaN
func (c *Column) Floats() []float64 { return c.s.Float() }

// Strings returns the column formatted as text
func (c *Column) Strings() []string {
	out := make([]string, c.s.Len())
	for i := range out {
		out[i] = formatValue(c.at(i))
	}
	return out
}

func (c *Column) numbers() []float64 {
	all := c.s.Float()
	out := make([]float64, 0, len(all))
	for _, v := range all {
		if !math.IsNaN(v) {
			out = append(out, v)
		}
	}
	return out
}

func (c *Column) Sum() float64 { return Sum(c.numbers()) }

func (c *Column) Mean() float64 { return Mean(c.numbers()) }

func (c *Column) Median() float64 { return Median(c.numbers()) }

func (c *Column) Std() float64 { return Std(c.numbers()) }

func (c *Column) Min() float64 { return Min(c.numbers()) }

func (c *Column) Max() float64 { return Max(c.numbers()) }

// Count is the number of non-missing entries
func (c *Column) Count() int {
	n := 0
	for i := 0; i < c.s.Len(); i++ {
		if !c.s.Elem(i).IsNA() {
			n++
		}
	}
	return n
}

// Unique returns distinct values in order of first appearance
func (c *Column) Unique() []any {
	seen := make(map[string]bool)
	var out []any
	for _, v := range c.Values() {
		key := formatValue(v)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, v)
	}
	return out
}

// ValueCounts counts each distinct value, most frequent first, ties by first appearance
func (c *Column) ValueCounts() (*Table, error) {
	type entry struct {
		value any
		n     int
	}
	index := make(map[string]int)
	var entries []entry
	for _, v := range c.Values() {
		if v == nil {
			continue
		}
		key := formatValue(v)
		if i, ok := index[key]; ok {
			entries[i].n++
			continue
		}
		index[key] = len(entries)
		entries = append(entries, entry{value: v, n: 1})
	}
	sort.SliceStable(entries, func(i, j int) bool { return entries[i].n > entries[j].n })

	values := make([]any, len(entries))
	counts := make([]any, len(entries))
	for i, e := range entries {
		values[i] = e.value
		counts[i] = e.n
	}
	return FromColumns([]string{c.s.Name, "count"}, [][]any{values, counts})
}

func (c *Column) String() string {
	return strings.Join(c.Strings(), "\n")
}

// formatValue renders a cell the way the markdown renderer prints it
func formatValue(v any) string {
	switch x := v.(type) {
	case nil:
		return "nan"
	case string:
		return x
	case float64:
		return formatFloat(x)
	case float32:
		return formatFloat(float64(x))
	case int:
		return strconv.Itoa(x)
	case int64:
		return strconv.FormatInt(x, 10)
	case bool:
		if x {
			return "True"
		}
		return "False"
	default:
		return fmt.Sprint(x)
	}
}

func formatFloat(f float64) string {
	switch {
	case math.IsNaN(f):
		return "nan"
	case math.IsInf(f, 1):
		return "inf"
	case math.IsInf(f, -1):
		return "-inf"
	}
	s := strconv.FormatFloat(f, 'f', 6, 64)
	s = strings.TrimRight(s, "0")
	s = strings.TrimSuffix(s, ".")
	if s == "-0" {
		s = "0"
	}
	return s
}
