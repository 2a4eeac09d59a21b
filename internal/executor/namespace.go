package executor

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"eino_data_analyst/internal/charts"
	"eino_data_analyst/internal/plotting"
	"eino_data_analyst/internal/table"

	"github.com/dop251/goja"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Names bound in every execution namespace
const (
	BindingTable   = "df"
	BindingFrames  = "pd"
	BindingNumeric = "np"
	BindingPyplot  = "plt"
	BindingCharts  = "px"
)

// namespace is the runtime state of one execution
type namespace struct {
	vm      *goja.Runtime
	out     strings.Builder
	figures *plotting.Manager
	// interactive figures in creation order
	created []*charts.Figure
}

func newNamespace(vm *goja.Runtime, tbl *table.Table) (*namespace, error) {
	ns := &namespace{vm: vm, figures: plotting.NewManager()}
	vm.SetFieldNameMapper(goja.TagFieldNameMapper("json", true))

	console := vm.NewObject()
	bindings := []struct {
		name  string
		value any
	}{
		{BindingTable, tbl},
		{BindingFrames, ns.frames()},
		{BindingNumeric, ns.numeric()},
		{BindingPyplot, ns.pyplot()},
		{BindingCharts, ns.charts()},
		{"print", ns.print},
		{"console", console},
	}
	if err := console.Set("log", ns.print); err != nil {
		return nil, err
	}
	for _, b := range bindings {
		if err := vm.Set(b.name, b.value); err != nil {
			return nil, fmt.Errorf("failed to bind %s: %w", b.name, err)
		}
	}
	return ns, nil
}

// builtin reports whether a global name was installed by newNamespace
func builtin(name string) bool {
	switch name {
	case BindingTable, BindingFrames, BindingNumeric, BindingPyplot, BindingCharts, "print", "console":
		return true
	}
	return false
}

func (ns *namespace) throw(err error) {
	panic(ns.vm.NewGoError(err))
}

func (ns *namespace) typeError(format string, args ...any) {
	panic(ns.vm.NewTypeError(fmt.Sprintf(format, args...)))
}

func (ns *namespace) print(call goja.FunctionCall) goja.Value {
	parts := make([]string, len(call.Arguments))
	for i, arg := range call.Arguments {
		parts[i] = ns.format(arg)
	}
	ns.out.WriteString(strings.Join(parts, " "))
	ns.out.WriteString("\n")
	return goja.Undefined()
}

func (ns *namespace) format(v goja.Value) string {
	if v == nil || goja.IsUndefined(v) {
		return "undefined"
	}
	if goja.IsNull(v) {
		return "null"
	}
	switch x := v.Export().(type) {
	case fmt.Stringer:
		return x.String()
	case string:
		return x
	}
	if _, ok := v.(*goja.Object); ok {
		if _, fn := goja.AssertFunction(v); !fn {
			if s, ok := ns.stringify(v); ok {
				return s
			}
		}
	}
	return v.String()
}

func (ns *namespace) stringify(v goja.Value) (string, bool) {
	json := ns.vm.Get("JSON")
	if json == nil {
		return "", false
	}
	obj := json.ToObject(ns.vm)
	fn, ok := goja.AssertFunction(obj.Get("stringify"))
	if !ok {
		return "", false
	}
	res, err := fn(obj, v)
	if err != nil || goja.IsUndefined(res) {
		return "", false
	}
	return res.String(), true
}

// Argument conversion

func (ns *namespace) floats(v goja.Value) []float64 {
	if v == nil || goja.IsUndefined(v) || goja.IsNull(v) {
		ns.typeError("expected an array of numbers")
	}
	switch x := v.Export().(type) {
	case *table.Column:
		return x.Floats()
	case []float64:
		return x
	case []int64:
		out := make([]float64, len(x))
		for i, n := range x {
			out[i] = float64(n)
		}
		return out
	case []any:
		out := make([]float64, len(x))
		for i, e := range x {
			out[i] = toFloat(e)
		}
		return out
	case int64, float64:
		return []float64{toFloat(x)}
	}
	var out []float64
	if err := ns.vm.ExportTo(v, &out); err != nil {
		ns.typeError("expected an array of numbers: %v", err)
	}
	return out
}

func toFloat(v any) float64 {
	switch x := v.(type) {
	case int:
		return float64(x)
	case int64:
		return float64(x)
	case float64:
		return x
	case bool:
		if x {
			return 1
		}
		return 0
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		if err != nil {
			return math.NaN()
		}
		return f
	default:
		return math.NaN()
	}
}

// labels returns the values as strings when any of them is not numeric
func (ns *namespace) labels(v goja.Value) ([]string, bool) {
	var values []any
	switch x := v.Export().(type) {
	case *table.Column:
		if x.Dtype() == "int" || x.Dtype() == "float" {
			return nil, false
		}
		return x.Strings(), true
	case []string:
		return x, true
	case []any:
		values = x
	default:
		return nil, false
	}
	categorical := false
	out := make([]string, len(values))
	for i, e := range values {
		switch x := e.(type) {
		case string:
			categorical = true
			out[i] = x
		default:
			out[i] = fmt.Sprint(x)
		}
	}
	return out, categorical
}

func options(v goja.Value) map[string]any {
	if v == nil || goja.IsUndefined(v) || goja.IsNull(v) {
		return map[string]any{}
	}
	if m, ok := v.Export().(map[string]any); ok {
		return m
	}
	return map[string]any{}
}

func optString(o map[string]any, keys ...string) string {
	for _, k := range keys {
		if s, ok := o[k].(string); ok {
			return s
		}
	}
	return ""
}

func optFloat(o map[string]any, keys ...string) float64 {
	for _, k := range keys {
		if v, ok := o[k]; ok {
			if f := toFloat(v); !math.IsNaN(f) {
				return f
			}
		}
	}
	return 0
}

func optStrings(o map[string]any, keys ...string) []string {
	for _, k := range keys {
		if list, ok := o[k].([]any); ok {
			out := make([]string, 0, len(list))
			for _, e := range list {
				out = append(out, fmt.Sprint(e))
			}
			return out
		}
	}
	return nil
}

// pd

func (ns *namespace) frames() map[string]any {
	return map[string]any{
		"DataFrame": func(call goja.FunctionCall) goja.Value {
			tbl, err := ns.frame(call.Argument(0))
			if err != nil {
				ns.throw(err)
			}
			return ns.vm.ToValue(tbl)
		},
	}
}

// frame accepts {col: [values]} or [{col: value}, ...]; column order follows the source
func (ns *namespace) frame(v goja.Value) (*table.Table, error) {
	if v == nil || goja.IsUndefined(v) || goja.IsNull(v) {
		return table.FromColumns(nil, nil)
	}
	if t, ok := v.Export().(*table.Table); ok {
		return t, nil
	}
	obj := v.ToObject(ns.vm)
	if obj.ClassName() == "Array" {
		length := int(obj.Get("length").ToInteger())
		var names []string
		index := map[string]int{}
		var columns [][]any
		for r := 0; r < length; r++ {
			row := obj.Get(strconv.Itoa(r)).ToObject(ns.vm)
			for _, key := range row.Keys() {
				if _, ok := index[key]; !ok {
					index[key] = len(names)
					names = append(names, key)
					columns = append(columns, make([]any, r))
				}
			}
			for i, name := range names {
				val := row.Get(name)
				if val == nil || goja.IsUndefined(val) {
					columns[i] = append(columns[i], nil)
				} else {
					columns[i] = append(columns[i], val.Export())
				}
			}
		}
		return table.FromColumns(names, columns)
	}

	names := obj.Keys()
	columns := make([][]any, len(names))
	for i, name := range names {
		switch x := obj.Get(name).Export().(type) {
		case []any:
			columns[i] = x
		case *table.Column:
			columns[i] = x.Values()
		default:
			columns[i] = []any{x}
		}
	}
	return table.FromColumns(names, columns)
}

// np

func (ns *namespace) numeric() map[string]any {
	reduce := func(fn func([]float64) float64) func(goja.FunctionCall) goja.Value {
		return func(call goja.FunctionCall) goja.Value {
			var clean []float64
			for _, f := range ns.floats(call.Argument(0)) {
				if !math.IsNaN(f) {
					clean = append(clean, f)
				}
			}
			return ns.vm.ToValue(fn(clean))
		}
	}
	return map[string]any{
		"sum":    reduce(table.Sum),
		"mean":   reduce(table.Mean),
		"median": reduce(table.Median),
		"std":    reduce(table.Std),
		"min":    reduce(table.Min),
		"max":    reduce(table.Max),
		"percentile": func(call goja.FunctionCall) goja.Value {
			xs := append([]float64(nil), ns.floats(call.Argument(0))...)
			if len(xs) == 0 {
				return ns.vm.ToValue(math.NaN())
			}
			sort.Float64s(xs)
			q := call.Argument(1).ToFloat() / 100
			return ns.vm.ToValue(stat.Quantile(q, stat.LinInterp, xs, nil))
		},
		"corrcoef": func(call goja.FunctionCall) goja.Value {
			x, y := ns.floats(call.Argument(0)), ns.floats(call.Argument(1))
			if len(x) != len(y) {
				ns.typeError("arrays must have the same length")
			}
			return ns.vm.ToValue(stat.Correlation(x, y, nil))
		},
		"cumsum": func(call goja.FunctionCall) goja.Value {
			xs := ns.floats(call.Argument(0))
			return ns.vm.ToValue(floats.CumSum(make([]float64, len(xs)), xs))
		},
		"arange": func(call goja.FunctionCall) goja.Value {
			start, stop, step := 0.0, call.Argument(0).ToFloat(), 1.0
			if len(call.Arguments) > 1 {
				start, stop = stop, call.Argument(1).ToFloat()
			}
			if len(call.Arguments) > 2 {
				step = call.Argument(2).ToFloat()
			}
			if step == 0 {
				ns.typeError("step must not be zero")
			}
			var out []float64
			for v := start; (step > 0 && v < stop) || (step < 0 && v > stop); v += step {
				out = append(out, v)
			}
			return ns.vm.ToValue(out)
		},
		"linspace": func(call goja.FunctionCall) goja.Value {
			n := 50
			if len(call.Arguments) > 2 {
				n = int(call.Argument(2).ToInteger())
			}
			if n < 2 {
				ns.typeError("linspace needs at least two points")
			}
			return ns.vm.ToValue(floats.Span(make([]float64, n), call.Argument(0).ToFloat(), call.Argument(1).ToFloat()))
		},
		"round": func(call goja.FunctionCall) goja.Value {
			digits := 0.0
			if len(call.Arguments) > 1 {
				digits = call.Argument(1).ToFloat()
			}
			p := math.Pow(10, digits)
			return ns.vm.ToValue(math.Round(call.Argument(0).ToFloat()*p) / p)
		},
	}
}

// plt

func (ns *namespace) style(o map[string]any) plotting.Style {
	return plotting.Style{
		Color:     optString(o, "color", "c"),
		EdgeColor: optString(o, "edgecolor", "ec"),
		Width:     optFloat(o, "linewidth", "lw"),
		Label:     optString(o, "label"),
	}
}

// formatColor extracts the color letter of a format string such as "r--"
func formatColor(s string) string {
	for _, r := range s {
		if strings.ContainsRune("bgrcmykw", r) {
			return string(r)
		}
	}
	return ""
}

func (ns *namespace) pyplot() map[string]any {
	m := ns.figures
	check := func(err error) {
		if err != nil {
			ns.throw(err)
		}
	}
	noop := func(goja.FunctionCall) goja.Value { return goja.Undefined() }
	return map[string]any{
		"figure": func(call goja.FunctionCall) goja.Value {
			o := options(call.Argument(0))
			w, h := 0.0, 0.0
			if size, ok := o["figsize"].([]any); ok && len(size) == 2 {
				w, h = toFloat(size[0]), toFloat(size[1])
			}
			return ns.vm.ToValue(m.NewFigure(w, h).Num)
		},
		"plot": func(call goja.FunctionCall) goja.Value {
			args := call.Arguments
			var o map[string]any
			fmtColor := ""
			for len(args) > 1 {
				last := args[len(args)-1]
				if s, ok := last.Export().(string); ok {
					fmtColor = formatColor(s)
				} else if _, ok := last.Export().(map[string]any); ok {
					o = options(last)
				} else {
					break
				}
				args = args[:len(args)-1]
			}
			if len(args) == 0 {
				ns.typeError("plot requires data")
			}
			var x, y []float64
			if len(args) == 1 {
				y = ns.floats(args[0])
				x = make([]float64, len(y))
				for i := range x {
					x[i] = float64(i)
				}
			} else {
				x, y = ns.floats(args[0]), ns.floats(args[1])
			}
			st := ns.style(o)
			if st.Color == "" {
				st.Color = fmtColor
			}
			check(m.Current().Plot(x, y, st))
			return goja.Undefined()
		},
		"bar": func(call goja.FunctionCall) goja.Value {
			o := options(call.Argument(2))
			heights := ns.floats(call.Argument(1))
			fig := m.Current()
			if labels, ok := ns.labels(call.Argument(0)); ok {
				check(fig.BarLabels(labels, heights, ns.style(o)))
			} else {
				check(fig.Bar(ns.floats(call.Argument(0)), heights, optFloat(o, "width"), ns.style(o)))
			}
			return goja.Undefined()
		},
		"hist": func(call goja.FunctionCall) goja.Value {
			o := options(call.Argument(1))
			check(m.Current().Hist(ns.floats(call.Argument(0)), int(optFloat(o, "bins")), ns.style(o)))
			return goja.Undefined()
		},
		"title":  func(s string) { m.Current().SetTitle(s) },
		"xlabel": func(s string) { m.Current().SetXLabel(s) },
		"ylabel": func(s string) { m.Current().SetYLabel(s) },
		"xlim":   func(lo, hi float64) { m.Current().SetXLim(lo, hi) },
		"ylim":   func(lo, hi float64) { m.Current().SetYLim(lo, hi) },
		"close": func(call goja.FunctionCall) goja.Value {
			if s, ok := call.Argument(0).Export().(string); ok && s == "all" {
				m.CloseAll()
			} else {
				m.Close()
			}
			return goja.Undefined()
		},
		"show":         noop,
		"legend":       noop,
		"grid":         noop,
		"tight_layout": noop,
		"xticks":       noop,
		"savefig":      noop,
	}
}

// px

// chartData resolves the data argument of a chart constructor: a table, or an
// options object whose array-valued keys become columns.
func (ns *namespace) chartData(call goja.FunctionCall) (*table.Table, map[string]any) {
	first := call.Argument(0)
	if t, ok := first.Export().(*table.Table); ok {
		return t, options(call.Argument(1))
	}
	o := options(first)
	var names []string
	var columns [][]any
	for _, key := range []string{"x", "y", "names", "values"} {
		if list, ok := o[key].([]any); ok {
			names = append(names, key)
			columns = append(columns, list)
			o[key] = key
		}
	}
	if len(names) == 0 {
		ns.typeError("expected a data frame as first argument")
	}
	t, err := table.FromColumns(names, columns)
	if err != nil {
		ns.throw(err)
	}
	return t, o
}

func chartOptions(o map[string]any) charts.Options {
	opts := charts.Options{
		Title:  optString(o, "title"),
		Colors: optStrings(o, "color_discrete_sequence", "colors"),
		Bins:   int(optFloat(o, "nbins", "bins")),
		Height: optString(o, "height"),
	}
	if labels, ok := o["labels"].(map[string]any); ok {
		x, y := optString(o, "x"), optString(o, "y")
		if s, ok := labels[x].(string); ok && x != "" {
			opts.XLabel = s
		}
		if s, ok := labels[y].(string); ok && y != "" {
			opts.YLabel = s
		}
	}
	return opts
}

func (ns *namespace) track(fig *charts.Figure) goja.Value {
	ns.created = append(ns.created, fig)
	return ns.vm.ToValue(fig)
}

func (ns *namespace) charts() map[string]any {
	xy := func(build func(*table.Table, string, string, charts.Options) (*charts.Figure, error)) func(goja.FunctionCall) goja.Value {
		return func(call goja.FunctionCall) goja.Value {
			t, o := ns.chartData(call)
			fig, err := build(t, optString(o, "x"), optString(o, "y"), chartOptions(o))
			if err != nil {
				ns.throw(err)
			}
			return ns.track(fig)
		}
	}
	return map[string]any{
		"bar":     xy(charts.Bar),
		"line":    xy(charts.Line),
		"scatter": xy(charts.Scatter),
		"histogram": func(call goja.FunctionCall) goja.Value {
			t, o := ns.chartData(call)
			fig, err := charts.Histogram(t, optString(o, "x"), chartOptions(o))
			if err != nil {
				ns.throw(err)
			}
			return ns.track(fig)
		},
		"pie": func(call goja.FunctionCall) goja.Value {
			t, o := ns.chartData(call)
			fig, err := charts.Pie(t, optString(o, "names"), optString(o, "values"), chartOptions(o))
			if err != nil {
				ns.throw(err)
			}
			return ns.track(fig)
		},
	}
}
