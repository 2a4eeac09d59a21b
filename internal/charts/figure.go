package charts

import (
	"bytes"
	"fmt"
	"sort"
	"strings"

	"eino_data_analyst/internal/core"
	"eino_data_analyst/internal/table"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
	"github.com/go-echarts/go-echarts/v2/render"
)

// Chart kinds
const (
	KindBar       = "bar"
	KindLine      = "line"
	KindScatter   = "scatter"
	KindHistogram = "histogram"
	KindPie       = "pie"
)

// Options mirrors the keyword arguments accepted by the chart constructors
type Options struct {
	Title  string
	XLabel string
	YLabel string
	Colors []string
	Bins   int
	Height string
}

type series struct {
	name   string
	points []point
}

type point struct {
	label string
	x, y  float64
}

// Figure is an interactive chart built from a table.
// It renders to a self-contained HTML page.
type Figure struct {
	kind       string
	opts       Options
	categories []string
	series     []series
}

// Kind tags the value as an interactive figure
func (f *Figure) Kind() core.Kind { return core.KindInteractiveFigure }

// ChartType returns the chart kind, e.g. "bar"
func (f *Figure) ChartType() string { return f.kind }

func (f *Figure) Title() string { return f.opts.Title }

// Show is a no-op kept so generated code may call fig.show()
func (f *Figure) Show() {}

// UpdateLayout applies title and axis titles.
// Recognised keys: title, xaxis_title, yaxis_title, height.
func (f *Figure) UpdateLayout(layout map[string]any) {
	for k, v := range layout {
		s, ok := v.(string)
		if !ok {
			continue
		}
		switch strings.ToLower(k) {
		case "title", "title_text":
			f.opts.Title = s
		case "xaxis_title", "xaxis_title_text":
			f.opts.XLabel = s
		case "yaxis_title", "yaxis_title_text":
			f.opts.YLabel = s
		case "height":
			f.opts.Height = s
		}
	}
}

func column(t *table.Table, name string) (*table.Column, error) {
	if t == nil {
		return nil, fmt.Errorf("no data frame given")
	}
	return t.Col(name)
}

// xy builds one series from two columns; x values are kept as category labels
func xy(t *table.Table, x, y string) (*Figure, error) {
	xc, err := column(t, x)
	if err != nil {
		return nil, err
	}
	yc, err := column(t, y)
	if err != nil {
		return nil, err
	}
	labels := xc.Strings()
	xs := xc.Floats()
	ys := yc.Floats()
	s := series{name: y}
	for i := range labels {
		s.points = append(s.points, point{label: labels[i], x: xs[i], y: ys[i]})
	}
	return &Figure{categories: labels, series: []series{s}}, nil
}

// Bar draws one bar per row
func Bar(t *table.Table, x, y string, o Options) (*Figure, error) {
	f, err := xy(t, x, y)
	if err != nil {
		return nil, err
	}
	f.kind, f.opts = KindBar, withAxisNames(o, x, y)
	return f, nil
}

// Line draws y against x in row order
func Line(t *table.Table, x, y string, o Options) (*Figure, error) {
	f, err := xy(t, x, y)
	if err != nil {
		return nil, err
	}
	f.kind, f.opts = KindLine, withAxisNames(o, x, y)
	return f, nil
}

// Scatter draws numeric x against numeric y
func Scatter(t *table.Table, x, y string, o Options) (*Figure, error) {
	f, err := xy(t, x, y)
	if err != nil {
		return nil, err
	}
	f.kind, f.opts = KindScatter, withAxisNames(o, x, y)
	return f, nil
}

// Histogram counts the values of x into equal-width bins
func Histogram(t *table.Table, x string, o Options) (*Figure, error) {
	xc, err := column(t, x)
	if err != nil {
		return nil, err
	}
	bins := o.Bins
	if bins <= 0 {
		bins = 20
	}
	edges, counts := binned(xc.Floats(), bins)
	s := series{name: "count"}
	var labels []string
	for i, n := range counts {
		label := fmt.Sprintf("[%s, %s)", trim(edges[i]), trim(edges[i+1]))
		labels = append(labels, label)
		s.points = append(s.points, point{label: label, x: edges[i], y: n})
	}
	f := &Figure{kind: KindHistogram, categories: labels, series: []series{s}}
	f.opts = withAxisNames(o, x, "count")
	return f, nil
}

// Pie draws the share of values per name
func Pie(t *table.Table, names, values string, o Options) (*Figure, error) {
	f, err := xy(t, names, values)
	if err != nil {
		return nil, err
	}
	f.kind, f.opts = KindPie, o
	return f, nil
}

func withAxisNames(o Options, x, y string) Options {
	if o.XLabel == "" {
		o.XLabel = x
	}
	if o.YLabel == "" {
		o.YLabel = y
	}
	return o
}

func binned(values []float64, bins int) ([]float64, []float64) {
	var data []float64
	for _, v := range values {
		if v == v {
			data = append(data, v)
		}
	}
	edges := make([]float64, bins+1)
	counts := make([]float64, bins)
	if len(data) == 0 {
		return edges, counts
	}
	sort.Float64s(data)
	lo, hi := data[0], data[len(data)-1]
	if lo == hi {
		lo, hi = lo-0.5, hi+0.5
	}
	step := (hi - lo) / float64(bins)
	for i := range edges {
		edges[i] = lo + float64(i)*step
	}
	for _, v := range data {
		i := int((v - lo) / step)
		if i >= bins {
			i = bins - 1
		}
		counts[i]++
	}
	return edges, counts
}

func trim(v float64) string {
	s := fmt.Sprintf("%.2f", v)
	s = strings.TrimRight(s, "0")
	return strings.TrimSuffix(s, ".")
}

// RenderHTML renders the figure as an HTML page; id makes the element id stable
func (f *Figure) RenderHTML(id string) (string, error) {
	chart, err := f.build(id)
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if err := chart.Render(&buf); err != nil {
		return "", fmt.Errorf("failed to render chart: %w", err)
	}
	return buf.String(), nil
}

func (f *Figure) global(id string) []charts.GlobalOpts {
	height := f.opts.Height
	if height == "" {
		height = "450px"
	}
	return []charts.GlobalOpts{
		charts.WithInitializationOpts(opts.Initialization{
			PageTitle: f.opts.Title,
			ChartID:   id,
			Width:     "100%",
			Height:    height,
		}),
		charts.WithTitleOpts(opts.Title{Title: f.opts.Title}),
	}
}

func (f *Figure) axes() []charts.GlobalOpts {
	return []charts.GlobalOpts{
		charts.WithXAxisOpts(opts.XAxis{Name: f.opts.XLabel}),
		charts.WithYAxisOpts(opts.YAxis{Name: f.opts.YLabel}),
	}
}

func (f *Figure) color(i int) charts.SeriesOpts {
	c := ""
	if len(f.opts.Colors) > 0 {
		c = f.opts.Colors[i%len(f.opts.Colors)]
	}
	return charts.WithItemStyleOpts(opts.ItemStyle{Color: c})
}

func (f *Figure) build(id string) (render.Renderer, error) {
	switch f.kind {
	case KindBar, KindHistogram:
		c := charts.NewBar()
		c.SetGlobalOptions(append(f.global(id), f.axes()...)...)
		c.SetXAxis(f.categories)
		for i, s := range f.series {
			data := make([]opts.BarData, len(s.points))
			for j, p := range s.points {
				data[j] = opts.BarData{Value: p.y}
			}
			c.AddSeries(s.name, data, f.color(i))
		}
		return c, nil
	case KindLine:
		c := charts.NewLine()
		c.SetGlobalOptions(append(f.global(id), f.axes()...)...)
		c.SetXAxis(f.categories)
		for i, s := range f.series {
			data := make([]opts.LineData, len(s.points))
			for j, p := range s.points {
				data[j] = opts.LineData{Value: p.y}
			}
			c.AddSeries(s.name, data, f.color(i))
		}
		return c, nil
	case KindScatter:
		c := charts.NewScatter()
		c.SetGlobalOptions(append(f.global(id),
			charts.WithXAxisOpts(opts.XAxis{Name: f.opts.XLabel, Type: "value"}),
			charts.WithYAxisOpts(opts.YAxis{Name: f.opts.YLabel, Type: "value"}),
		)...)
		for i, s := range f.series {
			data := make([]opts.ScatterData, len(s.points))
			for j, p := range s.points {
				data[j] = opts.ScatterData{Value: []float64{p.x, p.y}}
			}
			c.AddSeries(s.name, data, f.color(i))
		}
		return c, nil
	case KindPie:
		c := charts.NewPie()
		c.SetGlobalOptions(f.global(id)...)
		for _, s := range f.series {
			data := make([]opts.PieData, len(s.points))
			for j, p := range s.points {
				data[j] = opts.PieData{Name: p.label, Value: p.y}
			}
			c.AddSeries(s.name, data)
		}
		return c, nil
	default:
		return nil, fmt.Errorf("unsupported chart type '%s'", f.kind)
	}
}
