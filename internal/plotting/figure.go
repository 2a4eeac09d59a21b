package plotting

import (
	"fmt"
	"image/color"
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Default figure size in inches
const (
	DefaultWidth  = 6.4
	DefaultHeight = 4.8
	DefaultBins   = 10
	DefaultLine   = 1.5
	BarWidth      = 0.8
)

// Line is a polyline series
type Line struct {
	X, Y  []float64
	Color color.Color
	Width float64
	Label string
}

// Rect is a rectangular patch anchored at its lower-left corner
type Rect struct {
	X, Y, W, H float64
	Fill       color.Color
	Edge       color.Color
}

// Style carries optional per-series settings
type Style struct {
	Color     string
	EdgeColor string
	Width     float64
	Label     string
}

// Figure is one static figure with a single axes
type Figure struct {
	Num    int
	Width  float64
	Height float64

	Title  string
	XLabel string
	YLabel string
	XTicks []string

	Lines []Line
	Rects []Rect

	xlim, ylim *[2]float64
	series     int
}

func (f *Figure) nextColor(s string) (color.Color, error) {
	c, err := ColorOrCycle(s, f.series)
	if err != nil {
		return nil, err
	}
	f.series++
	return c, nil
}

// Plot adds a line series
func (f *Figure) Plot(x, y []float64, style Style) error {
	if len(x) != len(y) {
		return fmt.Errorf("x and y must have same first dimension, but have shapes (%d,) and (%d,)", len(x), len(y))
	}
	c, err := f.nextColor(style.Color)
	if err != nil {
		return err
	}
	width := style.Width
	if width <= 0 {
		width = DefaultLine
	}
	f.Lines = append(f.Lines, Line{
		X:     append([]float64(nil), x...),
		Y:     append([]float64(nil), y...),
		Color: c,
		Width: width,
		Label: style.Label,
	})
	return nil
}

// Bar adds one rectangle per value centred on x
func (f *Figure) Bar(x, heights []float64, width float64, style Style) error {
	if len(x) != len(heights) {
		return fmt.Errorf("shape mismatch: %d positions for %d heights", len(x), len(heights))
	}
	if width <= 0 {
		width = BarWidth
	}
	fill, err := f.nextColor(style.Color)
	if err != nil {
		return err
	}
	edge := color.Color(color.Transparent)
	if style.EdgeColor != "" {
		if edge, err = ParseColor(style.EdgeColor); err != nil {
			return err
		}
	}
	for i := range x {
		y, h := 0.0, heights[i]
		if h < 0 {
			y, h = h, -h
		}
		f.Rects = append(f.Rects, Rect{X: x[i] - width/2, Y: y, W: width, H: h, Fill: fill, Edge: edge})
	}
	return nil
}

// BarLabels draws categorical bars at 0..n-1 and labels the ticks
func (f *Figure) BarLabels(labels []string, heights []float64, style Style) error {
	if len(labels) != len(heights) {
		return fmt.Errorf("shape mismatch: %d labels for %d heights", len(labels), len(heights))
	}
	x := make([]float64, len(labels))
	for i := range x {
		x[i] = float64(i)
	}
	if err := f.Bar(x, heights, BarWidth, style); err != nil {
		return err
	}
	f.XTicks = append([]string(nil), labels...)
	return nil
}

// Hist bins values into equal-width bins and draws one rectangle per bin
func (f *Figure) Hist(values []float64, bins int, style Style) error {
	if bins <= 0 {
		bins = DefaultBins
	}
	data := make([]float64, 0, len(values))
	for _, v := range values {
		if !math.IsNaN(v) && !math.IsInf(v, 0) {
			data = append(data, v)
		}
	}
	if len(data) == 0 {
		return fmt.Errorf("hist requires at least one finite value")
	}
	sort.Float64s(data)

	lo, hi := data[0], data[len(data)-1]
	if lo == hi {
		lo, hi = lo-0.5, hi+0.5
	}
	dividers := floats.Span(make([]float64, bins+1), lo, hi)
	edges := append([]float64(nil), dividers...)
	dividers[bins] = math.Nextafter(hi, math.Inf(1))
	counts := stat.Histogram(nil, dividers, data, nil)

	fill, err := f.nextColor(style.Color)
	if err != nil {
		return err
	}
	edge := color.Color(color.Transparent)
	if style.EdgeColor != "" {
		if edge, err = ParseColor(style.EdgeColor); err != nil {
			return err
		}
	}
	for i, n := range counts {
		f.Rects = append(f.Rects, Rect{X: edges[i], Y: 0, W: edges[i+1] - edges[i], H: n, Fill: fill, Edge: edge})
	}
	return nil
}

func (f *Figure) SetTitle(s string)  { f.Title = s }
func (f *Figure) SetXLabel(s string) { f.XLabel = s }
func (f *Figure) SetYLabel(s string) { f.YLabel = s }

func (f *Figure) SetXLim(lo, hi float64) { f.xlim = &[2]float64{lo, hi} }
func (f *Figure) SetYLim(lo, hi float64) { f.ylim = &[2]float64{lo, hi} }

// Limits returns the effective axis limits: explicit limits when set,
// otherwise the data range padded by 5% the way the default autoscaler does.
func (f *Figure) Limits() (xmin, xmax, ymin, ymax float64) {
	xmin, ymin = math.Inf(1), math.Inf(1)
	xmax, ymax = math.Inf(-1), math.Inf(-1)
	extend := func(x, y float64) {
		if math.IsNaN(x) || math.IsNaN(y) {
			return
		}
		xmin, xmax = math.Min(xmin, x), math.Max(xmax, x)
		ymin, ymax = math.Min(ymin, y), math.Max(ymax, y)
	}
	for _, l := range f.Lines {
		for i := range l.X {
			extend(l.X[i], l.Y[i])
		}
	}
	for _, r := range f.Rects {
		extend(r.X, r.Y)
		extend(r.X+r.W, r.Y+r.H)
	}
	if math.IsInf(xmin, 1) {
		xmin, xmax, ymin, ymax = 0, 1, 0, 1
	}
	xmin, xmax = pad(xmin, xmax)
	ymin, ymax = pad(ymin, ymax)
	if f.xlim != nil {
		xmin, xmax = f.xlim[0], f.xlim[1]
	}
	if f.ylim != nil {
		ymin, ymax = f.ylim[0], f.ylim[1]
	}
	return xmin, xmax, ymin, ymax
}

func pad(lo, hi float64) (float64, float64) {
	if lo == hi {
		return lo - 0.5, hi + 0.5
	}
	m := (hi - lo) * 0.05
	return lo - m, hi + m
}

// CopyInto gives dst the line series, patches, labels and effective limits of f.
// Tick labels are not carried over.
func (f *Figure) CopyInto(dst *Figure) {
	for _, l := range f.Lines {
		dst.Lines = append(dst.Lines, Line{
			X:     append([]float64(nil), l.X...),
			Y:     append([]float64(nil), l.Y...),
			Color: l.Color,
			Width: l.Width,
		})
	}
	dst.Rects = append(dst.Rects, f.Rects...)
	dst.Title = f.Title
	dst.XLabel = f.XLabel
	dst.YLabel = f.YLabel
	xmin, xmax, ymin, ymax := f.Limits()
	dst.SetXLim(xmin, xmax)
	dst.SetYLim(ymin, ymax)
}

// Manager tracks the open figures of one execution
type Manager struct {
	figures []*Figure
	current *Figure
	next    int
}

func NewManager() *Manager {
	return &Manager{next: 1}
}

// NewFigure opens a figure and makes it current; non-positive sizes use the default
func (m *Manager) NewFigure(width, height float64) *Figure {
	if width <= 0 {
		width = DefaultWidth
	}
	if height <= 0 {
		height = DefaultHeight
	}
	f := &Figure{Num: m.next, Width: width, Height: height}
	m.next++
	m.figures = append(m.figures, f)
	m.current = f
	return f
}

// Current returns the current figure, opening one if none is open
func (m *Manager) Current() *Figure {
	if m.current == nil {
		return m.NewFigure(0, 0)
	}
	return m.current
}

// Figures returns open figures in creation order
func (m *Manager) Figures() []*Figure {
	return append([]*Figure(nil), m.figures...)
}

// Close releases the current figure
func (m *Manager) Close() {
	if m.current == nil {
		return
	}
	for i, f := range m.figures {
		if f == m.current {
			m.figures = append(m.figures[:i], m.figures[i+1:]...)
			break
		}
	}
	m.current = nil
	if n := len(m.figures); n > 0 {
		m.current = m.figures[n-1]
	}
}

// CloseAll releases every figure
func (m *Manager) CloseAll() {
	m.figures = nil
	m.current = nil
}
