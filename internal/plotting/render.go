package plotting

import (
	"bytes"
	"fmt"
	"image/color"
	"math"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"
)

// DPI used for every encoded figure
const DPI = 100

// Grid width and height per cell of a combined figure, in inches
const (
	CellWidth  = 12
	CellHeight = 6
)

// rects draws patches in data coordinates
type rects []Rect

func (rs rects) Plot(c draw.Canvas, p *plot.Plot) {
	trX, trY := p.Transforms(&c)
	for _, r := range rs {
		x0, x1 := trX(r.X), trX(r.X+r.W)
		y0, y1 := trY(r.Y), trY(r.Y+r.H)
		pts := []vg.Point{{X: x0, Y: y0}, {X: x1, Y: y0}, {X: x1, Y: y1}, {X: x0, Y: y1}}
		if r.Fill != nil {
			c.FillPolygon(r.Fill, c.ClipPolygonXY(pts))
		}
		if r.Edge != nil && !transparent(r.Edge) {
			outline := append(pts, pts[0])
			c.StrokeLines(draw.LineStyle{Color: r.Edge, Width: vg.Points(0.5)}, c.ClipLinesXY(outline)...)
		}
	}
}

func (rs rects) DataRange() (xmin, xmax, ymin, ymax float64) {
	xmin, ymin = math.Inf(1), math.Inf(1)
	xmax, ymax = math.Inf(-1), math.Inf(-1)
	for _, r := range rs {
		xmin, xmax = math.Min(xmin, r.X), math.Max(xmax, r.X+r.W)
		ymin, ymax = math.Min(ymin, r.Y), math.Max(ymax, r.Y+r.H)
	}
	return xmin, xmax, ymin, ymax
}

func transparent(c color.Color) bool {
	_, _, _, a := c.RGBA()
	return a == 0
}

// Build converts a figure into a gonum plot
func Build(f *Figure) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = f.Title
	p.X.Label.Text = f.XLabel
	p.Y.Label.Text = f.YLabel

	if len(f.Rects) > 0 {
		p.Add(rects(f.Rects))
	}
	for _, l := range f.Lines {
		xys := make(plotter.XYs, 0, len(l.X))
		for i := range l.X {
			if math.IsNaN(l.X[i]) || math.IsNaN(l.Y[i]) {
				continue
			}
			xys = append(xys, plotter.XY{X: l.X[i], Y: l.Y[i]})
		}
		if len(xys) == 0 {
			continue
		}
		line, err := plotter.NewLine(xys)
		if err != nil {
			return nil, fmt.Errorf("failed to build line series: %w", err)
		}
		line.LineStyle.Color = l.Color
		line.LineStyle.Width = vg.Points(l.Width)
		p.Add(line)
		if l.Label != "" {
			p.Legend.Add(l.Label, line)
		}
	}
	if len(f.XTicks) > 0 {
		p.NominalX(f.XTicks...)
	}

	p.X.Min, p.X.Max, p.Y.Min, p.Y.Max = f.Limits()
	return p, nil
}

// Encode renders figures to one PNG. A single figure keeps its own size;
// several figures are laid out on a grid, see GridShape.
func Encode(figs []*Figure) ([]byte, error) {
	switch len(figs) {
	case 0:
		return nil, fmt.Errorf("no figures to encode")
	case 1:
		p, err := Build(figs[0])
		if err != nil {
			return nil, err
		}
		img := vgimg.NewWith(
			vgimg.UseWH(vg.Length(figs[0].Width)*vg.Inch, vg.Length(figs[0].Height)*vg.Inch),
			vgimg.UseDPI(DPI),
		)
		p.Draw(draw.New(img))
		return encodePNG(img)
	default:
		return encodeGrid(figs)
	}
}

func encodePNG(img *vgimg.Canvas) ([]byte, error) {
	var buf bytes.Buffer
	if _, err := (vgimg.PngCanvas{Canvas: img}).WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("failed to encode png: %w", err)
	}
	return buf.Bytes(), nil
}
