package plotting

import (
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"
)

// GridShape returns the rows and columns used to combine n figures
func GridShape(n int) (rows, cols int) {
	if n <= 0 {
		return 0, 0
	}
	cols = min(2, n)
	rows = (n + cols - 1) / cols
	return rows, cols
}

// Combine copies every figure into its own cell of a new grid figure set
func Combine(figs []*Figure) []*Figure {
	cells := make([]*Figure, len(figs))
	for i, src := range figs {
		cell := &Figure{Num: i + 1, Width: CellWidth, Height: CellHeight}
		src.CopyInto(cell)
		cells[i] = cell
	}
	return cells
}

func encodeGrid(figs []*Figure) ([]byte, error) {
	rows, cols := GridShape(len(figs))
	cells := Combine(figs)

	plots := make([]*plot.Plot, len(cells))
	for i, cell := range cells {
		p, err := Build(cell)
		if err != nil {
			return nil, err
		}
		plots[i] = p
	}

	img := vgimg.NewWith(
		vgimg.UseWH(vg.Length(CellWidth*cols)*vg.Inch, vg.Length(CellHeight*rows)*vg.Inch),
		vgimg.UseDPI(DPI),
	)
	dc := draw.New(img)
	tiles := draw.Tiles{
		Rows:      rows,
		Cols:      cols,
		PadX:      vg.Millimeter * 8,
		PadY:      vg.Millimeter * 8,
		PadTop:    vg.Millimeter * 4,
		PadBottom: vg.Millimeter * 4,
		PadLeft:   vg.Millimeter * 4,
		PadRight:  vg.Millimeter * 4,
	}
	for i, p := range plots {
		p.Draw(tiles.At(dc, i%cols, i/cols))
	}
	return encodePNG(img)
}
