package plotting

import (
	"bytes"
	"image/color"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGridShape(t *testing.T) {
	cases := []struct {
		n, rows, cols int
	}{
		{1, 1, 1},
		{2, 1, 2},
		{3, 2, 2},
		{4, 2, 2},
		{5, 3, 2},
	}
	for _, tc := range cases {
		rows, cols := GridShape(tc.n)
		assert.Equal(t, tc.rows, rows, "rows for n=%d", tc.n)
		assert.Equal(t, tc.cols, cols, "cols for n=%d", tc.n)
	}
}

func TestParseColor(t *testing.T) {
	c, err := ParseColor("#FF6B9D")
	require.NoError(t, err)
	assert.Equal(t, color.NRGBA{R: 0xff, G: 0x6b, B: 0x9d, A: 0xff}, c)

	c, err = ParseColor("#abc")
	require.NoError(t, err)
	assert.Equal(t, color.NRGBA{R: 0xaa, G: 0xbb, B: 0xcc, A: 0xff}, c)

	_, err = ParseColor("steelblue")
	assert.NoError(t, err)
	_, err = ParseColor("tab:orange")
	assert.NoError(t, err)
	_, err = ParseColor("r")
	assert.NoError(t, err)
	_, err = ParseColor("not-a-color")
	assert.Error(t, err)
}

func TestHistBins(t *testing.T) {
	f := NewManager().NewFigure(0, 0)
	require.NoError(t, f.Hist([]float64{0, 1, 1, 2, 3, 4}, 4, Style{}))

	require.Len(t, f.Rects, 4)
	var total float64
	for _, r := range f.Rects {
		total += r.H
		assert.InDelta(t, 1.0, r.W, 1e-9)
	}
	assert.Equal(t, 6.0, total)
	assert.Equal(t, 2.0, f.Rects[1].H)
}

func TestPlotLengthMismatch(t *testing.T) {
	f := NewManager().Current()
	assert.Error(t, f.Plot([]float64{1, 2}, []float64{1}, Style{}))
}

func TestLimitsExplicitAndPadded(t *testing.T) {
	f := NewManager().Current()
	require.NoError(t, f.Plot([]float64{0, 10}, []float64{0, 20}, Style{}))

	xmin, xmax, ymin, ymax := f.Limits()
	assert.InDelta(t, -0.5, xmin, 1e-9)
	assert.InDelta(t, 10.5, xmax, 1e-9)
	assert.InDelta(t, -1, ymin, 1e-9)
	assert.InDelta(t, 21, ymax, 1e-9)

	f.SetYLim(0, 100)
	_, _, ymin, ymax = f.Limits()
	assert.Equal(t, 0.0, ymin)
	assert.Equal(t, 100.0, ymax)
}

func TestCopyInto(t *testing.T) {
	src := NewManager().Current()
	require.NoError(t, src.Plot([]float64{1, 2}, []float64{3, 4}, Style{Color: "red", Width: 2}))
	require.NoError(t, src.BarLabels([]string{"a", "b"}, []float64{5, 6}, Style{}))
	src.SetTitle("Sales")
	src.SetXLabel("month")
	src.SetYLabel("units")

	dst := &Figure{}
	src.CopyInto(dst)

	require.Len(t, dst.Lines, 1)
	assert.Equal(t, src.Lines[0].Color, dst.Lines[0].Color)
	assert.Equal(t, 2.0, dst.Lines[0].Width)
	assert.Equal(t, src.Rects, dst.Rects)
	assert.Equal(t, "Sales", dst.Title)
	assert.Equal(t, "month", dst.XLabel)
	assert.Equal(t, "units", dst.YLabel)
	assert.Empty(t, dst.XTicks)

	sx0, sx1, sy0, sy1 := src.Limits()
	dx0, dx1, dy0, dy1 := dst.Limits()
	assert.Equal(t, []float64{sx0, sx1, sy0, sy1}, []float64{dx0, dx1, dy0, dy1})
}

func TestManagerClose(t *testing.T) {
	m := NewManager()
	first := m.NewFigure(0, 0)
	m.NewFigure(0, 0)
	m.Close()

	assert.Len(t, m.Figures(), 1)
	assert.Same(t, first, m.Current())

	m.CloseAll()
	assert.Empty(t, m.Figures())
}

func TestEncodeSingleFigure(t *testing.T) {
	f := NewManager().Current()
	require.NoError(t, f.Plot([]float64{1, 2, 3}, []float64{2, 4, 1}, Style{}))

	data, err := Encode([]*Figure{f})
	require.NoError(t, err)

	cfg, err := png.DecodeConfig(bytes.NewReader(data))
	require.NoError(t, err)
	assert.InDelta(t, 640, cfg.Width, 1)
	assert.InDelta(t, 480, cfg.Height, 1)
}

func TestEncodeCombinedGrid(t *testing.T) {
	m := NewManager()
	for i := 0; i < 3; i++ {
		f := m.NewFigure(0, 0)
		require.NoError(t, f.Bar([]float64{0, 1}, []float64{float64(i + 1), 2}, 0, Style{}))
	}

	data, err := Encode(m.Figures())
	require.NoError(t, err)

	cfg, err := png.DecodeConfig(bytes.NewReader(data))
	require.NoError(t, err)
	assert.InDelta(t, 2400, cfg.Width, 1)
	assert.InDelta(t, 1200, cfg.Height, 1)
}

func TestEncodeNothing(t *testing.T) {
	_, err := Encode(nil)
	assert.Error(t, err)
}
