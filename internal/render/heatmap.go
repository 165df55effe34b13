package render

import (
	"fmt"
	"io"
	"math"

	"github.com/KaramelBytes/datastory-cli/internal/analysis"
)

const (
	titleSize = 16
	labelSize = 10
	cellSize  = 10
)

func drawHeatmap(w io.Writer, m *analysis.CorrMatrix, width, height int) error {
	n := len(m.Columns)
	if n == 0 {
		return fmt.Errorf("empty correlation matrix")
	}
	c, err := newCanvas(width, height)
	if err != nil {
		return err
	}
	c.text("Correlation Matrix", width/2, 24, titleSize, colorInk)

	labels := make([]string, n)
	left := 0
	for i, name := range m.Columns {
		labels[i] = truncate(name, 18)
		if lw := c.textWidth(labels[i], labelSize); lw > left {
			left = lw
		}
	}
	left += 16
	const top, bottom, right = 50, 40, 20
	side := min((width-left-right)/n, (height-top-bottom)/n)
	if side < 1 {
		side = 1
	}
	grid := side * n

	for i := range n {
		for j := range n {
			r := m.Values[i][j]
			x0, y0 := left+j*side, top+i*side
			c.rect(x0, y0, x0+side, y0+side, diverging(r))
			ink := colorInk
			if math.Abs(r) > 0.6 {
				ink = colorBackground
			}
			c.text(cellLabel(r), x0+side/2, y0+side/2, cellSize, ink)
		}
		c.textRight(labels[i], left-8, top+i*side+side/2, labelSize, colorInk)
		c.text(labels[i], left+i*side+side/2, top+grid+14, labelSize, colorInk)
	}
	c.outline(left, top, left+grid, top+grid, colorGrid, 1)
	return c.r.Save(w)
}

func cellLabel(r float64) string {
	if math.IsNaN(r) {
		return "n/a"
	}
	return fmt.Sprintf("%.2f", r)
}
