package render

import (
	"math"
	"strconv"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
)

var (
	colorBackground = drawing.ColorWhite
	colorInk        = drawing.Color{R: 51, G: 51, B: 51, A: 255}
	colorGrid       = drawing.Color{R: 210, G: 210, B: 210, A: 255}
	colorNaN        = drawing.Color{R: 235, G: 235, B: 235, A: 255}

	// Endpoints of the blue-white-red diverging scale.
	colorCold    = drawing.Color{R: 59, G: 76, B: 192, A: 255}
	colorNeutral = drawing.Color{R: 221, G: 221, B: 221, A: 255}
	colorWarm    = drawing.Color{R: 180, G: 4, B: 38, A: 255}
)

// canvas wraps a raster renderer with the default font loaded.
type canvas struct {
	r chart.Renderer
}

func newCanvas(w, h int) (*canvas, error) {
	r, err := chart.PNG(w, h)
	if err != nil {
		return nil, err
	}
	font, err := chart.GetDefaultFont()
	if err != nil {
		return nil, err
	}
	r.SetFont(font)
	c := &canvas{r: r}
	c.rect(0, 0, w, h, colorBackground)
	return c, nil
}

func (c *canvas) rect(x0, y0, x1, y1 int, fill drawing.Color) {
	c.r.SetFillColor(fill)
	c.r.SetStrokeColor(fill)
	c.r.SetStrokeWidth(1)
	c.r.MoveTo(x0, y0)
	c.r.LineTo(x1, y0)
	c.r.LineTo(x1, y1)
	c.r.LineTo(x0, y1)
	c.r.LineTo(x0, y0)
	c.r.Close()
	c.r.FillStroke()
}

func (c *canvas) outline(x0, y0, x1, y1 int, stroke drawing.Color, width float64) {
	c.r.SetStrokeColor(stroke)
	c.r.SetStrokeWidth(width)
	c.r.MoveTo(x0, y0)
	c.r.LineTo(x1, y0)
	c.r.LineTo(x1, y1)
	c.r.LineTo(x0, y1)
	c.r.LineTo(x0, y0)
	c.r.Stroke()
}

func (c *canvas) line(x0, y0, x1, y1 int, stroke drawing.Color, width float64) {
	c.r.SetStrokeColor(stroke)
	c.r.SetStrokeWidth(width)
	c.r.MoveTo(x0, y0)
	c.r.LineTo(x1, y1)
	c.r.Stroke()
}

func (c *canvas) dot(x, y int, radius float64, fill drawing.Color) {
	c.r.SetFillColor(fill)
	c.r.SetStrokeColor(fill)
	c.r.SetStrokeWidth(1)
	c.r.Circle(radius, x, y)
	c.r.FillStroke()
}

// text draws body centred on (cx, cy).
func (c *canvas) text(body string, cx, cy int, size float64, col drawing.Color) {
	c.r.SetFontSize(size)
	c.r.SetFontColor(col)
	box := c.r.MeasureText(body)
	c.r.Text(body, cx-box.Width()/2, cy+box.Height()/2)
}

// textRight draws body right-aligned to x, vertically centred on cy.
func (c *canvas) textRight(body string, x, cy int, size float64, col drawing.Color) {
	c.r.SetFontSize(size)
	c.r.SetFontColor(col)
	box := c.r.MeasureText(body)
	c.r.Text(body, x-box.Width(), cy+box.Height()/2)
}

func (c *canvas) textWidth(body string, size float64) int {
	c.r.SetFontSize(size)
	return c.r.MeasureText(body).Width()
}

// diverging maps r in [-1, 1] onto the cold-neutral-warm scale.
func diverging(r float64) drawing.Color {
	if math.IsNaN(r) {
		return colorNaN
	}
	if r < -1 {
		r = -1
	} else if r > 1 {
		r = 1
	}
	if r < 0 {
		return lerp(colorNeutral, colorCold, -r)
	}
	return lerp(colorNeutral, colorWarm, r)
}

func lerp(a, b drawing.Color, t float64) drawing.Color {
	mix := func(x, y uint8) uint8 {
		return uint8(math.Round(float64(x) + (float64(y)-float64(x))*t))
	}
	return drawing.Color{R: mix(a.R, b.R), G: mix(a.G, b.G), B: mix(a.B, b.B), A: 255}
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

func formatTick(v float64) string {
	return strconv.FormatFloat(v, 'g', 4, 64)
}
