package render

import (
	"fmt"
	"io"
	"math"
	"sort"

	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/KaramelBytes/datastory-cli/internal/analysis"
	"github.com/KaramelBytes/datastory-cli/internal/dataset"
)

// boxStats is the five-number summary drawn by the box plot.
type boxStats struct {
	Bound    analysis.OutlierBound
	Median   float64
	Low      float64 // lowest value inside the fence
	High     float64 // highest value inside the fence
	Outliers []float64
	Min, Max float64
}

func summarize(values []float64) (boxStats, bool) {
	sorted := make([]float64, 0, len(values))
	for _, v := range values {
		if !math.IsNaN(v) {
			sorted = append(sorted, v)
		}
	}
	if len(sorted) == 0 {
		return boxStats{}, false
	}
	sort.Float64s(sorted)
	s := boxStats{
		Bound:  analysis.Bounds(sorted),
		Median: analysis.Median(sorted),
		Low:    math.Inf(1),
		High:   math.Inf(-1),
		Min:    sorted[0],
		Max:    sorted[len(sorted)-1],
	}
	for _, v := range sorted {
		if s.Bound.Contains(v) {
			s.Low = math.Min(s.Low, v)
			s.High = math.Max(s.High, v)
		} else {
			s.Outliers = append(s.Outliers, v)
		}
	}
	// Every value is an outlier only when the fence collapses; whiskers sit on the box.
	if math.IsInf(s.Low, 1) {
		s.Low, s.High = s.Bound.Q1, s.Bound.Q3
	}
	return s, true
}

func drawBoxplot(w io.Writer, ds *dataset.Dataset, column string, width, height int) error {
	col, ok := ds.Column(column)
	if !ok {
		return fmt.Errorf("unknown column %q", column)
	}
	s, ok := summarize(col.Values)
	if !ok {
		return fmt.Errorf("column %q has no values", column)
	}
	c, err := newCanvas(width, height)
	if err != nil {
		return err
	}
	c.text(fmt.Sprintf("Anomaly Detection in %s", column), width/2, 24, titleSize, colorInk)

	const top, bottom, left, right = 60, 40, 80, 40
	lo, hi := s.Min, s.Max
	if lo == hi {
		lo, hi = lo-1, hi+1
	}
	pad := (hi - lo) * 0.05
	lo, hi = lo-pad, hi+pad
	plotTop, plotBottom := top, height-bottom
	y := func(v float64) int {
		return plotBottom - int(math.Round((v-lo)/(hi-lo)*float64(plotBottom-plotTop)))
	}

	const ticks = 5
	for i := 0; i <= ticks; i++ {
		v := lo + (hi-lo)*float64(i)/ticks
		py := y(v)
		c.line(left, py, width-right, py, colorGrid, 1)
		c.textRight(formatTick(v), left-8, py, labelSize, colorInk)
	}
	c.text(column, (left+width-right)/2, height-bottom/2, labelSize, colorInk)

	cx := (left + width - right) / 2
	half := (width - left - right) / 6
	boxFill := drawing.Color{R: 59, G: 76, B: 192, A: 90}
	c.rect(cx-half, y(s.Bound.Q3), cx+half, y(s.Bound.Q1), boxFill)
	c.outline(cx-half, y(s.Bound.Q3), cx+half, y(s.Bound.Q1), colorCold, 1.5)
	c.line(cx-half, y(s.Median), cx+half, y(s.Median), colorWarm, 2)

	c.line(cx, y(s.Bound.Q3), cx, y(s.High), colorInk, 1)
	c.line(cx, y(s.Bound.Q1), cx, y(s.Low), colorInk, 1)
	c.line(cx-half/2, y(s.High), cx+half/2, y(s.High), colorInk, 1)
	c.line(cx-half/2, y(s.Low), cx+half/2, y(s.Low), colorInk, 1)

	for _, v := range s.Outliers {
		c.dot(cx, y(v), 4, colorWarm)
	}
	return c.r.Save(w)
}
