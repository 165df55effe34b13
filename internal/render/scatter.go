package render

import (
	"fmt"
	"io"
	"math"

	"github.com/wcharczuk/go-chart/v2"

	"github.com/KaramelBytes/datastory-cli/internal/analysis"
	"github.com/KaramelBytes/datastory-cli/internal/dataset"
)

// pairwise returns the rows where both a and b are present.
func pairwise(ds *dataset.Dataset, a, b string) ([]float64, []float64, error) {
	ca, ok := ds.Column(a)
	if !ok {
		return nil, nil, fmt.Errorf("unknown column %q", a)
	}
	cb, ok := ds.Column(b)
	if !ok {
		return nil, nil, fmt.Errorf("unknown column %q", b)
	}
	var xs, ys []float64
	for i := range ca.Values {
		if i >= len(cb.Values) {
			break
		}
		x, y := ca.Values[i], cb.Values[i]
		if math.IsNaN(x) || math.IsNaN(y) {
			continue
		}
		xs = append(xs, x)
		ys = append(ys, y)
	}
	if len(xs) == 0 {
		return nil, nil, fmt.Errorf("no complete observations for %s vs %s", a, b)
	}
	return xs, ys, nil
}

func drawScatter(w io.Writer, ds *dataset.Dataset, p *analysis.CorrelatedPair, width, height int) error {
	xs, ys, err := pairwise(ds, p.A, p.B)
	if err != nil {
		return err
	}
	graph := chart.Chart{
		Title:  fmt.Sprintf("Scatter Plot: %s vs %s", p.A, p.B),
		Width:  width,
		Height: height,
		Background: chart.Style{
			Padding: chart.Box{Top: 50, Left: 20, Right: 20, Bottom: 20},
		},
		XAxis: chart.XAxis{Name: p.A},
		YAxis: chart.YAxis{Name: p.B},
		Series: []chart.Series{
			chart.ContinuousSeries{
				Name:    fmt.Sprintf("%s vs %s", p.A, p.B),
				XValues: xs,
				YValues: ys,
				Style: chart.Style{
					StrokeWidth: chart.Disabled,
					DotWidth:    4,
					DotColor:    colorCold,
				},
			},
		},
	}
	return graph.Render(chart.PNG, w)
}
