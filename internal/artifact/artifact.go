// Package artifact names the chart files a report can embed.
package artifact

import "path/filepath"

// Key identifies a rendered chart.
type Key string

const (
	Heatmap Key = "heatmap"
	Scatter Key = "scatter"
	Boxplot Key = "boxplot"
)

// Keys lists every artifact in report order.
var Keys = []Key{Heatmap, Scatter, Boxplot}

// Filename is the canonical file name a renderer writes for k.
func Filename(k Key) string {
	switch k {
	case Heatmap:
		return "correlation_heatmap.png"
	case Scatter:
		return "correlation_scatter_plot.png"
	case Boxplot:
		return "anomaly_boxplot.png"
	}
	return string(k) + ".png"
}

// Set maps artifact keys to file paths. A key is present only when its chart was produced.
type Set map[Key]string

// Has reports whether k was produced.
func (s Set) Has(k Key) bool {
	_, ok := s[k]
	return ok
}

// Ref returns the relative reference for k (the base file name) and whether k is present.
func (s Set) Ref(k Key) (string, bool) {
	p, ok := s[k]
	if !ok {
		return "", false
	}
	return filepath.Base(p), true
}

// Paths returns the file paths in report order.
func (s Set) Paths() []string {
	var out []string
	for _, k := range Keys {
		if p, ok := s[k]; ok {
			out = append(out, p)
		}
	}
	return out
}
