// Package render draws the report charts as PNG files.
package render

import (
	"bytes"
	"fmt"
	"path/filepath"

	"github.com/KaramelBytes/datastory-cli/internal/analysis"
	"github.com/KaramelBytes/datastory-cli/internal/artifact"
	"github.com/KaramelBytes/datastory-cli/internal/dataset"
	"github.com/KaramelBytes/datastory-cli/internal/utils"
)

// Input is everything a renderer may draw from.
type Input struct {
	Dataset       *dataset.Dataset
	Matrix        *analysis.CorrMatrix
	Pair          *analysis.CorrelatedPair
	AnomalyColumn string
	Anomalies     *analysis.AnomalySet
}

// Renderer produces chart artifacts. On error the returned set lists the
// files already written so the caller can remove them.
type Renderer interface {
	Render(in Input) (artifact.Set, error)
}

// Nop renders nothing.
type Nop struct{}

func (Nop) Render(Input) (artifact.Set, error) { return artifact.Set{}, nil }

const (
	DefaultWidth  = 800
	DefaultHeight = 600
)

// ChartRenderer writes PNG charts into Dir.
type ChartRenderer struct {
	Dir    string
	Width  int
	Height int
}

func (c ChartRenderer) size() (int, int) {
	w, h := c.Width, c.Height
	if w <= 0 {
		w = DefaultWidth
	}
	if h <= 0 {
		h = DefaultHeight
	}
	return w, h
}

// Render draws the heatmap when a matrix exists, the scatter plot when a pair
// exists and the box plot when an anomaly column is set.
func (c ChartRenderer) Render(in Input) (artifact.Set, error) {
	w, h := c.size()
	out := artifact.Set{}
	type job struct {
		key  artifact.Key
		draw func(buf *bytes.Buffer) error
	}
	var jobs []job
	if in.Matrix != nil {
		jobs = append(jobs, job{artifact.Heatmap, func(buf *bytes.Buffer) error {
			return drawHeatmap(buf, in.Matrix, w, h)
		}})
	}
	if in.Pair != nil && in.Dataset != nil {
		jobs = append(jobs, job{artifact.Scatter, func(buf *bytes.Buffer) error {
			return drawScatter(buf, in.Dataset, in.Pair, w, h)
		}})
	}
	if in.AnomalyColumn != "" && in.Dataset != nil {
		jobs = append(jobs, job{artifact.Boxplot, func(buf *bytes.Buffer) error {
			return drawBoxplot(buf, in.Dataset, in.AnomalyColumn, w, h)
		}})
	}
	for _, j := range jobs {
		var buf bytes.Buffer
		if err := j.draw(&buf); err != nil {
			return out, fmt.Errorf("render %s: %w", j.key, err)
		}
		path := filepath.Join(c.Dir, artifact.Filename(j.key))
		if err := utils.SafeWriteFile(path, buf.Bytes()); err != nil {
			return out, fmt.Errorf("write %s: %w", j.key, err)
		}
		out[j.key] = path
	}
	return out, nil
}
