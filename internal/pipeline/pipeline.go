// Package pipeline runs one analysis end to end: load, analyze, render,
// assemble and write.
package pipeline

import (
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/KaramelBytes/datastory-cli/internal/analysis"
	"github.com/KaramelBytes/datastory-cli/internal/artifact"
	"github.com/KaramelBytes/datastory-cli/internal/dataset"
	"github.com/KaramelBytes/datastory-cli/internal/logging"
	"github.com/KaramelBytes/datastory-cli/internal/render"
	"github.com/KaramelBytes/datastory-cli/internal/report"
	"github.com/KaramelBytes/datastory-cli/internal/utils"
)

// DefaultReportName is the report file written into the output directory.
const DefaultReportName = "report.md"

// Status is the outcome of a run.
type Status string

const (
	StatusOK            Status = "ok"
	StatusNoNumericData Status = "no_numeric_data"
	StatusFailed        Status = "failed"
)

// Kind classifies a failure.
type Kind string

const (
	KindMissingInput Kind = "missing_input"
	KindLoad         Kind = "load"
	KindAnalysis     Kind = "analysis"
	KindRender       Kind = "render"
	KindWrite        Kind = "write"
)

// Failure is the error carried by a failed Result.
type Failure struct {
	Stage string
	Kind  Kind
	Err   error
}

func (f *Failure) Error() string { return fmt.Sprintf("%s: %v", f.Stage, f.Err) }

func (f *Failure) Unwrap() error { return f.Err }

// Source loads a dataset by path.
type Source interface {
	Load(path string) (*dataset.Dataset, error)
}

// Result describes a single run. Err is a *Failure when Status is StatusFailed.
type Result struct {
	RunID      string
	Input      string
	Status     Status
	Document   *report.Document
	ReportPath string
	Artifacts  artifact.Set
	Findings   analysis.Findings
	Err        error
}

// Failure returns the typed failure, or nil.
func (r *Result) Failure() *Failure {
	var f *Failure
	if errors.As(r.Err, &f) {
		return f
	}
	return nil
}

// Pipeline holds the collaborators of a run. Zero-valued fields fall back to
// defaults: the CSV/XLSX loader, no charts, a no-op logger, the current
// directory and report.md.
type Pipeline struct {
	Source        Source
	Renderer      render.Renderer
	Logger        *zap.Logger
	OutputDir     string
	AnomalyColumn string
	ReportName    string
}

func (p *Pipeline) source() Source {
	if p.Source == nil {
		return dataset.Source{Options: dataset.DefaultOptions()}
	}
	return p.Source
}

func (p *Pipeline) renderer() render.Renderer {
	if p.Renderer == nil {
		return render.Nop{}
	}
	return p.Renderer
}

func (p *Pipeline) logger() *zap.Logger {
	if p.Logger == nil {
		return zap.NewNop()
	}
	return p.Logger
}

func (p *Pipeline) outputDir() string {
	if p.OutputDir == "" {
		return "."
	}
	return p.OutputDir
}

func (p *Pipeline) reportName() string {
	if p.ReportName == "" {
		return DefaultReportName
	}
	return p.ReportName
}

// Run executes the pipeline for the table at path. It never returns nil.
func (p *Pipeline) Run(path string) *Result {
	res := &Result{RunID: uuid.NewString(), Input: path, Artifacts: artifact.Set{}}
	log := p.logger().With(zap.String("run_id", res.RunID), zap.String("input", path))

	ds, err := p.source().Load(path)
	if err != nil {
		kind := KindLoad
		if errors.Is(err, dataset.ErrMissingInput) {
			kind = KindMissingInput
		}
		return fail(res, log, logging.StageLoad, kind, err)
	}
	numeric := ds.NumericColumns()
	log.Info("dataset loaded", logging.Stage(logging.StageLoad),
		zap.Int("rows", ds.Rows), zap.Int("columns", len(ds.Columns)), zap.Int("numeric_columns", len(numeric)))

	if len(numeric) == 0 {
		log.Warn("no numeric columns found, nothing to analyze", logging.Stage(logging.StageSelect))
		res.Status = StatusNoNumericData
		return res
	}
	column, err := p.selectColumn(ds, numeric)
	if err != nil {
		return fail(res, log, logging.StageSelect, KindAnalysis, err)
	}

	matrix, pair := analysis.AnalyzeCorrelations(ds, numeric)
	switch {
	case matrix == nil:
		log.Info("fewer than two numeric columns, skipping correlation", logging.Stage(logging.StageCorrelate))
	case pair == nil:
		log.Info("no defined correlation between distinct columns", logging.Stage(logging.StageCorrelate))
	default:
		log.Info("strongest correlation", logging.Stage(logging.StageCorrelate),
			zap.String("a", pair.A), zap.String("b", pair.B), zap.Float64("r", pair.R))
	}

	anomalies, err := analysis.DetectAnomalies(ds, column)
	if err != nil {
		return fail(res, log, logging.StageDetect, KindAnalysis, err)
	}
	log.Info("anomalies detected", logging.Stage(logging.StageDetect),
		zap.String("column", column), zap.Int("anomalies", anomalies.Len()), boundField(anomalies.Bound))
	res.Findings = analysis.Findings{Pair: pair, Anomalies: anomalies}

	dir := p.outputDir()
	created := !exists(dir)
	if err := utils.EnsureDir(dir); err != nil {
		return fail(res, log, logging.StageWrite, KindWrite, fmt.Errorf("create output dir: %w", err))
	}

	arts, err := p.renderer().Render(render.Input{
		Dataset:       ds,
		Matrix:        matrix,
		Pair:          pair,
		AnomalyColumn: column,
		Anomalies:     anomalies,
	})
	if err != nil {
		discard(log, dir, created, arts.Paths())
		return fail(res, log, logging.StageRender, KindRender, err)
	}
	if arts == nil {
		arts = artifact.Set{}
	}
	log.Debug("charts rendered", logging.Stage(logging.StageRender), zap.Strings("artifacts", arts.Paths()))

	doc := report.Assemble(res.Findings, arts)
	log.Debug("report assembled", logging.Stage(logging.StageAssemble), zap.Int("sections", len(doc.Sections)))

	reportPath := filepath.Join(dir, p.reportName())
	if err := utils.SafeWriteFile(reportPath, []byte(doc.Markdown())); err != nil {
		discard(log, dir, created, arts.Paths())
		return fail(res, log, logging.StageWrite, KindWrite, err)
	}
	res.Status = StatusOK
	res.Document = doc
	res.ReportPath = reportPath
	res.Artifacts = arts
	log.Info("report written", logging.Stage(logging.StageWrite), zap.String("path", reportPath))
	return res
}

// selectColumn returns the anomaly column: the configured one, which must be
// numeric, or else the first numeric column.
func (p *Pipeline) selectColumn(ds *dataset.Dataset, numeric []string) (string, error) {
	if p.AnomalyColumn == "" {
		return numeric[0], nil
	}
	col, ok := ds.Column(p.AnomalyColumn)
	if !ok {
		return "", fmt.Errorf("%w: %q", analysis.ErrUnknownColumn, p.AnomalyColumn)
	}
	if col.Kind != dataset.KindNumeric {
		return "", fmt.Errorf("%w: %q", analysis.ErrNotNumeric, p.AnomalyColumn)
	}
	return col.Name, nil
}

func fail(res *Result, log *zap.Logger, stage string, kind Kind, err error) *Result {
	res.Status = StatusFailed
	res.Artifacts = artifact.Set{}
	res.Err = &Failure{Stage: stage, Kind: kind, Err: err}
	log.Error("run failed", logging.Stage(stage), zap.String("kind", string(kind)), zap.Error(err))
	return res
}

// discard removes artifacts written by a failed run, and the output
// directory when this run created it and it is now empty.
func discard(log *zap.Logger, dir string, created bool, paths []string) {
	if err := utils.RemoveFiles(paths...); err != nil {
		log.Warn("cleanup failed", zap.Error(err))
	}
	if created {
		_ = os.Remove(dir)
	}
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func boundField(b analysis.OutlierBound) zap.Field {
	if math.IsNaN(b.IQR) {
		return zap.Skip()
	}
	return zap.Float64s("fence", []float64{b.Lower, b.Upper})
}
