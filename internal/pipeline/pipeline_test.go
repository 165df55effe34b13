package pipeline

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/KaramelBytes/datastory-cli/internal/analysis"
	"github.com/KaramelBytes/datastory-cli/internal/artifact"
	"github.com/KaramelBytes/datastory-cli/internal/dataset"
	"github.com/KaramelBytes/datastory-cli/internal/render"
	"github.com/KaramelBytes/datastory-cli/internal/report"
	"github.com/KaramelBytes/datastory-cli/internal/utils"
)

func writeCSV(t *testing.T, content string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "data.csv")
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	return p
}

func observed() (*zap.Logger, *observer.ObservedLogs) {
	core, logs := observer.New(zapcore.DebugLevel)
	return zap.New(core), logs
}

// stubRenderer pretends to draw every chart it is asked for.
type stubRenderer struct {
	dir   string
	fail  bool
	calls int
}

func (s *stubRenderer) Render(in render.Input) (artifact.Set, error) {
	s.calls++
	set := artifact.Set{}
	p := filepath.Join(s.dir, artifact.Filename(artifact.Heatmap))
	if err := utils.SafeWriteFile(p, []byte("png")); err != nil {
		return set, err
	}
	set[artifact.Heatmap] = p
	if s.fail {
		return set, errors.New("boom")
	}
	if in.AnomalyColumn != "" {
		b := filepath.Join(s.dir, artifact.Filename(artifact.Boxplot))
		if err := utils.SafeWriteFile(b, []byte("png")); err != nil {
			return set, err
		}
		set[artifact.Boxplot] = b
	}
	return set, nil
}

func TestRun_WritesReport(t *testing.T) {
	in := writeCSV(t, "x,y,label\n1,2,a\n2,4,b\n3,6,c\n4,8,d\n5,10,e\n")
	out := filepath.Join(t.TempDir(), "reports")
	log, logs := observed()
	p := &Pipeline{Logger: log, OutputDir: out, Renderer: &stubRenderer{dir: out}}

	res := p.Run(in)
	require.NoError(t, res.Err)
	assert.Equal(t, StatusOK, res.Status)
	assert.NotEmpty(t, res.RunID)
	assert.Equal(t, filepath.Join(out, DefaultReportName), res.ReportPath)

	require.NotNil(t, res.Findings.Pair)
	assert.Equal(t, "x", res.Findings.Pair.A)
	assert.Equal(t, "y", res.Findings.Pair.B)
	assert.InDelta(t, 1.0, res.Findings.Pair.R, 1e-12)
	assert.Equal(t, "x", res.Findings.AnomalyColumn())

	b, err := os.ReadFile(res.ReportPath)
	require.NoError(t, err)
	assert.Equal(t, res.Document.Markdown(), string(b))
	assert.Contains(t, string(b), "**x** and **y** with a correlation coefficient of **1.00**")
	assert.Contains(t, string(b), report.NoAnomalies)
	assert.Contains(t, string(b), "![Correlation Heatmap](correlation_heatmap.png)")

	written := logs.FilterMessage("report written").All()
	require.Len(t, written, 1)
	ctx := written[0].ContextMap()
	assert.Equal(t, "write", ctx["stage"])
	assert.Equal(t, res.RunID, ctx["run_id"])
	assert.Equal(t, in, ctx["input"])
}

func TestRun_SingleNumericColumn(t *testing.T) {
	in := writeCSV(t, "v,label\n1,a\n2,b\n3,c\n4,d\n5,e\n100,f\n")
	out := t.TempDir()
	log, logs := observed()
	res := (&Pipeline{Logger: log, OutputDir: out}).Run(in)

	require.Equal(t, StatusOK, res.Status)
	assert.Nil(t, res.Findings.Pair)
	assert.Equal(t, 1, logs.FilterMessage("fewer than two numeric columns, skipping correlation").Len())
	require.Equal(t, 1, res.Findings.Anomalies.Len())
	assert.Equal(t, []string{"100", "f"}, res.Findings.Anomalies.Rows[0].Cells)

	md := res.Document.Markdown()
	assert.Contains(t, md, report.NoCorrelation)
	assert.Contains(t, md, "| v | label |\n| --- | --- |\n| 100 | f |")
}

func TestRun_NoNumericData(t *testing.T) {
	in := writeCSV(t, "name,city\nann,paris\nbob,rome\n")
	out := filepath.Join(t.TempDir(), "reports")
	log, logs := observed()
	r := &stubRenderer{dir: out}
	res := (&Pipeline{Logger: log, OutputDir: out, Renderer: r}).Run(in)

	assert.Equal(t, StatusNoNumericData, res.Status)
	assert.NoError(t, res.Err)
	assert.Nil(t, res.Document)
	assert.Empty(t, res.Artifacts)
	assert.Zero(t, r.calls)
	_, err := os.Stat(out)
	assert.True(t, os.IsNotExist(err), "output dir must not be created")

	warns := logs.FilterLevelExact(zapcore.WarnLevel).All()
	require.Len(t, warns, 1)
	assert.Equal(t, "select", warns[0].ContextMap()["stage"])
}

func TestRun_EmptyAnomalySetOmitsBoxplot(t *testing.T) {
	in := writeCSV(t, "a,b\n1,3\n2,1\n3,4\n4,2\n")
	out := t.TempDir()
	res := (&Pipeline{OutputDir: out, Renderer: &stubRenderer{dir: out}}).Run(in)

	require.Equal(t, StatusOK, res.Status)
	assert.True(t, res.Artifacts.Has(artifact.Boxplot))
	assert.True(t, res.Findings.Anomalies.Empty())
	md := res.Document.Markdown()
	assert.Contains(t, md, report.NoAnomalies)
	assert.NotContains(t, md, "anomaly_boxplot.png")
}

func TestRun_MissingInput(t *testing.T) {
	log, logs := observed()
	out := filepath.Join(t.TempDir(), "reports")
	res := (&Pipeline{Logger: log, OutputDir: out}).Run(filepath.Join(t.TempDir(), "nope.csv"))

	assert.Equal(t, StatusFailed, res.Status)
	f := res.Failure()
	require.NotNil(t, f)
	assert.Equal(t, KindMissingInput, f.Kind)
	assert.Equal(t, "load", f.Stage)
	assert.ErrorIs(t, res.Err, dataset.ErrMissingInput)
	assert.Equal(t, 1, logs.FilterLevelExact(zapcore.ErrorLevel).Len())
	_, err := os.Stat(out)
	assert.True(t, os.IsNotExist(err))
}

func TestRun_UnsupportedFormat(t *testing.T) {
	p := filepath.Join(t.TempDir(), "data.json")
	require.NoError(t, os.WriteFile(p, []byte("{}"), 0o644))
	res := (&Pipeline{}).Run(p)
	require.NotNil(t, res.Failure())
	assert.Equal(t, KindLoad, res.Failure().Kind)
	assert.ErrorIs(t, res.Err, dataset.ErrUnsupportedFormat)
}

func TestRun_AnomalyColumnOverride(t *testing.T) {
	in := writeCSV(t, "a,b,label\n1,10,x\n2,20,y\n3,30,z\n4,400,w\n5,50,v\n")
	out := t.TempDir()

	res := (&Pipeline{OutputDir: out, AnomalyColumn: "b"}).Run(in)
	require.Equal(t, StatusOK, res.Status)
	assert.Equal(t, "b", res.Findings.AnomalyColumn())

	for name, want := range map[string]error{
		"missing": analysis.ErrUnknownColumn,
		"label":   analysis.ErrNotNumeric,
	} {
		t.Run(name, func(t *testing.T) {
			dir := filepath.Join(t.TempDir(), "out")
			res := (&Pipeline{OutputDir: dir, AnomalyColumn: name}).Run(in)
			require.NotNil(t, res.Failure())
			assert.Equal(t, KindAnalysis, res.Failure().Kind)
			assert.ErrorIs(t, res.Err, want)
			_, err := os.Stat(dir)
			assert.True(t, os.IsNotExist(err))
		})
	}
}

func TestRun_RenderFailureLeavesNoOutput(t *testing.T) {
	in := writeCSV(t, "x,y\n1,2\n2,4\n3,7\n")
	out := filepath.Join(t.TempDir(), "reports")
	res := (&Pipeline{OutputDir: out, Renderer: &stubRenderer{dir: out, fail: true}}).Run(in)

	require.NotNil(t, res.Failure())
	assert.Equal(t, KindRender, res.Failure().Kind)
	assert.Empty(t, res.Artifacts)
	assert.Empty(t, res.ReportPath)
	_, err := os.Stat(out)
	assert.True(t, os.IsNotExist(err), "output dir created by the run is removed")
}

func TestRun_RenderFailureKeepsExistingDir(t *testing.T) {
	in := writeCSV(t, "x,y\n1,2\n2,4\n3,7\n")
	out := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(out, "keep.txt"), []byte("x"), 0o644))
	res := (&Pipeline{OutputDir: out, Renderer: &stubRenderer{dir: out, fail: true}}).Run(in)

	require.Equal(t, StatusFailed, res.Status)
	entries, err := os.ReadDir(out)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "keep.txt", entries[0].Name())
}

func TestRun_ChartRendererEndToEnd(t *testing.T) {
	in := writeCSV(t, "x,y,v\n1,2,1\n2,4,2\n3,6,3\n4,8,4\n5,10,100\n")
	out := filepath.Join(t.TempDir(), "reports")
	res := (&Pipeline{
		OutputDir:     out,
		ReportName:    "story.md",
		AnomalyColumn: "v",
		Renderer:      render.ChartRenderer{Dir: out, Width: 320, Height: 240},
	}).Run(in)

	require.NoError(t, res.Err)
	assert.Equal(t, "v", res.Findings.AnomalyColumn())
	assert.Equal(t, 1, res.Findings.Anomalies.Len())
	for _, k := range artifact.Keys {
		require.True(t, res.Artifacts.Has(k), "missing %s", k)
	}
	md := res.Document.Markdown()
	assert.Contains(t, md, "![Anomaly Boxplot](anomaly_boxplot.png)")
	assert.Contains(t, md, "![Scatter Plot](correlation_scatter_plot.png)")
	assert.Contains(t, md, "| 5 | 10 | 100 |")
	_, err := os.Stat(filepath.Join(out, "story.md"))
	assert.NoError(t, err)
}
