package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/datastory-cli/internal/artifact"
	"github.com/KaramelBytes/datastory-cli/internal/pipeline"
	"github.com/KaramelBytes/datastory-cli/internal/utils"
)

var (
	anaOutputDir     string
	anaAnomalyColumn string
	anaNoCharts      bool
	anaPrint         bool
	anaFormat        string
	anaTable         tableFlags
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze <file>",
	Short: "Analyze a CSV/TSV/XLSX table and write a Markdown report with charts",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := checkFormat(anaFormat); err != nil {
			return err
		}
		opt, err := anaTable.options(cmd, cfg)
		if err != nil {
			return &ExitError{Code: ExitCommandError, Message: "invalid flags", Err: err}
		}
		outDir := cfg.OutputDir
		if cmd.Flags().Changed("output-dir") {
			outDir = anaOutputDir
		}
		column := cfg.AnomalyColumn
		if cmd.Flags().Changed("anomaly-column") {
			column = anaAnomalyColumn
		}

		res := newPipeline(opt, outDir, column, cfg.Charts && !anaNoCharts).Run(args[0])

		out := cmd.OutOrStdout()
		if anaFormat == "json" {
			b, err := utils.PrettyJSON(summarize(res))
			if err != nil {
				return err
			}
			fmt.Fprintln(out, string(b))
		} else {
			printResult(out, res)
			if anaPrint && res.Document != nil {
				fmt.Fprint(out, res.Document.Markdown())
			}
		}
		return resultError(res)
	},
}

func init() {
	rootCmd.AddCommand(analyzeCmd)
	analyzeCmd.Flags().StringVarP(&anaOutputDir, "output-dir", "o", "reports", "directory for report.md and charts (overrides config)")
	analyzeCmd.Flags().StringVar(&anaAnomalyColumn, "anomaly-column", "", "numeric column to scan for outliers (default: first numeric column)")
	analyzeCmd.Flags().BoolVar(&anaNoCharts, "no-charts", false, "skip chart rendering")
	analyzeCmd.Flags().BoolVar(&anaPrint, "print", false, "also print the report Markdown to stdout")
	analyzeCmd.Flags().StringVar(&anaFormat, "format", "text", "output format: text|json")
	anaTable.register(analyzeCmd)
}

func checkFormat(f string) error {
	switch f {
	case "text", "json":
		return nil
	}
	return &ExitError{Code: ExitCommandError, Message: fmt.Sprintf("unsupported --format: %s (use text|json)", f)}
}

// resultError maps a run outcome onto the process exit code.
func resultError(res *pipeline.Result) error {
	f := res.Failure()
	if f == nil {
		return nil
	}
	code := ExitFailure
	if f.Kind == pipeline.KindMissingInput {
		code = ExitCommandError
	}
	return &ExitError{Code: code, Message: fmt.Sprintf("analysis of %s failed", res.Input), Err: f}
}

func printResult(w io.Writer, res *pipeline.Result) {
	switch res.Status {
	case pipeline.StatusOK:
		fmt.Fprintf(w, "✓ Report written to %s\n", res.ReportPath)
		for _, p := range res.Artifacts.Paths() {
			fmt.Fprintf(w, "  chart: %s\n", p)
		}
	case pipeline.StatusNoNumericData:
		fmt.Fprintf(w, "⚠ No numeric columns found in %s, nothing to analyze\n", res.Input)
	}
}

type pairSummary struct {
	A string  `json:"a"`
	B string  `json:"b"`
	R float64 `json:"r"`
}

// runSummary is the JSON view of a pipeline.Result.
type runSummary struct {
	RunID         string            `json:"run_id"`
	Input         string            `json:"input"`
	Status        pipeline.Status   `json:"status"`
	Report        string            `json:"report,omitempty"`
	Artifacts     map[string]string `json:"artifacts,omitempty"`
	Correlation   *pairSummary      `json:"correlation,omitempty"`
	AnomalyColumn string            `json:"anomaly_column,omitempty"`
	Anomalies     int               `json:"anomalies"`
	Error         string            `json:"error,omitempty"`
	ErrorKind     pipeline.Kind     `json:"error_kind,omitempty"`
}

func summarize(res *pipeline.Result) runSummary {
	s := runSummary{
		RunID:         res.RunID,
		Input:         res.Input,
		Status:        res.Status,
		Report:        res.ReportPath,
		AnomalyColumn: res.Findings.AnomalyColumn(),
		Anomalies:     res.Findings.Anomalies.Len(),
	}
	if len(res.Artifacts) > 0 {
		s.Artifacts = map[string]string{}
		for _, k := range artifact.Keys {
			if p, ok := res.Artifacts[k]; ok {
				s.Artifacts[string(k)] = p
			}
		}
	}
	if p := res.Findings.Pair; p != nil {
		s.Correlation = &pairSummary{A: p.A, B: p.B, R: p.R}
	}
	if f := res.Failure(); f != nil {
		s.Error = f.Err.Error()
		s.ErrorKind = f.Kind
	}
	return s
}
