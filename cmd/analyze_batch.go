package cmd

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/KaramelBytes/datastory-cli/internal/pipeline"
	"github.com/KaramelBytes/datastory-cli/internal/utils"
)

var (
	abOutputDir     string
	abAnomalyColumn string
	abNoCharts      bool
	abJobs          int
	abQuiet         bool
	abFormat        string
	abTable         tableFlags
)

var analyzeBatchCmd = &cobra.Command{
	Use:   "analyze-batch <files...>",
	Short: "Analyze multiple CSV/TSV/XLSX files, one report directory per file",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := checkFormat(abFormat); err != nil {
			return err
		}
		if abJobs < 1 {
			return &ExitError{Code: ExitCommandError, Message: "--jobs must be >= 1"}
		}
		files := expandInputs(args)
		if len(files) == 0 {
			return &ExitError{Code: ExitCommandError, Message: "no input files matched"}
		}
		opt, err := abTable.options(cmd, cfg)
		if err != nil {
			return &ExitError{Code: ExitCommandError, Message: "invalid flags", Err: err}
		}
		outRoot := cfg.OutputDir
		if cmd.Flags().Changed("output-dir") {
			outRoot = abOutputDir
		}
		column := cfg.AnomalyColumn
		if cmd.Flags().Changed("anomaly-column") {
			column = abAnomalyColumn
		}
		charts := cfg.Charts && !abNoCharts
		dirs := outputDirs(outRoot, files)

		out := cmd.OutOrStdout()
		total := len(files)
		results := make([]*pipeline.Result, total)
		var mu sync.Mutex
		var g errgroup.Group
		g.SetLimit(abJobs)
		for i, path := range files {
			g.Go(func() error {
				if !abQuiet && abFormat == "text" {
					mu.Lock()
					fmt.Fprintf(out, "[%d/%d] Processing %s...\n", i+1, total, filepath.Base(path))
					mu.Unlock()
				}
				results[i] = newPipeline(opt, dirs[i], column, charts).Run(path)
				return nil
			})
		}
		_ = g.Wait()

		failed := 0
		summaries := make([]runSummary, 0, total)
		for _, res := range results {
			if res.Status == pipeline.StatusFailed {
				failed++
			}
			summaries = append(summaries, summarize(res))
		}
		if abFormat == "json" {
			b, err := utils.PrettyJSON(summaries)
			if err != nil {
				return err
			}
			fmt.Fprintln(out, string(b))
		} else if !abQuiet {
			for _, res := range results {
				if f := res.Failure(); f != nil {
					fmt.Fprintf(out, "✗ %s: %v\n", res.Input, f)
					continue
				}
				printResult(out, res)
			}
		}
		if failed > 0 {
			return &ExitError{Code: ExitFailure, Message: fmt.Sprintf("%d of %d file(s) failed", failed, total)}
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(analyzeBatchCmd)
	analyzeBatchCmd.Flags().StringVarP(&abOutputDir, "output-dir", "o", "reports", "root directory; each file gets <output-dir>/<name>/ (overrides config)")
	analyzeBatchCmd.Flags().StringVar(&abAnomalyColumn, "anomaly-column", "", "numeric column to scan for outliers in every file")
	analyzeBatchCmd.Flags().BoolVar(&abNoCharts, "no-charts", false, "skip chart rendering")
	analyzeBatchCmd.Flags().IntVar(&abJobs, "jobs", 1, "number of files analyzed concurrently")
	analyzeBatchCmd.Flags().BoolVar(&abQuiet, "quiet", false, "suppress progress and non-essential output")
	analyzeBatchCmd.Flags().StringVar(&abFormat, "format", "text", "output format: text|json")
	abTable.register(analyzeBatchCmd)
}

// expandInputs expands globs, keeps literal paths that match nothing, dedupes and sorts.
func expandInputs(args []string) []string {
	var files []string
	seen := map[string]struct{}{}
	for _, arg := range args {
		matches, _ := filepath.Glob(arg)
		if len(matches) == 0 {
			// treat as literal path; a missing file fails its own run
			matches = []string{arg}
		}
		for _, m := range matches {
			if _, ok := seen[m]; ok {
				continue
			}
			seen[m] = struct{}{}
			files = append(files, m)
		}
	}
	sort.Strings(files)
	return files
}

// outputDirs assigns each file <root>/<stem>, suffixing __2, __3... when stems collide.
func outputDirs(root string, files []string) []string {
	dirs := make([]string, len(files))
	taken := map[string]bool{}
	for i, f := range files {
		base := filepath.Base(f)
		stem := strings.TrimSuffix(base, filepath.Ext(base))
		if stem == "" {
			stem = "dataset"
		}
		name := stem
		for n := 2; taken[name]; n++ {
			name = fmt.Sprintf("%s__%d", stem, n)
		}
		taken[name] = true
		dirs[i] = filepath.Join(root, name)
	}
	return dirs
}
