package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	cfgpkg "github.com/KaramelBytes/datastory-cli/internal/config"
	"github.com/KaramelBytes/datastory-cli/internal/dataset"
	"github.com/KaramelBytes/datastory-cli/internal/pipeline"
	"github.com/KaramelBytes/datastory-cli/internal/render"
)

// tableFlags are the parsing flags shared by analyze and analyze-batch.
type tableFlags struct {
	delimiter  string
	decimal    string
	thousands  string
	maxRows    int
	sheetName  string
	sheetIndex int
}

func (t *tableFlags) register(c *cobra.Command) {
	c.Flags().StringVar(&t.delimiter, "delimiter", "", "CSV delimiter: ',' | ';' | '|' | 'tab' (sniffed if omitted)")
	c.Flags().StringVar(&t.decimal, "decimal", "", "decimal separator for numbers: '.'|'comma' (auto-detect if omitted)")
	c.Flags().StringVar(&t.thousands, "thousands", "", "thousands separator for numbers: ','|'.'|'space' (auto-detect if omitted)")
	c.Flags().IntVar(&t.maxRows, "max-rows", 0, "maximum rows to process (0 = unlimited)")
	c.Flags().StringVar(&t.sheetName, "sheet-name", "", "XLSX: sheet name to analyze")
	c.Flags().IntVar(&t.sheetIndex, "sheet-index", 1, "XLSX: 1-based sheet index (used if --sheet-name not provided)")
}

// options merges flags over the loaded configuration.
func (t *tableFlags) options(c *cobra.Command, g *cfgpkg.Global) (dataset.Options, error) {
	f := c.Flags()
	opt := dataset.DefaultOptions()
	pick := func(flag, flagVal, cfgVal string) string {
		if f.Changed(flag) {
			return flagVal
		}
		return cfgVal
	}
	var err error
	if opt.Delimiter, err = parseDelimiter(pick("delimiter", t.delimiter, g.Delimiter)); err != nil {
		return opt, err
	}
	if opt.DecimalSeparator, err = parseDecimal(pick("decimal", t.decimal, g.DecimalSeparator)); err != nil {
		return opt, err
	}
	if opt.ThousandsSeparator, err = parseThousands(pick("thousands", t.thousands, g.ThousandsSeparator)); err != nil {
		return opt, err
	}
	opt.MaxRows = g.MaxRows
	if f.Changed("max-rows") {
		opt.MaxRows = t.maxRows
	}
	if opt.MaxRows < 0 {
		return opt, fmt.Errorf("--max-rows must be >= 0")
	}
	opt.SheetName = t.sheetName
	if t.sheetIndex < 1 {
		return opt, fmt.Errorf("--sheet-index must be >= 1")
	}
	opt.SheetIndex = t.sheetIndex
	return opt, nil
}

func parseDelimiter(s string) (rune, error) {
	switch s {
	case "":
		return 0, nil
	case ",":
		return ',', nil
	case "\t", `\t`, "tab":
		return '\t', nil
	case ";":
		return ';', nil
	case "|":
		return '|', nil
	}
	return 0, fmt.Errorf("unsupported --delimiter: %s", s)
}

func parseDecimal(s string) (rune, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case ",", "comma":
		return ',', nil
	case ".", "dot":
		return '.', nil
	case "":
		return 0, nil
	}
	return 0, fmt.Errorf("unsupported --decimal: %s (use '.'|'comma')", s)
}

func parseThousands(s string) (rune, error) {
	if s == " " {
		return ' ', nil
	}
	switch strings.ToLower(strings.TrimSpace(s)) {
	case ",":
		return ',', nil
	case ".":
		return '.', nil
	case "'":
		return '\'', nil
	case "space":
		return ' ', nil
	case "":
		return 0, nil
	}
	return 0, fmt.Errorf("unsupported --thousands: %s (use ','|'.'|'space')", s)
}

// newPipeline wires one run writing into outDir.
func newPipeline(opt dataset.Options, outDir, column string, charts bool) *pipeline.Pipeline {
	p := &pipeline.Pipeline{
		Source:        dataset.Source{Options: opt},
		Logger:        logger,
		OutputDir:     outDir,
		AnomalyColumn: column,
		ReportName:    cfg.ReportName,
	}
	if charts {
		p.Renderer = render.ChartRenderer{Dir: outDir, Width: cfg.ChartWidth, Height: cfg.ChartHeight}
	}
	return p
}
