package report

import (
	"fmt"
	"strings"

	"github.com/KaramelBytes/datastory-cli/internal/analysis"
	"github.com/KaramelBytes/datastory-cli/internal/artifact"
)

// Fixed report wording.
const (
	// Title is the level-one heading of every report.
	Title = "Automated Data Analysis Report"

	// IntroText is the body of the Introduction section.
	IntroText = "This report provides an automated analysis of the provided dataset. It highlights key correlations and identifies potential anomalies."
	// NoCorrelation replaces the correlation narrative when no pair was found.
	NoCorrelation = "No significant correlations were found among the numerical variables."
	// NoAnomalies replaces the anomaly table when the scan found no outliers.
	NoAnomalies = "No significant anomalies were detected in the analyzed column."
	// BoxplotCaption follows the boxplot image.
	BoxplotCaption = "This box plot visualizes the distribution and highlights the outliers."
	// ConclusionText is the body of the Conclusion section.
	ConclusionText = "This automated report is intended to provide a high-level overview of the data. Further investigation is recommended to understand the context behind these findings."
)

// Document is an ordered list of Markdown sections.
type Document struct {
	Sections []string
}

// Markdown concatenates the sections.
func (d *Document) Markdown() string {
	return strings.Join(d.Sections, "")
}

// Assemble builds the four report sections from findings. Chart embeds are
// emitted only for artifacts present in arts and only when their finding exists.
func Assemble(f analysis.Findings, arts artifact.Set) *Document {
	return &Document{Sections: []string{
		introduction(),
		correlationSection(f.Pair, arts),
		anomalySection(f.Anomalies, arts),
		conclusion(),
	}}
}

func introduction() string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", Title)
	b.WriteString("## 1. Introduction\n")
	b.WriteString(IntroText + "\n\n")
	return b.String()
}

func correlationSection(p *analysis.CorrelatedPair, arts artifact.Set) string {
	var b strings.Builder
	b.WriteString("## 2. Correlation Analysis\n")
	if p == nil {
		b.WriteString(NoCorrelation + "\n\n")
		return b.String()
	}
	fmt.Fprintf(&b, "The analysis identified a strong relationship between variables. The most significant correlation is between %s and %s with a correlation coefficient of %s.\n\n",
		emphasis(p.A), emphasis(p.B), emphasis(FormatCoefficient(p.R)))
	if ref, ok := arts.Ref(artifact.Heatmap); ok {
		b.WriteString("### Correlation Matrix Heatmap\n")
		b.WriteString(image("Correlation Heatmap", ref))
	}
	if ref, ok := arts.Ref(artifact.Scatter); ok {
		fmt.Fprintf(&b, "### Scatter Plot: %s vs %s\n", p.A, p.B)
		b.WriteString(image("Scatter Plot", ref))
	}
	return b.String()
}

func anomalySection(s *analysis.AnomalySet, arts artifact.Set) string {
	var b strings.Builder
	b.WriteString("## 3. Anomaly Detection\n")
	if s.Empty() {
		b.WriteString(NoAnomalies + "\n\n")
		return b.String()
	}
	fmt.Fprintf(&b, "Anomaly detection was performed on the %s column. The following outliers were identified:\n\n", emphasis("'"+s.Column+"'"))
	b.WriteString(Table(s.Header, anomalyCells(s)))
	b.WriteString("\n\n")
	if ref, ok := arts.Ref(artifact.Boxplot); ok {
		fmt.Fprintf(&b, "### Box Plot for %s\n", s.Column)
		b.WriteString(BoxplotCaption + "\n\n")
		b.WriteString(image("Anomaly Boxplot", ref))
	}
	return b.String()
}

func conclusion() string {
	return "## 4. Conclusion\n" + ConclusionText + "\n"
}

func anomalyCells(s *analysis.AnomalySet) [][]string {
	rows := make([][]string, len(s.Rows))
	for i, r := range s.Rows {
		rows[i] = r.Cells
	}
	return rows
}

// FormatCoefficient renders r with exactly two decimals.
func FormatCoefficient(r float64) string {
	return fmt.Sprintf("%.2f", r)
}

func emphasis(s string) string { return "**" + s + "**" }

func image(alt, ref string) string {
	return fmt.Sprintf("![%s](%s)\n\n", alt, ref)
}
