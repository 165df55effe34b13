package analysis

import (
	"math"
	"sort"

	"github.com/KaramelBytes/datastory-cli/internal/dataset"
)

// CorrMatrix holds a symmetric Pearson correlation matrix across numeric columns.
type CorrMatrix struct {
	Columns []string
	Values  [][]float64 // row-major, Values[i][j]; NaN where undefined
}

// At returns the coefficient for the named pair.
func (m *CorrMatrix) At(a, b string) (float64, bool) {
	i, j := m.index(a), m.index(b)
	if i < 0 || j < 0 {
		return 0, false
	}
	return m.Values[i][j], true
}

func (m *CorrMatrix) index(name string) int {
	for i, c := range m.Columns {
		if c == name {
			return i
		}
	}
	return -1
}

// CorrelatedPair is the strongest off-diagonal entry of a CorrMatrix.
type CorrelatedPair struct {
	A, B string
	R    float64
}

// AnalyzeCorrelations computes the pairwise Pearson matrix over the given
// numeric columns and the pair with the largest coefficient. With fewer than
// two columns both results are nil.
func AnalyzeCorrelations(ds *dataset.Dataset, numericColumns []string) (*CorrMatrix, *CorrelatedPair) {
	if len(numericColumns) < 2 {
		return nil, nil
	}
	series := make([][]float64, len(numericColumns))
	for i, name := range numericColumns {
		col, ok := ds.Column(name)
		if !ok || col.Kind != dataset.KindNumeric {
			// Callers pass dataset.NumericColumns(); anything else is all-missing here.
			series[i] = missingSeries(ds.Rows)
			continue
		}
		series[i] = col.Values
	}

	n := len(numericColumns)
	mat := make([][]float64, n)
	for i := range mat {
		mat[i] = make([]float64, n)
	}
	for a := 0; a < n; a++ {
		mat[a][a] = 1
		for b := a + 1; b < n; b++ {
			r := pearson(series[a], series[b])
			mat[a][b] = r
			mat[b][a] = r
		}
	}
	m := &CorrMatrix{Columns: append([]string(nil), numericColumns...), Values: mat}
	return m, m.StrongestPair()
}

// StrongestPair flattens the matrix row-major, stable-sorts entries by
// descending coefficient and returns the first entry that is not on the
// diagonal. Equal coefficients keep row-major order. Undefined entries are skipped.
func (m *CorrMatrix) StrongestPair() *CorrelatedPair {
	if m == nil {
		return nil
	}
	type entry struct {
		a, b int
		r    float64
	}
	entries := make([]entry, 0, len(m.Columns)*len(m.Columns))
	for i := range m.Columns {
		for j := range m.Columns {
			r := m.Values[i][j]
			if math.IsNaN(r) {
				continue
			}
			entries = append(entries, entry{a: i, b: j, r: r})
		}
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].r > entries[j].r
	})
	for _, e := range entries {
		if m.Columns[e.a] != m.Columns[e.b] {
			return &CorrelatedPair{A: m.Columns[e.a], B: m.Columns[e.b], R: e.r}
		}
	}
	return nil
}

// pearson computes r over rows where both values are present. The result is
// NaN when fewer than two rows pair up or either side has zero variance.
func pearson(xs, ys []float64) float64 {
	var n int
	var sumX, sumY float64
	for i := range xs {
		if math.IsNaN(xs[i]) || math.IsNaN(ys[i]) {
			continue
		}
		n++
		sumX += xs[i]
		sumY += ys[i]
	}
	if n < 2 {
		return math.NaN()
	}
	meanX := sumX / float64(n)
	meanY := sumY / float64(n)
	var sxx, syy, sxy float64
	for i := range xs {
		if math.IsNaN(xs[i]) || math.IsNaN(ys[i]) {
			continue
		}
		dx := xs[i] - meanX
		dy := ys[i] - meanY
		sxx += dx * dx
		syy += dy * dy
		sxy += dx * dy
	}
	denom := math.Sqrt(sxx * syy)
	if denom == 0 || math.IsNaN(denom) || math.IsInf(denom, 0) {
		return math.NaN()
	}
	r := sxy / denom
	if r > 1 {
		r = 1
	} else if r < -1 {
		r = -1
	}
	return r
}

func missingSeries(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = math.NaN()
	}
	return out
}
