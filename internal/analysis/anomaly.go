package analysis

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/KaramelBytes/datastory-cli/internal/dataset"
)

var (
	// ErrUnknownColumn indicates the requested column is not in the dataset.
	ErrUnknownColumn = errors.New("unknown column")
	// ErrNotNumeric indicates the requested column is not numeric.
	ErrNotNumeric = errors.New("column is not numeric")
)

// iqrFactor is Tukey's fence multiplier.
const iqrFactor = 1.5

// OutlierBound is the Tukey fence derived from a column's quartiles.
type OutlierBound struct {
	Q1, Q3 float64
	IQR    float64
	Lower  float64
	Upper  float64
}

// Contains reports whether v lies within [Lower, Upper].
func (b OutlierBound) Contains(v float64) bool {
	return !(v < b.Lower || v > b.Upper)
}

// AnomalyRow is one flagged row with every original cell.
type AnomalyRow struct {
	Index int
	Value float64
	Cells []string
}

// AnomalySet is the full-row projection of rows outside the bound, in original order.
type AnomalySet struct {
	Column string
	Bound  OutlierBound
	Header []string
	Rows   []AnomalyRow
}

// Len returns the number of outlier rows; a nil set has none.
func (s *AnomalySet) Len() int {
	if s == nil {
		return 0
	}
	return len(s.Rows)
}

// Empty reports whether the set holds no outlier rows.
func (s *AnomalySet) Empty() bool { return s.Len() == 0 }

// Bounds computes Tukey's IQR fence over the non-missing values.
// With no values every field is NaN.
func Bounds(values []float64) OutlierBound {
	present := make([]float64, 0, len(values))
	for _, v := range values {
		if !math.IsNaN(v) {
			present = append(present, v)
		}
	}
	if len(present) == 0 {
		nan := math.NaN()
		return OutlierBound{Q1: nan, Q3: nan, IQR: nan, Lower: nan, Upper: nan}
	}
	sort.Float64s(present)
	q1 := quantile(present, 0.25)
	q3 := quantile(present, 0.75)
	iqr := q3 - q1
	return OutlierBound{
		Q1:    q1,
		Q3:    q3,
		IQR:   iqr,
		Lower: q1 - iqrFactor*iqr,
		Upper: q3 + iqrFactor*iqr,
	}
}

// DetectAnomalies flags rows whose value in column falls outside the IQR fence.
// Rows missing a value in column are neither used for the quartiles nor flagged.
func DetectAnomalies(ds *dataset.Dataset, column string) (*AnomalySet, error) {
	col, ok := ds.Column(column)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownColumn, column)
	}
	if col.Kind != dataset.KindNumeric {
		return nil, fmt.Errorf("%w: %q", ErrNotNumeric, column)
	}
	set := &AnomalySet{
		Column: column,
		Bound:  Bounds(col.Values),
		Header: ds.Header(),
	}
	for i, v := range col.Values {
		if math.IsNaN(v) {
			continue
		}
		if v < set.Bound.Lower || v > set.Bound.Upper {
			set.Rows = append(set.Rows, AnomalyRow{Index: i, Value: v, Cells: ds.Row(i)})
		}
	}
	return set, nil
}
