package analysis

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetectAnomalies_UpperOutlier(t *testing.T) {
	ds := newDataset([]string{"id", "v"},
		[]string{"r1", "1"},
		[]string{"r2", "2"},
		[]string{"r3", "3"},
		[]string{"r4", "4"},
		[]string{"r5", "5"},
		[]string{"r6", "100"},
	)
	set, err := DetectAnomalies(ds, "v")
	require.NoError(t, err)

	assert.InDelta(t, 2.25, set.Bound.Q1, 1e-12)
	assert.InDelta(t, 4.75, set.Bound.Q3, 1e-12)
	assert.InDelta(t, 2.5, set.Bound.IQR, 1e-12)
	assert.InDelta(t, 8.5, set.Bound.Upper, 1e-12)
	assert.InDelta(t, -1.5, set.Bound.Lower, 1e-12)

	require.Equal(t, 1, set.Len())
	row := set.Rows[0]
	assert.Equal(t, 5, row.Index)
	assert.Equal(t, 100.0, row.Value)
	assert.Equal(t, []string{"r6", "100"}, row.Cells)
	assert.Equal(t, []string{"id", "v"}, set.Header)
	assert.Equal(t, "v", set.Column)
}

func TestDetectAnomalies_ConstantColumnFlagsEveryDifferingValue(t *testing.T) {
	ds := newDataset([]string{"v"},
		[]string{"7"}, []string{"7"}, []string{"7"}, []string{"7"},
		[]string{"7"}, []string{"7"}, []string{"7"}, []string{"8"},
	)
	set, err := DetectAnomalies(ds, "v")
	require.NoError(t, err)
	assert.Equal(t, 7.0, set.Bound.Lower)
	assert.Equal(t, 7.0, set.Bound.Upper)
	require.Equal(t, 1, set.Len())
	assert.Equal(t, 7, set.Rows[0].Index)

	all7 := newDataset([]string{"v"}, []string{"7"}, []string{"7"}, []string{"7"})
	set, err = DetectAnomalies(all7, "v")
	require.NoError(t, err)
	assert.True(t, set.Empty())
}

func TestDetectAnomalies_PreservesOrderAndSkipsMissing(t *testing.T) {
	ds := newDataset([]string{"v", "tag"},
		[]string{"-50", "low"},
		[]string{"10", "a"},
		[]string{"", "gap"},
		[]string{"11", "b"},
		[]string{"12", "c"},
		[]string{"13", "d"},
		[]string{"90", "high"},
	)
	set, err := DetectAnomalies(ds, "v")
	require.NoError(t, err)
	require.Equal(t, 2, set.Len())
	assert.Equal(t, []string{"-50", "low"}, set.Rows[0].Cells)
	assert.Equal(t, []string{"90", "high"}, set.Rows[1].Cells)
}

func TestDetectAnomalies_SmallInputs(t *testing.T) {
	ds := newDataset([]string{"v"}, []string{"1"}, []string{"2"})
	set, err := DetectAnomalies(ds, "v")
	require.NoError(t, err)
	assert.InDelta(t, 1.25, set.Bound.Q1, 1e-12)
	assert.InDelta(t, 1.75, set.Bound.Q3, 1e-12)
	assert.True(t, set.Empty())

	one := newDataset([]string{"v"}, []string{"3"})
	set, err = DetectAnomalies(one, "v")
	require.NoError(t, err)
	assert.Equal(t, 0.0, set.Bound.IQR)
	assert.True(t, set.Empty())
}

func TestDetectAnomalies_Preconditions(t *testing.T) {
	ds := newDataset([]string{"v", "label"}, []string{"1", "a"})

	_, err := DetectAnomalies(ds, "missing")
	assert.True(t, errors.Is(err, ErrUnknownColumn))

	_, err = DetectAnomalies(ds, "label")
	assert.True(t, errors.Is(err, ErrNotNumeric))
}

func TestDetectAnomalies_Idempotent(t *testing.T) {
	ds := newDataset([]string{"v"},
		[]string{"0.3"}, []string{"12.9"}, []string{"0.4"}, []string{"0.35"}, []string{"-8"},
	)
	a, err := DetectAnomalies(ds, "v")
	require.NoError(t, err)
	b, err := DetectAnomalies(ds, "v")
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestBounds_Empty(t *testing.T) {
	b := Bounds([]float64{math.NaN(), math.NaN()})
	assert.True(t, math.IsNaN(b.Lower))
	assert.True(t, math.IsNaN(b.Upper))
}

func TestQuantile(t *testing.T) {
	sorted := []float64{1, 2, 3, 4}
	assert.Equal(t, 1.0, quantile(sorted, 0))
	assert.Equal(t, 4.0, quantile(sorted, 1))
	assert.InDelta(t, 2.5, Median(sorted), 1e-12)
	assert.InDelta(t, 1.75, quantile(sorted, 0.25), 1e-12)
	assert.True(t, math.IsNaN(quantile(nil, 0.5)))
}
