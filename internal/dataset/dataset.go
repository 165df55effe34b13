package dataset

import (
	"fmt"
	"math"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Kind is the inferred semantic type of a column.
type Kind string

const (
	KindNumeric Kind = "numeric"
	KindText    Kind = "text"
)

// Column holds one named column of a loaded table.
type Column struct {
	Name string
	Kind Kind
	// Raw is the trimmed cell text per row; missing cells are "".
	Raw []string
	// Values is populated for numeric columns only; missing cells are NaN.
	Values []float64
}

// Missing reports whether row i has no value in this column.
func (c *Column) Missing(i int) bool {
	if c.Kind == KindNumeric {
		return math.IsNaN(c.Values[i])
	}
	return c.Raw[i] == ""
}

// Dataset is an ordered, read-only collection of columns of equal length.
type Dataset struct {
	Name    string
	Columns []Column
	Rows    int
}

// Header returns column names in document order.
func (d *Dataset) Header() []string {
	out := make([]string, len(d.Columns))
	for i := range d.Columns {
		out[i] = d.Columns[i].Name
	}
	return out
}

// Column looks up a column by exact name.
func (d *Dataset) Column(name string) (*Column, bool) {
	for i := range d.Columns {
		if d.Columns[i].Name == name {
			return &d.Columns[i], true
		}
	}
	return nil, false
}

// Row returns the raw cells of row i across all columns.
func (d *Dataset) Row(i int) []string {
	out := make([]string, len(d.Columns))
	for j := range d.Columns {
		out[j] = d.Columns[j].Raw[i]
	}
	return out
}

// NumericColumns returns the names of numeric columns in document order.
func (d *Dataset) NumericColumns() []string {
	var out []string
	for i := range d.Columns {
		if d.Columns[i].Kind == KindNumeric {
			out = append(out, d.Columns[i].Name)
		}
	}
	return out
}

// New builds a Dataset from a header and string records using default parsing options.
func New(name string, header []string, records [][]string) *Dataset {
	return Build(name, header, records, DefaultOptions())
}

// Build normalizes the header, pads or truncates records to the header width,
// and infers a Kind per column. A column is numeric when it has at least one
// non-missing cell and every non-missing cell parses as a number.
func Build(name string, header []string, records [][]string, opt Options) *Dataset {
	names := normalizeHeader(header)
	ncol := len(names)
	nrow := len(records)
	if opt.MaxRows > 0 && nrow > opt.MaxRows {
		nrow = opt.MaxRows
	}
	ds := &Dataset{Name: name, Rows: nrow, Columns: make([]Column, ncol)}
	for j := 0; j < ncol; j++ {
		col := Column{Name: names[j], Raw: make([]string, nrow)}
		var present []string
		for i := 0; i < nrow; i++ {
			v := ""
			if j < len(records[i]) {
				v = strings.TrimSpace(records[i][j])
			}
			if isMissing(v) {
				continue
			}
			col.Raw[i] = v
			present = append(present, v)
		}
		format := columnFormat(present, opt)
		vals := make([]float64, nrow)
		numeric := len(present) > 0
		for i := 0; i < nrow && numeric; i++ {
			if col.Raw[i] == "" {
				vals[i] = math.NaN()
				continue
			}
			x, ok := format.parse(col.Raw[i])
			if !ok {
				numeric = false
				break
			}
			vals[i] = x
		}
		if numeric {
			col.Kind = KindNumeric
			col.Values = vals
		} else {
			col.Kind = KindText
		}
		ds.Columns[j] = col
	}
	return ds
}

func normalizeHeader(header []string) []string {
	out := make([]string, len(header))
	used := make(map[string]bool, len(header))
	next := make(map[string]int)
	for i, h := range header {
		if i == 0 {
			h = strings.TrimPrefix(h, "\ufeff")
		}
		h = norm.NFC.String(strings.TrimSpace(h))
		if h == "" {
			h = fmt.Sprintf("Unnamed: %d", i)
		}
		name := h
		for used[name] {
			next[h]++
			name = fmt.Sprintf("%s.%d", h, next[h])
		}
		used[name] = true
		out[i] = name
	}
	return out
}
