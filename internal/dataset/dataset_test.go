package dataset

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return p
}

func TestLoadCSV_InfersKinds(t *testing.T) {
	p := writeFile(t, "harvest.csv", strings.Join([]string{
		"date,plot,alpha_acids,moisture,notes",
		"2024-08-10,A1,12.5%,74,",
		"2024-08-12,A1,11.8%,NA,late",
		"2024-08-15,B3,10.2%,68,",
	}, "\n"))

	ds, err := Load(p, DefaultOptions())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if ds.Name != "harvest.csv" || ds.Rows != 3 {
		t.Fatalf("unexpected dataset: name=%q rows=%d", ds.Name, ds.Rows)
	}
	got := strings.Join(ds.NumericColumns(), ",")
	if got != "alpha_acids,moisture" {
		t.Fatalf("numeric columns = %q", got)
	}
	moisture, _ := ds.Column("moisture")
	if !math.IsNaN(moisture.Values[1]) || !moisture.Missing(1) {
		t.Fatalf("NA should be missing, got %v", moisture.Values[1])
	}
	alpha, _ := ds.Column("alpha_acids")
	if alpha.Values[0] != 12.5 {
		t.Fatalf("percent parse: got %v", alpha.Values[0])
	}
	if alpha.Raw[0] != "12.5%" {
		t.Fatalf("raw cell should be preserved, got %q", alpha.Raw[0])
	}
	notes, _ := ds.Column("notes")
	if notes.Kind != KindText {
		t.Fatalf("notes kind = %s", notes.Kind)
	}
	if row := ds.Row(1); strings.Join(row, "|") != "2024-08-12|A1|11.8%||late" {
		t.Fatalf("row 1 = %v", row)
	}
}

func TestLoadCSV_FullyMissingColumnIsNotNumeric(t *testing.T) {
	p := writeFile(t, "m.csv", "a,b\n1,\n2,NaN\n3,null\n")
	ds, err := Load(p, DefaultOptions())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got := ds.NumericColumns(); len(got) != 1 || got[0] != "a" {
		t.Fatalf("numeric columns = %v", got)
	}
}

func TestLoadCSV_LocaleAndDelimiter(t *testing.T) {
	p := writeFile(t, "eu.csv", "Group;Score;Amount\nA;10,5;1.000,0\nB;9,25;2.500,5\n")
	opt := DefaultOptions()
	opt.Delimiter = ';'
	opt.DecimalSeparator = ','
	opt.ThousandsSeparator = '.'
	ds, err := Load(p, opt)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	score, _ := ds.Column("Score")
	amount, _ := ds.Column("Amount")
	if score.Kind != KindNumeric || score.Values[1] != 9.25 {
		t.Fatalf("score = %+v", score)
	}
	if amount.Values[0] != 1000 || amount.Values[1] != 2500.5 {
		t.Fatalf("amount = %v", amount.Values)
	}
}

func TestLoadTSV_SniffsDelimiter(t *testing.T) {
	p := writeFile(t, "t.tsv", "x\ty\n1\t2\n3\t4\n")
	ds, err := Load(p, DefaultOptions())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(ds.Columns) != 2 || len(ds.NumericColumns()) != 2 {
		t.Fatalf("expected two numeric columns, got %v", ds.Header())
	}
}

func TestLoadCSV_HeaderNormalization(t *testing.T) {
	p := writeFile(t, "h.csv", "\ufeffa, a ,,Cafe\u0301\n1,2,3,4\n")
	ds, err := Load(p, DefaultOptions())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	want := []string{"a", "a.1", "Unnamed: 2", "Caf\u00e9"}
	got := ds.Header()
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("header[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestLoadCSV_MaxRowsAndRaggedRows(t *testing.T) {
	p := writeFile(t, "r.csv", "a,b,c\n1,2\n3,4,5,6\n7,8,9\n")
	opt := DefaultOptions()
	opt.MaxRows = 2
	ds, err := Load(p, opt)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if ds.Rows != 2 {
		t.Fatalf("rows = %d, want 2", ds.Rows)
	}
	c, _ := ds.Column("c")
	if !c.Missing(0) || c.Values[1] != 5 {
		t.Fatalf("column c = %+v", c)
	}
}

func TestLoadCSV_EmptyFile(t *testing.T) {
	p := writeFile(t, "empty.csv", "")
	ds, err := Load(p, DefaultOptions())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(ds.Columns) != 0 || len(ds.NumericColumns()) != 0 {
		t.Fatalf("expected no columns, got %v", ds.Header())
	}
}

func TestLoad_Errors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.csv"), DefaultOptions())
	if !errors.Is(err, ErrMissingInput) {
		t.Fatalf("expected ErrMissingInput, got %v", err)
	}
	_, err = Load(t.TempDir(), DefaultOptions())
	if !errors.Is(err, ErrMissingInput) {
		t.Fatalf("directory: expected ErrMissingInput, got %v", err)
	}
	p := writeFile(t, "data.parquet", "PAR1")
	_, err = Load(p, DefaultOptions())
	if !errors.Is(err, ErrUnsupportedFormat) {
		t.Fatalf("expected ErrUnsupportedFormat, got %v", err)
	}
}

func TestReadCSV_USThousandsColumn(t *testing.T) {
	in := "amount,qty\n\"1,000\",1\n\"2,500\",2\n\"12,345.50\",3\n"
	ds, err := ReadCSV(strings.NewReader(in), "us.csv", ',', DefaultOptions())
	if err != nil {
		t.Fatalf("ReadCSV: %v", err)
	}
	amount, _ := ds.Column("amount")
	if amount.Kind != KindNumeric {
		t.Fatalf("amount kind = %s", amount.Kind)
	}
	want := []float64{1000, 2500, 12345.5}
	for i, w := range want {
		if amount.Values[i] != w {
			t.Fatalf("amount = %v, want %v", amount.Values, want)
		}
	}
}

func TestReadCSV_SeparatorsDecidedPerColumn(t *testing.T) {
	in := "eu,mixed,frac\n\"1,5\",\"1,5\",\"1,0000\"\n\"1.234,75\",\"2.5\",\"2\"\n"
	ds, err := ReadCSV(strings.NewReader(in), "mix.csv", ',', DefaultOptions())
	if err != nil {
		t.Fatalf("ReadCSV: %v", err)
	}
	eu, _ := ds.Column("eu")
	if eu.Kind != KindNumeric || eu.Values[0] != 1.5 || eu.Values[1] != 1234.75 {
		t.Fatalf("eu = %+v", eu)
	}
	// ',' is a decimal mark in one cell and '.' in the other
	if mixed, _ := ds.Column("mixed"); mixed.Kind != KindText {
		t.Fatalf("mixed kind = %s, want text", mixed.Kind)
	}
	// "1,0000" cannot be a thousands group
	frac, _ := ds.Column("frac")
	if frac.Kind != KindNumeric || frac.Values[0] != 1 || frac.Values[1] != 2 {
		t.Fatalf("frac = %+v", frac)
	}
}

func TestNumberFormatParse(t *testing.T) {
	cases := []struct {
		in   string
		opt  Options
		want float64
		ok   bool
	}{
		{"42", Options{}, 42, true},
		{"-1.5e3", Options{}, -1500, true},
		{"3,14", Options{}, 3.14, true},
		{"1.234,5", Options{}, 1234.5, true},
		{"1,234.5", Options{}, 1234.5, true},
		{"55%", Options{}, 55, true},
		{"1 000", Options{DecimalSeparator: '.'}, 1000, true},
		{"12,345,678", Options{}, 12345678, true},
		{"1.234.567", Options{}, 1234567, true},
		{"1,00,000", Options{}, 0, false},
		{"1'234.5", Options{ThousandsSeparator: '\''}, 1234.5, true},
		{"Inf", Options{}, 0, false},
		{"abc", Options{}, 0, false},
		{"2024-01-02", Options{}, 0, false},
		{"", Options{}, 0, false},
	}
	for _, c := range cases {
		got, ok := columnFormat([]string{c.in}, c.opt).parse(c.in)
		if ok != c.ok || (ok && got != c.want) {
			t.Errorf("parse(%q) = %v,%v want %v,%v", c.in, got, ok, c.want, c.ok)
		}
	}
}
