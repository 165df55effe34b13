package dataset

import (
	"archive/zip"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"path"
	"path/filepath"
	"strconv"
	"strings"
)

type xlsxLoader struct{}

func (xlsxLoader) CanLoad(filename string) bool {
	return strings.HasSuffix(strings.ToLower(filename), ".xlsx")
}

// Load reads the selected worksheet. The first row is the header.
func (xlsxLoader) Load(p string, opt Options) (*Dataset, error) {
	zr, err := zip.OpenReader(p)
	if err != nil {
		var pe *fs.PathError
		if errors.As(err, &pe) {
			return nil, fmt.Errorf("%w: %v", ErrMissingInput, err)
		}
		return nil, fmt.Errorf("open xlsx: %w", err)
	}
	defer zr.Close()

	name := filepath.Base(p)
	book := workbook{files: map[string]*zip.File{}}
	for _, f := range zr.File {
		book.files[f.Name] = f
	}
	part, err := book.sheetPart(opt.SheetName, opt.SheetIndex, name)
	if err != nil {
		return nil, err
	}
	var ws xlsxWorksheet
	found, err := book.decode(part, &ws)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", part, err)
	}
	if !found {
		return nil, fmt.Errorf("worksheet %s missing from %s", part, name)
	}
	var sst xlsxSST
	if _, err := book.decode("xl/sharedStrings.xml", &sst); err != nil {
		return nil, fmt.Errorf("read shared strings: %w", err)
	}
	shared := make([]string, len(sst.Items))
	for i, si := range sst.Items {
		shared[i] = si.text()
	}

	if len(ws.Rows) == 0 {
		return &Dataset{Name: name}, nil
	}
	header := ws.Rows[0].values(shared)
	body := ws.Rows[1:]
	if opt.MaxRows > 0 && len(body) > opt.MaxRows {
		body = body[:opt.MaxRows]
	}
	records := make([][]string, len(body))
	for i, row := range body {
		records[i] = row.values(shared)
	}
	return Build(name, header, records, opt), nil
}

type xlsxWorkbook struct {
	Sheets []struct {
		Name string `xml:"name,attr"`
		RID  string `xml:"id,attr"`
	} `xml:"sheets>sheet"`
}

type xlsxRels struct {
	Items []struct {
		ID     string `xml:"Id,attr"`
		Target string `xml:"Target,attr"`
	} `xml:"Relationship"`
}

type xlsxSST struct {
	Items []xlsxText `xml:"si"`
}

// xlsxText is a plain or rich-text run list. Phonetic runs are not mapped.
type xlsxText struct {
	T    string `xml:"t"`
	Runs []struct {
		T string `xml:"t"`
	} `xml:"r"`
}

func (x xlsxText) text() string {
	if len(x.Runs) == 0 {
		return x.T
	}
	var b strings.Builder
	b.WriteString(x.T)
	for _, r := range x.Runs {
		b.WriteString(r.T)
	}
	return b.String()
}

type xlsxWorksheet struct {
	Rows []xlsxRow `xml:"sheetData>row"`
}

type xlsxRow struct {
	Cells []xlsxCell `xml:"c"`
}

type xlsxCell struct {
	Ref    string   `xml:"r,attr"`
	Type   string   `xml:"t,attr"`
	Value  string   `xml:"v"`
	Inline xlsxText `xml:"is"`
}

// values lays the row's cells out by column reference, leaving gaps empty.
func (r xlsxRow) values(shared []string) []string {
	var out []string
	for _, c := range r.Cells {
		idx := len(out)
		if c.Ref != "" {
			idx = colIndexFromRef(c.Ref)
		}
		if idx < 0 {
			continue
		}
		for len(out) <= idx {
			out = append(out, "")
		}
		out[idx] = c.text(shared)
	}
	return out
}

func (c xlsxCell) text(shared []string) string {
	switch c.Type {
	case "s":
		i, err := strconv.Atoi(strings.TrimSpace(c.Value))
		if err != nil || i < 0 || i >= len(shared) {
			return ""
		}
		return shared[i]
	case "inlineStr":
		return c.Inline.text()
	case "b":
		switch c.Value {
		case "1":
			return "TRUE"
		case "0":
			return "FALSE"
		}
	}
	return c.Value
}

// workbook indexes the parts of an opened package by entry name.
type workbook struct {
	files map[string]*zip.File
}

// decode unmarshals a part into v and reports whether the part exists.
func (w workbook) decode(name string, v any) (bool, error) {
	f, ok := w.files[name]
	if !ok {
		return false, nil
	}
	rc, err := f.Open()
	if err != nil {
		return true, err
	}
	defer rc.Close()
	if err := xml.NewDecoder(rc).Decode(v); err != nil && err != io.EOF {
		return true, err
	}
	return true, nil
}

// sheetPart maps a sheet name or 1-based position to its worksheet entry.
func (w workbook) sheetPart(name string, index int, file string) (string, error) {
	var wb xlsxWorkbook
	if _, err := w.decode("xl/workbook.xml", &wb); err != nil {
		return "", fmt.Errorf("read workbook: %w", err)
	}
	var rels xlsxRels
	if _, err := w.decode("xl/_rels/workbook.xml.rels", &rels); err != nil {
		return "", fmt.Errorf("read workbook relationships: %w", err)
	}
	targets := make(map[string]string, len(rels.Items))
	for _, r := range rels.Items {
		targets[r.ID] = r.Target
	}

	if name != "" {
		names := make([]string, len(wb.Sheets))
		for i, s := range wb.Sheets {
			if strings.EqualFold(s.Name, name) {
				if t, ok := targets[s.RID]; ok {
					return partName(t), nil
				}
			}
			names[i] = s.Name
		}
		return "", fmt.Errorf("sheet %q not found in workbook %s (available: %s)", name, file, strings.Join(names, ", "))
	}
	if index < 1 {
		index = 1
	}
	if index <= len(wb.Sheets) {
		if t, ok := targets[wb.Sheets[index-1].RID]; ok {
			return partName(t), nil
		}
	}
	return path.Join("xl", "worksheets", fmt.Sprintf("sheet%d.xml", index)), nil
}

// partName turns a relationship target into a package entry name.
func partName(target string) string {
	if strings.HasPrefix(target, "/") {
		return strings.TrimPrefix(target, "/")
	}
	return path.Join("xl", target)
}

// colIndexFromRef maps refs like "C12" to a 0-based column index.
func colIndexFromRef(ref string) int {
	idx := 0
	for _, c := range strings.ToUpper(ref) {
		if c < 'A' || c > 'Z' {
			break
		}
		idx = idx*26 + int(c-'A'+1)
	}
	return idx - 1
}
