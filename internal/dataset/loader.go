package dataset

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

var (
	// ErrMissingInput indicates the data source cannot be located or read.
	ErrMissingInput = errors.New("input not found")
	// ErrUnsupportedFormat indicates no registered loader accepts the file.
	ErrUnsupportedFormat = errors.New("unsupported table format")
)

// Options controls how a table is read and typed.
type Options struct {
	// Delimiter for CSV. If 0, '\t' for .tsv and ',' otherwise.
	Delimiter rune
	// Numeric parsing locale. If DecimalSeparator is 0, auto-detect per value.
	DecimalSeparator   rune
	ThousandsSeparator rune
	// MaxRows limits rows ingested; 0 means unlimited.
	MaxRows int
	// XLSX sheet selection. SheetName wins over SheetIndex (1-based).
	SheetName  string
	SheetIndex int
}

// DefaultOptions returns auto-detecting options that read every row of the first sheet.
func DefaultOptions() Options {
	return Options{SheetIndex: 1}
}

// Loader reads one table format into a Dataset.
type Loader interface {
	CanLoad(filename string) bool
	Load(path string, opt Options) (*Dataset, error)
}

var registry []Loader

// Register adds a loader implementation to the registry.
func Register(l Loader) {
	registry = append(registry, l)
}

func init() {
	Register(csvLoader{})
	Register(xlsxLoader{})
}

// Load selects a loader by filename and reads the table at path.
func Load(path string, opt Options) (*Dataset, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrMissingInput, path)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%w: %s is a directory", ErrMissingInput, path)
	}
	for _, l := range registry {
		if l.CanLoad(path) {
			return l.Load(path, opt)
		}
	}
	return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, filepath.Ext(path))
}

// Source binds Options to Load so callers can load by path alone.
type Source struct {
	Options Options
}

// Load reads the table at path with the source's options.
func (s Source) Load(path string) (*Dataset, error) {
	return Load(path, s.Options)
}
