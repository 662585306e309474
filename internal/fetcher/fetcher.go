// Package fetcher parses tabular disclosure files (XLSX, CSV) into the
// header-plus-rows shape the attribute resolver consumes.
package fetcher

import (
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
)

// Table is one parsed sheet: the raw header row and the data rows beneath
// it. Rows may be ragged; short rows read as missing trailing cells.
type Table struct {
	Header []string
	Rows   [][]string
}

// ReadTable dispatches on the file extension.
func ReadTable(path string, opts Options) (*Table, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx":
		return ReadXLSX(path, opts)
	case ".csv":
		return ReadCSV(path, opts)
	default:
		return nil, eris.Errorf("fetcher: unsupported file type %q (want .xlsx or .csv)", filepath.Ext(path))
	}
}

// Options configures table parsing.
type Options struct {
	SheetIndex int    // XLSX only; default 0
	SheetName  string // XLSX only; if set, overrides SheetIndex
	Delimiter  rune   // CSV only; default ','
	SkipRows   int    // extra rows to discard between header and data
}
