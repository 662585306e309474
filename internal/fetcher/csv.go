package fetcher

import (
	"encoding/csv"
	"io"
	"os"
	"strings"

	"github.com/rotisserie/eris"
)

// ReadCSV parses a CSV file into a Table. Fields are whitespace-trimmed and
// ragged rows are allowed; fully blank rows are dropped.
func ReadCSV(path string, opts Options) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrap(err, "fetcher: open csv")
	}
	defer f.Close()

	return parseCSV(f, opts)
}

func parseCSV(r io.Reader, opts Options) (*Table, error) {
	reader := csv.NewReader(r)
	if opts.Delimiter != 0 {
		reader.Comma = opts.Delimiter
	}
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	var table Table
	skipped := 0
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, eris.Wrap(err, "fetcher: read csv row")
		}

		for i, field := range record {
			record[i] = strings.TrimSpace(field)
		}

		if table.Header == nil {
			table.Header = record
			continue
		}
		if skipped < opts.SkipRows {
			skipped++
			continue
		}
		if isBlankRow(record) {
			continue
		}
		table.Rows = append(table.Rows, record)
	}

	if table.Header == nil {
		return nil, eris.New("fetcher: csv file is empty")
	}

	return &table, nil
}
