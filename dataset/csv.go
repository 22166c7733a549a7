package dataset

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"

	"github.com/uttam-in/gridstats/stats"
)

// CSVLoader reads the bulk dataset from a local CSV file with a header
// row. Column names pass through stats.NormalizeRows afterwards, so the
// file may use either source or canonical column names.
type CSVLoader struct {
	Path string
}

// NewCSVLoader creates a loader for the given file path.
func NewCSVLoader(path string) *CSVLoader {
	return &CSVLoader{Path: path}
}

// Load reads the whole file into rows. The context is checked between
// records so a cancelled warm does not scan a large file to the end.
func (l *CSVLoader) Load(ctx context.Context) ([]stats.Row, error) {
	f, err := os.Open(l.Path)
	if err != nil {
		return nil, fmt.Errorf("dataset: open %s: %w", l.Path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.ReuseRecord = true

	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("dataset: read header of %s: %w", l.Path, err)
	}
	cols := make([]string, len(header))
	copy(cols, header)

	var rows []stats.Row
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("dataset: read %s: %w", l.Path, err)
		}
		row := make(stats.Row, len(cols))
		for i, col := range cols {
			if i < len(record) {
				row[col] = record[i]
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}

var _ Loader = (*CSVLoader)(nil)
