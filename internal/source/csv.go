package source

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"

	"github.com/paveg/tamarin/internal/dataset"
)

// CSVOptions contains configuration options for CSV loading
type CSVOptions struct {
	// Delimiter is the field delimiter (default: comma)
	Delimiter rune
	// Comment is the comment character (default: 0 = disabled)
	Comment rune
	// Header drops the first row
	Header bool
	// SkipInitialSpace indicates whether to skip initial whitespace
	SkipInitialSpace bool
	// MinPartitions is the partition count (0 = Config.DefaultPartitions)
	MinPartitions int
}

// DefaultCSVOptions returns default CSV options
func DefaultCSVOptions() CSVOptions {
	return CSVOptions{
		Delimiter: ',',
		Header:    true,
	}
}

// CSVFile creates a dataset with one record per CSV row. Rows may have
// different field counts.
func CSVFile(e *dataset.Engine, store Store, path string, options CSVOptions) *dataset.Dataset[[]string] {
	return load(e, "CSVFile", path, options.MinPartitions, decompressing(store, path), func(_ context.Context, r io.Reader) ([][]string, error) {
		return readCSV(r, options)
	})
}

func readCSV(r io.Reader, options CSVOptions) ([][]string, error) {
	reader := csv.NewReader(r)
	if options.Delimiter != 0 {
		reader.Comma = options.Delimiter
	}
	reader.Comment = options.Comment
	reader.TrimLeadingSpace = options.SkipInitialSpace
	reader.FieldsPerRecord = -1
	reader.ReuseRecord = false

	var rows [][]string
	line := 0
	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading CSV row %d: %w", line+1, err)
		}
		line++
		if options.Header && line == 1 {
			continue
		}
		rows = append(rows, row)
	}
	return rows, nil
}
