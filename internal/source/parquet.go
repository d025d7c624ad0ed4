package source

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/apache/arrow-go/v18/parquet/file"
	"github.com/apache/arrow-go/v18/parquet/pqarrow"

	"github.com/paveg/tamarin/internal/dataset"
)

// parquetBatchSize is the number of rows converted per arrow record batch.
const parquetBatchSize = 4096

// ParquetFile creates a dataset with one record per row of the parquet file
// at path. Column values are converted with their arrow marshal form:
// integers, floats, strings and booleans keep their Go types and nulls
// become nil.
func ParquetFile(e *dataset.Engine, store Store, path string, minPartitions int) *dataset.Dataset[Record] {
	openFn := func(ctx context.Context) (io.ReadCloser, error) {
		return store.Open(ctx, path)
	}
	return load(e, "ParquetFile", path, minPartitions, openFn, readParquet)
}

func readParquet(ctx context.Context, r io.Reader) ([]Record, error) {
	// Parquet needs random access to the footer
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading data: %w", err)
	}

	pqReader, err := file.NewParquetReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("creating parquet file reader: %w", err)
	}
	defer pqReader.Close()

	arrowReader, err := pqarrow.NewFileReader(pqReader, pqarrow.ArrowReadProperties{}, memory.NewGoAllocator())
	if err != nil {
		return nil, fmt.Errorf("creating arrow file reader: %w", err)
	}

	table, err := arrowReader.ReadTable(ctx)
	if err != nil {
		return nil, fmt.Errorf("reading table: %w", err)
	}
	defer table.Release()

	return tableRecords(table), nil
}

func tableRecords(table arrow.Table) []Record {
	fields := table.Schema().Fields()
	records := make([]Record, 0, table.NumRows())

	tr := array.NewTableReader(table, parquetBatchSize)
	defer tr.Release()
	for tr.Next() {
		batch := tr.Record()
		for row := 0; row < int(batch.NumRows()); row++ {
			record := make(Record, len(fields))
			for c, field := range fields {
				record[field.Name] = batch.Column(c).GetOneForMarshal(row)
			}
			records = append(records, record)
		}
	}
	return records
}
