package source

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"unicode"

	jsoniter "github.com/json-iterator/go"

	"github.com/paveg/tamarin/internal/dataset"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// JSONFile creates a dataset of records decoded from the file at path. The
// file holds either a single JSON array of objects or a stream of objects,
// each of which may span several lines (JSON Lines is a special case).
// Numbers are kept as json.Number so that identifiers keep their exact text.
func JSONFile(e *dataset.Engine, store Store, path string, minPartitions int) *dataset.Dataset[Record] {
	return load(e, "JSONFile", path, minPartitions, decompressing(store, path), readJSON)
}

func readJSON(_ context.Context, r io.Reader) ([]Record, error) {
	br := bufio.NewReader(r)
	first, err := peekNonSpace(br)
	if err == io.EOF {
		return []Record{}, nil
	}
	if err != nil {
		return nil, err
	}

	decoder := json.NewDecoder(br)
	decoder.UseNumber()

	if first == '[' {
		var records []Record
		if err := decoder.Decode(&records); err != nil {
			return nil, fmt.Errorf("decoding JSON array: %w", err)
		}
		return records, nil
	}

	var records []Record
	for decoder.More() {
		var record Record
		if err := decoder.Decode(&record); err != nil {
			return nil, fmt.Errorf("decoding JSON object %d: %w", len(records)+1, err)
		}
		records = append(records, record)
	}
	return records, nil
}

// peekNonSpace skips leading whitespace and returns the next byte without
// consuming it.
func peekNonSpace(br *bufio.Reader) (byte, error) {
	for {
		b, err := br.ReadByte()
		if err != nil {
			return 0, err
		}
		if !unicode.IsSpace(rune(b)) && b != 0xEF && b != 0xBB && b != 0xBF {
			return b, br.UnreadByte()
		}
	}
}
