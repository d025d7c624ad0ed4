package source

import (
	"bufio"
	"context"
	"io"
	"strings"

	"github.com/paveg/tamarin/internal/dataset"
)

// maxLineBytes bounds a single line of a text file.
const maxLineBytes = 16 << 20

// TextFile creates a dataset with one record per line of the file at path.
// Line terminators (\n or \r\n) are stripped. A non-positive minPartitions
// uses Config.DefaultPartitions. Files ending in .gz or .zst are
// decompressed.
func TextFile(e *dataset.Engine, store Store, path string, minPartitions int) *dataset.Dataset[string] {
	return load(e, "TextFile", path, minPartitions, decompressing(store, path), readLines)
}

func readLines(_ context.Context, r io.Reader) ([]string, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)

	var lines []string
	for scanner.Scan() {
		lines = append(lines, strings.TrimSuffix(scanner.Text(), "\r"))
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return lines, nil
}
