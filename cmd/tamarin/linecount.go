package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/alecthomas/kingpin/v2"
	"github.com/dustin/go-humanize"

	"github.com/paveg/tamarin"
)

func addLineCountCommand(app *kingpin.Application, flags *globalFlags) {
	cmd := app.Command("linecount", "Count the lines containing 'c' and the lines containing 'd'.")
	input := cmd.Arg("file", "Text file to read (local path or s3://bucket/key).").Required().String()

	cmd.Action(func(_ *kingpin.ParseContext) error {
		return run(flags, func(ctx context.Context, rt env) error {
			return lineCount(ctx, rt, *input, flags.partitions, os.Stdout)
		})
	})
}

func containing(sub string) func(string) (bool, error) {
	return tamarin.Predicate(func(line string) bool {
		return strings.Contains(line, sub)
	})
}

// lineCount reads the file once into the cache and runs both counts
// against the cached lines.
func lineCount(ctx context.Context, rt env, path string, partitions int, w io.Writer) error {
	lines := tamarin.TextFile(rt.engine, rt.store, path, partitions).Persist()
	defer lines.Unpersist()

	withC, err := lines.Filter(containing("c")).Count(ctx)
	if err != nil {
		return err
	}
	withD, err := lines.Filter(containing("d")).Count(ctx)
	if err != nil {
		return err
	}

	_, err = fmt.Fprintf(w, "Lines with c: %s, lines with d: %s\n", humanize.Comma(withC), humanize.Comma(withD))
	return err
}
