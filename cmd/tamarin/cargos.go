package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/alecthomas/kingpin/v2"
	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/go-kit/log/level"

	"github.com/paveg/tamarin"
)

const noCargo = "SEM CARGO"

// cargo is a (job title, employee name) pair.
type cargo = tamarin.Pair[string, string]

// headerCargos are the pairs produced by the header and separator rows.
var headerCargos = []cargo{
	tamarin.NewPair("CARGO", "NOME"),
	tamarin.NewPair("-----", "----"),
}

func addCargosCommand(app *kingpin.Application, flags *globalFlags) {
	cmd := app.Command("cargos", "Count distinct employees per job title in a 'NOME;CARGO' file.")
	input := cmd.Arg("file", "Semicolon separated file (local path or s3://bucket/key).").Required().String()

	cmd.Action(func(_ *kingpin.ParseContext) error {
		return run(flags, func(ctx context.Context, rt env) error {
			return cargos(ctx, rt, *input, flags.partitions, os.Stdout)
		})
	})
}

// parseCargo splits "NOME;CARGO" into (cargo, nome). A line without a job
// title gets noCargo.
func parseCargo(line string) (cargo, error) {
	fields := strings.Split(line, ";")
	if len(fields) < 2 {
		return cargo{}, fmt.Errorf("expected NOME;CARGO, got %q", line)
	}
	if fields[1] == "" {
		return tamarin.NewPair(noCargo, fields[0]), nil
	}
	return tamarin.NewPair(strings.TrimSpace(fields[1]), fields[0]), nil
}

func cargos(ctx context.Context, rt env, path string, partitions int, w io.Writer) error {
	lines := tamarin.TextFile(rt.engine, rt.store, path, partitions).Named("cargos")
	header := tamarin.Parallelize(rt.engine, headerCargos, 1).Named("header")

	pairs := tamarin.Subtract(tamarin.Distinct(tamarin.Map(lines, parseCargo)), header).Persist()
	defer pairs.Unpersist()

	plan := pairs.Explain()
	level.Debug(rt.logger).Log("msg", "cargos plan", "operations", plan.OperationCount(), "shuffles", plan.ShuffleCount())

	counts, err := tamarin.CountByKey(ctx, pairs, tamarin.Pure(func(c cargo) string { return c.First }))
	if err != nil {
		return err
	}

	bold := color.New(color.Bold)
	for _, c := range tamarin.SortedCounts(counts) {
		bold.Fprintf(w, "%s", c.First)
		fmt.Fprintf(w, ": %s\n", humanize.Comma(c.Second))
	}
	return nil
}
