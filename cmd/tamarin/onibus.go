package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/alecthomas/kingpin/v2"
	"github.com/fatih/color"
	"github.com/go-kit/log/level"

	"github.com/paveg/tamarin"
)

// stop is one scheduled passage of a bus line.
type stop struct {
	NumLinha string
	Nome     string
	Hora     string
	Ponto    string
}

// passage is what the lookup prints for each stop.
type passage struct {
	Ponto   string
	Horario string
}

type onibusInputs struct {
	linhas string
	tabela string
	line   string
}

func addOnibusCommand(app *kingpin.Application, flags *globalFlags) {
	var in onibusInputs
	cmd := app.Command("onibus", "Look up the stops and times of a bus line.")
	cmd.Flag("linhas", "JSON file with the bus lines (COD, NOME).").Required().StringVar(&in.linhas)
	cmd.Flag("tabela", "JSON file with the timetable (COD, HORA, PONTO).").Required().StringVar(&in.tabela)
	cmd.Flag("line", "Line number to look up. Prompted for when empty.").StringVar(&in.line)

	cmd.Action(func(_ *kingpin.ParseContext) error {
		if in.line == "" {
			line, err := promptLine(os.Stdin, os.Stdout)
			if err != nil {
				return err
			}
			in.line = line
		}
		return run(flags, func(ctx context.Context, rt env) error {
			return onibus(ctx, rt, in, flags.partitions, os.Stdout)
		})
	})
}

func promptLine(r io.Reader, w io.Writer) (string, error) {
	fmt.Fprint(w, "Insira o numero da linha: ")
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && (!errors.Is(err, io.EOF) || line == "") {
		return "", fmt.Errorf("reading line number: %w", err)
	}
	return strings.TrimSpace(line), nil
}

func codOf(r tamarin.Record) (string, error) {
	return tamarin.Field(r, "COD"), nil
}

func toStop(p tamarin.Pair[tamarin.Record, tamarin.Record]) (stop, error) {
	return stop{
		NumLinha: tamarin.Field(p.First, "COD"),
		Nome:     tamarin.Field(p.First, "NOME"),
		Hora:     tamarin.Field(p.Second, "HORA"),
		Ponto:    tamarin.Field(p.Second, "PONTO"),
	}, nil
}

func onibus(ctx context.Context, rt env, in onibusInputs, partitions int, w io.Writer) error {
	linhas := tamarin.JSONFile(rt.engine, rt.store, in.linhas, partitions).Named("linhas")
	tabela := tamarin.JSONFile(rt.engine, rt.store, in.tabela, partitions).Named("tabelaLinha")

	stops := tamarin.Map(tamarin.Join(linhas, tabela, codOf, codOf), toStop).Persist()
	defer stops.Unpersist()

	fmt.Fprintf(w, "linha escolhida: %s\n", in.line)

	selected := stops.Filter(tamarin.Predicate(func(s stop) bool { return s.NumLinha == in.line }))
	passages, err := tamarin.Map(selected, tamarin.Pure(func(s stop) passage {
		return passage{Ponto: s.Ponto, Horario: s.Hora}
	})).Collect(ctx)
	if err != nil {
		return err
	}
	level.Debug(rt.logger).Log("msg", "line lookup finished", "line", in.line, "passages", len(passages))

	if len(passages) == 0 {
		fmt.Fprintln(w, "linha nao encontrada")
		return nil
	}
	color.New(color.Bold).Fprintf(w, "linha %s:\n", in.line)
	for _, p := range passages {
		fmt.Fprintf(w, "  ponto=%s horario=%s\n", p.Ponto, p.Horario)
	}
	return nil
}
