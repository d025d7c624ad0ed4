package source_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	tamerrors "github.com/paveg/tamarin/internal/errors"
	"github.com/paveg/tamarin/internal/source"
)

func TestCSVFile(t *testing.T) {
	store := memStore(t, map[string][]byte{
		"/comma.csv": []byte("name,age\nAlice,25\nBob,30\n"),
		"/semi.csv":  []byte("# comment\nCOD;NOME\n1; Centro\n2;\n"),
		"/bad.csv":   []byte("a,\"b\nc,d\n"),
	})

	t.Run("header", func(t *testing.T) {
		e := newTestEngine(t)
		rows, err := source.CSVFile(e, store, "/comma.csv", source.DefaultCSVOptions()).Collect(context.Background())
		require.NoError(t, err)
		assert.Equal(t, [][]string{{"Alice", "25"}, {"Bob", "30"}}, rows)
	})

	t.Run("options", func(t *testing.T) {
		e := newTestEngine(t)
		opts := source.CSVOptions{
			Delimiter:        ';',
			Comment:          '#',
			SkipInitialSpace: true,
			MinPartitions:    3,
		}
		ds := source.CSVFile(e, store, "/semi.csv", opts)
		rows, err := ds.Collect(context.Background())
		require.NoError(t, err)
		assert.Equal(t, [][]string{{"COD", "NOME"}, {"1", "Centro"}, {"2", ""}}, rows)

		parts, err := ds.Partitions(context.Background())
		require.NoError(t, err)
		assert.Len(t, parts, 3)
	})

	t.Run("malformed", func(t *testing.T) {
		e := newTestEngine(t)
		_, err := source.CSVFile(e, store, "/bad.csv", source.DefaultCSVOptions()).Count(context.Background())
		assert.ErrorIs(t, err, tamerrors.ErrSourceUnavailable)
	})
}
