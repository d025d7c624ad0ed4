package source_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/paveg/tamarin/internal/source"
)

func TestRecordString(t *testing.T) {
	r := source.Record{
		"s":    "text",
		"num":  json.Number("340"),
		"i":    int64(-7),
		"f":    2.5,
		"b":    true,
		"null": nil,
	}
	tests := map[string]string{
		"s":       "text",
		"num":     "340",
		"i":       "-7",
		"f":       "2.5",
		"b":       "true",
		"null":    "",
		"missing": "",
	}
	for field, want := range tests {
		assert.Equal(t, want, source.String(r, field), field)
	}
}

func TestRecordInt64(t *testing.T) {
	r := source.Record{
		"num":   json.Number("42"),
		"i32":   int32(7),
		"whole": 3.0,
		"frac":  3.5,
		"str":   "12",
		"bad":   "x",
		"bool":  true,
	}

	for field, want := range map[string]int64{"num": 42, "i32": 7, "whole": 3, "str": 12} {
		got, err := source.Int64(r, field)
		require.NoError(t, err, field)
		assert.Equal(t, want, got, field)
	}
	for _, field := range []string{"frac", "bad", "bool", "missing"} {
		_, err := source.Int64(r, field)
		assert.Error(t, err, field)
	}
}
