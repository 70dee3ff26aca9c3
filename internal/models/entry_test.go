package models

import (
	"errors"
	"testing"

	"github.com/dmitrijs2005/medialog/internal/common"
	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validEntry() Entry {
	return Entry{Title: "Dune", MediaType: "book", Date: "2024-03-01"}
}

func TestEntry_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(e *Entry)
		fields []string
	}{
		{name: "ok", mutate: func(e *Entry) {}},
		{name: "missing title", mutate: func(e *Entry) { e.Title = "" }, fields: []string{"title"}},
		{name: "missing media type", mutate: func(e *Entry) { e.MediaType = "" }, fields: []string{"mediaType"}},
		{name: "missing date", mutate: func(e *Entry) { e.Date = "" }, fields: []string{"date"}},
		{name: "bad date", mutate: func(e *Entry) { e.Date = "01/03/2024" }, fields: []string{"date"}},
		{name: "everything missing", mutate: func(e *Entry) { *e = Entry{} }, fields: []string{"title", "mediaType", "date"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := validEntry()
			tt.mutate(&e)

			err := e.Validate()
			if len(tt.fields) == 0 {
				require.NoError(t, err)
				return
			}

			require.Error(t, err)
			assert.True(t, errors.Is(err, common.ErrorValidation))

			var ve *ValidationError
			require.True(t, errors.As(err, &ve))
			got := make([]string, 0, len(ve.Fields))
			for _, f := range ve.Fields {
				got = append(got, f.Field)
			}
			assert.ElementsMatch(t, tt.fields, got)
		})
	}
}

func TestValidationError_Message(t *testing.T) {
	e := Entry{MediaType: "film", Date: "2024-13-45"}
	err := e.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "title is required")
	assert.Contains(t, err.Error(), "date must be a date in YYYY-MM-DD format")
}

func TestID_UnmarshalAcceptsNumbersAndStrings(t *testing.T) {
	var a, b struct {
		ID ID `json:"id"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"id":42}`), &a))
	require.NoError(t, json.Unmarshal([]byte(`{"id":"42"}`), &b))
	assert.Equal(t, ID(42), a.ID)
	assert.Equal(t, a.ID, b.ID)

	var c struct {
		ID ID `json:"id"`
	}
	require.Error(t, json.Unmarshal([]byte(`{"id":"abc"}`), &c))
}

func TestParseID(t *testing.T) {
	id, err := ParseID("17")
	require.NoError(t, err)
	assert.Equal(t, ID(17), id)
	assert.Equal(t, "17", id.String())

	_, err = ParseID("x17")
	require.Error(t, err)
}

func TestID_LocalLabels(t *testing.T) {
	local := LocalID(7)
	assert.True(t, local.Local())
	assert.False(t, ID(7).Local())
	assert.Equal(t, "L7", local.Label())
	assert.Equal(t, "7", ID(7).Label())

	for in, want := range map[string]ID{"L7": local, "l7": local, "7": 7, "-7": local} {
		got, err := ParseLabel(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	for _, bad := range []string{"L", "L0", "L-3", "Lx", "x"} {
		_, err := ParseLabel(bad)
		assert.Error(t, err, bad)
	}
}

func TestEntry_JSONShape(t *testing.T) {
	e := validEntry()
	e.ID = 3
	e.Rating = IntPtr(4)

	b, err := json.Marshal(e)
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":3,"title":"Dune","mediaType":"book","rating":4,"date":"2024-03-01"}`, string(b))
}

func TestEntry_MonthYear(t *testing.T) {
	e := validEntry()
	assert.Equal(t, "2024-03", e.Month())
	assert.Equal(t, "2024", e.Year())

	short := Entry{Date: "24"}
	assert.Equal(t, "24", short.Month())
	assert.Equal(t, "24", short.Year())
}
