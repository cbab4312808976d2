package passenger

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCSV(t *testing.T) {
	input := "PassengerId,Pclass,Sex\n1,3,male\n2,1,female\n"

	table, err := ParseCSV(strings.NewReader(input))
	require.NoError(t, err)

	assert.Equal(t, []string{"PassengerId", "Pclass", "Sex"}, table.Header())
	assert.Equal(t, 2, table.Len())
	assert.Equal(t, "female", table.Value(1, "Sex"))
	assert.Equal(t, "", table.Value(0, "Age"))
}

func TestParseCSV_Errors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"empty input", ""},
		{"extra fields", "a,b\n1,2,3\n"},
		{"duplicate column", "a,a\n1,2\n"},
		{"bare quote", "a,b\n1,\"x\"y\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseCSV(strings.NewReader(tt.input))
			require.Error(t, err)

			var parseErr *ParseError
			require.True(t, errors.As(err, &parseErr), "expected *ParseError, got %T", err)
			assert.Contains(t, parseErr.UserMessage(), "Error reading CSV file")
		})
	}
}

func TestParseCSV_ShortRowsArePadded(t *testing.T) {
	table, err := ParseCSV(strings.NewReader("a,b,c\n1\n"))
	require.NoError(t, err)

	assert.Equal(t, "1", table.Value(0, "a"))
	assert.Equal(t, "", table.Value(0, "c"))
}

func TestParseCSV_StripsBOMAndHeaderSpace(t *testing.T) {
	table, err := ParseCSV(strings.NewReader("\ufeffPclass, Sex\n3,male\n"))
	require.NoError(t, err)

	assert.True(t, table.Has("Pclass"))
	assert.True(t, table.Has("Sex"))
}

func TestParseCSV_HeaderOnly(t *testing.T) {
	table, err := ParseCSV(strings.NewReader("Pclass,Sex\n"))
	require.NoError(t, err)
	assert.Equal(t, 0, table.Len())
}

func TestTable_SetColumn(t *testing.T) {
	table, err := NewTable([]string{"a", "b"}, [][]string{{"1", "2"}, {"3", "4"}})
	require.NoError(t, err)

	require.NoError(t, table.SetColumn("c", []string{"x", "y"}))
	assert.Equal(t, []string{"a", "b", "c"}, table.Header())
	assert.Equal(t, "y", table.Value(1, "c"))

	// existing columns are overwritten where they stand
	require.NoError(t, table.SetColumn("a", []string{"9", "8"}))
	assert.Equal(t, []string{"a", "b", "c"}, table.Header())
	assert.Equal(t, "8", table.Value(1, "a"))

	assert.Error(t, table.SetColumn("d", []string{"only one"}))
}

func TestTable_WriteCSVRoundTrip(t *testing.T) {
	input := "Name,Fare\n\"Braund, Mr. Owen\",7.25\nPlain,8\n"

	table, err := ParseCSV(strings.NewReader(input))
	require.NoError(t, err)

	out, err := table.Bytes()
	require.NoError(t, err)
	assert.Equal(t, input, string(out))
}

func TestTable_Column(t *testing.T) {
	table, err := NewTable([]string{"a"}, [][]string{{"1"}, {"2"}})
	require.NoError(t, err)

	values, ok := table.Column("a")
	require.True(t, ok)
	assert.Equal(t, []string{"1", "2"}, values)

	// callers get a copy
	values[0] = "changed"
	assert.Equal(t, "1", table.Value(0, "a"))

	_, ok = table.Column("missing")
	assert.False(t, ok)
}
