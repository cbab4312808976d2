// Package passenger holds the uploaded passenger table, the fixed input schema
// and the per-row feature derivation that feeds the survival predictor.
//
// Tables are kept as text: passthrough columns are written back exactly as they
// were uploaded, and numeric coercion happens only for the columns the model needs.
package passenger

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
)

// Table is an ordered CSV table with a header row. Row order is upload order.
type Table struct {
	header []string
	index  map[string]int
	rows   [][]string
}

// NewTable builds a table from a header and rows. Short rows are padded with
// empty cells; rows longer than the header are rejected.
func NewTable(header []string, rows [][]string) (*Table, error) {
	t := &Table{
		header: make([]string, len(header)),
		index:  make(map[string]int, len(header)),
		rows:   make([][]string, 0, len(rows)),
	}
	for i, name := range header {
		if _, dup := t.index[name]; dup {
			return nil, fmt.Errorf("duplicate column %q", name)
		}
		t.header[i] = name
		t.index[name] = i
	}
	for i, row := range rows {
		if len(row) > len(header) {
			return nil, fmt.Errorf("expected %d fields in line %d, saw %d", len(header), i+2, len(row))
		}
		cells := make([]string, len(header))
		copy(cells, row)
		t.rows = append(t.rows, cells)
	}
	return t, nil
}

// ParseCSV reads a header-included CSV document. Any reader or shape error is
// returned as a *ParseError carrying the underlying message.
func ParseCSV(r io.Reader) (*Table, error) {
	br := bufio.NewReader(r)
	if lead, _, err := br.ReadRune(); err == nil && lead != '\ufeff' {
		_ = br.UnreadRune()
	}

	reader := csv.NewReader(br)
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, &ParseError{Err: err}
	}
	if len(records) == 0 {
		return nil, &ParseError{Err: errors.New("no columns to parse from file")}
	}

	header := make([]string, len(records[0]))
	for i, name := range records[0] {
		header[i] = strings.TrimSpace(name)
	}

	t, err := NewTable(header, records[1:])
	if err != nil {
		return nil, &ParseError{Err: err}
	}
	return t, nil
}

// Header returns a copy of the column names in table order.
func (t *Table) Header() []string {
	out := make([]string, len(t.header))
	copy(out, t.header)
	return out
}

// Len returns the number of data rows.
func (t *Table) Len() int {
	return len(t.rows)
}

// Has reports whether the named column is present.
func (t *Table) Has(column string) bool {
	_, ok := t.index[column]
	return ok
}

// Value returns the cell at row/column, or "" when the column is absent.
func (t *Table) Value(row int, column string) string {
	i, ok := t.index[column]
	if !ok {
		return ""
	}
	return t.rows[row][i]
}

// Column returns a copy of every value of the named column.
func (t *Table) Column(column string) ([]string, bool) {
	i, ok := t.index[column]
	if !ok {
		return nil, false
	}
	out := make([]string, len(t.rows))
	for r, row := range t.rows {
		out[r] = row[i]
	}
	return out, true
}

// SetColumn writes values into the named column, replacing it in place when it
// already exists and appending it otherwise.
func (t *Table) SetColumn(column string, values []string) error {
	if len(values) != len(t.rows) {
		return fmt.Errorf("column %s: expected %d values, got %d", column, len(t.rows), len(values))
	}
	i, ok := t.index[column]
	if !ok {
		i = len(t.header)
		t.header = append(t.header, column)
		t.index[column] = i
		for r := range t.rows {
			t.rows[r] = append(t.rows[r], "")
		}
	}
	for r, v := range values {
		t.rows[r][i] = v
	}
	return nil
}

// WriteCSV serializes the header and all rows.
func (t *Table) WriteCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(t.header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	if err := cw.WriteAll(t.rows); err != nil {
		return fmt.Errorf("write rows: %w", err)
	}
	return nil
}

// Bytes returns the CSV serialization of the table.
func (t *Table) Bytes() ([]byte, error) {
	var buf bytes.Buffer
	if err := t.WriteCSV(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
