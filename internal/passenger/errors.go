package passenger

import (
	"fmt"
	"strings"

	"github.com/Mayank14211/Titanic-Survival-Predictor/internal/common"
)

// ParseError reports an upload that could not be read as a CSV table.
type ParseError struct {
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse csv: %v", e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// UserMessage returns the text shown on the home view.
func (e *ParseError) UserMessage() string {
	return fmt.Sprintf(common.MsgReadCSVFailed, e.Err)
}

// SchemaError lists the required columns missing from an upload, in the fixed
// required-column order.
type SchemaError struct {
	Missing []string
}

func (e *SchemaError) Error() string {
	return "missing required columns: " + strings.Join(e.Missing, ", ")
}

// UserMessage returns the text shown on the home view.
func (e *SchemaError) UserMessage() string {
	return fmt.Sprintf(common.MsgMissingColumns, strings.Join(e.Missing, ", "))
}

// TypeMismatchError reports a cell that cannot be coerced to the type the
// predictor expects. Row is the zero-based data row.
type TypeMismatchError struct {
	Row    int
	Column string
	Value  string
	Want   string
}

func (e *TypeMismatchError) Error() string {
	return fmt.Sprintf("row %d: column %s: cannot convert %q to %s", e.Row+1, e.Column, e.Value, e.Want)
}

// UserMessage returns the text shown on the home view.
func (e *TypeMismatchError) UserMessage() string {
	return fmt.Sprintf(common.MsgPredictionFailed, e.Error())
}
