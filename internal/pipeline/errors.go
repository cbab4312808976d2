package pipeline

import (
	"fmt"

	"github.com/Mayank14211/Titanic-Survival-Predictor/internal/common"
)

// UserError is an error whose message can be shown on the home view as is.
type UserError interface {
	error
	UserMessage() string
}

// NoFileError reports a request without an uploaded file.
type NoFileError struct {
	// Selected is true when the file part was present but no file was chosen.
	Selected bool
}

func (e *NoFileError) Error() string {
	if e.Selected {
		return "no file selected"
	}
	return "no file part in request"
}

// UserMessage returns the text shown on the home view.
func (e *NoFileError) UserMessage() string {
	if e.Selected {
		return common.MsgNoFileSelected
	}
	return common.MsgNoFilePart
}

// PredictionError wraps a failed label prediction.
type PredictionError struct {
	Err error
}

func (e *PredictionError) Error() string {
	return fmt.Sprintf("predict labels: %v", e.Err)
}

func (e *PredictionError) Unwrap() error {
	return e.Err
}

// UserMessage returns the text shown on the home view.
func (e *PredictionError) UserMessage() string {
	return fmt.Sprintf(common.MsgPredictionFailed, e.Err)
}
