// Package ml wraps the pre-trained survival classifier behind a narrow
// two-capability interface: class labels (mandatory) and positive-class
// probabilities (best effort).
//
// Backends are a long-lived Python worker holding the pickled scikit-learn
// pipeline, an in-process ONNX Runtime session, a remote HTTP inference
// server, and a fixed-coefficient heuristic that needs no artifact.
package ml

import (
	"context"
	"errors"

	"github.com/Mayank14211/Titanic-Survival-Predictor/internal/passenger"
)

// ErrProbabilitiesUnsupported is returned by backends whose model cannot
// produce probability estimates.
var ErrProbabilitiesUnsupported = errors.New("model does not support probability estimates")

// PredictorInterface is the inference contract of the loaded model.
type PredictorInterface interface {
	// PredictLabels returns one 0/1 survival label per feature row, in row order.
	PredictLabels(ctx context.Context, features []passenger.FeatureVector) ([]int, error)

	// PredictProbabilities returns the survival probability of each row.
	// Returns ErrProbabilitiesUnsupported when the model has no such capability.
	PredictProbabilities(ctx context.Context, features []passenger.FeatureVector) ([]float64, error)
}
