package ml

import (
	"context"
	"math"

	"github.com/Mayank14211/Titanic-Survival-Predictor/internal/passenger"

	"gonum.org/v1/gonum/floats"
)

// Imputation values are the training-set means.
const (
	heuristicMeanAge  = 29.7
	heuristicMeanFare = 32.0
)

// heuristicWeights are the logistic coefficients applied to
// [bias, female, second class, third class, age, alone, fare].
var heuristicWeights = []float64{1.2, 2.6, -0.9, -2.0, -0.035, -0.3, 0.002}

// HeuristicPredictor implements a fixed-coefficient logistic model for running
// without a trained artifact (demos, tests, model server outages).
type HeuristicPredictor struct {
	threshold float64
}

// NewHeuristicPredictor creates a heuristic predictor with a 0.5 decision threshold.
func NewHeuristicPredictor() *HeuristicPredictor {
	return &HeuristicPredictor{threshold: 0.5}
}

// PredictLabels implements PredictorInterface.
func (p *HeuristicPredictor) PredictLabels(ctx context.Context, features []passenger.FeatureVector) ([]int, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	labels := make([]int, len(features))
	for i, f := range features {
		if p.score(f) >= p.threshold {
			labels[i] = 1
		}
	}
	return labels, nil
}

// PredictProbabilities implements PredictorInterface.
func (p *HeuristicPredictor) PredictProbabilities(ctx context.Context, features []passenger.FeatureVector) ([]float64, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	probs := make([]float64, len(features))
	for i, f := range features {
		probs[i] = p.score(f)
	}
	return probs, nil
}

func (p *HeuristicPredictor) score(f passenger.FeatureVector) float64 {
	return sigmoid(floats.Dot(heuristicWeights, heuristicInputs(f)))
}

func heuristicInputs(f passenger.FeatureVector) []float64 {
	x := make([]float64, len(heuristicWeights))
	x[0] = 1
	if f.Sex != nil && *f.Sex == "female" {
		x[1] = 1
	}
	switch f.Pclass {
	case 2:
		x[2] = 1
	case 3:
		x[3] = 1
	}
	x[4] = heuristicMeanAge
	if f.Age != nil {
		x[4] = *f.Age
	}
	x[5] = float64(f.IsAlone)
	x[6] = heuristicMeanFare
	if f.Fare != nil {
		x[6] = *f.Fare
	}
	return x
}

// sigmoid converts a score to a probability
func sigmoid(x float64) float64 {
	return 1.0 / (1.0 + math.Exp(-x))
}
