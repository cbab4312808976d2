package ml

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"time"

	"github.com/Mayank14211/Titanic-Survival-Predictor/internal/passenger"

	"github.com/rs/zerolog/log"
)

// MetricsInterface defines metrics methods needed by the adapter
type MetricsInterface interface {
	MLPredictionsAdd(float64)
	MLFailuresInc()
	MLLatencyObserve(float64)
	MLModelAgeSet(float64)
	MLTimeoutsInc()
	MLProbabilityFallbackInc()
}

// Adapter is the shared, read-only model handle injected into the pipeline.
// It checks the backend's output shape and turns probability failures into
// "unsupported" instead of errors.
type Adapter struct {
	predictor PredictorInterface
	backend   string
	metrics   MetricsInterface
	loadedAt  time.Time
}

// NewAdapter wraps a loaded predictor. metrics may be nil.
func NewAdapter(predictor PredictorInterface, backend string, metrics MetricsInterface) *Adapter {
	return &Adapter{
		predictor: predictor,
		backend:   backend,
		metrics:   metrics,
		loadedAt:  time.Now(),
	}
}

// Backend names the model backend in use.
func (a *Adapter) Backend() string {
	return a.backend
}

// LoadedAt is the time the model handle was created.
func (a *Adapter) LoadedAt() time.Time {
	return a.loadedAt
}

// Labels runs mandatory label prediction. Any backend error, length mismatch or
// label outside {0,1} is returned as an error.
func (a *Adapter) Labels(ctx context.Context, features []passenger.FeatureVector) ([]int, error) {
	if a == nil || a.predictor == nil {
		return nil, fmt.Errorf("predictor is nil")
	}

	start := time.Now()
	labels, err := a.predictor.PredictLabels(ctx, features)
	a.observeLatency(start)
	if err != nil {
		a.recordFailure(err)
		return nil, err
	}

	if len(labels) != len(features) {
		a.recordFailure(nil)
		return nil, fmt.Errorf("expected %d labels, got %d", len(features), len(labels))
	}
	for i, label := range labels {
		if label != 0 && label != 1 {
			a.recordFailure(nil)
			return nil, fmt.Errorf("row %d: label %d is not binary", i+1, label)
		}
	}

	if a.metrics != nil {
		a.metrics.MLPredictionsAdd(float64(len(labels)))
	}
	return labels, nil
}

// Probabilities attempts probability prediction. ok is false when the backend
// does not support it or fails in any way; the caller then treats every
// probability as missing.
func (a *Adapter) Probabilities(ctx context.Context, features []passenger.FeatureVector) (probs []float64, ok bool) {
	if a == nil || a.predictor == nil {
		return nil, false
	}

	start := time.Now()
	probs, err := a.predictor.PredictProbabilities(ctx, features)
	a.observeLatency(start)

	switch {
	case errors.Is(err, ErrProbabilitiesUnsupported):
		log.Debug().Str("backend", a.backend).Msg("Model has no probability estimates")
	case err != nil:
		log.Warn().Err(err).Str("backend", a.backend).Msg("Probability prediction failed, continuing without probabilities")
	case len(probs) != len(features):
		log.Warn().Int("expected", len(features)).Int("got", len(probs)).Msg("Probability count mismatch, continuing without probabilities")
		err = errors.New("length mismatch")
	default:
		for i, p := range probs {
			if math.IsNaN(p) || p < 0 || p > 1 {
				log.Warn().Int("row", i+1).Float64("probability", p).Msg("Probability out of range, continuing without probabilities")
				err = errors.New("out of range")
				break
			}
		}
	}

	if err != nil {
		if a.metrics != nil {
			a.metrics.MLProbabilityFallbackInc()
		}
		return nil, false
	}
	return probs, true
}

// Close releases backend resources when the backend holds any.
func (a *Adapter) Close() error {
	if a == nil {
		return nil
	}
	if c, ok := a.predictor.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

func (a *Adapter) observeLatency(start time.Time) {
	if a.metrics != nil {
		a.metrics.MLLatencyObserve(time.Since(start).Seconds())
	}
}

func (a *Adapter) recordFailure(err error) {
	if a.metrics == nil {
		return
	}
	a.metrics.MLFailuresInc()
	if errors.Is(err, context.DeadlineExceeded) {
		a.metrics.MLTimeoutsInc()
	}
}
