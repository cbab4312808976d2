package ml

import (
	"context"
	"errors"
	"fmt"
	"math"
	"testing"

	"github.com/Mayank14211/Titanic-Survival-Predictor/internal/passenger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func twoRows() []passenger.FeatureVector {
	return []passenger.FeatureVector{
		{Pclass: 1, Sex: strPtr("female"), Age: floatPtr(38), Fare: floatPtr(71.2833), Embarked: strPtr("C")},
		{Pclass: 3, Sex: strPtr("male"), Age: floatPtr(22), Fare: floatPtr(7.25), Embarked: strPtr("S")},
	}
}

func TestAdapter_Labels(t *testing.T) {
	tests := []struct {
		name    string
		stub    *stubPredictor
		wantErr string
	}{
		{"valid labels", &stubPredictor{labels: []int{1, 0}}, ""},
		{"backend error", &stubPredictor{labelErr: errors.New("boom")}, "boom"},
		{"length mismatch", &stubPredictor{labels: []int{1}}, "expected 2 labels, got 1"},
		{"non-binary label", &stubPredictor{labels: []int{1, 2}}, "row 2: label 2 is not binary"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			metrics := &MockMetrics{}
			adapter := NewAdapter(tt.stub, "stub", metrics)

			labels, err := adapter.Labels(context.Background(), twoRows())
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				assert.Equal(t, 1, metrics.failures)
				assert.Zero(t, metrics.predictions)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, []int{1, 0}, labels)
			assert.Equal(t, 2.0, metrics.predictions)
			assert.Equal(t, 1, metrics.latencies)
		})
	}
}

func TestAdapter_LabelsTimeoutCounted(t *testing.T) {
	metrics := &MockMetrics{}
	stub := &stubPredictor{labelErr: fmt.Errorf("prediction timeout: %w", context.DeadlineExceeded)}
	adapter := NewAdapter(stub, "stub", metrics)

	_, err := adapter.Labels(context.Background(), twoRows())
	require.Error(t, err)
	assert.Equal(t, 1, metrics.failures)
	assert.Equal(t, 1, metrics.timeouts)
}

func TestAdapter_Probabilities(t *testing.T) {
	tests := []struct {
		name   string
		stub   *stubPredictor
		wantOK bool
	}{
		{"valid probabilities", &stubPredictor{probs: []float64{0.91, 0.12}}, true},
		{"boundary values", &stubPredictor{probs: []float64{0, 1}}, true},
		{"unsupported", &stubPredictor{probErr: ErrProbabilitiesUnsupported}, false},
		{"backend error", &stubPredictor{probErr: errors.New("boom")}, false},
		{"length mismatch", &stubPredictor{probs: []float64{0.5}}, false},
		{"out of range", &stubPredictor{probs: []float64{0.5, 1.5}}, false},
		{"negative", &stubPredictor{probs: []float64{-0.1, 0.5}}, false},
		{"NaN", &stubPredictor{probs: []float64{math.NaN(), 0.5}}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			metrics := &MockMetrics{}
			adapter := NewAdapter(tt.stub, "stub", metrics)

			probs, ok := adapter.Probabilities(context.Background(), twoRows())
			assert.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				assert.Equal(t, tt.stub.probs, probs)
				assert.Zero(t, metrics.fallbacks)
			} else {
				assert.Nil(t, probs)
				assert.Equal(t, 1, metrics.fallbacks)
			}
			// probability failures never count as prediction failures
			assert.Zero(t, metrics.failures)
		})
	}
}

func TestAdapter_NilSafety(t *testing.T) {
	var adapter *Adapter

	_, err := adapter.Labels(context.Background(), twoRows())
	assert.Error(t, err)

	probs, ok := adapter.Probabilities(context.Background(), twoRows())
	assert.False(t, ok)
	assert.Nil(t, probs)

	assert.NoError(t, adapter.Close())
}

func TestAdapter_CloseReleasesBackend(t *testing.T) {
	stub := &stubPredictor{}
	adapter := NewAdapter(stub, "stub", nil)

	require.NoError(t, adapter.Close())
	assert.True(t, stub.closed)
	assert.Equal(t, "stub", adapter.Backend())
	assert.False(t, adapter.LoadedAt().IsZero())
}
