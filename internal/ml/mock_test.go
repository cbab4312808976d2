package ml

import (
	"context"
	"sync"

	"github.com/Mayank14211/Titanic-Survival-Predictor/internal/passenger"
)

// MockMetrics implements MetricsInterface for testing
type MockMetrics struct {
	mu          sync.Mutex
	predictions float64
	failures    int
	latencies   int
	timeouts    int
	fallbacks   int
	modelAge    float64
}

func (m *MockMetrics) MLPredictionsAdd(v float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.predictions += v
}

func (m *MockMetrics) MLFailuresInc() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failures++
}

func (m *MockMetrics) MLLatencyObserve(float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.latencies++
}

func (m *MockMetrics) MLModelAgeSet(v float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.modelAge = v
}

func (m *MockMetrics) MLTimeoutsInc() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.timeouts++
}

func (m *MockMetrics) MLProbabilityFallbackInc() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fallbacks++
}

// stubPredictor returns canned outputs.
type stubPredictor struct {
	labels   []int
	labelErr error
	probs    []float64
	probErr  error
	closed   bool
}

func (s *stubPredictor) PredictLabels(context.Context, []passenger.FeatureVector) ([]int, error) {
	return s.labels, s.labelErr
}

func (s *stubPredictor) PredictProbabilities(context.Context, []passenger.FeatureVector) ([]float64, error) {
	return s.probs, s.probErr
}

func (s *stubPredictor) Close() error {
	s.closed = true
	return nil
}

func strPtr(s string) *string { return &s }

func floatPtr(f float64) *float64 { return &f }
