package ml

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newModelServer(t *testing.T, probaStatus int) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("/predict", func(w http.ResponseWriter, r *http.Request) {
		var req remoteRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		preds := make([]int, len(req.Instances))
		for i, inst := range req.Instances {
			if inst.Sex != nil && *inst.Sex == "female" {
				preds[i] = 1
			}
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(remoteLabels{Predictions: preds})
	})
	mux.HandleFunc("/predict_proba", func(w http.ResponseWriter, r *http.Request) {
		if probaStatus != http.StatusOK {
			http.Error(w, "no probabilities", probaStatus)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(remoteProbabilities{Probabilities: []float64{0.9, 0.1}})
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestRemotePredictor_Labels(t *testing.T) {
	srv := newModelServer(t, http.StatusOK)

	p, err := NewRemotePredictor(srv.URL+"/", time.Second)
	require.NoError(t, err)

	labels, err := p.PredictLabels(context.Background(), twoRows())
	require.NoError(t, err)
	assert.Equal(t, []int{1, 0}, labels)

	probs, err := p.PredictProbabilities(context.Background(), twoRows())
	require.NoError(t, err)
	assert.Equal(t, []float64{0.9, 0.1}, probs)
}

func TestRemotePredictor_ProbabilityStatus(t *testing.T) {
	tests := []struct {
		name            string
		status          int
		wantUnsupported bool
	}{
		{"not found", http.StatusNotFound, true},
		{"not implemented", http.StatusNotImplemented, true},
		{"server error", http.StatusInternalServerError, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newModelServer(t, tt.status)
			p, err := NewRemotePredictor(srv.URL, time.Second)
			require.NoError(t, err)

			_, err = p.PredictProbabilities(context.Background(), twoRows())
			require.Error(t, err)
			assert.Equal(t, tt.wantUnsupported, err == ErrProbabilitiesUnsupported)
		})
	}
}

func TestRemotePredictor_HealthCheckFails(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	_, err := NewRemotePredictor(srv.URL, time.Second)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 503")
}

func TestRemotePredictor_LabelServerError(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {})
	mux.HandleFunc("/predict", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model exploded", http.StatusInternalServerError)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	p, err := NewRemotePredictor(srv.URL, time.Second)
	require.NoError(t, err)

	_, err = p.PredictLabels(context.Background(), twoRows())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "model exploded")
}
