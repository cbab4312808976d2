package ml

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/Mayank14211/Titanic-Survival-Predictor/internal/passenger"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog/log"
)

// RemotePredictor forwards feature rows to an HTTP model server.
//
//	POST {base}/predict        {"instances": [...]} -> {"predictions": [0, 1, ...]}
//	POST {base}/predict_proba  {"instances": [...]} -> {"probabilities": [0.1, ...]}
//	GET  {base}/health
//
// A 404 or 501 from /predict_proba means the model has no probability estimates.
type RemotePredictor struct {
	base string
	rest *resty.Client
}

type remoteRequest struct {
	Instances []passenger.FeatureVector `json:"instances"`
}

type remoteLabels struct {
	Predictions []int `json:"predictions"`
}

type remoteProbabilities struct {
	Probabilities []float64 `json:"probabilities"`
}

// NewRemotePredictor builds the client and checks the server's health endpoint.
func NewRemotePredictor(base string, timeout time.Duration) (*RemotePredictor, error) {
	r := resty.New()
	if timeout > 0 {
		r.SetTimeout(timeout)
	} else {
		r.SetTimeout(5 * time.Second)
	}

	p := &RemotePredictor{base: strings.TrimRight(base, "/"), rest: r}

	resp, err := p.rest.R().Get(p.base + "/health")
	if err != nil {
		return nil, fmt.Errorf("model server health check: %w", err)
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("model server health check: status %d, body: %s", resp.StatusCode(), resp.String())
	}

	log.Info().Str("url", p.base).Msg("Remote model server reachable")
	return p, nil
}

// PredictLabels implements PredictorInterface.
func (p *RemotePredictor) PredictLabels(ctx context.Context, features []passenger.FeatureVector) ([]int, error) {
	result := &remoteLabels{}
	resp, err := p.rest.R().
		SetContext(ctx).
		SetBody(remoteRequest{Instances: features}).
		SetResult(result).
		Post(p.base + "/predict")
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("model server error: status %d, body: %s", resp.StatusCode(), resp.String())
	}
	return result.Predictions, nil
}

// PredictProbabilities implements PredictorInterface.
func (p *RemotePredictor) PredictProbabilities(ctx context.Context, features []passenger.FeatureVector) ([]float64, error) {
	result := &remoteProbabilities{}
	resp, err := p.rest.R().
		SetContext(ctx).
		SetBody(remoteRequest{Instances: features}).
		SetResult(result).
		Post(p.base + "/predict_proba")
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}

	switch resp.StatusCode() {
	case http.StatusOK:
		return result.Probabilities, nil
	case http.StatusNotFound, http.StatusNotImplemented:
		return nil, ErrProbabilitiesUnsupported
	default:
		return nil, fmt.Errorf("model server error: status %d, body: %s", resp.StatusCode(), resp.String())
	}
}
