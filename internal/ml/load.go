package ml

import (
	"fmt"
	"os"
	"time"

	"github.com/Mayank14211/Titanic-Survival-Predictor/internal/common"

	"github.com/rs/zerolog/log"
)

// Config selects and parameterizes the model backend.
type Config struct {
	Backend    string
	ModelPath  string
	PythonPath string
	Timeout    time.Duration
	RemoteURL  string
	ONNX       ONNXConfig
}

// Load opens the configured backend once and wraps it in an Adapter. Any
// failure here is fatal to the service: it must not start without a model.
func Load(cfg Config, metrics MetricsInterface) (*Adapter, error) {
	var (
		predictor PredictorInterface
		err       error
	)

	switch cfg.Backend {
	case common.BackendPython:
		predictor, err = NewPythonPredictor(cfg.ModelPath, cfg.PythonPath, cfg.Timeout)
	case common.BackendONNX:
		onnxCfg := cfg.ONNX
		if onnxCfg.ModelPath == "" {
			onnxCfg.ModelPath = cfg.ModelPath
		}
		if _, statErr := os.Stat(onnxCfg.ModelPath); statErr != nil {
			return nil, fmt.Errorf("model artifact: %w", statErr)
		}
		predictor, err = NewONNXPredictor(onnxCfg)
	case common.BackendRemote:
		predictor, err = NewRemotePredictor(cfg.RemoteURL, cfg.Timeout)
	case common.BackendHeuristic:
		predictor = NewHeuristicPredictor()
	default:
		return nil, fmt.Errorf("unknown model backend %q", cfg.Backend)
	}
	if err != nil {
		return nil, fmt.Errorf("load %s model: %w", cfg.Backend, err)
	}

	adapter := NewAdapter(predictor, cfg.Backend, metrics)

	if metrics != nil && cfg.ModelPath != "" && cfg.Backend != common.BackendRemote && cfg.Backend != common.BackendHeuristic {
		if info, statErr := os.Stat(cfg.ModelPath); statErr == nil {
			metrics.MLModelAgeSet(time.Since(info.ModTime()).Seconds())
		}
	}

	log.Info().Str("backend", cfg.Backend).Msg("Model loaded")
	return adapter, nil
}
