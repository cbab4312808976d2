package ml

import (
	"context"
	"fmt"
	"math"
	"sync"

	"github.com/Mayank14211/Titanic-Survival-Predictor/internal/passenger"

	"github.com/rs/zerolog/log"
	ort "github.com/yalue/onnxruntime_go"
)

// ONNXConfig names the artifact and the graph's input and outputs.
type ONNXConfig struct {
	ModelPath         string
	LibPath           string
	InputName         string
	LabelOutput       string
	ProbabilityOutput string
}

// ONNXPredictor runs an exported classifier in-process. The graph takes a float
// tensor of shape [n, 6] holding the encoded feature vector (see encodeFeatures)
// and yields int64 labels [n] and, optionally, float probabilities [n, 2].
type ONNXPredictor struct {
	mu       sync.Mutex
	session  *ort.DynamicAdvancedSession
	hasProba bool
}

var ortInitOnce sync.Once
var ortInitErr error

// NewONNXPredictor initializes the ONNX Runtime environment and opens a session.
func NewONNXPredictor(cfg ONNXConfig) (*ONNXPredictor, error) {
	ortInitOnce.Do(func() {
		if cfg.LibPath != "" {
			ort.SetSharedLibraryPath(cfg.LibPath)
		}
		ortInitErr = ort.InitializeEnvironment()
	})
	if ortInitErr != nil {
		return nil, fmt.Errorf("initialize onnxruntime: %w", ortInitErr)
	}

	outputs := []string{cfg.LabelOutput}
	if cfg.ProbabilityOutput != "" {
		outputs = append(outputs, cfg.ProbabilityOutput)
	}

	session, err := ort.NewDynamicAdvancedSession(cfg.ModelPath, []string{cfg.InputName}, outputs, nil)
	if err != nil {
		return nil, fmt.Errorf("open onnx session %s: %w", cfg.ModelPath, err)
	}

	log.Info().
		Str("model_path", cfg.ModelPath).
		Str("input", cfg.InputName).
		Strs("outputs", outputs).
		Msg("ONNX model loaded successfully")

	return &ONNXPredictor{session: session, hasProba: cfg.ProbabilityOutput != ""}, nil
}

// PredictLabels implements PredictorInterface.
func (p *ONNXPredictor) PredictLabels(ctx context.Context, features []passenger.FeatureVector) ([]int, error) {
	labels, _, err := p.run(ctx, features)
	return labels, err
}

// PredictProbabilities implements PredictorInterface.
func (p *ONNXPredictor) PredictProbabilities(ctx context.Context, features []passenger.FeatureVector) ([]float64, error) {
	if !p.hasProba {
		return nil, ErrProbabilitiesUnsupported
	}
	_, probs, err := p.run(ctx, features)
	return probs, err
}

// Close destroys the session.
func (p *ONNXPredictor) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.session == nil {
		return nil
	}
	err := p.session.Destroy()
	p.session = nil
	return err
}

func (p *ONNXPredictor) run(ctx context.Context, features []passenger.FeatureVector) ([]int, []float64, error) {
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.session == nil {
		return nil, nil, fmt.Errorf("onnx session is closed")
	}

	n := int64(len(features))
	input, err := ort.NewTensor(ort.NewShape(n, featureWidth), encodeFeatures(features))
	if err != nil {
		return nil, nil, fmt.Errorf("create input tensor: %w", err)
	}
	defer input.Destroy()

	labelTensor, err := ort.NewEmptyTensor[int64](ort.NewShape(n))
	if err != nil {
		return nil, nil, fmt.Errorf("create label tensor: %w", err)
	}
	defer labelTensor.Destroy()

	outputs := []ort.Value{labelTensor}
	var probTensor *ort.Tensor[float32]
	if p.hasProba {
		probTensor, err = ort.NewEmptyTensor[float32](ort.NewShape(n, 2))
		if err != nil {
			return nil, nil, fmt.Errorf("create probability tensor: %w", err)
		}
		defer probTensor.Destroy()
		outputs = append(outputs, probTensor)
	}

	if err := p.session.Run([]ort.Value{input}, outputs); err != nil {
		return nil, nil, fmt.Errorf("onnx inference: %w", err)
	}

	raw := labelTensor.GetData()
	labels := make([]int, len(raw))
	for i, v := range raw {
		labels[i] = int(v)
	}

	var probs []float64
	if probTensor != nil {
		data := probTensor.GetData()
		probs = make([]float64, len(features))
		for i := range probs {
			probs[i] = float64(data[i*2+1])
		}
	}

	return labels, probs, nil
}

const featureWidth = 6

// encodeFeatures flattens feature vectors into the row-major float layout the
// exported graph expects: Pclass, Sex (male=0, female=1), Age, Fare,
// Embarked (S=0, C=1, Q=2), IsAlone. Missing or unknown values are NaN and are
// left to the graph's imputer.
func encodeFeatures(features []passenger.FeatureVector) []float32 {
	nan := float32(math.NaN())
	out := make([]float32, 0, len(features)*featureWidth)

	for _, f := range features {
		sex := nan
		if f.Sex != nil {
			switch *f.Sex {
			case "male":
				sex = 0
			case "female":
				sex = 1
			}
		}

		embarked := nan
		if f.Embarked != nil {
			switch *f.Embarked {
			case "S":
				embarked = 0
			case "C":
				embarked = 1
			case "Q":
				embarked = 2
			}
		}

		out = append(out,
			float32(f.Pclass),
			sex,
			optionalFloat32(f.Age),
			optionalFloat32(f.Fare),
			embarked,
			float32(f.IsAlone),
		)
	}
	return out
}

func optionalFloat32(v *float64) float32 {
	if v == nil {
		return float32(math.NaN())
	}
	return float32(*v)
}
