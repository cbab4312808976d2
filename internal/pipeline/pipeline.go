// Package pipeline runs one CSV upload through validation, feature derivation,
// inference, annotation, summarization, persistence and preview formatting.
// Every stage is a hard gate: on failure nothing is persisted.
package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/Mayank14211/Titanic-Survival-Predictor/internal/common"
	"github.com/Mayank14211/Titanic-Survival-Predictor/internal/metrics"
	"github.com/Mayank14211/Titanic-Survival-Predictor/internal/passenger"
	"github.com/Mayank14211/Titanic-Survival-Predictor/internal/report"
	"github.com/Mayank14211/Titanic-Survival-Predictor/internal/storage"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// Predictor is the loaded model as the pipeline sees it (*ml.Adapter).
type Predictor interface {
	Labels(ctx context.Context, features []passenger.FeatureVector) ([]int, error)
	Probabilities(ctx context.Context, features []passenger.FeatureVector) ([]float64, bool)
	Backend() string
}

// ResultSaver persists the annotated table (*storage.ResultStore).
type ResultSaver interface {
	Save(data []byte) error
}

// RunRecorder appends completed runs to the run log (*storage.Store).
type RunRecorder interface {
	RecordRun(rec storage.RunRecord) error
}

// RunNotifier fans completed runs out to live subscribers.
type RunNotifier interface {
	Publish(rec storage.RunRecord)
}

// MetricsInterface defines metrics methods needed by the pipeline
type MetricsInterface interface {
	UploadsInc()
	PipelineFailureInc(stage string)
	RowsPredictedAdd(float64)
	SurvivorsPredictedAdd(float64)
	PipelineDurationObserve(float64)
}

// Upload is the file part of a prediction request.
type Upload struct {
	// Present is false when the request carried no file part at all.
	Present  bool
	Filename string
	Data     []byte
}

// Prediction is the model output for one row.
type Prediction struct {
	Survived    int
	Label       string
	Probability *float64
}

// Result is what a successful run hands back to the caller.
type Result struct {
	RunID             string
	Summary           report.Summary
	Preview           report.Preview
	Predictions       []Prediction
	DownloadAvailable bool
	Duration          time.Duration
}

// Config wires the pipeline's collaborators. Runs, Notifier and Metrics are
// optional.
type Config struct {
	Predictor   Predictor
	Results     ResultSaver
	Runs        RunRecorder
	Notifier    RunNotifier
	Metrics     MetricsInterface
	PreviewRows int
}

// Pipeline is safe for concurrent use; it holds no per-run state.
type Pipeline struct {
	predictor   Predictor
	results     ResultSaver
	runs        RunRecorder
	notifier    RunNotifier
	metrics     MetricsInterface
	previewRows int
}

func New(cfg Config) *Pipeline {
	previewRows := cfg.PreviewRows
	if previewRows <= 0 {
		previewRows = common.DefaultPreviewRows
	}
	return &Pipeline{
		predictor:   cfg.Predictor,
		results:     cfg.Results,
		runs:        cfg.Runs,
		notifier:    cfg.Notifier,
		metrics:     cfg.Metrics,
		previewRows: previewRows,
	}
}

// Run processes one upload. Errors that implement UserError carry the message
// to show; anything else is internal.
func (p *Pipeline) Run(ctx context.Context, upload *Upload) (*Result, error) {
	start := time.Now()
	if p.metrics != nil {
		p.metrics.UploadsInc()
	}

	result, err := p.run(ctx, upload, start)
	if err != nil {
		stage := failureStage(err)
		if p.metrics != nil {
			p.metrics.PipelineFailureInc(stage)
		}
		evt := log.Warn()
		if stage == metrics.StageInternal || stage == metrics.StagePersist {
			evt = log.Error()
		}
		evt.Err(err).Str("stage", stage).Msg("Prediction run failed")
		return nil, err
	}
	return result, nil
}

func (p *Pipeline) run(ctx context.Context, upload *Upload, start time.Time) (*Result, error) {
	if upload == nil || !upload.Present {
		return nil, &NoFileError{}
	}
	if upload.Filename == "" {
		return nil, &NoFileError{Selected: true}
	}

	table, err := passenger.ParseCSV(bytes.NewReader(upload.Data))
	if err != nil {
		return nil, err
	}
	log.Debug().Str("file", upload.Filename).Int("rows", table.Len()).Msg("CSV parsed")

	if err := passenger.Validate(table); err != nil {
		return nil, err
	}

	derived, features, err := passenger.Derive(table)
	if err != nil {
		return nil, err
	}

	labels, probs, err := p.predict(ctx, features)
	if err != nil {
		return nil, err
	}

	predictions := make([]Prediction, len(labels))
	for i, label := range labels {
		predictions[i] = Prediction{Survived: label, Label: labelText(label), Probability: probs[i]}
	}

	if err := annotate(table, derived, predictions); err != nil {
		return nil, fmt.Errorf("annotate table: %w", err)
	}

	summary := report.Summarize(labels, probs)

	data, err := table.Bytes()
	if err != nil {
		return nil, fmt.Errorf("serialize table: %w", err)
	}
	if err := p.results.Save(data); err != nil {
		return nil, &persistError{err}
	}

	result := &Result{
		RunID:             uuid.NewString(),
		Summary:           summary,
		Preview:           report.BuildPreview(table, report.PreviewColumns(), p.previewRows),
		Predictions:       predictions,
		DownloadAvailable: true,
		Duration:          time.Since(start),
	}

	p.complete(upload.Filename, start, result)
	return result, nil
}

// predict returns one label and one nullable probability per row. The model is
// not consulted for an empty table.
func (p *Pipeline) predict(ctx context.Context, features []passenger.FeatureVector) ([]int, []*float64, error) {
	if len(features) == 0 {
		return []int{}, []*float64{}, nil
	}

	labels, err := p.predictor.Labels(ctx, features)
	if err != nil {
		return nil, nil, &PredictionError{Err: err}
	}

	probs := make([]*float64, len(labels))
	if values, ok := p.predictor.Probabilities(ctx, features); ok && len(values) == len(labels) {
		for i := range values {
			probs[i] = &values[i]
		}
	}
	return labels, probs, nil
}

func annotate(t *passenger.Table, derived []passenger.Derived, predictions []Prediction) error {
	n := t.Len()
	familySize := make([]string, n)
	isAlone := make([]string, n)
	probability := make([]string, n)
	survived := make([]string, n)
	label := make([]string, n)

	for i := 0; i < n; i++ {
		familySize[i] = strconv.Itoa(derived[i].FamilySize)
		isAlone[i] = strconv.Itoa(derived[i].IsAlone)
		if pr := predictions[i].Probability; pr != nil {
			probability[i] = strconv.FormatFloat(*pr, 'f', -1, 64)
		}
		survived[i] = strconv.Itoa(predictions[i].Survived)
		label[i] = predictions[i].Label
	}

	columns := []struct {
		name   string
		values []string
	}{
		{common.ColFamilySize, familySize},
		{common.ColIsAlone, isAlone},
		{common.ColSurvivalProbability, probability},
		{common.ColPredictedSurvived, survived},
		{common.ColPredictedLabel, label},
	}
	for _, c := range columns {
		if err := t.SetColumn(c.name, c.values); err != nil {
			return err
		}
	}
	return nil
}

// complete feeds the post-persist side channels. Their failures are logged only.
func (p *Pipeline) complete(filename string, start time.Time, result *Result) {
	if p.metrics != nil {
		p.metrics.RowsPredictedAdd(float64(result.Summary.Total))
		p.metrics.SurvivorsPredictedAdd(float64(result.Summary.SurvivedCount))
		p.metrics.PipelineDurationObserve(result.Duration.Seconds())
	}

	rec := storage.RunRecord{
		ID:         result.RunID,
		Filename:   filename,
		StartedAt:  start,
		DurationMs: result.Duration.Milliseconds(),
		Backend:    p.predictor.Backend(),
		Summary:    result.Summary,
	}

	if p.runs != nil {
		if err := p.runs.RecordRun(rec); err != nil {
			log.Warn().Err(err).Str("run_id", rec.ID).Msg("Failed to record run")
		}
	}
	if p.notifier != nil {
		p.notifier.Publish(rec)
	}

	log.Info().
		Str("run_id", rec.ID).
		Str("file", filename).
		Int("total", result.Summary.Total).
		Int("survived", result.Summary.SurvivedCount).
		Int64("duration_ms", rec.DurationMs).
		Msg("Prediction run completed")
}

func labelText(label int) string {
	if label == 1 {
		return common.LabelSurvived
	}
	return common.LabelNotSurvived
}

type persistError struct {
	err error
}

func (e *persistError) Error() string {
	return fmt.Sprintf("persist results: %v", e.err)
}

func (e *persistError) Unwrap() error {
	return e.err
}

func failureStage(err error) string {
	var (
		noFile     *NoFileError
		parseErr   *passenger.ParseError
		schemaErr  *passenger.SchemaError
		typeErr    *passenger.TypeMismatchError
		predictErr *PredictionError
		persistErr *persistError
	)
	switch {
	case errors.As(err, &noFile):
		return metrics.StageUpload
	case errors.As(err, &parseErr):
		return metrics.StageParse
	case errors.As(err, &schemaErr):
		return metrics.StageSchema
	case errors.As(err, &typeErr):
		return metrics.StageDerive
	case errors.As(err, &predictErr):
		return metrics.StagePredict
	case errors.As(err, &persistErr):
		return metrics.StagePersist
	default:
		return metrics.StageInternal
	}
}
