package metrics

// MetricsWrapper adapts Metrics to the narrow interfaces the ml, pipeline and
// web packages declare, so they don't import prometheus.
type MetricsWrapper struct {
	m *Metrics
}

func NewWrapper(m *Metrics) *MetricsWrapper {
	return &MetricsWrapper{m: m}
}

func (w *MetricsWrapper) UploadsInc() {
	w.m.Uploads.Inc()
}

func (w *MetricsWrapper) PipelineFailureInc(stage string) {
	w.m.PipelineFailures.WithLabelValues(stage).Inc()
}

func (w *MetricsWrapper) RowsPredictedAdd(v float64) {
	w.m.RowsPredicted.Add(v)
}

func (w *MetricsWrapper) SurvivorsPredictedAdd(v float64) {
	w.m.SurvivorsPredicted.Add(v)
}

func (w *MetricsWrapper) PipelineDurationObserve(v float64) {
	w.m.PipelineDuration.Observe(v)
}

func (w *MetricsWrapper) DownloadsInc() {
	w.m.Downloads.Inc()
}

func (w *MetricsWrapper) MLPredictionsAdd(v float64) {
	w.m.MLPredictions.Add(v)
}

func (w *MetricsWrapper) MLFailuresInc() {
	w.m.MLFailures.Inc()
}

func (w *MetricsWrapper) MLLatencyObserve(v float64) {
	w.m.MLLatency.Observe(v)
}

func (w *MetricsWrapper) MLModelAgeSet(v float64) {
	w.m.MLModelAge.Set(v)
}

func (w *MetricsWrapper) MLTimeoutsInc() {
	w.m.MLTimeouts.Inc()
}

func (w *MetricsWrapper) MLProbabilityFallbackInc() {
	w.m.MLProbabilityFallback.Inc()
}
