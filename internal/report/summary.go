// Package report turns an annotated prediction table into what the home view
// shows: aggregate survival counts and a bounded, column-filtered preview.
package report

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// Summary aggregates one completed run.
type Summary struct {
	Total            int      `json:"total"`
	SurvivedCount    int      `json:"survived_count"`
	NotSurvivedCount int      `json:"not_survived_count"`
	SurvivedPct      float64  `json:"survived_pct"`
	NotSurvivedPct   float64  `json:"not_survived_pct"`
	MeanProbability  *float64 `json:"mean_probability"`
}

// Summarize counts predicted survivors. Both percentages are rounded to two
// decimals and are 0 for an empty run. MeanProbability is set only when every
// row carries a probability.
func Summarize(labels []int, probabilities []*float64) Summary {
	s := Summary{Total: len(labels)}
	for _, label := range labels {
		if label == 1 {
			s.SurvivedCount++
		}
	}
	s.NotSurvivedCount = s.Total - s.SurvivedCount

	if s.Total > 0 {
		survived := float64(s.SurvivedCount) / float64(s.Total) * 100
		s.SurvivedPct = round2(survived)
		s.NotSurvivedPct = round2(100 - survived)
	}

	if len(probabilities) > 0 && len(probabilities) == len(labels) {
		values := make([]float64, 0, len(probabilities))
		for _, p := range probabilities {
			if p == nil {
				return s
			}
			values = append(values, *p)
		}
		mean := stat.Mean(values, nil)
		s.MeanProbability = &mean
	}
	return s
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
