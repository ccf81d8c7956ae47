package eval

import (
	"math"

	"github.com/robustcall/sdk"
)

// Aggregate folds per-sample records into per-category summaries and one
// overall score. Each category is weighted by the square root of its sample
// count, w_i = sqrt(n_i) / sum_j sqrt(n_j), so a large category dominates
// less than its raw share. Categories with zero samples contribute weight
// zero. Aggregating zero records is an error, not a zero score.
func Aggregate(records []ResultRecord) (RunSummary, error) {
	if len(records) == 0 {
		return RunSummary{}, sdk.NewValidationError("eval.Aggregate", sdk.ErrEmptyRun)
	}

	perCategory := make(map[Category]CategorySummary)
	totals := make(map[Category]float64)
	for _, rec := range records {
		summary := perCategory[rec.Category]
		summary.Count++
		if rec.Accuracy == 1 {
			summary.CorrectCount++
		}
		perCategory[rec.Category] = summary
		totals[rec.Category] += rec.Accuracy
	}

	var weightSum, weighted float64
	for category, summary := range perCategory {
		summary.MeanAccuracy = totals[category] / float64(summary.Count)
		perCategory[category] = summary

		w := math.Sqrt(float64(summary.Count))
		weightSum += w
		weighted += w * summary.MeanAccuracy
	}

	return RunSummary{
		OverallAccuracy: weighted / weightSum,
		PerCategory:     perCategory,
	}, nil
}
