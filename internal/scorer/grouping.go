package scorer

import (
	"sort"

	"github.com/sells-group/forensic-cli/internal/model"
)

// Grouping method names recorded on the policy for run summaries.
const (
	MethodBinary          = "binary (small sample protocol)"
	MethodBinaryCollapsed = "binary (degenerate score distribution)"
	MethodTrafficLight    = "traffic light (large sample protocol)"
)

// SelectPolicy chooses the verdict taxonomy for a batch from its score
// distribution. Percentile splits are statistically meaningless below the
// small-sample ceiling (default 30), so small batches get a fixed-threshold
// binary taxonomy; larger batches get a traffic-light taxonomy cut at the
// empirical tertiles of the batch scores. Collapsed tertiles fall back to
// the binary taxonomy too.
func (w *WARM) SelectPolicy(scores []float64) (model.GroupingPolicy, error) {
	n := len(scores)
	if n <= 0 {
		return model.GroupingPolicy{}, model.NewInputError("population_size", "must be positive, got %d", n)
	}

	ceiling := w.cfg.SmallSampleCeiling
	if ceiling <= 0 {
		ceiling = 30
	}

	if n < ceiling {
		return model.GroupingPolicy{
			BucketCount:       2,
			HighRiskThreshold: w.cfg.HighRiskThreshold,
			Method:            MethodBinary,
		}, nil
	}

	lower, upper := tertiles(scores)
	if lower == upper {
		// Degenerate distribution (uniform scores, or two thirds of the
		// batch on one value): the tertiles carry no information, so three
		// buckets would be arbitrary. Fall back to the fixed threshold.
		return model.GroupingPolicy{
			BucketCount:       2,
			HighRiskThreshold: w.cfg.HighRiskThreshold,
			Method:            MethodBinaryCollapsed,
		}, nil
	}
	return model.GroupingPolicy{
		BucketCount:       3,
		TertileBoundaries: [2]float64{lower, upper},
		Method:            MethodTrafficLight,
	}, nil
}

// tertiles returns the 1/3 and 2/3 empirical quantiles of the scores.
func tertiles(scores []float64) (float64, float64) {
	sorted := make([]float64, len(scores))
	copy(sorted, scores)
	sort.Float64s(sorted)

	return quantile(sorted, 1.0/3.0), quantile(sorted, 2.0/3.0)
}

// quantile computes the q-th quantile of sorted values by linear
// interpolation between closest ranks.
func quantile(sorted []float64, q float64) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	if n == 1 {
		return sorted[0]
	}
	pos := q * float64(n-1)
	lo := int(pos)
	if lo >= n-1 {
		return sorted[n-1]
	}
	frac := pos - float64(lo)
	return sorted[lo] + frac*(sorted[lo+1]-sorted[lo])
}
