package scorer

import (
	"context"
	"math"
	"sort"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/forensic-cli/internal/config"
	"github.com/sells-group/forensic-cli/internal/model"
)

// WARM scores company records against the configured rule table.
type WARM struct {
	cfg   config.ScorerConfig
	rules []rule
}

// New creates a WARM scorer from config.
func New(cfg config.ScorerConfig) *WARM {
	return &WARM{cfg: cfg, rules: ruleTable(cfg)}
}

// Score evaluates one record under a grouping policy. The record is never
// mutated; derived metrics are computed on a working copy. Rules whose
// attribute is missing are skipped and reported via Incomplete and
// SkippedRules rather than penalized or zero-defaulted.
func (w *WARM) Score(rec model.CompanyRecord, policy model.GroupingPolicy) model.RiskScoreResult {
	result := w.scoreRaw(rec)
	result.Verdict = policy.Bucket(result.Score)
	return result
}

// scoreRaw evaluates the rule table without assigning a verdict bucket.
// Batch scoring uses this first pass to build the score distribution the
// grouping policy is derived from.
func (w *WARM) scoreRaw(rec model.CompanyRecord) model.RiskScoreResult {
	derived := deriveMetrics(rec)

	result := model.RiskScoreResult{CompanyID: rec.CompanyID}
	skipped := make(map[model.Attribute]struct{})
	fired := make(map[string]struct{})

	var total float64
	for _, r := range w.rules {
		if _, done := fired[r.group]; done {
			continue
		}
		v, ok := derived.Get(r.attr)
		if !ok {
			skipped[r.attr] = struct{}{}
			continue
		}
		if !r.match(v, r.threshold) {
			continue
		}
		fired[r.group] = struct{}{}
		total += r.penalty
		result.Findings = append(result.Findings, model.RiskFinding{
			Attribute: r.attr,
			Observed:  v,
			Threshold: r.threshold,
			Penalty:   r.penalty,
			Rationale: r.rationale(v),
		})
	}

	// Accumulated-penalty semantics: 0 is clean, 100 is maximal risk.
	result.Score = math.Min(100, math.Max(0, total))

	if len(skipped) > 0 {
		result.Incomplete = true
		for attr := range skipped {
			result.SkippedRules = append(result.SkippedRules, attr)
		}
		sort.Slice(result.SkippedRules, func(i, j int) bool {
			return result.SkippedRules[i] < result.SkippedRules[j]
		})
	}

	return result
}

// BatchResult holds the outcome of scoring one batch under a single policy.
type BatchResult struct {
	Policy  model.GroupingPolicy    `json:"policy"`
	Results []model.RiskScoreResult `json:"results"`
}

// ScoreBatch scores every record concurrently, then selects one grouping
// policy from the resulting score distribution and labels all records under
// it. The policy is computed exactly once per batch; no record is ever
// labeled under a different taxonomy than its batch mates.
func (w *WARM) ScoreBatch(ctx context.Context, records []model.CompanyRecord, maxConcurrent int) (*BatchResult, error) {
	if len(records) == 0 {
		return nil, model.NewInputError("records", "population size must be positive, got 0")
	}
	if maxConcurrent <= 0 {
		maxConcurrent = 8
	}

	results := make([]model.RiskScoreResult, len(records))

	g, _ := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrent)
	for i, rec := range records {
		g.Go(func() error {
			results[i] = w.scoreRaw(rec)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	scores := make([]float64, len(results))
	for i := range results {
		scores[i] = results[i].Score
	}

	policy, err := w.SelectPolicy(scores)
	if err != nil {
		return nil, err
	}

	incomplete := 0
	for i := range results {
		results[i].Verdict = policy.Bucket(results[i].Score)
		if results[i].Incomplete {
			incomplete++
		}
	}

	zap.L().Info("scorer: batch scoring complete",
		zap.Int("records", len(results)),
		zap.Int("incomplete", incomplete),
		zap.String("grouping_method", policy.Method),
		zap.Int("bucket_count", policy.BucketCount),
	)

	return &BatchResult{Policy: policy, Results: results}, nil
}
