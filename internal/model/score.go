package model

// VerdictBucket is the label a GroupingPolicy assigns to a scored record.
type VerdictBucket string

// Two-bucket taxonomy (small samples).
const (
	BucketHighRisk VerdictBucket = "high_risk"
	BucketLowRisk  VerdictBucket = "low_risk"
)

// Three-bucket traffic-light taxonomy (large samples).
const (
	BucketRed    VerdictBucket = "red"
	BucketYellow VerdictBucket = "yellow"
	BucketGreen  VerdictBucket = "green"
)

// GroupingPolicy fixes the verdict taxonomy for one batch run. It is
// computed once per batch and shared read-only across every record in that
// batch; no batch ever mixes taxonomies.
type GroupingPolicy struct {
	BucketCount int `json:"bucket_count"` // 2 or 3

	// HighRiskThreshold splits the 2-bucket taxonomy (score >= threshold is
	// high risk). Unused when BucketCount is 3.
	HighRiskThreshold float64 `json:"high_risk_threshold,omitempty"`

	// TertileBoundaries are the inclusive score cut points for the 3-bucket
	// taxonomy: score <= lower is green, <= upper is yellow, otherwise red.
	// Inclusive comparison keeps records sitting exactly on a boundary in
	// the lower-risk bucket, so a zero-score record in a mostly-clean batch
	// (lower boundary 0) is still green. Unused when BucketCount is 2.
	TertileBoundaries [2]float64 `json:"tertile_boundaries,omitempty"`

	// Method records how the boundaries were chosen, for the run summary.
	Method string `json:"method"`
}

// Bucket returns the verdict bucket for a score under this policy.
func (p GroupingPolicy) Bucket(score float64) VerdictBucket {
	if p.BucketCount == 2 {
		if score >= p.HighRiskThreshold {
			return BucketHighRisk
		}
		return BucketLowRisk
	}
	switch {
	case score <= p.TertileBoundaries[0]:
		return BucketGreen
	case score <= p.TertileBoundaries[1]:
		return BucketYellow
	default:
		return BucketRed
	}
}

// RiskFinding records one triggered rule: which attribute fired, what was
// observed, the threshold it crossed, and the penalty applied.
type RiskFinding struct {
	Attribute Attribute `json:"attribute"`
	Observed  float64   `json:"observed"`
	Threshold float64   `json:"threshold"`
	Penalty   float64   `json:"penalty"`
	Rationale string    `json:"rationale"`
}

// RiskScoreResult is the immutable outcome of scoring one CompanyRecord.
// Score uses accumulated-penalty semantics: 0 is clean, 100 is maximal
// risk, clamped to [0,100].
type RiskScoreResult struct {
	CompanyID string        `json:"company_id"`
	Score     float64       `json:"score"`
	Verdict   VerdictBucket `json:"verdict"`
	Findings  []RiskFinding `json:"findings,omitempty"`

	// Incomplete is set when any rule was skipped for lack of data, so a
	// partially evaluated score is never presented as fully evaluated.
	Incomplete   bool        `json:"incomplete,omitempty"`
	SkippedRules []Attribute `json:"skipped_rules,omitempty"`
}

// ExtractionSource identifies which tier produced an extraction candidate.
type ExtractionSource string

const (
	SourceSemantic ExtractionSource = "semantic"
	SourcePattern  ExtractionSource = "pattern"
)

// ExtractionCandidate is one reconciled value for a target attribute.
type ExtractionCandidate struct {
	Attribute  Attribute        `json:"attribute"`
	Value      float64          `json:"value"`
	Source     ExtractionSource `json:"source"`
	Confidence float64          `json:"confidence"`

	// Agreement is set when both tiers produced values within tolerance;
	// Conflict when they disagreed beyond it (the pattern value wins and
	// the disagreement is preserved here for audit).
	Agreement     bool     `json:"agreement,omitempty"`
	Conflict      bool     `json:"conflict,omitempty"`
	SemanticValue *float64 `json:"semantic_value,omitempty"`
	PatternValue  *float64 `json:"pattern_value,omitempty"`
}

// ToneSignature is the emotional-valence profile of a text span.
type ToneSignature struct {
	Polarity     float64 `json:"polarity"`     // [-1, 1]
	Subjectivity float64 `json:"subjectivity"` // [0, 1]
}

// ToneAssessment pairs a tone signature with the divergence verdict against
// a quantitative score.
type ToneAssessment struct {
	Tone       ToneSignature `json:"tone"`
	Divergence bool          `json:"divergence"`
	Verdict    string        `json:"verdict"`
}
