// Package extract implements hybrid fact extraction from unstructured
// report text: a probabilistic semantic tier reconciled against a
// deterministic pattern tier. The semantic tier is an optional capability;
// its absence or failure silently degrades extraction to pattern-only.
package extract

import (
	"context"
	"math"

	"go.uber.org/zap"

	"github.com/sells-group/forensic-cli/internal/config"
	"github.com/sells-group/forensic-cli/internal/model"
)

// Extractor reconciles semantic and pattern extraction tiers.
type Extractor struct {
	backend   Backend // nil = pattern-only
	tolerance float64
	patConf   float64
}

// New creates an Extractor. backend may be nil.
func New(cfg config.ExtractConfig, backend Backend) *Extractor {
	tolerance := cfg.RelativeTolerance
	if tolerance <= 0 {
		tolerance = 0.02
	}
	patConf := cfg.PatternConfidence
	if patConf <= 0 {
		patConf = 0.6
	}
	return &Extractor{backend: backend, tolerance: tolerance, patConf: patConf}
}

// Result is the outcome of one extraction pass.
type Result struct {
	Candidates map[model.Attribute]model.ExtractionCandidate `json:"candidates"`
	Unresolved []model.Attribute                             `json:"unresolved"`

	// BackendDegraded is set when the semantic tier failed mid-pass and the
	// remainder of the call ran pattern-only.
	BackendDegraded bool `json:"backend_degraded,omitempty"`
}

// Extract attempts each target attribute through both tiers and reconciles.
// Backend failures never propagate: the first error disables the semantic
// tier for the remainder of this call and extraction continues.
func (e *Extractor) Extract(ctx context.Context, text string, targets []model.Attribute) Result {
	res := Result{Candidates: make(map[model.Attribute]model.ExtractionCandidate, len(targets))}

	semanticUp := e.backend != nil

	for _, attr := range targets {
		var semantic *Fact
		if semanticUp {
			question, ok := questions[attr]
			if !ok {
				question = "What is the value of " + string(attr) + "?"
			}
			fact, err := e.backend.Answer(ctx, question, text)
			if err != nil {
				// Degrade silently to pattern-only for the rest of the call.
				zap.L().Warn("extract: semantic tier unavailable, continuing pattern-only",
					zap.String("attribute", string(attr)),
					zap.Error(err),
				)
				semanticUp = false
				res.BackendDegraded = true
			} else {
				semantic = fact
			}
		}

		patternValue, patternHit := matchPattern(text, attr)

		cand, ok := e.reconcile(attr, semantic, patternValue, patternHit)
		if !ok {
			res.Unresolved = append(res.Unresolved, attr)
			continue
		}
		res.Candidates[attr] = cand
	}

	return res
}

// reconcile applies the two-tier preference rule for a single attribute.
func (e *Extractor) reconcile(attr model.Attribute, semantic *Fact, patternValue float64, patternHit bool) (model.ExtractionCandidate, bool) {
	switch {
	case semantic == nil && !patternHit:
		return model.ExtractionCandidate{}, false

	case semantic == nil:
		pv := patternValue
		return model.ExtractionCandidate{
			Attribute:    attr,
			Value:        patternValue,
			Source:       model.SourcePattern,
			Confidence:   e.patConf,
			PatternValue: &pv,
		}, true

	case !patternHit:
		sv := semantic.Value
		return model.ExtractionCandidate{
			Attribute:     attr,
			Value:         semantic.Value,
			Source:        model.SourceSemantic,
			Confidence:    semantic.Confidence,
			SemanticValue: &sv,
		}, true
	}

	sv, pv := semantic.Value, patternValue
	if withinTolerance(sv, pv, e.tolerance) {
		// Agreement: the semantic value wins (better unit/context handling).
		return model.ExtractionCandidate{
			Attribute:     attr,
			Value:         sv,
			Source:        model.SourceSemantic,
			Confidence:    semantic.Confidence,
			Agreement:     true,
			SemanticValue: &sv,
			PatternValue:  &pv,
		}, true
	}

	// Disagreement: the deterministic tier is the trusted fallback for
	// arithmetic figures. Keep both values for audit.
	zap.L().Warn("extract: tier disagreement, preferring pattern value",
		zap.String("attribute", string(attr)),
		zap.Float64("semantic", sv),
		zap.Float64("pattern", pv),
	)
	return model.ExtractionCandidate{
		Attribute:     attr,
		Value:         pv,
		Source:        model.SourcePattern,
		Confidence:    e.patConf,
		Conflict:      true,
		SemanticValue: &sv,
		PatternValue:  &pv,
	}, true
}

// withinTolerance reports whether two values agree within a relative
// tolerance of the pattern value.
func withinTolerance(semantic, pattern, tolerance float64) bool {
	if semantic == pattern {
		return true
	}
	base := math.Abs(pattern)
	if base == 0 {
		return math.Abs(semantic) <= tolerance
	}
	return math.Abs(semantic-pattern)/base <= tolerance
}

// BuildRecord converts reconciled candidates into a CompanyRecord for the
// risk model. Unresolved attributes stay absent from the record.
func BuildRecord(companyID string, res Result) model.CompanyRecord {
	rec := model.NewCompanyRecord(companyID)
	for attr, cand := range res.Candidates {
		rec.Values[attr] = cand.Value
	}
	return rec
}
