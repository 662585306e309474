// Package sentiment scores the tone of narrative disclosure text and flags
// divergence between an upbeat tone and a poor quantitative forensic score.
package sentiment

import (
	"math"
	"strings"
	"unicode"

	"github.com/sells-group/forensic-cli/internal/config"
	"github.com/sells-group/forensic-cli/internal/model"
)

// Verdict lines for the tone signature.
const (
	VerdictPollyanna = "POLLYANNA EFFECT: highly subjective and optimistic language"
	VerdictCautious  = "HONEST/CAUTIOUS: the tone is negative or guarded"
	VerdictNeutral   = "NEUTRAL: the language is balanced"
)

// cautiousPolarityCeiling marks the polarity below which the tone reads as
// candid rather than promotional.
const cautiousPolarityCeiling = -0.05

// Lexicon word densities are small fractions of total words; these factors
// stretch them onto the signature's unit scales.
const (
	polarityScale     = 10
	subjectivityScale = 10
)

// Scorer computes tone signatures from fixed lexicons. Safe for concurrent
// use; the lexicons are read-only after construction.
type Scorer struct {
	positive   map[string]struct{}
	negative   map[string]struct{}
	subjective map[string]struct{}

	polarityThreshold     float64
	subjectivityThreshold float64
	highRiskThreshold     float64
}

// New builds a Scorer. highRiskThreshold is the quantitative score at or
// above which an upbeat tone counts as divergent.
func New(cfg config.SentimentConfig, highRiskThreshold float64) *Scorer {
	return &Scorer{
		positive:              positiveLexicon(),
		negative:              negativeLexicon(),
		subjective:            subjectiveLexicon(),
		polarityThreshold:     cfg.PolarityThreshold,
		subjectivityThreshold: cfg.SubjectivityThreshold,
		highRiskThreshold:     highRiskThreshold,
	}
}

// Analyze computes the tone signature of a text span. Blank text yields the
// neutral signature.
func (s *Scorer) Analyze(text string) model.ToneSignature {
	words := tokenize(strings.ToLower(text))
	if len(words) == 0 {
		return model.ToneSignature{}
	}

	var positive, negative, subjective int
	for _, w := range words {
		if _, ok := s.positive[w]; ok {
			positive++
		}
		if _, ok := s.negative[w]; ok {
			negative++
		}
		if _, ok := s.subjective[w]; ok {
			subjective++
		}
	}

	n := float64(len(words))
	polarity := clamp(float64(positive-negative)/n*polarityScale, -1, 1)
	subjectivity := clamp(float64(subjective)/n*subjectivityScale, 0, 1)

	return model.ToneSignature{Polarity: polarity, Subjectivity: subjectivity}
}

// Assess analyzes the text and, when a quantitative result is supplied,
// flags tone divergence: promotional language over a record whose forensic
// score already sits in high-risk territory.
func (s *Scorer) Assess(text string, result *model.RiskScoreResult) model.ToneAssessment {
	tone := s.Analyze(text)

	assessment := model.ToneAssessment{
		Tone:    tone,
		Verdict: s.verdict(tone),
	}
	if result != nil && s.pollyanna(tone) && result.Score >= s.highRiskThreshold {
		assessment.Divergence = true
	}
	return assessment
}

func (s *Scorer) pollyanna(tone model.ToneSignature) bool {
	return tone.Polarity > s.polarityThreshold && tone.Subjectivity > s.subjectivityThreshold
}

func (s *Scorer) verdict(tone model.ToneSignature) string {
	switch {
	case s.pollyanna(tone):
		return VerdictPollyanna
	case tone.Polarity < cautiousPolarityCeiling:
		return VerdictCautious
	default:
		return VerdictNeutral
	}
}

func tokenize(text string) []string {
	return strings.FieldsFunc(text, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
