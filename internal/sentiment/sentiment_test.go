package sentiment

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sells-group/forensic-cli/internal/config"
	"github.com/sells-group/forensic-cli/internal/model"
)

func testScorer() *Scorer {
	return New(config.SentimentConfig{
		PolarityThreshold:     0.1,
		SubjectivityThreshold: 0.5,
	}, 50)
}

// pollyannaText is dense with optimistic and hedging vocabulary, the way a
// promotional outlook section reads.
const pollyannaText = `We expect exceptional growth and believe our robust
strategy should deliver remarkable success. We anticipate strong prospects
and a promising outlook, and we are optimistic this exciting momentum will
likely improve further.`

const cautiousText = `Challenging market conditions caused a decline in
margins. The downturn and continuing headwinds create difficulty, and we
recorded an impairment loss. Weak demand remains a concern.`

func TestAnalyzeEmptyTextNeutral(t *testing.T) {
	s := testScorer()

	for _, text := range []string{"", "   ", "\n\t"} {
		tone := s.Analyze(text)
		assert.Zero(t, tone.Polarity)
		assert.Zero(t, tone.Subjectivity)
	}
}

func TestAnalyzePollyannaSignature(t *testing.T) {
	s := testScorer()

	tone := s.Analyze(pollyannaText)
	assert.Greater(t, tone.Polarity, 0.1)
	assert.Greater(t, tone.Subjectivity, 0.5)
}

func TestAnalyzeCautiousSignature(t *testing.T) {
	s := testScorer()

	tone := s.Analyze(cautiousText)
	assert.Less(t, tone.Polarity, -0.05)
}

func TestAnalyzeBounds(t *testing.T) {
	s := testScorer()

	// Pure lexicon words push the raw ratios past the unit scales.
	tone := s.Analyze(strings.Repeat("excellent growth strong ", 40))
	assert.InDelta(t, 1, tone.Polarity, 0.001)

	tone = s.Analyze(strings.Repeat("decline loss weak ", 40))
	assert.InDelta(t, -1, tone.Polarity, 0.001)

	tone = s.Analyze(strings.Repeat("maybe perhaps possibly ", 40))
	assert.InDelta(t, 1, tone.Subjectivity, 0.001)
}

func TestAssessDivergence(t *testing.T) {
	s := testScorer()

	risky := &model.RiskScoreResult{CompanyID: "acme", Score: 70}
	got := s.Assess(pollyannaText, risky)

	assert.True(t, got.Divergence)
	assert.Equal(t, VerdictPollyanna, got.Verdict)
}

func TestAssessNoDivergenceOnCleanScore(t *testing.T) {
	s := testScorer()

	clean := &model.RiskScoreResult{CompanyID: "acme", Score: 10}
	got := s.Assess(pollyannaText, clean)

	// Upbeat tone over a clean record is not divergent.
	assert.False(t, got.Divergence)
	assert.Equal(t, VerdictPollyanna, got.Verdict)
}

func TestAssessNoDivergenceOnCautiousTone(t *testing.T) {
	s := testScorer()

	risky := &model.RiskScoreResult{CompanyID: "acme", Score: 70}
	got := s.Assess(cautiousText, risky)

	// Honest negative tone over a risky record: candid, not divergent.
	assert.False(t, got.Divergence)
	assert.Equal(t, VerdictCautious, got.Verdict)
}

func TestAssessWithoutResult(t *testing.T) {
	s := testScorer()

	got := s.Assess(pollyannaText, nil)
	assert.False(t, got.Divergence)
	assert.Equal(t, VerdictPollyanna, got.Verdict)
}

func TestAssessNeutralVerdict(t *testing.T) {
	s := testScorer()

	got := s.Assess("the board met four times during the year", nil)
	assert.Equal(t, VerdictNeutral, got.Verdict)
}
