package scorer

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/forensic-cli/internal/config"
	"github.com/sells-group/forensic-cli/internal/model"
)

func defaultTestConfig() config.ScorerConfig {
	return config.ScorerConfig{
		PledgeCriticalPct:     50,
		PledgeCriticalPenalty: 25,
		PledgeModeratePct:     20,
		PledgeModeratePenalty: 10,

		CashQualityCriticalRatio:   0.5,
		CashQualityCriticalPenalty: 30,
		CashQualityWeakRatio:       0.8,
		CashQualityWeakPenalty:     15,

		DSODays:    120,
		DSOPenalty: 20,

		RPTIntensityPct:     10,
		RPTIntensityPenalty: 10,

		HighRiskThreshold:  50,
		SmallSampleCeiling: 30,
	}
}

func binaryPolicy() model.GroupingPolicy {
	return model.GroupingPolicy{
		BucketCount:       2,
		HighRiskThreshold: 50,
		Method:            MethodBinary,
	}
}

// recordWithRatios builds a record carrying derived ratios directly, the
// shape the deep-dive path produces.
func recordWithRatios(pledge, dso, cashQuality, rptIntensity float64) model.CompanyRecord {
	rec := model.NewCompanyRecord("test-co")
	rec.Values[model.AttrPromoterPledgingPct] = pledge
	rec.Values[model.AttrDSO] = dso
	rec.Values[model.AttrCashQuality] = cashQuality
	rec.Values[model.AttrRPTIntensityPct] = rptIntensity
	return rec
}

func TestScoreAllPenaltiesTrigger(t *testing.T) {
	w := New(defaultTestConfig())

	// Pledge 60 (+25), DSO 150 (+20), CFO/EBITDA 0.5 (+15 weak tier,
	// not the <0.5 critical tier), RPT 15% (+10) = 70.
	rec := recordWithRatios(60, 150, 0.5, 15)
	res := w.Score(rec, binaryPolicy())

	assert.InDelta(t, 70, res.Score, 0.001)
	assert.Equal(t, model.BucketHighRisk, res.Verdict)
	assert.Len(t, res.Findings, 4)
	assert.False(t, res.Incomplete)
}

func TestScoreCleanRecord(t *testing.T) {
	w := New(defaultTestConfig())

	rec := recordWithRatios(15, 90, 1.2, 5)
	res := w.Score(rec, binaryPolicy())

	assert.InDelta(t, 0, res.Score, 0.001)
	assert.Equal(t, model.BucketLowRisk, res.Verdict)
	assert.Empty(t, res.Findings)
	assert.False(t, res.Incomplete)
}

func TestScoreCriticalCashQualityTier(t *testing.T) {
	w := New(defaultTestConfig())

	rec := recordWithRatios(0, 0, 0.3, 0)
	res := w.Score(rec, binaryPolicy())

	// Only the critical tier fires, never both cash-quality tiers.
	assert.InDelta(t, 30, res.Score, 0.001)
	require.Len(t, res.Findings, 1)
	assert.InDelta(t, 30, res.Findings[0].Penalty, 0.001)
}

func TestScoreClampedToHundred(t *testing.T) {
	cfg := defaultTestConfig()
	cfg.PledgeCriticalPenalty = 90
	cfg.CashQualityCriticalPenalty = 90
	w := New(cfg)

	rec := recordWithRatios(99, 400, 0.1, 50)
	res := w.Score(rec, binaryPolicy())

	assert.InDelta(t, 100, res.Score, 0.001)
}

func TestScoreMissingAttributeSkipsRule(t *testing.T) {
	w := New(defaultTestConfig())

	rec := model.NewCompanyRecord("partial-co")
	rec.Values[model.AttrDSO] = 150
	res := w.Score(rec, binaryPolicy())

	// DSO fires, everything else is skipped, never penalized as if present.
	assert.InDelta(t, 20, res.Score, 0.001)
	assert.True(t, res.Incomplete)
	assert.Contains(t, res.SkippedRules, model.AttrPromoterPledgingPct)
	assert.Contains(t, res.SkippedRules, model.AttrCashQuality)
	assert.Contains(t, res.SkippedRules, model.AttrRPTIntensityPct)
	assert.NotContains(t, res.SkippedRules, model.AttrDSO)
}

func TestScoreIdempotent(t *testing.T) {
	w := New(defaultTestConfig())
	rec := recordWithRatios(60, 150, 0.5, 15)
	policy := binaryPolicy()

	first := w.Score(rec, policy)
	second := w.Score(rec, policy)

	assert.Equal(t, first, second)
}

func TestScoreDoesNotMutateRecord(t *testing.T) {
	w := New(defaultTestConfig())

	rec := model.NewCompanyRecord("immutable-co")
	rec.Values[model.AttrRevenue] = 12000
	rec.Values[model.AttrReceivables] = 3500

	_ = w.Score(rec, binaryPolicy())

	// Derived DSO must not leak back into the input record.
	assert.False(t, rec.Has(model.AttrDSO))
	assert.Len(t, rec.Values, 2)
}

func TestDeriveMetrics(t *testing.T) {
	rec := model.NewCompanyRecord("derive-co")
	rec.Values[model.AttrRevenue] = 12000
	rec.Values[model.AttrReceivables] = 3500
	rec.Values[model.AttrCFO] = 2000
	rec.Values[model.AttrEBITDA] = 4000
	rec.Values[model.AttrRPTVolume] = 1200
	rec.Values[model.AttrNonCurrentAssets] = 35000
	rec.Values[model.AttrTotalAssets] = 50000

	derived := deriveMetrics(rec)

	dso, ok := derived.Get(model.AttrDSO)
	require.True(t, ok)
	assert.InDelta(t, 3500.0/12000*365, dso, 0.01)

	cq, ok := derived.Get(model.AttrCashQuality)
	require.True(t, ok)
	assert.InDelta(t, 0.5, cq, 0.001)

	rpt, ok := derived.Get(model.AttrRPTIntensityPct)
	require.True(t, ok)
	assert.InDelta(t, 10, rpt, 0.001)

	aqi, ok := derived.Get(model.AttrAQI)
	require.True(t, ok)
	assert.InDelta(t, 0.7, aqi, 0.001)
}

func TestDeriveMetricsZeroDenominators(t *testing.T) {
	rec := model.NewCompanyRecord("zero-co")
	rec.Values[model.AttrRevenue] = 0
	rec.Values[model.AttrReceivables] = 3500
	rec.Values[model.AttrCFO] = 2000
	rec.Values[model.AttrEBITDA] = 0

	derived := deriveMetrics(rec)

	// Zero denominators leave the metric missing, not zero.
	assert.False(t, derived.Has(model.AttrDSO))
	assert.False(t, derived.Has(model.AttrCashQuality))
}

func TestSelectPolicySmallSample(t *testing.T) {
	w := New(defaultTestConfig())

	scores := make([]float64, 29)
	policy, err := w.SelectPolicy(scores)
	require.NoError(t, err)

	assert.Equal(t, 2, policy.BucketCount)
	assert.InDelta(t, 50, policy.HighRiskThreshold, 0.001)
	assert.Equal(t, MethodBinary, policy.Method)
}

func TestSelectPolicyLargeSample(t *testing.T) {
	w := New(defaultTestConfig())

	scores := make([]float64, 30)
	for i := range scores {
		scores[i] = float64(i)
	}
	policy, err := w.SelectPolicy(scores)
	require.NoError(t, err)

	assert.Equal(t, 3, policy.BucketCount)
	assert.Equal(t, MethodTrafficLight, policy.Method)
	assert.Less(t, policy.TertileBoundaries[0], policy.TertileBoundaries[1])
}

func TestSelectPolicyCollapsedTertiles(t *testing.T) {
	w := New(defaultTestConfig())

	// All-identical scores: both tertiles land on the same value.
	scores := make([]float64, 30)
	policy, err := w.SelectPolicy(scores)
	require.NoError(t, err)

	assert.Equal(t, 2, policy.BucketCount)
	assert.Equal(t, MethodBinaryCollapsed, policy.Method)
	assert.InDelta(t, 50, policy.HighRiskThreshold, 0.001)
}

func TestSelectPolicySkewedCleanMajority(t *testing.T) {
	w := New(defaultTestConfig())

	// Two thirds of the batch is clean, so both tertiles collapse to 0 and
	// the traffic-light taxonomy degenerates.
	scores := make([]float64, 30)
	for i := 20; i < 30; i++ {
		scores[i] = 70
	}
	policy, err := w.SelectPolicy(scores)
	require.NoError(t, err)

	assert.Equal(t, 2, policy.BucketCount)
	assert.Equal(t, MethodBinaryCollapsed, policy.Method)
	assert.Equal(t, model.BucketLowRisk, policy.Bucket(0))
	assert.Equal(t, model.BucketHighRisk, policy.Bucket(70))
}

func TestSelectPolicyEmptyPopulation(t *testing.T) {
	w := New(defaultTestConfig())

	_, err := w.SelectPolicy(nil)
	require.Error(t, err)

	var inputErr *model.InputError
	assert.ErrorAs(t, err, &inputErr)
}

func TestScoreBatchSinglePolicy(t *testing.T) {
	w := New(defaultTestConfig())

	// 40 records spanning clean to critical: large-sample protocol.
	var records []model.CompanyRecord
	for i := 0; i < 40; i++ {
		rec := recordWithRatios(float64(i*2), float64(60+i*3), 1.0, float64(i%20))
		rec.CompanyID = fmt.Sprintf("co-%02d", i)
		records = append(records, rec)
	}

	batch, err := w.ScoreBatch(context.Background(), records, 4)
	require.NoError(t, err)
	require.Len(t, batch.Results, 40)

	assert.Equal(t, 3, batch.Policy.BucketCount)
	for _, res := range batch.Results {
		assert.GreaterOrEqual(t, res.Score, 0.0)
		assert.LessOrEqual(t, res.Score, 100.0)
		// Every verdict comes from the one traffic-light taxonomy.
		assert.Contains(t, []model.VerdictBucket{
			model.BucketRed, model.BucketYellow, model.BucketGreen,
		}, res.Verdict)
	}

	// Output order matches input order.
	assert.Equal(t, "co-00", batch.Results[0].CompanyID)
	assert.Equal(t, "co-39", batch.Results[39].CompanyID)
}

func TestScoreBatchAllCleanLargeBatch(t *testing.T) {
	w := New(defaultTestConfig())

	// 30 clean records: a uniform zero distribution must never label clean
	// companies as the highest-risk bucket.
	var records []model.CompanyRecord
	for i := 0; i < 30; i++ {
		rec := recordWithRatios(15, 90, 1.2, 5)
		rec.CompanyID = fmt.Sprintf("clean-%02d", i)
		records = append(records, rec)
	}

	batch, err := w.ScoreBatch(context.Background(), records, 4)
	require.NoError(t, err)

	assert.Equal(t, 2, batch.Policy.BucketCount)
	assert.Equal(t, MethodBinaryCollapsed, batch.Policy.Method)
	for _, res := range batch.Results {
		assert.InDelta(t, 0, res.Score, 0.001)
		assert.Equal(t, model.BucketLowRisk, res.Verdict)
	}
}

func TestScoreBatchSmallSampleBinary(t *testing.T) {
	w := New(defaultTestConfig())

	records := []model.CompanyRecord{
		recordWithRatios(60, 150, 0.5, 15), // 70 points
		recordWithRatios(15, 90, 1.2, 5),   // clean
	}
	records[0].CompanyID = "risky"
	records[1].CompanyID = "clean"

	batch, err := w.ScoreBatch(context.Background(), records, 2)
	require.NoError(t, err)

	assert.Equal(t, 2, batch.Policy.BucketCount)
	assert.Equal(t, model.BucketHighRisk, batch.Results[0].Verdict)
	assert.Equal(t, model.BucketLowRisk, batch.Results[1].Verdict)
}

func TestScoreBatchEmpty(t *testing.T) {
	w := New(defaultTestConfig())

	_, err := w.ScoreBatch(context.Background(), nil, 4)
	require.Error(t, err)

	var inputErr *model.InputError
	assert.ErrorAs(t, err, &inputErr)
}

func TestNarrative(t *testing.T) {
	assert.Equal(t, "HIGH PROBABILITY OF MANIPULATION", Narrative(70))
	assert.Equal(t, "MODERATE RISK - monitor closely", Narrative(40))
	assert.Equal(t, "LOW RISK - clean health", Narrative(10))
}

func TestQuantile(t *testing.T) {
	sorted := []float64{0, 10, 20, 30, 40, 50, 60, 70, 80, 90}

	assert.InDelta(t, 30, quantile(sorted, 1.0/3.0), 0.001)
	assert.InDelta(t, 60, quantile(sorted, 2.0/3.0), 0.001)
	assert.InDelta(t, 0, quantile(sorted, 0), 0.001)
	assert.InDelta(t, 90, quantile(sorted, 1), 0.001)
}
