// Package scorer implements the weighted-attribute risk model (WARM):
// additive penalty-point scoring over canonical financial attributes, with
// adaptive verdict grouping by batch population size.
package scorer

import (
	"fmt"

	"github.com/sells-group/forensic-cli/internal/config"
	"github.com/sells-group/forensic-cli/internal/model"
)

// rule is one threshold check in the WARM rule table. Rules are evaluated
// in order; within a tier group only the first matching rule fires.
type rule struct {
	attr      model.Attribute
	group     string // rules in the same group are mutually exclusive tiers
	penalty   float64
	threshold float64
	match     func(v, threshold float64) bool
	rationale func(v float64) string
}

func above(v, threshold float64) bool { return v > threshold }
func below(v, threshold float64) bool { return v < threshold }

// ruleTable builds the ordered rule table from config. Thresholds and
// penalties are configuration, not hard-coded at evaluation sites.
func ruleTable(cfg config.ScorerConfig) []rule {
	return []rule{
		{
			attr: model.AttrPromoterPledgingPct, group: "pledge",
			penalty: cfg.PledgeCriticalPenalty, threshold: cfg.PledgeCriticalPct, match: above,
			rationale: func(v float64) string {
				return fmt.Sprintf("critical pledge pressure: %.1f%% of promoter shares are pledged", v)
			},
		},
		{
			attr: model.AttrPromoterPledgingPct, group: "pledge",
			penalty: cfg.PledgeModeratePenalty, threshold: cfg.PledgeModeratePct, match: above,
			rationale: func(v float64) string {
				return fmt.Sprintf("moderate pledge: %.1f%% of promoter shares are pledged", v)
			},
		},
		{
			attr: model.AttrCashQuality, group: "cash_quality",
			penalty: cfg.CashQualityCriticalPenalty, threshold: cfg.CashQualityCriticalRatio, match: below,
			rationale: func(v float64) string {
				return fmt.Sprintf("fake profit alert: cash quality (CFO/EBITDA) is %.2f", v)
			},
		},
		{
			attr: model.AttrCashQuality, group: "cash_quality",
			penalty: cfg.CashQualityWeakPenalty, threshold: cfg.CashQualityWeakRatio, match: below,
			rationale: func(v float64) string {
				return fmt.Sprintf("weak cash conversion: CFO/EBITDA is %.2f", v)
			},
		},
		{
			attr: model.AttrDSO, group: "dso",
			penalty: cfg.DSOPenalty, threshold: cfg.DSODays, match: above,
			rationale: func(v float64) string {
				return fmt.Sprintf("aggressive revenue recognition: sales take %.0f days to collect", v)
			},
		},
		{
			attr: model.AttrRPTIntensityPct, group: "rpt",
			penalty: cfg.RPTIntensityPenalty, threshold: cfg.RPTIntensityPct, match: above,
			rationale: func(v float64) string {
				return fmt.Sprintf("leakage risk: %.1f%% of sales with related parties", v)
			},
		},
	}
}

// deriveMetrics computes the derived forensic ratios from raw attributes on
// a working copy of the record. A derived metric whose inputs are missing
// or whose denominator is non-positive stays missing; it is never defaulted
// to zero.
func deriveMetrics(rec model.CompanyRecord) model.CompanyRecord {
	out := rec.Clone()

	revenue, hasRevenue := rec.Get(model.AttrRevenue)

	if recv, ok := rec.Get(model.AttrReceivables); ok && hasRevenue && revenue > 0 {
		out.Values[model.AttrDSO] = recv / revenue * 365
	}
	if cfo, ok := rec.Get(model.AttrCFO); ok {
		if ebitda, ok := rec.Get(model.AttrEBITDA); ok && ebitda > 0 {
			out.Values[model.AttrCashQuality] = cfo / ebitda
		}
	}
	if rpt, ok := rec.Get(model.AttrRPTVolume); ok && hasRevenue && revenue > 0 {
		out.Values[model.AttrRPTIntensityPct] = rpt / revenue * 100
	}
	if nca, ok := rec.Get(model.AttrNonCurrentAssets); ok {
		if ta, ok := rec.Get(model.AttrTotalAssets); ok && ta > 0 {
			out.Values[model.AttrAQI] = nca / ta
		}
	}

	// A ratio passed in directly (e.g. from a deep-dive extraction) survives
	// via the clone when its raw components are absent.
	return out
}
