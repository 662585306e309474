// Package model defines the canonical vocabulary shared by every forensic
// scoring component: attributes, company records, findings, and score results.
package model

// Attribute is a canonical financial attribute identifier. Every
// heterogeneous input schema is normalized into this fixed set before any
// scoring or extraction logic runs.
type Attribute string

// Raw attributes populated directly from disclosures.
const (
	AttrCompany             Attribute = "company"
	AttrRevenue             Attribute = "revenue"
	AttrReceivables         Attribute = "receivables"
	AttrInventory           Attribute = "inventory"
	AttrCFO                 Attribute = "cfo"
	AttrEBITDA              Attribute = "ebitda"
	AttrTotalAssets         Attribute = "total_assets"
	AttrNonCurrentAssets    Attribute = "non_current_assets"
	AttrPromoterPledgingPct Attribute = "promoter_pledging_pct"
	AttrRPTVolume           Attribute = "rpt_volume"
)

// Derived attributes computed from raw values before rule evaluation.
const (
	AttrDSO             Attribute = "dso"
	AttrCashQuality     Attribute = "cash_quality"
	AttrRPTIntensityPct Attribute = "rpt_intensity_pct"
	AttrAQI             Attribute = "aqi"
)

// RawAttributes lists every numeric attribute a batch table or extraction
// pass may populate, in canonical column order.
func RawAttributes() []Attribute {
	return []Attribute{
		AttrPromoterPledgingPct,
		AttrRevenue,
		AttrReceivables,
		AttrInventory,
		AttrCFO,
		AttrEBITDA,
		AttrTotalAssets,
		AttrNonCurrentAssets,
		AttrRPTVolume,
	}
}

// DerivedAttributes lists attributes computed by the risk model.
func DerivedAttributes() []Attribute {
	return []Attribute{AttrDSO, AttrCashQuality, AttrRPTIntensityPct, AttrAQI}
}
