package extract

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/sells-group/forensic-cli/internal/model"
)

// patternAnchors maps each target attribute to the labeled-number keywords
// searched for in report text, in priority order. The first anchor that
// matches wins.
var patternAnchors = map[model.Attribute][]string{
	model.AttrPromoterPledgingPct: {"shares pledged", "promoter pledge", "encumbered", "pledge"},
	model.AttrRevenue:             {"revenue from operations", "total revenue", "net sales", "turnover"},
	model.AttrReceivables:         {"trade receivables", "debtors"},
	model.AttrInventory:           {"inventories", "stock-in-trade"},
	model.AttrCFO:                 {"net cash from operating", "net cash generated", "cash flow from operating"},
	model.AttrEBITDA:              {"ebitda", "operating profit"},
	model.AttrTotalAssets:         {"total assets"},
	model.AttrNonCurrentAssets:    {"non-current assets", "fixed assets"},
	model.AttrRPTVolume:           {"related party", "rpt"},
}

// anchorPatterns holds the compiled regex per attribute, built once at
// package init and read-only afterward.
var anchorPatterns = compileAnchors()

func compileAnchors() map[model.Attribute][]*regexp.Regexp {
	out := make(map[model.Attribute][]*regexp.Regexp, len(patternAnchors))
	for attr, anchors := range patternAnchors {
		compiled := make([]*regexp.Regexp, 0, len(anchors))
		for _, anchor := range anchors {
			// A labeled number: the keyword followed by separators and a
			// comma-grouped figure, e.g. "Trade Receivables: 3,500.25".
			compiled = append(compiled, regexp.MustCompile(
				`(?i)`+regexp.QuoteMeta(anchor)+`[:\s\-\|]+([\d,]+\.?\d*)`,
			))
		}
		out[attr] = compiled
	}
	return out
}

// matchPattern runs the deterministic tier for one attribute: the first
// anchored figure found in the text, comma-stripped and parsed.
func matchPattern(text string, attr model.Attribute) (float64, bool) {
	for _, re := range anchorPatterns[attr] {
		m := re.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		v, err := strconv.ParseFloat(strings.ReplaceAll(m[1], ",", ""), 64)
		if err != nil {
			continue
		}
		return v, true
	}
	return 0, false
}
