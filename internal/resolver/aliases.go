package resolver

import (
	"os"
	"sort"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/forensic-cli/internal/model"
)

// AliasTable maps normalized header aliases to canonical attributes. It is
// built once at process start and read-only afterward, so concurrent batch
// scoring needs no synchronization around it.
type AliasTable struct {
	byAlias map[string]model.Attribute
}

// defaultAliases seeds the table with the header variants seen across real
// disclosure exports.
var defaultAliases = map[model.Attribute][]string{
	model.AttrCompany: {
		"company", "entity", "name", "firm", "company name",
	},
	model.AttrPromoterPledgingPct: {
		"pledge", "pledged", "promoter pledge", "encumbered",
		"pledge pct", "shares pledged", "promoter pledging",
	},
	model.AttrRevenue: {
		"sales", "revenue", "turnover", "net sales", "top line",
		"revenue from operations", "total revenue", "income",
	},
	model.AttrReceivables: {
		"receivables", "debtors", "trade receivables", "accounts receivable",
	},
	model.AttrInventory: {
		"inventory", "inventories", "stock", "stock in trade",
	},
	model.AttrCFO: {
		"cfo", "operating cash", "cash from operations",
		"cash flow from operating", "net cash from operating",
	},
	model.AttrEBITDA: {
		"ebitda", "operating profit", "pbit", "profit before interest",
	},
	model.AttrTotalAssets: {
		"total assets", "balance sheet total", "assets",
	},
	model.AttrNonCurrentAssets: {
		"non current assets", "fixed assets", "long term assets",
	},
	model.AttrRPTVolume: {
		"rpt", "related party", "related transaction", "rpt volume",
		"related party transactions",
	},
}

// NewAliasTable builds the default alias table.
func NewAliasTable() *AliasTable {
	t := &AliasTable{byAlias: make(map[string]model.Attribute)}
	for attr, aliases := range defaultAliases {
		for _, a := range aliases {
			t.byAlias[Normalize(a)] = attr
		}
	}
	return t
}

// aliasFile is the YAML shape of an alias override file:
//
//	revenue:
//	  - "gross billings"
//	  - "total topline"
type aliasFile map[string][]string

// LoadAliasFile merges additional aliases from a YAML file into the table.
// Unknown attribute keys are rejected so a typo cannot silently create a
// new vocabulary entry.
func (t *AliasTable) LoadAliasFile(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return eris.Wrapf(err, "resolver: read alias file %s", path)
	}

	var f aliasFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return eris.Wrapf(err, "resolver: parse alias file %s", path)
	}

	known := make(map[model.Attribute]struct{})
	for _, attr := range model.RawAttributes() {
		known[attr] = struct{}{}
	}
	known[model.AttrCompany] = struct{}{}

	for key, aliases := range f {
		attr := model.Attribute(key)
		if _, ok := known[attr]; !ok {
			return eris.Errorf("resolver: alias file %s: unknown attribute %q", path, key)
		}
		for _, a := range aliases {
			t.byAlias[Normalize(a)] = attr
		}
	}
	return nil
}

// Lookup returns the attribute for an exactly-matching normalized alias.
func (t *AliasTable) Lookup(normalized string) (model.Attribute, bool) {
	attr, ok := t.byAlias[normalized]
	return attr, ok
}

// Aliases returns every normalized alias key in sorted order, so similarity
// ties between aliases of different attributes break the same way on every
// run instead of following map iteration order.
func (t *AliasTable) Aliases() []string {
	keys := make([]string, 0, len(t.byAlias))
	for k := range t.byAlias {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
