// Package resolver maps arbitrary, inconsistently-named input column headers
// to the canonical financial attribute set. It is a pure function over a
// static alias table: exact normalized lookup first, trigram similarity
// above a configured floor second, Unresolved otherwise.
package resolver

import (
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/sells-group/forensic-cli/internal/config"
	"github.com/sells-group/forensic-cli/internal/model"
)

// Match records how one raw header resolved.
type Match struct {
	RawHeader  string          `json:"raw_header"`
	Attribute  model.Attribute `json:"attribute"`
	Similarity float64         `json:"similarity"` // 1.0 for exact alias hits
	Fuzzy      bool            `json:"fuzzy"`
}

// Resolution is the outcome of resolving a header row.
type Resolution struct {
	Matches  map[string]Match `json:"matches"`  // raw header -> match
	Unmapped []string         `json:"unmapped"` // headers that stayed unresolved
}

// Resolver resolves raw headers against an alias table.
type Resolver struct {
	table *AliasTable
	floor float64
}

// New creates a Resolver from config, loading the optional alias override
// file when one is configured.
func New(cfg config.ResolverConfig) (*Resolver, error) {
	table := NewAliasTable()
	if cfg.AliasFile != "" {
		if err := table.LoadAliasFile(cfg.AliasFile); err != nil {
			return nil, err
		}
	}
	return &Resolver{table: table, floor: cfg.SimilarityFloor}, nil
}

// Resolve maps each raw header to a canonical attribute or leaves it
// unmapped. Unmapped headers are reported, not fatal: records missing
// canonical attributes still flow through scoring as partial records.
func (r *Resolver) Resolve(headers []string) Resolution {
	res := Resolution{Matches: make(map[string]Match, len(headers))}

	for _, raw := range headers {
		norm := Normalize(raw)
		if norm == "" {
			res.Unmapped = append(res.Unmapped, raw)
			continue
		}

		if attr, ok := r.table.Lookup(norm); ok {
			res.Matches[raw] = Match{RawHeader: raw, Attribute: attr, Similarity: 1.0}
			continue
		}

		// Substring containment catches verbose headers like
		// "Trade Receivables (Rs Cr)" whose alias is embedded whole.
		if m, ok := r.containsAlias(raw, norm); ok {
			res.Matches[raw] = m
			continue
		}

		if m, ok := r.bestFuzzyMatch(raw, norm); ok {
			res.Matches[raw] = m
			continue
		}

		res.Unmapped = append(res.Unmapped, raw)
	}

	if len(res.Unmapped) > 0 {
		zap.L().Warn("resolver: unmapped columns",
			zap.Strings("headers", res.Unmapped),
		)
	}

	return res
}

// containsAlias matches headers that contain a full alias as a substring.
// The longest contained alias wins ("related party transactions" beats "rpt").
func (r *Resolver) containsAlias(raw, norm string) (Match, bool) {
	bestLen := 0
	var bestAttr model.Attribute
	for _, alias := range r.table.Aliases() {
		if len(alias) > bestLen && strings.Contains(norm, alias) {
			bestLen = len(alias)
			bestAttr, _ = r.table.Lookup(alias)
		}
	}
	if bestLen == 0 {
		return Match{}, false
	}
	return Match{RawHeader: raw, Attribute: bestAttr, Similarity: 1.0, Fuzzy: true}, true
}

// bestFuzzyMatch scans all aliases for the highest trigram similarity and
// accepts it only above the configured floor.
func (r *Resolver) bestFuzzyMatch(raw, norm string) (Match, bool) {
	var bestAlias string
	bestSim := 0.0
	for _, alias := range r.table.Aliases() {
		if sim := Similarity(norm, alias); sim > bestSim {
			bestSim = sim
			bestAlias = alias
		}
	}
	if bestSim < r.floor {
		return Match{}, false
	}
	attr, _ := r.table.Lookup(bestAlias)
	return Match{RawHeader: raw, Attribute: attr, Similarity: bestSim, Fuzzy: true}, true
}

// RowWarning describes a cell that could not be converted to a number. The
// record is still produced, degraded to a partial record.
type RowWarning struct {
	Row    int             `json:"row"`
	Header string          `json:"header"`
	Attr   model.Attribute `json:"attribute"`
	Value  string          `json:"value"`
}

// BuildRecords converts a raw table (header row + data rows) into canonical
// CompanyRecords using a Resolution. Blank cells are treated as missing.
// Non-numeric cells for numeric attributes are skipped and reported as
// warnings rather than aborting the batch.
func BuildRecords(res Resolution, headers []string, rows [][]string) ([]model.CompanyRecord, []RowWarning) {
	records := make([]model.CompanyRecord, 0, len(rows))
	var warnings []RowWarning

	for i, row := range rows {
		rec := model.NewCompanyRecord("")
		for j, raw := range headers {
			if j >= len(row) {
				break
			}
			cell := strings.TrimSpace(row[j])
			if cell == "" {
				continue
			}
			m, ok := res.Matches[raw]
			if !ok {
				continue
			}
			if m.Attribute == model.AttrCompany {
				rec.CompanyID = cell
				continue
			}
			v, err := strconv.ParseFloat(strings.ReplaceAll(cell, ",", ""), 64)
			if err != nil {
				warnings = append(warnings, RowWarning{
					Row: i, Header: raw, Attr: m.Attribute, Value: cell,
				})
				continue
			}
			rec.Values[m.Attribute] = v
		}
		if rec.CompanyID == "" {
			rec.CompanyID = "row-" + strconv.Itoa(i+1)
		}
		records = append(records, rec)
	}

	return records, warnings
}
