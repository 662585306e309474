package resolver

import (
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/forensic-cli/internal/config"
	"github.com/sells-group/forensic-cli/internal/model"
)

func testResolver(t *testing.T) *Resolver {
	t.Helper()
	r, err := New(config.ResolverConfig{SimilarityFloor: 0.55})
	require.NoError(t, err)
	return r
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Net Sales", "net sales"},
		{"  Promoter Pledge (%)  ", "promoter pledge"},
		{"Trade_Receivables", "trade receivables"},
		{"CFO", "cfo"},
		{"---", ""},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, Normalize(tt.in))
		})
	}
}

func TestSimilarity(t *testing.T) {
	assert.InDelta(t, 1.0, Similarity("revenue", "revenue"), 0.001)
	assert.Equal(t, 0.0, Similarity("", "revenue"))
	assert.Greater(t, Similarity("revenue", "revenues"), 0.55)
	assert.Less(t, Similarity("revenue", "inventory"), 0.3)
}

func TestResolveExactSynonyms(t *testing.T) {
	r := testResolver(t)

	res := r.Resolve([]string{"Net Sales", "Trade Receivables", "EBITDA", "Company"})
	require.Empty(t, res.Unmapped)

	assert.Equal(t, model.AttrRevenue, res.Matches["Net Sales"].Attribute)
	assert.Equal(t, model.AttrReceivables, res.Matches["Trade Receivables"].Attribute)
	assert.Equal(t, model.AttrEBITDA, res.Matches["EBITDA"].Attribute)
	assert.Equal(t, model.AttrCompany, res.Matches["Company"].Attribute)
	assert.False(t, res.Matches["Net Sales"].Fuzzy)
}

func TestResolveContainedAlias(t *testing.T) {
	r := testResolver(t)

	res := r.Resolve([]string{
		"Revenue from Operations (Rs Cr)",
		"Non-Current Assets FY24",
		"Related Party Transactions Volume",
	})
	require.Empty(t, res.Unmapped)

	assert.Equal(t, model.AttrRevenue, res.Matches["Revenue from Operations (Rs Cr)"].Attribute)
	assert.Equal(t, model.AttrNonCurrentAssets, res.Matches["Non-Current Assets FY24"].Attribute)
	assert.Equal(t, model.AttrRPTVolume, res.Matches["Related Party Transactions Volume"].Attribute)
}

func TestResolveFuzzyAboveFloor(t *testing.T) {
	r := testResolver(t)

	res := r.Resolve([]string{"Revenues", "Inventorie"})
	require.Empty(t, res.Unmapped)

	assert.Equal(t, model.AttrRevenue, res.Matches["Revenues"].Attribute)
	assert.True(t, res.Matches["Revenues"].Fuzzy)
	assert.GreaterOrEqual(t, res.Matches["Revenues"].Similarity, 0.55)
	assert.Equal(t, model.AttrInventory, res.Matches["Inventorie"].Attribute)
}

func TestAliasesSorted(t *testing.T) {
	aliases := NewAliasTable().Aliases()
	assert.True(t, sort.StringsAreSorted(aliases))
}

func TestResolveDeterministic(t *testing.T) {
	r := testResolver(t)

	// Fuzzy and containment matches must not depend on map iteration order:
	// the same headers resolve identically across repeated runs.
	headers := []string{"Revenues", "Stock in Trade FY24", "Related Pty Transactions"}
	first := r.Resolve(headers)
	for i := 0; i < 50; i++ {
		assert.Equal(t, first, r.Resolve(headers))
	}
}

func TestResolveUnmappedBelowFloor(t *testing.T) {
	r := testResolver(t)

	res := r.Resolve([]string{"Quarterly Dividend Yield", "zzz"})
	assert.Empty(t, res.Matches)
	assert.ElementsMatch(t, []string{"Quarterly Dividend Yield", "zzz"}, res.Unmapped)
}

func TestLoadAliasFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "aliases.yaml")
	require.NoError(t, os.WriteFile(path, []byte("revenue:\n  - gross billings\n"), 0644))

	r, err := New(config.ResolverConfig{SimilarityFloor: 0.55, AliasFile: path})
	require.NoError(t, err)

	res := r.Resolve([]string{"Gross Billings"})
	require.Empty(t, res.Unmapped)
	assert.Equal(t, model.AttrRevenue, res.Matches["Gross Billings"].Attribute)
}

func TestLoadAliasFileUnknownAttribute(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "aliases.yaml")
	require.NoError(t, os.WriteFile(path, []byte("net_margin:\n  - margin\n"), 0644))

	_, err := New(config.ResolverConfig{SimilarityFloor: 0.55, AliasFile: path})
	assert.Error(t, err)
}

func TestBuildRecords(t *testing.T) {
	r := testResolver(t)
	headers := []string{"Company", "Net Sales", "Debtors", "Pledge"}
	res := r.Resolve(headers)

	rows := [][]string{
		{"Vedanta", "12,000", "3500", "99"},
		{"L&T", "4000", "", "0"},
		{"", "oops", "400", "10"},
	}

	records, warnings := BuildRecords(res, headers, rows)
	require.Len(t, records, 3)

	assert.Equal(t, "Vedanta", records[0].CompanyID)
	v, ok := records[0].Get(model.AttrRevenue)
	require.True(t, ok)
	assert.InDelta(t, 12000, v, 0.001)

	// Blank cell stays missing, never zero-filled.
	assert.False(t, records[1].Has(model.AttrReceivables))

	// Non-numeric cell degrades to a partial record with a warning.
	require.Len(t, warnings, 1)
	assert.Equal(t, 2, warnings[0].Row)
	assert.Equal(t, model.AttrRevenue, warnings[0].Attr)
	assert.False(t, records[2].Has(model.AttrRevenue))
	assert.Equal(t, "row-3", records[2].CompanyID)
}
