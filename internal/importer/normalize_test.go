package importer

import (
	"testing"

	"github.com/esgaming/catalogops/internal/parser"
	"github.com/esgaming/catalogops/internal/specgroup"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func caseMapping(t *testing.T) Mapping {
	t.Helper()
	m := GuessMapping([]string{"Model", "SKU", "Price (FOB)", "Fan Support"}, nil)
	m, err := m.Set("SKU", Role{Kind: RoleSKU})
	require.NoError(t, err)
	m, err = m.Set("Fan Support", Spec("Fan Support", specgroup.Cooling))
	require.NoError(t, err)
	return m
}

func TestNormalizeRowScenario(t *testing.T) {
	raw := parser.RawRow{
		"Model":       "Case X",
		"SKU":         "CX-1",
		"Price (FOB)": "$45.00 USD",
		"Fan Support": "3x120mm",
	}

	row, ok := NormalizeRow(raw, caseMapping(t), "CASES", 0)
	require.True(t, ok)

	assert.Equal(t, "Case X", row.Title)
	assert.Equal(t, "CX-1", row.SKU)
	assert.Equal(t, 45.0, row.Price)
	assert.Empty(t, row.ImageURL)
	assert.Equal(t, "CASES", row.Category)
	assert.Equal(t, []specgroup.Spec{{Label: "Fan Support", Value: "3x120mm", Group: specgroup.Cooling}}, row.Specs)
	assert.True(t, row.Importable())
}

func TestNormalizeRowSanitizes(t *testing.T) {
	m := GuessMapping([]string{"Title", "Price", "Image", "Notes"}, nil)
	raw := parser.RawRow{
		"Title": "  Big \t  Tower ",
		"Price": 120.5,
		"Image": " https://cdn.example.com/a.png ",
		"Notes": "   ",
	}

	row, ok := NormalizeRow(raw, m, "CASES", 3)
	require.True(t, ok)
	assert.Equal(t, "Big Tower", row.Title)
	assert.Equal(t, 120.5, row.Price)
	assert.Equal(t, "https://cdn.example.com/a.png", row.ImageURL)
	assert.Empty(t, row.Specs, "blank spec values are not kept")
	assert.Equal(t, 3, row.OriginalIndex)
}

func TestNormalizeRowLastModelWins(t *testing.T) {
	m := GuessMapping([]string{"Name", "Model", "Price"}, nil)
	row, ok := NormalizeRow(parser.RawRow{"Name": "First", "Model": "Second", "Price": "1"}, m, "", 0)
	require.True(t, ok)
	assert.Equal(t, "Second", row.Title)

	row, ok = NormalizeRow(parser.RawRow{"Name": "First", "Model": "", "Price": "1"}, m, "", 0)
	require.True(t, ok)
	assert.Equal(t, "First", row.Title, "empty cells do not overwrite")
}

func TestNormalizeRowIgnoredColumns(t *testing.T) {
	m := GuessMapping([]string{"Model", "Price", "Internal"}, nil)
	m, err := m.Set("Internal", Role{Kind: RoleIgnore})
	require.NoError(t, err)

	row, ok := NormalizeRow(parser.RawRow{"Model": "A", "Price": "2", "Internal": "secret"}, m, "", 0)
	require.True(t, ok)
	assert.Empty(t, row.Specs)
}

func TestNormalizeRowDropRule(t *testing.T) {
	m := caseMapping(t)

	_, ok := NormalizeRow(parser.RawRow{}, m, "CASES", 0)
	assert.False(t, ok, "blank row")

	_, ok = NormalizeRow(parser.RawRow{"Fan Support": "2x140mm", "Price (FOB)": "n/a"}, m, "CASES", 0)
	assert.False(t, ok, "only specs and an unparsable price")

	row, ok := NormalizeRow(parser.RawRow{"SKU": "CX-9"}, m, "CASES", 0)
	require.True(t, ok, "sku alone keeps the row")
	assert.False(t, row.Importable())

	row, ok = NormalizeRow(parser.RawRow{"Price (FOB)": "10"}, m, "CASES", 0)
	require.True(t, ok, "price alone keeps the row")
	assert.False(t, row.Importable())
}

func TestNormalizeRowsKeepsOriginalIndex(t *testing.T) {
	m := caseMapping(t)
	rows := []parser.RawRow{
		{"Model": "A", "Price (FOB)": "1"},
		{},
		{"Model": "B", "Price (FOB)": "2"},
	}

	out := NormalizeRows(rows, m, "CASES")
	require.Len(t, out, 2)
	assert.Equal(t, 0, out[0].OriginalIndex)
	assert.Equal(t, 2, out[1].OriginalIndex)
	assert.Equal(t, "B", out[1].Title)
}

func TestCanonicalCategory(t *testing.T) {
	assert.Equal(t, "GAMING CHAIRS", CanonicalCategory("  gaming   chairs "))
	assert.Equal(t, "", CanonicalCategory("   "))
}
