package importer

import (
	"strings"

	"github.com/esgaming/catalogops/internal/parser"
	"github.com/esgaming/catalogops/internal/sanitize"
	"github.com/esgaming/catalogops/internal/specgroup"
)

// ImportRow is one normalized candidate catalog entry.
type ImportRow struct {
	Title         string           `json:"title"`
	SKU           string           `json:"sku,omitempty"`
	Price         float64          `json:"price"`
	ImageURL      string           `json:"image_url,omitempty"`
	Specs         []specgroup.Spec `json:"specs"`
	Category      string           `json:"category"`
	OriginalIndex int              `json:"original_index"`
}

// Importable reports whether the row can be committed.
func (r ImportRow) Importable() bool {
	return r.Title != "" && r.Price > 0
}

// CanonicalCategory is the lookup form of a category name.
func CanonicalCategory(name string) string {
	return strings.ToUpper(sanitize.Text(name))
}

// NormalizeRow applies the mapping to one raw row. ok is false for rows with
// no title, no positive price and no SKU.
func NormalizeRow(raw parser.RawRow, m Mapping, category string, originalIndex int) (ImportRow, bool) {
	row := ImportRow{
		Category:      category,
		OriginalIndex: originalIndex,
		Specs:         []specgroup.Spec{},
	}

	for _, col := range m.Columns {
		cell, ok := raw[col.Header]
		if !ok || !sanitize.RequiredField(cell) {
			continue
		}

		switch col.Role.Kind {
		case RoleModel:
			row.Title = sanitize.Text(cell)
		case RoleSKU:
			row.SKU = sanitize.Text(cell)
		case RolePrice:
			row.Price = sanitize.NumericField(cell)
		case RoleImage:
			row.ImageURL = sanitize.Text(cell)
		case RoleSpec:
			if v := sanitize.Text(cell); v != "" {
				row.Specs = append(row.Specs, specgroup.Spec{
					Label: col.Role.Label,
					Value: v,
					Group: col.Role.Group,
				})
			}
		}
	}

	if row.Title == "" && row.Price <= 0 && row.SKU == "" {
		return ImportRow{}, false
	}
	return row, true
}

// NormalizeRows normalizes every row of a sheet, dropping blank ones.
// OriginalIndex is the row's position among the sheet's data rows.
func NormalizeRows(rows []parser.RawRow, m Mapping, category string) []ImportRow {
	out := make([]ImportRow, 0, len(rows))
	for i, raw := range rows {
		if row, ok := NormalizeRow(raw, m, category, i); ok {
			out = append(out, row)
		}
	}
	return out
}
