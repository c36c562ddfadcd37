package output

import (
	"strings"

	"github.com/esgaming/catalogops/internal/database"
	"github.com/esgaming/catalogops/internal/specgroup"
	"github.com/shopspring/decimal"
)

// Record is the flat export form of one entry
type Record struct {
	SKU          string                               `json:"sku,omitempty"`
	Title        string                               `json:"title"`
	Category     string                               `json:"category"`
	DisplayOrder int                                  `json:"display_order"`
	Price        decimal.Decimal                      `json:"price"`
	Currency     string                               `json:"currency"`
	Images       []string                             `json:"images,omitempty"`
	Specs        map[specgroup.Group][]specgroup.Spec `json:"specs,omitempty"`
}

// Image returns the first image URL or ""
func (r Record) Image() string {
	if len(r.Images) == 0 {
		return ""
	}
	return r.Images[0]
}

// SpecText renders one group as "Label: Value; Label: Value"
func (r Record) SpecText(g specgroup.Group) string {
	parts := make([]string, 0, len(r.Specs[g]))
	for _, s := range r.Specs[g] {
		parts = append(parts, s.Label+": "+s.Value)
	}
	return strings.Join(parts, "; ")
}

// Flatten converts an entry with its children into a Record. Specs are
// grouped with specgroup.GroupSpecs, so stored groups win and duplicates go.
func Flatten(d *database.EntryDetail) Record {
	r := Record{
		SKU:          d.Entry.SKU,
		Title:        d.Entry.Title,
		Category:     d.Entry.Category,
		DisplayOrder: d.Entry.DisplayOrder,
		Specs:        make(map[specgroup.Group][]specgroup.Spec),
	}

	if len(d.Prices) > 0 {
		r.Price = decimal.NewFromFloat(d.Prices[0].Amount).Round(2)
		r.Currency = d.Prices[0].Currency
	}

	for _, img := range d.Images {
		r.Images = append(r.Images, img.URL)
	}

	specs := make([]specgroup.Spec, 0, len(d.Specs))
	for _, s := range d.Specs {
		specs = append(specs, s.Spec())
	}
	for _, section := range specgroup.GroupSpecs(specs) {
		r.Specs[section.Group] = section.Specs
	}

	return r
}

// Columns is the header row shared by the tabular formats
func Columns() []string {
	cols := []string{"SKU", "Title", "Category", "Price", "Currency", "Image"}
	for _, g := range specgroup.All {
		cols = append(cols, g.Title())
	}
	return cols
}

// Row renders a record in Columns order
func (r Record) Row() []string {
	row := []string{r.SKU, r.Title, r.Category, r.Price.StringFixed(2), r.Currency, r.Image()}
	for _, g := range specgroup.All {
		row = append(row, r.SpecText(g))
	}
	return row
}
