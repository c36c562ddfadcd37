package file

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/esgaming/catalogops/internal/database"
	"github.com/esgaming/catalogops/internal/output"
	"github.com/xuri/excelize/v2"
)

const XLSXAdapterName = "xlsx"

// maxSheetName is the Excel limit on sheet name length
const maxSheetName = 31

// XLSXConfig holds workbook output configuration
type XLSXConfig struct {
	OutputDir string
}

// XLSXAdapter writes entries to an Excel workbook, one sheet per category
type XLSXAdapter struct {
	*dirAdapter
}

func NewXLSXAdapter(cfg XLSXConfig) *XLSXAdapter {
	return &XLSXAdapter{newDirAdapter(XLSXAdapterName, cfg.OutputDir, output.FormatXLSX)}
}

func (a *XLSXAdapter) ExportEntries(ctx context.Context, entries []*database.EntryDetail, opts output.ExportOptions) (*output.ExportResult, error) {
	return a.export(ctx, entries, opts, output.FormatXLSX, writeWorkbook)
}

func writeWorkbook(path string, _ output.Format, records []output.Record) (string, error) {
	byCategory := make(map[string][]output.Record)
	for _, rec := range records {
		byCategory[rec.Category] = append(byCategory[rec.Category], rec)
	}

	categories := make([]string, 0, len(byCategory))
	for c := range byCategory {
		categories = append(categories, c)
	}
	sort.Strings(categories)

	f := excelize.NewFile()
	defer f.Close()

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"4472C4"}, Pattern: 1},
	})
	if err != nil {
		return "", fmt.Errorf("failed to create header style: %w", err)
	}

	columns := output.Columns()
	header := make([]interface{}, len(columns))
	for i, c := range columns {
		header[i] = c
	}
	lastCol, _ := excelize.ColumnNumberToName(len(columns))

	if len(categories) == 0 {
		categories = []string{"Catalog"}
	}

	used := make(map[string]bool)
	for i, category := range categories {
		sheet := SheetName(category, used)
		if i == 0 {
			if err := f.SetSheetName("Sheet1", sheet); err != nil {
				return "", fmt.Errorf("failed to name sheet: %w", err)
			}
		} else if _, err := f.NewSheet(sheet); err != nil {
			return "", fmt.Errorf("failed to add sheet %s: %w", sheet, err)
		}

		if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
			return "", fmt.Errorf("failed to write header: %w", err)
		}
		if err := f.SetCellStyle(sheet, "A1", lastCol+"1", headerStyle); err != nil {
			return "", fmt.Errorf("failed to style header: %w", err)
		}

		for r, rec := range byCategory[category] {
			cells := rec.Row()
			row := make([]interface{}, len(cells))
			for c, v := range cells {
				row[c] = v
			}
			// numeric cell so sheets can sum prices
			row[3] = rec.Price.InexactFloat64()

			cell, _ := excelize.CoordinatesToCellName(1, r+2)
			if err := f.SetSheetRow(sheet, cell, &row); err != nil {
				return "", fmt.Errorf("failed to write row: %w", err)
			}
		}
	}

	if err := f.SaveAs(path); err != nil {
		return "", fmt.Errorf("failed to save workbook: %w", err)
	}
	return fmt.Sprintf("Exported %d entries in %d sheet(s) to %s", len(records), len(categories), path), nil
}

// SheetName turns a category into a unique, valid sheet name
func SheetName(category string, used map[string]bool) string {
	name := strings.Map(func(r rune) rune {
		switch r {
		case ':', '\\', '/', '?', '*', '[', ']':
			return '_'
		}
		return r
	}, strings.TrimSpace(category))
	if name == "" {
		name = "Catalog"
	}
	if len([]rune(name)) > maxSheetName {
		name = string([]rune(name)[:maxSheetName])
	}

	base := name
	for n := 2; used[name]; n++ {
		suffix := fmt.Sprintf(" (%d)", n)
		trimmed := []rune(base)
		if len(trimmed)+len(suffix) > maxSheetName {
			trimmed = trimmed[:maxSheetName-len(suffix)]
		}
		name = string(trimmed) + suffix
	}
	used[name] = true
	return name
}
