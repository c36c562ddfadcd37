package file

import (
	"bufio"
	"context"
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/esgaming/catalogops/internal/database"
	"github.com/esgaming/catalogops/internal/output"
	"github.com/esgaming/catalogops/internal/specgroup"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func sampleEntries() []*database.EntryDetail {
	caseID := uuid.New()
	kbID := uuid.New()
	return []*database.EntryDetail{
		{
			Entry:  &database.CatalogEntry{ID: caseID, SKU: "C-1", Title: "Case X", Category: "CASES"},
			Prices: []*database.Price{{EntryID: caseID, Amount: 45, Currency: "USD"}},
			Images: []*database.Image{{EntryID: caseID, URL: "https://cdn/x.png"}},
			Specs: []*database.Specification{
				{EntryID: caseID, Label: "Fans", Value: "3x120mm", Group: specgroup.Cooling},
				{EntryID: caseID, Label: "Color", Value: "Black", Group: specgroup.Additional},
			},
		},
		{
			Entry:  &database.CatalogEntry{ID: kbID, SKU: "K-1", Title: "Keyboard", Category: "KEYBOARDS"},
			Prices: []*database.Price{{EntryID: kbID, Amount: 19.9, Currency: "USD"}},
		},
	}
}

func TestCSVExport(t *testing.T) {
	dir := t.TempDir()
	a := NewCSVAdapter(CSVConfig{OutputDir: dir})

	result, err := a.ExportEntries(context.Background(), sampleEntries(), output.ExportOptions{Format: output.FormatCSV})
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, 2, result.EntriesExported)
	assert.Equal(t, 1, result.ImagesExported)
	assert.Equal(t, dir, filepath.Dir(result.Destination))

	f, err := os.Open(result.Destination)
	require.NoError(t, err)
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, output.Columns(), rows[0])
	assert.Equal(t, []string{"C-1", "Case X", "CASES", "45.00", "USD", "https://cdn/x.png"}, rows[1][:6])
	assert.Equal(t, "Fans: 3x120mm", rows[1][8])
	assert.Equal(t, "19.90", rows[2][3])
}

func TestCSVExportFiltersSKUs(t *testing.T) {
	a := NewCSVAdapter(CSVConfig{OutputDir: t.TempDir()})

	result, err := a.ExportEntries(context.Background(), sampleEntries(), output.ExportOptions{SKUs: []string{"K-1"}, DryRun: true})
	require.NoError(t, err)
	assert.Equal(t, 1, result.EntriesExported)
	assert.Empty(t, result.Destination)
}

func TestJSONExport(t *testing.T) {
	dir := t.TempDir()
	a := NewJSONAdapter(JSONConfig{OutputDir: dir, Pretty: true})

	result, err := a.ExportEntries(context.Background(), sampleEntries(), output.ExportOptions{Format: output.FormatJSON})
	require.NoError(t, err)
	assert.Equal(t, ".json", filepath.Ext(result.Destination))

	data, err := os.ReadFile(result.Destination)
	require.NoError(t, err)

	var doc struct {
		Count   int `json:"count"`
		Entries []struct {
			SKU   string                      `json:"sku"`
			Specs map[string][]specgroup.Spec `json:"specs"`
		} `json:"entries"`
	}
	require.NoError(t, json.Unmarshal(data, &doc))
	assert.Equal(t, 2, doc.Count)
	assert.Equal(t, "C-1", doc.Entries[0].SKU)
	assert.Equal(t, "Fans", doc.Entries[0].Specs["COOLING"][0].Label)
}

func TestJSONLExport(t *testing.T) {
	a := NewJSONAdapter(JSONConfig{OutputDir: t.TempDir()})

	result, err := a.ExportEntries(context.Background(), sampleEntries(), output.ExportOptions{Format: output.FormatJSONL})
	require.NoError(t, err)
	assert.Equal(t, ".jsonl", filepath.Ext(result.Destination))

	f, err := os.Open(result.Destination)
	require.NoError(t, err)
	defer f.Close()

	lines := 0
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		var rec map[string]interface{}
		require.NoError(t, json.Unmarshal(sc.Bytes(), &rec))
		lines++
	}
	assert.Equal(t, 2, lines)
}

func TestXLSXExport(t *testing.T) {
	a := NewXLSXAdapter(XLSXConfig{OutputDir: t.TempDir()})

	result, err := a.ExportEntries(context.Background(), sampleEntries(), output.ExportOptions{Format: output.FormatXLSX})
	require.NoError(t, err)
	assert.Equal(t, 2, result.EntriesExported)

	f, err := excelize.OpenFile(result.Destination)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{"CASES", "KEYBOARDS"}, f.GetSheetList())

	rows, err := f.GetRows("CASES")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "SKU", rows[0][0])
	assert.Equal(t, "Case X", rows[1][1])
	assert.Equal(t, "45", rows[1][3])
}

func TestSheetName(t *testing.T) {
	used := map[string]bool{}
	assert.Equal(t, "CASES_FANS", SheetName("CASES/FANS", used))
	assert.Equal(t, "CASES_FANS (2)", SheetName("CASES:FANS", used))
	assert.Equal(t, "Catalog", SheetName("  ", used))

	long := SheetName("ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789", used)
	assert.Len(t, long, 31)
}
