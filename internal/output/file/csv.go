package file

import (
	"context"
	"encoding/csv"
	"os"

	"github.com/esgaming/catalogops/internal/database"
	"github.com/esgaming/catalogops/internal/output"
)

const CSVAdapterName = "csv"

// CSVConfig holds CSV file output configuration
type CSVConfig struct {
	OutputDir string
}

// CSVAdapter writes one row per entry with a column per spec group
type CSVAdapter struct {
	*dirAdapter
}

func NewCSVAdapter(cfg CSVConfig) *CSVAdapter {
	return &CSVAdapter{newDirAdapter(CSVAdapterName, cfg.OutputDir, output.FormatCSV)}
}

func (a *CSVAdapter) ExportEntries(ctx context.Context, entries []*database.EntryDetail, opts output.ExportOptions) (*output.ExportResult, error) {
	return a.export(ctx, entries, opts, output.FormatCSV, writeCSV)
}

func writeCSV(path string, _ output.Format, records []output.Record) (string, error) {
	f, err := os.Create(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(output.Columns()); err != nil {
		return "", err
	}
	for _, rec := range records {
		if err := w.Write(rec.Row()); err != nil {
			return "", err
		}
	}
	w.Flush()
	return "", w.Error()
}
