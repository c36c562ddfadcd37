package file

import (
	"bufio"
	"context"
	"encoding/json"
	"os"
	"time"

	"github.com/esgaming/catalogops/internal/database"
	"github.com/esgaming/catalogops/internal/output"
)

const JSONAdapterName = "json"

// JSONConfig holds JSON file output configuration
type JSONConfig struct {
	OutputDir string
	Pretty    bool // indent the json envelope; jsonl is always compact
}

// JSONAdapter writes entries as one JSON document or as JSON Lines
type JSONAdapter struct {
	*dirAdapter
	pretty bool
}

func NewJSONAdapter(cfg JSONConfig) *JSONAdapter {
	return &JSONAdapter{
		dirAdapter: newDirAdapter(JSONAdapterName, cfg.OutputDir, output.FormatJSON, output.FormatJSONL),
		pretty:     cfg.Pretty,
	}
}

// ExportEntries writes json unless opts asks for jsonl
func (a *JSONAdapter) ExportEntries(ctx context.Context, entries []*database.EntryDetail, opts output.ExportOptions) (*output.ExportResult, error) {
	format := output.FormatJSON
	if opts.Format == output.FormatJSONL {
		format = output.FormatJSONL
	}
	return a.export(ctx, entries, opts, format, a.write)
}

// envelope is the top-level json document
type envelope struct {
	ExportedAt time.Time       `json:"exported_at"`
	Count      int             `json:"count"`
	Entries    []output.Record `json:"entries"`
}

func (a *JSONAdapter) write(path string, format output.Format, records []output.Record) (string, error) {
	f, err := os.Create(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	enc := json.NewEncoder(w)

	if format == output.FormatJSONL {
		// Encode terminates every value with a newline
		for _, rec := range records {
			if err := enc.Encode(rec); err != nil {
				return "", err
			}
		}
	} else {
		if a.pretty {
			enc.SetIndent("", "  ")
		}
		if err := enc.Encode(envelope{ExportedAt: time.Now(), Count: len(records), Entries: records}); err != nil {
			return "", err
		}
	}
	return "", w.Flush()
}
