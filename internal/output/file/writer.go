package file

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/esgaming/catalogops/internal/database"
	"github.com/esgaming/catalogops/internal/output"
)

const defaultOutputDir = "output"

// writeFunc writes records to path. The returned note, when set, replaces the
// default result details.
type writeFunc func(path string, format output.Format, records []output.Record) (note string, err error)

// dirAdapter is the part every file destination shares: an output directory,
// SKU filtering, dry runs and result bookkeeping
type dirAdapter struct {
	*output.BaseAdapter
	dir string
}

func newDirAdapter(name, dir string, formats ...output.Format) *dirAdapter {
	if dir == "" {
		dir = defaultOutputDir
	}
	return &dirAdapter{
		BaseAdapter: output.NewBaseAdapter(name, formats),
		dir:         dir,
	}
}

// Connect creates the output directory
func (a *dirAdapter) Connect(ctx context.Context) error {
	if err := os.MkdirAll(a.dir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	a.SetConnected(true)
	return nil
}

func (a *dirAdapter) Close() error {
	a.SetConnected(false)
	return nil
}

// Test verifies the output directory is writable
func (a *dirAdapter) Test(ctx context.Context) error {
	if err := os.MkdirAll(a.dir, 0755); err != nil {
		return fmt.Errorf("output directory not writable: %w", err)
	}
	f, err := os.CreateTemp(a.dir, ".catops-*")
	if err != nil {
		return fmt.Errorf("output directory not writable: %w", err)
	}
	name := f.Name()
	f.Close()
	return os.Remove(name)
}

func (a *dirAdapter) export(ctx context.Context, entries []*database.EntryDetail, opts output.ExportOptions, format output.Format, write writeFunc) (*output.ExportResult, error) {
	result := &output.ExportResult{StartedAt: time.Now()}
	fail := func(err error) (*output.ExportResult, error) {
		result.Error = err
		result.CompletedAt = time.Now()
		return result, err
	}

	if !a.IsConnected() {
		if err := a.Connect(ctx); err != nil {
			return fail(err)
		}
	}

	records := make([]output.Record, 0, len(entries))
	withImage := 0
	for _, e := range output.FilterSKUs(entries, opts.SKUs) {
		rec := output.Flatten(e)
		if rec.Image() != "" {
			withImage++
		}
		records = append(records, rec)
	}

	result.EntriesExported = len(records)
	result.ImagesExported = withImage

	if opts.DryRun {
		result.Success = true
		result.Details = fmt.Sprintf("Dry run: would export %d entries", len(records))
		result.CompletedAt = time.Now()
		return result, nil
	}

	path := opts.OutputPath
	if path == "" {
		path = filepath.Join(a.dir, fmt.Sprintf("entries_%s.%s", result.StartedAt.Format("2006-01-02_150405"), format))
	}

	note, err := write(path, format, records)
	if err != nil {
		return fail(fmt.Errorf("failed to write %s: %w", path, err))
	}

	result.Destination = path
	result.Success = true
	result.Details = fmt.Sprintf("Exported %d entries to %s", len(records), path)
	if note != "" {
		result.Details = note
	}
	result.CompletedAt = time.Now()
	return result, nil
}
