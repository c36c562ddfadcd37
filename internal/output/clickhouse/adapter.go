package clickhouse

import (
	"context"
	"fmt"
	"time"

	"github.com/esgaming/catalogops/internal/database"
	chdb "github.com/esgaming/catalogops/internal/database/clickhouse"
	"github.com/esgaming/catalogops/internal/output"
)

const AdapterName = "clickhouse"

// Sink is the part of the analytics client the adapter writes through
type Sink interface {
	Ping(ctx context.Context) error
	RecordImports(ctx context.Context, events []database.ImportEvent) error
}

// Adapter pushes catalog snapshots into the import_events table
type Adapter struct {
	*output.BaseAdapter
	sink      Sink
	batchSize int
}

// NewAdapter creates a new ClickHouse output adapter. The sink is usually a
// connected *chdb.Client.
func NewAdapter(sink Sink) *Adapter {
	return &Adapter{
		BaseAdapter: output.NewBaseAdapter(
			AdapterName,
			[]output.Format{}, // ClickHouse uses its own format
		),
		sink:      sink,
		batchSize: 500,
	}
}

// SupportsFormat - ClickHouse adapter doesn't use file formats
func (a *Adapter) SupportsFormat(format output.Format) bool {
	return false
}

// Connect verifies the sink is reachable
func (a *Adapter) Connect(ctx context.Context) error {
	return a.Test(ctx)
}

// Close cleans up resources
func (a *Adapter) Close() error {
	a.SetConnected(false)
	return nil
}

// Test verifies connectivity to ClickHouse
func (a *Adapter) Test(ctx context.Context) error {
	if a.sink == nil {
		return fmt.Errorf("not connected to ClickHouse")
	}
	if err := a.sink.Ping(ctx); err != nil {
		return fmt.Errorf("ClickHouse ping failed: %w", err)
	}
	a.SetConnected(true)
	return nil
}

// ExportEntries records one snapshot event per priced entry
func (a *Adapter) ExportEntries(ctx context.Context, entries []*database.EntryDetail, opts output.ExportOptions) (*output.ExportResult, error) {
	result := &output.ExportResult{
		StartedAt:   time.Now(),
		Destination: "clickhouse:import_events",
	}

	if !a.IsConnected() {
		if err := a.Connect(ctx); err != nil {
			result.Error = err
			return result, err
		}
	}

	filtered := output.FilterSKUs(entries, opts.SKUs)

	events := make([]database.ImportEvent, 0, len(filtered))
	for _, e := range filtered {
		if len(e.Prices) == 0 {
			continue
		}
		ev := chdb.SnapshotEvent(e, result.StartedAt)
		ev.Source = "export"
		if ev.HasImage {
			result.ImagesExported++
		}
		events = append(events, ev)
	}

	if opts.DryRun {
		result.EntriesExported = len(events)
		result.Success = true
		result.Details = fmt.Sprintf("Dry run: would insert %d snapshot events into ClickHouse", len(events))
		result.CompletedAt = time.Now()
		return result, nil
	}

	for start := 0; start < len(events); start += a.batchSize {
		end := start + a.batchSize
		if end > len(events) {
			end = len(events)
		}
		if err := a.sink.RecordImports(ctx, events[start:end]); err != nil {
			result.Error = err
			result.Details = fmt.Sprintf("Inserted %d/%d snapshot events before failing", result.EntriesExported, len(events))
			result.CompletedAt = time.Now()
			return result, fmt.Errorf("failed to insert batch: %w", err)
		}
		result.EntriesExported = end
	}

	result.Success = true
	result.Details = fmt.Sprintf("Inserted %d snapshot events into ClickHouse (%d entries without a price skipped)",
		len(events), len(filtered)-len(events))
	result.CompletedAt = time.Now()

	return result, nil
}
