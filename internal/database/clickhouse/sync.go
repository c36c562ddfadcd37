package clickhouse

import (
	"context"
	"fmt"
	"time"

	"github.com/esgaming/catalogops/internal/database"
)

// EventRecorder stores import events
type EventRecorder interface {
	RecordImports(ctx context.Context, events []database.ImportEvent) error
}

// SyncResult contains the results of a sync operation
type SyncResult struct {
	RecordsSynced int
	StartTime     time.Time
	EndTime       time.Time
	Errors        []string
}

// Syncer backfills analytics from the current catalog, for catalogs that
// were filled before analytics were enabled
type Syncer struct {
	catalog   database.Catalog
	recorder  EventRecorder
	batchSize int
}

// NewSyncer creates a new syncer
func NewSyncer(catalog database.Catalog, recorder EventRecorder) *Syncer {
	return &Syncer{
		catalog:   catalog,
		recorder:  recorder,
		batchSize: 500,
	}
}

// SyncCatalog records one "snapshot" event per entry with its current price
func (s *Syncer) SyncCatalog(ctx context.Context, category string) (*SyncResult, error) {
	result := &SyncResult{
		StartTime: time.Now(),
	}

	entries, err := s.catalog.Entries().List(ctx, database.QueryOptions{Category: category})
	if err != nil {
		return nil, fmt.Errorf("failed to list entries: %w", err)
	}

	batch := make([]database.ImportEvent, 0, s.batchSize)
	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		if err := s.recorder.RecordImports(ctx, batch); err != nil {
			return fmt.Errorf("failed to insert batch: %w", err)
		}
		result.RecordsSynced += len(batch)
		batch = batch[:0]
		return nil
	}

	for _, e := range entries {
		detail, err := database.LoadDetail(ctx, s.catalog, e)
		if err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("%s: %v", e.ID, err))
			continue
		}
		if len(detail.Prices) == 0 {
			continue
		}

		batch = append(batch, SnapshotEvent(detail, result.StartTime))
		if len(batch) >= s.batchSize {
			if err := flush(); err != nil {
				return result, err
			}
		}
	}

	if err := flush(); err != nil {
		return result, err
	}

	result.EndTime = time.Now()
	return result, nil
}

// SnapshotEvent converts an entry's current state to an analytics event
func SnapshotEvent(d *database.EntryDetail, at time.Time) database.ImportEvent {
	ev := database.ImportEvent{
		EntryID:    d.Entry.ID,
		SKU:        d.Entry.SKU,
		Title:      d.Entry.Title,
		Category:   d.Entry.Category,
		Action:     "snapshot",
		SpecCount:  len(d.Specs),
		HasImage:   len(d.Images) > 0,
		Source:     "sync",
		ImportedAt: at,
	}
	if len(d.Prices) > 0 {
		ev.Amount = d.Prices[0].Amount
		ev.Currency = d.Prices[0].Currency
	}
	return ev
}
