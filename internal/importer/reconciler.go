package importer

import (
	"context"
	"fmt"
	"time"

	"github.com/esgaming/catalogops/internal/database"
	"github.com/esgaming/catalogops/internal/images"
	"github.com/esgaming/catalogops/internal/sanitize"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// DefaultCurrency is the currency every imported price is stored in.
const DefaultCurrency = "USD"

// ImageResolver turns an image reference into the URL to store.
type ImageResolver interface {
	Resolve(ctx context.Context, entryID uuid.UUID, ref string) (url string, uploaded bool, err error)
}

// EventSink receives one event per committed row.
type EventSink interface {
	RecordImports(ctx context.Context, events []database.ImportEvent) error
}

// CategoryChoice is the category picked at the start of a session.
type CategoryChoice struct {
	Name   string
	Custom bool // entered by the user rather than picked from the list
}

// Canonical returns the lookup form of the chosen name.
func (c CategoryChoice) Canonical() string {
	return CanonicalCategory(c.Name)
}

// Options configures a Reconciler
type Options struct {
	Currency string
	Images   ImageResolver
	Sink     EventSink
	Logger   *zap.Logger
	Source   string // file name recorded in history and events
	// Progress is called after every attempted row
	Progress func(done, total int)
}

// Reconciler commits import rows to a catalog, creating or updating entries by SKU.
type Reconciler struct {
	catalog  database.Catalog
	currency string
	images   ImageResolver
	sink     EventSink
	logger   *zap.Logger
	source   string
	progress func(done, total int)
}

// NewReconciler creates a reconciler writing to catalog. When catalog also
// implements database.Transactor every row is written in its own transaction.
func NewReconciler(catalog database.Catalog, opts Options) *Reconciler {
	r := &Reconciler{
		catalog:  catalog,
		currency: opts.Currency,
		images:   opts.Images,
		sink:     opts.Sink,
		logger:   opts.Logger,
		source:   opts.Source,
		progress: opts.Progress,
	}
	if r.currency == "" {
		r.currency = DefaultCurrency
	}
	if r.logger == nil {
		r.logger = zap.NewNop()
	}
	return r
}

// Result summarizes one commit
type Result struct {
	Category       string
	Attempted      int
	Processed      int
	Created        int
	Updated        int
	Skipped        int // rows that were not importable
	ImagesUploaded int
	ImagesSkipped  int
	Failures       []RowFailure
	StartedAt      time.Time
	CompletedAt    time.Time
}

// Failed returns the number of rows the store rejected
func (r *Result) Failed() int {
	return len(r.Failures)
}

// ResolveCategory returns the canonical category name for choice. A custom
// category is created if no category with that name exists yet. Inactive
// categories are never imported into.
func (r *Reconciler) ResolveCategory(ctx context.Context, choice CategoryChoice) (string, error) {
	name := choice.Canonical()
	if name == "" {
		return "", ErrNoCategory
	}

	var cat *database.Category
	var err error
	if choice.Custom {
		cat, err = r.catalog.Categories().EnsureExists(ctx, name, sanitize.Text(choice.Name))
		if err != nil {
			return "", fmt.Errorf("failed to create category %s: %w", name, err)
		}
	} else {
		cat, err = r.catalog.Categories().GetByName(ctx, name)
		if err != nil {
			return "", fmt.Errorf("failed to look up category %s: %w", name, err)
		}
		if cat == nil {
			return "", fmt.Errorf("category %s does not exist", name)
		}
	}

	if !cat.IsActive {
		return "", fmt.Errorf("%w: %s", ErrInactiveCategory, name)
	}
	return cat.Name, nil
}

// Commit writes rows one after another. A row the store rejects is logged,
// recorded in Result.Failures and skipped; the loop always runs to the end.
// The returned error is only set when the category cannot be resolved.
func (r *Reconciler) Commit(ctx context.Context, choice CategoryChoice, rows []ImportRow) (*Result, error) {
	result := &Result{StartedAt: time.Now()}

	category, err := r.ResolveCategory(ctx, choice)
	if err != nil {
		result.CompletedAt = time.Now()
		return result, err
	}
	result.Category = category

	var events []database.ImportEvent
	for i, row := range rows {
		if !row.Importable() {
			result.Skipped++
			r.report(i+1, len(rows))
			continue
		}
		result.Attempted++

		ev, err := r.commitRow(ctx, category, row, result)
		if err != nil {
			r.logger.Error("failed to import row",
				zap.Int("original_index", row.OriginalIndex),
				zap.String("sku", row.SKU),
				zap.String("title", row.Title),
				zap.Error(err),
			)
			result.Failures = append(result.Failures, RowFailure{
				OriginalIndex: row.OriginalIndex,
				SKU:           row.SKU,
				Title:         row.Title,
				Err:           err,
			})
		} else {
			result.Processed++
			if ev.Action == "created" {
				result.Created++
			} else {
				result.Updated++
			}
			events = append(events, ev)
		}
		r.report(i+1, len(rows))
	}

	result.CompletedAt = time.Now()
	r.recordHistory(ctx, result)
	r.emit(ctx, events)

	return result, nil
}

func (r *Reconciler) report(done, total int) {
	if r.progress != nil {
		r.progress(done, total)
	}
}

// commitRow applies one row: entry create/update, price replace, image
// replace and spec replace.
func (r *Reconciler) commitRow(ctx context.Context, category string, row ImportRow, result *Result) (database.ImportEvent, error) {
	existing, err := r.catalog.Entries().GetBySKU(ctx, row.SKU)
	if err != nil {
		return database.ImportEvent{}, fmt.Errorf("failed to look up sku: %w", err)
	}

	entry := &database.CatalogEntry{
		SKU:      row.SKU,
		Title:    row.Title,
		Category: category,
	}
	action := "created"
	if existing != nil {
		entry.ID = existing.ID
		entry.CreatedAt = existing.CreatedAt
		entry.DisplayOrder = existing.DisplayOrder
		action = "updated"
	} else {
		entry.ID = uuid.New()
	}

	imageURL := r.resolveImage(ctx, entry.ID, row, result)

	write := func(c database.Catalog) error {
		if existing != nil {
			if err := c.Entries().Update(ctx, entry); err != nil {
				return fmt.Errorf("failed to update entry: %w", err)
			}
		} else {
			if err := c.Entries().Create(ctx, entry); err != nil {
				return fmt.Errorf("failed to create entry: %w", err)
			}
		}

		if err := c.Prices().DeleteByEntry(ctx, entry.ID); err != nil {
			return err
		}
		if err := c.Prices().Create(ctx, &database.Price{
			EntryID:  entry.ID,
			Amount:   row.Price,
			Currency: r.currency,
		}); err != nil {
			return err
		}

		if imageURL != "" {
			if err := c.Images().DeleteByEntry(ctx, entry.ID); err != nil {
				return err
			}
			if err := c.Images().Create(ctx, &database.Image{
				EntryID:      entry.ID,
				URL:          imageURL,
				DisplayOrder: 0,
			}); err != nil {
				return err
			}
		}

		if err := c.Specifications().DeleteByEntry(ctx, entry.ID); err != nil {
			return err
		}
		specs := make([]*database.Specification, 0, len(row.Specs))
		for i, s := range row.Specs {
			specs = append(specs, &database.Specification{
				EntryID:      entry.ID,
				Label:        s.Label,
				Value:        s.Value,
				Group:        s.Group,
				DisplayOrder: i,
			})
		}
		if _, err := c.Specifications().BulkCreate(ctx, specs); err != nil {
			return err
		}
		return nil
	}

	if tx, ok := r.catalog.(database.Transactor); ok {
		err = tx.InTx(ctx, write)
	} else {
		err = write(r.catalog)
	}
	if err != nil {
		return database.ImportEvent{}, err
	}

	return database.ImportEvent{
		EntryID:    entry.ID,
		SKU:        row.SKU,
		Title:      row.Title,
		Category:   category,
		Amount:     row.Price,
		Currency:   r.currency,
		Action:     action,
		SpecCount:  len(row.Specs),
		HasImage:   imageURL != "",
		Source:     r.source,
		ImportedAt: time.Now(),
	}, nil
}

// resolveImage never fails the row: problems are logged and the row goes on
// without an image.
func (r *Reconciler) resolveImage(ctx context.Context, entryID uuid.UUID, row ImportRow, result *Result) string {
	if row.ImageURL == "" {
		return ""
	}

	if r.images == nil {
		if images.IsDataURI(row.ImageURL) {
			r.logger.Warn("no image storage configured, skipping embedded image",
				zap.Int("original_index", row.OriginalIndex),
				zap.String("sku", row.SKU),
			)
			result.ImagesSkipped++
			return ""
		}
		return row.ImageURL
	}

	url, uploaded, err := r.images.Resolve(ctx, entryID, row.ImageURL)
	if err != nil {
		r.logger.Warn("image skipped",
			zap.Int("original_index", row.OriginalIndex),
			zap.String("sku", row.SKU),
			zap.Error(err),
		)
		result.ImagesSkipped++
		return ""
	}
	if uploaded {
		result.ImagesUploaded++
	}
	return url
}

func (r *Reconciler) recordHistory(ctx context.Context, result *Result) {
	completed := result.CompletedAt
	entry := &database.OperationHistory{
		Action:      "import",
		Source:      r.source,
		Count:       result.Processed,
		Details:     fmt.Sprintf("processed %d/%d into %s, failed %d", result.Processed, result.Attempted, result.Category, result.Failed()),
		StartedAt:   result.StartedAt,
		CompletedAt: &completed,
	}
	if err := r.catalog.History().Add(ctx, entry); err != nil {
		r.logger.Warn("failed to record import history", zap.Error(err))
	}
}

func (r *Reconciler) emit(ctx context.Context, events []database.ImportEvent) {
	if r.sink == nil || len(events) == 0 {
		return
	}
	if err := r.sink.RecordImports(ctx, events); err != nil {
		r.logger.Warn("failed to record import events", zap.Int("events", len(events)), zap.Error(err))
	}
}
