package clickhouse

import (
	"context"
	"fmt"
	"time"

	"github.com/esgaming/catalogops/internal/database"
	"github.com/shopspring/decimal"
)

// CategoryTrend is the daily price range of one category's imports
type CategoryTrend struct {
	Category string
	Date     time.Time
	MinPrice decimal.Decimal
	MaxPrice decimal.Decimal
	Rows     uint64
}

// PricePoint is one imported price of an entry
type PricePoint struct {
	Amount     decimal.Decimal
	Currency   string
	Action     string
	Source     string
	ImportedAt time.Time
}

// ImportSummary counts import events per category
type ImportSummary struct {
	Category string
	Created  uint64
	Updated  uint64
	Images   uint64
	LastSeen time.Time
}

// Amount converts a price to the two-decimal column value
func Amount(v float64) decimal.Decimal {
	return decimal.NewFromFloat(v).Round(2)
}

// RecordImports inserts import events in one batch
func (c *Client) RecordImports(ctx context.Context, events []database.ImportEvent) error {
	if len(events) == 0 {
		return nil
	}
	if c.conn == nil {
		return ErrNotConnected
	}

	batch, err := c.conn.PrepareBatch(ctx, `
		INSERT INTO import_events (
			entry_id, sku, title, category,
			amount, currency, action, spec_count, has_image,
			source, imported_at, imported_date
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare batch: %w", err)
	}

	for _, e := range events {
		var hasImage uint8
		if e.HasImage {
			hasImage = 1
		}

		importedAt := e.ImportedAt
		if importedAt.IsZero() {
			importedAt = time.Now()
		}

		err := batch.Append(
			e.EntryID,
			e.SKU,
			e.Title,
			e.Category,
			Amount(e.Amount),
			e.Currency,
			e.Action,
			uint16(e.SpecCount),
			hasImage,
			e.Source,
			importedAt,
			importedAt.Truncate(24*time.Hour),
		)
		if err != nil {
			return fmt.Errorf("failed to append to batch: %w", err)
		}
	}

	return batch.Send()
}

// GetCategoryTrends returns the daily price range per category
func (c *Client) GetCategoryTrends(ctx context.Context, category string, days int) ([]CategoryTrend, error) {
	since := time.Now().AddDate(0, 0, -days)

	query := `
		SELECT
			category,
			imported_date as date,
			min(amount) as min_price,
			max(amount) as max_price,
			count() as rows
		FROM import_events
		WHERE (? = '' OR category = ?)
		  AND imported_at >= ?
		GROUP BY category, date
		ORDER BY date, category
	`

	rows, err := c.conn.Query(ctx, query, category, category, since)
	if err != nil {
		return nil, fmt.Errorf("failed to query category trends: %w", err)
	}
	defer rows.Close()

	var trends []CategoryTrend
	for rows.Next() {
		var t CategoryTrend
		if err := rows.Scan(&t.Category, &t.Date, &t.MinPrice, &t.MaxPrice, &t.Rows); err != nil {
			return nil, fmt.Errorf("failed to scan trend: %w", err)
		}
		trends = append(trends, t)
	}

	return trends, rows.Err()
}

// GetPriceHistory returns every imported price of a SKU, newest first
func (c *Client) GetPriceHistory(ctx context.Context, sku string, limit int) ([]PricePoint, error) {
	query := `
		SELECT amount, currency, action, source, imported_at
		FROM import_events
		WHERE sku = ?
		ORDER BY imported_at DESC
		LIMIT ?
	`

	rows, err := c.conn.Query(ctx, query, sku, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query price history: %w", err)
	}
	defer rows.Close()

	var points []PricePoint
	for rows.Next() {
		var p PricePoint
		if err := rows.Scan(&p.Amount, &p.Currency, &p.Action, &p.Source, &p.ImportedAt); err != nil {
			return nil, fmt.Errorf("failed to scan price: %w", err)
		}
		points = append(points, p)
	}

	return points, rows.Err()
}

// GetImportSummary counts events per category over the last days
func (c *Client) GetImportSummary(ctx context.Context, days int) ([]ImportSummary, error) {
	since := time.Now().AddDate(0, 0, -days)

	query := `
		SELECT
			category,
			countIf(action = 'created') as created,
			countIf(action = 'updated') as updated,
			countIf(has_image = 1) as images,
			max(imported_at) as last_seen
		FROM import_events
		WHERE imported_at >= ?
		GROUP BY category
		ORDER BY category
	`

	rows, err := c.conn.Query(ctx, query, since)
	if err != nil {
		return nil, fmt.Errorf("failed to query import summary: %w", err)
	}
	defer rows.Close()

	var out []ImportSummary
	for rows.Next() {
		var s ImportSummary
		if err := rows.Scan(&s.Category, &s.Created, &s.Updated, &s.Images, &s.LastSeen); err != nil {
			return nil, fmt.Errorf("failed to scan summary: %w", err)
		}
		out = append(out, s)
	}

	return out, rows.Err()
}

// GetEventCount returns the total number of import events
func (c *Client) GetEventCount(ctx context.Context) (uint64, error) {
	var count uint64
	if err := c.conn.QueryRow(ctx, "SELECT count() FROM import_events").Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count import events: %w", err)
	}
	return count, nil
}
