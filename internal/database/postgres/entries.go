package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/esgaming/catalogops/internal/database"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// EntryRepo implements the EntryRepository interface for PostgreSQL
type EntryRepo struct {
	q querier
}

const entryColumns = `id, COALESCE(sku, ''), title, category, display_order, created_at, updated_at`

// Create inserts a new entry. A zero ID is replaced with a fresh UUID and a
// zero DisplayOrder appends the entry after the current last one.
func (r *EntryRepo) Create(ctx context.Context, entry *database.CatalogEntry) error {
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}

	now := time.Now()
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = now
	}
	entry.UpdatedAt = now

	query := `
		INSERT INTO catalog_entries (id, sku, title, category, display_order, created_at, updated_at)
		VALUES (
			$1, NULLIF($2, ''), $3, $4,
			CASE WHEN $5 > 0 THEN $5 ELSE (SELECT COALESCE(MAX(display_order), 0) + 1 FROM catalog_entries) END,
			$6, $7
		)
		RETURNING display_order
	`

	err := r.q.QueryRow(ctx, query,
		entry.ID, entry.SKU, entry.Title, entry.Category, entry.DisplayOrder,
		entry.CreatedAt, entry.UpdatedAt,
	).Scan(&entry.DisplayOrder)
	if err != nil {
		return fmt.Errorf("failed to create entry: %w", err)
	}

	return nil
}

// GetByID retrieves an entry by its UUID
func (r *EntryRepo) GetByID(ctx context.Context, id uuid.UUID) (*database.CatalogEntry, error) {
	row := r.q.QueryRow(ctx, `SELECT `+entryColumns+` FROM catalog_entries WHERE id = $1`, id)
	return scanEntry(row)
}

// GetBySKU retrieves an entry by its SKU
func (r *EntryRepo) GetBySKU(ctx context.Context, sku string) (*database.CatalogEntry, error) {
	if sku == "" {
		return nil, nil
	}
	row := r.q.QueryRow(ctx, `SELECT `+entryColumns+` FROM catalog_entries WHERE sku = $1`, sku)
	return scanEntry(row)
}

func scanEntry(row pgx.Row) (*database.CatalogEntry, error) {
	var e database.CatalogEntry
	err := row.Scan(&e.ID, &e.SKU, &e.Title, &e.Category, &e.DisplayOrder, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to scan entry: %w", err)
	}
	return &e, nil
}

// Update rewrites an entry's title, category and SKU in place
func (r *EntryRepo) Update(ctx context.Context, entry *database.CatalogEntry) error {
	entry.UpdatedAt = time.Now()

	tag, err := r.q.Exec(ctx, `
		UPDATE catalog_entries SET
			sku = NULLIF($2, ''), title = $3, category = $4, updated_at = $5
		WHERE id = $1
	`, entry.ID, entry.SKU, entry.Title, entry.Category, entry.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to update entry: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("entry %s not found", entry.ID)
	}

	return nil
}

// List retrieves entries in display order with optional category filtering
func (r *EntryRepo) List(ctx context.Context, opts database.QueryOptions) ([]*database.CatalogEntry, error) {
	query := `SELECT ` + entryColumns + ` FROM catalog_entries`
	var args []any

	if opts.Category != "" {
		query += ` WHERE category = $1`
		args = append(args, opts.Category)
	}
	query += ` ORDER BY display_order, created_at`

	if opts.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", opts.Limit)
	}
	if opts.Offset > 0 {
		query += fmt.Sprintf(" OFFSET %d", opts.Offset)
	}

	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query entries: %w", err)
	}
	defer rows.Close()

	var entries []*database.CatalogEntry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}

	return entries, rows.Err()
}

// Count returns the total number of entries
func (r *EntryRepo) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := r.q.QueryRow(ctx, "SELECT COUNT(*) FROM catalog_entries").Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count entries: %w", err)
	}
	return count, nil
}
