package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/esgaming/catalogops/internal/database"
	"github.com/esgaming/catalogops/internal/specgroup"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// PriceRepo implements the PriceRepository interface for PostgreSQL
type PriceRepo struct {
	q querier
}

// Create inserts a price record
func (r *PriceRepo) Create(ctx context.Context, price *database.Price) error {
	if price.CreatedAt.IsZero() {
		price.CreatedAt = time.Now()
	}

	err := r.q.QueryRow(ctx, `
		INSERT INTO entry_prices (entry_id, amount, currency, created_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`, price.EntryID, price.Amount, price.Currency, price.CreatedAt).Scan(&price.ID)
	if err != nil {
		return fmt.Errorf("failed to create price: %w", err)
	}
	return nil
}

// GetByEntry returns the price records of an entry
func (r *PriceRepo) GetByEntry(ctx context.Context, entryID uuid.UUID) ([]*database.Price, error) {
	rows, err := r.q.Query(ctx, `
		SELECT id, entry_id, amount::float8, currency, created_at
		FROM entry_prices
		WHERE entry_id = $1
		ORDER BY created_at DESC
	`, entryID)
	if err != nil {
		return nil, fmt.Errorf("failed to query prices: %w", err)
	}
	defer rows.Close()

	var prices []*database.Price
	for rows.Next() {
		var p database.Price
		if err := rows.Scan(&p.ID, &p.EntryID, &p.Amount, &p.Currency, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan price: %w", err)
		}
		prices = append(prices, &p)
	}
	return prices, rows.Err()
}

// DeleteByEntry removes every price record of an entry
func (r *PriceRepo) DeleteByEntry(ctx context.Context, entryID uuid.UUID) error {
	if _, err := r.q.Exec(ctx, "DELETE FROM entry_prices WHERE entry_id = $1", entryID); err != nil {
		return fmt.Errorf("failed to delete prices: %w", err)
	}
	return nil
}

// ImageRepo implements the ImageRepository interface for PostgreSQL
type ImageRepo struct {
	q querier
}

// Create inserts an image record
func (r *ImageRepo) Create(ctx context.Context, image *database.Image) error {
	if image.CreatedAt.IsZero() {
		image.CreatedAt = time.Now()
	}

	err := r.q.QueryRow(ctx, `
		INSERT INTO entry_images (entry_id, url, display_order, created_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`, image.EntryID, image.URL, image.DisplayOrder, image.CreatedAt).Scan(&image.ID)
	if err != nil {
		return fmt.Errorf("failed to create image: %w", err)
	}
	return nil
}

// GetByEntry returns an entry's images in display order
func (r *ImageRepo) GetByEntry(ctx context.Context, entryID uuid.UUID) ([]*database.Image, error) {
	rows, err := r.q.Query(ctx, `
		SELECT id, entry_id, url, display_order, created_at
		FROM entry_images
		WHERE entry_id = $1
		ORDER BY display_order, id
	`, entryID)
	if err != nil {
		return nil, fmt.Errorf("failed to query images: %w", err)
	}
	defer rows.Close()

	var images []*database.Image
	for rows.Next() {
		var img database.Image
		if err := rows.Scan(&img.ID, &img.EntryID, &img.URL, &img.DisplayOrder, &img.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan image: %w", err)
		}
		images = append(images, &img)
	}
	return images, rows.Err()
}

// DeleteByEntry removes every image record of an entry
func (r *ImageRepo) DeleteByEntry(ctx context.Context, entryID uuid.UUID) error {
	if _, err := r.q.Exec(ctx, "DELETE FROM entry_images WHERE entry_id = $1", entryID); err != nil {
		return fmt.Errorf("failed to delete images: %w", err)
	}
	return nil
}

// SpecificationRepo implements the SpecificationRepository interface for PostgreSQL
type SpecificationRepo struct {
	q querier
}

// BulkCreate inserts specs in one batch
func (r *SpecificationRepo) BulkCreate(ctx context.Context, specs []*database.Specification) (int, error) {
	if len(specs) == 0 {
		return 0, nil
	}

	query := `
		INSERT INTO entry_specifications (entry_id, label, value, spec_group, display_order)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`

	batch := &pgx.Batch{}
	for _, s := range specs {
		group := s.Group
		if !group.Valid() {
			group = specgroup.Default
		}
		batch.Queue(query, s.EntryID, s.Label, s.Value, string(group), s.DisplayOrder)
	}

	br := r.q.SendBatch(ctx, batch)
	defer br.Close()

	count := 0
	for _, s := range specs {
		if err := br.QueryRow().Scan(&s.ID); err != nil {
			return count, fmt.Errorf("failed to insert specification %q: %w", s.Label, err)
		}
		count++
	}

	return count, nil
}

// GetByEntry returns an entry's specs in display order
func (r *SpecificationRepo) GetByEntry(ctx context.Context, entryID uuid.UUID) ([]*database.Specification, error) {
	rows, err := r.q.Query(ctx, `
		SELECT id, entry_id, label, value, spec_group, display_order
		FROM entry_specifications
		WHERE entry_id = $1
		ORDER BY display_order, id
	`, entryID)
	if err != nil {
		return nil, fmt.Errorf("failed to query specifications: %w", err)
	}
	defer rows.Close()

	var specs []*database.Specification
	for rows.Next() {
		var s database.Specification
		var group string
		if err := rows.Scan(&s.ID, &s.EntryID, &s.Label, &s.Value, &group, &s.DisplayOrder); err != nil {
			return nil, fmt.Errorf("failed to scan specification: %w", err)
		}
		s.Group = specgroup.Group(group)
		specs = append(specs, &s)
	}
	return specs, rows.Err()
}

// DeleteByEntry removes every spec of an entry
func (r *SpecificationRepo) DeleteByEntry(ctx context.Context, entryID uuid.UUID) error {
	if _, err := r.q.Exec(ctx, "DELETE FROM entry_specifications WHERE entry_id = $1", entryID); err != nil {
		return fmt.Errorf("failed to delete specifications: %w", err)
	}
	return nil
}

// DistinctValues lists the values stored under a label, matched case-insensitively
func (r *SpecificationRepo) DistinctValues(ctx context.Context, label string) ([]string, error) {
	rows, err := r.q.Query(ctx, `
		SELECT DISTINCT value
		FROM entry_specifications
		WHERE lower(label) = lower($1) AND value <> ''
		ORDER BY value
	`, label)
	if err != nil {
		return nil, fmt.Errorf("failed to query distinct values: %w", err)
	}
	defer rows.Close()

	var values []string
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, fmt.Errorf("failed to scan value: %w", err)
		}
		values = append(values, v)
	}
	return values, rows.Err()
}
