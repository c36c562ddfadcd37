package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/esgaming/catalogops/internal/database"
	"github.com/jackc/pgx/v5"
)

// CategoryRepo implements the CategoryRepository interface for PostgreSQL
type CategoryRepo struct {
	q querier
}

const categoryColumns = `id, name, display_name, is_active, created_at`

// ListActive returns active categories ordered by name
func (r *CategoryRepo) ListActive(ctx context.Context) ([]*database.Category, error) {
	rows, err := r.q.Query(ctx, `SELECT `+categoryColumns+` FROM categories WHERE is_active ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to query categories: %w", err)
	}
	defer rows.Close()

	var categories []*database.Category
	for rows.Next() {
		var c database.Category
		if err := rows.Scan(&c.ID, &c.Name, &c.DisplayName, &c.IsActive, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan category: %w", err)
		}
		categories = append(categories, &c)
	}
	return categories, rows.Err()
}

// GetByName retrieves a category by its canonical name
func (r *CategoryRepo) GetByName(ctx context.Context, name string) (*database.Category, error) {
	var c database.Category
	err := r.q.QueryRow(ctx, `SELECT `+categoryColumns+` FROM categories WHERE name = $1`, name).
		Scan(&c.ID, &c.Name, &c.DisplayName, &c.IsActive, &c.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get category: %w", err)
	}
	return &c, nil
}

// EnsureExists inserts the category unless one with the same name exists
func (r *CategoryRepo) EnsureExists(ctx context.Context, name, displayName string) (*database.Category, error) {
	_, err := r.q.Exec(ctx, `
		INSERT INTO categories (name, display_name)
		VALUES ($1, $2)
		ON CONFLICT (name) DO NOTHING
	`, name, displayName)
	if err != nil {
		return nil, fmt.Errorf("failed to create category: %w", err)
	}

	c, err := r.GetByName(ctx, name)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, fmt.Errorf("category %q missing after insert", name)
	}
	return c, nil
}
