package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/esgaming/catalogops/internal/database"
	"github.com/jackc/pgx/v5"
)

const historyColumns = `id, action, source, count, details, started_at, completed_at`

// HistoryRepo records imports and exports in operation_history
type HistoryRepo struct {
	q querier
}

// Add stores one history line. A zero start time means now.
func (r *HistoryRepo) Add(ctx context.Context, h *database.OperationHistory) error {
	if h.StartedAt.IsZero() {
		h.StartedAt = time.Now()
	}

	row := r.q.QueryRow(ctx, `
		INSERT INTO operation_history (action, source, count, details, started_at, completed_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id`,
		h.Action, h.Source, h.Count, h.Details, h.StartedAt, h.CompletedAt)
	if err := row.Scan(&h.ID); err != nil {
		return fmt.Errorf("failed to record %s history: %w", h.Action, err)
	}
	return nil
}

// GetRecent returns up to limit lines, newest first
func (r *HistoryRepo) GetRecent(ctx context.Context, limit int) ([]*database.OperationHistory, error) {
	rows, err := r.q.Query(ctx,
		`SELECT `+historyColumns+` FROM operation_history ORDER BY started_at DESC, id DESC LIMIT $1`,
		limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query history: %w", err)
	}

	history, err := pgx.CollectRows(rows, scanHistory)
	if err != nil {
		return nil, fmt.Errorf("failed to read history: %w", err)
	}
	return history, nil
}

func scanHistory(row pgx.CollectableRow) (*database.OperationHistory, error) {
	var h database.OperationHistory
	err := row.Scan(&h.ID, &h.Action, &h.Source, &h.Count, &h.Details, &h.StartedAt, &h.CompletedAt)
	return &h, err
}
