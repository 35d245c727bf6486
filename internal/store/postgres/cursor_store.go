package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/alanyoungcy/poolscout/internal/domain"
)

// CursorStore persists the scan cursor in a single-row table so restarts
// resume from the last fully processed block instead of re-deriving a
// lookback window.
type CursorStore struct {
	pool *pgxpool.Pool
}

// NewCursorStore creates a CursorStore backed by the given connection pool.
func NewCursorStore(pool *pgxpool.Pool) *CursorStore {
	return &CursorStore{pool: pool}
}

// Cursor returns the last processed block. ok is false when no cursor has
// been persisted yet.
func (s *CursorStore) Cursor(ctx context.Context) (uint64, bool, error) {
	var block int64
	err := s.pool.QueryRow(ctx, `SELECT last_block FROM scan_cursor WHERE id`).Scan(&block)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("postgres: read scan cursor: %w", err)
	}
	return uint64(block), true, nil
}

// SetCursor records the given block as the last fully processed one.
func (s *CursorStore) SetCursor(ctx context.Context, block uint64) error {
	const query = `
		INSERT INTO scan_cursor (id, last_block, updated_at)
		VALUES (TRUE, $1, NOW())
		ON CONFLICT (id) DO UPDATE SET
			last_block = EXCLUDED.last_block,
			updated_at = NOW()`

	if _, err := s.pool.Exec(ctx, query, int64(block)); err != nil {
		return fmt.Errorf("postgres: set scan cursor: %w", err)
	}
	return nil
}

var _ domain.CursorStore = (*CursorStore)(nil)
