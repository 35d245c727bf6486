package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/alanyoungcy/poolscout/internal/domain"
)

// TokenStore implements domain.TokenStore using PostgreSQL. The primary key
// on the lower-cased address column is the authoritative uniqueness
// guarantee; concurrent scans racing past the in-code dedup check converge
// on a single row here.
type TokenStore struct {
	pool *pgxpool.Pool
}

// NewTokenStore creates a TokenStore backed by the given connection pool.
func NewTokenStore(pool *pgxpool.Pool) *TokenStore {
	return &TokenStore{pool: pool}
}

const tokenCols = `address, symbol, name, pool_id, score,
	liquidity_usd, price, price_change_pct, market_cap, volume_24h,
	age_minutes, is_spiking, token_type, detected_at, last_updated`

// Upsert inserts the record or, if a row with the same address already
// exists, updates everything except detected_at. On an update age_minutes
// is recomputed from the kept detected_at, so the stored age never drifts
// from the first-seen timestamp. The stored row is returned, so callers can
// tell a fresh insert (detected_at matches the submitted record) from an
// update of a pre-existing row.
func (s *TokenStore) Upsert(ctx context.Context, rec domain.TokenRecord) (domain.TokenRecord, error) {
	const query = `
		INSERT INTO tokens (
			address, symbol, name, pool_id, score,
			liquidity_usd, price, price_change_pct, market_cap, volume_24h,
			age_minutes, is_spiking, token_type, detected_at, last_updated
		) VALUES (
			$1, $2, $3, $4, $5,
			$6, $7, $8, $9, $10,
			$11, $12, $13, $14, NOW()
		)
		ON CONFLICT (address) DO UPDATE SET
			symbol           = EXCLUDED.symbol,
			name             = EXCLUDED.name,
			pool_id          = EXCLUDED.pool_id,
			score            = EXCLUDED.score,
			liquidity_usd    = EXCLUDED.liquidity_usd,
			price            = EXCLUDED.price,
			price_change_pct = EXCLUDED.price_change_pct,
			market_cap       = EXCLUDED.market_cap,
			volume_24h       = EXCLUDED.volume_24h,
			age_minutes      = FLOOR(EXTRACT(EPOCH FROM (NOW() - tokens.detected_at)) / 60)::int,
			is_spiking       = EXCLUDED.is_spiking,
			token_type       = EXCLUDED.token_type,
			last_updated     = NOW()
		RETURNING ` + tokenCols

	row := s.pool.QueryRow(ctx, query,
		domain.NormalizeAddress(rec.Address), rec.Symbol, rec.Name, rec.PoolID, rec.Score,
		rec.LiquidityUSD, rec.Price, rec.PriceChangePct, rec.MarketCap, rec.Volume24h,
		rec.AgeMinutes, rec.IsSpiking, string(rec.TokenType), rec.DetectedAt,
	)
	stored, err := scanToken(row)
	if err != nil {
		return domain.TokenRecord{}, fmt.Errorf("postgres: upsert token %s: %w", rec.Address, err)
	}
	return stored, nil
}

// Exists reports whether a visible record for the address is present.
func (s *TokenStore) Exists(ctx context.Context, address string, freshness time.Duration) (bool, error) {
	const query = `
		SELECT EXISTS(
			SELECT 1 FROM tokens
			WHERE address = $1
			  AND detected_at > NOW() - make_interval(secs => $2)
		)`

	var exists bool
	err := s.pool.QueryRow(ctx, query,
		domain.NormalizeAddress(address), freshness.Seconds(),
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("postgres: token exists %s: %w", address, err)
	}
	return exists, nil
}

// QueryTop returns the highest-scoring records within the freshness horizon.
func (s *TokenStore) QueryTop(ctx context.Context, limit int, freshness time.Duration) ([]domain.TokenRecord, error) {
	query := `SELECT ` + tokenCols + `
		FROM tokens
		WHERE detected_at > NOW() - make_interval(secs => $1)
		ORDER BY score DESC, detected_at DESC
		LIMIT $2`

	rows, err := s.pool.Query(ctx, query, freshness.Seconds(), limit)
	if err != nil {
		return nil, fmt.Errorf("postgres: query top tokens: %w", err)
	}
	defer rows.Close()

	var tokens []domain.TokenRecord
	for rows.Next() {
		rec, err := scanToken(rows)
		if err != nil {
			return nil, fmt.Errorf("postgres: scan token: %w", err)
		}
		tokens = append(tokens, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: query top tokens rows: %w", err)
	}
	return tokens, nil
}

// AgeAllWithin recomputes age_minutes from detected_at for every record
// inside the freshness horizon.
func (s *TokenStore) AgeAllWithin(ctx context.Context, freshness time.Duration) (int64, error) {
	const query = `
		UPDATE tokens
		SET age_minutes  = FLOOR(EXTRACT(EPOCH FROM (NOW() - detected_at)) / 60)::int,
		    last_updated = NOW()
		WHERE detected_at > NOW() - make_interval(secs => $1)`

	tag, err := s.pool.Exec(ctx, query, freshness.Seconds())
	if err != nil {
		return 0, fmt.Errorf("postgres: age tokens: %w", err)
	}
	return tag.RowsAffected(), nil
}

// ListOlderThan returns records past the expiry horizon, oldest first.
func (s *TokenStore) ListOlderThan(ctx context.Context, expiry time.Duration) ([]domain.TokenRecord, error) {
	query := `SELECT ` + tokenCols + `
		FROM tokens
		WHERE detected_at <= NOW() - make_interval(secs => $1)
		ORDER BY detected_at ASC`

	rows, err := s.pool.Query(ctx, query, expiry.Seconds())
	if err != nil {
		return nil, fmt.Errorf("postgres: list expired tokens: %w", err)
	}
	defer rows.Close()

	var tokens []domain.TokenRecord
	for rows.Next() {
		rec, err := scanToken(rows)
		if err != nil {
			return nil, fmt.Errorf("postgres: scan expired token: %w", err)
		}
		tokens = append(tokens, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: list expired tokens rows: %w", err)
	}
	return tokens, nil
}

// ExpireOlderThan deletes records past the expiry horizon.
func (s *TokenStore) ExpireOlderThan(ctx context.Context, expiry time.Duration) (int64, error) {
	const query = `
		DELETE FROM tokens
		WHERE detected_at <= NOW() - make_interval(secs => $1)`

	tag, err := s.pool.Exec(ctx, query, expiry.Seconds())
	if err != nil {
		return 0, fmt.Errorf("postgres: expire tokens: %w", err)
	}
	return tag.RowsAffected(), nil
}

// scanToken scans a single token row into a domain.TokenRecord.
func scanToken(row pgx.Row) (domain.TokenRecord, error) {
	var rec domain.TokenRecord
	var tokenType string
	err := row.Scan(
		&rec.Address, &rec.Symbol, &rec.Name, &rec.PoolID, &rec.Score,
		&rec.LiquidityUSD, &rec.Price, &rec.PriceChangePct, &rec.MarketCap, &rec.Volume24h,
		&rec.AgeMinutes, &rec.IsSpiking, &tokenType, &rec.DetectedAt, &rec.LastUpdated,
	)
	if err != nil {
		return domain.TokenRecord{}, err
	}
	rec.TokenType = domain.TokenType(tokenType)
	return rec, nil
}

// Compile-time interface check.
var _ domain.TokenStore = (*TokenStore)(nil)
