package archive

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/utilitarian/spot-archive/internal/model"
)

// PGStore keeps the archive in PostgreSQL. Partitions map to row sets keyed
// by (area, granularity, key); Write replaces a partition inside one
// transaction, so readers never observe a partial partition.
type PGStore struct {
	pool *pgxpool.Pool
}

// NewPGStore creates a PostgreSQL-backed store.
func NewPGStore(pool *pgxpool.Pool) *PGStore {
	return &PGStore{pool: pool}
}

// Migrate creates the archive tables if they do not exist.
func (s *PGStore) Migrate(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS price_points (
			area        TEXT        NOT NULL,
			granularity TEXT        NOT NULL,
			key         TEXT        NOT NULL,
			ts          TIMESTAMPTZ NOT NULL,
			value       TEXT        NOT NULL,
			PRIMARY KEY (area, granularity, key, ts, value)
		)`,
		`CREATE TABLE IF NOT EXISTS day_statistics (
			area          TEXT NOT NULL,
			year          TEXT NOT NULL,
			day           TEXT NOT NULL,
			highest_price TEXT NOT NULL,
			lowest_price  TEXT NOT NULL,
			average_price TEXT NOT NULL,
			PRIMARY KEY (area, year, day)
		)`,
	}
	for _, stmt := range stmts {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("migrate archive schema: %w", err)
		}
	}
	return nil
}

// Read loads a partition ordered by timestamp (ties by value).
func (s *PGStore) Read(ctx context.Context, area string, g Granularity, key string) ([]model.PricePoint, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT ts, value FROM price_points
		 WHERE area = $1 AND granularity = $2 AND key = $3
		 ORDER BY ts, value`,
		area, string(g), key)
	if err != nil {
		return nil, &PersistenceError{Area: area, Granularity: g, Key: key, Op: "read", Err: err}
	}
	defer rows.Close()

	var points []model.PricePoint
	for rows.Next() {
		var p model.PricePoint
		if err := rows.Scan(&p.Timestamp, &p.Value); err != nil {
			return nil, &PersistenceError{Area: area, Granularity: g, Key: key, Op: "read", Err: err}
		}
		p.Timestamp = p.Timestamp.In(model.MarketZone)
		points = append(points, p)
	}
	if err := rows.Err(); err != nil {
		return nil, &PersistenceError{Area: area, Granularity: g, Key: key, Op: "read", Err: err}
	}
	return points, nil
}

// Write replaces a partition with the given point set.
func (s *PGStore) Write(ctx context.Context, area string, g Granularity, key string, points []model.PricePoint) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return &PersistenceError{Area: area, Granularity: g, Key: key, Op: "write", Err: err}
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx,
		`DELETE FROM price_points WHERE area = $1 AND granularity = $2 AND key = $3`,
		area, string(g), key); err != nil {
		return &PersistenceError{Area: area, Granularity: g, Key: key, Op: "write", Err: err}
	}

	batch := &pgx.Batch{}
	for _, p := range points {
		batch.Queue(
			`INSERT INTO price_points (area, granularity, key, ts, value)
			 VALUES ($1, $2, $3, $4, $5)
			 ON CONFLICT DO NOTHING`,
			area, string(g), key, p.Timestamp, p.Value)
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return &PersistenceError{Area: area, Granularity: g, Key: key, Op: "write", Err: err}
	}

	if err := tx.Commit(ctx); err != nil {
		return &PersistenceError{Area: area, Granularity: g, Key: key, Op: "write", Err: err}
	}
	return nil
}

// ReadStats loads the statistics rows for one year ordered by day.
func (s *PGStore) ReadStats(ctx context.Context, area, year string) ([]model.DayStatistics, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT day, highest_price, lowest_price, average_price
		 FROM day_statistics WHERE area = $1 AND year = $2 ORDER BY day`,
		area, year)
	if err != nil {
		return nil, &PersistenceError{Area: area, Granularity: GranularityYear, Key: year, Op: "read", Err: err}
	}
	defer rows.Close()

	var stats []model.DayStatistics
	for rows.Next() {
		var st model.DayStatistics
		if err := rows.Scan(&st.Day, &st.HighestPrice, &st.LowestPrice, &st.AveragePrice); err != nil {
			return nil, &PersistenceError{Area: area, Granularity: GranularityYear, Key: year, Op: "read", Err: err}
		}
		stats = append(stats, st)
	}
	if err := rows.Err(); err != nil {
		return nil, &PersistenceError{Area: area, Granularity: GranularityYear, Key: year, Op: "read", Err: err}
	}
	return stats, nil
}

// WriteStats replaces the statistics rows for one year.
func (s *PGStore) WriteStats(ctx context.Context, area, year string, stats []model.DayStatistics) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return &PersistenceError{Area: area, Granularity: GranularityYear, Key: year, Op: "write", Err: err}
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx,
		`DELETE FROM day_statistics WHERE area = $1 AND year = $2`, area, year); err != nil {
		return &PersistenceError{Area: area, Granularity: GranularityYear, Key: year, Op: "write", Err: err}
	}

	batch := &pgx.Batch{}
	for _, st := range stats {
		batch.Queue(
			`INSERT INTO day_statistics (area, year, day, highest_price, lowest_price, average_price)
			 VALUES ($1, $2, $3, $4, $5, $6)
			 ON CONFLICT DO NOTHING`,
			area, year, st.Day, st.HighestPrice, st.LowestPrice, st.AveragePrice)
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return &PersistenceError{Area: area, Granularity: GranularityYear, Key: year, Op: "write", Err: err}
	}

	if err := tx.Commit(ctx); err != nil {
		return &PersistenceError{Area: area, Granularity: GranularityYear, Key: year, Op: "write", Err: err}
	}
	return nil
}
