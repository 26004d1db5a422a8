package stats

import (
	"database/sql"
	"fmt"
	"log/slog"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"github.com/utilitarian/spot-archive/internal/model"
)

// SQLiteRecorder appends computed day statistics to a SQLite database.
// Every recomputation of a day adds a new row, so the table keeps the
// revision history that the stats files overwrite.
type SQLiteRecorder struct {
	db     *sql.DB
	logger *slog.Logger
	mu     sync.Mutex
}

// NewSQLiteRecorder opens (or creates) the SQLite database and runs migrations.
func NewSQLiteRecorder(dbPath string, logger *slog.Logger) (*SQLiteRecorder, error) {
	if logger == nil {
		logger = slog.Default()
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// WAL mode so readers do not block the scheduled stats jobs.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	r := &SQLiteRecorder{db: db, logger: logger}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	logger.Info("sqlite stats recorder opened", "path", dbPath)
	return r, nil
}

func (r *SQLiteRecorder) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS stats_history (
			id            INTEGER PRIMARY KEY AUTOINCREMENT,
			recorded_at   INTEGER NOT NULL,
			area          TEXT NOT NULL,
			day           TEXT NOT NULL,
			lowest_price  TEXT NOT NULL,
			highest_price TEXT NOT NULL,
			average_price TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_stats_area_day ON stats_history(area, day)`,
	}

	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

func (r *SQLiteRecorder) RecordDayStats(area string, stats model.DayStatistics) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, err := r.db.Exec(`INSERT INTO stats_history
		(recorded_at, area, day, lowest_price, highest_price, average_price)
		VALUES (?,?,?,?,?,?)`,
		time.Now().Unix(), area, stats.Day,
		stats.LowestPrice, stats.HighestPrice, stats.AveragePrice,
	)
	return err
}

func (r *SQLiteRecorder) Close() error {
	r.logger.Info("closing sqlite stats recorder")
	return r.db.Close()
}
