package rollup

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"vantage/internal/config"
)

const dayFormat = "2006-01-02"

// HourlyAggregate is one category's condensed metrics for one clock hour.
type HourlyAggregate struct {
	CategoryKey      string    `json:"category_key"`
	HourStart        time.Time `json:"hour_start"`
	ItemCount        int       `json:"item_count"`
	TotalViewers     int64     `json:"total_viewers"`
	AvgViewers       float64   `json:"avg_viewers"`
	PeakViewers      int64     `json:"peak_viewers"`
	LiveShare        float64   `json:"live_share"`
	DominantLanguage string    `json:"dominant_language"`
	DominantFormat   string    `json:"dominant_format"`
}

// DailyAggregate is one category's condensed metrics for one calendar day.
type DailyAggregate struct {
	CategoryKey   string  `json:"category_key"`
	Day           string  `json:"day"`
	HoursObserved int     `json:"hours_observed"`
	TotalViewers  int64   `json:"total_viewers"`
	AvgViewers    float64 `json:"avg_viewers"`
	PeakViewers   int64   `json:"peak_viewers"`
	BestHour      string  `json:"best_hour"`
	WorstHour     string  `json:"worst_hour"`
	TrendPct      float64 `json:"trend_pct"`
}

// Store persists the warm and cold aggregate tiers in SQLite.
type Store struct {
	db   *sql.DB
	path string
}

// OpenStore initializes or connects to the aggregate database.
func OpenStore(cfg *config.Config) (*Store, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}
	return OpenStorePath(filepath.Join(cfg.Paths.StateDir, "aggregates.db"))
}

// OpenStorePath opens an aggregate database at an explicit location.
func OpenStorePath(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open aggregates db: %w", err)
	}

	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
	} {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: dbPath}
	if err := store.applySchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

func (s *Store) applySchema(ctx context.Context) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS hourly_aggregates (
            id                INTEGER PRIMARY KEY AUTOINCREMENT,
            category_key      TEXT NOT NULL,
            hour_start        TEXT NOT NULL,
            item_count        INTEGER NOT NULL,
            total_viewers     INTEGER NOT NULL,
            avg_viewers       REAL NOT NULL,
            peak_viewers      INTEGER NOT NULL,
            live_share        REAL NOT NULL,
            dominant_language TEXT NOT NULL,
            dominant_format   TEXT NOT NULL,
            created_at        TEXT NOT NULL,
            UNIQUE(category_key, hour_start)
        )`,
		`CREATE TABLE IF NOT EXISTS daily_aggregates (
            id             INTEGER PRIMARY KEY AUTOINCREMENT,
            category_key   TEXT NOT NULL,
            day            TEXT NOT NULL,
            hours_observed INTEGER NOT NULL,
            total_viewers  INTEGER NOT NULL,
            avg_viewers    REAL NOT NULL,
            peak_viewers   INTEGER NOT NULL,
            best_hour      TEXT NOT NULL,
            worst_hour     TEXT NOT NULL,
            trend_pct      REAL NOT NULL,
            created_at     TEXT NOT NULL,
            UNIQUE(category_key, day)
        )`,
	}
	for _, statement := range statements {
		if _, err := s.db.ExecContext(ctx, statement); err != nil {
			return fmt.Errorf("create aggregate schema: %w", err)
		}
	}
	return nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path returns the database file location.
func (s *Store) Path() string {
	if s == nil {
		return ""
	}
	return s.path
}

// UpsertHourly writes or overwrites the row for the aggregate's category and
// hour.
func (s *Store) UpsertHourly(ctx context.Context, agg HourlyAggregate) error {
	_, err := s.db.ExecContext(ctx, `
        INSERT INTO hourly_aggregates (
            category_key, hour_start, item_count, total_viewers, avg_viewers,
            peak_viewers, live_share, dominant_language, dominant_format, created_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
        ON CONFLICT(category_key, hour_start) DO UPDATE SET
            item_count = excluded.item_count,
            total_viewers = excluded.total_viewers,
            avg_viewers = excluded.avg_viewers,
            peak_viewers = excluded.peak_viewers,
            live_share = excluded.live_share,
            dominant_language = excluded.dominant_language,
            dominant_format = excluded.dominant_format,
            created_at = excluded.created_at`,
		agg.CategoryKey, agg.HourStart.UTC().Format(time.RFC3339Nano),
		agg.ItemCount, agg.TotalViewers, agg.AvgViewers, agg.PeakViewers,
		agg.LiveShare, agg.DominantLanguage, agg.DominantFormat,
		time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("upsert hourly %s %s: %w", agg.CategoryKey, agg.HourStart, err)
	}
	return nil
}

// UpsertDaily writes or overwrites the row for the aggregate's category and
// day.
func (s *Store) UpsertDaily(ctx context.Context, agg DailyAggregate) error {
	_, err := s.db.ExecContext(ctx, `
        INSERT INTO daily_aggregates (
            category_key, day, hours_observed, total_viewers, avg_viewers,
            peak_viewers, best_hour, worst_hour, trend_pct, created_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
        ON CONFLICT(category_key, day) DO UPDATE SET
            hours_observed = excluded.hours_observed,
            total_viewers = excluded.total_viewers,
            avg_viewers = excluded.avg_viewers,
            peak_viewers = excluded.peak_viewers,
            best_hour = excluded.best_hour,
            worst_hour = excluded.worst_hour,
            trend_pct = excluded.trend_pct,
            created_at = excluded.created_at`,
		agg.CategoryKey, agg.Day, agg.HoursObserved, agg.TotalViewers,
		agg.AvgViewers, agg.PeakViewers, agg.BestHour, agg.WorstHour,
		agg.TrendPct, time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("upsert daily %s %s: %w", agg.CategoryKey, agg.Day, err)
	}
	return nil
}

// HourlyForDay returns a category's hourly rows within one UTC calendar day,
// ordered by hour.
func (s *Store) HourlyForDay(ctx context.Context, categoryKey string, day time.Time) ([]HourlyAggregate, error) {
	dayStart := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.UTC)
	dayEnd := dayStart.Add(24 * time.Hour)

	rows, err := s.db.QueryContext(ctx, `
        SELECT category_key, hour_start, item_count, total_viewers, avg_viewers,
               peak_viewers, live_share, dominant_language, dominant_format
        FROM hourly_aggregates
        WHERE category_key = ? AND hour_start >= ? AND hour_start < ?
        ORDER BY hour_start`,
		categoryKey,
		dayStart.Format(time.RFC3339Nano),
		dayEnd.Format(time.RFC3339Nano),
	)
	if err != nil {
		return nil, fmt.Errorf("query hourly for %s: %w", categoryKey, err)
	}
	defer rows.Close()

	var aggregates []HourlyAggregate
	for rows.Next() {
		var (
			agg     HourlyAggregate
			hourRaw string
		)
		if err := rows.Scan(&agg.CategoryKey, &hourRaw, &agg.ItemCount,
			&agg.TotalViewers, &agg.AvgViewers, &agg.PeakViewers,
			&agg.LiveShare, &agg.DominantLanguage, &agg.DominantFormat); err != nil {
			return nil, err
		}
		if agg.HourStart, err = time.Parse(time.RFC3339Nano, hourRaw); err != nil {
			return nil, fmt.Errorf("parse hour_start %q: %w", hourRaw, err)
		}
		aggregates = append(aggregates, agg)
	}
	return aggregates, rows.Err()
}

// DailyFor returns a category's row for one calendar day, if present.
func (s *Store) DailyFor(ctx context.Context, categoryKey string, day time.Time) (*DailyAggregate, bool, error) {
	row := s.db.QueryRowContext(ctx, `
        SELECT category_key, day, hours_observed, total_viewers, avg_viewers,
               peak_viewers, best_hour, worst_hour, trend_pct
        FROM daily_aggregates
        WHERE category_key = ? AND day = ?`,
		categoryKey, day.UTC().Format(dayFormat),
	)

	var agg DailyAggregate
	err := row.Scan(&agg.CategoryKey, &agg.Day, &agg.HoursObserved,
		&agg.TotalViewers, &agg.AvgViewers, &agg.PeakViewers,
		&agg.BestHour, &agg.WorstHour, &agg.TrendPct)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("query daily for %s: %w", categoryKey, err)
	}
	return &agg, true, nil
}

// LatestDaily returns a category's most recent daily rows, newest first.
func (s *Store) LatestDaily(ctx context.Context, categoryKey string, limit int) ([]DailyAggregate, error) {
	if limit < 1 {
		limit = 1
	}
	rows, err := s.db.QueryContext(ctx, `
        SELECT category_key, day, hours_observed, total_viewers, avg_viewers,
               peak_viewers, best_hour, worst_hour, trend_pct
        FROM daily_aggregates
        WHERE category_key = ?
        ORDER BY day DESC
        LIMIT ?`,
		categoryKey, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query latest daily for %s: %w", categoryKey, err)
	}
	defer rows.Close()

	var aggregates []DailyAggregate
	for rows.Next() {
		var agg DailyAggregate
		if err := rows.Scan(&agg.CategoryKey, &agg.Day, &agg.HoursObserved,
			&agg.TotalViewers, &agg.AvgViewers, &agg.PeakViewers,
			&agg.BestHour, &agg.WorstHour, &agg.TrendPct); err != nil {
			return nil, err
		}
		aggregates = append(aggregates, agg)
	}
	return aggregates, rows.Err()
}

// PurgeHourlyBefore removes hourly rows older than cutoff and returns the
// count removed.
func (s *Store) PurgeHourlyBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM hourly_aggregates WHERE hour_start < ?`,
		cutoff.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return 0, fmt.Errorf("purge hourly: %w", err)
	}
	return res.RowsAffected()
}

// PurgeDailyBefore removes daily rows for days before cutoff and returns the
// count removed.
func (s *Store) PurgeDailyBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM daily_aggregates WHERE day < ?`,
		cutoff.UTC().Format(dayFormat),
	)
	if err != nil {
		return 0, fmt.Errorf("purge daily: %w", err)
	}
	return res.RowsAffected()
}
