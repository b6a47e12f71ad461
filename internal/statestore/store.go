package statestore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"vantage/internal/config"
)

// Namespace prefixes used across the pipeline. Keys are joined with ':'.
const (
	NSQuota    = "quota"
	NSPriority = "priority"
	NSTask     = "task"
	NSAnalysis = "analysis"
	NSItems    = "items"
)

// Key joins namespace parts into a store key.
func Key(parts ...string) string {
	return strings.Join(parts, ":")
}

// Store manages pipeline state persistence backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
}

// Open initializes or connects to the state database and applies the schema.
func Open(cfg *config.Config) (*Store, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}

	dbPath := filepath.Join(cfg.Paths.StateDir, "state.db")
	return OpenPath(dbPath)
}

// OpenPath opens a state database at an explicit location.
func OpenPath(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
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
	_, err := s.db.ExecContext(ctx, `
        CREATE TABLE IF NOT EXISTS state_entries (
            key        TEXT PRIMARY KEY,
            value      BLOB NOT NULL,
            updated_at TEXT NOT NULL,
            expires_at TEXT
        )`)
	if err != nil {
		return fmt.Errorf("create state table: %w", err)
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

// Get returns the value for key, reporting a miss for absent or expired
// entries. Expired rows are lazily deleted.
func (s *Store) Get(ctx context.Context, key string) ([]byte, bool, error) {
	row := s.db.QueryRowContext(ctx, `SELECT value, expires_at FROM state_entries WHERE key = ?`, key)

	var (
		value      []byte
		expiresRaw sql.NullString
	)
	if err := row.Scan(&value, &expiresRaw); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("get %s: %w", key, err)
	}

	if expiresRaw.Valid {
		expires, err := time.Parse(time.RFC3339Nano, expiresRaw.String)
		if err == nil && !expires.After(time.Now().UTC()) {
			_, _ = s.db.ExecContext(ctx, `DELETE FROM state_entries WHERE key = ?`, key)
			return nil, false, nil
		}
	}
	return value, true, nil
}

// GetJSON unmarshals the value for key into dest, reporting a miss like Get.
func (s *Store) GetJSON(ctx context.Context, key string, dest any) (bool, error) {
	value, ok, err := s.Get(ctx, key)
	if err != nil || !ok {
		return false, err
	}
	if err := json.Unmarshal(value, dest); err != nil {
		return false, fmt.Errorf("decode %s: %w", key, err)
	}
	return true, nil
}

// Set stores a value under key. A non-positive TTL means the entry never
// expires.
func (s *Store) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	now := time.Now().UTC()
	var expires any
	if ttl > 0 {
		expires = now.Add(ttl).Format(time.RFC3339Nano)
	}
	_, err := s.db.ExecContext(ctx, `
        INSERT INTO state_entries (key, value, updated_at, expires_at)
        VALUES (?, ?, ?, ?)
        ON CONFLICT(key) DO UPDATE SET
            value = excluded.value,
            updated_at = excluded.updated_at,
            expires_at = excluded.expires_at`,
		key, value, now.Format(time.RFC3339Nano), expires,
	)
	if err != nil {
		return fmt.Errorf("set %s: %w", key, err)
	}
	return nil
}

// SetJSON marshals value and stores it under key.
func (s *Store) SetJSON(ctx context.Context, key string, value any, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	return s.Set(ctx, key, data, ttl)
}

// Delete removes an entry. Deleting an absent key is not an error.
func (s *Store) Delete(ctx context.Context, key string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM state_entries WHERE key = ?`, key); err != nil {
		return fmt.Errorf("delete %s: %w", key, err)
	}
	return nil
}

// Keys lists live keys beginning with prefix, ordered lexically.
func (s *Store) Keys(ctx context.Context, prefix string) ([]string, error) {
	now := time.Now().UTC().Format(time.RFC3339Nano)
	rows, err := s.db.QueryContext(ctx, `
        SELECT key FROM state_entries
        WHERE key LIKE ? ESCAPE '\'
          AND (expires_at IS NULL OR expires_at > ?)
        ORDER BY key`,
		likePrefix(prefix), now,
	)
	if err != nil {
		return nil, fmt.Errorf("list keys %s: %w", prefix, err)
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, err
		}
		keys = append(keys, key)
	}
	return keys, rows.Err()
}

// PurgeExpired removes all expired entries and returns the count removed.
func (s *Store) PurgeExpired(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM state_entries WHERE expires_at IS NOT NULL AND expires_at <= ?`,
		time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return 0, fmt.Errorf("purge expired: %w", err)
	}
	return res.RowsAffected()
}

func likePrefix(prefix string) string {
	escaped := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(prefix)
	return escaped + "%"
}
