package storage

import (
	"context"
	"database/sql"
	"errors"
	"time"

	_ "modernc.org/sqlite"
)

// ErrNotFound is returned by GetOption when the key has never been set or was deleted.
var ErrNotFound = errors.New("option not found")

// DefaultDBPath is used when no path is configured.
const DefaultDBPath = "bogofree.sqlite"

type DB struct {
	sql *sql.DB
}

func Open(path string) (*DB, error) {
	if path == "" {
		path = DefaultDBPath
	}
	dsn := "file:" + path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, err
	}
	// Ensure schema exists for convenience.
	if _, err := db.Exec(`
CREATE TABLE IF NOT EXISTS options (
  option_key   TEXT PRIMARY KEY,
  option_value TEXT NOT NULL,
  updated_at   DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);
    `); err != nil {
		db.Close()
		return nil, err
	}
	return &DB{sql: db}, nil
}

func (d *DB) Close() error {
	if d == nil || d.sql == nil {
		return nil
	}
	return d.sql.Close()
}

// GetOption returns the stored value for key or ErrNotFound.
func (d *DB) GetOption(ctx context.Context, key string) (string, error) {
	var value string
	err := d.sql.QueryRowContext(ctx, "SELECT option_value FROM options WHERE option_key = ?", key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", err
	}
	return value, nil
}

// SetOption inserts or replaces the value stored under key.
func (d *DB) SetOption(ctx context.Context, key, value string) error {
	_, err := d.sql.ExecContext(ctx, `INSERT INTO options(option_key, option_value, updated_at) VALUES(?, ?, CURRENT_TIMESTAMP)
ON CONFLICT(option_key) DO UPDATE SET option_value = excluded.option_value, updated_at = CURRENT_TIMESTAMP`, key, value)
	return err
}

// DeleteOption removes key. Deleting a missing key is not an error.
func (d *DB) DeleteOption(ctx context.Context, key string) error {
	_, err := d.sql.ExecContext(ctx, "DELETE FROM options WHERE option_key = ?", key)
	return err
}

// SetOptions writes all pairs in one transaction.
func (d *DB) SetOptions(ctx context.Context, pairs map[string]string) (err error) {
	tx, err := d.sql.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	for k, v := range pairs {
		_, err = tx.ExecContext(ctx, `INSERT INTO options(option_key, option_value, updated_at) VALUES(?, ?, CURRENT_TIMESTAMP)
ON CONFLICT(option_key) DO UPDATE SET option_value = excluded.option_value, updated_at = CURRENT_TIMESTAMP`, k, v)
		if err != nil {
			return err
		}
	}
	return tx.Commit()
}

// ListOptions returns every stored option ordered by key.
func (d *DB) ListOptions(ctx context.Context) ([]Option, error) {
	rows, err := d.sql.QueryContext(ctx, "SELECT option_key, option_value, updated_at FROM options ORDER BY option_key")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Option
	for rows.Next() {
		var o Option
		var updatedAtStr string
		if err := rows.Scan(&o.Key, &o.Value, &updatedAtStr); err != nil {
			return nil, err
		}
		// Parse SQLite CURRENT_TIMESTAMP format
		// Try "2006-01-02 15:04:05" then RFC3339
		if t, perr := time.Parse("2006-01-02 15:04:05", updatedAtStr); perr == nil {
			o.UpdatedAt = t
		} else if t2, perr2 := time.Parse(time.RFC3339, updatedAtStr); perr2 == nil {
			o.UpdatedAt = t2
		}
		out = append(out, o)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
