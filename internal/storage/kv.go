package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

var ErrNotFound = errors.New("storage: not found")

const sqliteTimeLayout = time.RFC3339Nano

// KV is the local durable key/value store. There are no transactional
// guarantees across keys.
type KV interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}

// SQLiteKV backs the KV contract with a sqlite table, and additionally owns
// the backups partition that the backup worker copies keys into.
type SQLiteKV struct {
	db *sql.DB
}

func NewSQLiteKV(db *sql.DB) (*SQLiteKV, error) {
	if db == nil {
		return nil, errors.New("storage: nil db")
	}
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}
	return &SQLiteKV{db: db}, nil
}

// OpenSQLite opens (creating parent directories if needed) and migrates the
// database at path.
func OpenSQLite(path string) (*SQLiteKV, error) {
	if err := ensureDir(path); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if err := MigrateUp(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	kv, err := NewSQLiteKV(db)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return kv, nil
}

func (s *SQLiteKV) Close() error {
	return s.db.Close()
}

// DB exposes the underlying handle for migrations in tests.
func (s *SQLiteKV) DB() *sql.DB {
	return s.db
}

func (s *SQLiteKV) Get(ctx context.Context, key string) (string, error) {
	var value string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM kv WHERE key = ?`, key).Scan(&value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", ErrNotFound
		}
		return "", err
	}
	return value, nil
}

func (s *SQLiteKV) Set(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO kv (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, value, time.Now().UTC().Format(sqliteTimeLayout),
	)
	return err
}

func (s *SQLiteKV) Delete(ctx context.Context, key string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM kv WHERE key = ?`, key)
	return err
}

// BackupKeys copies the given kv keys into the backups partition, stamping
// each copy. Missing keys are skipped. Returns the number of keys copied.
func (s *SQLiteKV) BackupKeys(ctx context.Context, keys []string) (int, error) {
	savedAt := time.Now().UTC().Format(sqliteTimeLayout)
	copied := 0
	for _, key := range keys {
		value, err := s.Get(ctx, key)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				continue
			}
			return copied, err
		}
		_, err = s.db.ExecContext(ctx, `
			INSERT INTO backups (key, value, saved_at, source) VALUES (?, ?, ?, 'kv')
			ON CONFLICT(key) DO UPDATE SET value = excluded.value, saved_at = excluded.saved_at`,
			key, value, savedAt,
		)
		if err != nil {
			return copied, err
		}
		copied++
	}
	return copied, nil
}

// RestoreKeys copies the given keys back from the backups partition into the
// kv table. Keys without a backup are skipped. Returns the number restored.
func (s *SQLiteKV) RestoreKeys(ctx context.Context, keys []string) (int, error) {
	restored := 0
	for _, key := range keys {
		var value string
		err := s.db.QueryRowContext(ctx, `SELECT value FROM backups WHERE key = ?`, key).Scan(&value)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				continue
			}
			return restored, err
		}
		if err := s.Set(ctx, key, value); err != nil {
			return restored, err
		}
		restored++
	}
	return restored, nil
}

// LastBackupAt returns the most recent backup timestamp, or the zero time
// when no backup exists.
func (s *SQLiteKV) LastBackupAt(ctx context.Context) (time.Time, error) {
	var raw sql.NullString
	err := s.db.QueryRowContext(ctx, `SELECT MAX(saved_at) FROM backups`).Scan(&raw)
	if err != nil {
		return time.Time{}, err
	}
	if !raw.Valid || raw.String == "" {
		return time.Time{}, nil
	}
	return time.Parse(sqliteTimeLayout, raw.String)
}

func ensureDir(path string) error {
	if strings.Contains(path, ":memory:") || strings.Contains(path, "mode=memory") {
		return nil
	}
	clean := strings.TrimPrefix(path, "file:")
	clean = strings.Split(clean, "?")[0]
	dir := filepath.Dir(clean)
	if dir == "." || dir == "" {
		return nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create db dir %q: %w", dir, err)
	}
	return nil
}
