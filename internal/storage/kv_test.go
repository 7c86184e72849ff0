package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
)

func setupKV(t *testing.T) *SQLiteKV {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "steebd-test.db")
	kv, err := OpenSQLite(dbPath)
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { _ = kv.Close() })
	return kv
}

func TestKVSetGetDelete(t *testing.T) {
	kv := setupKV(t)
	ctx := context.Background()

	if _, err := kv.Get(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got: %v", err)
	}

	if err := kv.Set(ctx, "greeting", "hola"); err != nil {
		t.Fatalf("set: %v", err)
	}
	got, err := kv.Get(ctx, "greeting")
	if err != nil || got != "hola" {
		t.Fatalf("get after set: %q, %v", got, err)
	}

	if err := kv.Set(ctx, "greeting", "buenas"); err != nil {
		t.Fatalf("overwrite: %v", err)
	}
	got, err = kv.Get(ctx, "greeting")
	if err != nil || got != "buenas" {
		t.Fatalf("get after overwrite: %q, %v", got, err)
	}

	if err := kv.Delete(ctx, "greeting"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := kv.Get(ctx, "greeting"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got: %v", err)
	}
}

func TestBackupAndRestoreKeys(t *testing.T) {
	kv := setupKV(t)
	ctx := context.Background()

	if err := kv.Set(ctx, KeyTasksBackup, `{"tasks":[]}`); err != nil {
		t.Fatalf("seed: %v", err)
	}
	if err := kv.Set(ctx, KeyLastReminder, "2026-08-28"); err != nil {
		t.Fatalf("seed: %v", err)
	}

	copied, err := kv.BackupKeys(ctx, PreserveKeys())
	if err != nil {
		t.Fatalf("backup: %v", err)
	}
	if copied != 2 {
		t.Fatalf("expected 2 keys copied (missing keys skipped), got %d", copied)
	}

	// Simulate data loss, then restore.
	if err := kv.Delete(ctx, KeyTasksBackup); err != nil {
		t.Fatalf("delete: %v", err)
	}
	restored, err := kv.RestoreKeys(ctx, PreserveKeys())
	if err != nil {
		t.Fatalf("restore: %v", err)
	}
	if restored != 2 {
		t.Fatalf("expected 2 keys restored, got %d", restored)
	}
	got, err := kv.Get(ctx, KeyTasksBackup)
	if err != nil || got != `{"tasks":[]}` {
		t.Fatalf("restored value mismatch: %q, %v", got, err)
	}

	last, err := kv.LastBackupAt(ctx)
	if err != nil {
		t.Fatalf("last backup at: %v", err)
	}
	if last.IsZero() {
		t.Fatal("expected non-zero last backup timestamp")
	}
}

func TestLastBackupAtWithoutBackups(t *testing.T) {
	kv := setupKV(t)
	last, err := kv.LastBackupAt(context.Background())
	if err != nil {
		t.Fatalf("last backup at: %v", err)
	}
	if !last.IsZero() {
		t.Fatalf("expected zero time, got %v", last)
	}
}

func TestMigrateRoundTrip(t *testing.T) {
	kv := setupKV(t)

	if err := MigrateDown(kv.DB()); err != nil {
		t.Fatalf("migrate down: %v", err)
	}
	if err := MigrateUp(kv.DB()); err != nil {
		t.Fatalf("second migrate up: %v", err)
	}
	if err := kv.Set(context.Background(), "after-roundtrip", "ok"); err != nil {
		t.Fatalf("set after roundtrip: %v", err)
	}
}

func TestMigrateUpTracksAppliedVersions(t *testing.T) {
	kv := setupKV(t)

	// OpenSQLite already migrated; a rerun must skip the applied scripts.
	if err := MigrateUp(kv.DB()); err != nil {
		t.Fatalf("rerun migrate up: %v", err)
	}

	var n int
	err := kv.DB().QueryRow(`SELECT COUNT(1) FROM schema_migrations`).Scan(&n)
	if err != nil {
		t.Fatalf("read schema_migrations: %v", err)
	}
	if n == 0 {
		t.Fatal("no applied versions recorded")
	}

	if err := MigrateDown(kv.DB()); err != nil {
		t.Fatalf("migrate down: %v", err)
	}
	if err := kv.DB().QueryRow(`SELECT COUNT(1) FROM schema_migrations`).Scan(&n); err != nil {
		t.Fatalf("read schema_migrations: %v", err)
	}
	if n != 0 {
		t.Fatalf("down should forget applied versions, %d left", n)
	}
}
