package backup

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/steebapp/steebd/internal/storage"
)

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func setupWorker(t *testing.T) (*Worker, *Client, storage.KV) {
	t.Helper()
	kv, err := storage.OpenSQLite(t.TempDir() + "/steebd.db")
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { kv.Close() })

	w := NewWorker(kv, storage.PreserveKeys(), 0, quietLogger())
	w.Start()
	t.Cleanup(w.Stop)
	return w, NewClient(w, time.Second), kv
}

func TestBackupAndRestoreRoundTrip(t *testing.T) {
	_, client, kv := setupWorker(t)
	ctx := context.Background()

	if err := kv.Set(ctx, storage.KeyTasksBackup, `{"tasks":[]}`); err != nil {
		t.Fatalf("seed: %v", err)
	}
	if err := kv.Set(ctx, storage.KeyLastReminder, "2026-08-28"); err != nil {
		t.Fatalf("seed: %v", err)
	}

	out := client.Backup()
	if out.Result != ResultOk {
		t.Fatalf("Backup = %+v, want ok", out)
	}
	if out.Keys != 2 {
		t.Errorf("backed up %d keys, want 2", out.Keys)
	}

	// Damage the live copy, then restore.
	if err := kv.Set(ctx, storage.KeyTasksBackup, "{corrupt"); err != nil {
		t.Fatalf("overwrite: %v", err)
	}
	out = client.Restore()
	if out.Result != ResultOk {
		t.Fatalf("Restore = %+v, want ok", out)
	}
	got, err := kv.Get(ctx, storage.KeyTasksBackup)
	if err != nil || got != `{"tasks":[]}` {
		t.Errorf("restored value = %q, %v", got, err)
	}
}

func TestBackupSkipsMissingKeys(t *testing.T) {
	_, client, kv := setupWorker(t)
	if err := kv.Set(context.Background(), storage.KeyLastReminder, "2026-08-28"); err != nil {
		t.Fatalf("seed: %v", err)
	}
	out := client.Backup()
	if out.Result != ResultOk || out.Keys != 1 {
		t.Errorf("Backup = %+v, want ok with 1 key", out)
	}
}

func TestDeadWorkerTimesOut(t *testing.T) {
	kv, err := storage.OpenSQLite(t.TempDir() + "/steebd.db")
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { kv.Close() })

	// Worker constructed but never started.
	w := NewWorker(kv, storage.PreserveKeys(), 0, quietLogger())
	client := NewClient(w, 50*time.Millisecond)

	start := time.Now()
	out := client.Backup()
	if out.Result != ResultTimedOut {
		t.Fatalf("Backup = %+v, want timed_out", out)
	}
	if time.Since(start) > time.Second {
		t.Error("timeout took far longer than configured")
	}
}

type failingArchiver struct{}

func (failingArchiver) BackupKeys(ctx context.Context, keys []string) (int, error) {
	return 0, errors.New("disk full")
}
func (failingArchiver) RestoreKeys(ctx context.Context, keys []string) (int, error) {
	return 0, errors.New("disk full")
}
func (failingArchiver) LastBackupAt(ctx context.Context) (time.Time, error) {
	return time.Time{}, nil
}

func TestWorkerErrorSurfaces(t *testing.T) {
	w := NewWorker(failingArchiver{}, storage.PreserveKeys(), 0, quietLogger())
	w.Start()
	t.Cleanup(w.Stop)

	out := NewClient(w, time.Second).Backup()
	if out.Result != ResultWorkerError {
		t.Fatalf("Backup = %+v, want worker_error", out)
	}
	if out.Err == nil {
		t.Error("worker error not carried in outcome")
	}
}

func TestPeriodicBackupRuns(t *testing.T) {
	kv, err := storage.OpenSQLite(t.TempDir() + "/steebd.db")
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { kv.Close() })
	if err := kv.Set(context.Background(), storage.KeyTasksBackup, "{}"); err != nil {
		t.Fatalf("seed: %v", err)
	}

	w := NewWorker(kv, storage.PreserveKeys(), 20*time.Millisecond, quietLogger())
	w.Start()
	t.Cleanup(w.Stop)

	deadline := time.After(2 * time.Second)
	for {
		at, err := w.LastBackupAt(context.Background())
		if err == nil && !at.IsZero() {
			return
		}
		select {
		case <-deadline:
			t.Fatal("periodic backup never ran")
		case <-time.After(10 * time.Millisecond):
		}
	}
}

func TestStopTakesFinalBackup(t *testing.T) {
	kv, err := storage.OpenSQLite(t.TempDir() + "/steebd.db")
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { kv.Close() })
	ctx := context.Background()

	if err := kv.Set(ctx, storage.KeyTasksBackup, `{"tasks":[]}`); err != nil {
		t.Fatalf("seed: %v", err)
	}

	w := NewWorker(kv, storage.PreserveKeys(), 0, quietLogger())
	w.Start()
	w.Stop()

	at, err := w.LastBackupAt(ctx)
	if err != nil {
		t.Fatalf("LastBackupAt: %v", err)
	}
	if at.IsZero() {
		t.Fatal("no backup recorded on shutdown")
	}
}
