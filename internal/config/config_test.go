package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("STEEBD_DB_PATH", "")
	t.Setenv("STEEBD_SYNC_INTERVAL_SECONDS", "")
	t.Setenv("STEEBD_REMINDER_TIME", "")

	cfg := Load()
	if cfg.DBPath != "steebd.db" {
		t.Fatalf("unexpected default db path: %q", cfg.DBPath)
	}
	if cfg.SyncInterval != 5*time.Minute {
		t.Fatalf("unexpected default sync interval: %v", cfg.SyncInterval)
	}
	if cfg.ReminderTime != "09:00" {
		t.Fatalf("unexpected default reminder time: %q", cfg.ReminderTime)
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("STEEBD_DB_PATH", "/tmp/steeb-test.db")
	t.Setenv("STEEBD_SYNC_INTERVAL_SECONDS", "30")
	t.Setenv("STEEBD_BACKUP_INTERVAL_MINUTES", "2")
	t.Setenv("STEEBD_REMINDER_TIME", "21:30")
	t.Setenv("STEEBD_DESKTOP_NOTIFICATIONS", "yes")

	cfg := Load()
	if cfg.DBPath != "/tmp/steeb-test.db" {
		t.Fatalf("db path not read from env: %q", cfg.DBPath)
	}
	if cfg.SyncInterval != 30*time.Second {
		t.Fatalf("sync interval not read from env: %v", cfg.SyncInterval)
	}
	if cfg.BackupInterval != 2*time.Minute {
		t.Fatalf("backup interval not read from env: %v", cfg.BackupInterval)
	}
	if cfg.ReminderTime != "21:30" {
		t.Fatalf("reminder time not read from env: %q", cfg.ReminderTime)
	}
	if !cfg.DesktopNotifications {
		t.Fatal("desktop notifications not read from env")
	}
}

func TestLoadRejectsBadReminderTime(t *testing.T) {
	t.Setenv("STEEBD_REMINDER_TIME", "25:99")
	cfg := Load()
	if cfg.ReminderTime != "09:00" {
		t.Fatalf("bad reminder time should fall back to default, got %q", cfg.ReminderTime)
	}
}

func TestRemoteConfigured(t *testing.T) {
	cfg := Config{}
	if cfg.RemoteConfigured() {
		t.Fatal("empty config must not report remote configured")
	}
	cfg.SupabaseURL = "https://example.supabase.co"
	cfg.SupabaseKey = "anon"
	cfg.SupabaseToken = "jwt"
	if !cfg.RemoteConfigured() {
		t.Fatal("expected remote configured")
	}
}
