package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config keeps runtime settings for steebd.
type Config struct {
	DBPath               string
	SupabaseURL          string
	SupabaseKey          string
	SupabaseToken        string
	SyncInterval         time.Duration
	BackupInterval       time.Duration
	BackupTimeout        time.Duration
	ReminderTime         string // HH:MM
	DesktopNotifications bool
	ExportDir            string
}

func Default() Config {
	return Config{
		DBPath:         "steebd.db",
		SyncInterval:   5 * time.Minute,
		BackupInterval: 10 * time.Minute,
		BackupTimeout:  5 * time.Second,
		ReminderTime:   "09:00",
		ExportDir:      ".",
	}
}

// Load reads .env (when present) and the environment on top of defaults.
// Missing remote credentials are not an error: the app runs offline-first.
func Load() Config {
	if err := godotenv.Load(); err != nil {
		Logger.Debug("no .env file, using environment variables")
	}

	cfg := Default()
	if v := strings.TrimSpace(os.Getenv("STEEBD_DB_PATH")); v != "" {
		cfg.DBPath = v
	}
	cfg.SupabaseURL = strings.TrimSpace(os.Getenv("SUPABASE_URL"))
	cfg.SupabaseKey = strings.TrimSpace(os.Getenv("SUPABASE_KEY"))
	cfg.SupabaseToken = strings.TrimSpace(os.Getenv("SUPABASE_TOKEN"))
	if v, ok := getEnvInt("STEEBD_SYNC_INTERVAL_SECONDS"); ok && v > 0 {
		cfg.SyncInterval = time.Duration(v) * time.Second
	}
	if v, ok := getEnvInt("STEEBD_BACKUP_INTERVAL_MINUTES"); ok && v > 0 {
		cfg.BackupInterval = time.Duration(v) * time.Minute
	}
	if v, ok := getEnvInt("STEEBD_BACKUP_TIMEOUT_SECONDS"); ok && v > 0 {
		cfg.BackupTimeout = time.Duration(v) * time.Second
	}
	if v := strings.TrimSpace(os.Getenv("STEEBD_REMINDER_TIME")); v != "" {
		if _, err := time.Parse("15:04", v); err == nil {
			cfg.ReminderTime = v
		} else {
			Logger.Warnf("ignoring bad STEEBD_REMINDER_TIME %q", v)
		}
	}
	if v, ok := getEnvBool("STEEBD_DESKTOP_NOTIFICATIONS"); ok {
		cfg.DesktopNotifications = v
	}
	if v := strings.TrimSpace(os.Getenv("STEEBD_EXPORT_DIR")); v != "" {
		cfg.ExportDir = v
	}
	return cfg
}

// RemoteConfigured reports whether remote sync can be attempted at all.
func (c Config) RemoteConfigured() bool {
	return c.SupabaseURL != "" && c.SupabaseKey != "" && c.SupabaseToken != ""
}

func getEnvInt(name string) (int, bool) {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return 0, false
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false
	}
	return v, true
}

func getEnvBool(name string) (bool, bool) {
	raw := strings.TrimSpace(strings.ToLower(os.Getenv(name)))
	if raw == "" {
		return false, false
	}
	switch raw {
	case "1", "true", "yes", "y", "on":
		return true, true
	case "0", "false", "no", "n", "off":
		return false, true
	default:
		return false, false
	}
}
