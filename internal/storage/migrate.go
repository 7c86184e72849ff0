package storage

import (
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"
)

//go:embed migrations/*.sql
var migrationFS embed.FS

const upSuffix = ".up.sql"
const downSuffix = ".down.sql"

// MigrateUp applies every pending up migration in lexical order. Applied
// versions are recorded in schema_migrations, so rerunning is a no-op.
func MigrateUp(db *sql.DB) error {
	if err := ensureVersionTable(db); err != nil {
		return err
	}
	scripts, err := migrationScripts(upSuffix)
	if err != nil {
		return err
	}
	for _, name := range scripts {
		version := migrationVersion(name, upSuffix)
		applied, err := versionApplied(db, version)
		if err != nil {
			return err
		}
		if applied {
			continue
		}
		if err := execScript(db, name); err != nil {
			return err
		}
		if _, err := db.Exec(`INSERT INTO schema_migrations (version) VALUES (?)`, version); err != nil {
			return fmt.Errorf("storage: record migration %s: %w", version, err)
		}
	}
	return nil
}

// MigrateDown runs the down migrations newest-first and forgets the applied
// versions.
func MigrateDown(db *sql.DB) error {
	if err := ensureVersionTable(db); err != nil {
		return err
	}
	scripts, err := migrationScripts(downSuffix)
	if err != nil {
		return err
	}
	sort.Sort(sort.Reverse(sort.StringSlice(scripts)))
	for _, name := range scripts {
		if err := execScript(db, name); err != nil {
			return err
		}
		version := migrationVersion(name, downSuffix)
		if _, err := db.Exec(`DELETE FROM schema_migrations WHERE version = ?`, version); err != nil {
			return fmt.Errorf("storage: forget migration %s: %w", version, err)
		}
	}
	return nil
}

func ensureVersionTable(db *sql.DB) error {
	_, err := db.Exec(`CREATE TABLE IF NOT EXISTS schema_migrations (version TEXT PRIMARY KEY)`)
	if err != nil {
		return fmt.Errorf("storage: create schema_migrations: %w", err)
	}
	return nil
}

func migrationScripts(suffix string) ([]string, error) {
	names, err := fs.Glob(migrationFS, "migrations/*"+suffix)
	if err != nil {
		return nil, fmt.Errorf("storage: list migrations: %w", err)
	}
	sort.Strings(names)
	return names, nil
}

// migrationVersion is the file name without directory and suffix, e.g.
// "0001_init".
func migrationVersion(name, suffix string) string {
	return strings.TrimSuffix(path.Base(name), suffix)
}

func versionApplied(db *sql.DB, version string) (bool, error) {
	var n int
	err := db.QueryRow(`SELECT COUNT(1) FROM schema_migrations WHERE version = ?`, version).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("storage: check migration %s: %w", version, err)
	}
	return n > 0, nil
}

func execScript(db *sql.DB, name string) error {
	script, err := migrationFS.ReadFile(name)
	if err != nil {
		return fmt.Errorf("storage: read migration %s: %w", name, err)
	}
	if _, err := db.Exec(string(script)); err != nil {
		return fmt.Errorf("storage: apply migration %s: %w", name, err)
	}
	return nil
}
