// Package sqlite opens the run ledger database and brings its schema up to date.
package sqlite

import (
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"sort"
	"strconv"
	"strings"

	_ "modernc.org/sqlite" // driver "sqlite"
)

//go:embed migrations/*.sql
var migrations embed.FS

// connPragmas are applied once after opening. WAL lets a reader inspect the ledger while a run writes.
var connPragmas = map[string]string{
	"journal_mode": "WAL",
	"busy_timeout": "5000",
}

type DB struct {
	*sql.DB
}

// Open opens dsn (a file path or ":memory:") and applies pending migrations.
func Open(dsn string) (*DB, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open ledger %s: %w", dsn, err)
	}
	if dsn == ":memory:" {
		// every pooled connection would see its own empty database
		db.SetMaxOpenConns(1)
	}

	if err := configure(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := migrate(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate ledger: %w", err)
	}
	return &DB{db}, nil
}

func configure(db *sql.DB) error {
	names := make([]string, 0, len(connPragmas))
	for name := range connPragmas {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if _, err := db.Exec(fmt.Sprintf("PRAGMA %s=%s", name, connPragmas[name])); err != nil {
			return fmt.Errorf("set pragma %s: %w", name, err)
		}
	}
	return nil
}

// migrate runs every embedded NNN_name.sql whose number exceeds the stored user_version,
// in number order, and records the new version after each file.
func migrate(db *sql.DB) error {
	var current int
	if err := db.QueryRow("PRAGMA user_version").Scan(&current); err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}

	entries, err := fs.ReadDir(migrations, "migrations")
	if err != nil {
		return err
	}
	for _, e := range entries {
		version, err := migrationVersion(e.Name())
		if err != nil {
			return err
		}
		if version <= current {
			continue
		}
		body, err := migrations.ReadFile("migrations/" + e.Name())
		if err != nil {
			return err
		}
		if _, err := db.Exec(string(body)); err != nil {
			return fmt.Errorf("apply %s: %w", e.Name(), err)
		}
		if _, err := db.Exec(fmt.Sprintf("PRAGMA user_version=%d", version)); err != nil {
			return fmt.Errorf("record schema version %d: %w", version, err)
		}
		current = version
	}
	return nil
}

func migrationVersion(name string) (int, error) {
	prefix, _, ok := strings.Cut(name, "_")
	if !ok {
		return 0, fmt.Errorf("migration %q: want NNN_name.sql", name)
	}
	v, err := strconv.Atoi(prefix)
	if err != nil || v <= 0 {
		return 0, fmt.Errorf("migration %q: bad version prefix", name)
	}
	return v, nil
}
