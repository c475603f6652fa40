// Package migrations applies the embedded PostgreSQL schema files in order.
package migrations

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"sort"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"
)

//go:embed sql/*.sql
var embedded embed.FS

// Files returns the embedded migration files.
func Files() fs.FS {
	sub, err := fs.Sub(embedded, "sql")
	if err != nil {
		panic(err) // the embed pattern guarantees the directory exists
	}
	return sub
}

// Migration is a single schema change
type Migration struct {
	Version int
	Name    string
	SQL     string
}

// Runner applies migrations and tracks the applied version
type Runner struct {
	db  *sql.DB
	fs  fs.FS
	log *logrus.Logger
}

// NewRunner creates a migration runner over the given files
func NewRunner(db *sql.DB, files fs.FS, log *logrus.Logger) *Runner {
	return &Runner{db: db, fs: files, log: log}
}

// EnsureVersionTable creates the schema and its version table if missing
func (r *Runner) EnsureVersionTable() error {
	if _, err := r.db.Exec(`CREATE SCHEMA IF NOT EXISTS chi`); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	_, err := r.db.Exec(`
		CREATE TABLE IF NOT EXISTS chi.schema_version (
			version INTEGER PRIMARY KEY
		)`)
	if err != nil {
		return fmt.Errorf("failed to create schema_version table: %w", err)
	}
	return nil
}

// CurrentVersion returns the applied schema version, 0 for a fresh database
func (r *Runner) CurrentVersion() (int, error) {
	var version int
	err := r.db.QueryRow(`SELECT COALESCE(MAX(version), 0) FROM chi.schema_version`).Scan(&version)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to get current version: %w", err)
	}
	return version, nil
}

// ReadMigrations loads the NNN_name.sql files of files in version order
func ReadMigrations(files fs.FS) ([]Migration, error) {
	names, err := fs.Glob(files, "*.sql")
	if err != nil {
		return nil, fmt.Errorf("failed to list migrations: %w", err)
	}

	seen := make(map[int]string, len(names))
	migrations := make([]Migration, 0, len(names))
	for _, file := range names {
		version, name, err := parseFileName(file)
		if err != nil {
			return nil, err
		}
		if other, dup := seen[version]; dup {
			return nil, fmt.Errorf("migrations %s and %s share version %d", other, file, version)
		}
		seen[version] = file

		body, err := fs.ReadFile(files, file)
		if err != nil {
			return nil, fmt.Errorf("failed to read migration %s: %w", file, err)
		}
		migrations = append(migrations, Migration{Version: version, Name: name, SQL: string(body)})
	}

	sort.Slice(migrations, func(i, j int) bool {
		return migrations[i].Version < migrations[j].Version
	})
	return migrations, nil
}

// parseFileName splits "004_magic_links.sql" into 4 and "magic_links"
func parseFileName(file string) (int, string, error) {
	prefix, rest, ok := strings.Cut(strings.TrimSuffix(file, ".sql"), "_")
	if !ok || rest == "" {
		return 0, "", fmt.Errorf("migration %s: name must look like 001_description.sql", file)
	}
	version, err := strconv.Atoi(prefix)
	if err != nil || version < 1 {
		return 0, "", fmt.Errorf("migration %s: %q is not a positive version number", file, prefix)
	}
	return version, rest, nil
}

// Apply runs every pending migration, each in its own transaction.
// It returns the number of migrations applied.
func (r *Runner) Apply() (int, error) {
	if err := r.EnsureVersionTable(); err != nil {
		return 0, err
	}
	current, err := r.CurrentVersion()
	if err != nil {
		return 0, err
	}
	migrations, err := ReadMigrations(r.fs)
	if err != nil {
		return 0, err
	}
	if len(migrations) == 0 {
		return 0, nil
	}

	latest := migrations[len(migrations)-1].Version
	if current > latest {
		return 0, fmt.Errorf("database schema version %d is newer than supported version %d", current, latest)
	}

	applied := 0
	for _, m := range migrations {
		if m.Version <= current {
			continue
		}
		if err := r.applyOne(m); err != nil {
			return applied, err
		}
		applied++
		r.log.Infof("Applied migration %03d_%s", m.Version, m.Name)
	}

	if applied == 0 {
		r.log.Debugf("Database schema is up to date (version %d)", current)
	}
	return applied, nil
}

func (r *Runner) applyOne(m Migration) error {
	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin migration %d: %w", m.Version, err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(m.SQL); err != nil {
		return fmt.Errorf("failed to apply migration %d (%s): %w", m.Version, m.Name, err)
	}
	if _, err := tx.Exec(`INSERT INTO chi.schema_version (version) VALUES ($1)`, m.Version); err != nil {
		return fmt.Errorf("failed to record migration %d: %w", m.Version, err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit migration %d: %w", m.Version, err)
	}
	return nil
}
