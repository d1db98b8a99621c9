package db

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"regexp"
	"sort"
	"strings"
	"time"

	"gorm.io/gorm"
)

//go:embed migrations/postgres/*.sql migrations/sqlite/*.sql
var migrationsFS embed.FS

// MigrationRecord tracks which migrations have been applied.
type MigrationRecord struct {
	Version   string `gorm:"primaryKey"`
	Name      string
	AppliedAt time.Time
}

func (MigrationRecord) TableName() string {
	return "schema_migrations"
}

const createLedger = `CREATE TABLE IF NOT EXISTS schema_migrations (
  version TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  applied_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
)`

const recordMigration = `INSERT INTO schema_migrations (version, name) VALUES (?, ?) ON CONFLICT (version) DO NOTHING`

// Migration is one versioned SQL file split into statements.
type Migration struct {
	Version    string
	Name       string
	Statements []string
}

func embeddedMigrations(driver string) (fs.FS, error) {
	sub, err := fs.Sub(migrationsFS, "migrations/"+driver)
	if err != nil {
		return nil, fmt.Errorf("no migrations for driver %s: %w", driver, err)
	}
	return sub, nil
}

// LoadMigrations reads every *.sql file at the root of fsys, ordered by
// file name. The version is the file name prefix before the first '_'.
func LoadMigrations(fsys fs.FS) ([]Migration, error) {
	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return nil, fmt.Errorf("failed to read migrations directory: %w", err)
	}

	var files []string
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasSuffix(entry.Name(), ".sql") {
			files = append(files, entry.Name())
		}
	}
	sort.Strings(files)

	migrations := make([]Migration, 0, len(files))
	seen := make(map[string]string, len(files))
	for _, file := range files {
		content, err := fs.ReadFile(fsys, file)
		if err != nil {
			return nil, fmt.Errorf("failed to read migration %s: %w", file, err)
		}
		name := strings.TrimSuffix(file, ".sql")
		version, _, _ := strings.Cut(name, "_")
		if prev, dup := seen[version]; dup {
			return nil, fmt.Errorf("migrations %s and %s share version %s", prev, file, version)
		}
		seen[version] = file
		migrations = append(migrations, Migration{
			Version:    version,
			Name:       name,
			Statements: SplitStatements(string(content)),
		})
	}
	return migrations, nil
}

// SplitStatements breaks a SQL script into statements on ';'. Lines starting
// with "--" are dropped. Migrations must not put ';' inside string literals.
func SplitStatements(script string) []string {
	var b strings.Builder
	for _, line := range strings.Split(script, "\n") {
		if strings.HasPrefix(strings.TrimSpace(line), "--") {
			continue
		}
		b.WriteString(line)
		b.WriteByte('\n')
	}

	var stmts []string
	for _, part := range strings.Split(b.String(), ";") {
		if stmt := strings.TrimSpace(part); stmt != "" {
			stmts = append(stmts, stmt)
		}
	}
	return stmts
}

var createTableRe = regexp.MustCompile(`(?i)^CREATE\s+TABLE\s+(?:IF\s+NOT\s+EXISTS\s+)?"?(\w+)"?`)

func tableOf(stmt string) string {
	if m := createTableRe.FindStringSubmatch(stmt); m != nil {
		return m[1]
	}
	return ""
}

// ApplySchema runs every pending migration in a single transaction, together
// with the ledger rows recording them. On failure nothing is kept and a
// *SchemaError is returned. It returns the versions applied by this call and
// the versions the ledger already held.
func (i *Initializer) ApplySchema(ctx context.Context) (applied, skipped []string, err error) {
	migrations, err := LoadMigrations(i.migrations)
	if err != nil {
		return nil, nil, &SchemaError{Err: fmt.Errorf("load migrations: %w", err)}
	}

	ctx, cancel := context.WithTimeout(ctx, i.cfg.StatementTimeout)
	defer cancel()

	err = i.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec(createLedger).Error; err != nil {
			return &SchemaError{Table: "schema_migrations", Code: errorCode(err), Err: err}
		}
		for _, m := range migrations {
			var count int64
			if err := tx.Model(&MigrationRecord{}).Where("version = ?", m.Version).Count(&count).Error; err != nil {
				return &SchemaError{Version: m.Version, Code: errorCode(err), Err: fmt.Errorf("read ledger: %w", err)}
			}
			if count > 0 {
				i.log.Debugw("migration already applied", "version", m.Version, "name", m.Name)
				skipped = append(skipped, m.Version)
				continue
			}

			i.log.Infow("applying migration", "version", m.Version, "name", m.Name, "statements", len(m.Statements))
			for n, stmt := range m.Statements {
				if err := tx.Exec(stmt).Error; err != nil {
					return &SchemaError{
						Version:   m.Version,
						Statement: n + 1,
						Table:     tableOf(stmt),
						Code:      errorCode(err),
						Err:       err,
					}
				}
			}
			if err := tx.Exec(recordMigration, m.Version, m.Name).Error; err != nil {
				return &SchemaError{Version: m.Version, Table: "schema_migrations", Code: errorCode(err), Err: fmt.Errorf("record migration: %w", err)}
			}
			applied = append(applied, m.Version)
		}
		return nil
	})
	if err != nil {
		var schemaErr *SchemaError
		if !errors.As(err, &schemaErr) {
			err = &SchemaError{Code: errorCode(err), Err: err}
		}
		return nil, nil, err
	}
	return applied, skipped, nil
}
