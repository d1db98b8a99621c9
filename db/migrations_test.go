package db

import (
	"strings"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitStatements(t *testing.T) {
	script := `-- header comment
CREATE TABLE IF NOT EXISTS a (
  id SERIAL PRIMARY KEY
);

  -- indented comment
CREATE TABLE IF NOT EXISTS b (id INTEGER);
;
`
	stmts := SplitStatements(script)
	require.Len(t, stmts, 2)
	assert.Equal(t, "CREATE TABLE IF NOT EXISTS a (\n  id SERIAL PRIMARY KEY\n)", stmts[0])
	assert.Equal(t, "CREATE TABLE IF NOT EXISTS b (id INTEGER)", stmts[1])

	assert.Empty(t, SplitStatements("-- nothing here\n\n"))
}

func TestLoadMigrations(t *testing.T) {
	t.Run("orders by file name and skips non sql files", func(t *testing.T) {
		fsys := fstest.MapFS{
			"0002_more.sql":   {Data: []byte("CREATE TABLE IF NOT EXISTS b (id INTEGER);")},
			"0001_base.sql":   {Data: []byte("CREATE TABLE IF NOT EXISTS a (id INTEGER);")},
			"README.md":       {Data: []byte("not a migration")},
			"nested/0003.sql": {Data: []byte("CREATE TABLE c (id INTEGER);")},
		}
		migrations, err := LoadMigrations(fsys)
		require.NoError(t, err)
		require.Len(t, migrations, 2)
		assert.Equal(t, "0001", migrations[0].Version)
		assert.Equal(t, "0001_base", migrations[0].Name)
		assert.Equal(t, "0002", migrations[1].Version)
	})

	t.Run("rejects duplicate versions", func(t *testing.T) {
		fsys := fstest.MapFS{
			"0001_a.sql": {Data: []byte("SELECT 1;")},
			"0001_b.sql": {Data: []byte("SELECT 2;")},
		}
		_, err := LoadMigrations(fsys)
		assert.ErrorContains(t, err, "share version 0001")
	})
}

func TestEmbeddedMigrations(t *testing.T) {
	for _, driver := range []string{DriverPostgres, DriverSQLite} {
		t.Run(driver, func(t *testing.T) {
			fsys, err := embeddedMigrations(driver)
			require.NoError(t, err)
			migrations, err := LoadMigrations(fsys)
			require.NoError(t, err)
			require.Len(t, migrations, 1)

			var tables []string
			for _, stmt := range migrations[0].Statements {
				assert.True(t, strings.HasPrefix(stmt, "CREATE TABLE IF NOT EXISTS "), stmt)
				assert.Contains(t, stmt, "created_at TIMESTAMP DEFAULT")
				assert.Contains(t, stmt, "updated_at TIMESTAMP DEFAULT")
				tables = append(tables, tableOf(stmt))
			}
			assert.Equal(t, allTables(), tables)
		})
	}

	t.Run("unknown driver", func(t *testing.T) {
		fsys, err := embeddedMigrations("mysql")
		require.NoError(t, err)
		_, err = LoadMigrations(fsys)
		assert.Error(t, err)
	})
}

func TestPostgresSchemaColumns(t *testing.T) {
	fsys, err := embeddedMigrations(DriverPostgres)
	require.NoError(t, err)
	migrations, err := LoadMigrations(fsys)
	require.NoError(t, err)

	byTable := make(map[string]string)
	for _, stmt := range migrations[0].Statements {
		byTable[tableOf(stmt)] = stmt
	}

	expect := map[string][]string{
		"users":         {"id SERIAL PRIMARY KEY", "email TEXT NOT NULL UNIQUE", "role TEXT NOT NULL DEFAULT 'usuario'", "created_at TIMESTAMP DEFAULT NOW()"},
		"clients":       {"income NUMERIC", "has_children BOOLEAN DEFAULT false", "user_id INTEGER REFERENCES users(id)"},
		"client_stores": {"client_id INTEGER REFERENCES clients(id)", "store_id INTEGER REFERENCES stores(id)"},
		"trips":         {"start_date DATE NOT NULL", "status TEXT DEFAULT 'planejada'", "consultant_id INTEGER REFERENCES consultants(id)"},
		"trip_clients":  {"status TEXT DEFAULT 'confirmado'", "payment_status TEXT DEFAULT 'pendente'"},
		"trip_seats":    {"seat_number TEXT NOT NULL", "status TEXT DEFAULT 'disponivel'"},
		"trip_products": {"quantity INTEGER DEFAULT 1"},
		"deals":         {"stage TEXT DEFAULT 'lead'", "status TEXT DEFAULT 'aberto'", "probability INTEGER DEFAULT 50", "agency_id INTEGER REFERENCES tourism_agencies(id)"},
		"activities":    {"entity_type TEXT NOT NULL", "entity_id INTEGER NOT NULL", "completed BOOLEAN DEFAULT false"},
		"documents":     {"file_path TEXT NOT NULL", "entity_type TEXT NOT NULL", "entity_id INTEGER NOT NULL"},
	}
	for table, columns := range expect {
		for _, col := range columns {
			assert.Contains(t, byTable[table], col, "table %s", table)
		}
	}
	assert.NotContains(t, byTable["activities"], "REFERENCES clients")
	assert.NotContains(t, byTable["documents"], "REFERENCES clients")
}

func TestTableOf(t *testing.T) {
	assert.Equal(t, "users", tableOf("CREATE TABLE IF NOT EXISTS users (id INTEGER)"))
	assert.Equal(t, "deals", tableOf(`create table "deals" (id integer)`))
	assert.Equal(t, "", tableOf("INSERT INTO users VALUES (1)"))
}
