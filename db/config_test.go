package db

import (
	"errors"
	"testing"
	"time"

	"github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"travelcrm/model"
)

func TestConfigValidate(t *testing.T) {
	t.Run("defaults are filled in", func(t *testing.T) {
		cfg := Config{DatabaseURL: "postgres://localhost/crm"}
		require.NoError(t, cfg.Validate())
		assert.Equal(t, DriverPostgres, cfg.Driver)
		assert.Equal(t, defaultConnectTimeout, cfg.ConnectTimeout)
		assert.Equal(t, defaultStatementTimeout, cfg.StatementTimeout)
		assert.Equal(t, 1, cfg.MaxOpenConns)
	})

	t.Run("driver aliases", func(t *testing.T) {
		for alias, want := range map[string]string{"PostgreSQL": DriverPostgres, "pg": DriverPostgres, "sqlite3": DriverSQLite, " sqlite ": DriverSQLite} {
			cfg := Config{Driver: alias, DatabaseURL: "x"}
			require.NoError(t, cfg.Validate(), alias)
			assert.Equal(t, want, cfg.Driver)
		}
	})

	t.Run("unsupported driver", func(t *testing.T) {
		cfg := Config{Driver: "mysql", DatabaseURL: "x"}
		assert.ErrorContains(t, cfg.Validate(), `unsupported driver "mysql"`)
	})

	t.Run("missing connection string", func(t *testing.T) {
		cfg := DefaultConfig()
		assert.ErrorIs(t, cfg.Validate(), errMissingDatabaseURL)
	})

	t.Run("explicit timeouts are kept", func(t *testing.T) {
		cfg := Config{DatabaseURL: "x", ConnectTimeout: time.Second, StatementTimeout: 2 * time.Second}
		require.NoError(t, cfg.Validate())
		assert.Equal(t, time.Second, cfg.ConnectTimeout)
		assert.Equal(t, 2*time.Second, cfg.StatementTimeout)
	})

	t.Run("seed needs an email and a credential", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.DatabaseURL = "x"
		cfg.Admin.Email = ""
		assert.Error(t, cfg.Validate())

		cfg.Admin = AdminSeed{Email: "a@example.com"}
		assert.ErrorContains(t, cfg.Validate(), "neither password nor password hash")

		cfg.Seed = false
		assert.NoError(t, cfg.Validate())
	})
}

func TestAdminSeedDefaults(t *testing.T) {
	admin := DefaultAdminSeed()
	assert.Equal(t, "Admin", admin.Name)
	assert.Equal(t, "admin@example.com", admin.Email)
	assert.Equal(t, model.RoleAdmin, admin.Role)

	hash, err := admin.hash()
	require.NoError(t, err)
	assert.Equal(t, DefaultAdminPasswordHash, hash)

	empty := AdminSeed{}
	assert.Equal(t, "Admin", empty.name())
	assert.Equal(t, model.RoleAdmin, empty.role())
}

func TestSqliteDSN(t *testing.T) {
	assert.Equal(t, "crm.db?_foreign_keys=on", sqliteDSN("crm.db"))
	assert.Equal(t, "crm.db?_foreign_keys=on", sqliteDSN("sqlite://crm.db"))
	assert.Equal(t, "file:crm.db?cache=shared&_foreign_keys=on", sqliteDSN("file:crm.db?cache=shared"))
	assert.Equal(t, "crm.db?_fk=1", sqliteDSN("crm.db?_fk=1"))
}

func TestStageOf(t *testing.T) {
	cause := errors.New("boom")
	assert.Equal(t, StageConnecting, StageOf(&ConnectionError{Err: cause}))
	assert.Equal(t, StageApplyingSchema, StageOf(&SchemaError{Err: cause}))
	assert.Equal(t, StageSeeding, StageOf(&SeedError{Err: cause}))
	assert.Equal(t, StageFailed, StageOf(cause))

	wrapped := &SchemaError{Version: "0001", Statement: 3, Table: "clients", Err: cause}
	assert.ErrorIs(t, wrapped, cause)
	assert.Equal(t, "schema error in migration 0001, statement 3 (table clients): boom", wrapped.Error())

	assert.Equal(t, "schema error: boom", (&SchemaError{Err: cause}).Error())
	assert.Equal(t, "schema error (table schema_migrations): boom",
		(&SchemaError{Table: "schema_migrations", Err: cause}).Error())
	assert.Equal(t, "schema error in migration 0002 (table schema_migrations): boom",
		(&SchemaError{Version: "0002", Table: "schema_migrations", Err: cause}).Error())
}

func TestErrorCode(t *testing.T) {
	liteErr := sqlite3.Error{Code: sqlite3.ErrConstraint, ExtendedCode: sqlite3.ErrConstraintForeignKey}
	assert.Equal(t, "787", errorCode(liteErr))
	assert.Equal(t, "", errorCode(errors.New("plain")))
}
