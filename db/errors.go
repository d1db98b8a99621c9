package db

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/mattn/go-sqlite3"
)

// Stage is a step of the initializer lifecycle.
type Stage string

const (
	StageNotRun         Stage = "not-run"
	StageConnecting     Stage = "connecting"
	StageApplyingSchema Stage = "applying-schema"
	StageSeeding        Stage = "seeding"
	StageDone           Stage = "done"
	StageFailed         Stage = "failed"
)

// ConnectionError reports that the database could not be reached or the
// connection string is missing.
type ConnectionError struct {
	Driver string
	Code   string
	Err    error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("connection error (%s): %v", e.Driver, e.Err)
}

func (e *ConnectionError) Unwrap() error { return e.Err }

func (e *ConnectionError) Stage() Stage { return StageConnecting }

// SchemaError reports a failed DDL statement. The transaction holding the
// migration has been rolled back when it is returned.
type SchemaError struct {
	Version   string
	Statement int
	Table     string
	Code      string
	Err       error
}

func (e *SchemaError) Error() string {
	var b strings.Builder
	b.WriteString("schema error")
	if e.Version != "" {
		fmt.Fprintf(&b, " in migration %s", e.Version)
	}
	if e.Statement > 0 {
		fmt.Fprintf(&b, ", statement %d", e.Statement)
	}
	if e.Table != "" {
		fmt.Fprintf(&b, " (table %s)", e.Table)
	}
	fmt.Fprintf(&b, ": %v", e.Err)
	return b.String()
}

func (e *SchemaError) Unwrap() error { return e.Err }

func (e *SchemaError) Stage() Stage { return StageApplyingSchema }

// SeedError reports a failed administrator insert. An email conflict is not
// an error.
type SeedError struct {
	Email string
	Code  string
	Err   error
}

func (e *SeedError) Error() string {
	return fmt.Sprintf("seed error for %s: %v", e.Email, e.Err)
}

func (e *SeedError) Unwrap() error { return e.Err }

func (e *SeedError) Stage() Stage { return StageSeeding }

// StageOf returns the lifecycle stage an error was raised in, or StageFailed
// when the error carries none.
func StageOf(err error) Stage {
	var staged interface{ Stage() Stage }
	if errors.As(err, &staged) {
		return staged.Stage()
	}
	return StageFailed
}

// errorCode extracts the SQLSTATE of a postgres error or the extended result
// code of a sqlite error.
func errorCode(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	var liteErr sqlite3.Error
	if errors.As(err, &liteErr) {
		return strconv.Itoa(int(liteErr.ExtendedCode))
	}
	return ""
}
