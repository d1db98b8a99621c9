package db

import (
	"context"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Initializer owns the one connection pool used to provision the schema.
type Initializer struct {
	cfg        Config
	db         *gorm.DB
	log        *zap.SugaredLogger
	migrations fs.FS
}

// Option customises an Initializer.
type Option func(*Initializer)

// WithMigrations replaces the embedded migration files of the configured
// driver. The FS must hold the *.sql files at its root.
func WithMigrations(fsys fs.FS) Option {
	return func(i *Initializer) {
		i.migrations = fsys
	}
}

// Open validates cfg, connects and pings the database within
// cfg.ConnectTimeout. Any failure is a *ConnectionError.
func Open(ctx context.Context, cfg Config, log *zap.SugaredLogger, opts ...Option) (*Initializer, error) {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	if err := cfg.Validate(); err != nil {
		return nil, &ConnectionError{Driver: cfg.Driver, Err: err}
	}

	conn, err := gorm.Open(dialector(cfg), &gorm.Config{
		Logger:               gormLogger(log, cfg.LogSQL),
		DisableAutomaticPing: true,
	})
	if err != nil {
		return nil, &ConnectionError{Driver: cfg.Driver, Code: errorCode(err), Err: fmt.Errorf("failed to open DB: %w", err)}
	}
	sqlDB, err := conn.DB()
	if err != nil {
		return nil, &ConnectionError{Driver: cfg.Driver, Err: err}
	}
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)

	pingCtx, cancel := context.WithTimeout(ctx, cfg.ConnectTimeout)
	defer cancel()
	if err := sqlDB.PingContext(pingCtx); err != nil {
		_ = sqlDB.Close()
		return nil, &ConnectionError{Driver: cfg.Driver, Code: errorCode(err), Err: fmt.Errorf("ping: %w", err)}
	}

	i := &Initializer{cfg: cfg, db: conn, log: log}
	for _, opt := range opts {
		opt(i)
	}
	if i.migrations == nil {
		if i.migrations, err = embeddedMigrations(cfg.Driver); err != nil {
			_ = sqlDB.Close()
			return nil, err
		}
	}
	log.Infow("database connected", "driver", cfg.Driver)
	return i, nil
}

// DB returns the underlying gorm handle.
func (i *Initializer) DB() *gorm.DB {
	return i.db
}

// Close releases the connection pool. It is safe to call more than once.
func (i *Initializer) Close() error {
	if i == nil || i.db == nil {
		return nil
	}
	sqlDB, err := i.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func dialector(cfg Config) gorm.Dialector {
	if cfg.Driver == DriverSQLite {
		return sqlite.Open(sqliteDSN(cfg.DatabaseURL))
	}
	return postgres.Open(cfg.DatabaseURL)
}

// sqliteDSN turns foreign key enforcement on, which SQLite leaves off per connection.
func sqliteDSN(dsn string) string {
	dsn = strings.TrimPrefix(dsn, "sqlite://")
	if strings.Contains(dsn, "_foreign_keys=") || strings.Contains(dsn, "_fk=") {
		return dsn
	}
	if strings.Contains(dsn, "?") {
		return dsn + "&_foreign_keys=on"
	}
	return dsn + "?_foreign_keys=on"
}

func gormLogger(log *zap.SugaredLogger, logSQL bool) logger.Interface {
	level := logger.Silent
	if logSQL {
		level = logger.Info
	}
	return logger.New(
		zap.NewStdLog(log.Desugar().Named("gorm")),
		logger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  level,
			IgnoreRecordNotFoundError: true,
			ParameterizedQueries:      true,
			Colorful:                  false,
		},
	)
}
