package db

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"travelcrm/model"
)

type SQLStore struct {
	db *gorm.DB
}

func NewSQLStore(db *gorm.DB) *SQLStore {
	return &SQLStore{db: db}
}

// Ping verifies the underlying database connection is healthy.
func (s *SQLStore) Ping(ctx context.Context) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("sql store is not initialized")
	}
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	return sqlDB.PingContext(ctx)
}

// AppliedMigrations returns the ledger ordered by version. A database that
// was never initialized has no ledger and yields an empty slice.
func (s *SQLStore) AppliedMigrations(ctx context.Context) ([]MigrationRecord, error) {
	db := s.db.WithContext(ctx)
	if !db.Migrator().HasTable(&MigrationRecord{}) {
		return nil, nil
	}
	var records []MigrationRecord
	if err := db.Order("version").Find(&records).Error; err != nil {
		return nil, fmt.Errorf("reading schema_migrations: %w", err)
	}
	return records, nil
}

// MissingTables returns the application tables that do not exist yet, in
// creation order.
func (s *SQLStore) MissingTables(ctx context.Context) ([]string, error) {
	db := s.db.WithContext(ctx)
	var missing []string
	for _, m := range model.Tables() {
		stmt := &gorm.Statement{DB: db}
		if err := stmt.Parse(m); err != nil {
			return nil, fmt.Errorf("parsing model %T: %w", m, err)
		}
		if !db.Migrator().HasTable(stmt.Schema.Table) {
			missing = append(missing, stmt.Schema.Table)
		}
	}
	return missing, nil
}

// FindUserByEmail looks a user up by email, ignoring case.
func (s *SQLStore) FindUserByEmail(ctx context.Context, email string) (*model.User, error) {
	var u model.User
	err := s.db.WithContext(ctx).
		Where("LOWER(email) = ?", strings.ToLower(email)).
		First(&u).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &u, nil
}
