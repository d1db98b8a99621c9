package db

import (
	"context"
	"errors"

	"travelcrm/model"
)

var ErrUserNotFound = errors.New("user not found")

// Store answers questions about a provisioned database.
type Store interface {
	Ping(ctx context.Context) error
	AppliedMigrations(ctx context.Context) ([]MigrationRecord, error)
	MissingTables(ctx context.Context) ([]string, error)
	FindUserByEmail(ctx context.Context, email string) (*model.User, error)
}

var _ Store = (*SQLStore)(nil)
