package db

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"travelcrm/model"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

const (
	defaultConnectTimeout   = 10 * time.Second
	defaultStatementTimeout = 60 * time.Second

	// DefaultAdminPasswordHash is the bcrypt hash shipped with the seed administrator.
	DefaultAdminPasswordHash = "$2b$10$eoQJ./xzI7DmZCGCVbHsBeHB2HQGf6WZ.g1OT9KbGTJBjJsCVxd9G"
)

// Config holds everything the initializer needs. Nothing is read from the
// process environment here; callers build a Config and pass it in.
type Config struct {
	Driver           string
	DatabaseURL      string
	ConnectTimeout   time.Duration
	StatementTimeout time.Duration
	MaxOpenConns     int
	Seed             bool
	Admin            AdminSeed
	LogSQL           bool
}

// AdminSeed describes the administrator row inserted by the seed step.
// When Password is set it is hashed with bcrypt and replaces PasswordHash.
type AdminSeed struct {
	Name         string
	Email        string
	PasswordHash string
	Password     string
	Role         model.Role
}

func DefaultAdminSeed() AdminSeed {
	return AdminSeed{
		Name:         "Admin",
		Email:        "admin@example.com",
		PasswordHash: DefaultAdminPasswordHash,
		Role:         model.RoleAdmin,
	}
}

func DefaultConfig() Config {
	return Config{
		Driver:           DriverPostgres,
		ConnectTimeout:   defaultConnectTimeout,
		StatementTimeout: defaultStatementTimeout,
		MaxOpenConns:     1,
		Seed:             true,
		Admin:            DefaultAdminSeed(),
	}
}

var errMissingDatabaseURL = errors.New("database connection string is not set")

// Validate checks the configuration and fills in zero durations with defaults.
func (c *Config) Validate() error {
	c.Driver = strings.ToLower(strings.TrimSpace(c.Driver))
	switch c.Driver {
	case "":
		c.Driver = DriverPostgres
	case DriverPostgres, DriverSQLite:
	case "postgresql", "pg":
		c.Driver = DriverPostgres
	case "sqlite3":
		c.Driver = DriverSQLite
	default:
		return fmt.Errorf("unsupported driver %q", c.Driver)
	}
	if strings.TrimSpace(c.DatabaseURL) == "" {
		return errMissingDatabaseURL
	}
	if c.ConnectTimeout <= 0 {
		c.ConnectTimeout = defaultConnectTimeout
	}
	if c.StatementTimeout <= 0 {
		c.StatementTimeout = defaultStatementTimeout
	}
	if c.MaxOpenConns <= 0 {
		c.MaxOpenConns = 1
	}
	if !c.Seed {
		return nil
	}
	if c.Admin.Email == "" {
		return errors.New("seed administrator email is empty")
	}
	if c.Admin.Password == "" && c.Admin.PasswordHash == "" {
		return fmt.Errorf("seed administrator %s has neither password nor password hash", c.Admin.Email)
	}
	return nil
}

// hash returns the value stored in users.password for the administrator.
func (a AdminSeed) hash() (string, error) {
	if a.Password == "" {
		return a.PasswordHash, nil
	}
	h, err := bcrypt.GenerateFromPassword([]byte(a.Password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash administrator password: %w", err)
	}
	return string(h), nil
}

func (a AdminSeed) role() model.Role {
	if a.Role == "" {
		return model.RoleAdmin
	}
	return a.Role
}

func (a AdminSeed) name() string {
	if a.Name == "" {
		return "Admin"
	}
	return a.Name
}
