package db

import (
	"context"
)

const seedAdmin = `INSERT INTO users (name, email, password, role)
VALUES (?, ?, ?, ?)
ON CONFLICT (email) DO NOTHING`

// Seed inserts the administrator row unless a user with the same email
// already exists. It reports whether a row was inserted. Failures other than
// the email conflict are returned as *SeedError.
func (i *Initializer) Seed(ctx context.Context) (bool, error) {
	admin := i.cfg.Admin
	hash, err := admin.hash()
	if err != nil {
		return false, &SeedError{Email: admin.Email, Err: err}
	}

	ctx, cancel := context.WithTimeout(ctx, i.cfg.StatementTimeout)
	defer cancel()

	res := i.db.WithContext(ctx).Exec(seedAdmin, admin.name(), admin.Email, hash, string(admin.role()))
	if res.Error != nil {
		return false, &SeedError{Email: admin.Email, Code: errorCode(res.Error), Err: res.Error}
	}
	if res.RowsAffected == 0 {
		i.log.Infow("seed administrator already present", "email", admin.Email)
		return false, nil
	}
	i.log.Infow("seed administrator created", "email", admin.Email, "role", admin.role())
	return true, nil
}
