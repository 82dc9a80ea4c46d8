package db

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"hrcore/internal/domain/auth"
	"hrcore/internal/platform/config"
)

// Seed makes sure an initial staff account exists so the admin surface is
// reachable on a fresh database. An existing row with the seed phone number
// is left untouched.
func Seed(ctx context.Context, pool *pgxpool.Pool, cfg config.Config) error {
	var count int
	if err := pool.QueryRow(ctx, "SELECT COUNT(1) FROM employees WHERE phone_number1 = $1", cfg.Seed.AdminPhone).Scan(&count); err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	password := cfg.Seed.AdminPassword
	if password == "" {
		password = "ChangeMe123!"
	}
	hash, err := auth.HashPassword(password)
	if err != nil {
		return err
	}

	_, err = pool.Exec(ctx, `
    INSERT INTO employees (
      id, phone_number1, password_hash, first_name, rest_of_name,
      date_joined, identity_type, identity_number,
      is_active, is_staff, is_superuser
    ) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,TRUE,TRUE,TRUE)
    ON CONFLICT (phone_number1) DO NOTHING
  `,
		uuid.NewString(), cfg.Seed.AdminPhone, hash,
		cfg.Seed.AdminFirstName, cfg.Seed.AdminRestOfName,
		time.Now().UTC(), "other", cfg.Seed.AdminIdentityNumber,
	)
	return err
}
