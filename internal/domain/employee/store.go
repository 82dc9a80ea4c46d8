package employee

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// querier is the subset of pgxpool.Pool and pgx.Tx the store reads through.
type querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// ConflictError reports a storage-level uniqueness violation, attributed to
// the colliding field. Pre-check races and plain duplicates surface the same
// way, so callers cannot tell race losers from ordinary validation failures.
type ConflictError struct {
	Field string
}

func (e *ConflictError) Error() string {
	return e.Field + " already exists"
}

type Store struct {
	DB *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{DB: db}
}

const employeeColumns = `
    id, phone_number1, COALESCE(phone_number2, ''), password_hash,
    first_name, rest_of_name, email, date_joined, dob,
    COALESCE(gender, ''), identity_type, identity_number,
    COALESCE(address, ''), COALESCE(location, ''), COALESCE(profile_picture, ''),
    COALESCE(role, ''), COALESCE(fingerprint_id, ''),
    is_active, is_staff, is_superuser, is_verified,
    last_login, created_at, updated_at`

func (s *Store) Create(ctx context.Context, emp *Employee) error {
	emp.ID = uuid.NewString()
	err := s.DB.QueryRow(ctx, `
    INSERT INTO employees (
      id, phone_number1, phone_number2, password_hash,
      first_name, rest_of_name, email, date_joined, dob, gender,
      identity_type, identity_number, address, location, profile_picture,
      role, fingerprint_id, is_active, is_staff, is_superuser, is_verified
    ) VALUES (
      $1,$2,NULLIF($3,''),$4,$5,$6,$7,$8,$9,NULLIF($10,''),
      $11,$12,NULLIF($13,''),NULLIF($14,''),NULLIF($15,''),
      NULLIF($16,''),NULLIF($17,''),$18,$19,$20,$21
    )
    RETURNING created_at, updated_at
  `,
		emp.ID, emp.PhoneNumber1, emp.PhoneNumber2, emp.PasswordHash,
		emp.FirstName, emp.RestOfName, emp.Email, emp.DateJoined, emp.DOB, string(emp.Gender),
		string(emp.IdentityType), emp.IdentityNumber, emp.Address, emp.Location, emp.ProfilePicture,
		emp.Role, emp.FingerprintID, emp.IsActive, emp.IsStaff, emp.IsSuperuser, emp.IsVerified,
	).Scan(&emp.CreatedAt, &emp.UpdatedAt)
	return translateConflict(err)
}

func (s *Store) GetByID(ctx context.Context, id string) (*Employee, error) {
	return s.getOne(ctx, s.DB, "id", id, "")
}

func (s *Store) GetByPhone(ctx context.Context, phone string) (*Employee, error) {
	return s.getOne(ctx, s.DB, "phone_number1", phone, "")
}

func (s *Store) getOne(ctx context.Context, q querier, column, value, suffix string) (*Employee, error) {
	row := q.QueryRow(ctx, `SELECT`+employeeColumns+` FROM employees WHERE `+column+` = $1`+suffix, value)

	var emp Employee
	var gender, identityType string
	if err := row.Scan(
		&emp.ID, &emp.PhoneNumber1, &emp.PhoneNumber2, &emp.PasswordHash,
		&emp.FirstName, &emp.RestOfName, &emp.Email, &emp.DateJoined, &emp.DOB,
		&gender, &identityType, &emp.IdentityNumber,
		&emp.Address, &emp.Location, &emp.ProfilePicture,
		&emp.Role, &emp.FingerprintID,
		&emp.IsActive, &emp.IsStaff, &emp.IsSuperuser, &emp.IsVerified,
		&emp.LastLogin, &emp.CreatedAt, &emp.UpdatedAt,
	); err != nil {
		return nil, err
	}
	emp.Gender = Gender(gender)
	emp.IdentityType = IdentityType(identityType)
	return &emp, nil
}

// List returns active and inactive employees, newest first.
func (s *Store) List(ctx context.Context, limit, offset int) ([]ListItem, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT id, phone_number1, first_name, rest_of_name, email,
           COALESCE(role, ''), is_active, is_staff, date_joined
    FROM employees
    ORDER BY created_at DESC
    LIMIT $1 OFFSET $2
  `, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]ListItem, 0)
	for rows.Next() {
		var item ListItem
		if err := rows.Scan(
			&item.ID, &item.PhoneNumber1, &item.FirstName, &item.RestOfName,
			&item.Email, &item.Role, &item.IsActive, &item.IsStaff, &item.DateJoined,
		); err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// Mutate reads the row under a row lock, applies fn to it and writes the
// result back in the same transaction. Concurrent updates to one employee
// serialize instead of overwriting each other's fields.
func (s *Store) Mutate(ctx context.Context, id string, fn func(*Employee) error) (*Employee, error) {
	tx, err := s.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	emp, err := s.getOne(ctx, tx, "id", id, " FOR UPDATE")
	if err != nil {
		return nil, err
	}
	if err := fn(emp); err != nil {
		return nil, err
	}
	if err := s.update(ctx, tx, emp); err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return emp, nil
}

// update rewrites every mutable profile field; password and flags that have
// dedicated operations (password_hash, last_login) are untouched.
func (s *Store) update(ctx context.Context, q querier, emp *Employee) error {
	err := q.QueryRow(ctx, `
    UPDATE employees
    SET phone_number1 = $2,
        phone_number2 = NULLIF($3, ''),
        first_name = $4,
        rest_of_name = $5,
        email = $6,
        date_joined = $7,
        dob = $8,
        gender = NULLIF($9, ''),
        identity_type = $10,
        identity_number = $11,
        address = NULLIF($12, ''),
        location = NULLIF($13, ''),
        profile_picture = NULLIF($14, ''),
        role = NULLIF($15, ''),
        fingerprint_id = NULLIF($16, ''),
        is_active = $17,
        is_staff = $18,
        is_superuser = $19,
        is_verified = $20,
        updated_at = now()
    WHERE id = $1
    RETURNING updated_at
  `,
		emp.ID, emp.PhoneNumber1, emp.PhoneNumber2,
		emp.FirstName, emp.RestOfName, emp.Email, emp.DateJoined, emp.DOB, string(emp.Gender),
		string(emp.IdentityType), emp.IdentityNumber, emp.Address, emp.Location, emp.ProfilePicture,
		emp.Role, emp.FingerprintID, emp.IsActive, emp.IsStaff, emp.IsSuperuser, emp.IsVerified,
	).Scan(&emp.UpdatedAt)
	return translateConflict(err)
}

// SetActive flips the soft-delete flag in a single statement; repeating the
// same transition is a no-op that still reports the row as found.
func (s *Store) SetActive(ctx context.Context, id string, active bool) (bool, error) {
	tag, err := s.DB.Exec(ctx, `
    UPDATE employees SET is_active = $2, updated_at = now() WHERE id = $1
  `, id, active)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (s *Store) SetPassword(ctx context.Context, id, passwordHash string) (bool, error) {
	tag, err := s.DB.Exec(ctx, `
    UPDATE employees SET password_hash = $2, updated_at = now() WHERE id = $1
  `, id, passwordHash)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (s *Store) TouchLastLogin(ctx context.Context, id string) error {
	_, err := s.DB.Exec(ctx, "UPDATE employees SET last_login = now() WHERE id = $1", id)
	return err
}

func translateConflict(err error) error {
	if err == nil {
		return nil
	}
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != "23505" {
		return err
	}
	switch pgErr.ConstraintName {
	case "employees_phone_number1_key":
		return &ConflictError{Field: "phone_number1"}
	case "employees_email_key":
		return &ConflictError{Field: "email"}
	case "employees_identity_number_key":
		return &ConflictError{Field: "identity_number"}
	}
	return err
}
