package employee

import (
	"context"
	"errors"

	"hrcore/internal/domain/auth"
)

var (
	// ErrInvalidCredentials covers unknown phone, wrong password and
	// deactivated accounts alike; login responses never distinguish them.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrInvalidPassword is the self-service current-password mismatch.
	ErrInvalidPassword = errors.New("invalid password")
)

type Service struct {
	store *Store
}

func NewService(store *Store) *Service {
	return &Service{store: store}
}

func (s *Service) Create(ctx context.Context, emp *Employee) error {
	return s.store.Create(ctx, emp)
}

func (s *Service) Get(ctx context.Context, id string) (*Employee, error) {
	return s.store.GetByID(ctx, id)
}

func (s *Service) List(ctx context.Context, limit, offset int) ([]ListItem, error) {
	return s.store.List(ctx, limit, offset)
}

// Update applies a merge function to the stored record under a row lock so
// concurrent partial updates cannot drop each other's fields.
func (s *Service) Update(ctx context.Context, id string, apply func(*Employee) error) (*Employee, error) {
	return s.store.Mutate(ctx, id, apply)
}

// Deactivate soft-deletes: the row keeps every field and stays queryable,
// only authentication is cut off. Idempotent.
func (s *Service) Deactivate(ctx context.Context, id string) (bool, error) {
	return s.store.SetActive(ctx, id, false)
}

// Activate reverses a soft delete. Idempotent; no employee is ever
// permanently locked out of reactivation.
func (s *Service) Activate(ctx context.Context, id string) (bool, error) {
	return s.store.SetActive(ctx, id, true)
}

// ResetPassword is the admin-tier reset: no current password required.
func (s *Service) ResetPassword(ctx context.Context, id, newPassword string) (bool, error) {
	hash, err := auth.HashPassword(newPassword)
	if err != nil {
		return false, err
	}
	return s.store.SetPassword(ctx, id, hash)
}

// ChangeOwnPassword is the self-service tier: the caller must prove knowledge
// of the current password first.
func (s *Service) ChangeOwnPassword(ctx context.Context, id, currentPassword, newPassword string) error {
	emp, err := s.store.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := auth.CheckPassword(emp.PasswordHash, currentPassword); err != nil {
		return ErrInvalidPassword
	}
	hash, err := auth.HashPassword(newPassword)
	if err != nil {
		return err
	}
	if _, err := s.store.SetPassword(ctx, id, hash); err != nil {
		return err
	}
	return nil
}

// Authenticate verifies login credentials against the stored hash and rejects
// deactivated accounts. On success last_login is updated.
func (s *Service) Authenticate(ctx context.Context, phone, password string) (*Employee, error) {
	emp, err := s.store.GetByPhone(ctx, phone)
	if err != nil {
		return nil, ErrInvalidCredentials
	}
	if !emp.IsActive {
		return nil, ErrInvalidCredentials
	}
	if err := auth.CheckPassword(emp.PasswordHash, password); err != nil {
		return nil, ErrInvalidCredentials
	}
	if err := s.store.TouchLastLogin(ctx, emp.ID); err != nil {
		return nil, err
	}
	return emp, nil
}
