package user

import (
	"context"
	"errors"
	"fmt"

	"github.com/NordCoder/authgate/internal/domain/user"
)

// EnsureAdmin creates the bootstrap account unless a user with that email
// already exists. It never touches an existing record.
func (u *Usecase) EnsureAdmin(ctx context.Context, email, plain string) (bool, error) {
	email = user.NormalizeEmail(email)

	_, err := u.repo.GetByEmail(ctx, email)
	switch {
	case err == nil:
		return false, nil
	case !errors.Is(err, user.ErrNotFound):
		return false, fmt.Errorf("lookup admin: %w", err)
	}

	hash, err := u.hasher.Hash(plain)
	if err != nil {
		return false, err
	}
	err = u.repo.Create(ctx, &user.User{Email: email, PasswordHash: hash, IsActive: true})
	if errors.Is(err, user.ErrConflict) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("create admin: %w", err)
	}
	return true, nil
}
