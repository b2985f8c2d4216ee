package user

import "context"

// Repo is the account store. Lookups return ErrNotFound for unknown ids and
// emails. Create returns ErrConflict when the email is taken and fills in the
// id and timestamps on success.
type Repo interface {
	Create(ctx context.Context, u *User) error
	GetByID(ctx context.Context, id int64) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	// Update writes password hash and active flag back; ErrNotFound when the
	// row is gone.
	Update(ctx context.Context, u *User) error
}
