package user

import (
	"context"
	"errors"
	"fmt"

	"github.com/NordCoder/authgate/internal/audit"
	"github.com/NordCoder/authgate/internal/domain/user"
	"github.com/NordCoder/authgate/internal/obs"
	"github.com/NordCoder/authgate/internal/password"
)

var (
	ErrUserNotFound  = errors.New("user not found")
	ErrWrongPassword = errors.New("password does not match")
)

type Transactor interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
}

type Usecase struct {
	repo   user.Repo
	tx     Transactor
	hasher password.Hasher
	audit  audit.Sink
}

func New(repo user.Repo, tx Transactor, hasher password.Hasher, sink audit.Sink) *Usecase {
	if sink == nil {
		sink = audit.NoOpSink{}
	}
	return &Usecase{repo: repo, tx: tx, hasher: hasher, audit: sink}
}

func (u *Usecase) Profile(ctx context.Context, id int64) (user.Public, error) {
	cur, err := u.repo.GetByID(ctx, id)
	if errors.Is(err, user.ErrNotFound) {
		return user.Public{}, ErrUserNotFound
	}
	if err != nil {
		return user.Public{}, err
	}
	return cur.Public(), nil
}

// ChangePassword replaces the digest once oldPlain checks out. The read and
// the write share one transaction so a concurrent change cannot interleave.
func (u *Usecase) ChangePassword(ctx context.Context, id int64, oldPlain, newPlain string) error {
	err := u.tx.WithTx(ctx, func(ctx context.Context) error {
		cur, err := u.load(ctx, id)
		if err != nil {
			return err
		}
		if !u.hasher.Verify(oldPlain, cur.PasswordHash) {
			return ErrWrongPassword
		}
		hash, err := u.hasher.Hash(newPlain)
		if err != nil {
			return err
		}
		cur.PasswordHash = hash
		if err := u.repo.Update(ctx, cur); err != nil {
			return fmt.Errorf("update password: %w", err)
		}
		return nil
	})
	u.record(ctx, audit.TypePasswordChange, id, err)
	return err
}

func (u *Usecase) Deactivate(ctx context.Context, id int64, plain string) error {
	err := u.tx.WithTx(ctx, func(ctx context.Context) error {
		cur, err := u.load(ctx, id)
		if err != nil {
			return err
		}
		if !u.hasher.Verify(plain, cur.PasswordHash) {
			return ErrWrongPassword
		}
		cur.IsActive = false
		if err := u.repo.Update(ctx, cur); err != nil {
			return fmt.Errorf("deactivate: %w", err)
		}
		return nil
	})
	u.record(ctx, audit.TypeDeactivate, id, err)
	return err
}

func (u *Usecase) load(ctx context.Context, id int64) (*user.User, error) {
	cur, err := u.repo.GetByID(ctx, id)
	if errors.Is(err, user.ErrNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load user %d: %w", id, err)
	}
	return cur, nil
}

func (u *Usecase) record(ctx context.Context, typ string, id int64, err error) {
	ev := audit.NewEvent(typ, err == nil)
	ev.UserID = id
	ev.IP = audit.ClientIP(ctx)
	outcome := "ok"
	if err != nil {
		outcome = "fail"
		ev.Reason = err.Error()
	}
	obs.AuthEvent(typ, outcome)
	u.audit.Emit(ctx, ev)
}
