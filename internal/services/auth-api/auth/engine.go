package auth

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/NordCoder/authgate/internal/audit"
	"github.com/NordCoder/authgate/internal/domain/user"
	"github.com/NordCoder/authgate/internal/obs"
	"github.com/NordCoder/authgate/internal/password"
	"github.com/NordCoder/authgate/internal/token"
	"go.uber.org/zap"
)

type Pair struct {
	Access  string
	Refresh string
}

type State int

const (
	StateRejected State = iota
	StateAuthorized
	// StateRenewed is authorized through the refresh token; AccessToken
	// holds the newly issued access token.
	StateRenewed
)

func (s State) String() string {
	switch s {
	case StateAuthorized:
		return "authorized"
	case StateRenewed:
		return "renewed"
	default:
		return "rejected"
	}
}

type Decision struct {
	State       State
	Reason      Reason
	User        user.Public
	AccessToken string
}

func reject(r Reason) Decision { return Decision{State: StateRejected, Reason: r} }

type Opts struct {
	Logger *zap.Logger
	Audit  audit.Sink
}

type Engine struct {
	users  user.Repo
	codec  *token.Codec
	hasher password.Hasher
	log    *zap.Logger
	audit  audit.Sink

	decoyOnce sync.Once
	decoy     string
}

func NewEngine(users user.Repo, codec *token.Codec, hasher password.Hasher, o Opts) *Engine {
	log := o.Logger
	if log == nil {
		log = zap.NewNop()
	}
	sink := o.Audit
	if sink == nil {
		sink = audit.NoOpSink{}
	}
	return &Engine{
		users:  users,
		codec:  codec,
		hasher: hasher,
		log:    log,
		audit:  sink,
	}
}

func (e *Engine) SignUp(ctx context.Context, email, plain string) (user.Public, Pair, error) {
	email = user.NormalizeEmail(email)

	_, err := e.users.GetByEmail(ctx, email)
	switch {
	case err == nil:
		e.record(ctx, audit.TypeSignup, 0, email, ErrDuplicateEmail)
		return user.Public{}, Pair{}, ErrDuplicateEmail
	case !errors.Is(err, user.ErrNotFound):
		return user.Public{}, Pair{}, fmt.Errorf("lookup user: %w", err)
	}

	hash, err := e.hasher.Hash(plain)
	if err != nil {
		return user.Public{}, Pair{}, err
	}
	u := &user.User{Email: email, PasswordHash: hash, IsActive: true}
	if err := e.users.Create(ctx, u); err != nil {
		if errors.Is(err, user.ErrConflict) {
			e.record(ctx, audit.TypeSignup, 0, email, ErrDuplicateEmail)
			return user.Public{}, Pair{}, ErrDuplicateEmail
		}
		return user.Public{}, Pair{}, fmt.Errorf("create user: %w", err)
	}

	pair, err := e.issuePair(u.ID)
	if err != nil {
		return user.Public{}, Pair{}, err
	}
	e.record(ctx, audit.TypeSignup, u.ID, email, nil)
	return u.Public(), pair, nil
}

// Login answers an unknown email and a wrong password with the same error
// after the same amount of hashing work.
func (e *Engine) Login(ctx context.Context, email, plain string) (user.Public, Pair, error) {
	email = user.NormalizeEmail(email)

	u, err := e.users.GetByEmail(ctx, email)
	switch {
	case errors.Is(err, user.ErrNotFound):
		e.hasher.Verify(plain, e.decoyDigest())
		e.record(ctx, audit.TypeLogin, 0, email, ErrInvalidCredentials)
		return user.Public{}, Pair{}, ErrInvalidCredentials
	case err != nil:
		return user.Public{}, Pair{}, fmt.Errorf("lookup user: %w", err)
	}

	if !e.hasher.Verify(plain, u.PasswordHash) {
		e.record(ctx, audit.TypeLogin, u.ID, email, ErrInvalidCredentials)
		return user.Public{}, Pair{}, ErrInvalidCredentials
	}
	if !u.IsActive {
		e.record(ctx, audit.TypeLogin, u.ID, email, ErrNotAuthorized)
		return user.Public{}, Pair{}, ErrNotAuthorized
	}

	pair, err := e.issuePair(u.ID)
	if err != nil {
		return user.Public{}, Pair{}, err
	}
	e.record(ctx, audit.TypeLogin, u.ID, email, nil)
	return u.Public(), pair, nil
}

// Refresh rotates both tokens.
func (e *Engine) Refresh(ctx context.Context, refresh string) (user.Public, Pair, error) {
	if refresh == "" {
		return user.Public{}, Pair{}, ErrRefreshMissing
	}

	v := e.codec.Verify(refresh, token.Refresh)
	switch v.Status {
	case token.Expired:
		e.record(ctx, audit.TypeRefresh, 0, "", ErrRefreshExpired)
		return user.Public{}, Pair{}, ErrRefreshExpired
	case token.Malformed:
		e.record(ctx, audit.TypeRefresh, 0, "", ErrRefreshInvalid)
		return user.Public{}, Pair{}, ErrRefreshInvalid
	}

	u, err := e.activeUser(ctx, v.SubjectID)
	if err != nil {
		if errors.Is(err, ErrUserUnavailable) {
			e.record(ctx, audit.TypeRefresh, v.SubjectID, "", err)
		}
		return user.Public{}, Pair{}, err
	}

	pair, err := e.issuePair(u.ID)
	if err != nil {
		return user.Public{}, Pair{}, err
	}
	e.record(ctx, audit.TypeRefresh, u.ID, u.Email, nil)
	return u.Public(), pair, nil
}

// Logout has nothing to invalidate server side: tokens are stateless and
// stay valid until they expire. Callers clear the cookies.
func (e *Engine) Logout(ctx context.Context) {
	e.record(ctx, audit.TypeLogout, 0, "", nil)
}

// Authenticate decides a guarded request. A valid access token authorizes
// directly; an expired one (or none, when a refresh token is present) falls
// back to the refresh token, which yields a new access token only.
func (e *Engine) Authenticate(ctx context.Context, access, refresh string) (Decision, error) {
	if access == "" {
		if refresh == "" {
			return reject(ReasonNotAuthenticated), nil
		}
		return e.renew(ctx, refresh)
	}

	v := e.codec.Verify(access, token.Access)
	switch v.Status {
	case token.Malformed:
		return reject(ReasonAccessMalformed), nil
	case token.Expired:
		if refresh == "" {
			return reject(ReasonSessionExpired), nil
		}
		return e.renew(ctx, refresh)
	}

	u, err := e.activeUser(ctx, v.SubjectID)
	if errors.Is(err, ErrUserUnavailable) {
		return reject(ReasonAccessUserUnavailable), nil
	}
	if err != nil {
		return Decision{}, err
	}
	return Decision{State: StateAuthorized, User: u.Public()}, nil
}

// AuthenticateStrict accepts a live access token and nothing else.
func (e *Engine) AuthenticateStrict(ctx context.Context, access string) (Decision, error) {
	if access == "" {
		return reject(ReasonStrictMissing), nil
	}

	v := e.codec.Verify(access, token.Access)
	switch v.Status {
	case token.Expired:
		return reject(ReasonStrictExpired), nil
	case token.Malformed:
		return reject(ReasonAccessMalformed), nil
	}

	u, err := e.activeUser(ctx, v.SubjectID)
	if errors.Is(err, ErrUserUnavailable) {
		return reject(ReasonAccessUserUnavailable), nil
	}
	if err != nil {
		return Decision{}, err
	}
	return Decision{State: StateAuthorized, User: u.Public()}, nil
}

func (e *Engine) renew(ctx context.Context, refresh string) (Decision, error) {
	v := e.codec.Verify(refresh, token.Refresh)
	switch v.Status {
	case token.Malformed:
		return reject(ReasonRefreshMalformed), nil
	case token.Expired:
		return reject(ReasonRefreshExpired), nil
	}

	u, err := e.activeUser(ctx, v.SubjectID)
	if errors.Is(err, ErrUserUnavailable) {
		return reject(ReasonRefreshUserUnavailable), nil
	}
	if err != nil {
		return Decision{}, err
	}

	access, err := e.codec.Issue(token.Access, u.ID)
	if err != nil {
		return Decision{}, err
	}
	obs.WithTrace(ctx, e.log).Debug("auth.renew", zap.Int64("user_id", u.ID))
	e.record(ctx, audit.TypeGuardRenew, u.ID, u.Email, nil)
	return Decision{State: StateRenewed, User: u.Public(), AccessToken: access}, nil
}

func (e *Engine) activeUser(ctx context.Context, id int64) (*user.User, error) {
	u, err := e.users.GetByID(ctx, id)
	if errors.Is(err, user.ErrNotFound) {
		return nil, ErrUserUnavailable
	}
	if err != nil {
		return nil, fmt.Errorf("load user %d: %w", id, err)
	}
	if !u.IsActive {
		return nil, ErrUserUnavailable
	}
	return u, nil
}

func (e *Engine) issuePair(userID int64) (Pair, error) {
	access, err := e.codec.Issue(token.Access, userID)
	if err != nil {
		return Pair{}, err
	}
	refresh, err := e.codec.Issue(token.Refresh, userID)
	if err != nil {
		return Pair{}, err
	}
	return Pair{Access: access, Refresh: refresh}, nil
}

func (e *Engine) decoyDigest() string {
	e.decoyOnce.Do(func() {
		d, err := e.hasher.Hash("decoy-password")
		if err != nil {
			e.log.Warn("decoy digest", zap.Error(err))
			return
		}
		e.decoy = d
	})
	return e.decoy
}

func (e *Engine) record(ctx context.Context, typ string, userID int64, email string, err error) {
	outcome := "ok"
	ev := audit.NewEvent(typ, err == nil)
	ev.UserID = userID
	ev.Email = email
	ev.IP = audit.ClientIP(ctx)
	if err != nil {
		outcome = "fail"
		ev.Reason = err.Error()
	}
	obs.AuthEvent(typ, outcome)
	e.audit.Emit(ctx, ev)
}
