package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

type Kind int

const (
	Access Kind = iota
	Refresh
)

func (k Kind) String() string {
	switch k {
	case Access:
		return "access"
	case Refresh:
		return "refresh"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Status is the outcome of Verify. Callers switch on it: an Expired token may
// be renewed, a Malformed one must be rejected outright.
type Status int

const (
	Valid Status = iota
	Expired
	Malformed
)

func (s Status) String() string {
	switch s {
	case Valid:
		return "valid"
	case Expired:
		return "expired"
	default:
		return "malformed"
	}
}

type Verification struct {
	SubjectID int64
	Status    Status
}

func (v Verification) OK() bool { return v.Status == Valid }

var (
	ErrEmptySecret = errors.New("token: empty signing secret")
	ErrSameSecret  = errors.New("token: access and refresh secrets must differ")
	ErrBadTTL      = errors.New("token: ttl must be positive")
	ErrBadSubject  = errors.New("token: subject id must be positive")
)

type Config struct {
	AccessSecret  []byte
	RefreshSecret []byte
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
	Now           func() time.Time
}

type claims struct {
	UserID int64 `json:"id"`
	jwt.RegisteredClaims
}

type Codec struct {
	cfg Config
}

func NewCodec(cfg Config) (*Codec, error) {
	if len(cfg.AccessSecret) == 0 || len(cfg.RefreshSecret) == 0 {
		return nil, ErrEmptySecret
	}
	if string(cfg.AccessSecret) == string(cfg.RefreshSecret) {
		return nil, ErrSameSecret
	}
	if cfg.AccessTTL <= 0 || cfg.RefreshTTL <= 0 {
		return nil, ErrBadTTL
	}
	if cfg.Now == nil {
		cfg.Now = func() time.Time { return time.Now().UTC() }
	}
	return &Codec{cfg: cfg}, nil
}

// Now is the clock tokens are stamped with.
func (c *Codec) Now() time.Time { return c.cfg.Now() }

func (c *Codec) TTL(kind Kind) time.Duration {
	_, ttl := c.keys(kind)
	return ttl
}

func (c *Codec) Issue(kind Kind, subjectID int64) (string, error) {
	if subjectID <= 0 {
		return "", ErrBadSubject
	}
	secret, ttl := c.keys(kind)
	now := c.cfg.Now()
	cl := claims{
		UserID: subjectID,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, cl).SignedString(secret)
	if err != nil {
		return "", fmt.Errorf("sign %s token: %w", kind, err)
	}
	return signed, nil
}

// Verify never returns Expired for a token whose signature does not check out:
// the parser validates the signature before it looks at any claim.
func (c *Codec) Verify(raw string, kind Kind) Verification {
	if raw == "" {
		return Verification{Status: Malformed}
	}
	secret, _ := c.keys(kind)

	cl := &claims{}
	tok, err := jwt.ParseWithClaims(raw, cl,
		func(*jwt.Token) (any, error) { return secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithStrictDecoding(),
		jwt.WithTimeFunc(c.cfg.Now),
	)
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return Verification{Status: Expired}
	case err != nil, !tok.Valid, cl.UserID <= 0:
		return Verification{Status: Malformed}
	}
	return Verification{SubjectID: cl.UserID, Status: Valid}
}

func (c *Codec) keys(kind Kind) ([]byte, time.Duration) {
	if kind == Refresh {
		return c.cfg.RefreshSecret, c.cfg.RefreshTTL
	}
	return c.cfg.AccessSecret, c.cfg.AccessTTL
}
