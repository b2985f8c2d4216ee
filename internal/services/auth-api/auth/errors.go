package auth

import "errors"

var (
	ErrDuplicateEmail     = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrNotAuthorized      = errors.New("user is not active")
	ErrRefreshMissing     = errors.New("refresh token missing")
	ErrRefreshExpired     = errors.New("refresh token expired")
	ErrRefreshInvalid     = errors.New("refresh token invalid")
	ErrUserUnavailable    = errors.New("user missing or inactive")
)

// Reason says why the guard turned a request away. Each reason has a fixed
// client-facing message.
type Reason int

const (
	ReasonNone Reason = iota
	ReasonNotAuthenticated
	ReasonAccessMalformed
	ReasonAccessUserUnavailable
	ReasonSessionExpired
	ReasonRefreshMalformed
	ReasonRefreshExpired
	ReasonRefreshUserUnavailable
	ReasonStrictMissing
	ReasonStrictExpired
)

var reasonMessages = map[Reason]string{
	ReasonNotAuthenticated:       "User not authenticated",
	ReasonAccessMalformed:        "Invalid access token",
	ReasonAccessUserUnavailable:  "Invalid token or user is unauthorized",
	ReasonSessionExpired:         "Authentication expired, please log in again",
	ReasonRefreshMalformed:       "Invalid refresh token",
	ReasonRefreshExpired:         "Refresh token expired. Please login again",
	ReasonRefreshUserUnavailable: "Invalid refresh token or user is unauthorized",
	ReasonStrictMissing:          "Unauthorized",
	ReasonStrictExpired:          "Access token expired",
}

func (r Reason) Message() string { return reasonMessages[r] }

func (r Reason) String() string {
	switch r {
	case ReasonNone:
		return "none"
	case ReasonNotAuthenticated:
		return "not_authenticated"
	case ReasonAccessMalformed:
		return "access_malformed"
	case ReasonAccessUserUnavailable:
		return "access_user_unavailable"
	case ReasonSessionExpired:
		return "session_expired"
	case ReasonRefreshMalformed:
		return "refresh_malformed"
	case ReasonRefreshExpired:
		return "refresh_expired"
	case ReasonRefreshUserUnavailable:
		return "refresh_user_unavailable"
	case ReasonStrictMissing:
		return "strict_missing"
	case ReasonStrictExpired:
		return "strict_expired"
	default:
		return "unknown"
	}
}
