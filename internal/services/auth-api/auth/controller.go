package auth

import (
	"errors"
	"net/http"

	"github.com/NordCoder/authgate/internal/audit"
	"github.com/NordCoder/authgate/internal/domain/user"
	"github.com/NordCoder/authgate/internal/httpx"
	"github.com/NordCoder/authgate/internal/obs"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

const (
	minPasswordLen = 4
	maxPasswordLen = 16
)

type Controller struct {
	engine  *Engine
	cookies *Cookies
	log     *zap.Logger
}

func NewController(engine *Engine, cookies *Cookies, log *zap.Logger) *Controller {
	if log == nil {
		log = zap.NewNop()
	}
	return &Controller{engine: engine, cookies: cookies, log: log}
}

func (c *Controller) Register(r chi.Router) {
	r.Post("/auth/signup", c.signup)
	r.Post("/auth/login", c.login)
	r.Post("/auth/refresh", c.refresh)
	r.Get("/auth/logout", c.logout)
	r.Post("/auth/logout", c.logout)
}

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (req credentialsRequest) validate() map[string]string {
	v := httpx.NewValidator()
	v.Email("email", req.Email)
	v.Password("password", req.Password, minPasswordLen, maxPasswordLen)
	if v.Valid() {
		return nil
	}
	return v.Errors()
}

type userPayload struct {
	User user.Public `json:"user"`
}

func (c *Controller) signup(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := httpx.Decode(w, r, &req); err != nil {
		httpx.Error(w, httpx.MsgMalformedInput)
		return
	}
	if errs := req.validate(); errs != nil {
		httpx.ValidationError(w, "Invalid request data", errs)
		return
	}

	log := obs.WithTrace(r.Context(), c.log)
	log.Info("auth.signup", zap.String("email", user.NormalizeEmail(req.Email)))

	u, pair, err := c.engine.SignUp(r.Context(), req.Email, req.Password)
	if err != nil {
		c.fail(w, r, "auth.signup", err)
		return
	}

	c.cookies.SetPair(w, pair)
	httpx.Success(w, "User registered successfully", userPayload{User: u})
}

func (c *Controller) login(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := httpx.Decode(w, r, &req); err != nil {
		httpx.Error(w, httpx.MsgMalformedInput)
		return
	}
	if errs := req.validate(); errs != nil {
		httpx.ValidationError(w, "Invalid data submitted", errs)
		return
	}

	u, pair, err := c.engine.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		c.fail(w, r, "auth.login", err)
		return
	}

	obs.WithTrace(r.Context(), c.log).Info("auth.login", zap.Int64("user_id", u.ID))
	c.cookies.SetPair(w, pair)
	httpx.Success(w, "Logged in successfully", userPayload{User: u})
}

func (c *Controller) refresh(w http.ResponseWriter, r *http.Request) {
	_, raw := c.cookies.Read(r)

	u, pair, err := c.engine.Refresh(r.Context(), raw)
	if err != nil {
		c.fail(w, r, "auth.refresh", err)
		return
	}

	obs.WithTrace(r.Context(), c.log).Debug("auth.refresh", zap.Int64("user_id", u.ID))
	c.cookies.SetPair(w, pair)
	httpx.Success(w, "Token refreshed successfully", userPayload{User: u})
}

func (c *Controller) logout(w http.ResponseWriter, r *http.Request) {
	c.engine.Logout(r.Context())
	c.cookies.Clear(w)
	httpx.LoggedOut(w, "")
}

// fail is the single translation point from engine errors to responses.
func (c *Controller) fail(w http.ResponseWriter, r *http.Request, op string, err error) {
	switch {
	case errors.Is(err, ErrDuplicateEmail):
		httpx.Error(w, "User already exists with this email")
	case errors.Is(err, ErrInvalidCredentials):
		httpx.Error(w, "Invalid credentials")
	case errors.Is(err, ErrNotAuthorized):
		httpx.Error(w, "User not authorized")
	case errors.Is(err, ErrRefreshMissing):
		httpx.Unauthorized(w, "Refresh token not found")
	case errors.Is(err, ErrRefreshExpired):
		httpx.Unauthorized(w, "Refresh token expired")
	case errors.Is(err, ErrRefreshInvalid):
		httpx.Unauthorized(w, "Invalid refresh token")
	case errors.Is(err, ErrUserUnavailable):
		httpx.Unauthorized(w, "User not found or is not authorized to access this resource")
	default:
		obs.WithTrace(r.Context(), c.log).Error(op, zap.String("ip", audit.ClientIP(r.Context())), zap.Error(err))
		if op == "auth.refresh" {
			httpx.InternalServerError(w, "Failed to refresh token")
			return
		}
		httpx.InternalServerError(w, "")
	}
}
