package user

import (
	"errors"
	"net/http"

	"github.com/NordCoder/authgate/internal/domain/user"
	"github.com/NordCoder/authgate/internal/httpx"
	"github.com/NordCoder/authgate/internal/obs"
	"github.com/NordCoder/authgate/internal/services/auth-api/auth"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

const (
	minPasswordLen = 6
	maxPasswordLen = 16
)

type Controller struct {
	uc      *Usecase
	cookies *auth.Cookies
	log     *zap.Logger
}

func NewController(uc *Usecase, cookies *auth.Cookies, log *zap.Logger) *Controller {
	if log == nil {
		log = zap.NewNop()
	}
	return &Controller{uc: uc, cookies: cookies, log: log}
}

func (c *Controller) Register(r chi.Router, guard *auth.Guard) {
	r.Route("/user", func(r chi.Router) {
		r.With(guard.Require).Get("/profile", c.profile)
		r.With(guard.Require).Put("/password", c.changePassword)
		r.With(guard.Strict).Post("/deactivate", c.deactivate)
	})
}

type userPayload struct {
	User user.Public `json:"user"`
}

type changePasswordRequest struct {
	OldPassword string `json:"old_password"`
	NewPassword string `json:"new_password"`
}

type deactivateRequest struct {
	Password string `json:"password"`
}

func (c *Controller) profile(w http.ResponseWriter, r *http.Request) {
	id, ok := auth.IdentityFrom(r.Context())
	if !ok {
		httpx.Unauthorized(w, "")
		return
	}
	u, err := c.uc.Profile(r.Context(), id.ID)
	if err != nil {
		c.fail(w, r, "user.profile", err)
		return
	}
	httpx.Success(w, "Profile fetched successfully", userPayload{User: u})
}

func (c *Controller) changePassword(w http.ResponseWriter, r *http.Request) {
	id, ok := auth.IdentityFrom(r.Context())
	if !ok {
		httpx.Unauthorized(w, "")
		return
	}
	var req changePasswordRequest
	if err := httpx.Decode(w, r, &req); err != nil {
		httpx.Error(w, httpx.MsgMalformedInput)
		return
	}
	v := httpx.NewValidator()
	v.Password("old_password", req.OldPassword, minPasswordLen, maxPasswordLen)
	v.Password("new_password", req.NewPassword, minPasswordLen, maxPasswordLen)
	if !v.Valid() {
		httpx.ValidationError(w, "Invalid request data", v.Errors())
		return
	}

	if err := c.uc.ChangePassword(r.Context(), id.ID, req.OldPassword, req.NewPassword); err != nil {
		if errors.Is(err, ErrWrongPassword) {
			httpx.Error(w, "Invalid old password")
			return
		}
		c.fail(w, r, "user.change_password", err)
		return
	}

	c.cookies.Clear(w)
	httpx.LoggedOut(w, "Password updated successfully")
}

func (c *Controller) deactivate(w http.ResponseWriter, r *http.Request) {
	id, ok := auth.IdentityFrom(r.Context())
	if !ok {
		httpx.Unauthorized(w, "")
		return
	}
	var req deactivateRequest
	if err := httpx.Decode(w, r, &req); err != nil {
		httpx.Error(w, httpx.MsgMalformedInput)
		return
	}
	if req.Password == "" {
		httpx.ValidationError(w, "Invalid request data", map[string]string{"password": "Password is required"})
		return
	}

	if err := c.uc.Deactivate(r.Context(), id.ID, req.Password); err != nil {
		if errors.Is(err, ErrWrongPassword) {
			httpx.Error(w, "Invalid password")
			return
		}
		c.fail(w, r, "user.deactivate", err)
		return
	}

	obs.WithTrace(r.Context(), c.log).Info("user.deactivated", zap.Int64("user_id", id.ID))
	c.cookies.Clear(w)
	httpx.LoggedOut(w, "Account deactivated")
}

func (c *Controller) fail(w http.ResponseWriter, r *http.Request, op string, err error) {
	if errors.Is(err, ErrUserNotFound) {
		httpx.Error(w, "User not found")
		return
	}
	obs.WithTrace(r.Context(), c.log).Error(op, zap.Error(err))
	httpx.InternalServerError(w, "")
}
