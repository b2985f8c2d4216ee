package auth

import (
	"context"
	"net/http"

	"github.com/NordCoder/authgate/internal/domain/user"
	"github.com/NordCoder/authgate/internal/httpx"
	"github.com/NordCoder/authgate/internal/obs"
	"go.uber.org/zap"
)

type identityKey struct{}

func WithIdentity(ctx context.Context, u user.Public) context.Context {
	return context.WithValue(ctx, identityKey{}, u)
}

// IdentityFrom returns the user attached by Guard or Strict.
func IdentityFrom(ctx context.Context) (user.Public, bool) {
	u, ok := ctx.Value(identityKey{}).(user.Public)
	return u, ok
}

type Guard struct {
	engine  *Engine
	cookies *Cookies
	log     *zap.Logger
}

func NewGuard(engine *Engine, cookies *Cookies, log *zap.Logger) *Guard {
	if log == nil {
		log = zap.NewNop()
	}
	return &Guard{engine: engine, cookies: cookies, log: log}
}

// Require admits requests with a valid access token and silently renews an
// expired one from the refresh cookie.
func (g *Guard) Require(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		access, refresh := g.cookies.Read(r)
		d, err := g.engine.Authenticate(r.Context(), access, refresh)
		g.serve(w, r, next, "default", d, err)
	})
}

// Strict admits only a live access token. Use it for sensitive mutations,
// which must not ride on a session renewed moments ago.
func (g *Guard) Strict(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		access, _ := g.cookies.Read(r)
		d, err := g.engine.AuthenticateStrict(r.Context(), access)
		g.serve(w, r, next, "strict", d, err)
	})
}

func (g *Guard) serve(w http.ResponseWriter, r *http.Request, next http.Handler, name string, d Decision, err error) {
	log := obs.WithTrace(r.Context(), g.log)
	if err != nil {
		obs.GuardDecision(name, "error")
		log.Error("guard.authenticate", zap.String("guard", name), zap.Error(err))
		httpx.InternalServerError(w, "")
		return
	}

	obs.GuardDecision(name, d.State.String())
	switch d.State {
	case StateRejected:
		log.Debug("guard.reject", zap.String("guard", name), zap.Stringer("reason", d.Reason))
		httpx.Unauthorized(w, d.Reason.Message())
		return
	case StateRenewed:
		g.cookies.SetAccess(w, d.AccessToken)
	}
	next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), d.User)))
}
