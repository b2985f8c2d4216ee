package client

import (
	"context"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/NordCoder/authgate/internal/password"
	"github.com/NordCoder/authgate/internal/repository/memory"
	"github.com/NordCoder/authgate/internal/services/auth-api/auth"
	accountsvc "github.com/NordCoder/authgate/internal/services/auth-api/user"
	"github.com/NordCoder/authgate/internal/token"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func newAuthAPI(t *testing.T) *httptest.Server {
	t.Helper()
	codec, err := token.NewCodec(token.Config{
		AccessSecret:  []byte("access-secret"),
		RefreshSecret: []byte("refresh-secret"),
		AccessTTL:     time.Hour,
		RefreshTTL:    24 * time.Hour,
	})
	require.NoError(t, err)

	repo := memory.NewUserRepo()
	hasher := password.NewBcrypt(bcrypt.MinCost)
	engine := auth.NewEngine(repo, codec, hasher, auth.Opts{})
	cookies := auth.NewCookies(auth.CookieOpts{AccessTTL: time.Hour, RefreshTTL: 24 * time.Hour})
	guard := auth.NewGuard(engine, cookies, nil)

	r := chi.NewRouter()
	r.Route("/api", func(r chi.Router) {
		auth.NewController(engine, cookies, nil).Register(r)
		accountsvc.NewController(accountsvc.New(repo, memory.Transactor{}, hasher, nil), cookies, nil).Register(r, guard)
	})
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv
}

func TestSessionLifecycle(t *testing.T) {
	srv := newAuthAPI(t)
	var cleared atomic.Int32
	var redirect string
	c, err := New(srv.URL,
		WithOnAuthCleared(func() { cleared.Add(1) }),
		WithLocation(func() string { return "/settings" }),
		WithRedirect(func(u string) { redirect = u }),
	)
	require.NoError(t, err)
	ctx := context.Background()

	u, env := c.Signup(ctx, "a@x.com", "secret1")
	require.True(t, env.Success, env.Message)
	assert.Equal(t, "a@x.com", u.Email)
	assert.Len(t, c.Cookies(), 2)

	me, env := c.Profile(ctx)
	require.True(t, env.Success, env.Message)
	assert.Equal(t, u, me)

	env = c.ChangePassword(ctx, "secret1", "secret2")
	assert.Equal(t, "Password updated successfully", env.Message)
	assert.Empty(t, c.Cookies(), "password change ends the session")

	_, env = c.Login(ctx, "a@x.com", "secret1")
	assert.Equal(t, "Invalid credentials", env.Message)
	_, env = c.Login(ctx, "a@x.com", "secret2")
	require.True(t, env.Success, env.Message)

	env = c.Logout(ctx)
	assert.Equal(t, "Logged-out", env.Message)
	assert.Empty(t, c.Cookies())

	_, env = c.Profile(ctx)
	assert.False(t, env.Success)
	assert.Equal(t, "User not authenticated", env.Message)
	assert.Equal(t, int32(1), cleared.Load())
	assert.Equal(t, "/login?expired=true&redirect=%2Fsettings", redirect)
}

func TestCookiesSurviveReload(t *testing.T) {
	srv := newAuthAPI(t)
	ctx := context.Background()

	first, err := New(srv.URL)
	require.NoError(t, err)
	_, env := first.Signup(ctx, "a@x.com", "secret1")
	require.True(t, env.Success, env.Message)

	second, err := New(srv.URL)
	require.NoError(t, err)
	second.SetCookies(first.Cookies())

	me, env := second.Profile(ctx)
	require.True(t, env.Success, env.Message)
	assert.Equal(t, "a@x.com", me.Email)

	env = second.Deactivate(ctx, "secret1")
	assert.Equal(t, "Account deactivated", env.Message)

	_, env = first.Login(ctx, "a@x.com", "secret1")
	assert.Equal(t, "User not authorized", env.Message)
}
