package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/NordCoder/authgate/internal/audit"
	"github.com/NordCoder/authgate/internal/domain/user"
	"github.com/NordCoder/authgate/internal/httpx"
	"github.com/NordCoder/authgate/internal/password"
	"github.com/NordCoder/authgate/internal/repository/memory"
	"github.com/NordCoder/authgate/internal/token"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

const (
	accessTTL  = 7 * 24 * time.Hour
	refreshTTL = 30 * 24 * time.Hour
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

type recordingSink struct {
	mu     sync.Mutex
	events []audit.Event
}

func (s *recordingSink) Emit(_ context.Context, e audit.Event) {
	s.mu.Lock()
	s.events = append(s.events, e)
	s.mu.Unlock()
}

func (s *recordingSink) types() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.events))
	for _, e := range s.events {
		out = append(out, e.Type)
	}
	return out
}

// failingRepo answers every call with err.
type failingRepo struct{ err error }

func (f failingRepo) Create(context.Context, *user.User) error { return f.err }
func (f failingRepo) GetByID(context.Context, int64) (*user.User, error) {
	return nil, f.err
}
func (f failingRepo) GetByEmail(context.Context, string) (*user.User, error) {
	return nil, f.err
}
func (f failingRepo) Update(context.Context, *user.User) error { return f.err }

type testEnv struct {
	repo    *memory.UserRepo
	codec   *token.Codec
	clock   *fakeClock
	sink    *recordingSink
	engine  *Engine
	cookies *Cookies
	router  chi.Router
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	return newTestEnvWithRepo(t, memory.NewUserRepo())
}

func newTestEnvWithRepo(t *testing.T, repo user.Repo) *testEnv {
	t.Helper()
	clock := &fakeClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	codec, err := token.NewCodec(token.Config{
		AccessSecret:  []byte("access-secret"),
		RefreshSecret: []byte("refresh-secret"),
		AccessTTL:     accessTTL,
		RefreshTTL:    refreshTTL,
		Now:           clock.Now,
	})
	require.NoError(t, err)

	sink := &recordingSink{}
	engine := NewEngine(repo, codec, password.NewBcrypt(bcrypt.MinCost), Opts{Audit: sink})
	cookies := NewCookies(CookieOpts{AccessTTL: accessTTL, RefreshTTL: refreshTTL, Now: clock.Now})

	env := &testEnv{
		codec:   codec,
		clock:   clock,
		sink:    sink,
		engine:  engine,
		cookies: cookies,
	}
	if mem, ok := repo.(*memory.UserRepo); ok {
		env.repo = mem
	}

	guard := NewGuard(engine, cookies, nil)
	r := chi.NewRouter()
	r.Route("/api", func(r chi.Router) {
		NewController(engine, cookies, nil).Register(r)
		r.With(guard.Require).Get("/protected", whoami)
		r.With(guard.Strict).Post("/sensitive", whoami)
	})
	env.router = r
	return env
}

func whoami(w http.ResponseWriter, r *http.Request) {
	u, ok := IdentityFrom(r.Context())
	if !ok {
		httpx.InternalServerError(w, "no identity")
		return
	}
	httpx.Success(w, "ok", u)
}

func (e *testEnv) signUp(t *testing.T, email, plain string) (user.Public, Pair) {
	t.Helper()
	u, pair, err := e.engine.SignUp(context.Background(), email, plain)
	require.NoError(t, err)
	return u, pair
}

func (e *testEnv) deactivate(t *testing.T, id int64) {
	t.Helper()
	ctx := context.Background()
	u, err := e.repo.GetByID(ctx, id)
	require.NoError(t, err)
	u.IsActive = false
	require.NoError(t, e.repo.Update(ctx, u))
}

func (e *testEnv) do(method, path, body string, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func accessCookie(v string) *http.Cookie  { return &http.Cookie{Name: AccessCookie, Value: v} }
func refreshCookie(v string) *http.Cookie { return &http.Cookie{Name: RefreshCookie, Value: v} }

func responseCookies(rec *httptest.ResponseRecorder) map[string]*http.Cookie {
	out := make(map[string]*http.Cookie)
	for _, c := range rec.Result().Cookies() {
		out[c.Name] = c
	}
	return out
}

type testEnvelope struct {
	Success bool              `json:"success"`
	Message string            `json:"message"`
	Data    json.RawMessage   `json:"data"`
	Errors  map[string]string `json:"errors"`
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) testEnvelope {
	t.Helper()
	var env testEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	return env
}
