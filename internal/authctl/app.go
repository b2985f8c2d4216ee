package authctl

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sort"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/NordCoder/authgate/internal/client"
	"github.com/NordCoder/authgate/internal/domain/user"
)

var ErrUsage = errors.New("usage: authctl [-server URL] [-cookies FILE] signup|login|profile|passwd|deactivate|logout")

type Config struct {
	Server     string
	CookiePath string
	HTTPClient *http.Client
	Logger     *zap.Logger
}

// App runs one authctl command per invocation. Session cookies are loaded
// before the command and written back after it, so a silent refresh done by
// the client survives into the next run.
type App struct {
	api     *client.Client
	cookies *CookieFile
	in      *bufio.Reader
	out     io.Writer
	cleared atomic.Bool
}

func New(cfg Config, in io.Reader, out io.Writer) (*App, error) {
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.CookiePath == "" {
		cfg.CookiePath = DefaultCookiePath()
	}

	a := &App{
		cookies: NewCookieFile(cfg.CookiePath),
		in:      bufio.NewReader(in),
		out:     out,
	}
	opts := []client.Option{
		client.WithLogger(cfg.Logger),
		client.WithOnAuthCleared(func() { a.cleared.Store(true) }),
	}
	if cfg.HTTPClient != nil {
		opts = append(opts, client.WithHTTPClient(cfg.HTTPClient))
	}
	api, err := client.New(cfg.Server, opts...)
	if err != nil {
		return nil, err
	}
	a.api = api
	return a, nil
}

func (a *App) Run(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return ErrUsage
	}
	cmd, ok := a.commands()[args[0]]
	if !ok {
		return ErrUsage
	}

	stored, err := a.cookies.Load()
	if err != nil {
		return err
	}
	a.api.SetCookies(stored)

	runErr := cmd(ctx)

	kept := a.api.Cookies()
	if a.cleared.Load() {
		kept = nil
	}
	if err := a.cookies.Save(kept); err != nil {
		return errors.Join(runErr, fmt.Errorf("save cookies: %w", err))
	}
	return runErr
}

func (a *App) commands() map[string]func(context.Context) error {
	return map[string]func(context.Context) error{
		"signup":     a.signup,
		"login":      a.login,
		"profile":    a.profile,
		"passwd":     a.passwd,
		"deactivate": a.deactivate,
		"logout":     a.logout,
	}
}

func (a *App) signup(ctx context.Context) error {
	email, password, err := a.askCredentials()
	if err != nil {
		return err
	}
	u, env := a.api.Signup(ctx, email, password)
	return a.reportUser(u, env)
}

func (a *App) login(ctx context.Context) error {
	email, password, err := a.askCredentials()
	if err != nil {
		return err
	}
	u, env := a.api.Login(ctx, email, password)
	return a.reportUser(u, env)
}

func (a *App) profile(ctx context.Context) error {
	u, env := a.api.Profile(ctx)
	return a.reportUser(u, env)
}

func (a *App) passwd(ctx context.Context) error {
	oldPassword, err := promptPassword(a.out, "Current password")
	if err != nil {
		return err
	}
	newPassword, err := promptPassword(a.out, "New password")
	if err != nil {
		return err
	}
	return a.report(a.api.ChangePassword(ctx, oldPassword, newPassword))
}

func (a *App) deactivate(ctx context.Context) error {
	password, err := promptPassword(a.out, "Password")
	if err != nil {
		return err
	}
	return a.report(a.api.Deactivate(ctx, password))
}

func (a *App) logout(ctx context.Context) error {
	return a.report(a.api.Logout(ctx))
}

func (a *App) askCredentials() (string, string, error) {
	email, err := promptLine(a.in, a.out, "Email")
	if err != nil {
		return "", "", err
	}
	password, err := promptPassword(a.out, "Password")
	if err != nil {
		return "", "", err
	}
	return email, password, nil
}

func (a *App) reportUser(u user.Public, env client.Envelope) error {
	if !env.Success {
		return envelopeError(env)
	}
	fmt.Fprintln(a.out, env.Message)
	fmt.Fprintf(a.out, "id:    %d\nemail: %s\n", u.ID, u.Email)
	return nil
}

// report handles endpoints that end the session: they answer 200 with
// success=false, so the status code decides.
func (a *App) report(env client.Envelope) error {
	if !env.OK() {
		return envelopeError(env)
	}
	fmt.Fprintln(a.out, env.Message)
	return nil
}

func envelopeError(env client.Envelope) error {
	if len(env.Errors) == 0 {
		return errors.New(env.Message)
	}
	fields := make([]string, 0, len(env.Errors))
	for f := range env.Errors {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	msg := env.Message
	for _, f := range fields {
		msg += fmt.Sprintf("\n  %s: %s", f, env.Errors[f])
	}
	return errors.New(msg)
}
