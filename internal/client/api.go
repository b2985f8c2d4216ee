package client

import (
	"context"
	"net/http"

	"github.com/NordCoder/authgate/internal/domain/user"
)

type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type userData struct {
	User user.Public `json:"user"`
}

func (c *Client) Signup(ctx context.Context, email, password string) (user.Public, Envelope) {
	return c.userCall(ctx, http.MethodPost, "/api/auth/signup", credentials{Email: email, Password: password})
}

func (c *Client) Login(ctx context.Context, email, password string) (user.Public, Envelope) {
	return c.userCall(ctx, http.MethodPost, "/api/auth/login", credentials{Email: email, Password: password})
}

func (c *Client) Logout(ctx context.Context) Envelope {
	return c.Do(ctx, http.MethodGet, "/api/auth/logout", nil, nil)
}

func (c *Client) Profile(ctx context.Context) (user.Public, Envelope) {
	return c.userCall(ctx, http.MethodGet, "/api/user/profile", nil)
}

func (c *Client) ChangePassword(ctx context.Context, oldPassword, newPassword string) Envelope {
	body := struct {
		OldPassword string `json:"old_password"`
		NewPassword string `json:"new_password"`
	}{oldPassword, newPassword}
	return c.Do(ctx, http.MethodPut, "/api/user/password", body, nil)
}

func (c *Client) Deactivate(ctx context.Context, password string) Envelope {
	body := struct {
		Password string `json:"password"`
	}{password}
	return c.Do(ctx, http.MethodPost, "/api/user/deactivate", body, nil)
}

func (c *Client) userCall(ctx context.Context, method, path string, body any) (user.Public, Envelope) {
	var out userData
	env := c.Do(ctx, method, path, body, &out)
	return out.User, env
}
