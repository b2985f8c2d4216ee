package auth

import (
	"net/http"
	"time"
)

const (
	AccessCookie  = "accessToken"
	RefreshCookie = "refreshToken"
)

type CookieOpts struct {
	Domain     string
	Production bool
	AccessTTL  time.Duration
	RefreshTTL time.Duration
	// Now stamps Expires; it should be the token codec's clock.
	Now        func() time.Time
}

// Cookies carries both tokens. In production they are Secure and
// SameSite=Strict; elsewhere SameSite=Lax so plain-http dev setups work.
type Cookies struct {
	o CookieOpts
}

func NewCookies(o CookieOpts) *Cookies {
	if o.Now == nil {
		o.Now = time.Now
	}
	return &Cookies{o: o}
}

func (c *Cookies) Read(r *http.Request) (access, refresh string) {
	if ck, err := r.Cookie(AccessCookie); err == nil {
		access = ck.Value
	}
	if ck, err := r.Cookie(RefreshCookie); err == nil {
		refresh = ck.Value
	}
	return access, refresh
}

func (c *Cookies) SetAccess(w http.ResponseWriter, value string) {
	http.SetCookie(w, c.cookie(AccessCookie, value, c.o.AccessTTL))
}

func (c *Cookies) SetPair(w http.ResponseWriter, p Pair) {
	http.SetCookie(w, c.cookie(AccessCookie, p.Access, c.o.AccessTTL))
	http.SetCookie(w, c.cookie(RefreshCookie, p.Refresh, c.o.RefreshTTL))
}

func (c *Cookies) Clear(w http.ResponseWriter) {
	for _, name := range []string{AccessCookie, RefreshCookie} {
		ck := c.cookie(name, "", 0)
		ck.MaxAge = -1
		ck.Expires = time.Unix(0, 0).UTC()
		http.SetCookie(w, ck)
	}
}

func (c *Cookies) cookie(name, value string, ttl time.Duration) *http.Cookie {
	sameSite := http.SameSiteLaxMode
	if c.o.Production {
		sameSite = http.SameSiteStrictMode
	}
	ck := &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		Domain:   c.o.Domain,
		HttpOnly: true,
		Secure:   c.o.Production,
		SameSite: sameSite,
	}
	if ttl > 0 {
		ck.MaxAge = int(ttl.Seconds())
		ck.Expires = c.o.Now().Add(ttl).UTC()
	}
	return ck
}
