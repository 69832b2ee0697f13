package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Errors returned by the cookie store
var (
	ErrNoSession      = errors.New("no session cookies stored")
	ErrSessionExpired = errors.New("session expired")
)

// Cookie mirrors the browser cookie shape captured at login
type Cookie struct {
	Name     string  `json:"name"`
	Value    string  `json:"value"`
	Domain   string  `json:"domain"`
	Path     string  `json:"path"`
	Expires  float64 `json:"expires"`
	HTTPOnly bool    `json:"httpOnly"`
	Secure   bool    `json:"secure"`
}

// sessionCookieNames are the cookies the resource API requires on every call
var sessionCookieNames = []string{
	"csrftoken",
	"_b",
	"_auth",
	"_pinterest_sess",
	"__Secure-s_a",
	"sessionFunnelEventLogged",
}

// CookieSet is the ordered set of cookies captured from a login session
type CookieSet []Cookie

// Get returns the cookie with the given name
func (cs CookieSet) Get(name string) (Cookie, bool) {
	for _, c := range cs {
		if c.Name == name {
			return c, true
		}
	}
	return Cookie{}, false
}

// CSRFToken returns the csrftoken cookie value, or empty if absent
func (cs CookieSet) CSRFToken() string {
	if c, ok := cs.Get("csrftoken"); ok {
		return c.Value
	}
	return ""
}

// Header builds the Cookie header value the resource API expects
func (cs CookieSet) Header() string {
	var b strings.Builder
	for _, name := range sessionCookieNames {
		if c, ok := cs.Get(name); ok {
			fmt.Fprintf(&b, "%s=%s;", c.Name, c.Value)
		}
	}
	return b.String()
}

// Valid reports whether the set holds a usable, unexpired session.
// The csrftoken expiry stands in for the whole session's lifetime.
func (cs CookieSet) Valid() error {
	c, ok := cs.Get("csrftoken")
	if !ok {
		return ErrNoSession
	}
	if c.Expires > 0 && time.Unix(int64(c.Expires), 0).Before(time.Now()) {
		return ErrSessionExpired
	}
	return nil
}
