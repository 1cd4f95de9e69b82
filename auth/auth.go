package auth

import (
	"context"
	"encoding/gob"
	"net/http"

	"github.com/gorilla/sessions"

	"wishlist/crypto"
)

var Store *sessions.CookieStore

const (
	SessionName = "wishlist-session"
	usernameKey = "username"
)

// Flash is a one-shot notice shown on the next rendered page. Message is an
// i18n key.
type Flash struct {
	Category string
	Message  string
}

func init() {
	gob.Register(Flash{})
}

func InitStore(sessionKey string, secure bool) {
	authKey := crypto.DeriveKey(sessionKey, "session-auth")
	encKey := crypto.DeriveKey(sessionKey, "session-encryption")

	Store = sessions.NewCookieStore(authKey, encKey)

	Store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   86400 * 7, // 7 days
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	}
}

// session never returns nil: a cookie that fails to decode yields a fresh
// session.
func session(r *http.Request) *sessions.Session {
	s, _ := Store.Get(r, SessionName)
	return s
}

// GetUsername returns the username bound to the request's session, or "".
func GetUsername(r *http.Request) string {
	if name, ok := session(r).Values[usernameKey].(string); ok {
		return name
	}
	return ""
}

func SetUsername(w http.ResponseWriter, r *http.Request, username string) error {
	s := session(r)
	s.Values[usernameKey] = username
	return s.Save(r, w)
}

// ClearUsername drops the username binding and keeps the cookie so a flash
// can still be delivered. Safe to call without a login.
func ClearUsername(w http.ResponseWriter, r *http.Request) error {
	s := session(r)
	delete(s.Values, usernameKey)
	return s.Save(r, w)
}

func AddFlash(w http.ResponseWriter, r *http.Request, category, message string) error {
	s := session(r)
	s.AddFlash(Flash{Category: category, Message: message})
	return s.Save(r, w)
}

// Flashes pops pending flashes. It must run before the response body is
// written since it rewrites the cookie.
func Flashes(w http.ResponseWriter, r *http.Request) []Flash {
	s := session(r)
	raw := s.Flashes()
	if len(raw) == 0 {
		return nil
	}
	s.Save(r, w)

	flashes := make([]Flash, 0, len(raw))
	for _, f := range raw {
		if fl, ok := f.(Flash); ok {
			flashes = append(flashes, fl)
		}
	}
	return flashes
}

type ctxKey struct{}

// WithUser returns a context carrying the authenticated caller.
func WithUser(ctx context.Context, username string) context.Context {
	return context.WithValue(ctx, ctxKey{}, username)
}

// UserFrom returns the caller placed on the context by RequireLogin.
func UserFrom(ctx context.Context) string {
	name, _ := ctx.Value(ctxKey{}).(string)
	return name
}

// RequireLogin redirects anonymous requests to the login page and hands the
// caller's username to next through the request context.
func RequireLogin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		username := GetUsername(r)
		if username == "" {
			AddFlash(w, r, "error", "AccessDeniedLogin")
			http.Redirect(w, r, "/login", http.StatusFound)
			return
		}
		next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), username)))
	})
}
