package auth

import (
	"context"
	"net/http"
	"strings"
	"time"

	"healthdash/internal/core"
	applog "healthdash/internal/log"
)

// SessionCookie is the cookie holding the session token.
const SessionCookie = "healthdash_session"

type contextKey struct{}

// WithUser stores the caller in ctx.
func WithUser(ctx context.Context, u core.UserContext) context.Context {
	return context.WithValue(ctx, contextKey{}, u)
}

// UserFromContext returns the caller stored by RequireUser.
func UserFromContext(ctx context.Context) (core.UserContext, bool) {
	u, ok := ctx.Value(contextKey{}).(core.UserContext)
	return u, ok
}

// Middleware guards routes that need a signed-in user.
type Middleware struct {
	tokens   *TokenIssuer
	location *time.Location
	secure   bool
}

func NewMiddleware(tokens *TokenIssuer, loc *time.Location, secureCookies bool) *Middleware {
	if loc == nil {
		loc = time.Local
	}
	return &Middleware{tokens: tokens, location: loc, secure: secureCookies}
}

// RequireUser rejects requests without a valid session. Pages redirect to
// /login; HTMX and API requests get 401.
func (m *Middleware) RequireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, err := m.claimsFrom(r)
		if err != nil {
			applog.FromContext(r.Context()).DebugContext(r.Context(), "Unauthenticated request",
				applog.FieldPath, r.URL.Path,
				applog.FieldError, err)
			m.ClearSession(w)
			m.deny(w, r)
			return
		}

		ctx := WithUser(r.Context(), core.UserContext{
			UserID:   claims.UserID,
			Email:    claims.Email,
			Location: m.location,
		})
		logger := applog.FromContext(ctx).With(applog.FieldUserID, claims.UserID)
		ctx = applog.WithLogger(ctx, logger)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (m *Middleware) claimsFrom(r *http.Request) (*Claims, error) {
	if h := r.Header.Get("Authorization"); strings.HasPrefix(h, "Bearer ") {
		return m.tokens.Parse(strings.TrimPrefix(h, "Bearer "))
	}
	c, err := r.Cookie(SessionCookie)
	if err != nil {
		return nil, ErrInvalidToken
	}
	return m.tokens.Parse(c.Value)
}

func (m *Middleware) deny(w http.ResponseWriter, r *http.Request) {
	switch {
	case r.Header.Get("HX-Request") == "true":
		w.Header().Set("HX-Redirect", "/login")
		http.Error(w, "unauthorized", http.StatusUnauthorized)
	case strings.HasPrefix(r.URL.Path, "/api/"):
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":"unauthorized"}`))
	default:
		http.Redirect(w, r, "/login", http.StatusSeeOther)
	}
}

// SetSession writes the session cookie.
func (m *Middleware) SetSession(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    token,
		Path:     "/",
		MaxAge:   int(m.tokens.TTL().Seconds()),
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// ClearSession expires the session cookie.
func (m *Middleware) ClearSession(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	})
}
