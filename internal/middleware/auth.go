// Package middleware provides HTTP middleware for the API server.
package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/trcstyle/backend/internal/app/domain/user"
	"github.com/trcstyle/backend/pkg/logger"
)

type contextKey string

const userKey contextKey = "authenticated-user"

// Authenticator resolves a bearer token to an active user.
type Authenticator interface {
	Authenticate(ctx context.Context, accessToken string) (user.User, error)
}

// Auth guards routes behind bearer token authentication.
type Auth struct {
	auth    Authenticator
	isAdmin func(user.User) bool
	log     *logger.Logger
}

// NewAuth creates the authentication middleware. isAdmin decides admin
// access beyond the user's own flag (configured admin emails).
func NewAuth(auth Authenticator, isAdmin func(user.User) bool, log *logger.Logger) *Auth {
	if log == nil {
		log = logger.NewDefault("middleware")
	}
	if isAdmin == nil {
		isAdmin = func(u user.User) bool { return u.IsAdmin }
	}
	return &Auth{auth: auth, isAdmin: isAdmin, log: log}
}

// Require rejects requests without a valid bearer token.
func (m *Auth) Require(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r)
		if token == "" {
			unauthorized(w, "missing bearer token")
			return
		}
		u, err := m.auth.Authenticate(r.Context(), token)
		if err != nil {
			m.log.WithError(err).WithField("path", r.URL.Path).Debug("authentication failed")
			unauthorized(w, "could not validate credentials")
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), userKey, u)))
	})
}

// Optional injects the user when a valid token is present and passes the
// request through either way.
func (m *Auth) Optional(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if token := bearerToken(r); token != "" {
			if u, err := m.auth.Authenticate(r.Context(), token); err == nil {
				r = r.WithContext(context.WithValue(r.Context(), userKey, u))
			}
		}
		next.ServeHTTP(w, r)
	})
}

// RequireAdmin rejects authenticated non-admin users. It must run inside
// Require.
func (m *Auth) RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u, ok := UserFrom(r.Context())
		if !ok {
			unauthorized(w, "missing bearer token")
			return
		}
		if !m.isAdmin(u) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusForbidden)
			_ = json.NewEncoder(w).Encode(map[string]string{"error": "admin access required"})
			return
		}
		next.ServeHTTP(w, r)
	})
}

// IsAdmin reports whether the user counts as an admin under the configured
// policy.
func (m *Auth) IsAdmin(u user.User) bool { return m.isAdmin(u) }

// UserFrom extracts the authenticated user from a request context.
func UserFrom(ctx context.Context) (user.User, bool) {
	u, ok := ctx.Value(userKey).(user.User)
	return u, ok
}

// WithUser returns a context carrying the user, for tests.
func WithUser(ctx context.Context, u user.User) context.Context {
	return context.WithValue(ctx, userKey, u)
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

func unauthorized(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("WWW-Authenticate", "Bearer")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": message})
}
