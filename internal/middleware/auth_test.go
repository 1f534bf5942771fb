package middleware

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/trcstyle/backend/internal/app/domain/user"
)

type fakeAuth struct {
	users map[string]user.User
}

func (f *fakeAuth) Authenticate(_ context.Context, token string) (user.User, error) {
	if u, ok := f.users[token]; ok {
		return u, nil
	}
	return user.User{}, fmt.Errorf("bad token")
}

func okHandler(called *bool) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*called = true
		w.WriteHeader(http.StatusOK)
	})
}

func TestRequire(t *testing.T) {
	auth := NewAuth(&fakeAuth{users: map[string]user.User{"good": {ID: 7, Email: "anna@example.com"}}}, nil, nil)

	var called bool
	h := auth.Require(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		u, ok := UserFrom(r.Context())
		if !ok || u.ID != 7 {
			t.Fatalf("user in context = %+v, %v", u, ok)
		}
	}))

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/me", nil)
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized || called {
		t.Fatalf("missing token: code = %d, called = %v", rec.Code, called)
	}

	rec = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/api/me", nil)
	req.Header.Set("Authorization", "Bearer bad")
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("bad token: code = %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/api/me", nil)
	req.Header.Set("Authorization", "Bearer good")
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK || !called {
		t.Fatalf("good token: code = %d, called = %v", rec.Code, called)
	}
}

func TestOptional(t *testing.T) {
	auth := NewAuth(&fakeAuth{users: map[string]user.User{"good": {ID: 7}}}, nil, nil)

	var sawUser bool
	h := auth.Optional(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, sawUser = UserFrom(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/items", nil))
	if rec.Code != http.StatusOK || sawUser {
		t.Fatalf("anonymous: code = %d, sawUser = %v", rec.Code, sawUser)
	}

	rec = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/items", nil)
	req.Header.Set("Authorization", "Bearer good")
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK || !sawUser {
		t.Fatalf("authenticated: code = %d, sawUser = %v", rec.Code, sawUser)
	}
}

func TestRequireAdmin(t *testing.T) {
	isAdmin := func(u user.User) bool { return u.IsAdmin || u.Email == "root@example.com" }
	auth := NewAuth(&fakeAuth{}, isAdmin, nil)

	var called bool
	h := auth.RequireAdmin(okHandler(&called))

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/users", nil)
	req = req.WithContext(WithUser(req.Context(), user.User{ID: 1}))
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusForbidden || called {
		t.Fatalf("non-admin: code = %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/api/users", nil)
	req = req.WithContext(WithUser(req.Context(), user.User{ID: 2, Email: "root@example.com"}))
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK || !called {
		t.Fatalf("configured admin: code = %d", rec.Code)
	}
}

func TestRateLimiter(t *testing.T) {
	rl := NewRateLimiter(1, 2, nil)

	var called bool
	h := rl.Handler(okHandler(&called))

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/auth/token", nil)
		req.RemoteAddr = "10.0.0.1:4000"
		h.ServeHTTP(rec, req)
		codes = append(codes, rec.Code)
	}
	if codes[0] != http.StatusOK || codes[1] != http.StatusOK || codes[2] != http.StatusTooManyRequests {
		t.Fatalf("codes = %v", codes)
	}

	// A different client has its own bucket.
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/auth/token", nil)
	req.RemoteAddr = "10.0.0.2:4000"
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("fresh client: code = %d", rec.Code)
	}
}
