package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/trcstyle/backend/internal/app/apperr"
	"github.com/trcstyle/backend/internal/app/storage/memory"
)

func newTestService() *Service {
	signer := NewSigner("test-secret", time.Minute, time.Hour)
	return New(memory.New(), nil, signer, nil)
}

func TestRegisterAndLogin(t *testing.T) {
	ctx := context.Background()
	svc := newTestService()

	u, pair, err := svc.Register(ctx, "anna@example.com", "longenough")
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if u.ID == 0 {
		t.Fatal("expected user id to be assigned")
	}
	if pair.AccessToken == "" || pair.RefreshToken == "" {
		t.Fatal("expected both tokens to be issued")
	}
	if pair.TokenType != "bearer" {
		t.Fatalf("token type = %q", pair.TokenType)
	}

	logged, _, err := svc.Login(ctx, "anna@example.com", "longenough")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if logged.ID != u.ID {
		t.Fatalf("login returned user %d, want %d", logged.ID, u.ID)
	}
}

func TestRegisterRejectsShortPassword(t *testing.T) {
	svc := newTestService()
	_, _, err := svc.Register(context.Background(), "anna@example.com", "short")
	assertStatus(t, err, 400)
}

func TestRegisterRejectsDuplicateEmail(t *testing.T) {
	ctx := context.Background()
	svc := newTestService()

	if _, _, err := svc.Register(ctx, "anna@example.com", "longenough"); err != nil {
		t.Fatalf("register: %v", err)
	}
	_, _, err := svc.Register(ctx, "anna@example.com", "otherpassword")
	assertStatus(t, err, 400)
}

func TestLoginRejectsWrongPassword(t *testing.T) {
	ctx := context.Background()
	svc := newTestService()

	if _, _, err := svc.Register(ctx, "anna@example.com", "longenough"); err != nil {
		t.Fatalf("register: %v", err)
	}
	_, _, err := svc.Login(ctx, "anna@example.com", "wrongpassword")
	assertStatus(t, err, 401)

	_, _, err = svc.Login(ctx, "nobody@example.com", "longenough")
	assertStatus(t, err, 401)
}

func TestRefreshIssuesNewPair(t *testing.T) {
	ctx := context.Background()
	svc := newTestService()

	_, pair, err := svc.Register(ctx, "anna@example.com", "longenough")
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	rotated, err := svc.Refresh(ctx, pair.RefreshToken)
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if rotated.AccessToken == "" || rotated.RefreshToken == "" {
		t.Fatal("expected a full pair from refresh")
	}
}

func TestRefreshRejectsAccessToken(t *testing.T) {
	ctx := context.Background()
	svc := newTestService()

	_, pair, err := svc.Register(ctx, "anna@example.com", "longenough")
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	_, err = svc.Refresh(ctx, pair.AccessToken)
	assertStatus(t, err, 401)
}

func TestAuthenticateRejectsRefreshToken(t *testing.T) {
	ctx := context.Background()
	svc := newTestService()

	_, pair, err := svc.Register(ctx, "anna@example.com", "longenough")
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	if _, err := svc.Authenticate(ctx, pair.AccessToken); err != nil {
		t.Fatalf("authenticate access token: %v", err)
	}
	_, err = svc.Authenticate(ctx, pair.RefreshToken)
	assertStatus(t, err, 401)
}

func TestSignerRejectsForeignSecret(t *testing.T) {
	ours := NewSigner("ours", time.Minute, time.Hour)
	theirs := NewSigner("theirs", time.Minute, time.Hour)

	token, err := theirs.SignAccess(7)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if _, err := ours.Parse(token); err == nil {
		t.Fatal("expected parse to fail for a token signed with another secret")
	}
}

func TestSignerRejectsExpiredToken(t *testing.T) {
	signer := NewSigner("test-secret", time.Minute, time.Hour)
	signer.accessTTL = -time.Minute

	token, err := signer.SignAccess(7)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if _, err := signer.Parse(token); err == nil {
		t.Fatal("expected parse to fail for an expired token")
	}
}

func assertStatus(t *testing.T, err error, status int) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected error with status %d, got nil", status)
	}
	var ae *apperr.Error
	if !errors.As(err, &ae) {
		t.Fatalf("expected apperr.Error, got %v", err)
	}
	if ae.Status != status {
		t.Fatalf("status = %d, want %d (%v)", ae.Status, status, err)
	}
}
