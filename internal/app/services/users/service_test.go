package users

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/trcstyle/backend/internal/app/apperr"
	"github.com/trcstyle/backend/internal/app/domain/user"
	"github.com/trcstyle/backend/internal/app/storage/memory"
)

func seedUser(t *testing.T, store *memory.Store, email string) user.User {
	t.Helper()
	u, err := store.CreateUser(context.Background(), user.User{
		Email:          email,
		HashedPassword: "x",
		IsActive:       true,
	})
	if err != nil {
		t.Fatalf("seed user: %v", err)
	}
	return u
}

func TestUpdateProfileValidation(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	svc := New(store, nil, nil)
	u := seedUser(t, store, "anna@example.com")

	badPhone := "not-a-phone"
	if _, err := svc.UpdateProfile(ctx, u.ID, ProfileUpdate{PhoneNumber: &badPhone}); err == nil {
		t.Fatal("expected invalid phone to be rejected")
	}

	negative := -1.0
	if _, err := svc.UpdateProfile(ctx, u.ID, ProfileUpdate{Height: &negative}); err == nil {
		t.Fatal("expected negative height to be rejected")
	}

	future := time.Now().Add(24 * time.Hour)
	if _, err := svc.UpdateProfile(ctx, u.ID, ProfileUpdate{DateOfBirth: &future}); err == nil {
		t.Fatal("expected future date of birth to be rejected")
	}

	phone := "+79001234567"
	height := 172.0
	updated, err := svc.UpdateProfile(ctx, u.ID, ProfileUpdate{
		PhoneNumber:    &phone,
		Height:         &height,
		FavoriteColors: []string{"Black", " black ", "", "White"},
	})
	if err != nil {
		t.Fatalf("update profile: %v", err)
	}
	if updated.PhoneNumber != phone {
		t.Fatalf("phone = %q", updated.PhoneNumber)
	}
	if updated.Height == nil || *updated.Height != height {
		t.Fatalf("height = %v", updated.Height)
	}
	if len(updated.FavoriteColors) != 2 {
		t.Fatalf("favorite colors = %v, want deduplicated pair", updated.FavoriteColors)
	}
}

func TestUpdateProfileLeavesUnsetFields(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	svc := New(store, nil, nil)
	u := seedUser(t, store, "anna@example.com")

	first := "Anna"
	if _, err := svc.UpdateProfile(ctx, u.ID, ProfileUpdate{FirstName: &first}); err != nil {
		t.Fatalf("first update: %v", err)
	}
	last := "Smith"
	updated, err := svc.UpdateProfile(ctx, u.ID, ProfileUpdate{LastName: &last})
	if err != nil {
		t.Fatalf("second update: %v", err)
	}
	if updated.FirstName != "Anna" || updated.LastName != "Smith" {
		t.Fatalf("got %q %q, expected earlier fields to survive", updated.FirstName, updated.LastName)
	}
}

func TestIsAdminHonorsConfiguredEmails(t *testing.T) {
	svc := New(memory.New(), []string{"Root@Example.com"}, nil)

	if !svc.IsAdmin(user.User{Email: "root@example.com"}) {
		t.Fatal("configured email should be admin")
	}
	if !svc.IsAdmin(user.User{Email: "other@example.com", IsAdmin: true}) {
		t.Fatal("stored flag should grant admin")
	}
	if svc.IsAdmin(user.User{Email: "other@example.com"}) {
		t.Fatal("plain user should not be admin")
	}
}

func TestEnsureDefaultAdmin(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	svc := New(store, []string{"root@example.com"}, nil)

	if err := svc.EnsureDefaultAdmin(ctx, "root@example.com", "changeme123"); err != nil {
		t.Fatalf("ensure default admin: %v", err)
	}
	u, err := store.GetUserByEmail(ctx, "root@example.com")
	if err != nil {
		t.Fatalf("get seeded admin: %v", err)
	}
	if !u.IsAdmin {
		t.Fatal("seeded account should be admin")
	}

	// A second call must not fail or duplicate.
	if err := svc.EnsureDefaultAdmin(ctx, "root@example.com", "changeme123"); err != nil {
		t.Fatalf("second ensure: %v", err)
	}
}

func TestGetMissingUser(t *testing.T) {
	svc := New(memory.New(), nil, nil)
	_, err := svc.Get(context.Background(), 42)
	var ae *apperr.Error
	if !errors.As(err, &ae) || ae.Status != 404 {
		t.Fatalf("expected 404, got %v", err)
	}
}
