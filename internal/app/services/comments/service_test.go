package comments

import (
	"context"
	"errors"
	"testing"

	"github.com/trcstyle/backend/internal/app/apperr"
	"github.com/trcstyle/backend/internal/app/domain/item"
	"github.com/trcstyle/backend/internal/app/domain/user"
	"github.com/trcstyle/backend/internal/app/storage/memory"
)

func intPtr(i int) *int { return &i }

func setup(t *testing.T) (*memory.Store, *Service, user.User, item.Item) {
	t.Helper()
	ctx := context.Background()
	store := memory.New()

	u, err := store.CreateUser(ctx, user.User{Email: "anna@example.com", FirstName: "Anna", IsActive: true})
	if err != nil {
		t.Fatalf("seed user: %v", err)
	}
	it, err := store.CreateItem(ctx, item.Item{Name: "Jacket"})
	if err != nil {
		t.Fatalf("seed item: %v", err)
	}
	return store, New(store, store, store, nil), u, it
}

func TestAddAndListItemComments(t *testing.T) {
	ctx := context.Background()
	_, svc, u, it := setup(t)

	c, err := svc.AddToItem(ctx, u.ID, it.ID, "Great fit", intPtr(5))
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if c.UserName != "Anna" {
		t.Fatalf("user name = %q", c.UserName)
	}
	if c.Rating == nil || *c.Rating != 5 {
		t.Fatalf("rating = %v", c.Rating)
	}

	list, err := svc.ListForItem(ctx, it.ID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 1 || list[0].Content != "Great fit" {
		t.Fatalf("list = %v", list)
	}
}

func TestAddValidation(t *testing.T) {
	ctx := context.Background()
	_, svc, u, it := setup(t)

	if _, err := svc.AddToItem(ctx, u.ID, it.ID, "   ", nil); err == nil {
		t.Fatal("blank content should be rejected")
	}
	if _, err := svc.AddToItem(ctx, u.ID, it.ID, "ok", intPtr(6)); err == nil {
		t.Fatal("rating above 5 should be rejected")
	}
	_, err := svc.AddToItem(ctx, u.ID, 9999, "ok", nil)
	var ae *apperr.Error
	if !errors.As(err, &ae) || ae.Status != 404 {
		t.Fatalf("missing item should 404, got %v", err)
	}
}

func TestToggleLike(t *testing.T) {
	ctx := context.Background()
	store, svc, u, it := setup(t)

	c, err := svc.AddToItem(ctx, u.ID, it.ID, "Nice", nil)
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	other, err := store.CreateUser(ctx, user.User{Email: "other@example.com", IsActive: true})
	if err != nil {
		t.Fatalf("seed other: %v", err)
	}

	liked, err := svc.ToggleLike(ctx, other.ID, c.ID)
	if err != nil || !liked {
		t.Fatalf("first toggle = %v, %v", liked, err)
	}
	got, err := store.GetComment(ctx, c.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Likes != 1 {
		t.Fatalf("likes = %d", got.Likes)
	}

	liked, err = svc.ToggleLike(ctx, other.ID, c.ID)
	if err != nil || liked {
		t.Fatalf("second toggle = %v, %v", liked, err)
	}
}

func TestDeleteAuthorOrAdmin(t *testing.T) {
	ctx := context.Background()
	store, svc, u, it := setup(t)

	c, err := svc.AddToItem(ctx, u.ID, it.ID, "Mine", nil)
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	other, err := store.CreateUser(ctx, user.User{Email: "other@example.com", IsActive: true})
	if err != nil {
		t.Fatalf("seed other: %v", err)
	}

	err = svc.Delete(ctx, c.ID, other.ID, false)
	var ae *apperr.Error
	if !errors.As(err, &ae) || ae.Status != 403 {
		t.Fatalf("stranger delete should 403, got %v", err)
	}
	if err := svc.Delete(ctx, c.ID, other.ID, true); err != nil {
		t.Fatalf("admin delete: %v", err)
	}

	c2, err := svc.AddToItem(ctx, u.ID, it.ID, "Mine again", nil)
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := svc.Delete(ctx, c2.ID, u.ID, false); err != nil {
		t.Fatalf("author delete: %v", err)
	}
}
