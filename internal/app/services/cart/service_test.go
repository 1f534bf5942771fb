package cart

import (
	"context"
	"errors"
	"testing"

	"github.com/trcstyle/backend/internal/app/apperr"
	"github.com/trcstyle/backend/internal/app/domain/item"
	"github.com/trcstyle/backend/internal/app/domain/user"
	"github.com/trcstyle/backend/internal/app/storage/memory"
)

func ptr(f float64) *float64 { return &f }

func setup(t *testing.T) (*Service, user.User, item.Variant) {
	t.Helper()
	ctx := context.Background()
	store := memory.New()

	u, err := store.CreateUser(ctx, user.User{Email: "anna@example.com", IsActive: true})
	if err != nil {
		t.Fatalf("seed user: %v", err)
	}
	it, err := store.CreateItem(ctx, item.Item{Name: "Hoodie", Brand: "Acme", Price: ptr(60)})
	if err != nil {
		t.Fatalf("seed item: %v", err)
	}
	v, err := store.CreateVariant(ctx, item.Variant{ItemID: it.ID, Size: "M", Stock: 3})
	if err != nil {
		t.Fatalf("seed variant: %v", err)
	}
	return New(store, store, nil), u, v
}

func TestAddMergesAndChecksStock(t *testing.T) {
	ctx := context.Background()
	svc, u, v := setup(t)

	state, err := svc.Add(ctx, u.ID, v.ID, 2)
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if state.TotalItems != 2 {
		t.Fatalf("total items = %d", state.TotalItems)
	}
	if state.TotalPrice != 120 {
		t.Fatalf("total price = %v, want item price fallback", state.TotalPrice)
	}

	state, err = svc.Add(ctx, u.ID, v.ID, 1)
	if err != nil {
		t.Fatalf("merge add: %v", err)
	}
	if len(state.Items) != 1 || state.Items[0].Quantity != 3 {
		t.Fatalf("merged line = %+v", state.Items)
	}

	_, err = svc.Add(ctx, u.ID, v.ID, 1)
	assertStatus(t, err, 409)
}

func TestAddValidation(t *testing.T) {
	ctx := context.Background()
	svc, u, v := setup(t)

	_, err := svc.Add(ctx, u.ID, v.ID, 0)
	assertStatus(t, err, 422)

	_, err = svc.Add(ctx, u.ID, 9999, 1)
	assertStatus(t, err, 404)
}

func TestSetQuantity(t *testing.T) {
	ctx := context.Background()
	svc, u, v := setup(t)

	if _, err := svc.Add(ctx, u.ID, v.ID, 1); err != nil {
		t.Fatalf("add: %v", err)
	}

	state, err := svc.SetQuantity(ctx, u.ID, v.ID, 3)
	if err != nil {
		t.Fatalf("set quantity: %v", err)
	}
	if state.TotalItems != 3 {
		t.Fatalf("total items = %d", state.TotalItems)
	}

	_, err = svc.SetQuantity(ctx, u.ID, v.ID, 5)
	assertStatus(t, err, 409)

	state, err = svc.SetQuantity(ctx, u.ID, v.ID, 0)
	if err != nil {
		t.Fatalf("set zero: %v", err)
	}
	if len(state.Items) != 0 {
		t.Fatalf("zero quantity should remove the line, got %+v", state.Items)
	}
}

func TestVariantPriceOverridesItemPrice(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	svc := New(store, store, nil)

	u, err := store.CreateUser(ctx, user.User{Email: "anna@example.com", IsActive: true})
	if err != nil {
		t.Fatalf("seed user: %v", err)
	}
	it, err := store.CreateItem(ctx, item.Item{Name: "Coat", Price: ptr(200)})
	if err != nil {
		t.Fatalf("seed item: %v", err)
	}
	v, err := store.CreateVariant(ctx, item.Variant{ItemID: it.ID, Size: "L", Stock: 1, Price: ptr(150)})
	if err != nil {
		t.Fatalf("seed variant: %v", err)
	}

	state, err := svc.Add(ctx, u.ID, v.ID, 1)
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if state.TotalPrice != 150 {
		t.Fatalf("total price = %v, want variant price", state.TotalPrice)
	}
}

func TestClear(t *testing.T) {
	ctx := context.Background()
	svc, u, v := setup(t)

	if _, err := svc.Add(ctx, u.ID, v.ID, 1); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := svc.Clear(ctx, u.ID); err != nil {
		t.Fatalf("clear: %v", err)
	}
	state, err := svc.Get(ctx, u.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(state.Items) != 0 {
		t.Fatalf("cart should be empty, got %+v", state.Items)
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
