package outfits

import (
	"context"
	"errors"
	"testing"

	"github.com/trcstyle/backend/internal/app/apperr"
	"github.com/trcstyle/backend/internal/app/domain/item"
	"github.com/trcstyle/backend/internal/app/domain/outfit"
	"github.com/trcstyle/backend/internal/app/domain/user"
	"github.com/trcstyle/backend/internal/app/storage/memory"
)

type fixture struct {
	store *memory.Store
	svc   *Service
	owner user.User
	top   item.Item
	jeans item.Item
	shoes item.Item
}

func ptr(f float64) *float64 { return &f }

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	store := memory.New()

	owner, err := store.CreateUser(ctx, user.User{Email: "owner@example.com", IsActive: true})
	if err != nil {
		t.Fatalf("seed owner: %v", err)
	}
	top, err := store.CreateItem(ctx, item.Item{Name: "White Tee", Category: "tshirt", Price: ptr(25)})
	if err != nil {
		t.Fatalf("seed top: %v", err)
	}
	jeans, err := store.CreateItem(ctx, item.Item{Name: "Blue Jeans", Category: "jeans", Price: ptr(80)})
	if err != nil {
		t.Fatalf("seed jeans: %v", err)
	}
	shoes, err := store.CreateItem(ctx, item.Item{Name: "Sneakers", Category: "footwear", Price: ptr(120)})
	if err != nil {
		t.Fatalf("seed shoes: %v", err)
	}

	return &fixture{
		store: store,
		svc:   New(store, store, nil),
		owner: owner,
		top:   top,
		jeans: jeans,
		shoes: shoes,
	}
}

func TestCreateComposesSlotsAndTotal(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	d, err := f.svc.Create(ctx, f.owner.ID, Input{
		Name:        "Everyday",
		Style:       "casual",
		TopIDs:      []int64{f.top.ID},
		BottomIDs:   []int64{f.jeans.ID},
		FootwearIDs: []int64{f.shoes.ID},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if len(d.Tops) != 1 || len(d.Bottoms) != 1 || len(d.Footwear) != 1 {
		t.Fatalf("slots = %d/%d/%d", len(d.Tops), len(d.Bottoms), len(d.Footwear))
	}
	if d.TotalPrice != 225 {
		t.Fatalf("total price = %v, want 225", d.TotalPrice)
	}
	if d.OwnerID != f.owner.ID {
		t.Fatalf("owner = %d", d.OwnerID)
	}
}

func TestCreateRejectsEmptyOutfit(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.Create(context.Background(), f.owner.ID, Input{Name: "Empty", Style: "casual"})
	assertStatus(t, err, 400)
}

func TestCreateRejectsWrongSlot(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.Create(context.Background(), f.owner.ID, Input{
		Name:      "Confused",
		Style:     "casual",
		BottomIDs: []int64{f.shoes.ID}, // footwear offered as a bottom
	})
	assertStatus(t, err, 400)
}

func TestCreateAcceptsBlankItemCategoryAnywhere(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	generic, err := f.store.CreateItem(ctx, item.Item{Name: "Mystery Piece"})
	if err != nil {
		t.Fatalf("seed item: %v", err)
	}
	if _, err := f.svc.Create(ctx, f.owner.ID, Input{
		Name:         "Flexible",
		Style:        "casual",
		FragranceIDs: []int64{generic.ID},
	}); err != nil {
		t.Fatalf("blank category should fit any slot: %v", err)
	}
}

func TestCreateRejectsCollectionMismatch(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	winter, err := f.store.CreateItem(ctx, item.Item{Name: "Parka", Category: "coat", Collection: "Winter"})
	if err != nil {
		t.Fatalf("seed item: %v", err)
	}
	_, err = f.svc.Create(ctx, f.owner.ID, Input{
		Name:       "Mismatch",
		Style:      "casual",
		Collection: "Summer",
		TopIDs:     []int64{winter.ID},
	})
	assertStatus(t, err, 400)
}

func TestCreateRejectsMissingItem(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.Create(context.Background(), f.owner.ID, Input{
		Name:   "Ghost",
		Style:  "casual",
		TopIDs: []int64{9999},
	})
	assertStatus(t, err, 404)
}

func TestOwnershipEnforcement(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	other, err := f.store.CreateUser(ctx, user.User{Email: "other@example.com", IsActive: true})
	if err != nil {
		t.Fatalf("seed other user: %v", err)
	}
	d, err := f.svc.Create(ctx, f.owner.ID, Input{
		Name: "Private", Style: "casual", TopIDs: []int64{f.top.ID},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	// Reads are open to everyone, only mutation checks ownership.
	if _, err := f.svc.Get(ctx, d.ID, other.ID); err != nil {
		t.Fatalf("any user should see any outfit: %v", err)
	}
	if _, err := f.svc.Get(ctx, d.ID, 0); err != nil {
		t.Fatalf("anonymous get: %v", err)
	}

	name := "Renamed"
	_, err = f.svc.Patch(ctx, d.ID, other.ID, false, Update{Name: &name})
	assertStatus(t, err, 403)

	err = f.svc.Delete(ctx, d.ID, other.ID, false)
	assertStatus(t, err, 403)
	if err := f.svc.Delete(ctx, d.ID, f.owner.ID, false); err != nil {
		t.Fatalf("owner delete: %v", err)
	}
}

func TestPatchReplacesOnlyProvidedSlots(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	d, err := f.svc.Create(ctx, f.owner.ID, Input{
		Name:      "Start",
		Style:     "casual",
		TopIDs:    []int64{f.top.ID},
		BottomIDs: []int64{f.jeans.ID},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	shoes := []int64{f.shoes.ID}
	patched, err := f.svc.Patch(ctx, d.ID, f.owner.ID, false, Update{FootwearIDs: &shoes})
	if err != nil {
		t.Fatalf("patch: %v", err)
	}
	if len(patched.Tops) != 1 || len(patched.Bottoms) != 1 || len(patched.Footwear) != 1 {
		t.Fatalf("slots after patch = %d/%d/%d, untouched slots must survive",
			len(patched.Tops), len(patched.Bottoms), len(patched.Footwear))
	}

	empty := []int64{}
	patched, err = f.svc.Patch(ctx, d.ID, f.owner.ID, false, Update{BottomIDs: &empty})
	if err != nil {
		t.Fatalf("patch clear slot: %v", err)
	}
	if len(patched.Bottoms) != 0 {
		t.Fatalf("bottoms should be cleared, got %d", len(patched.Bottoms))
	}
}

func TestListScopesAndPriceFilters(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	other, err := f.store.CreateUser(ctx, user.User{Email: "other@example.com", IsActive: true})
	if err != nil {
		t.Fatalf("seed other user: %v", err)
	}
	if _, err := f.svc.Create(ctx, f.owner.ID, Input{
		Name: "Cheap", Style: "casual", TopIDs: []int64{f.top.ID},
	}); err != nil {
		t.Fatalf("create cheap: %v", err)
	}
	if _, err := f.svc.Create(ctx, f.owner.ID, Input{
		Name: "Pricey", Style: "casual", FootwearIDs: []int64{f.shoes.ID},
	}); err != nil {
		t.Fatalf("create pricey: %v", err)
	}
	if _, err := f.svc.Create(ctx, other.ID, Input{
		Name: "Foreign", Style: "casual", BottomIDs: []int64{f.jeans.ID},
	}); err != nil {
		t.Fatalf("create foreign: %v", err)
	}

	mine, err := f.svc.List(ctx, outfit.Filter{}, f.owner.ID, false)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(mine) != 2 {
		t.Fatalf("non-admin sees %d outfits, want own 2", len(mine))
	}

	all, err := f.svc.List(ctx, outfit.Filter{}, f.owner.ID, true)
	if err != nil {
		t.Fatalf("admin list: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("admin sees %d outfits, want 3", len(all))
	}

	filter := outfit.Filter{}
	filter.MinPrice = ptr(100)
	expensive, err := f.svc.List(ctx, filter, f.owner.ID, false)
	if err != nil {
		t.Fatalf("price filter: %v", err)
	}
	if len(expensive) != 1 || expensive[0].Name != "Pricey" {
		t.Fatalf("price filter = %v", expensive)
	}

	filter = outfit.Filter{}
	filter.SortBy = "price_desc"
	sorted, err := f.svc.List(ctx, filter, f.owner.ID, false)
	if err != nil {
		t.Fatalf("price sort: %v", err)
	}
	if len(sorted) != 2 || sorted[0].Name != "Pricey" {
		t.Fatalf("price_desc first = %v", sorted)
	}
}

func TestTrendingCountsRecentViews(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	first, err := f.svc.Create(ctx, f.owner.ID, Input{
		Name: "Quiet", Style: "casual", TopIDs: []int64{f.top.ID},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	second, err := f.svc.Create(ctx, f.owner.ID, Input{
		Name: "Popular", Style: "casual", BottomIDs: []int64{f.jeans.ID},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	_ = first

	viewer, err := f.store.CreateUser(ctx, user.User{Email: "viewer@example.com", IsActive: true})
	if err != nil {
		t.Fatalf("seed viewer: %v", err)
	}
	if _, err := f.svc.Get(ctx, second.ID, viewer.ID); err != nil {
		t.Fatalf("view: %v", err)
	}

	trending, err := f.svc.Trending(ctx, 10)
	if err != nil {
		t.Fatalf("trending: %v", err)
	}
	if len(trending) == 0 || trending[0].Name != "Popular" {
		t.Fatalf("trending first = %v", trending)
	}
}

func TestClearHistory(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	d, err := f.svc.Create(ctx, f.owner.ID, Input{
		Name: "Seen", Style: "casual", TopIDs: []int64{f.top.ID},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := f.svc.Get(ctx, d.ID, f.owner.ID); err != nil {
		t.Fatalf("view: %v", err)
	}

	history, err := f.svc.History(ctx, f.owner.ID)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(history) != 1 {
		t.Fatalf("history = %d entries, want 1", len(history))
	}

	if err := f.svc.ClearHistory(ctx, f.owner.ID); err != nil {
		t.Fatalf("clear history: %v", err)
	}
	history, err = f.svc.History(ctx, f.owner.ID)
	if err != nil {
		t.Fatalf("history after clear: %v", err)
	}
	if len(history) != 0 {
		t.Fatalf("history after clear = %d entries, want 0", len(history))
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
