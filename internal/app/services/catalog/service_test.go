package catalog

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

func seedViewer(t *testing.T, store *memory.Store) user.User {
	t.Helper()
	u, err := store.CreateUser(context.Background(), user.User{Email: "viewer@example.com", IsActive: true})
	if err != nil {
		t.Fatalf("seed viewer: %v", err)
	}
	return u
}

func TestCreateSetsPrimaryImage(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	svc := New(store, nil, nil)

	created, err := svc.Create(ctx, item.Item{Name: "Wool Coat"}, []string{"/uploads/items/a.jpg", "/uploads/items/b.jpg"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if created.ImageURL != "/uploads/items/a.jpg" {
		t.Fatalf("primary image = %q", created.ImageURL)
	}
	if len(created.ImageURLs) != 2 {
		t.Fatalf("gallery = %v", created.ImageURLs)
	}
}

func TestCreateRequiresName(t *testing.T) {
	svc := New(memory.New(), nil, nil)
	_, err := svc.Create(context.Background(), item.Item{Name: "  "}, nil)
	var ae *apperr.Error
	if !errors.As(err, &ae) || ae.Status != 400 {
		t.Fatalf("expected 400, got %v", err)
	}
}

func TestGetRecordsViewAndFavoriteFlag(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	svc := New(store, nil, nil)
	viewer := seedViewer(t, store)

	created, err := svc.Create(ctx, item.Item{Name: "Sneakers"}, nil)
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	got, err := svc.Get(ctx, created.ID, viewer.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.IsFavorite == nil || *got.IsFavorite {
		t.Fatalf("is_favorite = %v, want false", got.IsFavorite)
	}

	history, err := svc.History(ctx, viewer.ID)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(history) != 1 || history[0].ID != created.ID {
		t.Fatalf("history = %v, want the viewed item", history)
	}

	if err := svc.ClearHistory(ctx, viewer.ID); err != nil {
		t.Fatalf("clear history: %v", err)
	}
	history, err = svc.History(ctx, viewer.ID)
	if err != nil {
		t.Fatalf("history after clear: %v", err)
	}
	if len(history) != 0 {
		t.Fatalf("history should be empty, got %v", history)
	}
}

func TestToggleFavorite(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	svc := New(store, nil, nil)
	viewer := seedViewer(t, store)

	created, err := svc.Create(ctx, item.Item{Name: "Scarf"}, nil)
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	fav, err := svc.ToggleFavorite(ctx, viewer.ID, created.ID)
	if err != nil || !fav {
		t.Fatalf("first toggle = %v, %v; want true", fav, err)
	}
	favorites, err := svc.Favorites(ctx, viewer.ID)
	if err != nil {
		t.Fatalf("favorites: %v", err)
	}
	if len(favorites) != 1 {
		t.Fatalf("favorites = %v", favorites)
	}

	fav, err = svc.ToggleFavorite(ctx, viewer.ID, created.ID)
	if err != nil || fav {
		t.Fatalf("second toggle = %v, %v; want false", fav, err)
	}
}

func TestListFiltersAndSorts(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	svc := New(store, nil, nil)

	for _, fixture := range []item.Item{
		{Name: "Denim Jacket", Category: "jacket", Style: "casual", Price: ptr(120)},
		{Name: "Linen Shirt", Category: "shirt", Style: "casual", Price: ptr(45)},
		{Name: "Evening Dress", Category: "dress", Style: "formal", Price: ptr(300)},
	} {
		if _, err := svc.Create(ctx, fixture, nil); err != nil {
			t.Fatalf("seed item: %v", err)
		}
	}

	casual, err := svc.List(ctx, item.Filter{Style: "casual", SortBy: "price_asc"}, 0)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(casual) != 2 {
		t.Fatalf("casual items = %d, want 2", len(casual))
	}
	if casual[0].Name != "Linen Shirt" {
		t.Fatalf("price_asc first = %q", casual[0].Name)
	}

	expensive, err := svc.List(ctx, item.Filter{MinPrice: ptr(100)}, 0)
	if err != nil {
		t.Fatalf("list min price: %v", err)
	}
	if len(expensive) != 2 {
		t.Fatalf("items over 100 = %d, want 2", len(expensive))
	}

	matched, err := svc.List(ctx, item.Filter{Query: "denim"}, 0)
	if err != nil {
		t.Fatalf("list query: %v", err)
	}
	if len(matched) != 1 || matched[0].Name != "Denim Jacket" {
		t.Fatalf("query match = %v", matched)
	}
}

func TestSimilarSharesCategoryAndStyle(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	svc := New(store, nil, nil)

	base, err := svc.Create(ctx, item.Item{Name: "Base Tee", Category: "tshirt", Style: "casual"}, nil)
	if err != nil {
		t.Fatalf("create base: %v", err)
	}
	if _, err := svc.Create(ctx, item.Item{Name: "Other Tee", Category: "tshirt", Style: "casual"}, nil); err != nil {
		t.Fatalf("create similar: %v", err)
	}
	if _, err := svc.Create(ctx, item.Item{Name: "Formal Shirt", Category: "shirt", Style: "formal"}, nil); err != nil {
		t.Fatalf("create unrelated: %v", err)
	}

	similar, err := svc.Similar(ctx, base.ID, 10)
	if err != nil {
		t.Fatalf("similar: %v", err)
	}
	if len(similar) != 1 || similar[0].Name != "Other Tee" {
		t.Fatalf("similar = %v", similar)
	}
}

func TestDeleteImageClearsPrimary(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	svc := New(store, nil, nil)

	created, err := svc.Create(ctx, item.Item{Name: "Boots"}, []string{"/uploads/items/first.jpg", "/uploads/items/second.jpg"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	images, err := svc.ListImages(ctx, created.ID)
	if err != nil {
		t.Fatalf("list images: %v", err)
	}

	if err := svc.DeleteImage(ctx, created.ID, images[0].ID); err != nil {
		t.Fatalf("delete image: %v", err)
	}
	got, err := svc.Get(ctx, created.ID, 0)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.ImageURL != "/uploads/items/second.jpg" {
		t.Fatalf("primary after delete = %q, want promotion of remaining image", got.ImageURL)
	}
}

func TestVariantValidation(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	svc := New(store, nil, nil)

	created, err := svc.Create(ctx, item.Item{Name: "Jeans"}, nil)
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if _, err := svc.CreateVariant(ctx, item.Variant{ItemID: created.ID, Stock: -1}); err == nil {
		t.Fatal("negative stock should be rejected")
	}
	v, err := svc.CreateVariant(ctx, item.Variant{ItemID: created.ID, Size: "M", Stock: 3})
	if err != nil {
		t.Fatalf("create variant: %v", err)
	}
	if err := svc.DeleteVariant(ctx, v.ID); err != nil {
		t.Fatalf("delete variant: %v", err)
	}
	if err := svc.DeleteVariant(ctx, v.ID); err == nil {
		t.Fatal("second delete should report not found")
	}
}
