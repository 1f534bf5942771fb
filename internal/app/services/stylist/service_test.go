package stylist

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/trcstyle/backend/internal/app/apperr"
	"github.com/trcstyle/backend/internal/app/domain/item"
	"github.com/trcstyle/backend/internal/app/domain/job"
	"github.com/trcstyle/backend/internal/app/domain/user"
	"github.com/trcstyle/backend/internal/app/storage/memory"
)

func ptr(f float64) *float64 { return &f }

func setup(t *testing.T) (*memory.Store, *Service, user.User) {
	t.Helper()
	ctx := context.Background()
	store := memory.New()

	u, err := store.CreateUser(ctx, user.User{Email: "anna@example.com", IsActive: true})
	if err != nil {
		t.Fatalf("seed user: %v", err)
	}
	seed := []item.Item{
		{Name: "Blue Tee", Category: "tshirt", Color: "blue", Price: ptr(25)},
		{Name: "Blue Jeans", Category: "jeans", Color: "blue", Price: ptr(80)},
		{Name: "White Sneakers", Category: "sneakers", Color: "white", Price: ptr(120)},
	}
	for _, it := range seed {
		if _, err := store.CreateItem(ctx, it); err != nil {
			t.Fatalf("seed item: %v", err)
		}
	}
	return store, New(store, store, store, store, nil, nil), u
}

func TestStylesForOccasion(t *testing.T) {
	if got := stylesForOccasion("gym"); len(got) != 1 || got[0] != "sporty" {
		t.Fatalf("gym = %v", got)
	}
	if got := stylesForOccasion("interpretive dance"); got[0] != "casual" {
		t.Fatalf("unknown occasion = %v", got)
	}
}

func TestHarmonious(t *testing.T) {
	ok := harmonious([]item.Item{{Color: "white"}, {Color: "black"}, {Color: "blue"}})
	if !ok {
		t.Fatal("white/black/blue should harmonise")
	}
	if harmonious([]item.Item{{Color: "white"}, {Color: "pink"}}) {
		t.Fatal("white/pink should clash")
	}
	if !harmonious([]item.Item{{Color: ""}, {Color: ""}}) {
		t.Fatal("colorless items always harmonise")
	}
	if !harmonious([]item.Item{{Color: "navy"}, {Color: "navy"}}) {
		t.Fatal("a repeated base color harmonises with itself")
	}
}

func TestScore(t *testing.T) {
	items := []item.Item{
		{Category: "tshirt", Color: "blue"},
		{Category: "jeans", Color: "blue"},
		{Category: "sneakers", Color: "white"},
	}
	if got := score(items, "casual"); got != 100 {
		t.Fatalf("score = %d, want capped 100", got)
	}
	if got := score(nil, "casual"); got != 0 {
		t.Fatalf("empty score = %d", got)
	}

	clashing := []item.Item{{Category: "coat", Color: "white"}, {Category: "skirt", Color: "pink"}}
	if got := score(clashing, "formal"); got != 50 {
		t.Fatalf("clashing score = %d, want base only", got)
	}
}

func TestRunGenerateRandom(t *testing.T) {
	ctx := context.Background()
	store, svc, u := setup(t)

	payload, _ := json.Marshal(job.GeneratePayload{UserID: u.ID, Occasion: "weekend"})
	raw, err := svc.RunGenerate(ctx, job.Job{ID: "g1", Kind: job.KindOutfitGenerate, Payload: payload})
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	var result job.GenerateResult
	if err := json.Unmarshal(raw, &result); err != nil {
		t.Fatalf("decode result: %v", err)
	}
	if len(result.OutfitIDs) != 1 || len(result.Scores) != 1 {
		t.Fatalf("result = %+v", result)
	}
	if result.Scores[0] < 50 {
		t.Fatalf("score = %d", result.Scores[0])
	}

	o, err := store.GetOutfit(ctx, result.OutfitIDs[0])
	if err != nil {
		t.Fatalf("get outfit: %v", err)
	}
	if o.OwnerID != u.ID {
		t.Fatalf("owner = %d, want %d", o.OwnerID, u.ID)
	}
	if o.Style != "casual" {
		t.Fatalf("style = %q, want weekend to resolve to casual", o.Style)
	}
	if len(o.Members) < 2 {
		t.Fatalf("members = %+v", o.Members)
	}
}

func TestRunGenerateFromSelection(t *testing.T) {
	ctx := context.Background()
	store, svc, u := setup(t)

	anchor, err := store.CreateItem(ctx, item.Item{Name: "White Shirt", Category: "shirt", Color: "white", Price: ptr(60)})
	if err != nil {
		t.Fatalf("seed anchor: %v", err)
	}

	payload, _ := json.Marshal(job.GeneratePayload{
		UserID:        u.ID,
		Style:         "business",
		ItemIDs:       []int64{anchor.ID},
		AddCategories: []string{"jeans"},
	})
	raw, err := svc.RunGenerate(ctx, job.Job{ID: "g2", Kind: job.KindOutfitGenerate, Payload: payload})
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	var result job.GenerateResult
	if err := json.Unmarshal(raw, &result); err != nil {
		t.Fatalf("decode result: %v", err)
	}
	o, err := store.GetOutfit(ctx, result.OutfitIDs[0])
	if err != nil {
		t.Fatalf("get outfit: %v", err)
	}

	// The white shirt anchors the look; the blue jeans harmonise with it
	// and fill the requested category.
	if len(o.Members) != 2 {
		t.Fatalf("members = %+v", o.Members)
	}
	found := false
	for _, m := range o.Members {
		if m.ItemID == anchor.ID {
			found = true
		}
	}
	if !found {
		t.Fatal("selected item missing from generated outfit")
	}
}

func TestRunGenerateBudgetIgnoredWhenTooTight(t *testing.T) {
	ctx := context.Background()
	_, svc, u := setup(t)

	payload, _ := json.Marshal(job.GeneratePayload{UserID: u.ID, Style: "casual", Budget: ptr(1)})
	raw, err := svc.RunGenerate(ctx, job.Job{ID: "g3", Kind: job.KindOutfitGenerate, Payload: payload})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	var result job.GenerateResult
	if err := json.Unmarshal(raw, &result); err != nil {
		t.Fatalf("decode result: %v", err)
	}
	if len(result.OutfitIDs) != 1 {
		t.Fatalf("result = %+v", result)
	}
}

func TestEnqueueGenerateValidation(t *testing.T) {
	ctx := context.Background()
	_, svc, u := setup(t)

	_, err := svc.EnqueueGenerate(ctx, job.GeneratePayload{UserID: 9999})
	assertStatus(t, err, 404)

	_, err = svc.EnqueueGenerate(ctx, job.GeneratePayload{UserID: u.ID, Style: "avant-garde"})
	assertStatus(t, err, 400)

	_, err = svc.EnqueueGenerate(ctx, job.GeneratePayload{})
	assertStatus(t, err, 400)
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
