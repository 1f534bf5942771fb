// Package outfits manages outfit composition: slot membership rules,
// aggregated pricing and the favorite and view features built on outfits.
package outfits

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/trcstyle/backend/internal/app/apperr"
	"github.com/trcstyle/backend/internal/app/domain/item"
	"github.com/trcstyle/backend/internal/app/domain/outfit"
	"github.com/trcstyle/backend/internal/app/storage"
	"github.com/trcstyle/backend/pkg/logger"
)

const (
	trendingWindow       = 7 * 24 * time.Hour
	defaultTrendingLimit = 20
	defaultHistoryLimit  = 50
)

// Service manages outfits.
type Service struct {
	store storage.OutfitStore
	items storage.ItemStore
	log   *logger.Logger
}

// New constructs an outfits service.
func New(store storage.OutfitStore, items storage.ItemStore, log *logger.Logger) *Service {
	if log == nil {
		log = logger.NewDefault("outfits")
	}
	return &Service{store: store, items: items, log: log}
}

// Input is the creation payload: item IDs per slot.
type Input struct {
	Name         string
	Style        string
	Description  string
	Collection   string
	TopIDs       []int64
	BottomIDs    []int64
	FootwearIDs  []int64
	AccessoryIDs []int64
	FragranceIDs []int64
}

func (in Input) slots() []struct {
	category outfit.Category
	ids      []int64
} {
	return []struct {
		category outfit.Category
		ids      []int64
	}{
		{outfit.CategoryTop, in.TopIDs},
		{outfit.CategoryBottom, in.BottomIDs},
		{outfit.CategoryFootwear, in.FootwearIDs},
		{outfit.CategoryAccessory, in.AccessoryIDs},
		{outfit.CategoryFragrance, in.FragranceIDs},
	}
}

// Create validates slot membership and persists the outfit.
func (s *Service) Create(ctx context.Context, ownerID int64, in Input) (outfit.Details, error) {
	if strings.TrimSpace(in.Name) == "" {
		return outfit.Details{}, apperr.BadRequest("name is required")
	}
	if strings.TrimSpace(in.Style) == "" {
		return outfit.Details{}, apperr.BadRequest("style is required")
	}

	members, err := s.buildMembers(ctx, in)
	if err != nil {
		return outfit.Details{}, err
	}
	if len(members) == 0 {
		return outfit.Details{}, apperr.BadRequest("an outfit needs at least one item")
	}

	o, err := s.store.CreateOutfit(ctx, outfit.Outfit{
		Name:        strings.TrimSpace(in.Name),
		Style:       strings.TrimSpace(in.Style),
		Description: in.Description,
		Collection:  in.Collection,
		OwnerID:     ownerID,
		Members:     members,
	})
	if err != nil {
		return outfit.Details{}, err
	}
	s.log.WithField("outfit_id", o.ID).WithField("owner_id", ownerID).Info("outfit created")
	return s.compose(ctx, o)
}

// Get fetches an outfit. Any requester may read any outfit; ownership only
// gates mutation. A non-zero viewerID records the view.
func (s *Service) Get(ctx context.Context, id, viewerID int64) (outfit.Details, error) {
	o, err := s.store.GetOutfit(ctx, id)
	if errors.Is(err, storage.ErrNotFound) {
		return outfit.Details{}, apperr.NotFound("outfit %d not found", id)
	}
	if err != nil {
		return outfit.Details{}, err
	}
	if viewerID != 0 {
		if err := s.store.RecordOutfitView(ctx, viewerID, id, time.Now().UTC()); err != nil {
			s.log.WithError(err).WithField("outfit_id", id).Warn("record outfit view failed")
		}
	}
	return s.compose(ctx, o)
}

// List pages through outfits. Non-admins only see their own. Price bounds
// and price sorting apply to the aggregated total.
func (s *Service) List(ctx context.Context, f outfit.Filter, requesterID int64, isAdmin bool) ([]outfit.Details, error) {
	if !isAdmin {
		f.OwnerID = requesterID
	}

	// Price constraints need the aggregated totals, so fetch without
	// store-side pagination and page after filtering.
	offset, limit := f.Offset, f.Limit
	priceAware := f.MinPrice != nil || f.MaxPrice != nil ||
		f.SortBy == "price_asc" || f.SortBy == "price_desc"
	if priceAware {
		f.Offset, f.Limit = 0, 0
	}

	list, err := s.store.ListOutfits(ctx, f)
	if err != nil {
		return nil, err
	}
	details := make([]outfit.Details, 0, len(list))
	for _, o := range list {
		d, err := s.compose(ctx, o)
		if err != nil {
			return nil, err
		}
		if f.MinPrice != nil && d.TotalPrice < *f.MinPrice {
			continue
		}
		if f.MaxPrice != nil && d.TotalPrice > *f.MaxPrice {
			continue
		}
		details = append(details, d)
	}

	switch f.SortBy {
	case "price_asc":
		sort.SliceStable(details, func(i, j int) bool { return details[i].TotalPrice < details[j].TotalPrice })
	case "price_desc":
		sort.SliceStable(details, func(i, j int) bool { return details[i].TotalPrice > details[j].TotalPrice })
	}

	if priceAware {
		if offset >= len(details) {
			return []outfit.Details{}, nil
		}
		details = details[offset:]
		if limit > 0 && len(details) > limit {
			details = details[:limit]
		}
	}
	return details, nil
}

// Update carries the patchable fields. Nil slot pointers keep the stored
// members for that slot.
type Update struct {
	Name         *string
	Style        *string
	Description  *string
	Collection   *string
	TopIDs       *[]int64
	BottomIDs    *[]int64
	FootwearIDs  *[]int64
	AccessoryIDs *[]int64
	FragranceIDs *[]int64
}

// Patch applies an update to an outfit the requester owns (or any outfit for
// admins). Provided slots replace that slot's members entirely.
func (s *Service) Patch(ctx context.Context, id, requesterID int64, isAdmin bool, upd Update) (outfit.Details, error) {
	o, err := s.fetchAuthorized(ctx, id, requesterID, isAdmin)
	if err != nil {
		return outfit.Details{}, err
	}

	if upd.Name != nil {
		if strings.TrimSpace(*upd.Name) == "" {
			return outfit.Details{}, apperr.BadRequest("name cannot be empty")
		}
		o.Name = strings.TrimSpace(*upd.Name)
	}
	if upd.Style != nil {
		if strings.TrimSpace(*upd.Style) == "" {
			return outfit.Details{}, apperr.BadRequest("style cannot be empty")
		}
		o.Style = strings.TrimSpace(*upd.Style)
	}
	if upd.Description != nil {
		o.Description = *upd.Description
	}
	if upd.Collection != nil {
		o.Collection = *upd.Collection
	}

	for _, slot := range []struct {
		category outfit.Category
		ids      *[]int64
	}{
		{outfit.CategoryTop, upd.TopIDs},
		{outfit.CategoryBottom, upd.BottomIDs},
		{outfit.CategoryFootwear, upd.FootwearIDs},
		{outfit.CategoryAccessory, upd.AccessoryIDs},
		{outfit.CategoryFragrance, upd.FragranceIDs},
	} {
		if slot.ids == nil {
			continue
		}
		members, err := s.validateSlot(ctx, slot.category, *slot.ids, o.Collection)
		if err != nil {
			return outfit.Details{}, err
		}
		o.Members = replaceSlot(o.Members, slot.category, members)
	}
	if len(o.Members) == 0 {
		return outfit.Details{}, apperr.BadRequest("an outfit needs at least one item")
	}

	updated, err := s.store.UpdateOutfit(ctx, o)
	if err != nil {
		return outfit.Details{}, err
	}
	return s.compose(ctx, updated)
}

// Delete removes an outfit the requester owns (or any outfit for admins).
func (s *Service) Delete(ctx context.Context, id, requesterID int64, isAdmin bool) error {
	if _, err := s.fetchAuthorized(ctx, id, requesterID, isAdmin); err != nil {
		return err
	}
	return s.store.DeleteOutfit(ctx, id)
}

// ToggleFavorite flips the favorite relation and reports the new state.
func (s *Service) ToggleFavorite(ctx context.Context, userID, outfitID int64) (bool, error) {
	fav, err := s.store.ToggleFavoriteOutfit(ctx, userID, outfitID)
	if errors.Is(err, storage.ErrNotFound) {
		return false, apperr.NotFound("outfit %d not found", outfitID)
	}
	return fav, err
}

// Favorites lists the user's favorite outfits.
func (s *Service) Favorites(ctx context.Context, userID int64) ([]outfit.Details, error) {
	list, err := s.store.ListFavoriteOutfits(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.composeAll(ctx, list)
}

// History lists the user's recently viewed outfits, newest first.
func (s *Service) History(ctx context.Context, userID int64) ([]outfit.Details, error) {
	list, err := s.store.ListViewedOutfits(ctx, userID, defaultHistoryLimit)
	if err != nil {
		return nil, err
	}
	return s.composeAll(ctx, list)
}

// ClearHistory drops the user's outfit view history.
func (s *Service) ClearHistory(ctx context.Context, userID int64) error {
	return s.store.ClearOutfitViews(ctx, userID)
}

// Trending ranks outfits by views within the last week.
func (s *Service) Trending(ctx context.Context, limit int) ([]outfit.Details, error) {
	if limit <= 0 {
		limit = defaultTrendingLimit
	}
	list, err := s.store.ListTrendingOutfits(ctx, time.Now().UTC().Add(-trendingWindow), limit)
	if err != nil {
		return nil, err
	}
	return s.composeAll(ctx, list)
}

// ListByOwner lists a user's outfits, for the admin user detail view.
func (s *Service) ListByOwner(ctx context.Context, ownerID int64) ([]outfit.Details, error) {
	list, err := s.store.ListOutfitsByOwner(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	return s.composeAll(ctx, list)
}

func (s *Service) fetchAuthorized(ctx context.Context, id, requesterID int64, isAdmin bool) (outfit.Outfit, error) {
	o, err := s.store.GetOutfit(ctx, id)
	if errors.Is(err, storage.ErrNotFound) {
		return outfit.Outfit{}, apperr.NotFound("outfit %d not found", id)
	}
	if err != nil {
		return outfit.Outfit{}, err
	}
	if !isAdmin && o.OwnerID != requesterID {
		return outfit.Outfit{}, apperr.Forbidden("not the owner of this outfit")
	}
	return o, nil
}

func (s *Service) buildMembers(ctx context.Context, in Input) ([]outfit.Member, error) {
	var members []outfit.Member
	for _, slot := range in.slots() {
		validated, err := s.validateSlot(ctx, slot.category, slot.ids, in.Collection)
		if err != nil {
			return nil, err
		}
		members = append(members, validated...)
	}
	return members, nil
}

// validateSlot checks that every item exists, fits the slot's category and
// does not contradict the outfit's collection.
func (s *Service) validateSlot(ctx context.Context, category outfit.Category, ids []int64, collection string) ([]outfit.Member, error) {
	members := make([]outfit.Member, 0, len(ids))
	for _, id := range ids {
		it, err := s.items.GetItem(ctx, id)
		if errors.Is(err, storage.ErrNotFound) {
			return nil, apperr.NotFound("item %d not found", id)
		}
		if err != nil {
			return nil, err
		}
		if !category.Accepts(it.Category) {
			return nil, apperr.BadRequest("item %d (%s) does not fit the %s slot", id, it.Category, category)
		}
		if collection != "" && it.Collection != "" && !strings.EqualFold(it.Collection, collection) {
			return nil, apperr.BadRequest("item %d belongs to collection %q, not %q", id, it.Collection, collection)
		}
		members = append(members, outfit.Member{ItemID: id, Category: category})
	}
	return members, nil
}

func replaceSlot(members []outfit.Member, category outfit.Category, replacement []outfit.Member) []outfit.Member {
	kept := make([]outfit.Member, 0, len(members)+len(replacement))
	for _, m := range members {
		if m.Category != category {
			kept = append(kept, m)
		}
	}
	return append(kept, replacement...)
}

func (s *Service) compose(ctx context.Context, o outfit.Outfit) (outfit.Details, error) {
	ids := make([]int64, 0, len(o.Members))
	for _, m := range o.Members {
		ids = append(ids, m.ItemID)
	}
	resolved, err := s.items.ListItemsByIDs(ctx, ids)
	if err != nil {
		return outfit.Details{}, err
	}
	byID := make(map[int64]item.Item, len(resolved))
	for _, it := range resolved {
		byID[it.ID] = it
	}

	grouped := make(map[outfit.Category][]item.Item)
	for _, m := range o.Members {
		if it, ok := byID[m.ItemID]; ok {
			grouped[m.Category] = append(grouped[m.Category], it)
		}
	}
	return outfit.Compose(o, grouped), nil
}

func (s *Service) composeAll(ctx context.Context, list []outfit.Outfit) ([]outfit.Details, error) {
	details := make([]outfit.Details, 0, len(list))
	for _, o := range list {
		d, err := s.compose(ctx, o)
		if err != nil {
			return nil, err
		}
		details = append(details, d)
	}
	return details, nil
}
