package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/trcstyle/backend/internal/app/domain/cart"
	"github.com/trcstyle/backend/internal/app/domain/comment"
	"github.com/trcstyle/backend/internal/app/domain/item"
	"github.com/trcstyle/backend/internal/app/domain/job"
	"github.com/trcstyle/backend/internal/app/domain/outfit"
	"github.com/trcstyle/backend/internal/app/domain/user"
	"github.com/trcstyle/backend/internal/app/storage"
)

// Store is an in-memory implementation of the storage interfaces. It is safe
// for concurrent use and is primarily intended for tests and local development.
type Store struct {
	mu     sync.RWMutex
	nextID int64

	users        map[int64]user.User
	usersByEmail map[string]int64

	items        map[int64]item.Item
	variants     map[int64]item.Variant
	images       map[int64]item.Image
	favItems     map[int64]map[int64]struct{} // userID -> itemIDs
	itemViews    map[int64]map[int64]time.Time

	outfits     map[int64]outfit.Outfit
	favOutfits  map[int64]map[int64]struct{}
	outfitViews map[int64]map[int64]time.Time

	comments     map[int64]comment.Comment
	commentLikes map[int64]map[int64]struct{} // commentID -> userIDs

	cartItems map[int64]map[int64]cart.Item // userID -> variantID -> row
	nextCart  int64

	jobs map[string]job.Job
}

var _ storage.UserStore = (*Store)(nil)
var _ storage.ItemStore = (*Store)(nil)
var _ storage.OutfitStore = (*Store)(nil)
var _ storage.CommentStore = (*Store)(nil)
var _ storage.CartStore = (*Store)(nil)
var _ storage.JobStore = (*Store)(nil)

// New creates an empty store.
func New() *Store {
	return &Store{
		nextID:       1,
		nextCart:     1,
		users:        make(map[int64]user.User),
		usersByEmail: make(map[string]int64),
		items:        make(map[int64]item.Item),
		variants:     make(map[int64]item.Variant),
		images:       make(map[int64]item.Image),
		favItems:     make(map[int64]map[int64]struct{}),
		itemViews:    make(map[int64]map[int64]time.Time),
		outfits:      make(map[int64]outfit.Outfit),
		favOutfits:   make(map[int64]map[int64]struct{}),
		outfitViews:  make(map[int64]map[int64]time.Time),
		comments:     make(map[int64]comment.Comment),
		commentLikes: make(map[int64]map[int64]struct{}),
		cartItems:    make(map[int64]map[int64]cart.Item),
		jobs:         make(map[string]job.Job),
	}
}

func (s *Store) nextIDLocked() int64 {
	id := s.nextID
	s.nextID++
	return id
}

// UserStore implementation ----------------------------------------------------

func (s *Store) CreateUser(_ context.Context, u user.User) (user.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := strings.ToLower(u.Email)
	if _, exists := s.usersByEmail[key]; exists {
		return user.User{}, fmt.Errorf("user %s: %w", u.Email, storage.ErrDuplicate)
	}
	if u.ID == 0 {
		u.ID = s.nextIDLocked()
	}

	now := time.Now().UTC()
	u.CreatedAt = now
	u.UpdatedAt = now
	u.FavoriteColors = cloneStrings(u.FavoriteColors)
	u.FavoriteBrands = cloneStrings(u.FavoriteBrands)

	s.users[u.ID] = u
	s.usersByEmail[key] = u.ID
	return u, nil
}

func (s *Store) UpdateUser(_ context.Context, u user.User) (user.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	original, ok := s.users[u.ID]
	if !ok {
		return user.User{}, fmt.Errorf("user %d: %w", u.ID, storage.ErrNotFound)
	}
	if !strings.EqualFold(original.Email, u.Email) {
		key := strings.ToLower(u.Email)
		if _, exists := s.usersByEmail[key]; exists {
			return user.User{}, fmt.Errorf("user %s: %w", u.Email, storage.ErrDuplicate)
		}
		delete(s.usersByEmail, strings.ToLower(original.Email))
		s.usersByEmail[key] = u.ID
	}

	u.CreatedAt = original.CreatedAt
	u.UpdatedAt = time.Now().UTC()
	u.FavoriteColors = cloneStrings(u.FavoriteColors)
	u.FavoriteBrands = cloneStrings(u.FavoriteBrands)

	s.users[u.ID] = u
	return u, nil
}

func (s *Store) GetUser(_ context.Context, id int64) (user.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[id]
	if !ok {
		return user.User{}, fmt.Errorf("user %d: %w", id, storage.ErrNotFound)
	}
	return u, nil
}

func (s *Store) GetUserByEmail(_ context.Context, email string) (user.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.usersByEmail[strings.ToLower(email)]
	if !ok {
		return user.User{}, fmt.Errorf("user %s: %w", email, storage.ErrNotFound)
	}
	return s.users[id], nil
}

func (s *Store) ListUsers(_ context.Context, offset, limit int) ([]user.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	all := make([]user.User, 0, len(s.users))
	for _, u := range s.users {
		all = append(all, u)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID < all[j].ID })
	return paginate(all, offset, limit), nil
}

func (s *Store) DeleteUser(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[id]
	if !ok {
		return fmt.Errorf("user %d: %w", id, storage.ErrNotFound)
	}
	delete(s.users, id)
	delete(s.usersByEmail, strings.ToLower(u.Email))
	delete(s.favItems, id)
	delete(s.itemViews, id)
	delete(s.favOutfits, id)
	delete(s.outfitViews, id)
	delete(s.cartItems, id)
	return nil
}

// ItemStore implementation ----------------------------------------------------

func (s *Store) CreateItem(_ context.Context, it item.Item) (item.Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if it.ID == 0 {
		it.ID = s.nextIDLocked()
	} else if _, exists := s.items[it.ID]; exists {
		return item.Item{}, fmt.Errorf("item %d: %w", it.ID, storage.ErrDuplicate)
	}

	now := time.Now().UTC()
	it.CreatedAt = now
	it.UpdatedAt = now
	it.ImageURLs = nil
	it.Variants = nil
	it.IsFavorite = nil

	s.items[it.ID] = it
	return it, nil
}

func (s *Store) UpdateItem(_ context.Context, it item.Item) (item.Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	original, ok := s.items[it.ID]
	if !ok {
		return item.Item{}, fmt.Errorf("item %d: %w", it.ID, storage.ErrNotFound)
	}

	it.CreatedAt = original.CreatedAt
	it.UpdatedAt = time.Now().UTC()
	it.ImageURLs = nil
	it.Variants = nil
	it.IsFavorite = nil

	s.items[it.ID] = it
	return it, nil
}

func (s *Store) GetItem(_ context.Context, id int64) (item.Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	it, ok := s.items[id]
	if !ok {
		return item.Item{}, fmt.Errorf("item %d: %w", id, storage.ErrNotFound)
	}
	return it, nil
}

func (s *Store) GetItemBySourceSKU(_ context.Context, source, sku string) (item.Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, it := range s.items {
		if it.Source == source && it.SourceSKU == sku {
			return it, nil
		}
	}
	return item.Item{}, fmt.Errorf("item %s/%s: %w", source, sku, storage.ErrNotFound)
}

func matchesFilter(it item.Item, f item.Filter) bool {
	if f.Query != "" {
		q := strings.ToLower(f.Query)
		if !strings.Contains(strings.ToLower(it.Name), q) &&
			!strings.Contains(strings.ToLower(it.Description), q) &&
			!strings.Contains(strings.ToLower(it.Brand), q) {
			return false
		}
	}
	if f.Category != "" && !strings.EqualFold(it.Category, f.Category) {
		return false
	}
	if f.Style != "" && !strings.EqualFold(it.Style, f.Style) {
		return false
	}
	if f.Collection != "" && !strings.EqualFold(it.Collection, f.Collection) {
		return false
	}
	if f.ClothingType != "" && !strings.EqualFold(it.ClothingType, f.ClothingType) {
		return false
	}
	if f.Size != "" && !strings.EqualFold(it.Size, f.Size) {
		return false
	}
	if f.MinPrice != nil && (it.Price == nil || *it.Price < *f.MinPrice) {
		return false
	}
	if f.MaxPrice != nil && (it.Price == nil || *it.Price > *f.MaxPrice) {
		return false
	}
	return true
}

func sortItems(items []item.Item, sortBy string) {
	switch sortBy {
	case "price_asc":
		sort.SliceStable(items, func(i, j int) bool {
			return priceOf(items[i]) < priceOf(items[j])
		})
	case "price_desc":
		sort.SliceStable(items, func(i, j int) bool {
			return priceOf(items[i]) > priceOf(items[j])
		})
	default: // newest
		sort.SliceStable(items, func(i, j int) bool {
			if items[i].CreatedAt.Equal(items[j].CreatedAt) {
				return items[i].ID > items[j].ID
			}
			return items[i].CreatedAt.After(items[j].CreatedAt)
		})
	}
}

func priceOf(it item.Item) float64 {
	if it.Price == nil {
		return 0
	}
	return *it.Price
}

func (s *Store) ListItems(_ context.Context, f item.Filter) ([]item.Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]item.Item, 0, len(s.items))
	for _, it := range s.items {
		if matchesFilter(it, f) {
			result = append(result, it)
		}
	}
	sortItems(result, f.SortBy)
	return paginate(result, f.Offset, f.Limit), nil
}

func (s *Store) ListItemsByIDs(_ context.Context, ids []int64) ([]item.Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]item.Item, 0, len(ids))
	for _, id := range ids {
		if it, ok := s.items[id]; ok {
			result = append(result, it)
		}
	}
	return result, nil
}

func (s *Store) ListSimilarItems(_ context.Context, id int64, limit int) ([]item.Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	base, ok := s.items[id]
	if !ok {
		return nil, fmt.Errorf("item %d: %w", id, storage.ErrNotFound)
	}

	result := make([]item.Item, 0, limit)
	for _, it := range s.items {
		if it.ID == id {
			continue
		}
		if strings.EqualFold(it.Category, base.Category) && strings.EqualFold(it.Style, base.Style) {
			result = append(result, it)
		}
	}
	sortItems(result, "newest")
	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

func (s *Store) ListTrendingItems(_ context.Context, limit int) ([]item.Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	counts := make(map[int64]int)
	for _, favs := range s.favItems {
		for itemID := range favs {
			counts[itemID]++
		}
	}

	result := make([]item.Item, 0, len(s.items))
	for _, it := range s.items {
		result = append(result, it)
	}
	sort.SliceStable(result, func(i, j int) bool {
		ci, cj := counts[result[i].ID], counts[result[j].ID]
		if ci == cj {
			return result[i].ID < result[j].ID
		}
		return ci > cj
	})
	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

func (s *Store) ListCollectionNames(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	seen := make(map[string]struct{})
	for _, it := range s.items {
		if it.Collection != "" {
			seen[it.Collection] = struct{}{}
		}
	}
	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

func (s *Store) DeleteItem(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.items[id]; !ok {
		return fmt.Errorf("item %d: %w", id, storage.ErrNotFound)
	}
	delete(s.items, id)
	for vid, v := range s.variants {
		if v.ItemID == id {
			delete(s.variants, vid)
		}
	}
	for imgID, img := range s.images {
		if img.ItemID == id {
			delete(s.images, imgID)
		}
	}
	for _, favs := range s.favItems {
		delete(favs, id)
	}
	for _, views := range s.itemViews {
		delete(views, id)
	}
	return nil
}

func (s *Store) CreateVariant(_ context.Context, v item.Variant) (item.Variant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.items[v.ItemID]; !ok {
		return item.Variant{}, fmt.Errorf("item %d: %w", v.ItemID, storage.ErrNotFound)
	}
	if v.ID == 0 {
		v.ID = s.nextIDLocked()
	}
	now := time.Now().UTC()
	v.CreatedAt = now
	v.UpdatedAt = now
	s.variants[v.ID] = v
	return v, nil
}

func (s *Store) UpdateVariant(_ context.Context, v item.Variant) (item.Variant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	original, ok := s.variants[v.ID]
	if !ok {
		return item.Variant{}, fmt.Errorf("variant %d: %w", v.ID, storage.ErrNotFound)
	}
	v.ItemID = original.ItemID
	v.CreatedAt = original.CreatedAt
	v.UpdatedAt = time.Now().UTC()
	s.variants[v.ID] = v
	return v, nil
}

func (s *Store) GetVariant(_ context.Context, id int64) (item.Variant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	v, ok := s.variants[id]
	if !ok {
		return item.Variant{}, fmt.Errorf("variant %d: %w", id, storage.ErrNotFound)
	}
	return v, nil
}

func (s *Store) ListVariants(_ context.Context, itemID int64) ([]item.Variant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]item.Variant, 0)
	for _, v := range s.variants {
		if v.ItemID == itemID {
			result = append(result, v)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func (s *Store) DeleteVariant(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.variants[id]; !ok {
		return fmt.Errorf("variant %d: %w", id, storage.ErrNotFound)
	}
	delete(s.variants, id)
	for _, lines := range s.cartItems {
		delete(lines, id)
	}
	return nil
}

func (s *Store) CreateImage(_ context.Context, img item.Image) (item.Image, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.items[img.ItemID]; !ok {
		return item.Image{}, fmt.Errorf("item %d: %w", img.ItemID, storage.ErrNotFound)
	}
	if img.ID == 0 {
		img.ID = s.nextIDLocked()
	}
	s.images[img.ID] = img
	return img, nil
}

func (s *Store) GetImage(_ context.Context, id int64) (item.Image, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	img, ok := s.images[id]
	if !ok {
		return item.Image{}, fmt.Errorf("image %d: %w", id, storage.ErrNotFound)
	}
	return img, nil
}

func (s *Store) ListImages(_ context.Context, itemID int64) ([]item.Image, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]item.Image, 0)
	for _, img := range s.images {
		if img.ItemID == itemID {
			result = append(result, img)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Position == result[j].Position {
			return result[i].ID < result[j].ID
		}
		return result[i].Position < result[j].Position
	})
	return result, nil
}

func (s *Store) DeleteImage(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.images[id]; !ok {
		return fmt.Errorf("image %d: %w", id, storage.ErrNotFound)
	}
	delete(s.images, id)
	return nil
}

func (s *Store) ToggleFavoriteItem(_ context.Context, userID, itemID int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.items[itemID]; !ok {
		return false, fmt.Errorf("item %d: %w", itemID, storage.ErrNotFound)
	}
	favs, ok := s.favItems[userID]
	if !ok {
		favs = make(map[int64]struct{})
		s.favItems[userID] = favs
	}
	if _, fav := favs[itemID]; fav {
		delete(favs, itemID)
		return false, nil
	}
	favs[itemID] = struct{}{}
	return true, nil
}

func (s *Store) ListFavoriteItems(_ context.Context, userID int64) ([]item.Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]item.Item, 0)
	for itemID := range s.favItems[userID] {
		if it, ok := s.items[itemID]; ok {
			result = append(result, it)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func (s *Store) IsFavoriteItem(_ context.Context, userID, itemID int64) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, fav := s.favItems[userID][itemID]
	return fav, nil
}

func (s *Store) RecordItemView(_ context.Context, userID, itemID int64, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.items[itemID]; !ok {
		return fmt.Errorf("item %d: %w", itemID, storage.ErrNotFound)
	}
	views, ok := s.itemViews[userID]
	if !ok {
		views = make(map[int64]time.Time)
		s.itemViews[userID] = views
	}
	views[itemID] = at
	return nil
}

func (s *Store) ListViewedItems(_ context.Context, userID int64, limit int) ([]item.Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	type viewed struct {
		it item.Item
		at time.Time
	}
	result := make([]viewed, 0, len(s.itemViews[userID]))
	for itemID, at := range s.itemViews[userID] {
		if it, ok := s.items[itemID]; ok {
			result = append(result, viewed{it: it, at: at})
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].at.After(result[j].at) })
	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	items := make([]item.Item, 0, len(result))
	for _, v := range result {
		items = append(items, v.it)
	}
	return items, nil
}

func (s *Store) ClearItemViews(_ context.Context, userID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.itemViews, userID)
	return nil
}

// OutfitStore implementation --------------------------------------------------

func (s *Store) CreateOutfit(_ context.Context, o outfit.Outfit) (outfit.Outfit, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if o.ID == 0 {
		o.ID = s.nextIDLocked()
	} else if _, exists := s.outfits[o.ID]; exists {
		return outfit.Outfit{}, fmt.Errorf("outfit %d: %w", o.ID, storage.ErrDuplicate)
	}

	now := time.Now().UTC()
	o.CreatedAt = now
	o.UpdatedAt = now
	o.Members = cloneMembers(o.Members)

	s.outfits[o.ID] = o
	return o, nil
}

func (s *Store) UpdateOutfit(_ context.Context, o outfit.Outfit) (outfit.Outfit, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	original, ok := s.outfits[o.ID]
	if !ok {
		return outfit.Outfit{}, fmt.Errorf("outfit %d: %w", o.ID, storage.ErrNotFound)
	}

	o.OwnerID = original.OwnerID
	o.CreatedAt = original.CreatedAt
	o.UpdatedAt = time.Now().UTC()
	o.Members = cloneMembers(o.Members)

	s.outfits[o.ID] = o
	return o, nil
}

func (s *Store) GetOutfit(_ context.Context, id int64) (outfit.Outfit, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	o, ok := s.outfits[id]
	if !ok {
		return outfit.Outfit{}, fmt.Errorf("outfit %d: %w", id, storage.ErrNotFound)
	}
	o.Members = cloneMembers(o.Members)
	return o, nil
}

func (s *Store) ListOutfits(_ context.Context, f outfit.Filter) ([]outfit.Outfit, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]outfit.Outfit, 0, len(s.outfits))
	for _, o := range s.outfits {
		if f.OwnerID != 0 && o.OwnerID != f.OwnerID {
			continue
		}
		if f.Style != "" && !strings.EqualFold(o.Style, f.Style) {
			continue
		}
		if f.Collection != "" && !strings.EqualFold(o.Collection, f.Collection) {
			continue
		}
		if f.Query != "" {
			q := strings.ToLower(f.Query)
			if !strings.Contains(strings.ToLower(o.Name), q) &&
				!strings.Contains(strings.ToLower(o.Description), q) &&
				!strings.Contains(strings.ToLower(o.Style), q) {
				continue
			}
		}
		o.Members = cloneMembers(o.Members)
		result = append(result, o)
	}
	sort.SliceStable(result, func(i, j int) bool {
		if result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].ID > result[j].ID
		}
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	return paginate(result, f.Offset, f.Limit), nil
}

func (s *Store) ListOutfitsByOwner(ctx context.Context, ownerID int64) ([]outfit.Outfit, error) {
	return s.ListOutfits(ctx, outfit.Filter{OwnerID: ownerID})
}

func (s *Store) ListTrendingOutfits(_ context.Context, since time.Time, limit int) ([]outfit.Outfit, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	counts := make(map[int64]int)
	for _, views := range s.outfitViews {
		for outfitID, at := range views {
			if at.After(since) {
				counts[outfitID]++
			}
		}
	}

	result := make([]outfit.Outfit, 0, len(s.outfits))
	for _, o := range s.outfits {
		o.Members = cloneMembers(o.Members)
		result = append(result, o)
	}
	sort.SliceStable(result, func(i, j int) bool {
		ci, cj := counts[result[i].ID], counts[result[j].ID]
		if ci == cj {
			return result[i].ID < result[j].ID
		}
		return ci > cj
	})
	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

func (s *Store) DeleteOutfit(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.outfits[id]; !ok {
		return fmt.Errorf("outfit %d: %w", id, storage.ErrNotFound)
	}
	delete(s.outfits, id)
	for _, favs := range s.favOutfits {
		delete(favs, id)
	}
	for _, views := range s.outfitViews {
		delete(views, id)
	}
	return nil
}

func (s *Store) ToggleFavoriteOutfit(_ context.Context, userID, outfitID int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.outfits[outfitID]; !ok {
		return false, fmt.Errorf("outfit %d: %w", outfitID, storage.ErrNotFound)
	}
	favs, ok := s.favOutfits[userID]
	if !ok {
		favs = make(map[int64]struct{})
		s.favOutfits[userID] = favs
	}
	if _, fav := favs[outfitID]; fav {
		delete(favs, outfitID)
		return false, nil
	}
	favs[outfitID] = struct{}{}
	return true, nil
}

func (s *Store) ListFavoriteOutfits(_ context.Context, userID int64) ([]outfit.Outfit, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]outfit.Outfit, 0)
	for outfitID := range s.favOutfits[userID] {
		if o, ok := s.outfits[outfitID]; ok {
			o.Members = cloneMembers(o.Members)
			result = append(result, o)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func (s *Store) RecordOutfitView(_ context.Context, userID, outfitID int64, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.outfits[outfitID]; !ok {
		return fmt.Errorf("outfit %d: %w", outfitID, storage.ErrNotFound)
	}
	views, ok := s.outfitViews[userID]
	if !ok {
		views = make(map[int64]time.Time)
		s.outfitViews[userID] = views
	}
	views[outfitID] = at
	return nil
}

func (s *Store) ListViewedOutfits(_ context.Context, userID int64, limit int) ([]outfit.Outfit, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	type viewed struct {
		o  outfit.Outfit
		at time.Time
	}
	result := make([]viewed, 0, len(s.outfitViews[userID]))
	for outfitID, at := range s.outfitViews[userID] {
		if o, ok := s.outfits[outfitID]; ok {
			o.Members = cloneMembers(o.Members)
			result = append(result, viewed{o: o, at: at})
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].at.After(result[j].at) })
	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	outfits := make([]outfit.Outfit, 0, len(result))
	for _, v := range result {
		outfits = append(outfits, v.o)
	}
	return outfits, nil
}

func (s *Store) ClearOutfitViews(_ context.Context, userID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.outfitViews, userID)
	return nil
}

// CommentStore implementation -------------------------------------------------

func (s *Store) CreateComment(_ context.Context, c comment.Comment) (comment.Comment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if c.ID == 0 {
		c.ID = s.nextIDLocked()
	}
	now := time.Now().UTC()
	c.CreatedAt = now
	c.UpdatedAt = now
	c.Likes = 0
	s.comments[c.ID] = c
	return c, nil
}

func (s *Store) GetComment(_ context.Context, id int64) (comment.Comment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.comments[id]
	if !ok {
		return comment.Comment{}, fmt.Errorf("comment %d: %w", id, storage.ErrNotFound)
	}
	c.Likes = len(s.commentLikes[id])
	c.UserName = s.displayNameLocked(c.UserID)
	return c, nil
}

func (s *Store) ListItemComments(_ context.Context, itemID int64) ([]comment.Comment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]comment.Comment, 0)
	for _, c := range s.comments {
		if c.ItemID == itemID {
			c.Likes = len(s.commentLikes[c.ID])
			c.UserName = s.displayNameLocked(c.UserID)
			result = append(result, c)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID > result[j].ID })
	return result, nil
}

func (s *Store) ListOutfitComments(_ context.Context, outfitID int64) ([]comment.Comment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]comment.Comment, 0)
	for _, c := range s.comments {
		if c.OutfitID == outfitID {
			c.Likes = len(s.commentLikes[c.ID])
			c.UserName = s.displayNameLocked(c.UserID)
			result = append(result, c)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID > result[j].ID })
	return result, nil
}

func (s *Store) DeleteComment(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.comments[id]; !ok {
		return fmt.Errorf("comment %d: %w", id, storage.ErrNotFound)
	}
	delete(s.comments, id)
	delete(s.commentLikes, id)
	return nil
}

func (s *Store) ToggleCommentLike(_ context.Context, userID, commentID int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.comments[commentID]; !ok {
		return false, fmt.Errorf("comment %d: %w", commentID, storage.ErrNotFound)
	}
	likes, ok := s.commentLikes[commentID]
	if !ok {
		likes = make(map[int64]struct{})
		s.commentLikes[commentID] = likes
	}
	if _, liked := likes[userID]; liked {
		delete(likes, userID)
		return false, nil
	}
	likes[userID] = struct{}{}
	return true, nil
}

func (s *Store) displayNameLocked(userID int64) string {
	if u, ok := s.users[userID]; ok {
		return u.DisplayName()
	}
	return ""
}

// CartStore implementation ----------------------------------------------------

func (s *Store) UpsertCartItem(_ context.Context, ci cart.Item) (cart.Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	lines, ok := s.cartItems[ci.UserID]
	if !ok {
		lines = make(map[int64]cart.Item)
		s.cartItems[ci.UserID] = lines
	}
	if existing, ok := lines[ci.VariantID]; ok {
		existing.Quantity = ci.Quantity
		lines[ci.VariantID] = existing
		return existing, nil
	}
	ci.ID = s.nextCart
	s.nextCart++
	ci.AddedAt = time.Now().UTC()
	lines[ci.VariantID] = ci
	return ci, nil
}

func (s *Store) GetCartItem(_ context.Context, userID, variantID int64) (cart.Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ci, ok := s.cartItems[userID][variantID]
	if !ok {
		return cart.Item{}, fmt.Errorf("cart item %d/%d: %w", userID, variantID, storage.ErrNotFound)
	}
	return ci, nil
}

func (s *Store) ListCartItems(_ context.Context, userID int64) ([]cart.Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]cart.Item, 0, len(s.cartItems[userID]))
	for _, ci := range s.cartItems[userID] {
		result = append(result, ci)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func (s *Store) DeleteCartItem(_ context.Context, userID, variantID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.cartItems[userID][variantID]; !ok {
		return fmt.Errorf("cart item %d/%d: %w", userID, variantID, storage.ErrNotFound)
	}
	delete(s.cartItems[userID], variantID)
	return nil
}

func (s *Store) ClearCart(_ context.Context, userID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.cartItems, userID)
	return nil
}

// JobStore implementation -----------------------------------------------------

func (s *Store) CreateJob(_ context.Context, j job.Job) (job.Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.jobs[j.ID]; exists {
		return job.Job{}, fmt.Errorf("job %s: %w", j.ID, storage.ErrDuplicate)
	}
	now := time.Now().UTC()
	j.CreatedAt = now
	j.UpdatedAt = now
	s.jobs[j.ID] = j
	return j, nil
}

func (s *Store) UpdateJob(_ context.Context, j job.Job) (job.Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	original, ok := s.jobs[j.ID]
	if !ok {
		return job.Job{}, fmt.Errorf("job %s: %w", j.ID, storage.ErrNotFound)
	}
	j.CreatedAt = original.CreatedAt
	j.UpdatedAt = time.Now().UTC()
	s.jobs[j.ID] = j
	return j, nil
}

func (s *Store) GetJob(_ context.Context, id string) (job.Job, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	j, ok := s.jobs[id]
	if !ok {
		return job.Job{}, fmt.Errorf("job %s: %w", id, storage.ErrNotFound)
	}
	return j, nil
}

func (s *Store) ListJobs(_ context.Context, kind job.Kind, limit int) ([]job.Job, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]job.Job, 0)
	for _, j := range s.jobs {
		if kind != "" && j.Kind != kind {
			continue
		}
		result = append(result, j)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].CreatedAt.After(result[j].CreatedAt) })
	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

// Helpers ---------------------------------------------------------------------

func cloneStrings(in []string) []string {
	if in == nil {
		return nil
	}
	out := make([]string, len(in))
	copy(out, in)
	return out
}

func cloneMembers(in []outfit.Member) []outfit.Member {
	if in == nil {
		return nil
	}
	out := make([]outfit.Member, len(in))
	copy(out, in)
	return out
}

func paginate[T any](in []T, offset, limit int) []T {
	if offset < 0 {
		offset = 0
	}
	if offset >= len(in) {
		return []T{}
	}
	in = in[offset:]
	if limit > 0 && len(in) > limit {
		in = in[:limit]
	}
	return in
}
