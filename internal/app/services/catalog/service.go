// Package catalog manages items, variants, image galleries and the per-user
// favorite and browsing history features built on them.
package catalog

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/trcstyle/backend/internal/app/apperr"
	"github.com/trcstyle/backend/internal/app/domain/item"
	"github.com/trcstyle/backend/internal/app/storage"
	"github.com/trcstyle/backend/internal/uploads"
	"github.com/trcstyle/backend/pkg/logger"
)

const (
	defaultHistoryLimit  = 50
	defaultSimilarLimit  = 10
	defaultTrendingLimit = 20
)

// Service manages the item catalog.
type Service struct {
	store storage.ItemStore
	files *uploads.Store
	log   *logger.Logger
}

// New constructs a catalog service. files may be nil when local image cleanup
// is not needed.
func New(store storage.ItemStore, files *uploads.Store, log *logger.Logger) *Service {
	if log == nil {
		log = logger.NewDefault("catalog")
	}
	return &Service{store: store, files: files, log: log}
}

// Create adds an item. The first image URL becomes the primary image, the
// rest fill the gallery.
func (s *Service) Create(ctx context.Context, it item.Item, imageURLs []string) (item.Item, error) {
	if strings.TrimSpace(it.Name) == "" {
		return item.Item{}, apperr.BadRequest("name is required")
	}
	if it.Price != nil && *it.Price < 0 {
		return item.Item{}, apperr.BadRequest("price cannot be negative")
	}
	if len(imageURLs) > 0 {
		it.ImageURL = imageURLs[0]
	}

	created, err := s.store.CreateItem(ctx, it)
	if err != nil {
		return item.Item{}, err
	}
	for i, url := range imageURLs {
		if _, err := s.store.CreateImage(ctx, item.Image{ItemID: created.ID, URL: url, Position: i}); err != nil {
			return item.Item{}, err
		}
	}
	s.log.WithField("item_id", created.ID).Info("item created")
	return s.Get(ctx, created.ID, 0)
}

// Get fetches an item with its gallery and variants. A non-zero viewerID
// additionally resolves the favorite flag and records the view.
func (s *Service) Get(ctx context.Context, id int64, viewerID int64) (item.Item, error) {
	it, err := s.store.GetItem(ctx, id)
	if errors.Is(err, storage.ErrNotFound) {
		return item.Item{}, apperr.NotFound("item %d not found", id)
	}
	if err != nil {
		return item.Item{}, err
	}

	images, err := s.store.ListImages(ctx, id)
	if err != nil {
		return item.Item{}, err
	}
	it.ImageURLs = make([]string, 0, len(images))
	for _, img := range images {
		it.ImageURLs = append(it.ImageURLs, img.URL)
	}
	if it.Variants, err = s.store.ListVariants(ctx, id); err != nil {
		return item.Item{}, err
	}

	if viewerID != 0 {
		fav, err := s.store.IsFavoriteItem(ctx, viewerID, id)
		if err != nil {
			return item.Item{}, err
		}
		it.IsFavorite = &fav
		if err := s.store.RecordItemView(ctx, viewerID, id, time.Now().UTC()); err != nil {
			s.log.WithError(err).WithField("item_id", id).Warn("record item view failed")
		}
	}
	return it, nil
}

// List pages through the catalog. A non-zero viewerID resolves favorite
// flags on the results.
func (s *Service) List(ctx context.Context, f item.Filter, viewerID int64) ([]item.Item, error) {
	items, err := s.store.ListItems(ctx, f)
	if err != nil {
		return nil, err
	}
	return s.decorateFavorites(ctx, items, viewerID)
}

// Update replaces an item's mutable fields.
func (s *Service) Update(ctx context.Context, it item.Item) (item.Item, error) {
	if strings.TrimSpace(it.Name) == "" {
		return item.Item{}, apperr.BadRequest("name is required")
	}
	if it.Price != nil && *it.Price < 0 {
		return item.Item{}, apperr.BadRequest("price cannot be negative")
	}
	updated, err := s.store.UpdateItem(ctx, it)
	if errors.Is(err, storage.ErrNotFound) {
		return item.Item{}, apperr.NotFound("item %d not found", it.ID)
	}
	return updated, err
}

// Delete removes an item and its locally stored image files.
func (s *Service) Delete(ctx context.Context, id int64) error {
	images, err := s.store.ListImages(ctx, id)
	if err != nil {
		return err
	}
	it, err := s.store.GetItem(ctx, id)
	if errors.Is(err, storage.ErrNotFound) {
		return apperr.NotFound("item %d not found", id)
	}
	if err != nil {
		return err
	}

	if err := s.store.DeleteItem(ctx, id); err != nil {
		return err
	}
	if s.files != nil {
		s.removeFile(it.ImageURL)
		for _, img := range images {
			s.removeFile(img.URL)
		}
	}
	s.log.WithField("item_id", id).Info("item deleted")
	return nil
}

// Similar lists items sharing the category and style of the given item.
func (s *Service) Similar(ctx context.Context, id int64, limit int) ([]item.Item, error) {
	if limit <= 0 {
		limit = defaultSimilarLimit
	}
	items, err := s.store.ListSimilarItems(ctx, id, limit)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, apperr.NotFound("item %d not found", id)
	}
	return items, err
}

// Trending ranks items by favorite count.
func (s *Service) Trending(ctx context.Context, limit int, viewerID int64) ([]item.Item, error) {
	if limit <= 0 {
		limit = defaultTrendingLimit
	}
	items, err := s.store.ListTrendingItems(ctx, limit)
	if err != nil {
		return nil, err
	}
	return s.decorateFavorites(ctx, items, viewerID)
}

// CollectionNames lists the distinct collection names in the catalog.
func (s *Service) CollectionNames(ctx context.Context) ([]string, error) {
	return s.store.ListCollectionNames(ctx)
}

// ToggleFavorite flips the favorite relation and reports the new state.
func (s *Service) ToggleFavorite(ctx context.Context, userID, itemID int64) (bool, error) {
	fav, err := s.store.ToggleFavoriteItem(ctx, userID, itemID)
	if errors.Is(err, storage.ErrNotFound) {
		return false, apperr.NotFound("item %d not found", itemID)
	}
	return fav, err
}

// Favorites lists the user's favorite items.
func (s *Service) Favorites(ctx context.Context, userID int64) ([]item.Item, error) {
	items, err := s.store.ListFavoriteItems(ctx, userID)
	if err != nil {
		return nil, err
	}
	fav := true
	for i := range items {
		f := fav
		items[i].IsFavorite = &f
	}
	return items, nil
}

// History lists the user's recently viewed items, newest first.
func (s *Service) History(ctx context.Context, userID int64) ([]item.Item, error) {
	items, err := s.store.ListViewedItems(ctx, userID, defaultHistoryLimit)
	if err != nil {
		return nil, err
	}
	return s.decorateFavorites(ctx, items, userID)
}

// ClearHistory drops the user's item view history.
func (s *Service) ClearHistory(ctx context.Context, userID int64) error {
	return s.store.ClearItemViews(ctx, userID)
}

// --- variants ----------------------------------------------------------------

// CreateVariant adds a purchasable combination to an item.
func (s *Service) CreateVariant(ctx context.Context, v item.Variant) (item.Variant, error) {
	if v.Stock < 0 {
		return item.Variant{}, apperr.BadRequest("stock cannot be negative")
	}
	if v.Price != nil && *v.Price < 0 {
		return item.Variant{}, apperr.BadRequest("price cannot be negative")
	}
	created, err := s.store.CreateVariant(ctx, v)
	if errors.Is(err, storage.ErrNotFound) {
		return item.Variant{}, apperr.NotFound("item %d not found", v.ItemID)
	}
	return created, err
}

// UpdateVariant replaces a variant's mutable fields.
func (s *Service) UpdateVariant(ctx context.Context, v item.Variant) (item.Variant, error) {
	if v.Stock < 0 {
		return item.Variant{}, apperr.BadRequest("stock cannot be negative")
	}
	updated, err := s.store.UpdateVariant(ctx, v)
	if errors.Is(err, storage.ErrNotFound) {
		return item.Variant{}, apperr.NotFound("variant %d not found", v.ID)
	}
	return updated, err
}

// ListVariants lists an item's variants.
func (s *Service) ListVariants(ctx context.Context, itemID int64) ([]item.Variant, error) {
	return s.store.ListVariants(ctx, itemID)
}

// DeleteVariant removes a variant.
func (s *Service) DeleteVariant(ctx context.Context, id int64) error {
	err := s.store.DeleteVariant(ctx, id)
	if errors.Is(err, storage.ErrNotFound) {
		return apperr.NotFound("variant %d not found", id)
	}
	return err
}

// --- images ------------------------------------------------------------------

// ListImages lists an item's gallery in position order.
func (s *Service) ListImages(ctx context.Context, itemID int64) ([]item.Image, error) {
	return s.store.ListImages(ctx, itemID)
}

// AddImage appends an image to the gallery. The first image of an item also
// becomes its primary image.
func (s *Service) AddImage(ctx context.Context, itemID int64, url string) (item.Image, error) {
	existing, err := s.store.ListImages(ctx, itemID)
	if err != nil {
		return item.Image{}, err
	}
	img, err := s.store.CreateImage(ctx, item.Image{ItemID: itemID, URL: url, Position: len(existing)})
	if errors.Is(err, storage.ErrNotFound) {
		return item.Image{}, apperr.NotFound("item %d not found", itemID)
	}
	if err != nil {
		return item.Image{}, err
	}
	if len(existing) == 0 {
		if it, err := s.store.GetItem(ctx, itemID); err == nil && it.ImageURL == "" {
			it.ImageURL = url
			if _, err := s.store.UpdateItem(ctx, it); err != nil {
				return item.Image{}, err
			}
		}
	}
	return img, nil
}

// DeleteImage removes a gallery entry and its local file. Deleting the
// primary image clears the item's image URL.
func (s *Service) DeleteImage(ctx context.Context, itemID, imageID int64) error {
	img, err := s.store.GetImage(ctx, imageID)
	if errors.Is(err, storage.ErrNotFound) {
		return apperr.NotFound("image %d not found", imageID)
	}
	if err != nil {
		return err
	}
	if img.ItemID != itemID {
		return apperr.NotFound("image %d not found", imageID)
	}

	if err := s.store.DeleteImage(ctx, imageID); err != nil {
		return err
	}
	if s.files != nil {
		s.removeFile(img.URL)
	}

	it, err := s.store.GetItem(ctx, itemID)
	if err != nil {
		return err
	}
	if it.ImageURL == img.URL {
		it.ImageURL = ""
		if remaining, err := s.store.ListImages(ctx, itemID); err == nil && len(remaining) > 0 {
			it.ImageURL = remaining[0].URL
		}
		if _, err := s.store.UpdateItem(ctx, it); err != nil {
			return err
		}
	}
	return nil
}

func (s *Service) decorateFavorites(ctx context.Context, items []item.Item, viewerID int64) ([]item.Item, error) {
	if viewerID == 0 || len(items) == 0 {
		return items, nil
	}
	favs, err := s.store.ListFavoriteItems(ctx, viewerID)
	if err != nil {
		return nil, err
	}
	favSet := make(map[int64]struct{}, len(favs))
	for _, f := range favs {
		favSet[f.ID] = struct{}{}
	}
	for i := range items {
		_, fav := favSet[items[i].ID]
		f := fav
		items[i].IsFavorite = &f
	}
	return items, nil
}

func (s *Service) removeFile(url string) {
	if url == "" {
		return
	}
	if err := s.files.Remove(url); err != nil {
		s.log.WithError(err).WithField("url", url).Warn("remove upload failed")
	}
}
