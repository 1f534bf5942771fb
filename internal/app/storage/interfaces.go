package storage

import (
	"context"
	"time"

	"github.com/trcstyle/backend/internal/app/domain/cart"
	"github.com/trcstyle/backend/internal/app/domain/comment"
	"github.com/trcstyle/backend/internal/app/domain/item"
	"github.com/trcstyle/backend/internal/app/domain/job"
	"github.com/trcstyle/backend/internal/app/domain/outfit"
	"github.com/trcstyle/backend/internal/app/domain/user"
)

// UserStore persists accounts and the per-user preference lists.
type UserStore interface {
	CreateUser(ctx context.Context, u user.User) (user.User, error)
	UpdateUser(ctx context.Context, u user.User) (user.User, error)
	GetUser(ctx context.Context, id int64) (user.User, error)
	GetUserByEmail(ctx context.Context, email string) (user.User, error)
	ListUsers(ctx context.Context, offset, limit int) ([]user.User, error)
	DeleteUser(ctx context.Context, id int64) error
}

// ItemStore persists catalog items, their variants and image galleries, and
// the per-user favorite and view relations.
type ItemStore interface {
	CreateItem(ctx context.Context, it item.Item) (item.Item, error)
	UpdateItem(ctx context.Context, it item.Item) (item.Item, error)
	GetItem(ctx context.Context, id int64) (item.Item, error)
	GetItemBySourceSKU(ctx context.Context, source, sku string) (item.Item, error)
	ListItems(ctx context.Context, f item.Filter) ([]item.Item, error)
	ListItemsByIDs(ctx context.Context, ids []int64) ([]item.Item, error)
	ListSimilarItems(ctx context.Context, id int64, limit int) ([]item.Item, error)
	ListTrendingItems(ctx context.Context, limit int) ([]item.Item, error)
	ListCollectionNames(ctx context.Context) ([]string, error)
	DeleteItem(ctx context.Context, id int64) error

	CreateVariant(ctx context.Context, v item.Variant) (item.Variant, error)
	UpdateVariant(ctx context.Context, v item.Variant) (item.Variant, error)
	GetVariant(ctx context.Context, id int64) (item.Variant, error)
	ListVariants(ctx context.Context, itemID int64) ([]item.Variant, error)
	DeleteVariant(ctx context.Context, id int64) error

	CreateImage(ctx context.Context, img item.Image) (item.Image, error)
	GetImage(ctx context.Context, id int64) (item.Image, error)
	ListImages(ctx context.Context, itemID int64) ([]item.Image, error)
	DeleteImage(ctx context.Context, id int64) error

	ToggleFavoriteItem(ctx context.Context, userID, itemID int64) (bool, error)
	ListFavoriteItems(ctx context.Context, userID int64) ([]item.Item, error)
	IsFavoriteItem(ctx context.Context, userID, itemID int64) (bool, error)

	RecordItemView(ctx context.Context, userID, itemID int64, at time.Time) error
	ListViewedItems(ctx context.Context, userID int64, limit int) ([]item.Item, error)
	ClearItemViews(ctx context.Context, userID int64) error
}

// OutfitStore persists outfits, their slot membership, and the per-user
// favorite and view relations.
type OutfitStore interface {
	CreateOutfit(ctx context.Context, o outfit.Outfit) (outfit.Outfit, error)
	UpdateOutfit(ctx context.Context, o outfit.Outfit) (outfit.Outfit, error)
	GetOutfit(ctx context.Context, id int64) (outfit.Outfit, error)
	ListOutfits(ctx context.Context, f outfit.Filter) ([]outfit.Outfit, error)
	ListOutfitsByOwner(ctx context.Context, ownerID int64) ([]outfit.Outfit, error)
	ListTrendingOutfits(ctx context.Context, since time.Time, limit int) ([]outfit.Outfit, error)
	DeleteOutfit(ctx context.Context, id int64) error

	ToggleFavoriteOutfit(ctx context.Context, userID, outfitID int64) (bool, error)
	ListFavoriteOutfits(ctx context.Context, userID int64) ([]outfit.Outfit, error)

	RecordOutfitView(ctx context.Context, userID, outfitID int64, at time.Time) error
	ListViewedOutfits(ctx context.Context, userID int64, limit int) ([]outfit.Outfit, error)
	ClearOutfitViews(ctx context.Context, userID int64) error
}

// CommentStore persists comments and their like relation.
type CommentStore interface {
	CreateComment(ctx context.Context, c comment.Comment) (comment.Comment, error)
	GetComment(ctx context.Context, id int64) (comment.Comment, error)
	ListItemComments(ctx context.Context, itemID int64) ([]comment.Comment, error)
	ListOutfitComments(ctx context.Context, outfitID int64) ([]comment.Comment, error)
	DeleteComment(ctx context.Context, id int64) error

	ToggleCommentLike(ctx context.Context, userID, commentID int64) (bool, error)
}

// CartStore persists cart rows keyed by (user, variant).
type CartStore interface {
	UpsertCartItem(ctx context.Context, ci cart.Item) (cart.Item, error)
	GetCartItem(ctx context.Context, userID, variantID int64) (cart.Item, error)
	ListCartItems(ctx context.Context, userID int64) ([]cart.Item, error)
	DeleteCartItem(ctx context.Context, userID, variantID int64) error
	ClearCart(ctx context.Context, userID int64) error
}

// JobStore persists background job records.
type JobStore interface {
	CreateJob(ctx context.Context, j job.Job) (job.Job, error)
	UpdateJob(ctx context.Context, j job.Job) (job.Job, error)
	GetJob(ctx context.Context, id string) (job.Job, error)
	ListJobs(ctx context.Context, kind job.Kind, limit int) ([]job.Job, error)
}
