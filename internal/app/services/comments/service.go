// Package comments manages user feedback on items and outfits.
package comments

import (
	"context"
	"errors"
	"strings"

	"github.com/trcstyle/backend/internal/app/apperr"
	"github.com/trcstyle/backend/internal/app/domain/comment"
	"github.com/trcstyle/backend/internal/app/storage"
	"github.com/trcstyle/backend/pkg/logger"
)

// Service manages comments and their likes.
type Service struct {
	store   storage.CommentStore
	items   storage.ItemStore
	outfits storage.OutfitStore
	log     *logger.Logger
}

// New constructs a comments service.
func New(store storage.CommentStore, items storage.ItemStore, outfits storage.OutfitStore, log *logger.Logger) *Service {
	if log == nil {
		log = logger.NewDefault("comments")
	}
	return &Service{store: store, items: items, outfits: outfits, log: log}
}

// AddToItem attaches a comment to an item.
func (s *Service) AddToItem(ctx context.Context, userID, itemID int64, content string, rating *int) (comment.Comment, error) {
	if _, err := s.items.GetItem(ctx, itemID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return comment.Comment{}, apperr.NotFound("item %d not found", itemID)
		}
		return comment.Comment{}, err
	}
	return s.create(ctx, comment.Comment{UserID: userID, ItemID: itemID, Content: content, Rating: rating})
}

// AddToOutfit attaches a comment to an outfit.
func (s *Service) AddToOutfit(ctx context.Context, userID, outfitID int64, content string, rating *int) (comment.Comment, error) {
	if _, err := s.outfits.GetOutfit(ctx, outfitID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return comment.Comment{}, apperr.NotFound("outfit %d not found", outfitID)
		}
		return comment.Comment{}, err
	}
	return s.create(ctx, comment.Comment{UserID: userID, OutfitID: outfitID, Content: content, Rating: rating})
}

func (s *Service) create(ctx context.Context, c comment.Comment) (comment.Comment, error) {
	c.Content = strings.TrimSpace(c.Content)
	if c.Content == "" {
		return comment.Comment{}, apperr.BadRequest("content is required")
	}
	if c.Rating != nil && (*c.Rating < 1 || *c.Rating > 5) {
		return comment.Comment{}, apperr.BadRequest("rating must be between 1 and 5")
	}
	created, err := s.store.CreateComment(ctx, c)
	if err != nil {
		return comment.Comment{}, err
	}
	return s.store.GetComment(ctx, created.ID)
}

// ListForItem returns an item's comments, newest first.
func (s *Service) ListForItem(ctx context.Context, itemID int64) ([]comment.Comment, error) {
	return s.store.ListItemComments(ctx, itemID)
}

// ListForOutfit returns an outfit's comments, newest first.
func (s *Service) ListForOutfit(ctx context.Context, outfitID int64) ([]comment.Comment, error) {
	return s.store.ListOutfitComments(ctx, outfitID)
}

// ToggleLike flips the caller's like on a comment and reports the new state.
func (s *Service) ToggleLike(ctx context.Context, userID, commentID int64) (bool, error) {
	liked, err := s.store.ToggleCommentLike(ctx, userID, commentID)
	if errors.Is(err, storage.ErrNotFound) {
		return false, apperr.NotFound("comment %d not found", commentID)
	}
	return liked, err
}

// Delete removes a comment. Only its author or an admin may delete it.
func (s *Service) Delete(ctx context.Context, commentID, requesterID int64, isAdmin bool) error {
	c, err := s.store.GetComment(ctx, commentID)
	if errors.Is(err, storage.ErrNotFound) {
		return apperr.NotFound("comment %d not found", commentID)
	}
	if err != nil {
		return err
	}
	if !isAdmin && c.UserID != requesterID {
		return apperr.Forbidden("not the author of this comment")
	}
	return s.store.DeleteComment(ctx, commentID)
}
