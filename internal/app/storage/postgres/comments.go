package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/trcstyle/backend/internal/app/domain/comment"
	"github.com/trcstyle/backend/internal/app/storage"
)

// --- CommentStore ------------------------------------------------------------

const commentColumns = `
	c.id, c.user_id, c.item_id, c.outfit_id, c.content, c.rating,
	c.created_at, c.updated_at,
	(SELECT count(*) FROM comment_likes l WHERE l.comment_id = c.id),
	coalesce(nullif(trim(concat(u.first_name, ' ', u.last_name)), ''), u.email)
`

func (s *Store) CreateComment(ctx context.Context, c comment.Comment) (comment.Comment, error) {
	now := time.Now().UTC()
	c.CreatedAt = now
	c.UpdatedAt = now

	var itemID, outfitID sql.NullInt64
	if c.ItemID != 0 {
		itemID = sql.NullInt64{Int64: c.ItemID, Valid: true}
	}
	if c.OutfitID != 0 {
		outfitID = sql.NullInt64{Int64: c.OutfitID, Valid: true}
	}

	err := s.db.QueryRowContext(ctx, `
		INSERT INTO comments (user_id, item_id, outfit_id, content, rating, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`, c.UserID, itemID, outfitID, c.Content, toNullInt(c.Rating), c.CreatedAt, c.UpdatedAt).Scan(&c.ID)
	if err != nil {
		return comment.Comment{}, mapErr(err)
	}
	return c, nil
}

func (s *Store) GetComment(ctx context.Context, id int64) (comment.Comment, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+commentColumns+`
		FROM comments c
		JOIN users u ON u.id = c.user_id
		WHERE c.id = $1
	`, id)
	c, err := scanComment(row)
	if err != nil {
		return comment.Comment{}, mapErr(err)
	}
	return c, nil
}

func (s *Store) ListItemComments(ctx context.Context, itemID int64) ([]comment.Comment, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+commentColumns+`
		FROM comments c
		JOIN users u ON u.id = c.user_id
		WHERE c.item_id = $1
		ORDER BY c.id DESC
	`, itemID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanComments(rows)
}

func (s *Store) ListOutfitComments(ctx context.Context, outfitID int64) ([]comment.Comment, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+commentColumns+`
		FROM comments c
		JOIN users u ON u.id = c.user_id
		WHERE c.outfit_id = $1
		ORDER BY c.id DESC
	`, outfitID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanComments(rows)
}

func (s *Store) DeleteComment(ctx context.Context, id int64) error {
	result, err := s.db.ExecContext(ctx, `
		DELETE FROM comments WHERE id = $1
	`, id)
	if err != nil {
		return err
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return mapErr(sql.ErrNoRows)
	}
	return nil
}

func (s *Store) ToggleCommentLike(ctx context.Context, userID, commentID int64) (bool, error) {
	result, err := s.db.ExecContext(ctx, `
		DELETE FROM comment_likes WHERE user_id = $1 AND comment_id = $2
	`, userID, commentID)
	if err != nil {
		return false, err
	}
	if rows, _ := result.RowsAffected(); rows > 0 {
		return false, nil
	}
	if _, err := s.db.ExecContext(ctx, `
		INSERT INTO comment_likes (user_id, comment_id) VALUES ($1, $2)
	`, userID, commentID); err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23503" {
			return false, fmt.Errorf("comment %d: %w", commentID, storage.ErrNotFound)
		}
		return false, mapErr(err)
	}
	return true, nil
}

func scanComment(row rowScanner) (comment.Comment, error) {
	var (
		c                comment.Comment
		itemID, outfitID sql.NullInt64
		rating           sql.NullInt64
	)
	err := row.Scan(&c.ID, &c.UserID, &itemID, &outfitID, &c.Content, &rating,
		&c.CreatedAt, &c.UpdatedAt, &c.Likes, &c.UserName)
	if err != nil {
		return comment.Comment{}, err
	}
	if itemID.Valid {
		c.ItemID = itemID.Int64
	}
	if outfitID.Valid {
		c.OutfitID = outfitID.Int64
	}
	c.Rating = fromNullInt(rating)
	return c, nil
}

func scanComments(rows *sql.Rows) ([]comment.Comment, error) {
	var result []comment.Comment
	for rows.Next() {
		c, err := scanComment(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, c)
	}
	return result, rows.Err()
}
