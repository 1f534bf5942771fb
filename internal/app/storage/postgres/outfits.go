package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/trcstyle/backend/internal/app/domain/outfit"
)

// --- OutfitStore -------------------------------------------------------------

func (s *Store) CreateOutfit(ctx context.Context, o outfit.Outfit) (outfit.Outfit, error) {
	now := time.Now().UTC()
	o.CreatedAt = now
	o.UpdatedAt = now

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return outfit.Outfit{}, err
	}
	defer tx.Rollback() //nolint:errcheck

	err = tx.QueryRowContext(ctx, `
		INSERT INTO outfits (name, style, description, collection, owner_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`, o.Name, o.Style, toNullString(o.Description), toNullString(o.Collection), o.OwnerID, o.CreatedAt, o.UpdatedAt).Scan(&o.ID)
	if err != nil {
		return outfit.Outfit{}, mapErr(err)
	}

	for _, m := range o.Members {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO outfit_items (outfit_id, item_id, category)
			VALUES ($1, $2, $3)
		`, o.ID, m.ItemID, string(m.Category)); err != nil {
			return outfit.Outfit{}, mapErr(err)
		}
	}
	if err := tx.Commit(); err != nil {
		return outfit.Outfit{}, err
	}
	return o, nil
}

func (s *Store) UpdateOutfit(ctx context.Context, o outfit.Outfit) (outfit.Outfit, error) {
	existing, err := s.GetOutfit(ctx, o.ID)
	if err != nil {
		return outfit.Outfit{}, err
	}
	o.OwnerID = existing.OwnerID
	o.CreatedAt = existing.CreatedAt
	o.UpdatedAt = time.Now().UTC()

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return outfit.Outfit{}, err
	}
	defer tx.Rollback() //nolint:errcheck

	result, err := tx.ExecContext(ctx, `
		UPDATE outfits
		SET name = $2, style = $3, description = $4, collection = $5, updated_at = $6
		WHERE id = $1
	`, o.ID, o.Name, o.Style, toNullString(o.Description), toNullString(o.Collection), o.UpdatedAt)
	if err != nil {
		return outfit.Outfit{}, mapErr(err)
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return outfit.Outfit{}, mapErr(sql.ErrNoRows)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM outfit_items WHERE outfit_id = $1`, o.ID); err != nil {
		return outfit.Outfit{}, err
	}
	for _, m := range o.Members {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO outfit_items (outfit_id, item_id, category)
			VALUES ($1, $2, $3)
		`, o.ID, m.ItemID, string(m.Category)); err != nil {
			return outfit.Outfit{}, mapErr(err)
		}
	}
	if err := tx.Commit(); err != nil {
		return outfit.Outfit{}, err
	}
	return o, nil
}

func (s *Store) GetOutfit(ctx context.Context, id int64) (outfit.Outfit, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, name, style, description, collection, owner_id, created_at, updated_at
		FROM outfits
		WHERE id = $1
	`, id)
	o, err := scanOutfit(row)
	if err != nil {
		return outfit.Outfit{}, mapErr(err)
	}
	if o.Members, err = s.listMembers(ctx, o.ID); err != nil {
		return outfit.Outfit{}, err
	}
	return o, nil
}

func (s *Store) ListOutfits(ctx context.Context, f outfit.Filter) ([]outfit.Outfit, error) {
	var (
		where []string
		args  []interface{}
	)
	arg := func(v interface{}) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if f.OwnerID != 0 {
		where = append(where, "owner_id = "+arg(f.OwnerID))
	}
	if f.Query != "" {
		p := arg("%" + f.Query + "%")
		where = append(where, fmt.Sprintf("(name ILIKE %s OR description ILIKE %s OR style ILIKE %s)", p, p, p))
	}
	if f.Style != "" {
		where = append(where, "lower(style) = lower("+arg(f.Style)+")")
	}
	if f.Collection != "" {
		where = append(where, "lower(collection) = lower("+arg(f.Collection)+")")
	}

	query := `
		SELECT id, name, style, description, collection, owner_id, created_at, updated_at
		FROM outfits
	`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY created_at DESC, id DESC"

	limit := f.Limit
	if limit <= 0 {
		limit = 100
	}
	query += " OFFSET " + arg(f.Offset) + " LIMIT " + arg(limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return s.scanOutfitsWithMembers(ctx, rows)
}

func (s *Store) ListOutfitsByOwner(ctx context.Context, ownerID int64) ([]outfit.Outfit, error) {
	return s.ListOutfits(ctx, outfit.Filter{OwnerID: ownerID})
}

func (s *Store) ListTrendingOutfits(ctx context.Context, since time.Time, limit int) ([]outfit.Outfit, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT o.id, o.name, o.style, o.description, o.collection, o.owner_id, o.created_at, o.updated_at
		FROM outfits o
		ORDER BY (
			SELECT count(*) FROM user_outfit_views v
			WHERE v.outfit_id = o.id AND v.viewed_at > $1
		) DESC, o.id
		LIMIT $2
	`, since, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return s.scanOutfitsWithMembers(ctx, rows)
}

func (s *Store) DeleteOutfit(ctx context.Context, id int64) error {
	result, err := s.db.ExecContext(ctx, `
		DELETE FROM outfits WHERE id = $1
	`, id)
	if err != nil {
		return err
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return mapErr(sql.ErrNoRows)
	}
	return nil
}

func (s *Store) ToggleFavoriteOutfit(ctx context.Context, userID, outfitID int64) (bool, error) {
	result, err := s.db.ExecContext(ctx, `
		DELETE FROM user_favorite_outfits WHERE user_id = $1 AND outfit_id = $2
	`, userID, outfitID)
	if err != nil {
		return false, err
	}
	if rows, _ := result.RowsAffected(); rows > 0 {
		return false, nil
	}
	if _, err := s.db.ExecContext(ctx, `
		INSERT INTO user_favorite_outfits (user_id, outfit_id) VALUES ($1, $2)
	`, userID, outfitID); err != nil {
		return false, mapErr(err)
	}
	return true, nil
}

func (s *Store) ListFavoriteOutfits(ctx context.Context, userID int64) ([]outfit.Outfit, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT o.id, o.name, o.style, o.description, o.collection, o.owner_id, o.created_at, o.updated_at
		FROM outfits o
		JOIN user_favorite_outfits f ON f.outfit_id = o.id
		WHERE f.user_id = $1
		ORDER BY o.id
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return s.scanOutfitsWithMembers(ctx, rows)
}

func (s *Store) RecordOutfitView(ctx context.Context, userID, outfitID int64, at time.Time) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO user_outfit_views (user_id, outfit_id, viewed_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id, outfit_id) DO UPDATE SET viewed_at = EXCLUDED.viewed_at
	`, userID, outfitID, at)
	return mapErr(err)
}

func (s *Store) ListViewedOutfits(ctx context.Context, userID int64, limit int) ([]outfit.Outfit, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT o.id, o.name, o.style, o.description, o.collection, o.owner_id, o.created_at, o.updated_at
		FROM outfits o
		JOIN user_outfit_views v ON v.outfit_id = o.id
		WHERE v.user_id = $1
		ORDER BY v.viewed_at DESC
		LIMIT $2
	`, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return s.scanOutfitsWithMembers(ctx, rows)
}

func (s *Store) ClearOutfitViews(ctx context.Context, userID int64) error {
	_, err := s.db.ExecContext(ctx, `
		DELETE FROM user_outfit_views WHERE user_id = $1
	`, userID)
	return err
}

func (s *Store) listMembers(ctx context.Context, outfitID int64) ([]outfit.Member, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT item_id, category
		FROM outfit_items
		WHERE outfit_id = $1
		ORDER BY item_id
	`, outfitID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var members []outfit.Member
	for rows.Next() {
		var (
			m   outfit.Member
			cat string
		)
		if err := rows.Scan(&m.ItemID, &cat); err != nil {
			return nil, err
		}
		m.Category = outfit.Category(cat)
		members = append(members, m)
	}
	return members, rows.Err()
}

func scanOutfit(row rowScanner) (outfit.Outfit, error) {
	var (
		o                       outfit.Outfit
		description, collection sql.NullString
	)
	err := row.Scan(&o.ID, &o.Name, &o.Style, &description, &collection, &o.OwnerID, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return outfit.Outfit{}, err
	}
	o.Description = fromNullString(description)
	o.Collection = fromNullString(collection)
	return o, nil
}

func (s *Store) scanOutfitsWithMembers(ctx context.Context, rows *sql.Rows) ([]outfit.Outfit, error) {
	var result []outfit.Outfit
	for rows.Next() {
		o, err := scanOutfit(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, o)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for i := range result {
		members, err := s.listMembers(ctx, result[i].ID)
		if err != nil {
			return nil, err
		}
		result[i].Members = members
	}
	return result, nil
}
