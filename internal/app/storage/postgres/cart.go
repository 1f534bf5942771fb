package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/trcstyle/backend/internal/app/domain/cart"
)

// --- CartStore ---------------------------------------------------------------

func (s *Store) UpsertCartItem(ctx context.Context, ci cart.Item) (cart.Item, error) {
	if ci.AddedAt.IsZero() {
		ci.AddedAt = time.Now().UTC()
	}
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO cart_items (user_id, variant_id, quantity, added_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_id, variant_id) DO UPDATE SET quantity = EXCLUDED.quantity
		RETURNING id, added_at
	`, ci.UserID, ci.VariantID, ci.Quantity, ci.AddedAt).Scan(&ci.ID, &ci.AddedAt)
	if err != nil {
		return cart.Item{}, mapErr(err)
	}
	return ci, nil
}

func (s *Store) GetCartItem(ctx context.Context, userID, variantID int64) (cart.Item, error) {
	var ci cart.Item
	err := s.db.QueryRowContext(ctx, `
		SELECT id, user_id, variant_id, quantity, added_at
		FROM cart_items
		WHERE user_id = $1 AND variant_id = $2
	`, userID, variantID).Scan(&ci.ID, &ci.UserID, &ci.VariantID, &ci.Quantity, &ci.AddedAt)
	if err != nil {
		return cart.Item{}, mapErr(err)
	}
	return ci, nil
}

func (s *Store) ListCartItems(ctx context.Context, userID int64) ([]cart.Item, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, variant_id, quantity, added_at
		FROM cart_items
		WHERE user_id = $1
		ORDER BY id
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []cart.Item
	for rows.Next() {
		var ci cart.Item
		if err := rows.Scan(&ci.ID, &ci.UserID, &ci.VariantID, &ci.Quantity, &ci.AddedAt); err != nil {
			return nil, err
		}
		result = append(result, ci)
	}
	return result, rows.Err()
}

func (s *Store) DeleteCartItem(ctx context.Context, userID, variantID int64) error {
	result, err := s.db.ExecContext(ctx, `
		DELETE FROM cart_items WHERE user_id = $1 AND variant_id = $2
	`, userID, variantID)
	if err != nil {
		return err
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return mapErr(sql.ErrNoRows)
	}
	return nil
}

func (s *Store) ClearCart(ctx context.Context, userID int64) error {
	_, err := s.db.ExecContext(ctx, `
		DELETE FROM cart_items WHERE user_id = $1
	`, userID)
	return err
}
