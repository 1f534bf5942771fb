package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/trcstyle/backend/internal/app/domain/item"
)

// --- ItemStore ---------------------------------------------------------------

const itemColumns = `
	id, name, brand, color, size, clothing_type, description, price,
	category, article, style, collection, image_url,
	source, source_sku, source_url, old_price, created_at, updated_at
`

func (s *Store) CreateItem(ctx context.Context, it item.Item) (item.Item, error) {
	now := time.Now().UTC()
	it.CreatedAt = now
	it.UpdatedAt = now

	err := s.db.QueryRowContext(ctx, `
		INSERT INTO items (
			name, brand, color, size, clothing_type, description, price,
			category, article, style, collection, image_url,
			source, source_sku, source_url, old_price, created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
		RETURNING id
	`,
		it.Name, toNullString(it.Brand), toNullString(it.Color), toNullString(it.Size),
		toNullString(it.ClothingType), toNullString(it.Description), toNullFloat(it.Price),
		toNullString(it.Category), toNullString(it.Article), toNullString(it.Style),
		toNullString(it.Collection), toNullString(it.ImageURL),
		toNullString(it.Source), toNullString(it.SourceSKU), toNullString(it.SourceURL),
		toNullFloat(it.OldPrice), it.CreatedAt, it.UpdatedAt,
	).Scan(&it.ID)
	if err != nil {
		return item.Item{}, mapErr(err)
	}
	return it, nil
}

func (s *Store) UpdateItem(ctx context.Context, it item.Item) (item.Item, error) {
	existing, err := s.GetItem(ctx, it.ID)
	if err != nil {
		return item.Item{}, err
	}
	it.CreatedAt = existing.CreatedAt
	it.UpdatedAt = time.Now().UTC()

	result, err := s.db.ExecContext(ctx, `
		UPDATE items
		SET name = $2, brand = $3, color = $4, size = $5, clothing_type = $6,
			description = $7, price = $8, category = $9, article = $10,
			style = $11, collection = $12, image_url = $13,
			source = $14, source_sku = $15, source_url = $16, old_price = $17,
			updated_at = $18
		WHERE id = $1
	`,
		it.ID, it.Name, toNullString(it.Brand), toNullString(it.Color), toNullString(it.Size),
		toNullString(it.ClothingType), toNullString(it.Description), toNullFloat(it.Price),
		toNullString(it.Category), toNullString(it.Article), toNullString(it.Style),
		toNullString(it.Collection), toNullString(it.ImageURL),
		toNullString(it.Source), toNullString(it.SourceSKU), toNullString(it.SourceURL),
		toNullFloat(it.OldPrice), it.UpdatedAt,
	)
	if err != nil {
		return item.Item{}, mapErr(err)
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return item.Item{}, mapErr(sql.ErrNoRows)
	}
	return it, nil
}

func (s *Store) GetItem(ctx context.Context, id int64) (item.Item, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+itemColumns+`
		FROM items
		WHERE id = $1
	`, id)
	it, err := scanItem(row)
	if err != nil {
		return item.Item{}, mapErr(err)
	}
	return it, nil
}

func (s *Store) GetItemBySourceSKU(ctx context.Context, source, sku string) (item.Item, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+itemColumns+`
		FROM items
		WHERE source = $1 AND source_sku = $2
	`, source, sku)
	it, err := scanItem(row)
	if err != nil {
		return item.Item{}, mapErr(err)
	}
	return it, nil
}

func (s *Store) ListItems(ctx context.Context, f item.Filter) ([]item.Item, error) {
	var (
		where []string
		args  []interface{}
	)
	arg := func(v interface{}) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if f.Query != "" {
		p := arg("%" + f.Query + "%")
		where = append(where, fmt.Sprintf("(name ILIKE %s OR description ILIKE %s OR brand ILIKE %s)", p, p, p))
	}
	if f.Category != "" {
		where = append(where, "lower(category) = lower("+arg(f.Category)+")")
	}
	if f.Style != "" {
		where = append(where, "lower(style) = lower("+arg(f.Style)+")")
	}
	if f.Collection != "" {
		where = append(where, "lower(collection) = lower("+arg(f.Collection)+")")
	}
	if f.ClothingType != "" {
		where = append(where, "lower(clothing_type) = lower("+arg(f.ClothingType)+")")
	}
	if f.Size != "" {
		where = append(where, "lower(size) = lower("+arg(f.Size)+")")
	}
	if f.MinPrice != nil {
		where = append(where, "price >= "+arg(*f.MinPrice))
	}
	if f.MaxPrice != nil {
		where = append(where, "price <= "+arg(*f.MaxPrice))
	}

	query := `SELECT ` + itemColumns + ` FROM items`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}

	switch f.SortBy {
	case "price_asc":
		query += " ORDER BY price ASC NULLS LAST, id"
	case "price_desc":
		query += " ORDER BY price DESC NULLS LAST, id"
	default:
		query += " ORDER BY created_at DESC, id DESC"
	}

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
	return scanItems(rows)
}

func (s *Store) ListItemsByIDs(ctx context.Context, ids []int64) ([]item.Item, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	query, args, err := sqlx.In(`
		SELECT `+itemColumns+`
		FROM items
		WHERE id IN (?)
	`, ids)
	if err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx, s.db.Rebind(query), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanItems(rows)
}

func (s *Store) ListSimilarItems(ctx context.Context, id int64, limit int) ([]item.Item, error) {
	base, err := s.GetItem(ctx, id)
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 10
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+itemColumns+`
		FROM items
		WHERE id <> $1
			AND lower(coalesce(category, '')) = lower($2)
			AND lower(coalesce(style, '')) = lower($3)
		ORDER BY created_at DESC
		LIMIT $4
	`, id, base.Category, base.Style, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanItems(rows)
}

func (s *Store) ListTrendingItems(ctx context.Context, limit int) ([]item.Item, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+itemColumns+`
		FROM items i
		ORDER BY (
			SELECT count(*) FROM user_favorite_items f WHERE f.item_id = i.id
		) DESC, i.id
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanItems(rows)
}

func (s *Store) ListCollectionNames(ctx context.Context) ([]string, error) {
	var names []string
	err := s.db.SelectContext(ctx, &names, `
		SELECT DISTINCT collection
		FROM items
		WHERE collection IS NOT NULL AND collection <> ''
		ORDER BY collection
	`)
	if err != nil {
		return nil, err
	}
	return names, nil
}

func (s *Store) DeleteItem(ctx context.Context, id int64) error {
	result, err := s.db.ExecContext(ctx, `
		DELETE FROM items WHERE id = $1
	`, id)
	if err != nil {
		return err
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return mapErr(sql.ErrNoRows)
	}
	return nil
}

func scanItem(row rowScanner) (item.Item, error) {
	var (
		it                               item.Item
		brand, color, size, clothingType sql.NullString
		description, category, article   sql.NullString
		style, collection, imageURL      sql.NullString
		source, sourceSKU, sourceURL     sql.NullString
		price, oldPrice                  sql.NullFloat64
	)
	err := row.Scan(
		&it.ID, &it.Name, &brand, &color, &size, &clothingType, &description, &price,
		&category, &article, &style, &collection, &imageURL,
		&source, &sourceSKU, &sourceURL, &oldPrice, &it.CreatedAt, &it.UpdatedAt,
	)
	if err != nil {
		return item.Item{}, err
	}
	it.Brand = fromNullString(brand)
	it.Color = fromNullString(color)
	it.Size = fromNullString(size)
	it.ClothingType = fromNullString(clothingType)
	it.Description = fromNullString(description)
	it.Price = fromNullFloat(price)
	it.Category = fromNullString(category)
	it.Article = fromNullString(article)
	it.Style = fromNullString(style)
	it.Collection = fromNullString(collection)
	it.ImageURL = fromNullString(imageURL)
	it.Source = fromNullString(source)
	it.SourceSKU = fromNullString(sourceSKU)
	it.SourceURL = fromNullString(sourceURL)
	it.OldPrice = fromNullFloat(oldPrice)
	return it, nil
}

func scanItems(rows *sql.Rows) ([]item.Item, error) {
	var result []item.Item
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, it)
	}
	return result, rows.Err()
}

// --- variants ----------------------------------------------------------------

func (s *Store) CreateVariant(ctx context.Context, v item.Variant) (item.Variant, error) {
	now := time.Now().UTC()
	v.CreatedAt = now
	v.UpdatedAt = now

	err := s.db.QueryRowContext(ctx, `
		INSERT INTO item_variants (item_id, size, color, sku, stock, price, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id
	`,
		v.ItemID, toNullString(v.Size), toNullString(v.Color), toNullString(v.SKU),
		v.Stock, toNullFloat(v.Price), v.CreatedAt, v.UpdatedAt,
	).Scan(&v.ID)
	if err != nil {
		return item.Variant{}, mapErr(err)
	}
	return v, nil
}

func (s *Store) UpdateVariant(ctx context.Context, v item.Variant) (item.Variant, error) {
	existing, err := s.GetVariant(ctx, v.ID)
	if err != nil {
		return item.Variant{}, err
	}
	v.ItemID = existing.ItemID
	v.CreatedAt = existing.CreatedAt
	v.UpdatedAt = time.Now().UTC()

	result, err := s.db.ExecContext(ctx, `
		UPDATE item_variants
		SET size = $2, color = $3, sku = $4, stock = $5, price = $6, updated_at = $7
		WHERE id = $1
	`, v.ID, toNullString(v.Size), toNullString(v.Color), toNullString(v.SKU), v.Stock, toNullFloat(v.Price), v.UpdatedAt)
	if err != nil {
		return item.Variant{}, mapErr(err)
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return item.Variant{}, mapErr(sql.ErrNoRows)
	}
	return v, nil
}

func (s *Store) GetVariant(ctx context.Context, id int64) (item.Variant, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, item_id, size, color, sku, stock, price, created_at, updated_at
		FROM item_variants
		WHERE id = $1
	`, id)
	v, err := scanVariant(row)
	if err != nil {
		return item.Variant{}, mapErr(err)
	}
	return v, nil
}

func (s *Store) ListVariants(ctx context.Context, itemID int64) ([]item.Variant, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, item_id, size, color, sku, stock, price, created_at, updated_at
		FROM item_variants
		WHERE item_id = $1
		ORDER BY id
	`, itemID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []item.Variant
	for rows.Next() {
		v, err := scanVariant(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, v)
	}
	return result, rows.Err()
}

func (s *Store) DeleteVariant(ctx context.Context, id int64) error {
	result, err := s.db.ExecContext(ctx, `
		DELETE FROM item_variants WHERE id = $1
	`, id)
	if err != nil {
		return err
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return mapErr(sql.ErrNoRows)
	}
	return nil
}

func scanVariant(row rowScanner) (item.Variant, error) {
	var (
		v                item.Variant
		size, color, sku sql.NullString
		price            sql.NullFloat64
	)
	err := row.Scan(&v.ID, &v.ItemID, &size, &color, &sku, &v.Stock, &price, &v.CreatedAt, &v.UpdatedAt)
	if err != nil {
		return item.Variant{}, err
	}
	v.Size = fromNullString(size)
	v.Color = fromNullString(color)
	v.SKU = fromNullString(sku)
	v.Price = fromNullFloat(price)
	return v, nil
}

// --- images ------------------------------------------------------------------

func (s *Store) CreateImage(ctx context.Context, img item.Image) (item.Image, error) {
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO item_images (item_id, image_url, position)
		VALUES ($1, $2, $3)
		RETURNING id
	`, img.ItemID, img.URL, img.Position).Scan(&img.ID)
	if err != nil {
		return item.Image{}, mapErr(err)
	}
	return img, nil
}

func (s *Store) GetImage(ctx context.Context, id int64) (item.Image, error) {
	var img item.Image
	err := s.db.QueryRowContext(ctx, `
		SELECT id, item_id, image_url, position
		FROM item_images
		WHERE id = $1
	`, id).Scan(&img.ID, &img.ItemID, &img.URL, &img.Position)
	if err != nil {
		return item.Image{}, mapErr(err)
	}
	return img, nil
}

func (s *Store) ListImages(ctx context.Context, itemID int64) ([]item.Image, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, item_id, image_url, position
		FROM item_images
		WHERE item_id = $1
		ORDER BY position, id
	`, itemID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []item.Image
	for rows.Next() {
		var img item.Image
		if err := rows.Scan(&img.ID, &img.ItemID, &img.URL, &img.Position); err != nil {
			return nil, err
		}
		result = append(result, img)
	}
	return result, rows.Err()
}

func (s *Store) DeleteImage(ctx context.Context, id int64) error {
	result, err := s.db.ExecContext(ctx, `
		DELETE FROM item_images WHERE id = $1
	`, id)
	if err != nil {
		return err
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return mapErr(sql.ErrNoRows)
	}
	return nil
}

// --- favorites and views -----------------------------------------------------

func (s *Store) ToggleFavoriteItem(ctx context.Context, userID, itemID int64) (bool, error) {
	result, err := s.db.ExecContext(ctx, `
		DELETE FROM user_favorite_items WHERE user_id = $1 AND item_id = $2
	`, userID, itemID)
	if err != nil {
		return false, err
	}
	if rows, _ := result.RowsAffected(); rows > 0 {
		return false, nil
	}
	if _, err := s.db.ExecContext(ctx, `
		INSERT INTO user_favorite_items (user_id, item_id) VALUES ($1, $2)
	`, userID, itemID); err != nil {
		return false, mapErr(err)
	}
	return true, nil
}

func (s *Store) ListFavoriteItems(ctx context.Context, userID int64) ([]item.Item, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+prefixedItemColumns("i")+`
		FROM items i
		JOIN user_favorite_items f ON f.item_id = i.id
		WHERE f.user_id = $1
		ORDER BY i.id
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanItems(rows)
}

func (s *Store) IsFavoriteItem(ctx context.Context, userID, itemID int64) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM user_favorite_items WHERE user_id = $1 AND item_id = $2
		)
	`, userID, itemID).Scan(&exists)
	return exists, err
}

func (s *Store) RecordItemView(ctx context.Context, userID, itemID int64, at time.Time) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO user_item_views (user_id, item_id, viewed_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id, item_id) DO UPDATE SET viewed_at = EXCLUDED.viewed_at
	`, userID, itemID, at)
	return mapErr(err)
}

func (s *Store) ListViewedItems(ctx context.Context, userID int64, limit int) ([]item.Item, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+prefixedItemColumns("i")+`
		FROM items i
		JOIN user_item_views v ON v.item_id = i.id
		WHERE v.user_id = $1
		ORDER BY v.viewed_at DESC
		LIMIT $2
	`, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanItems(rows)
}

func (s *Store) ClearItemViews(ctx context.Context, userID int64) error {
	_, err := s.db.ExecContext(ctx, `
		DELETE FROM user_item_views WHERE user_id = $1
	`, userID)
	return err
}

func prefixedItemColumns(alias string) string {
	cols := strings.Split(itemColumns, ",")
	for i, c := range cols {
		cols[i] = alias + "." + strings.TrimSpace(c)
	}
	return strings.Join(cols, ", ")
}
