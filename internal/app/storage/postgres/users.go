package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/trcstyle/backend/internal/app/domain/user"
)

// --- UserStore ---------------------------------------------------------------

const userColumns = `
	id, email, hashed_password, is_active, is_admin, avatar,
	first_name, last_name, phone_number, date_of_birth,
	height, weight, chest, waist, hips, created_at, updated_at
`

func (s *Store) CreateUser(ctx context.Context, u user.User) (user.User, error) {
	now := time.Now().UTC()
	u.CreatedAt = now
	u.UpdatedAt = now

	err := s.db.QueryRowContext(ctx, `
		INSERT INTO users (
			email, hashed_password, is_active, is_admin, avatar,
			first_name, last_name, phone_number, date_of_birth,
			height, weight, chest, waist, hips, created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
		RETURNING id
	`,
		u.Email, u.HashedPassword, u.IsActive, u.IsAdmin, toNullString(u.Avatar),
		toNullString(u.FirstName), toNullString(u.LastName), toNullString(u.PhoneNumber), toNullTime(u.DateOfBirth),
		toNullFloat(u.Height), toNullFloat(u.Weight), toNullFloat(u.Chest), toNullFloat(u.Waist), toNullFloat(u.Hips),
		u.CreatedAt, u.UpdatedAt,
	).Scan(&u.ID)
	if err != nil {
		return user.User{}, mapErr(err)
	}

	if err := s.replacePreferences(ctx, u.ID, "colors", u.FavoriteColors); err != nil {
		return user.User{}, err
	}
	if err := s.replacePreferences(ctx, u.ID, "brands", u.FavoriteBrands); err != nil {
		return user.User{}, err
	}
	return u, nil
}

func (s *Store) UpdateUser(ctx context.Context, u user.User) (user.User, error) {
	existing, err := s.GetUser(ctx, u.ID)
	if err != nil {
		return user.User{}, err
	}

	u.CreatedAt = existing.CreatedAt
	u.UpdatedAt = time.Now().UTC()

	result, err := s.db.ExecContext(ctx, `
		UPDATE users
		SET email = $2, hashed_password = $3, is_active = $4, is_admin = $5,
			avatar = $6, first_name = $7, last_name = $8, phone_number = $9,
			date_of_birth = $10, height = $11, weight = $12, chest = $13,
			waist = $14, hips = $15, updated_at = $16
		WHERE id = $1
	`,
		u.ID, u.Email, u.HashedPassword, u.IsActive, u.IsAdmin,
		toNullString(u.Avatar), toNullString(u.FirstName), toNullString(u.LastName), toNullString(u.PhoneNumber),
		toNullTime(u.DateOfBirth), toNullFloat(u.Height), toNullFloat(u.Weight), toNullFloat(u.Chest),
		toNullFloat(u.Waist), toNullFloat(u.Hips), u.UpdatedAt,
	)
	if err != nil {
		return user.User{}, mapErr(err)
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return user.User{}, mapErr(sql.ErrNoRows)
	}

	if err := s.replacePreferences(ctx, u.ID, "colors", u.FavoriteColors); err != nil {
		return user.User{}, err
	}
	if err := s.replacePreferences(ctx, u.ID, "brands", u.FavoriteBrands); err != nil {
		return user.User{}, err
	}
	return u, nil
}

func (s *Store) GetUser(ctx context.Context, id int64) (user.User, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+userColumns+`
		FROM users
		WHERE id = $1
	`, id)
	u, err := scanUser(row)
	if err != nil {
		return user.User{}, mapErr(err)
	}
	return s.attachPreferences(ctx, u)
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (user.User, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+userColumns+`
		FROM users
		WHERE lower(email) = lower($1)
	`, email)
	u, err := scanUser(row)
	if err != nil {
		return user.User{}, mapErr(err)
	}
	return s.attachPreferences(ctx, u)
}

func (s *Store) ListUsers(ctx context.Context, offset, limit int) ([]user.User, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+userColumns+`
		FROM users
		ORDER BY id
		OFFSET $1 LIMIT $2
	`, offset, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []user.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, u)
	}
	return result, rows.Err()
}

func (s *Store) DeleteUser(ctx context.Context, id int64) error {
	result, err := s.db.ExecContext(ctx, `
		DELETE FROM users WHERE id = $1
	`, id)
	if err != nil {
		return err
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return mapErr(sql.ErrNoRows)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanUser(row rowScanner) (user.User, error) {
	var (
		u                   user.User
		avatar, first, last sql.NullString
		phone               sql.NullString
		dob                 sql.NullTime
		height, weight      sql.NullFloat64
		chest, waist, hips  sql.NullFloat64
	)
	err := row.Scan(
		&u.ID, &u.Email, &u.HashedPassword, &u.IsActive, &u.IsAdmin, &avatar,
		&first, &last, &phone, &dob,
		&height, &weight, &chest, &waist, &hips, &u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		return user.User{}, err
	}
	u.Avatar = fromNullString(avatar)
	u.FirstName = fromNullString(first)
	u.LastName = fromNullString(last)
	u.PhoneNumber = fromNullString(phone)
	u.DateOfBirth = fromNullTime(dob)
	u.Height = fromNullFloat(height)
	u.Weight = fromNullFloat(weight)
	u.Chest = fromNullFloat(chest)
	u.Waist = fromNullFloat(waist)
	u.Hips = fromNullFloat(hips)
	return u, nil
}

// replacePreferences rewrites one of the user's preference lists. Names are
// resolved against the shared colors/brands tables case-insensitively,
// creating entries on first use.
func (s *Store) replacePreferences(ctx context.Context, userID int64, kind string, names []string) error {
	entity, join, fk := "colors", "user_favorite_colors", "color_id"
	if kind == "brands" {
		entity, join, fk = "brands", "user_favorite_brands", "brand_id"
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx, `DELETE FROM `+join+` WHERE user_id = $1`, userID); err != nil {
		return err
	}
	for _, name := range names {
		if name == "" {
			continue
		}
		var id int64
		err := tx.QueryRowContext(ctx, `
			INSERT INTO `+entity+` (name)
			VALUES ($1)
			ON CONFLICT (lower(name)) DO UPDATE SET name = `+entity+`.name
			RETURNING id
		`, name).Scan(&id)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO `+join+` (user_id, `+fk+`)
			VALUES ($1, $2)
			ON CONFLICT DO NOTHING
		`, userID, id); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (s *Store) attachPreferences(ctx context.Context, u user.User) (user.User, error) {
	var err error
	if u.FavoriteColors, err = s.listPreferences(ctx, u.ID, "colors"); err != nil {
		return user.User{}, err
	}
	if u.FavoriteBrands, err = s.listPreferences(ctx, u.ID, "brands"); err != nil {
		return user.User{}, err
	}
	return u, nil
}

func (s *Store) listPreferences(ctx context.Context, userID int64, kind string) ([]string, error) {
	query := `
		SELECT c.name FROM colors c
		JOIN user_favorite_colors f ON f.color_id = c.id
		WHERE f.user_id = $1
		ORDER BY c.name
	`
	if kind == "brands" {
		query = `
			SELECT b.name FROM brands b
			JOIN user_favorite_brands f ON f.brand_id = b.id
			WHERE f.user_id = $1
			ORDER BY b.name
		`
	}
	var names []string
	if err := s.db.SelectContext(ctx, &names, query, userID); err != nil {
		return nil, err
	}
	return names, nil
}
