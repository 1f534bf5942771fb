package user

import "time"

// User is an account holder. Measurement fields feed the outfit builder's
// mannequin preview and are optional.
type User struct {
	ID             int64      `json:"id"`
	Email          string     `json:"email"`
	HashedPassword string     `json:"-"`
	IsActive       bool       `json:"is_active"`
	IsAdmin        bool       `json:"is_admin"`
	Avatar         string     `json:"avatar,omitempty"`
	FirstName      string     `json:"first_name,omitempty"`
	LastName       string     `json:"last_name,omitempty"`
	PhoneNumber    string     `json:"phone_number,omitempty"`
	DateOfBirth    *time.Time `json:"date_of_birth,omitempty"`
	Height         *float64   `json:"height,omitempty"`
	Weight         *float64   `json:"weight,omitempty"`
	Chest          *float64   `json:"chest,omitempty"`
	Waist          *float64   `json:"waist,omitempty"`
	Hips           *float64   `json:"hips,omitempty"`
	FavoriteColors []string   `json:"favorite_colors,omitempty"`
	FavoriteBrands []string   `json:"favorite_brands,omitempty"`
	CreatedAt      time.Time  `json:"created_at,omitempty"`
	UpdatedAt      time.Time  `json:"updated_at,omitempty"`
}

// DisplayName composes the name shown next to user content, falling back to
// the email address when no name is set.
func (u User) DisplayName() string {
	switch {
	case u.FirstName != "" && u.LastName != "":
		return u.FirstName + " " + u.LastName
	case u.FirstName != "":
		return u.FirstName
	case u.LastName != "":
		return u.LastName
	default:
		return u.Email
	}
}
