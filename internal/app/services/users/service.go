// Package users manages accounts, profiles and the admin user surface.
package users

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/trcstyle/backend/internal/app/apperr"
	"github.com/trcstyle/backend/internal/app/domain/user"
	"github.com/trcstyle/backend/internal/app/storage"
	"github.com/trcstyle/backend/pkg/logger"
)

var phonePattern = regexp.MustCompile(`^\+?[0-9]{7,15}$`)

// Service manages user accounts.
type Service struct {
	store       storage.UserStore
	adminEmails map[string]struct{}
	log         *logger.Logger
}

// New constructs a users service. adminEmails grants admin rights to the
// listed addresses regardless of the stored flag.
func New(store storage.UserStore, adminEmails []string, log *logger.Logger) *Service {
	if log == nil {
		log = logger.NewDefault("users")
	}
	emails := make(map[string]struct{}, len(adminEmails))
	for _, e := range adminEmails {
		if e = strings.ToLower(strings.TrimSpace(e)); e != "" {
			emails[e] = struct{}{}
		}
	}
	return &Service{store: store, adminEmails: emails, log: log}
}

// IsAdmin reports whether the user may access admin endpoints.
func (s *Service) IsAdmin(u user.User) bool {
	if u.IsAdmin {
		return true
	}
	_, ok := s.adminEmails[strings.ToLower(u.Email)]
	return ok
}

// Get fetches one user.
func (s *Service) Get(ctx context.Context, id int64) (user.User, error) {
	u, err := s.store.GetUser(ctx, id)
	if errors.Is(err, storage.ErrNotFound) {
		return user.User{}, apperr.NotFound("user %d not found", id)
	}
	return u, err
}

// List pages through all users.
func (s *Service) List(ctx context.Context, offset, limit int) ([]user.User, error) {
	return s.store.ListUsers(ctx, offset, limit)
}

// Create registers an account on behalf of an administrator.
func (s *Service) Create(ctx context.Context, email, password string, isAdmin bool) (user.User, error) {
	email = strings.TrimSpace(email)
	if email == "" || !strings.Contains(email, "@") {
		return user.User{}, apperr.BadRequest("a valid email is required")
	}
	if len(password) < 8 {
		return user.User{}, apperr.BadRequest("password must be at least 8 characters")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return user.User{}, err
	}
	u, err := s.store.CreateUser(ctx, user.User{
		Email:          email,
		HashedPassword: string(hash),
		IsActive:       true,
		IsAdmin:        isAdmin,
	})
	if errors.Is(err, storage.ErrDuplicate) {
		return user.User{}, apperr.BadRequest("email already registered")
	}
	return u, err
}

// ProfileUpdate carries the patchable profile fields. Nil pointers leave the
// stored value unchanged.
type ProfileUpdate struct {
	FirstName      *string
	LastName       *string
	PhoneNumber    *string
	DateOfBirth    *time.Time
	Height         *float64
	Weight         *float64
	Chest          *float64
	Waist          *float64
	Hips           *float64
	FavoriteColors []string
	FavoriteBrands []string
}

// UpdateProfile patches a user's own profile.
func (s *Service) UpdateProfile(ctx context.Context, userID int64, upd ProfileUpdate) (user.User, error) {
	u, err := s.Get(ctx, userID)
	if err != nil {
		return user.User{}, err
	}

	if upd.FirstName != nil {
		u.FirstName = strings.TrimSpace(*upd.FirstName)
	}
	if upd.LastName != nil {
		u.LastName = strings.TrimSpace(*upd.LastName)
	}
	if upd.PhoneNumber != nil {
		phone := strings.TrimSpace(*upd.PhoneNumber)
		if phone != "" && !phonePattern.MatchString(phone) {
			return user.User{}, apperr.BadRequest("phone number must be 7 to 15 digits")
		}
		u.PhoneNumber = phone
	}
	if upd.DateOfBirth != nil {
		if upd.DateOfBirth.After(time.Now()) {
			return user.User{}, apperr.BadRequest("date of birth cannot be in the future")
		}
		u.DateOfBirth = upd.DateOfBirth
	}
	for _, m := range []struct {
		name  string
		value *float64
		dst   **float64
	}{
		{"height", upd.Height, &u.Height},
		{"weight", upd.Weight, &u.Weight},
		{"chest", upd.Chest, &u.Chest},
		{"waist", upd.Waist, &u.Waist},
		{"hips", upd.Hips, &u.Hips},
	} {
		if m.value == nil {
			continue
		}
		if *m.value <= 0 {
			return user.User{}, apperr.BadRequest("%s must be positive", m.name)
		}
		*m.dst = m.value
	}
	if upd.FavoriteColors != nil {
		u.FavoriteColors = normalizeNames(upd.FavoriteColors)
	}
	if upd.FavoriteBrands != nil {
		u.FavoriteBrands = normalizeNames(upd.FavoriteBrands)
	}

	return s.store.UpdateUser(ctx, u)
}

// AdminUpdate carries the fields an administrator may patch on any account.
type AdminUpdate struct {
	Email    *string
	Password *string
	IsActive *bool
	IsAdmin  *bool
}

// Update patches account-level fields on behalf of an administrator.
func (s *Service) Update(ctx context.Context, id int64, upd AdminUpdate) (user.User, error) {
	u, err := s.Get(ctx, id)
	if err != nil {
		return user.User{}, err
	}
	if upd.Email != nil {
		email := strings.TrimSpace(*upd.Email)
		if email == "" || !strings.Contains(email, "@") {
			return user.User{}, apperr.BadRequest("a valid email is required")
		}
		u.Email = email
	}
	if upd.Password != nil {
		if len(*upd.Password) < 8 {
			return user.User{}, apperr.BadRequest("password must be at least 8 characters")
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(*upd.Password), bcrypt.DefaultCost)
		if err != nil {
			return user.User{}, err
		}
		u.HashedPassword = string(hash)
	}
	if upd.IsActive != nil {
		u.IsActive = *upd.IsActive
	}
	if upd.IsAdmin != nil {
		u.IsAdmin = *upd.IsAdmin
	}

	updated, err := s.store.UpdateUser(ctx, u)
	if errors.Is(err, storage.ErrDuplicate) {
		return user.User{}, apperr.BadRequest("email already registered")
	}
	return updated, err
}

// Delete removes an account.
func (s *Service) Delete(ctx context.Context, id int64) error {
	err := s.store.DeleteUser(ctx, id)
	if errors.Is(err, storage.ErrNotFound) {
		return apperr.NotFound("user %d not found", id)
	}
	return err
}

// SetAvatar points the user at a new avatar URL and returns the previous one
// so the caller can remove the stale file.
func (s *Service) SetAvatar(ctx context.Context, userID int64, url string) (string, error) {
	u, err := s.Get(ctx, userID)
	if err != nil {
		return "", err
	}
	previous := u.Avatar
	u.Avatar = url
	if _, err := s.store.UpdateUser(ctx, u); err != nil {
		return "", err
	}
	return previous, nil
}

// EnsureDefaultAdmin seeds an administrator account from the first configured
// admin email when no account exists for it yet.
func (s *Service) EnsureDefaultAdmin(ctx context.Context, email, password string) error {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return nil
	}
	if _, err := s.store.GetUserByEmail(ctx, email); err == nil {
		return nil
	} else if !errors.Is(err, storage.ErrNotFound) {
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	_, err = s.store.CreateUser(ctx, user.User{
		Email:          email,
		HashedPassword: string(hash),
		IsActive:       true,
		IsAdmin:        true,
	})
	if err != nil {
		return err
	}
	s.log.WithField("email", email).Info("default admin account created")
	return nil
}

// normalizeNames trims entries and drops blanks and case-insensitive
// duplicates, keeping first-seen order.
func normalizeNames(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, name := range in {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		key := strings.ToLower(name)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, name)
	}
	return out
}
