// Package auth issues and revokes the JWT pairs that guard the API.
package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/trcstyle/backend/internal/app/apperr"
	"github.com/trcstyle/backend/internal/app/domain/user"
	"github.com/trcstyle/backend/internal/app/storage"
	"github.com/trcstyle/backend/internal/cache"
	"github.com/trcstyle/backend/pkg/logger"
)

const (
	// AccessBlacklistPrefix keys revoked access tokens in Redis.
	AccessBlacklistPrefix = "token_blacklist:"
	// RefreshBlacklistPrefix keys consumed refresh tokens in Redis.
	RefreshBlacklistPrefix = "refresh_token_blacklist:"

	minPasswordLength = 8
)

// TokenPair is the credential set returned by register, login and refresh.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
}

// Service authenticates users and manages token lifecycles.
type Service struct {
	users      storage.UserStore
	revocation *cache.Cache
	signer     *Signer
	log        *logger.Logger
}

// New constructs an auth service. A nil revocation cache disables blacklist
// checks, which is only suitable for tests.
func New(users storage.UserStore, revocation *cache.Cache, signer *Signer, log *logger.Logger) *Service {
	if log == nil {
		log = logger.NewDefault("auth")
	}
	return &Service{
		users:      users,
		revocation: revocation,
		signer:     signer,
		log:        log,
	}
}

// Register creates an account and logs it in.
func (s *Service) Register(ctx context.Context, email, password string) (user.User, TokenPair, error) {
	email = strings.TrimSpace(email)
	if email == "" || !strings.Contains(email, "@") {
		return user.User{}, TokenPair{}, apperr.BadRequest("a valid email is required")
	}
	if len(password) < minPasswordLength {
		return user.User{}, TokenPair{}, apperr.BadRequest("password must be at least %d characters", minPasswordLength)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return user.User{}, TokenPair{}, err
	}

	u, err := s.users.CreateUser(ctx, user.User{
		Email:          email,
		HashedPassword: string(hash),
		IsActive:       true,
	})
	if errors.Is(err, storage.ErrDuplicate) {
		return user.User{}, TokenPair{}, apperr.BadRequest("email already registered")
	}
	if err != nil {
		return user.User{}, TokenPair{}, err
	}

	pair, err := s.issuePair(u.ID)
	if err != nil {
		return user.User{}, TokenPair{}, err
	}
	s.log.WithField("user_id", u.ID).Info("user registered")
	return u, pair, nil
}

// Login verifies credentials and issues a token pair.
func (s *Service) Login(ctx context.Context, email, password string) (user.User, TokenPair, error) {
	u, err := s.users.GetUserByEmail(ctx, strings.TrimSpace(email))
	if errors.Is(err, storage.ErrNotFound) {
		return user.User{}, TokenPair{}, apperr.Unauthorized("incorrect email or password")
	}
	if err != nil {
		return user.User{}, TokenPair{}, err
	}
	if bcrypt.CompareHashAndPassword([]byte(u.HashedPassword), []byte(password)) != nil {
		return user.User{}, TokenPair{}, apperr.Unauthorized("incorrect email or password")
	}
	if !u.IsActive {
		return user.User{}, TokenPair{}, apperr.Unauthorized("account disabled")
	}

	pair, err := s.issuePair(u.ID)
	if err != nil {
		return user.User{}, TokenPair{}, err
	}
	return u, pair, nil
}

// Refresh rotates a refresh token: the presented token is revoked for its
// remaining lifetime and a fresh pair is issued.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (TokenPair, error) {
	claims, err := s.signer.Parse(refreshToken)
	if err != nil || claims.Type != tokenTypeRefresh {
		return TokenPair{}, apperr.Unauthorized("invalid refresh token")
	}
	revoked, err := s.isRevoked(ctx, RefreshBlacklistPrefix, refreshToken)
	if err != nil {
		return TokenPair{}, err
	}
	if revoked {
		return TokenPair{}, apperr.Unauthorized("refresh token revoked")
	}

	userID, err := claims.UserID()
	if err != nil {
		return TokenPair{}, apperr.Unauthorized("invalid refresh token")
	}
	u, err := s.users.GetUser(ctx, userID)
	if errors.Is(err, storage.ErrNotFound) {
		return TokenPair{}, apperr.Unauthorized("invalid refresh token")
	}
	if err != nil {
		return TokenPair{}, err
	}
	if !u.IsActive {
		return TokenPair{}, apperr.Unauthorized("account disabled")
	}

	if err := s.revoke(ctx, RefreshBlacklistPrefix, refreshToken, claims); err != nil {
		return TokenPair{}, err
	}
	return s.issuePair(u.ID)
}

// Logout revokes both tokens of a session. Tokens that fail to parse are
// ignored so logout never fails client-side.
func (s *Service) Logout(ctx context.Context, accessToken, refreshToken string) error {
	if claims, err := s.signer.Parse(accessToken); err == nil {
		if err := s.revoke(ctx, AccessBlacklistPrefix, accessToken, claims); err != nil {
			return err
		}
	}
	if refreshToken != "" {
		if claims, err := s.signer.Parse(refreshToken); err == nil {
			if err := s.revoke(ctx, RefreshBlacklistPrefix, refreshToken, claims); err != nil {
				return err
			}
		}
	}
	return nil
}

// Authenticate resolves an access token to its user, rejecting revoked and
// refresh-typed tokens.
func (s *Service) Authenticate(ctx context.Context, accessToken string) (user.User, error) {
	claims, err := s.signer.Parse(accessToken)
	if err != nil || claims.Type == tokenTypeRefresh {
		return user.User{}, apperr.Unauthorized("could not validate credentials")
	}
	revoked, err := s.isRevoked(ctx, AccessBlacklistPrefix, accessToken)
	if err != nil {
		return user.User{}, err
	}
	if revoked {
		return user.User{}, apperr.Unauthorized("token revoked")
	}

	userID, err := claims.UserID()
	if err != nil {
		return user.User{}, apperr.Unauthorized("could not validate credentials")
	}
	u, err := s.users.GetUser(ctx, userID)
	if errors.Is(err, storage.ErrNotFound) {
		return user.User{}, apperr.Unauthorized("could not validate credentials")
	}
	if err != nil {
		return user.User{}, err
	}
	if !u.IsActive {
		return user.User{}, apperr.Unauthorized("account disabled")
	}
	return u, nil
}

func (s *Service) issuePair(userID int64) (TokenPair, error) {
	access, err := s.signer.SignAccess(userID)
	if err != nil {
		return TokenPair{}, err
	}
	refresh, err := s.signer.SignRefresh(userID)
	if err != nil {
		return TokenPair{}, err
	}
	return TokenPair{AccessToken: access, RefreshToken: refresh, TokenType: "bearer"}, nil
}

func (s *Service) revoke(ctx context.Context, prefix, token string, claims *Claims) error {
	if s.revocation == nil {
		return nil
	}
	return s.revocation.Blacklist(ctx, prefix, token, time.Until(claims.ExpiresAt.Time))
}

func (s *Service) isRevoked(ctx context.Context, prefix, token string) (bool, error) {
	if s.revocation == nil {
		return false, nil
	}
	return s.revocation.IsBlacklisted(ctx, prefix, token)
}
