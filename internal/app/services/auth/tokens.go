package auth

import (
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const tokenTypeRefresh = "refresh"

// Claims is the JWT payload. Subject carries the user ID; Type marks refresh
// tokens so they cannot be replayed as access tokens.
type Claims struct {
	Type string `json:"type,omitempty"`
	jwt.RegisteredClaims
}

// UserID parses the subject claim.
func (c *Claims) UserID() (int64, error) {
	return strconv.ParseInt(c.Subject, 10, 64)
}

// Signer mints and verifies HS256 tokens.
type Signer struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
}

// NewSigner creates a signer. Zero TTLs fall back to 60 minutes for access
// tokens and 14 days for refresh tokens.
func NewSigner(secret string, accessTTL, refreshTTL time.Duration) *Signer {
	if accessTTL <= 0 {
		accessTTL = 60 * time.Minute
	}
	if refreshTTL <= 0 {
		refreshTTL = 14 * 24 * time.Hour
	}
	return &Signer{
		secret:     []byte(secret),
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
	}
}

// SignAccess mints an access token for the user.
func (s *Signer) SignAccess(userID int64) (string, error) {
	return s.sign(userID, "", s.accessTTL)
}

// SignRefresh mints a refresh token for the user.
func (s *Signer) SignRefresh(userID int64) (string, error) {
	return s.sign(userID, tokenTypeRefresh, s.refreshTTL)
}

func (s *Signer) sign(userID int64, tokenType string, ttl time.Duration) (string, error) {
	now := time.Now().UTC()
	claims := Claims{
		Type: tokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(userID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

// Parse verifies a token's signature and expiry and returns its claims.
func (s *Signer) Parse(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil {
		return nil, err
	}
	if !token.Valid || claims.ExpiresAt == nil {
		return nil, fmt.Errorf("invalid token")
	}
	return claims, nil
}
