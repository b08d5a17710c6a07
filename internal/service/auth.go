package service

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/pageza/nutrimatch/backend/internal/types"
)

const tokenIssuer = "nutrimatch"

// TokenService validates and mints HS256 bearer tokens. Accounts live in the external identity
// service; this service only trusts tokens signed with the shared secret.
type TokenService struct {
	jwtSecret []byte
	ttl       time.Duration
	now       func() time.Time
}

var _ ITokenService = (*TokenService)(nil)

// NewTokenService creates a new TokenService. ttl applies to tokens minted without an expiry.
func NewTokenService(jwtSecret string, ttl time.Duration) *TokenService {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &TokenService{jwtSecret: []byte(jwtSecret), ttl: ttl, now: time.Now}
}

// GenerateToken signs claims, filling in issuer and timestamps when missing.
func (s *TokenService) GenerateToken(claims *types.TokenClaims) (string, error) {
	if claims.UserID == uuid.Nil {
		return "", errors.New("token needs a user id")
	}
	now := s.now()
	if claims.Issuer == "" {
		claims.Issuer = tokenIssuer
	}
	if claims.Subject == "" {
		claims.Subject = claims.UserID.String()
	}
	if claims.IssuedAt == nil {
		claims.IssuedAt = jwt.NewNumericDate(now)
	}
	if claims.ExpiresAt == nil {
		claims.ExpiresAt = jwt.NewNumericDate(now.Add(s.ttl))
	}
	if claims.Role == "" {
		claims.Role = types.RoleUser
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.jwtSecret)
}

// ValidateToken parses and verifies a token string
func (s *TokenService) ValidateToken(tokenString string) (*types.TokenClaims, error) {
	claims := &types.TokenClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.jwtSecret, nil
	}, jwt.WithTimeFunc(s.now), jwt.WithExpirationRequired())
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !token.Valid || claims.UserID == uuid.Nil {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
