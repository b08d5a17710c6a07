package types

import (
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Roles carried in tokens
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// TokenClaims represents the claims in a JWT token
type TokenClaims struct {
	jwt.RegisteredClaims
	UserID   uuid.UUID `json:"user_id"`
	Username string    `json:"username"`
	Role     string    `json:"role,omitempty"`
}

// IsAdmin reports whether the token grants admin access
func (c *TokenClaims) IsAdmin() bool {
	return c.Role == RoleAdmin
}
