package domain

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// IssuedToken is a signed access token together with the timestamps that
// are embedded in it.
type IssuedToken struct {
	Value     string    `json:"token"`
	IssuedAt  time.Time `json:"issued_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

type Claims struct {
	jwt.RegisteredClaims
	UserID   int64    `json:"id"`
	Username string   `json:"username"`
	Role     UserRole `json:"role"`
}

func (c *Claims) Principal() Principal {
	return Principal{ID: c.UserID, Username: c.Username, Role: c.Role}
}
