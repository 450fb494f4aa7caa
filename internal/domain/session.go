package domain

import "time"

// Session binds an opaque client-held identifier to a principal and its
// current access token. ExpiresAt always equals the expiry embedded in
// Token.
type Session struct {
	ID        string    `json:"session_id"`
	Principal Principal `json:"user"`
	Token     string    `json:"-"`
	ExpiresAt time.Time `json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`
}
