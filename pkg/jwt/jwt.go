package jwt

import (
	"errors"
	"time"

	"github.com/KrishnaRLolage/GoldShopManager/internal/domain"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// MinSecretLength is the shortest HMAC secret the service accepts.
const MinSecretLength = 32

var (
	ErrInvalidSigningMethod = errors.New("unexpected signing method")
	ErrTokenInvalid         = errors.New("invalid token")
	ErrTokenExpired         = errors.New("token expired")
	ErrSecretTooShort       = errors.New("jwt secret must be at least 32 bytes")
)

type Option func(*TokenService)

// WithClock replaces time.Now for issuance and validation.
func WithClock(now func() time.Time) Option {
	return func(s *TokenService) {
		s.now = now
	}
}

// TokenService issues and validates short-lived HS256 access tokens. It is
// stateless: validation never consults the session registry.
type TokenService struct {
	secret []byte
	ttl    time.Duration
	issuer string
	now    func() time.Time
	parser *jwt.Parser
}

func NewTokenService(secret []byte, ttl time.Duration, issuer string, opts ...Option) (*TokenService, error) {
	if len(secret) < MinSecretLength {
		return nil, ErrSecretTooShort
	}
	if ttl <= 0 {
		return nil, errors.New("token ttl must be positive")
	}

	s := &TokenService{
		secret: append([]byte(nil), secret...),
		ttl:    ttl,
		issuer: issuer,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}

	s.parser = jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)

	return s, nil
}

// TTL returns the fixed lifetime of every issued token.
func (s *TokenService) TTL() time.Duration {
	return s.ttl
}

// Issue signs a new token for the principal, valid for the configured TTL.
// The returned timestamps are the ones embedded in the token, truncated to
// whole seconds.
func (s *TokenService) Issue(p domain.Principal) (*domain.IssuedToken, error) {
	now := s.now().Truncate(time.Second)
	exp := now.Add(s.ttl)

	claims := domain.Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.issuer,
			Subject:   p.Username,
			ExpiresAt: jwt.NewNumericDate(exp),
			IssuedAt:  jwt.NewNumericDate(now),
			ID:        uuid.New().String(),
		},
		UserID:   p.ID,
		Username: p.Username,
		Role:     p.Role,
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return nil, err
	}

	return &domain.IssuedToken{
		Value:     signed,
		IssuedAt:  now,
		ExpiresAt: exp,
	}, nil
}

// Validate decodes the token and returns its principal. A token whose
// signature checks out but whose expiry has been reached fails with
// ErrTokenExpired; every other failure is ErrTokenInvalid.
func (s *TokenService) Validate(tokenString string) (*domain.Principal, error) {
	if tokenString == "" {
		return nil, ErrTokenInvalid
	}

	claims := &domain.Claims{}
	token, err := s.parser.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidSigningMethod
		}
		return s.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrTokenInvalid
	}
	if !token.Valid {
		return nil, ErrTokenInvalid
	}

	// The library accepts a token up to and including its expiry second.
	if !s.now().Before(claims.ExpiresAt.Time) {
		return nil, ErrTokenExpired
	}

	p := claims.Principal()
	return &p, nil
}

// ExpiresAt reports the embedded expiry of a token without checking it.
// Used to size revocation entries.
func (s *TokenService) ExpiresAt(tokenString string) (time.Time, error) {
	claims := &domain.Claims{}
	if _, _, err := jwt.NewParser().ParseUnverified(tokenString, claims); err != nil {
		return time.Time{}, ErrTokenInvalid
	}
	if claims.ExpiresAt == nil {
		return time.Time{}, ErrTokenInvalid
	}
	return claims.ExpiresAt.Time, nil
}
