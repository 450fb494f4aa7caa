package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/KrishnaRLolage/GoldShopManager/internal/domain"
	"github.com/KrishnaRLolage/GoldShopManager/internal/repository"
	"github.com/KrishnaRLolage/GoldShopManager/pkg/hash"
	"github.com/KrishnaRLolage/GoldShopManager/pkg/jwt"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrTokenRevoked       = errors.New("token revoked")
	ErrSetupCompleted     = errors.New("setup already completed")
)

// TokenRevoker tracks tokens that were logged out before their expiry.
type TokenRevoker interface {
	Revoke(ctx context.Context, token string, expiresAt time.Time) error
	IsRevoked(ctx context.Context, token string) (bool, error)
}

type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type LoginResponse struct {
	User  domain.Principal    `json:"user"`
	Token *domain.IssuedToken `json:"-"`
}

type SetupRequest struct {
	Username string `json:"username" validate:"required,min=3,max=64"`
	Password string `json:"password" validate:"required,min=8,max=128"`
	Name     string `json:"name" validate:"max=128"`
}

type AuthService struct {
	userRepo     repository.UserRepository
	hasher       *hash.Argon2Hasher
	tokenService *jwt.TokenService
	revoker      TokenRevoker
}

// NewAuthService wires credential checks and token issuance. revoker may be
// nil, in which case logout only clears the client's cookie.
func NewAuthService(
	userRepo repository.UserRepository,
	hasher *hash.Argon2Hasher,
	tokenService *jwt.TokenService,
	revoker TokenRevoker,
) *AuthService {
	return &AuthService{
		userRepo:     userRepo,
		hasher:       hasher,
		tokenService: tokenService,
		revoker:      revoker,
	}
}

// Verify checks a username/password pair against the user store. Any lookup
// or comparison failure is reported as ErrInvalidCredentials.
func (s *AuthService) Verify(ctx context.Context, username, password string) (*domain.Principal, error) {
	user, err := s.userRepo.GetByUsername(ctx, username)
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			log.Printf("[AUTH_SERVICE] User lookup failed for %q: %v", username, err)
		}
		return nil, ErrInvalidCredentials
	}

	ok, err := s.hasher.Verify(password, user.PasswordHash)
	if err != nil {
		log.Printf("[AUTH_SERVICE] Stored hash for %q is unusable: %v", username, err)
		return nil, ErrInvalidCredentials
	}
	if !ok {
		return nil, ErrInvalidCredentials
	}

	p := user.Principal()
	return &p, nil
}

// Login verifies credentials and mints an access token for the principal.
func (s *AuthService) Login(ctx context.Context, req LoginRequest) (*LoginResponse, error) {
	principal, err := s.Verify(ctx, req.Username, req.Password)
	if err != nil {
		return nil, err
	}

	tok, err := s.tokenService.Issue(*principal)
	if err != nil {
		return nil, fmt.Errorf("failed to issue token: %w", err)
	}

	log.Printf("[AUTH_SERVICE] Login ok for %s (id=%d)", principal.Username, principal.ID)

	return &LoginResponse{User: *principal, Token: tok}, nil
}

// ValidateToken checks signature and expiry, then the revocation list when
// one is configured.
func (s *AuthService) ValidateToken(ctx context.Context, token string) (*domain.Principal, error) {
	principal, err := s.tokenService.Validate(token)
	if err != nil {
		return nil, err
	}

	if s.revoker != nil {
		revoked, err := s.revoker.IsRevoked(ctx, token)
		if err != nil {
			log.Printf("[AUTH_SERVICE] Revocation check failed: %v", err)
			return nil, jwt.ErrTokenInvalid
		}
		if revoked {
			return nil, ErrTokenRevoked
		}
	}

	return principal, nil
}

// Logout revokes the token for the rest of its lifetime. Without a revoker
// it is a no-op.
func (s *AuthService) Logout(ctx context.Context, token string) error {
	if s.revoker == nil || token == "" {
		return nil
	}

	expiresAt, err := s.tokenService.ExpiresAt(token)
	if err != nil {
		return nil
	}

	if err := s.revoker.Revoke(ctx, token, expiresAt); err != nil {
		return fmt.Errorf("failed to revoke token: %w", err)
	}

	return nil
}

// Setup creates the first admin user. It fails with ErrSetupCompleted once
// any user exists.
func (s *AuthService) Setup(ctx context.Context, req SetupRequest) (*domain.Principal, error) {
	// The count is advisory; CreateFirst enforces a single first admin.
	count, err := s.userRepo.Count(ctx)
	if err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, ErrSetupCompleted
	}

	passwordHash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	name := req.Name
	if name == "" {
		name = req.Username
	}

	user := &domain.User{
		Username:     req.Username,
		PasswordHash: passwordHash,
		Name:         name,
		Role:         domain.UserRoleAdmin,
	}
	if err := s.userRepo.CreateFirst(ctx, user); err != nil {
		if errors.Is(err, repository.ErrUsersExist) {
			return nil, ErrSetupCompleted
		}
		return nil, err
	}

	log.Printf("[AUTH_SERVICE] Created admin user %s", user.Username)

	p := user.Principal()
	return &p, nil
}
