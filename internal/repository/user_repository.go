package repository

import (
	"context"

	"github.com/KrishnaRLolage/GoldShopManager/internal/domain"
)

type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByUsername(ctx context.Context, username string) (*domain.User, error)
	Count(ctx context.Context) (int, error)
	// CreateFirst inserts user only while no user exists, atomically.
	CreateFirst(ctx context.Context, user *domain.User) error
}
