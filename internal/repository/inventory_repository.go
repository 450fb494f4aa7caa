package repository

import (
	"context"

	"github.com/KrishnaRLolage/GoldShopManager/internal/domain"
)

type InventoryRepository interface {
	List(ctx context.Context) ([]*domain.InventoryItem, error)
	Create(ctx context.Context, item *domain.InventoryItem) error
	Update(ctx context.Context, item *domain.InventoryItem) error
	// Delete returns the number of rows removed; zero is not an error.
	Delete(ctx context.Context, id int64) (int64, error)
	FindByNameAndWeight(ctx context.Context, name string, weightPerPiece float64) (*domain.InventoryItem, error)
	SetQuantity(ctx context.Context, id int64, quantity int, totalWeight float64) error
	SearchNames(ctx context.Context, query string, limit int) ([]string, error)
}
