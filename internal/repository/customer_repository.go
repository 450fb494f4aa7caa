package repository

import (
	"context"

	"github.com/KrishnaRLolage/GoldShopManager/internal/domain"
)

type CustomerRepository interface {
	List(ctx context.Context) ([]*domain.Customer, error)
	Create(ctx context.Context, customer *domain.Customer) error
	Update(ctx context.Context, customer *domain.Customer) error
	// FindByNameAndContact matches name exactly and either phone or address.
	FindByNameAndContact(ctx context.Context, name, phone, address string) (*domain.Customer, error)
}
