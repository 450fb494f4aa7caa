package service

import (
	"context"
	"errors"

	"github.com/KrishnaRLolage/GoldShopManager/internal/domain"
	"github.com/KrishnaRLolage/GoldShopManager/internal/repository"
)

type UpdateCustomerRequest struct {
	ID      int64  `json:"id" validate:"required,gt=0"`
	Name    string `json:"name" validate:"required,max=200"`
	Phone   string `json:"phone" validate:"max=50"`
	Email   string `json:"email" validate:"max=200"`
	Address string `json:"address" validate:"max=500"`
}

// AddOrGetCustomerRequest needs a name plus a contact number or an address.
type AddOrGetCustomerRequest struct {
	Name    string `json:"name" validate:"required,max=200"`
	Contact string `json:"contact" validate:"required_without=Address,max=50"`
	Address string `json:"address" validate:"required_without=Contact,max=500"`
}

type CustomerService struct {
	repo repository.CustomerRepository
}

func NewCustomerService(repo repository.CustomerRepository) *CustomerService {
	return &CustomerService{repo: repo}
}

// List returns customers newest first.
func (s *CustomerService) List(ctx context.Context) ([]*domain.Customer, error) {
	return s.repo.List(ctx)
}

func (s *CustomerService) Update(ctx context.Context, req *UpdateCustomerRequest) (*IDResult, error) {
	customer := &domain.Customer{
		ID:      req.ID,
		Name:    req.Name,
		Phone:   req.Phone,
		Email:   req.Email,
		Address: req.Address,
	}
	if err := s.repo.Update(ctx, customer); err != nil {
		return nil, err
	}
	return &IDResult{ID: customer.ID}, nil
}

// AddOrGet returns the id of the customer with this name and matching
// contact or address, creating one when none exists.
func (s *CustomerService) AddOrGet(ctx context.Context, req *AddOrGetCustomerRequest) (*IDResult, error) {
	existing, err := s.repo.FindByNameAndContact(ctx, req.Name, req.Contact, req.Address)
	if err == nil {
		return &IDResult{ID: existing.ID}, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}

	customer := &domain.Customer{
		Name:    req.Name,
		Phone:   req.Contact,
		Address: req.Address,
	}
	if err := s.repo.Create(ctx, customer); err != nil {
		return nil, err
	}

	return &IDResult{ID: customer.ID}, nil
}
