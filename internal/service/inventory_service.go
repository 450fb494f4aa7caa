package service

import (
	"context"
	"errors"

	"github.com/KrishnaRLolage/GoldShopManager/internal/domain"
	"github.com/KrishnaRLolage/GoldShopManager/internal/repository"
)

const inventoryNameSuggestions = 10

var ErrItemNotFound = errors.New("item not found")

type AddInventoryRequest struct {
	ItemName       string   `json:"ItemName" validate:"required,max=200"`
	Description    string   `json:"Description" validate:"max=1000"`
	Quantity       *int     `json:"Quantity" validate:"required,gte=0"`
	WeightPerPiece *float64 `json:"WeightPerPiece" validate:"required,gt=0"`
}

type UpdateInventoryRequest struct {
	ID             int64    `json:"id" validate:"required,gt=0"`
	ItemName       string   `json:"ItemName" validate:"required,max=200"`
	Description    string   `json:"Description" validate:"max=1000"`
	Quantity       *int     `json:"Quantity" validate:"required,gte=0"`
	WeightPerPiece *float64 `json:"WeightPerPiece" validate:"required,gt=0"`
}

type DeleteInventoryRequest struct {
	ID int64 `json:"id" validate:"required,gt=0"`
}

// AdjustQuantityRequest adds QuantityToAdd (which may be negative) to the
// item matching both name and per-piece weight.
type AdjustQuantityRequest struct {
	ItemName       string   `json:"ItemName" validate:"required"`
	WeightPerPiece *float64 `json:"WeightPerPiece" validate:"required"`
	QuantityToAdd  *int     `json:"QuantityToAdd" validate:"required"`
}

type InventoryNamesRequest struct {
	Query string `json:"query" validate:"max=200"`
}

type IDResult struct {
	ID int64 `json:"id"`
}

type DeleteResult struct {
	Deleted int64 `json:"deleted"`
}

type QuantityResult struct {
	ID             int64   `json:"id"`
	NewQty         int     `json:"newQty"`
	NewTotalWeight float64 `json:"newTotalWeight"`
}

type InventoryService struct {
	repo repository.InventoryRepository
}

func NewInventoryService(repo repository.InventoryRepository) *InventoryService {
	return &InventoryService{repo: repo}
}

func (s *InventoryService) List(ctx context.Context) ([]*domain.InventoryItem, error) {
	return s.repo.List(ctx)
}

func (s *InventoryService) Add(ctx context.Context, req *AddInventoryRequest) (*IDResult, error) {
	item := &domain.InventoryItem{
		ItemName:       req.ItemName,
		Description:    req.Description,
		Quantity:       *req.Quantity,
		WeightPerPiece: *req.WeightPerPiece,
	}
	item.RecomputeWeight()

	if err := s.repo.Create(ctx, item); err != nil {
		return nil, err
	}

	return &IDResult{ID: item.ID}, nil
}

func (s *InventoryService) Update(ctx context.Context, req *UpdateInventoryRequest) (*IDResult, error) {
	item := &domain.InventoryItem{
		ID:             req.ID,
		ItemName:       req.ItemName,
		Description:    req.Description,
		Quantity:       *req.Quantity,
		WeightPerPiece: *req.WeightPerPiece,
	}
	item.RecomputeWeight()

	if err := s.repo.Update(ctx, item); err != nil {
		return nil, err
	}

	return &IDResult{ID: item.ID}, nil
}

// Delete reports how many rows went away; deleting a missing id is not an error.
func (s *InventoryService) Delete(ctx context.Context, req *DeleteInventoryRequest) (*DeleteResult, error) {
	n, err := s.repo.Delete(ctx, req.ID)
	if err != nil {
		return nil, err
	}
	return &DeleteResult{Deleted: n}, nil
}

func (s *InventoryService) AdjustQuantity(ctx context.Context, req *AdjustQuantityRequest) (*QuantityResult, error) {
	item, err := s.repo.FindByNameAndWeight(ctx, req.ItemName, *req.WeightPerPiece)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrItemNotFound
		}
		return nil, err
	}

	item.Quantity += *req.QuantityToAdd
	item.RecomputeWeight()

	if err := s.repo.SetQuantity(ctx, item.ID, item.Quantity, item.TotalWeight); err != nil {
		return nil, err
	}

	return &QuantityResult{
		ID:             item.ID,
		NewQty:         item.Quantity,
		NewTotalWeight: item.TotalWeight,
	}, nil
}

func (s *InventoryService) SearchNames(ctx context.Context, req *InventoryNamesRequest) ([]string, error) {
	return s.repo.SearchNames(ctx, req.Query, inventoryNameSuggestions)
}
