package service

import (
	"context"

	"github.com/KrishnaRLolage/GoldShopManager/internal/domain"
	"github.com/KrishnaRLolage/GoldShopManager/internal/repository"
)

type UpdateGoldSettingsRequest struct {
	GoldRate            *float64 `json:"gold_rate" validate:"required,gte=0"`
	GSTRate             *float64 `json:"gst_rate" validate:"required,gte=0"`
	MakingChargePerGram *float64 `json:"making_charge_per_gram" validate:"required,gte=0"`
}

type GoldSettingsService struct {
	repo repository.GoldSettingsRepository
}

func NewGoldSettingsService(repo repository.GoldSettingsRepository) *GoldSettingsService {
	return &GoldSettingsService{repo: repo}
}

func (s *GoldSettingsService) Latest(ctx context.Context) (*domain.GoldSettings, error) {
	return s.repo.Latest(ctx)
}

// Update appends a new rate row; earlier rows are kept as history.
func (s *GoldSettingsService) Update(ctx context.Context, req *UpdateGoldSettingsRequest) (*IDResult, error) {
	settings := &domain.GoldSettings{
		GoldRate:            *req.GoldRate,
		GSTRate:             *req.GSTRate,
		MakingChargePerGram: *req.MakingChargePerGram,
	}
	if err := s.repo.Create(ctx, settings); err != nil {
		return nil, err
	}
	return &IDResult{ID: settings.ID}, nil
}
