package products

import (
	"context"
	"fmt"
	"sort"

	"github.com/stocklane/stocklane/internal/platform/httpx"
	"github.com/stocklane/stocklane/internal/shared"
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) List(ctx context.Context, filters shared.ListFilters) ([]Product, int, error) {
	return s.repo.List(ctx, filters)
}

func (s *Service) Get(ctx context.Context, id int64) (Product, error) {
	if id <= 0 {
		return Product{}, fmt.Errorf("%w: invalid product id", httpx.ErrValidation)
	}
	return s.repo.Get(ctx, id)
}

func (s *Service) Create(ctx context.Context, product Product) (Product, error) {
	if err := s.validate(&product); err != nil {
		return Product{}, err
	}
	if product.Status == "" {
		product.Status = StatusActive
	}
	return s.repo.Create(ctx, product)
}

func (s *Service) Update(ctx context.Context, id int64, product Product) error {
	if id <= 0 {
		return fmt.Errorf("%w: invalid product id", httpx.ErrValidation)
	}
	if err := s.validate(&product); err != nil {
		return err
	}
	return s.repo.Update(ctx, id, product)
}

// SetStatus toggles a product between active and inactive.
func (s *Service) SetStatus(ctx context.Context, id int64, status Status) error {
	if id <= 0 {
		return fmt.Errorf("%w: invalid product id", httpx.ErrValidation)
	}
	if status != StatusActive && status != StatusInactive {
		return fmt.Errorf("%w: unknown status %q", httpx.ErrValidation, status)
	}
	return s.repo.SetStatus(ctx, id, status)
}

func (s *Service) validate(product *Product) error {
	if product.Code == "" {
		return fmt.Errorf("%w: product code is required", httpx.ErrValidation)
	}
	if product.Name == "" {
		return fmt.Errorf("%w: product name is required", httpx.ErrValidation)
	}
	if product.CostPrice.IsNegative() {
		return fmt.Errorf("%w: cost price must be >= 0", httpx.ErrValidation)
	}
	for _, level := range product.PriceLevels {
		if level.MinQuantity < 1 {
			return fmt.Errorf("%w: price level min quantity must be >= 1", httpx.ErrValidation)
		}
		if level.UnitPrice.IsNegative() {
			return fmt.Errorf("%w: price level unit price must be >= 0", httpx.ErrValidation)
		}
	}
	// Levels are kept ordered so PriceFor can walk them front to back.
	sort.SliceStable(product.PriceLevels, func(i, j int) bool {
		return product.PriceLevels[i].MinQuantity < product.PriceLevels[j].MinQuantity
	})
	return nil
}
