package categories

import (
	"context"
	"fmt"
	"unicode/utf8"

	"github.com/stocklane/stocklane/internal/platform/httpx"
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) List(ctx context.Context) ([]Category, error) {
	return s.repo.List(ctx)
}

func (s *Service) Get(ctx context.Context, id int64) (Category, error) {
	if id <= 0 {
		return Category{}, fmt.Errorf("%w: invalid category id", httpx.ErrValidation)
	}
	return s.repo.Get(ctx, id)
}

func (s *Service) Create(ctx context.Context, category Category) (Category, error) {
	if err := validateName(category.Name); err != nil {
		return Category{}, err
	}
	return s.repo.Create(ctx, category)
}

func (s *Service) Update(ctx context.Context, id int64, category Category) error {
	if id <= 0 {
		return fmt.Errorf("%w: invalid category id", httpx.ErrValidation)
	}
	if err := validateName(category.Name); err != nil {
		return err
	}
	return s.repo.Update(ctx, id, category)
}

func (s *Service) Delete(ctx context.Context, id int64) error {
	if id <= 0 {
		return fmt.Errorf("%w: invalid category id", httpx.ErrValidation)
	}
	return s.repo.Delete(ctx, id)
}

func validateName(name string) error {
	if length := utf8.RuneCountInString(name); length < 3 || length > 255 {
		return fmt.Errorf("%w: category name must be 3-255 characters", httpx.ErrValidation)
	}
	return nil
}
