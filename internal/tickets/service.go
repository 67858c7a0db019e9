package tickets

import (
	"context"
	"errors"
	"time"

	"racereg/internal/shared/constants"
	"racereg/pkg/cache"
	"racereg/pkg/logger"

	"github.com/google/uuid"
	"log/slog"
)

// Service interface defines the contract for ticket category business logic
type Service interface {
	ListCategories(ctx context.Context, now time.Time) ([]CategoryResponse, error)
	GetCategory(ctx context.Context, id uuid.UUID) (*TicketCategory, error)
	CreateCategory(ctx context.Context, req CreateCategoryRequest) (*TicketCategory, error)
	UpdateCategory(ctx context.Context, id uuid.UUID, req UpdateCategoryRequest) (*TicketCategory, error)

	// Inventory operations used by the order lifecycle
	Reserve(ctx context.Context, id uuid.UUID, qty int) error
	Release(ctx context.Context, id uuid.UUID, qty int) error

	// InvalidateAvailabilityCache drops cached availability after inventory
	// mutations performed inside another package's transaction.
	InvalidateAvailabilityCache(ctx context.Context)
}

type service struct {
	repo  Repository
	cache cache.Service
}

// NewService creates a new ticket category service. The cache is optional;
// a nil cache disables the availability read cache.
func NewService(repo Repository, cacheService cache.Service) Service {
	return &service{
		repo:  repo,
		cache: cacheService,
	}
}

func (s *service) ListCategories(ctx context.Context, now time.Time) ([]CategoryResponse, error) {
	var categories []TicketCategory

	if s.cache != nil {
		err := s.cache.GetOrSet(ctx, constants.CACHE_KEY_CATEGORY_LIST, constants.TTL_CATEGORY_LIST,
			func() (interface{}, error) {
				return s.repo.List(ctx)
			}, &categories)
		if err != nil {
			// Cache trouble should not take the listing down.
			logger.GetDefault().Warn("category list cache unavailable", slog.Any("error", err))
			categories, err = s.repo.List(ctx)
			if err != nil {
				return nil, err
			}
		}
	} else {
		var err error
		categories, err = s.repo.List(ctx)
		if err != nil {
			return nil, err
		}
	}

	responses := make([]CategoryResponse, 0, len(categories))
	for i := range categories {
		responses = append(responses, categories[i].ToResponse(now))
	}
	return responses, nil
}

func (s *service) GetCategory(ctx context.Context, id uuid.UUID) (*TicketCategory, error) {
	if s.cache == nil {
		return s.repo.GetByID(ctx, id)
	}

	var category TicketCategory
	err := s.cache.GetOrSet(ctx, constants.BuildCategoryDetailKey(id.String()), constants.TTL_CATEGORY_DETAIL,
		func() (interface{}, error) {
			return s.repo.GetByID(ctx, id)
		}, &category)
	if err != nil {
		if errors.Is(err, ErrCategoryNotFound) {
			return nil, ErrCategoryNotFound
		}
		logger.GetDefault().Warn("category detail cache unavailable", slog.Any("error", err))
		return s.repo.GetByID(ctx, id)
	}
	return &category, nil
}

func (s *service) CreateCategory(ctx context.Context, req CreateCategoryRequest) (*TicketCategory, error) {
	active := true
	if req.Active != nil {
		active = *req.Active
	}

	category := &TicketCategory{
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
		Stock:       req.Stock,
		Active:      active,
		SaleStartAt: req.SaleStartAt,
		SaleEndAt:   req.SaleEndAt,
	}

	if err := s.repo.Create(ctx, category); err != nil {
		return nil, err
	}

	s.invalidateCache(ctx)
	return category, nil
}

func (s *service) UpdateCategory(ctx context.Context, id uuid.UUID, req UpdateCategoryRequest) (*TicketCategory, error) {
	category, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		category.Name = *req.Name
	}
	if req.Description != nil {
		category.Description = *req.Description
	}
	if req.Price != nil {
		category.Price = *req.Price
	}
	if req.Stock != nil {
		category.Stock = *req.Stock
	}
	if req.Active != nil {
		category.Active = *req.Active
	}
	if req.SaleStartAt != nil {
		category.SaleStartAt = req.SaleStartAt
	}
	if req.SaleEndAt != nil {
		category.SaleEndAt = req.SaleEndAt
	}

	if err := s.repo.Update(ctx, category); err != nil {
		return nil, err
	}

	s.invalidateCache(ctx)
	return category, nil
}

func (s *service) Reserve(ctx context.Context, id uuid.UUID, qty int) error {
	if err := s.repo.Reserve(ctx, id, qty); err != nil {
		return err
	}
	s.invalidateCache(ctx)
	return nil
}

func (s *service) Release(ctx context.Context, id uuid.UUID, qty int) error {
	if err := s.repo.Release(ctx, id, qty); err != nil {
		return err
	}
	s.invalidateCache(ctx)
	return nil
}

func (s *service) InvalidateAvailabilityCache(ctx context.Context) {
	s.invalidateCache(ctx)
}

func (s *service) invalidateCache(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, constants.CACHE_KEY_CATEGORY_LIST); err != nil {
		logger.GetDefault().Warn("failed to invalidate category list cache", slog.Any("error", err))
	}
	if err := s.cache.DeletePattern(ctx, constants.CACHE_KEY_CATEGORY_DETAIL+"*"); err != nil {
		logger.GetDefault().Warn("failed to invalidate category detail cache", slog.Any("error", err))
	}
}
