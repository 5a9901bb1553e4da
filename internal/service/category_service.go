package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"product-catalog/internal/cache"
	"product-catalog/internal/domain"
	"product-catalog/internal/repository"

	"go.uber.org/zap"
)

var (
	ErrEmptyCategoryName = errors.New("category name must not be empty")
)

// CategoryService defines the interface for category business logic
type CategoryService interface {
	GetAll(ctx context.Context) ([]*domain.Category, error)
	GetByID(ctx context.Context, id int64) (*domain.Category, error)
	Create(ctx context.Context, name string) (*domain.Category, error)
	Update(ctx context.Context, id int64, name string) (*domain.Category, error)
	Delete(ctx context.Context, id int64) error
}

type categoryService struct {
	categoryRepo repository.CategoryRepository
	cache        cache.CategoryCache
	logger       *zap.Logger
}

// NewCategoryService creates a new instance of CategoryService.
// cache may be nil, in which case every read goes to storage.
func NewCategoryService(
	categoryRepo repository.CategoryRepository,
	categoryCache cache.CategoryCache,
	logger *zap.Logger,
) CategoryService {
	return &categoryService{
		categoryRepo: categoryRepo,
		cache:        categoryCache,
		logger:       logger,
	}
}

// GetAll returns all categories sorted by name, read through the cache.
// Cache failures are logged and never surface to the caller.
func (s *categoryService) GetAll(ctx context.Context) ([]*domain.Category, error) {
	if s.cache != nil {
		cached, err := s.cache.Get(ctx)
		if err != nil {
			s.logger.Warn("Category cache read failed", zap.Error(err))
		} else if cached != nil {
			return cached, nil
		}
	}

	categories, err := s.categoryRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, categories); err != nil {
			s.logger.Warn("Category cache write failed", zap.Error(err))
		}
	}

	return categories, nil
}

// GetByID retrieves a single category
func (s *categoryService) GetByID(ctx context.Context, id int64) (*domain.Category, error) {
	return s.categoryRepo.FindByID(ctx, id)
}

// Create validates and trims the name, then inserts the category
func (s *categoryService) Create(ctx context.Context, name string) (*domain.Category, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrEmptyCategoryName
	}

	category, err := s.categoryRepo.Create(ctx, name)
	if err != nil {
		return nil, err
	}

	s.invalidateCache(ctx)
	return category, nil
}

// Update validates and trims the name, then overwrites the category
func (s *categoryService) Update(ctx context.Context, id int64, name string) (*domain.Category, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrEmptyCategoryName
	}

	category, err := s.categoryRepo.Update(ctx, id, name)
	if err != nil {
		return nil, err
	}

	s.invalidateCache(ctx)
	return category, nil
}

// Delete removes a category by id
func (s *categoryService) Delete(ctx context.Context, id int64) error {
	if err := s.categoryRepo.Delete(ctx, id); err != nil {
		return err
	}

	s.invalidateCache(ctx)
	return nil
}

func (s *categoryService) invalidateCache(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx); err != nil {
		s.logger.Warn("Category cache invalidation failed", zap.Error(err))
	}
}
