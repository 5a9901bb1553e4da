package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"product-catalog/internal/domain"
	"product-catalog/internal/events"
	"product-catalog/internal/repository"

	"go.uber.org/zap"
)

var (
	ErrInvalidCategoryIDs = errors.New("one or more category ids do not exist")
)

// ProductInput carries the caller-supplied fields for create and update
type ProductInput struct {
	Name          string
	Description   string
	Price         float64
	StockQuantity int
	CategoryIDs   []int64
}

// ProductService defines the interface for product business logic
type ProductService interface {
	GetPaged(ctx context.Context, page, pageSize int, search string) ([]*domain.Product, int, error)
	GetByID(ctx context.Context, id int64) (*domain.Product, error)
	Create(ctx context.Context, input ProductInput) (*domain.Product, error)
	Update(ctx context.Context, id int64, input ProductInput) (*domain.Product, error)
	Delete(ctx context.Context, id int64) error
}

type productService struct {
	productRepo  repository.ProductRepository
	categoryRepo repository.CategoryRepository
	publisher    events.Publisher
	logger       *zap.Logger
}

// NewProductService creates a new instance of ProductService
func NewProductService(
	productRepo repository.ProductRepository,
	categoryRepo repository.CategoryRepository,
	publisher events.Publisher,
	logger *zap.Logger,
) ProductService {
	return &productService{
		productRepo:  productRepo,
		categoryRepo: categoryRepo,
		publisher:    publisher,
		logger:       logger,
	}
}

// GetPaged returns one page of products with the total matching count.
// Page bounds are the caller's responsibility.
func (s *productService) GetPaged(ctx context.Context, page, pageSize int, search string) ([]*domain.Product, int, error) {
	return s.productRepo.List(ctx, page, pageSize, search)
}

// GetByID retrieves a hydrated product
func (s *productService) GetByID(ctx context.Context, id int64) (*domain.Product, error) {
	return s.productRepo.FindByID(ctx, id)
}

// Create validates the category ids, inserts the product with its
// associations and returns the hydrated record re-read from storage.
func (s *productService) Create(ctx context.Context, input ProductInput) (*domain.Product, error) {
	categoryIDs, err := s.validCategoryIDs(ctx, input.CategoryIDs)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	product := &domain.Product{
		Name:          strings.TrimSpace(input.Name),
		Description:   input.Description,
		Price:         input.Price,
		StockQuantity: input.StockQuantity,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	id, err := s.productRepo.Create(ctx, product, categoryIDs)
	if err != nil {
		if errors.Is(err, repository.ErrInvalidCategoryReference) {
			// A category vanished between the existence check and the
			// association insert; the write was rolled back.
			return nil, ErrInvalidCategoryIDs
		}
		return nil, fmt.Errorf("failed to create product: %w", err)
	}

	created, err := s.productRepo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load created product: %w", err)
	}

	s.publish(ctx, events.NewProductEvent(events.ProductCreated, created.ID, created.Name, created.Price))
	return created, nil
}

// Update validates the category ids, replaces all scalar fields and the full
// association set, and returns the hydrated record. The original creation
// timestamp is preserved.
func (s *productService) Update(ctx context.Context, id int64, input ProductInput) (*domain.Product, error) {
	categoryIDs, err := s.validCategoryIDs(ctx, input.CategoryIDs)
	if err != nil {
		return nil, err
	}

	product := &domain.Product{
		Name:          strings.TrimSpace(input.Name),
		Description:   input.Description,
		Price:         input.Price,
		StockQuantity: input.StockQuantity,
		UpdatedAt:     time.Now().UTC(),
	}

	if err := s.productRepo.Update(ctx, id, product, categoryIDs); err != nil {
		if errors.Is(err, repository.ErrInvalidCategoryReference) {
			return nil, ErrInvalidCategoryIDs
		}
		return nil, err
	}

	updated, err := s.productRepo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load updated product: %w", err)
	}

	s.publish(ctx, events.NewProductEvent(events.ProductUpdated, updated.ID, updated.Name, updated.Price))
	return updated, nil
}

// Delete removes a product by id
func (s *productService) Delete(ctx context.Context, id int64) error {
	if err := s.productRepo.Delete(ctx, id); err != nil {
		return err
	}

	s.publish(ctx, events.NewProductEvent(events.ProductDeleted, id, "", 0))
	return nil
}

// validCategoryIDs normalizes ids to a distinct set and verifies every one
// exists. An empty set is valid.
func (s *productService) validCategoryIDs(ctx context.Context, ids []int64) ([]int64, error) {
	distinct := distinctCategoryIDs(ids)
	if len(distinct) == 0 {
		return distinct, nil
	}

	ok, err := s.categoryRepo.ExistsAll(ctx, distinct)
	if err != nil {
		return nil, fmt.Errorf("failed to verify category ids: %w", err)
	}
	if !ok {
		return nil, ErrInvalidCategoryIDs
	}

	return distinct, nil
}

// publish sends a product event, best-effort. Broker failures must never
// fail the catalog write that already committed.
func (s *productService) publish(ctx context.Context, event events.ProductEvent) {
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.Warn("Failed to publish product event",
			zap.String("event_type", event.EventType),
			zap.Int64("product_id", event.ProductID),
			zap.Error(err),
		)
	}
}

func distinctCategoryIDs(ids []int64) []int64 {
	seen := make(map[int64]struct{}, len(ids))
	distinct := make([]int64, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		distinct = append(distinct, id)
	}
	return distinct
}
