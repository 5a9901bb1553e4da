package service

import (
	"context"
	"errors"
	"sort"
	"strings"

	"product-catalog/internal/domain"
	"product-catalog/internal/events"
	"product-catalog/internal/repository"
)

// In-memory mock repositories for testing

type mockCategoryRepository struct {
	categories map[int64]*domain.Category
	nextID     int64
}

func newMockCategoryRepository() *mockCategoryRepository {
	return &mockCategoryRepository{
		categories: make(map[int64]*domain.Category),
		nextID:     1,
	}
}

func (m *mockCategoryRepository) Create(ctx context.Context, name string) (*domain.Category, error) {
	for _, category := range m.categories {
		if category.Name == name {
			return nil, repository.ErrCategoryAlreadyExists
		}
	}
	category := &domain.Category{ID: m.nextID, Name: name}
	m.categories[category.ID] = category
	m.nextID++
	return category, nil
}

func (m *mockCategoryRepository) Update(ctx context.Context, id int64, name string) (*domain.Category, error) {
	category, exists := m.categories[id]
	if !exists {
		return nil, repository.ErrCategoryNotFound
	}
	for _, other := range m.categories {
		if other.ID != id && other.Name == name {
			return nil, repository.ErrCategoryAlreadyExists
		}
	}
	category.Name = name
	return category, nil
}

func (m *mockCategoryRepository) Delete(ctx context.Context, id int64) error {
	if _, exists := m.categories[id]; !exists {
		return repository.ErrCategoryNotFound
	}
	delete(m.categories, id)
	return nil
}

func (m *mockCategoryRepository) FindByID(ctx context.Context, id int64) (*domain.Category, error) {
	category, exists := m.categories[id]
	if !exists {
		return nil, repository.ErrCategoryNotFound
	}
	return category, nil
}

func (m *mockCategoryRepository) List(ctx context.Context) ([]*domain.Category, error) {
	categories := make([]*domain.Category, 0, len(m.categories))
	for _, category := range m.categories {
		categories = append(categories, category)
	}
	sort.Slice(categories, func(i, j int) bool {
		return categories[i].Name < categories[j].Name
	})
	return categories, nil
}

func (m *mockCategoryRepository) ExistsAll(ctx context.Context, ids []int64) (bool, error) {
	for _, id := range ids {
		if _, exists := m.categories[id]; !exists {
			return false, nil
		}
	}
	return true, nil
}

type mockProductRepository struct {
	products     map[int64]*domain.Product
	associations map[int64][]int64
	categoryRepo *mockCategoryRepository
	nextID       int64
}

func newMockProductRepository(categoryRepo *mockCategoryRepository) *mockProductRepository {
	return &mockProductRepository{
		products:     make(map[int64]*domain.Product),
		associations: make(map[int64][]int64),
		categoryRepo: categoryRepo,
		nextID:       1,
	}
}

func (m *mockProductRepository) Create(ctx context.Context, product *domain.Product, categoryIDs []int64) (int64, error) {
	for _, categoryID := range categoryIDs {
		if _, exists := m.categoryRepo.categories[categoryID]; !exists {
			return 0, repository.ErrInvalidCategoryReference
		}
	}
	stored := *product
	stored.ID = m.nextID
	m.products[stored.ID] = &stored
	m.associations[stored.ID] = append([]int64{}, categoryIDs...)
	m.nextID++
	return stored.ID, nil
}

func (m *mockProductRepository) Update(ctx context.Context, id int64, product *domain.Product, categoryIDs []int64) error {
	existing, exists := m.products[id]
	if !exists {
		return repository.ErrProductNotFound
	}
	for _, categoryID := range categoryIDs {
		if _, ok := m.categoryRepo.categories[categoryID]; !ok {
			return repository.ErrInvalidCategoryReference
		}
	}
	existing.Name = product.Name
	existing.Description = product.Description
	existing.Price = product.Price
	existing.StockQuantity = product.StockQuantity
	existing.UpdatedAt = product.UpdatedAt
	m.associations[id] = append([]int64{}, categoryIDs...)
	return nil
}

func (m *mockProductRepository) Delete(ctx context.Context, id int64) error {
	if _, exists := m.products[id]; !exists {
		return repository.ErrProductNotFound
	}
	delete(m.products, id)
	delete(m.associations, id)
	return nil
}

func (m *mockProductRepository) FindByID(ctx context.Context, id int64) (*domain.Product, error) {
	product, exists := m.products[id]
	if !exists {
		return nil, repository.ErrProductNotFound
	}
	hydrated := *product
	hydrated.Categories = []domain.CategoryRef{}
	for _, categoryID := range m.associations[id] {
		if category, ok := m.categoryRepo.categories[categoryID]; ok {
			hydrated.Categories = append(hydrated.Categories, domain.CategoryRef{ID: category.ID, Name: category.Name})
		}
	}
	return &hydrated, nil
}

func (m *mockProductRepository) List(ctx context.Context, page, pageSize int, search string) ([]*domain.Product, int, error) {
	matching := []*domain.Product{}
	for _, product := range m.products {
		if search != "" && !strings.Contains(strings.ToLower(product.Name), strings.ToLower(search)) {
			continue
		}
		matching = append(matching, product)
	}
	sort.Slice(matching, func(i, j int) bool {
		return matching[i].ID < matching[j].ID
	})

	total := len(matching)
	start := (page - 1) * pageSize
	if start >= total {
		return []*domain.Product{}, total, nil
	}
	end := start + pageSize
	if end > total {
		end = total
	}

	pageItems := make([]*domain.Product, 0, end-start)
	for _, product := range matching[start:end] {
		hydrated, _ := m.FindByID(ctx, product.ID)
		pageItems = append(pageItems, hydrated)
	}
	return pageItems, total, nil
}

type mockPublisher struct {
	published []events.ProductEvent
	fail      bool
}

func (m *mockPublisher) Publish(ctx context.Context, event events.ProductEvent) error {
	if m.fail {
		return errors.New("broker unavailable")
	}
	m.published = append(m.published, event)
	return nil
}

func (m *mockPublisher) Close() error { return nil }

type mockCategoryCache struct {
	entries     []*domain.Category
	sets        int
	invalidated int
	failGet     bool
}

func (m *mockCategoryCache) Get(ctx context.Context) ([]*domain.Category, error) {
	if m.failGet {
		return nil, errors.New("cache unavailable")
	}
	return m.entries, nil
}

func (m *mockCategoryCache) Set(ctx context.Context, categories []*domain.Category) error {
	m.entries = categories
	m.sets++
	return nil
}

func (m *mockCategoryCache) Invalidate(ctx context.Context) error {
	m.entries = nil
	m.invalidated++
	return nil
}

func (m *mockCategoryCache) Close() error { return nil }
