package transport

import (
	"context"
	"sort"
	"strings"
	"time"

	"product-catalog/internal/domain"
	"product-catalog/internal/repository"
	"product-catalog/internal/service"
)

// In-memory fake services for handler testing

type fakeCategoryService struct {
	categories map[int64]*domain.Category
	inUse      map[int64]bool
	nextID     int64
}

func newFakeCategoryService() *fakeCategoryService {
	return &fakeCategoryService{
		categories: make(map[int64]*domain.Category),
		inUse:      make(map[int64]bool),
		nextID:     1,
	}
}

func (f *fakeCategoryService) GetAll(ctx context.Context) ([]*domain.Category, error) {
	categories := make([]*domain.Category, 0, len(f.categories))
	for _, category := range f.categories {
		categories = append(categories, category)
	}
	sort.Slice(categories, func(i, j int) bool {
		return categories[i].Name < categories[j].Name
	})
	return categories, nil
}

func (f *fakeCategoryService) GetByID(ctx context.Context, id int64) (*domain.Category, error) {
	category, exists := f.categories[id]
	if !exists {
		return nil, repository.ErrCategoryNotFound
	}
	return category, nil
}

func (f *fakeCategoryService) Create(ctx context.Context, name string) (*domain.Category, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, service.ErrEmptyCategoryName
	}
	for _, category := range f.categories {
		if category.Name == name {
			return nil, repository.ErrCategoryAlreadyExists
		}
	}
	category := &domain.Category{ID: f.nextID, Name: name}
	f.categories[category.ID] = category
	f.nextID++
	return category, nil
}

func (f *fakeCategoryService) Update(ctx context.Context, id int64, name string) (*domain.Category, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, service.ErrEmptyCategoryName
	}
	category, exists := f.categories[id]
	if !exists {
		return nil, repository.ErrCategoryNotFound
	}
	for _, other := range f.categories {
		if other.ID != id && other.Name == name {
			return nil, repository.ErrCategoryAlreadyExists
		}
	}
	category.Name = name
	return category, nil
}

func (f *fakeCategoryService) Delete(ctx context.Context, id int64) error {
	if _, exists := f.categories[id]; !exists {
		return repository.ErrCategoryNotFound
	}
	if f.inUse[id] {
		return repository.ErrCategoryInUse
	}
	delete(f.categories, id)
	return nil
}

type fakeProductService struct {
	products     map[int64]*domain.Product
	associations map[int64][]int64
	categorySvc  *fakeCategoryService
	nextID       int64
}

func newFakeProductService(categorySvc *fakeCategoryService) *fakeProductService {
	return &fakeProductService{
		products:     make(map[int64]*domain.Product),
		associations: make(map[int64][]int64),
		categorySvc:  categorySvc,
		nextID:       1,
	}
}

func (f *fakeProductService) validateCategories(ids []int64) ([]int64, error) {
	distinct := []int64{}
	seen := map[int64]struct{}{}
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		if _, exists := f.categorySvc.categories[id]; !exists {
			return nil, service.ErrInvalidCategoryIDs
		}
		distinct = append(distinct, id)
	}
	return distinct, nil
}

func (f *fakeProductService) hydrate(id int64) *domain.Product {
	product := *f.products[id]
	product.Categories = []domain.CategoryRef{}
	for _, categoryID := range f.associations[id] {
		if category, ok := f.categorySvc.categories[categoryID]; ok {
			product.Categories = append(product.Categories, domain.CategoryRef{ID: category.ID, Name: category.Name})
		}
	}
	return &product
}

func (f *fakeProductService) GetPaged(ctx context.Context, page, pageSize int, search string) ([]*domain.Product, int, error) {
	matching := []int64{}
	for id, product := range f.products {
		if search != "" && !strings.Contains(strings.ToLower(product.Name), strings.ToLower(search)) {
			continue
		}
		matching = append(matching, id)
	}
	sort.Slice(matching, func(i, j int) bool { return matching[i] < matching[j] })

	total := len(matching)
	start := (page - 1) * pageSize
	if start >= total {
		return []*domain.Product{}, total, nil
	}
	end := start + pageSize
	if end > total {
		end = total
	}

	items := []*domain.Product{}
	for _, id := range matching[start:end] {
		items = append(items, f.hydrate(id))
	}
	return items, total, nil
}

func (f *fakeProductService) GetByID(ctx context.Context, id int64) (*domain.Product, error) {
	if _, exists := f.products[id]; !exists {
		return nil, repository.ErrProductNotFound
	}
	return f.hydrate(id), nil
}

func (f *fakeProductService) Create(ctx context.Context, input service.ProductInput) (*domain.Product, error) {
	categoryIDs, err := f.validateCategories(input.CategoryIDs)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	product := &domain.Product{
		ID:            f.nextID,
		Name:          strings.TrimSpace(input.Name),
		Description:   input.Description,
		Price:         input.Price,
		StockQuantity: input.StockQuantity,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	f.products[product.ID] = product
	f.associations[product.ID] = categoryIDs
	f.nextID++
	return f.hydrate(product.ID), nil
}

func (f *fakeProductService) Update(ctx context.Context, id int64, input service.ProductInput) (*domain.Product, error) {
	categoryIDs, err := f.validateCategories(input.CategoryIDs)
	if err != nil {
		return nil, err
	}

	product, exists := f.products[id]
	if !exists {
		return nil, repository.ErrProductNotFound
	}
	product.Name = strings.TrimSpace(input.Name)
	product.Description = input.Description
	product.Price = input.Price
	product.StockQuantity = input.StockQuantity
	product.UpdatedAt = time.Now().UTC()
	f.associations[id] = categoryIDs
	return f.hydrate(id), nil
}

func (f *fakeProductService) Delete(ctx context.Context, id int64) error {
	if _, exists := f.products[id]; !exists {
		return repository.ErrProductNotFound
	}
	delete(f.products, id)
	delete(f.associations, id)
	return nil
}
