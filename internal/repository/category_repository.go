package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"product-catalog/internal/domain"

	"github.com/jackc/pgx/v5/pgconn"
)

var (
	ErrCategoryNotFound      = errors.New("category not found")
	ErrCategoryAlreadyExists = errors.New("category with this name already exists")
	ErrCategoryInUse         = errors.New("category is referenced by existing products")
)

// PostgreSQL error codes used for constraint mapping
const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

// CategoryRepository defines the interface for category data access
type CategoryRepository interface {
	Create(ctx context.Context, name string) (*domain.Category, error)
	Update(ctx context.Context, id int64, name string) (*domain.Category, error)
	Delete(ctx context.Context, id int64) error
	FindByID(ctx context.Context, id int64) (*domain.Category, error)
	List(ctx context.Context) ([]*domain.Category, error)
	ExistsAll(ctx context.Context, ids []int64) (bool, error)
}

type categoryRepository struct {
	db *sql.DB
}

// NewCategoryRepository creates a new instance of CategoryRepository
func NewCategoryRepository(db *sql.DB) CategoryRepository {
	return &categoryRepository{db: db}
}

// Create inserts a new category and returns it with its assigned identity
func (r *categoryRepository) Create(ctx context.Context, name string) (*domain.Category, error) {
	query := `
		INSERT INTO categories (name)
		VALUES ($1)
		RETURNING id
	`

	category := &domain.Category{Name: name}
	err := r.db.QueryRowContext(ctx, query, name).Scan(&category.ID)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return nil, ErrCategoryAlreadyExists
		}
		return nil, fmt.Errorf("failed to create category: %w", err)
	}

	return category, nil
}

// Update overwrites the name of an existing category
func (r *categoryRepository) Update(ctx context.Context, id int64, name string) (*domain.Category, error) {
	query := `
		UPDATE categories
		SET name = $2
		WHERE id = $1
	`

	result, err := r.db.ExecContext(ctx, query, id, name)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return nil, ErrCategoryAlreadyExists
		}
		return nil, fmt.Errorf("failed to update category: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return nil, ErrCategoryNotFound
	}

	return &domain.Category{ID: id, Name: name}, nil
}

// Delete removes a category by id. Categories still referenced by
// association rows are not deleted; the caller gets ErrCategoryInUse.
func (r *categoryRepository) Delete(ctx context.Context, id int64) error {
	var refCount int
	checkQuery := `SELECT COUNT(*) FROM product_categories WHERE category_id = $1`
	if err := r.db.QueryRowContext(ctx, checkQuery, id).Scan(&refCount); err != nil {
		return fmt.Errorf("failed to check category references: %w", err)
	}

	if refCount > 0 {
		return ErrCategoryInUse
	}

	query := `DELETE FROM categories WHERE id = $1`

	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		// The ON DELETE RESTRICT constraint catches the race where an
		// association row appears between the check and the delete.
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgForeignKeyViolation {
			return ErrCategoryInUse
		}
		return fmt.Errorf("failed to delete category: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return ErrCategoryNotFound
	}

	return nil
}

// FindByID retrieves a category by ID using parameterized queries
func (r *categoryRepository) FindByID(ctx context.Context, id int64) (*domain.Category, error) {
	query := `
		SELECT id, name
		FROM categories
		WHERE id = $1
	`

	category := &domain.Category{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&category.ID,
		&category.Name,
	)

	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrCategoryNotFound
		}
		return nil, fmt.Errorf("failed to find category by ID: %w", err)
	}

	return category, nil
}

// List retrieves all categories sorted by name ascending
func (r *categoryRepository) List(ctx context.Context) ([]*domain.Category, error) {
	query := `
		SELECT id, name
		FROM categories
		ORDER BY name ASC
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	defer rows.Close()

	categories := []*domain.Category{}
	for rows.Next() {
		category := &domain.Category{}
		if err := rows.Scan(&category.ID, &category.Name); err != nil {
			return nil, fmt.Errorf("failed to scan category: %w", err)
		}
		categories = append(categories, category)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating categories: %w", err)
	}

	return categories, nil
}

// ExistsAll reports whether every id in ids corresponds to an existing
// category. An empty input is vacuously true. Duplicate ids are counted once.
func (r *categoryRepository) ExistsAll(ctx context.Context, ids []int64) (bool, error) {
	distinct := distinctIDs(ids)
	if len(distinct) == 0 {
		return true, nil
	}

	// The pgx stdlib driver binds []int64 as a native postgres array.
	query := `SELECT COUNT(*) FROM categories WHERE id = ANY($1)`

	var count int
	if err := r.db.QueryRowContext(ctx, query, distinct).Scan(&count); err != nil {
		return false, fmt.Errorf("failed to count categories: %w", err)
	}

	return count == len(distinct), nil
}

// distinctIDs returns ids with duplicates removed, preserving first-seen order
func distinctIDs(ids []int64) []int64 {
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
